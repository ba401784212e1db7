// Command chartlab runs the music-chart analysis pipeline: one subcommand per
// stage, plus the SQLite store and its debug server.
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/banshee-data/chartlab/internal/config"
	"github.com/banshee-data/chartlab/internal/fsutil"
	"github.com/banshee-data/chartlab/internal/version"
)

// app carries the state shared by every subcommand.
type app struct {
	configPath string
	dataDir    string
	dbPath     string

	cfg   *config.PipelineConfig
	paths config.Paths
	fs    fsutil.FileSystem
	out   io.Writer
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "chartlab",
		Short: "Music chart analysis pipeline",
		Long: `chartlab filters streaming chart exports, joins them with audio features,
engineers derived features, runs the statistical analyses, and renders charts.

Stages read and write files under the data directory:
  raw/            source exports
  processed/      stage outputs and analysis tables
  visualizations/ chart input tables and workbook
  charts/         rendered HTML and PNG charts`,
		Version:       fmt.Sprintf("%s (%s, built %s)", version.Version, version.GitSHA, version.BuildTime),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.loadConfig()
		},
	}
	root.SetOut(a.out)

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", config.DefaultConfigPath, "Pipeline config JSON (optional)")
	flags.StringVar(&a.dataDir, "data-dir", "", "Data root directory (overrides config)")
	flags.StringVar(&a.dbPath, "db-path", "", "SQLite database path (overrides config)")

	root.AddCommand(
		a.filterCmd(),
		a.exploreCmd(),
		a.mergeCmd(),
		a.engineerCmd(),
		a.analyzeCmd(),
		a.visualizeCmd(),
		a.runCmd(),
		a.loadCmd(),
		a.migrateCmd(),
		a.serveCmd(),
		a.spotifyCheckCmd(),
	)
	return root
}

// loadConfig reads the optional config file and applies flag overrides.
func (a *app) loadConfig() error {
	cfg, err := config.LoadOrDefault(a.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config %s: %w", a.configPath, err)
	}
	if a.dataDir != "" {
		cfg.DataDir = &a.dataDir
	}
	if a.dbPath != "" {
		cfg.DBPath = &a.dbPath
	}
	a.cfg = cfg
	a.paths = cfg.NewPaths()
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a := &app{fs: fsutil.OSFileSystem{}, out: os.Stdout}
	if err := newRootCmd(a).ExecuteContext(ctx); err != nil {
		log.Printf("Error: %v", err)
		stop()
		os.Exit(1)
	}
}
