package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/banshee-data/chartlab/internal/analysis"
	"github.com/banshee-data/chartlab/internal/api"
	"github.com/banshee-data/chartlab/internal/db"
	"github.com/banshee-data/chartlab/internal/monitoring"
	"github.com/banshee-data/chartlab/internal/timeutil"
)

func (a *app) loadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "load",
		Short: "Load the engineered dataset and its analyses into the database",
		RunE: func(cmd *cobra.Command, args []string) error {
			database, err := db.Open(a.cfg.GetDBPath())
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer database.Close()

			run, err := database.Load(a.fs, a.paths.Engineered(), analysis.OptionsFromConfig(a.cfg), timeutil.RealClock{})
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, done(fmt.Sprintf("Loaded run %s (%d rows)", run.ID, run.Rows)))
			return nil
		},
	}
}

func (a *app) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate <up|down|status|version N|force N|help>",
		Short: "Manage the database schema",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return db.RunMigrateCommand(args, a.cfg.GetDBPath())
		},
	}
}

func (a *app) serveCmd() *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve charts, stored runs, and the database debug console",
		RunE: func(cmd *cobra.Command, args []string) error {
			database, err := db.Open(a.cfg.GetDBPath())
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer database.Close()

			mux := api.NewServer(database, a.paths.ChartsDir()).ServeMux()
			// Debug routes are only reachable from loopback or over Tailscale.
			if err := database.AttachAdminRoutes(mux); err != nil {
				return err
			}
			return serve(cmd.Context(), listen, api.LoggingMiddleware(mux))
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "localhost:8080", "Listen address")
	return cmd
}

// serve runs the HTTP server until ctx is cancelled, then shuts it down.
func serve(ctx context.Context, addr string, h http.Handler) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	server := &http.Server{Handler: h, ReadHeaderTimeout: 10 * time.Second}

	errc := make(chan error, 1)
	go func() {
		errc <- server.Serve(ln)
	}()
	monitoring.Logf("Serving on http://%s (charts at /charts/, runs at /api/runs)", ln.Addr())

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Println("shutting down HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("HTTP server shutdown error: %w", err)
	}
	return nil
}
