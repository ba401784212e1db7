package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/banshee-data/chartlab/internal/analysis"
	"github.com/banshee-data/chartlab/internal/explore"
	"github.com/banshee-data/chartlab/internal/features"
	"github.com/banshee-data/chartlab/internal/filter"
	"github.com/banshee-data/chartlab/internal/merge"
	"github.com/banshee-data/chartlab/internal/monitoring"
	"github.com/banshee-data/chartlab/internal/viz"
)

var done = color.New(color.FgGreen, color.Bold).SprintFunc()

func (a *app) filterCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "filter",
		Short: "Filter the raw chart export by date, region, and rank",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.filter()
		},
	}
}

func (a *app) filter() error {
	_, err := filter.Run(a.fs, a.paths.RawCharts(), a.paths.FilteredCharts(), filter.Options{
		StartDate: a.cfg.GetStartDate(),
		Regions:   a.cfg.GetRegions(),
		TopRank:   a.cfg.GetTopRank(),
	})
	return err
}

func (a *app) exploreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "explore",
		Short: "Profile the source datasets and check they can be merged",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.explore()
		},
	}
}

func (a *app) explore() error {
	_, err := explore.Run(a.fs, a.out, []explore.Dataset{
		{Name: "Billboard Hot 100", Path: a.paths.Billboard(), Use: "US baseline"},
		{Name: "Spotify Charts (filtered)", Path: a.paths.FilteredCharts(), Use: "Regional charts"},
		{Name: "Spotify Tracks Features", Path: a.paths.Features(), Use: "Audio features"},
	}, 1, 2)
	return err
}

func (a *app) mergeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "merge",
		Short: "Join filtered charts with audio features on track_id",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.merge()
		},
	}
}

func (a *app) merge() error {
	s, err := merge.Run(a.fs, a.paths.FilteredCharts(), a.paths.Features(), a.paths.Merged())
	if err != nil {
		return err
	}
	if !s.MeetsRequirements() {
		monitoring.Logf("Merged dataset is smaller than the analysis expects: %d rows", s.Rows)
	}
	return nil
}

func (a *app) engineerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "engineer",
		Short: "Derive analysis features from the merged dataset",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.engineer()
		},
	}
}

func (a *app) engineer() error {
	_, err := features.Run(a.fs, a.paths.Merged(), a.paths.Engineered(), features.Options{
		TrendBaseline:    a.cfg.GetTrendBaseline(),
		RegionCategories: a.cfg.GetRegionCategories(),
		CovidYears:       a.cfg.GetCovidYears(),
	})
	return err
}

func (a *app) analyzeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "analyze",
		Short: "Run the statistical analyses and export their tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.analyze()
		},
	}
}

func (a *app) analyze() error {
	_, err := analysis.Run(a.fs, a.paths, analysis.OptionsFromConfig(a.cfg), a.out)
	return err
}

func (a *app) visualizeCmd() *cobra.Command {
	var opts viz.Options
	cmd := &cobra.Command{
		Use:   "visualize",
		Short: "Render the HTML and PNG charts",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := viz.Run(cmd.Context(), a.fs, a.paths, opts)
			return err
		},
	}
	cmd.Flags().StringVar(&opts.AssetsHost, "assets-host", "", "Host serving the echarts JavaScript assets")
	cmd.Flags().IntVar(&opts.Parallelism, "parallelism", 0, "Maximum concurrent renders (0 = unlimited)")
	return cmd
}

func (a *app) runCmd() *cobra.Command {
	var opts viz.Options
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run every pipeline stage in order",
		RunE: func(cmd *cobra.Command, args []string) error {
			stages := []struct {
				name string
				run  func() error
			}{
				{"filter", a.filter},
				{"explore", a.explore},
				{"merge", a.merge},
				{"engineer", a.engineer},
				{"analyze", a.analyze},
				{"visualize", func() error {
					_, err := viz.Run(cmd.Context(), a.fs, a.paths, opts)
					return err
				}},
			}
			for i, s := range stages {
				if err := cmd.Context().Err(); err != nil {
					return err
				}
				if err := s.run(); err != nil {
					return fmt.Errorf("stage %d (%s): %w", i+1, s.name, err)
				}
			}
			fmt.Fprintln(a.out, done("Pipeline complete."))
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.AssetsHost, "assets-host", "", "Host serving the echarts JavaScript assets")
	cmd.Flags().IntVar(&opts.Parallelism, "parallelism", 0, "Maximum concurrent renders (0 = unlimited)")
	return cmd
}
