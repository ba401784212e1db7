package config

import "path/filepath"

// Paths resolves the fixed dataset locations under a data root.
type Paths struct {
	Root string
}

// NewPaths returns the layout rooted at the config's data directory.
func (c *PipelineConfig) NewPaths() Paths {
	return Paths{Root: c.GetDataDir()}
}

func (p Paths) raw(name string) string       { return filepath.Join(p.Root, "raw", name) }
func (p Paths) processed(name string) string { return filepath.Join(p.Root, "processed", name) }

// RawCharts is the unfiltered Spotify charts export.
func (p Paths) RawCharts() string { return p.raw("spotify-charts.csv") }

// Billboard is the Billboard Hot 100 history, used only by explore.
func (p Paths) Billboard() string { return p.raw("billboard.csv") }

// Features is the track audio-feature catalog.
func (p Paths) Features() string { return p.raw("spotify-tracks-features.csv") }

// FilteredCharts is the filter stage output.
func (p Paths) FilteredCharts() string { return p.processed("spotify_charts_filtered.csv") }

// Merged is the merge stage output.
func (p Paths) Merged() string { return p.processed("merged_charts_features.csv") }

// Engineered is the feature engineering output and the analysis input.
func (p Paths) Engineered() string { return p.processed("final_dataset_engineered.csv") }

// ProcessedDir holds analysis result tables.
func (p Paths) ProcessedDir() string { return filepath.Join(p.Root, "processed") }

// Processed returns a file under the processed directory.
func (p Paths) Processed(name string) string { return p.processed(name) }

// VisualizationsDir holds the pre-aggregated chart input tables.
func (p Paths) VisualizationsDir() string { return filepath.Join(p.Root, "visualizations") }

// Visualization returns a file under the visualizations directory.
func (p Paths) Visualization(name string) string {
	return filepath.Join(p.VisualizationsDir(), name)
}

// ChartsDir holds rendered HTML and PNG charts.
func (p Paths) ChartsDir() string { return filepath.Join(p.Root, "charts") }

// Chart returns a file under the charts directory.
func (p Paths) Chart(name string) string { return filepath.Join(p.ChartsDir(), name) }
