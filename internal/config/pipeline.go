package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// DefaultConfigPath is the path to the pipeline defaults file. The file is
// optional: every field has a compiled-in default returned by its Get* method.
const DefaultConfigPath = "config/pipeline.defaults.json"

// DateLayout is the calendar date format used by every dataset.
const DateLayout = "2006-01-02"

// PipelineConfig holds the tunable parameters of every pipeline stage.
// Pointer and nil-able fields distinguish "not set" from a zero value so a
// partial JSON file only overrides what it names.
type PipelineConfig struct {
	DataDir *string `json:"data_dir,omitempty"`
	DBPath  *string `json:"db_path,omitempty"`

	// Filter stage
	StartDate *string  `json:"start_date,omitempty"` // YYYY-MM-DD, inclusive
	Regions   []string `json:"regions,omitempty"`
	TopRank   *int     `json:"top_rank,omitempty"`

	// Feature engineering
	TrendBaseline    *float64          `json:"trend_baseline,omitempty"`
	CovidYears       []int             `json:"covid_years,omitempty"`
	RegionCategories map[string]string `json:"region_categories,omitempty"`

	// Analysis
	Significance       *float64 `json:"significance,omitempty"`
	ClusterCount       *int     `json:"cluster_count,omitempty"`
	ClusterSeed        *int64   `json:"cluster_seed,omitempty"`
	ClusterRestarts    *int     `json:"cluster_restarts,omitempty"`
	ClusterMaxIter     *int     `json:"cluster_max_iter,omitempty"`
	TopN               *int     `json:"top_n,omitempty"`
	TopTracksPerRegion *int     `json:"top_tracks_per_region,omitempty"`
}

var defaultRegions = []string{
	"United States",
	"United Kingdom",
	"Brazil",
	"Japan",
	"India",
	"Global",
}

var defaultRegionCategories = map[string]string{
	"United States":  "North America",
	"United Kingdom": "Europe",
	"Brazil":         "South America",
	"Japan":          "Asia",
	"India":          "Asia",
	"Global":         "Global",
}

// EmptyPipelineConfig returns a config with every field unset.
func EmptyPipelineConfig() *PipelineConfig {
	return &PipelineConfig{}
}

// LoadPipelineConfig loads a PipelineConfig from a JSON file.
// Fields omitted from the file keep their defaults.
func LoadPipelineConfig(path string) (*PipelineConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyPipelineConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// LoadOrDefault loads path when it exists and falls back to an empty config
// (all defaults) when it does not. Any other failure is returned.
func LoadOrDefault(path string) (*PipelineConfig, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return EmptyPipelineConfig(), nil
	}
	return LoadPipelineConfig(path)
}

// Validate checks that set values are usable.
func (c *PipelineConfig) Validate() error {
	if c.StartDate != nil && *c.StartDate != "" {
		if _, err := time.Parse(DateLayout, *c.StartDate); err != nil {
			return fmt.Errorf("invalid start_date '%s': %w", *c.StartDate, err)
		}
	}
	if c.TopRank != nil && *c.TopRank < 1 {
		return fmt.Errorf("top_rank must be at least 1, got %d", *c.TopRank)
	}
	if c.Significance != nil {
		if *c.Significance <= 0 || *c.Significance >= 1 {
			return fmt.Errorf("significance must be between 0 and 1, got %f", *c.Significance)
		}
	}
	if c.ClusterCount != nil && *c.ClusterCount < 1 {
		return fmt.Errorf("cluster_count must be at least 1, got %d", *c.ClusterCount)
	}
	if c.ClusterRestarts != nil && *c.ClusterRestarts < 1 {
		return fmt.Errorf("cluster_restarts must be at least 1, got %d", *c.ClusterRestarts)
	}
	if c.ClusterMaxIter != nil && *c.ClusterMaxIter < 1 {
		return fmt.Errorf("cluster_max_iter must be at least 1, got %d", *c.ClusterMaxIter)
	}
	if c.TopN != nil && *c.TopN < 1 {
		return fmt.Errorf("top_n must be at least 1, got %d", *c.TopN)
	}
	if c.TopTracksPerRegion != nil && *c.TopTracksPerRegion < 1 {
		return fmt.Errorf("top_tracks_per_region must be at least 1, got %d", *c.TopTracksPerRegion)
	}
	return nil
}

// GetDataDir returns the data root directory.
func (c *PipelineConfig) GetDataDir() string {
	if c.DataDir == nil || *c.DataDir == "" {
		return "data"
	}
	return *c.DataDir
}

// GetDBPath returns the SQLite database path.
func (c *PipelineConfig) GetDBPath() string {
	if c.DBPath == nil || *c.DBPath == "" {
		return "chartlab.db"
	}
	return *c.DBPath
}

// GetStartDate returns the first chart date kept by the filter stage.
func (c *PipelineConfig) GetStartDate() time.Time {
	def := time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)
	if c.StartDate == nil || *c.StartDate == "" {
		return def
	}
	t, err := time.Parse(DateLayout, *c.StartDate)
	if err != nil {
		return def
	}
	return t
}

// GetRegions returns the regions kept by the filter stage, in priority order.
func (c *PipelineConfig) GetRegions() []string {
	if len(c.Regions) == 0 {
		return append([]string(nil), defaultRegions...)
	}
	return append([]string(nil), c.Regions...)
}

// GetTopRank returns the worst chart rank kept by the filter stage.
func (c *PipelineConfig) GetTopRank() int {
	if c.TopRank == nil {
		return 50
	}
	return *c.TopRank
}

// GetTrendBaseline returns the value a track's first chart rank is
// subtracted from when it has no previous rank to compare against.
func (c *PipelineConfig) GetTrendBaseline() float64 {
	if c.TrendBaseline == nil {
		return 50
	}
	return *c.TrendBaseline
}

// GetCovidYears returns the calendar years labelled "During COVID".
func (c *PipelineConfig) GetCovidYears() []int {
	if len(c.CovidYears) == 0 {
		return []int{2020, 2021}
	}
	return append([]int(nil), c.CovidYears...)
}

// GetRegionCategories returns the region → continent grouping.
func (c *PipelineConfig) GetRegionCategories() map[string]string {
	src := c.RegionCategories
	if len(src) == 0 {
		src = defaultRegionCategories
	}
	out := make(map[string]string, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

// GetSignificance returns the ANOVA significance level.
func (c *PipelineConfig) GetSignificance() float64 {
	if c.Significance == nil {
		return 0.05
	}
	return *c.Significance
}

// GetClusterCount returns k for regional k-means.
func (c *PipelineConfig) GetClusterCount() int {
	if c.ClusterCount == nil {
		return 3
	}
	return *c.ClusterCount
}

// GetClusterSeed returns the k-means random seed.
func (c *PipelineConfig) GetClusterSeed() int64 {
	if c.ClusterSeed == nil {
		return 42
	}
	return *c.ClusterSeed
}

// GetClusterRestarts returns how many k-means initialisations are tried.
func (c *PipelineConfig) GetClusterRestarts() int {
	if c.ClusterRestarts == nil {
		return 10
	}
	return *c.ClusterRestarts
}

// GetClusterMaxIter returns the per-run k-means iteration cap.
func (c *PipelineConfig) GetClusterMaxIter() int {
	if c.ClusterMaxIter == nil {
		return 300
	}
	return *c.ClusterMaxIter
}

// GetTopN returns the length of the top-track listings.
func (c *PipelineConfig) GetTopN() int {
	if c.TopN == nil {
		return 10
	}
	return *c.TopN
}

// GetTopTracksPerRegion returns how many tracks per region are kept in the
// top_tracks_by_region visualization table.
func (c *PipelineConfig) GetTopTracksPerRegion() int {
	if c.TopTracksPerRegion == nil {
		return 20
	}
	return *c.TopTracksPerRegion
}
