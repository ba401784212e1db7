// Package analysis runs the statistical analyses over the engineered dataset
// and exports the aggregated tables the charts are drawn from.
package analysis

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/banshee-data/chartlab/internal/config"
	"github.com/banshee-data/chartlab/internal/dataset"
	"github.com/banshee-data/chartlab/internal/fsutil"
	"github.com/banshee-data/chartlab/internal/monitoring"
)

// Output file names under the processed directory.
const (
	RegionalMeansFile     = "regional_audio_means.csv"
	GenreEvolutionFile    = "genre_evolution.csv"
	RegionalClustersFile  = "regional_clusters.csv"
	CorrelationMatrixFile = "correlation_matrix.csv"
)

// Options parameterise the analyses.
type Options struct {
	Significance float64
	Clusters     ClusterOptions
	TopN         int
	TopGenres    int
	TopPerRegion int
}

// OptionsFromConfig builds analysis options from the pipeline config.
func OptionsFromConfig(cfg *config.PipelineConfig) Options {
	return Options{
		Significance: cfg.GetSignificance(),
		Clusters: ClusterOptions{
			K:       cfg.GetClusterCount(),
			Seed:    cfg.GetClusterSeed(),
			NInit:   cfg.GetClusterRestarts(),
			MaxIter: cfg.GetClusterMaxIter(),
		},
		TopN:         cfg.GetTopN(),
		TopGenres:    5,
		TopPerRegion: cfg.GetTopTracksPerRegion(),
	}
}

// Result collects every analysis.
type Result struct {
	Rows          int
	Regional      *RegionalResult
	Genres        *GenreResult
	Clusters      *ClusterResult
	TopTracks     *TopTracksResult
	Correlations  *CorrelationResult
	Visualization *VisualizationTables
}

// Analyze runs every analysis over rows without touching the filesystem.
func Analyze(rows []dataset.EngineeredRow, opts Options) (*Result, error) {
	res := &Result{Rows: len(rows)}
	var err error

	if res.Regional, err = RegionalAudio(rows, opts.Significance); err != nil {
		return nil, fmt.Errorf("regional audio analysis: %w", err)
	}
	res.Genres = GenreEvolution(rows, opts.TopGenres)
	if res.Clusters, err = Clustering(rows, opts.Clusters); err != nil {
		return nil, fmt.Errorf("clustering analysis: %w", err)
	}
	res.TopTracks = TopTracks(rows, opts.TopN)
	res.Correlations = Correlations(rows)
	res.Visualization = BuildVisualizationData(rows, opts.TopPerRegion)
	return res, nil
}

// Run loads the engineered dataset, analyses it, renders the report to w,
// and writes every output table and the chart workbook.
func Run(fsys fsutil.FileSystem, paths config.Paths, opts Options, w io.Writer) (*Result, error) {
	monitoring.Section("Comprehensive data analysis")

	rows, err := dataset.EngineeredSchema.Load(fsys, paths.Engineered())
	if err != nil {
		return nil, err
	}
	monitoring.Logf("Loaded: %d rows, %d columns", len(rows), len(dataset.EngineeredSchema.Header()))

	res, err := Analyze(rows, opts)
	if err != nil {
		return nil, err
	}
	res.Render(w)

	if err := res.Save(fsys, paths); err != nil {
		return nil, err
	}
	return res, nil
}

// Save writes the processed tables, the visualization tables, and the workbook.
func (r *Result) Save(fsys fsutil.FileSystem, paths config.Paths) error {
	if err := saveRegionalMeans(fsys, paths.Processed(RegionalMeansFile), r.Regional); err != nil {
		return err
	}
	monitoring.Logf("Regional means saved to: %s", paths.Processed(RegionalMeansFile))

	if err := GenreCountSchema.Save(fsys, paths.Processed(GenreEvolutionFile), r.Genres.Counts); err != nil {
		return err
	}
	monitoring.Logf("Genre evolution data saved to: %s", paths.Processed(GenreEvolutionFile))

	if err := saveClusters(fsys, paths.Processed(RegionalClustersFile), r.Clusters); err != nil {
		return err
	}
	monitoring.Logf("Clustering results saved to: %s", paths.Processed(RegionalClustersFile))

	if err := saveCorrelationMatrix(fsys, paths.Processed(CorrelationMatrixFile), r.Correlations); err != nil {
		return err
	}
	monitoring.Logf("Correlation matrix saved to: %s", paths.Processed(CorrelationMatrixFile))

	monitoring.Section("Creating visualization data files")
	if err := r.Visualization.Save(fsys, paths); err != nil {
		return err
	}
	for i, name := range []string{
		dataset.MonthlyGenreTrendsFile,
		dataset.RegionalAudioComparisonFile,
		dataset.EnergyValenceScatterFile,
		dataset.TopTracksByRegionFile,
		dataset.MoodTrendsFile,
	} {
		monitoring.Step(i+1, name)
	}

	workbook := paths.Visualization(dataset.ChartDataWorkbookFile)
	if err := ExportWorkbook(fsys, workbook, r.Visualization); err != nil {
		return err
	}
	monitoring.Logf("Visualization data files created in: %s", paths.VisualizationsDir())
	return nil
}

func writeTable(fsys fsutil.FileSystem, path string, header []string, rows [][]string) error {
	f, err := fsutil.CreateAll(fsys, path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := writeCSV(f, header, rows); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}

// writeCSV writes the header and rows, then flushes.
func writeCSV(out io.Writer, header []string, rows [][]string) error {
	w := csv.NewWriter(out)
	if err := w.Write(header); err != nil {
		return err
	}
	return w.WriteAll(rows)
}

func meansRow(key string, means []float64) []string {
	row := []string{key}
	for _, m := range means {
		row = append(row, dataset.FormatFloat(m))
	}
	return row
}

func saveRegionalMeans(fsys fsutil.FileSystem, path string, r *RegionalResult) error {
	header := append([]string{"region"}, r.Features...)
	rows := make([][]string, len(r.Regions))
	for i, g := range r.Regions {
		rows[i] = meansRow(g.Key, g.Means)
	}
	return writeTable(fsys, path, header, rows)
}

func saveClusters(fsys fsutil.FileSystem, path string, c *ClusterResult) error {
	header := append(append([]string{"region"}, c.Features...), "cluster")
	rows := make([][]string, len(c.Profiles))
	for i, p := range c.Profiles {
		rows[i] = append(meansRow(p.Key, p.Means), strconv.Itoa(p.Cluster))
	}
	return writeTable(fsys, path, header, rows)
}

func saveCorrelationMatrix(fsys fsutil.FileSystem, path string, c *CorrelationResult) error {
	header := append([]string{""}, c.Columns...)
	rows := make([][]string, len(c.Columns))
	for i, name := range c.Columns {
		vals := make([]float64, len(c.Columns))
		for j := range c.Columns {
			vals[j] = c.Matrix.At(i, j)
		}
		rows[i] = meansRow(name, vals)
	}
	return writeTable(fsys, path, header, rows)
}
