package analysis

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/banshee-data/chartlab/internal/dataset"
	"github.com/banshee-data/chartlab/internal/stats"
)

// CorrelationFeatures are correlated against chart performance.
var CorrelationFeatures = []string{
	"danceability", "energy", "valence", "tempo",
	"acousticness", "loudness", "speechiness",
}

// PerformanceMetrics measure how well a track did in the charts.
var PerformanceMetrics = []string{"popularity", "peak_position", "weeks_in_chart", "streams"}

// FeatureCorrelation is one feature's correlation with a metric.
type FeatureCorrelation struct {
	Feature   string
	R         float64
	Strength  string
	Direction string
}

// MetricCorrelations lists every feature's correlation with one metric,
// strongest positive first. Undefined correlations sort last.
type MetricCorrelations struct {
	Metric   string
	Features []FeatureCorrelation
}

// CorrelationResult holds the correlation analysis.
type CorrelationResult struct {
	Metrics []MetricCorrelations
	Columns []string
	Matrix  *mat.SymDense
}

func column(rows []dataset.EngineeredRow, name string) []float64 {
	return dataset.Floats(rows, func(r *dataset.EngineeredRow) float64 { return r.Feature(name) })
}

// Correlations relates audio features to performance metrics.
func Correlations(rows []dataset.EngineeredRow) *CorrelationResult {
	cols := make(map[string][]float64)
	get := func(name string) []float64 {
		if c, ok := cols[name]; ok {
			return c
		}
		c := column(rows, name)
		cols[name] = c
		return c
	}

	res := &CorrelationResult{}
	for _, metric := range PerformanceMetrics {
		mc := MetricCorrelations{Metric: metric}
		for _, f := range CorrelationFeatures {
			r := stats.Pearson(get(f), get(metric))
			strength, direction := stats.Strength(r)
			mc.Features = append(mc.Features, FeatureCorrelation{Feature: f, R: r, Strength: strength, Direction: direction})
		}
		sort.SliceStable(mc.Features, func(i, j int) bool {
			a, b := mc.Features[i].R, mc.Features[j].R
			if math.IsNaN(b) {
				return !math.IsNaN(a)
			}
			return a > b
		})
		res.Metrics = append(res.Metrics, mc)
	}

	res.Columns = append(append([]string(nil), CorrelationFeatures...), "popularity", "peak_position")
	matrixCols := make([][]float64, len(res.Columns))
	for i, name := range res.Columns {
		matrixCols[i] = get(name)
	}
	res.Matrix = stats.CorrelationMatrix(matrixCols)
	return res
}
