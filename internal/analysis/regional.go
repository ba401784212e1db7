package analysis

import (
	"errors"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/chartlab/internal/dataset"
	"github.com/banshee-data/chartlab/internal/stats"
)

// RegionalFeatures are compared across regions with ANOVA.
var RegionalFeatures = []string{
	"danceability", "energy", "valence", "tempo",
	"acousticness", "loudness", "speechiness", "instrumentalness",
}

// GroupMeans is the per-feature mean of one group of rows.
type GroupMeans struct {
	Key   string
	Means []float64 // aligned with the feature list it was computed for
}

// Mean returns the mean of the named feature, or NaN if it was not computed.
func (g GroupMeans) Mean(features []string, name string) float64 {
	for i, f := range features {
		if f == name {
			return g.Means[i]
		}
	}
	return math.NaN()
}

// meansBy groups rows by key and averages each feature, skipping NaNs.
// Groups come back sorted by key; rows with an empty key are ignored.
func meansBy(rows []dataset.EngineeredRow, key func(*dataset.EngineeredRow) string, features []string) []GroupMeans {
	groups := groupBy(rows, key)
	out := make([]GroupMeans, 0, len(groups))
	for _, g := range groups {
		gm := GroupMeans{Key: g.key, Means: make([]float64, len(features))}
		for j, f := range features {
			gm.Means[j] = meanOf(g.rows, func(r *dataset.EngineeredRow) float64 { return r.Feature(f) })
		}
		out = append(out, gm)
	}
	return out
}

type group struct {
	key  string
	rows []*dataset.EngineeredRow
}

func groupBy(rows []dataset.EngineeredRow, key func(*dataset.EngineeredRow) string) []group {
	index := make(map[string]int)
	var groups []group
	for i := range rows {
		k := key(&rows[i])
		if k == "" {
			continue
		}
		j, ok := index[k]
		if !ok {
			j = len(groups)
			index[k] = j
			groups = append(groups, group{key: k})
		}
		groups[j].rows = append(groups[j].rows, &rows[i])
	}
	sort.Slice(groups, func(a, b int) bool { return groups[a].key < groups[b].key })
	return groups
}

func meanOf(rows []*dataset.EngineeredRow, value func(*dataset.EngineeredRow) float64) float64 {
	xs := make([]float64, 0, len(rows))
	for _, r := range rows {
		if v := value(r); !math.IsNaN(v) {
			xs = append(xs, v)
		}
	}
	if len(xs) == 0 {
		return math.NaN()
	}
	return stat.Mean(xs, nil)
}

// FeatureTest is the ANOVA of one feature across regions.
type FeatureTest struct {
	Feature     string
	F           float64
	P           float64
	Significant bool
}

// RegionalResult holds the regional comparison.
type RegionalResult struct {
	Features []string
	Regions  []GroupMeans
	Tests    []FeatureTest
}

// RegionalAudio averages the regional features per region and tests each
// feature for a difference between regions at significance level alpha.
// Features that cannot be tested (fewer than two regions with values) get
// NaN statistics and are not significant.
func RegionalAudio(rows []dataset.EngineeredRow, alpha float64) (*RegionalResult, error) {
	res := &RegionalResult{
		Features: RegionalFeatures,
		Regions:  meansBy(rows, regionKey, RegionalFeatures),
	}
	groups := groupBy(rows, regionKey)
	for _, f := range RegionalFeatures {
		samples := make([][]float64, len(groups))
		for i, g := range groups {
			samples[i] = make([]float64, len(g.rows))
			for j, r := range g.rows {
				samples[i][j] = r.Feature(f)
			}
		}
		t := FeatureTest{Feature: f, F: math.NaN(), P: math.NaN()}
		a, err := stats.OneWayANOVA(samples)
		switch {
		case err == nil:
			t.F, t.P = a.F, a.P
			t.Significant = a.P < alpha
		case !errors.Is(err, stats.ErrTooFewGroups):
			return nil, err
		}
		res.Tests = append(res.Tests, t)
	}
	return res, nil
}

// Test returns the ANOVA of the named feature.
func (r *RegionalResult) Test(feature string) (FeatureTest, bool) {
	for _, t := range r.Tests {
		if t.Feature == feature {
			return t, true
		}
	}
	return FeatureTest{}, false
}

func regionKey(r *dataset.EngineeredRow) string { return r.Region }
