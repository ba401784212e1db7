// Package merge joins the filtered charts with the audio-feature catalog.
package merge

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/chartlab/internal/dataset"
	"github.com/banshee-data/chartlab/internal/fsutil"
	"github.com/banshee-data/chartlab/internal/monitoring"
)

// Minimum dataset size the downstream analysis is designed for.
const (
	MinObservations = 2000
	MinColumns      = 10
)

// SummaryFeatures are the audio features reported in the merge summary.
var SummaryFeatures = []string{
	"danceability", "energy", "valence", "tempo", "acousticness",
	"loudness", "speechiness", "instrumentalness", "liveness",
}

// Merge inner-joins charts with features on track id. Chart order is kept and
// a chart row is repeated once per catalog row of its track, in catalog order.
// Chart rows without a track id never match.
func Merge(charts []dataset.ChartEntry, features []dataset.TrackFeatures) []dataset.MergedRow {
	byID := make(map[string][]int, len(features))
	for i := range features {
		id := features[i].TrackID
		if id == "" {
			continue
		}
		byID[id] = append(byID[id], i)
	}

	var out []dataset.MergedRow
	for i := range charts {
		c := &charts[i]
		if c.TrackID == "" {
			continue
		}
		for _, j := range byID[c.TrackID] {
			out = append(out, dataset.MergedRow{
				TrackNameChart: c.Title,
				Rank:           c.Rank,
				Date:           c.Date,
				ArtistChart:    c.Artist,
				Region:         c.Region,
				Trend:          c.Trend,
				Streams:        c.Streams,
				TrackID:        c.TrackID,
				Track:          features[j],
				Year:           c.Date.Year(),
				Month:          int(c.Date.Month()),
			})
		}
	}
	return out
}

// FeatureStat is the spread of one audio feature over the merged rows.
type FeatureStat struct {
	Name           string
	Mean, Min, Max float64
}

// Summary describes a merged dataset.
type Summary struct {
	ChartRows    int
	FeatureRows  int
	Rows         int
	Columns      int
	UniqueTracks int
	ByRegion     []dataset.Count // descending
	ByYear       []dataset.Count // ascending by year
	Features     []FeatureStat
	SizeBytes    int64
}

// MeetsRequirements reports whether the dataset is large enough for analysis.
func (s *Summary) MeetsRequirements() bool {
	return s.Rows > MinObservations && s.Columns > MinColumns
}

// Summarize computes the merge summary over rows.
func Summarize(rows []dataset.MergedRow) *Summary {
	s := &Summary{Rows: len(rows), Columns: len(dataset.MergedSchema.Header())}

	tracks := make(map[string]struct{})
	for i := range rows {
		tracks[rows[i].TrackID] = struct{}{}
	}
	s.UniqueTracks = len(tracks)

	s.ByRegion = dataset.CountBy(rows, func(r *dataset.MergedRow) string { return r.Region })
	s.ByYear = dataset.CountBy(rows, func(r *dataset.MergedRow) string { return strconv.Itoa(r.Year) })
	sort.Slice(s.ByYear, func(i, j int) bool { return s.ByYear[i].Key < s.ByYear[j].Key })

	for _, name := range SummaryFeatures {
		xs := dataset.DropNaN(dataset.Floats(rows, func(r *dataset.MergedRow) float64 { return r.Track.Get(name) }))
		fs := FeatureStat{Name: name, Mean: math.NaN(), Min: math.NaN(), Max: math.NaN()}
		if len(xs) > 0 {
			fs.Mean = stat.Mean(xs, nil)
			fs.Min = floats.Min(xs)
			fs.Max = floats.Max(xs)
		}
		s.Features = append(s.Features, fs)
	}
	return s
}

// Run loads the filtered charts and the catalog, merges them, and writes the
// merged dataset to out.
func Run(fsys fsutil.FileSystem, chartsPath, featuresPath, out string) (*Summary, error) {
	monitoring.Section("Merging datasets")
	monitoring.Logf("Loading datasets...")

	charts, err := dataset.ChartSchema.Load(fsys, chartsPath)
	if err != nil {
		return nil, err
	}
	features, err := dataset.TrackFeaturesSchema.Load(fsys, featuresPath)
	if err != nil {
		return nil, err
	}
	monitoring.Logf("   Charts: %d rows", len(charts))
	monitoring.Logf("   Features: %d rows", len(features))

	monitoring.Logf("Merging on track_id...")
	rows := Merge(charts, features)

	s := Summarize(rows)
	s.ChartRows = len(charts)
	s.FeatureRows = len(features)

	if err := dataset.MergedSchema.Save(fsys, out, rows); err != nil {
		return nil, err
	}
	if size, err := fsys.Size(out); err == nil {
		s.SizeBytes = size
	}

	s.Log()
	monitoring.Logf("Merged dataset saved to: %s", out)
	return s, nil
}

// Log writes the summary.
func (s *Summary) Log() {
	monitoring.Logf("   Merged: %d rows", s.Rows)
	monitoring.Logf("   Unique tracks: %d", s.UniqueTracks)
	monitoring.Logf("   Final columns: %d", s.Columns)

	monitoring.Logf("Breakdown by region:")
	for _, c := range s.ByRegion {
		monitoring.Logf("   %s: %d rows", c.Key, c.N)
	}
	monitoring.Logf("Breakdown by year:")
	for _, c := range s.ByYear {
		monitoring.Logf("   %s: %d rows", c.Key, c.N)
	}

	monitoring.Logf("Audio features summary:")
	for _, f := range s.Features {
		monitoring.Logf("   %s: mean=%.3f, min=%.3f, max=%.3f", f.Name, f.Mean, f.Min, f.Max)
	}

	monitoring.Logf("Shape: (%d, %d), file size ~%.1f MB", s.Rows, s.Columns, float64(s.SizeBytes)/1_000_000)
	monitoring.Logf("Observations: %d (required: >%d)", s.Rows, MinObservations)
	monitoring.Logf("Features: %d (required: >%d)", s.Columns, MinColumns)
	if !s.MeetsRequirements() {
		monitoring.Logf("WARNING: merged dataset is below the analysis size requirements")
	}
	monitoring.Logf("   Categorical: region, track_genre, trend, explicit")
	monitoring.Logf("   Continuous: danceability, energy, valence, tempo, etc.")
}

// String renders a one-line description, used by the run command.
func (s *Summary) String() string {
	return fmt.Sprintf("%d rows, %d tracks, %d regions", s.Rows, s.UniqueTracks, len(s.ByRegion))
}
