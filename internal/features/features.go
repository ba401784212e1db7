// Package features derives trend, genre, mood, composite, and calendar
// features from the merged chart dataset.
package features

import (
	"math"
	"sort"
	"strings"

	"github.com/banshee-data/chartlab/internal/dataset"
	"github.com/banshee-data/chartlab/internal/fsutil"
	"github.com/banshee-data/chartlab/internal/monitoring"
)

// Options parameterise feature engineering.
type Options struct {
	// TrendBaseline is the trend score given to a track's first appearance,
	// minus its rank.
	TrendBaseline    float64
	RegionCategories map[string]string
	CovidYears       []int
}

// Era labels.
const (
	DuringCovid = "During COVID"
	PostCovid   = "Post COVID"
)

// GenreUnknown labels rows whose catalog genre is missing.
const GenreUnknown = "Genre Unknown"

type genreRule struct {
	label    string
	keywords []string
}

// genreRules are tried in order; the first rule with a keyword contained in
// the lower-cased genre wins.
var genreRules = []genreRule{
	{"Electronic/Dance", []string{"edm", "house", "techno", "electronic", "dance", "dubstep", "trance"}},
	{"Hip-Hop/Rap", []string{"hip", "rap", "trap", "drill"}},
	{"Pop", []string{"pop", "k-pop", "j-pop"}},
	{"Rock/Alternative", []string{"rock", "metal", "punk", "grunge", "alternative", "indie"}},
	{"R&B/Soul", []string{"r-n-b", "r&b", "soul", "funk"}},
	{"Latin", []string{"latin", "reggaeton", "salsa", "bachata", "samba"}},
	{"Country", []string{"country"}},
	{"Jazz/Blues", []string{"jazz", "blues"}},
	{"Classical", []string{"classical", "orchestra"}},
	{"Acoustic/Folk", []string{"acoustic", "folk", "singer-songwriter"}},
}

// MacroGenre maps a catalog genre to a coarse category.
func MacroGenre(genre string) string {
	if genre == "" {
		return GenreUnknown
	}
	g := strings.ToLower(genre)
	for _, rule := range genreRules {
		for _, kw := range rule.keywords {
			if strings.Contains(g, kw) {
				return rule.label
			}
		}
	}
	return "Other"
}

// Bins labels a value by right-closed intervals (Edges[i], Edges[i+1]].
type Bins struct {
	Edges  []float64
	Labels []string
}

// Label returns the bin label of v, or "" when v is NaN or outside the edges.
func (b Bins) Label(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	for i := 0; i+1 < len(b.Edges); i++ {
		if v > b.Edges[i] && v <= b.Edges[i+1] {
			return b.Labels[i]
		}
	}
	return ""
}

var (
	EnergyBins = Bins{
		Edges:  []float64{0, 0.3, 0.6, 1.0},
		Labels: []string{"Low Energy", "Medium Energy", "High Energy"},
	}
	MoodBins = Bins{
		Edges:  []float64{0, 0.33, 0.66, 1.0},
		Labels: []string{"Negative", "Neutral", "Positive"},
	}
	DanceabilityBins = Bins{
		Edges:  []float64{0, 0.5, 0.7, 1.0},
		Labels: []string{"Not Danceable", "Moderately Danceable", "Very Danceable"},
	}
	TempoBins = Bins{
		Edges:  []float64{0, 90, 120, 150, 250},
		Labels: []string{"Slow", "Medium", "Fast", "Very Fast"},
	}
	PopularityBins = Bins{
		Edges:  []float64{0, 40, 70, 100},
		Labels: []string{"Low Popularity", "Medium Popularity", "High Popularity"},
	}
)

// SoundType places a track on the acoustic/electronic spectrum.
func SoundType(acousticness float64) string {
	switch {
	case math.IsNaN(acousticness):
		return ""
	case acousticness > 0.5:
		return "Acoustic"
	case acousticness < 0.2:
		return "Electronic"
	default:
		return "Hybrid"
	}
}

// PartyScore favours energetic, danceable, positive tracks.
func PartyScore(a *dataset.AudioFeatures) float64 {
	return (a.Energy + a.Danceability + a.Valence) / 3
}

// ChillScore favours calm, acoustic tracks of neutral mood.
func ChillScore(a *dataset.AudioFeatures) float64 {
	return ((1 - a.Energy) + a.Acousticness + (1 - math.Abs(a.Valence-0.5))) / 3
}

// MinMax rescales xs in place to [0, scale]. NaNs stay NaN; when every value
// is equal the result is 0.
func MinMax(xs []float64, scale float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, x := range xs {
		if math.IsNaN(x) {
			continue
		}
		lo = math.Min(lo, x)
		hi = math.Max(hi, x)
	}
	span := hi - lo
	for i, x := range xs {
		switch {
		case math.IsNaN(x):
		case span > 0:
			xs[i] = (x - lo) / span * scale
		default:
			xs[i] = 0
		}
	}
}

type groupKey struct {
	trackID, region string
}

// Engineer derives every engineered feature. Rows come back ordered by
// (track_id, region, date); the input slice is not modified.
func Engineer(rows []dataset.MergedRow, opts Options) []dataset.EngineeredRow {
	sorted := make([]dataset.MergedRow, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := &sorted[i], &sorted[j]
		if a.TrackID != b.TrackID {
			return a.TrackID < b.TrackID
		}
		if a.Region != b.Region {
			return a.Region < b.Region
		}
		return a.Date.Before(b.Date)
	})

	covid := make(map[int]bool, len(opts.CovidYears))
	for _, y := range opts.CovidYears {
		covid[y] = true
	}

	out := make([]dataset.EngineeredRow, len(sorted))
	peaks := make(map[groupKey]int)
	trend := make([]float64, len(sorted))
	loudness := make([]float64, len(sorted))

	var prev groupKey
	weeks := 0
	for i := range sorted {
		m := sorted[i]
		e := &out[i]
		e.MergedRow = m
		a := &m.Track.AudioFeatures

		key := groupKey{m.TrackID, m.Region}
		e.RankChange = math.NaN()
		if i > 0 && key == prev {
			e.RankChange = float64(m.Rank - sorted[i-1].Rank)
			weeks++
		} else {
			weeks = 1
		}
		prev = key
		e.WeeksInChart = weeks
		if p, ok := peaks[key]; !ok || m.Rank < p {
			peaks[key] = m.Rank
		}

		if math.IsNaN(e.RankChange) {
			trend[i] = opts.TrendBaseline - float64(m.Rank)
		} else {
			trend[i] = -e.RankChange
		}
		loudness[i] = a.Loudness

		e.MacroGenre = MacroGenre(m.Track.TrackGenre)
		e.EnergyLevel = EnergyBins.Label(a.Energy)
		e.Mood = MoodBins.Label(a.Valence)
		e.DanceabilityLevel = DanceabilityBins.Label(a.Danceability)
		e.TempoCategory = TempoBins.Label(a.Tempo)
		e.SoundType = SoundType(a.Acousticness)
		e.PopularityTier = PopularityBins.Label(m.Track.Popularity)
		e.PartyScore = PartyScore(a)
		e.ChillScore = ChillScore(a)
		e.RegionCategory = opts.RegionCategories[m.Region]

		e.Quarter = (int(m.Date.Month())-1)/3 + 1
		e.MonthName = m.Date.Month().String()
		e.DayOfWeek = m.Date.Weekday().String()
		_, e.WeekOfYear = m.Date.ISOWeek()
		if covid[m.Date.Year()] {
			e.CovidEra = DuringCovid
		} else {
			e.CovidEra = PostCovid
		}
	}

	MinMax(trend, 100)
	MinMax(loudness, 1)
	for i := range out {
		e := &out[i]
		e.TrendScore = trend[i]
		e.PeakPosition = peaks[groupKey{e.TrackID, e.Region}]
		e.IntensityScore = (e.Track.Energy + loudness[i]) / 2
	}
	return out
}

// Summary reports the distribution of the main categorical features.
type Summary struct {
	Rows        int
	Columns     int
	AddedCols   int
	MacroGenres []dataset.Count // top 10
	EnergyLevel []dataset.Count
	Mood        []dataset.Count
}

// Summarize computes the distribution summary of engineered rows.
func Summarize(rows []dataset.EngineeredRow) *Summary {
	s := &Summary{
		Rows:      len(rows),
		Columns:   len(dataset.EngineeredSchema.Header()),
		AddedCols: len(dataset.EngineeredSchema.Header()) - len(dataset.MergedSchema.Header()),
	}
	s.MacroGenres = dataset.CountBy(rows, func(r *dataset.EngineeredRow) string { return r.MacroGenre })
	if len(s.MacroGenres) > 10 {
		s.MacroGenres = s.MacroGenres[:10]
	}
	s.EnergyLevel = dataset.CountBy(rows, func(r *dataset.EngineeredRow) string { return r.EnergyLevel })
	s.Mood = dataset.CountBy(rows, func(r *dataset.EngineeredRow) string { return r.Mood })
	return s
}

// Run engineers features for the merged dataset at in and writes them to out.
func Run(fsys fsutil.FileSystem, in, out string, opts Options) (*Summary, error) {
	monitoring.Section("Engineering features")

	rows, err := dataset.MergedSchema.Load(fsys, in)
	if err != nil {
		return nil, err
	}
	monitoring.Logf("Original shape: (%d, %d)", len(rows), len(dataset.MergedSchema.Header()))

	steps := []string{
		"Trend score and rank change",
		"Macro genre grouping",
		"Energy level categories",
		"Mood categories",
		"Danceability categories",
		"Tempo categories",
		"Acoustic vs electronic spectrum",
		"Popularity tiers",
		"Chart longevity",
		"Peak position tracking",
		"Composite audio scores",
		"Region groupings",
		"Time-based features",
		"COVID-19 era indicator",
	}
	for i, s := range steps {
		monitoring.Step(i+1, s)
	}
	engineered := Engineer(rows, opts)

	if err := dataset.EngineeredSchema.Save(fsys, out, engineered); err != nil {
		return nil, err
	}

	s := Summarize(engineered)
	s.Log()
	monitoring.Logf("Engineered dataset saved to: %s", out)
	return s, nil
}

// Log writes the summary.
func (s *Summary) Log() {
	monitoring.Logf("New features added: %d", s.AddedCols)
	monitoring.Logf("Total columns: %d", s.Columns)
	logCounts("Macro Genre Distribution:", s.MacroGenres)
	logCounts("Energy Level Distribution:", s.EnergyLevel)
	logCounts("Mood Distribution:", s.Mood)
}

func logCounts(title string, counts []dataset.Count) {
	monitoring.Logf("%s", title)
	for _, c := range counts {
		monitoring.Logf("   %-25s %d", c.Key, c.N)
	}
}
