package features

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/chartlab/internal/dataset"
	"github.com/banshee-data/chartlab/internal/fsutil"
	"github.com/banshee-data/chartlab/internal/testutil"
)

func defaultOptions() Options {
	return Options{
		TrendBaseline:    50,
		RegionCategories: map[string]string{"Japan": "Asia", "Global": "Global"},
		CovidYears:       []int{2020, 2021},
	}
}

func TestMacroGenre(t *testing.T) {
	tests := []struct {
		genre string
		want  string
	}{
		{"", GenreUnknown},
		{"EDM", "Electronic/Dance"},
		{"dance-pop", "Electronic/Dance"},
		{"hip-hop", "Hip-Hop/Rap"},
		{"k-pop", "Pop"},
		{"indie", "Rock/Alternative"},
		{"r-n-b", "R&B/Soul"},
		{"reggaeton", "Latin"},
		{"country", "Country"},
		{"blues", "Jazz/Blues"},
		{"classical", "Classical"},
		{"singer-songwriter", "Acoustic/Folk"},
		{"anime", "Other"},
		{"Trap Latino", "Hip-Hop/Rap"},
	}
	for _, tt := range tests {
		t.Run(tt.genre, func(t *testing.T) {
			assert.Equal(t, tt.want, MacroGenre(tt.genre))
		})
	}
}

func TestBinsAreRightClosed(t *testing.T) {
	tests := []struct {
		bins Bins
		v    float64
		want string
	}{
		{EnergyBins, 0, ""},
		{EnergyBins, 0.01, "Low Energy"},
		{EnergyBins, 0.3, "Low Energy"},
		{EnergyBins, 0.31, "Medium Energy"},
		{EnergyBins, 1.0, "High Energy"},
		{EnergyBins, 1.01, ""},
		{EnergyBins, math.NaN(), ""},
		{MoodBins, 0.66, "Neutral"},
		{MoodBins, 0.67, "Positive"},
		{DanceabilityBins, 0.7, "Moderately Danceable"},
		{TempoBins, 90, "Slow"},
		{TempoBins, 150.5, "Very Fast"},
		{TempoBins, 251, ""},
		{PopularityBins, 0, ""},
		{PopularityBins, 70, "Medium Popularity"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.bins.Label(tt.v), "bins %v value %v", tt.bins.Labels, tt.v)
	}
}

func TestSoundType(t *testing.T) {
	assert.Equal(t, "Acoustic", SoundType(0.51))
	assert.Equal(t, "Hybrid", SoundType(0.5))
	assert.Equal(t, "Hybrid", SoundType(0.2))
	assert.Equal(t, "Electronic", SoundType(0.19))
	assert.Equal(t, "", SoundType(math.NaN()))
}

func TestScores(t *testing.T) {
	a := &dataset.AudioFeatures{Energy: 0.9, Danceability: 0.6, Valence: 0.3, Acousticness: 0.2}
	assert.InDelta(t, 0.6, PartyScore(a), 1e-9)
	assert.InDelta(t, (0.1+0.2+0.8)/3, ChillScore(a), 1e-9)
}

func TestMinMax(t *testing.T) {
	xs := []float64{2, math.NaN(), 4, 6}
	MinMax(xs, 100)
	assert.Equal(t, 0.0, xs[0])
	assert.True(t, math.IsNaN(xs[1]))
	assert.Equal(t, 50.0, xs[2])
	assert.Equal(t, 100.0, xs[3])

	flat := []float64{3, 3}
	MinMax(flat, 100)
	assert.Equal(t, []float64{0, 0}, flat)
}

func row(id, region string, d time.Time, rank int, loud float64) dataset.MergedRow {
	return dataset.MergedRow{
		TrackID: id,
		Region:  region,
		Date:    d,
		Rank:    rank,
		Year:    d.Year(),
		Month:   int(d.Month()),
		Track: dataset.TrackFeatures{
			TrackID:    id,
			Popularity: 75,
			TrackGenre: "pop",
			AudioFeatures: dataset.AudioFeatures{
				Energy: 0.8, Danceability: 0.75, Valence: 0.5,
				Acousticness: 0.1, Tempo: 128, Loudness: loud,
			},
		},
	}
}

func TestEngineer(t *testing.T) {
	d1 := time.Date(2021, 12, 30, 0, 0, 0, 0, time.UTC)
	d2 := d1.AddDate(0, 0, 1)
	d3 := d1.AddDate(0, 0, 3)
	input := []dataset.MergedRow{
		row("b", "Japan", d1, 10, -10),
		row("a", "Japan", d3, 3, -4),
		row("a", "Japan", d1, 8, -6),
		row("a", "Global", d2, 1, -8),
		row("a", "Japan", d2, 5, -5),
	}
	got := Engineer(input, defaultOptions())
	require.Len(t, got, 5)

	// Input is left untouched.
	assert.Equal(t, "b", input[0].TrackID)

	order := []struct {
		id, region string
		date       time.Time
	}{
		{"a", "Global", d2}, {"a", "Japan", d1}, {"a", "Japan", d2}, {"a", "Japan", d3}, {"b", "Japan", d1},
	}
	for i, o := range order {
		assert.Equal(t, o.id, got[i].TrackID, "row %d", i)
		assert.Equal(t, o.region, got[i].Region, "row %d", i)
		assert.True(t, o.date.Equal(got[i].Date), "row %d", i)
	}

	assert.True(t, math.IsNaN(got[0].RankChange))
	assert.True(t, math.IsNaN(got[1].RankChange))
	assert.Equal(t, -3.0, got[2].RankChange)
	assert.Equal(t, -2.0, got[3].RankChange)
	assert.True(t, math.IsNaN(got[4].RankChange))

	// Raw trend: 49, 42, 3, 2, 40 scaled over [2, 49].
	assert.InDelta(t, 100.0, got[0].TrendScore, 1e-9)
	assert.InDelta(t, 40.0/47*100, got[1].TrendScore, 1e-9)
	assert.InDelta(t, 1.0/47*100, got[2].TrendScore, 1e-9)
	assert.InDelta(t, 0.0, got[3].TrendScore, 1e-9)

	assert.Equal(t, []int{1, 1, 2, 3, 1}, []int{
		got[0].WeeksInChart, got[1].WeeksInChart, got[2].WeeksInChart, got[3].WeeksInChart, got[4].WeeksInChart,
	})
	assert.Equal(t, 1, got[0].PeakPosition)
	assert.Equal(t, 3, got[1].PeakPosition)
	assert.Equal(t, 3, got[3].PeakPosition)
	assert.Equal(t, 10, got[4].PeakPosition)

	// Loudness -10..-4: row b is quietest, d3 loudest.
	assert.InDelta(t, 0.4, got[4].IntensityScore, 1e-9)
	assert.InDelta(t, 0.9, got[3].IntensityScore, 1e-9)

	e := got[1]
	assert.Equal(t, "Pop", e.MacroGenre)
	assert.Equal(t, "High Energy", e.EnergyLevel)
	assert.Equal(t, "Neutral", e.Mood)
	assert.Equal(t, "Very Danceable", e.DanceabilityLevel)
	assert.Equal(t, "Fast", e.TempoCategory)
	assert.Equal(t, "Electronic", e.SoundType)
	assert.Equal(t, "High Popularity", e.PopularityTier)
	assert.Equal(t, "Asia", e.RegionCategory)
	assert.Equal(t, 4, e.Quarter)
	assert.Equal(t, "December", e.MonthName)
	assert.Equal(t, "Thursday", e.DayOfWeek)
	assert.Equal(t, 52, e.WeekOfYear)
	assert.Equal(t, DuringCovid, e.CovidEra)

	assert.Equal(t, "Global", got[0].RegionCategory)
	assert.Equal(t, PostCovid, got[3].CovidEra)
	assert.Equal(t, 1, got[3].Quarter)
	assert.Equal(t, "January", got[3].MonthName)
}

func TestEngineerUnknownRegion(t *testing.T) {
	got := Engineer([]dataset.MergedRow{row("a", "France", time.Date(2020, 5, 1, 0, 0, 0, 0, time.UTC), 7, -5)}, defaultOptions())
	require.Len(t, got, 1)
	assert.Empty(t, got[0].RegionCategory)
	assert.Equal(t, 0.0, got[0].TrendScore)
	assert.InDelta(t, 0.4, got[0].IntensityScore, 1e-9)
}

func TestSummarize(t *testing.T) {
	rows := []dataset.EngineeredRow{
		{MacroGenre: "Pop", EnergyLevel: "High Energy", Mood: "Positive"},
		{MacroGenre: "Pop", EnergyLevel: "Low Energy"},
		{MacroGenre: "Latin", EnergyLevel: "High Energy", Mood: "Negative"},
	}
	s := Summarize(rows)
	assert.Equal(t, []dataset.Count{{Key: "Pop", N: 2}, {Key: "Latin", N: 1}}, s.MacroGenres)
	assert.Equal(t, []dataset.Count{{Key: "High Energy", N: 2}, {Key: "Low Energy", N: 1}}, s.EnergyLevel)
	assert.Len(t, s.Mood, 2)
	assert.Equal(t, 20, s.AddedCols)
}

func TestRun(t *testing.T) {
	testutil.MuteLogs(t)
	fsys := fsutil.NewMemoryFileSystem()
	d := time.Date(2020, 3, 2, 0, 0, 0, 0, time.UTC)
	require.NoError(t, dataset.MergedSchema.Save(fsys, "merged.csv", []dataset.MergedRow{
		row("a", "Japan", d, 4, -5),
		row("a", "Japan", d.AddDate(0, 0, 7), 2, -3),
	}))

	s, err := Run(fsys, "merged.csv", "out/engineered.csv", defaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 2, s.Rows)

	back, err := dataset.EngineeredSchema.Load(fsys, "out/engineered.csv")
	require.NoError(t, err)
	require.Len(t, back, 2)
	assert.True(t, math.IsNaN(back[0].RankChange))
	assert.Equal(t, -2.0, back[1].RankChange)
	assert.Equal(t, 2, back[1].WeeksInChart)
	assert.Equal(t, 2, back[0].PeakPosition)
	assert.Equal(t, "Monday", back[0].DayOfWeek)
}
