package analysis

import (
	"math"
	"sort"

	"github.com/banshee-data/chartlab/internal/config"
	"github.com/banshee-data/chartlab/internal/dataset"
	"github.com/banshee-data/chartlab/internal/fsutil"
)

// ComparisonFeatures are the regional means exported for the radar chart.
var ComparisonFeatures = []string{"danceability", "energy", "valence", "tempo", "acousticness"}

// VisualizationTables are the pre-aggregated tables the charts are drawn from.
type VisualizationTables struct {
	MonthlyGenre  []dataset.MonthCount
	RegionalAudio []dataset.RegionAudio
	Scatter       []dataset.ScatterPoint
	TopByRegion   []dataset.RegionTrack
	MoodTrends    []dataset.MonthCount
}

func monthOf(r *dataset.EngineeredRow) string { return r.Date.Format("2006-01") }

// monthlyCounts counts rows per (month, category), sorted by month then
// category. Rows with an empty category are skipped.
func monthlyCounts(rows []dataset.EngineeredRow, category func(*dataset.EngineeredRow) string) []dataset.MonthCount {
	type key struct{ month, cat string }
	tally := make(map[key]int)
	for i := range rows {
		c := category(&rows[i])
		if c == "" {
			continue
		}
		tally[key{monthOf(&rows[i]), c}]++
	}
	out := make([]dataset.MonthCount, 0, len(tally))
	for k, n := range tally {
		out = append(out, dataset.MonthCount{Category: k.cat, Count: n, Month: k.month})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Month != out[j].Month {
			return out[i].Month < out[j].Month
		}
		return out[i].Category < out[j].Category
	})
	return out
}

func regionTracks(rows []dataset.EngineeredRow, perRegion int) []dataset.RegionTrack {
	type key struct{ region, track string }
	index := make(map[key]int)
	var agg []dataset.RegionTrack
	for i := range rows {
		r := &rows[i]
		k := key{r.Region, r.TrackID}
		j, ok := index[k]
		if !ok {
			j = len(agg)
			index[k] = j
			agg = append(agg, dataset.RegionTrack{
				Region:       r.Region,
				TrackID:      r.TrackID,
				PeakPosition: math.MaxInt,
			})
		}
		a := &agg[j]
		if a.TrackName == "" {
			a.TrackName = r.Track.TrackName
		}
		if a.ArtistSpotify == "" {
			a.ArtistSpotify = r.Track.Artists
		}
		if r.PeakPosition < a.PeakPosition {
			a.PeakPosition = r.PeakPosition
		}
		if r.WeeksInChart > a.WeeksInChart {
			a.WeeksInChart = r.WeeksInChart
		}
		if !math.IsNaN(r.Streams) {
			a.Streams += r.Streams
		}
	}

	sort.Slice(agg, func(i, j int) bool {
		a, b := agg[i], agg[j]
		if a.Region != b.Region {
			return a.Region < b.Region
		}
		if a.PeakPosition != b.PeakPosition {
			return a.PeakPosition < b.PeakPosition
		}
		return a.TrackID < b.TrackID
	})

	var out []dataset.RegionTrack
	taken := make(map[string]int)
	for _, a := range agg {
		if taken[a.Region] >= perRegion {
			continue
		}
		taken[a.Region]++
		out = append(out, a)
	}
	return out
}

// BuildVisualizationData aggregates the chart tables from engineered rows.
func BuildVisualizationData(rows []dataset.EngineeredRow, topPerRegion int) *VisualizationTables {
	t := &VisualizationTables{
		MonthlyGenre: monthlyCounts(rows, func(r *dataset.EngineeredRow) string { return r.MacroGenre }),
		MoodTrends:   monthlyCounts(rows, func(r *dataset.EngineeredRow) string { return r.Mood }),
		TopByRegion:  regionTracks(rows, topPerRegion),
	}

	for _, g := range meansBy(rows, regionKey, ComparisonFeatures) {
		t.RegionalAudio = append(t.RegionalAudio, dataset.RegionAudio{
			Region:       g.Key,
			Danceability: g.Means[0],
			Energy:       g.Means[1],
			Valence:      g.Means[2],
			Tempo:        g.Means[3],
			Acousticness: g.Means[4],
		})
	}

	for _, r := range uniqueTracks(rows) {
		t.Scatter = append(t.Scatter, dataset.ScatterPoint{
			TrackID:       r.TrackID,
			TrackName:     r.Track.TrackName,
			ArtistSpotify: r.Track.Artists,
			MacroGenre:    r.MacroGenre,
			Danceability:  r.Track.Danceability,
			Energy:        r.Track.Energy,
			Valence:       r.Track.Valence,
			Popularity:    r.Track.Popularity,
			Year:          r.Year,
		})
	}
	return t
}

// Save writes every table to the visualizations directory.
func (t *VisualizationTables) Save(fsys fsutil.FileSystem, paths config.Paths) error {
	if err := dataset.MonthlyGenreSchema.Save(fsys, paths.Visualization(dataset.MonthlyGenreTrendsFile), t.MonthlyGenre); err != nil {
		return err
	}
	if err := dataset.RegionAudioSchema.Save(fsys, paths.Visualization(dataset.RegionalAudioComparisonFile), t.RegionalAudio); err != nil {
		return err
	}
	if err := dataset.ScatterSchema.Save(fsys, paths.Visualization(dataset.EnergyValenceScatterFile), t.Scatter); err != nil {
		return err
	}
	if err := dataset.RegionTrackSchema.Save(fsys, paths.Visualization(dataset.TopTracksByRegionFile), t.TopByRegion); err != nil {
		return err
	}
	return dataset.MoodTrendSchema.Save(fsys, paths.Visualization(dataset.MoodTrendsFile), t.MoodTrends)
}

// LoadVisualizationData reads the tables written by Save.
func LoadVisualizationData(fsys fsutil.FileSystem, paths config.Paths) (*VisualizationTables, error) {
	t := &VisualizationTables{}
	var err error
	if t.MonthlyGenre, err = dataset.MonthlyGenreSchema.Load(fsys, paths.Visualization(dataset.MonthlyGenreTrendsFile)); err != nil {
		return nil, err
	}
	if t.RegionalAudio, err = dataset.RegionAudioSchema.Load(fsys, paths.Visualization(dataset.RegionalAudioComparisonFile)); err != nil {
		return nil, err
	}
	if t.Scatter, err = dataset.ScatterSchema.Load(fsys, paths.Visualization(dataset.EnergyValenceScatterFile)); err != nil {
		return nil, err
	}
	if t.TopByRegion, err = dataset.RegionTrackSchema.Load(fsys, paths.Visualization(dataset.TopTracksByRegionFile)); err != nil {
		return nil, err
	}
	if t.MoodTrends, err = dataset.MoodTrendSchema.Load(fsys, paths.Visualization(dataset.MoodTrendsFile)); err != nil {
		return nil, err
	}
	return t, nil
}
