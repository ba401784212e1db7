package dataset

// Tables written by the analysis stage for the chart renderers.

// Visualization file names, relative to the visualizations directory.
const (
	MonthlyGenreTrendsFile      = "monthly_genre_trends.csv"
	RegionalAudioComparisonFile = "regional_audio_comparison.csv"
	EnergyValenceScatterFile    = "energy_valence_scatter.csv"
	TopTracksByRegionFile       = "top_tracks_by_region.csv"
	MoodTrendsFile              = "mood_trends.csv"
	ChartDataWorkbookFile       = "chart_data.xlsx"
)

// MonthCount is a row count for one category in one month (YYYY-MM).
type MonthCount struct {
	Category string
	Count    int
	Month    string
}

func monthCountSchema(category string) Schema[MonthCount] {
	return NewSchema(
		String(category, func(m *MonthCount) *string { return &m.Category }).Require(),
		Int("count", func(m *MonthCount) *int { return &m.Count }).Require(),
		String("month", func(m *MonthCount) *string { return &m.Month }).Require(),
	)
}

var (
	// MonthlyGenreSchema is monthly_genre_trends.csv.
	MonthlyGenreSchema = monthCountSchema("macro_genre")
	// MoodTrendSchema is mood_trends.csv.
	MoodTrendSchema = monthCountSchema("mood")
)

// RegionAudio is the mean of the headline audio features in one region.
type RegionAudio struct {
	Region       string
	Danceability float64
	Energy       float64
	Valence      float64
	Tempo        float64
	Acousticness float64
}

// RegionAudioSchema is regional_audio_comparison.csv.
var RegionAudioSchema = NewSchema(
	String("region", func(r *RegionAudio) *string { return &r.Region }).Require(),
	Float("danceability", func(r *RegionAudio) *float64 { return &r.Danceability }).Require(),
	Float("energy", func(r *RegionAudio) *float64 { return &r.Energy }).Require(),
	Float("valence", func(r *RegionAudio) *float64 { return &r.Valence }).Require(),
	Float("tempo", func(r *RegionAudio) *float64 { return &r.Tempo }).Require(),
	Float("acousticness", func(r *RegionAudio) *float64 { return &r.Acousticness }).Require(),
)

// ScatterPoint is one unique track for the energy/valence scatter.
type ScatterPoint struct {
	TrackID       string
	TrackName     string
	ArtistSpotify string
	MacroGenre    string
	Danceability  float64
	Energy        float64
	Valence       float64
	Popularity    float64
	Year          int
}

// ScatterSchema is energy_valence_scatter.csv.
var ScatterSchema = NewSchema(
	String("track_id", func(p *ScatterPoint) *string { return &p.TrackID }).Require(),
	String("track_name", func(p *ScatterPoint) *string { return &p.TrackName }),
	String("artist_spotify", func(p *ScatterPoint) *string { return &p.ArtistSpotify }),
	String("macro_genre", func(p *ScatterPoint) *string { return &p.MacroGenre }),
	Float("danceability", func(p *ScatterPoint) *float64 { return &p.Danceability }),
	Float("energy", func(p *ScatterPoint) *float64 { return &p.Energy }).Require(),
	Float("valence", func(p *ScatterPoint) *float64 { return &p.Valence }).Require(),
	Float("popularity", func(p *ScatterPoint) *float64 { return &p.Popularity }),
	Int("year", func(p *ScatterPoint) *int { return &p.Year }),
)

// RegionTrack aggregates one track's chart run in one region.
type RegionTrack struct {
	Region        string
	TrackID       string
	TrackName     string
	ArtistSpotify string
	PeakPosition  int
	WeeksInChart  int
	Streams       float64
}

// RegionTrackSchema is top_tracks_by_region.csv.
var RegionTrackSchema = NewSchema(
	String("region", func(r *RegionTrack) *string { return &r.Region }).Require(),
	String("track_id", func(r *RegionTrack) *string { return &r.TrackID }).Require(),
	String("track_name", func(r *RegionTrack) *string { return &r.TrackName }),
	String("artist_spotify", func(r *RegionTrack) *string { return &r.ArtistSpotify }),
	Int("peak_position", func(r *RegionTrack) *int { return &r.PeakPosition }),
	Int("weeks_in_chart", func(r *RegionTrack) *int { return &r.WeeksInChart }),
	Float("streams", func(r *RegionTrack) *float64 { return &r.Streams }).Require(),
)
