package dataset

import (
	"math"
	"time"
)

// ChartEntry is one row of the Spotify charts export: a track's rank in one
// region's chart on one date.
type ChartEntry struct {
	Title   string
	Rank    int
	Date    time.Time
	Artist  string
	URL     string
	Region  string
	Chart   string
	Trend   string
	Streams float64 // NaN when the chart does not report streams
	TrackID string  // set by the filter stage
}

// MissingRank marks a chart row whose rank cell is empty.
const MissingRank = -1

// ChartSchema reads raw and filtered chart files and writes filtered ones.
var ChartSchema = NewSchema(
	String("title", func(e *ChartEntry) *string { return &e.Title }).Require(),
	IntOr("rank", func(e *ChartEntry) *int { return &e.Rank }, MissingRank).Require(),
	Date("date", func(e *ChartEntry) *time.Time { return &e.Date }).Require(),
	String("artist", func(e *ChartEntry) *string { return &e.Artist }),
	String("url", func(e *ChartEntry) *string { return &e.URL }),
	String("region", func(e *ChartEntry) *string { return &e.Region }).Require(),
	String("chart", func(e *ChartEntry) *string { return &e.Chart }),
	String("trend", func(e *ChartEntry) *string { return &e.Trend }),
	Float("streams", func(e *ChartEntry) *float64 { return &e.Streams }),
	String("track_id", func(e *ChartEntry) *string { return &e.TrackID }),
)

// AudioFeatures are the catalog's numeric descriptors of a track.
type AudioFeatures struct {
	Danceability     float64
	Energy           float64
	Key              float64
	Loudness         float64
	Mode             float64
	Speechiness      float64
	Acousticness     float64
	Instrumentalness float64
	Liveness         float64
	Valence          float64
	Tempo            float64
	TimeSignature    float64
}

// Get returns a feature by its column name; unknown names return NaN.
func (a *AudioFeatures) Get(name string) float64 {
	switch name {
	case "danceability":
		return a.Danceability
	case "energy":
		return a.Energy
	case "key":
		return a.Key
	case "loudness":
		return a.Loudness
	case "mode":
		return a.Mode
	case "speechiness":
		return a.Speechiness
	case "acousticness":
		return a.Acousticness
	case "instrumentalness":
		return a.Instrumentalness
	case "liveness":
		return a.Liveness
	case "valence":
		return a.Valence
	case "tempo":
		return a.Tempo
	case "time_signature":
		return a.TimeSignature
	}
	return math.NaN()
}

// TrackFeatures is one row of the audio-feature catalog. A track id may
// appear once per genre it is filed under.
type TrackFeatures struct {
	TrackID    string
	Artists    string
	AlbumName  string
	TrackName  string
	Popularity float64
	DurationMS float64
	Explicit   string
	AudioFeatures
	TrackGenre string
}

func audioFields[T any](af func(*T) *AudioFeatures) []Field[T] {
	f := func(name string, sel func(*AudioFeatures) *float64) Field[T] {
		return Float(name, func(r *T) *float64 { return sel(af(r)) })
	}
	return []Field[T]{
		f("danceability", func(a *AudioFeatures) *float64 { return &a.Danceability }),
		f("energy", func(a *AudioFeatures) *float64 { return &a.Energy }),
		f("key", func(a *AudioFeatures) *float64 { return &a.Key }),
		f("loudness", func(a *AudioFeatures) *float64 { return &a.Loudness }),
		f("mode", func(a *AudioFeatures) *float64 { return &a.Mode }),
		f("speechiness", func(a *AudioFeatures) *float64 { return &a.Speechiness }),
		f("acousticness", func(a *AudioFeatures) *float64 { return &a.Acousticness }),
		f("instrumentalness", func(a *AudioFeatures) *float64 { return &a.Instrumentalness }),
		f("liveness", func(a *AudioFeatures) *float64 { return &a.Liveness }),
		f("valence", func(a *AudioFeatures) *float64 { return &a.Valence }),
		f("tempo", func(a *AudioFeatures) *float64 { return &a.Tempo }),
		f("time_signature", func(a *AudioFeatures) *float64 { return &a.TimeSignature }),
	}
}

func trackFields[T any](tf func(*T) *TrackFeatures, artistsColumn string) []Field[T] {
	fields := []Field[T]{
		String(artistsColumn, func(r *T) *string { return &tf(r).Artists }),
		String("album_name", func(r *T) *string { return &tf(r).AlbumName }),
		String("track_name", func(r *T) *string { return &tf(r).TrackName }),
		Float("popularity", func(r *T) *float64 { return &tf(r).Popularity }),
		Float("duration_ms", func(r *T) *float64 { return &tf(r).DurationMS }),
		String("explicit", func(r *T) *string { return &tf(r).Explicit }),
	}
	fields = append(fields, audioFields(func(r *T) *AudioFeatures { return &tf(r).AudioFeatures })...)
	return append(fields, String("track_genre", func(r *T) *string { return &tf(r).TrackGenre }))
}

// TrackFeaturesSchema reads the audio-feature catalog.
var TrackFeaturesSchema = NewSchema(append(
	[]Field[TrackFeatures]{
		String("track_id", func(t *TrackFeatures) *string { return &t.TrackID }).Require(),
	},
	trackFields(func(t *TrackFeatures) *TrackFeatures { return t }, "artists")...,
)...)

// MergedRow is a chart entry joined with the catalog row for its track.
type MergedRow struct {
	TrackNameChart string
	Rank           int
	Date           time.Time
	ArtistChart    string
	Region         string
	Trend          string
	Streams        float64
	TrackID        string
	Track          TrackFeatures // Track.TrackID mirrors TrackID; Track.Artists is artist_spotify
	Year           int
	Month          int
}

func mergedFields[T any](m func(*T) *MergedRow) []Field[T] {
	fields := []Field[T]{
		String("track_name_chart", func(r *T) *string { return &m(r).TrackNameChart }),
		Int("rank", func(r *T) *int { return &m(r).Rank }).Require(),
		Date("date", func(r *T) *time.Time { return &m(r).Date }).Require(),
		String("artist_chart", func(r *T) *string { return &m(r).ArtistChart }),
		String("region", func(r *T) *string { return &m(r).Region }).Require(),
		String("trend", func(r *T) *string { return &m(r).Trend }),
		Float("streams", func(r *T) *float64 { return &m(r).Streams }),
		String("track_id", func(r *T) *string { return &m(r).TrackID }).Require(),
	}
	fields = append(fields, trackFields(func(r *T) *TrackFeatures { return &m(r).Track }, "artist_spotify")...)
	return append(fields,
		Int("year", func(r *T) *int { return &m(r).Year }),
		Int("month", func(r *T) *int { return &m(r).Month }),
	)
}

// MergedSchema reads and writes merged_charts_features.csv.
var MergedSchema = NewSchema(mergedFields(func(r *MergedRow) *MergedRow { return r })...)

// EngineeredRow is a merged row with every derived feature attached.
// Categorical fields are empty when the source value falls outside the bins.
type EngineeredRow struct {
	MergedRow

	RankChange        float64 // NaN for a track's first appearance in a region
	TrendScore        float64
	MacroGenre        string
	EnergyLevel       string
	Mood              string
	DanceabilityLevel string
	TempoCategory     string
	SoundType         string
	PopularityTier    string
	WeeksInChart      int
	PeakPosition      int
	PartyScore        float64
	ChillScore        float64
	IntensityScore    float64
	RegionCategory    string
	Quarter           int
	MonthName         string
	DayOfWeek         string
	WeekOfYear        int
	CovidEra          string
}

// Feature returns a numeric column of the row by name, covering audio
// features and chart metrics. Unknown names return NaN.
func (r *EngineeredRow) Feature(name string) float64 {
	switch name {
	case "popularity":
		return r.Track.Popularity
	case "peak_position":
		return float64(r.PeakPosition)
	case "weeks_in_chart":
		return float64(r.WeeksInChart)
	case "streams":
		return r.Streams
	case "rank":
		return float64(r.Rank)
	case "trend_score":
		return r.TrendScore
	case "party_score":
		return r.PartyScore
	case "chill_score":
		return r.ChillScore
	case "intensity_score":
		return r.IntensityScore
	}
	return r.Track.Get(name)
}

// EngineeredSchema reads and writes final_dataset_engineered.csv.
var EngineeredSchema = NewSchema(append(
	mergedFields(func(r *EngineeredRow) *MergedRow { return &r.MergedRow }),
	Float("rank_change", func(r *EngineeredRow) *float64 { return &r.RankChange }),
	Float("trend_score", func(r *EngineeredRow) *float64 { return &r.TrendScore }),
	String("macro_genre", func(r *EngineeredRow) *string { return &r.MacroGenre }),
	String("energy_level", func(r *EngineeredRow) *string { return &r.EnergyLevel }),
	String("mood", func(r *EngineeredRow) *string { return &r.Mood }),
	String("danceability_level", func(r *EngineeredRow) *string { return &r.DanceabilityLevel }),
	String("tempo_category", func(r *EngineeredRow) *string { return &r.TempoCategory }),
	String("sound_type", func(r *EngineeredRow) *string { return &r.SoundType }),
	String("popularity_tier", func(r *EngineeredRow) *string { return &r.PopularityTier }),
	Int("weeks_in_chart", func(r *EngineeredRow) *int { return &r.WeeksInChart }),
	Int("peak_position", func(r *EngineeredRow) *int { return &r.PeakPosition }),
	Float("party_score", func(r *EngineeredRow) *float64 { return &r.PartyScore }),
	Float("chill_score", func(r *EngineeredRow) *float64 { return &r.ChillScore }),
	Float("intensity_score", func(r *EngineeredRow) *float64 { return &r.IntensityScore }),
	String("region_category", func(r *EngineeredRow) *string { return &r.RegionCategory }),
	Int("quarter", func(r *EngineeredRow) *int { return &r.Quarter }),
	String("month_name", func(r *EngineeredRow) *string { return &r.MonthName }),
	String("day_of_week", func(r *EngineeredRow) *string { return &r.DayOfWeek }),
	Int("week_of_year", func(r *EngineeredRow) *int { return &r.WeekOfYear }),
	String("covid_era", func(r *EngineeredRow) *string { return &r.CovidEra }),
)...)
