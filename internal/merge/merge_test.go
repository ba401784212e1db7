package merge

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/chartlab/internal/dataset"
	"github.com/banshee-data/chartlab/internal/fsutil"
	"github.com/banshee-data/chartlab/internal/testutil"
)

func day(d int) time.Time { return time.Date(2021, 3, d, 0, 0, 0, 0, time.UTC) }

func track(id, genre string, energy float64) dataset.TrackFeatures {
	return dataset.TrackFeatures{
		TrackID:       id,
		Artists:       "spotify-" + id,
		TrackName:     "name-" + id,
		TrackGenre:    genre,
		AudioFeatures: dataset.AudioFeatures{Energy: energy, Danceability: 0.5, Valence: 0.5},
	}
}

func TestMergeInnerJoinOrder(t *testing.T) {
	charts := []dataset.ChartEntry{
		{Title: "B", Rank: 2, Date: day(1), Artist: "artB", Region: "Japan", TrackID: "b"},
		{Title: "A", Rank: 1, Date: day(2), Artist: "artA", Region: "Global", TrackID: "a", Streams: 10},
		{Title: "X", Rank: 3, Date: day(2), Region: "Global", TrackID: "x"},
		{Title: "NoID", Rank: 4, Date: day(2), Region: "Global"},
	}
	features := []dataset.TrackFeatures{
		track("a", "pop", 0.9),
		track("b", "rock", 0.1),
		track("a", "dance", 0.9),
		{TrackID: "", TrackGenre: "empty"},
	}

	got := Merge(charts, features)
	require.Len(t, got, 3)

	assert.Equal(t, "B", got[0].TrackNameChart)
	assert.Equal(t, "rock", got[0].Track.TrackGenre)
	assert.Equal(t, "A", got[1].TrackNameChart)
	assert.Equal(t, "pop", got[1].Track.TrackGenre)
	assert.Equal(t, "A", got[2].TrackNameChart)
	assert.Equal(t, "dance", got[2].Track.TrackGenre)

	assert.Equal(t, "artA", got[1].ArtistChart)
	assert.Equal(t, "spotify-a", got[1].Track.Artists)
	assert.Equal(t, 2021, got[1].Year)
	assert.Equal(t, 3, got[1].Month)
	assert.Equal(t, 10.0, got[1].Streams)
}

func TestMergeNoMatches(t *testing.T) {
	got := Merge([]dataset.ChartEntry{{TrackID: "a"}}, []dataset.TrackFeatures{track("b", "pop", 1)})
	assert.Empty(t, got)
}

func TestSummarize(t *testing.T) {
	rows := []dataset.MergedRow{
		{TrackID: "a", Region: "Japan", Year: 2021, Track: track("a", "pop", 0.2)},
		{TrackID: "a", Region: "Global", Year: 2020, Track: track("a", "pop", 0.4)},
		{TrackID: "b", Region: "Japan", Year: 2021, Track: track("b", "pop", math.NaN())},
	}
	s := Summarize(rows)

	assert.Equal(t, 3, s.Rows)
	assert.Equal(t, 2, s.UniqueTracks)
	assert.Equal(t, len(dataset.MergedSchema.Header()), s.Columns)
	assert.Equal(t, []dataset.Count{{Key: "Japan", N: 2}, {Key: "Global", N: 1}}, s.ByRegion)
	assert.Equal(t, []dataset.Count{{Key: "2020", N: 1}, {Key: "2021", N: 2}}, s.ByYear)

	require.Equal(t, "energy", s.Features[1].Name)
	assert.InDelta(t, 0.3, s.Features[1].Mean, 1e-9)
	assert.InDelta(t, 0.2, s.Features[1].Min, 1e-9)
	assert.InDelta(t, 0.4, s.Features[1].Max, 1e-9)
	assert.False(t, s.MeetsRequirements())
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil)
	assert.Zero(t, s.Rows)
	assert.True(t, math.IsNaN(s.Features[0].Mean))
}

func TestRun(t *testing.T) {
	testutil.MuteLogs(t)
	fsys := fsutil.NewMemoryFileSystem()
	fsys.WriteFile("charts.csv", []byte(
		"title,rank,date,artist,url,region,chart,trend,streams,track_id\n"+
			"Song A,1,2021-03-01,Art,https://open.spotify.com/track/a,Global,top200,SAME_POSITION,100,a\n"+
			"Song Z,2,2021-03-01,Art,https://open.spotify.com/track/z,Global,top200,MOVE_UP,50,z\n"))
	fsys.WriteFile("features.csv", []byte(
		",track_id,artists,album_name,track_name,popularity,duration_ms,explicit,danceability,energy,key,loudness,mode,speechiness,acousticness,instrumentalness,liveness,valence,tempo,time_signature,track_genre\n"+
			"0,a,Spot Art,Alb,Song A,80,200000,False,0.7,0.8,1,-5,1,0.05,0.1,0,0.1,0.9,120,4,pop\n"))

	s, err := Run(fsys, "charts.csv", "features.csv", "out/merged.csv")
	require.NoError(t, err)
	assert.Equal(t, 2, s.ChartRows)
	assert.Equal(t, 1, s.FeatureRows)
	assert.Equal(t, 1, s.Rows)
	assert.Positive(t, s.SizeBytes)
	assert.Equal(t, "1 rows, 1 tracks, 1 regions", s.String())

	data, err := fsys.ReadFile("out/merged.csv")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "track_name_chart,rank,date,artist_chart,region,trend,streams,track_id,artist_spotify"))
	assert.NotContains(t, lines[0], "url")
	assert.True(t, strings.HasSuffix(lines[0], "track_genre,year,month"))

	back, err := dataset.MergedSchema.Load(fsys, "out/merged.csv")
	require.NoError(t, err)
	require.Len(t, back, 1)
	assert.Equal(t, "Spot Art", back[0].Track.Artists)
	assert.Equal(t, 2021, back[0].Year)
}

func TestRunMissingInput(t *testing.T) {
	testutil.MuteLogs(t)
	_, err := Run(fsutil.NewMemoryFileSystem(), "charts.csv", "features.csv", "out.csv")
	assert.Error(t, err)
}
