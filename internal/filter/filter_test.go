package filter

import (
	"bytes"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/chartlab/internal/dataset"
	"github.com/banshee-data/chartlab/internal/fsutil"
	"github.com/banshee-data/chartlab/internal/testutil"
)

const fixture = `title,rank,date,artist,url,region,chart,trend,streams
Old Song,1,2019-12-31,A,https://open.spotify.com/track/old111,Global,top200,SAME_POSITION,100
Blinding Lights,1,2020-01-01,The Weeknd,https://open.spotify.com/track/0VjIjW4GlUZAMYd2vXMi3b,Global,top200,SAME_POSITION,900
Blinding Lights,1,2020-01-01,The Weeknd,https://open.spotify.com/track/0VjIjW4GlUZAMYd2vXMi3b,Global,viral50,MOVE_UP,
Deep Cut,51,2020-01-02,B,https://open.spotify.com/track/deep222,Japan,top200,MOVE_DOWN,10
Yoru ni Kakeru,3,2020-01-02,YOASOBI,https://open.spotify.com/track/3dPtXHP0oXQ4HCWHsOA9js,Japan,top200,MOVE_UP,500
Bonjour,2,2020-01-03,C,https://open.spotify.com/track/fr333,France,top200,MOVE_UP,40
No Link,4,2020-01-04,D,,Brazil,top200,NEW_ENTRY,30
`

func defaultOptions() Options {
	return Options{
		StartDate: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		Regions:   []string{"United States", "Japan", "Global", "Brazil"},
		TopRank:   50,
	}
}

func TestExtractTrackID(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://open.spotify.com/track/0VjIjW4GlUZAMYd2vXMi3b", "0VjIjW4GlUZAMYd2vXMi3b"},
		{"https://open.spotify.com/track/abc123?si=xyz", "abc123"},
		{"https://open.spotify.com/album/abc123", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := ExtractTrackID(tt.url); got != tt.want {
			t.Errorf("ExtractTrackID(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}

func TestFilter(t *testing.T) {
	var out bytes.Buffer
	res, err := Filter(strings.NewReader(fixture), &out, defaultOptions())
	require.NoError(t, err)

	assert.Equal(t, 7, res.InputRows)
	assert.Equal(t, 6, res.AfterDate)
	assert.Equal(t, 5, res.AfterRegion, "France is not requested")
	assert.Equal(t, 4, res.AfterRank, "rank 51 is dropped")
	assert.Equal(t, 3, res.WithTrackID)
	assert.Equal(t, 1, res.Duplicates)
	assert.Equal(t, 3, res.OutputRows)

	assert.Equal(t, []string{"Brazil", "France", "Global", "Japan"}, res.AvailableRegions)
	assert.Equal(t, []string{"Japan", "Global", "Brazil"}, res.RegionsKept)
	assert.Equal(t, []string{"Global", "Japan", "Brazil"}, res.OutputRegions)
	assert.Equal(t, "2019-12-31", res.InputFirst.Format(dataset.DateLayout))
	assert.Equal(t, "2020-01-01", res.OutputFirst.Format(dataset.DateLayout))
	assert.Equal(t, "2020-01-04", res.OutputLast.Format(dataset.DateLayout))

	rows, err := dataset.ChartSchema.ReadAll(&out)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	// first occurrence of the duplicate wins
	assert.Equal(t, "top200", rows[0].Chart)
	assert.Equal(t, "0VjIjW4GlUZAMYd2vXMi3b", rows[0].TrackID)
	assert.Equal(t, "3dPtXHP0oXQ4HCWHsOA9js", rows[1].TrackID)
	assert.Equal(t, "", rows[2].TrackID)
}

func TestFilterDropsRowsWithoutRank(t *testing.T) {
	in := "title,rank,date,artist,url,region,chart,trend,streams\n" +
		"A,,2021-01-01,X,https://open.spotify.com/track/abc,Brazil,top200,MOVE_UP,10\n" +
		"B,7,2021-01-01,Y,https://open.spotify.com/track/def,Brazil,top200,MOVE_UP,20\n"

	var out bytes.Buffer
	res, err := Filter(strings.NewReader(in), &out, defaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 2, res.AfterRegion)
	assert.Equal(t, 1, res.NoRank)
	assert.Equal(t, 1, res.AfterRank)
	assert.Equal(t, 1, res.OutputRows)
	assert.NotContains(t, out.String(), "abc")

	rows, err := dataset.ChartSchema.ReadAll(&out)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "B", rows[0].Title)
	assert.Equal(t, 7, rows[0].Rank)
}

func TestFilterEmptyOutputStillHasHeader(t *testing.T) {
	opts := defaultOptions()
	opts.StartDate = time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)

	var out bytes.Buffer
	res, err := Filter(strings.NewReader(fixture), &out, opts)
	require.NoError(t, err)
	assert.Zero(t, res.OutputRows)
	assert.Empty(t, res.RegionsKept)
	assert.True(t, strings.HasPrefix(out.String(), "title,rank,date"))
}

func TestRun(t *testing.T) {
	testutil.MuteLogs(t)

	fsys := fsutil.NewMemoryFileSystem()
	fsys.WriteFile("data/raw/spotify-charts.csv", []byte(fixture))

	res, err := Run(fsys, "data/raw/spotify-charts.csv", "data/processed/spotify_charts_filtered.csv", defaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 3, res.OutputRows)
	assert.InDelta(t, 0.0006, res.EstimatedSizeMB(), 1e-9)

	written, err := dataset.ChartSchema.Load(fsys, "data/processed/spotify_charts_filtered.csv")
	require.NoError(t, err)
	assert.Len(t, written, 3)
}

func TestRunMissingInput(t *testing.T) {
	testutil.MuteLogs(t)

	_, err := Run(fsutil.NewMemoryFileSystem(), "data/raw/spotify-charts.csv", "out.csv", defaultOptions())
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
	assert.Contains(t, err.Error(), "data/raw/spotify-charts.csv")
}
