package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/chartlab/internal/config"
	"github.com/banshee-data/chartlab/internal/db"
	"github.com/banshee-data/chartlab/internal/fsutil"
	"github.com/banshee-data/chartlab/internal/testutil"
	"github.com/banshee-data/chartlab/internal/viz"
)

type chartTrack struct {
	id, genre              string
	energy, valence, dance float64
}

var tracks = map[string][]chartTrack{
	"Brazil": {
		{"br1", "latin", 0.9, 0.85, 0.8},
		{"br2", "sertanejo", 0.8, 0.9, 0.75},
		{"br3", "pop", 0.85, 0.7, 0.7},
	},
	"Japan": {
		{"jp1", "j-pop", 0.3, 0.2, 0.4},
		{"jp2", "acoustic", 0.2, 0.3, 0.35},
		{"jp3", "anime", 0.35, 0.25, 0.45},
	},
	"United States": {
		{"us1", "hip-hop", 0.6, 0.5, 0.85},
		{"us2", "pop", 0.55, 0.6, 0.7},
		{"us3", "rock", 0.65, 0.45, 0.5},
	},
}

var dates = []string{"2020-01-02", "2020-03-12", "2020-12-20", "2021-06-01"}

// writeRawData writes a small raw chart export and feature catalog under dir.
func writeRawData(t *testing.T, dir string) {
	t.Helper()
	var charts, feats strings.Builder
	charts.WriteString("title,rank,date,artist,url,region,chart,trend,streams\n")
	feats.WriteString(",track_id,artists,album_name,track_name,popularity,duration_ms,explicit," +
		"danceability,energy,key,loudness,mode,speechiness,acousticness,instrumentalness," +
		"liveness,valence,tempo,time_signature,track_genre\n")

	n := 0
	for region, regionTracks := range tracks {
		for di, date := range dates {
			for rank, s := range regionTracks {
				fmt.Fprintf(&charts, "Song %s,%d,%s,Artist %s,https://open.spotify.com/track/%s,%s,top200,MOVE_UP,%d\n",
					s.id, rank+1, date, s.id, s.id, region, 10000-1000*rank-100*di)
			}
		}
		for _, s := range regionTracks {
			fmt.Fprintf(&feats, "%d,%s,Artist %s,Album,Song %s,%d,200000,False,%g,%g,5,%g,1,0.05,%g,0.0,0.1,%g,%g,4,%s\n",
				n, s.id, s.id, s.id, 50+n, s.dance, s.energy, -12+6*s.energy, 1-s.energy, s.valence, 90+60*s.energy, s.genre)
			n++
		}
	}
	// Filtered out: too early and an unknown region.
	charts.WriteString("Old,1,2019-12-31,X,https://open.spotify.com/track/old1,Japan,top200,SAME_POSITION,5\n")
	charts.WriteString("Far,1,2020-02-01,Y,https://open.spotify.com/track/far1,France,top200,SAME_POSITION,5\n")

	raw := filepath.Join(dir, "raw")
	require.NoError(t, os.MkdirAll(raw, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(raw, "spotify-charts.csv"), []byte(charts.String()), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(raw, "spotify-tracks-features.csv"), []byte(feats.String()), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(raw, "billboard.csv"),
		[]byte("date,rank,song,artist,last-week,peak-rank,weeks-on-board\n2021-11-06,1,Easy On Me,Adele,1,1,3\n"), 0o644))
}

func newTestApp(t *testing.T) (*app, *bytes.Buffer, string) {
	t.Helper()
	testutil.MuteLogs(t)
	dir := t.TempDir()
	var out bytes.Buffer
	return &app{fs: fsutil.OSFileSystem{}, out: &out}, &out, dir
}

func execute(t *testing.T, a *app, args ...string) error {
	t.Helper()
	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetErr(&bytes.Buffer{})
	return root.ExecuteContext(context.Background())
}

func TestCommandTree(t *testing.T) {
	a, _, _ := newTestApp(t)
	root := newRootCmd(a)

	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{
		"filter", "explore", "merge", "engineer", "analyze", "visualize",
		"run", "load", "migrate", "serve", "spotify-check",
	} {
		assert.Contains(t, names, want)
	}
	assert.Contains(t, root.Version, "dev")
}

func TestFlagOverrides(t *testing.T) {
	a, _, dir := newTestApp(t)
	a.configPath = filepath.Join(dir, "missing.json")
	a.dataDir = filepath.Join(dir, "data")
	a.dbPath = filepath.Join(dir, "x.db")

	require.NoError(t, a.loadConfig())
	assert.Equal(t, filepath.Join(dir, "data"), a.paths.Root)
	assert.Equal(t, filepath.Join(dir, "x.db"), a.cfg.GetDBPath())
}

func TestInvalidConfig(t *testing.T) {
	a, _, dir := newTestApp(t)
	cfgPath := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`{"start_date": "yesterday"}`), 0o644))

	err := execute(t, a, "filter", "--config", cfgPath, "--data-dir", dir)
	assert.Error(t, err)
}

func TestFilterMissingInput(t *testing.T) {
	a, _, dir := newTestApp(t)
	err := execute(t, a, "filter", "--config", filepath.Join(dir, "none.json"), "--data-dir", dir)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestRunPipelineAndLoad(t *testing.T) {
	a, out, dir := newTestApp(t)
	data := filepath.Join(dir, "data")
	writeRawData(t, data)
	common := []string{"--config", filepath.Join(dir, "none.json"), "--data-dir", data, "--db-path", filepath.Join(dir, "chartlab.db")}

	require.NoError(t, execute(t, a, append([]string{"run", "--parallelism", "2"}, common...)...))
	assert.Contains(t, out.String(), "Pipeline complete.")
	assert.Contains(t, out.String(), "MERGE STRATEGY", "run includes the explore stage")

	paths := config.Paths{Root: data}
	for _, p := range []string{
		paths.FilteredCharts(),
		paths.Merged(),
		paths.Engineered(),
		paths.Chart(viz.MoodTrendsHTML),
		paths.Chart(viz.RegionalPreferencesHTML),
		paths.Chart(viz.TopHitsHTML),
		paths.Chart(viz.GenreEvolutionHTML),
		paths.Chart(viz.GenreEvolutionPNG),
		paths.Chart(viz.EnergyValencePNG),
	} {
		_, err := os.Stat(p)
		assert.NoError(t, err, "expected %s", p)
	}

	out.Reset()
	require.NoError(t, execute(t, a, append([]string{"explore"}, common...)...))
	assert.Contains(t, out.String(), "DATASET COMPARISON SUMMARY")

	out.Reset()
	require.NoError(t, execute(t, a, append([]string{"load"}, common...)...))
	assert.Contains(t, out.String(), "Loaded run")

	database, err := db.Open(filepath.Join(dir, "chartlab.db"))
	require.NoError(t, err)
	defer database.Close()
	runs, err := database.Runs()
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, len(tracks)*len(dates)*3, runs[0].Rows)
}

func TestMigrateCommand(t *testing.T) {
	a, _, dir := newTestApp(t)
	dbPath := filepath.Join(dir, "m.db")
	common := []string{"--config", filepath.Join(dir, "none.json"), "--db-path", dbPath}

	require.NoError(t, execute(t, a, append([]string{"migrate", "up"}, common...)...))
	database, err := db.OpenDB(dbPath)
	require.NoError(t, err)
	defer database.Close()
	s, err := database.Status(db.MigrationsFS())
	require.NoError(t, err)
	assert.Zero(t, s.Pending())

	assert.Error(t, execute(t, a, append([]string{"migrate", "sideways"}, common...)...))
}

func TestSpotifyCheckMissingCredentials(t *testing.T) {
	a, _, dir := newTestApp(t)
	t.Setenv("SPOTIFY_CLIENT_ID", "")
	t.Setenv("SPOTIFY_CLIENT_SECRET", "")
	t.Chdir(dir)

	err := execute(t, a, "spotify-check", "--config", filepath.Join(dir, "none.json"))
	assert.ErrorIs(t, err, config.ErrMissingCredentials)
}

func TestServeShutsDownOnCancel(t *testing.T) {
	testutil.MuteLogs(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := serve(ctx, "127.0.0.1:0", nil)
	assert.NoError(t, err)
}
