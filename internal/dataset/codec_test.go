package dataset

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/banshee-data/chartlab/internal/fsutil"
)

const rawCharts = "\ufefftitle,rank,date,artist,url,region,chart,trend,streams\n" +
	"Blinding Lights,1,2020-03-01,The Weeknd,https://open.spotify.com/track/0VjIjW4GlUZAMYd2vXMi3b,Global,top200,SAME_POSITION,1500000\n" +
	"\"Dance Monkey, Live\",2,2020-03-01 00:00:00,Tones And I,https://open.spotify.com/track/1rgnBhdG2JDFTbYkYRZAku,Global,top200,MOVE_UP,\n"

func TestChartSchemaRead(t *testing.T) {
	got, err := ChartSchema.ReadAll(strings.NewReader(rawCharts))
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d rows, want 2", len(got))
	}

	want := ChartEntry{
		Title:   "Blinding Lights",
		Rank:    1,
		Date:    time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC),
		Artist:  "The Weeknd",
		URL:     "https://open.spotify.com/track/0VjIjW4GlUZAMYd2vXMi3b",
		Region:  "Global",
		Chart:   "top200",
		Trend:   "SAME_POSITION",
		Streams: 1500000,
	}
	if diff := cmp.Diff(want, got[0]); diff != "" {
		t.Errorf("first row mismatch (-want +got):\n%s", diff)
	}

	if got[1].Title != "Dance Monkey, Live" {
		t.Errorf("quoted title = %q", got[1].Title)
	}
	if !got[1].Date.Equal(want.Date) {
		t.Errorf("datetime cell not truncated to date: %v", got[1].Date)
	}
	if !math.IsNaN(got[1].Streams) {
		t.Errorf("empty streams should be NaN, got %v", got[1].Streams)
	}
}

func TestSchemaMissingRequiredColumn(t *testing.T) {
	_, err := ChartSchema.ReadAll(strings.NewReader("title,date,region\nA,2020-01-01,Global\n"))
	if !errors.Is(err, ErrMissingColumn) {
		t.Fatalf("expected ErrMissingColumn, got %v", err)
	}
	if !strings.Contains(err.Error(), "rank") {
		t.Errorf("error should name the column: %v", err)
	}
}

func TestSchemaBadCellsReportLine(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"bad date", "title,rank,date,region\nA,1,yesterday,Global\n", "line 2, column date"},
		{"bad rank", "title,rank,date,region\nA,1,2020-01-01,Global\nB,first,2020-01-01,Global\n", "line 3, column rank"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ChartSchema.ReadAll(strings.NewReader(tt.body))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want containing %q", err, tt.want)
			}
		})
	}
}

func TestSchemaEmptyInput(t *testing.T) {
	if _, err := ChartSchema.ReadAll(strings.NewReader("")); err == nil {
		t.Error("expected error for empty input")
	}
}

func TestIntAcceptsFloatCells(t *testing.T) {
	rows, err := ChartSchema.ReadAll(strings.NewReader("title,rank,date,region\nA,7.0,2020-01-01,Japan\n"))
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if rows[0].Rank != 7 {
		t.Errorf("rank = %d, want 7", rows[0].Rank)
	}
}

func TestEmptyRankReadsAsMissing(t *testing.T) {
	rows, err := ChartSchema.ReadAll(strings.NewReader("title,rank,date,region\nA,,2020-01-01,Japan\nB, ,2020-01-01,Japan\n"))
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	for _, r := range rows {
		if r.Rank != MissingRank {
			t.Errorf("%s: rank = %d, want MissingRank", r.Title, r.Rank)
		}
	}

	var buf bytes.Buffer
	w := ChartSchema.NewWriter(&buf)
	if err := w.Write(&rows[0]); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if got := buf.String(); !strings.Contains(got, "\nA,,2020-01-01,") {
		t.Errorf("missing rank should write an empty cell, got %q", got)
	}
}

func TestTrackFeaturesSchemaIgnoresIndexColumn(t *testing.T) {
	body := ",track_id,artists,album_name,track_name,popularity,duration_ms,explicit,danceability,energy,key,loudness,mode,speechiness,acousticness,instrumentalness,liveness,valence,tempo,time_signature,track_genre\n" +
		"0,5SuOikwiRyPMVoIQDJUgSV,Gen Hoshino,Comedy,Comedy,73,230666,False,0.676,0.461,1,-6.746,0,0.143,0.0322,1.01e-06,0.358,0.715,87.917,4,acoustic\n"

	rows, err := TrackFeaturesSchema.ReadAll(strings.NewReader(body))
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	r := rows[0]
	if r.TrackID != "5SuOikwiRyPMVoIQDJUgSV" || r.Artists != "Gen Hoshino" || r.TrackGenre != "acoustic" {
		t.Errorf("unexpected identity fields: %+v", r)
	}
	if r.Popularity != 73 || r.Energy != 0.461 || r.Instrumentalness != 1.01e-06 || r.Tempo != 87.917 {
		t.Errorf("unexpected numeric fields: %+v", r.AudioFeatures)
	}
	if r.Get("valence") != 0.715 || !math.IsNaN(r.Get("nonsense")) {
		t.Errorf("Get mismatch")
	}
}

func TestEngineeredSchemaRoundTrip(t *testing.T) {
	row := EngineeredRow{
		MergedRow: MergedRow{
			TrackNameChart: "Levitating",
			Rank:           3,
			Date:           time.Date(2021, 2, 5, 0, 0, 0, 0, time.UTC),
			ArtistChart:    "Dua Lipa",
			Region:         "United Kingdom",
			Trend:          "MOVE_UP",
			Streams:        math.NaN(),
			TrackID:        "463CkQjx2Zk1yXoBuierM9",
			Track: TrackFeatures{
				Artists:       "Dua Lipa",
				TrackName:     "Levitating",
				Popularity:    80,
				AudioFeatures: AudioFeatures{Energy: 0.825, Valence: 0.915, Loudness: -3.787},
				TrackGenre:    "dance",
			},
			Year:  2021,
			Month: 2,
		},
		RankChange:   math.NaN(),
		TrendScore:   42.5,
		MacroGenre:   "Electronic/Dance",
		Mood:         "Positive",
		WeeksInChart: 4,
		PeakPosition: 2,
		Quarter:      1,
		MonthName:    "February",
		DayOfWeek:    "Friday",
		WeekOfYear:   5,
		CovidEra:     "During COVID",
	}

	var buf bytes.Buffer
	if err := EngineeredSchema.WriteAll(&buf, []EngineeredRow{row}); err != nil {
		t.Fatalf("WriteAll: %v", err)
	}
	header := strings.SplitN(buf.String(), "\n", 2)[0]
	if !strings.HasPrefix(header, "track_name_chart,rank,date,artist_chart,region") {
		t.Errorf("unexpected header order: %s", header)
	}
	if !strings.Contains(header, "artist_spotify") || strings.Contains(header, ",artists,") {
		t.Errorf("catalog artists column should be renamed: %s", header)
	}

	back, err := EngineeredSchema.ReadAll(&buf)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	// Track.TrackID is carried only through the top-level track_id column.
	if diff := cmp.Diff(row, back[0], cmpopts.EquateNaNs(), cmpopts.IgnoreFields(TrackFeatures{}, "TrackID")); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestWriterEmitsHeaderWithoutRows(t *testing.T) {
	var buf bytes.Buffer
	w := ChartSchema.NewWriter(&buf)
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if got := buf.String(); got != "title,rank,date,artist,url,region,chart,trend,streams,track_id\n" {
		t.Errorf("header = %q", got)
	}
	if w.Rows() != 0 {
		t.Errorf("Rows = %d", w.Rows())
	}
}

func TestSaveAndLoad(t *testing.T) {
	fsys := fsutil.NewMemoryFileSystem()
	in := []ChartEntry{{Title: "A", Rank: 1, Date: time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC), Region: "Japan", Streams: 10}}

	if err := ChartSchema.Save(fsys, "data/processed/c.csv", in); err != nil {
		t.Fatalf("Save: %v", err)
	}
	out, err := ChartSchema.Load(fsys, "data/processed/c.csv")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if diff := cmp.Diff(in, out); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}

	if _, err := ChartSchema.Load(fsys, "data/processed/missing.csv"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestFormatAndParseFloat(t *testing.T) {
	if FormatFloat(math.NaN()) != "" {
		t.Error("NaN should format empty")
	}
	if FormatFloat(1500000) != "1500000" {
		t.Errorf("got %q", FormatFloat(1500000))
	}
	if !math.IsNaN(ParseFloat(" ")) || !math.IsNaN(ParseFloat("n/a")) {
		t.Error("blank and malformed cells should parse as NaN")
	}
	if ParseFloat("-6.5") != -6.5 {
		t.Error("ParseFloat(-6.5)")
	}
}
