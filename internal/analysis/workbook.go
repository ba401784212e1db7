package analysis

import (
	"fmt"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/banshee-data/chartlab/internal/dataset"
	"github.com/banshee-data/chartlab/internal/fsutil"
)

// sheet is one worksheet: a header row followed by encoded records.
type sheet struct {
	name   string
	header []string
	rows   [][]string
}

func encodeAll[T any](s dataset.Schema[T], recs []T) [][]string {
	out := make([][]string, len(recs))
	for i := range recs {
		out[i] = s.Encode(&recs[i])
	}
	return out
}

func (t *VisualizationTables) sheets() []sheet {
	return []sheet{
		{"monthly_genre_trends", dataset.MonthlyGenreSchema.Header(), encodeAll(dataset.MonthlyGenreSchema, t.MonthlyGenre)},
		{"regional_audio_comparison", dataset.RegionAudioSchema.Header(), encodeAll(dataset.RegionAudioSchema, t.RegionalAudio)},
		{"energy_valence_scatter", dataset.ScatterSchema.Header(), encodeAll(dataset.ScatterSchema, t.Scatter)},
		{"top_tracks_by_region", dataset.RegionTrackSchema.Header(), encodeAll(dataset.RegionTrackSchema, t.TopByRegion)},
		{"mood_trends", dataset.MoodTrendSchema.Header(), encodeAll(dataset.MoodTrendSchema, t.MoodTrends)},
	}
}

// cellValue stores numeric cells as numbers so spreadsheets can chart them.
func cellValue(s string) interface{} {
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v
	}
	return s
}

// ExportWorkbook writes every visualization table as a sheet of one xlsx file.
func ExportWorkbook(fsys fsutil.FileSystem, path string, t *VisualizationTables) error {
	f := excelize.NewFile()
	defer f.Close()

	for i, sh := range t.sheets() {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sh.name); err != nil {
				return fmt.Errorf("failed to name sheet %s: %w", sh.name, err)
			}
		} else if _, err := f.NewSheet(sh.name); err != nil {
			return fmt.Errorf("failed to add sheet %s: %w", sh.name, err)
		}

		header := make([]interface{}, len(sh.header))
		for j, h := range sh.header {
			header[j] = h
		}
		if err := f.SetSheetRow(sh.name, "A1", &header); err != nil {
			return fmt.Errorf("failed to write %s header: %w", sh.name, err)
		}
		for r, row := range sh.rows {
			cells := make([]interface{}, len(row))
			for j, c := range row {
				cells[j] = cellValue(c)
			}
			cell, err := excelize.CoordinatesToCellName(1, r+2)
			if err != nil {
				return err
			}
			if err := f.SetSheetRow(sh.name, cell, &cells); err != nil {
				return fmt.Errorf("failed to write %s row %d: %w", sh.name, r+1, err)
			}
		}
	}
	f.SetActiveSheet(0)

	w, err := fsutil.CreateAll(fsys, path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := f.Write(w); err != nil {
		w.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return w.Close()
}
