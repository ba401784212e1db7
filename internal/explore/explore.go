// Package explore profiles the raw and intermediate datasets before they are
// merged. It loads files untyped through a gota dataframe so any CSV can be
// inspected, whatever its columns.
package explore

import (
	"fmt"
	"io"
	"strconv"

	"github.com/go-gota/gota/dataframe"
	"github.com/olekukonko/tablewriter"

	"github.com/banshee-data/chartlab/internal/fsutil"
	"github.com/banshee-data/chartlab/internal/monitoring"
)

// headRows is how many leading rows a profile keeps.
const headRows = 3

// missingMarkers are the cell values treated as missing.
var missingMarkers = []string{"", "NA", "NaN", "<nil>"}

// Column describes one column of a profiled dataset.
type Column struct {
	Name    string
	Type    string
	Missing int
}

// Profile is the summary of one dataset.
type Profile struct {
	Name    string
	Path    string
	Rows    int
	Columns []Column
	Head    [][]string

	// ArtistColumn and TrackColumn are empty when the dataset has none.
	ArtistColumn  string
	UniqueArtists int
	TrackColumn   string
	UniqueTracks  int
}

// Load reads a CSV into a dataframe with column types detected from the data.
func Load(fsys fsutil.FileSystem, path string) (dataframe.DataFrame, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	df := dataframe.ReadCSV(f,
		dataframe.DetectTypes(true),
		dataframe.NaNValues(missingMarkers),
		dataframe.WithLazyQuotes(true),
	)
	if df.Err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("failed to parse %s: %w", path, df.Err)
	}
	return df, nil
}

// ProfileFile loads and profiles the dataset at path.
func ProfileFile(fsys fsutil.FileSystem, path, name string) (*Profile, dataframe.DataFrame, error) {
	df, err := Load(fsys, path)
	if err != nil {
		return nil, df, err
	}
	p := ProfileFrame(df, name)
	p.Path = path
	return p, df, nil
}

// ProfileFrame summarises an already loaded dataframe.
func ProfileFrame(df dataframe.DataFrame, name string) *Profile {
	p := &Profile{Name: name, Rows: df.Nrow()}

	types := df.Types()
	for i, col := range df.Names() {
		missing := 0
		for _, na := range df.Col(col).IsNaN() {
			if na {
				missing++
			}
		}
		p.Columns = append(p.Columns, Column{Name: col, Type: string(types[i]), Missing: missing})
	}

	records := df.Records()
	if len(records) > 1 {
		end := len(records)
		if end > headRows+1 {
			end = headRows + 1
		}
		p.Head = records[1:end]
	}

	if col := firstPresent(df, "artist", "artists"); col != "" {
		p.ArtistColumn = col
		p.UniqueArtists = len(distinct(df, col))
	}
	if col := firstPresent(df, "track_name", "title", "song"); col != "" {
		p.TrackColumn = col
		p.UniqueTracks = len(distinct(df, col))
	}
	return p
}

// HasColumn reports whether the profiled dataset carries the named column.
func (p *Profile) HasColumn(name string) bool {
	for _, c := range p.Columns {
		if c.Name == name {
			return true
		}
	}
	return false
}

// MissingTotal is the number of missing cells across all columns.
func (p *Profile) MissingTotal() int {
	n := 0
	for _, c := range p.Columns {
		n += c.Missing
	}
	return n
}

// Render writes the profile as console tables.
func (p *Profile) Render(w io.Writer) {
	fmt.Fprintf(w, "\nShape: (%d, %d)\n", p.Rows, len(p.Columns))

	fmt.Fprintln(w, "\nColumns:")
	cols := tablewriter.NewWriter(w)
	cols.SetHeader([]string{"column", "type", "missing"})
	for _, c := range p.Columns {
		cols.Append([]string{c.Name, c.Type, strconv.Itoa(c.Missing)})
	}
	cols.Render()
	if p.MissingTotal() == 0 {
		fmt.Fprintln(w, "No missing values!")
	}

	if len(p.Head) > 0 {
		fmt.Fprintf(w, "\nFirst %d rows:\n", len(p.Head))
		head := tablewriter.NewWriter(w)
		head.SetAutoFormatHeaders(false)
		head.SetAutoWrapText(false)
		names := make([]string, len(p.Columns))
		for i, c := range p.Columns {
			names[i] = c.Name
		}
		head.SetHeader(names)
		head.AppendBulk(p.Head)
		head.Render()
	}

	if p.ArtistColumn != "" {
		fmt.Fprintf(w, "\nUnique artists: %d\n", p.UniqueArtists)
	}
	if p.TrackColumn != "" {
		fmt.Fprintf(w, "Unique tracks: %d\n", p.UniqueTracks)
	}
}

// Overlap compares the track ids of the chart and feature datasets.
type Overlap struct {
	ChartTracks   int
	FeatureTracks int
	Shared        int
}

// Percent is the share of chart tracks that have features.
func (o Overlap) Percent() float64 {
	if o.ChartTracks == 0 {
		return 0
	}
	return float64(o.Shared) / float64(o.ChartTracks) * 100
}

// TrackOverlap computes the overlap of the non-missing track_id values of two
// datasets. ok is false when either dataset has no track_id column.
func TrackOverlap(charts, features dataframe.DataFrame) (o Overlap, ok bool) {
	if firstPresent(charts, "track_id") == "" || firstPresent(features, "track_id") == "" {
		return Overlap{}, false
	}
	chartIDs := distinct(charts, "track_id")
	featureIDs := distinct(features, "track_id")
	o.ChartTracks = len(chartIDs)
	o.FeatureTracks = len(featureIDs)
	for id := range chartIDs {
		if _, hit := featureIDs[id]; hit {
			o.Shared++
		}
	}
	return o, true
}

// Dataset names a file to profile.
type Dataset struct {
	Name string
	Path string
	Use  string
}

// Report is the result of exploring the chart, feature, and baseline datasets.
type Report struct {
	Profiles []*Profile
	Overlap  *Overlap
}

// Run profiles each dataset, renders the profiles to w, and checks whether
// the charts and features datasets can be merged on track_id. charts and
// features index into datasets; pass -1 to skip the overlap check.
func Run(fsys fsutil.FileSystem, w io.Writer, datasets []Dataset, charts, features int) (*Report, error) {
	report := &Report{}
	frames := make([]dataframe.DataFrame, len(datasets))
	for i, ds := range datasets {
		monitoring.Section("Exploring " + ds.Name)
		monitoring.Logf("Loading from: %s", ds.Path)
		p, df, err := ProfileFile(fsys, ds.Path, ds.Name)
		if err != nil {
			return nil, err
		}
		p.Render(w)
		report.Profiles = append(report.Profiles, p)
		frames[i] = df
	}

	fmt.Fprintln(w, "\nDATASET COMPARISON SUMMARY")
	summary := tablewriter.NewWriter(w)
	summary.SetHeader([]string{"dataset", "rows", "columns", "track_id", "audio features", "use case"})
	for i, p := range report.Profiles {
		audio := p.HasColumn("danceability") || p.HasColumn("energy") || p.HasColumn("valence")
		summary.Append([]string{
			p.Name,
			strconv.Itoa(p.Rows),
			strconv.Itoa(len(p.Columns)),
			strconv.FormatBool(p.HasColumn("track_id")),
			strconv.FormatBool(audio),
			datasets[i].Use,
		})
	}
	summary.Render()

	if charts < 0 || features < 0 {
		return report, nil
	}
	fmt.Fprintln(w, "\nMERGE STRATEGY")
	o, ok := TrackOverlap(frames[charts], frames[features])
	if !ok {
		fmt.Fprintln(w, "No shared track_id column; datasets cannot be merged directly")
		return report, nil
	}
	report.Overlap = &o
	fmt.Fprintln(w, "Can merge charts and audio features using 'track_id'")
	fmt.Fprintf(w, "   Chart tracks: %d\n", o.ChartTracks)
	fmt.Fprintf(w, "   Feature tracks: %d\n", o.FeatureTracks)
	fmt.Fprintf(w, "   Overlap: %d (%.1f%% of chart tracks)\n", o.Shared, o.Percent())
	return report, nil
}

func firstPresent(df dataframe.DataFrame, candidates ...string) string {
	names := make(map[string]bool, df.Ncol())
	for _, n := range df.Names() {
		names[n] = true
	}
	for _, c := range candidates {
		if names[c] {
			return c
		}
	}
	return ""
}

func distinct(df dataframe.DataFrame, col string) map[string]struct{} {
	s := df.Col(col)
	values := s.Records()
	out := make(map[string]struct{}, len(values))
	for i, na := range s.IsNaN() {
		if !na {
			out[values[i]] = struct{}{}
		}
	}
	return out
}
