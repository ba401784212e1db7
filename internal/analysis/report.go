package analysis

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
)

var (
	significant    = color.New(color.FgGreen, color.Bold).SprintFunc()
	notSignificant = color.New(color.FgYellow).SprintFunc()
	heading        = color.New(color.FgCyan, color.Bold).SprintFunc()
)

func f3(v float64) string { return strconv.FormatFloat(v, 'f', 3, 64) }

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func newTable(w io.Writer, header ...string) *tablewriter.Table {
	t := tablewriter.NewWriter(w)
	t.SetHeader(header)
	t.SetAutoWrapText(false)
	return t
}

// Render writes the analysis report as console tables.
func (r *Result) Render(w io.Writer) {
	r.renderRegional(w)
	r.renderGenres(w)
	r.renderClusters(w)
	r.renderTopTracks(w)
	r.renderCorrelations(w)
}

func (r *Result) renderRegional(w io.Writer) {
	fmt.Fprintln(w, heading("\nREGIONAL AUDIO FEATURE ANALYSIS"))
	fmt.Fprintln(w, "Mean audio features by region:")
	t := newTable(w, append([]string{"region"}, r.Regional.Features...)...)
	for _, g := range r.Regional.Regions {
		row := []string{g.Key}
		for _, m := range g.Means {
			row = append(row, f3(m))
		}
		t.Append(row)
	}
	t.Render()

	fmt.Fprintln(w, "ANOVA tests (do regions differ significantly?):")
	t = newTable(w, "feature", "F", "p", "result")
	for _, test := range r.Regional.Tests {
		verdict := notSignificant("Not significant")
		if test.Significant {
			verdict = significant("SIGNIFICANT")
		}
		t.Append([]string{
			test.Feature,
			strconv.FormatFloat(test.F, 'f', 2, 64),
			strconv.FormatFloat(test.P, 'f', 6, 64),
			verdict,
		})
	}
	t.Render()
}

func (r *Result) renderGenres(w io.Writer) {
	fmt.Fprintln(w, heading("\nGENRE EVOLUTION ANALYSIS"))
	for _, y := range r.Genres.TopByYear {
		fmt.Fprintf(w, "Top genres of %d:\n", y.Year)
		t := newTable(w, "genre", "tracks")
		for _, c := range y.Genres {
			t.Append([]string{c.Key, strconv.Itoa(c.N)})
		}
		t.Render()
	}
}

func (r *Result) renderClusters(w io.Writer) {
	fmt.Fprintln(w, heading("\nGEOGRAPHIC TASTE CLUSTERING"))
	fmt.Fprintf(w, "Clustered %d regions\n", len(r.Clusters.Profiles))
	t := newTable(w, "cluster", "regions", "mood", "danceability", "energy", "valence", "acousticness")
	for _, c := range r.Clusters.Clusters {
		g := GroupMeans{Means: c.Means}
		t.Append([]string{
			strconv.Itoa(c.ID + 1),
			strings.Join(c.Regions, ", "),
			c.Mood,
			f3(g.Mean(ClusterFeatures, "danceability")),
			f3(g.Mean(ClusterFeatures, "energy")),
			f3(g.Mean(ClusterFeatures, "valence")),
			f3(g.Mean(ClusterFeatures, "acousticness")),
		})
	}
	t.Render()
}

func renderRanked(w io.Writer, title, metric string, tracks []RankedTrack, format func(float64) string) {
	fmt.Fprintln(w, title)
	t := newTable(w, "track", "artist", "genre", metric)
	for _, tr := range tracks {
		t.Append([]string{truncate(tr.TrackName, 30), truncate(tr.Artist, 25), tr.MacroGenre, format(tr.Value)})
	}
	t.Render()
}

func (r *Result) renderTopTracks(w io.Writer) {
	fmt.Fprintln(w, heading("\nTOP TRACKS ANALYSIS"))
	whole := func(v float64) string { return strconv.FormatFloat(v, 'f', 0, 64) }
	renderRanked(w, "Most popular tracks:", "popularity", r.TopTracks.Popular, whole)
	renderRanked(w, "Party tracks (energy + danceability + positivity):", "party score", r.TopTracks.Party, f3)
	renderRanked(w, "Chill tracks (calm + acoustic + neutral mood):", "chill score", r.TopTracks.Chill, f3)
	renderRanked(w, "Longest charting tracks:", "weeks", r.TopTracks.Longest, whole)
}

func (r *Result) renderCorrelations(w io.Writer) {
	fmt.Fprintln(w, heading("\nCORRELATION ANALYSIS"))
	fmt.Fprintln(w, "Pearson correlation between audio features and chart performance")
	for _, m := range r.Correlations.Metrics {
		fmt.Fprintf(w, "%s:\n", strings.ToUpper(m.Metric))
		t := newTable(w, "feature", "r", "direction", "strength")
		for _, fc := range m.Features {
			t.Append([]string{fc.Feature, f3(fc.R), fc.Direction, fc.Strength})
		}
		t.Render()
	}
}
