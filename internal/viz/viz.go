// Package viz renders the analysis visualization tables as interactive HTML
// charts (go-echarts) and static PNG plots (gonum/plot).
package viz

import (
	"context"
	"fmt"
	"io"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/plot"

	"github.com/banshee-data/chartlab/internal/analysis"
	"github.com/banshee-data/chartlab/internal/config"
	"github.com/banshee-data/chartlab/internal/fsutil"
	"github.com/banshee-data/chartlab/internal/monitoring"
)

// Output file names under the charts directory.
const (
	MoodTrendsHTML          = "mood_trends.html"
	RegionalPreferencesHTML = "regional_preferences.html"
	TopHitsHTML             = "top_hits.html"
	GenreEvolutionHTML      = "genre_evolution.html"
	GenreEvolutionPNG       = "genre_evolution.png"
	EnergyValencePNG        = "energy_valence.png"
)

// Options configure chart rendering.
type Options struct {
	// AssetsHost overrides where the HTML charts load echarts from.
	// Empty uses the go-echarts CDN.
	AssetsHost string
	// Parallelism caps concurrent renders; zero or less means unlimited.
	Parallelism int
}

// renderer is satisfied by every go-echarts chart and page.
type renderer interface {
	Render(w io.Writer) error
}

// job renders one output file.
type job struct {
	name   string
	render func(w io.Writer) error
}

func html(name string, r renderer) job {
	return job{name: name, render: r.Render}
}

func png(name string, build func() (*plot.Plot, error)) job {
	return job{name: name, render: func(w io.Writer) error {
		p, err := build()
		if err != nil {
			return err
		}
		return writePNG(p, w)
	}}
}

func jobs(t *analysis.VisualizationTables, o Options) []job {
	return []job{
		html(MoodTrendsHTML, MoodTrendsChart(t.MoodTrends, o)),
		html(RegionalPreferencesHTML, RegionalPreferencesChart(t.RegionalAudio, o)),
		html(TopHitsHTML, TopHitsPage(t.TopByRegion, o)),
		html(GenreEvolutionHTML, GenreEvolutionChart(t.MonthlyGenre, o)),
		png(GenreEvolutionPNG, func() (*plot.Plot, error) { return GenreEvolutionPlot(t.MonthlyGenre) }),
		png(EnergyValencePNG, func() (*plot.Plot, error) { return EnergyValencePlot(t.Scatter) }),
	}
}

// Render writes every chart under the charts directory. Charts are
// independent and render concurrently; the first failure cancels the rest.
// It returns the written paths in a fixed order.
func Render(ctx context.Context, fsys fsutil.FileSystem, paths config.Paths, t *analysis.VisualizationTables, o Options) ([]string, error) {
	js := jobs(t, o)
	out := make([]string, len(js))

	g, ctx := errgroup.WithContext(ctx)
	if o.Parallelism > 0 {
		g.SetLimit(o.Parallelism)
	}
	for i, j := range js {
		path := paths.Chart(j.name)
		out[i] = path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return writeChart(fsys, path, j.render)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func writeChart(fsys fsutil.FileSystem, path string, render func(io.Writer) error) error {
	w, err := fsutil.CreateAll(fsys, path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := render(w); err != nil {
		w.Close()
		return fmt.Errorf("failed to render %s: %w", path, err)
	}
	return w.Close()
}

// Run loads the visualization tables written by the analysis stage and
// renders every chart.
func Run(ctx context.Context, fsys fsutil.FileSystem, paths config.Paths, o Options) ([]string, error) {
	monitoring.Section("Rendering charts")
	t, err := analysis.LoadVisualizationData(fsys, paths)
	if err != nil {
		return nil, err
	}
	written, err := Render(ctx, fsys, paths, t, o)
	if err != nil {
		return nil, err
	}
	for i, p := range written {
		monitoring.Step(i+1, p)
	}
	monitoring.Logf("Charts written to: %s", paths.ChartsDir())
	return written, nil
}
