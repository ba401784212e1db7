package viz

import (
	"fmt"
	"io"
	"math"
	"sort"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/banshee-data/chartlab/internal/dataset"
)

// PNG canvas size.
const (
	plotWidth  = 14 * vg.Inch
	plotHeight = 7 * vg.Inch
)

func legendTopRight(p *plot.Plot) {
	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10
}

// GenreEvolutionPlot draws monthly chart rows per macro genre on a time axis.
func GenreEvolutionPlot(rows []dataset.MonthCount) (*plot.Plot, error) {
	months, series := monthSeries(rows)

	p := plot.New()
	p.Title.Text = "Genre Evolution"
	p.X.Label.Text = "Month"
	p.Y.Label.Text = "Number of Songs"
	p.X.Tick.Marker = plot.TimeTicks{Format: "2006-01"}
	p.Add(plotter.NewGrid())

	xs := make([]float64, len(months))
	for i, m := range months {
		t, err := time.Parse("2006-01", m)
		if err != nil {
			return nil, fmt.Errorf("invalid month %q: %w", m, err)
		}
		xs[i] = float64(t.Unix())
	}

	for i, genre := range orderedKeys(series, nil) {
		pts := make(plotter.XYs, len(months))
		for j, n := range series[genre] {
			pts[j] = plotter.XY{X: xs[j], Y: float64(n)}
		}
		l, err := plotter.NewLine(pts)
		if err != nil {
			return nil, fmt.Errorf("genre %s: %w", genre, err)
		}
		l.Color = plotutil.Color(i)
		l.Width = vg.Points(1.5)
		p.Add(l)
		p.Legend.Add(genre, l)
	}
	legendTopRight(p)
	return p, nil
}

// EnergyValencePlot scatters energy against valence for each track, one
// colour per macro genre. Tracks missing either value are skipped.
func EnergyValencePlot(points []dataset.ScatterPoint) (*plot.Plot, error) {
	byGenre := make(map[string]plotter.XYs)
	for _, pt := range points {
		if math.IsNaN(pt.Energy) || math.IsNaN(pt.Valence) {
			continue
		}
		byGenre[pt.MacroGenre] = append(byGenre[pt.MacroGenre], plotter.XY{X: pt.Energy, Y: pt.Valence})
	}
	genres := make([]string, 0, len(byGenre))
	for g := range byGenre {
		genres = append(genres, g)
	}
	sort.Strings(genres)

	p := plot.New()
	p.Title.Text = "Energy vs Valence"
	p.X.Label.Text = "Energy"
	p.Y.Label.Text = "Valence"
	p.X.Min, p.X.Max = 0, 1
	p.Y.Min, p.Y.Max = 0, 1
	p.Add(plotter.NewGrid())

	for i, g := range genres {
		s, err := plotter.NewScatter(byGenre[g])
		if err != nil {
			return nil, fmt.Errorf("genre %s: %w", g, err)
		}
		s.GlyphStyle = draw.GlyphStyle{Color: plotutil.Color(i), Radius: vg.Points(2), Shape: draw.CircleGlyph{}}
		p.Add(s)
		p.Legend.Add(g, s)
	}
	legendTopRight(p)
	return p, nil
}

// writePNG encodes p as a PNG onto w.
func writePNG(p *plot.Plot, w io.Writer) error {
	wt, err := p.WriterTo(plotWidth, plotHeight, "png")
	if err != nil {
		return err
	}
	_, err = wt.WriteTo(w)
	return err
}
