package viz

import (
	"fmt"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/chartlab/internal/dataset"
)

// MoodOrder is the stacking order of the mood series, bottom first.
var MoodOrder = []string{"Negative", "Neutral", "Positive"}

// MoodColors maps each mood to its series colour.
var MoodColors = map[string]string{
	"Negative": "#ef4444",
	"Neutral":  "#a78bfa",
	"Positive": "#22c55e",
}

// Event is a dated annotation drawn as a vertical mark line.
type Event struct {
	Month string // YYYY-MM
	Label string
}

// CovidEvents are the milestones marked on the mood trends chart.
var CovidEvents = []Event{
	{Month: "2020-03", Label: "Pandemic Declared"},
	{Month: "2020-12", Label: "Vaccine Rollout"},
}

// TempoScale divides tempo so it shares the 0-1 radar axis.
const TempoScale = 200.0

// TopHitsPerRegion is the number of bars in each region's chart.
const TopHitsPerRegion = 10

func (o Options) init(title string) opts.Initialization {
	return opts.Initialization{
		PageTitle:  title,
		Width:      "100%",
		Height:     "640px",
		AssetsHost: o.AssetsHost,
	}
}

// monthSeries pivots month counts into one value slice per category, aligned
// with the returned sorted month axis. Missing cells are zero.
func monthSeries(rows []dataset.MonthCount) (months []string, series map[string][]int) {
	seen := make(map[string]bool)
	for _, r := range rows {
		if !seen[r.Month] {
			seen[r.Month] = true
			months = append(months, r.Month)
		}
	}
	sort.Strings(months)
	index := make(map[string]int, len(months))
	for i, m := range months {
		index[m] = i
	}

	series = make(map[string][]int)
	for _, r := range rows {
		s, ok := series[r.Category]
		if !ok {
			s = make([]int, len(months))
			series[r.Category] = s
		}
		s[index[r.Month]] += r.Count
	}
	return months, series
}

func lineData(values []int) []opts.LineData {
	out := make([]opts.LineData, len(values))
	for i, v := range values {
		out[i] = opts.LineData{Value: v}
	}
	return out
}

// orderedKeys returns the keys of series in the preferred order, followed by
// any others sorted by name.
func orderedKeys(series map[string][]int, preferred []string) []string {
	var keys []string
	used := make(map[string]bool)
	for _, k := range preferred {
		if _, ok := series[k]; ok {
			keys = append(keys, k)
			used[k] = true
		}
	}
	var rest []string
	for k := range series {
		if !used[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	return append(keys, rest...)
}

// MoodTrendsChart stacks monthly mood counts as areas and marks the COVID
// milestones that fall inside the month axis.
func MoodTrendsChart(rows []dataset.MonthCount, o Options) *charts.Line {
	months, series := monthSeries(rows)

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(o.init("Mood Trends")),
		charts.WithTitleOpts(opts.Title{Title: "Mood Trends During COVID Era (2020-2021)"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "30"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Track Count"}),
	)
	line.SetXAxis(months)

	var marks []opts.MarkLineNameXAxisItem
	for _, e := range CovidEvents {
		if i := sort.SearchStrings(months, e.Month); i < len(months) && months[i] == e.Month {
			marks = append(marks, opts.MarkLineNameXAxisItem{Name: e.Label, XAxis: e.Month})
		}
	}

	for i, mood := range orderedKeys(series, MoodOrder) {
		c := MoodColors[mood]
		seriesOpts := []charts.SeriesOpts{
			charts.WithLineChartOpts(opts.LineChart{Stack: "mood", Smooth: opts.Bool(true), ShowSymbol: opts.Bool(false)}),
			charts.WithAreaStyleOpts(opts.AreaStyle{Color: c, Opacity: opts.Float(0.8)}),
			charts.WithLineStyleOpts(opts.LineStyle{Color: c, Width: 0.5}),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: c}),
		}
		if i == 0 && len(marks) > 0 {
			seriesOpts = append(seriesOpts,
				charts.WithMarkLineNameXAxisItemOpts(marks...),
				charts.WithMarkLineStyleOpts(opts.MarkLineStyle{
					Symbol:    []string{"none", "none"},
					Label:     &opts.Label{Show: opts.Bool(true), Formatter: "{b}"},
					LineStyle: &opts.LineStyle{Color: "#666", Type: "dotted", Width: 1},
				}),
			)
		}
		line.AddSeries(mood, lineData(series[mood]), seriesOpts...)
	}
	return line
}

// RegionalPreferencesChart draws one radar polygon per region over the
// comparison features, with tempo scaled onto the 0-1 axis.
func RegionalPreferencesChart(rows []dataset.RegionAudio, o Options) *charts.Radar {
	names := []string{"danceability", "energy", "valence", "acousticness", "tempo"}
	indicators := make([]*opts.Indicator, len(names))
	for i, n := range names {
		indicators[i] = &opts.Indicator{Name: n, Min: 0, Max: 1}
	}

	radar := charts.NewRadar()
	radar.SetGlobalOptions(
		charts.WithInitializationOpts(o.init("Regional Music Preferences")),
		charts.WithTitleOpts(opts.Title{Title: "Regional Music Preferences"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Orient: "vertical", Left: "right"}),
		charts.WithRadarComponentOpts(opts.RadarComponent{Indicator: indicators, Shape: "polygon", SplitNumber: 5}),
	)
	for _, r := range rows {
		values := []float64{r.Danceability, r.Energy, r.Valence, r.Acousticness, r.Tempo / TempoScale}
		radar.AddSeries(r.Region,
			[]opts.RadarData{{Name: r.Region, Value: values}},
			charts.WithAreaStyleOpts(opts.AreaStyle{Opacity: opts.Float(0.3)}),
		)
	}
	return radar
}

// topHits groups tracks by region and keeps the highest-stream tracks with
// positive streams, largest first. Regions come back sorted.
func topHits(rows []dataset.RegionTrack, n int) (regions []string, hits map[string][]dataset.RegionTrack) {
	hits = make(map[string][]dataset.RegionTrack)
	for _, r := range rows {
		if !(r.Streams > 0) {
			continue
		}
		if _, ok := hits[r.Region]; !ok {
			regions = append(regions, r.Region)
		}
		hits[r.Region] = append(hits[r.Region], r)
	}
	sort.Strings(regions)
	for _, region := range regions {
		h := hits[region]
		sort.SliceStable(h, func(i, j int) bool { return h[i].Streams > h[j].Streams })
		if len(h) > n {
			hits[region] = h[:n]
		}
	}
	return regions, hits
}

// TopHitsPage renders one horizontal bar chart per region.
func TopHitsPage(rows []dataset.RegionTrack, o Options) *components.Page {
	page := components.NewPage()
	page.SetPageTitle("Top Hits by Region")
	if o.AssetsHost != "" {
		page.SetAssetsHost(o.AssetsHost)
	}

	regions, hits := topHits(rows, TopHitsPerRegion)
	for _, region := range regions {
		h := hits[region]
		// Category axes draw bottom-up; reverse so the biggest hit is on top.
		names := make([]string, len(h))
		data := make([]opts.BarData, len(h))
		for i, t := range h {
			j := len(h) - 1 - i
			names[j] = t.TrackName
			data[j] = opts.BarData{
				Name:  fmt.Sprintf("%s - %s", t.TrackName, t.ArtistSpotify),
				Value: t.Streams,
			}
		}

		bar := charts.NewBar()
		bar.SetGlobalOptions(
			charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "480px", AssetsHost: o.AssetsHost}),
			charts.WithTitleOpts(opts.Title{Title: "Top Hits: " + region, Subtitle: fmt.Sprintf("%d tracks by total streams", len(h))}),
			charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
			charts.WithXAxisOpts(opts.XAxis{Name: "Streams"}),
			charts.WithGridOpts(opts.Grid{Left: "30%"}),
		)
		bar.SetXAxis(names).AddSeries(region, data)
		bar.XYReversal()
		page.AddCharts(bar)
	}
	return page
}

// GenreEvolutionChart draws one line of monthly chart rows per macro genre.
func GenreEvolutionChart(rows []dataset.MonthCount, o Options) *charts.Line {
	months, series := monthSeries(rows)

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(o.init("Genre Evolution")),
		charts.WithTitleOpts(opts.Title{Title: "Genre Evolution", Subtitle: span(months)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Type: "scroll", Top: "30"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Month"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Number of Songs"}),
	)
	line.SetXAxis(months)
	for _, genre := range orderedKeys(series, nil) {
		line.AddSeries(genre, lineData(series[genre]),
			charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}),
		)
	}
	return line
}

func span(months []string) string {
	if len(months) == 0 {
		return ""
	}
	return months[0] + " to " + months[len(months)-1]
}
