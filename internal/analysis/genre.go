package analysis

import (
	"sort"

	"github.com/banshee-data/chartlab/internal/dataset"
)

// GenreCount is the number of chart rows of one macro genre in one quarter.
type GenreCount struct {
	Year       int
	Quarter    int
	MacroGenre string
	TrackCount int
}

// GenreCountSchema is genre_evolution.csv.
var GenreCountSchema = dataset.NewSchema(
	dataset.Int("year", func(g *GenreCount) *int { return &g.Year }),
	dataset.Int("quarter", func(g *GenreCount) *int { return &g.Quarter }),
	dataset.String("macro_genre", func(g *GenreCount) *string { return &g.MacroGenre }),
	dataset.Int("track_count", func(g *GenreCount) *int { return &g.TrackCount }),
)

// YearTop lists the leading genres of one year.
type YearTop struct {
	Year   int
	Genres []dataset.Count
}

// GenreShare is a genre's share of the chart rows in one quarter, in percent.
type GenreShare struct {
	Year       int
	Quarter    int
	MacroGenre string
	Percent    float64
}

// GenreResult holds the genre evolution analysis.
type GenreResult struct {
	Counts    []GenreCount // sorted by year, quarter, genre
	TopByYear []YearTop
	Shares    []GenreShare
}

type quarterKey struct {
	year, quarter int
}

// GenreEvolution counts rows by (year, quarter, macro genre), ranks the top
// genres of each year, and computes each genre's quarterly market share.
func GenreEvolution(rows []dataset.EngineeredRow, topPerYear int) *GenreResult {
	type key struct {
		year, quarter int
		genre         string
	}
	tally := make(map[key]int)
	for i := range rows {
		r := &rows[i]
		if r.MacroGenre == "" {
			continue
		}
		tally[key{r.Year, r.Quarter, r.MacroGenre}]++
	}

	res := &GenreResult{}
	for k, n := range tally {
		res.Counts = append(res.Counts, GenreCount{Year: k.year, Quarter: k.quarter, MacroGenre: k.genre, TrackCount: n})
	}
	sort.Slice(res.Counts, func(i, j int) bool {
		a, b := res.Counts[i], res.Counts[j]
		if a.Year != b.Year {
			return a.Year < b.Year
		}
		if a.Quarter != b.Quarter {
			return a.Quarter < b.Quarter
		}
		return a.MacroGenre < b.MacroGenre
	})

	byYear := make(map[int]map[string]int)
	quarterTotals := make(map[quarterKey]int)
	var years []int
	for _, c := range res.Counts {
		if byYear[c.Year] == nil {
			byYear[c.Year] = make(map[string]int)
			years = append(years, c.Year)
		}
		byYear[c.Year][c.MacroGenre] += c.TrackCount
		quarterTotals[quarterKey{c.Year, c.Quarter}] += c.TrackCount
	}

	for _, y := range years {
		var counts []dataset.Count
		for g, n := range byYear[y] {
			counts = append(counts, dataset.Count{Key: g, N: n})
		}
		sort.Slice(counts, func(i, j int) bool {
			if counts[i].N != counts[j].N {
				return counts[i].N > counts[j].N
			}
			return counts[i].Key < counts[j].Key
		})
		if len(counts) > topPerYear {
			counts = counts[:topPerYear]
		}
		res.TopByYear = append(res.TopByYear, YearTop{Year: y, Genres: counts})
	}

	for _, c := range res.Counts {
		total := quarterTotals[quarterKey{c.Year, c.Quarter}]
		res.Shares = append(res.Shares, GenreShare{
			Year:       c.Year,
			Quarter:    c.Quarter,
			MacroGenre: c.MacroGenre,
			Percent:    float64(c.TrackCount) / float64(total) * 100,
		})
	}
	return res
}
