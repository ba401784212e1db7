package analysis

import (
	"math"
	"sort"

	"github.com/banshee-data/chartlab/internal/dataset"
)

// RankedTrack is a track with the metric it was ranked by.
type RankedTrack struct {
	TrackID    string
	TrackName  string
	Artist     string
	MacroGenre string
	Value      float64
}

// TopTracksResult holds the track leaderboards.
type TopTracksResult struct {
	Popular []RankedTrack
	Party   []RankedTrack
	Chill   []RankedTrack
	Longest []RankedTrack // Value is the longest run in weeks
}

// uniqueTracks returns the first row of every track id, in row order.
func uniqueTracks(rows []dataset.EngineeredRow) []*dataset.EngineeredRow {
	seen := make(map[string]bool)
	var out []*dataset.EngineeredRow
	for i := range rows {
		if id := rows[i].TrackID; !seen[id] {
			seen[id] = true
			out = append(out, &rows[i])
		}
	}
	return out
}

// largest returns the n tracks with the highest value, keeping row order among
// ties. NaN values are skipped.
func largest(tracks []*dataset.EngineeredRow, n int, value func(*dataset.EngineeredRow) float64) []RankedTrack {
	var out []RankedTrack
	for _, r := range tracks {
		v := value(r)
		if math.IsNaN(v) {
			continue
		}
		out = append(out, RankedTrack{
			TrackID:    r.TrackID,
			TrackName:  r.Track.TrackName,
			Artist:     r.Track.Artists,
			MacroGenre: r.MacroGenre,
			Value:      v,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Value > out[j].Value })
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// TopTracks ranks unique tracks by popularity, party score, and chill score,
// and all tracks by their longest chart run.
func TopTracks(rows []dataset.EngineeredRow, n int) *TopTracksResult {
	unique := uniqueTracks(rows)
	res := &TopTracksResult{
		Popular: largest(unique, n, func(r *dataset.EngineeredRow) float64 { return r.Track.Popularity }),
		Party:   largest(unique, n, func(r *dataset.EngineeredRow) float64 { return r.PartyScore }),
		Chill:   largest(unique, n, func(r *dataset.EngineeredRow) float64 { return r.ChillScore }),
	}

	type run struct {
		first *dataset.EngineeredRow
		weeks int
	}
	runs := make(map[string]*run)
	var ids []string
	for i := range rows {
		r := &rows[i]
		cur, ok := runs[r.TrackID]
		if !ok {
			cur = &run{first: r}
			runs[r.TrackID] = cur
			ids = append(ids, r.TrackID)
		}
		if r.WeeksInChart > cur.weeks {
			cur.weeks = r.WeeksInChart
		}
	}
	sort.Strings(ids)
	longest := make([]RankedTrack, 0, len(ids))
	for _, id := range ids {
		r := runs[id]
		longest = append(longest, RankedTrack{
			TrackID:    id,
			TrackName:  r.first.Track.TrackName,
			Artist:     r.first.Track.Artists,
			MacroGenre: r.first.MacroGenre,
			Value:      float64(r.weeks),
		})
	}
	sort.SliceStable(longest, func(i, j int) bool { return longest[i].Value > longest[j].Value })
	if len(longest) > n {
		longest = longest[:n]
	}
	res.Longest = longest
	return res
}
