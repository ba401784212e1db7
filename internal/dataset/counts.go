package dataset

import (
	"math"
	"sort"
)

// Count is one entry of a value-count table.
type Count struct {
	Key string
	N   int
}

// CountBy tallies key(r) over recs. Empty keys are skipped. The result is
// sorted by descending count, ties broken by key.
func CountBy[T any](recs []T, key func(*T) string) []Count {
	tally := make(map[string]int)
	for i := range recs {
		if k := key(&recs[i]); k != "" {
			tally[k]++
		}
	}
	out := make([]Count, 0, len(tally))
	for k, n := range tally {
		out = append(out, Count{Key: k, N: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].N != out[j].N {
			return out[i].N > out[j].N
		}
		return out[i].Key < out[j].Key
	})
	return out
}

// Floats projects recs to a float column.
func Floats[T any](recs []T, value func(*T) float64) []float64 {
	out := make([]float64, len(recs))
	for i := range recs {
		out[i] = value(&recs[i])
	}
	return out
}

// DropNaN returns the non-NaN values of xs in order.
func DropNaN(xs []float64) []float64 {
	out := make([]float64, 0, len(xs))
	for _, x := range xs {
		if !math.IsNaN(x) {
			out = append(out, x)
		}
	}
	return out
}
