package stats

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// ErrBadClusterCount is returned when k is not in [1, number of points].
var ErrBadClusterCount = errors.New("cluster count must be between 1 and the number of points")

// KMeansOptions configure a k-means run.
type KMeansOptions struct {
	K       int
	Seed    int64
	NInit   int // independent k-means++ restarts; the lowest inertia wins
	MaxIter int
}

// KMeansResult is the best clustering found.
type KMeansResult struct {
	// Labels[i] is the cluster of row i. Clusters are numbered in order of
	// their first member, so row 0 is always in cluster 0.
	Labels    []int
	Centroids *mat.Dense
	Inertia   float64
}

// KMeans clusters the rows of points with Lloyd's algorithm seeded by
// k-means++. The result depends only on the points and options.
func KMeans(points mat.Matrix, opts KMeansOptions) (*KMeansResult, error) {
	n, d := points.Dims()
	if opts.K < 1 || opts.K > n {
		return nil, fmt.Errorf("%w: k=%d, n=%d", ErrBadClusterCount, opts.K, n)
	}
	if d == 0 {
		return nil, errors.New("kmeans: points have no columns")
	}
	if opts.NInit < 1 {
		opts.NInit = 1
	}
	if opts.MaxIter < 1 {
		opts.MaxIter = 300
	}

	rows := make([][]float64, n)
	for i := range rows {
		rows[i] = mat.Row(nil, i, points)
	}

	rng := rand.New(rand.NewPCG(uint64(opts.Seed), 0x9e3779b97f4a7c15))
	var best *KMeansResult
	for run := 0; run < opts.NInit; run++ {
		centroids := seedPlusPlus(rows, opts.K, rng)
		labels, inertia := lloyd(rows, centroids, opts.MaxIter)
		if best == nil || inertia < best.Inertia {
			best = &KMeansResult{Labels: labels, Inertia: inertia, Centroids: toDense(centroids, d)}
		}
	}
	relabel(best)
	return best, nil
}

func seedPlusPlus(rows [][]float64, k int, rng *rand.Rand) [][]float64 {
	centroids := make([][]float64, 0, k)
	first := rows[rng.IntN(len(rows))]
	centroids = append(centroids, append([]float64(nil), first...))

	dist := make([]float64, len(rows))
	for len(centroids) < k {
		for i, r := range rows {
			dist[i] = nearest(r, centroids).d2
		}
		total := floats.Sum(dist)
		pick := rng.IntN(len(rows))
		if total > 0 {
			target := rng.Float64() * total
			for i, w := range dist {
				target -= w
				if target < 0 {
					pick = i
					break
				}
			}
		}
		centroids = append(centroids, append([]float64(nil), rows[pick]...))
	}
	return centroids
}

type hit struct {
	idx int
	d2  float64
}

func nearest(r []float64, centroids [][]float64) hit {
	h := hit{idx: -1, d2: math.Inf(1)}
	for j, c := range centroids {
		dd := floats.Distance(r, c, 2)
		if d2 := dd * dd; d2 < h.d2 {
			h = hit{idx: j, d2: d2}
		}
	}
	return h
}

func lloyd(rows [][]float64, centroids [][]float64, maxIter int) ([]int, float64) {
	k := len(centroids)
	d := len(centroids[0])
	labels := make([]int, len(rows))
	for i := range labels {
		labels[i] = -1
	}

	for iter := 0; iter < maxIter; iter++ {
		changed := false
		for i, r := range rows {
			if h := nearest(r, centroids); h.idx != labels[i] {
				labels[i] = h.idx
				changed = true
			}
		}
		if !changed {
			break
		}
		sums := make([][]float64, k)
		counts := make([]int, k)
		for j := range sums {
			sums[j] = make([]float64, d)
		}
		for i, r := range rows {
			floats.Add(sums[labels[i]], r)
			counts[labels[i]]++
		}
		for j := range centroids {
			if counts[j] == 0 {
				continue
			}
			floats.Scale(1/float64(counts[j]), sums[j])
			centroids[j] = sums[j]
		}
	}

	var inertia float64
	for i, r := range rows {
		dd := floats.Distance(r, centroids[labels[i]], 2)
		inertia += dd * dd
	}
	return labels, inertia
}

func toDense(centroids [][]float64, d int) *mat.Dense {
	m := mat.NewDense(len(centroids), d, nil)
	for j, c := range centroids {
		m.SetRow(j, c)
	}
	return m
}

// relabel renumbers clusters by first appearance in row order.
func relabel(res *KMeansResult) {
	k, d := res.Centroids.Dims()
	mapping := make([]int, k)
	for j := range mapping {
		mapping[j] = -1
	}
	next := 0
	for _, l := range res.Labels {
		if mapping[l] < 0 {
			mapping[l] = next
			next++
		}
	}
	for j := range mapping {
		if mapping[j] < 0 {
			mapping[j] = next
			next++
		}
	}

	centroids := mat.NewDense(k, d, nil)
	for j := 0; j < k; j++ {
		centroids.SetRow(mapping[j], res.Centroids.RawRowView(j))
	}
	res.Centroids = centroids
	for i, l := range res.Labels {
		res.Labels[i] = mapping[l]
	}
}
