// Package stats holds the statistical routines the analyses are built on:
// one-way ANOVA, Pearson correlation, z-score scaling, and k-means.
package stats

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/banshee-data/chartlab/internal/dataset"
)

// ErrTooFewGroups is returned when ANOVA has fewer than two non-empty groups
// or no within-group degrees of freedom.
var ErrTooFewGroups = errors.New("anova needs at least two non-empty groups and more observations than groups")

// ANOVAResult is the outcome of a one-way analysis of variance.
type ANOVAResult struct {
	F         float64
	P         float64
	DFBetween int
	DFWithin  int
}

// OneWayANOVA tests whether the group means are equal. NaNs are dropped and
// groups left empty are skipped. When every group is constant F is +Inf with
// p = 0 if the means differ, and both are NaN if they do not.
func OneWayANOVA(groups [][]float64) (ANOVAResult, error) {
	var clean [][]float64
	n := 0
	for _, g := range groups {
		g = dataset.DropNaN(g)
		if len(g) == 0 {
			continue
		}
		clean = append(clean, g)
		n += len(g)
	}
	k := len(clean)
	if k < 2 || n <= k {
		return ANOVAResult{}, fmt.Errorf("%w: %d groups, %d observations", ErrTooFewGroups, k, n)
	}

	var all []float64
	for _, g := range clean {
		all = append(all, g...)
	}
	grand := stat.Mean(all, nil)

	var ssb, ssw float64
	for _, g := range clean {
		m := stat.Mean(g, nil)
		ssb += float64(len(g)) * (m - grand) * (m - grand)
		for _, x := range g {
			ssw += (x - m) * (x - m)
		}
	}

	res := ANOVAResult{DFBetween: k - 1, DFWithin: n - k}
	msb := ssb / float64(res.DFBetween)
	msw := ssw / float64(res.DFWithin)
	switch {
	case msw > 0:
		res.F = msb / msw
		res.P = distuv.F{D1: float64(res.DFBetween), D2: float64(res.DFWithin)}.Survival(res.F)
	case msb > 0:
		res.F = math.Inf(1)
		res.P = 0
	default:
		res.F = math.NaN()
		res.P = math.NaN()
	}
	return res, nil
}
