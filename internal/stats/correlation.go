package stats

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Pearson returns the correlation of x and y over the positions where both
// are present. It is NaN with fewer than two complete pairs or when either
// side is constant.
func Pearson(x, y []float64) float64 {
	n := len(x)
	if len(y) < n {
		n = len(y)
	}
	xs := make([]float64, 0, n)
	ys := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		if math.IsNaN(x[i]) || math.IsNaN(y[i]) {
			continue
		}
		xs = append(xs, x[i])
		ys = append(ys, y[i])
	}
	if len(xs) < 2 {
		return math.NaN()
	}
	_, sx := stat.PopMeanStdDev(xs, nil)
	_, sy := stat.PopMeanStdDev(ys, nil)
	if sx == 0 || sy == 0 {
		return math.NaN()
	}
	return stat.Correlation(xs, ys, nil)
}

// CorrelationMatrix returns the pairwise Pearson correlations of cols. The
// diagonal is 1 for any column with variance.
func CorrelationMatrix(cols [][]float64) *mat.SymDense {
	k := len(cols)
	if k == 0 {
		return &mat.SymDense{}
	}
	m := mat.NewSymDense(k, nil)
	for i := 0; i < k; i++ {
		for j := i; j < k; j++ {
			r := Pearson(cols[i], cols[j])
			if i == j && !math.IsNaN(r) {
				r = 1
			}
			m.SetSym(i, j, r)
		}
	}
	return m
}

// Strength labels.
const (
	Strong   = "Strong"
	Moderate = "Moderate"
	Weak     = "Weak"
)

// Strength classifies a correlation coefficient by magnitude and sign.
func Strength(r float64) (strength, direction string) {
	direction = "negative"
	if r > 0 {
		direction = "positive"
	}
	switch a := math.Abs(r); {
	case a > 0.3:
		strength = Strong
	case a > 0.1:
		strength = Moderate
	default:
		strength = Weak
	}
	return strength, direction
}
