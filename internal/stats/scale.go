package stats

import (
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// StandardScale returns a copy of m with every column shifted to zero mean
// and scaled to unit population standard deviation. Constant columns become 0.
func StandardScale(m mat.Matrix) *mat.Dense {
	r, c := m.Dims()
	if r == 0 || c == 0 {
		return &mat.Dense{}
	}
	out := mat.NewDense(r, c, nil)
	col := make([]float64, r)
	for j := 0; j < c; j++ {
		mat.Col(col, j, m)
		mean, std := stat.PopMeanStdDev(col, nil)
		for i, x := range col {
			v := 0.0
			if std > 0 {
				v = (x - mean) / std
			}
			out.Set(i, j, v)
		}
	}
	return out
}
