package problems

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

var cubeEps = math.Cbrt(math.Nextafter(1, 2) - 1)

// NumJac approximates a Jacobian by central differences, for problems
// without an analytic one. Evaluation buffers are reused across calls.
type NumJac struct {
	fn   func(x, dst []float64)
	n, m int

	xh, fp, fm []float64
}

func NewNumJac(fn func(x, dst []float64), n, m int) *NumJac {
	return &NumJac{
		fn: fn, n: n, m: m,
		xh: make([]float64, n),
		fp: make([]float64, m),
		fm: make([]float64, m),
	}
}

func (nj *NumJac) Jacobian(x []float64, dst *mat.Dense) {
	copy(nj.xh, x)
	for k := 0; k < nj.n; k++ {
		h := cubeEps * math.Max(1, math.Abs(x[k]))

		nj.xh[k] = x[k] + h
		nj.fn(nj.xh, nj.fp)
		nj.xh[k] = x[k] - h
		nj.fn(nj.xh, nj.fm)
		nj.xh[k] = x[k]

		inv := 1 / (2 * h)
		for i := 0; i < nj.m; i++ {
			dst.Set(i, k, (nj.fp[i]-nj.fm[i])*inv)
		}
	}
}
