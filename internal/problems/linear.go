package problems

import "gonum.org/v1/gonum/mat"

// Linear is the affine problem f(x) = x - c with identity Jacobian. It is
// exactly recovered by a single undamped Gauss-Newton step, which makes it
// the canonical smoke test for the trust-region loop.
type Linear struct {
	c []float64
}

func NewLinear(c []float64) *Linear {
	target := make([]float64, len(c))
	copy(target, c)
	return &Linear{c: target}
}

func (p *Linear) Name() string { return "linear" }
func (p *Linear) Dim() int     { return len(p.c) }
func (p *Linear) Size() int    { return len(p.c) }

func (p *Linear) Start() []float64 {
	return make([]float64, len(p.c))
}

func (p *Linear) Residuals(x, dst []float64) {
	for i := range p.c {
		dst[i] = x[i] - p.c[i]
	}
}

func (p *Linear) Jacobian(x []float64, dst *mat.Dense) {
	n := len(p.c)
	for i := 0; i < n; i++ {
		for k := 0; k < n; k++ {
			if i == k {
				dst.Set(i, k, 1)
			} else {
				dst.Set(i, k, 0)
			}
		}
	}
}
