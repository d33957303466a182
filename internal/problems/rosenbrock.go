package problems

import "gonum.org/v1/gonum/mat"

// Rosenbrock is the two-residual least-squares form of the Rosenbrock
// valley, with minimum f = 0 at (1, 1).
type Rosenbrock struct{}

func NewRosenbrock() *Rosenbrock { return &Rosenbrock{} }

func (p *Rosenbrock) Name() string { return "rosenbrock" }
func (p *Rosenbrock) Dim() int     { return 2 }
func (p *Rosenbrock) Size() int    { return 2 }

func (p *Rosenbrock) Start() []float64 {
	return []float64{-1.2, 1}
}

func (p *Rosenbrock) Residuals(x, dst []float64) {
	dst[0] = 10 * (x[1] - x[0]*x[0])
	dst[1] = 1 - x[0]
}

func (p *Rosenbrock) Jacobian(x []float64, dst *mat.Dense) {
	dst.Set(0, 0, -20*x[0])
	dst.Set(0, 1, 10)
	dst.Set(1, 0, -1)
	dst.Set(1, 1, 0)
}
