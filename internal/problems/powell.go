package problems

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Powell is Powell's badly scaled function: two residuals whose natural
// scales differ by four orders of magnitude, stressing the damping
// diagonal clamp.
type Powell struct{}

func NewPowell() *Powell { return &Powell{} }

func (p *Powell) Name() string { return "powell" }
func (p *Powell) Dim() int     { return 2 }
func (p *Powell) Size() int    { return 2 }

func (p *Powell) Start() []float64 {
	return []float64{0, 1}
}

func (p *Powell) Residuals(x, dst []float64) {
	dst[0] = 1e4*x[0]*x[1] - 1
	dst[1] = math.Exp(-x[0]) + math.Exp(-x[1]) - 1.0001
}

func (p *Powell) Jacobian(x []float64, dst *mat.Dense) {
	dst.Set(0, 0, 1e4*x[1])
	dst.Set(0, 1, 1e4*x[0])
	dst.Set(1, 0, -math.Exp(-x[0]))
	dst.Set(1, 1, -math.Exp(-x[1]))
}
