package problems

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

const biggsSamples = 13

// Biggs is the Biggs EXP6 benchmark: a sum of three exponentials with six
// parameters and thirteen residuals. The residual surface has a narrow
// curved valley that exercises repeated step rejection.
type Biggs struct {
	jac *NumJac
}

func NewBiggs() *Biggs {
	p := &Biggs{}
	p.jac = NewNumJac(p.Residuals, 6, biggsSamples)
	return p
}

func (p *Biggs) Name() string { return "biggs" }
func (p *Biggs) Dim() int     { return 6 }
func (p *Biggs) Size() int    { return biggsSamples }

func (p *Biggs) Start() []float64 {
	return []float64{1, 2, 1, 1, 1, 1}
}

func (p *Biggs) Residuals(x, dst []float64) {
	for i := 0; i < biggsSamples; i++ {
		z := float64(i) / 10
		y := math.Exp(-z) - 5*math.Exp(-10*z) + 3*math.Exp(-4*z)
		dst[i] = x[2]*math.Exp(-x[0]*z) - x[3]*math.Exp(-x[1]*z) + x[5]*math.Exp(-x[4]*z) - y
	}
}

func (p *Biggs) Jacobian(x []float64, dst *mat.Dense) {
	p.jac.Jacobian(x, dst)
}
