package problems

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

const expFitSamples = 25

// True parameters used to generate the synthetic decay data.
var expFitTruth = [3]float64{2.5, 1.3, 0.5}

// ExpFit fits y = a*exp(-b*t) + c to noiseless synthetic data, so the
// global minimum is known exactly at the generating parameters.
type ExpFit struct {
	t, y []float64
}

func NewExpFit() *ExpFit {
	p := &ExpFit{
		t: make([]float64, expFitSamples),
		y: make([]float64, expFitSamples),
	}
	a, b, c := expFitTruth[0], expFitTruth[1], expFitTruth[2]
	for i := range p.t {
		p.t[i] = 0.1 * float64(i)
		p.y[i] = a*math.Exp(-b*p.t[i]) + c
	}
	return p
}

func (p *ExpFit) Name() string { return "expfit" }
func (p *ExpFit) Dim() int     { return 3 }
func (p *ExpFit) Size() int    { return expFitSamples }

func (p *ExpFit) Start() []float64 {
	return []float64{1, 1, 0}
}

// Truth returns the generating parameters (a, b, c).
func (p *ExpFit) Truth() []float64 {
	return []float64{expFitTruth[0], expFitTruth[1], expFitTruth[2]}
}

func (p *ExpFit) Residuals(x, dst []float64) {
	a, b, c := x[0], x[1], x[2]
	for i, t := range p.t {
		dst[i] = a*math.Exp(-b*t) + c - p.y[i]
	}
}

func (p *ExpFit) Jacobian(x []float64, dst *mat.Dense) {
	a, b := x[0], x[1]
	for i, t := range p.t {
		e := math.Exp(-b * t)
		dst.Set(i, 0, e)
		dst.Set(i, 1, -a*t*e)
		dst.Set(i, 2, 1)
	}
}
