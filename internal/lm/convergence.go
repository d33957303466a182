package lm

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// assess evaluates the three stopping criteria after an iteration. prevSSR
// is the sum of squares before the step, trialSSR the one at the proposed
// point (whether or not it was accepted). All comparisons are non-strict.
func assess(dx, x []float64, prevSSR, trialSSR, maxAbsGr, xtol, ftol, grtol float64) (xc, fc, gc bool) {
	xc = floats.Norm(dx, 2) <= xtol*(xtol+floats.Norm(x, 2))
	fc = math.Abs(prevSSR-trialSSR) <= ftol*prevSSR
	gc = maxAbsGr <= grtol
	return xc, fc, gc
}
