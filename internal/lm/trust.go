package lm

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Trust-region bounds and step-quality thresholds.
const (
	MinDelta    = 1e-16
	MaxDelta    = 1e16
	MinDiagonal = 1e-6
	MaxDiagonal = 1e32

	// MinStepQuality is the gain-ratio threshold below which a step is
	// rejected and the trust region shrinks.
	MinStepQuality = 1e-3

	initialDecrease = 2.0
)

// step runs one damped trust-region iteration: refresh the Jacobian if
// stale, build the scaled damping diagonal, solve for the step, evaluate
// the trial point and accept or reject it based on the gain ratio.
func (ft *Fitter) step(w *workspace) (accepted bool, trialSSR, rho float64, err error) {
	m, n := w.jac.Dims()

	if w.jacStale {
		ft.problem.Jacobian(w.x, w.jac)
		w.gCalls++
		w.jacStale = false
	}

	// Column sums of squares approximate the local curvature per
	// parameter; clamping keeps the damping term neither singular nor
	// dominating.
	for k := 0; k < n; k++ {
		s := 0.0
		for i := 0; i < m; i++ {
			v := w.jac.At(i, k)
			s += v * v
		}
		w.dtd[k] = math.Min(math.Max(s, MinDiagonal), MaxDiagonal)
	}

	// Larger delta means more trust and smaller effective damping. The
	// dtd buffer is scaled in place; it is recomputed from the Jacobian
	// at the top of every iteration.
	for k := 0; k < n; k++ {
		w.dtd[k] /= w.delta
	}

	iters, serr := ft.solver.Solve(w.jac, w.fcur, w.dtd, w.dx)
	w.mulCalls += iters
	if serr != nil {
		return false, 0, 0, fmt.Errorf("%w: %v", ErrLinearSolve, serr)
	}

	floats.Sub(w.x, w.dx)
	ft.problem.Residuals(w.x, w.ftrial)
	w.fCalls++
	trialSSR = floats.Dot(w.ftrial, w.ftrial)

	// A NaN or Inf trial would otherwise flow into the gain ratio, read as
	// a rejection and loop to the iteration cap.
	if math.IsNaN(trialSSR) || math.IsInf(trialSSR, 0) {
		return false, 0, 0, fmt.Errorf("%w: trial ssr %v", ErrNonFinite, trialSSR)
	}

	// Linearized prediction of the step: fpredict = J*dx - fcur.
	pred := mat.NewVecDense(m, w.fpredict)
	pred.MulVec(w.jac, mat.NewVecDense(n, w.dx))
	w.mulCalls++
	floats.Sub(w.fpredict, w.fcur)
	predictedSSR := floats.Dot(w.fpredict, w.fpredict)

	// Gain ratio: actual vs model-predicted reduction in sum of squares.
	rho = (w.ssr - trialSSR) / (w.ssr - predictedSSR)

	if rho > MinStepQuality {
		accepted = true
		copy(w.fcur, w.ftrial)
		w.ssr = trialSSR
		// Smooth Ceres-style growth: aggressive as rho approaches 1,
		// barely above the acceptance threshold.
		g := 2*rho - 1
		w.delta = math.Min(w.delta/math.Max(1.0/3.0, 1-g*g*g), MaxDelta)
		w.decreaseFactor = initialDecrease
		w.jacStale = true
	} else {
		floats.Add(w.x, w.dx)
		w.delta = math.Max(w.delta/w.decreaseFactor, MinDelta)
		w.decreaseFactor *= 2
	}

	// The dtd buffer is reused for the gradient once the damping diagonal
	// has been consumed by the solve.
	gr := mat.NewVecDense(n, w.dtd)
	gr.MulVec(w.jac.T(), mat.NewVecDense(m, w.fcur))
	w.mulCalls++
	w.maxAbsGr = floats.Norm(w.dtd, math.Inf(1))

	return accepted, trialSSR, rho, nil
}
