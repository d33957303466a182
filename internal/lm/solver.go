package lm

import (
	"context"
	"fmt"
	"math"
	"os"

	"gonum.org/v1/gonum/floats"
)

// Fitter drives the outer trust-region iteration for one problem/solver
// pair. The zero value is not usable; construct with New.
type Fitter struct {
	problem  Problem
	solver   DampedSolver
	settings Settings
}

func New(p Problem, s DampedSolver, settings Settings) *Fitter {
	return &Fitter{problem: p, solver: s, settings: settings}
}

// Fit minimizes the sum of squared residuals starting from x0. It returns
// a Result for both convergence and iteration-cap termination; fatal
// conditions (shape mismatch, non-finite iterate, linear-solve failure)
// abort with an error and no partial result.
func (ft *Fitter) Fit(ctx context.Context, x0 []float64) (*Result, error) {
	s, err := ft.normalizeSettings()
	if err != nil {
		return nil, err
	}

	n, m := ft.problem.Dim(), ft.problem.Size()
	w, err := newWorkspace(x0, n, m)
	if err != nil {
		return nil, err
	}

	ft.problem.Residuals(w.x, w.fcur)
	w.fCalls = 1
	w.ssr = floats.Dot(w.fcur, w.fcur)
	w.maxAbsGr = math.Inf(1)
	w.delta = s.InitDelta

	var trace Trace
	if s.StoreTrace {
		trace = make(Trace, 0, s.Iterations)
	}

	for w.iter = 1; w.iter <= s.Iterations; w.iter++ {
		if err := ctx.Err(); err != nil {
			return nil, &FitError{Iter: w.iter, SSR: w.ssr, Wrapped: err}
		}
		if !isFinite(w.x) {
			return nil, &FitError{Iter: w.iter, SSR: w.ssr, Wrapped: ErrNonFinite}
		}

		prevSSR := w.ssr
		accepted, trialSSR, rho, err := ft.step(w)
		if err != nil {
			return nil, &FitError{Iter: w.iter, SSR: w.ssr, Wrapped: err}
		}

		w.xConverged, w.fConverged, w.grConverged = assess(
			w.dx, w.x, prevSSR, trialSSR, w.maxAbsGr, s.XTol, s.FTol, s.GrTol)
		w.converged = w.xConverged || w.fConverged || w.grConverged

		if s.StoreTrace {
			acc := 0.0
			if accepted {
				acc = 1
			}
			trace = append(trace, Record{
				Iter:     w.iter,
				SSR:      w.ssr,
				MaxAbsGr: w.maxAbsGr,
				Aux:      map[string]float64{"delta": w.delta, "rho": rho, "accepted": acc},
			})
		}
		if s.ShowTrace && w.iter%s.ShowEvery == 0 {
			fmt.Fprintf(s.TraceOut, "iter %4d  ssr %.6e  |grad| %.6e  delta %.3e  rho %+.3f\n",
				w.iter, w.ssr, w.maxAbsGr, w.delta, rho)
		}

		if w.converged {
			break
		}
	}
	if w.iter > s.Iterations {
		w.iter = s.Iterations
	}

	x := make([]float64, n)
	copy(x, w.x)

	return &Result{
		Method:      "lm-trust-region/" + ft.solver.Name(),
		X:           x,
		SSR:         w.ssr,
		Iter:        w.iter,
		Converged:   w.converged,
		XConverged:  w.xConverged,
		FConverged:  w.fConverged,
		GrConverged: w.grConverged,
		XTol:        s.XTol,
		FTol:        s.FTol,
		GrTol:       s.GrTol,
		Trace:       trace,
		FCalls:      w.fCalls,
		GCalls:      w.gCalls,
		MulCalls:    w.mulCalls,
	}, nil
}

func (ft *Fitter) normalizeSettings() (Settings, error) {
	s := ft.settings
	if s.XTol == 0 {
		s.XTol = DefaultXTol
	}
	if s.FTol == 0 {
		s.FTol = DefaultFTol
	}
	if s.GrTol == 0 {
		s.GrTol = DefaultGrTol
	}
	if s.Iterations == 0 {
		s.Iterations = DefaultIterations
	}
	if s.InitDelta == 0 {
		s.InitDelta = DefaultInitDelta
	}
	if s.ShowEvery <= 0 {
		s.ShowEvery = 1
	}
	if s.TraceOut == nil {
		s.TraceOut = os.Stdout
	}

	switch {
	case s.XTol < 0 || s.FTol < 0 || s.GrTol < 0:
		return s, fmt.Errorf("%w: tolerances must be non-negative", ErrBadSettings)
	case s.Iterations < 0:
		return s, fmt.Errorf("%w: iteration cap must be positive", ErrBadSettings)
	case s.InitDelta < MinDelta || s.InitDelta > MaxDelta:
		return s, fmt.Errorf("%w: initial delta %g outside [%g, %g]", ErrBadSettings, s.InitDelta, MinDelta, MaxDelta)
	}
	return s, nil
}
