// Package lm implements a trust-region variant of the Levenberg-Marquardt
// algorithm for nonlinear least-squares problems.
//
// The package defines the fundamental interfaces and types for damped
// trust-region iteration:
//
//   - [Problem]: residual and Jacobian evaluators for a fitting problem
//   - [DampedSolver]: backend for the regularized normal-equation step
//   - [Settings]: tolerances, iteration cap and trace options
//   - [Fitter]: orchestrates the outer iteration loop
//   - [Result]: final parameters, convergence flags and call counters
//
// # Example
//
//	prob := problems.NewLinear([]float64{3, 5})
//	fit := lm.New(prob, linsolve.NewCholesky(), lm.DefaultSettings())
//	res, _ := fit.Fit(ctx, []float64{0, 0})
//
// # Thread Safety
//
// A Fitter owns one workspace per Fit call and is safe for sequential
// reuse. For concurrent fits, create one Fitter per goroutine.
package lm
