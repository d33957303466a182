package lm

import (
	"errors"
	"fmt"
)

// Domain errors for fitting operations.
var (
	// ErrShapeMismatch indicates workspace buffers with inconsistent lengths.
	ErrShapeMismatch = errors.New("lm: shape mismatch between problem and buffers")

	// ErrNonFinite indicates the iterate or the trial residual contains
	// NaN or Inf values.
	ErrNonFinite = errors.New("lm: non-finite value (NaN or Inf detected)")

	// ErrLinearSolve indicates the damped linear solver backend failed.
	ErrLinearSolve = errors.New("lm: damped linear solve failed")

	// ErrBadSettings indicates an invalid tolerance or iteration cap.
	ErrBadSettings = errors.New("lm: invalid settings")
)

// FitError wraps an error with the iteration at which the fit aborted.
type FitError struct {
	Iter    int
	SSR     float64
	Wrapped error
}

func (e *FitError) Error() string {
	return fmt.Sprintf("iteration %d (ssr=%.6e): %v", e.Iter, e.SSR, e.Wrapped)
}

func (e *FitError) Unwrap() error {
	return e.Wrapped
}
