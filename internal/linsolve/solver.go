// Package linsolve provides damped linear solver backends for the
// trust-region iteration: each solves the Tikhonov-regularized normal
// equations (JᵀJ + diag(d)) dx = Jᵀf for one outer step.
package linsolve

import (
	"errors"
	"fmt"

	"github.com/sereven/lmfit/internal/lm"
	"gonum.org/v1/gonum/mat"
)

// ErrIllConditioned indicates the damped system could not be factorized.
var ErrIllConditioned = errors.New("linsolve: damped system is ill-conditioned")

// New returns the solver backend registered under name.
func New(name string) (lm.DampedSolver, error) {
	switch name {
	case "cholesky":
		return NewCholesky(), nil
	case "qr":
		return NewQR(), nil
	default:
		return nil, fmt.Errorf("linsolve: unknown solver: %s", name)
	}
}

// List returns the registered backend names.
func List() []string {
	return []string{"cholesky", "qr"}
}

func checkDims(j *mat.Dense, f, d, dx []float64) error {
	m, n := j.Dims()
	if len(f) != m || len(d) != n || len(dx) != n {
		return fmt.Errorf("linsolve: dimension mismatch: jacobian %dx%d, f=%d d=%d dx=%d",
			m, n, len(f), len(d), len(dx))
	}
	return nil
}
