package lm

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// workspace holds every buffer the iteration mutates in place. It is
// allocated once per Fit call and never reallocated; x is the only buffer
// whose final value escapes, via the Result.
type workspace struct {
	x        []float64 // current parameters, length n
	fcur     []float64 // current residuals, length m
	ftrial   []float64 // trial residuals, length m
	fpredict []float64 // linearized prediction, length m
	dx       []float64 // proposed step, length n
	dtd      []float64 // damping diagonal, then gradient, length n

	jac      *mat.Dense
	jacStale bool

	delta          float64
	decreaseFactor float64
	ssr            float64
	maxAbsGr       float64

	iter     int
	fCalls   int
	gCalls   int
	mulCalls int

	xConverged  bool
	fConverged  bool
	grConverged bool
	converged   bool
}

// newWorkspace allocates zeroed buffers for an n-parameter, m-residual
// problem and validates the initial guess against them.
func newWorkspace(x0 []float64, n, m int) (*workspace, error) {
	if n <= 0 || m <= 0 {
		return nil, fmt.Errorf("%w: dim=%d size=%d", ErrShapeMismatch, n, m)
	}
	if len(x0) != n {
		return nil, fmt.Errorf("%w: len(x0)=%d, problem dim=%d", ErrShapeMismatch, len(x0), n)
	}

	w := &workspace{
		x:              make([]float64, n),
		fcur:           make([]float64, m),
		ftrial:         make([]float64, m),
		fpredict:       make([]float64, m),
		dx:             make([]float64, n),
		dtd:            make([]float64, n),
		jac:            mat.NewDense(m, n, nil),
		jacStale:       true,
		decreaseFactor: initialDecrease,
	}
	copy(w.x, x0)

	if err := w.checkShapes(); err != nil {
		return nil, err
	}
	return w, nil
}

// checkShapes verifies the buffer length invariants. The constructor derives
// all shapes from the same problem, so a failure here means memory
// corruption or a caller bypassing newWorkspace.
func (w *workspace) checkShapes() error {
	n := len(w.x)
	if len(w.dx) != n || len(w.dtd) != n {
		return fmt.Errorf("%w: parameter buffers %d/%d/%d", ErrShapeMismatch, n, len(w.dx), len(w.dtd))
	}
	m := len(w.fcur)
	if len(w.ftrial) != m || len(w.fpredict) != m {
		return fmt.Errorf("%w: residual buffers %d/%d/%d", ErrShapeMismatch, m, len(w.ftrial), len(w.fpredict))
	}
	r, c := w.jac.Dims()
	if r != m || c != n {
		return fmt.Errorf("%w: jacobian %dx%d, want %dx%d", ErrShapeMismatch, r, c, m, n)
	}
	return nil
}
