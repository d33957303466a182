package lm

import (
	"fmt"
	"io"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Problem supplies residuals and their Jacobian for a least-squares fit.
// Residuals fills dst (length Size) with f(x); Jacobian fills dst (Size rows,
// Dim columns) with the partial derivatives of f at x.
type Problem interface {
	Dim() int
	Size() int
	Residuals(x, dst []float64)
	Jacobian(x []float64, dst *mat.Dense)
}

// DampedSolver solves the Tikhonov-regularized normal equations
//
//	(JᵀJ + diag(d)) dx = Jᵀf
//
// writing the step into dx and reporting the number of inner iterations
// (matrix-vector products or factorization passes) for bookkeeping.
// Backends must return an error, not a garbage step, when the system is
// too ill-conditioned to solve.
type DampedSolver interface {
	Name() string
	Solve(j *mat.Dense, f, d, dx []float64) (iters int, err error)
}

// Settings controls tolerances, the iteration cap and trace output.
type Settings struct {
	XTol       float64 // step-size tolerance
	FTol       float64 // relative residual-decrease tolerance
	GrTol      float64 // gradient infinity-norm tolerance
	Iterations int     // outer iteration cap
	InitDelta  float64 // initial trust-region radius
	StoreTrace bool
	ShowTrace  bool
	ShowEvery  int       // trace-emission stride, minimum 1
	TraceOut   io.Writer // destination for ShowTrace, defaults to os.Stdout
}

// Default tolerances and limits.
const (
	DefaultXTol       = 1e-8
	DefaultFTol       = 1e-8
	DefaultGrTol      = 1e-8
	DefaultIterations = 1000
	DefaultInitDelta  = 10.0
)

func DefaultSettings() Settings {
	return Settings{
		XTol:       DefaultXTol,
		FTol:       DefaultFTol,
		GrTol:      DefaultGrTol,
		Iterations: DefaultIterations,
		InitDelta:  DefaultInitDelta,
		ShowEvery:  1,
	}
}

// Record is one trace entry captured per outer iteration. Aux carries
// per-iteration extras (trust radius, gain ratio, acceptance) without
// widening the record.
type Record struct {
	Iter     int
	SSR      float64
	MaxAbsGr float64
	Aux      map[string]float64
}

type Trace []Record

// Result is the outcome of one Fit call.
type Result struct {
	Method string
	X      []float64
	SSR    float64
	Iter   int

	Converged   bool
	XConverged  bool
	FConverged  bool
	GrConverged bool
	XTol        float64
	FTol        float64
	GrTol       float64

	Trace Trace

	FCalls   int // residual evaluations
	GCalls   int // Jacobian evaluations
	MulCalls int // matrix-vector products
}

func (r *Result) String() string {
	return fmt.Sprintf("%s: ssr=%.6e iter=%d converged=%v (x=%v f=%v gr=%v) f_calls=%d g_calls=%d",
		r.Method, r.SSR, r.Iter, r.Converged, r.XConverged, r.FConverged, r.GrConverged, r.FCalls, r.GCalls)
}

func isFinite(v []float64) bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}
