package lm_test

import (
	"bytes"
	"context"
	"errors"
	"math"
	"testing"

	"github.com/sereven/lmfit/internal/linsolve"
	"github.com/sereven/lmfit/internal/lm"
	"github.com/sereven/lmfit/internal/problems"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func cholesky(t *testing.T) lm.DampedSolver {
	t.Helper()
	s, err := linsolve.New("cholesky")
	require.NoError(t, err)
	return s
}

func TestFitLinearRecovery(t *testing.T) {
	prob := problems.NewLinear([]float64{3, 5})
	fitter := lm.New(prob, cholesky(t), lm.DefaultSettings())

	res, err := fitter.Fit(context.Background(), prob.Start())
	require.NoError(t, err)

	assert.True(t, res.Converged)
	assert.InDelta(t, 3, res.X[0], 1e-6)
	assert.InDelta(t, 5, res.X[1], 1e-6)
	assert.Less(t, res.SSR, 1e-12)
	assert.LessOrEqual(t, res.Iter, 10)
	assert.Equal(t, "lm-trust-region/cholesky", res.Method)
}

func TestFitLinearLargeTrustRegion(t *testing.T) {
	// With a huge initial trust radius the damping is negligible and the
	// first step is essentially the exact Gauss-Newton step, so the step
	// criterion fires on the second iteration.
	prob := problems.NewLinear([]float64{3, 5})
	settings := lm.Settings{XTol: 1e-6, InitDelta: 1e7, StoreTrace: true}
	fitter := lm.New(prob, cholesky(t), settings)

	res, err := fitter.Fit(context.Background(), prob.Start())
	require.NoError(t, err)

	assert.True(t, res.XConverged)
	assert.LessOrEqual(t, res.Iter, 2)
	assert.GreaterOrEqual(t, res.FCalls, 2)
	assert.InDelta(t, 3, res.X[0], 1e-5)
	assert.InDelta(t, 5, res.X[1], 1e-5)
}

func TestFitExpFitRecovery(t *testing.T) {
	prob := problems.NewExpFit()
	fitter := lm.New(prob, cholesky(t), lm.DefaultSettings())

	res, err := fitter.Fit(context.Background(), prob.Start())
	require.NoError(t, err)

	require.True(t, res.Converged)
	truth := prob.Truth()
	for i := range truth {
		assert.InDelta(t, truth[i], res.X[i], 1e-4)
	}
	assert.Less(t, res.SSR, 1e-10)
	assert.Greater(t, res.FCalls, 0)
	assert.Greater(t, res.GCalls, 0)
	assert.Greater(t, res.MulCalls, 0)
}

func TestFitAcceptedSSRMonotonic(t *testing.T) {
	prob := problems.NewExpFit()
	settings := lm.DefaultSettings()
	settings.StoreTrace = true
	fitter := lm.New(prob, cholesky(t), settings)

	res, err := fitter.Fit(context.Background(), prob.Start())
	require.NoError(t, err)
	require.NotEmpty(t, res.Trace)

	for i := 1; i < len(res.Trace); i++ {
		assert.LessOrEqual(t, res.Trace[i].SSR, res.Trace[i-1].SSR,
			"ssr increased at iteration %d", res.Trace[i].Iter)
	}
}

func TestFitTrustRadiusWithinBounds(t *testing.T) {
	prob := problems.NewRosenbrock()
	settings := lm.DefaultSettings()
	settings.StoreTrace = true
	fitter := lm.New(prob, cholesky(t), settings)

	res, err := fitter.Fit(context.Background(), prob.Start())
	require.NoError(t, err)

	for _, rec := range res.Trace {
		delta := rec.Aux["delta"]
		assert.GreaterOrEqual(t, delta, lm.MinDelta)
		assert.LessOrEqual(t, delta, lm.MaxDelta)
	}
}

func TestFitRejectionRevertsIterate(t *testing.T) {
	// From the standard Rosenbrock start an essentially undamped
	// Gauss-Newton step overshoots badly, so the first iteration must be
	// rejected, the iterate reverted and the trust radius halved.
	prob := problems.NewRosenbrock()
	settings := lm.Settings{InitDelta: 1e12, Iterations: 1, StoreTrace: true}
	fitter := lm.New(prob, cholesky(t), settings)

	x0 := prob.Start()
	res, err := fitter.Fit(context.Background(), x0)
	require.NoError(t, err)
	require.Len(t, res.Trace, 1)

	rec := res.Trace[0]
	assert.Equal(t, 0.0, rec.Aux["accepted"])
	assert.Less(t, rec.Aux["rho"], lm.MinStepQuality)
	assert.InDelta(t, 1e12/2, rec.Aux["delta"], 1)

	assert.InDelta(t, x0[0], res.X[0], 1e-9)
	assert.InDelta(t, x0[1], res.X[1], 1e-9)
	assert.InDelta(t, 24.2, res.SSR, 1e-9)
}

func TestFitRosenbrock(t *testing.T) {
	prob := problems.NewRosenbrock()
	fitter := lm.New(prob, cholesky(t), lm.DefaultSettings())

	res, err := fitter.Fit(context.Background(), prob.Start())
	require.NoError(t, err)

	assert.True(t, res.Converged)
	assert.InDelta(t, 1, res.X[0], 1e-5)
	assert.InDelta(t, 1, res.X[1], 1e-5)
}

func TestFitIterationCap(t *testing.T) {
	prob := problems.NewRosenbrock()
	settings := lm.Settings{XTol: 1e-15, FTol: 1e-15, GrTol: 1e-15, Iterations: 3}
	fitter := lm.New(prob, cholesky(t), settings)

	res, err := fitter.Fit(context.Background(), prob.Start())
	require.NoError(t, err)

	assert.False(t, res.Converged)
	assert.Equal(t, 3, res.Iter)
}

// flatProblem ignores its second parameter, so the corresponding Jacobian
// column is identically zero and only the diagonal clamp keeps the damped
// system nonsingular.
type flatProblem struct{}

func (flatProblem) Dim() int  { return 2 }
func (flatProblem) Size() int { return 2 }

func (flatProblem) Residuals(x, dst []float64) {
	dst[0] = x[0] - 1
	dst[1] = 2 * (x[0] - 1)
}

func (flatProblem) Jacobian(x []float64, dst *mat.Dense) {
	dst.Set(0, 0, 1)
	dst.Set(0, 1, 0)
	dst.Set(1, 0, 2)
	dst.Set(1, 1, 0)
}

func TestFitZeroJacobianColumn(t *testing.T) {
	fitter := lm.New(flatProblem{}, cholesky(t), lm.DefaultSettings())

	res, err := fitter.Fit(context.Background(), []float64{5, 7})
	require.NoError(t, err)

	assert.True(t, res.Converged)
	assert.InDelta(t, 1, res.X[0], 1e-6)
	assert.InDelta(t, 7, res.X[1], 1e-12)
}

type nanProblem struct{}

func (nanProblem) Dim() int  { return 1 }
func (nanProblem) Size() int { return 1 }

func (nanProblem) Residuals(x, dst []float64) {
	dst[0] = math.NaN()
}

func (nanProblem) Jacobian(x []float64, dst *mat.Dense) {
	dst.Set(0, 0, 1)
}

func TestFitNonFiniteAborts(t *testing.T) {
	fitter := lm.New(nanProblem{}, cholesky(t), lm.DefaultSettings())

	_, err := fitter.Fit(context.Background(), []float64{0})
	require.Error(t, err)
	assert.True(t, errors.Is(err, lm.ErrNonFinite))

	var fitErr *lm.FitError
	require.True(t, errors.As(err, &fitErr))
	assert.Greater(t, fitErr.Iter, 0)
}

// lateNaNProblem is finite at the initial point and NaN everywhere after,
// so the iterate itself never goes non-finite.
type lateNaNProblem struct {
	calls int
}

func (p *lateNaNProblem) Dim() int  { return 1 }
func (p *lateNaNProblem) Size() int { return 1 }

func (p *lateNaNProblem) Residuals(x, dst []float64) {
	p.calls++
	if p.calls > 1 {
		dst[0] = math.NaN()
		return
	}
	dst[0] = x[0] - 3
}

func (p *lateNaNProblem) Jacobian(x []float64, dst *mat.Dense) {
	dst.Set(0, 0, 1)
}

func TestFitLateNaNResidualAborts(t *testing.T) {
	fitter := lm.New(&lateNaNProblem{}, cholesky(t), lm.DefaultSettings())

	_, err := fitter.Fit(context.Background(), []float64{0})
	require.Error(t, err)
	assert.True(t, errors.Is(err, lm.ErrNonFinite))

	var fitErr *lm.FitError
	require.True(t, errors.As(err, &fitErr))
	assert.Equal(t, 1, fitErr.Iter)
}

func TestFitBadSettings(t *testing.T) {
	prob := problems.NewLinear([]float64{1})

	tests := []struct {
		name     string
		settings lm.Settings
	}{
		{"negative xtol", lm.Settings{XTol: -1}},
		{"negative ftol", lm.Settings{FTol: -1}},
		{"negative grtol", lm.Settings{GrTol: -1}},
		{"negative iterations", lm.Settings{Iterations: -5}},
		{"delta too small", lm.Settings{InitDelta: 1e-20}},
		{"delta too large", lm.Settings{InitDelta: 1e20}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fitter := lm.New(prob, cholesky(t), tt.settings)
			_, err := fitter.Fit(context.Background(), prob.Start())
			require.Error(t, err)
			assert.True(t, errors.Is(err, lm.ErrBadSettings))
		})
	}
}

func TestFitShapeMismatch(t *testing.T) {
	prob := problems.NewLinear([]float64{3, 5})
	fitter := lm.New(prob, cholesky(t), lm.DefaultSettings())

	_, err := fitter.Fit(context.Background(), []float64{0})
	require.Error(t, err)
	assert.True(t, errors.Is(err, lm.ErrShapeMismatch))
}

func TestFitContextCancel(t *testing.T) {
	prob := problems.NewExpFit()
	fitter := lm.New(prob, cholesky(t), lm.DefaultSettings())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := fitter.Fit(ctx, prob.Start())
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestFitZeroSettingsUseDefaults(t *testing.T) {
	prob := problems.NewLinear([]float64{3, 5})
	fitter := lm.New(prob, cholesky(t), lm.Settings{})

	res, err := fitter.Fit(context.Background(), prob.Start())
	require.NoError(t, err)

	assert.True(t, res.Converged)
	assert.Equal(t, lm.DefaultXTol, res.XTol)
	assert.Equal(t, lm.DefaultFTol, res.FTol)
	assert.Equal(t, lm.DefaultGrTol, res.GrTol)
}

func TestFitShowTrace(t *testing.T) {
	prob := problems.NewLinear([]float64{3, 5})
	var buf bytes.Buffer
	settings := lm.DefaultSettings()
	settings.ShowTrace = true
	settings.TraceOut = &buf
	fitter := lm.New(prob, cholesky(t), settings)

	_, err := fitter.Fit(context.Background(), prob.Start())
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "iter")
	assert.Contains(t, buf.String(), "ssr")
}

// spySolver records the damping diagonals handed to the backend.
type spySolver struct {
	lm.DampedSolver
	diags [][]float64
}

func (s *spySolver) Solve(j *mat.Dense, f, d, dx []float64) (int, error) {
	cp := make([]float64, len(d))
	copy(cp, d)
	s.diags = append(s.diags, cp)
	return s.DampedSolver.Solve(j, f, d, dx)
}

func TestFitDampingAlwaysPositive(t *testing.T) {
	prob := problems.NewExpFit()
	spy := &spySolver{DampedSolver: cholesky(t)}
	fitter := lm.New(prob, spy, lm.DefaultSettings())

	_, err := fitter.Fit(context.Background(), prob.Start())
	require.NoError(t, err)
	require.NotEmpty(t, spy.diags)

	for _, d := range spy.diags {
		for _, v := range d {
			assert.Greater(t, v, 0.0)
			assert.False(t, math.IsInf(v, 0))
		}
	}
}
