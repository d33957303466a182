package linsolve

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// QR solves the damped step as a least-squares problem on the augmented
// system
//
//	| J        |       | f |
//	| diag(√d) | dx =  | 0 |
//
// which is algebraically identical to the normal equations but avoids
// squaring the condition number of J.
type QR struct {
	aug *mat.Dense
	rhs *mat.VecDense
	qr  mat.QR
}

func NewQR() *QR {
	return &QR{}
}

func (q *QR) Name() string { return "qr" }

func (q *QR) Solve(j *mat.Dense, f, d, dx []float64) (int, error) {
	if err := checkDims(j, f, d, dx); err != nil {
		return 0, err
	}
	m, n := j.Dims()

	if q.aug == nil {
		q.aug = mat.NewDense(m+n, n, nil)
		q.rhs = mat.NewVecDense(m+n, nil)
	} else if r, c := q.aug.Dims(); r != m+n || c != n {
		q.aug = mat.NewDense(m+n, n, nil)
		q.rhs = mat.NewVecDense(m+n, nil)
	}

	q.aug.Slice(0, m, 0, n).(*mat.Dense).Copy(j)
	for i := 0; i < n; i++ {
		for k := 0; k < n; k++ {
			v := 0.0
			if i == k {
				v = math.Sqrt(d[i])
			}
			q.aug.Set(m+i, k, v)
		}
	}
	for i := 0; i < m; i++ {
		q.rhs.SetVec(i, f[i])
	}
	for i := 0; i < n; i++ {
		q.rhs.SetVec(m+i, 0)
	}

	q.qr.Factorize(q.aug)

	var sol mat.VecDense
	if err := q.qr.SolveVecTo(&sol, false, q.rhs); err != nil {
		return 0, ErrIllConditioned
	}
	for i := 0; i < n; i++ {
		dx[i] = sol.AtVec(i)
	}
	return 1, nil
}
