package lqr

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/ManifoldFR/aligator/gonumExtensions"
)

// IntegratorChain returns the continuous-time dynamics (A, B) of a chain of
// n integrators with the given stage gain, the input entering the first
// stage:
//
//	x₁' = gain·u, x₂' = gain·x₁, ..., xₙ' = gain·xₙ₋₁
func IntegratorChain(n int, gain float64) (A, B *mat.Dense) {
	if n < 1 {
		panic(mat.ErrShape)
	}
	A = gonumExtensions.Eye(n, n, -1)
	A.Scale(gain, A)
	B = mat.NewDense(n, 1, nil)
	B.Set(0, 0, gain)
	return A, B
}

// DiscretizeZOH converts the continuous dynamics x'(t) = A x(t) + B u(t)
// into the zero-order-hold discretization x⁺ = Ad x + Bd u for the sampling
// period ts, through a single matrix exponential of the augmented system
// [[A, B], [0, 0]] scaled by ts.
func DiscretizeZOH(A, B *mat.Dense, ts float64) (Ad, Bd *mat.Dense) {
	n, cols := A.Dims()
	rowsB, m := B.Dims()
	if n != cols || rowsB != n {
		panic(mat.ErrShape)
	}
	aug := mat.NewDense(n+m, n+m, nil)
	aug.Slice(0, n, 0, n).(*mat.Dense).Scale(ts, A)
	aug.Slice(0, n, n, n+m).(*mat.Dense).Scale(ts, B)
	var exp mat.Dense
	exp.Exp(aug)
	Ad = mat.NewDense(n, n, nil)
	Ad.Copy(exp.Slice(0, n, 0, n))
	Bd = mat.NewDense(n, m, nil)
	Bd.Copy(exp.Slice(0, n, n, n+m))
	return Ad, Bd
}

// NewLTIProblem builds the linear-quadratic problem of steering the discrete
// time-invariant system x⁺ = Ad x + Bd u + c from the initial state x0 over
// the given horizon, with stage weights (Q, R), terminal weight QN and no
// stage constraints. The drift c may be nil. The resulting problem has
// horizon+1 knots, the terminal knot carrying no controls.
func NewLTIProblem(Ad, Bd *mat.Dense, c *mat.VecDense, Q, R, QN *mat.Dense, x0 *mat.VecDense, horizon int) (*Problem, error) {
	if horizon < 0 {
		return nil, fmt.Errorf("%w: horizon %d", ErrNoKnots, horizon)
	}
	nx, cols := Ad.Dims()
	rowsB, nu := Bd.Dims()
	if nx != cols || rowsB != nx {
		return nil, fmt.Errorf("%w: dynamics must be %dx%d and %dx nu", ErrDimensionMismatch, nx, nx, nx)
	}
	if c != nil && c.Len() != nx {
		return nil, fmt.Errorf("%w: drift has length %d, want %d", ErrDimensionMismatch, c.Len(), nx)
	}
	for _, w := range []struct {
		name string
		m    *mat.Dense
		dim  int
	}{{"Q", Q, nx}, {"R", R, nu}, {"QN", QN, nx}} {
		r, cw := w.m.Dims()
		if r != w.dim || cw != w.dim {
			return nil, fmt.Errorf("%w: weight %s is %dx%d, want %dx%d", ErrDimensionMismatch, w.name, r, cw, w.dim, w.dim)
		}
	}
	knots := make([]Knot, horizon+1)
	for t := 0; t < horizon; t++ {
		k := NewKnot(nx, nu, 0)
		k.Q.Copy(Q)
		k.R.Copy(R)
		k.A.Copy(Ad)
		k.B.Copy(Bd)
		if c != nil {
			k.F.CopyVec(c)
		}
		knots[t] = k
	}
	terminal := NewKnot(nx, 0, 0)
	terminal.Q.Copy(QN)
	knots[horizon] = terminal
	return NewProblemWithInitialState(knots, x0)
}
