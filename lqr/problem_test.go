package lqr

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func uniformKnots(n, nx, nu, nc int) []Knot {
	knots := make([]Knot, n)
	for i := range knots {
		knots[i] = NewKnot(nx, nu, nc)
	}
	return knots
}

func TestNewProblemValidates(t *testing.T) {
	_, err := NewProblem(nil, mat.NewDense(1, 1, nil), mat.NewVecDense(1, nil))
	require.ErrorIs(t, err, ErrNoKnots)

	// Broken state-dimension chain.
	knots := []Knot{NewKnotRect(2, 3, 1, 0), NewKnot(2, 1, 0)}
	_, err = NewProblem(knots, mat.NewDense(2, 2, nil), mat.NewVecDense(2, nil))
	require.ErrorIs(t, err, ErrDimensionMismatch)

	// Initial condition must match knot 0.
	knots = uniformKnots(3, 2, 1, 0)
	_, err = NewProblem(knots, mat.NewDense(2, 3, nil), mat.NewVecDense(2, nil))
	require.ErrorIs(t, err, ErrDimensionMismatch)

	_, err = NewProblem(knots, mat.NewDense(2, 2, nil), mat.NewVecDense(3, nil))
	require.ErrorIs(t, err, ErrDimensionMismatch)

	_, err = NewProblem(knots, nil, nil)
	require.ErrorIs(t, err, ErrDimensionMismatch)

	p, err := NewProblem(knots, mat.NewDense(2, 2, nil), mat.NewVecDense(2, nil))
	require.NoError(t, err)
	require.Equal(t, 3, p.NumKnots())
	require.Equal(t, 2, p.Horizon())
	require.Equal(t, 2, p.Nc0())
	require.False(t, p.IsParameterized())
}

func TestNewProblemWithInitialState(t *testing.T) {
	knots := uniformKnots(2, 2, 1, 0)
	x0 := mat.NewVecDense(2, []float64{1, -0.5})
	p, err := NewProblemWithInitialState(knots, x0)
	require.NoError(t, err)

	G0, g0 := p.InitialCondition()
	require.True(t, mat.Equal(G0, mat.NewDense(2, 2, []float64{-1, 0, 0, -1})))
	require.True(t, mat.Equal(g0, x0))

	_, err = NewProblemWithInitialState(knots, mat.NewVecDense(3, nil))
	require.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestAllocateTrajectoryShapes(t *testing.T) {
	knots := []Knot{NewKnot(2, 1, 1), NewKnotRect(2, 3, 1, 0), NewKnot(3, 0, 0)}
	p, err := NewProblemWithInitialState(knots, mat.NewVecDense(2, nil))
	require.NoError(t, err)

	xs, us, vs, lbdas := p.AllocateTrajectory()
	require.Len(t, xs, 3)

	require.Equal(t, 2, xs[0].Len())
	require.Equal(t, 2, xs[1].Len())
	require.Equal(t, 3, xs[2].Len())

	require.Equal(t, 1, us[0].Len())
	require.Equal(t, 1, us[1].Len())
	require.Nil(t, us[2])

	require.Equal(t, 1, vs[0].Len())
	require.Nil(t, vs[1])
	require.Nil(t, vs[2])

	require.Equal(t, 2, lbdas[0].Len()) // nc0
	require.Equal(t, 2, lbdas[1].Len())
	require.Equal(t, 3, lbdas[2].Len())
}

func TestKKTErrorOnHandSolvedProblem(t *testing.T) {
	// Single knot with quadratic cost ½x² pinned at x0: the optimum is
	// x = x0 with initial multiplier λ0 solving Qx + G0ᵀλ0 = 0, λ0 = x0.
	k := NewKnot(1, 0, 0)
	k.Q.Set(0, 0, 1)
	x0 := mat.NewVecDense(1, []float64{0.75})
	p, err := NewProblemWithInitialState([]Knot{k}, x0)
	require.NoError(t, err)

	xs, us, vs, lbdas := p.AllocateTrajectory()
	xs[0].SetVec(0, 0.75)
	lbdas[0].SetVec(0, 0.75)
	require.InDelta(t, 0, KKTError(p, xs, us, vs, lbdas, 0, 0), 1e-14)

	lbdas[0].SetVec(0, 0.5)
	require.InDelta(t, 0.25, KKTError(p, xs, us, vs, lbdas, 0, 0), 1e-14)
}
