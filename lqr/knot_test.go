package lqr

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestNewKnotDefaults(t *testing.T) {
	k := NewKnot(3, 2, 1)
	require.NoError(t, k.Validate())
	require.Equal(t, 3, k.Nx2)

	// E defaults to −I, the explicit-dynamics convention.
	minusI := mat.NewDense(3, 3, []float64{-1, 0, 0, 0, -1, 0, 0, 0, -1})
	require.True(t, mat.Equal(k.E, minusI))

	// Zero-dimension blocks stay nil.
	terminal := NewKnot(2, 0, 0)
	require.NoError(t, terminal.Validate())
	require.Nil(t, terminal.B)
	require.Nil(t, terminal.R)
	require.Nil(t, terminal.C)
}

func TestNewKnotRect(t *testing.T) {
	k := NewKnotRect(2, 4, 1, 0)
	require.NoError(t, k.Validate())
	r, c := k.A.Dims()
	require.Equal(t, 4, r)
	require.Equal(t, 2, c)
	r, c = k.E.Dims()
	require.Equal(t, 4, r)
	require.Equal(t, 4, c)
	require.Equal(t, 4, k.F.Len())
}

func TestKnotValidateRejectsBadBlocks(t *testing.T) {
	k := NewKnot(2, 1, 0)
	k.Q = mat.NewDense(3, 3, nil)
	require.ErrorIs(t, k.Validate(), ErrDimensionMismatch)

	k = NewKnot(2, 1, 0)
	k.R = nil
	require.ErrorIs(t, k.Validate(), ErrDimensionMismatch)

	k = NewKnot(2, 1, 0)
	k.A.Set(0, 0, math.NaN())
	require.ErrorIs(t, k.Validate(), ErrNonFinite)

	k = NewKnot(2, 0, 0)
	k.B = mat.NewDense(2, 1, nil)
	require.ErrorIs(t, k.Validate(), ErrDimensionMismatch)
}
