package lqr

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestPartitionTiles(t *testing.T) {
	for n := 1; n <= 12; n++ {
		for legs := 1; legs <= n; legs++ {
			splits, err := Partition(n, legs)
			require.NoError(t, err)
			require.Len(t, splits, legs+1)
			require.Equal(t, 0, splits[0])
			require.Equal(t, n, splits[legs])
			for i := 0; i < legs; i++ {
				require.Less(t, splits[i], splits[i+1],
					"empty leg %d for n=%d legs=%d", i, n, legs)
			}
		}
	}
}

func TestPartitionRejectsBadLegCounts(t *testing.T) {
	_, err := Partition(5, 0)
	require.ErrorIs(t, err, ErrBadLegCount)

	_, err = Partition(5, 6)
	require.ErrorIs(t, err, ErrBadLegCount)

	_, err = Partition(0, 1)
	require.ErrorIs(t, err, ErrNoKnots)
}

func TestAugmentLegBoundaries(t *testing.T) {
	knots := make([]Knot, 5)
	for i := range knots {
		knots[i] = NewKnot(2, 1, 0)
		knots[i].A.Set(0, 1, float64(i)+0.5)
		knots[i].B.Set(1, 0, 1)
		knots[i].F.SetVec(0, float64(i))
	}
	splits, err := Partition(len(knots), 2)
	require.NoError(t, err)
	require.Equal(t, []int{0, 2, 5}, splits)

	out := AugmentLegBoundaries(knots, splits)

	// Only the final knot of the first leg is parameterized.
	for i := range out {
		if i == 1 {
			continue
		}
		require.Zero(t, out[i].Nth, "knot %d", i)
		require.Nil(t, out[i].Gx, "knot %d", i)
		// Unchanged knots share their blocks with the input.
		require.Same(t, knots[i].Q, out[i].Q, "knot %d", i)
	}

	b := out[1]
	require.Equal(t, b.Nx2, b.Nth)
	require.NoError(t, b.Validate())
	require.True(t, mat.Equal(b.Gx, b.A.T()))
	require.True(t, mat.Equal(b.Gu, b.B.T()))
	require.Same(t, b.F, b.Gamma.(*mat.VecDense))
	require.Nil(t, b.Gth)

	// The input sequence is untouched.
	require.Zero(t, knots[1].Nth)
	require.Nil(t, knots[1].Gx)
}
