package riccati

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/ManifoldFR/aligator/gonumExtensions"
)

// randomTridiagonal builds a well-conditioned symmetric block-tridiagonal
// system with the given block dimensions: random couplings and diagonally
// dominant symmetric pivot blocks.
func randomTridiagonal(rng *rand.Rand, dims []int) (sub, diag, super []*mat.Dense) {
	m := len(dims)
	diag = make([]*mat.Dense, m)
	sub = make([]*mat.Dense, m-1)
	super = make([]*mat.Dense, m-1)
	for i := 0; i < m; i++ {
		diag[i] = mat.NewDense(dims[i], dims[i], nil)
		fillRandom(rng, diag[i], 1)
		gonumExtensions.Symmetrize(diag[i])
		gonumExtensions.AddScaledIdentity(diag[i], 4)
		if i < m-1 {
			super[i] = mat.NewDense(dims[i], dims[i+1], nil)
			fillRandom(rng, super[i], 1)
			sub[i] = mat.NewDense(dims[i+1], dims[i], nil)
			sub[i].Copy(super[i].T())
		}
	}
	return sub, diag, super
}

// multiplyTridiagonal applies the block-tridiagonal operator to the block
// vector x.
func multiplyTridiagonal(sub, diag, super []*mat.Dense, x []*mat.VecDense) []*mat.VecDense {
	m := len(diag)
	out := make([]*mat.VecDense, m)
	for i := 0; i < m; i++ {
		out[i] = mat.NewVecDense(x[i].Len(), nil)
		out[i].MulVec(diag[i], x[i])
		tmp := mat.NewVecDense(x[i].Len(), nil)
		if i > 0 {
			tmp.MulVec(sub[i-1], x[i-1])
			out[i].AddVec(out[i], tmp)
		}
		if i < m-1 {
			tmp.MulVec(super[i], x[i+1])
			out[i].AddVec(out[i], tmp)
		}
	}
	return out
}

func cloneBlocks(blocks []*mat.Dense) []*mat.Dense {
	out := make([]*mat.Dense, len(blocks))
	for i, b := range blocks {
		out[i] = mat.DenseCopyOf(b)
	}
	return out
}

func TestBlockTridiagonalRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	for _, dims := range [][]int{{2}, {1, 2}, {2, 3, 1, 2}, {3, 3, 3, 3, 3}} {
		sub, diag, super := randomTridiagonal(rng, dims)
		want := make([]*mat.VecDense, len(dims))
		for i, d := range dims {
			want[i] = mat.NewVecDense(d, nil)
			fillRandomVec(rng, want[i], 1)
		}
		rhs := multiplyTridiagonal(sub, diag, super, want)

		bt, err := NewBlockTridiagonal(dims)
		require.NoError(t, err)
		require.NoError(t, bt.Solve(sub, cloneBlocks(diag), super, rhs))
		for i := range want {
			require.InDeltaSlice(t, want[i].RawVector().Data, rhs[i].RawVector().Data, 1e-10,
				"dims %v block %d", dims, i)
		}
	}
}

func TestBlockTridiagonalSingleBlock(t *testing.T) {
	diag := []*mat.Dense{mat.NewDense(2, 2, []float64{4, 1, 1, 3})}
	rhs := []*mat.VecDense{mat.NewVecDense(2, []float64{1, 2})}
	bt, err := NewBlockTridiagonal([]int{2})
	require.NoError(t, err)
	require.NoError(t, bt.Solve(nil, diag, nil, rhs))
	require.InDeltaSlice(t, []float64{1.0 / 11, 7.0 / 11}, rhs[0].RawVector().Data, 1e-12)
}

func TestBlockTridiagonalReuse(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	dims := []int{2, 2, 2}
	bt, err := NewBlockTridiagonal(dims)
	require.NoError(t, err)
	for trial := 0; trial < 3; trial++ {
		sub, diag, super := randomTridiagonal(rng, dims)
		want := make([]*mat.VecDense, len(dims))
		for i, d := range dims {
			want[i] = mat.NewVecDense(d, nil)
			fillRandomVec(rng, want[i], 1)
		}
		rhs := multiplyTridiagonal(sub, diag, super, want)
		require.NoError(t, bt.Solve(sub, diag, super, rhs))
		for i := range want {
			require.InDeltaSlice(t, want[i].RawVector().Data, rhs[i].RawVector().Data, 1e-10)
		}
	}
}

func TestBlockTridiagonalSingularPivot(t *testing.T) {
	dims := []int{2, 2}
	sub := []*mat.Dense{mat.NewDense(2, 2, nil)}
	super := []*mat.Dense{mat.NewDense(2, 2, nil)}
	diag := []*mat.Dense{
		gonumExtensions.Eye(2, 2, 0),
		gonumExtensions.Full(2, 2, 1), // rank one
	}
	rhs := []*mat.VecDense{mat.NewVecDense(2, nil), mat.NewVecDense(2, nil)}
	bt, err := NewBlockTridiagonal(dims)
	require.NoError(t, err)
	err = bt.Solve(sub, diag, super, rhs)
	require.ErrorIs(t, err, ErrSingularPivot)
}

func TestNewBlockTridiagonalRejectsBadDims(t *testing.T) {
	_, err := NewBlockTridiagonal(nil)
	require.ErrorIs(t, err, ErrBadBlockDims)
	_, err = NewBlockTridiagonal([]int{2, 0, 1})
	require.ErrorIs(t, err, ErrBadBlockDims)
}

func TestBlockTridiagonalPanicsOnShapeMismatch(t *testing.T) {
	bt, err := NewBlockTridiagonal([]int{2, 2})
	require.NoError(t, err)
	diag := []*mat.Dense{mat.NewDense(2, 2, nil), mat.NewDense(2, 2, nil)}
	rhs := []*mat.VecDense{mat.NewVecDense(2, nil), mat.NewVecDense(2, nil)}
	require.Panics(t, func() {
		bt.Solve(nil, diag, nil, rhs) // missing coupling blocks
	})
	wrong := []*mat.Dense{mat.NewDense(3, 3, nil), mat.NewDense(2, 2, nil)}
	sub := []*mat.Dense{mat.NewDense(2, 2, nil)}
	super := []*mat.Dense{mat.NewDense(2, 2, nil)}
	require.Panics(t, func() {
		bt.Solve(sub, wrong, super, rhs)
	})
}

func TestSolveSymmetricBlockTridiagonal(t *testing.T) {
	rng := rand.New(rand.NewSource(9))
	dims := []int{2, 3}
	sub, diag, super := randomTridiagonal(rng, dims)
	want := []*mat.VecDense{mat.NewVecDense(2, nil), mat.NewVecDense(3, nil)}
	for _, w := range want {
		fillRandomVec(rng, w, 1)
	}
	rhs := multiplyTridiagonal(sub, diag, super, want)
	require.NoError(t, SolveSymmetricBlockTridiagonal(sub, diag, super, rhs))
	for i := range want {
		require.InDeltaSlice(t, want[i].RawVector().Data, rhs[i].RawVector().Data, 1e-10)
	}
}
