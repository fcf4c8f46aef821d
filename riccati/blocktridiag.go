package riccati

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// BlockTridiagonal solves block-tridiagonal linear systems
//
//	diag[0]   super[0]
//	sub[0]    diag[1]   super[1]
//	          sub[1]    diag[2]  ...
//
// by block Gaussian elimination: an upward sweep folds each trailing block
// row into its predecessor through a Schur complement, then a downward
// substitution recovers the solution. Block sizes may differ from row to row.
// All factorizations and scratch blocks are owned by the solver and sized at
// construction; repeated solves rewrite them in place.
type BlockTridiagonal struct {
	dims []int
	lus  []mat.LU
	xfer []*mat.Dense    // xfer[i] = diag[i]⁻¹·sub[i-1], defined for i >= 1
	red  []*mat.Dense    // Schur update on block i, defined for i < len-1
	redv []*mat.VecDense // right-hand-side update on block i
	sol  []*mat.VecDense
}

// NewBlockTridiagonal returns a solver for systems whose i-th block row has
// dimension dims[i].
func NewBlockTridiagonal(dims []int) (*BlockTridiagonal, error) {
	if len(dims) == 0 {
		return nil, fmt.Errorf("%w: no blocks", ErrBadBlockDims)
	}
	for i, d := range dims {
		if d < 1 {
			return nil, fmt.Errorf("%w: block %d has dimension %d", ErrBadBlockDims, i, d)
		}
	}
	m := len(dims)
	bt := &BlockTridiagonal{
		dims: append([]int(nil), dims...),
		lus:  make([]mat.LU, m),
		xfer: make([]*mat.Dense, m),
		red:  make([]*mat.Dense, m),
		redv: make([]*mat.VecDense, m),
		sol:  make([]*mat.VecDense, m),
	}
	for i := 0; i < m; i++ {
		bt.sol[i] = mat.NewVecDense(dims[i], nil)
		if i >= 1 {
			bt.xfer[i] = mat.NewDense(dims[i], dims[i-1], nil)
		}
		if i < m-1 {
			bt.red[i] = mat.NewDense(dims[i], dims[i], nil)
			bt.redv[i] = mat.NewVecDense(dims[i], nil)
		}
	}
	return bt, nil
}

// Solve solves the system in place: diag and rhs are destroyed and rhs holds
// the solution blocks on return; sub and super are left untouched. The block
// shapes must match the dims the solver was built with, or Solve panics with
// mat.ErrShape. A numerically singular pivot block aborts the elimination
// with a wrapped ErrSingularPivot; diag and rhs are then partially
// overwritten and the caller must reassemble them before retrying.
func (bt *BlockTridiagonal) Solve(sub, diag, super []*mat.Dense, rhs []*mat.VecDense) error {
	m := len(bt.dims)
	if len(diag) != m || len(rhs) != m || len(sub) != m-1 || len(super) != m-1 {
		panic(mat.ErrShape)
	}
	for i := 0; i < m; i++ {
		if r, c := diag[i].Dims(); r != bt.dims[i] || c != bt.dims[i] || rhs[i].Len() != bt.dims[i] {
			panic(mat.ErrShape)
		}
	}

	// Upward sweep: after processing row i, that row reads
	// sub[i-1]·x[i-1] + diag[i]·x[i] = rhs[i] with rhs[i] already reduced.
	for i := m - 1; i >= 1; i-- {
		bt.lus[i].Factorize(diag[i])
		if err := bt.lus[i].SolveTo(bt.xfer[i], false, sub[i-1]); err != nil {
			return fmt.Errorf("%w in block %d: %v", ErrSingularPivot, i, err)
		}
		if err := bt.lus[i].SolveVecTo(bt.sol[i], false, rhs[i]); err != nil {
			return fmt.Errorf("%w in block %d: %v", ErrSingularPivot, i, err)
		}
		rhs[i].CopyVec(bt.sol[i])
		bt.red[i-1].Mul(super[i-1], bt.xfer[i])
		diag[i-1].Sub(diag[i-1], bt.red[i-1])
		bt.redv[i-1].MulVec(super[i-1], rhs[i])
		rhs[i-1].SubVec(rhs[i-1], bt.redv[i-1])
	}

	bt.lus[0].Factorize(diag[0])
	if err := bt.lus[0].SolveVecTo(bt.sol[0], false, rhs[0]); err != nil {
		return fmt.Errorf("%w in block 0: %v", ErrSingularPivot, err)
	}
	rhs[0].CopyVec(bt.sol[0])

	// Downward substitution: x[i] = diag[i]⁻¹·rhs[i] − xfer[i]·x[i-1].
	for i := 1; i < m; i++ {
		bt.sol[i].MulVec(bt.xfer[i], rhs[i-1])
		rhs[i].SubVec(rhs[i], bt.sol[i])
	}
	return nil
}

// SolveSymmetricBlockTridiagonal solves one symmetric block-tridiagonal
// system (sub[i] = super[i]ᵀ), allocating a solver on the fly. Callers on a
// hot path should construct a BlockTridiagonal once and reuse it.
func SolveSymmetricBlockTridiagonal(sub, diag, super []*mat.Dense, rhs []*mat.VecDense) error {
	dims := make([]int, len(diag))
	for i, d := range diag {
		dims[i], _ = d.Dims()
	}
	bt, err := NewBlockTridiagonal(dims)
	if err != nil {
		return err
	}
	return bt.Solve(sub, diag, super, rhs)
}
