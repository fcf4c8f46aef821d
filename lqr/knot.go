package lqr

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/ManifoldFR/aligator/gonumExtensions"
)

// Knot holds the quadratic cost, implicit affine dynamics, affine constraint
// and optional parameterization of a single stage.
//
// Blocks whose governing dimension is zero are nil. The parameterization
// group (Gx, Gu, Gth, Gamma) uses matrix interfaces so the solvers can attach
// transposed views of the dynamics blocks without copying; Gth and Gamma may
// be nil even when Nth > 0, meaning zero.
type Knot struct {
	Nx  int // state dimension
	Nu  int // control dimension
	Nc  int // constraint dimension
	Nx2 int // next-state dimension (rows of the dynamics blocks)
	Nth int // parameter dimension, zero except at leg boundaries

	Q  *mat.Dense    // Nx×Nx cost Hessian
	S  *mat.Dense    // Nx×Nu cost cross term
	R  *mat.Dense    // Nu×Nu control cost Hessian
	Qv *mat.VecDense // Nx cost gradient
	Rv *mat.VecDense // Nu control cost gradient

	A *mat.Dense    // Nx2×Nx state transition
	B *mat.Dense    // Nx2×Nu input matrix
	E *mat.Dense    // Nx2×Nx2 next-state coupling
	F *mat.VecDense // Nx2 dynamics drift

	C  *mat.Dense    // Nc×Nx constraint state Jacobian
	D  *mat.Dense    // Nc×Nu constraint control Jacobian
	Dv *mat.VecDense // Nc constraint offset

	Gx    mat.Matrix // Nx×Nth parameter cross term on x
	Gu    mat.Matrix // Nu×Nth parameter cross term on u
	Gth   mat.Matrix // Nth×Nth parameter Hessian, nil means zero
	Gamma mat.Vector // Nth parameter gradient, nil means zero
}

// NewKnot returns a knot with all blocks allocated and zeroed for the given
// dimensions, with Nx2 = Nx and E initialized to −I, the explicit-dynamics
// convention x' = A x + B u + F.
func NewKnot(nx, nu, nc int) Knot {
	return NewKnotRect(nx, nx, nu, nc)
}

// NewKnotRect is NewKnot with an explicit next-state dimension nx2, for
// stages across which the state dimension changes.
func NewKnotRect(nx, nx2, nu, nc int) Knot {
	if nx < 1 || nx2 < 1 || nu < 0 || nc < 0 {
		panic(mat.ErrShape)
	}
	k := Knot{
		Nx:  nx,
		Nu:  nu,
		Nc:  nc,
		Nx2: nx2,
		Q:   mat.NewDense(nx, nx, nil),
		Qv:  mat.NewVecDense(nx, nil),
		A:   mat.NewDense(nx2, nx, nil),
		E:   mat.NewDense(nx2, nx2, nil),
		F:   mat.NewVecDense(nx2, nil),
	}
	gonumExtensions.AddScaledIdentity(k.E, -1)
	if nu > 0 {
		k.S = mat.NewDense(nx, nu, nil)
		k.R = mat.NewDense(nu, nu, nil)
		k.Rv = mat.NewVecDense(nu, nil)
		k.B = mat.NewDense(nx2, nu, nil)
	}
	if nc > 0 {
		k.C = mat.NewDense(nc, nx, nil)
		k.Dv = mat.NewVecDense(nc, nil)
		if nu > 0 {
			k.D = mat.NewDense(nc, nu, nil)
		}
	}
	return k
}

// Validate checks that every block matches the knot dimensions and that the
// data is finite.
func (k *Knot) Validate() error {
	if k.Nx < 1 || k.Nx2 < 1 {
		return fmt.Errorf("%w: state dimensions must be positive, got nx=%d nx2=%d", ErrDimensionMismatch, k.Nx, k.Nx2)
	}
	if k.Nu < 0 || k.Nc < 0 || k.Nth < 0 {
		return fmt.Errorf("%w: negative dimension (nu=%d nc=%d nth=%d)", ErrDimensionMismatch, k.Nu, k.Nc, k.Nth)
	}
	checks := []struct {
		name string
		m    mat.Matrix
		r, c int
	}{
		{"Q", denseOrNil(k.Q), k.Nx, k.Nx},
		{"S", denseOrNil(k.S), k.Nx, k.Nu},
		{"R", denseOrNil(k.R), k.Nu, k.Nu},
		{"Qv", vecOrNil(k.Qv), k.Nx, 1},
		{"Rv", vecOrNil(k.Rv), k.Nu, 1},
		{"A", denseOrNil(k.A), k.Nx2, k.Nx},
		{"B", denseOrNil(k.B), k.Nx2, k.Nu},
		{"E", denseOrNil(k.E), k.Nx2, k.Nx2},
		{"F", vecOrNil(k.F), k.Nx2, 1},
		{"C", denseOrNil(k.C), k.Nc, k.Nx},
		{"D", denseOrNil(k.D), k.Nc, k.Nu},
		{"Dv", vecOrNil(k.Dv), k.Nc, 1},
		{"Gx", k.Gx, k.Nx, k.Nth},
		{"Gu", k.Gu, k.Nu, k.Nth},
	}
	for _, chk := range checks {
		if err := checkBlock(chk.name, chk.m, chk.r, chk.c); err != nil {
			return err
		}
	}
	// Gth and Gamma stand for zero when nil.
	if k.Gth != nil {
		if err := checkBlock("Gth", k.Gth, k.Nth, k.Nth); err != nil {
			return err
		}
	}
	if k.Gamma != nil {
		if err := checkBlock("Gamma", k.Gamma, k.Nth, 1); err != nil {
			return err
		}
	}
	return nil
}

// denseOrNil converts a possibly nil *mat.Dense into a matrix interface that
// is nil exactly when the pointer is.
func denseOrNil(m *mat.Dense) mat.Matrix {
	if m == nil {
		return nil
	}
	return m
}

func vecOrNil(v *mat.VecDense) mat.Matrix {
	if v == nil {
		return nil
	}
	return v
}

func checkBlock(name string, m mat.Matrix, rows, cols int) error {
	if rows == 0 || cols == 0 {
		if m != nil {
			return fmt.Errorf("%w: %s must be nil for a zero dimension", ErrDimensionMismatch, name)
		}
		return nil
	}
	if m == nil {
		return fmt.Errorf("%w: missing block %s (%dx%d)", ErrDimensionMismatch, name, rows, cols)
	}
	r, c := m.Dims()
	if r != rows || c != cols {
		return fmt.Errorf("%w: block %s is %dx%d, want %dx%d", ErrDimensionMismatch, name, r, c, rows, cols)
	}
	if gonumExtensions.HasNaNOrInf(m) {
		return fmt.Errorf("%w: block %s", ErrNonFinite, name)
	}
	return nil
}
