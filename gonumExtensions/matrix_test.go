package gonumExtensions

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestFull(t *testing.T) {
	m := Full(2, 3, 0.5)
	rows, cols := m.Dims()
	if rows != 2 || cols != 3 {
		t.Fatalf("Full returned a %vx%v matrix, want 2x3", rows, cols)
	}
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			if m.At(row, col) != 0.5 {
				t.Errorf("Full(2, 3, 0.5) entry (%v,%v) = %v", row, col, m.At(row, col))
			}
		}
	}
}

func TestEye(t *testing.T) {
	id := Eye(3, 3, 0)
	want := mat.NewDense(3, 3, []float64{1, 0, 0, 0, 1, 0, 0, 0, 1})
	if !mat.Equal(id, want) {
		t.Errorf("Eye(3, 3, 0) = \n%v", mat.Formatted(id))
	}

	sub := Eye(3, 3, -1)
	want = mat.NewDense(3, 3, []float64{0, 0, 0, 1, 0, 0, 0, 1, 0})
	if !mat.Equal(sub, want) {
		t.Errorf("Eye(3, 3, -1) = \n%v", mat.Formatted(sub))
	}

	super := Eye(2, 4, 2)
	want = mat.NewDense(2, 4, []float64{0, 0, 1, 0, 0, 0, 0, 1})
	if !mat.Equal(super, want) {
		t.Errorf("Eye(2, 4, 2) = \n%v", mat.Formatted(super))
	}
}

func TestSymmetrize(t *testing.T) {
	a := mat.NewDense(2, 2, []float64{1, 2, 4, 3})
	Symmetrize(a)
	want := mat.NewDense(2, 2, []float64{1, 3, 3, 3})
	if !mat.Equal(a, want) {
		t.Errorf("Symmetrize gave \n%v", mat.Formatted(a))
	}
}

func TestSymmetrizeTo(t *testing.T) {
	a := mat.NewDense(2, 2, []float64{1, 2, 4, 3})
	dst := mat.NewSymDense(2, nil)
	SymmetrizeTo(dst, a, 2, 1)
	// 2*(a+aᵀ)/2 + I
	want := mat.NewDense(2, 2, []float64{3, 6, 6, 7})
	if !mat.EqualApprox(dst, want, 1e-15) {
		t.Errorf("SymmetrizeTo gave \n%v", mat.Formatted(dst))
	}
}

func TestAddScaledIdentity(t *testing.T) {
	a := mat.NewDense(2, 2, []float64{1, 2, 3, 4})
	AddScaledIdentity(a, -1.5)
	want := mat.NewDense(2, 2, []float64{-0.5, 2, 3, 2.5})
	if !mat.Equal(a, want) {
		t.Errorf("AddScaledIdentity gave \n%v", mat.Formatted(a))
	}
}

func TestHasNaNOrInf(t *testing.T) {
	clean := mat.NewDense(2, 2, []float64{1, 2, 3, 4})
	if HasNaNOrInf(clean) {
		t.Error("finite matrix flagged as non-finite")
	}
	dirty := mat.NewDense(2, 2, []float64{1, math.NaN(), 3, 4})
	if !HasNaNOrInf(dirty) {
		t.Error("NaN entry not detected")
	}
	dirty.Set(0, 1, math.Inf(-1))
	if !HasNaNOrInf(dirty) {
		t.Error("Inf entry not detected")
	}
}
