package gonumExtensions

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Full returns a (m by n) matrix filled with value
func Full(m, n int, value float64) *mat.Dense {
	data := make([]float64, m*n)
	for index := range data {
		data[index] = value
	}
	return mat.NewDense(m, n, data)
}

// Eye returns a (m by n) matrix with ones on the k:th diagonal. k = 0 is the
// main diagonal, k > 0 lies above it and k < 0 below it.
func Eye(m, n, k int) *mat.Dense {
	res := mat.NewDense(m, n, nil)
	for row := 0; row < m; row++ {
		col := row + k
		if col >= 0 && col < n {
			res.Set(row, col, 1)
		}
	}
	return res
}

// Symmetrize overwrites the square matrix a with (a + aᵀ)/2, removing the
// skew part that accumulates over repeated products of symmetric factors.
func Symmetrize(a *mat.Dense) {
	m, n := a.Dims()
	if m != n {
		panic(mat.ErrShape)
	}
	for row := 0; row < m; row++ {
		for col := row + 1; col < n; col++ {
			value := 0.5 * (a.At(row, col) + a.At(col, row))
			a.Set(row, col, value)
			a.Set(col, row, value)
		}
	}
}

// SymmetrizeTo fills dst with scale*(a + aᵀ)/2 + shift*I. The destination
// must be square with the same dimension as a.
func SymmetrizeTo(dst *mat.SymDense, a mat.Matrix, scale, shift float64) {
	m, n := a.Dims()
	if m != n || dst.SymmetricDim() != m {
		panic(mat.ErrShape)
	}
	for row := 0; row < m; row++ {
		for col := row; col < n; col++ {
			value := 0.5 * scale * (a.At(row, col) + a.At(col, row))
			if row == col {
				value += shift
			}
			dst.SetSym(row, col, value)
		}
	}
}

// AddScaledIdentity adds value to every entry on the main diagonal of the
// square matrix a.
func AddScaledIdentity(a *mat.Dense, value float64) {
	m, n := a.Dims()
	if m != n {
		panic(mat.ErrShape)
	}
	for row := 0; row < m; row++ {
		a.Set(row, row, a.At(row, row)+value)
	}
}

// HasNaNOrInf checks if there are any NaN or Inf entries in matrix
func HasNaNOrInf(matrix mat.Matrix) bool {
	m, n := matrix.Dims()
	for row := 0; row < m; row++ {
		for col := 0; col < n; col++ {
			if math.IsNaN(matrix.At(row, col)) || math.IsInf(matrix.At(row, col), 0) {
				return true
			}
		}
	}
	return false
}
