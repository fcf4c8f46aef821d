package lqr

import "fmt"

// Partition splits a horizon of n knots into legs contiguous spans and
// returns the legs+1 boundary indices: leg i covers knots
// [splits[i], splits[i+1]). Boundaries follow splits[i] = i·n/legs, so leg
// lengths differ by at most one and the spans tile [0, n) exactly.
func Partition(n, legs int) ([]int, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: n=%d", ErrNoKnots, n)
	}
	if legs < 1 || legs > n {
		return nil, fmt.Errorf("%w: %d legs for %d knots", ErrBadLegCount, legs, n)
	}
	splits := make([]int, legs+1)
	for i := range splits {
		splits[i] = i * n / legs
	}
	return splits, nil
}

// AugmentLegBoundaries returns a copy of knots in which the final knot of
// every leg except the last carries the boundary-costate parameterization
//
//	Gx = Aᵀ, Gu = Bᵀ, Gamma = F, Gth = 0,
//
// with Nth equal to the knot's next-state dimension. The attached blocks are
// transposed views aliasing the knot's own dynamics data; nothing is copied
// and the input slice is not modified. splits must come from Partition.
func AugmentLegBoundaries(knots []Knot, splits []int) []Knot {
	out := append([]Knot(nil), knots...)
	for leg := 0; leg+2 < len(splits); leg++ {
		k := &out[splits[leg+1]-1]
		k.Nth = k.Nx2
		k.Gx = k.A.T()
		if k.Nu > 0 {
			k.Gu = k.B.T()
		}
		k.Gth = nil
		k.Gamma = k.F
	}
	return out
}
