package lqr

import "errors"

var (
	// ErrNoKnots means a problem or horizon was built from an empty knot
	// sequence.
	ErrNoKnots = errors.New("lqr: empty knot sequence")

	// ErrDimensionMismatch means a block's shape disagrees with the knot
	// dimensions, or adjacent knots disagree on the state dimension.
	ErrDimensionMismatch = errors.New("lqr: dimension mismatch")

	// ErrNonFinite means problem data contains a NaN or Inf entry.
	ErrNonFinite = errors.New("lqr: non-finite problem data")

	// ErrBadLegCount means a horizon partition was requested with fewer than
	// one leg or with more legs than knots.
	ErrBadLegCount = errors.New("lqr: leg count out of range")
)
