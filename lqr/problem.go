package lqr

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/ManifoldFR/aligator/gonumExtensions"
)

// Problem is an immutable linear-quadratic subproblem: a knot sequence over
// stages 0..N together with the initial-condition constraint G0 x₀ + g0 = 0.
// The constructor validates all block shapes; afterwards the problem exposes
// read-only access and the solvers never modify it.
type Problem struct {
	knots []Knot
	g0mat *mat.Dense
	g0vec *mat.VecDense
}

// NewProblem validates the knot sequence and the initial condition and wraps
// them into a problem. The knot blocks are shared, not copied: callers must
// not modify them while the problem is in use.
func NewProblem(knots []Knot, G0 *mat.Dense, g0 *mat.VecDense) (*Problem, error) {
	if len(knots) == 0 {
		return nil, ErrNoKnots
	}
	for t := range knots {
		if err := knots[t].Validate(); err != nil {
			return nil, fmt.Errorf("knot %d: %w", t, err)
		}
		if t+1 < len(knots) && knots[t].Nx2 != knots[t+1].Nx {
			return nil, fmt.Errorf("%w: knot %d has nx2=%d but knot %d has nx=%d",
				ErrDimensionMismatch, t, knots[t].Nx2, t+1, knots[t+1].Nx)
		}
	}
	if G0 == nil || g0 == nil {
		return nil, fmt.Errorf("%w: missing initial condition", ErrDimensionMismatch)
	}
	nc0, cols := G0.Dims()
	if nc0 < 1 {
		return nil, fmt.Errorf("%w: initial condition needs at least one row", ErrDimensionMismatch)
	}
	if cols != knots[0].Nx {
		return nil, fmt.Errorf("%w: G0 has %d columns but knot 0 has nx=%d", ErrDimensionMismatch, cols, knots[0].Nx)
	}
	if g0.Len() != nc0 {
		return nil, fmt.Errorf("%w: g0 has length %d but G0 has %d rows", ErrDimensionMismatch, g0.Len(), nc0)
	}
	if gonumExtensions.HasNaNOrInf(G0) || gonumExtensions.HasNaNOrInf(g0) {
		return nil, fmt.Errorf("%w: initial condition", ErrNonFinite)
	}
	return &Problem{
		knots: append([]Knot(nil), knots...),
		g0mat: G0,
		g0vec: g0,
	}, nil
}

// NewProblemWithInitialState builds a problem whose initial state is pinned
// to x0 through the constraint −x₀ + x0 = 0, i.e. G0 = −I and g0 = x0.
func NewProblemWithInitialState(knots []Knot, x0 *mat.VecDense) (*Problem, error) {
	if len(knots) == 0 {
		return nil, ErrNoKnots
	}
	if x0 == nil || x0.Len() != knots[0].Nx {
		return nil, fmt.Errorf("%w: x0 must have length nx=%d", ErrDimensionMismatch, knots[0].Nx)
	}
	nx := knots[0].Nx
	G0 := gonumExtensions.Eye(nx, nx, 0)
	G0.Scale(-1, G0)
	g0 := mat.NewVecDense(nx, nil)
	g0.CopyVec(x0)
	return NewProblem(knots, G0, g0)
}

// NumKnots returns the number of stages, N+1.
func (p *Problem) NumKnots() int { return len(p.knots) }

// Horizon returns N, the index of the terminal stage.
func (p *Problem) Horizon() int { return len(p.knots) - 1 }

// Knot returns the knot at stage t. The returned pointer aliases the
// problem's data and must be treated as read-only.
func (p *Problem) Knot(t int) *Knot { return &p.knots[t] }

// Knots returns the full knot sequence, to be treated as read-only.
func (p *Problem) Knots() []Knot { return p.knots }

// Nc0 returns the number of rows of the initial-condition constraint.
func (p *Problem) Nc0() int {
	r, _ := p.g0mat.Dims()
	return r
}

// InitialCondition returns (G0, g0), to be treated as read-only.
func (p *Problem) InitialCondition() (*mat.Dense, *mat.VecDense) {
	return p.g0mat, p.g0vec
}

// IsParameterized reports whether any knot carries a parameter dimension.
func (p *Problem) IsParameterized() bool {
	for t := range p.knots {
		if p.knots[t].Nth > 0 {
			return true
		}
	}
	return false
}

// AllocateTrajectory returns zeroed primal-dual buffers shaped for the
// problem: states xs[t] (length Nx), controls us[t] (length Nu, nil when the
// stage has no controls), constraint multipliers vs[t] (length Nc, nil when
// unconstrained) and costates lbdas[t], where lbdas[0] is the multiplier of
// the initial condition (length nc0) and lbdas[t] for t ≥ 1 the multiplier
// of stage t−1's dynamics (length Nx of stage t).
func (p *Problem) AllocateTrajectory() (xs, us, vs, lbdas []*mat.VecDense) {
	n := len(p.knots)
	xs = make([]*mat.VecDense, n)
	us = make([]*mat.VecDense, n)
	vs = make([]*mat.VecDense, n)
	lbdas = make([]*mat.VecDense, n)
	for t := range p.knots {
		k := &p.knots[t]
		xs[t] = mat.NewVecDense(k.Nx, nil)
		if k.Nu > 0 {
			us[t] = mat.NewVecDense(k.Nu, nil)
		}
		if k.Nc > 0 {
			vs[t] = mat.NewVecDense(k.Nc, nil)
		}
		if t == 0 {
			lbdas[0] = mat.NewVecDense(p.Nc0(), nil)
		} else {
			lbdas[t] = mat.NewVecDense(k.Nx, nil)
		}
	}
	return xs, us, vs, lbdas
}
