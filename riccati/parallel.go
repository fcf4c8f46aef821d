package riccati

import (
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"

	"github.com/ManifoldFR/aligator/gonumExtensions"
	"github.com/ManifoldFR/aligator/lqr"
)

// condensedSystem is the symmetric block-tridiagonal saddle system coupling
// the legs. The unknown blocks are [λ₀, x(s₀), θ₁, x(s₁), …, θ_{L−1},
// x(s_{L−1})] with sⱼ the first knot of leg j and θⱼ the costate of the
// dynamics crossing boundary sⱼ. Rebuilt from the legs' boundary value
// functions on every Backward; after the block-tridiagonal solve, rhs holds
// the solution blocks.
type condensedSystem struct {
	sub    []*mat.Dense
	diag   []*mat.Dense
	super  []*mat.Dense
	superT []mat.Matrix // transposed views of super, built once
	rhs    []*mat.VecDense
}

func newCondensedSystem(dims []int) condensedSystem {
	m := len(dims)
	cs := condensedSystem{
		sub:    make([]*mat.Dense, m-1),
		diag:   make([]*mat.Dense, m),
		super:  make([]*mat.Dense, m-1),
		superT: make([]mat.Matrix, m-1),
		rhs:    make([]*mat.VecDense, m),
	}
	for i := 0; i < m; i++ {
		cs.diag[i] = mat.NewDense(dims[i], dims[i], nil)
		cs.rhs[i] = mat.NewVecDense(dims[i], nil)
		if i < m-1 {
			cs.super[i] = mat.NewDense(dims[i], dims[i+1], nil)
			cs.superT[i] = cs.super[i].T()
			cs.sub[i] = mat.NewDense(dims[i+1], dims[i], nil)
		}
	}
	return cs
}

// ParallelSolver cuts the horizon into contiguous legs, runs the backward
// Riccati recursion of every leg concurrently with the leg's boundary
// costate kept symbolic, couples the legs through the condensed
// block-tridiagonal system, and rolls the trajectory out leg-parallel.
// Construction preallocates all per-leg factors and the condensed system;
// the sweeps rewrite them in place, spending one goroutine per leg and
// nothing else beyond gonum's pooled factorization scratch.
type ParallelSolver struct {
	prob    *lqr.Problem
	splits  []int
	knots   []lqr.Knot // problem knots with leg boundaries parameterized
	factors [][]*stageFactor
	cs      condensedSystem
	bt      *BlockTridiagonal
	ready   bool
}

// NewParallelSolver preallocates a solver splitting the problem's horizon
// into numLegs legs of near-equal length. Every leg must receive at least
// one knot and the problem's knots must not carry parameter dimensions.
func NewParallelSolver(p *lqr.Problem, numLegs int) (*ParallelSolver, error) {
	if p.IsParameterized() {
		return nil, ErrParameterized
	}
	splits, err := lqr.Partition(p.NumKnots(), numLegs)
	if err != nil {
		return nil, err
	}
	knots := lqr.AugmentLegBoundaries(p.Knots(), splits)
	factors := make([][]*stageFactor, numLegs)
	for j := 0; j < numLegs; j++ {
		i0, i1 := splits[j], splits[j+1]
		nth := 0
		if j+1 < numLegs {
			nth = knots[i1].Nx
		}
		leg := make([]*stageFactor, i1-i0)
		for t := i0; t < i1; t++ {
			leg[t-i0] = newStageFactor(&knots[t], nth, t == i1-1)
		}
		factors[j] = leg
	}
	dims := make([]int, 2*numLegs)
	dims[0] = p.Nc0()
	dims[1] = knots[0].Nx
	for j := 1; j < numLegs; j++ {
		nx := knots[splits[j]].Nx
		dims[2*j] = nx   // boundary costate θⱼ
		dims[2*j+1] = nx // boundary state x(sⱼ)
	}
	bt, err := NewBlockTridiagonal(dims)
	if err != nil {
		return nil, err
	}
	return &ParallelSolver{
		prob:    p,
		splits:  splits,
		knots:   knots,
		factors: factors,
		cs:      newCondensedSystem(dims),
		bt:      bt,
	}, nil
}

// NumLegs returns the number of legs the horizon is split into.
func (s *ParallelSolver) NumLegs() int { return len(s.factors) }

// Backward fans the per-leg value recursions out to one goroutine per leg,
// joins, and on overall success assembles and solves the condensed system.
// A factorization failure in any leg aborts before the condensed assembly;
// the first such error is returned and the solver stays not ready.
func (s *ParallelSolver) Backward(mudyn, mueq float64) error {
	s.ready = false
	var g errgroup.Group
	for j := range s.factors {
		g.Go(func() error {
			i0, i1 := s.splits[j], s.splits[j+1]
			if err := backwardLeg(s.knots[i0:i1], s.factors[j], i0, mudyn, mueq); err != nil {
				return fmt.Errorf("leg %d: %w", j, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	s.assembleCondensed(mudyn)
	if err := s.bt.Solve(s.cs.sub, s.cs.diag, s.cs.super, s.cs.rhs); err != nil {
		return err
	}
	s.ready = true
	return nil
}

// assembleCondensed rebuilds the condensed saddle system from the legs'
// boundary value functions. Row 0 is the relaxed initial condition
// G0·x₀ + g0 = mudyn·λ₀; row 2j is the stationarity of boundary costate θⱼ,
// Vxtᵀ(sⱼ₋₁)·x(sⱼ₋₁) + (Vtt − mudyn·I)·θⱼ + E(sⱼ−1)·x(sⱼ) = −vt, carrying
// the relaxed boundary dynamics and the boundary knot's own E; odd rows are
// the stationarity of the leg entry states. Right-hand sides are negated to
// match the KKT sign convention.
func (s *ParallelSolver) assembleCondensed(mudyn float64) {
	cs := &s.cs
	numLegs := len(s.factors)
	G0, g0 := s.prob.InitialCondition()

	cs.diag[0].Zero()
	gonumExtensions.AddScaledIdentity(cs.diag[0], -mudyn)
	cs.super[0].Copy(G0)
	cs.rhs[0].ScaleVec(-1, g0)

	lead := s.factors[0][0]
	cs.diag[1].Copy(lead.val.Pmat)
	cs.rhs[1].ScaleVec(-1, lead.val.pvec)
	if numLegs > 1 {
		cs.super[1].Copy(lead.val.Vxt)
	}

	for j := 1; j < numLegs; j++ {
		i1 := s.splits[j]
		left := s.factors[j-1][0] // value of leg j−1 at its entry knot
		right := s.factors[j][0]
		cs.diag[2*j].Copy(left.val.Vtt)
		gonumExtensions.AddScaledIdentity(cs.diag[2*j], -mudyn)
		cs.super[2*j].Copy(s.knots[i1-1].E)
		cs.rhs[2*j].ScaleVec(-1, left.val.vt)
		cs.diag[2*j+1].Copy(right.val.Pmat)
		cs.rhs[2*j+1].ScaleVec(-1, right.val.pvec)
		if j+1 < numLegs {
			cs.super[2*j+1].Copy(right.val.Vxt)
		}
	}
	for i := range cs.super {
		cs.sub[i].Copy(cs.superT[i])
	}
}

// Forward scatters the condensed solution into the leg boundaries, then fans
// the per-leg rollouts out to one goroutine per leg and joins. It panics
// with ErrNotReady when no successful Backward precedes it and with
// ErrBufferSize when the buffers do not match the problem.
func (s *ParallelSolver) Forward(xs, us, vs, lbdas []*mat.VecDense) {
	if !s.ready {
		panic(ErrNotReady)
	}
	checkTrajectory(s.prob, xs, us, vs, lbdas)
	numLegs := len(s.factors)
	for j := 0; j < numLegs; j++ {
		i := s.splits[j]
		lbdas[i].CopyVec(s.cs.rhs[2*j])
		xs[i].CopyVec(s.cs.rhs[2*j+1])
	}
	var wg sync.WaitGroup
	for j := range s.factors {
		wg.Add(1)
		go func() {
			defer wg.Done()
			i0, i1 := s.splits[j], s.splits[j+1]
			var th *mat.VecDense
			if j+1 < numLegs {
				th = lbdas[s.splits[j+1]]
			}
			forwardLeg(s.factors[j], xs[i0:i1], us[i0:i1], vs[i0:i1], lbdas[i0:i1], th)
		}()
	}
	wg.Wait()
}
