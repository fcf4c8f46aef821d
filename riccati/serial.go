package riccati

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/ManifoldFR/aligator/gonumExtensions"
	"github.com/ManifoldFR/aligator/lqr"
)

// ProximalSolver solves the whole horizon with a single backward Riccati
// sweep and closes the loop through the dense initial-stage KKT system
//
//	[ P₀    G0ᵀ  ] [x₀]   [−p₀]
//	[ G0  −mudyn·I] [λ₀] = [−g0].
//
// It is the sequential baseline the parallel solver is cross-validated
// against and the cheaper choice for short horizons.
type ProximalSolver struct {
	prob    *lqr.Problem
	factors []*stageFactor

	kkt0   *mat.Dense
	kkt0LU mat.LU
	rhs0   *mat.VecDense
	sol0   *mat.VecDense
	g0T    mat.Matrix // transposed view of the initial-condition matrix

	// writable views into kkt0, rhs0 and sol0
	kktPP, kktPG, kktGP, kktGG *mat.Dense
	rhsX, rhsL                 *mat.VecDense
	solX, solL                 *mat.VecDense

	ready bool
}

// NewProximalSolver preallocates a sequential solver for the problem. The
// problem's knots must not carry parameter dimensions.
func NewProximalSolver(p *lqr.Problem) (*ProximalSolver, error) {
	if p.IsParameterized() {
		return nil, ErrParameterized
	}
	knots := p.Knots()
	n := len(knots)
	s := &ProximalSolver{prob: p, factors: make([]*stageFactor, n)}
	for t := range knots {
		s.factors[t] = newStageFactor(&knots[t], 0, t == n-1)
	}
	G0, _ := p.InitialCondition()
	s.g0T = G0.T()
	nx := knots[0].Nx
	dim := nx + p.Nc0()
	s.kkt0 = mat.NewDense(dim, dim, nil)
	s.rhs0 = mat.NewVecDense(dim, nil)
	s.sol0 = mat.NewVecDense(dim, nil)
	s.kktPP = s.kkt0.Slice(0, nx, 0, nx).(*mat.Dense)
	s.kktPG = s.kkt0.Slice(0, nx, nx, dim).(*mat.Dense)
	s.kktGP = s.kkt0.Slice(nx, dim, 0, nx).(*mat.Dense)
	s.kktGG = s.kkt0.Slice(nx, dim, nx, dim).(*mat.Dense)
	s.rhsX = s.rhs0.SliceVec(0, nx).(*mat.VecDense)
	s.rhsL = s.rhs0.SliceVec(nx, dim).(*mat.VecDense)
	s.solX = s.sol0.SliceVec(0, nx).(*mat.VecDense)
	s.solL = s.sol0.SliceVec(nx, dim).(*mat.VecDense)
	return s, nil
}

// Backward runs the full-horizon value recursion under the given
// regularizations, then factors and solves the initial-stage KKT system.
// On failure the solver is left not ready and Backward can be retried with
// larger regularizations.
func (s *ProximalSolver) Backward(mudyn, mueq float64) error {
	s.ready = false
	if err := backwardLeg(s.prob.Knots(), s.factors, 0, mudyn, mueq); err != nil {
		return err
	}
	G0, g0 := s.prob.InitialCondition()
	f0 := s.factors[0]
	s.kkt0.Zero()
	s.kktPP.Copy(f0.val.Pmat)
	s.kktPG.Copy(s.g0T)
	s.kktGP.Copy(G0)
	gonumExtensions.AddScaledIdentity(s.kktGG, -mudyn)
	s.rhsX.ScaleVec(-1, f0.val.pvec)
	s.rhsL.ScaleVec(-1, g0)
	s.kkt0LU.Factorize(s.kkt0)
	if err := s.kkt0LU.SolveVecTo(s.sol0, false, s.rhs0); err != nil {
		return fmt.Errorf("initial stage: %w: %v", ErrFactorization, err)
	}
	s.ready = true
	return nil
}

// Forward fills the trajectory buffers from the backward gains. It panics
// with ErrNotReady when no successful Backward precedes it and with
// ErrBufferSize when the buffers do not match the problem.
func (s *ProximalSolver) Forward(xs, us, vs, lbdas []*mat.VecDense) {
	if !s.ready {
		panic(ErrNotReady)
	}
	checkTrajectory(s.prob, xs, us, vs, lbdas)
	xs[0].CopyVec(s.solX)
	lbdas[0].CopyVec(s.solL)
	forwardLeg(s.factors, xs, us, vs, lbdas, nil)
}
