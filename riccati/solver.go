package riccati

import (
	"gonum.org/v1/gonum/mat"

	"github.com/ManifoldFR/aligator/lqr"
)

// Solver solves one proximally regularized LQ problem per Backward/Forward
// cycle. Backward factorizes the problem under the given regularization
// scalars and may be repeated with new scalars on the same instance; Forward
// requires a prior successful Backward and fills buffers shaped like
// lqr.Problem.AllocateTrajectory.
type Solver interface {
	Backward(mudyn, mueq float64) error
	Forward(xs, us, vs, lbdas []*mat.VecDense)
}

var (
	_ Solver = (*ProximalSolver)(nil)
	_ Solver = (*ParallelSolver)(nil)
)

// checkTrajectory panics with ErrBufferSize unless the buffers match the
// problem: xs[t] of length Nx, us[t]/vs[t] of length Nu/Nc (nil when zero),
// lbdas[0] of length nc0 and lbdas[t] of length Nx for t >= 1.
func checkTrajectory(p *lqr.Problem, xs, us, vs, lbdas []*mat.VecDense) {
	n := p.NumKnots()
	if len(xs) != n || len(us) != n || len(vs) != n || len(lbdas) != n {
		panic(ErrBufferSize)
	}
	for t := 0; t < n; t++ {
		k := p.Knot(t)
		nl := k.Nx
		if t == 0 {
			nl = p.Nc0()
		}
		if vecLen(xs[t]) != k.Nx || vecLen(us[t]) != k.Nu ||
			vecLen(vs[t]) != k.Nc || vecLen(lbdas[t]) != nl {
			panic(ErrBufferSize)
		}
	}
}

func vecLen(v *mat.VecDense) int {
	if v == nil {
		return 0
	}
	return v.Len()
}
