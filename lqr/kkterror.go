package lqr

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// KKTError returns the largest absolute residual of the first-order
// optimality system of p at the primal-dual candidate (xs, us, vs, lbdas)
// under the proximal weights mudyn and mueq: stationarity with respect to
// states and controls, the relaxed dynamics and constraint rows, and the
// relaxed initial condition. A trajectory produced by a successful solve
// drives this to zero up to roundoff.
//
// The buffers must be shaped as by Problem.AllocateTrajectory, and p must
// not be parameterized.
func KKTError(p *Problem, xs, us, vs, lbdas []*mat.VecDense, mudyn, mueq float64) float64 {
	n := p.NumKnots()
	G0, g0 := p.InitialCondition()

	res := mat.NewVecDense(p.Nc0(), nil)
	res.MulVec(G0, xs[0])
	res.AddVec(res, g0)
	res.AddScaledVec(res, -mudyn, lbdas[0])
	worst := mat.Norm(res, math.Inf(1))

	for t := 0; t < n; t++ {
		k := p.Knot(t)

		// Stationarity with respect to x_t.
		rx := mat.NewVecDense(k.Nx, nil)
		tmp := mat.NewVecDense(k.Nx, nil)
		rx.MulVec(k.Q, xs[t])
		rx.AddVec(rx, k.Qv)
		if k.Nu > 0 {
			tmp.MulVec(k.S, us[t])
			rx.AddVec(rx, tmp)
		}
		if k.Nc > 0 {
			tmp.MulVec(k.C.T(), vs[t])
			rx.AddVec(rx, tmp)
		}
		if t == 0 {
			tmp.MulVec(G0.T(), lbdas[0])
		} else {
			tmp.MulVec(p.Knot(t-1).E.T(), lbdas[t])
		}
		rx.AddVec(rx, tmp)
		if t+1 < n {
			tmp.MulVec(k.A.T(), lbdas[t+1])
			rx.AddVec(rx, tmp)
		}
		worst = math.Max(worst, mat.Norm(rx, math.Inf(1)))

		// Stationarity with respect to u_t.
		if k.Nu > 0 {
			ru := mat.NewVecDense(k.Nu, nil)
			tmpU := mat.NewVecDense(k.Nu, nil)
			ru.MulVec(k.S.T(), xs[t])
			tmpU.MulVec(k.R, us[t])
			ru.AddVec(ru, tmpU)
			ru.AddVec(ru, k.Rv)
			if k.Nc > 0 {
				tmpU.MulVec(k.D.T(), vs[t])
				ru.AddVec(ru, tmpU)
			}
			if t+1 < n {
				tmpU.MulVec(k.B.T(), lbdas[t+1])
				ru.AddVec(ru, tmpU)
			}
			worst = math.Max(worst, mat.Norm(ru, math.Inf(1)))
		}

		// Relaxed dynamics row.
		if t+1 < n {
			rd := mat.NewVecDense(k.Nx2, nil)
			tmpD := mat.NewVecDense(k.Nx2, nil)
			rd.MulVec(k.A, xs[t])
			if k.Nu > 0 {
				tmpD.MulVec(k.B, us[t])
				rd.AddVec(rd, tmpD)
			}
			rd.AddVec(rd, k.F)
			tmpD.MulVec(k.E, xs[t+1])
			rd.AddVec(rd, tmpD)
			rd.AddScaledVec(rd, -mudyn, lbdas[t+1])
			worst = math.Max(worst, mat.Norm(rd, math.Inf(1)))
		}

		// Relaxed constraint row.
		if k.Nc > 0 {
			rc := mat.NewVecDense(k.Nc, nil)
			tmpC := mat.NewVecDense(k.Nc, nil)
			rc.MulVec(k.C, xs[t])
			if k.Nu > 0 {
				tmpC.MulVec(k.D, us[t])
				rc.AddVec(rc, tmpC)
			}
			rc.AddVec(rc, k.Dv)
			rc.AddScaledVec(rc, -mueq, vs[t])
			worst = math.Max(worst, mat.Norm(rc, math.Inf(1)))
		}
	}
	return worst
}
