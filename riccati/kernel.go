package riccati

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/ManifoldFR/aligator/gonumExtensions"
	"github.com/ManifoldFR/aligator/lqr"
)

// terminalSolve starts the value recursion at the last knot of a leg. Only
// the stage cost, constraint and parameterization enter: a boundary knot's
// dynamics reach into the next leg and are carried by the parameterization
// blocks and the condensed system instead of the recursion.
func (f *stageFactor) terminalSolve(k *lqr.Knot, mueq float64) error {
	nu, nc, nth := k.Nu, k.Nc, f.nth
	m := nu + nc

	if m > 0 {
		// Stage KKT over (u, ν): [[R, Dᵀ], [D, −mueq·I]] with right-hand
		// side columns −[Rv | Sᵀ | Gu; Dv | C | 0], written negated.
		f.kkt.Zero()
		if nu > 0 {
			f.kktRR.Copy(k.R)
			f.rhsuFF.ScaleVec(-1, k.Rv)
			f.rhsuFB.Scale(-1, f.sT)
			if nth > 0 {
				if k.Nth > 0 {
					f.rhsuTH.Scale(-1, k.Gu)
				} else {
					f.rhsuTH.Zero()
				}
			}
		}
		if nc > 0 {
			gonumExtensions.AddScaledIdentity(f.kktCC, -mueq)
			f.rhscFF.ScaleVec(-1, k.Dv)
			f.rhscFB.Scale(-1, k.C)
		}
		if nu > 0 && nc > 0 {
			f.kktRD.Copy(f.dT)
			f.kktDR.Copy(k.D)
		}
		f.kktLU.Factorize(f.kkt)
		if err := f.kktLU.SolveTo(f.gain, false, f.rhs); err != nil {
			return fmt.Errorf("%w: stage KKT: %v", ErrFactorization, err)
		}
	}

	f.val.Pmat.Copy(k.Q)
	f.val.pvec.CopyVec(k.Qv)
	if nu > 0 {
		f.mxx.Mul(k.S, f.K)
		f.val.Pmat.Add(f.val.Pmat, f.mxx)
		f.vx.MulVec(k.S, f.kff)
		f.val.pvec.AddVec(f.val.pvec, f.vx)
	}
	if nc > 0 {
		f.mxx.Mul(f.cT, f.Z)
		f.val.Pmat.Add(f.val.Pmat, f.mxx)
		f.vx.MulVec(f.cT, f.zff)
		f.val.pvec.AddVec(f.val.pvec, f.vx)
	}
	gonumExtensions.Symmetrize(f.val.Pmat)

	if nth > 0 {
		if k.Nth > 0 {
			f.val.Vxt.Copy(k.Gx)
		} else {
			f.val.Vxt.Zero()
		}
		if k.Gth != nil {
			f.val.Vtt.Copy(k.Gth)
		} else {
			f.val.Vtt.Zero()
		}
		if k.Gamma != nil {
			f.val.vt.CopyVec(k.Gamma)
		} else {
			f.val.vt.Zero()
		}
		if nu > 0 {
			f.mxt.Mul(k.S, f.Kth)
			f.val.Vxt.Add(f.val.Vxt, f.mxt)
			if k.Nth > 0 {
				f.mtt.Mul(f.guT, f.Kth)
				f.val.Vtt.Add(f.val.Vtt, f.mtt)
				f.vth.MulVec(f.guT, f.kff)
				f.val.vt.AddVec(f.val.vt, f.vth)
			}
		}
		if nc > 0 {
			f.mxt.Mul(f.cT, f.Zth)
			f.val.Vxt.Add(f.val.Vxt, f.mxt)
		}
		gonumExtensions.Symmetrize(f.val.Vtt)
	}
	return nil
}

// stageSolve eliminates (u, ν, λ⁺, x⁺) at an interior knot given the next
// knot's value function under the relaxed dynamics
// A x + B u + E x' + F = mudyn·λ⁺ and updates the value recursion.
func (f *stageFactor) stageSolve(k *lqr.Knot, next *value, mudyn, mueq float64) error {
	nu, nc, nth := k.Nu, k.Nc, f.nth
	m := nu + nc

	// Proximal resolvent of the next value function through E:
	// P̃ = E⁻ᵀP⁺E⁻¹, schur = I + mudyn·P̃, Vprox = schur⁻¹P̃,
	// wv = schur⁻¹E⁻ᵀp⁺, Wt = schur⁻¹E⁻ᵀVxt⁺. Then the eliminated costate is
	// λ⁺ = Vprox(Ax + Bu + F) − wv − Wt·θ.
	f.eLU.Factorize(k.E)
	if err := f.eLU.SolveTo(f.etmp, true, next.Pmat); err != nil {
		return fmt.Errorf("%w: dynamics coupling: %v", ErrFactorization, err)
	}
	if err := f.eLU.SolveTo(f.ptilde, true, f.etmpT); err != nil {
		return fmt.Errorf("%w: dynamics coupling: %v", ErrFactorization, err)
	}
	gonumExtensions.Symmetrize(f.ptilde)
	if err := f.eLU.SolveVecTo(f.vx2, true, next.pvec); err != nil {
		return fmt.Errorf("%w: dynamics coupling: %v", ErrFactorization, err)
	}
	gonumExtensions.SymmetrizeTo(f.schur, f.ptilde, mudyn, 1)
	if !f.chol.Factorize(f.schur) {
		return fmt.Errorf("%w: proximal Schur complement not positive definite", ErrFactorization)
	}
	if err := f.chol.SolveTo(f.vprox, f.ptilde); err != nil {
		return fmt.Errorf("%w: proximal Schur complement: %v", ErrFactorization, err)
	}
	gonumExtensions.Symmetrize(f.vprox)
	if err := f.chol.SolveVecTo(f.wv, f.vx2); err != nil {
		return fmt.Errorf("%w: proximal Schur complement: %v", ErrFactorization, err)
	}
	if nth > 0 {
		if err := f.eLU.SolveTo(f.mx2t, true, next.Vxt); err != nil {
			return fmt.Errorf("%w: dynamics coupling: %v", ErrFactorization, err)
		}
		if err := f.chol.SolveTo(f.wt, f.mx2t); err != nil {
			return fmt.Errorf("%w: proximal Schur complement: %v", ErrFactorization, err)
		}
	}

	// Stage KKT over (u, ν): [[R + BᵀVproxB, Dᵀ], [D, −mueq·I]] with
	// right-hand side columns
	// −[Rv + Bᵀ(VproxF − wv) | Sᵀ + BᵀVproxA | Gu − BᵀWt; Dv | C | 0],
	// written negated.
	if m > 0 {
		f.kkt.Zero()
		if nu > 0 {
			f.mx2u.Mul(f.vprox, k.B)
			f.kktRR.Mul(f.bT, f.mx2u)
			f.kktRR.Add(k.R, f.kktRR)
			f.vx2.MulVec(f.vprox, k.F)
			f.vx2.SubVec(f.wv, f.vx2)
			f.rhsuFF.MulVec(f.bT, f.vx2)
			f.rhsuFF.SubVec(f.rhsuFF, k.Rv)
			f.mx2x.Mul(f.vprox, k.A)
			f.mux.Mul(f.bT, f.mx2x)
			f.mux.Add(f.sT, f.mux)
			f.rhsuFB.Scale(-1, f.mux)
			if nth > 0 {
				f.rhsuTH.Mul(f.bT, f.wt)
				if k.Nth > 0 {
					f.rhsuTH.Sub(f.rhsuTH, k.Gu)
				}
			}
		}
		if nc > 0 {
			gonumExtensions.AddScaledIdentity(f.kktCC, -mueq)
			f.rhscFF.ScaleVec(-1, k.Dv)
			f.rhscFB.Scale(-1, k.C)
		}
		if nu > 0 && nc > 0 {
			f.kktRD.Copy(f.dT)
			f.kktDR.Copy(k.D)
		}
		f.kktLU.Factorize(f.kkt)
		if err := f.kktLU.SolveTo(f.gain, false, f.rhs); err != nil {
			return fmt.Errorf("%w: stage KKT: %v", ErrFactorization, err)
		}
	}

	// Closed-loop dynamics terms A + B·K and B·kff + F.
	if nu > 0 {
		f.mx2x.Mul(k.B, f.K)
		f.mx2x.Add(k.A, f.mx2x)
		f.vx2b.MulVec(k.B, f.kff)
		f.vx2b.AddVec(f.vx2b, k.F)
	} else {
		f.mx2x.Copy(k.A)
		f.vx2b.CopyVec(k.F)
	}

	// Costate and next-state recursions: λ⁺ from the resolvent, then
	// x⁺ = E⁻¹(mudyn·λ⁺ − (Ax + Bu + F)).
	f.L.Mul(f.vprox, f.mx2x)
	f.lff.MulVec(f.vprox, f.vx2b)
	f.lff.SubVec(f.lff, f.wv)
	f.mx2xb.Scale(mudyn, f.L)
	f.mx2xb.Sub(f.mx2xb, f.mx2x)
	if err := f.eLU.SolveTo(f.Afb, false, f.mx2xb); err != nil {
		return fmt.Errorf("%w: dynamics coupling: %v", ErrFactorization, err)
	}
	f.vx2.ScaleVec(mudyn, f.lff)
	f.vx2.SubVec(f.vx2, f.vx2b)
	if err := f.eLU.SolveVecTo(f.aff, false, f.vx2); err != nil {
		return fmt.Errorf("%w: dynamics coupling: %v", ErrFactorization, err)
	}
	if nth > 0 {
		if nu > 0 {
			f.mx2t.Mul(k.B, f.Kth)
			f.Lth.Mul(f.vprox, f.mx2t)
			f.Lth.Sub(f.Lth, f.wt)
		} else {
			f.mx2t.Zero()
			f.Lth.Scale(-1, f.wt)
		}
		f.mx2tb.Scale(mudyn, f.Lth)
		f.mx2tb.Sub(f.mx2tb, f.mx2t)
		if err := f.eLU.SolveTo(f.Ath, false, f.mx2tb); err != nil {
			return fmt.Errorf("%w: dynamics coupling: %v", ErrFactorization, err)
		}
	}

	// Value update.
	f.val.Pmat.Copy(k.Q)
	f.val.pvec.CopyVec(k.Qv)
	if nu > 0 {
		f.mxx.Mul(k.S, f.K)
		f.val.Pmat.Add(f.val.Pmat, f.mxx)
		f.vx.MulVec(k.S, f.kff)
		f.val.pvec.AddVec(f.val.pvec, f.vx)
	}
	if nc > 0 {
		f.mxx.Mul(f.cT, f.Z)
		f.val.Pmat.Add(f.val.Pmat, f.mxx)
		f.vx.MulVec(f.cT, f.zff)
		f.val.pvec.AddVec(f.val.pvec, f.vx)
	}
	f.mxx.Mul(f.aT, f.L)
	f.val.Pmat.Add(f.val.Pmat, f.mxx)
	f.vx.MulVec(f.aT, f.lff)
	f.val.pvec.AddVec(f.val.pvec, f.vx)
	gonumExtensions.Symmetrize(f.val.Pmat)

	if nth > 0 {
		if k.Nth > 0 {
			f.val.Vxt.Copy(k.Gx)
		} else {
			f.val.Vxt.Zero()
		}
		if nu > 0 {
			f.mxt.Mul(k.S, f.Kth)
			f.val.Vxt.Add(f.val.Vxt, f.mxt)
		}
		if nc > 0 {
			f.mxt.Mul(f.cT, f.Zth)
			f.val.Vxt.Add(f.val.Vxt, f.mxt)
		}
		f.mxt.Mul(f.aT, f.Lth)
		f.val.Vxt.Add(f.val.Vxt, f.mxt)

		f.val.Vtt.Copy(next.Vtt)
		f.val.vt.CopyVec(next.vt)
		if k.Gth != nil {
			f.val.Vtt.Add(f.val.Vtt, k.Gth)
		}
		if k.Gamma != nil {
			f.val.vt.AddVec(f.val.vt, k.Gamma)
		}
		if k.Nth > 0 && nu > 0 {
			f.mtt.Mul(f.guT, f.Kth)
			f.val.Vtt.Add(f.val.Vtt, f.mtt)
			f.vth.MulVec(f.guT, f.kff)
			f.val.vt.AddVec(f.val.vt, f.vth)
		}
		f.mtt.Mul(next.VxtT, f.Ath)
		f.val.Vtt.Add(f.val.Vtt, f.mtt)
		f.vth.MulVec(next.VxtT, f.aff)
		f.val.vt.AddVec(f.val.vt, f.vth)
		gonumExtensions.Symmetrize(f.val.Vtt)
	}
	return nil
}

// backwardLeg runs the value recursion over one leg in reverse time order.
// knots and factors hold only the leg's span; offset is the span's first
// global knot index, used in error reports.
func backwardLeg(knots []lqr.Knot, factors []*stageFactor, offset int, mudyn, mueq float64) error {
	last := len(factors) - 1
	if err := factors[last].terminalSolve(&knots[last], mueq); err != nil {
		return fmt.Errorf("knot %d: %w", offset+last, err)
	}
	for t := last - 1; t >= 0; t-- {
		if err := factors[t].stageSolve(&knots[t], &factors[t+1].val, mudyn, mueq); err != nil {
			return fmt.Errorf("knot %d: %w", offset+t, err)
		}
	}
	return nil
}

// forwardLeg rolls the backward gains out over one leg. xs[0] must hold the
// leg's entry state and th the boundary costate behind the leg, nil on the
// final leg. Writes stay strictly inside the given slices: the boundary
// state and costate of the next leg are seeded by the caller.
func forwardLeg(factors []*stageFactor, xs, us, vs, lbdas []*mat.VecDense, th *mat.VecDense) {
	n := len(factors)
	for t := 0; t < n; t++ {
		f := factors[t]
		x := xs[t]
		if f.kff != nil {
			us[t].MulVec(f.K, x)
			us[t].AddVec(f.kff, us[t])
			if th != nil {
				f.vu.MulVec(f.Kth, th)
				us[t].AddVec(us[t], f.vu)
			}
		}
		if f.zff != nil {
			vs[t].MulVec(f.Z, x)
			vs[t].AddVec(f.zff, vs[t])
			if th != nil {
				f.vc.MulVec(f.Zth, th)
				vs[t].AddVec(vs[t], f.vc)
			}
		}
		if t+1 == n {
			break
		}
		lb := lbdas[t+1]
		lb.MulVec(f.L, x)
		lb.AddVec(f.lff, lb)
		xs[t+1].MulVec(f.Afb, x)
		xs[t+1].AddVec(f.aff, xs[t+1])
		if th != nil {
			f.vx2.MulVec(f.Lth, th)
			lb.AddVec(lb, f.vx2)
			f.vx2.MulVec(f.Ath, th)
			xs[t+1].AddVec(xs[t+1], f.vx2)
		}
	}
}
