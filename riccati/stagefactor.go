package riccati

import (
	"gonum.org/v1/gonum/mat"

	"github.com/ManifoldFR/aligator/lqr"
)

// value is the quadratic value function of a leg tail as a function of the
// knot's entry state x and the leg's boundary costate θ:
//
//	V(x, θ) = ½xᵀP x + pᵀx + xᵀVxt θ + ½θᵀVtt θ + vtᵀθ + const.
//
// The θ blocks are nil on the final leg (nth == 0).
type value struct {
	Pmat *mat.Dense
	pvec *mat.VecDense
	Vxt  *mat.Dense
	VxtT mat.Matrix // transposed view of Vxt, built once
	Vtt  *mat.Dense
	vt   *mat.VecDense
}

// stageFactor holds one knot's backward products: the tail value function,
// the gains of the eliminated stage variables, and every factorization and
// scratch buffer the kernel needs at this knot. All buffers are sized at
// construction and rewritten in place by each Backward; the sweeps allocate
// nothing beyond gonum's pooled factorization scratch.
type stageFactor struct {
	nth int // leg boundary parameter width, zero on the final leg

	val value

	// Gains, views into gain: u = kff + K·x + Kth·θ, ν = zff + Z·x + Zth·θ,
	// λ⁺ = lff + L·x + Lth·θ, x⁺ = aff + Afb·x + Ath·θ. The u/ν groups are
	// nil at zero Nu/Nc; the λ⁺/x⁺ group is nil on terminal factors.
	kff *mat.VecDense
	K   *mat.Dense
	Kth *mat.Dense
	zff *mat.VecDense
	Z   *mat.Dense
	Zth *mat.Dense
	lff *mat.VecDense
	L   *mat.Dense
	Lth *mat.Dense
	aff *mat.VecDense
	Afb *mat.Dense
	Ath *mat.Dense

	// Stage KKT over (u, ν): kkt·gain = rhs with block columns
	// [feedforward | state feedback | parameter feedback].
	kkt   *mat.Dense
	kktLU mat.LU
	rhs   *mat.Dense
	gain  *mat.Dense

	// Writable sub-block views of kkt and rhs.
	kktRR, kktRD, kktDR, kktCC *mat.Dense
	rhsuFF                     *mat.VecDense
	rhsuFB, rhsuTH             *mat.Dense
	rhscFF                     *mat.VecDense
	rhscFB                     *mat.Dense

	// Transposed views of the knot blocks and of etmp, built once so the
	// sweeps never box fresh views per knot.
	aT, bT, sT, cT, dT, guT mat.Matrix
	etmpT                   mat.Matrix

	// Proximal resolvent of the next value function (interior knots only).
	eLU    mat.LU
	ptilde *mat.Dense // E⁻ᵀ·P⁺·E⁻¹
	etmp   *mat.Dense
	schur  *mat.SymDense // I + mudyn·P̃
	chol   mat.Cholesky
	vprox  *mat.Dense // schur⁻¹·P̃
	wv     *mat.VecDense
	wt     *mat.Dense

	// Scratch, named after its shape (x2 rows are next-state sized).
	mxx   *mat.Dense
	mxt   *mat.Dense
	mtt   *mat.Dense
	mux   *mat.Dense
	mx2x  *mat.Dense
	mx2xb *mat.Dense
	mx2u  *mat.Dense
	mx2t  *mat.Dense
	mx2tb *mat.Dense
	vx    *mat.VecDense
	vth   *mat.VecDense
	vx2   *mat.VecDense
	vx2b  *mat.VecDense
	vu    *mat.VecDense
	vc    *mat.VecDense
}

// newStageFactor sizes every buffer for one knot. nth is the width of the
// leg's boundary parameter, which can exceed the knot's own Nth: interior
// knots of a non-final leg carry the recursion's θ blocks without
// contributing parameterized cost themselves. Terminal factors (the last
// knot of a leg) skip the dynamics-elimination buffers: their dynamics
// either couple into the next leg through the boundary parameterization or,
// at the horizon end, do not exist.
func newStageFactor(k *lqr.Knot, nth int, terminal bool) *stageFactor {
	nx, nu, nc, nx2 := k.Nx, k.Nu, k.Nc, k.Nx2
	m := nu + nc
	f := &stageFactor{nth: nth}

	if nu > 0 {
		f.sT = k.S.T()
		if k.Nth > 0 {
			f.guT = k.Gu.T()
		}
	}
	if nc > 0 {
		f.cT = k.C.T()
	}
	if nu > 0 && nc > 0 {
		f.dT = k.D.T()
	}

	f.val.Pmat = mat.NewDense(nx, nx, nil)
	f.val.pvec = mat.NewVecDense(nx, nil)
	f.mxx = mat.NewDense(nx, nx, nil)
	f.vx = mat.NewVecDense(nx, nil)
	if nth > 0 {
		f.val.Vxt = mat.NewDense(nx, nth, nil)
		f.val.VxtT = f.val.Vxt.T()
		f.val.Vtt = mat.NewDense(nth, nth, nil)
		f.val.vt = mat.NewVecDense(nth, nil)
		f.mxt = mat.NewDense(nx, nth, nil)
		f.mtt = mat.NewDense(nth, nth, nil)
		f.vth = mat.NewVecDense(nth, nil)
	}

	if m > 0 {
		w := 1 + nx + nth
		f.kkt = mat.NewDense(m, m, nil)
		f.rhs = mat.NewDense(m, w, nil)
		f.gain = mat.NewDense(m, w, nil)
		if nu > 0 {
			f.kktRR = f.kkt.Slice(0, nu, 0, nu).(*mat.Dense)
			f.rhsuFF = colSegment(f.rhs, 0, 0, nu)
			f.rhsuFB = f.rhs.Slice(0, nu, 1, 1+nx).(*mat.Dense)
			f.kff = colSegment(f.gain, 0, 0, nu)
			f.K = f.gain.Slice(0, nu, 1, 1+nx).(*mat.Dense)
			if nth > 0 {
				f.rhsuTH = f.rhs.Slice(0, nu, 1+nx, w).(*mat.Dense)
				f.Kth = f.gain.Slice(0, nu, 1+nx, w).(*mat.Dense)
			}
			f.vu = mat.NewVecDense(nu, nil)
		}
		if nc > 0 {
			f.kktCC = f.kkt.Slice(nu, m, nu, m).(*mat.Dense)
			f.rhscFF = colSegment(f.rhs, 0, nu, m)
			f.rhscFB = f.rhs.Slice(nu, m, 1, 1+nx).(*mat.Dense)
			f.zff = colSegment(f.gain, 0, nu, m)
			f.Z = f.gain.Slice(nu, m, 1, 1+nx).(*mat.Dense)
			if nth > 0 {
				f.Zth = f.gain.Slice(nu, m, 1+nx, w).(*mat.Dense)
			}
			f.vc = mat.NewVecDense(nc, nil)
		}
		if nu > 0 && nc > 0 {
			f.kktRD = f.kkt.Slice(0, nu, nu, m).(*mat.Dense)
			f.kktDR = f.kkt.Slice(nu, m, 0, nu).(*mat.Dense)
		}
	}

	if terminal {
		return f
	}

	f.aT = k.A.T()
	f.ptilde = mat.NewDense(nx2, nx2, nil)
	f.etmp = mat.NewDense(nx2, nx2, nil)
	f.etmpT = f.etmp.T()
	f.schur = mat.NewSymDense(nx2, nil)
	f.vprox = mat.NewDense(nx2, nx2, nil)
	f.wv = mat.NewVecDense(nx2, nil)
	f.lff = mat.NewVecDense(nx2, nil)
	f.L = mat.NewDense(nx2, nx, nil)
	f.aff = mat.NewVecDense(nx2, nil)
	f.Afb = mat.NewDense(nx2, nx, nil)
	f.mx2x = mat.NewDense(nx2, nx, nil)
	f.mx2xb = mat.NewDense(nx2, nx, nil)
	f.vx2 = mat.NewVecDense(nx2, nil)
	f.vx2b = mat.NewVecDense(nx2, nil)
	if nu > 0 {
		f.bT = k.B.T()
		f.mux = mat.NewDense(nu, nx, nil)
		f.mx2u = mat.NewDense(nx2, nu, nil)
	}
	if nth > 0 {
		f.wt = mat.NewDense(nx2, nth, nil)
		f.Lth = mat.NewDense(nx2, nth, nil)
		f.Ath = mat.NewDense(nx2, nth, nil)
		f.mx2t = mat.NewDense(nx2, nth, nil)
		f.mx2tb = mat.NewDense(nx2, nth, nil)
	}
	return f
}

// colSegment returns rows [from, to) of column col as a writable vector view
// sharing the matrix data.
func colSegment(m *mat.Dense, col, from, to int) *mat.VecDense {
	v := m.ColView(col).(*mat.VecDense)
	return v.SliceVec(from, to).(*mat.VecDense)
}
