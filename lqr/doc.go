// Package lqr describes proximally regularized linear-quadratic trajectory
// subproblems as sequences of knots.
//
// A knot holds the data of one stage t:
//
//	cost        ½ xᵀQx + xᵀSu + ½ uᵀRu + Qvᵀx + Rvᵀu
//	dynamics    A x + B u + E x' + F = 0
//	constraint  C x + D u + Dv = 0
//
// where x' is the state of the next stage and E is the coupling matrix whose
// Lagrange multiplier is the next costate. A problem is a knot sequence plus
// an affine initial-condition constraint G0 x₀ + g0 = 0.
//
// Knots may additionally be parameterized by a vector θ contributing
// xᵀGx θ + uᵀGu θ + ½ θᵀGth θ + Gammaᵀθ to the stage cost. The Riccati
// solvers use this to stitch horizon legs together at their boundaries;
// user-built problems leave Nth at zero.
//
// Dynamics and constraints are enforced in the proximally relaxed sense: a
// positive dual regularization mudyn (resp. mueq) turns the row into
// A x + B u + E x' + F = mudyn·λ', with the multipliers recovered alongside
// the primal trajectory.
package lqr
