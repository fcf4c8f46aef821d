// Package aligator provides parallel Riccati solvers for the proximally
// regularized linear-quadratic subproblems at the core of augmented
// Lagrangian trajectory optimization.
//
// The module is organized in three packages:
//
//	lqr/             problem description: knots, cost and dynamics blocks,
//	                 horizon partitioning, problem builders, KKT residuals
//	riccati/         the solvers: a serial proximal Riccati sweep and a
//	                 leg-parallel variant coupled by a block-tridiagonal
//	                 condensed system
//	gonumExtensions/ small dense-matrix helpers on top of gonum/mat
//
// cmd/lqbench benchmarks the solvers against each other on integrator-chain
// problems and renders solution trajectories.
package aligator
