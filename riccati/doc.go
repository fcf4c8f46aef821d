// Package riccati solves proximally regularized linear-quadratic problems by
// Riccati recursion.
//
// Two solvers share one interface. ProximalSolver runs the classical backward
// sweep over the whole horizon and closes the loop with a dense solve of the
// initial-stage KKT system. ParallelSolver cuts the horizon into contiguous
// legs, runs the backward sweep of every leg concurrently with the leg's
// boundary costate kept symbolic, couples the legs through a small symmetric
// block-tridiagonal system, and rolls the trajectory out leg-parallel.
//
// Both solvers allocate every factorization and scratch buffer at
// construction and rewrite them in place, so the outer solver can call
// Backward and Forward once per iterate at interactive rates. Forward is
// allocation-free; Backward's only steady-state allocations are the
// condition-estimation scratch gonum's LU and Cholesky factorizations draw
// from their internal pools, about three short-lived slices per
// factorization, plus the per-leg goroutines of ParallelSolver.
package riccati
