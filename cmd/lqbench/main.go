// Package main implements lqbench, a benchmark and demo driver for the
// riccati solvers. It builds integrator-chain steering problems of
// configurable order and horizon, compares the serial and leg-parallel
// solvers, and can render the optimal trajectory to an image.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/ManifoldFR/aligator/gonumExtensions"
	"github.com/ManifoldFR/aligator/lqr"
	"github.com/ManifoldFR/aligator/riccati"
)

var (
	order   int
	ts      float64
	horizon int
	legs    int
	mudyn   float64
	mueq    float64
	rweight float64
	qnScale float64
	iters   int
	outPath string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "lqbench",
	Short: "Benchmark driver for the serial and parallel Riccati solvers",
	Long: `lqbench builds a zero-order-hold discretized integrator chain, steers it
to the origin with the riccati solvers and reports timings and optimality
residuals.

Examples:
  # Compare the serial solver with an 8-leg parallel solve
  lqbench bench --order 3 --horizon 400 --legs 8

  # Render the closed-loop trajectory
  lqbench plot --order 2 --horizon 200 --out traj.png`,
}

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Time the serial solver against the parallel solver",
	RunE:  runBench,
}

var plotCmd = &cobra.Command{
	Use:   "plot",
	Short: "Solve once and render states and control to an image",
	RunE:  runPlot,
}

func init() {
	rootCmd.PersistentFlags().IntVar(&order, "order", 2, "length of the integrator chain")
	rootCmd.PersistentFlags().Float64Var(&ts, "ts", 0.05, "sampling period [s]")
	rootCmd.PersistentFlags().IntVar(&horizon, "horizon", 100, "number of stages")
	rootCmd.PersistentFlags().IntVar(&legs, "legs", 4, "parallel solver leg count")
	rootCmd.PersistentFlags().Float64Var(&mudyn, "mudyn", 1e-8, "dynamics proximal parameter")
	rootCmd.PersistentFlags().Float64Var(&mueq, "mueq", 1e-8, "constraint proximal parameter")
	rootCmd.PersistentFlags().Float64Var(&rweight, "rweight", 0.1, "control cost weight")
	rootCmd.PersistentFlags().Float64Var(&qnScale, "qn", 10, "terminal cost scale")
	benchCmd.Flags().IntVar(&iters, "iters", 50, "timed solves per solver")
	plotCmd.Flags().StringVar(&outPath, "out", "lqbench.png", "output image path")
	rootCmd.AddCommand(benchCmd)
	rootCmd.AddCommand(plotCmd)
}

// buildProblem discretizes an integrator chain and wraps it into a steering
// problem from a unit displacement on the first coordinate.
func buildProblem() (*lqr.Problem, error) {
	A, B := lqr.IntegratorChain(order, 1)
	Ad, Bd := lqr.DiscretizeZOH(A, B, ts)
	Q := gonumExtensions.Eye(order, order, 0)
	R := mat.NewDense(1, 1, []float64{rweight})
	QN := gonumExtensions.Eye(order, order, 0)
	QN.Scale(qnScale, QN)
	x0 := mat.NewVecDense(order, nil)
	x0.SetVec(0, 1)
	return lqr.NewLTIProblem(Ad, Bd, nil, Q, R, QN, x0, horizon)
}

func runBench(cmd *cobra.Command, args []string) error {
	prob, err := buildProblem()
	if err != nil {
		return err
	}
	serial, err := riccati.NewProximalSolver(prob)
	if err != nil {
		return err
	}
	parallel, err := riccati.NewParallelSolver(prob, legs)
	if err != nil {
		return err
	}
	xs, us, vs, lbdas := prob.AllocateTrajectory()

	timeSolver := func(s riccati.Solver) ([]float64, error) {
		samples := make([]float64, iters)
		for i := range samples {
			start := time.Now()
			if err := s.Backward(mudyn, mueq); err != nil {
				return nil, err
			}
			s.Forward(xs, us, vs, lbdas)
			samples[i] = time.Since(start).Seconds() * 1e3
		}
		return samples, nil
	}

	fmt.Printf("integrator chain: order=%d horizon=%d ts=%g mudyn=%g mueq=%g\n",
		order, horizon, ts, mudyn, mueq)
	fmt.Printf("%-20s %10s %10s %10s\n", "solver", "min[ms]", "mean[ms]", "max[ms]")
	report := func(name string, samples []float64) {
		mean := floats.Sum(samples) / float64(len(samples))
		fmt.Printf("%-20s %10.4f %10.4f %10.4f\n", name, floats.Min(samples), mean, floats.Max(samples))
	}

	samples, err := timeSolver(serial)
	if err != nil {
		return err
	}
	report("serial", samples)
	kktSerial := lqr.KKTError(prob, xs, us, vs, lbdas, mudyn, mueq)

	samples, err = timeSolver(parallel)
	if err != nil {
		return err
	}
	report(fmt.Sprintf("parallel/%d", legs), samples)
	kktParallel := lqr.KKTError(prob, xs, us, vs, lbdas, mudyn, mueq)

	fmt.Printf("KKT error: serial %.3e, parallel %.3e\n", kktSerial, kktParallel)
	return nil
}

func runPlot(cmd *cobra.Command, args []string) error {
	prob, err := buildProblem()
	if err != nil {
		return err
	}
	solver, err := riccati.NewParallelSolver(prob, legs)
	if err != nil {
		return err
	}
	if err := solver.Backward(mudyn, mueq); err != nil {
		return err
	}
	xs, us, vs, lbdas := prob.AllocateTrajectory()
	solver.Forward(xs, us, vs, lbdas)

	p := plot.New()
	p.Title.Text = fmt.Sprintf("integrator chain steering, order %d", order)
	p.X.Label.Text = "time [s]"
	p.Y.Label.Text = "state / control"

	lines := make([]interface{}, 0, 2*(order+1))
	for i := 0; i < order; i++ {
		pts := make(plotter.XYs, len(xs))
		for k := range xs {
			pts[k].X = float64(k) * ts
			pts[k].Y = xs[k].AtVec(i)
		}
		lines = append(lines, fmt.Sprintf("x%d", i+1), pts)
	}
	upts := make(plotter.XYs, 0, len(us))
	for k, u := range us {
		if u == nil {
			continue
		}
		upts = append(upts, plotter.XY{X: float64(k) * ts, Y: u.AtVec(0)})
	}
	lines = append(lines, "u", upts)
	if err := plotutil.AddLines(p, lines...); err != nil {
		return err
	}
	if err := p.Save(6*vg.Inch, 4*vg.Inch, outPath); err != nil {
		return err
	}
	fmt.Printf("wrote %s (KKT error %.3e)\n", outPath,
		lqr.KKTError(prob, xs, us, vs, lbdas, mudyn, mueq))
	return nil
}
