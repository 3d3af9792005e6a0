package trainer

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/neurlang/hmmgrad/logger"
	"gonum.org/v1/gonum/optimize"
)

// Settings configure Train. Zero fields take gonum's defaults.
type Settings struct {
	MaxIterations     int     // major iterations, 0 is unlimited
	GradientThreshold float64 // stop when the infinity norm of the gradient is below
	Store             int     // LBFGS memory

	Recorder   optimize.Recorder // e.g. a journal run
	Checkpoint string            // written with the final parameters when not empty

	Logger *slog.Logger
}

// Result of a training run.
type Result struct {
	Value       float64
	Parameters  []float64
	Status      optimize.Status
	Iterations  int
	Evaluations int
	Runtime     time.Duration
}

// ErrInfeasibleStart is returned when the starting point has no finite value.
var ErrInfeasibleStart = errors.New("objective is not finite at the starting point")

// Train minimizes fn starting at its current parameters with LBFGS and a
// backtracking line search. A trial point with an infinite value fails the
// sufficient decrease test and only shrinks the step. On return fn is set to
// the best parameters found.
func Train(fn Function, s Settings) (*Result, error) {
	log := s.Logger
	if log == nil {
		log = logger.ForComponent("trainer")
	}
	f0 := fn.Value()
	if math.IsInf(f0, 0) || math.IsNaN(f0) {
		return nil, fmt.Errorf("%w: %v", ErrInfeasibleStart, f0)
	}

	x0 := fn.Parameters()
	settings := &optimize.Settings{
		InitValues: &optimize.Location{
			F:        f0,
			Gradient: append([]float64(nil), fn.Gradient()...),
		},
		GradientThreshold: s.GradientThreshold,
		MajorIterations:   s.MaxIterations,
		Recorder:          s.Recorder,
	}
	method := &optimize.LBFGS{
		Linesearcher: &optimize.Backtracking{},
		Store:        s.Store,
	}

	log.Info("starting optimization", "parameters", len(x0), "value", f0, "max_iterations", s.MaxIterations)
	res, err := optimize.Minimize(Problem(fn), append([]float64(nil), x0...), settings, method)
	if res == nil {
		return nil, err
	}
	if err != nil {
		// the line search giving up still leaves a usable best point
		log.Warn("optimizer stopped early", "err", err, "status", res.Status)
	}
	best := res.X
	if !(res.F <= f0) {
		best = x0
	}
	fn.SetParameters(best)

	out := &Result{
		Value:       fn.Value(),
		Parameters:  fn.Parameters(),
		Status:      res.Status,
		Iterations:  res.MajorIterations,
		Evaluations: res.FuncEvaluations,
		Runtime:     res.Runtime,
	}
	log.Info("finished optimization",
		"value", out.Value,
		"status", out.Status,
		"iterations", out.Iterations,
		"evaluations", out.Evaluations,
		"runtime", out.Runtime)

	if s.Checkpoint != "" {
		if err := WriteCheckpointFile(s.Checkpoint, fn); err != nil {
			return out, err
		}
		log.Info("wrote checkpoint", "path", s.Checkpoint)
	}
	return out, nil
}
