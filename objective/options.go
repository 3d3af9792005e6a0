package objective

import (
	"io"
	"log/slog"
	"os"

	"github.com/neurlang/hmmgrad/logger"
)

// InitMode selects how the parameter vector is seeded at construction.
type InitMode int

const (
	// InitFromCounts runs one expectation pass under the model's current
	// probabilities and converts the expected counts into weights, a one step
	// EM warm start. Random soft-max weights tend to start in regions with
	// huge gradients where the optimization diverges.
	InitFromCounts InitMode = iota

	// InitRandom draws weights uniformly from [0, 1) using Options.Seed. It is
	// meant for exercising the infeasible-point handling, not for training.
	InitRandom
)

// Options configure an Objective.
type Options struct {
	PriorVariance float64 // σ² of the Gaussian prior, penalty ‖p‖²/σ²; must be > 0

	Workers int // sentences are split over this many goroutines; 0 or 1 is sequential

	Init InitMode
	Seed int64 // seed for InitRandom

	CheckGradientOnInit bool // run CheckGradient at the end of New
	CheckGradientOnSet  bool // run CheckGradient after every SetParameters

	GradientCheck GradientCheckOptions

	Logger *slog.Logger // nil logs through logger.ForComponent("objective")
	Output io.Writer    // gradient check tables, nil is os.Stderr
}

// GradientCheckOptions tune CheckGradient. Zero fields take the defaults.
type GradientCheckOptions struct {
	MaxDirections int     // coordinates probed, default 100
	Epsilon       float64 // perturbation size, default 1e-4
	Threshold     float64 // minimal cosine similarity, default 0.97
	Seed          uint32  // selects the probed coordinates
}

func (o GradientCheckOptions) withDefaults() GradientCheckOptions {
	if o.MaxDirections <= 0 {
		o.MaxDirections = 100
	}
	if o.Epsilon == 0 {
		o.Epsilon = 1e-4
	}
	if o.Threshold == 0 {
		o.Threshold = 0.97
	}
	return o
}

func (o Options) withDefaults() Options {
	if o.Logger == nil {
		o.Logger = logger.ForComponent("objective")
	}
	if o.Output == nil {
		o.Output = os.Stderr
	}
	if o.Workers < 1 {
		o.Workers = 1
	}
	o.GradientCheck = o.GradientCheck.withDefaults()
	return o
}
