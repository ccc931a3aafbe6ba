package sim

import (
	"errors"

	"github.com/kilianp07/solarsim/core/resource"
)

var (
	// ErrNegativeStep is returned by Step for dt < 0.
	ErrNegativeStep = errors.New("negative time step")
	// ErrTimeRegression is returned by Step when now precedes the start
	// time or the previous tick.
	ErrTimeRegression = resource.ErrTimeRegression
	// ErrInvalidStep is returned by NewRunner for a non-positive step.
	ErrInvalidStep = errors.New("step must be positive")
	// ErrEmptySchedule is returned by NewRunner when there is nothing to run.
	ErrEmptySchedule = errors.New("schedule has no legs")
)
