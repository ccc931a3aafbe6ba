package behavior

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownBehavior matches every *UnknownBehaviorError.
	ErrUnknownBehavior = errors.New("unknown behavior")
	// ErrNegativeVelocity is returned for a driving target below zero.
	ErrNegativeVelocity = errors.New("target velocity must not be negative")
)

// UnknownBehaviorError reports a behavior name the factory cannot build.
type UnknownBehaviorError struct {
	Name string
}

func (e *UnknownBehaviorError) Error() string {
	return fmt.Sprintf("unknown behavior %q", e.Name)
}

// Is lets errors.Is(err, ErrUnknownBehavior) match.
func (e *UnknownBehaviorError) Is(target error) bool { return target == ErrUnknownBehavior }
