package resource

import "errors"

var (
	// ErrUnknownKey is returned for identifiers outside the Key enumeration.
	ErrUnknownKey = errors.New("unknown resource key")
	// ErrTimeRegression is returned when a record would move elapsed time backwards.
	ErrTimeRegression = errors.New("elapsed time moved backwards")
)
