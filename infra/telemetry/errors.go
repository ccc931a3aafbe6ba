package telemetry

import (
	"errors"
	"fmt"
)

// ErrInvalidField matches every *InvalidFieldError.
var ErrInvalidField = errors.New("invalid telemetry field")

// Reasons reported by InvalidFieldError.
const (
	ReasonMalformed  = "malformed"
	ReasonUnknownKey = "unknown_key"
	ReasonBadValue   = "bad_value"
)

// InvalidFieldError reports one key:value field that was skipped.
type InvalidFieldError struct {
	Field  string
	Reason string
	Err    error
}

func (e *InvalidFieldError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid field %q (%s): %v", e.Field, e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid field %q (%s)", e.Field, e.Reason)
}

func (e *InvalidFieldError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrInvalidField) match.
func (e *InvalidFieldError) Is(target error) bool { return target == ErrInvalidField }

// SocketSetupError is returned when the listener cannot bind its address.
type SocketSetupError struct {
	Addr string
	Err  error
}

func (e *SocketSetupError) Error() string {
	return fmt.Sprintf("telemetry socket setup on %s: %v", e.Addr, e.Err)
}

func (e *SocketSetupError) Unwrap() error { return e.Err }
