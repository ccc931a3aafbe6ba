// Package telemetry ingests live readings from the vehicle into a resource
// pool. Messages are ';'-separated key:value fields with integer values,
// for example "cabintemp:42;bat volt:58".
package telemetry

import (
	"strconv"
	"strings"

	"github.com/kilianp07/solarsim/core/resource"
)

// Control is a message that steers the connection instead of carrying data.
type Control int

const (
	ControlNone Control = iota
	// ControlQuit closes the current connection and keeps listening.
	ControlQuit
	// ControlStop terminates the listener.
	ControlStop
)

func (c Control) String() string {
	switch c {
	case ControlQuit:
		return "quit"
	case ControlStop:
		return "stop"
	default:
		return "none"
	}
}

// Update is one accepted telemetry reading.
type Update struct {
	Key   resource.Key
	Value int
}

// ParseControl recognises the exact messages "quit" and "stop".
func ParseControl(msg string) Control {
	switch msg {
	case "quit":
		return ControlQuit
	case "stop":
		return ControlStop
	default:
		return ControlNone
	}
}

// ParseMessage splits msg into fields and returns the valid updates in
// message order. Each invalid field yields an *InvalidFieldError and does not
// affect the others. Empty fields, such as the one after a trailing ';', are
// ignored.
func ParseMessage(msg string) ([]Update, []error) {
	var (
		updates []Update
		errs    []error
	)
	for _, field := range strings.Split(msg, ";") {
		if strings.TrimSpace(field) == "" {
			continue
		}
		u, err := ParseField(field)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		updates = append(updates, u)
	}
	return updates, errs
}

// ParseField parses a single key:value field. The field must contain exactly
// one ':'; the key must be a telemetry identifier and the value an integer.
func ParseField(field string) (Update, error) {
	parts := strings.Split(field, ":")
	if len(parts) != 2 {
		return Update{}, &InvalidFieldError{Field: field, Reason: ReasonMalformed}
	}
	key, err := resource.ParseTelemetryKey(parts[0])
	if err != nil {
		return Update{}, &InvalidFieldError{Field: field, Reason: ReasonUnknownKey, Err: err}
	}
	v, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return Update{}, &InvalidFieldError{Field: field, Reason: ReasonBadValue, Err: err}
	}
	return Update{Key: key, Value: v}, nil
}
