// Package resource tracks the scalar quantities of a vehicle run. A Resource
// holds a current value and a fixed-capacity history of (elapsed, value)
// samples. A Pool owns one Resource per Key and is the only place simulated
// and live telemetry values are written to.
package resource
