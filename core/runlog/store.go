// Package runlog persists one record per simulation tick so a run can be
// inspected after the fact.
package runlog

import (
	"context"
	"time"
)

// Record captures the state of a run after one tick.
type Record struct {
	RunID     string    `json:"run_id" csv:"run_id"`
	Timestamp time.Time `json:"timestamp" csv:"timestamp"`
	Elapsed   float64   `json:"elapsed_s" csv:"elapsed_s"`
	Leg       int       `json:"leg" csv:"leg"`
	Behavior  string    `json:"behavior" csv:"behavior"`
	Velocity  float64   `json:"velocity" csv:"velocity"`
	Charge    float64   `json:"charge_ah" csv:"charge_ah"`
	SolarW    float64   `json:"solar_w" csv:"solar_w"`
	DemandW   float64   `json:"demand_w" csv:"demand_w"`
	Distance  float64   `json:"distance_m" csv:"distance_m"`
	Exhausted bool      `json:"exhausted" csv:"exhausted"`
}

// Query defines filters for retrieving records. Zero fields match everything.
type Query struct {
	RunID    string
	Start    time.Time
	End      time.Time
	Behavior string
}

// Match reports whether r passes every filter of q.
func (q Query) Match(r Record) bool {
	if q.RunID != "" && r.RunID != q.RunID {
		return false
	}
	if !q.Start.IsZero() && r.Timestamp.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && r.Timestamp.After(q.End) {
		return false
	}
	if q.Behavior != "" && r.Behavior != q.Behavior {
		return false
	}
	return true
}

// LogStore persists Records and supports querying.
type LogStore interface {
	Append(ctx context.Context, rec Record) error
	Query(ctx context.Context, q Query) ([]Record, error)
	Close() error
}
