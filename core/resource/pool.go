package resource

import (
	"fmt"
	"sync"
)

// Pool holds every tracked resource of one vehicle run. It is owned by a
// single model and handed by reference to telemetry ingestion and exporters.
type Pool struct {
	resources map[Key]*Resource
	capacity  int

	mu          sync.Mutex
	lastElapsed float64
	recorded    bool
}

// NewPool creates a pool whose resources keep capacity samples each.
func NewPool(capacity int) *Pool {
	if capacity < 0 {
		capacity = 0
	}
	p := &Pool{resources: make(map[Key]*Resource, len(Keys)), capacity: capacity}
	for _, k := range Keys {
		p.resources[k] = New(k, capacity)
	}
	return p
}

// Get returns the resource bound to k. Every Key is bound.
func (p *Pool) Get(k Key) *Resource { return p.resources[k] }

// Battery returns the battery charge resource (Ah).
func (p *Pool) Battery() *Resource { return p.resources[BatteryCharge] }

// Velocity returns the velocity resource (m/s).
func (p *Pool) Velocity() *Resource { return p.resources[Velocity] }

// ElapsedTime returns the elapsed simulated time resource (s).
func (p *Pool) ElapsedTime() *Resource { return p.resources[Elapsed] }

// Capacity returns the history size of each resource.
func (p *Pool) Capacity() int { return p.capacity }

// Set writes v as the current value of k. It is safe to call concurrently
// with Record and with the simulation writing other resources.
func (p *Pool) Set(k Key, v float64) error {
	r, ok := p.resources[k]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownKey, int(k))
	}
	r.Set(v)
	return nil
}

// Record stores elapsed as the current elapsed time and appends the current
// value of every resource to its history.
func (p *Pool) Record(elapsed float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.recorded && elapsed < p.lastElapsed {
		return fmt.Errorf("%w: %g < %g", ErrTimeRegression, elapsed, p.lastElapsed)
	}
	p.lastElapsed = elapsed
	p.recorded = true
	p.resources[Elapsed].Set(elapsed)
	for _, k := range Keys {
		p.resources[k].record(elapsed)
	}
	return nil
}

// Table is the tabular form of a pool history.
type Table struct {
	Columns []string
	Rows    [][]float64
}

// Table returns one row per retained sample, oldest first, with one column
// per resource in Keys order.
func (p *Pool) Table() Table {
	p.mu.Lock()
	defer p.mu.Unlock()
	t := Table{Columns: make([]string, len(Keys))}
	hists := make([][]Sample, len(Keys))
	for i, k := range Keys {
		t.Columns[i] = k.String()
		hists[i] = p.resources[k].History()
	}
	t.Rows = make([][]float64, p.capacity)
	for row := 0; row < p.capacity; row++ {
		vals := make([]float64, len(Keys))
		for col := range Keys {
			vals[col] = hists[col][row].Value
		}
		t.Rows[row] = vals
	}
	return t
}

// Snapshot returns the current value of every resource keyed by identifier.
func (p *Pool) Snapshot() map[string]float64 {
	out := make(map[string]float64, len(Keys))
	for _, k := range Keys {
		out[k.String()] = p.resources[k].Value()
	}
	return out
}
