package resource

import (
	"strconv"
	"sync"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// DefaultHistorySize is the number of samples kept per resource.
const DefaultHistorySize = 100

// Sample is one recorded point of a resource history.
type Sample struct {
	Elapsed float64 `json:"elapsed"` // seconds since the run started
	Value   float64 `json:"value"`
}

// Bounds spans a history in the time (X) and value (Y) domain.
type Bounds struct {
	XMin, XMax float64
	YMin, YMax float64
}

// Stats summarises the values of a history.
type Stats struct {
	Mean float64
	Min  float64
	Max  float64
}

// Resource is a scalar quantity with a sliding window of past samples.
type Resource struct {
	key Key

	mu    sync.RWMutex
	value float64
	hist  []Sample
	head  int // index of the oldest sample
}

// New returns a resource whose history is pre-filled with capacity zero samples.
func New(key Key, capacity int) *Resource {
	if capacity < 0 {
		capacity = 0
	}
	return &Resource{key: key, hist: make([]Sample, capacity)}
}

// Key returns the identifier of the resource.
func (r *Resource) Key() Key { return r.key }

// Name returns the display name.
func (r *Resource) Name() string { return r.key.DisplayName() }

// Unit returns the display unit.
func (r *Resource) Unit() string { return r.key.Unit() }

// Value returns the current value.
func (r *Resource) Value() float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.value
}

// Set replaces the current value.
func (r *Resource) Set(v float64) {
	r.mu.Lock()
	r.value = v
	r.mu.Unlock()
}

// Add adds delta to the current value and returns the new value.
func (r *Resource) Add(delta float64) float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.value += delta
	return r.value
}

// QuickText formats the current value followed by its unit, e.g. "42 °C".
func (r *Resource) QuickText() string {
	return strconv.FormatFloat(r.Value(), 'f', -1, 64) + " " + r.Unit()
}

// Level grades the current value against the hazard bands of the key.
func (r *Resource) Level() Level { return r.key.Bands().Level(r.Value()) }

// Capacity returns the fixed history length.
func (r *Resource) Capacity() int { return len(r.hist) }

// record appends the current value at elapsed, evicting the oldest sample.
func (r *Resource) record(elapsed float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.hist) == 0 {
		return
	}
	r.hist[r.head] = Sample{Elapsed: elapsed, Value: r.value}
	r.head = (r.head + 1) % len(r.hist)
}

// History returns a copy of the samples, oldest first.
func (r *Resource) History() []Sample {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Sample, 0, len(r.hist))
	out = append(out, r.hist[r.head:]...)
	return append(out, r.hist[:r.head]...)
}

// MinMax returns the bounds of the history for display scaling. A flat range
// is widened by one unit on the max side so both spans are always positive.
func (r *Resource) MinMax() Bounds {
	xs, ys := r.series()
	if len(xs) == 0 {
		return Bounds{XMin: 0, XMax: 1, YMin: 0, YMax: 1}
	}
	b := Bounds{
		XMin: floats.Min(xs), XMax: floats.Max(xs),
		YMin: floats.Min(ys), YMax: floats.Max(ys),
	}
	if b.XMax <= b.XMin {
		b.XMax = b.XMin + 1
	}
	if b.YMax <= b.YMin {
		b.YMax = b.YMin + 1
	}
	return b
}

// Stats returns the mean, min and max of the history values.
func (r *Resource) Stats() Stats {
	_, ys := r.series()
	if len(ys) == 0 {
		return Stats{}
	}
	return Stats{Mean: stat.Mean(ys, nil), Min: floats.Min(ys), Max: floats.Max(ys)}
}

func (r *Resource) series() (xs, ys []float64) {
	h := r.History()
	xs = make([]float64, len(h))
	ys = make([]float64, len(h))
	for i, s := range h {
		xs[i] = s.Elapsed
		ys[i] = s.Value
	}
	return xs, ys
}
