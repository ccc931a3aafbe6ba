package resource

// Level grades a value against the hazard bands of its resource.
type Level int

const (
	LevelSafe Level = iota
	LevelWarn
	LevelDanger
)

func (l Level) String() string {
	switch l {
	case LevelSafe:
		return "safe"
	case LevelWarn:
		return "warn"
	default:
		return "danger"
	}
}

// Range is the half-open interval [Min, Max).
type Range struct {
	Min, Max float64
}

// Contains reports whether v lies in the range.
func (r Range) Contains(v float64) bool { return v >= r.Min && v < r.Max }

// Bands are the hazard zones of a resource. Safe lies inside Warn; anything
// outside Warn is dangerous.
type Bands struct {
	Safe Range
	Warn Range
}

// Level returns the zone v falls in.
func (b Bands) Level(v float64) Level {
	switch {
	case b.Safe.Contains(v):
		return LevelSafe
	case b.Warn.Contains(v):
		return LevelWarn
	default:
		return LevelDanger
	}
}
