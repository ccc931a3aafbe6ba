package physics

import (
	"fmt"
	"math"
	"time"
)

// Panel models a solar array under a clear-sky irradiance curve: a half sine
// between sunrise and sunset centred on SolarNoon, with a day length that
// swings over the year.
type Panel struct {
	AreaM2          float64 `json:"area_m2" yaml:"area_m2"`
	Efficiency      float64 `json:"efficiency" yaml:"efficiency"`               // (0,1]
	PeakIrradiance  float64 `json:"peak_irradiance" yaml:"peak_irradiance"`     // W/m² at solar noon
	SolarNoon       float64 `json:"solar_noon" yaml:"solar_noon"`               // local hour
	DayLengthHours  float64 `json:"day_length_hours" yaml:"day_length_hours"`   // at the equinox
	SeasonalSwingHr float64 `json:"seasonal_swing_hr" yaml:"seasonal_swing_hr"` // +/- hours between solstices
}

// DefaultPanel returns a 6 m² array with 22% cells.
func DefaultPanel() Panel {
	return Panel{
		AreaM2:          6,
		Efficiency:      0.22,
		PeakIrradiance:  1000,
		SolarNoon:       12,
		DayLengthHours:  12,
		SeasonalSwingHr: 2,
	}
}

// Validate checks that the panel parameters are usable.
func (p Panel) Validate() error {
	if p.AreaM2 < 0 || p.PeakIrradiance < 0 {
		return fmt.Errorf("area and irradiance must not be negative")
	}
	if p.Efficiency < 0 || p.Efficiency > 1 {
		return fmt.Errorf("efficiency must be in [0,1]")
	}
	if p.SolarNoon < 0 || p.SolarNoon >= 24 {
		return fmt.Errorf("solar noon must be in [0,24)")
	}
	return nil
}

// DayLength returns the daylight hours on the day of t, clamped to [0,24].
// Day 172 (June solstice) is the longest day.
func (p Panel) DayLength(t time.Time) float64 {
	phase := 2 * math.Pi * float64(t.YearDay()-80) / 365
	l := p.DayLengthHours + p.SeasonalSwingHr*math.Sin(phase)
	return math.Max(0, math.Min(24, l))
}

// Irradiance returns the clear-sky irradiance in W/m² at t.
func (p Panel) Irradiance(t time.Time) float64 {
	length := p.DayLength(t)
	if length == 0 {
		return 0
	}
	hour := float64(t.Hour()) + float64(t.Minute())/60 + float64(t.Second())/3600
	sunrise := p.SolarNoon - length/2
	// hours since sunrise, wrapped so windows crossing midnight still work
	since := math.Mod(hour-sunrise, 24)
	if since < 0 {
		since += 24
	}
	if since >= length {
		return 0
	}
	return p.PeakIrradiance * math.Sin(math.Pi*since/length)
}

// PowerAt returns the electrical output in W at t.
func (p Panel) PowerAt(t time.Time) float64 {
	return p.Irradiance(t) * p.AreaM2 * p.Efficiency
}
