package resource

import (
	"fmt"
	"math"
)

// Key identifies a tracked resource.
type Key int

const (
	BatteryCharge Key = iota
	Velocity
	Elapsed
	CabinTemp
	MotorTemp
	BatteryTemp
	MotorRPM
	SolarVolt
	BatteryVolt
)

// Keys lists every Key in column order.
var Keys = []Key{
	Elapsed,
	BatteryCharge,
	Velocity,
	CabinTemp,
	MotorTemp,
	BatteryTemp,
	MotorRPM,
	SolarVolt,
	BatteryVolt,
}

// TelemetryKeys are the keys accepted on the live telemetry feed.
var TelemetryKeys = []Key{CabinTemp, MotorTemp, BatteryTemp, MotorRPM, SolarVolt, BatteryVolt}

type keyInfo struct {
	id    string
	name  string
	unit  string
	bands Bands
}

var inf = math.Inf(1)

// Zero readings fall in the safe band of every key so an idle pool reports
// no hazard before telemetry arrives.
var keyInfos = map[Key]keyInfo{
	BatteryCharge: {"battery charge", "Battery Charge", "Ah", Bands{Safe: Range{5, inf}, Warn: Range{0, inf}}},
	Velocity:      {"velocity", "Velocity", "m/s", Bands{Safe: Range{0, 30}, Warn: Range{0, 40}}},
	Elapsed:       {"elapsed", "Elapsed Time", "s", Bands{Safe: Range{0, inf}, Warn: Range{0, inf}}},
	CabinTemp:     {"cabintemp", "Cabin Temp", "°C", Bands{Safe: Range{-10, 35}, Warn: Range{-20, 45}}},
	MotorTemp:     {"motortemp", "Motor Temp", "°C", Bands{Safe: Range{-20, 80}, Warn: Range{-30, 110}}},
	BatteryTemp:   {"batterytemp", "Battery Temp", "°C", Bands{Safe: Range{-10, 45}, Warn: Range{-20, 60}}},
	MotorRPM:      {"motor rpm", "Motor RPM", "rpm", Bands{Safe: Range{0, 5000}, Warn: Range{0, 7000}}},
	SolarVolt:     {"solar volt", "Solar Volt", "V", Bands{Safe: Range{0, 120}, Warn: Range{0, 150}}},
	BatteryVolt:   {"bat volt", "Battery Volt", "V", Bands{Safe: Range{0, 104}, Warn: Range{0, 110}}},
}

// String returns the wire identifier of the key.
func (k Key) String() string {
	if info, ok := keyInfos[k]; ok {
		return info.id
	}
	return fmt.Sprintf("Key(%d)", int(k))
}

// DisplayName returns the human readable label of the key.
func (k Key) DisplayName() string { return keyInfos[k].name }

// Unit returns the display unit of the key.
func (k Key) Unit() string { return keyInfos[k].unit }

// Bands returns the default hazard bands of the key.
func (k Key) Bands() Bands { return keyInfos[k].bands }

// IsTelemetry reports whether k may be written by the telemetry feed.
func (k Key) IsTelemetry() bool {
	for _, t := range TelemetryKeys {
		if t == k {
			return true
		}
	}
	return false
}

// ParseTelemetryKey maps a telemetry identifier such as "motor rpm" to its Key.
func ParseTelemetryKey(id string) (Key, error) {
	for _, k := range TelemetryKeys {
		if keyInfos[k].id == id {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKey, id)
}

// ParseKey maps any resource identifier, e.g. "battery charge", to its Key.
func ParseKey(id string) (Key, error) {
	for _, k := range Keys {
		if keyInfos[k].id == id {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKey, id)
}
