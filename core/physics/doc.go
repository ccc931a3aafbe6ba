// Package physics converts physical conditions into power and charge figures.
//
// Units are fixed across the package: power in watts, durations as
// time.Duration, velocity in m/s and battery charge in ampere-hours. Energy
// is converted to charge with
//
//	ΔAh = P[W] · Δt[s] / SecondsPerHour / V_nominal
//
// so repeated application over many ticks never mixes Wh and Ah.
package physics
