package metrics

import "github.com/kilianp07/solarsim/core/factory"

// Config defines settings for metrics sinks.
type Config struct {
	Sinks []factory.ModuleConfig `json:"sinks" yaml:"sinks"`
	// PrometheusAddr enables the /metrics HTTP endpoint when set. The status
	// API is served on the same address.
	PrometheusAddr string `json:"prometheus_addr" yaml:"prometheus_addr"`
	// APIToken guards /api/ticks with a bearer token when set.
	APIToken string `json:"api_token" yaml:"api_token,omitempty"`
}
