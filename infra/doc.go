// Package infra holds the adapters around the simulation core: zerolog
// logging, Prometheus and InfluxDB sinks, the MQTT client and the telemetry
// listener. They depend on the interfaces declared under core, never the
// other way round.
package infra
