// Package observability wires the console's logging, tracing, and
// metrics plumbing: logrus setup from configuration, an OTLP trace
// exporter, a Prometheus registry with the standard process collectors,
// and a signal-driven graceful shutdown helper.
package observability
