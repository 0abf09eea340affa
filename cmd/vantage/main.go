// Vantage is an HTTP endpoint latency probe.
//
// It issues traced HTTP requests against configured targets and breaks each
// exchange into phases: DNS lookup, TCP connection, TLS handshake, server
// processing, and content transfer. Results are stored, aggregated into
// per-target state, and exposed over an HTTP API and Prometheus metrics.
//
// Usage:
//
//	# Start the probe daemon with default configuration
//	vantage run
//
//	# Start with a custom configuration file
//	vantage run --config /etc/vantage/config.yaml
//
//	# One-shot probe with a phase timing breakdown
//	vantage trace https://example.com/
//
//	# Query stored results
//	vantage results --target api --status error --limit 20
//
//	# Show rolling target state
//	vantage targets
//
//	# Validate a configuration file
//	vantage validate --config config.yaml
package main

func main() {
	Execute()
}
