// Package probe defines the probe domain model: results, queries, storage
// interfaces, and the prober that executes traced HTTP requests.
//
// # Architecture
//
// The probing system consists of four layers:
//
//  1. Prober - executes a single traced HTTP request against a target
//  2. Recorder - persists results asynchronously (probe/recorder)
//  3. Storage Backend - SQLite or in-memory (probe/storage)
//  4. Query/Export - retrieval and serialization (probe/query, probe/export)
//
// # Results
//
// Each probe produces a Result capturing the phase breakdown of the request
// (DNS lookup, TCP connect, TLS handshake, server processing, content
// transfer), the HTTP outcome, the resolved address, and a failure
// classification when something went wrong. A failed request is a recorded
// outcome, not a fatal condition: the prober never aborts on request
// construction or execution errors.
//
// # Basic usage
//
//	prober := probe.NewProber(cfg.Probe, nil)
//	result := prober.Probe(ctx, config.TargetConfig{
//	    Name: "example",
//	    URL:  "https://example.com/",
//	})
//	fmt.Println(result.Total, result.StatusCode, result.ErrorClass)
package probe
