// Package health provides liveness and readiness checks for the probe
// service.
//
// Components register CheckFuncs with the Checker (storage ping, scheduler
// running). Liveness always reports ok while the process runs; readiness
// aggregates all registered checks, degrading to 503 when any fail. The
// handlers are mounted on the API server at /health, /ready, and /version.
package health
