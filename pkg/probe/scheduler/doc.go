// Package scheduler runs probes against configured targets on cron
// schedules.
//
// Each target gets its own cron entry, using the target's schedule when set
// and the probe default otherwise. Completed results fan out to a Sink
// (typically the async recorder) and any registered Observers (metrics,
// per-target state tracking).
//
// Reload swaps the scheduled target set in place, which is how config hot
// reload reaches the scheduler without restarting in-flight probes.
package scheduler
