package state

import "time"

// TargetState is the rolling operational state of one probe target.
type TargetState struct {
	// Target is the target name from config.
	Target string `json:"target"`

	// LastProbeTime is when the target was last probed.
	LastProbeTime time.Time `json:"last_probe_time"`

	// LastStatus is "success" or "error" for the most recent probe.
	LastStatus string `json:"last_status"`

	// LastError holds the most recent failure message, if any.
	LastError string `json:"last_error,omitempty"`

	// LastErrorClass holds the most recent failure class, if any.
	LastErrorClass string `json:"last_error_class,omitempty"`

	// LastTotal is the total duration of the most recent probe.
	LastTotal time.Duration `json:"last_total"`

	// ConsecutiveFailures counts failures since the last success.
	ConsecutiveFailures int `json:"consecutive_failures"`

	// TotalProbes and TotalFailures count over the tracker's lifetime.
	TotalProbes   int64 `json:"total_probes"`
	TotalFailures int64 `json:"total_failures"`

	// Window holds the outcomes of the most recent probes, true for
	// success, oldest first. Availability is derived from it.
	Window []bool `json:"window"`

	// CreatedAt is when this target was first observed.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is when this state was last modified.
	UpdatedAt time.Time `json:"updated_at"`
}

// Availability returns the success ratio over the rolling window, in the
// range [0, 1]. Returns 1 when no probes have been observed yet.
func (s *TargetState) Availability() float64 {
	if len(s.Window) == 0 {
		return 1
	}
	ok := 0
	for _, success := range s.Window {
		if success {
			ok++
		}
	}
	return float64(ok) / float64(len(s.Window))
}

// Up reports whether the most recent probe succeeded.
func (s *TargetState) Up() bool {
	return s.LastStatus == "success"
}
