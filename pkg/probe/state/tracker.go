package state

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"mercator-hq/vantage/pkg/probe"
)

// Store persists target states across restarts.
type Store interface {
	Save(ctx context.Context, state *TargetState) error
	Load(ctx context.Context, target string) (*TargetState, error)
	List(ctx context.Context) ([]*TargetState, error)
	Delete(ctx context.Context, target string) error
	Close() error
}

// Tracker maintains per-target operational state from a stream of probe
// results: last outcome, consecutive failures, and availability over a
// rolling window of recent probes.
//
// Tracker implements the scheduler's Observer interface; plug it into the
// scheduler alongside the recorder. A nil Store keeps state in memory only.
type Tracker struct {
	store      Store
	windowSize int
	states     map[string]*TargetState
	mu         sync.RWMutex
	logger     *slog.Logger
}

// NewTracker creates a tracker with the given rolling window size. If store
// is non-nil, previously persisted states are loaded so availability and
// failure counters survive restarts.
func NewTracker(store Store, windowSize int) (*Tracker, error) {
	if windowSize <= 0 {
		windowSize = 100
	}

	t := &Tracker{
		store:      store,
		windowSize: windowSize,
		states:     make(map[string]*TargetState),
		logger:     slog.Default().With("component", "probe.state"),
	}

	if store != nil {
		states, err := store.List(context.Background())
		if err != nil {
			return nil, err
		}
		for _, state := range states {
			t.states[state.Target] = state
		}
		if len(states) > 0 {
			t.logger.Info("restored target states", "targets", len(states))
		}
	}

	return t, nil
}

// Observe folds a probe result into the target's state and persists it.
func (t *Tracker) Observe(result *probe.Result) {
	t.mu.Lock()

	state, ok := t.states[result.Target]
	if !ok {
		state = &TargetState{
			Target:    result.Target,
			CreatedAt: time.Now(),
		}
		t.states[result.Target] = state
	}

	success := result.Success()

	state.LastProbeTime = result.StartTime
	state.LastStatus = result.Status()
	state.LastError = result.Error
	state.LastErrorClass = result.ErrorClass
	state.LastTotal = result.Total
	state.TotalProbes++
	if success {
		state.ConsecutiveFailures = 0
	} else {
		state.ConsecutiveFailures++
		state.TotalFailures++
	}

	state.Window = append(state.Window, success)
	if len(state.Window) > t.windowSize {
		state.Window = state.Window[len(state.Window)-t.windowSize:]
	}

	state.UpdatedAt = time.Now()

	// Copy for persistence outside the lock.
	snapshot := *state
	snapshot.Window = append([]bool(nil), state.Window...)
	t.mu.Unlock()

	if t.store != nil {
		if err := t.store.Save(context.Background(), &snapshot); err != nil {
			t.logger.Error("failed to persist target state",
				"target", result.Target,
				"error", err,
			)
		}
	}

	if !success && snapshot.ConsecutiveFailures >= 3 {
		t.logger.Warn("target failing repeatedly",
			"target", result.Target,
			"consecutive_failures", snapshot.ConsecutiveFailures,
			"error_class", result.ErrorClass,
		)
	}
}

// Get returns a copy of the state for a target, or nil if unknown.
func (t *Tracker) Get(target string) *TargetState {
	t.mu.RLock()
	defer t.mu.RUnlock()

	state, ok := t.states[target]
	if !ok {
		return nil
	}

	snapshot := *state
	snapshot.Window = append([]bool(nil), state.Window...)
	return &snapshot
}

// All returns copies of all tracked target states.
func (t *Tracker) All() []*TargetState {
	t.mu.RLock()
	defer t.mu.RUnlock()

	states := make([]*TargetState, 0, len(t.states))
	for _, state := range t.states {
		snapshot := *state
		snapshot.Window = append([]bool(nil), state.Window...)
		states = append(states, &snapshot)
	}
	return states
}

// Forget drops the state for a target, both in memory and in the store.
// Used when a target is removed from config.
func (t *Tracker) Forget(ctx context.Context, target string) error {
	t.mu.Lock()
	delete(t.states, target)
	t.mu.Unlock()

	if t.store != nil {
		return t.store.Delete(ctx, target)
	}
	return nil
}

// Close closes the underlying store, if any.
func (t *Tracker) Close() error {
	if t.store != nil {
		return t.store.Close()
	}
	return nil
}
