package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"mercator-hq/vantage/pkg/config"
	"mercator-hq/vantage/pkg/probe"
)

// Sink receives completed probe results for persistence.
type Sink interface {
	Record(ctx context.Context, result *probe.Result) error
}

// Observer is notified of every completed probe result. Implementations
// must not block; the scheduler calls them inline after each probe.
type Observer interface {
	Observe(result *probe.Result)
}

// RunObserver is an optional Observer extension notified around each probe
// run, before a result exists and after it has been fanned out.
type RunObserver interface {
	ProbeStarted()
	ProbeFinished()
}

// Scheduler runs probes against configured targets on their cron schedules.
type Scheduler struct {
	prober    *probe.Prober
	sink      Sink
	observers []Observer

	defaultSchedule string

	cron    *cron.Cron
	entries map[string]cron.EntryID
	mu      sync.Mutex
	logger  *slog.Logger
	running bool

	// baseCtx is the lifetime context passed to probe runs.
	baseCtx context.Context
}

// New creates a scheduler. Observers may be nil entries; they are skipped.
func New(prober *probe.Prober, sink Sink, defaultSchedule string, observers ...Observer) *Scheduler {
	kept := make([]Observer, 0, len(observers))
	for _, o := range observers {
		if o != nil {
			kept = append(kept, o)
		}
	}

	return &Scheduler{
		prober:          prober,
		sink:            sink,
		observers:       kept,
		defaultSchedule: defaultSchedule,
		cron:            cron.New(),
		entries:         make(map[string]cron.EntryID),
		logger:          slog.Default().With("component", "probe.scheduler"),
	}
}

// Start registers all targets and begins scheduling. The context bounds the
// lifetime of all probe runs; cancel it (or call Stop) to shut down.
func (s *Scheduler) Start(ctx context.Context, targets []config.TargetConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler already started")
	}

	s.baseCtx = ctx

	for _, target := range targets {
		if err := s.addTargetLocked(target); err != nil {
			return err
		}
	}

	s.cron.Start()
	s.running = true

	s.logger.Info("probe scheduler started",
		"targets", len(targets),
		"default_schedule", s.defaultSchedule,
	)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

// Reload replaces the scheduled targets with a new set. Existing entries are
// removed and the new targets registered; in-flight probes are unaffected.
func (s *Scheduler) Reload(targets []config.TargetConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return fmt.Errorf("scheduler not started")
	}

	for name, entryID := range s.entries {
		s.cron.Remove(entryID)
		delete(s.entries, name)
	}

	for _, target := range targets {
		if err := s.addTargetLocked(target); err != nil {
			return err
		}
	}

	s.logger.Info("probe scheduler reloaded", "targets", len(targets))
	return nil
}

// addTargetLocked registers a cron entry for the target. Caller holds s.mu.
func (s *Scheduler) addTargetLocked(target config.TargetConfig) error {
	schedule := target.Schedule
	if schedule == "" {
		schedule = s.defaultSchedule
	}

	entryID, err := s.cron.AddFunc(schedule, func() {
		s.runProbe(target)
	})
	if err != nil {
		return fmt.Errorf("scheduling target %q: %w", target.Name, err)
	}

	s.entries[target.Name] = entryID

	s.logger.Debug("target scheduled",
		"target", target.Name,
		"url", target.URL,
		"schedule", schedule,
	)

	return nil
}

// runProbe executes one probe and fans the result out to the sink and
// observers.
func (s *Scheduler) runProbe(target config.TargetConfig) {
	ctx := s.baseCtx
	if ctx.Err() != nil {
		return
	}

	for _, o := range s.observers {
		if ro, ok := o.(RunObserver); ok {
			ro.ProbeStarted()
		}
	}

	result := s.prober.Probe(ctx, target)

	for _, o := range s.observers {
		o.Observe(result)
		if ro, ok := o.(RunObserver); ok {
			ro.ProbeFinished()
		}
	}

	if s.sink != nil {
		if err := s.sink.Record(ctx, result); err != nil {
			s.logger.Error("failed to record probe result",
				"target", target.Name,
				"result_id", result.ID,
				"error", err,
			)
		}
	}
}

// RunAll probes every scheduled target once, immediately and sequentially.
// Useful at startup so the first data points do not wait for the schedule.
func (s *Scheduler) RunAll(targets []config.TargetConfig) {
	for _, target := range targets {
		s.runProbe(target)
	}
}

// NextRun returns the next scheduled probe time for a target, or nil when
// the target is not scheduled or the scheduler is stopped.
func (s *Scheduler) NextRun(target string) *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	entryID, ok := s.entries[target]
	if !ok {
		return nil
	}

	next := s.cron.Entry(entryID).Next
	if next.IsZero() {
		return nil
	}
	return &next
}

// TargetCount returns the number of currently scheduled targets.
func (s *Scheduler) TargetCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Stop halts scheduling and waits for running probes to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()
	s.running = false

	s.logger.Info("probe scheduler stopped")
}
