package recorder

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"mercator-hq/vantage/pkg/probe"
)

// Config contains configuration for the result recorder.
type Config struct {
	// Enabled enables result recording.
	Enabled bool

	// AsyncBuffer is the size of the async write channel buffer.
	// Default: 1000
	AsyncBuffer int

	// WriteTimeout is the timeout for writing a result to storage.
	// Default: 5 seconds
	WriteTimeout time.Duration
}

// DefaultConfig returns the default recorder configuration.
func DefaultConfig() *Config {
	return &Config{
		Enabled:      true,
		AsyncBuffer:  1000,
		WriteTimeout: 5 * time.Second,
	}
}

// Recorder persists probe results asynchronously so probe scheduling never
// blocks on storage writes.
type Recorder struct {
	storage    probe.Storage
	config     *Config
	resultChan chan *probe.Result
	wg         sync.WaitGroup
	done       chan struct{}
	logger     *slog.Logger
}

// NewRecorder creates a new result recorder with the provided storage backend
// and configuration.
func NewRecorder(storage probe.Storage, config *Config) *Recorder {
	if config == nil {
		config = DefaultConfig()
	}

	r := &Recorder{
		storage:    storage,
		config:     config,
		resultChan: make(chan *probe.Result, config.AsyncBuffer),
		done:       make(chan struct{}),
		logger:     slog.Default().With("component", "probe.recorder"),
	}

	// Start background worker to drain channel
	r.wg.Add(1)
	go r.worker()

	r.logger.Info("result recorder initialized",
		"async_buffer", config.AsyncBuffer,
		"write_timeout", config.WriteTimeout,
	)

	return r
}

// Record enqueues a probe result for async writing to storage.
//
// This method returns immediately and does not block on storage writes. If
// the buffer stays full past the write timeout the result is dropped and a
// RecorderError returned.
func (r *Recorder) Record(ctx context.Context, result *probe.Result) error {
	if !r.config.Enabled {
		return nil
	}

	select {
	case r.resultChan <- result:
		r.logger.Debug("result enqueued for writing",
			"result_id", result.ID,
			"target", result.Target,
		)
	case <-time.After(r.config.WriteTimeout):
		r.logger.Error("result channel full, dropping result",
			"result_id", result.ID,
			"target", result.Target,
			"channel_capacity", r.config.AsyncBuffer,
		)
		return probe.NewRecorderError(result.ID, context.DeadlineExceeded)
	case <-r.done:
		r.logger.Warn("recorder shutting down, dropping result",
			"result_id", result.ID,
			"target", result.Target,
		)
		return probe.NewRecorderError(result.ID, context.Canceled)
	}

	return nil
}

// Close gracefully shuts down the recorder by draining the async channel and
// waiting for all pending writes to complete.
func (r *Recorder) Close() error {
	r.logger.Info("shutting down result recorder")

	close(r.done)
	r.wg.Wait()

	r.logger.Info("result recorder shut down complete")
	return nil
}

// worker is the background goroutine that drains the result channel and
// writes results to storage.
func (r *Recorder) worker() {
	defer r.wg.Done()

	for {
		select {
		case result := <-r.resultChan:
			r.writeResult(result)

		case <-r.done:
			// Drain remaining results from channel before exit
			r.logger.Info("draining result channel before shutdown",
				"pending_count", len(r.resultChan),
			)

			for {
				select {
				case result := <-r.resultChan:
					r.writeResult(result)
				default:
					r.logger.Info("result channel drained")
					return
				}
			}
		}
	}
}

// writeResult writes a single probe result to storage.
func (r *Recorder) writeResult(result *probe.Result) {
	ctx, cancel := context.WithTimeout(context.Background(), r.config.WriteTimeout)
	defer cancel()

	start := time.Now()

	err := r.storage.Store(ctx, result)
	if err != nil {
		r.logger.Error("failed to store probe result",
			"result_id", result.ID,
			"target", result.Target,
			"error", err,
		)
		return
	}

	duration := time.Since(start)

	r.logger.Debug("result recorded",
		"result_id", result.ID,
		"target", result.Target,
		"status", result.Status(),
		"duration_ms", duration.Milliseconds(),
	)

	// Warn if write was slow
	if duration > r.config.WriteTimeout/2 {
		r.logger.Warn("slow result write",
			"result_id", result.ID,
			"duration_ms", duration.Milliseconds(),
			"threshold_ms", (r.config.WriteTimeout / 2).Milliseconds(),
		)
	}
}
