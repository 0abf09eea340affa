package recorder

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"mercator-hq/vantage/pkg/probe"
	"mercator-hq/vantage/pkg/probe/storage"
)

// blockingStorage wraps MemoryStorage and blocks Store calls until released.
type blockingStorage struct {
	*storage.MemoryStorage
	release chan struct{}
	once    sync.Once
}

func newBlockingStorage() *blockingStorage {
	return &blockingStorage{
		MemoryStorage: storage.NewMemoryStorage(),
		release:       make(chan struct{}),
	}
}

func (s *blockingStorage) Store(ctx context.Context, result *probe.Result) error {
	select {
	case <-s.release:
	case <-ctx.Done():
		return ctx.Err()
	}
	return s.MemoryStorage.Store(ctx, result)
}

func (s *blockingStorage) Release() {
	s.once.Do(func() { close(s.release) })
}

func testRecorderResult(id string) *probe.Result {
	return &probe.Result{
		ID:        id,
		Target:    "example",
		URL:       "https://example.com/",
		Method:    "GET",
		StartTime: time.Now(),
		EndTime:   time.Now(),
		Total:     time.Millisecond,
	}
}

func TestRecordAndDrain(t *testing.T) {
	mem := storage.NewMemoryStorage()
	r := NewRecorder(mem, nil)

	for i := 0; i < 10; i++ {
		if err := r.Record(context.Background(), testRecorderResult(string(rune('a'+i)))); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}

	if err := r.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if mem.Size() != 10 {
		t.Errorf("stored %d results, want 10", mem.Size())
	}
}

func TestRecordDisabled(t *testing.T) {
	mem := storage.NewMemoryStorage()
	cfg := DefaultConfig()
	cfg.Enabled = false
	r := NewRecorder(mem, cfg)

	if err := r.Record(context.Background(), testRecorderResult("r1")); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	r.Close()
	if mem.Size() != 0 {
		t.Errorf("disabled recorder stored %d results, want 0", mem.Size())
	}
}

func TestRecordDropsWhenBufferFull(t *testing.T) {
	blocking := newBlockingStorage()
	defer blocking.Release()

	cfg := &Config{
		Enabled:      true,
		AsyncBuffer:  1,
		WriteTimeout: 50 * time.Millisecond,
	}
	r := NewRecorder(blocking, cfg)

	// First result occupies the worker, second fills the buffer; give the
	// worker a moment to pick up the first.
	if err := r.Record(context.Background(), testRecorderResult("a")); err != nil {
		t.Fatalf("Record(a) error = %v", err)
	}
	time.Sleep(20 * time.Millisecond)
	if err := r.Record(context.Background(), testRecorderResult("b")); err != nil {
		t.Fatalf("Record(b) error = %v", err)
	}

	err := r.Record(context.Background(), testRecorderResult("c"))
	if err == nil {
		t.Fatal("Record() = nil, want drop error on full buffer")
	}

	var recErr *probe.RecorderError
	if !errors.As(err, &recErr) {
		t.Fatalf("error type = %T, want *probe.RecorderError", err)
	}
	if recErr.ResultID != "c" {
		t.Errorf("ResultID = %q, want c", recErr.ResultID)
	}

	blocking.Release()
	r.Close()
}

func TestCloseDrainsPendingWrites(t *testing.T) {
	mem := storage.NewMemoryStorage()
	r := NewRecorder(mem, &Config{
		Enabled:      true,
		AsyncBuffer:  100,
		WriteTimeout: time.Second,
	})

	for i := 0; i < 50; i++ {
		if err := r.Record(context.Background(), testRecorderResult(string(rune(i)))); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}

	if err := r.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if mem.Size() != 50 {
		t.Errorf("stored %d results after Close, want 50", mem.Size())
	}
}
