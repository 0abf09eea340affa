package state

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"mercator-hq/vantage/pkg/probe"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })

	return store
}

func TestSQLiteStoreSaveLoad(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	state := &TargetState{
		Target:              "api",
		LastProbeTime:       time.Now().UTC().Truncate(time.Second),
		LastStatus:          "error",
		LastError:           "timeout",
		LastErrorClass:      probe.ErrorClassTimeout,
		ConsecutiveFailures: 4,
		TotalProbes:         100,
		TotalFailures:       7,
		Window:              []bool{true, true, false, false},
		CreatedAt:           time.Now().UTC().Truncate(time.Second),
		UpdatedAt:           time.Now().UTC().Truncate(time.Second),
	}

	if err := store.Save(ctx, state); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := store.Load(ctx, "api")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded == nil {
		t.Fatal("Load() = nil, want state")
	}
	if loaded.ConsecutiveFailures != 4 || loaded.TotalProbes != 100 {
		t.Errorf("loaded counters = %d/%d, want 4/100", loaded.ConsecutiveFailures, loaded.TotalProbes)
	}
	if len(loaded.Window) != 4 {
		t.Errorf("window length = %d, want 4", len(loaded.Window))
	}
	if loaded.Availability() != 0.5 {
		t.Errorf("Availability() = %v, want 0.5", loaded.Availability())
	}
}

func TestSQLiteStoreUpsert(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	state := &TargetState{Target: "api", LastStatus: "success", CreatedAt: time.Now(), UpdatedAt: time.Now()}
	if err := store.Save(ctx, state); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	state.LastStatus = "error"
	state.ConsecutiveFailures = 1
	state.UpdatedAt = time.Now()
	if err := store.Save(ctx, state); err != nil {
		t.Fatalf("Save() (update) error = %v", err)
	}

	loaded, err := store.Load(ctx, "api")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.LastStatus != "error" || loaded.ConsecutiveFailures != 1 {
		t.Errorf("upsert did not update: %+v", loaded)
	}

	states, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(states) != 1 {
		t.Errorf("List() = %d states, want 1 after upsert", len(states))
	}
}

func TestSQLiteStoreLoadMissing(t *testing.T) {
	store := newTestStore(t)

	loaded, err := store.Load(context.Background(), "missing")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded != nil {
		t.Errorf("Load(missing) = %+v, want nil", loaded)
	}
}

func TestSQLiteStoreDelete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	state := &TargetState{Target: "api", CreatedAt: time.Now(), UpdatedAt: time.Now()}
	if err := store.Save(ctx, state); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if err := store.Delete(ctx, "api"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	loaded, err := store.Load(ctx, "api")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded != nil {
		t.Error("state survived Delete")
	}
}

func TestTrackerRestoresFromStore(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.db")

	store, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}

	tracker, err := NewTracker(store, 10)
	if err != nil {
		t.Fatalf("NewTracker() error = %v", err)
	}
	tracker.Observe(failResult("api"))
	tracker.Observe(failResult("api"))
	if err := tracker.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	store2, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("reopening store: %v", err)
	}
	tracker2, err := NewTracker(store2, 10)
	if err != nil {
		t.Fatalf("NewTracker() (restore) error = %v", err)
	}
	defer tracker2.Close()

	state := tracker2.Get("api")
	if state == nil {
		t.Fatal("state not restored from store")
	}
	if state.ConsecutiveFailures != 2 {
		t.Errorf("restored ConsecutiveFailures = %d, want 2", state.ConsecutiveFailures)
	}
}
