package storage

import (
	"context"
	"sort"
	"sync"

	"mercator-hq/vantage/pkg/probe"
)

// MemoryStorage implements the probe.Storage interface using an in-memory map.
// Results are lost on restart; intended for testing and short-lived runs.
type MemoryStorage struct {
	results map[string]*probe.Result
	mu      sync.RWMutex
}

// NewMemoryStorage creates a new in-memory storage backend.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		results: make(map[string]*probe.Result),
	}
}

// Store persists a probe result to memory.
func (s *MemoryStorage) Store(ctx context.Context, result *probe.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Create a copy to avoid mutation
	resultCopy := *result
	s.results[result.ID] = &resultCopy

	return nil
}

// Query retrieves probe results matching the query filters.
func (s *MemoryStorage) Query(ctx context.Context, query *probe.Query) ([]*probe.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var results []*probe.Result

	for _, result := range s.results {
		if s.matchesQuery(result, query) {
			resultCopy := *result
			results = append(results, &resultCopy)
		}
	}

	sortResults(results, query.SortBy, query.SortOrder)

	// Apply pagination
	start := query.Offset
	if start > len(results) {
		return []*probe.Result{}, nil
	}

	end := start + query.Limit
	if end > len(results) {
		end = len(results)
	}

	if query.Limit > 0 {
		results = results[start:end]
	} else if start > 0 {
		results = results[start:]
	}

	if results == nil {
		results = []*probe.Result{}
	}

	return results, nil
}

// QueryStream returns a channel of probe results for memory-efficient streaming.
// The channels will be closed when the query completes or errors.
func (s *MemoryStorage) QueryStream(ctx context.Context, query *probe.Query) (<-chan *probe.Result, <-chan error, error) {
	resultsCh := make(chan *probe.Result, 100)
	errCh := make(chan error, 1)

	go func() {
		defer close(resultsCh)
		defer close(errCh)

		results, err := s.Query(ctx, query)
		if err != nil {
			errCh <- err
			return
		}

		for _, result := range results {
			select {
			case <-ctx.Done():
				errCh <- ctx.Err()
				return
			case resultsCh <- result:
			}
		}
	}()

	return resultsCh, errCh, nil
}

// Count returns the number of probe results matching the query filters.
func (s *MemoryStorage) Count(ctx context.Context, query *probe.Query) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64

	for _, result := range s.results {
		if s.matchesQuery(result, query) {
			count++
		}
	}

	return count, nil
}

// Delete removes probe results matching the query filters.
func (s *MemoryStorage) Delete(ctx context.Context, query *probe.Query) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64

	toDelete := []string{}
	for id, result := range s.results {
		if s.matchesQuery(result, query) {
			toDelete = append(toDelete, id)
		}
	}

	for _, id := range toDelete {
		delete(s.results, id)
		deleted++
	}

	return deleted, nil
}

// Close releases resources held by the storage backend.
func (s *MemoryStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.results = make(map[string]*probe.Result)
	return nil
}

// matchesQuery checks if a result matches the query filters.
func (s *MemoryStorage) matchesQuery(result *probe.Result, query *probe.Query) bool {
	// Time range filter
	if query.StartTime != nil && result.StartTime.Before(*query.StartTime) {
		return false
	}
	if query.EndTime != nil && result.StartTime.After(*query.EndTime) {
		return false
	}

	// Target filter
	if query.Target != "" && result.Target != query.Target {
		return false
	}

	// Status filter
	if query.Status != "" && result.Status() != query.Status {
		return false
	}

	// Error class filter
	if query.ErrorClass != "" && result.ErrorClass != query.ErrorClass {
		return false
	}

	// Exact status code filter
	if query.StatusCode != 0 && result.StatusCode != query.StatusCode {
		return false
	}

	// Duration thresholds
	if query.MinTotal != nil && result.Total < *query.MinTotal {
		return false
	}
	if query.MaxTotal != nil && result.Total > *query.MaxTotal {
		return false
	}

	return true
}

// sortResults orders results in place. Defaults to start_time descending,
// matching the SQLite backend.
func sortResults(results []*probe.Result, sortBy, sortOrder string) {
	if sortBy == "" {
		sortBy = "start_time"
	}
	asc := sortOrder == "asc"

	sort.SliceStable(results, func(i, j int) bool {
		var less bool
		switch sortBy {
		case "total":
			less = results[i].Total < results[j].Total
		case "status_code":
			less = results[i].StatusCode < results[j].StatusCode
		default:
			less = results[i].StartTime.Before(results[j].StartTime)
		}
		if asc {
			return less
		}
		return !less
	})
}

// Clear removes all results from storage (for testing).
func (s *MemoryStorage) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.results = make(map[string]*probe.Result)
}

// GetByID retrieves a single probe result by ID (for testing).
func (s *MemoryStorage) GetByID(id string) *probe.Result {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result, ok := s.results[id]
	if !ok {
		return nil
	}

	resultCopy := *result
	return &resultCopy
}

// Size returns the number of results in storage (for testing).
func (s *MemoryStorage) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.results)
}
