package probe

import "fmt"

// StorageError represents an error from the storage backend.
type StorageError struct {
	Backend   string // Storage backend type ("sqlite", "memory")
	Operation string // Operation that failed ("store", "query", "delete", etc.)
	Cause     error  // Underlying error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error [backend=%s, operation=%s]: %v", e.Backend, e.Operation, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *StorageError) Unwrap() error {
	return e.Cause
}

// NewStorageError creates a new StorageError.
func NewStorageError(backend, operation string, cause error) *StorageError {
	return &StorageError{
		Backend:   backend,
		Operation: operation,
		Cause:     cause,
	}
}

// QueryError represents an error during query validation or execution.
type QueryError struct {
	Query *Query // Query that failed
	Cause error  // Underlying error
}

// Error implements the error interface.
func (e *QueryError) Error() string {
	return fmt.Sprintf("query error: %v", e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *QueryError) Unwrap() error {
	return e.Cause
}

// NewQueryError creates a new QueryError.
func NewQueryError(query *Query, cause error) *QueryError {
	return &QueryError{
		Query: query,
		Cause: cause,
	}
}

// RecorderError represents an error during result recording.
type RecorderError struct {
	ResultID string // Probe result ID
	Cause    error  // Underlying error
}

// Error implements the error interface.
func (e *RecorderError) Error() string {
	if e.ResultID != "" {
		return fmt.Sprintf("recorder error [result_id=%s]: %v", e.ResultID, e.Cause)
	}
	return fmt.Sprintf("recorder error: %v", e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *RecorderError) Unwrap() error {
	return e.Cause
}

// NewRecorderError creates a new RecorderError.
func NewRecorderError(resultID string, cause error) *RecorderError {
	return &RecorderError{
		ResultID: resultID,
		Cause:    cause,
	}
}

// RetentionError represents an error during retention enforcement.
type RetentionError struct {
	RetentionDays int   // Configured retention period
	Cause         error // Underlying error
}

// Error implements the error interface.
func (e *RetentionError) Error() string {
	return fmt.Sprintf("retention error [retention_days=%d]: %v", e.RetentionDays, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *RetentionError) Unwrap() error {
	return e.Cause
}

// NewRetentionError creates a new RetentionError.
func NewRetentionError(retentionDays int, cause error) *RetentionError {
	return &RetentionError{
		RetentionDays: retentionDays,
		Cause:         cause,
	}
}

// ExportError represents an error during result export.
type ExportError struct {
	Format      string // Export format ("json", "csv")
	ResultCount int    // Number of results being exported
	Cause       error  // Underlying error
}

// Error implements the error interface.
func (e *ExportError) Error() string {
	return fmt.Sprintf("export error [format=%s, result_count=%d]: %v", e.Format, e.ResultCount, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *ExportError) Unwrap() error {
	return e.Cause
}

// NewExportError creates a new ExportError.
func NewExportError(format string, resultCount int, cause error) *ExportError {
	return &ExportError{
		Format:      format,
		ResultCount: resultCount,
		Cause:       cause,
	}
}
