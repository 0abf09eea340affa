package query

import (
	"fmt"

	"mercator-hq/vantage/pkg/probe"
)

const (
	// DefaultLimit is the default number of results to return if not specified.
	DefaultLimit = 100

	// MaxLimit is the maximum number of results that can be returned in a single query.
	MaxLimit = 10000
)

// ValidSortFields contains the fields that can be used for sorting.
var ValidSortFields = map[string]bool{
	"start_time":  true,
	"total":       true,
	"status_code": true,
}

// ValidSortOrders contains the valid sort orders.
var ValidSortOrders = map[string]bool{
	"asc":  true,
	"desc": true,
}

// ValidErrorClasses contains the error classes a query can filter on.
var ValidErrorClasses = map[string]bool{
	probe.ErrorClassDNS:     true,
	probe.ErrorClassConnect: true,
	probe.ErrorClassTLS:     true,
	probe.ErrorClassTimeout: true,
	probe.ErrorClassHTTP:    true,
	probe.ErrorClassRead:    true,
	probe.ErrorClassRequest: true,
}

// Validate validates a query and returns an error if any parameters are invalid.
func Validate(q *probe.Query) error {
	// Validate limit
	if q.Limit < 0 {
		return probe.NewQueryError(q, fmt.Errorf("limit must be >= 0, got %d", q.Limit))
	}
	if q.Limit > MaxLimit {
		return probe.NewQueryError(q, fmt.Errorf("limit must be <= %d, got %d", MaxLimit, q.Limit))
	}

	// Validate offset
	if q.Offset < 0 {
		return probe.NewQueryError(q, fmt.Errorf("offset must be >= 0, got %d", q.Offset))
	}

	// Validate sort field
	if q.SortBy != "" && !ValidSortFields[q.SortBy] {
		return probe.NewQueryError(q, fmt.Errorf("invalid sort field: %s", q.SortBy))
	}

	// Validate sort order
	if q.SortOrder != "" && !ValidSortOrders[q.SortOrder] {
		return probe.NewQueryError(q, fmt.Errorf("invalid sort order: %s (must be 'asc' or 'desc')", q.SortOrder))
	}

	// Validate time range
	if q.StartTime != nil && q.EndTime != nil {
		if q.StartTime.After(*q.EndTime) {
			return probe.NewQueryError(q, fmt.Errorf("start_time must be before end_time"))
		}
	}

	// Validate duration thresholds
	if q.MinTotal != nil && q.MaxTotal != nil {
		if *q.MinTotal > *q.MaxTotal {
			return probe.NewQueryError(q, fmt.Errorf("min_total must be <= max_total"))
		}
	}
	if q.MinTotal != nil && *q.MinTotal < 0 {
		return probe.NewQueryError(q, fmt.Errorf("min_total must be >= 0"))
	}

	// Validate status
	if q.Status != "" && q.Status != "success" && q.Status != "error" {
		return probe.NewQueryError(q, fmt.Errorf("invalid status: %s (must be 'success' or 'error')", q.Status))
	}

	// Validate error class
	if q.ErrorClass != "" && !ValidErrorClasses[q.ErrorClass] {
		return probe.NewQueryError(q, fmt.Errorf("invalid error class: %s", q.ErrorClass))
	}

	// Validate status code
	if q.StatusCode != 0 && (q.StatusCode < 100 || q.StatusCode > 599) {
		return probe.NewQueryError(q, fmt.Errorf("status_code must be between 100 and 599, got %d", q.StatusCode))
	}

	return nil
}

// ApplyDefaults applies default values to a query.
func ApplyDefaults(q *probe.Query) {
	if q.Limit == 0 {
		q.Limit = DefaultLimit
	}
	if q.SortBy == "" {
		q.SortBy = "start_time"
	}
	if q.SortOrder == "" {
		q.SortOrder = "desc"
	}
}
