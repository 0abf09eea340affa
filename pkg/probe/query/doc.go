// Package query provides validation and defaults for probe result queries.
//
// # Query Validation
//
// The validator ensures query parameters are valid before execution:
//
//   - Limit >= 0 and <= MaxLimit
//   - Offset >= 0
//   - Sort field is valid (start_time, total, status_code)
//   - Sort order is valid (asc, desc)
//   - Time range is valid (start <= end)
//   - Duration thresholds are valid (min <= max)
//   - Status, error class, and status code use known vocabulary
//
// # Basic Usage
//
//	q := &probe.Query{
//	    Target:    "api",
//	    Status:    "error",
//	    SortBy:    "total",
//	    SortOrder: "desc",
//	}
//
//	query.ApplyDefaults(q)
//	if err := query.Validate(q); err != nil {
//	    log.Fatal(err)
//	}
//
//	results, err := storage.Query(ctx, q)
package query
