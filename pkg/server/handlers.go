package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"mercator-hq/vantage/pkg/probe"
	"mercator-hq/vantage/pkg/probe/export"
	"mercator-hq/vantage/pkg/probe/query"
	"mercator-hq/vantage/pkg/probe/state"
)

// StateReader is the subset of the target state tracker the API needs.
type StateReader interface {
	All() []*state.TargetState
	Get(target string) *state.TargetState
}

// errorResponse is the JSON body returned for API errors.
type errorResponse struct {
	Error string `json:"error"`
}

// resultsResponse is the JSON body returned by the results endpoint.
type resultsResponse struct {
	Results []*probe.Result `json:"results"`
	Count   int             `json:"count"`
}

// targetView is a target state augmented with the derived fields clients
// want without replaying the window themselves.
type targetView struct {
	*state.TargetState
	Up           bool    `json:"up"`
	Availability float64 `json:"availability"`
}

func newTargetView(s *state.TargetState) targetView {
	return targetView{TargetState: s, Up: s.Up(), Availability: s.Availability()}
}

// targetsResponse is the JSON body returned by the targets endpoint.
type targetsResponse struct {
	Targets []targetView `json:"targets"`
	Count   int          `json:"count"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, format string, args ...any) {
	writeJSON(w, status, errorResponse{Error: fmt.Sprintf(format, args...)})
}

// handleResults serves GET /api/v1/results. Query parameters map onto the
// result query filters; format=csv switches the response to CSV export.
func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	q, err := parseResultsQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "%s", err)
		return
	}

	if err := query.Validate(q); err != nil {
		writeError(w, http.StatusBadRequest, "%s", err)
		return
	}
	query.ApplyDefaults(q)

	results, err := s.storage.Query(r.Context(), q)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "results query failed", "error", err)
		writeError(w, http.StatusInternalServerError, "query failed")
		return
	}

	switch r.URL.Query().Get("format") {
	case "", "json":
		writeJSON(w, http.StatusOK, resultsResponse{Results: results, Count: len(results)})
	case "csv":
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="results.csv"`)
		exporter := export.NewCSVExporter(true)
		if err := exporter.Export(r.Context(), results, w); err != nil {
			s.logger.ErrorContext(r.Context(), "csv export failed", "error", err)
		}
	default:
		writeError(w, http.StatusBadRequest, "unsupported format %q", r.URL.Query().Get("format"))
	}
}

// parseResultsQuery builds a result query from URL parameters. Times are
// RFC 3339; durations use Go duration syntax (e.g. "500ms").
func parseResultsQuery(r *http.Request) (*probe.Query, error) {
	params := r.URL.Query()
	q := &probe.Query{
		Target:     params.Get("target"),
		Status:     params.Get("status"),
		ErrorClass: params.Get("error_class"),
		SortBy:     params.Get("sort_by"),
		SortOrder:  params.Get("sort_order"),
	}

	if v := params.Get("start_time"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return nil, fmt.Errorf("invalid start_time %q: must be RFC 3339", v)
		}
		q.StartTime = &t
	}
	if v := params.Get("end_time"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return nil, fmt.Errorf("invalid end_time %q: must be RFC 3339", v)
		}
		q.EndTime = &t
	}
	if v := params.Get("status_code"); v != "" {
		code, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid status_code %q", v)
		}
		q.StatusCode = code
	}
	if v := params.Get("min_total"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid min_total %q: must be a duration like 500ms", v)
		}
		q.MinTotal = &d
	}
	if v := params.Get("max_total"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid max_total %q: must be a duration like 2s", v)
		}
		q.MaxTotal = &d
	}
	if v := params.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid limit %q", v)
		}
		q.Limit = limit
	}
	if v := params.Get("offset"); v != "" {
		offset, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid offset %q", v)
		}
		q.Offset = offset
	}

	return q, nil
}

// handleTargets serves GET /api/v1/targets: the current rolling state of
// every known target. ?target=name returns a single target or 404.
func (s *Server) handleTargets(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	if s.states == nil {
		writeError(w, http.StatusServiceUnavailable, "state tracking disabled")
		return
	}

	if name := r.URL.Query().Get("target"); name != "" {
		target := s.states.Get(name)
		if target == nil {
			writeError(w, http.StatusNotFound, "unknown target %q", name)
			return
		}
		writeJSON(w, http.StatusOK, newTargetView(target))
		return
	}

	states := s.states.All()
	views := make([]targetView, 0, len(states))
	for _, st := range states {
		views = append(views, newTargetView(st))
	}
	writeJSON(w, http.StatusOK, targetsResponse{Targets: views, Count: len(views)})
}
