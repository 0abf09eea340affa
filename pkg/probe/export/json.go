package export

import (
	"context"
	"encoding/json"
	"io"

	"mercator-hq/vantage/pkg/probe"
)

// JSONExporter exports probe results to JSON format.
type JSONExporter struct {
	// Pretty enables pretty-printing with indentation.
	Pretty bool
}

// NewJSONExporter creates a new JSON exporter.
func NewJSONExporter(pretty bool) *JSONExporter {
	return &JSONExporter{
		Pretty: pretty,
	}
}

// Export writes probe results to the provided writer as a JSON array.
// If Pretty is true, the JSON will be indented for readability.
func (e *JSONExporter) Export(ctx context.Context, results []*probe.Result, w io.Writer) error {
	if len(results) == 0 {
		_, err := w.Write([]byte("[]"))
		return err
	}

	var data []byte
	var err error

	if e.Pretty {
		data, err = json.MarshalIndent(results, "", "  ")
	} else {
		data, err = json.Marshal(results)
	}
	if err != nil {
		return probe.NewExportError("json", len(results), err)
	}

	_, err = w.Write(data)
	if err != nil {
		return probe.NewExportError("json", len(results), err)
	}

	return nil
}

// ExportStream exports probe results from a channel as a JSON array.
// This is memory-efficient for large result sets as it streams results
// one at a time instead of loading everything in memory.
func (e *JSONExporter) ExportStream(ctx context.Context, resultsCh <-chan *probe.Result, w io.Writer) error {
	if _, err := w.Write([]byte("[")); err != nil {
		return probe.NewExportError("json", 0, err)
	}

	first := true
	resultCount := 0

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case result, ok := <-resultsCh:
			if !ok {
				if _, err := w.Write([]byte("]")); err != nil {
					return probe.NewExportError("json", resultCount, err)
				}
				return nil
			}

			if !first {
				if _, err := w.Write([]byte(",")); err != nil {
					return probe.NewExportError("json", resultCount, err)
				}
				if e.Pretty {
					if _, err := w.Write([]byte("\n")); err != nil {
						return probe.NewExportError("json", resultCount, err)
					}
				}
			}
			first = false

			data, err := e.serializeResult(result)
			if err != nil {
				return probe.NewExportError("json", resultCount, err)
			}

			if _, err := w.Write(data); err != nil {
				return probe.NewExportError("json", resultCount, err)
			}

			resultCount++
		}
	}
}

// serializeResult serializes a single probe result to JSON.
func (e *JSONExporter) serializeResult(result *probe.Result) ([]byte, error) {
	if e.Pretty {
		return json.MarshalIndent(result, "  ", "  ")
	}
	return json.Marshal(result)
}
