package reporter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/yaklabco/trackmcp/pkg/catalog"
)

// JSONOutput is the top-level JSON structure for tool listings.
type JSONOutput struct {
	Version string         `json:"version"`
	Count   int            `json:"count"`
	Tools   []catalog.Tool `json:"tools"`
}

// JSONReporter formats tools as JSON.
type JSONReporter struct {
	opts Options
}

// Report implements Reporter.
func (r *JSONReporter) Report(_ context.Context, tools []catalog.Tool) (int, error) {
	if tools == nil {
		tools = []catalog.Tool{}
	}
	out := JSONOutput{Version: "1", Count: len(tools), Tools: tools}
	if err := encodeJSON(r.opts.Writer, out, r.opts.Compact); err != nil {
		return 0, err
	}
	return len(tools), nil
}

func encodeJSON(w io.Writer, v any, compact bool) error {
	encoder := json.NewEncoder(w)
	if !compact {
		encoder.SetIndent("", "  ")
	}
	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("encode JSON: %w", err)
	}
	return nil
}
