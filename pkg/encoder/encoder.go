// Package encoder renders a maintenance plan as a JSON envelope or an Excel
// workbook.
package encoder

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"pmplanner/pkg/plan"
)

// Format selects the response encoding.
type Format string

const (
	FormatJSON  Format = "json"
	FormatExcel Format = "excel"
)

// ParseFormat maps the "format" query value. Empty selects JSON.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatJSON:
		return FormatJSON, nil
	case FormatExcel:
		return FormatExcel, nil
	default:
		return "", fmt.Errorf("unsupported format %q (want json or excel)", s)
	}
}

// Envelope is the JSON response body. Callers branch on Error, not on the
// transport status.
type Envelope struct {
	Error  string    `json:"error,omitempty"`
	PMPlan plan.Plan `json:"pm_plan"`
}

// NewEnvelope wraps p; a nil plan encodes as an empty array.
func NewEnvelope(p plan.Plan) Envelope {
	if p == nil {
		p = plan.Plan{}
	}
	return Envelope{PMPlan: p}
}

// ErrorEnvelope reports err with an empty plan.
func ErrorEnvelope(err error) Envelope {
	return Envelope{Error: Message(err), PMPlan: plan.Plan{}}
}

// Message is the caller-facing text for a generation error. Invalid JSON is
// reported with a fixed message; the decoder detail only goes to the logs.
func Message(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, plan.ErrInvalidJSON) {
		return plan.ErrInvalidJSON.Error()
	}
	return err.Error()
}

// WriteJSON writes {"pm_plan": [...]} to w.
func WriteJSON(w io.Writer, p plan.Plan) error {
	return json.NewEncoder(w).Encode(NewEnvelope(p))
}

// WriteError writes {"error": ..., "pm_plan": []} to w.
func WriteError(w io.Writer, err error) error {
	return json.NewEncoder(w).Encode(ErrorEnvelope(err))
}
