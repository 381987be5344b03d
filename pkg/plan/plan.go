// Package plan turns raw model output into a maintenance plan.
package plan

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"pmplanner/pkg/asset"
)

// Keys read from and written to the model output.
const (
	KeyPlan         = "maintenance_plan"
	KeyInstructions = "instructions"
	KeyAssetName    = "asset_name"
	KeyAssetModel   = "asset_model"
)

var (
	// ErrInvalidJSON means the completion could not be parsed as JSON at all.
	ErrInvalidJSON = errors.New("AI returned invalid JSON")
	// ErrMalformedPlan means the completion is JSON but not a plan: the top
	// level is not an object, maintenance_plan is not an array, or an element
	// is not an object.
	ErrMalformedPlan = errors.New("AI returned a malformed plan")
)

// Plan is an ordered list of tasks. Order is the model's; it is never sorted.
type Plan []*Task

// Columns returns the union of task keys in first-seen order.
func (p Plan) Columns() []string {
	var cols []string
	seen := make(map[string]bool)
	for _, t := range p {
		for _, k := range t.keys {
			if !seen[k] {
				seen[k] = true
				cols = append(cols, k)
			}
		}
	}
	return cols
}

// Normalize parses raw once and reshapes it into a Plan for a. Every task is
// stamped with the asset's name and model, and its instructions are rendered
// as a numbered list when they arrive as a list or a "|"-delimited string.
// All other fields pass through untouched.
func Normalize(raw string, a asset.Descriptor) (Plan, error) {
	var top json.RawMessage
	if err := json.Unmarshal([]byte(raw), &top); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(top, &doc); err != nil || doc == nil {
		return nil, fmt.Errorf("%w: top level is not an object", ErrMalformedPlan)
	}

	rawTasks, ok := doc[KeyPlan]
	if !ok {
		return Plan{}, nil
	}
	if bytes.Equal(bytes.TrimSpace(rawTasks), []byte("null")) {
		return nil, fmt.Errorf("%w: %s is null", ErrMalformedPlan, KeyPlan)
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(rawTasks, &elems); err != nil {
		return nil, fmt.Errorf("%w: %s is not an array", ErrMalformedPlan, KeyPlan)
	}

	p := make(Plan, 0, len(elems))
	for i, elem := range elems {
		t := NewTask()
		if err := json.Unmarshal(elem, t); err != nil {
			return nil, fmt.Errorf("%w: task %d: %v", ErrMalformedPlan, i, err)
		}
		t.Set(KeyAssetName, a.Name)
		t.Set(KeyAssetModel, a.Model)
		if v, ok := t.Get(KeyInstructions); ok {
			if s, ok := numberedInstructions(v); ok {
				t.Set(KeyInstructions, s)
			}
		}
		p = append(p, t)
	}
	return p, nil
}

// numberedInstructions reports whether v is a shape that gets renumbered
// and, if so, the rendered list.
func numberedInstructions(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		if !strings.Contains(x, "|") {
			return "", false
		}
		return FormatNumbered(strings.Split(x, "|")), true
	case []any:
		steps := make([]string, 0, len(x))
		for _, e := range x {
			s, ok := e.(string)
			if !ok {
				return "", false
			}
			steps = append(steps, s)
		}
		return FormatNumbered(steps), true
	}
	return "", false
}

// FormatNumbered trims each step, drops empty ones and renders the rest as
// "1. a\n2. b". No usable steps renders as "".
func FormatNumbered(steps []string) string {
	var b strings.Builder
	n := 0
	for _, s := range steps {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if n > 0 {
			b.WriteByte('\n')
		}
		n++
		fmt.Fprintf(&b, "%d. %s", n, s)
	}
	return b.String()
}
