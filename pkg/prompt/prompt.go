// Package prompt renders the maintenance-plan request sent to the model.
//
// Asset fields are interpolated verbatim. Free text such as the environment
// description is not escaped, so a caller can steer the model through it; the
// output is still parsed strictly on the way back.
package prompt

import (
	"bytes"
	_ "embed"
	"fmt"
	"text/template"
	"time"

	"pmplanner/pkg/asset"
	"pmplanner/pkg/parser"
)

// SystemPrompt is the fixed system role of every plan request.
const SystemPrompt = "You are an expert in preventive maintenance planning."

// TaskContract lists the fields every task object must carry, in the order
// they are presented to the model.
const TaskContract = "task_name:string,maintenance_interval:string,instructions:string[],reason:string," +
	"engineering_rationale:string,safety_precautions:string,common_failures_prevented:string," +
	"usage_insights:string,scheduled_dates:string[]"

//go:embed prompt.tmpl
var defaultTemplate string

var taskFields = parser.MustParseFormat(TaskContract)

// TaskFields returns the parsed task contract.
func TaskFields() []parser.Field {
	out := make([]parser.Field, len(taskFields))
	copy(out, taskFields)
	return out
}

// data holds the variables available in the template.
type data struct {
	Name        string
	Model       string
	Serial      string
	Category    string
	Hours       int
	Cycles      int
	Environment string
	PlanStart   string
	Fields      []parser.Field
}

// Builder renders prompts. It is safe for concurrent use.
type Builder struct {
	now  func() time.Time
	tmpl *template.Template
}

// Option configures a Builder.
type Option func(*builderOptions)

type builderOptions struct {
	now func() time.Time
	src string
}

// WithClock sets the clock used to resolve a missing plan start date.
func WithClock(now func() time.Time) Option {
	return func(o *builderOptions) { o.now = now }
}

// WithTemplate replaces the embedded template. An empty src keeps the default.
func WithTemplate(src string) Option {
	return func(o *builderOptions) {
		if src != "" {
			o.src = src
		}
	}
}

// New parses the template and returns a Builder.
func New(opts ...Option) (*Builder, error) {
	o := builderOptions{now: time.Now, src: defaultTemplate}
	for _, opt := range opts {
		opt(&o)
	}
	tmpl, err := template.New("prompt").Option("missingkey=error").Parse(o.src)
	if err != nil {
		return nil, fmt.Errorf("failed to parse prompt template: %w", err)
	}
	return &Builder{now: o.now, tmpl: tmpl}, nil
}

// Build renders the prompt for a. Output is deterministic for a fixed
// effective start date.
func (b *Builder) Build(a asset.Descriptor) (string, error) {
	d := data{
		Name:        a.Name,
		Model:       a.Model,
		Serial:      a.Serial,
		Category:    a.Category,
		Hours:       a.Hours,
		Cycles:      a.Cycles,
		Environment: a.Environment,
		PlanStart:   a.EffectiveStart(b.now()).String(),
		Fields:      taskFields,
	}

	var buf bytes.Buffer
	if err := b.tmpl.Execute(&buf, d); err != nil {
		return "", fmt.Errorf("failed to render prompt: %w", err)
	}
	return buf.String(), nil
}
