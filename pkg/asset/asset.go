// Package asset holds the descriptor of the physical asset a maintenance plan
// is requested for, along with its request-body decoding rules.
package asset

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the wire format of calendar dates (ISO-8601, date only).
const DateLayout = "2006-01-02"

// ErrInvalid is wrapped by every decoding and validation failure.
var ErrInvalid = errors.New("invalid asset data")

// Descriptor is the input record for one plan request. It is built once per
// request and never mutated afterwards.
type Descriptor struct {
	Name        string `json:"name"`
	Model       string `json:"model"`
	Serial      string `json:"serial"`
	Category    string `json:"category"`
	Hours       int    `json:"hours"`
	Cycles      int    `json:"cycles"`
	Environment string `json:"environment"`
	// PlanStart is optional; the zero Date means "not supplied".
	PlanStart Date `json:"date_of_plan_start"`
}

// Validate checks the invariants that hold regardless of how the descriptor
// was built.
func (d Descriptor) Validate() error {
	if d.Hours < 0 {
		return fmt.Errorf("%w: hours must be non-negative, got %d", ErrInvalid, d.Hours)
	}
	if d.Cycles < 0 {
		return fmt.Errorf("%w: cycles must be non-negative, got %d", ErrInvalid, d.Cycles)
	}
	return nil
}

// EffectiveStart returns the supplied plan start date, or the UTC calendar
// date of now when none was supplied.
func (d Descriptor) EffectiveStart(now time.Time) Date {
	if !d.PlanStart.IsZero() {
		return d.PlanStart
	}
	u := now.UTC()
	return NewDate(u.Year(), u.Month(), u.Day())
}

// wireDescriptor mirrors Descriptor with pointers so that absent fields can be
// told apart from zero values.
type wireDescriptor struct {
	Name        *string `json:"name"`
	Model       *string `json:"model"`
	Serial      *string `json:"serial"`
	Category    *string `json:"category"`
	Hours       *count  `json:"hours"`
	Cycles      *count  `json:"cycles"`
	Environment *string `json:"environment"`
	PlanStart   Date    `json:"date_of_plan_start"`
}

// Decode reads one JSON object from r. Unknown keys are ignored. Hours and
// cycles may be sent as numbers or numeric strings, which is what HTML forms
// produce.
func Decode(r io.Reader) (Descriptor, error) {
	var w wireDescriptor
	dec := json.NewDecoder(r)
	if err := dec.Decode(&w); err != nil {
		return Descriptor{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	var missing []string
	str := func(name string, v *string) string {
		if v == nil {
			missing = append(missing, name)
			return ""
		}
		return *v
	}
	num := func(name string, v *count) int {
		if v == nil {
			missing = append(missing, name)
			return 0
		}
		return int(*v)
	}

	d := Descriptor{
		Name:        str("name", w.Name),
		Model:       str("model", w.Model),
		Serial:      str("serial", w.Serial),
		Category:    str("category", w.Category),
		Hours:       num("hours", w.Hours),
		Cycles:      num("cycles", w.Cycles),
		Environment: str("environment", w.Environment),
		PlanStart:   w.PlanStart,
	}
	if len(missing) > 0 {
		return Descriptor{}, fmt.Errorf("%w: missing required field(s): %s", ErrInvalid, strings.Join(missing, ", "))
	}
	if err := d.Validate(); err != nil {
		return Descriptor{}, err
	}
	return d, nil
}

// count is a non-fractional number that also accepts a quoted form.
type count int

func (c *count) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	s := string(b)
	if len(b) > 0 && b[0] == '"' {
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("value %s is not a valid integer", string(b))
	}
	*c = count(n)
	return nil
}

// Date is a calendar date without time of day or zone.
type Date struct {
	t time.Time
}

// NewDate returns the date y-m-d.
func NewDate(y int, m time.Month, d int) Date {
	return Date{t: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: date %q is not in YYYY-MM-DD form", ErrInvalid, s)
	}
	return Date{t: t}, nil
}

func (d Date) IsZero() bool { return d.t.IsZero() }

// Time returns midnight UTC of the date.
func (d Date) Time() time.Time { return d.t }

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.t.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

// UnmarshalJSON treats null and the empty string as "not supplied".
func (d *Date) UnmarshalJSON(b []byte) error {
	if string(bytes.TrimSpace(b)) == "null" {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("date_of_plan_start must be a string: %w", err)
	}
	if strings.TrimSpace(s) == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
