package plan

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Task is one maintenance task as returned by the model. Fields keep the
// order in which the model emitted them; fields added during normalization
// are appended.
type Task struct {
	keys   []string
	values map[string]any
}

// NewTask returns an empty task.
func NewTask() *Task {
	return &Task{values: make(map[string]any)}
}

// Set assigns key, keeping its original position if it already exists.
func (t *Task) Set(key string, v any) {
	if t.values == nil {
		t.values = make(map[string]any)
	}
	if _, ok := t.values[key]; !ok {
		t.keys = append(t.keys, key)
	}
	t.values[key] = v
}

// Get returns the raw value of key.
func (t *Task) Get(key string) (any, bool) {
	v, ok := t.values[key]
	return v, ok
}

// String returns key as a string, or "" when it is absent or not a string.
func (t *Task) String(key string) string {
	s, _ := t.values[key].(string)
	return s
}

// Keys returns the field names in order.
func (t *Task) Keys() []string {
	out := make([]string, len(t.keys))
	copy(out, t.keys)
	return out
}

func (t *Task) Len() int { return len(t.keys) }

func (t *Task) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range t.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := json.Marshal(t.values[k])
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", k, err)
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object, keeping key order. Numbers are kept as
// json.Number so they re-encode exactly as received. A repeated key keeps its
// first position and its last value.
func (t *Task) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("task is not a JSON object")
	}

	*t = Task{values: make(map[string]any)}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected token %v in task object", tok)
		}
		var v any
		if err := dec.Decode(&v); err != nil {
			return fmt.Errorf("field %q: %w", key, err)
		}
		t.Set(key, v)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}
