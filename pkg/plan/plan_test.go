package plan

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pmplanner/pkg/asset"
)

var compressor = asset.Descriptor{Name: "Air Compressor", Model: "GA37"}

func TestNormalize_PipeDelimitedInstructions(t *testing.T) {
	raw := `{"maintenance_plan":[{"task_name":"Filter change","instructions":"Remove filter|Clean housing|Install new filter"}]}`

	p, err := Normalize(raw, compressor)
	require.NoError(t, err)
	require.Len(t, p, 1)

	assert.Equal(t, "1. Remove filter\n2. Clean housing\n3. Install new filter", p[0].String(KeyInstructions))
	assert.Equal(t, "Air Compressor", p[0].String(KeyAssetName))
	assert.Equal(t, "GA37", p[0].String(KeyAssetModel))
	assert.Equal(t, "Filter change", p[0].String("task_name"))
}

func TestNormalize_ListInstructions(t *testing.T) {
	p, err := Normalize(`{"maintenance_plan":[{"instructions":["Step A","Step B"]}]}`, compressor)
	require.NoError(t, err)
	require.Len(t, p, 1)
	assert.Equal(t, "1. Step A\n2. Step B", p[0].String(KeyInstructions))
}

func TestNormalize_InstructionShapes(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want any
	}{
		{name: "pipes with blanks", in: `" a | |b|  "`, want: "1. a\n2. b"},
		{name: "only pipes", in: `"| |"`, want: ""},
		{name: "list is trimmed and filtered", in: `["  x ", "", "y"]`, want: "1. x\n2. y"},
		{name: "empty list", in: `[]`, want: ""},
		{name: "pre-numbered string passes through", in: `"1. a\n2. b"`, want: "1. a\n2. b"},
		{name: "plain string passes through", in: `"just do it"`, want: "just do it"},
		{name: "number passes through", in: `7`, want: json.Number("7")},
		{name: "mixed list passes through", in: `["a", 1]`, want: []any{"a", json.Number("1")}},
		{name: "object passes through", in: `{"step":"a"}`, want: map[string]any{"step": "a"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Normalize(`{"maintenance_plan":[{"instructions":`+tt.in+`}]}`, compressor)
			require.NoError(t, err)
			require.Len(t, p, 1)
			got, ok := p[0].Get(KeyInstructions)
			require.True(t, ok)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("instructions mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	p, err := Normalize(`{"maintenance_plan":[{"instructions":"A|B"}]}`, compressor)
	require.NoError(t, err)

	once, err := json.Marshal(map[string]any{KeyPlan: p})
	require.NoError(t, err)

	again, err := Normalize(string(once), compressor)
	require.NoError(t, err)
	assert.Equal(t, "1. A\n2. B", again[0].String(KeyInstructions))

	twice, err := json.Marshal(map[string]any{KeyPlan: again})
	require.NoError(t, err)
	assert.JSONEq(t, string(once), string(twice))
}

func TestNormalize_MissingInstructionsNotAdded(t *testing.T) {
	p, err := Normalize(`{"maintenance_plan":[{"task_name":"x"}]}`, compressor)
	require.NoError(t, err)
	_, ok := p[0].Get(KeyInstructions)
	assert.False(t, ok)
	assert.Equal(t, []string{"task_name", KeyAssetName, KeyAssetModel}, p[0].Keys())
}

func TestNormalize_InvalidJSON(t *testing.T) {
	for _, raw := range []string{"not json", "", `{"maintenance_plan": [}`, "```json\n{}\n```", `{} trailing`} {
		_, err := Normalize(raw, compressor)
		assert.ErrorIs(t, err, ErrInvalidJSON, "input %q", raw)
	}
}

func TestNormalize_EmptyObjectIsEmptyPlan(t *testing.T) {
	p, err := Normalize(`{}`, compressor)
	require.NoError(t, err)
	assert.NotNil(t, p)
	assert.Empty(t, p)
}

func TestNormalize_MalformedShapes(t *testing.T) {
	for _, raw := range []string{
		`[]`,
		`"text"`,
		`null`,
		`{"maintenance_plan": null}`,
		`{"maintenance_plan": "tasks"}`,
		`{"maintenance_plan": {"task_name": "x"}}`,
		`{"maintenance_plan": [1]}`,
		`{"maintenance_plan": [null]}`,
	} {
		_, err := Normalize(raw, compressor)
		assert.ErrorIs(t, err, ErrMalformedPlan, "input %q", raw)
	}
}

func TestNormalize_PreservesOrderAndPassThrough(t *testing.T) {
	raw := `{"maintenance_plan":[
		{"task_name":"B","scheduled_dates":["2024-13-45"],"extra":{"k":1}},
		{"task_name":"A","asset_name":"spoofed","reason":"r"}
	]}`
	p, err := Normalize(raw, compressor)
	require.NoError(t, err)
	require.Len(t, p, 2)

	assert.Equal(t, "B", p[0].String("task_name"))
	assert.Equal(t, "A", p[1].String("task_name"))

	dates, _ := p[0].Get("scheduled_dates")
	assert.Equal(t, []any{"2024-13-45"}, dates, "dates are not validated")

	assert.Equal(t, "Air Compressor", p[1].String(KeyAssetName))
	assert.Equal(t, []string{"task_name", KeyAssetName, "reason", KeyAssetModel}, p[1].Keys())
}

func TestPlan_Columns(t *testing.T) {
	p, err := Normalize(`{"maintenance_plan":[{"a":1,"b":2},{"c":3,"a":4}]}`, compressor)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", KeyAssetName, KeyAssetModel, "c"}, p.Columns())
}

func TestTask_MarshalJSON_KeepsOrder(t *testing.T) {
	task := NewTask()
	task.Set("z", "last-alphabetically")
	task.Set("a", json.Number("2"))
	task.Set("z", "updated")

	b, err := json.Marshal(task)
	require.NoError(t, err)
	assert.Equal(t, `{"z":"updated","a":2}`, string(b))
}

func TestFormatNumbered(t *testing.T) {
	assert.Equal(t, "", FormatNumbered(nil))
	assert.Equal(t, "1. one", FormatNumbered([]string{" one "}))
}
