package prompt

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pmplanner/pkg/asset"
)

func frozen(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func sample() asset.Descriptor {
	return asset.Descriptor{
		Name:        "Hydro-Press Alpha",
		Model:       "HPX-9000",
		Serial:      "SN-7Q4Z",
		Category:    "Hydraulic Press",
		Hours:       4817,
		Cycles:      90211,
		Environment: "humid coastal plant with salt spray",
		PlanStart:   asset.NewDate(2024, time.March, 15),
	}
}

func TestBuild_EmbedsEveryFieldOnce(t *testing.T) {
	b, err := New(WithClock(frozen(time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC))))
	require.NoError(t, err)

	got, err := b.Build(sample())
	require.NoError(t, err)

	for _, want := range []string{
		"Hydro-Press Alpha",
		"HPX-9000",
		"SN-7Q4Z",
		"Hydraulic Press",
		"4817",
		"90211",
		"humid coastal plant with salt spray",
		"2024-03-15",
	} {
		assert.Equal(t, 1, strings.Count(got, want), "expected %q exactly once", want)
	}
	assert.Contains(t, got, `"maintenance_plan"`)
	assert.NotContains(t, got, "2030-01-01", "supplied date must win over the clock")
}

func TestBuild_DefaultsToCurrentUTCDate(t *testing.T) {
	// 23:30 in UTC-5 is already the next day in UTC.
	now := time.Date(2025, time.July, 4, 23, 30, 0, 0, time.FixedZone("EST", -5*3600))
	b, err := New(WithClock(frozen(now)))
	require.NoError(t, err)

	a := sample()
	a.PlanStart = asset.Date{}
	got, err := b.Build(a)
	require.NoError(t, err)

	assert.Contains(t, got, "- Date of Plan Start: 2025-07-05\n")
}

func TestBuild_ListsContractVerbatim(t *testing.T) {
	b, err := New()
	require.NoError(t, err)

	got, err := b.Build(sample())
	require.NoError(t, err)

	want := strings.Join([]string{
		`- "task_name" (string)`,
		`- "maintenance_interval" (string)`,
		`- "instructions" (array of strings)`,
		`- "reason" (string)`,
		`- "engineering_rationale" (string)`,
		`- "safety_precautions" (string)`,
		`- "common_failures_prevented" (string)`,
		`- "usage_insights" (string)`,
		`- "scheduled_dates" (array of strings in YYYY-MM-DD format)`,
	}, "\n")
	assert.True(t, strings.HasSuffix(got, want+"\n"), "contract block missing or out of order:\n%s", got)
}

func TestBuild_Deterministic(t *testing.T) {
	b, err := New(WithClock(frozen(time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC))))
	require.NoError(t, err)

	a := sample()
	a.PlanStart = asset.Date{}
	first, err := b.Build(a)
	require.NoError(t, err)
	second, err := b.Build(a)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestBuild_DoesNotEscapeFreeText(t *testing.T) {
	b, err := New()
	require.NoError(t, err)

	a := sample()
	a.Environment = `<hot> & "wet"`
	got, err := b.Build(a)
	require.NoError(t, err)
	assert.Contains(t, got, `<hot> & "wet"`)
}

func TestNew_CustomTemplate(t *testing.T) {
	b, err := New(WithTemplate("{{.Name}} from {{.PlanStart}}"))
	require.NoError(t, err)

	got, err := b.Build(sample())
	require.NoError(t, err)
	assert.Equal(t, "Hydro-Press Alpha from 2024-03-15", got)

	_, err = New(WithTemplate("{{.Name"))
	assert.Error(t, err)
}

func TestTaskFields(t *testing.T) {
	fields := TaskFields()
	require.Len(t, fields, 9)
	assert.Equal(t, "task_name", fields[0].Name)
	assert.Equal(t, "scheduled_dates", fields[8].Name)
	assert.True(t, fields[8].Array)

	fields[0].Name = "mutated"
	assert.Equal(t, "task_name", TaskFields()[0].Name)
}
