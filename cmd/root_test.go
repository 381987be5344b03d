package cmd

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"pmplanner/pkg/config"
)

func TestIfEmpty(t *testing.T) {
	tests := []struct {
		val, fallback, want string
	}{
		{"", "x", "x"},
		{"  ", "x", "x"},
		{"a", "x", "a"},
	}
	for _, tt := range tests {
		if got := ifEmpty(tt.val, tt.fallback); got != tt.want {
			t.Fatalf("ifEmpty(%q, %q) = %q, want %q", tt.val, tt.fallback, got, tt.want)
		}
	}
}

func TestOpenInput(t *testing.T) {
	for _, arg := range []string{"", "-"} {
		rc, err := openInput(arg, strings.NewReader("from stdin"))
		require.NoError(t, err)
		b, _ := io.ReadAll(rc)
		assert.Equal(t, "from stdin", string(b))
	}

	path := filepath.Join(t.TempDir(), "asset.json")
	require.NoError(t, os.WriteFile(path, []byte("from file"), 0o644))
	rc, err := openInput(path, strings.NewReader("ignored"))
	require.NoError(t, err)
	defer rc.Close()
	b, _ := io.ReadAll(rc)
	assert.Equal(t, "from file", string(b))

	_, err = openInput(filepath.Join(t.TempDir(), "missing.json"), nil)
	assert.Error(t, err)
}

func TestEnsureConfigFile(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "a", "config.yaml")
	got, err := ensureConfigFile(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, yamlPath, got)
	b, err := os.ReadFile(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, config.Template, string(b))

	// An existing file is left alone.
	require.NoError(t, os.WriteFile(yamlPath, []byte("default_profile: x\n"), 0o644))
	_, err = ensureConfigFile(yamlPath)
	require.NoError(t, err)
	b, _ = os.ReadFile(yamlPath)
	assert.Equal(t, "default_profile: x\n", string(b))

	tomlPath := filepath.Join(dir, "config.toml")
	_, err = ensureConfigFile(tomlPath)
	require.NoError(t, err)
	t.Setenv("PMPLANNER_ADDR", "")
	t.Setenv("PMPLANNER_LOG_PATH", "")
	cfg, err := config.Load(tomlPath)
	require.NoError(t, err)
	assert.Equal(t, ":8000", cfg.Server.Addr)
}

func TestPrintProfiles(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printProfiles(&buf, config.Default()))
	assert.Equal(t, "no profiles configured\n", buf.String())

	cfg := config.Default()
	cfg.DefaultProfile = "b"
	cfg.Profiles["b"] = config.Profile{Provider: "anthropic", Model: "claude-3-5-haiku-latest"}
	cfg.Profiles["a"] = config.Profile{}

	buf.Reset()
	require.NoError(t, printProfiles(&buf, cfg))
	assert.Equal(t, "  a\topenai\t-\n* b\tanthropic\tclaude-3-5-haiku-latest\n", buf.String())
}

const completion = `{"choices":[{"message":{"role":"assistant","content":"{\"maintenance_plan\":[{\"task_name\":\"Lubricate bearings\",\"instructions\":\"Lock out|Grease\"}]}"}}]}`

// setupGenerate writes a config whose default profile points at a fake
// chat completions endpoint, and an asset file.
func setupGenerate(t *testing.T) (cfgPath, assetPath string) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(completion))
	}))
	t.Cleanup(srv.Close)
	t.Setenv("OPENAI_API_KEY", "sk-test")

	dir := t.TempDir()
	cfg := config.Default()
	cfg.DefaultProfile = "fake"
	cfg.Profiles["fake"] = config.Profile{Provider: "openai-compat", BaseURL: srv.URL}
	cfgPath = filepath.Join(dir, "config.yaml")
	require.NoError(t, cfg.Save(cfgPath))

	assetPath = filepath.Join(dir, "asset.json")
	require.NoError(t, os.WriteFile(assetPath, []byte(`{"name":"Mill","model":"M-7","serial":"1","category":"CNC","hours":100,"cycles":5,"environment":"shop floor","date_of_plan_start":"2024-01-01"}`), 0o644))
	return cfgPath, assetPath
}

func TestGenerateCommand_JSON(t *testing.T) {
	cfgPath, assetPath := setupGenerate(t)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"--config", cfgPath, "--profile", "", "generate", assetPath, "--format", "json"})
	t.Cleanup(func() { rootCmd.SetOut(nil); rootCmd.SetArgs(nil) })

	require.NoError(t, Execute())
	assert.JSONEq(t, `{"pm_plan":[{"task_name":"Lubricate bearings","instructions":"1. Lock out\n2. Grease","asset_name":"Mill","asset_model":"M-7"}]}`, out.String())
}

func TestGenerateCommand_Excel(t *testing.T) {
	cfgPath, assetPath := setupGenerate(t)
	outPath := filepath.Join(t.TempDir(), "plan.xlsx")

	rootCmd.SetArgs([]string{"--config", cfgPath, "--profile", "", "generate", assetPath, "--format", "excel", "--out", outPath})
	rootCmd.SetErr(io.Discard)
	t.Cleanup(func() { rootCmd.SetArgs(nil); rootCmd.SetErr(nil) })

	require.NoError(t, Execute())

	f, err := excelize.OpenFile(outPath)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Sheet1")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"Lubricate bearings", "1. Lock out\n2. Grease", "Mill", "M-7"}, rows[1])
}

func TestGenerateCommand_UnknownProfile(t *testing.T) {
	cfgPath, assetPath := setupGenerate(t)

	rootCmd.SetArgs([]string{"--config", cfgPath, "--profile", "nope", "generate", assetPath, "--format", "json"})
	rootCmd.SetErr(io.Discard)
	t.Cleanup(func() { rootCmd.SetArgs(nil); rootCmd.SetErr(nil) })

	err := Execute()
	assert.ErrorIs(t, err, config.ErrUnknownProfile)
}
