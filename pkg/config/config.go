// Package config loads the pmplanner config file: named LLM profiles plus the
// HTTP server settings.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"pmplanner/pkg/llm"
	"pmplanner/pkg/reqlog"
	"pmplanner/pkg/server"
)

// ErrUnknownProfile is returned when a named profile is not in the file.
var ErrUnknownProfile = errors.New("unknown profile")

// Profile holds the LLM settings of one named profile. Empty fields keep the
// defaults of llm.DefaultSettings.
type Profile struct {
	Provider        string            `yaml:"provider,omitempty" toml:"provider,omitempty"`
	BaseURL         string            `yaml:"base_url,omitempty" toml:"base_url,omitempty"`
	Model           string            `yaml:"model,omitempty" toml:"model,omitempty"`
	APIKey          string            `yaml:"api_key,omitempty" toml:"api_key,omitempty"`
	Temperature     *float64          `yaml:"temperature,omitempty" toml:"temperature,omitempty"`
	MaxTokens       int               `yaml:"max_tokens,omitempty" toml:"max_tokens,omitempty"`
	Timeout         string            `yaml:"timeout,omitempty" toml:"timeout,omitempty"`
	JSONMode        bool              `yaml:"json_mode,omitempty" toml:"json_mode,omitempty"`
	Verbosity       string            `yaml:"verbosity,omitempty" toml:"verbosity,omitempty"`
	ReasoningEffort string            `yaml:"reasoning_effort,omitempty" toml:"reasoning_effort,omitempty"`
	ExtraHeaders    map[string]string `yaml:"extra_headers,omitempty" toml:"extra_headers,omitempty"`
}

// Server holds the HTTP front end settings.
type Server struct {
	Addr        string `yaml:"addr" toml:"addr"`
	LogPath     string `yaml:"log_path" toml:"log_path"`
	OutputDir   string `yaml:"output_dir,omitempty" toml:"output_dir,omitempty"`
	KeepExports bool   `yaml:"keep_exports" toml:"keep_exports"`
}

// File is the on-disk config.
type File struct {
	DefaultProfile string             `yaml:"default_profile" toml:"default_profile"`
	Profiles       map[string]Profile `yaml:"profiles" toml:"profiles"`
	Server         Server             `yaml:"server" toml:"server"`
}

// Default returns the config used when no file exists.
func Default() *File {
	return &File{
		Profiles: map[string]Profile{},
		Server: Server{
			Addr:    server.DefaultAddr,
			LogPath: reqlog.DefaultPath,
		},
	}
}

// DefaultPath returns ${XDG_CONFIG_HOME:-~/.config}/pmplanner/config.yaml.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "pmplanner", "config.yaml"), nil
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

// Load reads path over the defaults. A missing file yields the defaults.
// Files ending in .toml are TOML, anything else is YAML. Environment
// overrides are applied last.
func Load(path string) (*File, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if isTOML(path) {
				err = toml.Unmarshal(data, cfg)
			} else {
				err = yaml.Unmarshal(data, cfg)
			}
			if err != nil {
				return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		case !os.IsNotExist(err):
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	if cfg.Profiles == nil {
		cfg.Profiles = map[string]Profile{}
	}
	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes the config to path, creating the directory.
func (f *File) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var (
		data []byte
		err  error
	)
	if isTOML(path) {
		data, err = toml.Marshal(f)
	} else {
		data, err = yaml.Marshal(f)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func (f *File) applyEnvOverrides() {
	if addr := os.Getenv("PMPLANNER_ADDR"); addr != "" {
		f.Server.Addr = addr
	}
	if path := os.Getenv("PMPLANNER_LOG_PATH"); path != "" {
		f.Server.LogPath = path
	}
}

// Profile selects a profile. An empty name falls back to default_profile;
// when that is empty too, the zero Profile is returned.
func (f *File) Profile(name string) (Profile, error) {
	if name == "" {
		name = f.DefaultProfile
	}
	if name == "" {
		return Profile{}, nil
	}
	p, ok := f.Profiles[name]
	if !ok {
		return Profile{}, fmt.Errorf("%w: %s", ErrUnknownProfile, name)
	}
	return p, nil
}

// APIKeyEnv names the environment variable holding the key for a provider.
func APIKeyEnv(providerName string) string {
	switch strings.ToLower(providerName) {
	case "anthropic", "claude", "anth":
		return "ANTHROPIC_API_KEY"
	case "gemini", "google", "gai":
		return "GEMINI_API_KEY"
	default:
		return "OPENAI_API_KEY"
	}
}

// Settings turns p into llm.Settings. The provider's API key environment
// variable wins over api_key in the file.
func (p Profile) Settings() (llm.Settings, error) {
	s := llm.DefaultSettings()
	if p.Provider != "" {
		s.Provider = p.Provider
		// Vendor defaults apply unless the profile names a model.
		if !strings.EqualFold(p.Provider, "openai") {
			s.Model = ""
		}
	}
	if p.Model != "" {
		s.Model = p.Model
	}
	if p.Temperature != nil {
		s.Temperature = *p.Temperature
	}
	if p.MaxTokens > 0 {
		s.MaxTokens = p.MaxTokens
	}
	if p.Timeout != "" {
		d, err := time.ParseDuration(p.Timeout)
		if err != nil {
			return llm.Settings{}, fmt.Errorf("invalid timeout %q: %w", p.Timeout, err)
		}
		s.Timeout = d
	}
	s.BaseURL = p.BaseURL
	s.APIKey = p.APIKey
	s.JSONMode = p.JSONMode
	s.Verbosity = p.Verbosity
	s.ReasoningEffort = p.ReasoningEffort
	s.ExtraHeaders = p.ExtraHeaders

	if key := os.Getenv(APIKeyEnv(s.Provider)); key != "" {
		s.APIKey = key
	}
	return s, nil
}

// Template is written by "pmplanner profile edit" when no config exists.
const Template = `# pmplanner configuration
default_profile: ""
profiles: {}
#  gpt4:
#    provider: openai
#    model: gpt-4
#    temperature: 0.7
#    max_tokens: 2000
#  claude:
#    provider: anthropic
#    model: claude-3-5-haiku-latest
#    json_mode: true
server:
  addr: ":8000"
  log_path: pm_lite_logs.txt
  keep_exports: false
`
