package provider

import (
	"context"
	"net/http"
)

// Options represents common inputs to build an API payload.
type Options struct {
	Model string
	// Instructions is the system prompt.
	Instructions string
	// Message is the single user turn.
	Message string
	// Verbosity and ReasoningEffort only apply to the OpenAI Responses API and
	// are omitted when empty.
	Verbosity       string
	ReasoningEffort string
	// Temperature is omitted from the payload when nil.
	Temperature *float64
	// MaxTokens caps generated tokens. 0 means unspecified, except for
	// Anthropic where the provider default applies.
	MaxTokens int
	// JSONMode asks the vendor for a JSON-only completion where the API
	// supports it, and adds a strict-JSON hint to the system prompt otherwise.
	JSONMode bool
}

// RequestOptions represents options for building an HTTP request.
type RequestOptions struct {
	// APIKey is optional. If empty, provider may resolve from env.
	APIKey string
	// ExtraHeaders allows provider-agnostic additions.
	ExtraHeaders map[string]string
}

// Provider abstracts LLM API differences.
type Provider interface {
	// Name is the canonical provider name used in logs and errors.
	Name() string
	// DefaultOptions returns provider-specific default options (e.g., model, max tokens).
	DefaultOptions() Options
	// BuildAPIPayload builds a provider-specific payload from options.
	BuildAPIPayload(opts Options) (map[string]interface{}, error)
	// BuildAPIRequest creates the HTTP request to send the payload.
	BuildAPIRequest(ctx context.Context, payload map[string]interface{}, baseURL string, reqOpts RequestOptions) (*http.Request, error)
	// ParseAPIResponse extracts the text output from raw response bytes.
	ParseAPIResponse(respBody []byte) (string, error)
}

// New returns the Provider implementation by name.
func New(name string) (Provider, error) {
	switch name {
	case "openai", "openai-compat", "compat", "oa", "default", "":
		return &OpenAICompatProvider{}, nil
	case "openai-responses", "responses":
		return &OpenAIProvider{}, nil
	case "anthropic", "claude", "anth":
		return &AnthropicProvider{}, nil
	case "gemini", "google", "gai":
		return &GeminiProvider{}, nil
	default:
		return nil, ErrUnknownProvider{name: name}
	}
}

// ErrUnknownProvider indicates an unsupported provider name.
type ErrUnknownProvider struct{ name string }

func (e ErrUnknownProvider) Error() string { return "unknown provider: " + e.name }

// MissingAPIKeyError is returned when no API key was passed and the
// provider's environment variable is empty.
type MissingAPIKeyError struct {
	Provider string
	EnvVar   string
}

func (e MissingAPIKeyError) Error() string {
	return e.Provider + ": API key is not set (set " + e.EnvVar + " or api_key in the profile)"
}

// Float returns a pointer to f, for Options.Temperature.
func Float(f float64) *float64 { return &f }
