// Package llm sends one chat completion (a system and a user message) to a
// configured LLM vendor and returns the raw text.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"pmplanner/pkg/provider"
)

// ErrEmptyCompletion is returned when the vendor answers without any choice.
var ErrEmptyCompletion = errors.New("no completion returned")

// Request is a single-turn chat request.
type Request struct {
	System string
	User   string
}

// Completer performs one completion. Implementations do not retry.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Settings selects the vendor and tunes the call.
type Settings struct {
	// Provider is "openai" (SDK client) or any name accepted by provider.New.
	Provider    string
	Model       string
	BaseURL     string
	APIKey      string
	Temperature float64
	MaxTokens   int
	// Timeout bounds the whole call. 0 waits as long as the context allows.
	Timeout time.Duration
	// JSONMode asks for a JSON object completion.
	JSONMode bool

	Verbosity       string
	ReasoningEffort string
	ExtraHeaders    map[string]string
}

// DefaultSettings is gpt-4 through the SDK client at temperature 0.7, with up
// to 2000 output tokens and no timeout.
func DefaultSettings() Settings {
	return Settings{
		Provider:    "openai",
		Model:       "gpt-4",
		Temperature: 0.7,
		MaxTokens:   2000,
	}
}

const maxErrorBody = 512

// StatusError reports a non-2xx answer from the vendor.
type StatusError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	body := strings.TrimSpace(e.Body)
	if len(body) > maxErrorBody {
		cut := maxErrorBody
		for cut > 0 && !utf8.RuneStart(body[cut]) {
			cut--
		}
		body = body[:cut] + "..."
	}
	return fmt.Sprintf("%s: request failed with status %d: %s", e.Provider, e.StatusCode, body)
}

// New returns the Completer for s.Provider.
func New(s Settings, logger *zap.Logger) (Completer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch strings.ToLower(strings.TrimSpace(s.Provider)) {
	case "", "openai":
		return NewOpenAIClient(s, logger)
	}
	prov, err := provider.New(s.Provider)
	if err != nil {
		return nil, err
	}
	return NewHTTPClient(prov, s, logger), nil
}
