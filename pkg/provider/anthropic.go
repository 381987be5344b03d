package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
)

// AnthropicProvider implements Provider for Anthropic Messages API.
type AnthropicProvider struct{}

func (p *AnthropicProvider) Name() string { return "anthropic" }

func (p *AnthropicProvider) DefaultOptions() Options {
	model := "claude-3-5-haiku-latest"
	return Options{
		Model:     model,
		MaxTokens: anthropicDefaultMaxTokens(model),
	}
}

func (p *AnthropicProvider) BuildAPIPayload(opts Options) (map[string]interface{}, error) {
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		// max_tokens is mandatory on the Messages API
		maxTokens = anthropicDefaultMaxTokens(opts.Model)
	}
	payload := map[string]interface{}{
		"model":      opts.Model,
		"max_tokens": maxTokens,
		"messages": []map[string]interface{}{
			{
				"role":    "user",
				"content": opts.Message,
			},
		},
	}

	// Anthropic has no JSON response mode; the hint goes into the system prompt.
	if sys := buildSystem(opts.Instructions, opts.JSONMode); sys != "" {
		payload["system"] = sys
	}
	if opts.Temperature != nil {
		payload["temperature"] = *opts.Temperature
	}

	return payload, nil
}

func (p *AnthropicProvider) BuildAPIRequest(ctx context.Context, payload map[string]interface{}, baseURL string, reqOpts RequestOptions) (*http.Request, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode payload: %w", err)
	}

	if baseURL == "" {
		baseURL = "https://api.anthropic.com/v1"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(baseURL, "/")+"/messages", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("anthropic-version", "2023-06-01")

	apiKey := reqOpts.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if apiKey == "" {
		return nil, MissingAPIKeyError{Provider: p.Name(), EnvVar: "ANTHROPIC_API_KEY"}
	}
	req.Header.Set("x-api-key", apiKey)
	setExtraHeaders(req, reqOpts.ExtraHeaders)

	return req, nil
}

func (p *AnthropicProvider) ParseAPIResponse(respBody []byte) (string, error) {
	// Aggregate all text content blocks.
	var apiResp struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	}

	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return "", fmt.Errorf("failed to parse response: %v", err)
	}

	var b strings.Builder
	for _, c := range apiResp.Content {
		if c.Type == "text" && c.Text != "" {
			b.WriteString(c.Text)
		}
	}
	return b.String(), nil
}

// anthropicDefaultMaxTokens returns a default max_tokens per model family.
func anthropicDefaultMaxTokens(model string) int {
	m := strings.ToLower(model)
	switch {
	case strings.Contains(m, "opus-4"):
		return 32_000
	case strings.Contains(m, "sonnet-4"):
		return 64_000
	case strings.Contains(m, "3-7-sonnet"):
		return 64_000
	case strings.Contains(m, "3-5-sonnet"):
		return 8_192
	case strings.Contains(m, "3-5-haiku") || strings.Contains(m, "haiku-latest"):
		return 8_192
	default:
		// conservative lower bound to avoid exceeding max output for smaller models
		return 4_096
	}
}
