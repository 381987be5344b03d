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

// OpenAICompatProvider implements Provider for OpenAI-compatible Chat Completions API.
type OpenAICompatProvider struct{}

func (p *OpenAICompatProvider) Name() string { return "openai-compat" }

func (p *OpenAICompatProvider) DefaultOptions() Options {
	return Options{
		Model: "gpt-4",
	}
}

func (p *OpenAICompatProvider) BuildAPIPayload(opts Options) (map[string]interface{}, error) {
	messages := make([]map[string]interface{}, 0, 2)

	if sys := buildSystem(opts.Instructions, opts.JSONMode); sys != "" {
		// Use system role for wide compatibility
		messages = append(messages, map[string]interface{}{
			"role":    "system",
			"content": sys,
		})
	}

	messages = append(messages, map[string]interface{}{
		"role":    "user",
		"content": opts.Message,
	})

	payload := map[string]interface{}{
		"model":    opts.Model,
		"messages": messages,
	}

	if opts.Temperature != nil {
		payload["temperature"] = *opts.Temperature
	}
	if opts.MaxTokens > 0 {
		// Use widely supported field for compatibility
		payload["max_tokens"] = opts.MaxTokens
	}
	if opts.JSONMode {
		payload["response_format"] = map[string]interface{}{"type": "json_object"}
	}

	return payload, nil
}

func (p *OpenAICompatProvider) BuildAPIRequest(ctx context.Context, payload map[string]interface{}, baseURL string, reqOpts RequestOptions) (*http.Request, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode payload: %w", err)
	}

	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(baseURL, "/")+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	apiKey := reqOpts.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return nil, MissingAPIKeyError{Provider: p.Name(), EnvVar: "OPENAI_API_KEY"}
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)
	setExtraHeaders(req, reqOpts.ExtraHeaders)

	return req, nil
}

func (p *OpenAICompatProvider) ParseAPIResponse(respBody []byte) (string, error) {
	var apiResp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return "", fmt.Errorf("failed to parse response: %v", err)
	}
	if len(apiResp.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}
	return apiResp.Choices[0].Message.Content, nil
}
