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

// OpenAIProvider implements Provider for OpenAI Responses API.
type OpenAIProvider struct{}

func (p *OpenAIProvider) Name() string { return "openai-responses" }

func (p *OpenAIProvider) DefaultOptions() Options {
	return Options{
		Model: "gpt-4o",
	}
}

func (p *OpenAIProvider) BuildAPIPayload(opts Options) (map[string]interface{}, error) {
	textPayload := map[string]interface{}{}
	if opts.Verbosity != "" {
		textPayload["verbosity"] = opts.Verbosity
	}
	if opts.JSONMode {
		textPayload["format"] = map[string]interface{}{"type": "json_object"}
	}

	payload := map[string]interface{}{
		"model":        opts.Model,
		"instructions": opts.Instructions,
		"input":        opts.Message,
		"store":        false,
	}
	if len(textPayload) > 0 {
		payload["text"] = textPayload
	}
	if opts.ReasoningEffort != "" {
		payload["reasoning"] = map[string]interface{}{
			"effort": opts.ReasoningEffort,
		}
	}
	if opts.Temperature != nil {
		payload["temperature"] = *opts.Temperature
	}
	if opts.MaxTokens > 0 {
		payload["max_output_tokens"] = opts.MaxTokens
	}

	return payload, nil
}

func (p *OpenAIProvider) BuildAPIRequest(ctx context.Context, payload map[string]interface{}, baseURL string, reqOpts RequestOptions) (*http.Request, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode payload: %w", err)
	}

	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(baseURL, "/")+"/responses", bytes.NewReader(body))
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

func (p *OpenAIProvider) ParseAPIResponse(respBody []byte) (string, error) {
	var apiResp struct {
		OutputText string `json:"output_text"`
		Output     []struct {
			Content []struct {
				Type string `json:"type"`
				Text string `json:"text"`
			} `json:"content"`
		} `json:"output"`
	}

	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return "", fmt.Errorf("failed to parse response: %v", err)
	}

	// Prefer the convenience field, then fall back to output[].content[].text
	textOut := apiResp.OutputText
	if textOut == "" {
		for _, item := range apiResp.Output {
			for _, c := range item.Content {
				if c.Type == "output_text" && c.Text != "" {
					textOut = c.Text
					break
				}
			}
			if textOut != "" {
				break
			}
		}
	}

	return textOut, nil
}
