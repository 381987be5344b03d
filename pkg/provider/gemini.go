package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
)

// GeminiProvider implements Provider for Google Gemini GenerateContent API.
type GeminiProvider struct{}

func (p *GeminiProvider) Name() string { return "gemini" }

func (p *GeminiProvider) DefaultOptions() Options {
	return Options{
		Model: "gemini-2.0-flash",
	}
}

func (p *GeminiProvider) BuildAPIPayload(opts Options) (map[string]interface{}, error) {
	contents := []map[string]interface{}{
		{
			"parts": []map[string]interface{}{
				{"text": opts.Message},
			},
		},
	}

	payload := map[string]interface{}{
		// Retain model in payload for BuildAPIRequest to read, but strip before send
		"model":    opts.Model,
		"contents": contents,
	}

	if strings.TrimSpace(opts.Instructions) != "" {
		payload["systemInstruction"] = map[string]interface{}{
			"parts": []map[string]interface{}{
				{"text": opts.Instructions},
			},
		}
	}

	genCfg := map[string]interface{}{}
	if opts.MaxTokens > 0 {
		genCfg["maxOutputTokens"] = opts.MaxTokens
	}
	if opts.Temperature != nil {
		genCfg["temperature"] = *opts.Temperature
	}
	if opts.JSONMode {
		genCfg["responseMimeType"] = "application/json"
	}
	if len(genCfg) > 0 {
		payload["generationConfig"] = genCfg
	}

	return payload, nil
}

func (p *GeminiProvider) BuildAPIRequest(ctx context.Context, payload map[string]interface{}, baseURL string, reqOpts RequestOptions) (*http.Request, error) {
	// Extract model for URL path, and remove it from the body payload.
	model, _ := payload["model"].(string)
	delete(payload, "model")

	if strings.TrimSpace(model) == "" {
		return nil, fmt.Errorf("gemini: model is required")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode payload: %w", err)
	}

	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com"
	}

	// {base}/v1beta/models/{model}:generateContent
	u, err := url.Parse(strings.TrimRight(baseURL, "/") + "/v1beta/models/" + url.PathEscape(model) + ":generateContent")
	if err != nil {
		return nil, fmt.Errorf("failed to build URL: %w", err)
	}

	apiKey := reqOpts.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	if apiKey == "" {
		return nil, MissingAPIKeyError{Provider: p.Name(), EnvVar: "GEMINI_API_KEY"}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	// Header, not ?key=: transport errors print the request URL.
	req.Header.Set("x-goog-api-key", apiKey)
	setExtraHeaders(req, reqOpts.ExtraHeaders)

	return req, nil
}

func (p *GeminiProvider) ParseAPIResponse(respBody []byte) (string, error) {
	// Extract aggregated text across candidate parts.
	var apiResp struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}

	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return "", fmt.Errorf("failed to parse response: %v", err)
	}

	var b strings.Builder
	if len(apiResp.Candidates) > 0 {
		for _, part := range apiResp.Candidates[0].Content.Parts {
			if part.Text != "" {
				b.WriteString(part.Text)
			}
		}
	}
	return b.String(), nil
}
