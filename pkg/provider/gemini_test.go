package provider

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"
)

func TestGeminiProvider_ParseAPIResponse(t *testing.T) {
	p := &GeminiProvider{}
	tests := []struct {
		name    string
		body    []byte
		want    string
		wantErr bool
	}{
		{
			name: "single candidate, multiple parts",
			body: []byte(`{"candidates":[{"content":{"parts":[{"text":"Hello "},{"text":"Gemini"}]}}]}`),
			want: "Hello Gemini",
		},
		{
			name: "uses only first candidate",
			body: []byte(`{"candidates":[{"content":{"parts":[{"text":"First"}]}},{"content":{"parts":[{"text":"Second"}]}}]}`),
			want: "First",
		},
		{
			name:    "invalid json",
			body:    []byte(`invalid`),
			wantErr: true,
		},
		{
			name: "empty",
			body: []byte(`{"candidates":[]}`),
			want: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := p.ParseAPIResponse(tt.body)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error=%v, wantErr=%v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGeminiProvider_BuildAPIPayload(t *testing.T) {
	p := &GeminiProvider{}
	opts := Options{
		Model:        "gemini-2.0-flash",
		Message:      "Hello",
		Instructions: "be concise",
		MaxTokens:    321,
		Temperature:  Float(0.7),
		JSONMode:     true,
	}
	payload, err := p.BuildAPIPayload(opts)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	if payload["model"] != "gemini-2.0-flash" {
		t.Fatalf("model mismatch: %v", payload["model"])
	}

	contents, ok := payload["contents"].([]map[string]interface{})
	if !ok || len(contents) != 1 {
		t.Fatalf("contents wrong type/len: %T %v", payload["contents"], payload["contents"])
	}
	parts, ok := contents[0]["parts"].([]map[string]interface{})
	if !ok || len(parts) != 1 || parts[0]["text"] != "Hello" {
		t.Fatalf("parts mismatch: %v", contents[0]["parts"])
	}

	sys, ok := payload["systemInstruction"].(map[string]interface{})
	if !ok {
		t.Fatalf("systemInstruction missing")
	}
	sparts, ok := sys["parts"].([]map[string]interface{})
	if !ok || len(sparts) != 1 || sparts[0]["text"] != "be concise" {
		t.Fatalf("systemInstruction parts mismatch: %v", sys)
	}

	gen, ok := payload["generationConfig"].(map[string]interface{})
	if !ok {
		t.Fatalf("generationConfig missing")
	}
	if gen["responseMimeType"] != "application/json" {
		t.Fatalf("responseMimeType mismatch: %v", gen["responseMimeType"])
	}
	if gen["maxOutputTokens"] != 321 {
		t.Fatalf("maxOutputTokens mismatch: %v", gen["maxOutputTokens"])
	}
	if gen["temperature"] != 0.7 {
		t.Fatalf("temperature mismatch: %v", gen["temperature"])
	}

	// Nothing to configure: generationConfig is omitted entirely
	payload, err = p.BuildAPIPayload(Options{Model: "gemini-2.0-flash", Message: "x"})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if _, ok := payload["generationConfig"]; ok {
		t.Fatalf("generationConfig should be omitted when empty")
	}
}

func TestGeminiProvider_BuildAPIRequest_DefaultsAndHeaders(t *testing.T) {
	p := &GeminiProvider{}
	payload := map[string]interface{}{
		"model":    "gemini-2.0-flash",
		"contents": []map[string]interface{}{},
	}

	req, err := p.BuildAPIRequest(context.Background(), payload, "", RequestOptions{APIKey: "gk-test"})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if req.Method != http.MethodPost {
		t.Fatalf("method mismatch: %s", req.Method)
	}

	u, _ := url.Parse(req.URL.String())
	if !strings.Contains(u.Path, "/v1beta/models/gemini-2.0-flash:generateContent") {
		t.Fatalf("url path mismatch: %s", u.Path)
	}
	if u.RawQuery != "" {
		t.Fatalf("url must not carry a query: %s", u.RawQuery)
	}
	if req.Header.Get("x-goog-api-key") != "gk-test" {
		t.Fatalf("missing or wrong x-goog-api-key header")
	}

	if req.Header.Get("Content-Type") != "application/json" || req.Header.Get("Accept") != "application/json" {
		t.Fatalf("headers mismatch")
	}

	// Body must not contain the model field (it is removed before send)
	b, _ := io.ReadAll(req.Body)
	var body map[string]interface{}
	if err := json.Unmarshal(b, &body); err != nil {
		t.Fatalf("invalid body json: %v", err)
	}
	if _, exists := body["model"]; exists {
		t.Fatalf("body should not contain model field")
	}
}

func TestGeminiProvider_BuildAPIRequest_RequiresModel(t *testing.T) {
	p := &GeminiProvider{}
	if _, err := p.BuildAPIRequest(context.Background(), map[string]interface{}{}, "", RequestOptions{APIKey: "k"}); err == nil {
		t.Fatalf("expected error without model")
	}
}
