package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"pmplanner/pkg/provider"
)

// HTTPClient drives a provider.Provider over plain HTTP.
type HTTPClient struct {
	prov     provider.Provider
	settings Settings
	http     *http.Client
	logger   *zap.Logger
}

// NewHTTPClient wraps prov. Empty model and max tokens take the provider's
// defaults.
func NewHTTPClient(prov provider.Provider, s Settings, logger *zap.Logger) *HTTPClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	def := prov.DefaultOptions()
	if s.Model == "" {
		s.Model = def.Model
	}
	if s.MaxTokens == 0 {
		s.MaxTokens = def.MaxTokens
	}
	return &HTTPClient{
		prov:     prov,
		settings: s,
		http:     &http.Client{Timeout: s.Timeout},
		logger:   logger,
	}
}

// Complete builds the vendor payload, sends it and extracts the text.
func (c *HTTPClient) Complete(ctx context.Context, req Request) (string, error) {
	s := c.settings
	payload, err := c.prov.BuildAPIPayload(provider.Options{
		Model:           s.Model,
		Instructions:    req.System,
		Message:         req.User,
		Verbosity:       s.Verbosity,
		ReasoningEffort: s.ReasoningEffort,
		Temperature:     provider.Float(s.Temperature),
		MaxTokens:       s.MaxTokens,
		JSONMode:        s.JSONMode,
	})
	if err != nil {
		return "", err
	}

	httpReq, err := c.prov.BuildAPIRequest(ctx, payload, s.BaseURL, provider.RequestOptions{
		APIKey:       s.APIKey,
		ExtraHeaders: s.ExtraHeaders,
	})
	if err != nil {
		return "", err
	}

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("%s: request failed: %w", c.prov.Name(), redactURL(err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%s: failed to read response: %w", c.prov.Name(), err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &StatusError{Provider: c.prov.Name(), StatusCode: resp.StatusCode, Body: string(body)}
	}

	c.logger.Debug("Completion received",
		zap.String("provider", c.prov.Name()),
		zap.String("model", s.Model),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)

	return c.prov.ParseAPIResponse(body)
}

// redactURL drops the query string from a *url.Error so credentials passed
// as query parameters never end up in an error message.
func redactURL(err error) error {
	var uerr *url.Error
	if !errors.As(err, &uerr) {
		return err
	}
	u, perr := url.Parse(uerr.URL)
	if perr != nil {
		return &url.Error{Op: uerr.Op, URL: "(redacted)", Err: uerr.Err}
	}
	u.RawQuery = ""
	u.User = nil
	return &url.Error{Op: uerr.Op, URL: u.String(), Err: uerr.Err}
}
