package llm

import (
	"context"
	"errors"
	"math"
	"net/http"
	"os"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"pmplanner/pkg/provider"
)

// OpenAIClient talks to the Chat Completions API through the go-openai SDK.
type OpenAIClient struct {
	client   *openai.Client
	settings Settings
	logger   *zap.Logger
}

// NewOpenAIClient builds the SDK client. The key falls back to
// OPENAI_API_KEY.
func NewOpenAIClient(s Settings, logger *zap.Logger) (*OpenAIClient, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	apiKey := s.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return nil, provider.MissingAPIKeyError{Provider: "openai", EnvVar: "OPENAI_API_KEY"}
	}
	if s.Model == "" {
		s.Model = DefaultSettings().Model
	}

	config := openai.DefaultConfig(apiKey)
	if s.BaseURL != "" {
		config.BaseURL = s.BaseURL
	}
	config.HTTPClient = &http.Client{Timeout: s.Timeout}

	return &OpenAIClient{
		client:   openai.NewClientWithConfig(config),
		settings: s,
		logger:   logger,
	}, nil
}

// Complete sends req as a system and a user message.
func (c *OpenAIClient) Complete(ctx context.Context, req Request) (string, error) {
	chat := openai.ChatCompletionRequest{
		Model: c.settings.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.System},
			{Role: openai.ChatMessageRoleUser, Content: req.User},
		},
		Temperature: sdkTemperature(c.settings.Temperature),
		MaxTokens:   c.settings.MaxTokens,
	}
	if c.settings.JSONMode {
		chat.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, chat)
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return "", &StatusError{Provider: "openai", StatusCode: apiErr.HTTPStatusCode, Body: apiErr.Message}
		}
		return "", err
	}
	c.logger.Debug("Chat completion received",
		zap.String("provider", "openai"),
		zap.String("model", c.settings.Model),
		zap.Int("total_tokens", resp.Usage.TotalTokens),
		zap.Duration("elapsed", time.Since(start)),
	)

	if len(resp.Choices) == 0 {
		return "", ErrEmptyCompletion
	}
	return resp.Choices[0].Message.Content, nil
}

// sdkTemperature converts t for the SDK request. The SDK omits a zero
// temperature, which the API reads as its default of 1, so 0 is sent as the
// smallest positive float32 instead.
func sdkTemperature(t float64) float32 {
	if t <= 0 {
		return math.SmallestNonzeroFloat32
	}
	return float32(t)
}
