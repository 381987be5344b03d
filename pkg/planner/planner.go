// Package planner ties the prompt builder, the LLM call and the plan
// normalizer together.
package planner

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"pmplanner/pkg/asset"
	"pmplanner/pkg/llm"
	"pmplanner/pkg/plan"
	"pmplanner/pkg/prompt"
)

// PromptBuilder renders the user prompt for an asset.
type PromptBuilder interface {
	Build(a asset.Descriptor) (string, error)
}

// Service generates maintenance plans. The zero Logger is replaced by a no-op.
type Service struct {
	Builder   PromptBuilder
	Completer llm.Completer
	Logger    *zap.Logger
}

// New returns a Service.
func New(b PromptBuilder, c llm.Completer, logger *zap.Logger) *Service {
	return &Service{Builder: b, Completer: c, Logger: logger}
}

// Generate makes exactly one completion call for a and normalizes the
// answer. Errors from plan.Normalize are wrapped so errors.Is still matches
// plan.ErrInvalidJSON and plan.ErrMalformedPlan.
func (s *Service) Generate(ctx context.Context, a asset.Descriptor) (plan.Plan, error) {
	logger := s.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}

	userPrompt, err := s.Builder.Build(a)
	if err != nil {
		return nil, fmt.Errorf("build prompt: %w", err)
	}

	start := time.Now()
	raw, err := s.Completer.Complete(ctx, llm.Request{System: prompt.SystemPrompt, User: userPrompt})
	if err != nil {
		logger.Error("Completion failed", zap.String("asset", a.Name), zap.Error(err))
		return nil, fmt.Errorf("generate plan: %w", err)
	}
	logger.Debug("Raw completion",
		zap.String("asset", a.Name),
		zap.Duration("elapsed", time.Since(start)),
		zap.String("content", raw),
	)

	p, err := plan.Normalize(raw, a)
	if err != nil {
		logger.Warn("Model output rejected", zap.String("asset", a.Name), zap.Error(err))
		return nil, fmt.Errorf("normalize plan: %w", err)
	}
	logger.Info("Plan generated", zap.String("asset", a.Name), zap.Int("tasks", len(p)))
	return p, nil
}
