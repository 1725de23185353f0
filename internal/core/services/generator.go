package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/wcreiley/notice-alert-system/internal/core/domain"
	"github.com/wcreiley/notice-alert-system/internal/core/ports/driven"
)

// AnswerGenerator produces an answer grounded on retrieved chunks.
type AnswerGenerator struct {
	llm  driven.LLMService
	opts driven.GenerateOptions
}

// NewAnswerGenerator creates a generator using the given completion limits.
func NewAnswerGenerator(llm driven.LLMService, maxTokens int, temperature float64) *AnswerGenerator {
	return &AnswerGenerator{
		llm:  llm,
		opts: driven.GenerateOptions{MaxTokens: maxTokens, Temperature: temperature},
	}
}

// Generate answers query from hits with a single model call.
func (g *AnswerGenerator) Generate(ctx context.Context, hits []domain.IndexHit, query string) (domain.Answer, error) {
	text, err := g.llm.Generate(ctx, BuildAnswerPrompt(hits, query), g.opts)
	if err != nil {
		return domain.Answer{}, fmt.Errorf("generate answer: %w", err)
	}
	return domain.Answer{Text: strings.TrimSpace(text), Chunks: hits}, nil
}
