package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/wcreiley/notice-alert-system/internal/core/domain"
	"github.com/wcreiley/notice-alert-system/internal/core/ports/driven"
	"github.com/wcreiley/notice-alert-system/internal/logger"
)

// Ensure the decorators implement their interfaces.
var (
	_ driven.LLMService       = (*ResilientLLM)(nil)
	_ driven.EmbeddingService = (*ResilientEmbedder)(nil)
)

// ResilientLLM wraps an LLMService with response caching and bounded
// fixed-delay retries.
type ResilientLLM struct {
	next    driven.LLMService
	cache   driven.ResponseCache
	retry   RetryPolicy
	metrics *Metrics
}

// NewResilientLLM decorates next. cache and metrics may be nil.
func NewResilientLLM(next driven.LLMService, cache driven.ResponseCache, retry RetryPolicy, metrics *Metrics) *ResilientLLM {
	return &ResilientLLM{next: next, cache: cache, retry: retry, metrics: metrics}
}

// Generate returns a cached completion for an identical request or calls
// the wrapped service, retrying transient failures.
func (r *ResilientLLM) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	if r.next == nil {
		return "", domain.ErrLLMUnavailable
	}

	key := r.cacheKey(prompt, opts)
	if cached, ok := cacheGet(ctx, r.cache, key); ok {
		r.metrics.providerCall("llm", "cached")
		return cached, nil
	}

	var reply string
	err := r.retry.Do(ctx, "llm generate", func(ctx context.Context) error {
		var err error
		reply, err = r.next.Generate(ctx, prompt, opts)
		return err
	})
	if err != nil {
		r.metrics.providerCall("llm", "error")
		return "", err
	}
	r.metrics.providerCall("llm", "ok")

	cacheSet(ctx, r.cache, key, reply)
	return reply, nil
}

// ModelName returns the wrapped model name.
func (r *ResilientLLM) ModelName() string {
	if r.next == nil {
		return ""
	}
	return r.next.ModelName()
}

// Ping checks the wrapped service.
func (r *ResilientLLM) Ping(ctx context.Context) error {
	if r.next == nil {
		return domain.ErrLLMUnavailable
	}
	return r.next.Ping(ctx)
}

// Close closes the wrapped service.
func (r *ResilientLLM) Close() error {
	if r.next == nil {
		return nil
	}
	return r.next.Close()
}

func (r *ResilientLLM) cacheKey(prompt string, opts driven.GenerateOptions) string {
	return hashKey("llm",
		r.next.ModelName(),
		strconv.Itoa(opts.MaxTokens),
		strconv.FormatFloat(opts.Temperature, 'f', -1, 64),
		strings.Join(opts.StopWords, "\x1f"),
		prompt,
	)
}

// ResilientEmbedder wraps an EmbeddingService with caching and bounded
// fixed-delay retries.
type ResilientEmbedder struct {
	next    driven.EmbeddingService
	cache   driven.ResponseCache
	retry   RetryPolicy
	metrics *Metrics
}

// NewResilientEmbedder decorates next. cache and metrics may be nil.
func NewResilientEmbedder(next driven.EmbeddingService, cache driven.ResponseCache, retry RetryPolicy, metrics *Metrics) *ResilientEmbedder {
	return &ResilientEmbedder{next: next, cache: cache, retry: retry, metrics: metrics}
}

// Embed returns the vector for text.
func (r *ResilientEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if r.next == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}

	key := hashKey("embed", r.next.ModelName(), text)
	if cached, ok := cacheGet(ctx, r.cache, key); ok {
		var vec []float32
		if err := json.Unmarshal([]byte(cached), &vec); err == nil && len(vec) == r.next.Dimensions() {
			r.metrics.providerCall("embedding", "cached")
			return vec, nil
		}
		logger.Debug("discarding malformed cached embedding %s", key)
	}

	var vec []float32
	err := r.retry.Do(ctx, "embed", func(ctx context.Context) error {
		var err error
		vec, err = r.next.Embed(ctx, text)
		return err
	})
	if err != nil {
		r.metrics.providerCall("embedding", "error")
		return nil, err
	}
	if dim := r.next.Dimensions(); dim > 0 && len(vec) != dim {
		r.metrics.providerCall("embedding", "error")
		return nil, fmt.Errorf("embed: got %d values, want %d: %w", len(vec), dim, domain.ErrDimensionMismatch)
	}
	r.metrics.providerCall("embedding", "ok")

	if data, err := json.Marshal(vec); err == nil {
		cacheSet(ctx, r.cache, key, string(data))
	}
	return vec, nil
}

// Dimensions returns the wrapped vector size.
func (r *ResilientEmbedder) Dimensions() int {
	if r.next == nil {
		return 0
	}
	return r.next.Dimensions()
}

// ModelName returns the wrapped model name.
func (r *ResilientEmbedder) ModelName() string {
	if r.next == nil {
		return ""
	}
	return r.next.ModelName()
}

// Close closes the wrapped service.
func (r *ResilientEmbedder) Close() error {
	if r.next == nil {
		return nil
	}
	return r.next.Close()
}

// cacheGet treats cache failures as misses.
func cacheGet(ctx context.Context, cache driven.ResponseCache, key string) (string, bool) {
	if cache == nil {
		return "", false
	}
	value, ok, err := cache.Get(ctx, key)
	if err != nil {
		logger.Warn("response cache read failed: %v", err)
		return "", false
	}
	return value, ok
}

func cacheSet(ctx context.Context, cache driven.ResponseCache, key, value string) {
	if cache == nil {
		return
	}
	if err := cache.Set(ctx, key, value); err != nil {
		logger.Warn("response cache write failed: %v", err)
	}
}

func hashKey(kind string, parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return kind + ":" + hex.EncodeToString(h.Sum(nil))
}
