package driven

import "context"

// LLMService produces text completions.
//
// Implementations may include:
//   - OpenAI (gpt-3.5-turbo, gpt-4o)
//   - Any OpenAI-compatible endpoint (vLLM, LM Studio, Ollama's /v1 API)
type LLMService interface {
	// Generate produces a completion for a single-turn prompt.
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)

	// ModelName returns the name of the model being used.
	ModelName() string

	// Ping validates the service is reachable.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// GenerateOptions configures text generation.
type GenerateOptions struct {
	// MaxTokens limits the response length. Zero uses the provider default.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic).
	Temperature float64

	// StopWords end generation when produced.
	StopWords []string
}
