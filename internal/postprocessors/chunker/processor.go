// Package chunker splits notice text into token-bounded chunks.
package chunker

import (
	"strings"

	"github.com/wcreiley/notice-alert-system/internal/core/domain"
	"github.com/wcreiley/notice-alert-system/internal/core/ports/driven"
)

// DefaultMinTokens is the minimum size of every chunk but the last.
const DefaultMinTokens = 40

// DefaultMaxTokens is the maximum size of any chunk.
const DefaultMaxTokens = 120

// Ensure Processor implements the interface.
var _ driven.Chunker = (*Processor)(nil)

// Processor splits document content into token windows that end on a
// sentence boundary where one is available.
type Processor struct {
	minTokens int
	maxTokens int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithMinTokens sets the minimum tokens per chunk.
func WithMinTokens(n int) Option {
	return func(p *Processor) {
		if n > 0 {
			p.minTokens = n
		}
	}
}

// WithMaxTokens sets the maximum tokens per chunk.
func WithMaxTokens(n int) Option {
	return func(p *Processor) {
		if n > 0 {
			p.maxTokens = n
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		minTokens: DefaultMinTokens,
		maxTokens: DefaultMaxTokens,
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.maxTokens < p.minTokens {
		p.maxTokens = p.minTokens
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// Bounds returns the configured minimum and maximum tokens per chunk.
func (p *Processor) Bounds() (minTokens, maxTokens int) {
	return p.minTokens, p.maxTokens
}

// Split divides the document content into ordered chunks.
//
// Tokens are cl100k_base BPE tokens. Each window takes up to maxTokens
// tokens and is cut after the last sentence boundary that leaves at least
// minTokens in the chunk. Without such a boundary the window is cut at
// maxTokens. Only the final chunk may fall below minTokens. TokenCount is
// the size of the window; Content has surrounding whitespace trimmed.
func (p *Processor) Split(doc *domain.Document) []domain.Chunk {
	content := strings.TrimSpace(doc.Content)
	if content == "" {
		return nil
	}

	tokens := tokenize(content)
	if len(tokens) == 0 {
		return nil
	}

	chunks := make([]domain.Chunk, 0, len(tokens)/p.minTokens+1)
	for start := 0; start < len(tokens); {
		end := p.cut(content, tokens, start)

		text := strings.TrimSpace(content[tokens[start].start:tokens[end-1].end])
		if text != "" {
			position := len(chunks)
			chunks = append(chunks, domain.Chunk{
				ID:         domain.ChunkID(doc.ID, position),
				DocumentID: doc.ID,
				Content:    text,
				Position:   position,
				TokenCount: end - start,
			})
		}

		start = end
	}

	return chunks
}

// cut returns the exclusive token index ending the window that starts at start.
func (p *Processor) cut(content string, tokens []token, start int) int {
	limit := start + p.maxTokens
	if limit >= len(tokens) {
		return len(tokens)
	}

	for i := limit - 1; i >= start+p.minTokens-1; i-- {
		if endsSentence(content, tokens, i) {
			return i + 1
		}
	}
	return limit
}
