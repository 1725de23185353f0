package services

import (
	"context"
	"errors"
	"hash/fnv"
	"regexp"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/wcreiley/notice-alert-system/internal/core/domain"
	"github.com/wcreiley/notice-alert-system/internal/core/ports/driven"
)

var errTransient = errors.New("transient provider failure")

// fastRetry keeps retry tests quick.
var fastRetry = RetryPolicy{Attempts: 3, Delay: 0}

// mockLLM answers prompts through handler and records every call.
type mockLLM struct {
	mu      sync.Mutex
	handler func(prompt string, opts driven.GenerateOptions) (string, error)
	prompts []string
	opts    []driven.GenerateOptions
}

func (m *mockLLM) Generate(_ context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.opts = append(m.opts, opts)
	handler := m.handler
	m.mu.Unlock()

	if handler == nil {
		return "", nil
	}
	return handler(prompt, opts)
}

func (m *mockLLM) ModelName() string            { return "mock-chat" }
func (m *mockLLM) Ping(_ context.Context) error { return nil }
func (m *mockLLM) Close() error                 { return nil }

func (m *mockLLM) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prompts)
}

func (m *mockLLM) callsWithPrefix(prefix string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, p := range m.prompts {
		if strings.HasPrefix(p, prefix) {
			n++
		}
	}
	return n
}

// mockEmbedder produces bag-of-words vectors so that texts sharing words
// are close under cosine similarity.
type mockEmbedder struct {
	mu     sync.Mutex
	dim    int
	failOn string
	err    error
	calls  int
}

func newMockEmbedder() *mockEmbedder {
	return &mockEmbedder{dim: 64}
}

var wordPattern = regexp.MustCompile(`[a-z0-9]+`)

func (m *mockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	m.calls++
	failOn, err := m.failOn, m.err
	m.mu.Unlock()

	if err != nil {
		return nil, err
	}
	if failOn != "" && strings.Contains(text, failOn) {
		return nil, errTransient
	}

	vec := make([]float32, m.dim)
	for _, w := range wordPattern.FindAllString(strings.ToLower(text), -1) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(w))
		vec[h.Sum32()%uint32(m.dim)]++
	}
	return vec, nil
}

func (m *mockEmbedder) Dimensions() int   { return m.dim }
func (m *mockEmbedder) ModelName() string { return "mock-embed" }
func (m *mockEmbedder) Close() error      { return nil }

func (m *mockEmbedder) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// mockNotifier records delivered notifications. The first failures
// deliveries return err.
type mockNotifier struct {
	mu       sync.Mutex
	sent     []domain.Notification
	attempts int
	failures int
	err      error
}

func (m *mockNotifier) Notify(_ context.Context, n domain.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attempts++
	if m.failures > 0 {
		m.failures--
		return m.err
	}
	m.sent = append(m.sent, n)
	return nil
}

func (m *mockNotifier) Channel() string { return "C-ALERTS" }

func (m *mockNotifier) delivered() []domain.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Notification(nil), m.sent...)
}

// mockCache is a map-backed ResponseCache that can be made to fail.
type mockCache struct {
	mu     sync.Mutex
	values map[string]string
	err    error
}

func newMockCache() *mockCache {
	return &mockCache{values: make(map[string]string)}
}

func (m *mockCache) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", false, m.err
	}
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *mockCache) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.values[key] = value
	return nil
}

// mockConnector serves a fixed set of documents and forwards changes
// pushed onto its watch channel.
type mockConnector struct {
	docs    []domain.RawDocument
	changes chan domain.RawDocumentChange
	closed  bool

	// duringSync are written to the source while FullSync is walking it.
	// Like fsnotify, they only reach changes once Watch has been called.
	duringSync []domain.RawDocumentChange
	watching   atomic.Bool
}

func (m *mockConnector) Type() string     { return "mock" }
func (m *mockConnector) SourceID() string { return "mock-source" }

func (m *mockConnector) Capabilities() driven.ConnectorCapabilities {
	return driven.ConnectorCapabilities{SupportsWatch: m.changes != nil}
}

func (m *mockConnector) Validate(_ context.Context) error { return nil }

func (m *mockConnector) FullSync(_ context.Context) (<-chan domain.RawDocument, <-chan error) {
	docsCh := make(chan domain.RawDocument, len(m.docs))
	errsCh := make(chan error)

	go func() {
		defer close(docsCh)
		defer close(errsCh)
		for _, doc := range m.docs {
			docsCh <- doc
		}
		for _, change := range m.duringSync {
			if m.watching.Load() {
				m.changes <- change
			}
		}
	}()

	return docsCh, errsCh
}

func (m *mockConnector) Watch(_ context.Context) (<-chan domain.RawDocumentChange, error) {
	m.watching.Store(true)
	return m.changes, nil
}

func (m *mockConnector) Close() error {
	m.closed = true
	return nil
}

func rawText(id, content string) domain.RawDocument {
	return domain.RawDocument{
		SourceID: "mock-source",
		ID:       id,
		URI:      "/data/" + id,
		MIMEType: "text/plain",
		Content:  []byte(content),
	}
}
