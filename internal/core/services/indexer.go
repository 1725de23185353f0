package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"hash/fnv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wcreiley/notice-alert-system/internal/core/domain"
	"github.com/wcreiley/notice-alert-system/internal/core/ports/driven"
	"github.com/wcreiley/notice-alert-system/internal/core/ports/driving"
	"github.com/wcreiley/notice-alert-system/internal/logger"
)

// Ensure Indexer implements the interface.
var _ driving.IngestService = (*Indexer)(nil)

// DefaultWorkers is the default size of worker pools.
const DefaultWorkers = 4

// eventBuffer is the capacity of the index event channel.
const eventBuffer = 64

// Indexer keeps the embedding index in step with a document source.
type Indexer struct {
	connector driven.Connector
	registry  driven.NormaliserRegistry
	chunker   driven.Chunker
	embedder  driven.EmbeddingService
	index     driven.VectorIndex
	docStore  driven.DocumentStore
	metrics   *Metrics
	workers   int

	locks  *KeyedMutex
	events chan domain.IndexEvent
	now    func() time.Time

	mu     sync.Mutex
	status driving.IngestStatus
}

// IndexerOption configures an Indexer.
type IndexerOption func(*Indexer)

// WithIndexWorkers sets how many documents are processed concurrently.
func WithIndexWorkers(n int) IndexerOption {
	return func(ix *Indexer) {
		if n > 0 {
			ix.workers = n
		}
	}
}

// WithIndexMetrics records indexing metrics.
func WithIndexMetrics(m *Metrics) IndexerOption {
	return func(ix *Indexer) {
		ix.metrics = m
	}
}

// NewIndexer creates an indexer reading from connector.
func NewIndexer(
	connector driven.Connector,
	registry driven.NormaliserRegistry,
	chunker driven.Chunker,
	embedder driven.EmbeddingService,
	index driven.VectorIndex,
	docStore driven.DocumentStore,
	opts ...IndexerOption,
) *Indexer {
	ix := &Indexer{
		connector: connector,
		registry:  registry,
		chunker:   chunker,
		embedder:  embedder,
		index:     index,
		docStore:  docStore,
		workers:   DefaultWorkers,
		locks:     NewKeyedMutex(),
		events:    make(chan domain.IndexEvent, eventBuffer),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(ix)
	}
	return ix
}

// Events returns the channel on which index changes are announced.
// Events are dropped while the channel is full.
func (ix *Indexer) Events() <-chan domain.IndexEvent {
	return ix.events
}

// Sync indexes every document currently in the source.
func (ix *Indexer) Sync(ctx context.Context) error {
	if ix.connector == nil {
		return fmt.Errorf("sync: connector not configured: %w", domain.ErrInvalidInput)
	}

	caps := ix.connector.Capabilities()
	if caps.SupportsValidation {
		if err := ix.connector.Validate(ctx); err != nil {
			return fmt.Errorf("validate source: %w", err)
		}
	}

	logger.Section("Indexing " + ix.connector.SourceID())

	g, gctx := errgroup.WithContext(ctx)
	jobs := ix.startWorkers(gctx, g)

	g.Go(func() error {
		defer jobs.close()
		_, _, err := ix.scan(gctx, jobs, nil)
		return err
	})

	if err := g.Wait(); err != nil {
		return err
	}

	st := ix.Status()
	logger.Info("Indexed %d documents (%d unchanged, %d chunk failures)",
		st.DocumentsIndexed, st.DocumentsSkipped, st.ChunkFailures)
	return nil
}

// Run performs a full scan and then indexes changes reported by the
// source until ctx is cancelled. The watch starts before the scan, and
// changes seen during the scan are replayed once it completes.
func (ix *Indexer) Run(ctx context.Context) error {
	if ix.connector == nil {
		return fmt.Errorf("run indexer: connector not configured: %w", domain.ErrInvalidInput)
	}

	caps := ix.connector.Capabilities()
	if caps.SupportsValidation {
		if err := ix.connector.Validate(ctx); err != nil {
			return fmt.Errorf("validate source: %w", err)
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	var changes <-chan domain.RawDocumentChange
	if caps.SupportsWatch {
		var err error
		if changes, err = ix.connector.Watch(gctx); err != nil {
			return fmt.Errorf("watch source: %w", err)
		}
	}

	jobs := ix.startWorkers(gctx, g)

	g.Go(func() error {
		defer jobs.close()

		backlog, open, err := ix.scan(gctx, jobs, changes)
		if err != nil {
			return err
		}
		for _, change := range backlog {
			if err := ix.dispatch(gctx, change, jobs); err != nil {
				return err
			}
		}
		if !open {
			return nil
		}
		return ix.follow(gctx, changes, jobs)
	})

	err := g.Wait()
	if errors.Is(err, context.Canceled) && ctx.Err() != nil {
		return nil
	}
	return err
}

// Index normalises, chunks, embeds and indexes one document.
//
//nolint:gocyclo // Pipeline orchestration with sequential steps
func (ix *Indexer) Index(ctx context.Context, raw *domain.RawDocument) (*driving.IndexResult, error) {
	// 1. NORMALISE
	normalised, err := ix.registry.Normalise(ctx, raw)
	if err != nil {
		ix.recordError()
		return nil, fmt.Errorf("normalise %s: %w", raw.URI, err)
	}
	doc := normalised.Document
	if strings.TrimSpace(doc.Content) == "" {
		ix.recordError()
		return nil, fmt.Errorf("index %s: %w", raw.URI, domain.ErrEmptyDocument)
	}

	unlock := ix.locks.Lock(doc.ID)
	defer unlock()

	result := &driving.IndexResult{DocumentID: doc.ID}

	// 2. COMPARE CONTENT HASH
	sum := sha256.Sum256([]byte(doc.Content))
	doc.ContentHash = hex.EncodeToString(sum[:])

	existing, err := ix.docStore.GetDocument(ctx, doc.ID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		ix.recordError()
		return nil, fmt.Errorf("load document %s: %w", doc.ID, err)
	}
	if existing != nil && existing.ContentHash == doc.ContentHash {
		result.Skipped = true
		ix.record(func(s *driving.IngestStatus) { s.DocumentsSkipped++ })
		ix.metrics.document("unchanged")
		logger.Debug("Unchanged: %s", doc.ID)
		return result, nil
	}

	// 3. CHUNK
	chunks := ix.chunker.Split(&doc)
	if len(chunks) == 0 {
		ix.recordError()
		return nil, fmt.Errorf("chunk %s: %w", doc.ID, domain.ErrEmptyDocument)
	}

	// 4. EMBED
	entries := make([]domain.IndexEntry, 0, len(chunks))
	kept := make([]domain.Chunk, 0, len(chunks))
	var failures []error
	for _, chunk := range chunks {
		vec, err := ix.embedder.Embed(ctx, chunk.Content)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			result.Failed = append(result.Failed, chunk.ID)
			failures = append(failures, fmt.Errorf("chunk %s: %w", chunk.ID, err))
			logger.Warn("Excluding chunk %s: %v", chunk.ID, err)
			continue
		}
		entries = append(entries, domain.IndexEntry{Chunk: chunk, Vector: vec})
		kept = append(kept, chunk)
	}
	ix.metrics.chunks(len(entries), len(result.Failed))

	if len(entries) == 0 {
		ix.recordError()
		ix.record(func(s *driving.IngestStatus) { s.ChunkFailures += len(result.Failed) })
		return result, fmt.Errorf("embed %s: %w", doc.ID, errors.Join(failures...))
	}

	// 5. REPLACE INDEX ENTRIES
	if err := ix.index.ReplaceDocument(ctx, doc.ID, entries); err != nil {
		ix.recordError()
		return nil, fmt.Errorf("index %s: %w", doc.ID, err)
	}
	result.Indexed = len(entries)

	// 6. SAVE DOCUMENT AND CHUNKS
	if len(result.Failed) > 0 {
		// A partial document is retried on the next event.
		doc.ContentHash = ""
	}
	doc.UpdatedAt = ix.now()
	if err := ix.docStore.SaveDocument(ctx, &doc); err != nil {
		ix.recordError()
		return nil, fmt.Errorf("save document %s: %w", doc.ID, err)
	}
	if err := ix.docStore.SaveChunks(ctx, doc.ID, kept); err != nil {
		ix.recordError()
		return nil, fmt.Errorf("save chunks %s: %w", doc.ID, err)
	}

	ix.record(func(s *driving.IngestStatus) {
		s.DocumentsIndexed++
		s.ChunksIndexed += len(entries)
		s.ChunkFailures += len(result.Failed)
	})
	ix.metrics.document("indexed")

	// 7. PUBLISH
	ix.publish(domain.IndexEvent{DocumentID: doc.ID, Chunks: len(entries), At: doc.UpdatedAt})

	logger.Debug("Indexed %s: %d chunks", doc.ID, len(entries))
	return result, nil
}

// Status returns a snapshot of the indexing counters.
func (ix *Indexer) Status() driving.IngestStatus {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.status
}

// shards routes documents to workers by ID, so changes to one document
// are indexed in the order they were read.
type shards []chan domain.RawDocument

func (s shards) send(ctx context.Context, raw domain.RawDocument) error {
	key := raw.ID
	if key == "" {
		key = raw.URI
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))

	select {
	case s[h.Sum32()%uint32(len(s))] <- raw:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s shards) close() {
	for _, ch := range s {
		close(ch)
	}
}

func (ix *Indexer) startWorkers(ctx context.Context, g *errgroup.Group) shards {
	jobs := make(shards, ix.workers)
	for i := range jobs {
		ch := make(chan domain.RawDocument)
		jobs[i] = ch
		g.Go(func() error {
			for raw := range ch {
				if _, err := ix.Index(ctx, &raw); err != nil {
					if ctx.Err() != nil {
						return ctx.Err()
					}
					ix.logFailure(&raw, err)
				}
			}
			return nil
		})
	}
	return jobs
}

// scan feeds every document of a full sync into jobs. Changes arriving
// meanwhile are returned as a backlog; open reports whether changes is
// still open.
func (ix *Indexer) scan(
	ctx context.Context,
	jobs shards,
	changes <-chan domain.RawDocumentChange,
) (backlog []domain.RawDocumentChange, open bool, err error) {
	docsCh, errsCh := ix.connector.FullSync(ctx)
	open = changes != nil

	for {
		select {
		case <-ctx.Done():
			return nil, false, ctx.Err()

		case change, ok := <-changes:
			if !ok {
				changes, open = nil, false
				continue
			}
			backlog = append(backlog, change)

		case err, ok := <-errsCh:
			if !ok {
				errsCh = nil
				continue
			}
			if err != nil {
				return nil, false, fmt.Errorf("connector error: %w", err)
			}

		case raw, ok := <-docsCh:
			if !ok {
				return backlog, open, nil
			}
			if err := jobs.send(ctx, raw); err != nil {
				return nil, false, err
			}
		}
	}
}

// follow feeds watch events into jobs until the change channel closes.
func (ix *Indexer) follow(ctx context.Context, changes <-chan domain.RawDocumentChange, jobs shards) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case change, ok := <-changes:
			if !ok {
				return nil
			}
			if err := ix.dispatch(ctx, change, jobs); err != nil {
				return err
			}
		}
	}
}

func (ix *Indexer) dispatch(ctx context.Context, change domain.RawDocumentChange, jobs shards) error {
	switch change.Type {
	case domain.ChangeCreated, domain.ChangeUpdated:
		logger.Debug("Processing: %s", change.Document.URI)
		return jobs.send(ctx, change.Document)

	case domain.ChangeDeleted:
		logger.Debug("Ignoring deletion of %s", change.Document.URI)
	}
	return nil
}

func (ix *Indexer) publish(ev domain.IndexEvent) {
	select {
	case ix.events <- ev:
	default:
		logger.Debug("Index event buffer full, dropping event for %s", ev.DocumentID)
	}
}

func (ix *Indexer) logFailure(raw *domain.RawDocument, err error) {
	switch {
	case errors.Is(err, domain.ErrEmptyDocument), errors.Is(err, domain.ErrUnsupportedType):
		logger.Warn("Skipping %s: %v", raw.URI, err)
		ix.metrics.document("skipped")
	default:
		logger.Warn("Failed to index %s: %v", raw.URI, err)
		ix.metrics.document("failed")
	}
}

func (ix *Indexer) record(fn func(*driving.IngestStatus)) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	fn(&ix.status)
}

func (ix *Indexer) recordError() {
	ix.record(func(s *driving.IngestStatus) { s.Errors++ })
}
