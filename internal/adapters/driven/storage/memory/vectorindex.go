package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/wcreiley/notice-alert-system/internal/core/domain"
	"github.com/wcreiley/notice-alert-system/internal/core/ports/driven"
)

// Ensure VectorIndex implements the interface.
var _ driven.VectorIndex = (*VectorIndex)(nil)

// VectorIndex is an exact cosine-similarity index held in memory.
//
// Writers build the replacement entry set for a document and swap it in
// under the write lock, so a search sees either every old entry of the
// document or every new one.
type VectorIndex struct {
	dim int

	mu      sync.RWMutex
	entries map[string]indexed
	byDoc   map[string][]string
	nextSeq uint64
}

type indexed struct {
	chunk  domain.Chunk
	vector []float32
	norm   float64
	seq    uint64
}

// NewVectorIndex creates an index for vectors of the given dimension.
// A dimension of zero accepts the dimension of the first vector stored.
func NewVectorIndex(dimension int) *VectorIndex {
	return &VectorIndex{
		dim:     dimension,
		entries: make(map[string]indexed),
		byDoc:   make(map[string][]string),
	}
}

// Upsert inserts or replaces the entry for a single chunk.
func (v *VectorIndex) Upsert(_ context.Context, entry domain.IndexEntry) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.checkDimension(entry.Vector); err != nil {
		return err
	}
	v.put(entry)

	docID := entry.Chunk.DocumentID
	for _, id := range v.byDoc[docID] {
		if id == entry.Chunk.ID {
			return nil
		}
	}
	v.byDoc[docID] = append(v.byDoc[docID], entry.Chunk.ID)
	return nil
}

// ReplaceDocument replaces every entry of docID with entries. Chunks of
// docID absent from entries are removed.
func (v *VectorIndex) ReplaceDocument(_ context.Context, docID string, entries []domain.IndexEntry) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	for _, e := range entries {
		if e.Chunk.DocumentID != docID {
			return fmt.Errorf("chunk %s does not belong to %s: %w", e.Chunk.ID, docID, domain.ErrInvalidInput)
		}
		if err := v.checkDimension(e.Vector); err != nil {
			return err
		}
	}

	keep := make(map[string]struct{}, len(entries))
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		keep[e.Chunk.ID] = struct{}{}
		ids = append(ids, e.Chunk.ID)
	}
	for _, id := range v.byDoc[docID] {
		if _, ok := keep[id]; !ok {
			delete(v.entries, id)
		}
	}
	for _, e := range entries {
		v.put(e)
	}

	if len(ids) == 0 {
		delete(v.byDoc, docID)
	} else {
		v.byDoc[docID] = ids
	}
	return nil
}

// Search returns up to k entries ordered by descending cosine similarity.
// Equal scores are ordered by insertion.
func (v *VectorIndex) Search(_ context.Context, vector []float32, k int) ([]domain.IndexHit, error) {
	if k <= 0 {
		return nil, nil
	}

	v.mu.RLock()
	defer v.mu.RUnlock()

	if len(v.entries) == 0 {
		return nil, nil
	}
	if v.dim > 0 && len(vector) != v.dim {
		return nil, fmt.Errorf("query has %d dimensions, index has %d: %w", len(vector), v.dim, domain.ErrDimensionMismatch)
	}

	qnorm := norm(vector)
	type scored struct {
		entry indexed
		score float64
	}
	results := make([]scored, 0, len(v.entries))
	for id := range v.entries {
		e := v.entries[id]
		results = append(results, scored{entry: e, score: cosine(vector, qnorm, e.vector, e.norm)})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].score != results[j].score {
			return results[i].score > results[j].score
		}
		return results[i].entry.seq < results[j].entry.seq
	})

	if len(results) > k {
		results = results[:k]
	}
	hits := make([]domain.IndexHit, len(results))
	for i, r := range results {
		hits[i] = domain.IndexHit{Chunk: r.entry.chunk, Score: r.score}
	}
	return hits, nil
}

// Len returns the number of live entries.
func (v *VectorIndex) Len() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.entries)
}

// Close releases the entries.
func (v *VectorIndex) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.entries = make(map[string]indexed)
	v.byDoc = make(map[string][]string)
	return nil
}

// put stores entry, keeping the insertion sequence of a replaced chunk.
// Callers hold the write lock.
func (v *VectorIndex) put(entry domain.IndexEntry) {
	vec := make([]float32, len(entry.Vector))
	copy(vec, entry.Vector)

	seq, ok := v.entries[entry.Chunk.ID]
	e := indexed{chunk: entry.Chunk, vector: vec, norm: norm(vec)}
	if ok {
		e.seq = seq.seq
	} else {
		e.seq = v.nextSeq
		v.nextSeq++
	}
	v.entries[entry.Chunk.ID] = e
}

func (v *VectorIndex) checkDimension(vec []float32) error {
	if len(vec) == 0 {
		return fmt.Errorf("empty vector: %w", domain.ErrInvalidInput)
	}
	if v.dim == 0 {
		v.dim = len(vec)
		return nil
	}
	if len(vec) != v.dim {
		return fmt.Errorf("vector has %d dimensions, index has %d: %w", len(vec), v.dim, domain.ErrDimensionMismatch)
	}
	return nil
}

func norm(vec []float32) float64 {
	var sum float64
	for _, x := range vec {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

func cosine(a []float32, anorm float64, b []float32, bnorm float64) float64 {
	if anorm == 0 || bnorm == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot / (anorm * bnorm)
}
