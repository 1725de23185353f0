package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/wcreiley/notice-alert-system/internal/core/domain"
	"github.com/wcreiley/notice-alert-system/internal/core/ports/driven"
)

// Ensure StandingQueryStore implements the interface.
var _ driven.StandingQueryStore = (*StandingQueryStore)(nil)

// StandingQueryStore is an in-memory implementation of driven.StandingQueryStore.
type StandingQueryStore struct {
	mu      sync.RWMutex
	queries map[string]domain.StandingQuery
}

// NewStandingQueryStore creates a new in-memory standing query store.
func NewStandingQueryStore() *StandingQueryStore {
	return &StandingQueryStore{
		queries: make(map[string]domain.StandingQuery),
	}
}

// Save stores or replaces a standing query.
func (s *StandingQueryStore) Save(_ context.Context, sq *domain.StandingQuery) error {
	if sq == nil || sq.Identity == "" {
		return domain.ErrInvalidInput
	}
	stored := *sq
	stored.Vector = append([]float32(nil), sq.Vector...)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries[sq.Identity] = stored
	return nil
}

// Get retrieves a standing query by identity.
func (s *StandingQueryStore) Get(_ context.Context, identity string) (*domain.StandingQuery, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sq, ok := s.queries[identity]
	if !ok {
		return nil, domain.ErrNotFound
	}
	sq.Vector = append([]float32(nil), sq.Vector...)
	return &sq, nil
}

// Delete removes a standing query.
func (s *StandingQueryStore) Delete(_ context.Context, identity string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.queries, identity)
	return nil
}

// List returns all standing queries ordered by creation time.
func (s *StandingQueryStore) List(_ context.Context) ([]domain.StandingQuery, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]domain.StandingQuery, 0, len(s.queries))
	for _, sq := range s.queries {
		result = append(result, sq)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].Identity < result[j].Identity
	})
	return result, nil
}
