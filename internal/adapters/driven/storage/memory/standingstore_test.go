package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wcreiley/notice-alert-system/internal/core/domain"
)

func TestStandingQueryStore_SaveGet(t *testing.T) {
	store := NewStandingQueryStore()
	ctx := context.Background()

	sq := &domain.StandingQuery{
		Identity:   "id-1",
		User:       "alice",
		Query:      "Is Pipeline X constrained?",
		Vector:     []float32{0.1, 0.2},
		LastAnswer: "Yes, at 10%.",
		CreatedAt:  time.Now(),
	}
	require.NoError(t, store.Save(ctx, sq))

	got, err := store.Get(ctx, "id-1")
	require.NoError(t, err)
	assert.Equal(t, sq.Query, got.Query)
	assert.Equal(t, sq.LastAnswer, got.LastAnswer)
	assert.Equal(t, sq.Vector, got.Vector)

	// Stored vectors are isolated from the caller.
	sq.Vector[0] = 9
	got.Vector[1] = 9
	again, err := store.Get(ctx, "id-1")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2}, again.Vector)
}

func TestStandingQueryStore_Errors(t *testing.T) {
	store := NewStandingQueryStore()
	ctx := context.Background()

	_, err := store.Get(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.ErrorIs(t, store.Save(ctx, &domain.StandingQuery{}), domain.ErrInvalidInput)
	assert.ErrorIs(t, store.Save(ctx, nil), domain.ErrInvalidInput)
}

func TestStandingQueryStore_ListOrderedByCreation(t *testing.T) {
	store := NewStandingQueryStore()
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, store.Save(ctx, &domain.StandingQuery{Identity: "c", CreatedAt: base.Add(2 * time.Minute)}))
	require.NoError(t, store.Save(ctx, &domain.StandingQuery{Identity: "a", CreatedAt: base}))
	require.NoError(t, store.Save(ctx, &domain.StandingQuery{Identity: "b", CreatedAt: base.Add(time.Minute)}))

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "a", list[0].Identity)
	assert.Equal(t, "b", list[1].Identity)
	assert.Equal(t, "c", list[2].Identity)
}

func TestStandingQueryStore_Delete(t *testing.T) {
	store := NewStandingQueryStore()
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, &domain.StandingQuery{Identity: "a"}))
	require.NoError(t, store.Delete(ctx, "a"))
	require.NoError(t, store.Delete(ctx, "a"))

	_, err := store.Get(ctx, "a")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
