package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wcreiley/notice-alert-system/internal/core/domain"
)

// setupTestStore creates a temporary SQLite store for testing.
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore(filepath.Join(t.TempDir(), "state", "noticealert.db"))
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, store.Close()) })
	return store
}

func TestNewStore_RequiresPath(t *testing.T) {
	_, err := NewStore("")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestNewStore_Migrations(t *testing.T) {
	store := setupTestStore(t)

	var version int
	require.NoError(t, store.db.QueryRow("SELECT MAX(version) FROM schema_migrations").Scan(&version))
	assert.Equal(t, 1, version)

	var name string
	require.NoError(t, store.db.QueryRow(
		"SELECT name FROM sqlite_master WHERE type='table' AND name='standing_queries'",
	).Scan(&name))
	assert.Equal(t, "standing_queries", name)
}

func TestNewStore_ReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "noticealert.db")
	ctx := context.Background()

	store, err := NewStore(path)
	require.NoError(t, err)
	require.NoError(t, store.StandingQueryStore().Save(ctx, &domain.StandingQuery{Identity: "q1", User: "alice", Query: "q"}))
	require.NoError(t, store.Close())

	reopened, err := NewStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	assert.Equal(t, path, reopened.Path())
	sq, err := reopened.StandingQueryStore().Get(ctx, "q1")
	require.NoError(t, err)
	assert.Equal(t, "alice", sq.User)
}

func TestStandingQueryStore_SaveAndGet(t *testing.T) {
	store := setupTestStore(t).StandingQueryStore()
	ctx := context.Background()
	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	sq := &domain.StandingQuery{
		Identity:    "q1",
		User:        "alice",
		Query:       "Are there any outages for Creole Trail?",
		Vector:      []float32{0.25, -1.5, 3},
		LastAnswer:  "No outages are scheduled.",
		Fingerprint: "fp",
		CreatedAt:   created,
		UpdatedAt:   created.Add(time.Minute),
	}
	require.NoError(t, store.Save(ctx, sq))

	got, err := store.Get(ctx, "q1")
	require.NoError(t, err)
	assert.Equal(t, sq.User, got.User)
	assert.Equal(t, sq.Query, got.Query)
	assert.Equal(t, sq.Vector, got.Vector)
	assert.Equal(t, sq.LastAnswer, got.LastAnswer)
	assert.Equal(t, sq.Fingerprint, got.Fingerprint)
	assert.True(t, created.Equal(got.CreatedAt))
	assert.True(t, sq.UpdatedAt.Equal(got.UpdatedAt))
}

func TestStandingQueryStore_UpdateKeepsCreatedAt(t *testing.T) {
	store := setupTestStore(t).StandingQueryStore()
	ctx := context.Background()
	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, store.Save(ctx, &domain.StandingQuery{Identity: "q1", Query: "q", LastAnswer: "a", CreatedAt: created}))
	require.NoError(t, store.Save(ctx, &domain.StandingQuery{Identity: "q1", Query: "q", LastAnswer: "b", CreatedAt: created.Add(time.Hour)}))

	got, err := store.Get(ctx, "q1")
	require.NoError(t, err)
	assert.Equal(t, "b", got.LastAnswer)
	assert.True(t, created.Equal(got.CreatedAt))
}

func TestStandingQueryStore_GetNotFound(t *testing.T) {
	store := setupTestStore(t).StandingQueryStore()

	_, err := store.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStandingQueryStore_SaveInvalid(t *testing.T) {
	store := setupTestStore(t).StandingQueryStore()

	assert.ErrorIs(t, store.Save(context.Background(), &domain.StandingQuery{}), domain.ErrInvalidInput)
}

func TestStandingQueryStore_ListOrderedByCreation(t *testing.T) {
	store := setupTestStore(t).StandingQueryStore()
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	for i, id := range []string{"c", "a", "b"} {
		offset := map[string]time.Duration{"a": 0, "b": time.Minute, "c": 2 * time.Minute}[id]
		require.NoError(t, store.Save(ctx, &domain.StandingQuery{Identity: id, Query: "q", CreatedAt: base.Add(offset)}), "save %d", i)
	}

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "a", list[0].Identity)
	assert.Equal(t, "b", list[1].Identity)
	assert.Equal(t, "c", list[2].Identity)
	assert.Nil(t, list[0].Vector)
}

func TestStandingQueryStore_Delete(t *testing.T) {
	store := setupTestStore(t).StandingQueryStore()
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, &domain.StandingQuery{Identity: "q1", Query: "q"}))
	require.NoError(t, store.Delete(ctx, "q1"))
	require.NoError(t, store.Delete(ctx, "q1"))

	_, err := store.Get(ctx, "q1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestVectorEncoding(t *testing.T) {
	vec := []float32{0, 1.5, -2.25}
	decoded, err := decodeVector(encodeVector(vec))
	require.NoError(t, err)
	assert.Equal(t, vec, decoded)

	_, err = decodeVector([]byte{1, 2, 3})
	assert.Error(t, err)
}
