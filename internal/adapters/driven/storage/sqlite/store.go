package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/wcreiley/notice-alert-system/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/wcreiley/notice-alert-system/internal/core/domain"
	"github.com/wcreiley/notice-alert-system/internal/core/ports/driven"
)

// Store is a SQLite database holding engine state that should survive
// restarts.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens or creates the database file at path and applies any
// pending migrations.
func NewStore(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("database path is required: %w", domain.ErrInvalidInput)
	}

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: path,
	}

	// Run migrations
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// StandingQueryStore returns a StandingQueryStore backed by this store.
func (s *Store) StandingQueryStore() driven.StandingQueryStore {
	return &standingQueryStore{store: s}
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	// Find all up migrations
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_standing_queries.up.sql" -> 1
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Standing Query Store ====================

// standingQueryStore implements driven.StandingQueryStore.
type standingQueryStore struct {
	store *Store
}

var _ driven.StandingQueryStore = (*standingQueryStore)(nil)

// Save creates or replaces a standing query.
func (s *standingQueryStore) Save(ctx context.Context, sq *domain.StandingQuery) error {
	if sq == nil || sq.Identity == "" {
		return domain.ErrInvalidInput
	}

	now := time.Now().UTC()
	createdAt, updatedAt := sq.CreatedAt, sq.UpdatedAt
	if createdAt.IsZero() {
		createdAt = now
	}
	if updatedAt.IsZero() {
		updatedAt = now
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO standing_queries (identity, user_name, query, vector, last_answer, fingerprint, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(identity) DO UPDATE SET
			user_name = excluded.user_name,
			query = excluded.query,
			vector = excluded.vector,
			last_answer = excluded.last_answer,
			fingerprint = excluded.fingerprint,
			updated_at = excluded.updated_at
	`, sq.Identity, sq.User, sq.Query, encodeVector(sq.Vector), sq.LastAnswer, sq.Fingerprint,
		createdAt.UnixNano(), updatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("saving standing query: %w", err)
	}
	return nil
}

// Get retrieves a standing query by identity.
func (s *standingQueryStore) Get(ctx context.Context, identity string) (*domain.StandingQuery, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT identity, user_name, query, vector, last_answer, fingerprint, created_at, updated_at
		FROM standing_queries WHERE identity = ?
	`, identity)

	sq, err := scanStandingQuery(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning standing query: %w", err)
	}
	return sq, nil
}

// List returns all standing queries ordered by creation time.
func (s *standingQueryStore) List(ctx context.Context) ([]domain.StandingQuery, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT identity, user_name, query, vector, last_answer, fingerprint, created_at, updated_at
		FROM standing_queries ORDER BY created_at, identity
	`)
	if err != nil {
		return nil, fmt.Errorf("listing standing queries: %w", err)
	}
	defer rows.Close()

	var result []domain.StandingQuery
	for rows.Next() {
		sq, err := scanStandingQuery(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning standing query: %w", err)
		}
		result = append(result, *sq)
	}
	return result, rows.Err()
}

// Delete removes a standing query.
func (s *standingQueryStore) Delete(ctx context.Context, identity string) error {
	if _, err := s.store.db.ExecContext(ctx, "DELETE FROM standing_queries WHERE identity = ?", identity); err != nil {
		return fmt.Errorf("deleting standing query: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanStandingQuery(row scanner) (*domain.StandingQuery, error) {
	var sq domain.StandingQuery
	var vector []byte
	var createdAt, updatedAt int64
	if err := row.Scan(&sq.Identity, &sq.User, &sq.Query, &vector, &sq.LastAnswer,
		&sq.Fingerprint, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	vec, err := decodeVector(vector)
	if err != nil {
		return nil, err
	}
	sq.Vector = vec
	sq.CreatedAt = time.Unix(0, createdAt).UTC()
	sq.UpdatedAt = time.Unix(0, updatedAt).UTC()
	return &sq, nil
}

// encodeVector stores float32 values little-endian.
func encodeVector(vec []float32) []byte {
	if len(vec) == 0 {
		return nil
	}
	buf := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(v))
	}
	return buf
}

func decodeVector(buf []byte) ([]float32, error) {
	if len(buf) == 0 {
		return nil, nil
	}
	if len(buf)%4 != 0 {
		return nil, fmt.Errorf("corrupt vector of %d bytes", len(buf))
	}
	vec := make([]float32, len(buf)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[4*i:]))
	}
	return vec, nil
}
