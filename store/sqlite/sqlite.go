/*
Package sqlite provides a SQLite-backed ledger.Persister.

PURPOSE:
  Keeps one row per named store collection (shop settings, draft receipt,
  catalog, receipt history, stock movements). Each Save overwrites the row;
  the ledger.Store holds the authoritative state in memory and only restores
  from here on startup.

KEY TABLES:
  snapshots: name (PK), version, payload (JSON), saved_at

VERSIONING:
  The version column is the collection's format version. A row written by an
  older format is returned as-is; ledger.Store decides to fall back to the
  default.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging):
  - Readers don't block the writer
  - Better crash recovery

USAGE:
  db, err := sqlite.New("./data/pos.db")
  if err != nil {
      log.Fatal(err)
  }
  defer db.Close()

  store := ledger.NewStore(db, defaults)
  if err := store.Load(ctx); err != nil {
      log.Fatal(err)
  }

MIGRATION:
  Schema is auto-migrated on New().
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/warp/pos-ledger/ledger"
)

// Store implements ledger.Persister using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New opens (and migrates) the database at dbPath.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A second connection to ":memory:" would see an empty database.
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS snapshots (
		name TEXT PRIMARY KEY,
		version INTEGER NOT NULL,
		payload TEXT NOT NULL,
		saved_at TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// SNAPSHOTS (ledger.Persister)
// =============================================================================

// Save upserts the named snapshot.
func (s *Store) Save(ctx context.Context, name string, version int, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO snapshots (name, version, payload, saved_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			version = excluded.version,
			payload = excluded.payload,
			saved_at = excluded.saved_at
	`
	_, err := s.db.ExecContext(ctx, query,
		name, version, string(payload), time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("save snapshot %s: %w", name, err)
	}
	return nil
}

// Load returns the named snapshot, or ledger.ErrSnapshotNotFound.
func (s *Store) Load(ctx context.Context, name string) (int, []byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		version int
		payload string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT version, payload FROM snapshots WHERE name = ?`, name,
	).Scan(&version, &payload)

	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil, ledger.ErrSnapshotNotFound
	}
	if err != nil {
		return 0, nil, fmt.Errorf("load snapshot %s: %w", name, err)
	}
	return version, []byte(payload), nil
}

// SnapshotInfo describes a stored snapshot without its payload.
type SnapshotInfo struct {
	Name    string    `json:"name"`
	Version int       `json:"version"`
	Size    int       `json:"size"`
	SavedAt time.Time `json:"savedAt"`
}

// List returns metadata for every stored snapshot, by name.
func (s *Store) List(ctx context.Context) ([]SnapshotInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT name, version, LENGTH(payload), saved_at FROM snapshots ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var infos []SnapshotInfo
	for rows.Next() {
		var (
			info    SnapshotInfo
			savedAt string
		)
		if err := rows.Scan(&info.Name, &info.Version, &info.Size, &savedAt); err != nil {
			return nil, err
		}
		info.SavedAt, _ = time.Parse(time.RFC3339, savedAt)
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, "DELETE FROM snapshots")
	return err
}

var _ ledger.Persister = (*Store)(nil)
