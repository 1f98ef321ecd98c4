/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Persists environment definitions, episode headers and the append-only
  step journal. Implements generic.Store so a generic.Ledger can sit on top.

INTERFACES IMPLEMENTED:
  generic.Store: Step journal persistence

APPEND-ONLY ENFORCEMENT:
  - No UPDATE statements on the steps table
  - No DELETE statements on the steps table (outside Reset)
  - idempotency_key is UNIQUE; (episode_id, step_index) is UNIQUE

KEY TABLES:
  environments: JSON definitions (versioned on overwrite)
  episodes:     One row per reset, with its seed and environment
  steps:        Immutable journal of sampled transitions

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. In-memory databases are pinned to a
  single connection so every query sees the same database.

USAGE:
  store, err := sqlite.New("./data/foodtruck.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  ledger := generic.NewLedger(store)

SEE ALSO:
  - generic/store.go: Interface definitions
  - generic/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	sqlite3 "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/warp/foodtruck-engine/generic"
)

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

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

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Environment definitions
	CREATE TABLE IF NOT EXISTS environments (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		config_json TEXT NOT NULL,
		version INTEGER DEFAULT 1,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- Episodes (one per reset)
	CREATE TABLE IF NOT EXISTS episodes (
		id TEXT PRIMARY KEY,
		environment_id TEXT NOT NULL REFERENCES environments(id) ON DELETE CASCADE,
		seed INTEGER NOT NULL,
		policy TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_episodes_environment
		ON episodes(environment_id, created_at);

	-- Steps (append-only journal)
	CREATE TABLE IF NOT EXISTS steps (
		id TEXT PRIMARY KEY,
		episode_id TEXT NOT NULL REFERENCES episodes(id) ON DELETE CASCADE,
		step_index INTEGER NOT NULL,
		state TEXT NOT NULL,
		action INTEGER NOT NULL,
		next_state TEXT NOT NULL,
		reward TEXT NOT NULL,
		done BOOLEAN NOT NULL DEFAULT FALSE,
		idempotency_key TEXT UNIQUE,
		metadata_json TEXT,
		created_at TEXT NOT NULL
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_steps_episode_index
		ON steps(episode_id, step_index);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// STEP STORE (generic.Store interface)
// =============================================================================

// Append adds a step to the journal.
func (s *Store) Append(ctx context.Context, rec generic.StepRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.appendStep(ctx, s.db, rec)
}

func (s *Store) appendStep(ctx context.Context, db interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}, rec generic.StepRecord) error {
	metadataJSON, _ := json.Marshal(rec.Metadata)
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	query := `
		INSERT INTO steps
		(id, episode_id, step_index, state, action, next_state, reward, done,
		 idempotency_key, metadata_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := db.ExecContext(ctx, query,
		rec.ID,
		rec.EpisodeID,
		rec.Index,
		rec.State,
		rec.Action,
		rec.Next,
		rec.Reward.String(),
		rec.Done,
		nullString(rec.IdempotencyKey),
		string(metadataJSON),
		createdAt.Format(time.RFC3339Nano),
	)

	if err != nil {
		if isUniqueConstraintError(err) {
			return generic.ErrDuplicateIdempotencyKey
		}
		if isForeignKeyError(err) {
			return fmt.Errorf("%w: %s", generic.ErrEpisodeNotFound, rec.EpisodeID)
		}
		return fmt.Errorf("failed to append step: %w", err)
	}

	return nil
}

// AppendBatch adds multiple steps atomically.
func (s *Store) AppendBatch(ctx context.Context, recs []generic.StepRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Check for duplicate idempotency keys within the batch first
	keys := make(map[string]bool)
	for _, rec := range recs {
		if rec.IdempotencyKey != "" {
			if keys[rec.IdempotencyKey] {
				return generic.ErrDuplicateIdempotencyKey
			}
			keys[rec.IdempotencyKey] = true
		}
	}

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	for _, rec := range recs {
		if err := s.appendStep(ctx, sqlTx, rec); err != nil {
			return err
		}
	}

	return sqlTx.Commit()
}

// Load returns all steps of an episode in order.
func (s *Store) Load(ctx context.Context, episodeID generic.EpisodeID) ([]generic.StepRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, episode_id, step_index, state, action, next_state, reward, done,
		       idempotency_key, metadata_json, created_at
		FROM steps
		WHERE episode_id = ?
		ORDER BY step_index ASC
	`

	rows, err := s.db.QueryContext(ctx, query, episodeID)
	if err != nil {
		return nil, fmt.Errorf("failed to query steps: %w", err)
	}
	defer rows.Close()

	var recs []generic.StepRecord
	for rows.Next() {
		rec, err := scanStep(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// Exists checks if an idempotency key exists.
func (s *Store) Exists(ctx context.Context, idempotencyKey string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM steps WHERE idempotency_key = ?",
		idempotencyKey,
	).Scan(&count)

	return count > 0, err
}

func scanStep(rows *sql.Rows) (generic.StepRecord, error) {
	var (
		rec            generic.StepRecord
		reward         string
		idempotencyKey sql.NullString
		metadataJSON   sql.NullString
		createdAt      string
	)

	err := rows.Scan(
		&rec.ID, &rec.EpisodeID, &rec.Index, &rec.State, &rec.Action, &rec.Next,
		&reward, &rec.Done, &idempotencyKey, &metadataJSON, &createdAt,
	)
	if err != nil {
		return rec, fmt.Errorf("failed to scan step: %w", err)
	}

	rec.Reward, err = decimal.NewFromString(reward)
	if err != nil {
		return rec, fmt.Errorf("step %s: reward %q: %w", rec.ID, reward, err)
	}
	rec.IdempotencyKey = idempotencyKey.String
	rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	if metadataJSON.Valid && metadataJSON.String != "" {
		if err := json.Unmarshal([]byte(metadataJSON.String), &rec.Metadata); err != nil {
			return rec, fmt.Errorf("step %s: metadata: %w", rec.ID, err)
		}
	}
	return rec, nil
}

// =============================================================================
// ENVIRONMENT STORE
// =============================================================================

// EnvironmentRecord is a stored environment with its JSON definition.
type EnvironmentRecord struct {
	ID         string
	Name       string
	ConfigJSON string
	Version    int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// SaveEnvironment inserts or overwrites an environment, bumping its version.
func (s *Store) SaveEnvironment(ctx context.Context, env EnvironmentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO environments (id, name, config_json, version, created_at, updated_at)
		VALUES (?, ?, ?, 1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			config_json = excluded.config_json,
			version = environments.version + 1,
			updated_at = excluded.updated_at
	`

	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.ExecContext(ctx, query, env.ID, env.Name, env.ConfigJSON, now, now)
	return err
}

// GetEnvironment retrieves an environment by ID. Returns nil if absent.
func (s *Store) GetEnvironment(ctx context.Context, id string) (*EnvironmentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var e EnvironmentRecord
	var createdAt, updatedAt string

	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, config_json, version, created_at, updated_at FROM environments WHERE id = ?",
		id,
	).Scan(&e.ID, &e.Name, &e.ConfigJSON, &e.Version, &createdAt, &updatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	e.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	e.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &e, nil
}

// ListEnvironments returns all environments ordered by name.
func (s *Store) ListEnvironments(ctx context.Context) ([]EnvironmentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, config_json, version, created_at, updated_at FROM environments ORDER BY name",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var envs []EnvironmentRecord
	for rows.Next() {
		var e EnvironmentRecord
		var createdAt, updatedAt string
		if err := rows.Scan(&e.ID, &e.Name, &e.ConfigJSON, &e.Version, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		e.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		e.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
		envs = append(envs, e)
	}
	return envs, rows.Err()
}

// =============================================================================
// EPISODE STORE
// =============================================================================

// EpisodeRecord is the header of one episode.
type EpisodeRecord struct {
	ID            string
	EnvironmentID string
	Seed          uint64
	Policy        string
	CreatedAt     time.Time
}

// SaveEpisode records a new episode.
func (s *Store) SaveEpisode(ctx context.Context, ep EpisodeRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO episodes (id, environment_id, seed, policy, created_at) VALUES (?, ?, ?, ?, ?)",
		ep.ID, ep.EnvironmentID, int64(ep.Seed), nullString(ep.Policy),
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		if isForeignKeyError(err) {
			return fmt.Errorf("%w: %s", generic.ErrEnvironmentNotFound, ep.EnvironmentID)
		}
		if isUniqueConstraintError(err) {
			return fmt.Errorf("episode %s already exists: %w", ep.ID, generic.ErrDuplicateIdempotencyKey)
		}
		return fmt.Errorf("failed to save episode: %w", err)
	}
	return nil
}

// GetEpisode retrieves an episode header. Returns nil if absent.
func (s *Store) GetEpisode(ctx context.Context, id string) (*EpisodeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		ep        EpisodeRecord
		seed      int64
		policy    sql.NullString
		createdAt string
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT id, environment_id, seed, policy, created_at FROM episodes WHERE id = ?",
		id,
	).Scan(&ep.ID, &ep.EnvironmentID, &seed, &policy, &createdAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	ep.Seed = uint64(seed)
	ep.Policy = policy.String
	ep.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	return &ep, nil
}

// ListEpisodes returns the episodes of one environment, oldest first.
func (s *Store) ListEpisodes(ctx context.Context, environmentID string) ([]EpisodeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, environment_id, seed, policy, created_at FROM episodes WHERE environment_id = ? ORDER BY created_at",
		environmentID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var eps []EpisodeRecord
	for rows.Next() {
		var (
			ep        EpisodeRecord
			seed      int64
			policy    sql.NullString
			createdAt string
		)
		if err := rows.Scan(&ep.ID, &ep.EnvironmentID, &seed, &policy, &createdAt); err != nil {
			return nil, err
		}
		ep.Seed = uint64(seed)
		ep.Policy = policy.String
		ep.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		eps = append(eps, ep)
	}
	return eps, rows.Err()
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{"steps", "episodes", "environments"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func isUniqueConstraintError(err error) bool {
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.ExtendedCode == sqlite3.ErrConstraintUnique ||
			se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func isForeignKeyError(err error) bool {
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.ExtendedCode == sqlite3.ErrConstraintForeignKey
	}
	return err != nil && strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}
