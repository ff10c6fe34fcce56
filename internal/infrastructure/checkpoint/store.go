// Package checkpoint provides infrastructure for persisting and restoring
// training state. Component snapshots (buffer contents, priority leaves,
// running statistics, shadow parameters) are serialized and written to a
// SQLite database keyed by kind, so a run can resume from its most recent
// checkpoint of each component.
package checkpoint

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	domainCheckpoint "github.com/colbyziyuwang/tianshou/internal/domain/checkpoint"
)

// Store persists checkpoints in SQLite. Unlike the purely in-memory
// training components, a store may be shared between a trainer and an
// evaluator, so it serializes access with an internal mutex.
type Store struct {
	mu         sync.RWMutex
	db         *sql.DB
	config     domainCheckpoint.Config
	serializer Serializer
	logger     zerolog.Logger
	closed     bool
}

// NewStore opens (or creates) the checkpoint database. A nil serializer
// selects JSON. Pass zerolog.Nop() to disable logging.
func NewStore(config domainCheckpoint.Config, serializer Serializer, logger zerolog.Logger) (*Store, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if serializer == nil {
		serializer = NewJSONSerializer()
	}

	dir := filepath.Dir(config.DatabasePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("%w: failed to create directory: %v", domainCheckpoint.ErrStoreInitFailed, err)
	}

	db, err := sql.Open("sqlite", config.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open database: %v", domainCheckpoint.ErrStoreInitFailed, err)
	}

	store := &Store{
		db:         db,
		config:     config,
		serializer: serializer,
		logger:     logger.With().Str("component", "checkpoint_store").Logger(),
	}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, err
	}

	store.logger.Info().Str("path", config.DatabasePath).Msg("checkpoint store opened")
	return store, nil
}

// Save serializes state and writes it as a new checkpoint of the given
// kind, returning the checkpoint id.
func (s *Store) Save(ctx context.Context, kind domainCheckpoint.Kind, state interface{}) (string, error) {
	if kind == "" {
		return "", fmt.Errorf("%w: empty kind", domainCheckpoint.ErrInvalidKind)
	}

	payload, err := s.serializer.Marshal(state)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return "", domainCheckpoint.ErrStoreClosed
	}

	id := uuid.New().String()
	createdAt := time.Now().UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domainCheckpoint.ErrTransactionFailed, err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO checkpoints (id, kind, state, created_at)
		VALUES (?, ?, ?, ?)
	`, id, string(kind), payload, createdAt.UnixMilli())
	if err != nil {
		return "", fmt.Errorf("%w: %v", domainCheckpoint.ErrTransactionFailed, err)
	}

	if s.config.KeepPerKind > 0 {
		_, err = tx.ExecContext(ctx, `
			DELETE FROM checkpoints
			WHERE kind = ? AND id NOT IN (
				SELECT id FROM checkpoints
				WHERE kind = ?
				ORDER BY created_at DESC, rowid DESC
				LIMIT ?
			)
		`, string(kind), string(kind), s.config.KeepPerKind)
		if err != nil {
			return "", fmt.Errorf("%w: %v", domainCheckpoint.ErrTransactionFailed, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("%w: %v", domainCheckpoint.ErrTransactionFailed, err)
	}

	s.logger.Debug().
		Str("id", id).
		Str("kind", string(kind)).
		Int("bytes", len(payload)).
		Msg("checkpoint saved")
	return id, nil
}

// Load returns the checkpoint with the given id.
func (s *Store) Load(ctx context.Context, id string) (*domainCheckpoint.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, domainCheckpoint.ErrStoreClosed
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, kind, state, created_at
		FROM checkpoints
		WHERE id = ?
	`, id)
	return scanRecord(row, id)
}

// LoadState loads a checkpoint and deserializes its state into target.
func (s *Store) LoadState(ctx context.Context, id string, target interface{}) error {
	record, err := s.Load(ctx, id)
	if err != nil {
		return err
	}
	return s.serializer.Unmarshal(record.State, target)
}

// Latest returns the most recent checkpoint of a kind.
func (s *Store) Latest(ctx context.Context, kind domainCheckpoint.Kind) (*domainCheckpoint.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, domainCheckpoint.ErrStoreClosed
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, kind, state, created_at
		FROM checkpoints
		WHERE kind = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT 1
	`, string(kind))
	return scanRecord(row, string(kind))
}

// LatestState loads the most recent checkpoint of a kind and deserializes
// its state into target.
func (s *Store) LatestState(ctx context.Context, kind domainCheckpoint.Kind, target interface{}) error {
	record, err := s.Latest(ctx, kind)
	if err != nil {
		return err
	}
	return s.serializer.Unmarshal(record.State, target)
}

// List returns checkpoints newest first. An empty kind lists every kind.
func (s *Store) List(ctx context.Context, kind domainCheckpoint.Kind) ([]*domainCheckpoint.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, domainCheckpoint.ErrStoreClosed
	}

	query := `
		SELECT id, kind, state, created_at
		FROM checkpoints
		ORDER BY created_at DESC, rowid DESC
	`
	args := []interface{}{}
	if kind != "" {
		query = `
			SELECT id, kind, state, created_at
			FROM checkpoints
			WHERE kind = ?
			ORDER BY created_at DESC, rowid DESC
		`
		args = append(args, string(kind))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domainCheckpoint.ErrTransactionFailed, err)
	}
	defer rows.Close()

	records := make([]*domainCheckpoint.Record, 0)
	for rows.Next() {
		var record domainCheckpoint.Record
		var kindText string
		var createdMillis int64
		if err := rows.Scan(&record.ID, &kindText, &record.State, &createdMillis); err != nil {
			return nil, fmt.Errorf("%w: %v", domainCheckpoint.ErrTransactionFailed, err)
		}
		record.Kind = domainCheckpoint.Kind(kindText)
		record.CreatedAt = time.UnixMilli(createdMillis).UTC()
		records = append(records, &record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", domainCheckpoint.ErrTransactionFailed, err)
	}
	return records, nil
}

// Count returns how many checkpoints of a kind exist. An empty kind
// counts every kind.
func (s *Store) Count(ctx context.Context, kind domainCheckpoint.Kind) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return 0, domainCheckpoint.ErrStoreClosed
	}

	var count int64
	var err error
	if kind == "" {
		err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM checkpoints`).Scan(&count)
	} else {
		err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM checkpoints WHERE kind = ?`, string(kind)).Scan(&count)
	}
	if err != nil {
		return 0, fmt.Errorf("%w: %v", domainCheckpoint.ErrTransactionFailed, err)
	}
	return count, nil
}

// Delete removes a checkpoint by id.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return domainCheckpoint.ErrStoreClosed
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM checkpoints WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("%w: %v", domainCheckpoint.ErrTransactionFailed, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %v", domainCheckpoint.ErrTransactionFailed, err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", domainCheckpoint.ErrNotFound, id)
	}
	return nil
}

// Close closes the store.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

// Private methods

// initSchema creates the database schema.
func (s *Store) initSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS checkpoints (
			id TEXT PRIMARY KEY,
			kind TEXT NOT NULL,
			state BLOB NOT NULL,
			created_at INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_checkpoints_kind ON checkpoints(kind, created_at);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("%w: failed to create schema: %v", domainCheckpoint.ErrStoreInitFailed, err)
	}
	return nil
}

// scanRecord reads one checkpoint row, mapping missing rows to
// ErrNotFound with the lookup key in the message.
func scanRecord(row *sql.Row, key string) (*domainCheckpoint.Record, error) {
	var record domainCheckpoint.Record
	var kindText string
	var createdMillis int64
	err := row.Scan(&record.ID, &kindText, &record.State, &createdMillis)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", domainCheckpoint.ErrNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domainCheckpoint.ErrTransactionFailed, err)
	}
	record.Kind = domainCheckpoint.Kind(kindText)
	record.CreatedAt = time.UnixMilli(createdMillis).UTC()
	return &record, nil
}
