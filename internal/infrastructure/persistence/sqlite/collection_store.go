package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/freight-audit/internal/application/port"
)

// CollectionStore implements port.CollectionStore on the collections table
type CollectionStore struct {
	db     *DB
	logger *zap.Logger
}

// NewCollectionStore creates a new collection store
func NewCollectionStore(db *DB, logger *zap.Logger) *CollectionStore {
	return &CollectionStore{
		db:     db,
		logger: logger,
	}
}

// Load returns the stored collection or port.ErrNotFound
func (s *CollectionStore) Load(ctx context.Context, key string) (*port.CollectionRecord, error) {
	query := `SELECT value, version FROM collections WHERE key = ?`

	rec := port.CollectionRecord{Key: key}
	var value string
	err := s.db.getExecutor(ctx).QueryRowContext(ctx, query, key).Scan(&value, &rec.Version)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, port.ErrNotFound
	}
	if err != nil {
		s.logger.Error("Failed to load collection", zap.String("key", key), zap.Error(err))
		return nil, fmt.Errorf("failed to load collection %s: %w", key, err)
	}

	rec.Value = []byte(value)
	return &rec, nil
}

// Save writes the collection if its stored version is still expectedVersion
func (s *CollectionStore) Save(ctx context.Context, key string, value []byte, expectedVersion int64) (int64, error) {
	exec := s.db.getExecutor(ctx)
	now := time.Now().UTC()
	next := expectedVersion + 1

	var (
		result sql.Result
		err    error
	)
	if expectedVersion == 0 {
		result, err = exec.ExecContext(ctx, `
			INSERT INTO collections (key, value, version, updated_at)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(key) DO NOTHING
		`, key, string(value), next, now)
	} else {
		result, err = exec.ExecContext(ctx, `
			UPDATE collections SET value = ?, version = ?, updated_at = ?
			WHERE key = ? AND version = ?
		`, string(value), next, now, key, expectedVersion)
	}
	if err != nil {
		s.logger.Error("Failed to save collection", zap.String("key", key), zap.Error(err))
		return 0, fmt.Errorf("failed to save collection %s: %w", key, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		s.logger.Info("Collection save lost version race",
			zap.String("key", key),
			zap.Int64("expected_version", expectedVersion))
		return 0, fmt.Errorf("%w: collection %s at version %d", port.ErrVersionConflict, key, expectedVersion)
	}

	return next, nil
}

// Verify interface compliance
var _ port.CollectionStore = (*CollectionStore)(nil)
