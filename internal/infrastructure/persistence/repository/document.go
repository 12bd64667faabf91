package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/garyjia/freight-audit/internal/application/port"
)

// document is one JSON-encoded collection in the store
type document[T any] struct {
	store  port.CollectionStore
	key    string
	logger *zap.Logger
}

// load decodes the stored value. A missing key yields the zero value and version 0.
func (d document[T]) load(ctx context.Context) (T, int64, error) {
	var value T

	rec, err := d.store.Load(ctx, d.key)
	if errors.Is(err, port.ErrNotFound) {
		return value, 0, nil
	}
	if err != nil {
		return value, 0, err
	}

	if err := json.Unmarshal(rec.Value, &value); err != nil {
		d.logger.Error("Failed to decode collection", zap.String("key", d.key), zap.Error(err))
		return value, 0, fmt.Errorf("failed to decode %s: %w", d.key, err)
	}
	return value, rec.Version, nil
}

// save encodes value and writes it if the stored version is still version
func (d document[T]) save(ctx context.Context, value T, version int64) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", d.key, err)
	}

	if _, err := d.store.Save(ctx, d.key, data, version); err != nil {
		return err
	}
	return nil
}
