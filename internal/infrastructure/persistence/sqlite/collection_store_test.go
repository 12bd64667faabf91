package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/garyjia/freight-audit/internal/application/port"
	"github.com/garyjia/freight-audit/migrations"
	"github.com/garyjia/freight-audit/pkg/database"
)

func newTestStore(t *testing.T) (*DB, *CollectionStore) {
	t.Helper()
	logger := zap.NewNop()

	raw, err := database.New(database.Config{
		Path:            filepath.Join(t.TempDir(), "test.db"),
		MaxOpenConns:    1,
		MaxIdleConns:    1,
		ConnMaxLifetime: time.Minute,
	}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = raw.Close() })

	require.NoError(t, database.NewMigrator(raw, logger).RunMigrations(migrations.Files))

	db := NewDB(raw.DB, logger)
	return db, NewCollectionStore(db, logger)
}

func TestCollectionStore_LoadMissing(t *testing.T) {
	_, store := newTestStore(t)

	_, err := store.Load(context.Background(), "invoices")
	assert.ErrorIs(t, err, port.ErrNotFound)
}

func TestCollectionStore_SaveAndLoad(t *testing.T) {
	_, store := newTestStore(t)
	ctx := context.Background()

	v1, err := store.Save(ctx, "invoices", []byte(`[]`), 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), v1)

	v2, err := store.Save(ctx, "invoices", []byte(`[{"id":"a"}]`), v1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), v2)

	rec, err := store.Load(ctx, "invoices")
	require.NoError(t, err)
	assert.Equal(t, int64(2), rec.Version)
	assert.JSONEq(t, `[{"id":"a"}]`, string(rec.Value))
}

func TestCollectionStore_StaleVersionConflicts(t *testing.T) {
	_, store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Save(ctx, "roles", []byte(`[]`), 0)
	require.NoError(t, err)

	// a second first-writer loses
	_, err = store.Save(ctx, "roles", []byte(`[1]`), 0)
	assert.ErrorIs(t, err, port.ErrVersionConflict)

	_, err = store.Save(ctx, "roles", []byte(`[1]`), 1)
	require.NoError(t, err)

	// a writer still holding version 1 loses
	_, err = store.Save(ctx, "roles", []byte(`[2]`), 1)
	assert.ErrorIs(t, err, port.ErrVersionConflict)

	rec, err := store.Load(ctx, "roles")
	require.NoError(t, err)
	assert.Equal(t, `[1]`, string(rec.Value))
}

func TestCollectionStore_RollbackOnError(t *testing.T) {
	db, store := newTestStore(t)
	ctx := context.Background()

	boom := errors.New("boom")
	err := db.WithTransaction(ctx, func(ctx context.Context) error {
		if _, err := store.Save(ctx, "vendors", []byte(`[]`), 0); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = store.Load(ctx, "vendors")
	assert.ErrorIs(t, err, port.ErrNotFound)
}
