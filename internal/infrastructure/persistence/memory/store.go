// Package memory provides an in-process collection store for tests and
// single-node demos.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/garyjia/freight-audit/internal/application/port"
)

type txKey struct{}

// pendingWrite is a save buffered inside a transaction. base is the committed
// version the transaction first observed for the key.
type pendingWrite struct {
	base   int64
	record port.CollectionRecord
}

type tx struct {
	writes map[string]pendingWrite
}

// Store implements port.CollectionStore and port.TransactionManager in memory.
// Writes inside a transaction are buffered and applied together only when the
// transaction function succeeds.
type Store struct {
	mu      sync.RWMutex
	records map[string]port.CollectionRecord

	txMu sync.Mutex
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{records: make(map[string]port.CollectionRecord)}
}

// Load returns a copy of the stored collection or port.ErrNotFound.
// Inside a transaction it sees the transaction's own writes.
func (s *Store) Load(ctx context.Context, key string) (*port.CollectionRecord, error) {
	if t := txFrom(ctx); t != nil {
		if w, ok := t.writes[key]; ok {
			rec := w.record
			rec.Value = append([]byte(nil), rec.Value...)
			return &rec, nil
		}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[key]
	if !ok {
		return nil, port.ErrNotFound
	}
	rec.Value = append([]byte(nil), rec.Value...)
	return &rec, nil
}

// Save writes the collection if its stored version is still expectedVersion
func (s *Store) Save(ctx context.Context, key string, value []byte, expectedVersion int64) (int64, error) {
	if t := txFrom(ctx); t != nil {
		return s.saveInTx(t, key, value, expectedVersion)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.records[key].Version != expectedVersion {
		return 0, conflict(key, expectedVersion)
	}

	next := expectedVersion + 1
	s.records[key] = port.CollectionRecord{
		Key:     key,
		Value:   append([]byte(nil), value...),
		Version: next,
	}
	return next, nil
}

func (s *Store) saveInTx(t *tx, key string, value []byte, expectedVersion int64) (int64, error) {
	w, buffered := t.writes[key]
	if !buffered {
		s.mu.RLock()
		committed := s.records[key].Version
		s.mu.RUnlock()
		w = pendingWrite{base: committed, record: port.CollectionRecord{Version: committed}}
	}

	if w.record.Version != expectedVersion {
		return 0, conflict(key, expectedVersion)
	}

	next := expectedVersion + 1
	w.record = port.CollectionRecord{
		Key:     key,
		Value:   append([]byte(nil), value...),
		Version: next,
	}
	t.writes[key] = w
	return next, nil
}

// WithTransaction runs fn while holding the store's transaction lock and
// commits its writes only if fn returns nil. A key saved outside the
// transaction since fn read it fails the commit with port.ErrVersionConflict.
// Nested calls reuse the outer transaction.
func (s *Store) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if txFrom(ctx) != nil {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	t := &tx{writes: make(map[string]pendingWrite)}
	if err := fn(context.WithValue(ctx, txKey{}, t)); err != nil {
		return err
	}
	return s.commit(t)
}

func (s *Store) commit(t *tx) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, w := range t.writes {
		if s.records[key].Version != w.base {
			return conflict(key, w.base)
		}
	}
	for key, w := range t.writes {
		s.records[key] = w.record
	}
	return nil
}

func txFrom(ctx context.Context) *tx {
	t, _ := ctx.Value(txKey{}).(*tx)
	return t
}

func conflict(key string, version int64) error {
	return fmt.Errorf("%w: collection %s at version %d", port.ErrVersionConflict, key, version)
}

var (
	_ port.CollectionStore    = (*Store)(nil)
	_ port.TransactionManager = (*Store)(nil)
)
