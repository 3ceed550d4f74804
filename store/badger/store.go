package badger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/dgraph-io/badger/v4"
	"github.com/fitloom/fitloom/core"
	"github.com/fitloom/fitloom/store"
)

// Store implements store.VectorStore on top of BadgerDB. Similarity search
// is a full scan with dot product scoring, which assumes normalized vectors
// and a catalog-sized collection.
type Store struct {
	backend *Backend
	logger  *slog.Logger
}

var _ store.VectorStore = (*Store)(nil)

// New opens the vector store for the named collection under dir.
func New(dir, collection string) (store.VectorStore, error) {
	backend, err := OpenBackend(dir, collection, false)
	if err != nil {
		return nil, err
	}
	return newStore(backend), nil
}

func newStore(backend *Backend) *Store {
	return &Store{
		backend: backend,
		logger:  slog.Default().With("component", "vectorstore"),
	}
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.backend.Close()
}

// UpsertBatch writes a batch of entries. An id that repeats within the
// batch or is already stored is an error and nothing from the batch is
// written; callers dedup against Exists first.
func (s *Store) UpsertBatch(ctx context.Context, entries []core.IndexEntry) error {
	if s.backend.IsClosed() {
		return store.ErrStorageClosed
	}

	seen := make(map[uint64]core.ID, len(entries))
	for i := range entries {
		if err := core.ValidateEntry(&entries[i]); err != nil {
			return err
		}
		key := entries[i].ID.Key()
		if prev, ok := seen[key]; ok {
			return fmt.Errorf("%w: %s repeats %s in one batch", store.ErrDuplicateKey, entries[i].ID, prev)
		}
		seen[key] = entries[i].ID
	}

	return s.backend.WithTx(func(tx *badger.Txn) error {
		for i := range entries {
			key := makeEntryKey(entries[i].ID)
			_, err := tx.Get(key)
			if err == nil {
				return fmt.Errorf("%w: %s is already stored", store.ErrDuplicateKey, entries[i].ID)
			}
			if !errors.Is(err, badger.ErrKeyNotFound) {
				return err
			}
			if err := tx.Set(key, store.MarshalEntry(&entries[i])); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// Exists reports whether an entry with the given id is stored. Backend
// failures are logged and reported as absent.
func (s *Store) Exists(ctx context.Context, id core.ID) bool {
	if s.backend.IsClosed() {
		s.logger.Warn("existence check on closed store", "id", id)
		return false
	}

	var found bool
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		_, err := tx.Get(makeEntryKey(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return nil
	}, false)
	if err != nil {
		s.logger.Warn("existence check failed", "id", id, "error", err)
		return false
	}
	return found
}

// scored pairs an entry's metadata with its similarity score during a query.
type scored struct {
	metadata core.Metadata
	score    float32
}

// Query finds the entries most similar to the given vector.
func (s *Store) Query(ctx context.Context, vector []float32, limit int, filter core.Metadata) ([]core.Metadata, error) {
	if s.backend.IsClosed() {
		return nil, store.ErrStorageClosed
	}
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit %d", store.ErrInvalidQuery, limit)
	}
	if len(vector) == 0 {
		return nil, fmt.Errorf("%w: empty query vector", store.ErrInvalidQuery)
	}

	var hits []scored
	err := s.scanEntries(func(entry *core.IndexEntry) error {
		if len(entry.Vector) == 0 {
			return nil
		}
		if !matchesFilter(entry.Metadata, filter) {
			return nil
		}
		hits = append(hits, scored{
			metadata: entry.Metadata,
			score:    dotProduct(vector, entry.Vector),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Sort by similarity descending.
	slices.SortFunc(hits, func(a, b scored) int {
		if a.score > b.score {
			return -1
		}
		if a.score < b.score {
			return 1
		}
		return 0
	})

	if len(hits) > limit {
		hits = hits[:limit]
	}
	results := make([]core.Metadata, len(hits))
	for i, hit := range hits {
		results[i] = hit.metadata
	}
	return results, nil
}

// GetByIDs retrieves entries by their ids, preserving argument order.
func (s *Store) GetByIDs(ctx context.Context, ids ...core.ID) ([]*core.IndexEntry, error) {
	if s.backend.IsClosed() {
		return nil, store.ErrStorageClosed
	}

	results := make([]*core.IndexEntry, len(ids))
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		for i, id := range ids {
			item, err := tx.Get(makeEntryKey(id))
			if errors.Is(err, badger.ErrKeyNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			err = item.Value(func(val []byte) error {
				entry, err := store.UnmarshalEntry(val)
				if err != nil {
					return err
				}
				results[i] = entry
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return results, nil
}

// Page retrieves a slice of all entries in key order.
func (s *Store) Page(ctx context.Context, offset, limit int) ([]*core.IndexEntry, error) {
	if s.backend.IsClosed() {
		return nil, store.ErrStorageClosed
	}
	if offset < 0 || limit <= 0 {
		return nil, fmt.Errorf("%w: offset %d limit %d", store.ErrInvalidQuery, offset, limit)
	}

	var (
		page    []*core.IndexEntry
		skipped int
	)
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(entryPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if skipped < offset {
				skipped++
				continue
			}
			if len(page) == limit {
				break
			}
			err := iter.Item().Value(func(val []byte) error {
				entry, err := store.UnmarshalEntry(val)
				if err != nil {
					return err
				}
				page = append(page, entry)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return page, nil
}

// Count returns the number of stored entries.
func (s *Store) Count(ctx context.Context) (int, error) {
	if s.backend.IsClosed() {
		return 0, store.ErrStorageClosed
	}

	var count int
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(entryPrefix)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			count++
		}
		return nil
	}, false)
	if err != nil {
		return 0, err
	}
	return count, nil
}

// scanEntries walks every stored entry within a read transaction.
func (s *Store) scanEntries(fn func(*core.IndexEntry) error) error {
	return s.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(entryPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			err := iter.Item().Value(func(val []byte) error {
				entry, err := store.UnmarshalEntry(val)
				if err != nil {
					return err
				}
				return fn(entry)
			})
			if err != nil {
				return err
			}
		}
		return nil
	}, false)
}

// matchesFilter reports whether metadata carries every filter pair exactly.
// An empty filter matches everything.
func matchesFilter(m, filter core.Metadata) bool {
	for key, want := range filter {
		if m[key] != want {
			return false
		}
	}
	return true
}

// dotProduct calculates the dot product of two vectors.
func dotProduct(a, b []float32) float32 {
	var sum float32
	minLen := len(a)
	if len(b) < minLen {
		minLen = len(b)
	}
	for i := 0; i < minLen; i++ {
		sum += a[i] * b[i]
	}
	return sum
}
