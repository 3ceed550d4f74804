package store

import (
	"context"

	"github.com/fitloom/fitloom/core"
)

// VectorStore provides persistence and similarity search for index entries.
// Implementations must be thread-safe and support concurrent access.
type VectorStore interface {
	// UpsertBatch writes a batch of entries. Returns ErrDuplicateKey if the
	// batch contains the same id more than once or an id that is already
	// stored; nothing from the batch is written in that case. Callers
	// pre-filter with Exists, so a duplicate reaching the store is a bug
	// surfaced loudly rather than a silent overwrite.
	UpsertBatch(ctx context.Context, entries []core.IndexEntry) error

	// Exists reports whether an entry with the given id is stored. It never
	// fails: a backend error is logged and reported as absent, which at worst
	// causes the caller to recompute an entry it already has.
	Exists(ctx context.Context, id core.ID) bool

	// Query finds the entries most similar to the given vector.
	// Returns up to limit metadata sets ordered by similarity (highest
	// first). A non-empty filter keeps only entries whose metadata matches
	// every filter pair exactly. Entries with equal similarity have no
	// defined relative order.
	Query(ctx context.Context, vector []float32, limit int, filter core.Metadata) ([]core.Metadata, error)

	// GetByIDs retrieves entries by their ids, preserving argument order.
	// Missing ids yield nil slots rather than an error.
	GetByIDs(ctx context.Context, ids ...core.ID) ([]*core.IndexEntry, error)

	// Page retrieves a deterministic slice of all entries for export scans.
	// Iteration order is stable across calls as long as the store is not
	// written to. An offset at or past the end returns an empty page.
	Page(ctx context.Context, offset, limit int) ([]*core.IndexEntry, error)

	// Count returns the number of stored entries.
	Count(ctx context.Context) (int, error)

	// Close closes the storage backend and releases resources.
	Close() error
}
