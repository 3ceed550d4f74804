package badger

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/fitloom/fitloom/core"
	"github.com/fitloom/fitloom/store"
)

func newTestStore(t *testing.T) store.VectorStore {
	t.Helper()
	vs, err := NewMemoryStore()
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { vs.Close() })
	return vs
}

func testEntry(id string, vector []float32) core.IndexEntry {
	return core.IndexEntry{
		ID:       core.ID(id),
		Vector:   vector,
		Document: "document for " + id,
		Metadata: core.Metadata{
			core.FieldProductID:   id,
			core.FieldSubCategory: "Topwear",
		},
	}
}

func TestUpsertAndExists(t *testing.T) {
	vs := newTestStore(t)
	ctx := context.Background()

	entries := []core.IndexEntry{
		testEntry("1", []float32{1, 0, 0}),
		testEntry("2", []float32{0, 1, 0}),
	}
	if err := vs.UpsertBatch(ctx, entries); err != nil {
		t.Fatalf("Failed to upsert: %v", err)
	}

	if !vs.Exists(ctx, "1") {
		t.Fatal("Expected entry 1 to exist")
	}
	if vs.Exists(ctx, "99") {
		t.Fatal("Expected entry 99 to be absent")
	}

	count, err := vs.Count(ctx)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 2 {
		t.Fatalf("Expected 2 entries, got %d", count)
	}
}

func TestUpsertRejectsStoredID(t *testing.T) {
	vs := newTestStore(t)
	ctx := context.Background()

	first := testEntry("42", []float32{1, 0, 0})
	first.Document = "first"
	if err := vs.UpsertBatch(ctx, []core.IndexEntry{first}); err != nil {
		t.Fatalf("Failed to upsert: %v", err)
	}

	second := first
	second.Document = "second"
	fresh := testEntry("43", []float32{0, 1, 0})
	err := vs.UpsertBatch(ctx, []core.IndexEntry{fresh, second})
	if !errors.Is(err, store.ErrDuplicateKey) {
		t.Fatalf("Expected ErrDuplicateKey, got %v", err)
	}

	// Nothing from the rejected batch lands, and the stored document is
	// untouched.
	count, err := vs.Count(ctx)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("Expected 1 entry after rejected batch, got %d", count)
	}

	got, err := vs.GetByIDs(ctx, "42")
	if err != nil {
		t.Fatalf("GetByIDs failed: %v", err)
	}
	if got[0] == nil || got[0].Document != "first" {
		t.Fatalf("Expected original document, got %+v", got[0])
	}
}

func TestUpsertDuplicateInBatch(t *testing.T) {
	vs := newTestStore(t)
	ctx := context.Background()

	entries := []core.IndexEntry{
		testEntry("1", []float32{1, 0, 0}),
		testEntry("1", []float32{0, 1, 0}),
	}
	err := vs.UpsertBatch(ctx, entries)
	if !errors.Is(err, store.ErrDuplicateKey) {
		t.Fatalf("Expected ErrDuplicateKey, got %v", err)
	}

	// Nothing from the rejected batch may be visible.
	count, err := vs.Count(ctx)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("Expected 0 entries after rejected batch, got %d", count)
	}
}

func TestUpsertInvalidEntry(t *testing.T) {
	vs := newTestStore(t)
	ctx := context.Background()

	err := vs.UpsertBatch(ctx, []core.IndexEntry{{ID: "1", Document: "no vector"}})
	if !errors.Is(err, core.ErrInvalidEntry) {
		t.Fatalf("Expected ErrInvalidEntry, got %v", err)
	}
}

func TestQueryOrdering(t *testing.T) {
	vs := newTestStore(t)
	ctx := context.Background()

	entries := []core.IndexEntry{
		testEntry("far", []float32{0, 1, 0}),
		testEntry("near", []float32{1, 0, 0}),
		testEntry("mid", []float32{0.7, 0.7, 0}),
	}
	if err := vs.UpsertBatch(ctx, entries); err != nil {
		t.Fatalf("Failed to upsert: %v", err)
	}

	results, err := vs.Query(ctx, []float32{1, 0, 0}, 2, nil)
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(results))
	}
	if results[0][core.FieldProductID] != "near" {
		t.Fatalf("Expected 'near' first, got %q", results[0][core.FieldProductID])
	}
	if results[1][core.FieldProductID] != "mid" {
		t.Fatalf("Expected 'mid' second, got %q", results[1][core.FieldProductID])
	}
}

func TestQueryFilter(t *testing.T) {
	vs := newTestStore(t)
	ctx := context.Background()

	topwear := testEntry("1", []float32{1, 0, 0})
	footwear := testEntry("2", []float32{1, 0, 0})
	footwear.Metadata[core.FieldSubCategory] = "Footwear"

	if err := vs.UpsertBatch(ctx, []core.IndexEntry{topwear, footwear}); err != nil {
		t.Fatalf("Failed to upsert: %v", err)
	}

	results, err := vs.Query(ctx, []float32{1, 0, 0}, 10, core.Metadata{core.FieldSubCategory: "Footwear"})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("Expected 1 result, got %d", len(results))
	}
	if results[0][core.FieldProductID] != "2" {
		t.Fatalf("Expected entry 2, got %q", results[0][core.FieldProductID])
	}
}

func TestQueryInvalidParams(t *testing.T) {
	vs := newTestStore(t)
	ctx := context.Background()

	if _, err := vs.Query(ctx, []float32{1}, 0, nil); !errors.Is(err, store.ErrInvalidQuery) {
		t.Fatalf("Expected ErrInvalidQuery for zero limit, got %v", err)
	}
	if _, err := vs.Query(ctx, nil, 5, nil); !errors.Is(err, store.ErrInvalidQuery) {
		t.Fatalf("Expected ErrInvalidQuery for empty vector, got %v", err)
	}
}

func TestGetByIDsPreservesOrder(t *testing.T) {
	vs := newTestStore(t)
	ctx := context.Background()

	entries := []core.IndexEntry{
		testEntry("a", []float32{1, 0, 0}),
		testEntry("b", []float32{0, 1, 0}),
	}
	if err := vs.UpsertBatch(ctx, entries); err != nil {
		t.Fatalf("Failed to upsert: %v", err)
	}

	got, err := vs.GetByIDs(ctx, "b", "missing", "a")
	if err != nil {
		t.Fatalf("GetByIDs failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("Expected 3 slots, got %d", len(got))
	}
	if got[0] == nil || got[0].ID != "b" {
		t.Fatalf("Expected 'b' in slot 0, got %+v", got[0])
	}
	if got[1] != nil {
		t.Fatalf("Expected nil slot for missing id, got %+v", got[1])
	}
	if got[2] == nil || got[2].ID != "a" {
		t.Fatalf("Expected 'a' in slot 2, got %+v", got[2])
	}
}

func TestPagePagination(t *testing.T) {
	vs := newTestStore(t)
	ctx := context.Background()

	const total = 7
	entries := make([]core.IndexEntry, 0, total)
	for i := 0; i < total; i++ {
		entries = append(entries, testEntry(fmt.Sprintf("p%d", i), []float32{1, 0, 0}))
	}
	if err := vs.UpsertBatch(ctx, entries); err != nil {
		t.Fatalf("Failed to upsert: %v", err)
	}

	const pageSize = 3
	seen := make(map[core.ID]bool)
	for offset := 0; ; offset += pageSize {
		page, err := vs.Page(ctx, offset, pageSize)
		if err != nil {
			t.Fatalf("Page failed at offset %d: %v", offset, err)
		}
		for _, entry := range page {
			if seen[entry.ID] {
				t.Fatalf("Entry %s returned twice", entry.ID)
			}
			seen[entry.ID] = true
		}
		if len(page) < pageSize {
			break
		}
	}
	if len(seen) != total {
		t.Fatalf("Expected %d entries across pages, got %d", total, len(seen))
	}

	// Offset past the end yields an empty page, not an error.
	page, err := vs.Page(ctx, total+10, pageSize)
	if err != nil {
		t.Fatalf("Page failed past the end: %v", err)
	}
	if len(page) != 0 {
		t.Fatalf("Expected empty page past the end, got %d entries", len(page))
	}
}

func TestPageStableOrder(t *testing.T) {
	vs := newTestStore(t)
	ctx := context.Background()

	entries := make([]core.IndexEntry, 0, 5)
	for i := 0; i < 5; i++ {
		entries = append(entries, testEntry(fmt.Sprintf("s%d", i), []float32{1, 0, 0}))
	}
	if err := vs.UpsertBatch(ctx, entries); err != nil {
		t.Fatalf("Failed to upsert: %v", err)
	}

	first, err := vs.Page(ctx, 0, 5)
	if err != nil {
		t.Fatalf("Page failed: %v", err)
	}
	second, err := vs.Page(ctx, 0, 5)
	if err != nil {
		t.Fatalf("Page failed: %v", err)
	}
	for i := range first {
		if first[i].ID != second[i].ID {
			t.Fatalf("Scan order changed between calls at slot %d: %s vs %s", i, first[i].ID, second[i].ID)
		}
	}
}

func TestClosedStore(t *testing.T) {
	vs := newTestStore(t)
	ctx := context.Background()

	if err := vs.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if vs.Exists(ctx, "1") {
		t.Fatal("Expected closed store to report entries as absent")
	}
	if err := vs.UpsertBatch(ctx, []core.IndexEntry{testEntry("1", []float32{1})}); !errors.Is(err, store.ErrStorageClosed) {
		t.Fatalf("Expected ErrStorageClosed, got %v", err)
	}
}
