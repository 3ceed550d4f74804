package store

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"sort"

	"github.com/fitloom/fitloom/core"
)

// DefaultPageSize is the page size used by export scans when the caller does
// not specify one.
const DefaultPageSize = 500

// unknownGroup collects entries that do not carry the grouping key.
const unknownGroup = "unknown"

// ExportIDs writes the id of every stored entry to w as CSV with a
// product_id header. The store is scanned in pages so the export never
// holds the whole collection in memory.
func ExportIDs(ctx context.Context, s VectorStore, w io.Writer, pageSize int) error {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{core.FieldProductID}); err != nil {
		return err
	}

	err := scanPages(ctx, s, pageSize, func(entry *core.IndexEntry) error {
		return cw.Write([]string{string(entry.ID)})
	})
	if err != nil {
		return err
	}

	cw.Flush()
	return cw.Error()
}

// ExportGroupedBy writes a text dump of every stored entry grouped by the
// given metadata key. Groups are emitted in sorted order; entries without
// the key fall into the "unknown" group. Within a group, entries keep the
// store's scan order.
func ExportGroupedBy(ctx context.Context, s VectorStore, w io.Writer, key string, pageSize int) error {
	if key == "" {
		return fmt.Errorf("%w: empty group key", ErrInvalidQuery)
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	groups := make(map[string][]*core.IndexEntry)
	err := scanPages(ctx, s, pageSize, func(entry *core.IndexEntry) error {
		value := entry.Metadata[key]
		if value == "" {
			value = unknownGroup
		}
		groups[value] = append(groups[value], entry)
		return nil
	})
	if err != nil {
		return err
	}

	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)

	bw := bufio.NewWriter(w)
	for i, name := range names {
		if i > 0 {
			fmt.Fprintln(bw)
		}
		fmt.Fprintf(bw, "=== %s: %s ===\n", key, name)
		for _, entry := range groups[name] {
			fmt.Fprintf(bw, "%s: %s\n", entry.ID, entry.Document)
		}
	}
	return bw.Flush()
}

// scanPages walks all entries page by page and hands each to fn.
// The scan ends at the first short page.
func scanPages(ctx context.Context, s VectorStore, pageSize int, fn func(*core.IndexEntry) error) error {
	for offset := 0; ; offset += pageSize {
		page, err := s.Page(ctx, offset, pageSize)
		if err != nil {
			return err
		}
		for _, entry := range page {
			if err := fn(entry); err != nil {
				return err
			}
		}
		if len(page) < pageSize {
			return nil
		}
	}
}
