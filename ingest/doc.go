// Package ingest provides pipeline orchestration for catalog ingestion.
//
// The Pipeline type manages the ingestion workflow for raw product files:
//   - Normalizing each file into a record (markup cleaned, lookups merged)
//   - Condensing the record into one embedding paragraph
//   - Embedding the paragraph and upserting entries in batches
//
// Files are processed concurrently on a worker pool, with a single
// accumulator goroutine owning the batch so flush order stays deterministic.
// Unusable source files are skipped and logged; model and store failures
// terminate the run so a broken upstream never half-populates the index
// silently.
package ingest
