// Package extract turns raw product files into normalized records and
// embedding-ready paragraphs.
//
// The Normalizer parses one raw product JSON file, cleans its markup-bearing
// text fields through a templated LLM call, and merges attributes from the
// auxiliary lookup tables. The Paragraphizer condenses the resulting record
// into a single natural-language paragraph via a second templated call.
//
// Failure policy: unreadable or malformed input files are skipped (nil
// record, nil error); failures of the LLM calls themselves propagate to the
// caller so the ingestion pipeline can halt instead of masking a systemic
// problem behind per-item skips.
package extract
