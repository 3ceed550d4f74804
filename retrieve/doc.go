// Package retrieve provides semantic search over the ingested catalog.
//
// The Retriever type implements a two-stage retrieval algorithm:
//   - Vector search: the query is embedded and the nearest entries are
//     pulled from the store in similarity order
//   - Reranking: a chat model reorders the candidates by relevance, falling
//     back to similarity order when its output cannot be trusted
//
// External failures during a search degrade to empty results so callers can
// treat retrieval as a total function over queries.
package retrieve
