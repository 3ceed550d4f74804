package retrieve

import (
	"context"
	"log/slog"
	"strings"

	"github.com/fitloom/fitloom/ai"
	"github.com/fitloom/fitloom/core"
	"github.com/fitloom/fitloom/rerank"
	"github.com/fitloom/fitloom/store"
)

// DefaultTopK is the number of candidates pulled from the vector store per
// query.
const DefaultTopK = 20

// Retriever answers natural-language queries over the catalog: the query is
// embedded, the nearest entries are pulled from the vector store, and the
// reranker reorders them by relevance.
type Retriever struct {
	store    store.VectorStore
	embedder ai.Embedder
	reranker *rerank.Reranker
	topK     int
	logger   *slog.Logger
}

// Option configures a Retriever.
type Option func(*Retriever) error

// WithTopK sets how many candidates the vector store returns.
// Default is DefaultTopK.
func WithTopK(k int) Option {
	return func(r *Retriever) error {
		if k < 1 {
			k = 1
		}
		r.topK = k
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Retriever) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// NewRetriever creates a new retriever.
func NewRetriever(
	vs store.VectorStore,
	embedder ai.Embedder,
	reranker *rerank.Reranker,
	opts ...Option,
) (*Retriever, error) {
	if vs == nil {
		return nil, ErrStoreRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if reranker == nil {
		return nil, ErrRerankerRequired
	}

	r := &Retriever{
		store:    vs,
		embedder: embedder,
		reranker: reranker,
		topK:     DefaultTopK,
		logger:   slog.Default().With("component", "retrieve"),
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Search retrieves the catalog entries most relevant to the query.
// Returns up to topK metadata sets in reranked order.
func (r *Retriever) Search(ctx context.Context, query string) ([]core.Metadata, error) {
	return r.SearchWithMonitor(ctx, query, nil, nil)
}

// SearchFiltered is Search restricted to entries matching every filter pair.
func (r *Retriever) SearchFiltered(ctx context.Context, query string, filter core.Metadata) ([]core.Metadata, error) {
	return r.SearchWithMonitor(ctx, query, filter, nil)
}

// SearchWithMonitor searches with monitoring. The monitor receives callbacks
// at each stage of retrieval.
//
// A failing embedding host or store degrades to an empty result rather than
// an error: a browsing surface shows "no results" where an ingestion run
// would abort. Reranking is best-effort inside the reranker itself.
func (r *Retriever) SearchWithMonitor(ctx context.Context, query string, filter core.Metadata, monitor SearchMonitor) ([]core.Metadata, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}

	monitor.Start(query)

	embedding, err := r.embedder.EmbedText(ctx, query)
	if err != nil {
		r.logger.Warn("error embedding query, returning no results", "query", query, "err", err)
		monitor.Finish(nil)
		return []core.Metadata{}, nil
	}

	candidates, err := r.store.Query(ctx, core.NormalizeVector(embedding), r.topK, filter)
	if err != nil {
		r.logger.Warn("error querying the store, returning no results", "err", err)
		monitor.Finish(nil)
		return []core.Metadata{}, nil
	}
	monitor.AfterVectorQuery(candidates)

	if len(candidates) == 0 {
		monitor.Finish(nil)
		return []core.Metadata{}, nil
	}

	results := r.reranker.Rerank(ctx, query, candidates)
	monitor.AfterRerank(results)

	monitor.Finish(results)
	return results, nil
}
