package retrieve

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/fitloom/fitloom/ai/mock"
	"github.com/fitloom/fitloom/core"
	"github.com/fitloom/fitloom/prompt"
	"github.com/fitloom/fitloom/rerank"
	"github.com/fitloom/fitloom/store/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	storepkg "github.com/fitloom/fitloom/store"
)

func testTemplates() *prompt.Library {
	return &prompt.Library{
		HTMLClean: prompt.New(prompt.HTMLCleanFile, "CLEAN {text}"),
		Paragraph: prompt.New(prompt.ParagraphFile, "PARA {labels}"),
		Rerank:    prompt.New(prompt.RerankFile, "RANK {query}\n{results}"),
	}
}

func seededStore(t *testing.T, n int) storepkg.VectorStore {
	t.Helper()
	vs, err := badger.NewMemoryStore()
	require.NoError(t, err)
	t.Cleanup(func() { vs.Close() })

	entries := make([]core.IndexEntry, 0, n)
	for i := 1; i <= n; i++ {
		id := fmt.Sprintf("%d", i)
		vector := make([]float32, n)
		vector[i-1] = 1
		entries = append(entries, core.IndexEntry{
			ID:       core.ID(id),
			Vector:   vector,
			Document: "paragraph " + id,
			Metadata: core.Metadata{
				core.FieldProductID:   id,
				core.FieldSubCategory: "Topwear",
			},
		})
	}
	require.NoError(t, vs.UpsertBatch(context.Background(), entries))
	return vs
}

type retrieverRig struct {
	retriever *Retriever
	embedder  *mock.MockEmbedder
	completer *mock.MockCompleter
}

func newRetrieverRig(t *testing.T, vs storepkg.VectorStore, opts ...Option) *retrieverRig {
	t.Helper()

	embedder := mock.NewMockEmbedder()
	completer := mock.NewMockCompleter()

	reranker, err := rerank.New(completer, testTemplates())
	require.NoError(t, err)

	retriever, err := NewRetriever(vs, embedder, reranker, opts...)
	require.NoError(t, err)

	return &retrieverRig{
		retriever: retriever,
		embedder:  embedder,
		completer: completer,
	}
}

func TestNewRetriever(t *testing.T) {
	vs := seededStore(t, 1)
	embedder := mock.NewMockEmbedder()
	reranker, err := rerank.New(mock.NewMockCompleter(), testTemplates())
	require.NoError(t, err)

	t.Run("nil store", func(t *testing.T) {
		_, err := NewRetriever(nil, embedder, reranker)
		assert.Equal(t, ErrStoreRequired, err)
	})

	t.Run("nil embedder", func(t *testing.T) {
		_, err := NewRetriever(vs, nil, reranker)
		assert.Equal(t, ErrEmbedderRequired, err)
	})

	t.Run("nil reranker", func(t *testing.T) {
		_, err := NewRetriever(vs, embedder, nil)
		assert.Equal(t, ErrRerankerRequired, err)
	})
}

func TestSearch(t *testing.T) {
	ctx := context.Background()

	t.Run("returns reranked order", func(t *testing.T) {
		rig := newRetrieverRig(t, seededStore(t, 3))
		rig.embedder.EmbedTextFunc = func(context.Context, string) ([]float32, error) {
			return []float32{1, 0, 0}, nil
		}
		rig.completer.CompleteFunc = func(context.Context, string) (string, error) {
			return `[{"product_id": "2"}, {"product_id": "3"}, {"product_id": "1"}]`, nil
		}

		results, err := rig.retriever.Search(ctx, "formal shirt")
		require.NoError(t, err)
		require.Len(t, results, 3)
		assert.Equal(t, "2", results[0][core.FieldProductID])
		assert.Equal(t, "3", results[1][core.FieldProductID])
		assert.Equal(t, "1", results[2][core.FieldProductID])
	})

	t.Run("untrusted rerank keeps similarity order", func(t *testing.T) {
		rig := newRetrieverRig(t, seededStore(t, 3))
		rig.embedder.EmbedTextFunc = func(context.Context, string) ([]float32, error) {
			return []float32{1, 0.1, 0}, nil
		}
		rig.completer.CompleteFunc = func(context.Context, string) (string, error) {
			return "no json here", nil
		}

		results, err := rig.retriever.Search(ctx, "formal shirt")
		require.NoError(t, err)
		require.Len(t, results, 3)
		assert.Equal(t, "1", results[0][core.FieldProductID])
		assert.Equal(t, "2", results[1][core.FieldProductID])
	})

	t.Run("respects topK", func(t *testing.T) {
		rig := newRetrieverRig(t, seededStore(t, 5), WithTopK(2))
		rig.embedder.EmbedTextFunc = func(context.Context, string) ([]float32, error) {
			return []float32{1, 0, 0, 0, 0}, nil
		}

		results, err := rig.retriever.Search(ctx, "q")
		require.NoError(t, err)
		assert.Len(t, results, 2)
	})

	t.Run("embedding failure degrades to empty", func(t *testing.T) {
		rig := newRetrieverRig(t, seededStore(t, 3))
		rig.embedder.EmbedTextFunc = func(context.Context, string) ([]float32, error) {
			return nil, errors.New("host down")
		}

		results, err := rig.retriever.Search(ctx, "q")
		require.NoError(t, err)
		assert.Empty(t, results)
		assert.Zero(t, rig.completer.CallCount())
	})

	t.Run("closed store degrades to empty", func(t *testing.T) {
		vs := seededStore(t, 2)
		rig := newRetrieverRig(t, vs)
		require.NoError(t, vs.Close())

		results, err := rig.retriever.Search(ctx, "q")
		require.NoError(t, err)
		assert.Empty(t, results)
	})

	t.Run("empty store skips the rerank call", func(t *testing.T) {
		rig := newRetrieverRig(t, seededStore(t, 0))

		results, err := rig.retriever.Search(ctx, "q")
		require.NoError(t, err)
		assert.Empty(t, results)
		assert.Zero(t, rig.completer.CallCount())
	})

	t.Run("empty query rejected", func(t *testing.T) {
		rig := newRetrieverRig(t, seededStore(t, 1))

		_, err := rig.retriever.Search(ctx, "   ")
		assert.ErrorIs(t, err, ErrEmptyQuery)
	})
}

func TestSearchFiltered(t *testing.T) {
	ctx := context.Background()

	vs := seededStore(t, 2)
	footwear := core.IndexEntry{
		ID:       "9",
		Vector:   []float32{1, 0},
		Document: "running shoes",
		Metadata: core.Metadata{
			core.FieldProductID:   "9",
			core.FieldSubCategory: "Footwear",
		},
	}
	require.NoError(t, vs.UpsertBatch(ctx, []core.IndexEntry{footwear}))

	rig := newRetrieverRig(t, vs)
	rig.embedder.EmbedTextFunc = func(context.Context, string) ([]float32, error) {
		return []float32{1, 0}, nil
	}

	results, err := rig.retriever.SearchFiltered(ctx, "shoes", core.Metadata{core.FieldSubCategory: "Footwear"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "9", results[0][core.FieldProductID])
}

type recordingMonitor struct {
	started    string
	candidates int
	reranked   int
	finished   int
}

func (m *recordingMonitor) Start(query string)                      { m.started = query }
func (m *recordingMonitor) AfterVectorQuery(c []core.Metadata)      { m.candidates = len(c) }
func (m *recordingMonitor) AfterRerank(r []core.Metadata)           { m.reranked = len(r) }
func (m *recordingMonitor) Finish(results []core.Metadata)          { m.finished = len(results) }

func TestSearchWithMonitor(t *testing.T) {
	ctx := context.Background()

	rig := newRetrieverRig(t, seededStore(t, 3))
	rig.embedder.EmbedTextFunc = func(context.Context, string) ([]float32, error) {
		return []float32{1, 0, 0}, nil
	}

	monitor := &recordingMonitor{}
	results, err := rig.retriever.SearchWithMonitor(ctx, "shirt", nil, monitor)
	require.NoError(t, err)

	assert.Equal(t, "shirt", monitor.started)
	assert.Equal(t, 3, monitor.candidates)
	assert.Equal(t, len(results), monitor.reranked)
	assert.Equal(t, len(results), monitor.finished)
}
