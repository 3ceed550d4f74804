package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("missing file yields defaults", func(t *testing.T) {
		cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		require.NoError(t, err)

		assert.Equal(t, "products", cfg.Collection)
		assert.Equal(t, 20, cfg.Ingest.BatchSize)
		assert.Equal(t, 20, cfg.Retrieve.TopK)
		assert.Equal(t, 500, cfg.Export.PageSize)
		assert.Equal(t, "http://localhost:11434", cfg.Models.Host)
	})

	t.Run("file values override defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		content := `
collection: spring
models:
  host: http://models.internal:8080
  completion_model: gpt-4o-mini
ingest:
  batch_size: 50
retrieve:
  top_k: 5
`
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

		cfg, err := Load(path)
		require.NoError(t, err)

		assert.Equal(t, "spring", cfg.Collection)
		assert.Equal(t, "http://models.internal:8080", cfg.Models.Host)
		assert.Equal(t, "gpt-4o-mini", cfg.Models.CompletionModel)
		assert.Equal(t, 50, cfg.Ingest.BatchSize)
		assert.Equal(t, 5, cfg.Retrieve.TopK)

		// Unset fields still get defaults.
		assert.Equal(t, "bge-base-en-v1.5", cfg.Models.EmbeddingModel)
		assert.Equal(t, 500, cfg.Export.PageSize)
	})

	t.Run("malformed yaml fails", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("collection: [broken"), 0o644))

		_, err := Load(path)
		assert.Error(t, err)
	})
}

func TestSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := defaultConfig()
	cfg.Collection = "winter"

	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "winter", loaded.Collection)
}
