// Copyright 2025 Fitloom Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package fitloom

import (
	"log/slog"

	"github.com/fitloom/fitloom/ai"
	"github.com/fitloom/fitloom/ai/openai"
	"github.com/fitloom/fitloom/extract"
	"github.com/fitloom/fitloom/ingest"
	"github.com/fitloom/fitloom/lookup"
	"github.com/fitloom/fitloom/prompt"
	"github.com/fitloom/fitloom/rerank"
	"github.com/fitloom/fitloom/retrieve"
	"github.com/fitloom/fitloom/store"
	"github.com/fitloom/fitloom/store/badger"
)

// Catalog wires the vector store, model provider, prompt templates, and
// lookup tables into one handle the pipelines hang off.
type Catalog struct {
	store     store.VectorStore
	provider  ai.AIProvider
	templates *prompt.Library
	styles    *lookup.Styles
	images    *lookup.Images
	logger    *slog.Logger
}

// CatalogOption configures a Catalog.
type CatalogOption func(*catalogOptions)

type catalogOptions struct {
	aiConfig *ai.Config
}

// WithAIConfig overrides the default model endpoint configuration.
func WithAIConfig(cfg *ai.Config) CatalogOption {
	return func(o *catalogOptions) {
		if cfg != nil {
			o.aiConfig = cfg
		}
	}
}

// Paths names the catalog inputs OpenCatalog needs on disk.
type Paths struct {
	DataDir   string // vector store root
	PromptDir string // prompt template files
	StylesCSV string // catalog attribute table
	ImagesCSV string // image link table
}

// OpenCatalog opens the named collection and loads its supporting tables.
func OpenCatalog(collection string, paths Paths, opts ...CatalogOption) (*Catalog, error) {
	options := &catalogOptions{
		aiConfig: ai.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(options)
	}

	templates, err := prompt.LoadLibrary(paths.PromptDir)
	if err != nil {
		return nil, err
	}
	styles, err := lookup.LoadStyles(paths.StylesCSV)
	if err != nil {
		return nil, err
	}
	images, err := lookup.LoadImages(paths.ImagesCSV)
	if err != nil {
		return nil, err
	}

	vs, err := badger.New(paths.DataDir, collection)
	if err != nil {
		return nil, err
	}

	provider, err := openai.NewProvider(options.aiConfig)
	if err != nil {
		vs.Close()
		return nil, err
	}

	return &Catalog{
		store:     vs,
		provider:  provider,
		templates: templates,
		styles:    styles,
		images:    images,
		logger:    slog.Default(),
	}, nil
}

// Close releases the model provider and the vector store.
func (c *Catalog) Close() error {
	if err := c.provider.Close(); err != nil {
		c.logger.Error("error closing AI provider", "err", err)
	}
	if err := c.store.Close(); err != nil {
		c.logger.Error("error closing vector store", "err", err)
		return err
	}
	return nil
}

// Store exposes the underlying vector store for export tooling.
func (c *Catalog) Store() store.VectorStore {
	return c.store
}

// Templates exposes the loaded prompt library.
func (c *Catalog) Templates() *prompt.Library {
	return c.templates
}

// NewIngestionPipeline builds the ingestion pipeline over this catalog.
func (c *Catalog) NewIngestionPipeline(opts ...ingest.Option) (*ingest.Pipeline, error) {
	normalizer, err := extract.NewNormalizer(c.provider.Completer(), c.templates, c.styles, c.images)
	if err != nil {
		return nil, err
	}
	paragraphizer, err := extract.NewParagraphizer(c.provider.Completer(), c.templates)
	if err != nil {
		return nil, err
	}
	return ingest.NewPipeline(c.store, c.provider.Embedder(), normalizer, paragraphizer, opts...)
}

// NewRetriever builds the retrieval pipeline over this catalog.
func (c *Catalog) NewRetriever(opts ...retrieve.Option) (*retrieve.Retriever, error) {
	reranker, err := rerank.New(c.provider.Completer(), c.templates)
	if err != nil {
		return nil, err
	}
	return retrieve.NewRetriever(c.store, c.provider.Embedder(), reranker, opts...)
}
