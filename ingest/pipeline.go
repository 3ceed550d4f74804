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


package ingest

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"

	"github.com/fitloom/fitloom/ai"
	"github.com/fitloom/fitloom/core"
	"github.com/fitloom/fitloom/extract"
	"github.com/fitloom/fitloom/store"
)

// DefaultBatchSize is the number of entries accumulated before a flush to
// the vector store.
const DefaultBatchSize = 20

// Pipeline orchestrates catalog ingestion: raw product files are normalized,
// condensed to a paragraph, embedded, and upserted to the vector store in
// batches. Files whose id is already stored are skipped, so a rerun over the
// same directory costs no model calls.
type Pipeline struct {
	store         store.VectorStore
	embedder      ai.Embedder
	normalizer    *extract.Normalizer
	paragraphizer *extract.Paragraphizer
	pool          *ants.Pool
	batchSize     int
	logger        *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for concurrent processing.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}
		if p.pool != nil {
			p.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.pool = pool
		return nil
	}
}

// WithBatchSize sets the upsert batch size. Default is DefaultBatchSize.
func WithBatchSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}
		p.batchSize = size
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(
	vs store.VectorStore,
	embedder ai.Embedder,
	normalizer *extract.Normalizer,
	paragraphizer *extract.Paragraphizer,
	opts ...Option,
) (*Pipeline, error) {
	if vs == nil {
		return nil, ErrStoreRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if normalizer == nil {
		return nil, ErrNormalizerRequired
	}
	if paragraphizer == nil {
		return nil, ErrParagraphizerRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		store:         vs,
		embedder:      embedder,
		normalizer:    normalizer,
		paragraphizer: paragraphizer,
		pool:          pool,
		batchSize:     DefaultBatchSize,
		logger:        slog.Default().With("component", "ingest"),
	}
	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}
	return p, nil
}

// Release releases the worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}

// Stats summarizes one ingestion run.
type Stats struct {
	Processed int // entries written to the store
	Skipped   int // already-stored ids plus unusable source files
	Failed    int // items whose model call failed before the run halted
}

// Run ingests every *.json product file under dir.
//
// A model or store failure terminates the run with an error; the batch in
// flight at that moment is not written. Context cancellation is gentler:
// completed work is flushed best-effort before returning. Either way the
// run can simply be repeated; already-stored ids are skipped up front.
func (p *Pipeline) Run(ctx context.Context, dir string) (*Stats, error) {
	logger := p.logger.With("run", uuid.NewString())
	stats := &Stats{}

	files, err := listProductFiles(dir)
	if err != nil {
		return stats, err
	}
	logger.Info("starting ingestion", "dir", dir, "files", len(files))

	// Dedup before any model work: the file name stem is the product id.
	work := make([]string, 0, len(files))
	for _, path := range files {
		id := idFromPath(path)
		if p.store.Exists(ctx, id) {
			stats.Skipped++
			continue
		}
		work = append(work, path)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg      sync.WaitGroup
		skipped atomic.Int64
		failed  atomic.Int64
		fatal   atomic.Bool
		entryc  = make(chan *core.IndexEntry)
		errc    = make(chan error, 1)
	)

	fail := func(err error) {
		select {
		case errc <- err:
		default:
		}
		fatal.Store(true)
		cancel()
	}

	go func() {
		for _, path := range work {
			if ctx.Err() != nil {
				break
			}
			wg.Add(1)
			submitErr := p.pool.Submit(func() {
				defer wg.Done()
				entry, err := p.processFile(ctx, path)
				if err != nil {
					failed.Add(1)
					fail(err)
					return
				}
				if entry == nil {
					skipped.Add(1)
					return
				}
				select {
				case entryc <- entry:
				case <-ctx.Done():
				}
			})
			if submitErr != nil {
				wg.Done()
				fail(submitErr)
				break
			}
		}
		wg.Wait()
		close(entryc)
	}()

	batch := make([]core.IndexEntry, 0, p.batchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := p.store.UpsertBatch(context.WithoutCancel(ctx), batch); err != nil {
			return err
		}
		stats.Processed += len(batch)
		logger.Info("flushed batch", "size", len(batch), "processed", stats.Processed)
		batch = batch[:0]
		return nil
	}

	for entry := range entryc {
		if fatal.Load() {
			// A fatal error voids the in-progress batch; keep draining so
			// in-flight workers can finish and the channel closes.
			continue
		}
		batch = append(batch, *entry)
		if len(batch) >= p.batchSize && !fatal.Load() {
			if err := flush(); err != nil {
				fail(err)
			}
		}
	}
	stats.Skipped += int(skipped.Load())
	stats.Failed = int(failed.Load())

	select {
	case err := <-errc:
		logger.Error("ingestion run failed", "err", err, "processed", stats.Processed, "skipped", stats.Skipped, "failed", stats.Failed)
		return stats, err
	default:
	}

	if err := ctx.Err(); err != nil {
		// Cancelled runs keep whatever finished in time.
		if flushErr := flush(); flushErr != nil {
			logger.Warn("error flushing after cancellation", "err", flushErr)
		}
		logger.Info("ingestion cancelled", "processed", stats.Processed, "skipped", stats.Skipped)
		return stats, err
	}

	if err := flush(); err != nil {
		logger.Error("ingestion run failed", "err", err, "processed", stats.Processed, "skipped", stats.Skipped)
		return stats, err
	}
	logger.Info("ingestion complete", "processed", stats.Processed, "skipped", stats.Skipped)
	return stats, nil
}

// processFile turns one raw product file into an index entry.
// A nil entry with a nil error means the file was skipped.
func (p *Pipeline) processFile(ctx context.Context, path string) (*core.IndexEntry, error) {
	record, err := p.normalizer.NormalizeFile(ctx, path)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, nil
	}

	paragraph, err := p.paragraphizer.Paragraph(ctx, record)
	if err != nil {
		return nil, err
	}

	vector, err := p.embedder.EmbedText(ctx, paragraph)
	if err != nil {
		return nil, err
	}

	return &core.IndexEntry{
		ID:       record.ID,
		Vector:   core.NormalizeVector(vector),
		Document: paragraph,
		Metadata: record.Metadata(),
	}, nil
}

// listProductFiles returns the *.json files under dir in name order.
func listProductFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// idFromPath derives the product id from the file name stem.
func idFromPath(path string) core.ID {
	return core.ID(strings.TrimSuffix(filepath.Base(path), ".json"))
}
