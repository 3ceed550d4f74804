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


package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/fitloom/fitloom"
	"github.com/fitloom/fitloom/ai"
	"github.com/fitloom/fitloom/config"
	"github.com/fitloom/fitloom/core"
	"github.com/fitloom/fitloom/ingest"
	"github.com/fitloom/fitloom/retrieve"
	"github.com/fitloom/fitloom/store"
)

func main() {
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "fitloom",
		Usage: "Semantic search over a fashion product catalog",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML config file",
				Value:   "config.yaml",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "ingest",
				Usage:  "Ingest raw product files into the vector store",
				Action: ingestCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "dir",
						Usage: "Product directory (overrides config)",
					},
					&cli.BoolFlag{
						Name:    "watch",
						Aliases: []string{"w"},
						Usage:   "Keep watching the directory for new files",
					},
				},
			},
			{
				Name:      "search",
				Usage:     "Search the catalog",
				ArgsUsage: "<query>",
				Action:    searchCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "category",
						Usage: "Restrict results to one sub_category",
					},
					&cli.IntFlag{
						Name:  "top-k",
						Usage: "Number of candidates to retrieve (overrides config)",
					},
					&cli.BoolFlag{
						Name:    "verbose",
						Aliases: []string{"v"},
						Usage:   "Show retrieval stages",
					},
				},
			},
			{
				Name:   "export-ids",
				Usage:  "Export every stored product id as CSV",
				Action: exportIDsCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "out",
						Aliases: []string{"o"},
						Usage:   "Output file (default stdout)",
					},
				},
			},
			{
				Name:   "export-data",
				Usage:  "Export stored entries grouped by a metadata key",
				Action: exportDataCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "by",
						Usage: "Metadata key to group by",
						Value: core.FieldSubCategory,
					},
					&cli.StringFlag{
						Name:    "out",
						Aliases: []string{"o"},
						Usage:   "Output file (default stdout)",
					},
				},
			},
			{
				Name:   "status",
				Usage:  "Show how many entries the collection holds",
				Action: statusCommand,
			},
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.RunContext(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

func openCatalog(c *cli.Context) (*fitloom.Catalog, *config.AppConfig, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}

	aiOpts := []ai.ConfigOption{
		ai.WithHost(cfg.Models.Host),
		ai.WithEmbeddingModel(cfg.Models.EmbeddingModel),
		ai.WithCompletionModel(cfg.Models.CompletionModel),
		ai.WithAPIKeyEnv(cfg.Models.APIKeyEnv),
		ai.WithRequestTimeout(time.Duration(cfg.Models.TimeoutSecs) * time.Second),
		ai.WithRateLimit(cfg.Models.RequestsPerSecond, cfg.Models.Burst),
	}
	if cfg.Models.EmbeddingHost != "" {
		aiOpts = append(aiOpts, ai.WithEmbeddingHost(cfg.Models.EmbeddingHost))
	}
	if cfg.Models.CompletionHost != "" {
		aiOpts = append(aiOpts, ai.WithCompletionHost(cfg.Models.CompletionHost))
	}

	catalog, err := fitloom.OpenCatalog(cfg.Collection, fitloom.Paths{
		DataDir:   cfg.Paths.DataDir,
		PromptDir: cfg.Paths.PromptDir,
		StylesCSV: cfg.Paths.StylesCSV,
		ImagesCSV: cfg.Paths.ImagesCSV,
	}, fitloom.WithAIConfig(ai.NewConfig(aiOpts...)))
	if err != nil {
		return nil, nil, err
	}
	return catalog, cfg, nil
}

func ingestCommand(c *cli.Context) error {
	catalog, cfg, err := openCatalog(c)
	if err != nil {
		return err
	}
	defer catalog.Close()

	opts := []ingest.Option{ingest.WithBatchSize(cfg.Ingest.BatchSize)}
	if cfg.Ingest.PoolSize > 0 {
		opts = append(opts, ingest.WithPoolSize(cfg.Ingest.PoolSize))
	}
	pipeline, err := catalog.NewIngestionPipeline(opts...)
	if err != nil {
		return err
	}
	defer pipeline.Release()

	dir := c.String("dir")
	if dir == "" {
		dir = cfg.Paths.ProductDir
	}

	if c.Bool("watch") {
		settle := time.Duration(cfg.Ingest.SettleSecs) * time.Second
		return pipeline.Watch(c.Context, dir, settle)
	}

	stats, err := pipeline.Run(c.Context, dir)
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Processed: %d\nSkipped: %d\nFailed: %d\n", stats.Processed, stats.Skipped, stats.Failed)
	return nil
}

func searchCommand(c *cli.Context) error {
	query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if query == "" {
		return fmt.Errorf("usage: fitloom search <query>")
	}

	catalog, cfg, err := openCatalog(c)
	if err != nil {
		return err
	}
	defer catalog.Close()

	topK := cfg.Retrieve.TopK
	if c.Int("top-k") > 0 {
		topK = c.Int("top-k")
	}
	retriever, err := catalog.NewRetriever(retrieve.WithTopK(topK))
	if err != nil {
		return err
	}

	var filter core.Metadata
	if category := c.String("category"); category != "" {
		filter = core.Metadata{core.FieldSubCategory: category}
	}

	var monitor retrieve.SearchMonitor
	if c.Bool("verbose") {
		monitor = &stageMonitor{}
	}

	results, err := retriever.SearchWithMonitor(c.Context, query, filter, monitor)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		fmt.Println("No results.")
		return nil
	}

	for i, m := range results {
		fmt.Printf("%2d. [%s] %s\n", i+1, m[core.FieldProductID], describe(m))
		if url := m[core.FieldImageURL]; url != "" {
			fmt.Printf("    %s\n", url)
		}
	}
	return nil
}

func exportIDsCommand(c *cli.Context) error {
	catalog, cfg, err := openCatalog(c)
	if err != nil {
		return err
	}
	defer catalog.Close()

	out, closeOut, err := outputWriter(c.String("out"))
	if err != nil {
		return err
	}
	defer closeOut()

	return store.ExportIDs(c.Context, catalog.Store(), out, cfg.Export.PageSize)
}

func exportDataCommand(c *cli.Context) error {
	catalog, cfg, err := openCatalog(c)
	if err != nil {
		return err
	}
	defer catalog.Close()

	out, closeOut, err := outputWriter(c.String("out"))
	if err != nil {
		return err
	}
	defer closeOut()

	return store.ExportGroupedBy(c.Context, catalog.Store(), out, c.String("by"), cfg.Export.PageSize)
}

func statusCommand(c *cli.Context) error {
	catalog, cfg, err := openCatalog(c)
	if err != nil {
		return err
	}
	defer catalog.Close()

	count, err := catalog.Store().Count(c.Context)
	if err != nil {
		return err
	}
	fmt.Printf("Collection %q holds %d entries\n", cfg.Collection, count)
	return nil
}

// outputWriter opens the export destination, defaulting to stdout.
func outputWriter(path string) (*os.File, func(), error) {
	if path == "" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { f.Close() }, nil
}

// describe builds the one-line result summary shown in the terminal.
func describe(m core.Metadata) string {
	parts := make([]string, 0, 3)
	for _, key := range []string{core.FieldBrand, core.FieldSubCategory, core.FieldPrice} {
		if value := m[key]; value != "" {
			parts = append(parts, value)
		}
	}
	if len(parts) == 0 {
		return m[core.FieldDescription]
	}
	return strings.Join(parts, " | ")
}

// stageMonitor prints retrieval stages for --verbose searches.
type stageMonitor struct{}

func (s *stageMonitor) Start(query string) {
	fmt.Fprintf(os.Stderr, "query: %s\n", query)
}

func (s *stageMonitor) AfterVectorQuery(candidates []core.Metadata) {
	fmt.Fprintf(os.Stderr, "vector search: %d candidates\n", len(candidates))
}

func (s *stageMonitor) AfterRerank(reordered []core.Metadata) {
	fmt.Fprintf(os.Stderr, "rerank: %d results\n", len(reordered))
}

func (s *stageMonitor) Finish(results []core.Metadata) {
	fmt.Fprintf(os.Stderr, "done: %d results\n", len(results))
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
