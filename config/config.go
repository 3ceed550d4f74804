// Package config holds the YAML application configuration for fitloom.
// A missing config file is not an error: every field has a default aimed at
// a local single-machine setup.
package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// PathsConfig points at the catalog inputs on disk.
type PathsConfig struct {
	ProductDir string `yaml:"product_dir"` // raw *.json product files
	StylesCSV  string `yaml:"styles_csv"`  // catalog attribute table
	ImagesCSV  string `yaml:"images_csv"`  // image link table
	PromptDir  string `yaml:"prompt_dir"`  // operator-editable prompt templates
	DataDir    string `yaml:"data_dir"`    // vector store root
}

// ModelsConfig configures the OpenAI-compatible model endpoints.
type ModelsConfig struct {
	Host              string  `yaml:"host"`
	EmbeddingHost     string  `yaml:"embedding_host,omitempty"`
	CompletionHost    string  `yaml:"completion_host,omitempty"`
	EmbeddingModel    string  `yaml:"embedding_model"`
	CompletionModel   string  `yaml:"completion_model"`
	APIKeyEnv         string  `yaml:"api_key_env"`
	TimeoutSecs       int     `yaml:"timeout_secs"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

// IngestConfig tunes the ingestion pipeline.
type IngestConfig struct {
	BatchSize  int `yaml:"batch_size"`
	PoolSize   int `yaml:"pool_size,omitempty"`
	SettleSecs int `yaml:"settle_secs"` // watch mode quiet period
}

// RetrieveConfig tunes the retrieval pipeline.
type RetrieveConfig struct {
	TopK int `yaml:"top_k"`
}

// ExportConfig tunes the export scans.
type ExportConfig struct {
	PageSize int `yaml:"page_size"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Collection string         `yaml:"collection"`
	Paths      PathsConfig    `yaml:"paths"`
	Models     ModelsConfig   `yaml:"models"`
	Ingest     IngestConfig   `yaml:"ingest"`
	Retrieve   RetrieveConfig `yaml:"retrieve"`
	Export     ExportConfig   `yaml:"export"`
}

// Load reads a config from a specified path. If the file does not exist,
// returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defaultConfig(), nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyConfigDefaults(&cfg)
	return &cfg, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultConfig() *AppConfig {
	cfg := &AppConfig{}
	applyConfigDefaults(cfg)
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.Collection == "" {
		cfg.Collection = "products"
	}
	if cfg.Paths.DataDir == "" {
		cfg.Paths.DataDir = "./data"
	}
	if cfg.Paths.ProductDir == "" {
		cfg.Paths.ProductDir = filepath.Join(cfg.Paths.DataDir, "products")
	}
	if cfg.Paths.StylesCSV == "" {
		cfg.Paths.StylesCSV = filepath.Join(cfg.Paths.DataDir, "styles.csv")
	}
	if cfg.Paths.ImagesCSV == "" {
		cfg.Paths.ImagesCSV = filepath.Join(cfg.Paths.DataDir, "images.csv")
	}
	if cfg.Paths.PromptDir == "" {
		cfg.Paths.PromptDir = "./prompts"
	}
	if cfg.Models.Host == "" {
		cfg.Models.Host = "http://localhost:11434"
	}
	if cfg.Models.EmbeddingModel == "" {
		cfg.Models.EmbeddingModel = "bge-base-en-v1.5"
	}
	if cfg.Models.CompletionModel == "" {
		cfg.Models.CompletionModel = "llama-3.3-70b-versatile"
	}
	if cfg.Models.APIKeyEnv == "" {
		cfg.Models.APIKeyEnv = "FITLOOM_API_KEY"
	}
	if cfg.Models.TimeoutSecs == 0 {
		cfg.Models.TimeoutSecs = 60
	}
	if cfg.Models.RequestsPerSecond == 0 {
		cfg.Models.RequestsPerSecond = 2
	}
	if cfg.Models.Burst == 0 {
		cfg.Models.Burst = 4
	}
	if cfg.Ingest.BatchSize == 0 {
		cfg.Ingest.BatchSize = 20
	}
	if cfg.Ingest.SettleSecs == 0 {
		cfg.Ingest.SettleSecs = 2
	}
	if cfg.Retrieve.TopK == 0 {
		cfg.Retrieve.TopK = 20
	}
	if cfg.Export.PageSize == 0 {
		cfg.Export.PageSize = 500
	}
}
