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


package ai

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fitloom/fitloom/core"
)

// Config holds configuration for AI service providers.
type Config struct {
	// EmbeddingHost is the base URL for the embedding service API.
	// Example: "http://localhost:11434/v1" for a local OpenAI-compatible server
	EmbeddingHost string

	// CompletionHost is the base URL for the completion (LLM) service API.
	CompletionHost string

	// EmbeddingModel is the model identifier to use for text embeddings.
	// Example: "bge-base-en-v1.5", "text-embedding-3-small"
	EmbeddingModel string

	// CompletionModel is the model identifier for prompt completions.
	// Example: "llama-3.3-70b-versatile", "gpt-4o-mini"
	CompletionModel string

	// APIKeyEnv names the environment variable holding the API key.
	// When the variable is unset or empty, "none" is sent, which local
	// OpenAI-compatible services accept.
	// Default: "FITLOOM_API_KEY"
	APIKeyEnv string

	// RequestTimeout bounds every individual embedding or completion call.
	// A stuck external call fails with a deadline error rather than hanging
	// the run. Default: 60s
	RequestTimeout time.Duration

	// RequestsPerSecond is the sustained rate limit applied to completion
	// calls, protecting hosted LLM quotas during ingestion. Default: 2
	RequestsPerSecond float64

	// Burst is the rate limiter burst size. Default: 4
	Burst int
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithEmbeddingHost sets the embedding service host URL.
func WithEmbeddingHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
	}
}

// WithCompletionHost sets the completion service host URL.
func WithCompletionHost(host string) ConfigOption {
	return func(c *Config) {
		c.CompletionHost = host
	}
}

// WithHost sets both embedding and completion hosts to the same URL.
func WithHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
		c.CompletionHost = host
	}
}

// WithEmbeddingModel sets the embedding model identifier.
func WithEmbeddingModel(model string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingModel = model
	}
}

// WithCompletionModel sets the completion model identifier.
func WithCompletionModel(model string) ConfigOption {
	return func(c *Config) {
		c.CompletionModel = model
	}
}

// WithAPIKeyEnv sets the environment variable consulted for the API key.
func WithAPIKeyEnv(name string) ConfigOption {
	return func(c *Config) {
		c.APIKeyEnv = name
	}
}

// WithRequestTimeout sets the per-call timeout for external calls.
func WithRequestTimeout(d time.Duration) ConfigOption {
	return func(c *Config) {
		c.RequestTimeout = d
	}
}

// WithRateLimit sets the completion rate limit and burst size.
func WithRateLimit(perSecond float64, burst int) ConfigOption {
	return func(c *Config) {
		c.RequestsPerSecond = perSecond
		c.Burst = burst
	}
}

// DefaultConfig returns a Config with sensible defaults for local
// OpenAI-compatible services. By default, both services use the same host.
func DefaultConfig() *Config {
	defaultHost := "http://localhost:11434/v1"
	return &Config{
		EmbeddingHost:     defaultHost,
		CompletionHost:    defaultHost,
		EmbeddingModel:    "bge-base-en-v1.5",
		CompletionModel:   "llama-3.3-70b-versatile",
		APIKeyEnv:         "FITLOOM_API_KEY",
		RequestTimeout:    60 * time.Second,
		RequestsPerSecond: 2,
		Burst:             4,
	}
}

// NewConfig creates a Config with the default values and applies the provided
// options. This is the recommended way to create a Config with custom settings.
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// APIKey resolves the API key from the configured environment variable.
// Returns "none" when unset so local services without auth still work.
func (c *Config) APIKey() string {
	if c.APIKeyEnv != "" {
		if key := os.Getenv(c.APIKeyEnv); key != "" {
			return key
		}
	}
	return "none"
}

// Normalize ensures the configuration is in a canonical form. It adds the /v1
// suffix to hosts if missing, which is required by most OpenAI-compatible
// APIs (Ollama, LocalAI, vLLM, etc).
func (c *Config) Normalize() {
	if c.EmbeddingHost != "" && !strings.HasSuffix(c.EmbeddingHost, "/v1") {
		c.EmbeddingHost = strings.TrimSuffix(c.EmbeddingHost, "/") + "/v1"
	}
	if c.CompletionHost != "" && !strings.HasSuffix(c.CompletionHost, "/v1") {
		c.CompletionHost = strings.TrimSuffix(c.CompletionHost, "/") + "/v1"
	}
}

// Validate checks that the configuration is valid and complete.
// It automatically normalizes the configuration before validation.
// All failures carry core.ErrConfiguration: they are fatal at startup.
func (c *Config) Validate() error {
	c.Normalize()

	if c.EmbeddingHost == "" {
		return fmt.Errorf("%w: ai config: EmbeddingHost is required", core.ErrConfiguration)
	}
	if c.CompletionHost == "" {
		return fmt.Errorf("%w: ai config: CompletionHost is required", core.ErrConfiguration)
	}
	if c.EmbeddingModel == "" {
		return fmt.Errorf("%w: ai config: EmbeddingModel is required", core.ErrConfiguration)
	}
	if c.CompletionModel == "" {
		return fmt.Errorf("%w: ai config: CompletionModel is required", core.ErrConfiguration)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("%w: ai config: RequestTimeout must be positive", core.ErrConfiguration)
	}
	if c.RequestsPerSecond <= 0 {
		return fmt.Errorf("%w: ai config: RequestsPerSecond must be positive", core.ErrConfiguration)
	}
	if c.Burst < 1 {
		return fmt.Errorf("%w: ai config: Burst must be at least 1", core.ErrConfiguration)
	}
	return nil
}
