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


package openai

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/fitloom/fitloom/ai"
	"github.com/fitloom/fitloom/core"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"golang.org/x/time/rate"
)

// Completer implements ai.Completer using OpenAI-compatible chat APIs.
// Calls are rate limited with a token bucket so batch ingestion does not
// exhaust hosted LLM quotas, and every call is bounded by the configured
// request timeout.
type Completer struct {
	client  llms.Model
	limiter *rate.Limiter
	timeout time.Duration
	logger  *slog.Logger
}

// newCompleter is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newCompleter(config *ai.Config) (*Completer, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := openai.New(
		openai.WithBaseURL(config.CompletionHost),
		openai.WithToken(config.APIKey()),
		openai.WithModel(config.CompletionModel),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: completion client: %v", core.ErrConfiguration, err)
	}

	return &Completer{
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(config.RequestsPerSecond), config.Burst),
		timeout: config.RequestTimeout,
		logger:  slog.Default().With("component", "openai-completer"),
	}, nil
}

// NewCompleter creates a new completer using the provided configuration.
//
// Returns ai.Completer interface to enforce abstraction.
func NewCompleter(config *ai.Config) (ai.Completer, error) {
	return newCompleter(config)
}

// Complete sends the prompt and returns the trimmed response text.
// Temperature is pinned to 0.0: all three prompt tasks want reproducible
// output, not variety.
func (c *Completer) Complete(ctx context.Context, prompt string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("%w: rate limiter: %v", core.ErrTransient, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	content := []llms.MessageContent{
		{
			Role: llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.TextPart(prompt),
			},
		},
	}

	response, err := c.client.GenerateContent(ctx, content, llms.WithTemperature(0.0))
	if err != nil {
		c.logger.Error("completion failed", "err", err)
		return "", fmt.Errorf("%w: completion: %v", core.ErrTransient, err)
	}

	if len(response.Choices) < 1 {
		c.logger.Warn("no choices returned from model")
		return "", nil
	}

	return strings.TrimSpace(response.Choices[0].Content), nil
}
