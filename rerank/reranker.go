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


package rerank

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/fitloom/fitloom/ai"
	"github.com/fitloom/fitloom/core"
	"github.com/fitloom/fitloom/prompt"
)

// Reranker reorders query candidates by relevance using the rerank prompt.
//
// Reranking is strictly best-effort: a failed completion, an unparseable
// response, or a response naming ids that were not in the candidate set all
// fall back to the candidates in their original similarity order. Rerank
// therefore never returns an error.
type Reranker struct {
	completer ai.Completer
	templates *prompt.Library
	logger    *slog.Logger
}

// Option configures a Reranker.
type Option func(*Reranker)

// WithLogger sets a custom logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Reranker) {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
	}
}

// New creates a new reranker.
func New(completer ai.Completer, templates *prompt.Library, opts ...Option) (*Reranker, error) {
	if completer == nil {
		return nil, ErrCompleterRequired
	}
	if templates == nil {
		return nil, ErrTemplatesRequired
	}

	r := &Reranker{
		completer: completer,
		templates: templates,
		logger:    slog.Default().With("component", "reranker"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Rerank asks the model to reorder candidates by relevance to the query.
// The returned slice holds the original candidate metadata, reordered per
// the model's response; candidates the response drops are omitted, so a
// well-formed empty list yields an empty result. One attempt only; any
// failure returns the candidates unchanged.
func (r *Reranker) Rerank(ctx context.Context, query string, candidates []core.Metadata) []core.Metadata {
	if len(candidates) == 0 {
		return candidates
	}

	serialized, err := json.MarshalIndent(candidates, "", "  ")
	if err != nil {
		r.logger.Warn("falling back to similarity order", "err", err)
		return candidates
	}

	rendered := r.templates.Rerank.Render(map[string]string{
		prompt.SlotQuery:   query,
		prompt.SlotResults: string(serialized),
	})

	response, err := r.completer.Complete(ctx, rendered)
	if err != nil {
		r.logger.Warn("falling back to similarity order", "err", err)
		return candidates
	}

	order, err := parseOrder(response)
	if err != nil {
		r.logger.Warn("falling back to similarity order", "response", response, "err", err)
		return candidates
	}

	reordered, err := applyOrder(candidates, order)
	if err != nil {
		r.logger.Warn("falling back to similarity order", "err", err)
		return candidates
	}
	return reordered
}

// parseOrder extracts the ranked product ids from the model response.
func parseOrder(response string) ([]core.ID, error) {
	// Strip markdown code fences if present
	text := strings.TrimSpace(response)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	// Try to repair common JSON issues
	text = repairJSON(text)

	decoder := json.NewDecoder(bytes.NewReader([]byte(text)))
	decoder.UseNumber()

	var items []map[string]any
	if err := decoder.Decode(&items); err != nil {
		return nil, fmt.Errorf("parsing rerank response: %w", err)
	}

	order := make([]core.ID, 0, len(items))
	for _, item := range items {
		id := stringify(item[core.FieldProductID])
		if id == "" {
			return nil, fmt.Errorf("rerank response item without %s", core.FieldProductID)
		}
		order = append(order, core.ID(id))
	}
	return order, nil
}

// applyOrder maps the ranked ids back to the original candidate metadata.
// Ids outside the candidate set and repeated ids invalidate the whole
// response. Candidates the response dropped are simply omitted.
func applyOrder(candidates []core.Metadata, order []core.ID) ([]core.Metadata, error) {
	byID := make(map[core.ID]core.Metadata, len(candidates))
	for _, candidate := range candidates {
		byID[core.ID(candidate[core.FieldProductID])] = candidate
	}

	used := make(map[core.ID]bool, len(order))
	reordered := make([]core.Metadata, 0, len(order))
	for _, id := range order {
		candidate, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("rerank response names unknown id %s", id)
		}
		if used[id] {
			return nil, fmt.Errorf("rerank response repeats id %s", id)
		}
		used[id] = true
		reordered = append(reordered, candidate)
	}
	return reordered, nil
}

// stringify flattens a decoded JSON scalar to its string form.
func stringify(v any) string {
	switch value := v.(type) {
	case string:
		return value
	case json.Number:
		return value.String()
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", value)
	}
}
