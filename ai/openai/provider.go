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

import "github.com/fitloom/fitloom/ai"

// Provider bundles the embedding and completion clients built from one
// shared configuration.
type Provider struct {
	embedder  *Embedder
	completer *Completer
}

// NewProvider builds both services from config. Each constructor validates
// the config itself.
//
// Returns ai.AIProvider to keep callers off the concrete client types.
func NewProvider(config *ai.Config) (ai.AIProvider, error) {
	embedder, err := newEmbedder(config)
	if err != nil {
		return nil, err
	}
	completer, err := newCompleter(config)
	if err != nil {
		return nil, err
	}
	return &Provider{embedder: embedder, completer: completer}, nil
}

func (p *Provider) Embedder() ai.Embedder   { return p.embedder }
func (p *Provider) Completer() ai.Completer { return p.completer }

// Close implements ai.AIProvider. The langchaingo clients hold no
// connections that outlive a request, so there is nothing to release.
func (p *Provider) Close() error { return nil }
