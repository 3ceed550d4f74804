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


package core

import "errors"

// Error kinds. Callers classify failures with errors.Is against these
// sentinels; the ingestion and retrieval pipelines react differently to each.
var (
	// ErrConfiguration marks failures that are fatal at startup: missing
	// prompt templates or lookup files, invalid service configuration.
	// There is no recovery path.
	ErrConfiguration = errors.New("configuration error")

	// ErrTransient marks failures of external calls (embedding, LLM, store).
	// Ingestion treats these as fatal to the current run; retrieval degrades
	// to an empty result instead.
	ErrTransient = errors.New("transient external failure")

	// ErrInvalidRecord indicates a Record failed validation.
	ErrInvalidRecord = errors.New("invalid record")

	// ErrInvalidEntry indicates an IndexEntry failed validation.
	ErrInvalidEntry = errors.New("invalid index entry")

	// ErrEmptyID indicates a record or entry is missing its product id.
	ErrEmptyID = errors.New("product id cannot be empty")

	// ErrEmptyVector indicates an entry has no embedding.
	ErrEmptyVector = errors.New("embedding vector cannot be empty")

	// ErrEmptyDocument indicates an entry has no document text.
	ErrEmptyDocument = errors.New("document cannot be empty")
)
