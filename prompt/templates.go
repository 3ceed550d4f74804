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


// Package prompt loads the operator-editable prompt template files and
// renders them by substituting named slots of the form {name}. The slot
// syntax is part of the operator contract, so rendering is plain string
// substitution, not a Go template language.
package prompt

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fitloom/fitloom/core"
)

// Template file names inside the prompt directory.
const (
	HTMLCleanFile = "html_prompt.txt"
	ParagraphFile = "paragraph_prompt.txt"
	RerankFile    = "rerank_prompt.txt"
)

// Slot names recognized by the shipped templates.
const (
	SlotText    = "text"    // raw HTML passed to the cleaning template
	SlotLabels  = "labels"  // "key: value" label string for the paragraph template
	SlotQuery   = "query"   // user query for the rerank template
	SlotResults = "results" // serialized candidates for the rerank template
)

// Template is one loaded prompt template.
type Template struct {
	name string
	text string
}

// New creates a template directly from text. Used by tests and callers that
// manage template content themselves.
func New(name, text string) *Template {
	return &Template{name: name, text: text}
}

// Name returns the template's file name.
func (t *Template) Name() string {
	return t.name
}

// Render substitutes every {slot} occurrence with its value.
// Slots without a value are left in place, which makes a template/caller
// mismatch visible in the generated prompt rather than silently dropped.
func (t *Template) Render(vars map[string]string) string {
	out := t.text
	for slot, value := range vars {
		out = strings.ReplaceAll(out, "{"+slot+"}", value)
	}
	return out
}

// Library holds the three prompt templates the pipelines use.
type Library struct {
	HTMLClean *Template
	Paragraph *Template
	Rerank    *Template
}

// LoadLibrary reads all template files from dir. A missing or unreadable
// template is a configuration error: the process must not start without its
// prompts.
func LoadLibrary(dir string) (*Library, error) {
	htmlClean, err := loadTemplate(dir, HTMLCleanFile)
	if err != nil {
		return nil, err
	}
	paragraph, err := loadTemplate(dir, ParagraphFile)
	if err != nil {
		return nil, err
	}
	rerank, err := loadTemplate(dir, RerankFile)
	if err != nil {
		return nil, err
	}

	return &Library{
		HTMLClean: htmlClean,
		Paragraph: paragraph,
		Rerank:    rerank,
	}, nil
}

func loadTemplate(dir, file string) (*Template, error) {
	path := filepath.Join(dir, file)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: prompt template %s: %v", core.ErrConfiguration, path, err)
	}
	return &Template{name: file, text: string(data)}, nil
}
