package extract

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/fitloom/fitloom/ai"
	"github.com/fitloom/fitloom/core"
	"github.com/fitloom/fitloom/prompt"
)

// labelOrder fixes the position of the derived fields in the label string.
// Auxiliary keys follow in sorted order so the same record always yields the
// same paragraph prompt.
var labelOrder = []string{
	core.FieldBrand,
	core.FieldDescription,
	core.FieldStyleNote,
	core.FieldMaterialsCare,
	core.FieldPrice,
}

// Paragraphizer condenses a record into a single natural-language paragraph
// via the paragraph prompt. The paragraph is the text that gets embedded and
// stored as the entry's document.
type Paragraphizer struct {
	completer ai.Completer
	templates *prompt.Library
	logger    *slog.Logger
}

// ParagraphizerOption configures a Paragraphizer.
type ParagraphizerOption func(*Paragraphizer)

// WithParagraphizerLogger sets a custom logger. Default is slog.Default().
func WithParagraphizerLogger(logger *slog.Logger) ParagraphizerOption {
	return func(p *Paragraphizer) {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
	}
}

// NewParagraphizer creates a new paragraphizer.
func NewParagraphizer(completer ai.Completer, templates *prompt.Library, opts ...ParagraphizerOption) (*Paragraphizer, error) {
	if completer == nil {
		return nil, ErrCompleterRequired
	}
	if templates == nil {
		return nil, ErrTemplatesRequired
	}

	p := &Paragraphizer{
		completer: completer,
		templates: templates,
		logger:    slog.Default().With("component", "paragraphizer"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Paragraph generates the embedding paragraph for a record. A failed
// completion is returned as an error and must halt the caller's run: a
// record without a paragraph cannot be embedded.
func (p *Paragraphizer) Paragraph(ctx context.Context, record *core.Record) (string, error) {
	if err := core.ValidateRecord(record); err != nil {
		return "", err
	}

	labels := LabelString(record.Metadata())
	rendered := p.templates.Paragraph.Render(map[string]string{prompt.SlotLabels: labels})

	paragraph, err := p.completer.Complete(ctx, rendered)
	if err != nil {
		return "", fmt.Errorf("paragraph for %s: %w", record.ID, err)
	}
	return strings.TrimSpace(paragraph), nil
}

// LabelString flattens metadata into "key: value" pairs joined by ". ".
// The product id and image URL never appear in the label string, and empty
// values are dropped. Derived fields come first in fixed order, then the
// remaining keys sorted.
func LabelString(m core.Metadata) string {
	var pairs []string
	seen := map[string]bool{
		core.FieldProductID: true,
		core.FieldImageURL:  true,
	}

	for _, key := range labelOrder {
		seen[key] = true
		if value := m[key]; value != "" {
			pairs = append(pairs, key+": "+value)
		}
	}

	rest := make([]string, 0, len(m))
	for key := range m {
		if !seen[key] {
			rest = append(rest, key)
		}
	}
	sort.Strings(rest)
	for _, key := range rest {
		if value := m[key]; value != "" {
			pairs = append(pairs, key+": "+value)
		}
	}

	return strings.Join(pairs, ". ")
}
