package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/fitloom/fitloom/ai"
	"github.com/fitloom/fitloom/core"
	"github.com/fitloom/fitloom/lookup"
	"github.com/fitloom/fitloom/prompt"
)

// Long-text descriptor fields that may contain markup and go through the
// cleaning call.
const (
	descriptorDescription   = "description"
	descriptorStyleNote     = "style_note"
	descriptorMaterialsCare = "materials_care_desc"
)

// rawProduct mirrors the source JSON shape of one product file.
type rawProduct struct {
	Data struct {
		ID                 json.Number              `json:"id"`
		BrandName          string                   `json:"brandName"`
		Price              json.Number              `json:"price"`
		ProductDescriptors map[string]rawDescriptor `json:"productDescriptors"`
	} `json:"data"`
}

type rawDescriptor struct {
	Value string `json:"value"`
}

// descriptor returns the named long-text field, empty when absent.
func (r *rawProduct) descriptor(name string) string {
	return r.Data.ProductDescriptors[name].Value
}

// Normalizer produces a core.Record from a raw product file: cleaned text
// fields via the HTML-cleaning prompt plus attributes joined in from the
// lookup tables.
type Normalizer struct {
	completer ai.Completer
	templates *prompt.Library
	styles    *lookup.Styles
	images    *lookup.Images
	logger    *slog.Logger
}

// NormalizerOption configures a Normalizer.
type NormalizerOption func(*Normalizer)

// WithNormalizerLogger sets a custom logger. Default is slog.Default().
func WithNormalizerLogger(logger *slog.Logger) NormalizerOption {
	return func(n *Normalizer) {
		if logger == nil {
			logger = slog.Default()
		}
		n.logger = logger
	}
}

// NewNormalizer creates a new normalizer.
func NewNormalizer(
	completer ai.Completer,
	templates *prompt.Library,
	styles *lookup.Styles,
	images *lookup.Images,
	opts ...NormalizerOption,
) (*Normalizer, error) {
	if completer == nil {
		return nil, ErrCompleterRequired
	}
	if templates == nil {
		return nil, ErrTemplatesRequired
	}
	if styles == nil {
		return nil, ErrStylesRequired
	}
	if images == nil {
		return nil, ErrImagesRequired
	}

	n := &Normalizer{
		completer: completer,
		templates: templates,
		styles:    styles,
		images:    images,
		logger:    slog.Default().With("component", "normalizer"),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n, nil
}

// NormalizeFile reads one raw product file and returns its normalized record.
//
// An unreadable file, malformed JSON, or a non-positive product id yields
// (nil, nil): the record is skipped and the run continues. An error from the
// cleaning call is returned as-is and must halt the caller's run.
func (n *Normalizer) NormalizeFile(ctx context.Context, path string) (*core.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		n.logger.Warn("skipping unreadable file", "path", path, "err", err)
		return nil, nil
	}

	var raw rawProduct
	if err := json.Unmarshal(data, &raw); err != nil {
		n.logger.Warn("skipping malformed file", "path", path, "err", err)
		return nil, nil
	}

	id, err := raw.Data.ID.Int64()
	if err != nil || id <= 0 {
		n.logger.Warn("skipping file without a usable product id", "path", path)
		return nil, nil
	}

	description, err := n.cleanMarkup(ctx, raw.descriptor(descriptorDescription))
	if err != nil {
		return nil, fmt.Errorf("%s: %s: %w", path, descriptorDescription, err)
	}
	styleNote, err := n.cleanMarkup(ctx, raw.descriptor(descriptorStyleNote))
	if err != nil {
		return nil, fmt.Errorf("%s: %s: %w", path, descriptorStyleNote, err)
	}
	materialsCare, err := n.cleanMarkup(ctx, raw.descriptor(descriptorMaterialsCare))
	if err != nil {
		return nil, fmt.Errorf("%s: %s: %w", path, descriptorMaterialsCare, err)
	}

	price := raw.Data.Price.String()
	if price == "" {
		price = "0"
	}

	record := &core.Record{
		ID: core.ID(raw.Data.ID.String()),
		Derived: core.DerivedFields{
			Brand:         raw.Data.BrandName,
			Description:   description,
			StyleNote:     styleNote,
			MaterialsCare: materialsCare,
			Price:         price,
		},
		Auxiliary: make(map[string]string),
	}

	// Catalog attributes fill in only what cleaning did not produce.
	if attrs, ok := n.styles.Attributes(record.ID); ok {
		for key, value := range attrs {
			if !isDerivedField(key) {
				record.Auxiliary[key] = value
			}
		}
	}

	if url, ok := n.images.URL(record.ID); ok {
		record.ImageURL = url
	}

	return record, nil
}

// cleanMarkup strips markup from a long-text field through the cleaning
// prompt. An empty field costs no call and cleans to the empty string.
// Call failures are not retried here: the orchestrator decides whether the
// run can continue.
func (n *Normalizer) cleanMarkup(ctx context.Context, markup string) (string, error) {
	if strings.TrimSpace(markup) == "" {
		return "", nil
	}

	rendered := n.templates.HTMLClean.Render(map[string]string{prompt.SlotText: markup})
	cleaned, err := n.completer.Complete(ctx, rendered)
	if err != nil {
		return "", fmt.Errorf("cleaning markup: %w", err)
	}
	return strings.TrimSpace(cleaned), nil
}

// isDerivedField reports whether a lookup column collides with a field the
// cleaning step already produced.
func isDerivedField(key string) bool {
	switch key {
	case core.FieldBrand, core.FieldDescription, core.FieldStyleNote,
		core.FieldMaterialsCare, core.FieldPrice:
		return true
	}
	return false
}
