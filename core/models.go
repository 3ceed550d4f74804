package core

import (
	"encoding/binary"

	"github.com/go-crypt/x/blake2b"
)

// ID is the stable external identifier of a catalog product.
// It is derived from the source file name at ingestion time and acts as the
// primary key in the vector store across runs.
type ID string

// Key returns a fixed-width storage key for the ID using BLAKE2b hashing.
// Identical IDs always produce identical keys, which makes existence checks
// and upserts content-addressed.
func (id ID) Key() uint64 {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(id))
	sum := h.Sum(nil)
	return binary.LittleEndian.Uint64(sum)
}

// Metadata is the open key-value form of a product that flows through the
// query and rerank paths. Values are flattened to strings at extraction time.
type Metadata map[string]string

// Well-known metadata keys. Derived fields are produced by the normalizer;
// auxiliary keys come from the lookup tables and are not enumerated here.
const (
	FieldProductID     = "product_id"
	FieldBrand         = "brand"
	FieldDescription   = "description"
	FieldStyleNote     = "style_note"
	FieldMaterialsCare = "materials_care"
	FieldPrice         = "price"
	FieldImageURL      = "image_url"
	FieldSubCategory   = "sub_category"
)

// DerivedFields holds the cleaned text attributes produced by normalization.
type DerivedFields struct {
	Brand         string
	Description   string
	StyleNote     string
	MaterialsCare string
	Price         string
}

// Record is one catalog item assembled during ingestion. It is transient:
// only the IndexEntry derived from it is ever persisted.
type Record struct {
	ID        ID
	Derived   DerivedFields
	Auxiliary map[string]string // residual columns merged from the styles table
	ImageURL  string
}

// Metadata flattens the record into the open key-value form stored alongside
// its embedding. Derived fields win over auxiliary keys with the same name.
func (r *Record) Metadata() Metadata {
	m := make(Metadata, len(r.Auxiliary)+8)
	for k, v := range r.Auxiliary {
		m[k] = v
	}
	m[FieldProductID] = string(r.ID)
	m[FieldBrand] = r.Derived.Brand
	m[FieldDescription] = r.Derived.Description
	m[FieldStyleNote] = r.Derived.StyleNote
	m[FieldMaterialsCare] = r.Derived.MaterialsCare
	m[FieldPrice] = r.Derived.Price
	if r.ImageURL != "" {
		m[FieldImageURL] = r.ImageURL
	}
	return m
}

// IndexEntry is the persisted unit of the vector store: the product id, its
// embedding, the paragraph the embedding was computed from, and the flattened
// metadata served back to callers.
type IndexEntry struct {
	ID       ID
	Vector   []float32
	Document string
	Metadata Metadata
}
