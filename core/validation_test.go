package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateRecord(t *testing.T) {
	t.Run("valid record", func(t *testing.T) {
		err := ValidateRecord(&Record{ID: "1551"})
		assert.NoError(t, err)
	})

	t.Run("nil record", func(t *testing.T) {
		err := ValidateRecord(nil)
		assert.ErrorIs(t, err, ErrInvalidRecord)
	})

	t.Run("missing id", func(t *testing.T) {
		err := ValidateRecord(&Record{})
		assert.ErrorIs(t, err, ErrInvalidRecord)
		assert.ErrorIs(t, err, ErrEmptyID)
	})

	t.Run("empty derived fields are legal", func(t *testing.T) {
		err := ValidateRecord(&Record{ID: "7"})
		assert.NoError(t, err)
	})
}

func TestValidateEntry(t *testing.T) {
	valid := func() *IndexEntry {
		return &IndexEntry{
			ID:       "1551",
			Vector:   []float32{0.1, 0.2},
			Document: "A crisp formal shirt.",
			Metadata: Metadata{FieldBrand: "Arrow"},
		}
	}

	t.Run("valid entry", func(t *testing.T) {
		assert.NoError(t, ValidateEntry(valid()))
	})

	t.Run("nil entry", func(t *testing.T) {
		assert.ErrorIs(t, ValidateEntry(nil), ErrInvalidEntry)
	})

	t.Run("missing id", func(t *testing.T) {
		entry := valid()
		entry.ID = ""
		err := ValidateEntry(entry)
		assert.ErrorIs(t, err, ErrEmptyID)
	})

	t.Run("missing vector", func(t *testing.T) {
		entry := valid()
		entry.Vector = nil
		err := ValidateEntry(entry)
		assert.ErrorIs(t, err, ErrEmptyVector)
	})

	t.Run("missing document", func(t *testing.T) {
		entry := valid()
		entry.Document = ""
		err := ValidateEntry(entry)
		assert.ErrorIs(t, err, ErrEmptyDocument)
	})

	t.Run("empty metadata is legal", func(t *testing.T) {
		entry := valid()
		entry.Metadata = nil
		assert.NoError(t, ValidateEntry(entry))
	})
}
