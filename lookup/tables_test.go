package lookup

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/fitloom/fitloom/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCSV(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadStyles(t *testing.T) {
	const stylesCSV = "product_id,gender,master_category,sub_category,season,base_colour\n" +
		"1551,Men,Apparel,Topwear,Summer,Blue\n" +
		"1552,Women,Apparel,Dress,,Red\n"

	t.Run("loads rows keyed by product id", func(t *testing.T) {
		styles, err := LoadStyles(writeCSV(t, "styles.csv", stylesCSV))
		require.NoError(t, err)
		assert.Equal(t, 2, styles.Len())

		attrs, ok := styles.Attributes(core.ID("1551"))
		require.True(t, ok)
		assert.Equal(t, "Apparel", attrs["master_category"])
		assert.Equal(t, "Topwear", attrs["sub_category"])
		assert.Equal(t, "1551", attrs["product_id"])
	})

	t.Run("empty cells are dropped as missing", func(t *testing.T) {
		styles, err := LoadStyles(writeCSV(t, "styles.csv", stylesCSV))
		require.NoError(t, err)

		attrs, ok := styles.Attributes(core.ID("1552"))
		require.True(t, ok)
		_, hasSeason := attrs["season"]
		assert.False(t, hasSeason)
		assert.Equal(t, "Red", attrs["base_colour"])
	})

	t.Run("unknown id reports absence", func(t *testing.T) {
		styles, err := LoadStyles(writeCSV(t, "styles.csv", stylesCSV))
		require.NoError(t, err)

		_, ok := styles.Attributes(core.ID("9999"))
		assert.False(t, ok)
	})

	t.Run("missing file is a configuration error", func(t *testing.T) {
		_, err := LoadStyles(filepath.Join(t.TempDir(), "absent.csv"))
		assert.ErrorIs(t, err, core.ErrConfiguration)
	})

	t.Run("missing product_id column is a configuration error", func(t *testing.T) {
		_, err := LoadStyles(writeCSV(t, "styles.csv", "id,name\n1,shirt\n"))
		assert.ErrorIs(t, err, core.ErrConfiguration)
	})
}

func TestLoadImages(t *testing.T) {
	const imagesCSV = "file_name,link\n" +
		"1551.jpg,http://img.example.com/1551.jpg\n" +
		"1552.jpg,\n"

	t.Run("resolves url by derived file name", func(t *testing.T) {
		images, err := LoadImages(writeCSV(t, "images.csv", imagesCSV))
		require.NoError(t, err)

		url, ok := images.URL(core.ID("1551"))
		require.True(t, ok)
		assert.Equal(t, "http://img.example.com/1551.jpg", url)
	})

	t.Run("empty link reports absence", func(t *testing.T) {
		images, err := LoadImages(writeCSV(t, "images.csv", imagesCSV))
		require.NoError(t, err)

		_, ok := images.URL(core.ID("1552"))
		assert.False(t, ok)
	})

	t.Run("unknown id reports absence", func(t *testing.T) {
		images, err := LoadImages(writeCSV(t, "images.csv", imagesCSV))
		require.NoError(t, err)

		_, ok := images.URL(core.ID("404"))
		assert.False(t, ok)
	})

	t.Run("missing file is a configuration error", func(t *testing.T) {
		_, err := LoadImages(filepath.Join(t.TempDir(), "absent.csv"))
		assert.ErrorIs(t, err, core.ErrConfiguration)
	})

	t.Run("wrong header is a configuration error", func(t *testing.T) {
		_, err := LoadImages(writeCSV(t, "images.csv", "path,url\na.jpg,http://x\n"))
		assert.ErrorIs(t, err, core.ErrConfiguration)
	})
}
