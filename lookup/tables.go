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


// Package lookup loads the read-only auxiliary tables consumed during
// normalization: the styles catalog keyed by product id and the image catalog
// keyed by derived file name. Both are loaded once at startup; a missing file
// is a configuration error.
package lookup

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/fitloom/fitloom/core"
)

const (
	styleIDColumn   = "product_id"
	imageFileColumn = "file_name"
	imageLinkColumn = "link"
)

// Styles is the catalog-attribute table (category, season, color, ...).
type Styles struct {
	byID map[string]map[string]string
}

// LoadStyles reads the styles CSV. The first row is the header; every other
// row is keyed by its product_id column.
func LoadStyles(path string) (*Styles, error) {
	rows, header, err := readTable(path)
	if err != nil {
		return nil, err
	}

	idx := -1
	for i, col := range header {
		if col == styleIDColumn {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("%w: styles table %s: missing %q column", core.ErrConfiguration, path, styleIDColumn)
	}

	byID := make(map[string]map[string]string, len(rows))
	for _, row := range rows {
		attrs := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(row) {
				attrs[col] = row[i]
			}
		}
		byID[row[idx]] = attrs
	}

	return &Styles{byID: byID}, nil
}

// Attributes returns a copy of the catalog attributes for a product id.
// Missing values (empty cells) are dropped: absence, not an error.
// The second return is false when the id has no row at all.
func (s *Styles) Attributes(id core.ID) (map[string]string, bool) {
	row, ok := s.byID[string(id)]
	if !ok {
		return nil, false
	}
	attrs := make(map[string]string, len(row))
	for k, v := range row {
		if v != "" {
			attrs[k] = v
		}
	}
	return attrs, true
}

// Len returns the number of catalog rows.
func (s *Styles) Len() int {
	return len(s.byID)
}

// Images is the image-reference table mapping file names to URLs.
type Images struct {
	byFile map[string]string
}

// LoadImages reads the images CSV (file_name,link header).
func LoadImages(path string) (*Images, error) {
	rows, header, err := readTable(path)
	if err != nil {
		return nil, err
	}

	fileIdx, linkIdx := -1, -1
	for i, col := range header {
		switch col {
		case imageFileColumn:
			fileIdx = i
		case imageLinkColumn:
			linkIdx = i
		}
	}
	if fileIdx < 0 || linkIdx < 0 {
		return nil, fmt.Errorf("%w: images table %s: expected %q and %q columns",
			core.ErrConfiguration, path, imageFileColumn, imageLinkColumn)
	}

	byFile := make(map[string]string, len(rows))
	for _, row := range rows {
		if fileIdx < len(row) && linkIdx < len(row) && row[fileIdx] != "" {
			byFile[row[fileIdx]] = row[linkIdx]
		}
	}

	return &Images{byFile: byFile}, nil
}

// URL returns the image URL for a product id, looked up by the derived
// "{id}.jpg" file name. The second return is false when no image exists.
func (im *Images) URL(id core.ID) (string, bool) {
	link, ok := im.byFile[string(id)+".jpg"]
	if !ok || link == "" {
		return "", false
	}
	return link, true
}

// Len returns the number of image rows.
func (im *Images) Len() int {
	return len(im.byFile)
}

// readTable reads a CSV file and returns its data rows and header.
// Ragged rows are tolerated; short rows simply lack the trailing columns.
func readTable(path string) ([][]string, []string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: lookup table %s: %v", core.ErrConfiguration, path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: lookup table %s: reading header: %v", core.ErrConfiguration, path, err)
	}

	var rows [][]string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("%w: lookup table %s: %v", core.ErrConfiguration, path, err)
		}
		rows = append(rows, row)
	}

	return rows, header, nil
}
