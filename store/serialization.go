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


package store

import (
	"fmt"

	"github.com/fitloom/fitloom/core"
	"github.com/mus-format/mus-go"
	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
)

var (
	vectorMUS   = ord.NewSliceSer[float32](varint.Float32)
	metadataMUS = ord.NewMapSer[string, string](ord.String, ord.String)
)

// IndexEntryMUS is the MUS format serializer for core.IndexEntry.
var IndexEntryMUS indexEntryMUS

type indexEntryMUS struct{}

var _ mus.Serializer[core.IndexEntry] = indexEntryMUS{}

func (indexEntryMUS) Marshal(v core.IndexEntry, bs []byte) (n int) {
	n = ord.String.Marshal(string(v.ID), bs)
	n += vectorMUS.Marshal(v.Vector, bs[n:])
	n += ord.String.Marshal(v.Document, bs[n:])
	n += metadataMUS.Marshal(v.Metadata, bs[n:])
	return
}

func (indexEntryMUS) Unmarshal(bs []byte) (v core.IndexEntry, n int, err error) {
	id, n, err := ord.String.Unmarshal(bs)
	if err != nil {
		return
	}
	v.ID = core.ID(id)

	var n1 int
	v.Vector, n1, err = vectorMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}

	v.Document, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}

	var m map[string]string
	m, n1, err = metadataMUS.Unmarshal(bs[n:])
	n += n1
	v.Metadata = core.Metadata(m)
	return
}

func (indexEntryMUS) Size(v core.IndexEntry) (size int) {
	size = ord.String.Size(string(v.ID))
	size += vectorMUS.Size(v.Vector)
	size += ord.String.Size(v.Document)
	size += metadataMUS.Size(v.Metadata)
	return
}

func (indexEntryMUS) Skip(bs []byte) (n int, err error) {
	n, err = ord.String.Skip(bs)
	if err != nil {
		return
	}

	var n1 int
	n1, err = vectorMUS.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}

	n1, err = ord.String.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}

	n1, err = metadataMUS.Skip(bs[n:])
	n += n1
	return
}

// MarshalEntry serializes an IndexEntry to bytes.
func MarshalEntry(entry *core.IndexEntry) []byte {
	buf := make([]byte, IndexEntryMUS.Size(*entry))
	IndexEntryMUS.Marshal(*entry, buf)
	return buf
}

// UnmarshalEntry deserializes an IndexEntry from bytes.
func UnmarshalEntry(data []byte) (*core.IndexEntry, error) {
	entry, _, err := IndexEntryMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return &entry, nil
}
