// Copyright 2025 Poiesic Systems
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

package storage

import (
	"fmt"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/docman/core"
)

// DocumentMUS is the MUS serializer for core.Document.
// Created is encoded as Unix seconds plus nanoseconds and decoded in UTC.
var DocumentMUS = documentMUS{}

type documentMUS struct{}

func (documentMUS) Marshal(doc core.Document, bs []byte) (n int) {
	n = ord.String.Marshal(doc.ID, bs)
	n += ord.String.Marshal(doc.Title, bs[n:])
	n += ord.String.Marshal(doc.Content, bs[n:])
	n += ord.String.Marshal(doc.Author.ID, bs[n:])
	n += ord.String.Marshal(doc.Author.Name, bs[n:])
	n += varint.Int64.Marshal(doc.Created.Unix(), bs[n:])
	n += varint.Int64.Marshal(int64(doc.Created.Nanosecond()), bs[n:])
	return
}

func (documentMUS) Unmarshal(bs []byte) (doc core.Document, n int, err error) {
	fields := []*string{&doc.ID, &doc.Title, &doc.Content, &doc.Author.ID, &doc.Author.Name}
	for _, field := range fields {
		var m int
		*field, m, err = ord.String.Unmarshal(bs[n:])
		n += m
		if err != nil {
			return
		}
	}
	secs, m, err := varint.Int64.Unmarshal(bs[n:])
	n += m
	if err != nil {
		return
	}
	nanos, m, err := varint.Int64.Unmarshal(bs[n:])
	n += m
	if err != nil {
		return
	}
	doc.Created = time.Unix(secs, nanos).UTC()
	return
}

func (documentMUS) Size(doc core.Document) (size int) {
	size = ord.String.Size(doc.ID)
	size += ord.String.Size(doc.Title)
	size += ord.String.Size(doc.Content)
	size += ord.String.Size(doc.Author.ID)
	size += ord.String.Size(doc.Author.Name)
	size += varint.Int64.Size(doc.Created.Unix())
	return size + varint.Int64.Size(int64(doc.Created.Nanosecond()))
}

// MarshalDocument serializes a Document to bytes.
func MarshalDocument(doc *core.Document) []byte {
	buf := make([]byte, DocumentMUS.Size(*doc))
	DocumentMUS.Marshal(*doc, buf)
	return buf
}

// UnmarshalDocument deserializes a Document from bytes.
func UnmarshalDocument(data []byte) (*core.Document, error) {
	doc, _, err := DocumentMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return &doc, nil
}
