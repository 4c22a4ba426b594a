package main

import (
	"cmp"
	"fmt"
	"io"
	"os"
	"slices"
	"time"

	"github.com/poiesic/docman/core"
	"gopkg.in/yaml.v3"
)

// documentFile is the on-disk layout of a document list.
type documentFile struct {
	Documents []documentRecord `yaml:"documents"`
}

type documentRecord struct {
	ID      string       `yaml:"id,omitempty"`
	Title   string       `yaml:"title"`
	Content string       `yaml:"content"`
	Author  authorRecord `yaml:"author"`
	Created string       `yaml:"created,omitempty"`
}

type authorRecord struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

func readDocuments(path string) ([]*core.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read document file: %w", err)
	}

	var file documentFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse document file %s: %w", path, err)
	}

	docs := make([]*core.Document, 0, len(file.Documents))
	for i, rec := range file.Documents {
		doc, err := rec.toDocument()
		if err != nil {
			return nil, fmt.Errorf("document %d in %s: %w", i, path, err)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func (r documentRecord) toDocument() (*core.Document, error) {
	doc := &core.Document{
		ID:      r.ID,
		Title:   r.Title,
		Content: r.Content,
		Author:  core.Author{ID: r.Author.ID, Name: r.Author.Name},
	}
	if r.Created != "" {
		created, err := time.Parse(time.RFC3339Nano, r.Created)
		if err != nil {
			return nil, fmt.Errorf("invalid created time %q: %w", r.Created, err)
		}
		doc.Created = created
	}
	return doc, nil
}

func newDocumentRecord(doc *core.Document) documentRecord {
	rec := documentRecord{
		ID:      doc.ID,
		Title:   doc.Title,
		Content: doc.Content,
		Author:  authorRecord{ID: doc.Author.ID, Name: doc.Author.Name},
	}
	if !doc.Created.IsZero() {
		rec.Created = doc.Created.Format(time.RFC3339Nano)
	}
	return rec
}

func writeDocument(w io.Writer, doc *core.Document) error {
	return encode(w, newDocumentRecord(doc))
}

func writeDocuments(w io.Writer, docs []*core.Document) error {
	file := documentFile{Documents: make([]documentRecord, 0, len(docs))}
	for _, doc := range docs {
		file.Documents = append(file.Documents, newDocumentRecord(doc))
	}
	return encode(w, file)
}

func encode(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

// sortDocuments orders search output by creation time, then id, so
// repeated runs print the same listing.
func sortDocuments(docs []*core.Document) {
	slices.SortFunc(docs, func(a, b *core.Document) int {
		if c := a.Created.Compare(b.Created); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}
