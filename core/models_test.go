package core

import (
	"testing"
	"time"
)

func TestHashKey(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "author id", input: "1"},
		{name: "empty string", input: ""},
		{name: "long input", input: "an author identifier that is a good deal longer than the hash itself"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if HashKey(tt.input) != HashKey(tt.input) {
				t.Errorf("HashKey(%q) is not deterministic", tt.input)
			}
		})
	}
}

func TestHashKey_Different(t *testing.T) {
	if HashKey("author-1") == HashKey("author-2") {
		t.Errorf("HashKey() produced same key for different input")
	}
}

func TestDocument_Clone(t *testing.T) {
	doc := &Document{
		ID:      "1",
		Title:   "Title One",
		Content: "Content One",
		Author:  Author{ID: "a", Name: "Alice"},
		Created: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}

	clone := doc.Clone()
	if *clone != *doc {
		t.Fatalf("Clone() = %+v, want %+v", clone, doc)
	}

	clone.Title = "changed"
	clone.Author.Name = "Bob"
	if doc.Title != "Title One" || doc.Author.Name != "Alice" {
		t.Errorf("mutating the clone changed the original: %+v", doc)
	}
}

func TestDocument_HasID(t *testing.T) {
	if (&Document{}).HasID() {
		t.Error("empty document reports an ID")
	}
	if !(&Document{ID: "x"}).HasID() {
		t.Error("document with ID reports none")
	}
}

func TestNormalizeTime(t *testing.T) {
	now := time.Now()
	got := NormalizeTime(now)

	if !got.Equal(now) {
		t.Errorf("NormalizeTime() changed the instant: %v vs %v", got, now)
	}
	if got.Location() != time.UTC {
		t.Errorf("NormalizeTime() location = %v, want UTC", got.Location())
	}
	if got != NormalizeTime(got) {
		t.Errorf("NormalizeTime() is not idempotent")
	}
}
