package search

import (
	"slices"
	"strings"
	"time"

	"github.com/poiesic/docman/core"
)

// Request is a set of optional filter criteria.
// Nil or empty slices and zero times are treated as absent.
type Request struct {
	TitlePrefixes    []string
	ContainsContents []string
	AuthorIDs        []string
	CreatedFrom      time.Time
	CreatedTo        time.Time
}

// IsEmpty reports whether the request carries no active criterion.
func (r Request) IsEmpty() bool {
	return len(r.TitlePrefixes) == 0 &&
		len(r.ContainsContents) == 0 &&
		len(r.AuthorIDs) == 0 &&
		r.CreatedFrom.IsZero() &&
		r.CreatedTo.IsZero()
}

// HasTimeRange reports whether either creation bound is set.
func (r Request) HasTimeRange() bool {
	return !r.CreatedFrom.IsZero() || !r.CreatedTo.IsZero()
}

// Matches reports whether doc satisfies every active criterion of r.
// Criteria are checked in declaration order and evaluation stops at the
// first one that fails.
func Matches(doc *core.Document, r Request) bool {
	if doc == nil {
		return false
	}
	if len(r.TitlePrefixes) > 0 && !anyPrefix(doc.Title, r.TitlePrefixes) {
		return false
	}
	if len(r.ContainsContents) > 0 && !anySubstring(doc.Content, r.ContainsContents) {
		return false
	}
	if len(r.AuthorIDs) > 0 && !slices.Contains(r.AuthorIDs, doc.Author.ID) {
		return false
	}
	if !r.CreatedFrom.IsZero() && doc.Created.Before(r.CreatedFrom) {
		return false
	}
	if !r.CreatedTo.IsZero() && doc.Created.After(r.CreatedTo) {
		return false
	}
	return true
}

// Filter returns the documents of docs that match r, keeping their order.
func Filter(docs []*core.Document, r Request) []*core.Document {
	out := make([]*core.Document, 0, len(docs))
	for _, doc := range docs {
		if Matches(doc, r) {
			out = append(out, doc)
		}
	}
	return out
}

// anyPrefix checks if s starts with at least one of prefixes (case-sensitive)
func anyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

// anySubstring checks if s contains at least one of subs (case-sensitive)
func anySubstring(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
