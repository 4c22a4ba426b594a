// Package docman is an in-process document repository.
//
// A Manager stores documents by identifier and offers three operations:
//
//	saved, err := m.Save(ctx, &core.Document{Title: "Title One", Author: core.Author{ID: "1"}})
//	doc, err := m.FindByID(ctx, saved.ID)
//	docs, err := m.Search(ctx, search.Request{TitlePrefixes: []string{"Title"}})
//
// Save is an upsert. Documents without an ID get one from the configured
// core.IDGenerator, and documents without a creation time, or with one in
// the future, are stamped with the current time. FindByID returns nil for
// an unknown ID. Search combines its criteria with AND; see package search.
//
// Documents live only as long as the Manager. There is no delete operation.
package docman
