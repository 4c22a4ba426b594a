// Package storagetest provides a conformance suite for storage.DocumentRepository
// implementations.
package storagetest

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/poiesic/docman/core"
	"github.com/poiesic/docman/search"
	"github.com/poiesic/docman/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Factory builds an empty repository that reads the current time from now.
// The factory is responsible for registering cleanup with t.
type Factory func(t *testing.T, now core.Clock) storage.DocumentRepository

// Clock is a settable core.Clock for tests.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock creates a Clock pinned at now.
func NewClock(now time.Time) *Clock {
	return &Clock{now: now}
}

// Now returns the pinned time.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Set moves the clock to now.
func (c *Clock) Set(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

// Base is the instant test clocks start at.
var Base = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

var author = core.Author{ID: "1", Name: "Author Name"}

// Run executes the conformance suite against repositories built by factory.
func Run(t *testing.T, factory Factory) {
	tests := []struct {
		name string
		fn   func(t *testing.T, factory Factory)
	}{
		{"SaveAssignsID", testSaveAssignsID},
		{"SaveAssignsUniqueIDs", testSaveAssignsUniqueIDs},
		{"SaveKeepsGivenID", testSaveKeepsGivenID},
		{"SaveUpserts", testSaveUpserts},
		{"SaveSetsMissingTimestamp", testSaveSetsMissingTimestamp},
		{"SaveClampsFutureTimestamp", testSaveClampsFutureTimestamp},
		{"SaveKeepsPastTimestamp", testSaveKeepsPastTimestamp},
		{"SaveRejectsNil", testSaveRejectsNil},
		{"SaveCopiesInput", testSaveCopiesInput},
		{"FindByIDMissing", testFindByIDMissing},
		{"FindByIDReturnsCopy", testFindByIDReturnsCopy},
		{"SearchByTitlePrefix", testSearchByTitlePrefix},
		{"SearchByContent", testSearchByContent},
		{"SearchByAuthor", testSearchByAuthor},
		{"SearchByDateRange", testSearchByDateRange},
		{"DistantTimestamps", testDistantTimestamps},
		{"SearchCombinesCriteria", testSearchCombinesCriteria},
		{"SearchEmptyRequest", testSearchEmptyRequest},
		{"SearchIdempotent", testSearchIdempotent},
		{"ConcurrentSaves", testConcurrentSaves},
		{"Closed", testClosed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.fn(t, factory)
		})
	}
}

func ids(docs []*core.Document) []string {
	out := make([]string, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.ID)
	}
	return out
}

func testSaveAssignsID(t *testing.T, factory Factory) {
	repo := factory(t, NewClock(Base).Now)
	ctx := context.Background()

	saved, err := repo.Save(ctx, &core.Document{Title: "Test Title", Content: "Test Content", Author: author})
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.NotEmpty(t, saved.ID)
	assert.False(t, saved.Created.IsZero())

	found, err := repo.FindByID(ctx, saved.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, saved, found)
}

func testSaveAssignsUniqueIDs(t *testing.T, factory Factory) {
	repo := factory(t, NewClock(Base).Now)
	ctx := context.Background()

	seen := make(map[string]bool)
	for i := range 50 {
		saved, err := repo.Save(ctx, &core.Document{Title: fmt.Sprintf("doc %d", i)})
		require.NoError(t, err)
		require.False(t, seen[saved.ID], "id %q assigned twice", saved.ID)
		seen[saved.ID] = true
	}

	all, err := repo.Search(ctx, search.Request{})
	require.NoError(t, err)
	assert.Len(t, all, 50)
}

func testSaveKeepsGivenID(t *testing.T, factory Factory) {
	repo := factory(t, NewClock(Base).Now)
	ctx := context.Background()

	saved, err := repo.Save(ctx, &core.Document{ID: "custom-id", Title: "Custom"})
	require.NoError(t, err)
	assert.Equal(t, "custom-id", saved.ID)

	found, err := repo.FindByID(ctx, "custom-id")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "Custom", found.Title)
}

func testSaveUpserts(t *testing.T, factory Factory) {
	repo := factory(t, NewClock(Base).Now)
	ctx := context.Background()

	first, err := repo.Save(ctx, &core.Document{Title: "Version One", Content: "first", Author: author})
	require.NoError(t, err)

	second, err := repo.Save(ctx, &core.Document{
		ID:      first.ID,
		Title:   "Version Two",
		Content: "second",
		Author:  core.Author{ID: "2", Name: "Other"},
	})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	found, err := repo.FindByID(ctx, first.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, second, found)

	all, err := repo.Search(ctx, search.Request{})
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Version Two", all[0].Title)

	stale, err := repo.Search(ctx, search.Request{AuthorIDs: []string{author.ID}})
	require.NoError(t, err)
	assert.Empty(t, stale, "the replaced version must not be searchable")
}

func testSaveSetsMissingTimestamp(t *testing.T, factory Factory) {
	repo := factory(t, core.SystemClock)
	ctx := context.Background()

	before := time.Now()
	saved, err := repo.Save(ctx, &core.Document{Title: "Untimed"})
	after := time.Now()
	require.NoError(t, err)

	assert.False(t, saved.Created.Before(before), "created %v is before %v", saved.Created, before)
	assert.False(t, saved.Created.After(after), "created %v is after %v", saved.Created, after)
}

func testSaveClampsFutureTimestamp(t *testing.T, factory Factory) {
	clock := NewClock(Base)
	repo := factory(t, clock.Now)

	saved, err := repo.Save(context.Background(), &core.Document{Title: "Future", Created: Base.Add(time.Hour)})
	require.NoError(t, err)
	assert.True(t, saved.Created.Equal(Base), "future timestamp must become now, got %v", saved.Created)
}

func testSaveKeepsPastTimestamp(t *testing.T, factory Factory) {
	clock := NewClock(Base)
	repo := factory(t, clock.Now)
	past := Base.Add(-time.Hour).Add(123 * time.Nanosecond)

	saved, err := repo.Save(context.Background(), &core.Document{Title: "Past", Created: past})
	require.NoError(t, err)
	assert.True(t, saved.Created.Equal(past), "past timestamp must be kept, got %v", saved.Created)

	found, err := repo.FindByID(context.Background(), saved.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.True(t, found.Created.Equal(past))
}

func testSaveRejectsNil(t *testing.T, factory Factory) {
	repo := factory(t, NewClock(Base).Now)

	saved, err := repo.Save(context.Background(), nil)
	assert.ErrorIs(t, err, core.ErrInvalidDocument)
	assert.Nil(t, saved)
}

func testSaveCopiesInput(t *testing.T, factory Factory) {
	repo := factory(t, NewClock(Base).Now)
	ctx := context.Background()

	input := &core.Document{Title: "Original", Author: author}
	saved, err := repo.Save(ctx, input)
	require.NoError(t, err)
	assert.Empty(t, input.ID, "the caller's document must not be modified")

	input.Title = "mutated input"
	saved.Title = "mutated result"
	saved.Author.Name = "mutated author"

	found, err := repo.FindByID(ctx, saved.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "Original", found.Title)
	assert.Equal(t, author, found.Author)
}

func testFindByIDMissing(t *testing.T, factory Factory) {
	repo := factory(t, NewClock(Base).Now)
	ctx := context.Background()

	_, err := repo.Save(ctx, &core.Document{ID: "12", Title: "Twelve"})
	require.NoError(t, err)

	for _, id := range []string{"nonexistent", "1", "123", ""} {
		found, err := repo.FindByID(ctx, id)
		require.NoError(t, err, "a missing id is not an error")
		assert.Nil(t, found, "id %q", id)
	}
}

func testFindByIDReturnsCopy(t *testing.T, factory Factory) {
	repo := factory(t, NewClock(Base).Now)
	ctx := context.Background()

	saved, err := repo.Save(ctx, &core.Document{Title: "Stable"})
	require.NoError(t, err)

	found, err := repo.FindByID(ctx, saved.ID)
	require.NoError(t, err)
	found.Title = "changed"

	again, err := repo.FindByID(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, "Stable", again.Title)
}

func saveTwo(t *testing.T, repo storage.DocumentRepository) (*core.Document, *core.Document) {
	ctx := context.Background()
	one, err := repo.Save(ctx, &core.Document{
		Title:   "Title One",
		Content: "Content One",
		Author:  core.Author{ID: "1", Name: "Author One"},
	})
	require.NoError(t, err)
	two, err := repo.Save(ctx, &core.Document{
		Title:   "Another Title",
		Content: "Content Two",
		Author:  core.Author{ID: "2", Name: "Author Two"},
	})
	require.NoError(t, err)
	return one, two
}

func testSearchByTitlePrefix(t *testing.T, factory Factory) {
	repo := factory(t, NewClock(Base).Now)
	one, _ := saveTwo(t, repo)

	results, err := repo.Search(context.Background(), search.Request{TitlePrefixes: []string{"Title"}})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, one, results[0])
}

func testSearchByContent(t *testing.T, factory Factory) {
	repo := factory(t, NewClock(Base).Now)
	_, two := saveTwo(t, repo)

	results, err := repo.Search(context.Background(), search.Request{ContainsContents: []string{"Content Two"}})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, two, results[0])
}

func testSearchByAuthor(t *testing.T, factory Factory) {
	repo := factory(t, NewClock(Base).Now)
	one, _ := saveTwo(t, repo)

	results, err := repo.Search(context.Background(), search.Request{AuthorIDs: []string{"1"}})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, one, results[0])

	results, err = repo.Search(context.Background(), search.Request{AuthorIDs: []string{"1", "2"}})
	require.NoError(t, err)
	assert.Len(t, results, 2)

	results, err = repo.Search(context.Background(), search.Request{AuthorIDs: []string{"3"}})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func testSearchByDateRange(t *testing.T, factory Factory) {
	clock := NewClock(Base)
	repo := factory(t, clock.Now)
	ctx := context.Background()

	past, err := repo.Save(ctx, &core.Document{Title: "Title One", Created: Base.Add(-time.Hour)})
	require.NoError(t, err)
	future, err := repo.Save(ctx, &core.Document{Title: "Another Title", Created: Base.Add(time.Hour)})
	require.NoError(t, err)
	require.True(t, future.Created.Equal(Base), "a future timestamp is clamped to the save time")

	// Both documents fall inside [now-2h, now]: the clamped one sits on the
	// inclusive upper bound.
	results, err := repo.Search(ctx, search.Request{
		CreatedFrom: Base.Add(-2 * time.Hour),
		CreatedTo:   Base,
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{past.ID, future.ID}, ids(results))

	// An upper bound strictly before the save time excludes the clamped document.
	results, err = repo.Search(ctx, search.Request{
		CreatedFrom: Base.Add(-2 * time.Hour),
		CreatedTo:   Base.Add(-time.Nanosecond),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{past.ID}, ids(results))

	// Inclusive lower bound.
	results, err = repo.Search(ctx, search.Request{CreatedFrom: Base.Add(-time.Hour)})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{past.ID, future.ID}, ids(results))

	results, err = repo.Search(ctx, search.Request{CreatedFrom: Base.Add(-time.Hour).Add(time.Nanosecond)})
	require.NoError(t, err)
	assert.Equal(t, []string{future.ID}, ids(results))

	// Inverted range.
	results, err = repo.Search(ctx, search.Request{CreatedFrom: Base, CreatedTo: Base.Add(-time.Hour)})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func testDistantTimestamps(t *testing.T, factory Factory) {
	clock := NewClock(Base)
	repo := factory(t, clock.Now)
	ctx := context.Background()
	year1500 := time.Date(1500, 1, 1, 12, 30, 0, 987654321, time.UTC)

	old, err := repo.Save(ctx, &core.Document{ID: "old", Title: "Old", Created: year1500})
	require.NoError(t, err)
	recent, err := repo.Save(ctx, &core.Document{ID: "recent", Title: "Recent"})
	require.NoError(t, err)

	found, err := repo.FindByID(ctx, old.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, year1500, found.Created)

	tests := []struct {
		name string
		req  search.Request
		want []string
	}{
		{
			name: "upper bound in year 3000",
			req:  search.Request{CreatedTo: time.Date(3000, 1, 1, 0, 0, 0, 0, time.UTC)},
			want: []string{old.ID, recent.ID},
		},
		{
			name: "lower bound in year 1000",
			req:  search.Request{CreatedFrom: time.Date(1000, 1, 1, 0, 0, 0, 0, time.UTC)},
			want: []string{old.ID, recent.ID},
		},
		{
			name: "range from year 1000 to 3000",
			req: search.Request{
				CreatedFrom: time.Date(1000, 1, 1, 0, 0, 0, 0, time.UTC),
				CreatedTo:   time.Date(3000, 1, 1, 0, 0, 0, 0, time.UTC),
			},
			want: []string{old.ID, recent.ID},
		},
		{
			name: "upper bound on the old instant",
			req:  search.Request{CreatedTo: year1500},
			want: []string{old.ID},
		},
		{
			name: "upper bound just before the old instant",
			req:  search.Request{CreatedTo: year1500.Add(-time.Nanosecond)},
			want: []string{},
		},
		{
			name: "lower bound just after the old instant",
			req:  search.Request{CreatedFrom: year1500.Add(time.Nanosecond)},
			want: []string{recent.ID},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, err := repo.Search(ctx, tt.req)
			require.NoError(t, err)
			assert.ElementsMatch(t, tt.want, ids(results))
		})
	}
}

func testSearchCombinesCriteria(t *testing.T, factory Factory) {
	clock := NewClock(Base)
	repo := factory(t, clock.Now)
	ctx := context.Background()
	one, two := saveTwo(t, repo)

	results, err := repo.Search(ctx, search.Request{
		TitlePrefixes:    []string{"Title", "Another"},
		ContainsContents: []string{"Content"},
		AuthorIDs:        []string{"2"},
		CreatedFrom:      Base.Add(-time.Minute),
		CreatedTo:        Base,
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, two, results[0])

	results, err = repo.Search(ctx, search.Request{
		TitlePrefixes: []string{"Title"},
		AuthorIDs:     []string{one.Author.ID},
		CreatedTo:     Base.Add(-time.Minute),
	})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func testSearchEmptyRequest(t *testing.T, factory Factory) {
	repo := factory(t, NewClock(Base).Now)
	ctx := context.Background()

	results, err := repo.Search(ctx, search.Request{})
	require.NoError(t, err)
	assert.Empty(t, results)

	one, two := saveTwo(t, repo)
	results, err = repo.Search(ctx, search.Request{})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{one.ID, two.ID}, ids(results))
}

func testSearchIdempotent(t *testing.T, factory Factory) {
	repo := factory(t, NewClock(Base).Now)
	ctx := context.Background()
	saveTwo(t, repo)

	req := search.Request{ContainsContents: []string{"Content"}}
	first, err := repo.Search(ctx, req)
	require.NoError(t, err)
	second, err := repo.Search(ctx, req)
	require.NoError(t, err)
	assert.ElementsMatch(t, first, second)
}

func testConcurrentSaves(t *testing.T, factory Factory) {
	repo := factory(t, NewClock(Base).Now)
	ctx := context.Background()

	const workers, perWorker = 4, 25
	var wg sync.WaitGroup
	for w := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range perWorker {
				_, err := repo.Save(ctx, &core.Document{Title: fmt.Sprintf("w%d-%d", w, i)})
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	all, err := repo.Search(ctx, search.Request{})
	require.NoError(t, err)
	assert.Len(t, all, workers*perWorker, "every concurrent save must get its own id")
}

func testClosed(t *testing.T, factory Factory) {
	repo := factory(t, NewClock(Base).Now)
	ctx := context.Background()
	require.NoError(t, repo.Close())

	_, err := repo.Save(ctx, &core.Document{Title: "late"})
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
	_, err = repo.FindByID(ctx, "1")
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
	_, err = repo.Search(ctx, search.Request{})
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
}
