/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package books

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/bookcatalog/activitylog"
	"github.com/suparena/bookcatalog/cache"
	"github.com/suparena/bookcatalog/datastore/mock"
	"github.com/suparena/bookcatalog/errors"
	"github.com/suparena/bookcatalog/reviews"
	"github.com/suparena/bookcatalog/storagemodels"
)

type fixture struct {
	repo      *BunRepository
	layer     *cache.Layer
	reviews   *reviews.Service
	activity  *mock.DataStore[activitylog.Entry]
	svc       *Service
	clock     time.Time
	reviewsDB *mock.DataStore[reviews.Review]
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := OpenDB(DriverSQLite, filepath.Join(t.TempDir(), "books.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repo := NewBunRepository(db)
	require.NoError(t, repo.Init(context.Background()))

	backend, err := cache.NewSturdycBackend(cache.SturdycConfig{Capacity: 100, NumShards: 2, TTL: time.Hour, EvictionPercentage: 10})
	require.NoError(t, err)

	f := &fixture{
		repo:      repo,
		layer:     cache.NewLayer(backend),
		activity:  mock.New[activitylog.Entry](),
		reviewsDB: mock.New[reviews.Review](),
		clock:     time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC),
	}
	f.reviews = reviews.NewService(f.reviewsDB, f.layer)
	f.svc = NewService(repo, f.reviews, activitylog.NewService(f.activity), f.layer, WithClock(func() time.Time {
		f.clock = f.clock.Add(24 * time.Hour)
		return f.clock
	}))
	return f
}

func (f *fixture) create(t *testing.T, user, title, author string) *Book {
	t.Helper()
	b, err := f.svc.Create(context.Background(), user, CreateBookInput{Title: title, Author: author})
	require.NoError(t, err)
	return b
}

func TestCreateAndFindOne(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	b := f.create(t, "pub1", "Dune", "Frank Herbert")
	assert.NotEmpty(t, b.ID)
	assert.Equal(t, "pub1", b.Publisher)
	assert.Equal(t, time.Date(2025, 1, 2, 9, 0, 0, 0, time.UTC), b.PublicationDate)
	assert.Equal(t, 1, f.activity.Count())

	_, err := f.reviews.AddReview(ctx, "u1", reviews.CreateReviewInput{BookID: b.ID, Rating: 5})
	require.NoError(t, err)

	details, err := f.svc.FindOne(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "Dune", details.Title)
	assert.Equal(t, 1, details.Count)
	require.Len(t, details.Items, 1)
	assert.Equal(t, "u1", details.Items[0].UserID)

	var cached Details
	assert.True(t, f.layer.Get(ctx, DetailsKey(b.ID), &cached))
	assert.Equal(t, b.ID, cached.ID)
}

func TestFindOneNotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.FindOne(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
	assert.Equal(t, 404, errors.StatusCode(err))
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, "pub1", CreateBookInput{Author: "x"})
	assert.True(t, errors.IsValidationError(err))

	_, err = f.svc.Create(ctx, "", CreateBookInput{Title: "t", Author: "a"})
	assert.True(t, errors.IsValidationError(err))
	assert.Equal(t, 0, f.activity.Count())
}

func TestUpdate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.create(t, "pub1", "Dune", "Frank Herbert")

	_, err := f.svc.FindOne(ctx, b.ID)
	require.NoError(t, err)

	title := "Dune Messiah"
	date := "1969-10-15"
	updated, err := f.svc.Update(ctx, "pub1", b.ID, UpdateBookInput{Title: &title, PublicationDate: &date})
	require.NoError(t, err)
	assert.Equal(t, "Dune Messiah", updated.Title)
	assert.Equal(t, "Frank Herbert", updated.Author)
	assert.Equal(t, time.Date(1969, 10, 15, 0, 0, 0, 0, time.UTC), updated.PublicationDate)

	var cached Details
	assert.False(t, f.layer.Get(ctx, DetailsKey(b.ID), &cached), "update must drop the cached read")

	details, err := f.svc.FindOne(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "Dune Messiah", details.Title)

	bad := "yesterday"
	_, err = f.svc.Update(ctx, "pub1", b.ID, UpdateBookInput{PublicationDate: &bad})
	assert.True(t, errors.IsValidationError(err))
}

func TestUpdateAndRemoveOwnership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.create(t, "pub1", "Dune", "Frank Herbert")

	title := "Stolen"
	_, err := f.svc.Update(ctx, "pub2", b.ID, UpdateBookInput{Title: &title})
	assert.True(t, errors.IsForbidden(err))

	err = f.svc.Remove(ctx, "pub2", b.ID)
	assert.True(t, errors.IsForbidden(err))

	stored, err := f.repo.FindByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "Dune", stored.Title)

	_, err = f.svc.Update(ctx, "pub1", "missing", UpdateBookInput{Title: &title})
	assert.True(t, errors.IsNotFound(err))
}

func TestRemove(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.create(t, "pub1", "Dune", "Frank Herbert")

	require.NoError(t, f.svc.Remove(ctx, "pub1", b.ID))
	_, err := f.svc.FindOne(ctx, b.ID)
	assert.True(t, errors.IsNotFound(err))

	logs, err := activitylog.NewService(f.activity).GetActivityLogsByAction(ctx, activitylog.ActionDeleteBook, storagemodels.PageRequest{})
	require.NoError(t, err)
	require.Equal(t, 1, logs.Count)
	assert.Equal(t, fmt.Sprintf("Deleted book: %s - Dune", b.ID), logs.Items[0].Details)
}

func TestActivityFailureDoesNotFailWrite(t *testing.T) {
	f := newFixture(t)
	f.activity.WithPutError(errors.NewStoreUnavailableError("PutItem", "", assert.AnError))

	b := f.create(t, "pub1", "Dune", "Frank Herbert")
	_, err := f.repo.FindByID(context.Background(), b.ID)
	assert.NoError(t, err)
}

func TestSearch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.create(t, "pub1", "The Hobbit", "J.R.R. Tolkien")       // 2025-01-02
	f.create(t, "pub1", "Dune", "Frank Herbert")              // 2025-01-03
	f.create(t, "pub2", "The Silmarillion", "J.R.R. Tolkien") // 2025-01-04
	f.create(t, "pub2", "Children of Dune", "Frank Herbert")  // 2025-01-05

	tests := []struct {
		name   string
		params SearchParams
		titles []string
		total  int
	}{
		{
			name:   "title contains, case-insensitive",
			params: SearchParams{Title: "dune", SortBy: "title"},
			titles: []string{"Children of Dune", "Dune"},
			total:  2,
		},
		{
			name:   "author contains, sorted descending",
			params: SearchParams{Author: "tolkien", SortBy: "title", SortOrder: SortDesc},
			titles: []string{"The Silmarillion", "The Hobbit"},
			total:  2,
		},
		{
			name:   "date range",
			params: SearchParams{FromDate: "2025-01-03", ToDate: "2025-01-04T23:59:59Z", SortBy: "publicationDate"},
			titles: []string{"Dune", "The Silmarillion"},
			total:  2,
		},
		{
			name:   "second page",
			params: SearchParams{Page: 2, Limit: 3, SortBy: "publicationDate"},
			titles: []string{"Children of Dune"},
			total:  4,
		},
		{
			name:   "literal wildcard does not match everything",
			params: SearchParams{Title: "%"},
			titles: []string{},
			total:  0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := f.svc.Search(ctx, tt.params)
			require.NoError(t, err)
			titles := make([]string, 0, len(res.Items))
			for _, b := range res.Items {
				titles = append(titles, b.Title)
			}
			assert.Equal(t, tt.titles, titles)
			assert.Equal(t, tt.total, res.Total)
		})
	}
}

func TestSearchDefaultsAndBounds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.create(t, "pub1", "Dune", "Frank Herbert")

	res, err := f.svc.Search(ctx, SearchParams{SortBy: "no_such_column"})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Page)
	assert.Equal(t, DefaultSearchSize, res.Limit)
	assert.Equal(t, 1, res.TotalPages)

	for _, p := range []SearchParams{
		{Page: -1},
		{Limit: 101},
		{Limit: -5},
		{SortOrder: "sideways"},
		{FromDate: "not a date"},
	} {
		_, err := f.svc.Search(ctx, p)
		assert.Equal(t, errors.KindInvalidArgument, errors.KindOf(err), "%+v", p)
	}
}

func TestSearchCachedUntilWrite(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.create(t, "pub1", "Dune", "Frank Herbert")

	res, err := f.svc.Search(ctx, SearchParams{})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Total)

	var cached SearchResult
	require.True(t, f.layer.Get(ctx, SearchKey(SearchParams{Page: 1, Limit: DefaultSearchSize}), &cached))

	f.create(t, "pub1", "Emma", "Jane Austen")
	assert.False(t, f.layer.Get(ctx, SearchKey(SearchParams{Page: 1, Limit: DefaultSearchSize}), &cached))

	res, err = f.svc.Search(ctx, SearchParams{})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Total)
}
