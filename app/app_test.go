/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/bookcatalog/activitylog"
	"github.com/suparena/bookcatalog/books"
	"github.com/suparena/bookcatalog/config"
	"github.com/suparena/bookcatalog/datastore/mock"
	"github.com/suparena/bookcatalog/reviews"
	"github.com/suparena/bookcatalog/users"
)

func openTestApp(t *testing.T) (*App, *mock.DataStore[activitylog.Entry]) {
	t.Helper()
	cfg := config.Default()
	cfg.Database.DSN = filepath.Join(t.TempDir(), "catalog.db")

	activity := mock.New[activitylog.Entry]()
	a, err := Open(context.Background(), cfg,
		WithReviewStore(mock.New[reviews.Review]()),
		WithActivityStore(activity))
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a, activity
}

func TestOpenWiresServices(t *testing.T) {
	a, activity := openTestApp(t)
	ctx := context.Background()

	publisher, err := a.Users.Create(ctx, users.CreateUserInput{Email: "pub@example.com", Password: "password1", Name: "Pub"})
	require.NoError(t, err)
	reader, err := a.Users.Create(ctx, users.CreateUserInput{Email: "reader@example.com", Password: "password1", Name: "Reader"})
	require.NoError(t, err)

	book, err := a.Books.Create(ctx, publisher.ID, books.CreateBookInput{Title: "Dune", Author: "Frank Herbert"})
	require.NoError(t, err)
	assert.Equal(t, 1, activity.Count())

	_, err = a.Reviews.AddReview(ctx, reader.ID, reviews.CreateReviewInput{BookID: book.ID, Rating: 4})
	require.NoError(t, err)

	details, err := a.Books.FindOne(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, details.Count)

	stats, err := a.Reviews.GetBookStats(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, 4.0, stats.AverageRating)

	families, err := a.Registry.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestCloseIsIdempotent(t *testing.T) {
	a, _ := openTestApp(t)
	require.NoError(t, a.Close())
	require.NoError(t, a.Close())
}

func TestOpenRejectsUnknownCache(t *testing.T) {
	cfg := config.Default()
	cfg.Database.DSN = filepath.Join(t.TempDir(), "catalog.db")
	cfg.Cache.Kind = "memcached"

	_, err := Open(context.Background(), cfg,
		WithReviewStore(mock.New[reviews.Review]()),
		WithActivityStore(mock.New[activitylog.Entry]()))
	assert.Error(t, err)
}
