/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package datastore

import (
	"context"
	"fmt"
	"time"

	"github.com/suparena/bookcatalog/errors"
	"github.com/suparena/bookcatalog/storagemodels"
)

// Stream reads every page of a query, following LastEvaluatedKey until the
// partition is exhausted. The channel closes when the read completes, fails
// or ctx is cancelled; a failure is delivered as a final result with Error set.
func Stream[T any](ctx context.Context, store DataStore[T], params storagemodels.QueryParams, opts ...storagemodels.StreamOption) <-chan storagemodels.StreamResult[T] {
	options := storagemodels.DefaultStreamOptions()
	for _, opt := range opts {
		opt(&options)
	}

	resultCh := make(chan storagemodels.StreamResult[T], options.BufferSize)
	go streamWorker(ctx, store, params, options, resultCh)
	return resultCh
}

func streamWorker[T any](
	ctx context.Context,
	store DataStore[T],
	params storagemodels.QueryParams,
	options storagemodels.StreamOptions,
	resultCh chan<- storagemodels.StreamResult[T],
) {
	defer close(resultCh)

	var itemIndex int64
	var pageNumber int

	reportProgress := func(lastKey map[string]any) {
		if options.ProgressHandler != nil {
			options.ProgressHandler(storagemodels.StreamProgress{
				ItemsProcessed: itemIndex,
				PagesProcessed: pageNumber,
				LastKey:        lastKey,
			})
		}
	}

	params.Limit = options.PageSize
	for {
		if ctx.Err() != nil {
			return
		}

		page, err := queryWithRetry(ctx, store, &params, options)
		if err != nil {
			select {
			case <-ctx.Done():
			case resultCh <- storagemodels.StreamResult[T]{
				Error: err,
				Meta:  storagemodels.StreamMeta{Index: itemIndex, PageNumber: pageNumber},
			}:
			}
			return
		}
		pageNumber++

		for _, item := range page.Items {
			select {
			case <-ctx.Done():
				return
			case resultCh <- storagemodels.StreamResult[T]{
				Item: item,
				Meta: storagemodels.StreamMeta{Index: itemIndex, PageNumber: pageNumber},
			}:
				itemIndex++
			}
		}

		reportProgress(page.LastEvaluatedKey)
		if !page.HasMore() {
			return
		}
		params.ExclusiveStartKey = page.LastEvaluatedKey
	}
}

// queryWithRetry retries reads that failed with StoreUnavailable. Other
// kinds are returned immediately.
func queryWithRetry[T any](
	ctx context.Context,
	store DataStore[T],
	params *storagemodels.QueryParams,
	options storagemodels.StreamOptions,
) (*storagemodels.Page[T], error) {
	var lastErr error

	for attempt := 0; attempt <= options.MaxRetries; attempt++ {
		page, err := store.Query(ctx, params)
		if err == nil {
			return page, nil
		}
		lastErr = err

		if !errors.IsStoreUnavailable(err) {
			return nil, err
		}

		if attempt < options.MaxRetries {
			backoff := time.Duration(attempt+1) * options.RetryBackoff
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}
	}

	return nil, fmt.Errorf("query failed after %d retries: %w", options.MaxRetries, lastErr)
}

// Collect drains a stream into a slice, returning the first error.
func Collect[T any](results <-chan storagemodels.StreamResult[T]) ([]T, error) {
	var items []T
	for r := range results {
		if r.Error != nil {
			return items, r.Error
		}
		items = append(items, r.Item)
	}
	return items, nil
}
