/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package paginate

import (
	"context"
	"fmt"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/suparena/bookcatalog/cache"
	"github.com/suparena/bookcatalog/cursor"
	"github.com/suparena/bookcatalog/datastore"
	"github.com/suparena/bookcatalog/errors"
	"github.com/suparena/bookcatalog/metrics"
	"github.com/suparena/bookcatalog/storagemodels"
)

// Shape describes one kind of paginated read.
type Shape[T any] struct {
	// Name labels the shape in logs and metrics, e.g. "reviews.by_book".
	Name string
	// IndexName is empty for the base table.
	IndexName      string
	PartitionValue string
	// Scan reads the whole table instead of one partition.
	Scan        bool
	ScanForward bool
	// DefaultLimit applies when the request does not set a limit.
	DefaultLimit int
	// Order sorts each returned page. Scans have no store order, so the
	// sort is page-local only.
	Order func(a, b T) int
	// CacheKey derives the first-page cache key for a resolved limit.
	// A nil CacheKey or zero CacheTTL disables caching.
	CacheKey func(limit int) string
	CacheTTL time.Duration
}

func (s Shape[T]) cacheable() bool {
	return s.CacheKey != nil && s.CacheTTL > 0
}

// Engine runs paginated reads against one store.
type Engine[T any] struct {
	store   datastore.DataStore[T]
	cache   *cache.Layer
	logger  *zap.Logger
	metrics *metrics.Collector
}

// Option configures an Engine.
type Option func(*engineOptions)

type engineOptions struct {
	logger  *zap.Logger
	metrics *metrics.Collector
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(o *engineOptions) {
		o.logger = logger
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *metrics.Collector) Option {
	return func(o *engineOptions) {
		o.metrics = m
	}
}

// NewEngine creates an engine. layer may be nil to disable caching.
func NewEngine[T any](store datastore.DataStore[T], layer *cache.Layer, opts ...Option) *Engine[T] {
	o := engineOptions{logger: zap.NewNop(), metrics: metrics.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	return &Engine[T]{store: store, cache: layer, logger: o.logger, metrics: o.metrics}
}

// ResolveLimit applies the default for an unset limit and rejects limits
// outside [MinPageSize, MaxPageSize].
func ResolveLimit(requested, defaultLimit int) (int, error) {
	if requested == 0 {
		return defaultLimit, nil
	}
	if requested < storagemodels.MinPageSize || requested > storagemodels.MaxPageSize {
		return 0, errors.NewValidationError("limit",
			fmt.Sprintf("must be between %d and %d", storagemodels.MinPageSize, storagemodels.MaxPageSize))
	}
	return requested, nil
}

// Paginate reads one page. The first page of a cacheable shape is served
// from the cache when present and stored after a successful read; pages
// requested with a cursor always go to the store.
func (e *Engine[T]) Paginate(ctx context.Context, shape Shape[T], req storagemodels.PageRequest) (*storagemodels.Envelope[T], error) {
	limit, err := ResolveLimit(req.Limit, shape.DefaultLimit)
	if err != nil {
		return nil, err
	}

	firstPage := req.Cursor == ""
	useCache := firstPage && shape.cacheable() && e.cache != nil
	var cacheKey string
	if useCache {
		cacheKey = shape.CacheKey(limit)
		var cached storagemodels.Envelope[T]
		if e.cache.Get(ctx, cacheKey, &cached) {
			e.metrics.PageReads.WithLabelValues(shape.Name, "cache").Inc()
			return storagemodels.NewEnvelope(cached.Items, cached.NextToken), nil
		}
	}

	var startKey map[string]any
	if !firstPage {
		if startKey, err = e.decodeCursor(shape, req.Cursor); err != nil {
			return nil, err
		}
	}

	page, err := e.read(ctx, shape, int32(limit), startKey)
	if err != nil {
		e.logger.Warn("paginated read failed", zap.String("shape", shape.Name), zap.Error(err))
		return nil, err
	}
	e.metrics.PageReads.WithLabelValues(shape.Name, "store").Inc()

	if shape.Order != nil {
		slices.SortStableFunc(page.Items, shape.Order)
	}

	token, err := cursor.Encode(page.LastEvaluatedKey)
	if err != nil {
		return nil, errors.NewStoreUnavailableError(shape.Name, "", err)
	}
	env := storagemodels.NewEnvelope(page.Items, token)

	if useCache {
		// Failure is logged by the layer; the read still succeeds.
		_ = e.cache.Set(ctx, cacheKey, env, shape.CacheTTL)
	}
	return env, nil
}

// decodeCursor accepts only tokens issued for the same index and, for
// partition queries, the same partition value.
func (e *Engine[T]) decodeCursor(shape Shape[T], token string) (map[string]any, error) {
	schema := e.store.Schema()
	attrs, err := schema.KeyAttributes(shape.IndexName)
	if err != nil {
		return nil, errors.NewValidationError("indexName", err.Error())
	}
	key, err := cursor.DecodeFor(token, attrs)
	if err != nil {
		return nil, err
	}
	if shape.Scan {
		return key, nil
	}
	idx, _ := schema.Index(shape.IndexName)
	if err := cursor.MatchesPartition(key, idx.PartitionKey, shape.PartitionValue); err != nil {
		return nil, err
	}
	return key, nil
}

func (e *Engine[T]) read(ctx context.Context, shape Shape[T], limit int32, startKey map[string]any) (*storagemodels.Page[T], error) {
	if shape.Scan {
		e.logger.Debug("falling back to table scan", zap.String("shape", shape.Name))
		return e.store.Scan(ctx, &storagemodels.ScanParams{
			Limit:             limit,
			ExclusiveStartKey: startKey,
		})
	}
	return e.store.Query(ctx, &storagemodels.QueryParams{
		IndexName:         shape.IndexName,
		PartitionValue:    shape.PartitionValue,
		Limit:             limit,
		ExclusiveStartKey: startKey,
		ScanForward:       shape.ScanForward,
	})
}
