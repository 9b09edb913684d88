/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package aggregate derives rating statistics from paginated reads.
package aggregate

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/suparena/bookcatalog/cache"
	"github.com/suparena/bookcatalog/paginate"
	"github.com/suparena/bookcatalog/storagemodels"
)

// DefaultTTL is how long computed statistics stay cached.
const DefaultTTL = time.Hour

// Stats summarizes the ratings of one partition.
type Stats struct {
	AverageRating float64 `json:"averageRating"`
	TotalReviews  int     `json:"totalReviews"`
}

// Summarize averages the ratings of items, rounded to one decimal place.
// No items yields zero values.
func Summarize[T any](items []T, rating func(T) float64) Stats {
	if len(items) == 0 {
		return Stats{}
	}
	var sum float64
	for _, item := range items {
		sum += rating(item)
	}
	avg := sum / float64(len(items))
	return Stats{
		AverageRating: math.Round(avg*10) / 10,
		TotalReviews:  len(items),
	}
}

// Engine computes statistics cache-first.
type Engine[T any] struct {
	pager  *paginate.Engine[T]
	cache  *cache.Layer
	rating func(T) float64
	ttl    time.Duration
	logger *zap.Logger
}

// Option configures an Engine.
type Option func(*engineOptions)

type engineOptions struct {
	ttl    time.Duration
	logger *zap.Logger
}

// WithTTL overrides DefaultTTL.
func WithTTL(ttl time.Duration) Option {
	return func(o *engineOptions) {
		o.ttl = ttl
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(o *engineOptions) {
		o.logger = logger
	}
}

// NewEngine creates an engine reading through pager. layer may be nil.
func NewEngine[T any](pager *paginate.Engine[T], layer *cache.Layer, rating func(T) float64, opts ...Option) *Engine[T] {
	o := engineOptions{ttl: DefaultTTL, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	return &Engine[T]{pager: pager, cache: layer, rating: rating, ttl: o.ttl, logger: o.logger}
}

// Stats returns the cached statistics under key, or computes them from the
// first page of shape at its default limit and caches the result. Only the
// first page contributes, so partitions larger than that page are
// summarized from a sample.
func (e *Engine[T]) Stats(ctx context.Context, key string, shape paginate.Shape[T]) (*Stats, error) {
	if e.cache != nil {
		var cached Stats
		if e.cache.Get(ctx, key, &cached) {
			return &cached, nil
		}
	}

	env, err := e.pager.Paginate(ctx, shape, storagemodels.PageRequest{})
	if err != nil {
		return nil, err
	}
	stats := Summarize(env.Items, e.rating)
	if env.NextToken != "" {
		e.logger.Debug("statistics computed from first page only",
			zap.String("shape", shape.Name), zap.Int("sampled", stats.TotalReviews))
	}

	if e.cache != nil {
		_ = e.cache.Set(ctx, key, stats, e.ttl)
	}
	return &stats, nil
}
