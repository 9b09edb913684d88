/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/bookcatalog/metrics"
)

type stats struct {
	AverageRating float64 `json:"averageRating"`
	TotalReviews  int     `json:"totalReviews"`
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func newMemoryLayer(t *testing.T, clock *fakeClock) (*Layer, *metrics.Collector) {
	t.Helper()
	backend, err := NewSturdycBackend(SturdycConfig{Capacity: 1000, NumShards: 4, TTL: time.Hour, EvictionPercentage: 10}, WithClock(clock.now))
	require.NoError(t, err)
	m := metrics.NewCollector("test", prometheus.NewRegistry())
	return NewLayer(backend, WithMetrics(m)), m
}

func TestLayerGetSet(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	layer, m := newMemoryLayer(t, clock)

	var got stats
	assert.False(t, layer.Get(ctx, "reviews:stats:b1", &got))

	require.NoError(t, layer.Set(ctx, "reviews:stats:b1", stats{AverageRating: 4.5, TotalReviews: 2}, 10*time.Minute))
	require.True(t, layer.Get(ctx, "reviews:stats:b1", &got))
	assert.Equal(t, stats{AverageRating: 4.5, TotalReviews: 2}, got)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheHits.WithLabelValues("reviews")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheMisses.WithLabelValues("reviews")))
}

func TestSturdycHonoursPerEntryTTL(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	layer, _ := newMemoryLayer(t, clock)

	require.NoError(t, layer.Set(ctx, "books:search:limit=10", []string{"a"}, 5*time.Minute))
	require.NoError(t, layer.Set(ctx, "books:42", "dune", 10*time.Minute))

	clock.t = clock.t.Add(6 * time.Minute)
	var v any
	assert.False(t, layer.Get(ctx, "books:search:limit=10", &v))
	assert.True(t, layer.Get(ctx, "books:42", &v))
}

func TestDeleteByPrefix(t *testing.T) {
	ctx := context.Background()
	layer, _ := newMemoryLayer(t, &fakeClock{t: time.Now()})

	for _, k := range []string{"reviews:book:b1:limit=10", "reviews:book:b1:limit=20", "reviews:book:b2:limit=10"} {
		require.NoError(t, layer.Set(ctx, k, 1, time.Minute))
	}

	n, err := layer.DeleteByPrefix(ctx, "reviews:book:b1:*")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	var v int
	assert.False(t, layer.Get(ctx, "reviews:book:b1:limit=10", &v))
	assert.True(t, layer.Get(ctx, "reviews:book:b2:limit=10", &v))
}

func TestNoopBackendDegradesPrefixDeletion(t *testing.T) {
	ctx := context.Background()
	m := metrics.NewCollector("test", prometheus.NewRegistry())
	layer := NewLayer(NewNoopBackend(), WithMetrics(m))

	assert.False(t, layer.SupportsPrefixScan())
	n, err := layer.DeleteByPrefix(ctx, "reviews:book:b1:*")
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Invalidations.WithLabelValues("unsupported")))

	require.NoError(t, layer.Set(ctx, "k", 1, time.Minute))
	var v int
	assert.False(t, layer.Get(ctx, "k", &v))
}

type brokenBackend struct {
	NoopBackend
	err error
}

func (b brokenBackend) Get(context.Context, string) ([]byte, bool, error) { return nil, false, b.err }
func (b brokenBackend) Delete(context.Context, string) error              { return b.err }

func TestBackendFailuresAreContained(t *testing.T) {
	ctx := context.Background()
	m := metrics.NewCollector("test", prometheus.NewRegistry())
	layer := NewLayer(brokenBackend{err: errors.New("connection refused")}, WithMetrics(m))

	var v int
	assert.False(t, layer.Get(ctx, "books:1", &v))

	assert.NotPanics(t, func() {
		layer.Invalidate(ctx, []string{"books:1", "reviews:stats:1"}, []string{"books:list:*"})
	})
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Invalidations.WithLabelValues("failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Invalidations.WithLabelValues("unsupported")))
}

func TestUndecodableEntryIsAMiss(t *testing.T) {
	ctx := context.Background()
	layer, _ := newMemoryLayer(t, &fakeClock{t: time.Now()})

	require.NoError(t, layer.Set(ctx, "books:1", "not a struct", time.Minute))
	var s stats
	assert.False(t, layer.Get(ctx, "books:1", &s))
}

func TestNewBackend(t *testing.T) {
	b, err := NewBackend(DefaultConfig())
	require.NoError(t, err)
	assert.True(t, b.SupportsPrefixScan())

	b, err = NewBackend(Config{Kind: KindNone})
	require.NoError(t, err)
	assert.False(t, b.SupportsPrefixScan())

	_, err = NewBackend(Config{Kind: KindRedis})
	var cfgErr *ConfigError
	assert.ErrorAs(t, err, &cfgErr)

	_, err = NewBackend(Config{Kind: "memcached"})
	assert.ErrorAs(t, err, &cfgErr)

	_, err = NewBackend(Config{Kind: KindMemory, Memory: SturdycConfig{Capacity: 0}})
	assert.ErrorAs(t, err, &cfgErr)
}
