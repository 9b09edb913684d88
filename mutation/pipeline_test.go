/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package mutation

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/suparena/bookcatalog/cache"
	"github.com/suparena/bookcatalog/errors"
	"github.com/suparena/bookcatalog/metrics"
)

func recordingSteps(trace *[]Stage, failAt Stage, failWith error) Steps[string] {
	step := func(s Stage) func(context.Context) error {
		return func(context.Context) error {
			*trace = append(*trace, s)
			if s == failAt {
				return failWith
			}
			return nil
		}
	}
	return Steps[string]{
		Validate:  step(StageValidating),
		Authorize: step(StageAuthorizing),
		Persist: func(ctx context.Context) (string, error) {
			*trace = append(*trace, StagePersisting)
			if failAt == StagePersisting {
				return "", failWith
			}
			return "saved", nil
		},
		Invalidate: func(result string) Invalidation {
			*trace = append(*trace, StageInvalidating)
			return Invalidation{Keys: []string{"books:" + result}}
		},
	}
}

func newLayer(t *testing.T) *cache.Layer {
	t.Helper()
	backend, err := cache.NewSturdycBackend(cache.SturdycConfig{Capacity: 100, NumShards: 2, TTL: time.Hour, EvictionPercentage: 10})
	require.NoError(t, err)
	return cache.NewLayer(backend)
}

func TestRunHappyPath(t *testing.T) {
	ctx := context.Background()
	layer := newLayer(t)
	require.NoError(t, layer.Set(ctx, "books:saved", 1, time.Minute))

	m := metrics.NewCollector("test", prometheus.NewRegistry())
	p := New(layer, WithLogger(zap.NewNop()), WithMetrics(m))

	var trace []Stage
	result, err := Run(ctx, p, "book.update", recordingSteps(&trace, "", nil))
	require.NoError(t, err)
	assert.Equal(t, "saved", result)
	assert.Equal(t, []Stage{StageValidating, StageAuthorizing, StagePersisting, StageInvalidating}, trace)

	var v int
	assert.False(t, layer.Get(ctx, "books:saved", &v), "persisted record should be evicted")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Mutations.WithLabelValues("book.update", "done")))
}

func TestRunStopsAtFailingStage(t *testing.T) {
	tests := []struct {
		failAt Stage
		err    error
		trace  []Stage
	}{
		{StageValidating, errors.NewValidationError("rating", "out of range"), []Stage{StageValidating}},
		{StageAuthorizing, errors.NewForbiddenError("Review", "r1", "u2"), []Stage{StageValidating, StageAuthorizing}},
		{StagePersisting, errors.NewStoreUnavailableError("put", "", stderrors.New("down")), []Stage{StageValidating, StageAuthorizing, StagePersisting}},
	}

	for _, tt := range tests {
		t.Run(string(tt.failAt), func(t *testing.T) {
			m := metrics.NewCollector("test", prometheus.NewRegistry())
			p := New(newLayer(t), WithMetrics(m))

			var trace []Stage
			_, err := Run(context.Background(), p, "review.update", recordingSteps(&trace, tt.failAt, tt.err))
			assert.Same(t, tt.err, err)
			assert.Equal(t, tt.trace, trace)
			assert.Equal(t, 1.0, testutil.ToFloat64(m.Mutations.WithLabelValues("review.update", string(tt.failAt))))
		})
	}
}

type failingBackend struct{ cache.NoopBackend }

func (failingBackend) Delete(context.Context, string) error { return stderrors.New("cache down") }

func TestInvalidationFailureDoesNotFailWrite(t *testing.T) {
	p := New(cache.NewLayer(failingBackend{}))

	var trace []Stage
	result, err := Run(context.Background(), p, "review.create", recordingSteps(&trace, "", nil))
	require.NoError(t, err)
	assert.Equal(t, "saved", result)
}

func TestRunWithoutCache(t *testing.T) {
	var trace []Stage
	_, err := Run(context.Background(), New(nil), "user.create", recordingSteps(&trace, "", nil))
	require.NoError(t, err)
	assert.NotContains(t, trace, StageInvalidating)
}

func TestAuthorize(t *testing.T) {
	assert.NoError(t, Authorize("Review", "b1/r1", "u1", "u1"))

	err := Authorize("Review", "b1/r1", "u1", "u2")
	assert.True(t, errors.IsForbidden(err))
	assert.Equal(t, errors.KindForbidden, errors.KindOf(err))
}
