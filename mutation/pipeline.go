/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package mutation runs writes through a fixed sequence of stages:
// validating, authorizing, persisting, invalidating. A failing stage stops
// the write. Invalidation runs only after a successful persist and never
// fails the write.
package mutation

import (
	"context"

	"go.uber.org/zap"

	"github.com/suparena/bookcatalog/cache"
	"github.com/suparena/bookcatalog/errors"
	"github.com/suparena/bookcatalog/metrics"
)

// Stage names a step of the pipeline.
type Stage string

const (
	StageValidating   Stage = "validating"
	StageAuthorizing  Stage = "authorizing"
	StagePersisting   Stage = "persisting"
	StageInvalidating Stage = "invalidating"
	StageDone         Stage = "done"
)

// Invalidation lists the cache entries a successful write makes stale.
type Invalidation struct {
	Keys     []string
	Patterns []string
}

// Steps are the operation-specific parts of a write. Nil steps are skipped.
type Steps[T any] struct {
	Validate   func(ctx context.Context) error
	Authorize  func(ctx context.Context) error
	Persist    func(ctx context.Context) (T, error)
	Invalidate func(result T) Invalidation
}

// Pipeline carries the collaborators shared by every write.
type Pipeline struct {
	cache   *cache.Layer
	logger  *zap.Logger
	metrics *metrics.Collector
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *metrics.Collector) Option {
	return func(p *Pipeline) {
		p.metrics = m
	}
}

// New creates a pipeline. layer may be nil when nothing is cached.
func New(layer *cache.Layer, opts ...Option) *Pipeline {
	p := &Pipeline{cache: layer, logger: zap.NewNop(), metrics: metrics.Nop()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run executes steps for the named operation and returns the persisted
// result.
func Run[T any](ctx context.Context, p *Pipeline, operation string, steps Steps[T]) (T, error) {
	var zero T

	if steps.Validate != nil {
		if err := steps.Validate(ctx); err != nil {
			return zero, p.fail(operation, StageValidating, err)
		}
	}
	if steps.Authorize != nil {
		if err := steps.Authorize(ctx); err != nil {
			return zero, p.fail(operation, StageAuthorizing, err)
		}
	}

	var result T
	if steps.Persist != nil {
		var err error
		if result, err = steps.Persist(ctx); err != nil {
			return zero, p.fail(operation, StagePersisting, err)
		}
	}

	if steps.Invalidate != nil && p.cache != nil {
		inv := steps.Invalidate(result)
		p.cache.Invalidate(ctx, inv.Keys, inv.Patterns)
	}

	p.metrics.Mutations.WithLabelValues(operation, string(StageDone)).Inc()
	p.logger.Debug("mutation completed", zap.String("operation", operation))
	return result, nil
}

func (p *Pipeline) fail(operation string, stage Stage, err error) error {
	p.metrics.Mutations.WithLabelValues(operation, string(stage)).Inc()
	fields := []zap.Field{
		zap.String("operation", operation),
		zap.String("stage", string(stage)),
		zap.String("kind", errors.KindOf(err).String()),
		zap.Error(err),
	}
	if errors.KindOf(err) == errors.KindStoreUnavailable || errors.KindOf(err) == errors.KindUnknown {
		p.logger.Error("mutation failed", fields...)
	} else {
		p.logger.Info("mutation rejected", fields...)
	}
	return err
}

// Authorize fails with Forbidden unless actor owns the record.
func Authorize(entity, key, owner, actor string) error {
	if owner != actor {
		return errors.NewForbiddenError(entity, key, actor)
	}
	return nil
}
