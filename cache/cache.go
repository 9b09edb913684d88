/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package cache

import (
	"context"
	"errors"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/suparena/bookcatalog/cachekey"
	"github.com/suparena/bookcatalog/metrics"
)

// ErrPrefixScanUnsupported is returned by backends that cannot enumerate keys.
var ErrPrefixScanUnsupported = errors.New("cache backend does not support prefix scans")

// Backend is a byte-oriented cache store.
type Backend interface {
	// Get returns the value and true on a hit.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores value for ttl. A non-positive ttl uses the backend default.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	// SupportsPrefixScan reports whether DeletePattern is available.
	SupportsPrefixScan() bool
	// DeletePattern removes every key matching a "<prefix>*" pattern and
	// returns how many were removed.
	DeletePattern(ctx context.Context, pattern string) (int, error)
	Close() error
}

var codec = jsoniter.ConfigCompatibleWithStandardLibrary

// Layer is the read-through cache used by every catalog component. Values
// are JSON encoded. Read failures count as misses and invalidation is
// best-effort; neither ever fails the caller's operation.
type Layer struct {
	backend Backend
	logger  *zap.Logger
	metrics *metrics.Collector
}

// LayerOption configures a Layer.
type LayerOption func(*Layer)

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *zap.Logger) LayerOption {
	return func(l *Layer) {
		l.logger = logger
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *metrics.Collector) LayerOption {
	return func(l *Layer) {
		l.metrics = m
	}
}

// NewLayer wraps backend.
func NewLayer(backend Backend, opts ...LayerOption) *Layer {
	l := &Layer{
		backend: backend,
		logger:  zap.NewNop(),
		metrics: metrics.Nop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// SupportsPrefixScan reports the backend capability.
func (l *Layer) SupportsPrefixScan() bool {
	return l.backend.SupportsPrefixScan()
}

// Get decodes the cached value for key into dest and reports a hit.
func (l *Layer) Get(ctx context.Context, key string, dest any) bool {
	entity := entityOf(key)
	raw, ok, err := l.backend.Get(ctx, key)
	if err != nil {
		l.logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
		ok = false
	}
	if ok {
		if err := codec.Unmarshal(raw, dest); err != nil {
			l.logger.Warn("discarding undecodable cache entry", zap.String("key", key), zap.Error(err))
			_ = l.backend.Delete(ctx, key)
			ok = false
		}
	}

	if ok {
		l.metrics.CacheHits.WithLabelValues(entity).Inc()
	} else {
		l.metrics.CacheMisses.WithLabelValues(entity).Inc()
	}
	return ok
}

// Set encodes value and stores it under key for ttl.
func (l *Layer) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	raw, err := codec.Marshal(value)
	if err != nil {
		return err
	}
	if err := l.backend.Set(ctx, key, raw, ttl); err != nil {
		l.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
		return err
	}
	return nil
}

// Delete removes key.
func (l *Layer) Delete(ctx context.Context, key string) error {
	return l.backend.Delete(ctx, key)
}

// DeleteByPrefix removes every key matching pattern. Backends without the
// prefix-scan capability leave matching keys to expire; the call then logs
// a warning and reports zero deletions.
func (l *Layer) DeleteByPrefix(ctx context.Context, pattern string) (int, error) {
	if !l.backend.SupportsPrefixScan() {
		l.logger.Warn("cache backend cannot sweep by prefix; entries will expire by TTL",
			zap.String("pattern", pattern))
		l.metrics.Invalidations.WithLabelValues("unsupported").Inc()
		return 0, nil
	}
	return l.backend.DeletePattern(ctx, pattern)
}

// Invalidate deletes the given keys and sweeps the given patterns. Failures
// are logged and counted, never returned.
func (l *Layer) Invalidate(ctx context.Context, keys []string, patterns []string) {
	for _, key := range keys {
		if err := l.backend.Delete(ctx, key); err != nil {
			l.logger.Warn("cache invalidation failed", zap.String("key", key), zap.Error(err))
			l.metrics.Invalidations.WithLabelValues("failed").Inc()
			continue
		}
		l.metrics.Invalidations.WithLabelValues("ok").Inc()
	}
	for _, pattern := range patterns {
		n, err := l.DeleteByPrefix(ctx, pattern)
		if err != nil {
			l.logger.Warn("cache prefix invalidation failed", zap.String("pattern", pattern), zap.Error(err))
			l.metrics.Invalidations.WithLabelValues("failed").Inc()
			continue
		}
		if l.backend.SupportsPrefixScan() {
			l.logger.Debug("cache prefix invalidated", zap.String("pattern", pattern), zap.Int("deleted", n))
			l.metrics.Invalidations.WithLabelValues("ok").Inc()
		}
	}
}

// Close releases the backend.
func (l *Layer) Close() error {
	return l.backend.Close()
}

func entityOf(key string) string {
	if i := strings.Index(key, cachekey.Separator); i > 0 {
		return key[:i]
	}
	return key
}

// prefixOf returns the literal prefix of a "<prefix>*" pattern.
func prefixOf(pattern string) string {
	return strings.TrimSuffix(pattern, cachekey.Wildcard)
}
