/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package cache

import (
	"context"
	"strings"
	"time"

	"github.com/viccon/sturdyc"
)

// SturdycConfig holds the settings of the in-process backend.
type SturdycConfig struct {
	// Capacity defines the maximum number of entries. Must be greater than 0.
	Capacity int `yaml:"capacity"`
	// NumShards determines the number of cache shards. Default: 256
	NumShards int `yaml:"numShards"`
	// TTL caps every entry's lifetime; shorter per-entry TTLs are honoured.
	TTL time.Duration `yaml:"ttl"`
	// EvictionPercentage is the share of entries evicted at capacity (1-100).
	EvictionPercentage int `yaml:"evictionPercentage"`
}

// DefaultSturdycConfig returns defaults sized for a single service instance.
func DefaultSturdycConfig() SturdycConfig {
	return SturdycConfig{
		Capacity:           10000,
		NumShards:          256,
		TTL:                time.Hour,
		EvictionPercentage: 10,
	}
}

// Validate checks if the configuration values are valid.
func (c SturdycConfig) Validate() error {
	if c.Capacity <= 0 {
		return &ConfigError{Field: "Capacity", Message: "must be greater than 0"}
	}
	if c.NumShards <= 0 {
		return &ConfigError{Field: "NumShards", Message: "must be greater than 0"}
	}
	if c.TTL <= 0 {
		return &ConfigError{Field: "TTL", Message: "must be greater than 0"}
	}
	if c.EvictionPercentage < 1 || c.EvictionPercentage > 100 {
		return &ConfigError{Field: "EvictionPercentage", Message: "must be between 1 and 100"}
	}
	return nil
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "cache config error in field " + e.Field + ": " + e.Message
}

// entry stamps each value with its own expiry, since sturdyc applies one TTL
// to the whole client.
type entry struct {
	Value     []byte
	ExpiresAt time.Time
}

// SturdycBackend is an in-process sharded cache.
type SturdycBackend struct {
	client *sturdyc.Client[entry]
	maxTTL time.Duration
	now    func() time.Time
}

// SturdycOption configures a SturdycBackend.
type SturdycOption func(*SturdycBackend)

// WithClock replaces time.Now for per-entry expiry checks.
func WithClock(now func() time.Time) SturdycOption {
	return func(b *SturdycBackend) {
		b.now = now
	}
}

// NewSturdycBackend creates the in-process backend.
func NewSturdycBackend(cfg SturdycConfig, opts ...SturdycOption) (*SturdycBackend, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	b := &SturdycBackend{
		client: sturdyc.New[entry](cfg.Capacity, cfg.NumShards, cfg.TTL, cfg.EvictionPercentage),
		maxTTL: cfg.TTL,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

func (b *SturdycBackend) Get(_ context.Context, key string) ([]byte, bool, error) {
	e, ok := b.client.Get(key)
	if !ok {
		return nil, false, nil
	}
	if !b.now().Before(e.ExpiresAt) {
		b.client.Delete(key)
		return nil, false, nil
	}
	return e.Value, true, nil
}

func (b *SturdycBackend) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 || ttl > b.maxTTL {
		ttl = b.maxTTL
	}
	b.client.Set(key, entry{Value: value, ExpiresAt: b.now().Add(ttl)})
	return nil
}

func (b *SturdycBackend) Delete(_ context.Context, key string) error {
	b.client.Delete(key)
	return nil
}

func (b *SturdycBackend) SupportsPrefixScan() bool { return true }

func (b *SturdycBackend) DeletePattern(_ context.Context, pattern string) (int, error) {
	prefix := prefixOf(pattern)
	deleted := 0
	for _, key := range b.client.ScanKeys() {
		if strings.HasPrefix(key, prefix) {
			b.client.Delete(key)
			deleted++
		}
	}
	return deleted, nil
}

func (b *SturdycBackend) Close() error { return nil }
