/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package cache

import (
	"fmt"
	"time"
)

// Backend kinds accepted by Config.Kind.
const (
	KindMemory = "memory"
	KindRedis  = "redis"
	KindNone   = "none"
)

// Config selects and configures a backend.
type Config struct {
	Kind     string        `yaml:"kind"`
	RedisURL string        `yaml:"redisURL"`
	Memory   SturdycConfig `yaml:"memory"`
}

// DefaultConfig uses the in-process backend.
func DefaultConfig() Config {
	return Config{Kind: KindMemory, Memory: DefaultSturdycConfig()}
}

// NewBackend builds the backend described by cfg.
func NewBackend(cfg Config) (Backend, error) {
	switch cfg.Kind {
	case KindMemory, "":
		return NewSturdycBackend(cfg.Memory)
	case KindRedis:
		if cfg.RedisURL == "" {
			return nil, &ConfigError{Field: "RedisURL", Message: "required for the redis backend"}
		}
		ttl := cfg.Memory.TTL
		if ttl <= 0 {
			ttl = time.Hour
		}
		return NewRedisBackendFromURL(cfg.RedisURL, ttl)
	case KindNone:
		return NewNoopBackend(), nil
	default:
		return nil, &ConfigError{Field: "Kind", Message: fmt.Sprintf("unknown cache backend %q", cfg.Kind)}
	}
}
