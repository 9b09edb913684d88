/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisDeleteBatch = 100

// RedisBackend is a distributed cache on Redis. Prefix sweeps use SCAN, so
// they are linear in the keyspace but never block the server.
type RedisBackend struct {
	client     redis.UniversalClient
	defaultTTL time.Duration
	scanCount  int64
}

// NewRedisBackend wraps an existing client.
func NewRedisBackend(client redis.UniversalClient, defaultTTL time.Duration) *RedisBackend {
	return &RedisBackend{client: client, defaultTTL: defaultTTL, scanCount: 500}
}

// NewRedisBackendFromURL connects using a redis:// URL.
func NewRedisBackendFromURL(url string, defaultTTL time.Duration) (*RedisBackend, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	return NewRedisBackend(redis.NewClient(opts), defaultTTL), nil
}

func (b *RedisBackend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	raw, err := b.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return raw, true, nil
}

func (b *RedisBackend) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = b.defaultTTL
	}
	return b.client.Set(ctx, key, value, ttl).Err()
}

func (b *RedisBackend) Delete(ctx context.Context, key string) error {
	return b.client.Del(ctx, key).Err()
}

func (b *RedisBackend) SupportsPrefixScan() bool { return true }

func (b *RedisBackend) DeletePattern(ctx context.Context, pattern string) (int, error) {
	match := escapeGlob(prefixOf(pattern)) + "*"
	iter := b.client.Scan(ctx, 0, match, b.scanCount).Iterator()

	deleted := 0
	batch := make([]string, 0, redisDeleteBatch)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := b.client.Del(ctx, batch...).Result()
		deleted += int(n)
		batch = batch[:0]
		return err
	}

	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == redisDeleteBatch {
			if err := flush(); err != nil {
				return deleted, err
			}
		}
	}
	if err := iter.Err(); err != nil {
		return deleted, err
	}
	return deleted, flush()
}

func (b *RedisBackend) Close() error {
	return b.client.Close()
}

// escapeGlob quotes the characters SCAN MATCH treats as pattern syntax.
func escapeGlob(s string) string {
	var sb strings.Builder
	for _, r := range s {
		switch r {
		case '*', '?', '[', ']', '\\':
			sb.WriteByte('\\')
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
