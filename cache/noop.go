/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package cache

import (
	"context"
	"time"
)

// NoopBackend disables caching: every read misses and every write is dropped.
type NoopBackend struct{}

// NewNoopBackend creates a NoopBackend.
func NewNoopBackend() *NoopBackend {
	return &NoopBackend{}
}

func (NoopBackend) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }

func (NoopBackend) Set(context.Context, string, []byte, time.Duration) error { return nil }

func (NoopBackend) Delete(context.Context, string) error { return nil }

func (NoopBackend) SupportsPrefixScan() bool { return false }

func (NoopBackend) DeletePattern(context.Context, string) (int, error) {
	return 0, ErrPrefixScanUnsupported
}

func (NoopBackend) Close() error { return nil }
