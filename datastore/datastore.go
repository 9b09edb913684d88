/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package datastore

import (
	"context"

	"github.com/suparena/bookcatalog/registry"
	"github.com/suparena/bookcatalog/storagemodels"
)

// DataStore is the key-value store adapter for records of type T.
//
// Put overwrites any record with the same key. Get returns a NotFound error
// when the key is absent. Update applies changes to an existing record and
// returns the full post-write record; it fails with NotFound when the key is
// absent. Delete is idempotent.
type DataStore[T any] interface {
	Put(ctx context.Context, entity T) error

	Get(ctx context.Context, key storagemodels.Key) (*T, error)

	Query(ctx context.Context, params *storagemodels.QueryParams) (*storagemodels.Page[T], error)

	Scan(ctx context.Context, params *storagemodels.ScanParams) (*storagemodels.Page[T], error)

	Update(ctx context.Context, key storagemodels.Key, changes map[string]any) (*T, error)

	Delete(ctx context.Context, key storagemodels.Key) error

	Schema() registry.TableSchema
}
