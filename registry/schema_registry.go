/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package registry

import (
	"fmt"
	"reflect"
	"sort"
	"sync"
)

// IndexSchema describes a global secondary index.
type IndexSchema struct {
	Name         string
	PartitionKey string
	SortKey      string
}

// TableSchema describes the key layout of a partition-key/sort-key table.
type TableSchema struct {
	// Table is the default table name; stores may override it.
	Table string
	// Entity names the stored type in errors and logs, e.g. "Review".
	Entity       string
	PartitionKey string
	// SortKey is empty for tables keyed by partition only.
	SortKey string
	Indexes map[string]IndexSchema
}

// Index returns the named index. The empty name resolves to the base table.
func (s TableSchema) Index(name string) (IndexSchema, bool) {
	if name == "" {
		return IndexSchema{PartitionKey: s.PartitionKey, SortKey: s.SortKey}, true
	}
	idx, ok := s.Indexes[name]
	return idx, ok
}

// KeyAttributes lists, sorted, the attributes a last-evaluated key carries
// when reading through the given index: the base table key plus the index key.
func (s TableSchema) KeyAttributes(index string) ([]string, error) {
	idx, ok := s.Index(index)
	if !ok {
		return nil, fmt.Errorf("table %s has no index %q", s.Table, index)
	}
	set := map[string]struct{}{}
	for _, a := range []string{s.PartitionKey, s.SortKey, idx.PartitionKey, idx.SortKey} {
		if a != "" {
			set[a] = struct{}{}
		}
	}
	attrs := make([]string, 0, len(set))
	for a := range set {
		attrs = append(attrs, a)
	}
	sort.Strings(attrs)
	return attrs, nil
}

var (
	schemaRegistry = make(map[reflect.Type]TableSchema)
	mu             sync.RWMutex
)

// RegisterTableSchema associates a Go type T with its table layout.
// Registering again replaces the previous schema.
func RegisterTableSchema[T any](schema TableSchema) {
	var zero T
	t := reflect.TypeOf(zero)

	mu.Lock()
	defer mu.Unlock()
	schemaRegistry[t] = schema
}

// GetTableSchema retrieves the schema for type T, if any.
func GetTableSchema[T any]() (TableSchema, bool) {
	var zero T
	t := reflect.TypeOf(zero)

	mu.RLock()
	defer mu.RUnlock()
	s, ok := schemaRegistry[t]
	return s, ok
}
