/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package mock provides an in-memory implementation of datastore.DataStore
// that follows DynamoDB's ordering, paging and filtering rules.
package mock

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"

	"github.com/suparena/bookcatalog/errors"
	"github.com/suparena/bookcatalog/registry"
	"github.com/suparena/bookcatalog/storagemodels"
)

// DataStore is an in-memory datastore.DataStore[T]. Records are held as
// attribute maps produced by the same marshaller the DynamoDB store uses,
// so attribute names follow the dynamodbav tags of T.
type DataStore[T any] struct {
	mu      sync.RWMutex
	schema  registry.TableSchema
	records map[storagemodels.Key]map[string]any

	putError    error
	getError    error
	queryError  error
	scanError   error
	updateError error
	deleteError error

	queries int
	scans   int
}

// New creates an empty store using the schema registered for T.
// It panics when no schema is registered.
func New[T any]() *DataStore[T] {
	schema, ok := registry.GetTableSchema[T]()
	if !ok {
		var zero T
		panic(fmt.Sprintf("mock: %v: %T", errors.ErrNoSchema, zero))
	}
	return NewWithSchema[T](schema)
}

// NewWithSchema creates an empty store with an explicit schema.
func NewWithSchema[T any](schema registry.TableSchema) *DataStore[T] {
	return &DataStore[T]{
		schema:  schema,
		records: make(map[storagemodels.Key]map[string]any),
	}
}

// WithPutError makes Put operations return an error
func (m *DataStore[T]) WithPutError(err error) *DataStore[T] {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.putError = err
	return m
}

// WithGetError makes Get operations return an error
func (m *DataStore[T]) WithGetError(err error) *DataStore[T] {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getError = err
	return m
}

// WithQueryError makes Query operations return an error
func (m *DataStore[T]) WithQueryError(err error) *DataStore[T] {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queryError = err
	return m
}

// WithScanError makes Scan operations return an error
func (m *DataStore[T]) WithScanError(err error) *DataStore[T] {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scanError = err
	return m
}

// WithUpdateError makes Update operations return an error
func (m *DataStore[T]) WithUpdateError(err error) *DataStore[T] {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updateError = err
	return m
}

// WithDeleteError makes Delete operations return an error
func (m *DataStore[T]) WithDeleteError(err error) *DataStore[T] {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleteError = err
	return m
}

// Schema returns the table layout.
func (m *DataStore[T]) Schema() registry.TableSchema {
	return m.schema
}

// Put stores an entity, replacing any record with the same key.
func (m *DataStore[T]) Put(ctx context.Context, entity T) error {
	attrs, err := toAttributes(entity)
	if err != nil {
		return errors.NewValidationError("entity", err.Error())
	}
	key, err := m.keyOf(attrs)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.putError != nil {
		return m.putError
	}
	m.records[key] = attrs
	return nil
}

// Get retrieves an entity by its full key.
func (m *DataStore[T]) Get(ctx context.Context, key storagemodels.Key) (*T, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.getError != nil {
		return nil, m.getError
	}

	attrs, ok := m.records[m.normalizeKey(key)]
	if !ok {
		return nil, errors.NewNotFoundError(m.schema.Entity, keyString(key))
	}
	return fromAttributes[T](attrs)
}

// Update applies changes to an existing record and returns the result.
func (m *DataStore[T]) Update(ctx context.Context, key storagemodels.Key, changes map[string]any) (*T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateError != nil {
		return nil, m.updateError
	}

	key = m.normalizeKey(key)
	attrs, ok := m.records[key]
	if !ok {
		return nil, errors.NewNotFoundError(m.schema.Entity, keyString(key))
	}

	updated := make(map[string]any, len(attrs)+len(changes))
	for k, v := range attrs {
		updated[k] = v
	}
	for name, value := range changes {
		if name == m.schema.PartitionKey || name == m.schema.SortKey {
			return nil, errors.NewValidationError(name, "key attributes cannot be updated")
		}
		normalized, err := normalizeValue(value)
		if err != nil {
			return nil, errors.NewValidationError(name, err.Error())
		}
		updated[name] = normalized
	}
	m.records[key] = updated
	return fromAttributes[T](updated)
}

// Delete removes an entity. Deleting an absent key succeeds.
func (m *DataStore[T]) Delete(ctx context.Context, key storagemodels.Key) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteError != nil {
		return m.deleteError
	}
	delete(m.records, m.normalizeKey(key))
	return nil
}

// Query reads one page of a partition of the table or one of its indexes.
func (m *DataStore[T]) Query(ctx context.Context, params *storagemodels.QueryParams) (*storagemodels.Page[T], error) {
	m.mu.Lock()
	m.queries++
	m.mu.Unlock()

	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.queryError != nil {
		return nil, m.queryError
	}

	idx, ok := m.schema.Index(params.IndexName)
	if !ok {
		return nil, errors.NewValidationError("indexName", fmt.Sprintf("table %s has no index %q", m.schema.Table, params.IndexName))
	}

	var candidates []map[string]any
	for _, attrs := range m.records {
		pv, ok := attrs[idx.PartitionKey]
		if !ok || fmt.Sprint(pv) != params.PartitionValue {
			continue
		}
		if idx.SortKey != "" {
			if _, ok := attrs[idx.SortKey]; !ok {
				continue
			}
		}
		candidates = append(candidates, attrs)
	}

	order := []string{idx.SortKey, m.schema.PartitionKey, m.schema.SortKey}
	sortRecords(candidates, order)
	if !params.ScanForward {
		for i, j := 0, len(candidates)-1; i < j; i, j = i+1, j-1 {
			candidates[i], candidates[j] = candidates[j], candidates[i]
		}
	}

	keyAttrs, _ := m.schema.KeyAttributes(params.IndexName)
	return m.page(candidates, order, params.ScanForward, keyAttrs, params.ExclusiveStartKey, params.Limit, params.Filters)
}

// Scan reads one page of the whole table in primary-key order.
func (m *DataStore[T]) Scan(ctx context.Context, params *storagemodels.ScanParams) (*storagemodels.Page[T], error) {
	m.mu.Lock()
	m.scans++
	m.mu.Unlock()

	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.scanError != nil {
		return nil, m.scanError
	}

	candidates := make([]map[string]any, 0, len(m.records))
	for _, attrs := range m.records {
		candidates = append(candidates, attrs)
	}
	order := []string{m.schema.PartitionKey, m.schema.SortKey}
	sortRecords(candidates, order)

	keyAttrs, _ := m.schema.KeyAttributes("")
	return m.page(candidates, order, true, keyAttrs, params.ExclusiveStartKey, params.Limit, params.Filters)
}

// page applies the start key, the read limit and then the filters, the
// order DynamoDB evaluates them in. A read that stops at the limit reports
// the last item read as LastEvaluatedKey.
func (m *DataStore[T]) page(
	ordered []map[string]any,
	order []string,
	forward bool,
	keyAttrs []string,
	startKey map[string]any,
	limit int32,
	filters map[string]any,
) (*storagemodels.Page[T], error) {
	start := 0
	if len(startKey) > 0 {
		for _, a := range keyAttrs {
			if _, ok := startKey[a]; !ok {
				return nil, errors.NewMalformedCursorError(fmt.Sprintf("start key lacks attribute %q", a), nil)
			}
		}
		start = len(ordered)
		for i, attrs := range ordered {
			c := compareTuple(attrs, startKey, order)
			if (forward && c > 0) || (!forward && c < 0) {
				start = i
				break
			}
		}
	}

	end := len(ordered)
	stoppedAtLimit := false
	if limit > 0 && start+int(limit) <= end {
		end = start + int(limit)
		stoppedAtLimit = true
	}

	normalizedFilters := make(map[string]any, len(filters))
	for k, v := range filters {
		nv, err := normalizeValue(v)
		if err != nil {
			return nil, errors.NewValidationError(k, err.Error())
		}
		normalizedFilters[k] = nv
	}

	page := &storagemodels.Page[T]{Items: []T{}}
	for _, attrs := range ordered[start:end] {
		if !matches(attrs, normalizedFilters) {
			continue
		}
		item, err := fromAttributes[T](attrs)
		if err != nil {
			return nil, err
		}
		page.Items = append(page.Items, *item)
	}

	if stoppedAtLimit && end > start {
		last := ordered[end-1]
		page.LastEvaluatedKey = make(map[string]any, len(keyAttrs))
		for _, a := range keyAttrs {
			page.LastEvaluatedKey[a] = last[a]
		}
	}
	return page, nil
}

// Helper methods for testing

// Count returns the number of stored records
func (m *DataStore[T]) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}

// Clear removes all data
func (m *DataStore[T]) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = make(map[storagemodels.Key]map[string]any)
}

// QueryCount returns how many Query calls reached the store.
func (m *DataStore[T]) QueryCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.queries
}

// ScanCount returns how many Scan calls reached the store.
func (m *DataStore[T]) ScanCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.scans
}

func (m *DataStore[T]) keyOf(attrs map[string]any) (storagemodels.Key, error) {
	pk, ok := attrs[m.schema.PartitionKey]
	if !ok || fmt.Sprint(pk) == "" {
		return storagemodels.Key{}, errors.NewValidationError(m.schema.PartitionKey, "partition key is required")
	}
	key := storagemodels.Key{Partition: fmt.Sprint(pk)}
	if m.schema.SortKey != "" {
		sk, ok := attrs[m.schema.SortKey]
		if !ok || fmt.Sprint(sk) == "" {
			return storagemodels.Key{}, errors.NewValidationError(m.schema.SortKey, "sort key is required")
		}
		key.Sort = fmt.Sprint(sk)
	}
	return key, nil
}

func (m *DataStore[T]) normalizeKey(key storagemodels.Key) storagemodels.Key {
	if m.schema.SortKey == "" {
		key.Sort = ""
	}
	return key
}

func toAttributes(entity any) (map[string]any, error) {
	av, err := attributevalue.MarshalMap(entity)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal entity: %w", err)
	}
	var attrs map[string]any
	if err := attributevalue.UnmarshalMap(av, &attrs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal attributes: %w", err)
	}
	return attrs, nil
}

func fromAttributes[T any](attrs map[string]any) (*T, error) {
	av, err := attributevalue.MarshalMap(attrs)
	if err != nil {
		return nil, errors.NewStoreUnavailableError("decode", "", err)
	}
	result := new(T)
	if err := attributevalue.UnmarshalMap(av, result); err != nil {
		return nil, errors.NewStoreUnavailableError("decode", "", err)
	}
	return result, nil
}

// normalizeValue round-trips v through the attribute marshaller so that,
// for example, int and float64 compare equal.
func normalizeValue(v any) (any, error) {
	av, err := attributevalue.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := attributevalue.Unmarshal(av, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func matches(attrs, filters map[string]any) bool {
	for name, want := range filters {
		got, ok := attrs[name]
		if !ok || compareValues(got, want) != 0 {
			return false
		}
	}
	return true
}

func sortRecords(records []map[string]any, order []string) {
	sort.SliceStable(records, func(i, j int) bool {
		return compareTuple(records[i], records[j], order) < 0
	})
}

func compareTuple(a, b map[string]any, order []string) int {
	for _, attr := range order {
		if attr == "" {
			continue
		}
		if c := compareValues(a[attr], b[attr]); c != 0 {
			return c
		}
	}
	return 0
}

func compareValues(a, b any) int {
	af, aNum := a.(float64)
	bf, bNum := b.(float64)
	if aNum && bNum {
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		default:
			return 0
		}
	}
	as, bs := fmt.Sprint(a), fmt.Sprint(b)
	switch {
	case as < bs:
		return -1
	case as > bs:
		return 1
	default:
		return 0
	}
}

func keyString(key storagemodels.Key) string {
	if key.Sort == "" {
		return key.Partition
	}
	return key.Partition + "/" + key.Sort
}
