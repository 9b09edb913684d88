/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storagemodels

// TimestampLayout renders sort-key timestamps so that lexical order is
// chronological order.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Key identifies one record by its full primary key. Sort is empty for
// tables keyed by partition only.
type Key struct {
	Partition string
	Sort      string
}

// QueryParams describes a single-partition read against the base table or
// a secondary index.
type QueryParams struct {
	// IndexName is empty for the base table.
	IndexName string
	// PartitionValue is matched against the partition key of the table or index.
	PartitionValue string
	// Filters are equality conditions applied after the key condition.
	// As in DynamoDB, Limit counts items read before filtering.
	Filters map[string]any
	// Limit caps the number of items read. Zero means no limit.
	Limit int32
	// ExclusiveStartKey resumes a previous read.
	ExclusiveStartKey map[string]any
	// ScanForward orders ascending by sort key when true.
	ScanForward bool
}

// ScanParams describes a full-table read. Scans have no defined order.
type ScanParams struct {
	Filters           map[string]any
	Limit             int32
	ExclusiveStartKey map[string]any
}

// Page is one page of results together with the continuation position.
type Page[T any] struct {
	Items []T
	// LastEvaluatedKey is nil when the read is exhausted.
	LastEvaluatedKey map[string]any
}

// HasMore reports whether the store signalled further items.
func (p *Page[T]) HasMore() bool {
	return len(p.LastEvaluatedKey) > 0
}
