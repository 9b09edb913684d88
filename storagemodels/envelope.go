/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storagemodels

// Page size bounds shared by every paginated read.
const (
	MinPageSize = 1
	MaxPageSize = 100
)

// PageRequest is the caller side of a paginated read. Limit zero selects the
// shape's default page size; an empty Cursor requests the first page.
type PageRequest struct {
	Limit  int    `json:"limit,omitempty"`
	Cursor string `json:"cursor,omitempty"`
}

// Envelope is the client-visible result of a paginated read.
type Envelope[T any] struct {
	Items     []T    `json:"items"`
	Count     int    `json:"count"`
	NextToken string `json:"nextToken,omitempty"`
}

// NewEnvelope builds an envelope, keeping Count equal to len(items) and
// Items non-nil so it encodes as an empty list.
func NewEnvelope[T any](items []T, nextToken string) *Envelope[T] {
	if items == nil {
		items = []T{}
	}
	return &Envelope[T]{Items: items, Count: len(items), NextToken: nextToken}
}
