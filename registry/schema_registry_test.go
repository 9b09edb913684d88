/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type shelfItem struct {
	ShelfID string
	ItemID  string
}

func shelfSchema() TableSchema {
	return TableSchema{
		Table:        "shelves",
		Entity:       "ShelfItem",
		PartitionKey: "shelf_id",
		SortKey:      "item_id",
		Indexes: map[string]IndexSchema{
			"OwnerIndex": {Name: "OwnerIndex", PartitionKey: "owner_id", SortKey: "added_at"},
		},
	}
}

func TestRegisterAndGetTableSchema(t *testing.T) {
	_, ok := GetTableSchema[int]()
	assert.False(t, ok)

	RegisterTableSchema[shelfItem](shelfSchema())
	got, ok := GetTableSchema[shelfItem]()
	require.True(t, ok)
	assert.Equal(t, "shelves", got.Table)

	replaced := shelfSchema()
	replaced.Table = "shelves_test"
	RegisterTableSchema[shelfItem](replaced)
	got, _ = GetTableSchema[shelfItem]()
	assert.Equal(t, "shelves_test", got.Table)
}

func TestKeyAttributes(t *testing.T) {
	s := shelfSchema()

	attrs, err := s.KeyAttributes("")
	require.NoError(t, err)
	assert.Equal(t, []string{"item_id", "shelf_id"}, attrs)

	attrs, err = s.KeyAttributes("OwnerIndex")
	require.NoError(t, err)
	assert.Equal(t, []string{"added_at", "item_id", "owner_id", "shelf_id"}, attrs)

	_, err = s.KeyAttributes("Missing")
	assert.Error(t, err)

	hashOnly := TableSchema{Table: "logs", PartitionKey: "id"}
	attrs, err = hashOnly.KeyAttributes("")
	require.NoError(t, err)
	assert.Equal(t, []string{"id"}, attrs)
}
