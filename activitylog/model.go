/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package activitylog

import (
	"github.com/suparena/bookcatalog/registry"
)

// Table layout of the activity log.
const (
	TableName   = "activity_logs"
	UserIDIndex = "UserIdIndex"
	ActionIndex = "ActionIndex"
)

// Actions recorded by the book service.
const (
	ActionCreateBook = "CREATE_BOOK"
	ActionUpdateBook = "UPDATE_BOOK"
	ActionDeleteBook = "DELETE_BOOK"
)

// Entry is one recorded action. TTL is the epoch second after which the
// store may expire the entry.
type Entry struct {
	ID        string `json:"id" dynamodbav:"id"`
	UserID    string `json:"userId" dynamodbav:"user_id"`
	Timestamp string `json:"timestamp" dynamodbav:"timestamp"`
	Action    string `json:"action" dynamodbav:"action"`
	Details   string `json:"details" dynamodbav:"details"`
	TTL       int64  `json:"-" dynamodbav:"ttl,omitempty"`
}

// Schema is the key layout of the activity log table.
func Schema() registry.TableSchema {
	return registry.TableSchema{
		Table:        TableName,
		Entity:       "ActivityLog",
		PartitionKey: "id",
		Indexes: map[string]registry.IndexSchema{
			UserIDIndex: {Name: UserIDIndex, PartitionKey: "user_id", SortKey: "timestamp"},
			ActionIndex: {Name: ActionIndex, PartitionKey: "action", SortKey: "timestamp"},
		},
	}
}

func init() {
	registry.RegisterTableSchema[Entry](Schema())
}
