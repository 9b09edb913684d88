/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package reviews

import (
	"github.com/suparena/bookcatalog/registry"
)

// Table layout of book reviews.
const (
	TableName   = "book_reviews"
	UserIDIndex = "UserIdIndex"
)

// Review is one user's rating of a book. BookID is the partition key and
// ReviewID the sort key.
type Review struct {
	BookID    string `json:"bookId" dynamodbav:"book_id"`
	ReviewID  string `json:"reviewId" dynamodbav:"review_id"`
	UserID    string `json:"userId" dynamodbav:"user_id"`
	Rating    int    `json:"rating" dynamodbav:"rating"`
	Comment   string `json:"comment,omitempty" dynamodbav:"comment,omitempty"`
	Timestamp string `json:"timestamp" dynamodbav:"timestamp"`
}

// CreateReviewInput is the payload of AddReview.
type CreateReviewInput struct {
	BookID  string `json:"bookId" validate:"required"`
	Rating  int    `json:"rating" validate:"min=1,max=5"`
	Comment string `json:"comment,omitempty" validate:"max=2000"`
}

// UpdateReviewInput is the payload of UpdateReview. Nil fields are left
// unchanged.
type UpdateReviewInput struct {
	BookID  string  `json:"bookId" validate:"required"`
	Rating  *int    `json:"rating,omitempty" validate:"omitempty,min=1,max=5"`
	Comment *string `json:"comment,omitempty" validate:"omitempty,max=2000"`
}

// Schema is the key layout of the reviews table.
func Schema() registry.TableSchema {
	return registry.TableSchema{
		Table:        TableName,
		Entity:       "Review",
		PartitionKey: "book_id",
		SortKey:      "review_id",
		Indexes: map[string]registry.IndexSchema{
			UserIDIndex: {Name: UserIDIndex, PartitionKey: "user_id", SortKey: "timestamp"},
		},
	}
}

func init() {
	registry.RegisterTableSchema[Review](Schema())
}
