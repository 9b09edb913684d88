/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package books

import (
	"time"

	"github.com/uptrace/bun"

	"github.com/suparena/bookcatalog/reviews"
)

// Book is a catalog entry. Publisher is the id of the user who created it
// and the only user allowed to change it.
type Book struct {
	bun.BaseModel `bun:"table:books,alias:b" json:"-"`

	ID              string    `bun:"id,pk" json:"id"`
	Title           string    `bun:"title,notnull" json:"title"`
	Author          string    `bun:"author,notnull" json:"author"`
	ISBN            string    `bun:"isbn" json:"isbn,omitempty"`
	Description     string    `bun:"description" json:"description,omitempty"`
	PublicationDate time.Time `bun:"publication_date,notnull" json:"publicationDate"`
	Publisher       string    `bun:"publisher,notnull" json:"publisher"`
	CreatedAt       time.Time `bun:"created_at,notnull" json:"createdAt"`
}

// Details is a book together with the first page of its reviews.
type Details struct {
	Book
	Items     []reviews.Review `json:"items"`
	Count     int              `json:"count"`
	NextToken string           `json:"nextToken,omitempty"`
}

type CreateBookInput struct {
	Title       string `json:"title" validate:"required,max=255"`
	Author      string `json:"author" validate:"required,max=255"`
	ISBN        string `json:"isbn,omitempty" validate:"max=32"`
	Description string `json:"description,omitempty"`
}

// UpdateBookInput changes the non-nil fields of a book. PublicationDate
// accepts an RFC 3339 date or date-time.
type UpdateBookInput struct {
	Title           *string `json:"title,omitempty" validate:"omitempty,min=1,max=255"`
	Author          *string `json:"author,omitempty" validate:"omitempty,min=1,max=255"`
	PublicationDate *string `json:"publicationDate,omitempty"`
	ISBN            *string `json:"isbn,omitempty" validate:"omitempty,max=32"`
	Description     *string `json:"description,omitempty"`
}

// Sort orders accepted by Search.
const (
	SortAsc  = "ASC"
	SortDesc = "DESC"
)

// SearchParams filters and pages a book search. Zero values select the
// defaults: page 1, limit 10, sorted by id ascending.
type SearchParams struct {
	Page      int    `json:"page,omitempty"`
	Limit     int    `json:"limit,omitempty"`
	SortBy    string `json:"sortBy,omitempty"`
	SortOrder string `json:"sortOrder,omitempty" validate:"omitempty,oneof=ASC DESC"`
	Title     string `json:"title,omitempty"`
	Author    string `json:"author,omitempty"`
	FromDate  string `json:"fromDate,omitempty"`
	ToDate    string `json:"toDate,omitempty"`
}

// SearchResult is one offset page of a search.
type SearchResult struct {
	Items      []Book `json:"items"`
	Total      int    `json:"total"`
	Page       int    `json:"page"`
	Limit      int    `json:"limit"`
	TotalPages int    `json:"totalPages"`
}
