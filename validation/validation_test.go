/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package validation

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/bookcatalog/errors"
)

type rateInput struct {
	BookID  string  `json:"bookId" validate:"required"`
	Rating  int     `json:"rating" validate:"min=1,max=5"`
	Comment *string `json:"comment,omitempty" validate:"omitempty,max=20"`
	Email   string  `json:"email,omitempty" validate:"omitempty,email"`
	SortBy  string  `json:"sortBy,omitempty" validate:"omitempty,oneof=title author"`
}

func TestStruct(t *testing.T) {
	long := "this comment is far too long"
	tests := []struct {
		name    string
		in      rateInput
		field   string
		message string
	}{
		{"valid", rateInput{BookID: "b1", Rating: 5}, "", ""},
		{"missing book", rateInput{Rating: 3}, "bookId", "is required"},
		{"rating low", rateInput{BookID: "b1", Rating: 0}, "rating", "must be at least 1"},
		{"rating high", rateInput{BookID: "b1", Rating: 6}, "rating", "must be at most 5"},
		{"comment long", rateInput{BookID: "b1", Rating: 2, Comment: &long}, "comment", "must be at most 20 characters"},
		{"bad email", rateInput{BookID: "b1", Rating: 2, Email: "nope"}, "email", "must be a valid email address"},
		{"bad sort", rateInput{BookID: "b1", Rating: 2, SortBy: "isbn"}, "sortBy", "must be one of [title author]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Struct(tt.in)
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.IsValidationError(err))

			var ve *errors.ValidationError
			require.True(t, stderrors.As(err, &ve))
			assert.Equal(t, tt.field, ve.Field)
			assert.Equal(t, tt.message, ve.Message)
		})
	}
}
