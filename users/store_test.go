/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package users

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/bookcatalog/errors"
)

func TestBuildFailuresAreStoreUnavailable(t *testing.T) {
	cause := stderrors.New("goqu: unsupported expression")
	err := buildFailed("users.select", cause)

	assert.Equal(t, errors.KindStoreUnavailable, errors.KindOf(err))
	assert.ErrorIs(t, err, cause)

	var sue *errors.StoreUnavailableError
	require.True(t, stderrors.As(err, &sue))
	assert.Equal(t, "users.select", sue.Operation)
	assert.Equal(t, "build", sue.Code)
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open("oracle", "dsn")
	assert.Error(t, err)
}
