/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package users

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/suparena/bookcatalog/errors"
)

func newTestService(t *testing.T) (*Service, *Store) {
	t.Helper()
	store, err := Open(DriverSQLite, filepath.Join(t.TempDir(), "users.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, store.Init(context.Background()))

	clock := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	svc := NewService(store, WithHashCost(bcrypt.MinCost), WithClock(func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}))
	return svc, store
}

func TestCreateAndFind(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	u, err := svc.Create(ctx, CreateUserInput{Email: "ann@example.com", Password: "correct horse", Name: "Ann"})
	require.NoError(t, err)
	assert.NotEmpty(t, u.ID)
	assert.NotEqual(t, "correct horse", u.PasswordHash)
	assert.True(t, CheckPassword(u, "correct horse"))

	found, err := svc.FindOne(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", found.Email)
	assert.True(t, found.CreatedAt.Equal(u.CreatedAt))

	byEmail, err := svc.FindByEmail(ctx, "ann@example.com")
	require.NoError(t, err)
	require.NotNil(t, byEmail)
	assert.Equal(t, u.ID, byEmail.ID)

	none, err := svc.FindByEmail(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, none)

	_, err = svc.FindOne(ctx, "missing")
	assert.True(t, errors.IsNotFound(err))
}

func TestCreateDuplicateEmail(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateUserInput{Email: "ann@example.com", Password: "password1", Name: "Ann"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, CreateUserInput{Email: "ann@example.com", Password: "password2", Name: "Other"})
	require.Error(t, err)
	assert.True(t, errors.IsAlreadyExists(err))
	assert.Equal(t, 409, errors.StatusCode(err))
}

func TestCreateValidation(t *testing.T) {
	svc, _ := newTestService(t)

	tests := []struct {
		name  string
		in    CreateUserInput
		field string
	}{
		{"bad email", CreateUserInput{Email: "nope", Password: "password1", Name: "Ann"}, "email"},
		{"short password", CreateUserInput{Email: "a@example.com", Password: "short", Name: "Ann"}, "password"},
		{"missing name", CreateUserInput{Email: "a@example.com", Password: "password1"}, "name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tt.in)
			var verr *errors.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestFindAll(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	all, err := svc.FindAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	for _, email := range []string{"a@example.com", "b@example.com"} {
		_, err := svc.Create(ctx, CreateUserInput{Email: email, Password: "password1", Name: "x"})
		require.NoError(t, err)
	}
	all, err = svc.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "a@example.com", all[0].Email)
}

func TestUpdateAndRemove(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	u, err := svc.Create(ctx, CreateUserInput{Email: "ann@example.com", Password: "password1", Name: "Ann"})
	require.NoError(t, err)
	other, err := svc.Create(ctx, CreateUserInput{Email: "bob@example.com", Password: "password1", Name: "Bob"})
	require.NoError(t, err)

	name, password := "Annie", "new password"
	updated, err := svc.Update(ctx, u.ID, UpdateUserInput{Name: &name, Password: &password})
	require.NoError(t, err)
	assert.Equal(t, "Annie", updated.Name)
	assert.True(t, updated.UpdatedAt.After(u.UpdatedAt))

	stored, err := svc.FindOne(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Annie", stored.Name)
	assert.True(t, CheckPassword(stored, "new password"))

	taken := other.Email
	_, err = svc.Update(ctx, u.ID, UpdateUserInput{Email: &taken})
	assert.True(t, errors.IsAlreadyExists(err))

	_, err = svc.Update(ctx, "missing", UpdateUserInput{Name: &name})
	assert.True(t, errors.IsNotFound(err))

	require.NoError(t, svc.Remove(ctx, u.ID))
	_, err = svc.FindOne(ctx, u.ID)
	assert.True(t, errors.IsNotFound(err))
	assert.True(t, errors.IsNotFound(svc.Remove(ctx, u.ID)))
}
