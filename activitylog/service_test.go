/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package activitylog

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/bookcatalog/datastore/mock"
	"github.com/suparena/bookcatalog/errors"
	"github.com/suparena/bookcatalog/storagemodels"
)

func newTestService(t *testing.T) (*Service, *mock.DataStore[Entry]) {
	t.Helper()
	store := mock.New[Entry]()
	clock := time.Date(2025, 5, 10, 8, 0, 0, 0, time.UTC)
	svc := NewService(store, WithClock(func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}))
	return svc, store
}

func TestRecord(t *testing.T) {
	svc, store := newTestService(t)

	entry, err := svc.Record(context.Background(), "u1", ActionCreateBook, "Created book: Dune")
	require.NoError(t, err)
	assert.NotEmpty(t, entry.ID)
	assert.Equal(t, "2025-05-10T08:01:00.000Z", entry.Timestamp)
	assert.Equal(t, time.Date(2025, 6, 9, 8, 1, 0, 0, time.UTC).Unix(), entry.TTL)
	assert.Equal(t, 1, store.Count())

	stored, err := store.Get(context.Background(), storagemodels.Key{Partition: entry.ID})
	require.NoError(t, err)
	assert.Equal(t, *entry, *stored)
}

func TestRecordValidatesAndSurfacesStoreErrors(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	_, err := svc.Record(ctx, "", ActionCreateBook, "")
	assert.True(t, errors.IsValidationError(err))

	store.WithPutError(errors.NewStoreUnavailableError("PutItem", "", assert.AnError))
	_, err = svc.Record(ctx, "u1", ActionCreateBook, "")
	assert.True(t, errors.IsStoreUnavailable(err))
}

func TestListings(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	for _, r := range []struct{ user, action string }{
		{"u1", ActionCreateBook},
		{"u2", ActionCreateBook},
		{"u1", ActionUpdateBook},
		{"u1", ActionDeleteBook},
	} {
		_, err := svc.Record(ctx, r.user, r.action, "")
		require.NoError(t, err)
	}

	byUser, err := svc.GetUserActivityLogs(ctx, "u1", storagemodels.PageRequest{})
	require.NoError(t, err)
	require.Equal(t, 3, byUser.Count)
	assert.Equal(t, ActionDeleteBook, byUser.Items[0].Action)
	assert.Equal(t, ActionCreateBook, byUser.Items[2].Action)

	byAction, err := svc.GetActivityLogsByAction(ctx, ActionCreateBook, storagemodels.PageRequest{Limit: 1})
	require.NoError(t, err)
	require.Equal(t, 1, byAction.Count)
	assert.Equal(t, "u2", byAction.Items[0].UserID)
	require.NotEmpty(t, byAction.NextToken)

	rest, err := svc.GetActivityLogsByAction(ctx, ActionCreateBook, storagemodels.PageRequest{Limit: 1, Cursor: byAction.NextToken})
	require.NoError(t, err)
	require.Equal(t, 1, rest.Count)
	assert.Equal(t, "u1", rest.Items[0].UserID)

	recent, err := svc.GetRecentActivityLogs(ctx, storagemodels.PageRequest{})
	require.NoError(t, err)
	require.Equal(t, 4, recent.Count)
	for i := 1; i < len(recent.Items); i++ {
		assert.GreaterOrEqual(t, recent.Items[i-1].Timestamp, recent.Items[i].Timestamp)
	}
	assert.Empty(t, recent.NextToken)
}

func TestRecordOperationMasksPasswords(t *testing.T) {
	svc, _ := newTestService(t)

	args := map[string]any{
		"input": map[string]any{
			"email":    "a@example.com",
			"password": "secret",
			"nested":   []any{map[string]any{"confirmPassword": "secret"}},
		},
		"newPassword": "other",
	}
	entry, err := svc.RecordOperation(context.Background(), "u1", KindMutation, "updateUser", args)
	require.NoError(t, err)
	assert.Equal(t, "mutation:updateUser", entry.Action)
	assert.Equal(t,
		`Payload: {"input":{"email":"a@example.com","nested":[{"confirmPassword":"***"}],"password":"***"},"newPassword":"***"}`,
		entry.Details)
	assert.NotContains(t, entry.Details, "secret")
}

func TestMaskedPayloadStruct(t *testing.T) {
	type login struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	out, err := MaskedPayload(login{Email: "a@example.com", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, `{"email":"a@example.com","password":"***"}`, out)

	_, err = MaskedPayload(func() {})
	assert.Error(t, err)
}
