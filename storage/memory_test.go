package storage_test

import (
	"context"
	"testing"
	"time"

	"rosterd/core"
	"rosterd/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_StateSingleRedemption(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()

	require.NoError(t, store.PutState(ctx, "state_1", time.Now().Add(10*time.Minute)))

	ok, err := store.ConsumeState(ctx, "state_1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.ConsumeState(ctx, "state_1")
	require.NoError(t, err)
	assert.False(t, ok, "second redemption must fail")
}

func TestMemoryStore_StateUnknownRejected(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()

	ok, err := store.ConsumeState(ctx, "never_issued")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStore_StateExpiredRejected(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()

	require.NoError(t, store.PutState(ctx, "state_1", time.Now().Add(-time.Second)))

	ok, err := store.ConsumeState(ctx, "state_1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStore_SessionRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()

	session := &core.Session{
		ID:             "session_1",
		KeyHash:        "hash",
		Subject:        "sub_1",
		EncryptedToken: "ciphertext",
		CreatedAt:      time.Now(),
		ExpiresAt:      time.Now().Add(24 * time.Hour),
	}

	require.NoError(t, store.CreateSession(ctx, session))

	found, err := store.FindSession(ctx, "session_1")
	require.NoError(t, err)
	assert.Equal(t, session.Subject, found.Subject)
	assert.Equal(t, session.EncryptedToken, found.EncryptedToken)

	require.NoError(t, store.DeleteSession(ctx, "session_1"))

	_, err = store.FindSession(ctx, "session_1")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestMemoryStore_SessionDuplicateRejected(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()

	session := &core.Session{ID: "session_1", ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(t, store.CreateSession(ctx, session))
	assert.ErrorIs(t, store.CreateSession(ctx, session), core.ErrAlreadyExists)
}

func TestMemoryStore_DeleteExpiredSessions(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()

	require.NoError(t, store.CreateSession(ctx, &core.Session{ID: "live", ExpiresAt: time.Now().Add(time.Hour)}))
	require.NoError(t, store.CreateSession(ctx, &core.Session{ID: "stale", ExpiresAt: time.Now().Add(-time.Hour)}))
	require.NoError(t, store.PutState(ctx, "stale_state", time.Now().Add(-time.Hour)))

	count, err := store.DeleteExpiredSessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	_, err = store.FindSession(ctx, "live")
	assert.NoError(t, err)
	_, err = store.FindSession(ctx, "stale")
	assert.ErrorIs(t, err, core.ErrNotFound)
}
