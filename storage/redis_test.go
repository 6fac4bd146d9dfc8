package storage_test

import (
	"context"
	"testing"
	"time"

	"rosterd/core"
	"rosterd/storage"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedisStore(t *testing.T) (*storage.RedisStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := storage.NewRedisStoreWithClient(client)
	t.Cleanup(func() { store.Close() })

	return store, mr
}

func TestRedisStore_StateSingleRedemption(t *testing.T) {
	ctx := context.Background()
	store, _ := setupRedisStore(t)

	require.NoError(t, store.PutState(ctx, "state_1", time.Now().Add(10*time.Minute)))

	ok, err := store.ConsumeState(ctx, "state_1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.ConsumeState(ctx, "state_1")
	require.NoError(t, err)
	assert.False(t, ok, "second redemption must fail")
}

func TestRedisStore_StateUnknownRejected(t *testing.T) {
	ctx := context.Background()
	store, _ := setupRedisStore(t)

	ok, err := store.ConsumeState(ctx, "never_issued")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisStore_StateExpiresWithTTL(t *testing.T) {
	ctx := context.Background()
	store, mr := setupRedisStore(t)

	require.NoError(t, store.PutState(ctx, "state_1", time.Now().Add(10*time.Minute)))

	mr.FastForward(11 * time.Minute)

	ok, err := store.ConsumeState(ctx, "state_1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisStore_SessionRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, _ := setupRedisStore(t)

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

func TestRedisStore_SessionExpiresWithTTL(t *testing.T) {
	ctx := context.Background()
	store, mr := setupRedisStore(t)

	session := &core.Session{
		ID:        "session_1",
		Subject:   "sub_1",
		ExpiresAt: time.Now().Add(time.Hour),
	}
	require.NoError(t, store.CreateSession(ctx, session))

	mr.FastForward(2 * time.Hour)

	_, err := store.FindSession(ctx, "session_1")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestRedisStore_DeleteMissingSession(t *testing.T) {
	ctx := context.Background()
	store, _ := setupRedisStore(t)

	assert.ErrorIs(t, store.DeleteSession(ctx, "missing"), core.ErrNotFound)
}
