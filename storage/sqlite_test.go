package storage_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"rosterd/core"
	"rosterd/storage"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupSQLiteStore(t *testing.T) *storage.SQLiteGroupStore {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "rosterd_test.db")
	store, err := storage.NewSQLiteGroupStore(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return store
}

func TestSQLiteGroupStore_CreateAndList(t *testing.T) {
	ctx := context.Background()
	store := setupSQLiteStore(t)

	older := &core.Group{
		ID:          uuid.New(),
		Title:       "Raid night",
		Description: "Normal clear",
		Time:        "2026-02-01T20:00",
		Leader:      "Foo",
		Role:        "tank",
		Owner:       "sub_1",
		CreatedAt:   time.Now().Add(-time.Hour),
	}
	newer := &core.Group{
		ID:        uuid.New(),
		Title:     "Key push",
		Time:      "2026-02-02T19:00",
		Leader:    "Bar",
		Owner:     "sub_2",
		CreatedAt: time.Now(),
	}

	require.NoError(t, store.CreateGroup(ctx, older))
	require.NoError(t, store.CreateGroup(ctx, newer))

	groups, err := store.ListGroups(ctx)
	require.NoError(t, err)
	require.Len(t, groups, 2)

	// Newest first.
	assert.Equal(t, newer.ID, groups[0].ID)
	assert.Equal(t, older.ID, groups[1].ID)

	assert.Equal(t, "Raid night", groups[1].Title)
	assert.Equal(t, "Normal clear", groups[1].Description)
	assert.Equal(t, "2026-02-01T20:00", groups[1].Time)
	assert.Equal(t, "Foo", groups[1].Leader)
	assert.Equal(t, "tank", groups[1].Role)
	assert.Equal(t, "sub_1", groups[1].Owner)
}

func TestSQLiteGroupStore_DuplicateIDRejected(t *testing.T) {
	ctx := context.Background()
	store := setupSQLiteStore(t)

	group := &core.Group{
		ID:        uuid.New(),
		Title:     "Raid night",
		Time:      "2026-02-01T20:00",
		Leader:    "Foo",
		Owner:     "sub_1",
		CreatedAt: time.Now(),
	}

	require.NoError(t, store.CreateGroup(ctx, group))
	assert.ErrorIs(t, store.CreateGroup(ctx, group), core.ErrAlreadyExists)
}

func TestSQLiteGroupStore_EmptyList(t *testing.T) {
	ctx := context.Background()
	store := setupSQLiteStore(t)

	groups, err := store.ListGroups(ctx)
	require.NoError(t, err)
	assert.Empty(t, groups)
}
