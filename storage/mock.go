package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"rosterd/core"

	"github.com/google/uuid"
)

// Predefined test groups
var (
	Group1 = &core.Group{
		ID:          uuid.MustParse("11111111-1111-1111-1111-111111111111"),
		Title:       "Mythic+ push night",
		Description: "Weekly key push, bring your own flask",
		Time:        "2026-02-01T20:00",
		Leader:      "Foo",
		Role:        "tank",
		Owner:       "mock_sub_1",
		CreatedAt:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	Group2 = &core.Group{
		ID:        uuid.MustParse("22222222-2222-2222-2222-222222222222"),
		Title:     "Raid alt run",
		Time:      "2026-02-02T19:30",
		Leader:    "Bar",
		Role:      "healer",
		Owner:     "mock_sub_2",
		CreatedAt: time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC),
	}

	AllGroups = []*core.Group{Group1, Group2}
)

// MockGroupStore is an in-memory GroupStore preloaded with fixtures.
type MockGroupStore struct {
	mu     sync.Mutex
	groups map[uuid.UUID]*core.Group

	// Track method calls for verification
	CreateGroupCalls int
	ListGroupsCalls  int
}

func NewMockGroupStore() *MockGroupStore {
	store := &MockGroupStore{
		groups: make(map[uuid.UUID]*core.Group),
	}

	for _, group := range AllGroups {
		store.groups[group.ID] = group
	}

	return store
}

func (m *MockGroupStore) CreateGroup(ctx context.Context, group *core.Group) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CreateGroupCalls++

	if _, exists := m.groups[group.ID]; exists {
		return core.ErrAlreadyExists
	}

	copied := *group
	m.groups[group.ID] = &copied
	return nil
}

func (m *MockGroupStore) ListGroups(ctx context.Context) ([]*core.Group, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ListGroupsCalls++

	groups := make([]*core.Group, 0, len(m.groups))
	for _, group := range m.groups {
		copied := *group
		groups = append(groups, &copied)
	}

	sort.Slice(groups, func(i, j int) bool {
		return groups[i].CreatedAt.After(groups[j].CreatedAt)
	})

	return groups, nil
}
