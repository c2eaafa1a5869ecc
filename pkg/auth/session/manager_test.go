package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	redislib "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

type mockStore struct {
	mu   sync.Mutex
	data map[string]string
	sets map[string]map[string]struct{}
}

func newMockStore() *mockStore {
	return &mockStore{
		data: make(map[string]string),
		sets: make(map[string]map[string]struct{}),
	}
}

func (m *mockStore) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = fmt.Sprint(value)
	return nil
}

func (m *mockStore) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	val, ok := m.data[key]
	if !ok {
		return "", redislib.Nil
	}
	return val, nil
}

func (m *mockStore) Del(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.data, key)
		delete(m.sets, key)
	}
	return nil
}

func (m *mockStore) AddToSet(ctx context.Context, key string, ttl time.Duration, members ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	set, ok := m.sets[key]
	if !ok {
		set = make(map[string]struct{})
		m.sets[key] = set
	}
	for _, member := range members {
		set[member] = struct{}{}
	}
	return nil
}

func (m *mockStore) SetMembers(ctx context.Context, key string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []string{}
	for member := range m.sets[key] {
		out = append(out, member)
	}
	return out, nil
}

func (m *mockStore) AccessSessionKey(accessID string) string {
	return fmt.Sprintf("sess:%s", accessID)
}

func (m *mockStore) UserSessionsKey(userID string) string {
	return fmt.Sprintf("user:%s", userID)
}

func newTestManager(store *mockStore) *Manager {
	return &Manager{store: store, keyer: store, ttl: time.Hour}
}

func TestManagerGenerateAndRotate(t *testing.T) {
	store := newMockStore()
	manager := newTestManager(store)

	ctx := context.Background()
	accessID := "access-123"
	token, err := manager.Generate(ctx, "user-1", accessID)
	require.NoError(t, err)
	require.Equal(t, "user-1|"+token, store.data[store.AccessSessionKey(accessID)])

	_, _, err = manager.Rotate(ctx, "user-1", accessID, "wrong")
	require.True(t, errors.Is(err, ErrInvalidRefreshToken), "expected invalid refresh token error, got %v", err)

	newAccessID, newToken, err := manager.Rotate(ctx, "user-1", accessID, token)
	require.NoError(t, err)
	_, exists := store.data[store.AccessSessionKey(accessID)]
	require.False(t, exists, "old access key left behind")
	require.Equal(t, "user-1|"+newToken, store.data[store.AccessSessionKey(newAccessID)])

	ok, err := manager.HasSession(ctx, newAccessID)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestManagerRevokeUserDropsAllSessions(t *testing.T) {
	store := newMockStore()
	manager := newTestManager(store)
	ctx := context.Background()

	_, err := manager.Generate(ctx, "user-1", "access-a")
	require.NoError(t, err)
	_, err = manager.Generate(ctx, "user-1", "access-b")
	require.NoError(t, err)
	_, err = manager.Generate(ctx, "user-2", "access-c")
	require.NoError(t, err)

	require.NoError(t, manager.RevokeUser(ctx, "user-1"))

	for _, accessID := range []string{"access-a", "access-b"} {
		ok, err := manager.HasSession(ctx, accessID)
		require.NoError(t, err)
		require.False(t, ok, "session %s should be revoked", accessID)
	}
	ok, err := manager.HasSession(ctx, "access-c")
	require.NoError(t, err)
	require.True(t, ok, "other users keep their sessions")
}

func TestManagerRotateUnknownSession(t *testing.T) {
	manager := newTestManager(newMockStore())
	_, _, err := manager.Rotate(context.Background(), "user-1", "missing", "token")
	require.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestManagerRotateRejectsTokenOfAnotherUser(t *testing.T) {
	store := newMockStore()
	manager := newTestManager(store)
	ctx := context.Background()

	token, err := manager.Generate(ctx, "user-1", "access-a")
	require.NoError(t, err)

	_, _, err = manager.Rotate(ctx, "user-2", "access-a", token)
	require.ErrorIs(t, err, ErrInvalidRefreshToken)

	ok, err := manager.HasSession(ctx, "access-a")
	require.NoError(t, err)
	require.True(t, ok, "a rejected rotation must leave the session intact")
}
