package session_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rx3lixir/golos/internal/session"
	"github.com/rx3lixir/golos/internal/testutil"
)

func newManager(t *testing.T) *session.Manager {
	t.Helper()

	client, err := session.NewClient(testutil.StartValkey(t), "", "")
	require.NoError(t, err)

	m := session.NewManager(client)
	t.Cleanup(m.Close)
	return m
}

func TestSessionLifecycle(t *testing.T) {
	m := newManager(t)
	ctx := context.Background()

	userID := uuid.New()
	id := uuid.NewString()

	require.NoError(t, m.CreateSession(ctx, id, userID, "alice", time.Now().Add(time.Hour)))

	s, err := m.GetSession(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, userID, s.UserID)
	assert.Equal(t, "alice", s.Username)

	require.NoError(t, m.DeleteSession(ctx, id))

	_, err = m.GetSession(ctx, id)
	assert.ErrorIs(t, err, session.ErrSessionNotFound)

	assert.ErrorIs(t, m.DeleteSession(ctx, id), session.ErrSessionNotFound)
}

func TestDeleteUserSessions(t *testing.T) {
	m := newManager(t)
	ctx := context.Background()

	userID := uuid.New()
	other := uuid.New()
	ids := []string{uuid.NewString(), uuid.NewString()}

	for _, id := range ids {
		require.NoError(t, m.CreateSession(ctx, id, userID, "alice", time.Now().Add(time.Hour)))
	}
	otherID := uuid.NewString()
	require.NoError(t, m.CreateSession(ctx, otherID, other, "bob", time.Now().Add(time.Hour)))

	require.NoError(t, m.DeleteUserSessions(ctx, userID))

	for _, id := range ids {
		_, err := m.GetSession(ctx, id)
		assert.ErrorIs(t, err, session.ErrSessionNotFound)
	}

	_, err := m.GetSession(ctx, otherID)
	assert.NoError(t, err)
}

func TestCreateExpiredSession(t *testing.T) {
	m := newManager(t)

	err := m.CreateSession(context.Background(), uuid.NewString(), uuid.New(), "alice", time.Now().Add(-time.Minute))
	assert.Error(t, err)
}
