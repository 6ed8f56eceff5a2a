package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/valkey-io/valkey-go"
)

// ErrSessionNotFound is returned for unknown, expired or revoked refresh tokens
var ErrSessionNotFound = errors.New("session not found")

// Session is the server side state of one refresh token
type Session struct {
	ID        string    `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Manager keeps refresh sessions in valkey. Every session lives under its
// own key with a TTL, and each user has a set indexing their session ids.
type Manager struct {
	client valkey.Client
}

// NewClient connects to valkey and pings it
func NewClient(addr, username, password string) (valkey.Client, error) {
	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress: []string{addr},
		Username:    username,
		Password:    password,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to valkey: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pingCmd := client.B().Ping().Build()
	if err := client.Do(ctx, pingCmd).Error(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping valkey: %w", err)
	}

	return client, nil
}

func NewManager(client valkey.Client) *Manager {
	return &Manager{client: client}
}

func sessionKey(id string) string {
	return fmt.Sprintf("session:%s", id)
}

func userSessionsKey(userID uuid.UUID) string {
	return fmt.Sprintf("user_sessions:%s", userID.String())
}

// CreateSession stores a refresh session until expiresAt
func (m *Manager) CreateSession(ctx context.Context, id string, userID uuid.UUID, username string, expiresAt time.Time) error {
	ttl := int64(time.Until(expiresAt) / time.Second)
	if ttl <= 0 {
		return fmt.Errorf("session %s already expired", id)
	}

	session := Session{
		ID:        id,
		UserID:    userID,
		Username:  username,
		CreatedAt: time.Now(),
		ExpiresAt: expiresAt,
	}

	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	setCmd := m.client.B().Set().
		Key(sessionKey(id)).
		Value(string(data)).
		ExSeconds(ttl).
		Build()

	if err := m.client.Do(ctx, setCmd).Error(); err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	saddCmd := m.client.B().Sadd().
		Key(userSessionsKey(userID)).
		Member(id).
		Build()

	if err := m.client.Do(ctx, saddCmd).Error(); err != nil {
		return fmt.Errorf("failed to index session: %w", err)
	}

	return nil
}

// GetSession retrieves a refresh session
func (m *Manager) GetSession(ctx context.Context, id string) (*Session, error) {
	getCmd := m.client.B().Get().Key(sessionKey(id)).Build()

	result := m.client.Do(ctx, getCmd)

	if err := result.Error(); err != nil {
		if valkey.IsValkeyNil(err) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	data, err := result.ToString()
	if err != nil {
		return nil, fmt.Errorf("failed to parse session data: %w", err)
	}

	var session Session
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}

	return &session, nil
}

// DeleteSession revokes one refresh session
func (m *Manager) DeleteSession(ctx context.Context, id string) error {
	session, err := m.GetSession(ctx, id)
	if err != nil {
		return err
	}

	delCmd := m.client.B().Del().Key(sessionKey(id)).Build()

	if err := m.client.Do(ctx, delCmd).Error(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	sremCmd := m.client.B().Srem().
		Key(userSessionsKey(session.UserID)).
		Member(id).
		Build()

	if err := m.client.Do(ctx, sremCmd).Error(); err != nil {
		return fmt.Errorf("failed to unindex session: %w", err)
	}

	return nil
}

// DeleteUserSessions revokes every refresh session of a user
func (m *Manager) DeleteUserSessions(ctx context.Context, userID uuid.UUID) error {
	membersCmd := m.client.B().Smembers().Key(userSessionsKey(userID)).Build()

	ids, err := m.client.Do(ctx, membersCmd).AsStrSlice()
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}

	keys := make([]string, 0, len(ids)+1)
	for _, id := range ids {
		keys = append(keys, sessionKey(id))
	}
	keys = append(keys, userSessionsKey(userID))

	delCmd := m.client.B().Del().Key(keys...).Build()

	if err := m.client.Do(ctx, delCmd).Error(); err != nil {
		return fmt.Errorf("failed to delete sessions: %w", err)
	}

	return nil
}

// Close closes the client connection
func (m *Manager) Close() {
	m.client.Close()
}
