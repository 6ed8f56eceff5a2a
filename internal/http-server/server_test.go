package httpserver_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rx3lixir/golos/internal/content"
	httpserver "github.com/rx3lixir/golos/internal/http-server"
	"github.com/rx3lixir/golos/internal/session"
	"github.com/rx3lixir/golos/internal/testutil"
	"github.com/rx3lixir/golos/pkg/jwt"
)

type memSessions struct {
	mu       sync.Mutex
	sessions map[string]*session.Session
}

func (m *memSessions) CreateSession(_ context.Context, id string, userID uuid.UUID, username string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[id] = &session.Session{ID: id, UserID: userID, Username: username, ExpiresAt: expiresAt}
	return nil
}

func (m *memSessions) GetSession(_ context.Context, id string) (*session.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, session.ErrSessionNotFound
	}
	return s, nil
}

func (m *memSessions) DeleteSession(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return session.ErrSessionNotFound
	}
	delete(m.sessions, id)
	return nil
}

func (m *memSessions) DeleteUserSessions(_ context.Context, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, s := range m.sessions {
		if s.UserID == userID {
			delete(m.sessions, id)
		}
	}
	return nil
}

type testServer struct {
	*httpserver.Server
	handler http.Handler
	store   *testutil.MemStore
	blobs   *testutil.MemBlobs
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	logger := log.New(io.Discard)
	store := testutil.NewMemStore()
	blobs := testutil.NewMemBlobs()

	svc := content.New(content.Deps{
		Store:  store,
		Blobs:  blobs,
		Sink:   &testutil.RecordingSink{},
		Logger: logger,
	})
	t.Cleanup(svc.Notifier().Wait)

	tokens := jwt.NewService("test-secret", 15*time.Minute, time.Hour)
	srv := httpserver.New(":0", svc, tokens, &memSessions{sessions: map[string]*session.Session{}}, logger)

	return &testServer{Server: srv, handler: srv.Handler(), store: store, blobs: blobs}
}

type response struct {
	Status  string          `json:"status"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Field   string          `json:"field"`
}

func (ts *testServer) do(t *testing.T, req *http.Request, token string) (*httptest.ResponseRecorder, response) {
	t.Helper()

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)

	var body response
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	}
	return rec, body
}

func (ts *testServer) doJSON(t *testing.T, method, path, token string, payload any) (*httptest.ResponseRecorder, response) {
	t.Helper()

	data, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(method, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	return ts.do(t, req, token)
}

type file struct {
	field, name, body string
}

func (ts *testServer) doForm(t *testing.T, method, path, token string, fields map[string]string, files ...file) (*httptest.ResponseRecorder, response) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for _, f := range files {
		fw, err := mw.CreateFormFile(f.field, f.name)
		require.NoError(t, err)
		_, err = fw.Write([]byte(f.body))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return ts.do(t, req, token)
}

type authData struct {
	User struct {
		ID    uuid.UUID `json:"id"`
		Email string    `json:"email"`
	} `json:"user"`
	Tokens struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	} `json:"tokens"`
}

func (ts *testServer) signup(t *testing.T, name string) authData {
	t.Helper()

	rec, body := ts.doJSON(t, http.MethodPost, "/api/v1/auth/signup", "", map[string]string{
		"name":     name,
		"email":    strings.ToLower(name) + "@example.com",
		"password": "Secret123!",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var data authData
	require.NoError(t, json.Unmarshal(body.Data, &data))
	return data
}

func (ts *testServer) createRecording(t *testing.T, token string) uuid.UUID {
	t.Helper()

	rec, body := ts.doForm(t, http.MethodPost, "/api/v1/recordings", token,
		map[string]string{"title": "Morning birds", "description": "dawn chorus"},
		file{"audio", "take1.mp3", "ID3audio"},
	)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created struct {
		ID uuid.UUID `json:"id"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &created))
	return created.ID
}

func TestAuthFlow(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.signup(t, "Alice")
	assert.NotEmpty(t, alice.Tokens.AccessToken)

	t.Run("duplicate signup", func(t *testing.T) {
		rec, body := ts.doJSON(t, http.MethodPost, "/api/v1/auth/signup", "", map[string]string{
			"name": "Alice", "email": "alice@example.com", "password": "Secret123!",
		})
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, "fail", body.Status)
	})

	t.Run("bad password", func(t *testing.T) {
		rec, body := ts.doJSON(t, http.MethodPost, "/api/v1/auth/signin", "", map[string]string{
			"email": "alice@example.com", "password": "Nope123!",
		})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "invalid email or password", body.Message)
	})

	t.Run("signin", func(t *testing.T) {
		rec, body := ts.doJSON(t, http.MethodPost, "/api/v1/auth/signin", "", map[string]string{
			"email": "alice@example.com", "password": "Secret123!",
		})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "success", body.Status)
	})

	t.Run("refresh rotates", func(t *testing.T) {
		payload := map[string]string{"refresh_token": alice.Tokens.RefreshToken}

		rec, _ := ts.doJSON(t, http.MethodPost, "/api/v1/auth/refresh", "", payload)
		require.Equal(t, http.StatusOK, rec.Code)

		rec, _ = ts.doJSON(t, http.MethodPost, "/api/v1/auth/refresh", "", payload)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("access token is not a refresh token", func(t *testing.T) {
		rec, _ := ts.doJSON(t, http.MethodPost, "/api/v1/auth/refresh", "", map[string]string{
			"refresh_token": alice.Tokens.AccessToken,
		})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestAuthMiddleware(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.signup(t, "Alice")

	rec, body := ts.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil), "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "fail", body.Status)

	rec, _ = ts.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil), "garbage")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, body = ts.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil), alice.Tokens.AccessToken)
	require.Equal(t, http.StatusOK, rec.Code)

	var me struct {
		ID    uuid.UUID `json:"id"`
		Email string    `json:"email"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &me))
	assert.Equal(t, alice.User.ID, me.ID)
	assert.NotContains(t, string(body.Data), "password")
}

func TestRecordingLifecycle(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.signup(t, "Alice")
	bob := ts.signup(t, "Bob")

	id := ts.createRecording(t, alice.Tokens.AccessToken)
	base := "/api/v1/recordings/" + id.String()

	rec, _ := ts.doForm(t, http.MethodPost, base+"/comments", bob.Tokens.AccessToken,
		map[string]string{"text_comment": "love it"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec, body := ts.doForm(t, http.MethodPost, base+"/comments", bob.Tokens.AccessToken, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "text_comment", body.Field)

	rec, _ = ts.doJSON(t, http.MethodPut, base+"/ratings", bob.Tokens.AccessToken, map[string]int{"rating": 17})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec, _ = ts.doJSON(t, http.MethodPut, base+"/ratings", bob.Tokens.AccessToken, map[string]int{"rating": 30})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, body = ts.do(t, httptest.NewRequest(http.MethodGet, base, nil), bob.Tokens.AccessToken)
	require.Equal(t, http.StatusOK, rec.Code)

	var got struct {
		RatingsAverage   int `json:"ratings_average"`
		RatingsQuantity  int `json:"ratings_quantity"`
		CommentsQuantity int `json:"comments_quantity"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &got))
	assert.Equal(t, 17, got.RatingsAverage)
	assert.Equal(t, 1, got.RatingsQuantity)
	assert.Equal(t, 1, got.CommentsQuantity)

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, base+"/audio", nil)
	req.Header.Set("Authorization", "Bearer "+bob.Tokens.AccessToken)
	ts.handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "audio/mpeg", rec.Header().Get("Content-Type"))
	assert.Equal(t, "ID3audio", rec.Body.String())

	rec, _ = ts.do(t, httptest.NewRequest(http.MethodDelete, base, nil), bob.Tokens.AccessToken)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = ts.do(t, httptest.NewRequest(http.MethodDelete, base, nil), alice.Tokens.AccessToken)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec, _ = ts.do(t, httptest.NewRequest(http.MethodGet, base, nil), alice.Tokens.AccessToken)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	assert.Empty(t, ts.store.Comments)
	assert.Empty(t, ts.store.Ratings)

	rec, body = ts.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/users/me/notifications", nil), alice.Tokens.AccessToken)
	require.Equal(t, http.StatusOK, rec.Code)
	var inbox []json.RawMessage
	require.NoError(t, json.Unmarshal(body.Data, &inbox))
	assert.Len(t, inbox, 2)
}

func TestDeactivateRevokesAccess(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.signup(t, "Alice")
	bob := ts.signup(t, "Bob")
	id := ts.createRecording(t, alice.Tokens.AccessToken)

	rec, _ := ts.do(t, httptest.NewRequest(http.MethodDelete, "/api/v1/users/me", nil), alice.Tokens.AccessToken)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec, _ = ts.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil), alice.Tokens.AccessToken)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = ts.doJSON(t, http.MethodPost, "/api/v1/auth/refresh", "", map[string]string{
		"refresh_token": alice.Tokens.RefreshToken,
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = ts.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/recordings/"+id.String(), nil), bob.Tokens.AccessToken)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestErrorMapping(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.signup(t, "Alice")
	token := alice.Tokens.AccessToken

	t.Run("malformed id", func(t *testing.T) {
		rec, _ := ts.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/recordings/not-a-uuid", nil), token)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("bad json", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/signin", strings.NewReader("{"))
		rec, body := ts.do(t, req, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "body", body.Field)
	})

	t.Run("blob store down", func(t *testing.T) {
		ts.blobs.PutErr = errors.New("connection refused")
		defer func() { ts.blobs.PutErr = nil }()

		rec, body := ts.doForm(t, http.MethodPost, "/api/v1/recordings", token,
			map[string]string{"title": "Morning birds"},
			file{"audio", "take.ogg", "OggS"},
		)
		assert.Equal(t, http.StatusBadGateway, rec.Code)
		assert.Equal(t, "error", body.Status)
	})

	t.Run("aggregate failure", func(t *testing.T) {
		id := ts.createRecording(t, token)
		ts.store.FailOn("RecomputeRecordingRatings", errors.New("deadlock"))
		defer ts.store.FailOn("RecomputeRecordingRatings", nil)

		rec, body := ts.doJSON(t, http.MethodPut, "/api/v1/recordings/"+id.String()+"/ratings", token, map[string]int{"rating": 5})
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "error", body.Status)
	})

	t.Run("not multipart", func(t *testing.T) {
		rec, _ := ts.doJSON(t, http.MethodPost, "/api/v1/recordings", token, map[string]string{"title": "Morning birds"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHealthAndMetrics(t *testing.T) {
	ts := newTestServer(t)

	rec, body := ts.do(t, httptest.NewRequest(http.MethodGet, "/health", nil), "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "success", body.Status)

	ts.AddCheck("postgres", func(context.Context) error { return nil })
	rec, _ = ts.do(t, httptest.NewRequest(http.MethodGet, "/health/ready", nil), "")
	assert.Equal(t, http.StatusOK, rec.Code)

	ts.AddCheck("s3", func(context.Context) error { return errors.New("unreachable") })
	rec, body = ts.do(t, httptest.NewRequest(http.MethodGet, "/health/ready", nil), "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "error", body.Status)

	rec = httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "golos_http_requests_total")
	assert.Contains(t, rec.Body.String(), `route="/health/ready"`)
}

func TestChangePasswordRevokesSessions(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.signup(t, "Alice")

	rec, body := ts.doJSON(t, http.MethodPatch, "/api/v1/users/me/password", alice.Tokens.AccessToken, map[string]string{
		"current_password": "Secret123!",
		"new_password":     "short",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "new_password", body.Field)

	rec, _ = ts.doJSON(t, http.MethodPatch, "/api/v1/users/me/password", alice.Tokens.AccessToken, map[string]string{
		"current_password": "Secret123!",
		"new_password":     "Better456#",
	})
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec, _ = ts.doJSON(t, http.MethodPost, "/api/v1/auth/refresh", "", map[string]string{
		"refresh_token": alice.Tokens.RefreshToken,
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = ts.doJSON(t, http.MethodPost, "/api/v1/auth/signin", "", map[string]string{
		"email": "alice@example.com", "password": "Better456#",
	})
	assert.Equal(t, http.StatusOK, rec.Code)
}
