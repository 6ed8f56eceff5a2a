package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/rx3lixir/golos/internal/content"
	"github.com/rx3lixir/golos/internal/session"
	"github.com/rx3lixir/golos/pkg/jwt"
)

// 32 MiB covers a few minutes of compressed audio
const defaultMaxUpload = 32 << 20

// SessionStore keeps refresh token sessions
type SessionStore interface {
	CreateSession(ctx context.Context, id string, userID uuid.UUID, username string, expiresAt time.Time) error
	GetSession(ctx context.Context, id string) (*session.Session, error)
	DeleteSession(ctx context.Context, id string) error
	DeleteUserSessions(ctx context.Context, userID uuid.UUID) error
}

// Check reports whether a dependency is reachable
type Check func(ctx context.Context) error

type Server struct {
	svc        *content.Service
	tokens     *jwt.Service
	sessions   SessionStore
	log        *log.Logger
	checks     map[string]Check
	maxUpload  int64
	httpServer *http.Server
}

func New(addr string, svc *content.Service, tokens *jwt.Service, sessions SessionStore, logger *log.Logger) *Server {
	s := &Server{
		svc:       svc,
		tokens:    tokens,
		sessions:  sessions,
		log:       logger.With("component", "http"),
		checks:    make(map[string]Check),
		maxUpload: defaultMaxUpload,
	}

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.setupRoutes(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// AddCheck registers a dependency probed by /health/ready
func (s *Server) AddCheck(name string, check Check) {
	s.checks[name] = check
}

// Handler exposes the router, mostly for tests
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) Start() error {
	s.log.Info("HTTP server starting", "addr", s.httpServer.Addr)

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
