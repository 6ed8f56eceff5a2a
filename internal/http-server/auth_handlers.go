package httpserver

import (
	"errors"
	"net/http"

	"github.com/rx3lixir/golos/internal/content"
	"github.com/rx3lixir/golos/internal/db"
	"github.com/rx3lixir/golos/internal/session"
)

func (s *Server) HandleSignup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := decodeJSON(r, &req); err != nil {
		s.handleError(w, r, err)
		return
	}

	user, err := s.svc.Register(r.Context(), content.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	s.issueTokens(w, r, http.StatusCreated, user)
}

func (s *Server) HandleSignin(w http.ResponseWriter, r *http.Request) {
	var req SigninRequest
	if err := decodeJSON(r, &req); err != nil {
		s.handleError(w, r, err)
		return
	}

	user, err := s.svc.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	s.issueTokens(w, r, http.StatusOK, user)
}

// HandleRefreshToken rotates a refresh token: the presented session is
// revoked and a new pair is issued
func (s *Server) HandleRefreshToken(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := decodeJSON(r, &req); err != nil {
		s.handleError(w, r, err)
		return
	}

	claims, err := s.tokens.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		s.respondError(w, http.StatusUnauthorized, "invalid refresh token")
		return
	}

	if err := s.sessions.DeleteSession(r.Context(), claims.ID); err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			s.respondError(w, http.StatusUnauthorized, "session expired or revoked")
			return
		}
		s.handleError(w, r, err)
		return
	}

	user, err := s.svc.Current(r.Context(), claims.UserID)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	s.issueTokens(w, r, http.StatusOK, user)
}

func (s *Server) HandleLogout(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := decodeJSON(r, &req); err != nil {
		s.handleError(w, r, err)
		return
	}

	claims, err := s.tokens.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		s.respondError(w, http.StatusUnauthorized, "invalid refresh token")
		return
	}

	err = s.sessions.DeleteSession(r.Context(), claims.ID)
	if err != nil && !errors.Is(err, session.ErrSessionNotFound) {
		s.handleError(w, r, err)
		return
	}

	s.log.Info("User logged out", "user_id", claims.UserID)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) issueTokens(w http.ResponseWriter, r *http.Request, status int, user *db.User) {
	pair, err := s.tokens.GeneratePair(user.ID, user.Name)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	err = s.sessions.CreateSession(r.Context(), pair.RefreshTokenID, user.ID, user.Name, pair.RefreshExpiresAt)
	if err != nil {
		s.handleError(w, r, &content.DependencyError{Dependency: "session store", Err: err})
		return
	}

	s.respondData(w, status, AuthResponse{User: user, Tokens: pair})
}
