package httpserver

import (
	"io"
	"net/http"
	"strconv"

	"github.com/rx3lixir/golos/internal/content"
	"github.com/rx3lixir/golos/pkg/s3storage"
)

func (s *Server) HandleGetMe(w http.ResponseWriter, r *http.Request) {
	user, err := s.svc.GetUser(r.Context(), callerID(r))
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	s.respondData(w, http.StatusOK, user)
}

func (s *Server) HandleGetUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "user")
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	user, err := s.svc.GetUser(r.Context(), id)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	// Inbox state is private
	user.UnreadNotifications = 0
	s.respondData(w, http.StatusOK, user)
}

// HandleUpdateMe takes multipart fields name, email and an optional photo file
func (s *Server) HandleUpdateMe(w http.ResponseWriter, r *http.Request) {
	f, err := s.parseForm(w, r)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	defer f.close()

	photo, err := f.upload("photo")
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	user, err := s.svc.UpdateProfile(r.Context(), callerID(r), content.UserPatch{
		Name:  f.optional("name"),
		Email: f.optional("email"),
		Photo: photo,
	})
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	s.respondData(w, http.StatusOK, user)
}

func (s *Server) HandleDeactivateMe(w http.ResponseWriter, r *http.Request) {
	id := callerID(r)

	if err := s.svc.Deactivate(r.Context(), id, id); err != nil {
		s.handleError(w, r, err)
		return
	}

	// Access tokens die with the account through AuthMiddleware; refresh
	// sessions are dropped here
	if err := s.sessions.DeleteUserSessions(r.Context(), id); err != nil {
		s.log.Warn("Failed to revoke sessions", "user_id", id, "error", err)
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleChangePassword signs the caller out everywhere once the password is
// replaced
func (s *Server) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	var req ChangePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		s.handleError(w, r, err)
		return
	}

	id := callerID(r)
	if err := s.svc.ChangePassword(r.Context(), id, req.CurrentPassword, req.NewPassword); err != nil {
		s.handleError(w, r, err)
		return
	}

	if err := s.sessions.DeleteUserSessions(r.Context(), id); err != nil {
		s.log.Warn("Failed to revoke sessions", "user_id", id, "error", err)
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) HandleUserPhoto(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "user")
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	obj, err := s.svc.OpenUserPhoto(r.Context(), id)
	s.stream(w, r, obj, err)
}

func (s *Server) HandleListNotifications(w http.ResponseWriter, r *http.Request) {
	page, err := pageFromQuery(r)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	notifications, err := s.svc.Notifications(r.Context(), callerID(r), page)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	s.respondData(w, http.StatusOK, notifications)
}

func (s *Server) HandleMarkNotificationsRead(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.MarkNotificationsRead(r.Context(), callerID(r)); err != nil {
		s.handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// stream copies a blob to the client
func (s *Server) stream(w http.ResponseWriter, r *http.Request, obj *s3storage.Object, err error) {
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	defer obj.Body.Close()

	w.Header().Set("Content-Type", obj.ContentType)
	if obj.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(obj.Size, 10))
	}
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, obj.Body); err != nil {
		s.log.Warn("Failed to stream blob", "path", r.URL.Path, "error", err)
	}
}
