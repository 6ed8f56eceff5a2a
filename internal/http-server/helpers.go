package httpserver

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/rx3lixir/golos/internal/content"
	"github.com/rx3lixir/golos/internal/db"
)

const (
	statusSuccess = "success"
	statusFail    = "fail"
	statusError   = "error"
)

// envelope wraps every JSON response
type envelope struct {
	Status  string `json:"status"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
	Field   string `json:"field,omitempty"`
}

// respondJSON sends a JSON response with the given status code
func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error("Failed to encode JSON response", "error", err)
	}
}

func (s *Server) respondData(w http.ResponseWriter, status int, data any) {
	s.respondJSON(w, status, envelope{Status: statusSuccess, Data: data})
}

// respondError sends a fail envelope for 4xx and an error envelope for 5xx
func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, envelope{Status: errorStatus(status), Message: message})
}

func errorStatus(code int) string {
	if code >= http.StatusInternalServerError {
		return statusError
	}
	return statusFail
}

// handleError maps the content engine's error types onto HTTP statuses
func (s *Server) handleError(w http.ResponseWriter, r *http.Request, err error) {
	var validationErr *content.ValidationError
	if errors.As(err, &validationErr) {
		s.respondJSON(w, http.StatusBadRequest, envelope{
			Status:  statusFail,
			Message: validationErr.Error(),
			Field:   validationErr.Field,
		})
		return
	}

	var authnErr *content.AuthenticationError
	if errors.As(err, &authnErr) {
		s.respondError(w, http.StatusUnauthorized, authnErr.Error())
		return
	}

	var authzErr *content.AuthorizationError
	if errors.As(err, &authzErr) {
		s.respondError(w, http.StatusForbidden, authzErr.Error())
		return
	}

	var notFoundErr *content.NotFoundError
	if errors.As(err, &notFoundErr) {
		s.respondError(w, http.StatusNotFound, notFoundErr.Error())
		return
	}

	var conflictErr *content.ConflictError
	if errors.As(err, &conflictErr) {
		s.respondError(w, http.StatusConflict, conflictErr.Error())
		return
	}

	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		s.respondError(w, http.StatusRequestEntityTooLarge, "request body is too large")
		return
	}

	var depErr *content.DependencyError
	if errors.As(err, &depErr) {
		s.log.Error("Dependency failure", "path", r.URL.Path, "dependency", depErr.Dependency, "error", depErr.Err)
		s.respondError(w, http.StatusBadGateway, depErr.Dependency+" is unavailable")
		return
	}

	// Default to 500 for unknown errors, aggregate failures included
	s.log.Error("Internal server error", "path", r.URL.Path, "error", err)
	s.respondError(w, http.StatusInternalServerError, "An unexpected error occurred")
}

func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return content.NewValidationError("body", "request body is empty")
		}
		return content.NewValidationError("body", "invalid JSON format")
	}
	return nil
}

func pathID(r *http.Request, resource string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		// A malformed id can never match a row
		return uuid.Nil, content.NewNotFoundError(resource)
	}
	return id, nil
}

// listFilter reads limit, offset, sort and user from the query string
func listFilter(r *http.Request) (db.ListFilter, error) {
	q := r.URL.Query()
	var filter db.ListFilter

	page, err := pageFromQuery(r)
	if err != nil {
		return filter, err
	}
	filter.Page = page

	if raw := q.Get("user"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return filter, content.NewValidationError("user", "user must be a valid id")
		}
		filter.UserID = &id
	}

	filter.Sort = db.RecordingSort(q.Get("sort"))

	return filter, nil
}

func pageFromQuery(r *http.Request) (db.Page, error) {
	q := r.URL.Query()
	var page db.Page

	for _, p := range []struct {
		name string
		dst  *int
	}{{"limit", &page.Limit}, {"offset", &page.Offset}} {
		raw := q.Get(p.name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return page, content.NewValidationError(p.name, "%s must be a non-negative integer", p.name)
		}
		*p.dst = n
	}

	return page.Normalize(), nil
}
