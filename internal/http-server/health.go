package httpserver

import (
	"context"
	"net/http"
	"time"
)

func (s *Server) HandleLive(w http.ResponseWriter, r *http.Request) {
	s.respondData(w, http.StatusOK, map[string]string{"state": "ok"})
}

// HandleReady probes every registered dependency
func (s *Server) HandleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	results := make(map[string]string, len(s.checks))
	healthy := true

	for name, check := range s.checks {
		if err := check(ctx); err != nil {
			s.log.Warn("Readiness check failed", "dependency", name, "error", err)
			results[name] = err.Error()
			healthy = false
			continue
		}
		results[name] = "ok"
	}

	if !healthy {
		s.respondJSON(w, http.StatusServiceUnavailable, envelope{
			Status:  statusError,
			Data:    results,
			Message: "dependencies unavailable",
		})
		return
	}

	s.respondData(w, http.StatusOK, results)
}
