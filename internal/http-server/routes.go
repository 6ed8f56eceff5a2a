package httpserver

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) setupRoutes() *chi.Mux {
	r := chi.NewRouter()

	// Middleware block
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(metricsMiddleware)

	r.Get("/health", s.HandleLive)
	r.Get("/health/ready", s.HandleReady)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		// Public auth routes (no auth required)
		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", s.HandleSignup)
			r.Post("/signin", s.HandleSignin)
			r.Post("/refresh", s.HandleRefreshToken)
			r.Post("/logout", s.HandleLogout)
		})

		// Everything else needs an access token
		r.Group(func(r chi.Router) {
			r.Use(s.AuthMiddleware)

			r.Route("/users", func(r chi.Router) {
				r.Get("/me", s.HandleGetMe)
				r.Patch("/me", s.HandleUpdateMe)
				r.Delete("/me", s.HandleDeactivateMe)
				r.Patch("/me/password", s.HandleChangePassword)
				r.Get("/me/notifications", s.HandleListNotifications)
				r.Post("/me/notifications/read", s.HandleMarkNotificationsRead)
				r.Get("/{id}", s.HandleGetUser)
				r.Get("/{id}/photo", s.HandleUserPhoto)
			})

			r.Route("/recordings", func(r chi.Router) {
				r.Get("/", s.HandleListRecordings)
				r.Post("/", s.HandleCreateRecording)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", s.HandleGetRecording)
					r.Patch("/", s.HandleUpdateRecording)
					r.Delete("/", s.HandleDeleteRecording)
					r.Get("/audio", s.HandleRecordingAudio)

					r.Get("/comments", s.HandleListComments)
					r.Post("/comments", s.HandleCreateComment)

					r.Get("/ratings", s.HandleListRatings)
					r.Put("/ratings", s.HandleRate)
					r.Get("/ratings/me", s.HandleMyRating)
				})
			})

			r.Route("/comments/{id}", func(r chi.Router) {
				r.Get("/", s.HandleGetComment)
				r.Patch("/", s.HandleUpdateComment)
				r.Delete("/", s.HandleDeleteComment)
				r.Get("/voice", s.HandleCommentVoice)
			})

			r.Delete("/ratings/{id}", s.HandleDeleteRating)

			r.Route("/questions", func(r chi.Router) {
				r.Get("/", s.HandleListQuestions)
				r.Post("/", s.HandleCreateQuestion)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", s.HandleGetQuestion)
					r.Patch("/", s.HandleUpdateQuestion)
					r.Delete("/", s.HandleDeleteQuestion)
					r.Get("/voice", s.HandleQuestionVoice)

					r.Get("/answers", s.HandleListAnswers)
					r.Post("/answers", s.HandleCreateAnswer)
				})
			})

			r.Route("/answers/{id}", func(r chi.Router) {
				r.Get("/", s.HandleGetAnswer)
				r.Patch("/", s.HandleUpdateAnswer)
				r.Delete("/", s.HandleDeleteAnswer)
				r.Get("/voice", s.HandleAnswerVoice)
			})
		})
	})

	return r
}
