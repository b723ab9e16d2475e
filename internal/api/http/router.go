package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	log "github.com/sirupsen/logrus"

	"github.com/mind-engage/mindengage-quiz/internal/attempt"
	auth "github.com/mind-engage/mindengage-quiz/internal/auth/middleware"
	"github.com/mind-engage/mindengage-quiz/internal/lesson"
	"github.com/mind-engage/mindengage-quiz/internal/metrics"
	"github.com/mind-engage/mindengage-quiz/internal/rbac"
	"github.com/mind-engage/mindengage-quiz/internal/storage"
)

type Deps struct {
	Auth     *auth.AuthService
	Lessons  lesson.Store
	Attempts *attempt.Service
	Blobs    storage.BlobStore
	Metrics  *metrics.Metrics

	AdminUser     string
	AdminPassHash string
	EnableGuest   bool
	CORSOrigins   []string

	// Ready checks back /readyz; each gets a short deadline.
	Ready map[string]func(context.Context) error
}

func NewRouter(d Deps) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Post("/auth/login", auth.LoginHandler(d.Auth, d.AdminUser, d.AdminPassHash))
	r.Post("/auth/guest", auth.GuestLoginHandler(d.Auth, d.EnableGuest))

	authn := auth.JWTMiddleware(d.Auth)
	r.Route("/media", func(mr chi.Router) {
		MountMedia(mr, d.Blobs, authn)
	})

	// Protected API (JWT → role in context → RBAC)
	r.Group(func(pr chi.Router) {
		pr.Use(authn)

		pr.With(rbac.Require(rbac.PermLessonView)).
			Get("/lessons", ListLessonsHandler(d.Lessons))
		pr.With(rbac.Require(rbac.PermLessonView)).
			Get("/lessons/{lessonID}", GetLessonHandler(d.Lessons, d.Blobs))
		pr.With(rbac.Require(rbac.PermLessonCreate)).
			Post("/lessons", UploadLessonHandler(d.Lessons))

		pr.With(rbac.Require(rbac.PermAttemptCreate)).
			Post("/attempts", StartAttemptHandler(d.Attempts, d.Blobs))
		pr.Route("/attempts/{attemptID}", func(ar chi.Router) {
			ar.With(rbac.Require(rbac.PermAttemptPlay)).
				Put("/answers/{questionID}", SetAnswerHandler(d.Attempts, d.Blobs))
			ar.With(rbac.Require(rbac.PermAttemptPlay)).
				Post("/check", CheckHandler(d.Attempts, d.Blobs))
			ar.With(rbac.Require(rbac.PermAttemptPlay)).
				Post("/next", NextHandler(d.Attempts, d.Blobs))
			ar.With(rbac.Require(rbac.PermAttemptPlay)).
				Post("/reset-feedback", ResetFeedbackHandler(d.Attempts, d.Blobs))
			ar.With(rbac.RequireAny(rbac.PermAttemptOwn, rbac.PermAttemptAll)).
				Get("/", GetAttemptHandler(d.Attempts, d.Blobs))
			ar.With(rbac.RequireAny(rbac.PermAttemptOwn, rbac.PermAttemptAll)).
				Get("/submissions", ListSubmissionsHandler(d.Attempts))
		})
		pr.With(rbac.RequireAny(rbac.PermAttemptOwn, rbac.PermAttemptAll)).
			Get("/attempts", ListAttemptsHandler(d.Attempts))
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/readyz", readyHandler(d.Ready))
	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics.Handler())
	}
	return r
}

func readyHandler(checks map[string]func(context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		failed := map[string]string{}
		for name, check := range checks {
			if err := check(ctx); err != nil {
				log.WithField("check", name).WithError(err).Warn("readiness check failed")
				failed[name] = err.Error()
			}
		}
		if len(failed) > 0 {
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "unavailable", "failed": failed})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
