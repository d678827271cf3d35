package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimid "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/projectnexus/nexus/internal/infrastructure/http/handlers"
	"github.com/projectnexus/nexus/internal/infrastructure/http/middleware"
)

// APIVersion is reported in X-API-Version.
const APIVersion = "1"

type RouterConfig struct {
	AuthHandler          *handlers.AuthHandler
	HealthHandler        *handlers.HealthHandler
	UsersHandler         *handlers.UsersHandler
	ProjectsHandler      *handlers.ProjectsHandler
	VersionsHandler      *handlers.VersionsHandler
	ActivitiesHandler    *handlers.ActivitiesHandler
	NotificationsHandler *handlers.NotificationsHandler
	RequireJWT           func(http.Handler) http.Handler // bearer JWT for everything but auth, share and probes
	Log                  zerolog.Logger
	Secure               func(http.Handler) http.Handler
	CORS                 func(http.Handler) http.Handler
	IPRateLimit          func(http.Handler) http.Handler
	UserRateLimit        func(http.Handler) http.Handler
	Observer             middleware.HTTPObserver
	Metrics              http.Handler // served at /metrics when set
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(chimid.RequestID)
	r.Use(chimid.RealIP)
	r.Use(loggerMiddleware(cfg.Log))
	r.Use(chimid.Recoverer)
	if cfg.Observer != nil {
		r.Use(middleware.Prometheus(cfg.Observer))
	}
	if cfg.Secure != nil {
		r.Use(cfg.Secure)
	}
	if cfg.CORS != nil {
		r.Use(cfg.CORS)
	}
	r.Use(middleware.APIVersion(APIVersion))

	if cfg.HealthHandler != nil {
		r.Get("/health", cfg.HealthHandler.ServeHTTP)
	} else {
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		})
	}
	if cfg.Metrics != nil {
		r.Handle("/metrics", cfg.Metrics)
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(chimid.AllowContentType("application/json", "multipart/form-data"))
		r.Use(middleware.NoStore)
		if cfg.IPRateLimit != nil {
			r.Use(cfg.IPRateLimit)
		}

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", cfg.AuthHandler.Register)
			r.Post("/login", cfg.AuthHandler.Login)
		})
		r.Get("/share/{token}", cfg.ProjectsHandler.ResolveShare)

		r.Group(func(r chi.Router) {
			r.Use(cfg.RequireJWT)
			if cfg.UserRateLimit != nil {
				r.Use(cfg.UserRateLimit)
			}

			r.Route("/users", func(r chi.Router) {
				r.Get("/me", cfg.UsersHandler.Me)
				r.Get("/search", cfg.UsersHandler.Search)
				r.Put("/profile", cfg.UsersHandler.UpdateProfile)
				r.Put("/password", cfg.UsersHandler.ChangePassword)
			})

			r.Route("/projects", func(r chi.Router) {
				r.Get("/", cfg.ProjectsHandler.List)
				r.Post("/", cfg.ProjectsHandler.Create)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", cfg.ProjectsHandler.Get)
					r.Put("/", cfg.ProjectsHandler.Update)
					r.Delete("/", cfg.ProjectsHandler.Delete)
					r.Post("/users", cfg.ProjectsHandler.AddUser)
					r.Delete("/users/{userId}", cfg.ProjectsHandler.RemoveUser)
					r.Post("/request-access", cfg.ProjectsHandler.RequestAccess)
					r.Get("/access-requests", cfg.ProjectsHandler.ListRequests)
					r.Put("/access-requests/{requestId}", cfg.ProjectsHandler.HandleRequest)
					r.Post("/share", cfg.ProjectsHandler.Share)

					r.Route("/versions", func(r chi.Router) {
						r.Get("/", cfg.VersionsHandler.List)
						r.Post("/", cfg.VersionsHandler.Create)
						r.Post("/upload-file", cfg.VersionsHandler.UploadFile)
						r.Get("/upload-url", cfg.VersionsHandler.UploadURL)
						r.Get("/{vid}", cfg.VersionsHandler.Get)
						r.Put("/{vid}/status", cfg.VersionsHandler.UpdateStatus)
						r.Delete("/{vid}", cfg.VersionsHandler.Delete)
						r.Post("/{vid}/revert", cfg.VersionsHandler.Revert)
					})
				})
			})

			r.Route("/activities", func(r chi.Router) {
				r.Get("/project/{id}", cfg.ActivitiesHandler.List)
				r.Get("/timeline/{id}", cfg.ActivitiesHandler.Timeline)
			})

			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", cfg.NotificationsHandler.List)
				r.Get("/stream", cfg.NotificationsHandler.Stream)
				r.Put("/read-all", cfg.NotificationsHandler.MarkAllRead)
				r.Put("/{id}", cfg.NotificationsHandler.MarkRead)
			})
		})
	})

	return r
}

func loggerMiddleware(log zerolog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimid.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.Info().
				Str("request_id", chimid.GetReqID(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Dur("duration", time.Since(start)).
				Msg("request")
		})
	}
}
