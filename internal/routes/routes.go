package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/AnshRaj112/grow-backend/internal/handlers"
	"github.com/AnshRaj112/grow-backend/internal/metrics"
	"github.com/AnshRaj112/grow-backend/internal/middleware"
)

// Router holds everything the HTTP surface needs.
type Router struct {
	AllowedOrigins []string
	Production     bool
	RequestTimeout time.Duration
	Log            *zap.Logger

	Sessions    middleware.SessionValidator
	RateLimiter *middleware.RateLimiter
	AuthLimiter *middleware.RateLimiter

	Journal *handlers.JournalHandler
	Gallery *handlers.GalleryHandler
	Upload  *handlers.UploadHandler
	Auth    *handlers.AuthHandler
	Events  *handlers.EventsHandler
}

func (rt Router) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(middleware.RequestLogger(rt.Log))
	r.Use(chimw.Recoverer)
	r.Use(metrics.InstrumentHandler)
	r.Use(middleware.CORS(rt.AllowedOrigins))
	r.Use(middleware.SecurityHeaders(rt.Production))

	// Health check (no rate limit). Metrics are served on the internal listener only.
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	// Live change feed; authenticates itself and must not be cut off by the request timeout.
	r.With(rt.RateLimiter.Handler).Get("/ws/entries", rt.Events.Stream)

	r.Route("/api", func(r chi.Router) {
		r.Use(rt.RateLimiter.Handler)
		r.Use(chimw.Timeout(rt.RequestTimeout))

		r.Group(func(r chi.Router) {
			r.Use(rt.AuthLimiter.Handler)
			r.Post("/auth/signup", rt.Auth.Signup)
			r.Post("/auth/signin", rt.Auth.Signin)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireSession(rt.Sessions, rt.Log))

			r.Post("/auth/signout", rt.Auth.Signout)
			r.Get("/auth/me", rt.Auth.Me)

			// Journal entries
			r.Get("/entries", rt.Journal.GetEntries)
			r.Post("/entries", rt.Journal.CreateEntry)
			r.Put("/entries", rt.Journal.UpdateEntry)
			r.Delete("/entries", rt.Journal.DeleteEntry)
			r.Patch("/entries", rt.Journal.AddImages)

			// Gallery
			r.Get("/images", rt.Gallery.List)
			r.Post("/images", rt.Gallery.Add)
			r.Delete("/images", rt.Gallery.Remove)

			// File upload routes
			r.Post("/upload", rt.Upload.Upload)
		})
	})

	return r
}

// MetricsHandler serves /metrics for the internal listener.
func MetricsHandler() http.Handler {
	r := chi.NewRouter()
	r.Handle("/metrics", metrics.Handler())
	return r
}
