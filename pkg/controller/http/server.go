package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/secmon-lab/soapnote/pkg/usecase"
	"github.com/secmon-lab/soapnote/pkg/utils/logging"
)

// DefaultMaxBodySize covers a 50 MiB audio recording after base64 expansion
const DefaultMaxBodySize = 72 << 20

type Server struct {
	router      *chi.Mux
	uc          *usecase.UseCases
	maxBodySize int64
}

type Options func(*Server)

// WithMaxBodySize limits the size of request bodies
func WithMaxBodySize(size int64) Options {
	return func(s *Server) {
		if size > 0 {
			s.maxBodySize = size
		}
	}
}

func New(uc *usecase.UseCases, opts ...Options) *Server {
	r := chi.NewRouter()

	s := &Server{
		router:      r,
		uc:          uc,
		maxBodySize: DefaultMaxBodySize,
	}
	for _, opt := range opts {
		opt(s)
	}

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(requestLogger)
	r.Use(accessLogger)
	r.Use(middleware.Recoverer)
	r.Use(bodyLimit(s.maxBodySize))

	r.Get("/health", healthHandler)

	// Served at the root and under /api, the prefix used by existing clients
	s.routes(r)
	r.Route("/api", s.routes)

	return s
}

func (s *Server) routes(r chi.Router) {
	r.Route("/visits", func(r chi.Router) {
		r.Post("/", createVisitHandler(s.uc))
		r.Get("/", listVisitsHandler(s.uc))
		r.Get("/timeline", timelineHandler(s.uc))
		r.Get("/revision", revisionHandler(s.uc))
		r.Get("/{id}", getVisitHandler(s.uc))
	})

	r.Get("/patients/{patient_id}/dashboard", dashboardHandler(s.uc))

	r.Route("/bp-readings", func(r chi.Router) {
		r.Post("/", createBPReadingHandler(s.uc))
		r.Get("/latest", latestBPReadingHandler(s.uc))
		r.Get("/trend", bpTrendHandler(s.uc))
	})
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// accessLogger is a middleware that logs HTTP requests
func accessLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			logging.From(r.Context()).Info("access",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"remote", r.RemoteAddr,
				"user_agent", r.UserAgent(),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), w, http.StatusOK, map[string]bool{"ok": true})
}
