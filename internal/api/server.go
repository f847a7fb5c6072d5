// Package api provides the HTTP API server and handlers for the TagLink service.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/taglink/taglink-server/internal/store"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	store    store.Store
	services *Services
	router   *chi.Mux
	api      huma.API
	logger   *slog.Logger

	// authRateLimiter throttles credential guessing and tag code probing
	// per client IP.
	authRateLimiter *RateLimiter
}

// NewServer creates a new HTTP server with all routes configured. The stream
// handler serves the live notification feed and may be nil when no stream is
// wired, such as in tests.
func NewServer(store store.Store, services *Services, stream http.Handler, logger *slog.Logger) *Server {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Compress(5))
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	router.Use(RateLimitMiddleware(NewRateLimiter(600, time.Minute, 100), logger))
	router.Use(authMiddleware(services.Auth))

	humaConfig := huma.DefaultConfig("TagLink API", "1.0.0")
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "PASETO",
		},
	}

	api := humachi.New(router, humaConfig)
	RegisterErrorHandler()

	s := &Server{
		store:           store,
		services:        services,
		router:          router,
		api:             api,
		logger:          logger,
		authRateLimiter: NewRateLimiter(20, time.Minute, 10),
	}

	s.registerHealthRoutes()
	s.registerAuthRoutes()
	s.registerTagRoutes()
	s.registerModuleRoutes()
	s.registerTransferRoutes()
	s.registerFollowRoutes()
	s.registerNotificationRoutes()
	s.registerAdminRoutes()

	// The SSE stream bypasses huma, it writes raw text/event-stream frames.
	if stream != nil {
		router.Get("/api/v1/notifications/stream", stream.ServeHTTP)
	}

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// allowSensitiveAttempt rate limits auth and claim attempts by client IP.
func (s *Server) allowSensitiveAttempt(xForwardedFor, xRealIP, remoteAddr string) error {
	key := extractIP(xForwardedFor, xRealIP)
	if key == "" {
		key = remoteAddr
	}
	if key == "" {
		key = "unknown"
	}
	if !s.authRateLimiter.Allow(key) {
		s.logger.Warn("rate limit exceeded", "ip", key)
		return huma.Error429TooManyRequests("Too many attempts. Please try again later.")
	}
	return nil
}

// extractIP returns the client IP from forwarding headers.
func extractIP(xForwardedFor, xRealIP string) string {
	if xForwardedFor != "" {
		for i := 0; i < len(xForwardedFor); i++ {
			if xForwardedFor[i] == ',' {
				return xForwardedFor[:i]
			}
		}
		return xForwardedFor
	}
	return xRealIP
}
