// Package web provides the HTTP server and handlers for the link board and
// the sentiment dashboard API.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"github.com/JonMunkholm/linkboard/internal/config"
	"github.com/JonMunkholm/linkboard/internal/core"
	"github.com/JonMunkholm/linkboard/internal/session"
	webmw "github.com/JonMunkholm/linkboard/internal/web/middleware"
)

// Server is the HTTP server for the application.
type Server struct {
	service  *core.Service
	sessions *session.Store
	cfg      *config.Config
	router   *chi.Mux
	server   *http.Server
}

// NewServer creates a new Server instance.
func NewServer(service *core.Service, sessions *session.Store, cfg *config.Config) *Server {
	s := &Server{
		service:  service,
		sessions: sessions,
		cfg:      cfg,
		router:   chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(webmw.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(webmw.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	s.router.Use(middleware.Timeout(s.cfg.Server.RequestTimeout))
	s.router.Use(securityHeaders(s.cfg.Security.EnableCSP))

	if s.cfg.Rate.Enabled {
		limiter := newRateLimiter(s.cfg.Rate.RequestsPerMinute, s.cfg.Rate.Burst)
		s.router.Use(limiter.middleware)
	}
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/login", s.handleLogin)
		r.Post("/logout", s.handleLogout)

		r.Post("/links", s.handleCreateLink)
		r.Get("/links/search", s.handleSearchLinks)
		r.Get("/links/{key}", s.handleResolveLink)

		r.Group(func(r chi.Router) {
			r.Use(webmw.RequireSession(s.sessions, s.cfg.Session.CookieName))

			r.Get("/me", s.handleMe)

			r.Route("/analysis", func(r chi.Router) {
				upload := r.With()
				if s.cfg.Rate.Enabled && s.cfg.Rate.UploadLimit > 0 {
					upload = r.With(newRateLimiter(s.cfg.Rate.UploadLimit, s.cfg.Rate.UploadLimit).middleware)
				}
				upload.Post("/upload", s.handleUpload)

				r.Get("/view", s.handleView)
				r.Get("/options", s.handleOptions)
				r.Post("/reset", s.handleReset)
				r.Get("/export", s.handleExport)
				r.Get("/charts", s.handleCharts)
			})
		})
	})

	// Pages
	s.router.Get("/getlink", s.handleGetLinkPage)
	s.router.Get("/{key}", s.handleButtonPage)
}

// Start begins listening for HTTP requests.
func (s *Server) Start(addr string) error {
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	slog.Info("starting server", "addr", addr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// securityHeaders adds security headers to all responses.
func securityHeaders(csp bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
			if csp {
				// Pages carry their own inline styles and no scripts.
				w.Header().Set("Content-Security-Policy", "default-src 'self'; style-src 'self' 'unsafe-inline'; img-src 'self' data:")
			}
			next.ServeHTTP(w, r)
		})
	}
}

// rateLimiter keeps one token bucket per client IP. Idle buckets expire
// from the cache.
type rateLimiter struct {
	limit    rate.Limit
	burst    int
	visitors *gocache.Cache
}

// newRateLimiter allows perMinute requests per minute per IP with the given
// burst.
func newRateLimiter(perMinute, burst int) *rateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &rateLimiter{
		limit:    rate.Every(time.Minute / time.Duration(max(perMinute, 1))),
		burst:    burst,
		visitors: gocache.New(10*time.Minute, 5*time.Minute),
	}
}

func (rl *rateLimiter) limiter(ip string) *rate.Limiter {
	if v, ok := rl.visitors.Get(ip); ok {
		rl.visitors.Set(ip, v, gocache.DefaultExpiration)
		return v.(*rate.Limiter)
	}
	l := rate.NewLimiter(rl.limit, rl.burst)
	if err := rl.visitors.Add(ip, l, gocache.DefaultExpiration); err != nil {
		if v, ok := rl.visitors.Get(ip); ok {
			return v.(*rate.Limiter)
		}
	}
	return l
}

// middleware returns an HTTP middleware that rate limits by IP. The IP is
// the RemoteAddr as rewritten by TrustedRealIP.
func (rl *rateLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		l := rl.limiter(webmw.ClientIP(r))
		res := l.Reserve()
		if delay := res.Delay(); delay > 0 {
			res.Cancel()
			w.Header().Set("Retry-After", strconv.Itoa(int(delay.Seconds())+1))
			respondErrorJSON(w, core.MapError(errRateLimited), http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// writeJSON encodes v as JSON and writes it to w.
// Logs encoding errors since headers are already sent.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}
