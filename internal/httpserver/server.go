// internal/httpserver/server.go
//
// HTTP server wiring for the First Light backend.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs).
//   - Public endpoints: "/", "/health", "/leaderboard".
//   - Session endpoints: /glyphs, /transmissions, /state, /config (cookie session).
//   - Admin endpoints: /admin/* behind bcrypt basic auth (optional).
//
// Notes:
//   - CORS is origin-aware and credentials-enabled (so cookies work).
//   - Every game command answers with the full state; the core never fails
//     a command, so only transport problems produce 4xx.

package httpserver

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/robalobadob/firstlight/internal/catalog"
	"github.com/robalobadob/firstlight/internal/decoy"
	"github.com/robalobadob/firstlight/internal/history"
	"github.com/robalobadob/firstlight/internal/store"
)

// Options are the server's dependencies.
type Options struct {
	Content  *catalog.Bundle
	Decoys   *decoy.Generator
	Sessions store.Store
	History  *history.Writer // nil disables persistence

	ClientOrigin  string
	SessionSecret string
	SessionTTL    time.Duration
	SecureCookies bool

	AdminUser         string
	AdminPasswordHash string // empty disables /admin
}

// Server bundles router, session store and content.
type Server struct {
	r    *chi.Mux
	opts Options
	now  func() time.Time
}

// New constructs a Server, installs middleware, and registers routes.
func New(opts Options) *Server {
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 30 * 24 * time.Hour
	}
	s := &Server{r: chi.NewRouter(), opts: opts, now: time.Now}

	// --- middleware ---
	s.r.Use(chimw.RequestID)                 // add X-Request-ID
	s.r.Use(chimw.RealIP)                    // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(chimw.Recoverer)                 // recover from panics
	s.r.Use(chimw.Timeout(10 * time.Second)) // bound handler time
	s.r.Use(jsonContentType)                 // default JSON responses
	s.r.Use(cors(opts.ClientOrigin))         // credentials-friendly CORS

	// --- diagnostics ---
	s.r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"service":"firstlight","endpoints":["/health","/glyphs","/transmissions","/state","/leaderboard"]}`))
	})
	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"ok":            true,
			"sessions":      s.opts.Sessions.Len(),
			"transmissions": s.opts.Content.Transmissions.Len(),
			"glyphs":        len(s.opts.Content.Glyphs),
			"history":       s.opts.History != nil,
		})
	})

	s.mountHistory(s.r)

	// Game endpoints, all scoped to the caller's session.
	s.r.Group(func(r chi.Router) {
		r.Use(s.withSession)
		s.mountGame(r)
		if s.opts.AdminPasswordHash != "" {
			s.mountAdmin(r)
		}
	})

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"not_found"}`, http.StatusNotFound)
	})

	return s
}

// Start begins serving HTTP on addr.
func (s *Server) Start(addr string) error { return http.ListenAndServe(addr, s.r) }

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// cors enables credentialed CORS for a single origin.
func cors(origin string) func(http.Handler) http.Handler {
	if origin == "" {
		origin = "http://localhost:5173"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
