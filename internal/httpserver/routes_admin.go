// internal/httpserver/routes_admin.go
//
// Debug routes for the caller's own session, behind HTTP basic auth checked
// against a bcrypt hash. Mounted only when ADMIN_PASSWORD_HASH is set.
//   - GET  /admin/unlocking   → processed transmissions + per-transmission split
//   - POST /admin/unlock-all  → reveal every glyph
//   - GET  /admin/sessions    → live session count

package httpserver

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/robalobadob/firstlight/internal/game"
)

// mountAdmin registers /admin routes behind requireAdmin.
func (s *Server) mountAdmin(r chi.Router) {
	r.Route("/admin", func(r chi.Router) {
		r.Use(s.requireAdmin)
		r.Get("/unlocking", s.handleUnlocking)
		r.Post("/unlock-all", s.handleUnlockAll)
		r.Get("/sessions", func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(map[string]int{"sessions": s.opts.Sessions.Len()})
		})
	})
}

// requireAdmin enforces basic auth against the configured user and bcrypt hash.
func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pw, ok := r.BasicAuth()
		if !ok || !s.checkAdmin(user, pw) {
			w.Header().Set("WWW-Authenticate", `Basic realm="firstlight-admin"`)
			http.Error(w, `{"error":"Unauthorized"}`, http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// checkAdmin is a constant-time user compare plus a bcrypt verify.
func (s *Server) checkAdmin(user, pw string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(user), []byte(s.opts.AdminUser)) == 1
	pwOK := bcrypt.CompareHashAndPassword([]byte(s.opts.AdminPasswordHash), []byte(pw)) == nil
	return userOK && pwOK
}

type unlockSplit struct {
	TransmissionID int      `json:"transmissionId"`
	Processed      bool     `json:"processed"`
	Unlocked       []string `json:"unlocked"`
	Locked         []string `json:"locked"`
}

type unlockingRes struct {
	Processed      []int         `json:"processed"`
	UnlockedGlyphs []string      `json:"unlockedGlyphs"`
	Transmissions  []unlockSplit `json:"transmissions"`
}

// handleUnlocking dumps the session's unlock engine.
func (s *Server) handleUnlocking(w http.ResponseWriter, r *http.Request) {
	var res unlockingRes
	sessionFrom(r).Do(func(m *game.Machine) {
		u := m.Unlocks()
		res.Processed = u.ProcessedIDs()
		res.UnlockedGlyphs = u.UnlockedIDs()
		for _, t := range m.Catalog().All() {
			res.Transmissions = append(res.Transmissions, unlockSplit{
				TransmissionID: t.ID,
				Processed:      u.Processed(t.ID),
				Unlocked:       nonNil(u.UnlockedIn(t.ID)),
				Locked:         nonNil(u.LockedIn(t.ID)),
			})
		}
	})
	_ = json.NewEncoder(w).Encode(res)
}

// handleUnlockAll reveals every glyph in the caller's session.
func (s *Server) handleUnlockAll(w http.ResponseWriter, r *http.Request) {
	var (
		n   int
		res stateRes
	)
	sessionFrom(r).Do(func(m *game.Machine) {
		n = m.RevealAll()
		res = stateOf(m)
	})
	_ = json.NewEncoder(w).Encode(map[string]any{"revealed": n, "state": res.State, "progress": res.Progress})
}
