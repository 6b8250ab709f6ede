// internal/httpserver/routes_history.go
//
// History routes backed by sqlite.
//   - GET /leaderboard      → fastest finished runs (limit=<n>, max 100)
//   - GET /state/history    → the caller's recent events (limit=<n>)
//
// Both flush queued writes before reading. Without a history store they
// answer with empty lists.

package httpserver

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/firstlight/internal/history"
)

const maxListLimit = 100

// mountHistory registers the public leaderboard. The per-session event log
// lives under /state and is registered by mountGame.
func (s *Server) mountHistory(r chi.Router) {
	r.Get("/leaderboard", s.handleLeaderboard)
}

// listLimit parses limit=<n>, clamped to [1, maxListLimit]. def applies when absent.
func listLimit(r *http.Request, def int) (int, bool) {
	v := r.URL.Query().Get("limit")
	if v == "" {
		return def, true
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, false
	}
	return min(n, maxListLimit), true
}

// handleLeaderboard returns the top runs.
func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit, ok := listLimit(r, 20)
	if !ok {
		http.Error(w, `{"error":"bad_limit"}`, http.StatusBadRequest)
		return
	}
	out := []history.LBRow{}
	if s.opts.History != nil {
		rows, err := s.opts.History.Leaderboard(r.Context(), limit)
		if err != nil {
			log.Error().Err(err).Msg("leaderboard query")
			http.Error(w, `{"error":"db_error"}`, http.StatusInternalServerError)
			return
		}
		out = append(out, rows...)
	}
	_ = json.NewEncoder(w).Encode(out)
}

// handleSessionHistory returns the caller's persisted events.
func (s *Server) handleSessionHistory(w http.ResponseWriter, r *http.Request) {
	limit, ok := listLimit(r, maxListLimit)
	if !ok {
		http.Error(w, `{"error":"bad_limit"}`, http.StatusBadRequest)
		return
	}
	out := []history.EventRow{}
	if s.opts.History != nil {
		rows, err := s.opts.History.Events(r.Context(), sessionFrom(r).ID, limit)
		if err != nil {
			log.Error().Err(err).Msg("session history query")
			http.Error(w, `{"error":"db_error"}`, http.StatusInternalServerError)
			return
		}
		out = append(out, rows...)
	}
	_ = json.NewEncoder(w).Encode(out)
}
