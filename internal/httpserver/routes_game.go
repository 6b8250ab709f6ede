// internal/httpserver/routes_game.go
//
// Session-scoped game routes.
//   - GET  /glyphs, /glyphs/{id}, /glyphs/{id}/choices → lexicon + decoys
//   - GET  /transmissions, /transmissions/{id}          → catalog + unlock split
//   - GET  /state, POST /state/*                        → game state machine
//   - POST /state/score, /chapter, /countdown, /log     → session counters and log
//   - GET  /state/history                               → persisted event log
//   - GET  /config                                      → game settings
//
// Commands always answer 200 with the new state. References the core does
// not know about degrade to a no-op inside the core, so the state simply
// comes back unchanged.

package httpserver

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/robalobadob/firstlight/internal/decoy"
	"github.com/robalobadob/firstlight/internal/game"
	"github.com/robalobadob/firstlight/internal/lexicon"
	"github.com/robalobadob/firstlight/internal/transmission"
)

// mountGame registers lexicon, catalog and state routes.
func (s *Server) mountGame(r chi.Router) {
	r.Route("/glyphs", func(r chi.Router) {
		r.Get("/", s.handleGlyphs)
		r.Get("/{id}", s.handleGlyph)
		r.Get("/{id}/choices", s.handleChoices)
	})
	r.Route("/transmissions", func(r chi.Router) {
		r.Get("/", s.handleTransmissions)
		r.Get("/{id}", s.handleTransmission)
	})
	r.Route("/state", func(r chi.Router) {
		r.Get("/", s.handleState)
		r.Post("/select-glyph", s.command(func(m *game.Machine, req commandReq) { m.SelectGlyph(req.GlyphID) }))
		r.Post("/clear-selections", s.command(func(m *game.Machine, _ commandReq) { m.ClearPersistentSelections() }))
		r.Post("/assign", s.command(func(m *game.Machine, req commandReq) { m.AssignMeaning(req.GlyphID, req.Meaning) }))
		r.Post("/view", s.command(func(m *game.Machine, req commandReq) { m.ViewTransmission(req.TransmissionID) }))
		r.Post("/select-transmission", s.command(func(m *game.Machine, req commandReq) { m.SelectTransmission(req.TransmissionID) }))
		r.Post("/next", s.command(func(m *game.Machine, _ commandReq) { m.NextTransmission() }))
		r.Post("/synchronize", s.command(func(m *game.Machine, req commandReq) { m.MarkTransmissionSynchronized(req.TransmissionID) }))
		r.Post("/reset", s.command(func(m *game.Machine, _ commandReq) { m.Reset() }))
		r.Post("/score", s.command(func(m *game.Machine, req commandReq) { m.UpdateScore(req.Points) }))
		r.Post("/chapter", s.command(func(m *game.Machine, req commandReq) {
			if req.Chapter != nil {
				m.UpdateChapter(*req.Chapter)
			}
		}))
		r.Post("/countdown", s.command(func(m *game.Machine, req commandReq) {
			if req.Seconds != nil {
				m.UpdateCountdown(*req.Seconds)
			}
		}))
		r.Post("/log", s.command(func(m *game.Machine, req commandReq) {
			if req.Log != nil {
				m.AddLog(*req.Log)
			}
		}))
		r.Get("/accuracy/{id}", s.handleAccuracy)
		r.Get("/history", s.handleSessionHistory)
	})
	r.Get("/config", s.handleGameConfig)
}

// ------------------------------- glyphs ------------------------------------

// handleGlyphs lists the session lexicon.
// Query: unlocked=1, q=<search>, min_confidence=<n>.
func (s *Server) handleGlyphs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	onlyUnlocked := q.Get("unlocked") == "1" || q.Get("unlocked") == "true"
	minConf := 0
	if v := q.Get("min_confidence"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			http.Error(w, `{"error":"bad_min_confidence"}`, http.StatusBadRequest)
			return
		}
		minConf = n
	}

	var out []lexicon.Glyph
	sessionFrom(r).Do(func(m *game.Machine) {
		list := m.Lexicon().All()
		if term := strings.TrimSpace(q.Get("q")); term != "" {
			list = m.Lexicon().Search(term)
		}
		out = make([]lexicon.Glyph, 0, len(list))
		for _, g := range list {
			if onlyUnlocked && !g.IsUnlocked {
				continue
			}
			if g.Confidence < minConf {
				continue
			}
			out = append(out, g)
		}
	})
	_ = json.NewEncoder(w).Encode(out)
}

// handleGlyph returns one glyph.
func (s *Server) handleGlyph(w http.ResponseWriter, r *http.Request) {
	var (
		g  lexicon.Glyph
		ok bool
	)
	sessionFrom(r).Do(func(m *game.Machine) { g, ok = m.Lexicon().Glyph(chi.URLParam(r, "id")) })
	if !ok {
		http.Error(w, `{"error":"not_found"}`, http.StatusNotFound)
		return
	}
	_ = json.NewEncoder(w).Encode(g)
}

type choicesRes struct {
	GlyphID string         `json:"glyphId"`
	Active  bool           `json:"active"`
	Options []decoy.Option `json:"options"`
}

// handleChoices builds the multiple-choice set for an unlocked glyph.
// Locked or unknown glyphs have no active set.
func (s *Server) handleChoices(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	res := choicesRes{GlyphID: id, Options: []decoy.Option{}}
	sessionFrom(r).Do(func(m *game.Machine) {
		if opts, ok := m.Choices(id); ok {
			res.Active, res.Options = true, opts
		}
	})
	_ = json.NewEncoder(w).Encode(res)
}

// ---------------------------- transmissions --------------------------------

// transmissionView decorates a catalog entry with session state.
type transmissionView struct {
	transmission.Transmission
	UnlockedGlyphs []string `json:"unlockedGlyphIds"`
	LockedGlyphs   []string `json:"lockedGlyphIds"`
	Viewed         bool     `json:"viewed"`
	Synchronized   bool     `json:"synchronized"`
	// CurrentDifficulty rates the transmission against this session's
	// glyph confidence (1 to 10).
	CurrentDifficulty int `json:"currentDifficulty"`
}

func viewOf(m *game.Machine, t transmission.Transmission) transmissionView {
	return transmissionView{
		Transmission:   t,
		UnlockedGlyphs: nonNil(m.Unlocks().UnlockedIn(t.ID)),
		LockedGlyphs:   nonNil(m.Unlocks().LockedIn(t.ID)),
		Viewed:         m.IsViewed(t.ID),
		Synchronized:   m.IsSynchronized(t.ID),

		CurrentDifficulty: m.Difficulty(t.ID),
	}
}

// handleTransmissions lists the catalog. Query: chapter=<n>, q=<search>.
func (s *Server) handleTransmissions(w http.ResponseWriter, r *http.Request) {
	cat := s.opts.Content.Transmissions
	list := cat.All()
	if v := r.URL.Query().Get("chapter"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			http.Error(w, `{"error":"bad_chapter"}`, http.StatusBadRequest)
			return
		}
		list = cat.ForChapter(n)
	}
	if term := strings.TrimSpace(r.URL.Query().Get("q")); term != "" {
		keep := make(map[int]bool)
		for _, t := range cat.Search(term) {
			keep[t.ID] = true
		}
		filtered := list[:0]
		for _, t := range list {
			if keep[t.ID] {
				filtered = append(filtered, t)
			}
		}
		list = filtered
	}

	out := make([]transmissionView, 0, len(list))
	sessionFrom(r).Do(func(m *game.Machine) {
		for _, t := range list {
			out = append(out, viewOf(m, t))
		}
	})
	_ = json.NewEncoder(w).Encode(out)
}

// handleTransmission returns one transmission with its unlock split.
func (s *Server) handleTransmission(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, `{"error":"bad_id"}`, http.StatusBadRequest)
		return
	}
	t, ok := s.opts.Content.Transmissions.ByID(id)
	if !ok {
		http.Error(w, `{"error":"not_found"}`, http.StatusNotFound)
		return
	}
	var v transmissionView
	sessionFrom(r).Do(func(m *game.Machine) { v = viewOf(m, t) })
	_ = json.NewEncoder(w).Encode(v)
}

// -------------------------------- state ------------------------------------

// stateRes is the answer to every state query and command.
type stateRes struct {
	State    game.Snapshot `json:"state"`
	Progress game.Progress `json:"progress"`
}

// commandReq carries the arguments of any state command. Chapter, Seconds
// and Log are pointers so that an absent field is a no-op.
type commandReq struct {
	GlyphID        string         `json:"glyphId"`
	Meaning        string         `json:"meaning"`
	TransmissionID int            `json:"transmissionId"`
	Points         int            `json:"points"`
	Chapter        *int           `json:"chapter"`
	Seconds        *int           `json:"seconds"`
	Log            *game.LogEntry `json:"log"`
}

func stateOf(m *game.Machine) stateRes {
	return stateRes{State: m.Snapshot(), Progress: m.Progress()}
}

// handleState returns the session snapshot and current progress.
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	var res stateRes
	sessionFrom(r).Do(func(m *game.Machine) { res = stateOf(m) })
	_ = json.NewEncoder(w).Encode(res)
}

// command adapts a machine action to a POST handler. An empty body is an
// empty request.
func (s *Server) command(apply func(m *game.Machine, req commandReq)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req commandReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
			return
		}
		var res stateRes
		sessionFrom(r).Do(func(m *game.Machine) {
			apply(m, req)
			res = stateOf(m)
		})
		_ = json.NewEncoder(w).Encode(res)
	}
}

// handleAccuracy scores a transmission's assigned meanings.
func (s *Server) handleAccuracy(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, `{"error":"bad_id"}`, http.StatusBadRequest)
		return
	}
	var acc int
	sessionFrom(r).Do(func(m *game.Machine) { acc = m.Accuracy(id) })
	_ = json.NewEncoder(w).Encode(map[string]int{"transmissionId": id, "accuracy": acc})
}

// handleGameConfig returns the session's game settings.
func (s *Server) handleGameConfig(w http.ResponseWriter, r *http.Request) {
	var c game.Config
	sessionFrom(r).Do(func(m *game.Machine) { c = m.Config() })
	_ = json.NewEncoder(w).Encode(c)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
