// internal/lexicon/store.go
//
// Lexicon Store: owns the glyph records for one game session.
// Responsibilities:
//   - Read accessors (by id, all in catalog order, unlocked only, search).
//   - The narrow mutation surface: Unlock (locked → unlocked, once) and
//     AssignMeaning (confirmed meaning, usage counter, confidence).
//
// Notes:
//   - Unknown ids are never errors: queries return "not found"/false and
//     mutations are no-ops that emit a warning event.
//   - Not safe for concurrent use; one Store belongs to one session.

package lexicon

import (
	"strings"

	"github.com/robalobadob/firstlight/internal/event"
)

// Store is the per-session lexicon.
type Store struct {
	order  []string
	glyphs map[string]*Glyph
	sink   event.Sink
}

// New builds a Store from catalog definitions. Every glyph starts locked
// with no confirmed meaning, regardless of what defs carry. Duplicate ids
// keep the first definition.
func New(defs []Glyph, sink event.Sink) *Store {
	s := &Store{
		order:  make([]string, 0, len(defs)),
		glyphs: make(map[string]*Glyph, len(defs)),
		sink:   event.OrDiscard(sink),
	}
	for _, d := range defs {
		if _, dup := s.glyphs[d.ID]; dup || d.ID == "" {
			continue
		}
		g := d
		g.PossibleMeanings = append([]string(nil), d.PossibleMeanings...)
		g.IsUnlocked = false
		g.FirstSeenInTransmission = 0
		g.ConfirmedMeaning = ""
		g.Confidence = clampConfidence(g.Confidence)
		s.order = append(s.order, g.ID)
		s.glyphs[g.ID] = &g
	}
	return s
}

// Glyph returns a copy of the glyph with the given id.
func (s *Store) Glyph(id string) (Glyph, bool) {
	g, ok := s.glyphs[id]
	if !ok {
		return Glyph{}, false
	}
	return *g, true
}

// All returns every glyph in catalog order.
func (s *Store) All() []Glyph {
	return s.filter(func(*Glyph) bool { return true })
}

// Unlocked returns the unlocked glyphs in catalog order.
func (s *Store) Unlocked() []Glyph {
	return s.filter(func(g *Glyph) bool { return g.IsUnlocked })
}

// IsUnlocked reports whether id names an unlocked glyph. Unknown ids are
// locked.
func (s *Store) IsUnlocked(id string) bool {
	g, ok := s.glyphs[id]
	return ok && g.IsUnlocked
}

// Len is the number of glyphs.
func (s *Store) Len() int { return len(s.order) }

// Unlock marks a glyph unlocked and records the transmission it was first
// seen in, if not already recorded. It reports whether the glyph changed
// state and whether the id exists.
func (s *Store) Unlock(id string, transmissionID int) (changed, found bool) {
	g, ok := s.glyphs[id]
	if !ok {
		s.sink.Emit(event.Event{Kind: event.UnknownGlyph, Level: event.LevelWarn, GlyphID: id,
			TransmissionID: transmissionID, Message: "unlock skipped: glyph not in lexicon"})
		return false, false
	}
	if g.IsUnlocked {
		return false, true
	}
	g.IsUnlocked = true
	if g.FirstSeenInTransmission == 0 {
		g.FirstSeenInTransmission = transmissionID
	}
	return true, true
}

// AssignMeaning records meaning as the glyph's confirmed meaning, bumps
// TimesUsed and raises Confidence by ConfidenceBonus (capped). Returns
// false, after emitting a warning, when the id is unknown.
func (s *Store) AssignMeaning(id, meaning string) bool {
	g, ok := s.glyphs[id]
	if !ok {
		s.sink.Emit(event.Event{Kind: event.UnknownGlyph, Level: event.LevelWarn, GlyphID: id,
			Meaning: meaning, Message: "assign skipped: glyph not in lexicon"})
		return false
	}
	g.ConfirmedMeaning = meaning
	g.TimesUsed++
	g.Confidence = clampConfidence(g.Confidence + ConfidenceBonus)
	return true
}

// ByConfidence returns glyphs whose confidence is at least min.
func (s *Store) ByConfidence(min int) []Glyph {
	return s.filter(func(g *Glyph) bool { return g.Confidence >= min })
}

// Confirmed returns glyphs that have a confirmed meaning.
func (s *Store) Confirmed() []Glyph {
	return s.filter(func(g *Glyph) bool { return g.ConfirmedMeaning != "" })
}

// Unconfirmed returns glyphs without a confirmed meaning.
func (s *Store) Unconfirmed() []Glyph {
	return s.filter(func(g *Glyph) bool { return g.ConfirmedMeaning == "" })
}

// Search matches term case-insensitively against possible and confirmed
// meanings.
func (s *Store) Search(term string) []Glyph {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return s.All()
	}
	return s.filter(func(g *Glyph) bool {
		if strings.Contains(strings.ToLower(g.ConfirmedMeaning), term) {
			return true
		}
		for _, m := range g.PossibleMeanings {
			if strings.Contains(strings.ToLower(m), term) {
				return true
			}
		}
		return false
	})
}

func (s *Store) filter(keep func(*Glyph) bool) []Glyph {
	out := make([]Glyph, 0, len(s.order))
	for _, id := range s.order {
		if g := s.glyphs[id]; keep(g) {
			out = append(out, *g)
		}
	}
	return out
}

func clampConfidence(c int) int {
	switch {
	case c < 0:
		return 0
	case c > MaxConfidence:
		return MaxConfidence
	}
	return c
}
