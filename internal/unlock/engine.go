// internal/unlock/engine.go
//
// Unlock Engine: the single authority that moves glyphs from locked to
// unlocked, transmission by transmission, exactly once.
//
// Notes:
//   - processed is the only idempotence guard. Every path that applies a
//     manifest goes through UnlockForTransmission.
//   - Unlock status itself lives in the lexicon; the engine never keeps a
//     second copy of it.
//   - Unknown glyph or transmission ids are warning events, never errors.

package unlock

import (
	"sort"

	"github.com/robalobadob/firstlight/internal/event"
	"github.com/robalobadob/firstlight/internal/lexicon"
	"github.com/robalobadob/firstlight/internal/transmission"
)

// Engine applies transmission manifests to a lexicon.
type Engine struct {
	lex       *lexicon.Store
	cat       *transmission.Catalog
	processed map[int]struct{}
	sink      event.Sink
}

// New wires an engine over lex and cat.
func New(lex *lexicon.Store, cat *transmission.Catalog, sink event.Sink) *Engine {
	return &Engine{
		lex:       lex,
		cat:       cat,
		processed: make(map[int]struct{}),
		sink:      event.OrDiscard(sink),
	}
}

// Initialize seeds the starting vocabulary from the designated first
// transmission.
func (e *Engine) Initialize() {
	first := e.cat.FirstID()
	if first == 0 {
		e.sink.Emit(event.Event{Kind: event.UnknownTransmission, Level: event.LevelWarn,
			Message: "catalog is empty, nothing to unlock"})
		return
	}
	e.UnlockForTransmission(first)
}

// UnlockForTransmission unlocks every glyph listed in the manifest of
// transmission id. A second call for the same id is a no-op.
func (e *Engine) UnlockForTransmission(id int) {
	if _, done := e.processed[id]; done {
		e.sink.Emit(event.Event{Kind: event.TransmissionSkipped, Level: event.LevelDebug, TransmissionID: id})
		return
	}
	e.processed[id] = struct{}{}

	if _, ok := e.cat.ByID(id); !ok {
		e.sink.Emit(event.Event{Kind: event.UnknownTransmission, Level: event.LevelWarn, TransmissionID: id,
			Message: "no transmission with this id"})
		return
	}
	m := e.cat.Manifest(id)
	if m.Empty() {
		e.sink.Emit(event.Event{Kind: event.EmptyManifest, Level: event.LevelDebug, TransmissionID: id})
		return
	}

	newly := 0
	for _, gid := range m.UnlockedGlyphs {
		if e.lex.IsUnlocked(gid) {
			e.sink.Emit(event.Event{Kind: event.GlyphAlreadyUnlocked, Level: event.LevelDebug, GlyphID: gid, TransmissionID: id})
			continue
		}
		if changed, _ := e.lex.Unlock(gid, id); changed {
			newly++
			e.sink.Emit(event.Event{Kind: event.GlyphUnlocked, Level: event.LevelInfo, GlyphID: gid, TransmissionID: id})
		}
	}
	e.sink.Emit(event.Event{Kind: event.TransmissionProcessed, Level: event.LevelInfo, TransmissionID: id,
		Count: newly, Message: m.Description})
}

// ForceUnlock unlocks one glyph outside any manifest. It does not mark the
// transmission processed. Reports whether the glyph changed state.
func (e *Engine) ForceUnlock(glyphID string, transmissionID int) bool {
	changed, _ := e.lex.Unlock(glyphID, transmissionID)
	if changed {
		e.sink.Emit(event.Event{Kind: event.GlyphRevealed, Level: event.LevelInfo, GlyphID: glyphID, TransmissionID: transmissionID})
	}
	return changed
}

// ForceUnlockAll unlocks every glyph, crediting the first transmission.
// Returns the number of glyphs that changed state.
func (e *Engine) ForceUnlockAll() int {
	first := e.cat.FirstID()
	n := 0
	for _, g := range e.lex.All() {
		if e.ForceUnlock(g.ID, first) {
			n++
		}
	}
	return n
}

// IsGlyphUnlocked is the query every consumer uses to decide whether a
// glyph is visible and clickable.
func (e *Engine) IsGlyphUnlocked(id string) bool { return e.lex.IsUnlocked(id) }

// Processed reports whether transmission id went through the engine.
func (e *Engine) Processed(id int) bool {
	_, ok := e.processed[id]
	return ok
}

// ProcessedIDs returns the processed transmission ids, ascending.
func (e *Engine) ProcessedIDs() []int {
	out := make([]int, 0, len(e.processed))
	for id := range e.processed {
		out = append(out, id)
	}
	sort.Ints(out)
	return out
}

// UnlockedIDs returns the unlocked glyph ids in catalog order.
func (e *Engine) UnlockedIDs() []string {
	gs := e.lex.Unlocked()
	out := make([]string, len(gs))
	for i, g := range gs {
		out[i] = g.ID
	}
	return out
}

// UnlockedIn returns the unlocked glyph references of transmission id.
func (e *Engine) UnlockedIn(id int) []string {
	return e.split(id, true)
}

// LockedIn returns the still-locked glyph references of transmission id.
func (e *Engine) LockedIn(id int) []string {
	return e.split(id, false)
}

func (e *Engine) split(id int, unlocked bool) []string {
	var out []string
	for _, g := range e.cat.GlyphIDs(id) {
		if e.lex.IsUnlocked(g) == unlocked {
			out = append(out, g)
		}
	}
	return out
}
