// internal/game/engine.go
//
// Game State Machine for a single First Light session.
// Responsibilities:
//   - Own the session state: current transmission, selected glyph,
//     translation map, viewed/synchronized sets, persistent selections.
//   - Mediate every player action (select glyph, assign meaning, view,
//     select, advance, synchronize, reset).
//   - Derive completion of the current transmission and latch end-game.
//   - Keep the session score, chapter, countdown and translation log.
//
// Policies:
//   - The translation map is session-global and keyed by glyph id. It is
//     never cleared by switching transmissions; completion is re-derived
//     for the new current transmission instead.
//   - Only unlocked glyphs can hold a translation entry.
//   - Viewed, synchronized and processed sets only grow (until Reset).
//   - A transmission is scored once, when it first becomes synchronized.
//     Score and countdown never go below zero.
//   - Missing references are warning events and no-ops; no method fails.
//
// Not safe for concurrent use. The HTTP layer serializes access per session.
package game

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/robalobadob/firstlight/internal/decoy"
	"github.com/robalobadob/firstlight/internal/event"
	"github.com/robalobadob/firstlight/internal/lexicon"
	"github.com/robalobadob/firstlight/internal/transmission"
	"github.com/robalobadob/firstlight/internal/unlock"
)

// Machine is the game state of one session.
type Machine struct {
	deps Deps
	cfg  Config
	sink event.Sink
	now  func() time.Time

	lex    *lexicon.Store
	cat    *transmission.Catalog
	unlock *unlock.Engine

	current      int // transmission id; 0 = none
	selected     string
	translation  map[string]string
	persistent   map[string]struct{}
	viewed       map[int]struct{}
	synchronized map[int]struct{}
	complete     bool
	endGame      bool

	score        int
	chapter      int
	countdown    int
	lastAccuracy *int
	logs         []LogEntry
}

// New constructs and initializes a session.
func New(d Deps) *Machine {
	m := &Machine{deps: d, cfg: DefaultConfig(), sink: event.OrDiscard(d.Sink), now: d.Now}
	if d.Config != nil {
		m.cfg = *d.Config
	}
	if m.now == nil {
		m.now = time.Now
	}
	m.init()
	return m
}

// init builds fresh lexicon and unlock state from the definitions, seeds
// the starting vocabulary and views the first transmission.
func (m *Machine) init() {
	m.cat = m.deps.Transmissions
	if m.cat == nil {
		m.cat, _ = transmission.NewCatalog(nil)
	}
	m.lex = lexicon.New(m.deps.Glyphs, m.sink)
	m.unlock = unlock.New(m.lex, m.cat, m.sink)

	m.current = 0
	m.selected = ""
	m.translation = make(map[string]string)
	m.persistent = make(map[string]struct{})
	m.viewed = make(map[int]struct{})
	m.synchronized = make(map[int]struct{})
	m.complete = false
	m.endGame = false
	m.score = max(0, m.cfg.InitialScore)
	m.chapter = m.cfg.InitialChapter
	m.countdown = max(0, m.cfg.CountdownDuration)
	m.lastAccuracy = nil
	m.logs = nil

	m.unlock.Initialize()
	if first, ok := m.cat.At(0); ok {
		m.current = first.ID
		m.viewed[first.ID] = struct{}{}
		m.unlock.UnlockForTransmission(first.ID)
	}
}

// ------------------------------ selection ----------------------------------

// SelectGlyph toggles the active selection. Selecting the selected glyph
// or passing "" clears it. Non-empty ids join the persistent selections.
// Unlock status is not checked here.
func (m *Machine) SelectGlyph(id string) {
	if id == "" {
		m.selected = ""
		return
	}
	m.persistent[id] = struct{}{}
	if m.selected == id {
		m.selected = ""
		return
	}
	m.selected = id
}

// ClearPersistentSelections forgets the selection history.
func (m *Machine) ClearPersistentSelections() {
	m.persistent = make(map[string]struct{})
}

// ----------------------------- translation ---------------------------------

// AssignMeaning records meaning for glyphID and re-derives completion of
// the current transmission. It does not synchronize anything.
//
// Unknown glyphs reach the lexicon's no-op. Locked glyphs and blank
// meanings are rejected so the translation map only ever holds unlocked
// glyphs.
func (m *Machine) AssignMeaning(glyphID, meaning string) {
	meaning = strings.TrimSpace(meaning)
	if _, ok := m.lex.Glyph(glyphID); !ok {
		m.lex.AssignMeaning(glyphID, meaning)
		return
	}
	if meaning == "" {
		m.sink.Emit(event.Event{Kind: event.MeaningRejected, Level: event.LevelWarn, GlyphID: glyphID,
			Message: "blank meaning"})
		return
	}
	if !m.unlock.IsGlyphUnlocked(glyphID) {
		m.sink.Emit(event.Event{Kind: event.MeaningRejected, Level: event.LevelWarn, GlyphID: glyphID,
			Meaning: meaning, Message: "glyph is locked"})
		return
	}

	m.translation[glyphID] = meaning
	m.lex.AssignMeaning(glyphID, meaning)
	m.sink.Emit(event.Event{Kind: event.MeaningAssigned, Level: event.LevelInfo, GlyphID: glyphID,
		Meaning: meaning, TransmissionID: m.current})
	m.recompute()
}

// recompute derives completion of the current transmission: at least one
// unlocked glyph reference, and every unlocked reference translated.
// Locked references are ignored.
func (m *Machine) recompute() {
	was := m.complete
	m.complete = m.derivedComplete(m.current)
	if m.complete && !was {
		m.sink.Emit(event.Event{Kind: event.TransmissionComplete, Level: event.LevelInfo, TransmissionID: m.current})
	}
}

func (m *Machine) derivedComplete(id int) bool {
	if id == 0 {
		return false
	}
	unlocked := 0
	for _, g := range m.cat.GlyphIDs(id) {
		if !m.unlock.IsGlyphUnlocked(g) {
			continue
		}
		unlocked++
		if m.translation[g] == "" {
			return false
		}
	}
	return unlocked > 0
}

// --------------------------- synchronization -------------------------------

// MarkTransmissionSynchronized commits transmission id. When id is the
// current transmission it is also forced complete. Unknown ids are ignored
// so they can never count toward the end-game.
func (m *Machine) MarkTransmissionSynchronized(id int) {
	if _, ok := m.cat.ByID(id); !ok {
		m.sink.Emit(event.Event{Kind: event.UnknownTransmission, Level: event.LevelWarn, TransmissionID: id,
			Message: "synchronize skipped"})
		return
	}
	m.synchronize(id)
	if id == m.current {
		m.complete = true
	}
	m.checkEndGame()
}

func (m *Machine) synchronize(id int) {
	if _, dup := m.synchronized[id]; dup {
		return
	}
	m.synchronized[id] = struct{}{}
	m.sink.Emit(event.Event{Kind: event.TransmissionSynchronized, Level: event.LevelInfo, TransmissionID: id,
		Count: len(m.synchronized)})
	m.award(id)
}

// award scores a newly synchronized transmission by its accuracy.
func (m *Machine) award(id int) {
	acc := m.Accuracy(id)
	m.lastAccuracy = &acc
	pts := m.cfg.Points(acc)
	m.score = max(0, m.score+pts)
	m.sink.Emit(event.Event{Kind: event.TransmissionScored, Level: event.LevelInfo, TransmissionID: id,
		Count: pts, Message: m.cfg.Rating(acc)})
}

// ------------------------------ navigation ---------------------------------

// ViewTransmission marks id viewed and applies its manifest.
func (m *Machine) ViewTransmission(id int) {
	if _, ok := m.cat.ByID(id); !ok {
		m.sink.Emit(event.Event{Kind: event.UnknownTransmission, Level: event.LevelWarn, TransmissionID: id,
			Message: "view skipped"})
		return
	}
	m.viewed[id] = struct{}{}
	m.unlock.UnlockForTransmission(id)
	m.sink.Emit(event.Event{Kind: event.TransmissionViewed, Level: event.LevelDebug, TransmissionID: id})
	// The manifest may unlock glyphs the current transmission shares.
	m.recompute()
}

// SelectTransmission makes id current: views it, clears the glyph
// selection and re-derives completion.
func (m *Machine) SelectTransmission(id int) {
	if _, ok := m.cat.ByID(id); !ok {
		m.sink.Emit(event.Event{Kind: event.UnknownTransmission, Level: event.LevelWarn, TransmissionID: id,
			Message: "select skipped"})
		return
	}
	m.current = id
	m.selected = ""
	m.complete = false
	m.ViewTransmission(id)
	m.sink.Emit(event.Event{Kind: event.TransmissionSelected, Level: event.LevelInfo, TransmissionID: id})
}

// NextTransmission commits the current transmission if complete, then
// advances. On the last transmission it does not advance: it reveals every
// glyph the transmission still hides instead.
func (m *Machine) NextTransmission() {
	if m.cat.Len() == 0 {
		return
	}
	idx, ok := m.cat.IndexOf(m.current)
	if !ok {
		idx = -1
	}
	if ok && m.complete {
		m.synchronize(m.current)
	}

	if idx == m.cat.Len()-1 {
		revealed := 0
		for _, g := range m.cat.GlyphIDs(m.current) {
			if !m.unlock.IsGlyphUnlocked(g) && m.unlock.ForceUnlock(g, m.current) {
				revealed++
			}
		}
		m.sink.Emit(event.Event{Kind: event.FinalReveal, Level: event.LevelInfo, TransmissionID: m.current, Count: revealed})
		m.selected = ""
		m.complete = false
		m.recompute()
		m.checkEndGame()
		return
	}

	next, _ := m.cat.At(idx + 1)
	m.current = next.ID
	m.selected = ""
	if next.Chapter > m.chapter {
		m.UpdateChapter(next.Chapter)
	}
	m.complete = false
	m.ViewTransmission(next.ID)
	m.checkEndGame()
}

// ------------------------------- end game ----------------------------------

// EndGameReached is the pure end-game predicate over the current sets.
func (m *Machine) EndGameReached() bool {
	n := m.cat.Len()
	return n > 0 && len(m.synchronized) >= n
}

// checkEndGame latches the end-game flag and reports it once.
func (m *Machine) checkEndGame() {
	if m.endGame || !m.EndGameReached() {
		return
	}
	m.endGame = true
	m.sink.Emit(event.Event{Kind: event.EndGame, Level: event.LevelInfo, Count: len(m.synchronized)})
}

// EndGame reports whether the session reached the end-game.
func (m *Machine) EndGame() bool { return m.endGame }

// Reset discards all progress and rebuilds the session from the
// definitions.
func (m *Machine) Reset() {
	m.init()
	m.sink.Emit(event.Event{Kind: event.GameReset, Level: event.LevelInfo})
}

// ------------------------- score, clock and log ----------------------------

// UpdateScore adds points (which may be negative). The score floors at 0.
func (m *Machine) UpdateScore(points int) {
	m.score = max(0, m.score+points)
	m.sink.Emit(event.Event{Kind: event.ScoreUpdated, Level: event.LevelDebug, Count: m.score})
}

// UpdateChapter sets the chapter. Negative chapters are ignored.
func (m *Machine) UpdateChapter(chapter int) {
	if chapter < 0 {
		m.sink.Emit(event.Event{Kind: event.ChapterUpdated, Level: event.LevelWarn, Count: chapter,
			Message: "negative chapter ignored"})
		return
	}
	m.chapter = chapter
	m.sink.Emit(event.Event{Kind: event.ChapterUpdated, Level: event.LevelInfo, Count: chapter})
}

// UpdateCountdown sets the remaining seconds, floored at 0.
func (m *Machine) UpdateCountdown(seconds int) {
	m.countdown = max(0, seconds)
	m.sink.Emit(event.Event{Kind: event.CountdownUpdated, Level: event.LevelDebug, Count: m.countdown})
}

// AddLog appends a log entry, stamping its id and time. Unknown levels
// become info; entries without a message are dropped.
func (m *Machine) AddLog(e LogEntry) (LogEntry, bool) {
	e.Message = strings.TrimSpace(e.Message)
	if e.Message == "" {
		m.sink.Emit(event.Event{Kind: event.LogRejected, Level: event.LevelWarn, Message: "empty log message"})
		return LogEntry{}, false
	}
	switch e.Level {
	case LogInfo, LogSuccess, LogWarning, LogError:
	default:
		e.Level = LogInfo
	}
	e.ID = uuid.Must(uuid.NewV7()).String()
	e.Timestamp = m.now().UTC()
	if len(e.Metadata) > 0 {
		md := make(map[string]string, len(e.Metadata))
		for k, v := range e.Metadata {
			md[k] = v
		}
		e.Metadata = md
	}
	m.logs = append(m.logs, e)
	if over := len(m.logs) - maxLogs; over > 0 {
		m.logs = append([]LogEntry(nil), m.logs[over:]...)
	}
	m.sink.Emit(event.Event{Kind: event.LogAdded, Level: event.LevelDebug, Message: e.Category})
	return e, true
}

// Score, Chapter and Countdown read the session counters.
func (m *Machine) Score() int     { return m.score }
func (m *Machine) Chapter() int   { return m.chapter }
func (m *Machine) Countdown() int { return m.countdown }

// LastAccuracy is the accuracy of the most recently scored transmission.
func (m *Machine) LastAccuracy() (int, bool) {
	if m.lastAccuracy == nil {
		return 0, false
	}
	return *m.lastAccuracy, true
}

// Logs returns a copy of the log, oldest first.
func (m *Machine) Logs() []LogEntry { return append([]LogEntry(nil), m.logs...) }

// Config is the session's game config.
func (m *Machine) Config() Config { return m.cfg }

// RevealAll unlocks every glyph in the lexicon and re-derives completion.
// Debug tooling only; it bypasses manifests.
func (m *Machine) RevealAll() int {
	n := m.unlock.ForceUnlockAll()
	m.recompute()
	return n
}

// ------------------------------- queries -----------------------------------

// Current returns the current transmission, if any.
func (m *Machine) Current() (transmission.Transmission, bool) {
	if m.current == 0 {
		return transmission.Transmission{}, false
	}
	return m.cat.ByID(m.current)
}

// SelectedGlyph returns the active selection ("" when none).
func (m *Machine) SelectedGlyph() string { return m.selected }

// IsTransmissionComplete is the derived (or forced) completion flag of the
// current transmission.
func (m *Machine) IsTransmissionComplete() bool { return m.complete }

// Translation returns the assigned meaning for a glyph.
func (m *Machine) Translation(glyphID string) (string, bool) {
	v, ok := m.translation[glyphID]
	return v, ok
}

// IsViewed reports whether transmission id was viewed.
func (m *Machine) IsViewed(id int) bool {
	_, ok := m.viewed[id]
	return ok
}

// IsSynchronized reports whether transmission id was synchronized.
func (m *Machine) IsSynchronized(id int) bool {
	_, ok := m.synchronized[id]
	return ok
}

// Lexicon exposes the session lexicon for read access.
func (m *Machine) Lexicon() *lexicon.Store { return m.lex }

// Unlocks exposes the session unlock engine.
func (m *Machine) Unlocks() *unlock.Engine { return m.unlock }

// Catalog exposes the shared transmission catalog.
func (m *Machine) Catalog() *transmission.Catalog { return m.cat }

// Snapshot copies the full state.
func (m *Machine) Snapshot() Snapshot {
	s := Snapshot{
		SelectedGlyph:             m.selected,
		TranslationState:          make(map[string]string, len(m.translation)),
		PersistentSelections:      sortedStrings(m.persistent),
		ViewedTransmissions:       sortedInts(m.viewed),
		SynchronizedTransmissions: sortedInts(m.synchronized),
		ProcessedTransmissions:    m.unlock.ProcessedIDs(),
		UnlockedGlyphs:            m.unlock.UnlockedIDs(),
		IsTransmissionComplete:    m.complete,
		TotalTransmissions:        m.cat.Len(),
		EndGame:                   m.endGame,
		Score:                     m.score,
		Chapter:                   m.chapter,
		Countdown:                 m.countdown,
		Logs:                      m.Logs(),
	}
	sort.Strings(s.UnlockedGlyphs)
	if s.Logs == nil {
		s.Logs = []LogEntry{}
	}
	if m.lastAccuracy != nil {
		acc := *m.lastAccuracy
		s.LastTransmissionAccuracy = &acc
	}
	for k, v := range m.translation {
		s.TranslationState[k] = v
	}
	if t, ok := m.Current(); ok {
		s.CurrentTransmission = &t
	}
	return s
}

// Progress summarizes translation of the current transmission.
func (m *Machine) Progress() Progress {
	p := m.progress()
	p.Rating = m.cfg.Rating(p.Confidence)
	return p
}

func (m *Machine) progress() Progress {
	p := Progress{TransmissionID: m.current, Confidence: 100}
	if m.current == 0 {
		return p
	}
	refs := m.cat.GlyphIDs(m.current)
	p.Total = len(refs)
	run, bonus := 0, 0
	for _, g := range refs {
		if !m.unlock.IsGlyphUnlocked(g) {
			p.Locked++
			continue
		}
		p.Unlocked++
		if m.translation[g] == "" {
			run = 0
			continue
		}
		p.Translated++
		run++
		if run > 1 {
			bonus += consecutiveBonus
		}
	}
	if p.Unlocked > 0 {
		p.Confidence = min(100, p.Translated*100/p.Unlocked+bonus)
	}
	return p
}

// Accuracy is the percentage of transmission id's glyph references whose
// assigned meaning matches the glyph's catalog answer (case-insensitive).
// Transmissions without glyphs score 100; unknown ids score 0.
func (m *Machine) Accuracy(id int) int {
	if _, ok := m.cat.ByID(id); !ok {
		return 0
	}
	refs := m.cat.GlyphIDs(id)
	if len(refs) == 0 {
		return 100
	}
	right := 0
	for _, g := range refs {
		gl, ok := m.lex.Glyph(g)
		if !ok || gl.Answer == "" {
			continue
		}
		if strings.EqualFold(m.translation[g], gl.Answer) {
			right++
		}
	}
	return (right*100 + len(refs)/2) / len(refs)
}

// Difficulty rates transmission id from 1 to 10 by how little the session
// knows its glyphs: round((1 - mean confidence/100) × 10), clamped. A
// transmission with no known glyphs rates 1.
func (m *Machine) Difficulty(id int) int {
	sum, n := 0, 0
	for _, g := range m.cat.GlyphIDs(id) {
		gl, ok := m.lex.Glyph(g)
		if !ok {
			continue
		}
		sum += gl.Confidence
		n++
	}
	if n == 0 {
		return 1
	}
	avg := float64(sum) / float64(n) / lexicon.MaxConfidence
	d := int(math.Round((1 - avg) * 10))
	return max(1, min(10, d))
}

// Choices builds the multiple-choice set for a glyph. Unknown or locked
// glyphs, glyphs without a catalog answer, and sessions without a
// generator have no active choice set.
func (m *Machine) Choices(glyphID string) ([]decoy.Option, bool) {
	if m.deps.Decoys == nil || !m.unlock.IsGlyphUnlocked(glyphID) {
		return nil, false
	}
	g, _ := m.lex.Glyph(glyphID)
	return m.deps.Decoys.Generate(g.Answer)
}

func sortedInts(set map[int]struct{}) []int {
	out := make([]int, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}

func sortedStrings(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
