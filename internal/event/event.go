// internal/event/event.go
//
// Structured events emitted by the lexicon, unlock engine and game state
// machine. Components never log directly; they hand events to an injected
// Sink, which may log them (LogSink), persist them (history.Sink), fan them
// out (Multi) or collect them for assertions (Recorder).

package event

import "sync"

// Kind names what happened.
type Kind string

const (
	GlyphUnlocked            Kind = "glyph_unlocked"
	GlyphAlreadyUnlocked     Kind = "glyph_already_unlocked"
	GlyphRevealed            Kind = "glyph_revealed"
	UnknownGlyph             Kind = "unknown_glyph"
	UnknownTransmission      Kind = "unknown_transmission"
	TransmissionProcessed    Kind = "transmission_processed"
	TransmissionSkipped      Kind = "transmission_skipped"
	EmptyManifest            Kind = "empty_manifest"
	TransmissionViewed       Kind = "transmission_viewed"
	TransmissionSelected     Kind = "transmission_selected"
	TransmissionComplete     Kind = "transmission_complete"
	TransmissionSynchronized Kind = "transmission_synchronized"
	MeaningAssigned          Kind = "meaning_assigned"
	MeaningRejected          Kind = "meaning_rejected"
	FinalReveal              Kind = "final_reveal"
	EndGame                  Kind = "end_game"
	GameReset                Kind = "game_reset"
	TransmissionScored       Kind = "transmission_scored"
	ScoreUpdated             Kind = "score_updated"
	ChapterUpdated           Kind = "chapter_updated"
	CountdownUpdated         Kind = "countdown_updated"
	LogAdded                 Kind = "log_added"
	LogRejected              Kind = "log_rejected"
)

// Level is the severity of an event.
type Level int8

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	}
	return "unknown"
}

// Event is a single observation. Zero-valued fields are "not applicable".
type Event struct {
	Kind           Kind
	Level          Level
	GlyphID        string
	TransmissionID int
	Meaning        string
	Count          int
	Message        string
}

// Sink receives events. Implementations must not call back into the
// component that emitted the event.
type Sink interface {
	Emit(Event)
}

// SinkFunc adapts a function to a Sink.
type SinkFunc func(Event)

func (f SinkFunc) Emit(e Event) { f(e) }

type discard struct{}

func (discard) Emit(Event) {}

// Discard drops every event. It is comparable, so callers can test for it.
var Discard Sink = discard{}

// Multi fans events out to every non-nil sink in order.
func Multi(sinks ...Sink) Sink {
	out := make([]Sink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	switch len(out) {
	case 0:
		return Discard
	case 1:
		return out[0]
	}
	return SinkFunc(func(e Event) {
		for _, s := range out {
			s.Emit(e)
		}
	})
}

// OrDiscard returns s, or Discard when s is nil.
func OrDiscard(s Sink) Sink {
	if s == nil {
		return Discard
	}
	return s
}

// Recorder keeps every event it receives. Safe for concurrent use.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Emit(e Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Count reports how many recorded events have the given kind.
func (r *Recorder) Count(k Kind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Kind == k {
			n++
		}
	}
	return n
}

// Reset forgets everything recorded so far.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.events = nil
	r.mu.Unlock()
}
