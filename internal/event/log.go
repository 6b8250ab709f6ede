package event

import "github.com/rs/zerolog"

// LogSink renders events as structured zerolog lines.
type LogSink struct {
	log zerolog.Logger
}

// NewLogSink returns a Sink writing to l.
func NewLogSink(l zerolog.Logger) *LogSink {
	return &LogSink{log: l}
}

func (s *LogSink) Emit(e Event) {
	var ev *zerolog.Event
	switch e.Level {
	case LevelWarn:
		ev = s.log.Warn()
	case LevelInfo:
		ev = s.log.Info()
	default:
		ev = s.log.Debug()
	}
	ev = ev.Str("event", string(e.Kind))
	if e.GlyphID != "" {
		ev = ev.Str("glyph", e.GlyphID)
	}
	if e.TransmissionID != 0 {
		ev = ev.Int("transmission", e.TransmissionID)
	}
	if e.Meaning != "" {
		ev = ev.Str("meaning", e.Meaning)
	}
	if e.Count != 0 {
		ev = ev.Int("count", e.Count)
	}
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	ev.Msg(msg)
}
