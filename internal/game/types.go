// internal/game/types.go
//
// Core type definitions for the First Light game state machine.
// Defines:
//   - Deps:     what a session needs to build (and rebuild) its state.
//   - Config:   starting score/chapter/countdown, scoring tiers and
//               confidence thresholds.
//   - LogEntry: one line of the in-game translation log.
//   - Snapshot: a value copy of the whole game state for transport.
//   - Progress: derived translation progress of the current transmission.

package game

import (
	"time"

	"github.com/robalobadob/firstlight/internal/decoy"
	"github.com/robalobadob/firstlight/internal/event"
	"github.com/robalobadob/firstlight/internal/lexicon"
	"github.com/robalobadob/firstlight/internal/transmission"
)

// Deps are the read-only inputs of a session. Glyphs are definitions; each
// (re)initialization builds a fresh lexicon from them. A nil Config means
// DefaultConfig; a nil Now means time.Now.
type Deps struct {
	Glyphs        []lexicon.Glyph
	Transmissions *transmission.Catalog
	Decoys        *decoy.Generator
	Config        *Config
	Sink          event.Sink
	Now           func() time.Time
}

// ---------------------------- configuration --------------------------------

// Scoring awards points for a synchronized transmission by accuracy tier.
type Scoring struct {
	Perfect    int `json:"perfectTranslation"`
	Good       int `json:"goodTranslation"`
	Acceptable int `json:"acceptableTranslation"`
	Poor       int `json:"poorTranslation"`
	Failed     int `json:"failedTranslation"`
}

// Thresholds are percentage cut-offs, highest first.
type Thresholds struct {
	High    int `json:"high"`
	Medium  int `json:"medium"`
	Low     int `json:"low"`
	VeryLow int `json:"veryLow"`
}

// Config tunes a session. CountdownDuration is in seconds.
type Config struct {
	InitialScore         int        `json:"initialScore"`
	InitialChapter       int        `json:"initialChapter"`
	CountdownDuration    int        `json:"countdownDuration"`
	Scoring              Scoring    `json:"scoring"`
	ConfidenceThresholds Thresholds `json:"confidenceThresholds"`
}

// DefaultConfig is used when no game config is supplied.
func DefaultConfig() Config {
	return Config{
		InitialScore:      0,
		InitialChapter:    1,
		CountdownDuration: 300,
		Scoring: Scoring{
			Perfect:    100,
			Good:       75,
			Acceptable: 50,
			Poor:       25,
			Failed:     0,
		},
		ConfidenceThresholds: Thresholds{High: 80, Medium: 60, Low: 40, VeryLow: 20},
	}
}

// Rating names the band a percentage falls in:
// "high", "medium", "low", "very-low" or "none".
func (c Config) Rating(pct int) string {
	t := c.ConfidenceThresholds
	switch {
	case pct >= t.High:
		return "high"
	case pct >= t.Medium:
		return "medium"
	case pct >= t.Low:
		return "low"
	case pct >= t.VeryLow:
		return "very-low"
	}
	return "none"
}

// Points converts an accuracy percentage into a score award. 100 is a
// perfect translation; below that the confidence bands pick the tier.
func (c Config) Points(accuracy int) int {
	if accuracy >= 100 {
		return c.Scoring.Perfect
	}
	switch c.Rating(accuracy) {
	case "high":
		return c.Scoring.Good
	case "medium":
		return c.Scoring.Acceptable
	case "low":
		return c.Scoring.Poor
	}
	return c.Scoring.Failed
}

// -------------------------------- log --------------------------------------

// LogLevel is the severity of a player-facing log entry.
type LogLevel string

const (
	LogInfo    LogLevel = "info"
	LogSuccess LogLevel = "success"
	LogWarning LogLevel = "warning"
	LogError   LogLevel = "error"
)

// LogEntry is one line of the translation log. ID and Timestamp are
// assigned by AddLog.
type LogEntry struct {
	ID        string            `json:"id"`
	Timestamp time.Time         `json:"timestamp"`
	Level     LogLevel          `json:"level"`
	Category  string            `json:"category"`
	Message   string            `json:"message"`
	Details   string            `json:"details,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// maxLogs bounds the log; the oldest entries go first.
const maxLogs = 500

// ------------------------------- snapshot ----------------------------------

// Snapshot is the externally visible game state. Sets are sorted.
type Snapshot struct {
	CurrentTransmission       *transmission.Transmission `json:"currentTransmission"`
	SelectedGlyph             string                     `json:"selectedGlyph,omitempty"`
	TranslationState          map[string]string          `json:"translationState"`
	PersistentSelections      []string                   `json:"persistentSelections"`
	ViewedTransmissions       []int                      `json:"viewedTransmissions"`
	SynchronizedTransmissions []int                      `json:"synchronizedTransmissions"`
	ProcessedTransmissions    []int                      `json:"processedTransmissions"`
	UnlockedGlyphs            []string                   `json:"unlockedGlyphs"`
	IsTransmissionComplete    bool                       `json:"isTransmissionComplete"`
	TotalTransmissions        int                        `json:"totalTransmissions"`
	EndGame                   bool                       `json:"endGame"`

	Score                    int        `json:"score"`
	Chapter                  int        `json:"chapter"`
	Countdown                int        `json:"countdown"`
	LastTransmissionAccuracy *int       `json:"lastTransmissionAccuracy"`
	Logs                     []LogEntry `json:"logs"`
}

// Progress summarizes the current transmission.
//
// Confidence follows the translation console: translated/unlocked × 100,
// plus a 5 point bonus for each translated unlocked glyph that directly
// follows another translated one, capped at 100. A transmission with no
// unlocked glyphs has confidence 100. Rating is Config.Rating(Confidence).
type Progress struct {
	TransmissionID int    `json:"transmissionId"`
	Total          int    `json:"total"`
	Unlocked       int    `json:"unlocked"`
	Locked         int    `json:"locked"`
	Translated     int    `json:"translated"`
	Confidence     int    `json:"confidence"`
	Rating         string `json:"rating"`
}

const consecutiveBonus = 5
