// internal/lexicon/glyph.go
//
// Glyph is the canonical record for one alien symbol.
// Rendering fields (Symbol, SVGPath, SVGViewBox, RotationDegrees,
// ContextualNote) are opaque to the game logic and only passed through.

package lexicon

const (
	// ConfidenceBonus is added to a glyph's confidence on every assignment.
	ConfidenceBonus = 10
	// MaxConfidence caps Glyph.Confidence.
	MaxConfidence = 100
)

// Glyph holds one lexicon entry.
//
// IsUnlocked is monotonic and FirstSeenInTransmission is written at most
// once (0 means unset; transmission ids are positive).
type Glyph struct {
	ID               string   `json:"id"`
	Symbol           string   `json:"symbol"`
	SVGPath          string   `json:"svgPath,omitempty"`
	SVGViewBox       string   `json:"svgViewBox,omitempty"`
	RotationDegrees  int      `json:"rotationDegrees,omitempty"`
	ContextualNote   string   `json:"contextualNote,omitempty"`
	PossibleMeanings []string `json:"possibleMeanings"`

	// Answer is the catalog meaning the decoy selector treats as correct.
	// Never sent to clients.
	Answer string `json:"-"`

	ConfirmedMeaning        string `json:"confirmedMeaning,omitempty"`
	Confidence              int    `json:"confidence"`
	TimesUsed               int    `json:"timesUsed"`
	IsUnlocked              bool   `json:"isUnlocked"`
	FirstSeenInTransmission int    `json:"firstSeenInTransmission,omitempty"`
}
