// internal/transmission/types.go
//
// Transmission data contracts.
// A transmission is an explicit sum type discriminated by Kind:
//   - KindNarrative: ordered AlienText segments mixing text and glyph refs.
//   - KindLegacy:    a flat Glyphs list with a Context line.
// The kind is resolved once when the catalog is loaded; consumers switch on
// Kind instead of probing for fields.

package transmission

// Kind discriminates the transmission variants.
type Kind string

const (
	KindNarrative Kind = "narrative"
	KindLegacy    Kind = "legacy"
)

// SegmentType discriminates AlienText segments.
type SegmentType string

const (
	SegmentText  SegmentType = "text"
	SegmentGlyph SegmentType = "glyph"
)

// Segment is one piece of a narrative transmission.
type Segment struct {
	Type    SegmentType `json:"type"`
	Content string      `json:"content,omitempty"`
	Glyph   string      `json:"glyph,omitempty"`
}

// Manifest declares which glyphs a transmission introduces.
type Manifest struct {
	UnlockedGlyphs []string `json:"unlockedGlyphs"`
	LockedGlyphs   []string `json:"lockedGlyphs"`
	Description    string   `json:"description,omitempty"`
}

// Empty reports whether the manifest unlocks nothing.
func (m Manifest) Empty() bool { return len(m.UnlockedGlyphs) == 0 }

// Transmission is one catalog entry. Read-only after load.
type Transmission struct {
	ID   int  `json:"id"`
	Kind Kind `json:"kind"`

	Title               string    `json:"title"`
	Subtitle            string    `json:"subtitle,omitempty"`
	AlienText           []Segment `json:"alienText,omitempty"`
	Translation         string    `json:"translation,omitempty"`
	Interpretation      string    `json:"interpretation,omitempty"`
	Timestamp           string    `json:"timestamp,omitempty"`
	TranslatorNote      string    `json:"translatorNote,omitempty"`
	ConfidenceThreshold int       `json:"confidenceThreshold,omitempty"`

	// Legacy variant.
	Context string   `json:"context,omitempty"`
	Glyphs  []string `json:"glyphs,omitempty"`

	GlyphLocking *Manifest `json:"glyphLocking,omitempty"`
	Chapter      int       `json:"chapter"`
	Difficulty   int       `json:"difficulty"`
}

// GlyphIDs returns the glyph ids t references, in order of appearance.
func GlyphIDs(t Transmission) []string {
	switch t.Kind {
	case KindNarrative:
		var out []string
		for _, seg := range t.AlienText {
			if seg.Type == SegmentGlyph && seg.Glyph != "" {
				out = append(out, seg.Glyph)
			}
		}
		return out
	case KindLegacy:
		out := make([]string, 0, len(t.Glyphs))
		for _, g := range t.Glyphs {
			if g != "" {
				out = append(out, g)
			}
		}
		return out
	}
	return nil
}
