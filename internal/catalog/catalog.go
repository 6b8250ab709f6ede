// internal/catalog/catalog.go
//
// Loads game content once at startup.
// Responsibilities:
//   - Parse the glyph catalog, the transmission catalog, the decoy word
//     pool and the game settings, from embedded assets or override files.
//   - Resolve each transmission's Kind at this boundary (narrative vs
//     legacy) so nothing downstream inspects fields to guess it.
//   - Cross-check references and report content problems as warnings.
//
// Formats:
//   - Catalog files are JSON, or YAML when the path ends in .yaml/.yml.
//     Both use the same field names ({"glyphs": [...]} and
//     {"transmissions": [...]}). Game settings sit under "gameSettings";
//     absent settings keep their defaults.
//   - The decoy pool is one word per line; # starts a comment.

package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/robalobadob/firstlight/assets"
	"github.com/robalobadob/firstlight/internal/decoy"
	"github.com/robalobadob/firstlight/internal/game"
	"github.com/robalobadob/firstlight/internal/lexicon"
	"github.com/robalobadob/firstlight/internal/transmission"
)

// Sources names override files. Empty fields use the embedded assets.
type Sources struct {
	GlyphsFile        string
	TransmissionsFile string
	DecoysFile        string
	GameConfigFile    string
}

// Bundle is the parsed content shared by every session.
type Bundle struct {
	Glyphs        []lexicon.Glyph
	Transmissions *transmission.Catalog
	DecoyPool     []string
	Config        game.Config
	Warnings      []string
}

// Format selects the decoder for a catalog file.
type Format int

const (
	FormatJSON Format = iota
	FormatYAML
)

// FormatFor picks a Format from a file name.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	}
	return FormatJSON
}

// ---------------------------- raw file shapes ------------------------------

type glyphFile struct {
	Glyphs []glyphRecord `json:"glyphs" yaml:"glyphs"`
}

type glyphRecord struct {
	ID               string   `json:"id" yaml:"id"`
	Symbol           string   `json:"symbol" yaml:"symbol"`
	SVGPath          string   `json:"svgPath" yaml:"svgPath"`
	SVGViewBox       string   `json:"svgViewBox" yaml:"svgViewBox"`
	Meaning          string   `json:"meaning" yaml:"meaning"`
	PossibleMeanings []string `json:"possibleMeanings" yaml:"possibleMeanings"`
	Confidence       int      `json:"confidence" yaml:"confidence"`
	RotationDegrees  int      `json:"rotationDegrees" yaml:"rotationDegrees"`
	ContextualNote   string   `json:"contextualNote" yaml:"contextualNote"`
}

type transmissionFile struct {
	Transmissions []transmissionRecord `json:"transmissions" yaml:"transmissions"`
}

type segmentRecord struct {
	Type    string `json:"type" yaml:"type"`
	Content string `json:"content" yaml:"content"`
	Glyph   string `json:"glyph" yaml:"glyph"`
}

type manifestRecord struct {
	UnlockedGlyphs []string `json:"unlockedGlyphs" yaml:"unlockedGlyphs"`
	LockedGlyphs   []string `json:"lockedGlyphs" yaml:"lockedGlyphs"`
	Description    string   `json:"description" yaml:"description"`
}

type transmissionRecord struct {
	ID                  int             `json:"id" yaml:"id"`
	Kind                string          `json:"kind" yaml:"kind"`
	Title               string          `json:"title" yaml:"title"`
	Subtitle            string          `json:"subtitle" yaml:"subtitle"`
	AlienText           []segmentRecord `json:"alienText" yaml:"alienText"`
	Context             string          `json:"context" yaml:"context"`
	Glyphs              []string        `json:"glyphs" yaml:"glyphs"`
	GlyphLocking        *manifestRecord `json:"glyphLocking" yaml:"glyphLocking"`
	Translation         string          `json:"translation" yaml:"translation"`
	Interpretation      string          `json:"interpretation" yaml:"interpretation"`
	Timestamp           string          `json:"timestamp" yaml:"timestamp"`
	TranslatorNote      string          `json:"translatorNote" yaml:"translatorNote"`
	Chapter             int             `json:"chapter" yaml:"chapter"`
	Difficulty          int             `json:"difficulty" yaml:"difficulty"`
	ConfidenceThreshold int             `json:"confidenceThreshold" yaml:"confidenceThreshold"`
}

type gameConfigFile struct {
	Settings gameConfigRecord `json:"gameSettings" yaml:"gameSettings"`
}

type scoringRecord struct {
	Perfect    int `json:"perfectTranslation" yaml:"perfectTranslation"`
	Good       int `json:"goodTranslation" yaml:"goodTranslation"`
	Acceptable int `json:"acceptableTranslation" yaml:"acceptableTranslation"`
	Poor       int `json:"poorTranslation" yaml:"poorTranslation"`
	Failed     int `json:"failedTranslation" yaml:"failedTranslation"`
}

type thresholdsRecord struct {
	High    int `json:"high" yaml:"high"`
	Medium  int `json:"medium" yaml:"medium"`
	Low     int `json:"low" yaml:"low"`
	VeryLow int `json:"veryLow" yaml:"veryLow"`
}

type gameConfigRecord struct {
	InitialScore         int              `json:"initialScore" yaml:"initialScore"`
	InitialChapter       int              `json:"initialChapter" yaml:"initialChapter"`
	CountdownDuration    int              `json:"countdownDuration" yaml:"countdownDuration"`
	Scoring              scoringRecord    `json:"scoring" yaml:"scoring"`
	ConfidenceThresholds thresholdsRecord `json:"confidenceThresholds" yaml:"confidenceThresholds"`
}

func decode(data []byte, f Format, v any) error {
	if f == FormatYAML {
		return yaml.Unmarshal(data, v)
	}
	return json.Unmarshal(data, v)
}

// ------------------------------- parsing -----------------------------------

// ParseGlyphs decodes a glyph catalog. A glyph without a "meaning" falls
// back to its first possible meaning.
func ParseGlyphs(data []byte, f Format) ([]lexicon.Glyph, error) {
	var file glyphFile
	if err := decode(data, f, &file); err != nil {
		return nil, fmt.Errorf("decode glyphs: %w", err)
	}
	seen := make(map[string]struct{}, len(file.Glyphs))
	out := make([]lexicon.Glyph, 0, len(file.Glyphs))
	for i, r := range file.Glyphs {
		id := strings.TrimSpace(r.ID)
		if id == "" {
			return nil, fmt.Errorf("glyph #%d: missing id", i)
		}
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("glyph %q: duplicate id", id)
		}
		seen[id] = struct{}{}
		answer := strings.TrimSpace(r.Meaning)
		if answer == "" && len(r.PossibleMeanings) > 0 {
			answer = r.PossibleMeanings[0]
		}
		out = append(out, lexicon.Glyph{
			ID:               id,
			Symbol:           r.Symbol,
			SVGPath:          r.SVGPath,
			SVGViewBox:       r.SVGViewBox,
			RotationDegrees:  r.RotationDegrees,
			ContextualNote:   r.ContextualNote,
			PossibleMeanings: r.PossibleMeanings,
			Answer:           answer,
			Confidence:       r.Confidence,
		})
	}
	return out, nil
}

// ParseTransmissions decodes a transmission catalog and resolves kinds.
func ParseTransmissions(data []byte, f Format) ([]transmission.Transmission, error) {
	var file transmissionFile
	if err := decode(data, f, &file); err != nil {
		return nil, fmt.Errorf("decode transmissions: %w", err)
	}
	out := make([]transmission.Transmission, 0, len(file.Transmissions))
	for _, r := range file.Transmissions {
		kind, err := resolveKind(r)
		if err != nil {
			return nil, err
		}
		t := transmission.Transmission{
			ID:                  r.ID,
			Kind:                kind,
			Title:               r.Title,
			Subtitle:            r.Subtitle,
			Translation:         r.Translation,
			Interpretation:      r.Interpretation,
			Timestamp:           r.Timestamp,
			TranslatorNote:      r.TranslatorNote,
			ConfidenceThreshold: r.ConfidenceThreshold,
			Chapter:             r.Chapter,
			Difficulty:          r.Difficulty,
		}
		switch kind {
		case transmission.KindNarrative:
			for j, s := range r.AlienText {
				seg, err := toSegment(s)
				if err != nil {
					return nil, fmt.Errorf("transmission %d segment %d: %w", r.ID, j, err)
				}
				t.AlienText = append(t.AlienText, seg)
			}
		case transmission.KindLegacy:
			t.Context = r.Context
			t.Glyphs = r.Glyphs
		}
		if r.GlyphLocking != nil {
			t.GlyphLocking = &transmission.Manifest{
				UnlockedGlyphs: r.GlyphLocking.UnlockedGlyphs,
				LockedGlyphs:   r.GlyphLocking.LockedGlyphs,
				Description:    r.GlyphLocking.Description,
			}
		}
		out = append(out, t)
	}
	return out, nil
}

// ParseGameConfig decodes game settings over game.DefaultConfig. Scores,
// chapter and countdown must not be negative; thresholds must lie in
// [0, 100] and not increase from high to veryLow.
func ParseGameConfig(data []byte, f Format) (game.Config, error) {
	d := game.DefaultConfig()
	file := gameConfigFile{Settings: gameConfigRecord{
		InitialScore:      d.InitialScore,
		InitialChapter:    d.InitialChapter,
		CountdownDuration: d.CountdownDuration,
		Scoring: scoringRecord{
			Perfect:    d.Scoring.Perfect,
			Good:       d.Scoring.Good,
			Acceptable: d.Scoring.Acceptable,
			Poor:       d.Scoring.Poor,
			Failed:     d.Scoring.Failed,
		},
		ConfidenceThresholds: thresholdsRecord{
			High:    d.ConfidenceThresholds.High,
			Medium:  d.ConfidenceThresholds.Medium,
			Low:     d.ConfidenceThresholds.Low,
			VeryLow: d.ConfidenceThresholds.VeryLow,
		},
	}}
	if err := decode(data, f, &file); err != nil {
		return game.Config{}, fmt.Errorf("decode game config: %w", err)
	}
	r := file.Settings
	if r.InitialScore < 0 || r.InitialChapter < 0 || r.CountdownDuration < 0 {
		return game.Config{}, fmt.Errorf("game config: initial score, chapter and countdown must not be negative")
	}
	th := r.ConfidenceThresholds
	if th.VeryLow < 0 || th.High > 100 || th.High < th.Medium || th.Medium < th.Low || th.Low < th.VeryLow {
		return game.Config{}, fmt.Errorf("game config: confidence thresholds %d/%d/%d/%d out of order", th.High, th.Medium, th.Low, th.VeryLow)
	}
	return game.Config{
		InitialScore:      r.InitialScore,
		InitialChapter:    r.InitialChapter,
		CountdownDuration: r.CountdownDuration,
		Scoring: game.Scoring{
			Perfect:    r.Scoring.Perfect,
			Good:       r.Scoring.Good,
			Acceptable: r.Scoring.Acceptable,
			Poor:       r.Scoring.Poor,
			Failed:     r.Scoring.Failed,
		},
		ConfidenceThresholds: game.Thresholds{
			High:    th.High,
			Medium:  th.Medium,
			Low:     th.Low,
			VeryLow: th.VeryLow,
		},
	}, nil
}

// resolveKind uses the explicit kind when given, otherwise infers it from
// which variant's fields are present.
func resolveKind(r transmissionRecord) (transmission.Kind, error) {
	switch transmission.Kind(strings.ToLower(strings.TrimSpace(r.Kind))) {
	case transmission.KindNarrative:
		return transmission.KindNarrative, nil
	case transmission.KindLegacy:
		return transmission.KindLegacy, nil
	case "":
	default:
		return "", fmt.Errorf("transmission %d: unknown kind %q", r.ID, r.Kind)
	}
	hasText, hasGlyphs := len(r.AlienText) > 0, len(r.Glyphs) > 0
	switch {
	case hasText && hasGlyphs:
		return "", fmt.Errorf("transmission %d: both alienText and glyphs set, kind is ambiguous", r.ID)
	case hasGlyphs:
		return transmission.KindLegacy, nil
	}
	return transmission.KindNarrative, nil
}

func toSegment(s segmentRecord) (transmission.Segment, error) {
	switch transmission.SegmentType(s.Type) {
	case transmission.SegmentText:
		return transmission.Segment{Type: transmission.SegmentText, Content: s.Content}, nil
	case transmission.SegmentGlyph:
		if strings.TrimSpace(s.Glyph) == "" {
			return transmission.Segment{}, fmt.Errorf("glyph segment without glyph id")
		}
		return transmission.Segment{Type: transmission.SegmentGlyph, Glyph: strings.TrimSpace(s.Glyph)}, nil
	}
	return transmission.Segment{}, fmt.Errorf("unknown segment type %q", s.Type)
}

// -------------------------------- loading ----------------------------------

// Load reads every source and cross-checks the result.
func Load(src Sources) (*Bundle, error) {
	gData, gFmt, err := readSource(src.GlyphsFile, assets.GlyphsFile)
	if err != nil {
		return nil, err
	}
	glyphs, err := ParseGlyphs(gData, gFmt)
	if err != nil {
		return nil, err
	}

	tData, tFmt, err := readSource(src.TransmissionsFile, assets.TransmissionsFile)
	if err != nil {
		return nil, err
	}
	ts, err := ParseTransmissions(tData, tFmt)
	if err != nil {
		return nil, err
	}
	cat, err := transmission.NewCatalog(ts)
	if err != nil {
		return nil, fmt.Errorf("build catalog: %w", err)
	}

	dData, _, err := readSource(src.DecoysFile, assets.DecoysFile)
	if err != nil {
		return nil, err
	}
	pool, err := assets.ReadLines(dData)
	if err != nil {
		return nil, fmt.Errorf("read decoy pool: %w", err)
	}

	cData, cFmt, err := readSource(src.GameConfigFile, assets.GameConfigFile)
	if err != nil {
		return nil, err
	}
	gc, err := ParseGameConfig(cData, cFmt)
	if err != nil {
		return nil, err
	}

	b := &Bundle{Glyphs: glyphs, Transmissions: cat, DecoyPool: pool, Config: gc}
	b.Warnings = Check(b)
	return b, nil
}

// readSource returns the override file when path is set, the embedded
// asset otherwise.
func readSource(path, embedded string) ([]byte, Format, error) {
	if path == "" {
		data, err := assets.Read(embedded)
		if err != nil {
			return nil, FormatJSON, fmt.Errorf("read embedded %s: %w", embedded, err)
		}
		return data, FormatFor(embedded), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, FormatJSON, fmt.Errorf("read %s: %w", path, err)
	}
	return data, FormatFor(path), nil
}

// Check reports content problems that do not stop the game: dangling glyph
// references, glyphs without an answer, and a decoy pool too small for a
// full choice set.
func Check(b *Bundle) []string {
	var warns []string
	known := make(map[string]string, len(b.Glyphs))
	for _, g := range b.Glyphs {
		known[g.ID] = g.Answer
		if g.Answer == "" {
			warns = append(warns, fmt.Sprintf("glyph %q has no meaning", g.ID))
		}
	}
	if b.Transmissions != nil {
		if b.Transmissions.Len() == 0 {
			warns = append(warns, "transmission catalog is empty")
		}
		for _, t := range b.Transmissions.All() {
			for _, id := range transmission.GlyphIDs(t) {
				if _, ok := known[id]; !ok {
					warns = append(warns, fmt.Sprintf("transmission %d references unknown glyph %q", t.ID, id))
				}
			}
			if t.GlyphLocking == nil {
				continue
			}
			for _, id := range t.GlyphLocking.UnlockedGlyphs {
				if _, ok := known[id]; !ok {
					warns = append(warns, fmt.Sprintf("transmission %d unlocks unknown glyph %q", t.ID, id))
				}
			}
		}
	}
	gen := decoy.NewGenerator(b.DecoyPool, nil)
	for _, g := range b.Glyphs {
		if g.Answer == "" {
			continue
		}
		if n := gen.Available(g.Answer); n < decoy.Decoys {
			warns = append(warns, fmt.Sprintf("decoy pool offers only %d decoys for glyph %q", n, g.ID))
		}
	}
	return warns
}
