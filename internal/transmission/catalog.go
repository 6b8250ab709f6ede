// internal/transmission/catalog.go
//
// Transmission Catalog: static, ordered, read-only access to transmissions
// and their glyph manifests. Safe to share between sessions.

package transmission

import (
	"fmt"
	"slices"
	"strings"
)

// FirstTransmissionID is the id the catalog designates as the starting
// transmission when present.
const FirstTransmissionID = 1

// Catalog is the ordered transmission list.
type Catalog struct {
	list     []Transmission
	index    map[int]int
	glyphIDs map[int][]string
}

// NewCatalog validates ids and kinds and memoizes glyph references.
func NewCatalog(ts []Transmission) (*Catalog, error) {
	c := &Catalog{
		list:     make([]Transmission, 0, len(ts)),
		index:    make(map[int]int, len(ts)),
		glyphIDs: make(map[int][]string, len(ts)),
	}
	for _, t := range ts {
		if t.ID <= 0 {
			return nil, fmt.Errorf("transmission %q: id must be positive, got %d", t.Title, t.ID)
		}
		if _, dup := c.index[t.ID]; dup {
			return nil, fmt.Errorf("transmission %d: duplicate id", t.ID)
		}
		if t.Kind != KindNarrative && t.Kind != KindLegacy {
			return nil, fmt.Errorf("transmission %d: unknown kind %q", t.ID, t.Kind)
		}
		c.index[t.ID] = len(c.list)
		c.list = append(c.list, t)
		c.glyphIDs[t.ID] = GlyphIDs(t)
	}
	return c, nil
}

// All returns the transmissions in catalog order.
func (c *Catalog) All() []Transmission { return slices.Clone(c.list) }

// Len is the number of transmissions.
func (c *Catalog) Len() int { return len(c.list) }

// ByID looks up a transmission.
func (c *Catalog) ByID(id int) (Transmission, bool) {
	i, ok := c.index[id]
	if !ok {
		return Transmission{}, false
	}
	return c.list[i], true
}

// At returns the transmission at catalog position i.
func (c *Catalog) At(i int) (Transmission, bool) {
	if i < 0 || i >= len(c.list) {
		return Transmission{}, false
	}
	return c.list[i], true
}

// IndexOf returns the catalog position of id.
func (c *Catalog) IndexOf(id int) (int, bool) {
	i, ok := c.index[id]
	return i, ok
}

// FirstID is FirstTransmissionID when the catalog has it, otherwise the id
// of the first entry. Zero for an empty catalog.
func (c *Catalog) FirstID() int {
	if _, ok := c.index[FirstTransmissionID]; ok {
		return FirstTransmissionID
	}
	if len(c.list) == 0 {
		return 0
	}
	return c.list[0].ID
}

// GlyphIDs returns the glyph references of transmission id (nil if unknown).
func (c *Catalog) GlyphIDs(id int) []string {
	return slices.Clone(c.glyphIDs[id])
}

// Manifest returns the unlock manifest of transmission id; the zero
// Manifest when the transmission is unknown or defines none.
func (c *Catalog) Manifest(id int) Manifest {
	t, ok := c.ByID(id)
	if !ok || t.GlyphLocking == nil {
		return Manifest{}
	}
	m := *t.GlyphLocking
	m.UnlockedGlyphs = slices.Clone(m.UnlockedGlyphs)
	m.LockedGlyphs = slices.Clone(m.LockedGlyphs)
	return m
}

// ForChapter returns the transmissions of one chapter in catalog order.
func (c *Catalog) ForChapter(chapter int) []Transmission {
	var out []Transmission
	for _, t := range c.list {
		if t.Chapter == chapter {
			out = append(out, t)
		}
	}
	return out
}

// Search matches term case-insensitively against the narrative text fields.
func (c *Catalog) Search(term string) []Transmission {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return c.All()
	}
	var out []Transmission
	for _, t := range c.list {
		for _, f := range []string{t.Title, t.Subtitle, t.Translation, t.Interpretation, t.TranslatorNote, t.Context} {
			if f != "" && strings.Contains(strings.ToLower(f), term) {
				out = append(out, t)
				break
			}
		}
	}
	return out
}
