package lexicon

import (
	"testing"

	"github.com/robalobadob/firstlight/internal/event"
)

func testDefs() []Glyph {
	return []Glyph{
		{ID: "wsopu", Symbol: "~", PossibleMeanings: []string{"speak", "voice"}, Answer: "speak", Confidence: 20},
		{ID: "op", Symbol: "o", PossibleMeanings: []string{"give", "gift"}, Answer: "give", Confidence: 95},
		{ID: "ka", Symbol: "*", PossibleMeanings: []string{"light"}, Answer: "light"},
	}
}

func TestNewStartsLocked(t *testing.T) {
	defs := testDefs()
	defs[0].IsUnlocked = true
	defs[0].ConfirmedMeaning = "speak"
	s := New(defs, nil)
	if s.Len() != 3 {
		t.Fatalf("Len = %d, want 3", s.Len())
	}
	for _, g := range s.All() {
		if g.IsUnlocked || g.ConfirmedMeaning != "" || g.FirstSeenInTransmission != 0 {
			t.Errorf("glyph %s not reset to locked: %+v", g.ID, g)
		}
	}
	if got := s.All()[2].ID; got != "ka" {
		t.Errorf("catalog order broken: last = %q", got)
	}
}

func TestGlyphNotFound(t *testing.T) {
	s := New(testDefs(), nil)
	if _, ok := s.Glyph("nope"); ok {
		t.Error("unknown glyph reported found")
	}
	if s.IsUnlocked("nope") {
		t.Error("unknown glyph reported unlocked")
	}
}

func TestUnlockMonotonicFirstSeenOnce(t *testing.T) {
	s := New(testDefs(), nil)
	changed, found := s.Unlock("op", 2)
	if !changed || !found {
		t.Fatalf("Unlock = %v,%v; want true,true", changed, found)
	}
	changed, found = s.Unlock("op", 5)
	if changed || !found {
		t.Errorf("second Unlock = %v,%v; want false,true", changed, found)
	}
	g, _ := s.Glyph("op")
	if !g.IsUnlocked || g.FirstSeenInTransmission != 2 {
		t.Errorf("glyph = %+v; want unlocked, first seen 2", g)
	}
	if len(s.Unlocked()) != 1 {
		t.Errorf("Unlocked() len = %d, want 1", len(s.Unlocked()))
	}
}

func TestUnlockUnknownWarns(t *testing.T) {
	var rec event.Recorder
	s := New(testDefs(), &rec)
	if changed, found := s.Unlock("ghost", 1); changed || found {
		t.Errorf("Unlock(ghost) = %v,%v; want false,false", changed, found)
	}
	if rec.Count(event.UnknownGlyph) != 1 {
		t.Errorf("unknown_glyph events = %d, want 1", rec.Count(event.UnknownGlyph))
	}
}

func TestAssignMeaningBookkeeping(t *testing.T) {
	s := New(testDefs(), nil)
	cases := []struct {
		id             string
		wantConfidence int
	}{
		{"wsopu", 30},
		{"op", MaxConfidence},
	}
	for _, c := range cases {
		if !s.AssignMeaning(c.id, "x") {
			t.Fatalf("AssignMeaning(%s) returned false", c.id)
		}
		g, _ := s.Glyph(c.id)
		if g.Confidence != c.wantConfidence || g.TimesUsed != 1 || g.ConfirmedMeaning != "x" {
			t.Errorf("%s = %+v; want confidence %d, timesUsed 1", c.id, g, c.wantConfidence)
		}
	}
	s.AssignMeaning("wsopu", "speak")
	g, _ := s.Glyph("wsopu")
	if g.Confidence != 40 || g.TimesUsed != 2 || g.ConfirmedMeaning != "speak" {
		t.Errorf("after second assign: %+v", g)
	}
}

func TestAssignMeaningUnknownIsNoop(t *testing.T) {
	var rec event.Recorder
	s := New(testDefs(), &rec)
	if s.AssignMeaning("ghost", "x") {
		t.Error("AssignMeaning(ghost) returned true")
	}
	if rec.Count(event.UnknownGlyph) != 1 {
		t.Errorf("unknown_glyph events = %d, want 1", rec.Count(event.UnknownGlyph))
	}
	if len(s.Confirmed()) != 0 {
		t.Error("unknown assign confirmed something")
	}
}

func TestQueries(t *testing.T) {
	s := New(testDefs(), nil)
	s.AssignMeaning("ka", "light")
	if got := len(s.Confirmed()); got != 1 {
		t.Errorf("Confirmed len = %d, want 1", got)
	}
	if got := len(s.Unconfirmed()); got != 2 {
		t.Errorf("Unconfirmed len = %d, want 2", got)
	}
	if got := len(s.ByConfidence(20)); got != 2 {
		t.Errorf("ByConfidence(20) len = %d, want 2", got)
	}
	if got := s.Search("GIF"); len(got) != 1 || got[0].ID != "op" {
		t.Errorf("Search(GIF) = %+v", got)
	}
	if got := s.Search("light"); len(got) != 1 || got[0].ID != "ka" {
		t.Errorf("Search(light) = %+v", got)
	}
}
