package game

import (
	"math/rand/v2"
	"reflect"
	"testing"
	"time"

	"github.com/robalobadob/firstlight/internal/decoy"
	"github.com/robalobadob/firstlight/internal/event"
	"github.com/robalobadob/firstlight/internal/lexicon"
	"github.com/robalobadob/firstlight/internal/transmission"
)

func glyphSegs(ids ...string) []transmission.Segment {
	var out []transmission.Segment
	for _, id := range ids {
		out = append(out,
			transmission.Segment{Type: transmission.SegmentText, Content: "·"},
			transmission.Segment{Type: transmission.SegmentGlyph, Glyph: id})
	}
	return out
}

func manifest(ids ...string) *transmission.Manifest {
	return &transmission.Manifest{UnlockedGlyphs: ids}
}

// testDeps builds a three-transmission catalog:
//
//	#1 wsopu op          unlocks wsopu op
//	#2 ir ka vem         unlocks ir ka (vem stays locked)
//	#3 vem thul hesk     unlocks vem thul (hesk only revealed at the end)
func testDeps(t *testing.T, sink event.Sink) Deps {
	t.Helper()
	glyphs := []lexicon.Glyph{
		{ID: "wsopu", Answer: "speak"},
		{ID: "op", Answer: "give"},
		{ID: "ir", Answer: "you"},
		{ID: "ka", Answer: "light"},
		{ID: "vem", Answer: "shape"},
		{ID: "thul", Answer: "sound"},
		{ID: "hesk", Answer: "sky"},
	}
	cat, err := transmission.NewCatalog([]transmission.Transmission{
		{ID: 1, Kind: transmission.KindNarrative, Title: "First Contact", AlienText: glyphSegs("wsopu", "op"), GlyphLocking: manifest("wsopu", "op")},
		{ID: 2, Kind: transmission.KindNarrative, Title: "Signal Bloom", AlienText: glyphSegs("ir", "ka", "vem"), GlyphLocking: manifest("ir", "ka")},
		{ID: 3, Kind: transmission.KindNarrative, Title: "Echo", AlienText: glyphSegs("vem", "thul", "hesk"), GlyphLocking: manifest("vem", "thul")},
	})
	if err != nil {
		t.Fatal(err)
	}
	pool := []string{"star", "moon", "sun", "fire", "water", "earth", "wind"}
	return Deps{
		Glyphs:        glyphs,
		Transmissions: cat,
		Decoys:        decoy.NewGenerator(pool, rand.New(rand.NewPCG(3, 4))),
		Sink:          sink,
	}
}

func currentID(m *Machine) int {
	t, ok := m.Current()
	if !ok {
		return 0
	}
	return t.ID
}

func TestNewSeedsFirstTransmission(t *testing.T) {
	m := New(testDeps(t, nil))
	if currentID(m) != 1 {
		t.Fatalf("current = %d, want 1", currentID(m))
	}
	if !m.IsViewed(1) {
		t.Error("first transmission not auto-viewed")
	}
	for _, g := range []string{"wsopu", "op"} {
		if !m.Unlocks().IsGlyphUnlocked(g) {
			t.Errorf("%s locked after start", g)
		}
	}
	if m.Unlocks().IsGlyphUnlocked("ka") {
		t.Error("ka unlocked at start")
	}
	if m.IsTransmissionComplete() || m.EndGame() {
		t.Error("fresh session should be neither complete nor finished")
	}
}

func TestAssignMeaningCompletesTransmission(t *testing.T) {
	m := New(testDeps(t, nil))
	m.AssignMeaning("wsopu", "speak")
	if m.IsTransmissionComplete() {
		t.Fatal("complete with one of two glyphs translated")
	}
	m.AssignMeaning("op", "give")
	if !m.IsTransmissionComplete() {
		t.Fatal("not complete after translating both glyphs")
	}
	if m.IsSynchronized(1) {
		t.Error("assignment must not synchronize")
	}
	g, _ := m.Lexicon().Glyph("op")
	if g.ConfirmedMeaning != "give" || g.TimesUsed != 1 || g.Confidence != lexicon.ConfidenceBonus {
		t.Errorf("lexicon bookkeeping = %+v", g)
	}
}

func TestCompletionIgnoresLockedGlyphs(t *testing.T) {
	m := New(testDeps(t, nil))
	m.SelectTransmission(2)
	if m.Unlocks().IsGlyphUnlocked("vem") {
		t.Fatal("vem should still be locked")
	}
	m.AssignMeaning("ir", "you")
	m.AssignMeaning("ka", "light")
	if !m.IsTransmissionComplete() {
		t.Error("locked vem should not block completion")
	}
}

func TestAssignMeaningRejections(t *testing.T) {
	var rec event.Recorder
	m := New(testDeps(t, &rec))
	m.AssignMeaning("vem", "shape")
	m.AssignMeaning("wsopu", "   ")
	m.AssignMeaning("ghost", "boo")
	if len(m.Snapshot().TranslationState) != 0 {
		t.Errorf("translation state = %v, want empty", m.Snapshot().TranslationState)
	}
	if rec.Count(event.MeaningRejected) != 2 || rec.Count(event.UnknownGlyph) != 1 {
		t.Errorf("rejected=%d unknown=%d", rec.Count(event.MeaningRejected), rec.Count(event.UnknownGlyph))
	}
}

func TestSelectGlyphToggle(t *testing.T) {
	m := New(testDeps(t, nil))
	steps := []struct {
		id   string
		want string
	}{
		{"wsopu", "wsopu"},
		{"wsopu", ""},
		{"op", "op"},
		{"ka", "ka"}, // locked glyphs are selectable at this layer
		{"", ""},
	}
	for i, s := range steps {
		m.SelectGlyph(s.id)
		if got := m.SelectedGlyph(); got != s.want {
			t.Errorf("step %d: SelectGlyph(%q) -> %q, want %q", i, s.id, got, s.want)
		}
	}
	if got := m.Snapshot().PersistentSelections; !reflect.DeepEqual(got, []string{"ka", "op", "wsopu"}) {
		t.Errorf("persistent = %v", got)
	}
	m.ClearPersistentSelections()
	if len(m.Snapshot().PersistentSelections) != 0 {
		t.Error("persistent selections not cleared")
	}
}

func TestMarkSynchronizedOtherTransmission(t *testing.T) {
	m := New(testDeps(t, nil))
	m.MarkTransmissionSynchronized(3)
	if !m.IsSynchronized(3) {
		t.Error("3 not synchronized")
	}
	if m.IsTransmissionComplete() {
		t.Error("completion of current transmission changed")
	}
	m.MarkTransmissionSynchronized(1)
	if !m.IsTransmissionComplete() {
		t.Error("synchronizing the current transmission should force completion")
	}
	m.MarkTransmissionSynchronized(42)
	if m.IsSynchronized(42) {
		t.Error("unknown transmission synchronized")
	}
}

func TestNextTransmissionCommitsAndAdvances(t *testing.T) {
	m := New(testDeps(t, nil))
	m.SelectGlyph("op")
	m.AssignMeaning("wsopu", "speak")
	m.AssignMeaning("op", "give")
	m.NextTransmission()

	if currentID(m) != 2 {
		t.Fatalf("current = %d, want 2", currentID(m))
	}
	if !m.IsSynchronized(1) {
		t.Error("complete transmission not committed on advance")
	}
	if !m.IsViewed(2) || !m.Unlocks().Processed(2) || !m.Unlocks().IsGlyphUnlocked("ka") {
		t.Error("next transmission not viewed/unlocked")
	}
	if m.SelectedGlyph() != "" {
		t.Error("selection survived advance")
	}
	if v, ok := m.Translation("op"); !ok || v != "give" {
		t.Error("translation state should persist across transmissions")
	}

	m.NextTransmission()
	if m.IsSynchronized(2) {
		t.Error("incomplete transmission committed")
	}
}

func TestNextTransmissionOnLastReveals(t *testing.T) {
	m := New(testDeps(t, nil))
	m.SelectTransmission(3)
	if m.Unlocks().IsGlyphUnlocked("hesk") {
		t.Fatal("hesk should be locked before the final reveal")
	}
	m.NextTransmission()
	if currentID(m) != 3 {
		t.Fatalf("current = %d, want 3", currentID(m))
	}
	for _, g := range []string{"vem", "thul", "hesk"} {
		if !m.Unlocks().IsGlyphUnlocked(g) {
			t.Errorf("%s still locked after final reveal", g)
		}
	}
	m.NextTransmission()
	if currentID(m) != 3 {
		t.Errorf("current moved past the end: %d", currentID(m))
	}
}

func TestEndGameLatches(t *testing.T) {
	var rec event.Recorder
	m := New(testDeps(t, &rec))
	for _, id := range []int{1, 2, 3} {
		if m.EndGame() {
			t.Fatalf("end game before synchronizing %d", id)
		}
		m.MarkTransmissionSynchronized(id)
	}
	if !m.EndGame() || !m.EndGameReached() {
		t.Fatal("end game not reached")
	}
	m.SelectTransmission(1)
	m.AssignMeaning("wsopu", "speak")
	m.NextTransmission()
	m.MarkTransmissionSynchronized(2)
	m.NextTransmission()
	m.NextTransmission()
	if !m.EndGame() {
		t.Error("end game flapped back")
	}
	if rec.Count(event.EndGame) != 1 {
		t.Errorf("end_game events = %d, want 1", rec.Count(event.EndGame))
	}

	m.Reset()
	if m.EndGame() || len(m.Snapshot().SynchronizedTransmissions) != 0 {
		t.Error("reset kept progress")
	}
}

func TestEndGameThroughPlay(t *testing.T) {
	m := New(testDeps(t, nil))
	m.AssignMeaning("wsopu", "speak")
	m.AssignMeaning("op", "give")
	m.NextTransmission()
	m.AssignMeaning("ir", "you")
	m.AssignMeaning("ka", "light")
	m.NextTransmission()
	m.AssignMeaning("vem", "shape")
	m.AssignMeaning("thul", "sound")
	m.NextTransmission() // reveals hesk, commits #3
	if !m.IsSynchronized(3) {
		t.Fatal("last transmission not committed")
	}
	if !m.EndGame() {
		t.Error("end game not reached after synchronizing everything")
	}
	if m.IsTransmissionComplete() {
		t.Error("revealed hesk is untranslated, transmission should be incomplete")
	}
}

func TestResetRebuildsLexicon(t *testing.T) {
	m := New(testDeps(t, nil))
	m.SelectTransmission(2)
	m.AssignMeaning("ka", "light")
	m.Reset()
	if m.Unlocks().IsGlyphUnlocked("ka") {
		t.Error("ka still unlocked after reset")
	}
	g, _ := m.Lexicon().Glyph("ka")
	if g.ConfirmedMeaning != "" || g.TimesUsed != 0 {
		t.Errorf("lexicon not fresh: %+v", g)
	}
	if currentID(m) != 1 || !m.IsViewed(1) || m.IsViewed(2) {
		t.Error("reset did not restore the starting position")
	}
}

func TestSelectUnknownTransmissionIsNoop(t *testing.T) {
	m := New(testDeps(t, nil))
	m.SelectTransmission(9)
	m.ViewTransmission(9)
	if currentID(m) != 1 || m.IsViewed(9) || m.Unlocks().Processed(9) {
		t.Error("unknown transmission changed state")
	}
}

func TestProgressAndAccuracy(t *testing.T) {
	m := New(testDeps(t, nil))
	m.SelectTransmission(2)
	if p := m.Progress(); p.Total != 3 || p.Unlocked != 2 || p.Locked != 1 || p.Translated != 0 || p.Confidence != 0 {
		t.Errorf("initial progress = %+v", p)
	}
	m.AssignMeaning("ir", "you")
	m.AssignMeaning("ka", "dark")
	p := m.Progress()
	if p.Translated != 2 || p.Confidence != 100 {
		t.Errorf("progress = %+v, want 2 translated, confidence 100", p)
	}
	if got := m.Accuracy(2); got != 33 {
		t.Errorf("Accuracy(2) = %d, want 33", got)
	}
	if got := m.Accuracy(77); got != 0 {
		t.Errorf("Accuracy(77) = %d, want 0", got)
	}
}

func TestChoices(t *testing.T) {
	m := New(testDeps(t, nil))
	opts, ok := m.Choices("wsopu")
	if !ok || len(opts) != decoy.Decoys+1 {
		t.Fatalf("Choices(wsopu) = %d,%v", len(opts), ok)
	}
	for _, o := range opts {
		if o.IsCorrect && o.Label != "speak" {
			t.Errorf("correct option = %q, want speak", o.Label)
		}
	}
	if _, ok := m.Choices("ka"); ok {
		t.Error("locked glyph produced a choice set")
	}
	if _, ok := m.Choices("ghost"); ok {
		t.Error("unknown glyph produced a choice set")
	}
}

func TestRevealAllReopensCompletion(t *testing.T) {
	m := New(testDeps(t, nil))
	m.SelectTransmission(2)
	m.AssignMeaning("ir", "you")
	m.AssignMeaning("ka", "light")
	if !m.IsTransmissionComplete() {
		t.Fatal("transmission 2 should be complete before reveal")
	}
	if n := m.RevealAll(); n != 3 {
		t.Errorf("RevealAll = %d, want 3 (vem thul hesk)", n)
	}
	if m.IsTransmissionComplete() {
		t.Error("revealed vem is untranslated; completion should drop")
	}
}

func TestViewSharedGlyphReopensCurrent(t *testing.T) {
	m := New(testDeps(t, nil))
	m.SelectTransmission(2)
	m.AssignMeaning("ir", "you")
	m.AssignMeaning("ka", "light")
	if !m.IsTransmissionComplete() {
		t.Fatal("transmission 2 should be complete with vem locked")
	}

	// #3's manifest unlocks vem, which #2 also shows.
	m.ViewTransmission(3)
	if !m.Unlocks().IsGlyphUnlocked("vem") {
		t.Fatal("vem still locked after viewing 3")
	}
	if m.IsTransmissionComplete() {
		t.Error("vem is untranslated; transmission 2 should no longer be complete")
	}

	m.NextTransmission()
	if m.IsSynchronized(2) {
		t.Error("Next synchronized 2 with vem untranslated")
	}
	if currentID(m) != 3 {
		t.Errorf("current = %d, want 3", currentID(m))
	}
}

func TestSnapshotSetsSorted(t *testing.T) {
	m := New(testDeps(t, nil))
	m.SelectTransmission(3)
	m.SelectTransmission(2)
	s := m.Snapshot()
	if want := []string{"ir", "ka", "op", "thul", "vem", "wsopu"}; !reflect.DeepEqual(s.UnlockedGlyphs, want) {
		t.Errorf("UnlockedGlyphs = %v, want %v", s.UnlockedGlyphs, want)
	}
	if want := []int{1, 2, 3}; !reflect.DeepEqual(s.ViewedTransmissions, want) {
		t.Errorf("ViewedTransmissions = %v, want %v", s.ViewedTransmissions, want)
	}
}

func TestScoreOnSynchronize(t *testing.T) {
	rec := &event.Recorder{}
	m := New(testDeps(t, rec))
	if m.Score() != 0 || m.Chapter() != 1 || m.Countdown() != 300 {
		t.Fatalf("start = %d/%d/%d, want 0/1/300", m.Score(), m.Chapter(), m.Countdown())
	}
	if _, ok := m.LastAccuracy(); ok {
		t.Error("LastAccuracy set before any transmission scored")
	}

	m.AssignMeaning("wsopu", "speak")
	m.AssignMeaning("op", "give")
	m.NextTransmission()
	if m.Score() != 100 {
		t.Errorf("Score = %d, want 100 for a perfect translation", m.Score())
	}
	if acc, ok := m.LastAccuracy(); !ok || acc != 100 {
		t.Errorf("LastAccuracy = %d,%v, want 100,true", acc, ok)
	}

	// Scoring happens once per transmission.
	m.MarkTransmissionSynchronized(1)
	if m.Score() != 100 {
		t.Errorf("Score = %d after re-sync, want 100", m.Score())
	}

	// vem is still locked and counts against accuracy: 2 of 3 is medium.
	m.AssignMeaning("ir", "you")
	m.AssignMeaning("ka", "light")
	m.NextTransmission()
	if m.Score() != 150 {
		t.Errorf("Score = %d, want 150", m.Score())
	}
	if acc, _ := m.LastAccuracy(); acc != 67 {
		t.Errorf("LastAccuracy = %d, want 67", acc)
	}
	if got := rec.Count(event.TransmissionScored); got != 2 {
		t.Errorf("scored events = %d, want 2", got)
	}
}

func TestPointsTiers(t *testing.T) {
	c := DefaultConfig()
	cases := []struct {
		acc    int
		points int
		rating string
	}{
		{100, 100, "high"},
		{85, 75, "high"},
		{60, 50, "medium"},
		{40, 25, "low"},
		{20, 0, "very-low"},
		{5, 0, "none"},
	}
	for _, tc := range cases {
		if got := c.Points(tc.acc); got != tc.points {
			t.Errorf("Points(%d) = %d, want %d", tc.acc, got, tc.points)
		}
		if got := c.Rating(tc.acc); got != tc.rating {
			t.Errorf("Rating(%d) = %q, want %q", tc.acc, got, tc.rating)
		}
	}
}

func TestCountersClampAndReset(t *testing.T) {
	cfg := DefaultConfig()
	cfg.InitialScore = 40
	cfg.InitialChapter = 2
	cfg.CountdownDuration = 90
	d := testDeps(t, nil)
	d.Config = &cfg
	m := New(d)

	m.UpdateScore(-100)
	if m.Score() != 0 {
		t.Errorf("Score = %d, want 0", m.Score())
	}
	m.UpdateScore(15)
	m.UpdateCountdown(-5)
	if m.Countdown() != 0 {
		t.Errorf("Countdown = %d, want 0", m.Countdown())
	}
	m.UpdateChapter(4)
	m.UpdateChapter(-1)
	if m.Chapter() != 4 {
		t.Errorf("Chapter = %d, want 4", m.Chapter())
	}
	m.AddLog(LogEntry{Message: "hello"})

	m.Reset()
	if m.Score() != 40 || m.Chapter() != 2 || m.Countdown() != 90 {
		t.Errorf("after reset = %d/%d/%d, want 40/2/90", m.Score(), m.Chapter(), m.Countdown())
	}
	if len(m.Logs()) != 0 {
		t.Errorf("logs = %d after reset, want 0", len(m.Logs()))
	}
}

func TestChapterFollowsTransmissions(t *testing.T) {
	cat, err := transmission.NewCatalog([]transmission.Transmission{
		{ID: 1, Kind: transmission.KindNarrative, Title: "a", Chapter: 1},
		{ID: 2, Kind: transmission.KindNarrative, Title: "b", Chapter: 2},
	})
	if err != nil {
		t.Fatal(err)
	}
	m := New(Deps{Transmissions: cat})
	m.NextTransmission()
	if m.Chapter() != 2 {
		t.Errorf("Chapter = %d, want 2", m.Chapter())
	}
}

func TestAddLog(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	d := testDeps(t, nil)
	d.Now = func() time.Time { return at }
	m := New(d)

	if _, ok := m.AddLog(LogEntry{Message: "   "}); ok {
		t.Error("blank message accepted")
	}
	e, ok := m.AddLog(LogEntry{Level: "loud", Category: "decode", Message: " wsopu = speak ", Metadata: map[string]string{"glyph": "wsopu"}})
	if !ok {
		t.Fatal("AddLog rejected a valid entry")
	}
	if e.ID == "" || !e.Timestamp.Equal(at) || e.Level != LogInfo || e.Message != "wsopu = speak" {
		t.Errorf("entry = %+v", e)
	}
	for i := 0; i < maxLogs+5; i++ {
		m.AddLog(LogEntry{Level: LogSuccess, Message: "tick"})
	}
	logs := m.Logs()
	if len(logs) != maxLogs {
		t.Fatalf("len(logs) = %d, want %d", len(logs), maxLogs)
	}
	if logs[0].Message != "tick" {
		t.Errorf("oldest entry %q should have been dropped", logs[0].Message)
	}
}

func TestDifficulty(t *testing.T) {
	m := New(testDeps(t, nil))
	if got := m.Difficulty(1); got != 10 {
		t.Errorf("Difficulty(1) = %d, want 10 with no confidence", got)
	}
	m.AssignMeaning("wsopu", "speak")
	m.AssignMeaning("op", "give")
	if got := m.Difficulty(1); got != 9 {
		t.Errorf("Difficulty(1) = %d, want 9", got)
	}
	if got := m.Difficulty(77); got != 1 {
		t.Errorf("Difficulty(77) = %d, want 1", got)
	}
}
