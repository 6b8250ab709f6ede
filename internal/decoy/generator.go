// internal/decoy/generator.go
//
// Decoy Generator: builds the six-option multiple-choice set shown around a
// selected glyph.
//
// Algorithm:
//   1. Draw up to Decoys distinct words, without replacement, from the pool
//      with the correct meaning removed.
//   2. Add the correct meaning and give every option one of the six layout
//      slots through a random permutation.
//   3. Shuffle the option order (iteration order only; slots stay put).
//
// Notes:
//   - Output is random; callers and tests check structure, not order.
//   - A short pool degrades to fewer decoys instead of failing.
//   - The generator is shared across sessions and guards its rng.

package decoy

import (
	"math/rand/v2"
	"strings"
	"sync"
)

// Decoys is the number of wrong options in a full set.
const Decoys = 5

// Side is where a hexagon's label sits relative to it.
type Side string

const (
	SideTop    Side = "top"
	SideRight  Side = "right"
	SideBottom Side = "bottom"
	SideLeft   Side = "left"
)

// Position is one of the six fixed hexagon slots around the center.
type Position struct {
	Slot  int  `json:"slot"`
	X     int  `json:"x"`
	Y     int  `json:"y"`
	Label Side `json:"labelPosition"`
}

// Layout lists the slots clockwise from the top.
var Layout = [Decoys + 1]Position{
	{Slot: 0, X: 0, Y: -80, Label: SideTop},
	{Slot: 1, X: 69, Y: -40, Label: SideRight},
	{Slot: 2, X: 69, Y: 40, Label: SideRight},
	{Slot: 3, X: 0, Y: 80, Label: SideBottom},
	{Slot: 4, X: -69, Y: 40, Label: SideLeft},
	{Slot: 5, X: -69, Y: -40, Label: SideLeft},
}

// DecoyPrefix marks option ids that are wrong answers.
const DecoyPrefix = "decoy-"

// Option is one selectable hexagon.
type Option struct {
	ID        string   `json:"id"`
	Label     string   `json:"label"`
	IsCorrect bool     `json:"isCorrect"`
	Position  Position `json:"position"`
}

// Generator draws option sets from a fixed word pool.
type Generator struct {
	pool []string

	mu  sync.Mutex
	rng *rand.Rand
}

// NewGenerator builds a generator over pool. Blank words and words that
// repeat an earlier one ignoring case are dropped. A nil rng gets a randomly seeded PCG source.
func NewGenerator(pool []string, rng *rand.Rand) *Generator {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	seen := make(map[string]struct{}, len(pool))
	clean := make([]string, 0, len(pool))
	for _, w := range pool {
		w = strings.TrimSpace(w)
		if w == "" {
			continue
		}
		key := strings.ToLower(w)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		clean = append(clean, w)
	}
	return &Generator{pool: clean, rng: rng}
}

// Pool returns a copy of the word pool.
func (g *Generator) Pool() []string { return append([]string(nil), g.pool...) }

// Available is how many decoys can be drawn for correct.
func (g *Generator) Available(correct string) int {
	return len(g.candidates(correct))
}

// Generate returns the option set for correct. With an empty correct
// meaning there is no active choice set: it returns nil, false.
func (g *Generator) Generate(correct string) ([]Option, bool) {
	correct = strings.TrimSpace(correct)
	if correct == "" {
		return nil, false
	}
	cands := g.candidates(correct)

	g.mu.Lock()
	defer g.mu.Unlock()

	n := min(Decoys, len(cands))
	picks := g.rng.Perm(len(cands))[:n]
	slots := g.rng.Perm(len(Layout))

	opts := make([]Option, 0, n+1)
	for _, i := range picks {
		w := cands[i]
		opts = append(opts, Option{ID: DecoyPrefix + w, Label: w})
	}
	opts = append(opts, Option{ID: correct, Label: correct, IsCorrect: true})
	for i := range opts {
		opts[i].Position = Layout[slots[i]]
	}
	g.rng.Shuffle(len(opts), func(i, j int) { opts[i], opts[j] = opts[j], opts[i] })
	return opts, true
}

func (g *Generator) candidates(correct string) []string {
	out := make([]string, 0, len(g.pool))
	for _, w := range g.pool {
		if !strings.EqualFold(w, correct) {
			out = append(out, w)
		}
	}
	return out
}
