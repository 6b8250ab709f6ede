package decoy

import (
	"math/rand/v2"
	"strings"
	"testing"
)

var testPool = []string{"star", "moon", "sun", "fire", "water", "earth", "wind", "storm", "loop", "rain"}

func TestGenerateShape(t *testing.T) {
	g := NewGenerator(testPool, rand.New(rand.NewPCG(1, 2)))
	inPool := map[string]bool{}
	for _, w := range testPool {
		inPool[w] = true
	}
	for i := 0; i < 1000; i++ {
		opts, ok := g.Generate("loop")
		if !ok || len(opts) != Decoys+1 {
			t.Fatalf("run %d: ok=%v len=%d", i, ok, len(opts))
		}
		correct := 0
		labels := map[string]bool{}
		slots := map[int]bool{}
		for _, o := range opts {
			if slots[o.Position.Slot] {
				t.Fatalf("run %d: duplicate slot %d", i, o.Position.Slot)
			}
			slots[o.Position.Slot] = true
			if o.Position != Layout[o.Position.Slot] {
				t.Fatalf("run %d: position %+v not a layout slot", i, o.Position)
			}
			if o.IsCorrect {
				correct++
				if o.Label != "loop" || o.ID != "loop" {
					t.Fatalf("run %d: correct option = %+v", i, o)
				}
				continue
			}
			if o.Label == "loop" || !inPool[o.Label] {
				t.Fatalf("run %d: bad decoy %q", i, o.Label)
			}
			if labels[o.Label] {
				t.Fatalf("run %d: duplicate decoy %q", i, o.Label)
			}
			if !strings.HasPrefix(o.ID, DecoyPrefix) {
				t.Fatalf("run %d: decoy id %q lacks prefix", i, o.ID)
			}
			labels[o.Label] = true
		}
		if correct != 1 {
			t.Fatalf("run %d: %d correct options", i, correct)
		}
	}
}

func TestGenerateEmptyIsCollapsed(t *testing.T) {
	g := NewGenerator(testPool, nil)
	if opts, ok := g.Generate("  "); ok || opts != nil {
		t.Errorf("Generate(blank) = %v,%v; want nil,false", opts, ok)
	}
}

func TestGenerateShortPoolDegrades(t *testing.T) {
	g := NewGenerator([]string{"star", "moon", "speak", "star", ""}, nil)
	if got := g.Available("speak"); got != 2 {
		t.Fatalf("Available = %d, want 2", got)
	}
	opts, ok := g.Generate("speak")
	if !ok || len(opts) != 3 {
		t.Fatalf("Generate = %d options, ok=%v; want 3,true", len(opts), ok)
	}
	slots := map[int]bool{}
	for _, o := range opts {
		slots[o.Position.Slot] = true
	}
	if len(slots) != 3 {
		t.Errorf("slots not distinct: %v", slots)
	}
}

func TestGenerateVariesArrangement(t *testing.T) {
	g := NewGenerator(testPool, rand.New(rand.NewPCG(7, 7)))
	seen := map[int]bool{}
	for i := 0; i < 50; i++ {
		opts, _ := g.Generate("loop")
		for _, o := range opts {
			if o.IsCorrect {
				seen[o.Position.Slot] = true
			}
		}
	}
	if len(seen) < 2 {
		t.Errorf("correct answer always in the same slot: %v", seen)
	}
}

func TestPoolDedupIgnoresCase(t *testing.T) {
	g := NewGenerator([]string{"Loop", "loop", " LOOP ", "star", "Star", "moon", "sun"}, rand.New(rand.NewPCG(5, 6)))
	if got, want := g.Pool(), []string{"Loop", "star", "moon", "sun"}; strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("Pool = %v, want %v", got, want)
	}
	if got := g.Available("loop"); got != 3 {
		t.Errorf("Available(loop) = %d, want 3", got)
	}
	for i := 0; i < 200; i++ {
		opts, _ := g.Generate("star")
		labels := map[string]bool{}
		for _, o := range opts {
			k := strings.ToLower(o.Label)
			if labels[k] {
				t.Fatalf("run %d: label %q repeated ignoring case", i, o.Label)
			}
			labels[k] = true
		}
	}
}
