package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/robalobadob/firstlight/internal/game"
	"github.com/robalobadob/firstlight/internal/transmission"
)

func newMachine(t *testing.T) *game.Machine {
	t.Helper()
	cat, err := transmission.NewCatalog(nil)
	if err != nil {
		t.Fatal(err)
	}
	return game.New(game.Deps{Transmissions: cat})
}

func TestSaveGetDelete(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()
	s := NewSession("abc", newMachine(t), time.Now())
	if err := st.Save(ctx, s); err != nil {
		t.Fatal(err)
	}
	got, err := st.Get(ctx, "abc")
	if err != nil || got != s {
		t.Fatalf("Get=%v,%v want stored session", got, err)
	}
	if _, err := st.Get(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(unknown) err=%v, want ErrNotFound", err)
	}
	if err := st.Delete(ctx, "abc"); err != nil {
		t.Fatal(err)
	}
	if st.Len() != 0 {
		t.Errorf("Len=%d after delete, want 0", st.Len())
	}
}

func TestPruneDropsIdleSessions(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m := NewMemoryStore().(*memory)
	m.now = func() time.Time { return base.Add(time.Hour) }

	old := NewSession("old", newMachine(t), base)
	fresh := NewSession("fresh", newMachine(t), base)
	_ = m.Save(ctx, old)
	_ = m.Save(ctx, fresh)
	if _, err := m.Get(ctx, "fresh"); err != nil {
		t.Fatal(err)
	}

	if n := m.Prune(base.Add(30 * time.Minute)); n != 1 {
		t.Errorf("Prune=%d, want 1", n)
	}
	if _, err := m.Get(ctx, "old"); !errors.Is(err, ErrNotFound) {
		t.Errorf("old session survived prune")
	}
	if _, err := m.Get(ctx, "fresh"); err != nil {
		t.Errorf("fresh session pruned: %v", err)
	}
}

func TestDoSerializesAccess(t *testing.T) {
	s := NewSession("s", newMachine(t), time.Now())
	var wg sync.WaitGroup
	counter := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Do(func(m *game.Machine) {
				m.SelectGlyph("ka")
				counter++
			})
		}()
	}
	wg.Wait()
	if counter != 50 {
		t.Errorf("counter=%d, want 50", counter)
	}
}
