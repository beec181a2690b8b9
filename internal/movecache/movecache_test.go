package movecache

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/godwin-jg/QuadraChess-sub001/internal/board"
)

func newCache(t *testing.T) *Cache {
	t.Helper()
	c, err := New(1024)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(c.Close)
	return c
}

func TestCachedAnswersMatchGenerator(t *testing.T) {
	c := newCache(t)
	pos := board.NewPosition()
	from, _ := board.ParseSquare("e1")

	want := pos.LegalMovesFrom(from).Slice()
	first := c.LegalMovesFrom(pos, from)
	c.Wait()
	second := c.LegalMovesFrom(pos, from)

	if diff := cmp.Diff(want, first); diff != "" {
		t.Errorf("first answer (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want, second); diff != "" {
		t.Errorf("cached answer (-want +got):\n%s", diff)
	}
	if c.HitRate() != 50 {
		t.Errorf("hit rate = %v, want 50", c.HitRate())
	}
}

func TestCacheFollowsPositionChanges(t *testing.T) {
	c := newCache(t)
	pos := board.NewPosition()

	if n := len(c.LegalMoves(pos, board.Red)); n != 20 {
		t.Fatalf("red has %d moves, want 20", n)
	}
	c.Wait()

	m, err := board.ParseMove("h2-h4", pos)
	if err != nil {
		t.Fatal(err)
	}
	pos.MakeMove(m)

	if n := len(c.LegalMoves(pos, board.Red)); n != pos.GenerateLegalMoves(board.Red).Len() {
		t.Errorf("stale answer after a move: %d moves", n)
	}
	if n := len(c.LegalMoves(pos, board.Blue)); n != 20 {
		t.Errorf("blue has %d moves, want 20", n)
	}
}

func TestReturnedSlicesAreCopies(t *testing.T) {
	c := newCache(t)
	pos := board.NewPosition()
	from, _ := board.ParseSquare("h2")

	got := c.LegalMovesFrom(pos, from)
	c.Wait()
	got[0] = board.NoMove

	again := c.LegalMovesFrom(pos, from)
	if again[0] == board.NoMove {
		t.Error("caller mutation leaked into the cache")
	}

	c.Clear()
	if c.HitRate() != 0 {
		t.Error("Clear should reset statistics")
	}
}
