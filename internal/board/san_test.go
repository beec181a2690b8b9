package board

import (
	"strings"
	"testing"
)

func TestToSAN(t *testing.T) {
	pos := setup(t, Red, map[string]string{
		"d6": "rR", "k6": "rR", "e4": "rP", "f5": "bP", "e7": "rP",
	})

	tests := []struct {
		from, to string
		promo    PieceType
		want     string
	}{
		{"d6", "h6", NoPieceType, "Rdh6"},
		{"d6", "d7", NoPieceType, "Rd7+"},
		{"e4", "f5", NoPieceType, "exf5"},
		{"e7", "e8", Queen, "e8=Q+"},
	}
	for _, tc := range tests {
		m, ok := pos.LegalMovesFrom(mustSquare(t, tc.from)).Find(mustSquare(t, tc.from), mustSquare(t, tc.to))
		if !ok {
			t.Fatalf("%s-%s not legal", tc.from, tc.to)
		}
		m.Promotion = tc.promo
		if got := m.ToSAN(pos); got != tc.want {
			t.Errorf("%s-%s: got %q, want %q", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestParseSAN(t *testing.T) {
	pos := NewPosition()

	m, err := ParseSAN("Nf3", pos)
	if err != nil {
		t.Fatal(err)
	}
	if m.From != mustSquare(t, "e1") || m.To != mustSquare(t, "f3") {
		t.Errorf("Nf3 resolved to %s", m)
	}

	m, err = ParseSAN("h4", pos)
	if err != nil {
		t.Fatal(err)
	}
	if !m.IsDoublePush() {
		t.Errorf("h4 resolved to %s", m)
	}

	if _, err := ParseSAN("Nh3", pos); err == nil {
		t.Error("Nh3 should be illegal")
	}
	if _, err := ParseSAN("c5", pos); err == nil {
		t.Error("blue's move should not resolve while red is to move")
	}
}

func TestParseSANAmbiguous(t *testing.T) {
	pos := setup(t, Red, map[string]string{"d6": "rR", "k6": "rR"})

	for _, san := range []string{"Rh6", "R6h6"} {
		if _, err := ParseSAN(san, pos); err == nil || !strings.Contains(err.Error(), "ambiguous") {
			t.Errorf("%s: got %v, want an ambiguity error", san, err)
		}
	}

	m, err := ParseSAN("Rdh6", pos)
	if err != nil {
		t.Fatal(err)
	}
	if m.From != mustSquare(t, "d6") {
		t.Errorf("Rdh6 resolved to %s", m)
	}
}

func TestMovesToSAN(t *testing.T) {
	pos := NewPosition()
	var moves []Move
	p := pos.Copy()
	for _, s := range []string{"h2-h4", "b5-c5", "e13-e12"} {
		m, err := ParseMove(s, p)
		if err != nil {
			t.Fatal(err)
		}
		moves = append(moves, m)
		p.MakeMove(m)
		p.SetTurn(p.Turn.Next())
	}

	got := MovesToSAN(pos, moves)
	want := []string{"h4", "c5", "e12"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("move %d: got %q, want %q", i, got[i], want[i])
		}
	}
}
