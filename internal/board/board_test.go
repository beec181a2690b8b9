package board

import (
	"testing"
)

// homeKings are the four kings on their starting squares.
var homeKings = map[string]string{
	"h1": "rK", "a7": "bK", "g14": "yK", "n8": "gK",
}

// setup builds a position from square/piece pairs plus the four home kings.
func setup(t *testing.T, turn Color, pieces map[string]string) *Position {
	t.Helper()
	pos := &Position{}
	pos.Clear()
	all := map[string]string{}
	for sq, code := range homeKings {
		all[sq] = code
	}
	for sq, code := range pieces {
		all[sq] = code
	}
	for name, code := range all {
		if code == "" {
			continue
		}
		sq := mustSquare(t, name)
		piece, err := ParsePiece(code)
		if err != nil {
			t.Fatalf("piece %q: %v", code, err)
		}
		if err := pos.Put(piece, sq); err != nil {
			t.Fatalf("put %s on %s: %v", code, name, err)
		}
	}
	pos.SetTurn(turn)
	return pos
}

func mustSquare(t *testing.T, name string) Square {
	t.Helper()
	sq, err := ParseSquare(name)
	if err != nil {
		t.Fatalf("square %q: %v", name, err)
	}
	return sq
}

func destinations(ml *MoveList) map[string]Move {
	out := make(map[string]Move, ml.Len())
	for _, m := range ml.Slice() {
		out[m.To.String()] = m
	}
	return out
}

func TestSquareGeometry(t *testing.T) {
	if n := ValidSquares.PopCount(); n != 160 {
		t.Errorf("valid squares = %d, want 160", n)
	}

	tests := []struct {
		row, col int
		valid    bool
		name     string
	}{
		{0, 0, false, "a14"},
		{2, 2, false, "c12"},
		{0, 3, true, "d14"},
		{3, 0, true, "a11"},
		{13, 7, true, "h1"},
		{11, 11, false, "l3"},
		{13, 13, false, "n1"},
		{6, 13, true, "n8"},
	}

	for _, tc := range tests {
		sq := NewSquare(tc.row, tc.col)
		if sq.IsValid() != tc.valid {
			t.Errorf("(%d,%d).IsValid() = %v, want %v", tc.row, tc.col, sq.IsValid(), tc.valid)
		}
		if sq.String() != tc.name {
			t.Errorf("(%d,%d).String() = %s, want %s", tc.row, tc.col, sq, tc.name)
		}
		parsed, err := ParseSquare(tc.name)
		if tc.valid {
			if err != nil || parsed != sq {
				t.Errorf("ParseSquare(%s) = %v, %v; want %v", tc.name, parsed, err, sq)
			}
		} else if err == nil {
			t.Errorf("ParseSquare(%s) accepted a corner square", tc.name)
		}
	}

	if NewSquare(-1, 4) != NoSquare || NewSquare(4, 14) != NoSquare {
		t.Error("off-board coordinates should yield NoSquare")
	}
}

func TestBitboardOps(t *testing.T) {
	a := SquareBB(NewSquare(0, 3)).Set(NewSquare(13, 10)).Set(NewSquare(7, 7))
	if a.PopCount() != 3 {
		t.Fatalf("PopCount = %d, want 3", a.PopCount())
	}
	if a.LSB() != NewSquare(0, 3) {
		t.Errorf("LSB = %v, want d14", a.LSB())
	}

	squares := a.Squares()
	want := []Square{NewSquare(0, 3), NewSquare(7, 7), NewSquare(13, 10)}
	for i := range want {
		if squares[i] != want[i] {
			t.Errorf("Squares()[%d] = %v, want %v", i, squares[i], want[i])
		}
	}

	b := a.Clear(NewSquare(7, 7))
	if b.IsSet(NewSquare(7, 7)) || !a.IsSet(NewSquare(7, 7)) {
		t.Error("Clear must not mutate the receiver")
	}
	if !a.AndNot(b).IsSet(NewSquare(7, 7)) || a.AndNot(b).PopCount() != 1 {
		t.Error("AndNot should leave exactly the cleared square")
	}
	if a.Xor(a).More() {
		t.Error("x ^ x should be empty")
	}
}

func TestStartPosition(t *testing.T) {
	pos := NewPosition()

	if err := pos.Validate(); err != nil {
		t.Fatalf("start position invalid: %v", err)
	}
	if got := pos.FEN(); got != StartFEN {
		t.Errorf("FEN mismatch:\n got %s\nwant %s", got, StartFEN)
	}

	parsed, err := ParseFEN(StartFEN)
	if err != nil {
		t.Fatalf("ParseFEN: %v", err)
	}
	if parsed.Hash != pos.Hash {
		t.Errorf("hash of parsed start = %x, want %x", parsed.Hash, pos.Hash)
	}

	kings := map[Color]string{Red: "h1", Blue: "a7", Yellow: "g14", Green: "n8"}
	for c, name := range kings {
		if pos.KingSquare[c].String() != name {
			t.Errorf("%s king on %s, want %s", c, pos.KingSquare[c], name)
		}
		if pos.PieceAt(mustSquare(t, name)) != NewPiece(King, c) {
			t.Errorf("no %s king on %s", c, name)
		}
	}

	for _, c := range Colors {
		if n := pos.Pieces[c][Pawn].PopCount(); n != 8 {
			t.Errorf("%s has %d pawns, want 8", c, n)
		}
		if n := pos.Occupied[c].PopCount(); n != 16 {
			t.Errorf("%s has %d pieces, want 16", c, n)
		}
		if n := pos.GenerateLegalMoves(c).Len(); n != 20 {
			t.Errorf("%s has %d legal moves, want 20", c, n)
		}
		if pos.IsInCheck(c) {
			t.Errorf("%s in check at start", c)
		}
	}
}

func TestPawnDirections(t *testing.T) {
	pos := NewPosition()

	tests := []struct {
		from   string
		single string
		double string
	}{
		{"e2", "e3", "e4"},    // Red, up
		{"b5", "c5", "d5"},    // Blue, right
		{"e13", "e12", "e11"}, // Yellow, down
		{"m5", "l5", "k5"},    // Green, left
	}

	for _, tc := range tests {
		moves := destinations(pos.LegalMovesFrom(mustSquare(t, tc.from)))
		if len(moves) != 2 {
			t.Errorf("%s: %d moves, want 2", tc.from, len(moves))
		}
		if _, ok := moves[tc.single]; !ok {
			t.Errorf("%s: missing single push to %s", tc.from, tc.single)
		}
		m, ok := moves[tc.double]
		if !ok {
			t.Errorf("%s: missing double push to %s", tc.from, tc.double)
			continue
		}
		if !m.IsDoublePush() {
			t.Errorf("%s-%s not flagged as double push", tc.from, tc.double)
		}
	}
}

func TestDoublePushOnlyFromStartBand(t *testing.T) {
	pos := setup(t, Red, map[string]string{"e3": "rP"})
	moves := destinations(pos.LegalMovesFrom(mustSquare(t, "e3")))
	if len(moves) != 1 {
		t.Fatalf("pawn off its start band has %d moves, want 1", len(moves))
	}
	if _, ok := moves["e4"]; !ok {
		t.Error("expected single push to e4")
	}
}

func TestEnPassantCreation(t *testing.T) {
	pos := NewPosition()
	m, err := ParseMove("h2-h4", pos)
	if err != nil {
		t.Fatal(err)
	}
	pos.MakeMove(m)

	if len(pos.EnPassant) != 1 {
		t.Fatalf("en passant targets = %d, want 1", len(pos.EnPassant))
	}
	target := pos.EnPassant[0]
	if target.Creator != Red {
		t.Errorf("creator = %s, want Red", target.Creator)
	}
	if target.Skipped.Row() != m.To.Row()+1 || target.Skipped.Col() != m.To.Col() {
		t.Errorf("skipped square %s is not one row behind %s", target.Skipped, m.To)
	}
	if target.Pawn != m.To {
		t.Errorf("target pawn on %s, want %s", target.Pawn, m.To)
	}
	if pos.Hash != pos.ComputeHash() {
		t.Error("incremental hash diverged after double push")
	}
}

func TestEnPassantCapture(t *testing.T) {
	pos := setup(t, Red, map[string]string{
		"f2": "rP",
		"e4": "bP",
	})

	push, err := ParseMove("f2-f4", pos)
	if err != nil {
		t.Fatal(err)
	}
	pos.MakeMove(push)
	pos.SetTurn(Blue)

	moves := destinations(pos.LegalMovesFrom(mustSquare(t, "e4")))
	ep, ok := moves["f3"]
	if !ok {
		t.Fatalf("blue pawn cannot capture en passant on f3; moves: %v", moves)
	}
	if !ep.IsEnPassant() || !ep.IsCapture() {
		t.Errorf("f3 move flags = %b, want capture and en passant", ep.Flags)
	}
	if ep.CaptureSquare != mustSquare(t, "f4") || ep.Captured != NewPiece(Pawn, Red) {
		t.Errorf("en passant removes %s on %s, want rP on f4", ep.Captured, ep.CaptureSquare)
	}

	pos.MakeMove(ep)
	if !pos.IsEmpty(mustSquare(t, "f4")) {
		t.Error("captured pawn still on f4")
	}
	if pos.PieceAt(mustSquare(t, "f3")) != NewPiece(Pawn, Blue) {
		t.Error("blue pawn did not land on f3")
	}
	if pos.Hash != pos.ComputeHash() {
		t.Error("incremental hash diverged after en passant")
	}
}

func TestEnPassantExpiry(t *testing.T) {
	pos := NewPosition()
	m, _ := ParseMove("h2-h4", pos)
	pos.MakeMove(m)

	pos.ExpireEnPassant(Blue)
	if len(pos.EnPassant) != 1 {
		t.Fatal("another color's turn must not expire red's target")
	}
	pos.ExpireEnPassant(Red)
	if len(pos.EnPassant) != 0 {
		t.Error("red's target should expire when red's slot comes around")
	}
	if pos.Hash != pos.ComputeHash() {
		t.Error("incremental hash diverged after expiry")
	}
}

func TestPromotionFlags(t *testing.T) {
	pos := setup(t, Red, map[string]string{
		"e7":  "rP", // row 7, next step is Red's mid-board line
		"j13": "rP", // one step from the opposing back band
		"e4":  "rP",
		"g6":  "bP", // Blue promotes on column h
	})

	tests := []struct {
		from, to string
		promo    bool
	}{
		{"e7", "e8", true},
		{"j13", "j14", true},
		{"e4", "e5", false},
		{"g6", "h6", true},
	}

	for _, tc := range tests {
		moves := destinations(pos.LegalMovesFrom(mustSquare(t, tc.from)))
		m, ok := moves[tc.to]
		if !ok {
			t.Errorf("%s-%s not generated", tc.from, tc.to)
			continue
		}
		if m.IsPromotion() != tc.promo {
			t.Errorf("%s-%s promotion = %v, want %v", tc.from, tc.to, m.IsPromotion(), tc.promo)
		}
	}

	m, err := ParseMove("e7-e8=Q", pos)
	if err != nil {
		t.Fatal(err)
	}
	pos.MakeMove(m)
	if pos.PieceAt(mustSquare(t, "e8")) != NewPiece(Queen, Red) {
		t.Errorf("e8 holds %s, want rQ", pos.PieceAt(mustSquare(t, "e8")))
	}
	if pos.Pieces[Red][Pawn].IsSet(mustSquare(t, "e8")) {
		t.Error("pawn bit left behind after promotion")
	}
}

func TestCastling(t *testing.T) {
	pos := NewPosition()
	pos.Remove(mustSquare(t, "i1"))
	pos.Remove(mustSquare(t, "j1"))

	moves := destinations(pos.LegalMovesFrom(mustSquare(t, "h1")))
	castle, ok := moves["j1"]
	if !ok || !castle.IsCastling() {
		t.Fatalf("short castle h1-j1 not generated: %v", moves)
	}

	pos.MakeMove(castle)
	if pos.PieceAt(mustSquare(t, "j1")) != NewPiece(King, Red) {
		t.Error("king not on j1")
	}
	if pos.PieceAt(mustSquare(t, "i1")) != NewPiece(Rook, Red) {
		t.Error("rook not on i1")
	}
	if !pos.IsEmpty(mustSquare(t, "k1")) {
		t.Error("rook still on k1")
	}
	if !pos.Castling[Red].KingMoved {
		t.Error("king-moved flag not set")
	}
	if pos.Hash != pos.ComputeHash() {
		t.Error("incremental hash diverged after castling")
	}
}

func TestCastlingThroughAttackRejected(t *testing.T) {
	pos := NewPosition()
	pos.Remove(mustSquare(t, "i1"))
	pos.Remove(mustSquare(t, "j1"))
	pos.Remove(mustSquare(t, "j2"))
	if err := pos.Put(NewPiece(Rook, Yellow), mustSquare(t, "j9")); err != nil {
		t.Fatal(err)
	}

	before := pos.Castling
	moves := destinations(pos.LegalMovesFrom(mustSquare(t, "h1")))
	if m, ok := moves["j1"]; ok {
		t.Errorf("castling onto an attacked square generated: %v", m)
	}
	if _, ok := moves["i1"]; !ok {
		t.Error("plain king step to i1 should still be legal")
	}
	if pos.Castling != before {
		t.Error("castling flags changed by a query")
	}
}

func TestCastlingGeometryAllArmies(t *testing.T) {
	for _, c := range Colors {
		army := ArmyOf(c)
		for side, cs := range army.Castles {
			pos := NewPosition()
			for _, sq := range squaresBetween(army.KingHome, cs.RookFrom) {
				pos.Remove(sq)
			}
			moves := pos.LegalMovesFrom(army.KingHome)
			m, ok := moves.Find(army.KingHome, cs.KingTo)
			if !ok || !m.IsCastling() {
				t.Errorf("%s side %d: castling to %s not generated", c, side, cs.KingTo)
				continue
			}
			pos.MakeMove(m)
			if pos.PieceAt(cs.RookTo) != NewPiece(Rook, c) || pos.PieceAt(cs.KingTo) != NewPiece(King, c) {
				t.Errorf("%s side %d: pieces misplaced after castling\n%s", c, side, pos)
			}
		}
	}
}

func TestPinnedPieceCannotMove(t *testing.T) {
	pos := setup(t, Red, map[string]string{
		"h2": "rN",
		"h9": "yR",
	})

	if n := pos.LegalMovesFrom(mustSquare(t, "h2")).Len(); n != 0 {
		t.Errorf("pinned knight has %d legal moves, want 0", n)
	}
	if n := pos.PseudoLegalMovesFrom(mustSquare(t, "h2")).Len(); n == 0 {
		t.Error("pinned knight should still have pseudo-legal moves")
	}
}

func TestCheckDetection(t *testing.T) {
	pos := setup(t, Red, map[string]string{
		"h8": "gR",
	})
	if !pos.IsInCheck(Red) {
		t.Fatal("red king on h1 should be in check from the rook on h8")
	}
	if pos.Checkers(Red).LSB() != mustSquare(t, "h8") {
		t.Errorf("checkers = %v", pos.Checkers(Red).Squares())
	}
	if !pos.AttackMap(Red).IsSet(mustSquare(t, "h1")) {
		t.Error("attack map misses the king square")
	}

	for _, m := range pos.GenerateLegalMoves(Red).Slice() {
		v := pos.Copy()
		v.MakeMove(m)
		if v.IsInCheck(Red) {
			t.Errorf("legal move %s leaves red in check", m)
		}
	}
}

func TestEliminatedArmyIsHarmlessAndCapturable(t *testing.T) {
	pos := setup(t, Red, map[string]string{
		"h8": "gR",
		"i2": "gQ",
	})
	pos.Eliminate(Green)

	if pos.IsInCheck(Red) {
		t.Error("eliminated army must not give check")
	}
	if pos.GenerateLegalMoves(Green).Len() != 0 {
		t.Error("eliminated army must not have moves")
	}

	moves := destinations(pos.LegalMovesFrom(mustSquare(t, "h1")))
	if m, ok := moves["i2"]; !ok || !m.IsCapture() {
		t.Error("red king should be able to capture the eliminated queen")
	}

	// Eliminated kings are capturable obstacles.
	pos2 := setup(t, Red, map[string]string{"n9": "rR"})
	pos2.Eliminate(Green)
	moves = destinations(pos2.LegalMovesFrom(mustSquare(t, "n9")))
	if m, ok := moves["n8"]; !ok || m.Captured != NewPiece(King, Green) {
		t.Error("eliminated king should be capturable")
	}
}

func TestLiveKingIsNeverCaptured(t *testing.T) {
	pos := setup(t, Red, map[string]string{"n9": "rR"})
	moves := destinations(pos.LegalMovesFrom(mustSquare(t, "n9")))
	if _, ok := moves["n8"]; ok {
		t.Error("live king offered as a capture target")
	}
	if !pos.IsInCheck(Green) {
		t.Error("green king should still be attacked")
	}
}

func TestTeamModeAllies(t *testing.T) {
	pos := setup(t, Red, map[string]string{
		"h5": "rR",
		"h9": "yN",
		"e5": "bN",
	})
	pos.SetTeamMode(true)

	moves := destinations(pos.LegalMovesFrom(mustSquare(t, "h5")))
	if _, ok := moves["h9"]; ok {
		t.Error("teammate's knight must not be capturable")
	}
	if m, ok := moves["e5"]; !ok || !m.IsCapture() {
		t.Error("opposing team's knight should be capturable")
	}

	// A teammate's rook does not check.
	pos2 := setup(t, Red, map[string]string{"h8": "yR"})
	pos2.SetTeamMode(true)
	if pos2.IsInCheck(Red) {
		t.Error("teammate gave check")
	}
}

func TestFENRoundTrip(t *testing.T) {
	pos := setup(t, Blue, map[string]string{
		"f4": "rP",
		"e4": "bP",
		"k9": "yQ",
	})
	pos.EnPassant = []EnPassantTarget{{Skipped: mustSquare(t, "f3"), Pawn: mustSquare(t, "f4"), Creator: Red}}
	pos.Eliminate(Green)
	pos.Rebuild()

	fen := pos.FEN()
	parsed, err := ParseFEN(fen)
	if err != nil {
		t.Fatalf("ParseFEN(%q): %v", fen, err)
	}
	if parsed.FEN() != fen {
		t.Errorf("round trip mismatch:\n got %s\nwant %s", parsed.FEN(), fen)
	}
	if parsed.Hash != pos.Hash {
		t.Errorf("hash mismatch after round trip")
	}
}

func TestParseMove(t *testing.T) {
	pos := NewPosition()
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"h2-h4", "h2-h4", false},
		{"h2h4", "h2-h4", false},
		{"h2 h3", "h2-h3", false},
		{"e1-f3", "e1-f3", false},
		{"h2-h5", "", true},
		{"a1-a2", "", true},
		{"h7-h8", "", true},
	}
	for _, tc := range tests {
		m, err := ParseMove(tc.in, pos)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseMove(%q) = %v, want error", tc.in, m)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseMove(%q): %v", tc.in, err)
			continue
		}
		if m.String() != tc.want {
			t.Errorf("ParseMove(%q) = %s, want %s", tc.in, m, tc.want)
		}
	}
}

func TestCapturingHomeRookUpdatesHash(t *testing.T) {
	pos := setup(t, Red, map[string]string{
		"d11": "rQ",
		"a11": "bR",
	})

	m, err := ParseMove("d11-a11", pos)
	if err != nil {
		t.Fatal(err)
	}
	before := pos.Hash
	undo := pos.MakeMove(m)

	if !pos.Castling[Blue].RookMoved[LongSide] {
		t.Error("capturing blue's long rook must clear its castling right")
	}
	if pos.Hash != pos.ComputeHash() {
		t.Errorf("incremental hash %x, recomputed %x", pos.Hash, pos.ComputeHash())
	}

	pos.UnmakeMove(undo)
	if pos.Hash != before || pos.Castling[Blue].RookMoved[LongSide] {
		t.Error("unmake did not restore the hash and castling rights")
	}
}
