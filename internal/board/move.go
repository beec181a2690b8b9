package board

import (
	"fmt"
	"strings"
)

// MoveFlags describe what kind of move a Move is.
type MoveFlags uint8

// Move flags
const (
	FlagCapture MoveFlags = 1 << iota
	FlagPromotion
	FlagEnPassant
	FlagCastling
	FlagDoublePush
)

// Move is a fully described move. Promotion is the chosen piece type, or
// NoPieceType while the choice is still open.
type Move struct {
	From          Square    `json:"from"`
	To            Square    `json:"to"`
	Piece         Piece     `json:"piece"`
	Captured      Piece     `json:"captured"`
	CaptureSquare Square    `json:"captureSquare"`
	Flags         MoveFlags `json:"flags"`
	Promotion     PieceType `json:"promotion"`
}

// NoMove represents an invalid or null move.
var NoMove = Move{From: NoSquare, To: NoSquare, Piece: NoPiece, Captured: NoPiece, CaptureSquare: NoSquare, Promotion: NoPieceType}

// IsCapture returns true if this move captures a piece.
func (m Move) IsCapture() bool {
	return m.Flags&FlagCapture != 0
}

// IsPromotion returns true if the pawn lands on a promotion square.
func (m Move) IsPromotion() bool {
	return m.Flags&FlagPromotion != 0
}

// IsEnPassant returns true if this is an en passant capture.
func (m Move) IsEnPassant() bool {
	return m.Flags&FlagEnPassant != 0
}

// IsCastling returns true if this is a castling move (the king's movement).
func (m Move) IsCastling() bool {
	return m.Flags&FlagCastling != 0
}

// IsDoublePush returns true if this is a pawn's two-square advance.
func (m Move) IsDoublePush() bool {
	return m.Flags&FlagDoublePush != 0
}

// Same reports whether two moves share origin and destination.
func (m Move) Same(o Move) bool {
	return m.From == o.From && m.To == o.To
}

// WithPromotion returns the move with the promotion choice set.
func (m Move) WithPromotion(pt PieceType) Move {
	m.Promotion = pt
	return m
}

// String returns the move as "from-to", with "x" for captures and a
// "=T" suffix once a promotion type is chosen (e.g. "h7-h8=Q").
func (m Move) String() string {
	if m.From == NoSquare {
		return "0000"
	}
	sep := "-"
	if m.IsCapture() {
		sep = "x"
	}
	s := m.From.String() + sep + m.To.String()
	if m.IsPromotion() && m.Promotion.CanPromoteTo() {
		s += "=" + string(m.Promotion.Char())
	}
	return s
}

// ParseMove parses "h2-h4", "h2h4", "h2 h4" or "h7-h8=Q" and resolves it
// against the legal moves of the position.
func ParseMove(s string, pos *Position) (Move, error) {
	from, to, promo, err := SplitMove(s)
	if err != nil {
		return NoMove, err
	}

	piece := pos.PieceAt(from)
	if piece == NoPiece {
		return NoMove, fmt.Errorf("no piece at %s", from)
	}

	for _, m := range pos.LegalMovesFrom(from).Slice() {
		if m.To != to {
			continue
		}
		if promo != NoPieceType {
			if !m.IsPromotion() {
				return NoMove, fmt.Errorf("%s is not a promotion", s)
			}
			m.Promotion = promo
		}
		return m, nil
	}
	return NoMove, fmt.Errorf("illegal move: %s", s)
}

// SplitMove parses move text into its squares and optional promotion piece
// without consulting a position.
func SplitMove(s string) (Square, Square, PieceType, error) {
	promo := NoPieceType
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '='); i >= 0 {
		pt, err := ParsePieceType(s[i+1:])
		if err != nil || !pt.CanPromoteTo() {
			return NoSquare, NoSquare, NoPieceType, fmt.Errorf("invalid promotion piece: %s", s[i+1:])
		}
		promo = pt
		s = s[:i]
	}

	s = strings.NewReplacer("-", " ", "x", " ").Replace(s)
	fields := strings.Fields(s)
	if len(fields) == 1 {
		fields = splitSquares(fields[0])
	}
	if len(fields) != 2 {
		return NoSquare, NoSquare, NoPieceType, fmt.Errorf("invalid move string: %s", s)
	}

	from, err := ParseSquare(fields[0])
	if err != nil {
		return NoSquare, NoSquare, NoPieceType, err
	}
	to, err := ParseSquare(fields[1])
	if err != nil {
		return NoSquare, NoSquare, NoPieceType, err
	}
	return from, to, promo, nil
}

// splitSquares splits a run like "h12h14" into its two square names.
func splitSquares(s string) []string {
	for i := 1; i < len(s); i++ {
		if s[i] >= 'a' && s[i] <= 'n' {
			return []string{s[:i], s[i:]}
		}
	}
	return []string{s}
}

// MoveList is an append-only list of moves.
type MoveList struct {
	moves []Move
}

// NewMoveList creates an empty move list.
func NewMoveList() *MoveList {
	return &MoveList{moves: make([]Move, 0, 32)}
}

// Add adds a move to the list.
func (ml *MoveList) Add(m Move) {
	ml.moves = append(ml.moves, m)
}

// Len returns the number of moves in the list.
func (ml *MoveList) Len() int {
	return len(ml.moves)
}

// Get returns the move at index i.
func (ml *MoveList) Get(i int) Move {
	return ml.moves[i]
}

// Clear clears the list.
func (ml *MoveList) Clear() {
	ml.moves = ml.moves[:0]
}

// Contains returns true if the list holds a move with the same origin and
// destination.
func (ml *MoveList) Contains(m Move) bool {
	_, ok := ml.Find(m.From, m.To)
	return ok
}

// Find returns the move with the given origin and destination.
func (ml *MoveList) Find(from, to Square) (Move, bool) {
	for _, m := range ml.moves {
		if m.From == from && m.To == to {
			return m, true
		}
	}
	return NoMove, false
}

// Destinations returns the destination squares as a bitboard.
func (ml *MoveList) Destinations() Bitboard {
	var bb Bitboard
	for _, m := range ml.moves {
		bb = bb.Set(m.To)
	}
	return bb
}

// Slice returns the moves as a slice.
func (ml *MoveList) Slice() []Move {
	return ml.moves
}
