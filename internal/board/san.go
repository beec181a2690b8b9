package board

import (
	"fmt"
	"strings"
)

// ToSAN converts a move to algebraic notation for the cross board, e.g.
// "Nf3", "exd5", "j14=Q", "O-O". A trailing "+" marks a move that leaves
// any opposing king in check.
func (m Move) ToSAN(pos *Position) string {
	if m.From == NoSquare || m.Piece == NoPiece {
		return "-"
	}

	var sb strings.Builder
	switch {
	case m.IsCastling():
		if castleSideOf(m) == LongSide {
			sb.WriteString("O-O-O")
		} else {
			sb.WriteString("O-O")
		}
	default:
		pt := m.Piece.Type()
		if pt != Pawn {
			sb.WriteByte(pt.Char())
			sb.WriteString(disambiguation(pos, m))
		}
		if m.IsCapture() {
			if pt == Pawn {
				sb.WriteString(fileOf(m.From))
			}
			sb.WriteByte('x')
		}
		sb.WriteString(m.To.String())
		if m.Promotion.CanPromoteTo() {
			sb.WriteByte('=')
			sb.WriteByte(m.Promotion.Char())
		}
	}

	after := pos.Copy()
	after.MakeMove(m)
	mover := m.Piece.Color()
	for _, c := range Colors {
		if c != mover && after.IsLive(c) && after.Attackers(c).Has(mover) && after.IsInCheck(c) {
			sb.WriteByte('+')
			break
		}
	}
	return sb.String()
}

func fileOf(sq Square) string {
	return sq.String()[:1]
}

func rankOf(sq Square) string {
	return sq.String()[1:]
}

// disambiguation returns the origin file, rank or square needed to tell the
// move apart from same-type pieces reaching the same square.
func disambiguation(pos *Position, m Move) string {
	c := m.Piece.Color()
	var others []Square
	for _, o := range pos.GenerateLegalMoves(c).Slice() {
		if o.To == m.To && o.From != m.From && o.Piece == m.Piece {
			others = append(others, o.From)
		}
	}
	if len(others) == 0 {
		return ""
	}

	sameFile, sameRank := false, false
	for _, sq := range others {
		if sq.Col() == m.From.Col() {
			sameFile = true
		}
		if sq.Row() == m.From.Row() {
			sameRank = true
		}
	}
	switch {
	case !sameFile:
		return fileOf(m.From)
	case !sameRank:
		return rankOf(m.From)
	}
	return m.From.String()
}

// ParseSAN resolves algebraic notation against the legal moves of the
// color to move. Notation matching more than one move is rejected.
func ParseSAN(s string, pos *Position) (Move, error) {
	orig := s
	s = strings.TrimSpace(s)
	s = strings.TrimRight(s, "+#")
	moves := pos.GenerateLegalMoves(pos.Turn).Slice()

	if s == "O-O" || s == "0-0" || s == "O-O-O" || s == "0-0-0" {
		side := ShortSide
		if len(s) == 5 {
			side = LongSide
		}
		for _, m := range moves {
			if m.IsCastling() && castleSideOf(m) == side {
				return m, nil
			}
		}
		return NoMove, fmt.Errorf("illegal move: %s", orig)
	}

	promo := NoPieceType
	if i := strings.IndexByte(s, '='); i >= 0 {
		pt, err := ParsePieceType(s[i+1:])
		if err != nil || !pt.CanPromoteTo() {
			return NoMove, fmt.Errorf("invalid promotion piece: %s", orig)
		}
		promo = pt
		s = s[:i]
	}

	capture := strings.Contains(s, "x")
	s = strings.ReplaceAll(s, "x", "")

	pt := Pawn
	if len(s) > 0 && s[0] >= 'A' && s[0] <= 'Z' {
		parsed, err := ParsePieceType(s[:1])
		if err != nil {
			return NoMove, fmt.Errorf("invalid piece in %s", orig)
		}
		pt = parsed
		s = s[1:]
	}

	// The destination is the trailing file letter and rank digits.
	i := len(s)
	for i > 0 && s[i-1] >= '0' && s[i-1] <= '9' {
		i--
	}
	if i == 0 || i == len(s) {
		return NoMove, fmt.Errorf("invalid move: %s", orig)
	}
	dest, err := ParseSquare(s[i-1:])
	if err != nil {
		return NoMove, err
	}
	prefix := s[:i-1]

	file, rank := "", ""
	for j := 0; j < len(prefix); j++ {
		if prefix[j] >= 'a' && prefix[j] <= 'n' {
			file = prefix[j : j+1]
		} else {
			rank = prefix[j:]
			break
		}
	}

	var found []Move
	for _, m := range moves {
		if m.To != dest || m.Piece.Type() != pt {
			continue
		}
		if file != "" && fileOf(m.From) != file {
			continue
		}
		if rank != "" && rankOf(m.From) != rank {
			continue
		}
		if capture && !m.IsCapture() {
			continue
		}
		if promo != NoPieceType {
			if !m.IsPromotion() {
				continue
			}
			m.Promotion = promo
		}
		found = append(found, m)
	}
	switch len(found) {
	case 0:
		return NoMove, fmt.Errorf("illegal move: %s", orig)
	case 1:
		return found[0], nil
	}
	return NoMove, fmt.Errorf("ambiguous move: %s could be %s or %s", orig, found[0], found[1])
}

// MovesToSAN converts a sequence of moves played from pos to notation,
// passing the turn to the next live army after each.
func MovesToSAN(pos *Position, moves []Move) []string {
	result := make([]string, len(moves))
	p := pos.Copy()
	for i, m := range moves {
		result[i] = m.ToSAN(p)
		p.MakeMove(m)
		p.SetTurn(p.nextLive(m.Piece.Color()))
	}
	return result
}
