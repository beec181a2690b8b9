package board

// squareAttacked reports whether any piece of the given colors attacks sq.
// Attacks are pseudo-legal movement patterns without castling, so the test
// never recurses into castling legality.
func squareAttacked(pieces *[NumColors][6]Bitboard, occupied Bitboard, sq Square, by ColorSet) bool {
	var diagonal, orthogonal Bitboard
	for _, c := range Colors {
		if !by.Has(c) {
			continue
		}
		if pawnAttackers[c][sq].Intersects(pieces[c][Pawn]) {
			return true
		}
		if knightAttacks[sq].Intersects(pieces[c][Knight]) {
			return true
		}
		if kingAttacks[sq].Intersects(pieces[c][King]) {
			return true
		}
		diagonal = diagonal.Or(pieces[c][Bishop]).Or(pieces[c][Queen])
		orthogonal = orthogonal.Or(pieces[c][Rook]).Or(pieces[c][Queen])
	}

	if diagonal.More() && BishopAttacks(sq, occupied).Intersects(diagonal) {
		return true
	}
	if orthogonal.More() && RookAttacks(sq, occupied).Intersects(orthogonal) {
		return true
	}
	return false
}

// IsSquareAttacked reports whether sq is attacked by any live army hostile
// to the defending color.
func (p *Position) IsSquareAttacked(sq Square, defender Color) bool {
	return p.IsSquareAttackedBy(sq, p.Attackers(defender))
}

// IsSquareAttackedBy reports whether sq is attacked by the given colors.
func (p *Position) IsSquareAttackedBy(sq Square, by ColorSet) bool {
	return squareAttacked(&p.Pieces, p.AllOccupied, sq, by)
}

// IsInCheck returns true if the color's king is attacked. Eliminated armies
// and armies without a king are never in check.
func (p *Position) IsInCheck(c Color) bool {
	if !p.IsLive(c) {
		return false
	}
	ksq := p.KingSquare[c]
	if ksq == NoSquare {
		return false
	}
	return p.IsSquareAttacked(ksq, c)
}

// Checkers returns the squares of the pieces giving check to the color.
func (p *Position) Checkers(c Color) Bitboard {
	var checkers Bitboard
	ksq := p.KingSquare[c]
	if ksq == NoSquare || !p.IsLive(c) {
		return checkers
	}
	by := p.Attackers(c)
	for _, o := range Colors {
		if !by.Has(o) {
			continue
		}
		for pt := Pawn; pt <= King; pt++ {
			piece := NewPiece(pt, o)
			p.Pieces[o][pt].ForEach(func(from Square) {
				if PieceAttacks(piece, from, p.AllOccupied).IsSet(ksq) {
					checkers = checkers.Set(from)
				}
			})
		}
	}
	return checkers
}

// AttackMap returns every square attacked by armies hostile to the defender.
func (p *Position) AttackMap(defender Color) Bitboard {
	var attacked Bitboard
	by := p.Attackers(defender)
	for _, c := range Colors {
		if !by.Has(c) {
			continue
		}
		for pt := Pawn; pt <= King; pt++ {
			piece := NewPiece(pt, c)
			p.Pieces[c][pt].ForEach(func(from Square) {
				attacked = attacked.Or(PieceAttacks(piece, from, p.AllOccupied))
			})
		}
	}
	return attacked
}

// IsCheckmate returns true if the color is in check with no legal move.
func (p *Position) IsCheckmate(c Color) bool {
	return p.IsInCheck(c) && !p.HasAnyLegalMoves(c)
}

// IsStalemate returns true if the live color is not in check but has no
// legal move.
func (p *Position) IsStalemate(c Color) bool {
	return p.IsLive(c) && !p.IsInCheck(c) && !p.HasAnyLegalMoves(c)
}
