package board

// LegalMovesFrom generates the legal moves of the piece standing on from.
// Pieces of eliminated armies have no moves.
func (p *Position) LegalMovesFrom(from Square) *MoveList {
	ml := p.PseudoLegalMovesFrom(from)
	return p.filterLegalMoves(ml)
}

// PseudoLegalMovesFrom generates the moves of the piece on from that follow
// its movement pattern; they may leave the mover's king in check.
func (p *Position) PseudoLegalMovesFrom(from Square) *MoveList {
	ml := NewMoveList()
	piece := p.PieceAt(from)
	if piece == NoPiece || !p.IsLive(piece.Color()) {
		return ml
	}
	p.generatePieceMoves(ml, from, piece)
	return ml
}

// GenerateLegalMoves generates all legal moves of a color.
func (p *Position) GenerateLegalMoves(c Color) *MoveList {
	return p.filterLegalMoves(p.GeneratePseudoLegalMoves(c))
}

// GeneratePseudoLegalMoves generates all pseudo-legal moves of a color.
func (p *Position) GeneratePseudoLegalMoves(c Color) *MoveList {
	ml := NewMoveList()
	if c >= NoColor || !p.IsLive(c) {
		return ml
	}
	for pt := Pawn; pt <= King; pt++ {
		piece := NewPiece(pt, c)
		p.Pieces[c][pt].ForEach(func(from Square) {
			p.generatePieceMoves(ml, from, piece)
		})
	}
	return ml
}

// HasAnyLegalMoves returns true as soon as one legal move of the color is
// found.
func (p *Position) HasAnyLegalMoves(c Color) bool {
	ml := p.GeneratePseudoLegalMoves(c)
	for _, m := range ml.Slice() {
		if p.IsLegal(m) {
			return true
		}
	}
	return false
}

// generatePieceMoves dispatches on piece type.
func (p *Position) generatePieceMoves(ml *MoveList, from Square, piece Piece) {
	c := piece.Color()
	switch piece.Type() {
	case Pawn:
		p.generatePawnMoves(ml, from, c)
	case Knight:
		p.addTargets(ml, from, piece, KnightAttacks(from))
	case Bishop:
		p.addTargets(ml, from, piece, BishopAttacks(from, p.AllOccupied))
	case Rook:
		p.addTargets(ml, from, piece, RookAttacks(from, p.AllOccupied))
	case Queen:
		p.addTargets(ml, from, piece, QueenAttacks(from, p.AllOccupied))
	case King:
		p.addTargets(ml, from, piece, KingAttacks(from))
		p.generateCastlingMoves(ml, c)
	}
}

// addTargets turns an attack set into quiet moves and captures, dropping
// friendly squares and live kings.
func (p *Position) addTargets(ml *MoveList, from Square, piece Piece, attacks Bitboard) {
	c := piece.Color()
	capturable := p.Capturable(c)
	quiet := attacks.AndNot(p.AllOccupied)
	captures := attacks.And(capturable)

	quiet.ForEach(func(to Square) {
		ml.Add(p.newMove(from, to, piece, 0))
	})
	captures.ForEach(func(to Square) {
		ml.Add(p.newMove(from, to, piece, FlagCapture))
	})
}

func (p *Position) newMove(from, to Square, piece Piece, flags MoveFlags) Move {
	m := Move{
		From:          from,
		To:            to,
		Piece:         piece,
		Captured:      NoPiece,
		CaptureSquare: NoSquare,
		Flags:         flags,
		Promotion:     NoPieceType,
	}
	if flags&FlagCapture != 0 {
		m.Captured = p.PieceAt(to)
		m.CaptureSquare = to
	}
	return m
}

// generatePawnMoves generates pushes, double pushes, captures and en
// passant captures for a pawn, flagging promotions by destination.
func (p *Position) generatePawnMoves(ml *MoveList, from Square, c Color) {
	army := ArmyOf(c)
	piece := NewPiece(Pawn, c)
	fwd := army.Forward

	add := func(m Move) {
		if army.Promotion.IsSet(m.To) {
			m.Flags |= FlagPromotion
		}
		ml.Add(m)
	}

	// Pushes
	if one := from.Offset(fwd[0], fwd[1]); one != NoSquare && p.IsEmpty(one) {
		add(p.newMove(from, one, piece, 0))
		if army.PawnStart.IsSet(from) {
			if two := one.Offset(fwd[0], fwd[1]); two != NoSquare && p.IsEmpty(two) {
				add(p.newMove(from, two, piece, FlagDoublePush))
			}
		}
	}

	// Captures
	capturable := p.Capturable(c)
	for _, to := range pawnCaptureSquares(c, from) {
		if to == NoSquare {
			continue
		}
		if capturable.IsSet(to) {
			add(p.newMove(from, to, piece, FlagCapture))
			continue
		}
		if !p.IsEmpty(to) {
			continue
		}
		if t, ok := p.enPassantAt(to, c); ok {
			m := p.newMove(from, to, piece, FlagCapture|FlagEnPassant)
			m.Captured = p.PieceAt(t.Pawn)
			m.CaptureSquare = t.Pawn
			add(m)
		}
	}
}

// enPassantAt returns a live en passant target on sq that color c may
// capture: created by another army whose pawn still stands where it landed.
func (p *Position) enPassantAt(sq Square, c Color) (EnPassantTarget, bool) {
	for _, t := range p.EnPassant {
		if t.Skipped != sq || t.Creator == c {
			continue
		}
		if p.PieceAt(t.Pawn) != NewPiece(Pawn, t.Creator) {
			continue
		}
		if !p.Capturable(c).IsSet(t.Pawn) {
			continue
		}
		return t, true
	}
	return EnPassantTarget{}, false
}

// generateCastlingMoves adds castling moves for the king of color c.
func (p *Position) generateCastlingMoves(ml *MoveList, c Color) {
	for side := ShortSide; side <= LongSide; side++ {
		if m, ok := p.castlingMove(c, side); ok {
			ml.Add(m)
		}
	}
}

// castlingMove checks every castling precondition for one side: king and
// that rook unmoved and in place, the squares between them empty, the king
// not in check and no square it crosses or lands on attacked.
func (p *Position) castlingMove(c Color, side int) (Move, bool) {
	army := ArmyOf(c)
	cs := army.Castles[side]
	king := army.KingHome

	if !p.Castling.CanCastle(c, side) {
		return NoMove, false
	}
	if p.KingSquare[c] != king || p.PieceAt(cs.RookFrom) != NewPiece(Rook, c) {
		return NoMove, false
	}
	for _, sq := range squaresBetween(king, cs.RookFrom) {
		if !p.IsEmpty(sq) {
			return NoMove, false
		}
	}

	attackers := p.Attackers(c)
	if p.IsSquareAttackedBy(king, attackers) {
		return NoMove, false
	}
	for _, sq := range squaresBetween(king, cs.KingTo) {
		if p.IsSquareAttackedBy(sq, attackers) {
			return NoMove, false
		}
	}
	if p.IsSquareAttackedBy(cs.KingTo, attackers) {
		return NoMove, false
	}

	m := p.newMove(king, cs.KingTo, NewPiece(King, c), FlagCastling)
	return m, true
}

// squaresBetween returns the squares strictly between two squares sharing
// a row or a column.
func squaresBetween(a, b Square) []Square {
	dr, dc := sign(b.Row()-a.Row()), sign(b.Col()-a.Col())
	if dr != 0 && dc != 0 {
		return nil
	}
	var out []Square
	for sq := a.Offset(dr, dc); sq != NoSquare && sq != b; sq = sq.Offset(dr, dc) {
		out = append(out, sq)
	}
	return out
}

func sign(x int) int {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	}
	return 0
}

// castleSideOf returns which castling side a castling move uses.
func castleSideOf(m Move) int {
	army := ArmyOf(m.Piece.Color())
	for side, cs := range army.Castles {
		if cs.KingTo == m.To {
			return side
		}
	}
	return -1
}

// filterLegalMoves removes moves that leave the mover's king attacked.
func (p *Position) filterLegalMoves(ml *MoveList) *MoveList {
	legal := NewMoveList()
	for _, m := range ml.Slice() {
		if p.IsLegal(m) {
			legal.Add(m)
		}
	}
	return legal
}

// IsLegal simulates a pseudo-legal move on a scratch board and reports
// whether the mover's king is safe afterwards.
func (p *Position) IsLegal(m Move) bool {
	c := m.Piece.Color()
	v := NewVBoard(p)
	v.ApplyMove(m)
	kingSq := v.KingSquare[c]
	if kingSq == NoSquare {
		return true
	}
	return !v.IsSquareAttacked(kingSq, p.Attackers(c))
}
