package board

// VBoard is a lightweight board for move simulation.
// Unlike Position, it only contains data needed for attack detection.
type VBoard struct {
	Pieces      [NumColors][6]Bitboard
	Occupied    [NumColors]Bitboard
	AllOccupied Bitboard
	KingSquare  [NumColors]Square
}

// NewVBoard creates a VBoard from a Position.
func NewVBoard(p *Position) VBoard {
	return VBoard{
		Pieces:      p.Pieces,
		Occupied:    p.Occupied,
		AllOccupied: p.AllOccupied,
		KingSquare:  p.KingSquare,
	}
}

func (v *VBoard) remove(sq Square) {
	for _, c := range Colors {
		if !v.Occupied[c].IsSet(sq) {
			continue
		}
		for pt := Pawn; pt <= King; pt++ {
			v.Pieces[c][pt] = v.Pieces[c][pt].Clear(sq)
		}
		v.Occupied[c] = v.Occupied[c].Clear(sq)
		if v.KingSquare[c] == sq {
			v.KingSquare[c] = NoSquare
		}
	}
	v.AllOccupied = v.AllOccupied.Clear(sq)
}

func (v *VBoard) place(piece Piece, sq Square) {
	c, pt := piece.Color(), piece.Type()
	v.Pieces[c][pt] = v.Pieces[c][pt].Set(sq)
	v.Occupied[c] = v.Occupied[c].Set(sq)
	v.AllOccupied = v.AllOccupied.Set(sq)
	if pt == King {
		v.KingSquare[c] = sq
	}
}

// ApplyMove applies a move to the VBoard (no validation, no hash update).
func (v *VBoard) ApplyMove(m Move) {
	if m.CaptureSquare != NoSquare {
		v.remove(m.CaptureSquare)
	}
	v.remove(m.From)

	placed := m.Piece
	if m.IsPromotion() && m.Promotion.CanPromoteTo() {
		placed = NewPiece(m.Promotion, m.Piece.Color())
	}
	v.place(placed, m.To)

	if m.IsCastling() {
		if side := castleSideOf(m); side >= 0 {
			cs := ArmyOf(m.Piece.Color()).Castles[side]
			v.remove(cs.RookFrom)
			v.place(NewPiece(Rook, m.Piece.Color()), cs.RookTo)
		}
	}
}

// IsSquareAttacked checks if sq is attacked by any piece of the given colors.
func (v *VBoard) IsSquareAttacked(sq Square, by ColorSet) bool {
	return squareAttacked(&v.Pieces, v.AllOccupied, sq, by)
}
