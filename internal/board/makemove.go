package board

// UndoInfo stores the state needed to undo a move.
type UndoInfo struct {
	Pieces      [NumColors][6]Bitboard
	Occupied    [NumColors]Bitboard
	AllOccupied Bitboard
	KingSquare  [NumColors]Square
	Castling    CastlingRights
	EnPassant   []EnPassantTarget
	Ply         int
	Hash        uint64
	Valid       bool // True if move was actually applied
}

// MakeMove applies a pseudo-legal move: captures (including en passant),
// castling rook transfer, promotion when a type is chosen, castling-right
// updates and en passant target creation. It does not change Turn; the
// caller owns turn rotation. A promotion move without a chosen type leaves
// the pawn on its destination until Promote is called.
func (p *Position) MakeMove(m Move) UndoInfo {
	undo := UndoInfo{
		Pieces:      p.Pieces,
		Occupied:    p.Occupied,
		AllOccupied: p.AllOccupied,
		KingSquare:  p.KingSquare,
		Castling:    p.Castling,
		EnPassant:   append([]EnPassantTarget(nil), p.EnPassant...),
		Ply:         p.Ply,
		Hash:        p.Hash,
	}

	piece := p.PieceAt(m.From)
	// Safety check - if no piece at from square, return without modifying position
	if piece == NoPiece {
		return undo
	}
	undo.Valid = true
	us := piece.Color()
	pt := piece.Type()

	// Rights may change on a capture as well as on the move itself.
	p.Hash ^= castlingKey(&p.Castling)

	// Captures
	if m.IsEnPassant() {
		if captured := p.removePiece(m.CaptureSquare); captured != NoPiece {
			p.Hash ^= zobristPiece[captured.Color()][captured.Type()][m.CaptureSquare]
		}
	} else if captured := p.PieceAt(m.To); captured != NoPiece {
		p.removePiece(m.To)
		p.Hash ^= zobristPiece[captured.Color()][captured.Type()][m.To]
		p.clearRookRight(captured, m.To)
	}

	// Move the piece
	p.movePiece(m.From, m.To)
	p.Hash ^= zobristPiece[us][pt][m.From]
	p.Hash ^= zobristPiece[us][pt][m.To]

	// Promotion
	if pt == Pawn && m.IsPromotion() && m.Promotion.CanPromoteTo() {
		p.swapPromotion(m.To, us, m.Promotion)
	}

	// Castling
	if m.IsCastling() {
		if side := castleSideOf(m); side >= 0 {
			cs := ArmyOf(us).Castles[side]
			p.movePiece(cs.RookFrom, cs.RookTo)
			p.Hash ^= zobristPiece[us][Rook][cs.RookFrom]
			p.Hash ^= zobristPiece[us][Rook][cs.RookTo]
		}
	}

	// Castling rights
	if pt == King {
		p.Castling[us].KingMoved = true
	}
	if pt == Rook {
		p.clearRookRight(piece, m.From)
	}
	p.Hash ^= castlingKey(&p.Castling)

	// En passant: an army has at most one target, replaced by its own move.
	p.dropEnPassant(func(t EnPassantTarget) bool { return t.Creator == us })
	if m.IsDoublePush() {
		fwd := ArmyOf(us).Forward
		t := EnPassantTarget{
			Skipped: m.From.Offset(fwd[0], fwd[1]),
			Pawn:    m.To,
			Creator: us,
			Ply:     p.Ply,
		}
		p.EnPassant = append(p.EnPassant, t)
		p.Hash ^= zobristEnPassant[us][t.Skipped]
	}

	p.Ply++
	return undo
}

// UnmakeMove restores the position saved by MakeMove.
func (p *Position) UnmakeMove(undo UndoInfo) {
	if !undo.Valid {
		return
	}
	p.Pieces = undo.Pieces
	p.Occupied = undo.Occupied
	p.AllOccupied = undo.AllOccupied
	p.KingSquare = undo.KingSquare
	p.Castling = undo.Castling
	p.EnPassant = undo.EnPassant
	p.Ply = undo.Ply
	p.Hash = undo.Hash
}

// Promote replaces the pawn on sq with a piece of the chosen type in the
// same army's bitboards.
func (p *Position) Promote(sq Square, pt PieceType) bool {
	piece := p.PieceAt(sq)
	if piece.Type() != Pawn || !pt.CanPromoteTo() {
		return false
	}
	p.swapPromotion(sq, piece.Color(), pt)
	return true
}

func (p *Position) swapPromotion(sq Square, c Color, pt PieceType) {
	p.Pieces[c][Pawn] = p.Pieces[c][Pawn].Clear(sq)
	p.Pieces[c][pt] = p.Pieces[c][pt].Set(sq)
	p.Hash ^= zobristPiece[c][Pawn][sq]
	p.Hash ^= zobristPiece[c][pt][sq]
}

// clearRookRight marks a castling rook as moved when it leaves, or is
// captured on, its home square.
func (p *Position) clearRookRight(piece Piece, sq Square) {
	if piece.Type() != Rook {
		return
	}
	c := piece.Color()
	if side := ArmyOf(c).castleSideForRook(sq); side >= 0 {
		p.Castling[c].RookMoved[side] = true
	}
}

// ExpireEnPassant discards the en passant targets created by a color. It
// is called whenever turn rotation reaches or skips that color's slot.
func (p *Position) ExpireEnPassant(c Color) {
	p.dropEnPassant(func(t EnPassantTarget) bool { return t.Creator == c })
}

func (p *Position) dropEnPassant(match func(EnPassantTarget) bool) {
	kept := p.EnPassant[:0]
	for _, t := range p.EnPassant {
		if match(t) {
			p.Hash ^= zobristEnPassant[t.Creator][t.Skipped]
			continue
		}
		kept = append(kept, t)
	}
	p.EnPassant = kept
	if len(p.EnPassant) == 0 {
		p.EnPassant = nil
	}
}

// SetTurn changes the color to move, keeping the hash current.
func (p *Position) SetTurn(c Color) {
	p.Hash ^= zobristTurn[p.Turn]
	p.Turn = c
	p.Hash ^= zobristTurn[p.Turn]
}

// Eliminate removes a color from play. Its pieces stay on the board as
// capturable, non-threatening obstacles.
func (p *Position) Eliminate(c Color) {
	if p.Eliminated.Has(c) {
		return
	}
	p.Eliminated = p.Eliminated.With(c)
	p.Hash ^= zobristEliminated[c]
}
