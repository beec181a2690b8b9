package board

import (
	"fmt"
	"strings"
)

// ArmyCastling records whether an army's king and each of its two castling
// rooks have moved. Rooks are indexed by ShortSide and LongSide.
type ArmyCastling struct {
	KingMoved bool    `json:"kingMoved"`
	RookMoved [2]bool `json:"rookMoved"`
}

// CastlingRights holds the castling flags of every army.
type CastlingRights [NumColors]ArmyCastling

// CanCastle returns true if neither the king nor the rook of the given side
// has moved.
func (cr *CastlingRights) CanCastle(c Color, side int) bool {
	return !cr[c].KingMoved && !cr[c].RookMoved[side]
}

// String returns the castling rights as e.g. "rSL bS - gL".
func (cr CastlingRights) String() string {
	parts := make([]string, 0, NumColors)
	for _, c := range Colors {
		s := string(c.Letter())
		if cr.CanCastle(c, ShortSide) {
			s += "S"
		}
		if cr.CanCastle(c, LongSide) {
			s += "L"
		}
		if len(s) == 1 {
			s = "-"
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, " ")
}

// EnPassantTarget is a square skipped by a double pawn advance. Pawn is the
// square the advancing pawn landed on; that is the piece removed by an en
// passant capture.
type EnPassantTarget struct {
	Skipped Square `json:"skipped"`
	Pawn    Square `json:"pawn"`
	Creator Color  `json:"creator"`
	Ply     int    `json:"ply"`
}

// Position represents a complete four-player position. The per-(color,type)
// bitboards are the single source of truth; Grid derives an array view.
type Position struct {
	// Piece bitboards: [Color][PieceType]
	Pieces [NumColors][6]Bitboard `json:"pieces"`

	// Occupancy bitboards (cached for efficiency)
	Occupied    [NumColors]Bitboard `json:"-"`
	AllOccupied Bitboard            `json:"-"`

	// King positions (cached for check detection)
	KingSquare [NumColors]Square `json:"-"`

	// Game state
	Turn       Color             `json:"turn"`
	Castling   CastlingRights    `json:"castling"`
	EnPassant  []EnPassantTarget `json:"enPassant"`
	Eliminated ColorSet          `json:"eliminated"`
	TeamMode   bool              `json:"teamMode"`
	Ply        int               `json:"ply"`

	// Zobrist hash of the position
	Hash uint64 `json:"hash"`
}

// NewPosition creates the starting position with Red to move.
func NewPosition() *Position {
	p := &Position{}
	p.Clear()
	for _, c := range Colors {
		army := ArmyOf(c)
		for i, sq := range army.BackRank {
			p.setPiece(NewPiece(army.Layout[i], c), sq)
		}
		army.PawnStart.ForEach(func(sq Square) {
			p.setPiece(NewPiece(Pawn, c), sq)
		})
	}
	p.Hash = p.ComputeHash()
	return p
}

// Copy creates a deep copy of the position.
func (p *Position) Copy() *Position {
	newPos := *p
	newPos.EnPassant = append([]EnPassantTarget(nil), p.EnPassant...)
	return &newPos
}

// PieceAt returns the piece at the given square, or NoPiece if empty.
func (p *Position) PieceAt(sq Square) Piece {
	if !p.AllOccupied.IsSet(sq) {
		return NoPiece
	}
	for _, c := range Colors {
		if !p.Occupied[c].IsSet(sq) {
			continue
		}
		for pt := Pawn; pt <= King; pt++ {
			if p.Pieces[c][pt].IsSet(sq) {
				return NewPiece(pt, c)
			}
		}
	}
	return NoPiece
}

// IsEmpty returns true if the square is empty.
func (p *Position) IsEmpty(sq Square) bool {
	return !p.AllOccupied.IsSet(sq)
}

// IsLive returns true if the color has not been eliminated.
func (p *Position) IsLive(c Color) bool {
	return c < NoColor && !p.Eliminated.Has(c)
}

// LiveColors returns the set of non-eliminated colors.
func (p *Position) LiveColors() ColorSet {
	return AllColors &^ p.Eliminated
}

// Friendly returns the squares a color may never capture: its own pieces
// and, in team mode, those of its live teammate.
func (p *Position) Friendly(c Color) Bitboard {
	own := p.Occupied[c]
	if p.TeamMode && p.IsLive(Teammate(c)) {
		own = own.Or(p.Occupied[Teammate(c)])
	}
	return own
}

// Capturable returns the occupied squares a color may capture on. Pieces of
// eliminated armies are always capturable; live kings never are.
func (p *Position) Capturable(c Color) Bitboard {
	targets := p.AllOccupied.AndNot(p.Friendly(c))
	for _, o := range Colors {
		if p.IsLive(o) {
			targets = targets.AndNot(p.Pieces[o][King])
		}
	}
	return targets
}

// Attackers returns the colors whose pieces threaten the given color: every
// live army other than itself and its teammate.
func (p *Position) Attackers(defender Color) ColorSet {
	set := p.LiveColors().Without(defender)
	if p.TeamMode {
		set = set.Without(Teammate(defender))
	}
	return set
}

// setPiece places a piece on a square (does not update hash).
func (p *Position) setPiece(piece Piece, sq Square) {
	if piece == NoPiece {
		return
	}
	c := piece.Color()
	pt := piece.Type()

	p.Pieces[c][pt] = p.Pieces[c][pt].Set(sq)
	p.Occupied[c] = p.Occupied[c].Set(sq)
	p.AllOccupied = p.AllOccupied.Set(sq)

	if pt == King {
		p.KingSquare[c] = sq
	}
}

// removePiece removes a piece from a square (does not update hash).
func (p *Position) removePiece(sq Square) Piece {
	piece := p.PieceAt(sq)
	if piece == NoPiece {
		return NoPiece
	}

	c := piece.Color()
	pt := piece.Type()

	p.Pieces[c][pt] = p.Pieces[c][pt].Clear(sq)
	p.Occupied[c] = p.Occupied[c].Clear(sq)
	p.AllOccupied = p.AllOccupied.Clear(sq)

	if pt == King && p.KingSquare[c] == sq {
		p.KingSquare[c] = NoSquare
	}
	return piece
}

// movePiece moves a piece from one square to another (does not update hash).
func (p *Position) movePiece(from, to Square) {
	piece := p.removePiece(from)
	p.setPiece(piece, to)
}

// updateOccupied recalculates occupancy bitboards from piece bitboards.
func (p *Position) updateOccupied() {
	p.AllOccupied = Empty
	for _, c := range Colors {
		p.Occupied[c] = Empty
		for pt := Pawn; pt <= King; pt++ {
			p.Occupied[c] = p.Occupied[c].Or(p.Pieces[c][pt])
		}
		p.AllOccupied = p.AllOccupied.Or(p.Occupied[c])
	}
}

// findKings locates and caches the king positions.
func (p *Position) findKings() {
	for _, c := range Colors {
		p.KingSquare[c] = p.Pieces[c][King].LSB()
	}
}

// Rebuild recomputes every derived field (occupancy, king squares, hash)
// from the piece bitboards. Call it after decoding a position.
func (p *Position) Rebuild() {
	p.updateOccupied()
	p.findKings()
	p.Hash = p.ComputeHash()
}

// Grid returns the derived array view of the board, indexed [row][col].
func (p *Position) Grid() [Size][Size]Piece {
	var grid [Size][Size]Piece
	for row := 0; row < Size; row++ {
		for col := 0; col < Size; col++ {
			grid[row][col] = NoPiece
		}
	}
	for _, c := range Colors {
		for pt := Pawn; pt <= King; pt++ {
			piece := NewPiece(pt, c)
			p.Pieces[c][pt].ForEach(func(sq Square) {
				grid[sq.Row()][sq.Col()] = piece
			})
		}
	}
	return grid
}

// String returns a visual representation of the position.
func (p *Position) String() string {
	var sb strings.Builder
	sb.WriteByte('\n')
	grid := p.Grid()
	for row := 0; row < Size; row++ {
		fmt.Fprintf(&sb, "%2d  ", Size-row)
		for col := 0; col < Size; col++ {
			sq := NewSquare(row, col)
			switch {
			case !sq.IsValid():
				sb.WriteString("   ")
			case grid[row][col] == NoPiece:
				sb.WriteString(".  ")
			default:
				sb.WriteString(grid[row][col].String() + " ")
			}
		}
		sb.WriteByte('\n')
	}
	sb.WriteString("\n    a  b  c  d  e  f  g  h  i  j  k  l  m  n\n\n")
	fmt.Fprintf(&sb, "Turn: %s\n", p.Turn)
	fmt.Fprintf(&sb, "Castling: %s\n", p.Castling)
	for _, t := range p.EnPassant {
		fmt.Fprintf(&sb, "En passant: %s (%s pawn on %s)\n", t.Skipped, t.Creator, t.Pawn)
	}
	fmt.Fprintf(&sb, "Ply: %d\n", p.Ply)
	fmt.Fprintf(&sb, "Hash: %016x\n", p.Hash)
	return sb.String()
}

// Clear resets the position to an empty board with Red to move.
func (p *Position) Clear() {
	*p = Position{Turn: Red}
	for _, c := range Colors {
		p.KingSquare[c] = NoSquare
	}
	p.Hash = p.ComputeHash()
}

// Put places a piece on an empty valid square. It is meant for setting up
// positions; castling and en passant state are left untouched.
func (p *Position) Put(piece Piece, sq Square) error {
	if !sq.IsValid() {
		return fmt.Errorf("invalid square %d", sq)
	}
	if !p.IsEmpty(sq) {
		return fmt.Errorf("square %s is occupied", sq)
	}
	if piece.Type() == King && p.Pieces[piece.Color()][King].More() {
		return fmt.Errorf("%s already has a king", piece.Color())
	}
	p.setPiece(piece, sq)
	p.Hash = p.ComputeHash()
	return nil
}

// Remove takes whatever piece stands on sq off the board.
func (p *Position) Remove(sq Square) Piece {
	piece := p.removePiece(sq)
	p.Hash = p.ComputeHash()
	return piece
}

// Validate checks if the position is valid.
func (p *Position) Validate() error {
	for _, c := range Colors {
		if n := p.Pieces[c][King].PopCount(); n > 1 {
			return fmt.Errorf("%s has %d kings", c, n)
		}
		if p.IsLive(c) && p.Pieces[c][King].Empty() {
			return fmt.Errorf("%s is live but has no king", c)
		}
	}
	if p.AllOccupied.AndNot(ValidSquares).More() {
		return fmt.Errorf("pieces on corner squares")
	}
	seen := Empty
	for _, c := range Colors {
		for pt := Pawn; pt <= King; pt++ {
			if seen.Intersects(p.Pieces[c][pt]) {
				return fmt.Errorf("overlapping pieces")
			}
			seen = seen.Or(p.Pieces[c][pt])
		}
	}
	if p.Turn >= NoColor {
		return fmt.Errorf("invalid turn %d", p.Turn)
	}
	return nil
}

// Material returns the capture value of the pieces each army has on board.
func (p *Position) Material() [NumColors]int {
	var m [NumColors]int
	for _, c := range Colors {
		for pt := Pawn; pt < King; pt++ {
			m[c] += p.Pieces[c][pt].PopCount() * PieceValue[pt]
		}
	}
	return m
}
