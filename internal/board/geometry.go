package board

// Per-army geometry. The board's four-fold symmetry depends on orientation,
// so every color-specific coordinate lives in this one table.

// CastleSide describes one castling option of an army. Short (index 0) uses
// the rook nearer the king, Long (index 1) the farther one.
type CastleSide struct {
	RookFrom Square
	RookTo   Square
	KingTo   Square
}

const (
	ShortSide = 0
	LongSide  = 1
)

// Army holds the fixed geometry of one color.
type Army struct {
	// Forward is the (row, col) step a pawn of this color advances by.
	Forward [2]int
	// BackRank lists the eight home squares in order of increasing index.
	BackRank [8]Square
	// Layout is the piece type on each BackRank square.
	Layout   [8]PieceType
	KingHome Square
	Castles  [2]CastleSide
	// PawnStart is the band a pawn must stand on to double-advance.
	PawnStart Bitboard
	// Promotion is the union of the opposing back band and the color's
	// mid-board promotion line.
	Promotion Bitboard
}

var armies = [NumColors]Army{
	Red:    newArmy(Red),
	Blue:   newArmy(Blue),
	Yellow: newArmy(Yellow),
	Green:  newArmy(Green),
}

// ArmyOf returns the geometry table for a color.
func ArmyOf(c Color) *Army {
	return &armies[c]
}

var (
	layoutQueenFirst = [8]PieceType{Rook, Knight, Bishop, Queen, King, Bishop, Knight, Rook}
	layoutKingFirst  = [8]PieceType{Rook, Knight, Bishop, King, Queen, Bishop, Knight, Rook}
)

func newArmy(c Color) Army {
	var a Army
	// Rows or columns of the home band, the pawn line, the opposing back band
	// and the mid-board promotion line.
	var back, pawns, opposing, mid func(i int) Square

	switch c {
	case Red:
		a.Forward = [2]int{-1, 0}
		a.Layout = layoutQueenFirst
		back = func(i int) Square { return NewSquare(13, i) }
		pawns = func(i int) Square { return NewSquare(12, i) }
		opposing = func(i int) Square { return NewSquare(0, i) }
		mid = func(i int) Square { return NewSquare(6, i) }
		a.Castles = [2]CastleSide{
			ShortSide: {RookFrom: NewSquare(13, 10), RookTo: NewSquare(13, 8), KingTo: NewSquare(13, 9)},
			LongSide:  {RookFrom: NewSquare(13, 3), RookTo: NewSquare(13, 6), KingTo: NewSquare(13, 5)},
		}
	case Yellow:
		a.Forward = [2]int{1, 0}
		a.Layout = layoutKingFirst
		back = func(i int) Square { return NewSquare(0, i) }
		pawns = func(i int) Square { return NewSquare(1, i) }
		opposing = func(i int) Square { return NewSquare(13, i) }
		mid = func(i int) Square { return NewSquare(7, i) }
		a.Castles = [2]CastleSide{
			ShortSide: {RookFrom: NewSquare(0, 3), RookTo: NewSquare(0, 5), KingTo: NewSquare(0, 4)},
			LongSide:  {RookFrom: NewSquare(0, 10), RookTo: NewSquare(0, 7), KingTo: NewSquare(0, 8)},
		}
	case Blue:
		a.Forward = [2]int{0, 1}
		a.Layout = layoutQueenFirst
		back = func(i int) Square { return NewSquare(i, 0) }
		pawns = func(i int) Square { return NewSquare(i, 1) }
		opposing = func(i int) Square { return NewSquare(i, 13) }
		mid = func(i int) Square { return NewSquare(i, 7) }
		a.Castles = [2]CastleSide{
			ShortSide: {RookFrom: NewSquare(10, 0), RookTo: NewSquare(8, 0), KingTo: NewSquare(9, 0)},
			LongSide:  {RookFrom: NewSquare(3, 0), RookTo: NewSquare(6, 0), KingTo: NewSquare(5, 0)},
		}
	case Green:
		a.Forward = [2]int{0, -1}
		a.Layout = layoutKingFirst
		back = func(i int) Square { return NewSquare(i, 13) }
		pawns = func(i int) Square { return NewSquare(i, 12) }
		opposing = func(i int) Square { return NewSquare(i, 0) }
		mid = func(i int) Square { return NewSquare(i, 6) }
		a.Castles = [2]CastleSide{
			ShortSide: {RookFrom: NewSquare(3, 13), RookTo: NewSquare(5, 13), KingTo: NewSquare(4, 13)},
			LongSide:  {RookFrom: NewSquare(10, 13), RookTo: NewSquare(7, 13), KingTo: NewSquare(8, 13)},
		}
	}

	for i := 0; i < 8; i++ {
		sq := back(i + cornerSize)
		a.BackRank[i] = sq
		if a.Layout[i] == King {
			a.KingHome = sq
		}
		a.PawnStart = a.PawnStart.Set(pawns(i + cornerSize))
		a.Promotion = a.Promotion.Set(opposing(i + cornerSize))
	}
	for i := 0; i < Size; i++ {
		if sq := mid(i); sq.IsValid() {
			a.Promotion = a.Promotion.Set(sq)
		}
	}
	return a
}

// castleSideForRook returns which castling rook starts on sq, or -1.
func (a *Army) castleSideForRook(sq Square) int {
	for side, cs := range a.Castles {
		if cs.RookFrom == sq {
			return side
		}
	}
	return -1
}

// Team returns the team index of a color in team mode: Red and Yellow form
// team 0, Blue and Green team 1.
func Team(c Color) int {
	return int(c) & 1
}

// Teammate returns the partner of a color in team mode.
func Teammate(c Color) Color {
	return c.Opposite()
}
