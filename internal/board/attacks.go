package board

// Pre-computed attack tables for non-sliding pieces and ray lists for
// sliding pieces. Every entry already excludes corner and off-board squares.
var (
	knightAttacks [NumSquares]Bitboard
	kingAttacks   [NumSquares]Bitboard

	// pawnAttacks[c][sq] are the squares a pawn of color c on sq attacks.
	pawnAttacks [NumColors][NumSquares]Bitboard
	// pawnAttackers[c][sq] are the squares from which a pawn of color c
	// attacks sq.
	pawnAttackers [NumColors][NumSquares]Bitboard

	// rays[d][sq] lists the squares from sq outward in direction d.
	rays [8][NumSquares][]Square
)

// Ray directions. The first four are orthogonal, the last four diagonal.
var directions = [8][2]int{
	{-1, 0}, {1, 0}, {0, -1}, {0, 1},
	{-1, -1}, {-1, 1}, {1, -1}, {1, 1},
}

var (
	orthogonalDirs = []int{0, 1, 2, 3}
	diagonalDirs   = []int{4, 5, 6, 7}
	allDirs        = []int{0, 1, 2, 3, 4, 5, 6, 7}
)

var knightOffsets = [8][2]int{
	{-2, -1}, {-2, 1}, {-1, -2}, {-1, 2},
	{1, -2}, {1, 2}, {2, -1}, {2, 1},
}

func init() {
	initLeaperAttacks()
	initPawnAttacks()
	initRays()
}

func initLeaperAttacks() {
	for sq := Square(0); sq < NoSquare; sq++ {
		if !sq.IsValid() {
			continue
		}
		for _, o := range knightOffsets {
			if to := sq.Offset(o[0], o[1]); to != NoSquare {
				knightAttacks[sq] = knightAttacks[sq].Set(to)
			}
		}
		for _, d := range directions {
			if to := sq.Offset(d[0], d[1]); to != NoSquare {
				kingAttacks[sq] = kingAttacks[sq].Set(to)
			}
		}
	}
}

func initPawnAttacks() {
	for _, c := range Colors {
		for sq := Square(0); sq < NoSquare; sq++ {
			if !sq.IsValid() {
				continue
			}
			for _, to := range pawnCaptureSquares(c, sq) {
				if to == NoSquare {
					continue
				}
				pawnAttacks[c][sq] = pawnAttacks[c][sq].Set(to)
				pawnAttackers[c][to] = pawnAttackers[c][to].Set(sq)
			}
		}
	}
}

// pawnCaptureSquares returns the two forward diagonals of a pawn.
func pawnCaptureSquares(c Color, sq Square) [2]Square {
	f := armies[c].Forward
	if f[0] != 0 {
		return [2]Square{sq.Offset(f[0], -1), sq.Offset(f[0], 1)}
	}
	return [2]Square{sq.Offset(-1, f[1]), sq.Offset(1, f[1])}
}

func initRays() {
	for d, dir := range directions {
		for sq := Square(0); sq < NoSquare; sq++ {
			if !sq.IsValid() {
				continue
			}
			var ray []Square
			for to := sq.Offset(dir[0], dir[1]); to != NoSquare; to = to.Offset(dir[0], dir[1]) {
				ray = append(ray, to)
			}
			rays[d][sq] = ray
		}
	}
}

// KnightAttacks returns knight attacks from a square.
func KnightAttacks(sq Square) Bitboard {
	return knightAttacks[sq]
}

// KingAttacks returns the squares adjacent to a square.
func KingAttacks(sq Square) Bitboard {
	return kingAttacks[sq]
}

// PawnAttacks returns the squares a pawn of color c on sq attacks.
func PawnAttacks(c Color, sq Square) Bitboard {
	return pawnAttacks[c][sq]
}

// slidingAttacks casts rays in the given directions until each is blocked.
// The blocking square is included.
func slidingAttacks(sq Square, occupied Bitboard, dirs []int) Bitboard {
	var attacks Bitboard
	for _, d := range dirs {
		for _, to := range rays[d][sq] {
			attacks = attacks.Set(to)
			if occupied.IsSet(to) {
				break
			}
		}
	}
	return attacks
}

// RookAttacks returns orthogonal ray attacks from sq given the occupancy.
func RookAttacks(sq Square, occupied Bitboard) Bitboard {
	return slidingAttacks(sq, occupied, orthogonalDirs)
}

// BishopAttacks returns diagonal ray attacks from sq given the occupancy.
func BishopAttacks(sq Square, occupied Bitboard) Bitboard {
	return slidingAttacks(sq, occupied, diagonalDirs)
}

// QueenAttacks returns combined rook and bishop attacks.
func QueenAttacks(sq Square, occupied Bitboard) Bitboard {
	return slidingAttacks(sq, occupied, allDirs)
}

// PieceAttacks returns the squares a piece attacks from sq, without castling.
func PieceAttacks(piece Piece, sq Square, occupied Bitboard) Bitboard {
	switch piece.Type() {
	case Pawn:
		return pawnAttacks[piece.Color()][sq]
	case Knight:
		return knightAttacks[sq]
	case Bishop:
		return BishopAttacks(sq, occupied)
	case Rook:
		return RookAttacks(sq, occupied)
	case Queen:
		return QueenAttacks(sq, occupied)
	case King:
		return kingAttacks[sq]
	}
	return Empty
}
