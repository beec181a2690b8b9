package board

// Zobrist hash keys for position hashing.
// Uses PRNG with fixed seed for reproducibility.
var (
	zobristPiece      [NumColors][7][NumSquares]uint64 // 7 to handle NoPieceType safely
	zobristEnPassant  [NumColors][NumSquares]uint64    // [Creator][Skipped]
	zobristCastling   [NumColors][3]uint64             // king, short rook, long rook moved
	zobristTurn       [NumColors + 1]uint64
	zobristEliminated [NumColors]uint64
	zobristTeamMode   uint64
)

func init() {
	initZobrist()
}

// Simple PRNG for reproducible Zobrist keys
type prng struct {
	state uint64
}

func newPRNG(seed uint64) *prng {
	return &prng{state: seed}
}

// xorshift64* algorithm
func (p *prng) next() uint64 {
	p.state ^= p.state >> 12
	p.state ^= p.state << 25
	p.state ^= p.state >> 27
	return p.state * 0x2545F4914F6CDD1D
}

func initZobrist() {
	rng := newPRNG(0x4C2A17D0C0FFEE42) // Fixed seed

	for _, c := range Colors {
		for pt := Pawn; pt <= King; pt++ {
			for sq := Square(0); sq < NoSquare; sq++ {
				zobristPiece[c][pt][sq] = rng.next()
			}
		}
		for sq := Square(0); sq < NoSquare; sq++ {
			zobristEnPassant[c][sq] = rng.next()
		}
		for i := range zobristCastling[c] {
			zobristCastling[c][i] = rng.next()
		}
		zobristEliminated[c] = rng.next()
	}
	for i := range zobristTurn {
		zobristTurn[i] = rng.next()
	}
	zobristTeamMode = rng.next()
}

// castlingKey folds every "has moved" flag into one key.
func castlingKey(cr *CastlingRights) uint64 {
	var key uint64
	for _, c := range Colors {
		if cr[c].KingMoved {
			key ^= zobristCastling[c][0]
		}
		for side := ShortSide; side <= LongSide; side++ {
			if cr[c].RookMoved[side] {
				key ^= zobristCastling[c][1+side]
			}
		}
	}
	return key
}

// ComputeHash computes the Zobrist hash of the position from scratch.
func (p *Position) ComputeHash() uint64 {
	var hash uint64
	for _, c := range Colors {
		for pt := Pawn; pt <= King; pt++ {
			p.Pieces[c][pt].ForEach(func(sq Square) {
				hash ^= zobristPiece[c][pt][sq]
			})
		}
		if p.Eliminated.Has(c) {
			hash ^= zobristEliminated[c]
		}
	}
	for _, t := range p.EnPassant {
		hash ^= zobristEnPassant[t.Creator][t.Skipped]
	}
	hash ^= castlingKey(&p.Castling)
	if p.Turn <= NoColor {
		hash ^= zobristTurn[p.Turn]
	}
	if p.TeamMode {
		hash ^= zobristTeamMode
	}
	return hash
}

// SetTeamMode switches team play on or off, keeping the hash current.
func (p *Position) SetTeamMode(on bool) {
	if p.TeamMode != on {
		p.TeamMode = on
		p.Hash ^= zobristTeamMode
	}
}

// ZobristPiece returns the Zobrist key for a piece on a square.
func ZobristPiece(c Color, pt PieceType, sq Square) uint64 {
	return zobristPiece[c][pt][sq]
}
