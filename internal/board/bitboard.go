package board

import (
	"math/bits"
	"strings"
)

// Bitboard is a 196-bit set with one bit per square, packed into four words.
// Bit i of word w corresponds to square w*64+i.
type Bitboard [4]uint64

// Empty is the bitboard with no squares set.
var Empty Bitboard

// SquareBB returns a bitboard with only the given square set.
func SquareBB(sq Square) Bitboard {
	var b Bitboard
	if sq < NoSquare {
		b[sq>>6] = 1 << (sq & 63)
	}
	return b
}

// Set sets the bit at the given square.
func (b Bitboard) Set(sq Square) Bitboard {
	b[sq>>6] |= 1 << (sq & 63)
	return b
}

// Clear clears the bit at the given square.
func (b Bitboard) Clear(sq Square) Bitboard {
	b[sq>>6] &^= 1 << (sq & 63)
	return b
}

// IsSet returns true if the bit at the given square is set.
func (b Bitboard) IsSet(sq Square) bool {
	if sq >= NoSquare {
		return false
	}
	return b[sq>>6]&(1<<(sq&63)) != 0
}

// And returns the intersection of two bitboards.
func (b Bitboard) And(o Bitboard) Bitboard {
	return Bitboard{b[0] & o[0], b[1] & o[1], b[2] & o[2], b[3] & o[3]}
}

// Or returns the union of two bitboards.
func (b Bitboard) Or(o Bitboard) Bitboard {
	return Bitboard{b[0] | o[0], b[1] | o[1], b[2] | o[2], b[3] | o[3]}
}

// AndNot returns b with every square of o cleared.
func (b Bitboard) AndNot(o Bitboard) Bitboard {
	return Bitboard{b[0] &^ o[0], b[1] &^ o[1], b[2] &^ o[2], b[3] &^ o[3]}
}

// Xor returns the symmetric difference of two bitboards.
func (b Bitboard) Xor(o Bitboard) Bitboard {
	return Bitboard{b[0] ^ o[0], b[1] ^ o[1], b[2] ^ o[2], b[3] ^ o[3]}
}

// Intersects returns true if the two bitboards share a square.
func (b Bitboard) Intersects(o Bitboard) bool {
	return b[0]&o[0] != 0 || b[1]&o[1] != 0 || b[2]&o[2] != 0 || b[3]&o[3] != 0
}

// Empty returns true if no bits are set.
func (b Bitboard) Empty() bool {
	return b[0]|b[1]|b[2]|b[3] == 0
}

// More returns true if there are any bits set.
func (b Bitboard) More() bool {
	return !b.Empty()
}

// PopCount returns the number of set bits.
func (b Bitboard) PopCount() int {
	return bits.OnesCount64(b[0]) + bits.OnesCount64(b[1]) +
		bits.OnesCount64(b[2]) + bits.OnesCount64(b[3])
}

// LSB returns the lowest set square, or NoSquare when empty.
func (b Bitboard) LSB() Square {
	for w := 0; w < 4; w++ {
		if b[w] != 0 {
			return Square(w*64 + bits.TrailingZeros64(b[w]))
		}
	}
	return NoSquare
}

// PopLSB removes and returns the lowest set square.
func (b *Bitboard) PopLSB() Square {
	for w := 0; w < 4; w++ {
		if b[w] != 0 {
			sq := Square(w*64 + bits.TrailingZeros64(b[w]))
			b[w] &= b[w] - 1
			return sq
		}
	}
	return NoSquare
}

// ForEach calls the function for each set square in ascending order.
func (b Bitboard) ForEach(f func(Square)) {
	for b.More() {
		f(b.PopLSB())
	}
}

// Squares returns a slice of all squares that are set.
func (b Bitboard) Squares() []Square {
	squares := make([]Square, 0, b.PopCount())
	for b.More() {
		squares = append(squares, b.PopLSB())
	}
	return squares
}

// String returns a visual representation of the bitboard, top row first.
// Corner squares print as blanks.
func (b Bitboard) String() string {
	var sb strings.Builder
	for row := 0; row < Size; row++ {
		for col := 0; col < Size; col++ {
			sq := NewSquare(row, col)
			switch {
			case !sq.IsValid():
				sb.WriteString("  ")
			case b.IsSet(sq):
				sb.WriteString("1 ")
			default:
				sb.WriteString(". ")
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
