// Package board implements the four-player chess board using 196-bit bitboards.
package board

import (
	"fmt"
	"strconv"
)

// Board dimensions.
const (
	Size       = 14
	NumSquares = Size * Size
	cornerSize = 3
)

// Square represents a square on the 14x14 board (0-195).
// Index is row*14 + col; row 0 is the top (Yellow's back rank), row 13 the
// bottom (Red's back rank).
type Square uint8

// NoSquare marks an absent square.
const NoSquare Square = NumSquares

// NewSquare creates a square from row and column (0-indexed).
// Off-board coordinates yield NoSquare.
func NewSquare(row, col int) Square {
	if row < 0 || row >= Size || col < 0 || col >= Size {
		return NoSquare
	}
	return Square(row*Size + col)
}

// Row returns the row of the square (0-13, top to bottom).
func (sq Square) Row() int {
	return int(sq) / Size
}

// Col returns the column of the square (0-13, left to right).
func (sq Square) Col() int {
	return int(sq) % Size
}

// IsValid returns true if the square is on the board and outside the
// four 3x3 corner regions.
func (sq Square) IsValid() bool {
	if sq >= NoSquare {
		return false
	}
	return !inCorner(sq.Row(), sq.Col())
}

func inCorner(row, col int) bool {
	edgeRow := row < cornerSize || row >= Size-cornerSize
	edgeCol := col < cornerSize || col >= Size-cornerSize
	return edgeRow && edgeCol
}

// Offset returns the square dr rows and dc columns away, or NoSquare when
// that falls off the board or into a corner.
func (sq Square) Offset(dr, dc int) Square {
	if sq >= NoSquare {
		return NoSquare
	}
	to := NewSquare(sq.Row()+dr, sq.Col()+dc)
	if !to.IsValid() {
		return NoSquare
	}
	return to
}

// String returns the algebraic name of the square: file a-n for columns
// 0-13 and rank 1-14 counted from the bottom row (e.g. "d1" is row 13, col 3).
func (sq Square) String() string {
	if sq >= NoSquare {
		return "-"
	}
	return fmt.Sprintf("%c%d", 'a'+sq.Col(), Size-sq.Row())
}

// ParseSquare parses algebraic notation (e.g. "h2", "k14") into a Square.
func ParseSquare(s string) (Square, error) {
	if len(s) < 2 || len(s) > 3 {
		return NoSquare, fmt.Errorf("invalid square: %s", s)
	}

	col := int(s[0] - 'a')
	rank, err := strconv.Atoi(s[1:])
	if err != nil || col < 0 || col >= Size || rank < 1 || rank > Size {
		return NoSquare, fmt.Errorf("invalid square: %s", s)
	}

	sq := NewSquare(Size-rank, col)
	if !sq.IsValid() {
		return NoSquare, fmt.Errorf("corner square: %s", s)
	}
	return sq, nil
}

// ValidSquares is the mask of all playable squares.
var ValidSquares = validSquares()

func validSquares() Bitboard {
	var bb Bitboard
	for sq := Square(0); sq < NoSquare; sq++ {
		if sq.IsValid() {
			bb = bb.Set(sq)
		}
	}
	return bb
}

// MarshalText encodes the square in algebraic notation ("-" for NoSquare).
func (sq Square) MarshalText() ([]byte, error) {
	return []byte(sq.String()), nil
}

// UnmarshalText decodes algebraic notation; "-" and "" decode to NoSquare.
func (sq *Square) UnmarshalText(text []byte) error {
	if len(text) == 0 || string(text) == "-" {
		*sq = NoSquare
		return nil
	}
	parsed, err := ParseSquare(string(text))
	if err != nil {
		return err
	}
	*sq = parsed
	return nil
}
