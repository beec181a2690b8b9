package board

import "fmt"

// Color identifies one of the four armies.
type Color uint8

const (
	Red Color = iota
	Blue
	Yellow
	Green
	NoColor Color = 4
)

// NumColors is the number of armies.
const NumColors = 4

// Colors lists the armies in fixed turn rotation order.
var Colors = [NumColors]Color{Red, Blue, Yellow, Green}

// Next returns the following color in rotation order.
func (c Color) Next() Color {
	return (c + 1) % NumColors
}

// Opposite returns the color seated across the board.
func (c Color) Opposite() Color {
	return (c + 2) % NumColors
}

// Letter returns the single-letter code of the color ("r", "b", "y", "g").
func (c Color) Letter() byte {
	if c >= NoColor {
		return '-'
	}
	return "rbyg"[c]
}

// String returns the color name.
func (c Color) String() string {
	switch c {
	case Red:
		return "Red"
	case Blue:
		return "Blue"
	case Yellow:
		return "Yellow"
	case Green:
		return "Green"
	default:
		return "NoColor"
	}
}

// ParseColor accepts a color letter or name.
func ParseColor(s string) (Color, error) {
	switch s {
	case "r", "R", "red", "Red":
		return Red, nil
	case "b", "B", "blue", "Blue":
		return Blue, nil
	case "y", "Y", "yellow", "Yellow":
		return Yellow, nil
	case "g", "G", "green", "Green":
		return Green, nil
	}
	return NoColor, fmt.Errorf("invalid color: %q", s)
}

// MarshalText encodes the color as its letter.
func (c Color) MarshalText() ([]byte, error) {
	if c >= NoColor {
		return []byte{}, nil
	}
	return []byte{c.Letter()}, nil
}

// UnmarshalText decodes a color letter; the empty string is NoColor.
func (c *Color) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*c = NoColor
		return nil
	}
	parsed, err := ParseColor(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ColorSet is a small set of colors, one bit per color.
type ColorSet uint8

// Has returns true if the color is in the set.
func (s ColorSet) Has(c Color) bool {
	return c < NoColor && s&(1<<c) != 0
}

// With returns the set with the color added.
func (s ColorSet) With(c Color) ColorSet {
	return s | 1<<c
}

// Without returns the set with the color removed.
func (s ColorSet) Without(c Color) ColorSet {
	return s &^ (1 << c)
}

// Len returns the number of colors in the set.
func (s ColorSet) Len() int {
	n := 0
	for _, c := range Colors {
		if s.Has(c) {
			n++
		}
	}
	return n
}

// AllColors contains every army.
const AllColors ColorSet = 0x0F

// PieceType represents the type of a chess piece.
type PieceType uint8

const (
	Pawn PieceType = iota
	Knight
	Bishop
	Rook
	Queen
	King
	NoPieceType PieceType = 6
)

// String returns the piece type name.
func (pt PieceType) String() string {
	switch pt {
	case Pawn:
		return "Pawn"
	case Knight:
		return "Knight"
	case Bishop:
		return "Bishop"
	case Rook:
		return "Rook"
	case Queen:
		return "Queen"
	case King:
		return "King"
	default:
		return "None"
	}
}

// Char returns the upper-case letter of the piece type.
func (pt PieceType) Char() byte {
	if pt >= NoPieceType {
		return ' '
	}
	return "PNBRQK"[pt]
}

// ParsePieceType accepts a piece letter in either case.
func ParsePieceType(s string) (PieceType, error) {
	if len(s) == 1 {
		switch s[0] {
		case 'P', 'p':
			return Pawn, nil
		case 'N', 'n':
			return Knight, nil
		case 'B', 'b':
			return Bishop, nil
		case 'R', 'r':
			return Rook, nil
		case 'Q', 'q':
			return Queen, nil
		case 'K', 'k':
			return King, nil
		}
	}
	return NoPieceType, fmt.Errorf("invalid piece type: %q", s)
}

// CanPromoteTo reports whether a pawn may be promoted to the type.
func (pt PieceType) CanPromoteTo() bool {
	return pt == Knight || pt == Bishop || pt == Rook || pt == Queen
}

// PieceValue is the number of points scored for capturing a piece of each
// type. Kings only ever fall after their army is eliminated and score nothing.
var PieceValue = [7]int{1, 3, 5, 5, 9, 0, 0}

// Piece combines PieceType and Color into a single value.
// Encoded as: pieceType + color*6
type Piece uint8

// NoPiece marks an empty square.
const NoPiece Piece = NumColors * 6

// NewPiece creates a Piece from PieceType and Color.
func NewPiece(pt PieceType, c Color) Piece {
	if pt >= NoPieceType || c >= NoColor {
		return NoPiece
	}
	return Piece(pt) + Piece(c)*6
}

// Type returns the PieceType of the piece.
func (p Piece) Type() PieceType {
	if p >= NoPiece {
		return NoPieceType
	}
	return PieceType(p % 6)
}

// Color returns the Color of the piece.
func (p Piece) Color() Color {
	if p >= NoPiece {
		return NoColor
	}
	return Color(p / 6)
}

// String returns the two-letter piece code, e.g. "rP" or "gK".
func (p Piece) String() string {
	if p >= NoPiece {
		return ""
	}
	return string([]byte{p.Color().Letter(), p.Type().Char()})
}

// ParsePiece parses a two-letter piece code.
func ParsePiece(code string) (Piece, error) {
	if len(code) != 2 {
		return NoPiece, fmt.Errorf("invalid piece code: %q", code)
	}
	c, err := ParseColor(code[:1])
	if err != nil {
		return NoPiece, fmt.Errorf("invalid piece code: %q", code)
	}
	pt, err := ParsePieceType(code[1:])
	if err != nil {
		return NoPiece, fmt.Errorf("invalid piece code: %q", code)
	}
	return NewPiece(pt, c), nil
}

// Value returns the capture value of the piece.
func (p Piece) Value() int {
	return PieceValue[p.Type()]
}

// MarshalText encodes the piece as its two-letter code ("" for NoPiece).
func (p Piece) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText decodes a two-letter piece code; "" decodes to NoPiece.
func (p *Piece) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*p = NoPiece
		return nil
	}
	parsed, err := ParsePiece(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// MarshalText encodes the piece type as its letter ("" for NoPieceType).
func (pt PieceType) MarshalText() ([]byte, error) {
	if pt >= NoPieceType {
		return []byte{}, nil
	}
	return []byte{pt.Char()}, nil
}

// UnmarshalText decodes a piece letter; "" decodes to NoPieceType.
func (pt *PieceType) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*pt = NoPieceType
		return nil
	}
	parsed, err := ParsePieceType(string(text))
	if err != nil {
		return err
	}
	*pt = parsed
	return nil
}
