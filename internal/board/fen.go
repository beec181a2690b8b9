package board

import (
	"fmt"
	"strconv"
	"strings"
)

// Positions are written as six space-separated fields:
//
//	<placement> <turn> <castling> <en passant> <eliminated> <mode>
//
// Placement lists the 14 rows top to bottom separated by "/". Each row is a
// comma-separated list of piece codes ("rP", "yK") and counts of empty
// squares; corner squares count as empty. Turn is a color letter. Castling
// lists the rooks still able to castle per army ("rSL,bS,y,gL"). En passant
// is "-" or comma-separated "<skipped>:<creator>" pairs. Eliminated is "-"
// or a run of color letters. Mode is "ffa" or "teams".

// StartFEN is the starting position.
const StartFEN = "3,yR,yN,yB,yK,yQ,yB,yN,yR,3/" +
	"3,yP,yP,yP,yP,yP,yP,yP,yP,3/" +
	"14/" +
	"bR,bP,10,gP,gR/" +
	"bN,bP,10,gP,gN/" +
	"bB,bP,10,gP,gB/" +
	"bQ,bP,10,gP,gK/" +
	"bK,bP,10,gP,gQ/" +
	"bB,bP,10,gP,gB/" +
	"bN,bP,10,gP,gN/" +
	"bR,bP,10,gP,gR/" +
	"14/" +
	"3,rP,rP,rP,rP,rP,rP,rP,rP,3/" +
	"3,rR,rN,rB,rQ,rK,rB,rN,rR,3" +
	" r rSL,bSL,ySL,gSL - - ffa"

// ParseFEN parses a position string.
func ParseFEN(fen string) (*Position, error) {
	parts := strings.Fields(fen)
	if len(parts) < 2 {
		return nil, fmt.Errorf("invalid FEN: need at least 2 fields, got %d", len(parts))
	}

	pos := &Position{}
	pos.Clear()

	// Parse piece placement (field 0)
	if err := parsePiecePlacement(pos, parts[0]); err != nil {
		return nil, err
	}

	// Parse side to move (field 1)
	turn, err := ParseColor(parts[1])
	if err != nil {
		return nil, fmt.Errorf("invalid side to move: %s", parts[1])
	}
	pos.Turn = turn

	// Castling rights (field 2, optional: default all rights)
	if len(parts) > 2 {
		if err := parseCastlingRights(pos, parts[2]); err != nil {
			return nil, err
		}
	}

	// Eliminated (field 4) before en passant so creators can be checked
	if len(parts) > 4 && parts[4] != "-" {
		for _, r := range parts[4] {
			c, err := ParseColor(string(r))
			if err != nil {
				return nil, fmt.Errorf("invalid eliminated colors: %s", parts[4])
			}
			pos.Eliminated = pos.Eliminated.With(c)
		}
	}

	// En passant targets (field 3)
	if len(parts) > 3 && parts[3] != "-" {
		if err := parseEnPassant(pos, parts[3]); err != nil {
			return nil, err
		}
	}

	// Mode (field 5)
	if len(parts) > 5 {
		switch parts[5] {
		case "ffa":
		case "teams":
			pos.TeamMode = true
		default:
			return nil, fmt.Errorf("invalid mode: %s", parts[5])
		}
	}

	// Update derived state
	pos.Rebuild()
	if err := pos.Validate(); err != nil {
		return nil, err
	}
	return pos, nil
}

func parsePiecePlacement(pos *Position, placement string) error {
	rows := strings.Split(placement, "/")
	if len(rows) != Size {
		return fmt.Errorf("invalid FEN: need %d rows, got %d", Size, len(rows))
	}

	for row, text := range rows {
		col := 0
		for _, tok := range strings.Split(text, ",") {
			if n, err := strconv.Atoi(tok); err == nil {
				col += n
				continue
			}
			piece, err := ParsePiece(tok)
			if err != nil {
				return fmt.Errorf("invalid FEN row %d: %w", row, err)
			}
			sq := NewSquare(row, col)
			if !sq.IsValid() {
				return fmt.Errorf("invalid FEN row %d: piece on corner or off board at column %d", row, col)
			}
			pos.setPiece(piece, sq)
			col++
		}
		if col != Size {
			return fmt.Errorf("invalid FEN row %d: %d columns", row, col)
		}
	}
	return nil
}

func parseCastlingRights(pos *Position, s string) error {
	for _, c := range Colors {
		pos.Castling[c].RookMoved = [2]bool{true, true}
	}
	if s == "-" {
		return nil
	}
	for _, part := range strings.Split(s, ",") {
		if part == "" {
			continue
		}
		c, err := ParseColor(part[:1])
		if err != nil {
			return fmt.Errorf("invalid castling rights: %s", s)
		}
		for _, r := range part[1:] {
			switch r {
			case 'S':
				pos.Castling[c].RookMoved[ShortSide] = false
			case 'L':
				pos.Castling[c].RookMoved[LongSide] = false
			default:
				return fmt.Errorf("invalid castling rights: %s", s)
			}
		}
	}
	return nil
}

func parseEnPassant(pos *Position, s string) error {
	for _, part := range strings.Split(s, ",") {
		sqText, colorText, ok := strings.Cut(part, ":")
		if !ok {
			return fmt.Errorf("invalid en passant target: %s", part)
		}
		skipped, err := ParseSquare(sqText)
		if err != nil {
			return fmt.Errorf("invalid en passant target: %w", err)
		}
		creator, err := ParseColor(colorText)
		if err != nil {
			return fmt.Errorf("invalid en passant target: %w", err)
		}
		fwd := ArmyOf(creator).Forward
		pawn := skipped.Offset(fwd[0], fwd[1])
		if pawn == NoSquare {
			return fmt.Errorf("invalid en passant target: %s", part)
		}
		pos.EnPassant = append(pos.EnPassant, EnPassantTarget{Skipped: skipped, Pawn: pawn, Creator: creator})
	}
	return nil
}

// FEN returns the position string of p.
func (p *Position) FEN() string {
	var sb strings.Builder
	grid := p.Grid()
	for row := 0; row < Size; row++ {
		if row > 0 {
			sb.WriteByte('/')
		}
		var toks []string
		empty := 0
		for col := 0; col < Size; col++ {
			piece := grid[row][col]
			if piece == NoPiece {
				empty++
				continue
			}
			if empty > 0 {
				toks = append(toks, strconv.Itoa(empty))
				empty = 0
			}
			toks = append(toks, piece.String())
		}
		if empty > 0 {
			toks = append(toks, strconv.Itoa(empty))
		}
		sb.WriteString(strings.Join(toks, ","))
	}

	sb.WriteByte(' ')
	sb.WriteByte(p.Turn.Letter())

	rights := make([]string, 0, NumColors)
	for _, c := range Colors {
		s := string(c.Letter())
		if p.Castling.CanCastle(c, ShortSide) {
			s += "S"
		}
		if p.Castling.CanCastle(c, LongSide) {
			s += "L"
		}
		rights = append(rights, s)
	}
	sb.WriteString(" " + strings.Join(rights, ","))

	if len(p.EnPassant) == 0 {
		sb.WriteString(" -")
	} else {
		targets := make([]string, 0, len(p.EnPassant))
		for _, t := range p.EnPassant {
			targets = append(targets, t.Skipped.String()+":"+string(t.Creator.Letter()))
		}
		sb.WriteString(" " + strings.Join(targets, ","))
	}

	elim := ""
	for _, c := range Colors {
		if p.Eliminated.Has(c) {
			elim += string(c.Letter())
		}
	}
	if elim == "" {
		elim = "-"
	}
	sb.WriteString(" " + elim)

	if p.TeamMode {
		sb.WriteString(" teams")
	} else {
		sb.WriteString(" ffa")
	}
	return sb.String()
}
