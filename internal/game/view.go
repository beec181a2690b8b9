package game

import (
	"encoding/binary"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/godwin-jg/QuadraChess-sub001/internal/board"
)

// View is the observable projection of a state handed to renderers and
// remote peers. Board cells hold two-letter piece codes, "" for empty
// squares and "x" for corner squares.
type View struct {
	Board      [board.Size][board.Size]string `json:"board"`
	Status     Status                         `json:"status"`
	Active     board.Color                    `json:"active"`
	Eliminated []board.Color                  `json:"eliminated"`
	Check      [board.NumColors]bool          `json:"check"`
	Scores     [board.NumColors]int           `json:"scores"`
	Clocks     [board.NumColors]time.Duration `json:"clocks"`
	Pending    *PendingPromotion              `json:"pending,omitempty"`
	LastMove   string                         `json:"lastMove,omitempty"`
	TeamMode   bool                           `json:"teamMode"`
	GameOver   Result                         `json:"gameOver"`
	Version    uint64                         `json:"version"`
}

// CornerCell marks unplayable squares in a View board.
const CornerCell = "x"

// View builds the observable projection at the given time.
func (s *State) View(at time.Time) View {
	v := View{
		Status:     s.Status,
		Active:     s.Active(),
		Eliminated: s.EliminatedColors(),
		Scores:     s.Scores,
		Clocks:     s.Clocks.Snapshot(at),
		TeamMode:   s.Position.TeamMode,
		GameOver:   s.Result,
		Version:    s.Version,
	}
	grid := s.Position.Grid()
	for row := 0; row < board.Size; row++ {
		for col := 0; col < board.Size; col++ {
			if !board.NewSquare(row, col).IsValid() {
				v.Board[row][col] = CornerCell
				continue
			}
			v.Board[row][col] = grid[row][col].String()
		}
	}
	for _, c := range board.Colors {
		v.Check[c] = s.Position.IsInCheck(c)
	}
	if s.Pending != nil {
		p := *s.Pending
		v.Pending = &p
	}
	if s.LastMove != nil {
		v.LastMove = s.LastMove.String()
	}
	return v
}

// Fingerprint hashes every observable field of the state. Two states with
// the same fingerprint render identically; the session uses it to detect
// authoritative syncs that change nothing.
func (s *State) Fingerprint() uint64 {
	d := xxhash.New()
	var buf [8]byte
	putInt := func(v int64) {
		binary.LittleEndian.PutUint64(buf[:], uint64(v))
		_, _ = d.Write(buf[:])
	}

	_, _ = d.WriteString(s.Position.FEN())
	putInt(int64(s.Status))
	if s.Pending != nil {
		putInt(int64(s.Pending.Square))
		putInt(int64(s.Pending.Color))
	} else {
		putInt(-1)
	}
	for _, e := range s.Eliminations {
		putInt(int64(e.Color))
		putInt(int64(e.Cause))
	}
	for _, c := range board.Colors {
		putInt(int64(s.Scores[c]))
		putInt(int64(s.Clocks.Remaining[c]))
	}
	putInt(int64(s.Clocks.Running))
	if !s.Clocks.TurnStart.IsZero() {
		putInt(s.Clocks.TurnStart.UnixNano())
	}
	if s.Result.Over {
		putInt(int64(s.Result.Winner))
		putInt(int64(s.Result.WinningTeam))
		putInt(int64(s.Result.Cause))
	}
	putInt(int64(s.Version))
	return d.Sum64()
}
