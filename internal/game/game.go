// Package game implements the turn, elimination and scoring state machine
// of a four-player game on top of the board package.
package game

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/godwin-jg/QuadraChess-sub001/internal/board"
	"github.com/godwin-jg/QuadraChess-sub001/internal/clock"
)

// Status is the phase of a game.
type Status uint8

const (
	Active Status = iota
	AwaitingPromotion
	Checkmate
	Stalemate
	Finished
)

var statusNames = [...]string{"active", "promotion", "checkmate", "stalemate", "finished"}

func (s Status) String() string {
	if int(s) < len(statusNames) {
		return statusNames[s]
	}
	return "unknown"
}

// Terminal reports whether no further moves can be made.
func (s Status) Terminal() bool {
	return s >= Checkmate
}

// MarshalText encodes the status name.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a status name.
func (s *Status) UnmarshalText(text []byte) error {
	for i, name := range statusNames {
		if name == string(text) {
			*s = Status(i)
			return nil
		}
	}
	return fmt.Errorf("invalid status: %q", text)
}

// Cause is why an army left the game.
type Cause uint8

const (
	CauseCheckmate Cause = iota
	CauseStalemate
	CauseResign
	CauseTimeout
	CauseTeam  // partner of an eliminated team member
	CauseSetup // eliminated in the position the game started from
)

var causeNames = [...]string{"checkmate", "stalemate", "resign", "timeout", "team", "setup"}

func (c Cause) String() string {
	if int(c) < len(causeNames) {
		return causeNames[c]
	}
	return "unknown"
}

// MarshalText encodes the cause name.
func (c Cause) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText decodes a cause name.
func (c *Cause) UnmarshalText(text []byte) error {
	for i, name := range causeNames {
		if name == string(text) {
			*c = Cause(i)
			return nil
		}
	}
	return fmt.Errorf("invalid elimination cause: %q", text)
}

// Elimination records one army leaving play. By is the army credited with
// it, or NoColor.
type Elimination struct {
	Color board.Color `json:"color"`
	Cause Cause       `json:"cause"`
	By    board.Color `json:"by"`
	Ply   int         `json:"ply"`
}

// PendingPromotion is a pawn waiting for its piece type.
type PendingPromotion struct {
	Square board.Square `json:"square"`
	Color  board.Color  `json:"color"`
}

// Result describes the end of a game. Winner is NoColor and WinningTeam -1
// when they do not apply.
type Result struct {
	Over        bool        `json:"over"`
	Winner      board.Color `json:"winner"`
	WinningTeam int         `json:"winningTeam"`
	Cause       Cause       `json:"cause"`
}

// Description is a human-readable summary of the result.
func (r Result) Description() string {
	switch {
	case !r.Over:
		return "in progress"
	case r.WinningTeam >= 0:
		return fmt.Sprintf("team %s wins (%s)", teamName(r.WinningTeam), r.Cause)
	case r.Winner != board.NoColor:
		return fmt.Sprintf("%s wins (%s)", r.Winner, r.Cause)
	default:
		return fmt.Sprintf("no winner (%s)", r.Cause)
	}
}

func teamName(team int) string {
	if team == 0 {
		return "Red/Yellow"
	}
	return "Blue/Green"
}

// Config selects the variant options of a new game.
type Config struct {
	TeamMode bool          `json:"teamMode"`
	Clock    clock.Control `json:"clock"`
}

// State is the complete authoritative game state. It holds no history;
// snapshots of it are kept by the history package.
type State struct {
	Position     board.Position       `json:"position"`
	Status       Status               `json:"status"`
	Pending      *PendingPromotion    `json:"pending,omitempty"`
	Eliminations []Elimination        `json:"eliminations"`
	Scores       [board.NumColors]int `json:"scores"`
	Clocks       clock.Clocks         `json:"clocks"`
	LastMove     *board.Move          `json:"lastMove,omitempty"`
	Result       Result               `json:"result"`
	// Version counts accepted mutations. Remote moves name the version they
	// were made against.
	Version uint64 `json:"version"`
}

// New starts a game from the standard position. A non-zero at starts Red's
// clock.
func New(cfg Config, at time.Time) *State {
	return FromPosition(board.NewPosition(), cfg, at)
}

// FromPosition starts a game from an arbitrary position. Armies already
// marked eliminated in the position are recorded with CauseSetup.
func FromPosition(pos *board.Position, cfg Config, at time.Time) *State {
	s := &State{
		Position: *pos.Copy(),
		Status:   Active,
		Clocks:   clock.New(cfg.Clock),
		Result:   Result{Winner: board.NoColor, WinningTeam: -1},
	}
	s.Position.SetTeamMode(cfg.TeamMode || pos.TeamMode)
	for _, c := range board.Colors {
		if pos.Eliminated.Has(c) {
			s.Eliminations = append(s.Eliminations, Elimination{Color: c, Cause: CauseSetup, By: board.NoColor})
		}
	}
	if len(s.Eliminations) > 0 {
		s.settle(CauseSetup)
	}
	switch {
	case s.Result.Over:
	case !s.Position.IsLive(s.Position.Turn):
		s.advanceFrom(s.Position.Turn, board.NoColor, at)
	default:
		s.Clocks.Start(s.Position.Turn, at)
	}
	return s
}

// Clone returns a deep copy of the state.
func (s *State) Clone() *State {
	c := *s
	c.Position = *s.Position.Copy()
	if s.Pending != nil {
		p := *s.Pending
		c.Pending = &p
	}
	if s.LastMove != nil {
		m := *s.LastMove
		c.LastMove = &m
	}
	c.Eliminations = append([]Elimination(nil), s.Eliminations...)
	return &c
}

// UnmarshalJSON decodes a state and rebuilds the derived board fields.
func (s *State) UnmarshalJSON(data []byte) error {
	type plain State
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	p.Position.Rebuild()
	if err := p.Position.Validate(); err != nil {
		return fmt.Errorf("decode state: %w", err)
	}
	*s = State(p)
	return nil
}

// Active returns the color to move, or NoColor once the game is over.
func (s *State) Active() board.Color {
	if s.Result.Over {
		return board.NoColor
	}
	return s.Position.Turn
}

// TeamMode reports whether the game is played in teams.
func (s *State) TeamMode() bool {
	return s.Position.TeamMode
}

// EliminatedColors lists the eliminated armies in elimination order.
func (s *State) EliminatedColors() []board.Color {
	out := make([]board.Color, 0, len(s.Eliminations))
	for _, e := range s.Eliminations {
		out = append(out, e.Color)
	}
	return out
}

// LegalMoves returns the legal moves of the piece on sq. It is empty once
// the game is over.
func (s *State) LegalMoves(sq board.Square) []board.Move {
	if s.Result.Over || !sq.IsValid() {
		return nil
	}
	return s.Position.LegalMovesFrom(sq).Slice()
}

// IsInCheck reports whether the color's king is attacked.
func (s *State) IsInCheck(c board.Color) bool {
	return s.Position.IsInCheck(c)
}

// HasAnyLegalMoves reports whether the color can move at all.
func (s *State) HasAnyLegalMoves(c board.Color) bool {
	return s.Position.HasAnyLegalMoves(c)
}
