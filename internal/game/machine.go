package game

import (
	"fmt"
	"time"

	"github.com/godwin-jg/QuadraChess-sub001/internal/board"
)

// Points awarded at elimination.
const (
	CheckmateBonus = 20
	StalematePool  = 20
)

// MoveRequest asks for the piece on From to move to To. Promotion is the
// piece type for a promoting pawn; Pawn (the zero value) and NoPieceType
// both mean no choice yet. At is the moment of the request and drives the
// clocks; a zero At charges no time.
type MoveRequest struct {
	From      board.Square    `json:"from"`
	To        board.Square    `json:"to"`
	Promotion board.PieceType `json:"promotion"`
	At        time.Time       `json:"at"`
}

// Outcome reports what a mutation did. Applied is false when a timeout
// eliminated the mover instead of the move being played.
type Outcome struct {
	Move         board.Move    `json:"move"`
	Applied      bool          `json:"applied"`
	Promotion    bool          `json:"promotion"`
	Eliminations []Elimination `json:"eliminations,omitempty"`
	Result       Result        `json:"result"`
}

func promotionChoice(pt board.PieceType) (board.PieceType, error) {
	switch {
	case pt == board.Pawn || pt == board.NoPieceType:
		return board.NoPieceType, nil
	case pt.CanPromoteTo():
		return pt, nil
	}
	return board.NoPieceType, fmt.Errorf("%w: %s", ErrInvalidPromotion, pt)
}

// ApplyMove validates and plays a move for the color to move. On rejection
// the state is unchanged. If the mover's clock has run out the mover is
// eliminated by timeout instead and the move is not played.
func (s *State) ApplyMove(req MoveRequest) (Outcome, error) {
	if s.Result.Over {
		return Outcome{}, ErrGameOver
	}
	if s.Status == AwaitingPromotion {
		return Outcome{}, ErrPromotionPending
	}
	mover := s.Position.Turn
	if s.Clocks.Expired(mover, req.At) {
		return s.timeout(mover, req.At), nil
	}

	promo, err := promotionChoice(req.Promotion)
	if err != nil {
		return Outcome{}, err
	}
	piece := s.Position.PieceAt(req.From)
	if piece == board.NoPiece {
		return Outcome{}, fmt.Errorf("%w: %s", ErrNoPiece, req.From)
	}
	if piece.Color() != mover {
		return Outcome{}, fmt.Errorf("%w: %s to move, piece on %s is %s", ErrNotYourTurn, mover, req.From, piece.Color())
	}

	m, ok := s.Position.LegalMovesFrom(req.From).Find(req.From, req.To)
	if !ok {
		return Outcome{}, fmt.Errorf("%w: %s-%s (%s)", ErrIllegalMove, req.From, req.To, s.illegalReason(req.From, req.To))
	}
	if promo != board.NoPieceType && !m.IsPromotion() {
		return Outcome{}, fmt.Errorf("%w: %s is not a promotion", ErrInvalidPromotion, m)
	}
	m.Promotion = promo
	return s.apply(m, req.At), nil
}

// ApplyMoveAs is ApplyMove for a caller that claims to play color c.
func (s *State) ApplyMoveAs(c board.Color, req MoveRequest) (Outcome, error) {
	if !s.Result.Over && c != s.Position.Turn {
		return Outcome{}, fmt.Errorf("%w: %s to move, not %s", ErrNotYourTurn, s.Position.Turn, c)
	}
	return s.ApplyMove(req)
}

// illegalReason works out why from-to is not a legal move.
func (s *State) illegalReason(from, to board.Square) IllegalReason {
	piece := s.Position.PieceAt(from)
	if piece == board.NoPiece {
		return ReasonUnknown
	}
	if s.Position.Friendly(piece.Color()).IsSet(to) {
		return ReasonBlockedByOwnPiece
	}
	if _, ok := s.Position.PseudoLegalMovesFrom(from).Find(from, to); ok {
		return ReasonWouldLeaveKingInCheck
	}
	return ReasonInvalidPieceMovement
}

func (s *State) apply(m board.Move, at time.Time) Outcome {
	mover := m.Piece.Color()
	s.Clocks.Charge(at)
	s.Position.MakeMove(m)
	if m.IsCapture() {
		s.Scores[mover] += m.Captured.Value()
	}
	last := m
	s.LastMove = &last
	s.Version++

	out := Outcome{Move: m, Applied: true}
	if m.IsPromotion() && !m.Promotion.CanPromoteTo() {
		s.Status = AwaitingPromotion
		s.Pending = &PendingPromotion{Square: m.To, Color: mover}
		out.Promotion = true
		out.Result = s.Result
		return out
	}
	out.Eliminations = s.completeMove(mover, at)
	out.Result = s.Result
	return out
}

// ResolvePromotion supplies the piece type for the pending promotion and
// completes the move.
func (s *State) ResolvePromotion(pt board.PieceType, at time.Time) (Outcome, error) {
	if s.Result.Over {
		return Outcome{}, ErrGameOver
	}
	if s.Status != AwaitingPromotion || s.Pending == nil {
		return Outcome{}, ErrNoPromotion
	}
	if !pt.CanPromoteTo() {
		return Outcome{}, fmt.Errorf("%w: %s", ErrInvalidPromotion, pt)
	}

	mover := s.Pending.Color
	if s.Clocks.Expired(mover, at) {
		return s.timeout(mover, at), nil
	}
	s.Clocks.Charge(at)
	s.Position.Promote(s.Pending.Square, pt)
	if s.LastMove != nil {
		s.LastMove.Promotion = pt
	}
	s.Version++

	out := Outcome{Applied: true}
	if s.LastMove != nil {
		out.Move = *s.LastMove
	}
	out.Eliminations = s.completeMove(mover, at)
	out.Result = s.Result
	return out, nil
}

// Resign eliminates color c. Any army may resign at any time, on its turn
// or not.
func (s *State) Resign(c board.Color, at time.Time) (Outcome, error) {
	if s.Result.Over {
		return Outcome{}, ErrGameOver
	}
	if !s.Position.IsLive(c) {
		return Outcome{}, fmt.Errorf("%w: %s", ErrEliminated, c)
	}
	return s.leave(c, CauseResign, at), nil
}

// ApplyTimeout eliminates color c if its clock has run out at the given
// time. A clock with time left is not an error; nothing happens.
func (s *State) ApplyTimeout(c board.Color, at time.Time) (Outcome, error) {
	if s.Result.Over {
		return Outcome{}, ErrGameOver
	}
	if !s.Position.IsLive(c) {
		return Outcome{}, fmt.Errorf("%w: %s", ErrEliminated, c)
	}
	if !s.Clocks.Expired(c, at) {
		return Outcome{Result: s.Result}, nil
	}
	return s.timeout(c, at), nil
}

func (s *State) timeout(c board.Color, at time.Time) Outcome {
	return s.leave(c, CauseTimeout, at)
}

// leave removes an army for a reason other than being unable to move, then
// passes the turn on if it was that army's turn.
func (s *State) leave(c board.Color, cause Cause, at time.Time) Outcome {
	if s.Pending != nil && s.Pending.Color == c {
		s.Pending = nil
		s.Status = Active
	}
	onTurn := c == s.Position.Turn
	if onTurn {
		s.Clocks.Charge(at)
	}
	out := Outcome{Eliminations: s.eliminate(c, cause, board.NoColor)}
	s.Version++
	if onTurn && !s.Result.Over {
		out.Eliminations = append(out.Eliminations, s.advanceFrom(c, s.lastMover(), at)...)
	}
	out.Result = s.Result
	return out
}

func (s *State) lastMover() board.Color {
	if s.LastMove == nil {
		return board.NoColor
	}
	return s.LastMove.Piece.Color()
}

// completeMove finishes a move: increment, the elimination scan over the
// other armies and turn rotation.
func (s *State) completeMove(mover board.Color, at time.Time) []Elimination {
	s.Status = Active
	s.Pending = nil
	s.Clocks.AddIncrement(mover)

	var out []Elimination
	for c := mover.Next(); c != mover; c = c.Next() {
		if !s.Position.IsLive(c) || s.Position.HasAnyLegalMoves(c) {
			continue
		}
		// Only the first army found without a move goes out.
		out = append(out, s.eliminateStuck(c, mover)...)
		break
	}
	if !s.Result.Over {
		out = append(out, s.advanceFrom(mover, mover, at)...)
	}
	return out
}

// advanceFrom passes the turn to the next live army after from. Every slot
// reached or skipped expires that army's en passant targets. An army that
// cannot move when its turn starts is eliminated, credited to by, and the
// rotation continues.
func (s *State) advanceFrom(from, by board.Color, at time.Time) []Elimination {
	var out []Elimination
	c := from
	for i := 0; i < 3*board.NumColors && !s.Result.Over; i++ {
		c = c.Next()
		s.Position.ExpireEnPassant(c)
		if !s.Position.IsLive(c) {
			continue
		}
		s.Position.SetTurn(c)
		if s.Position.HasAnyLegalMoves(c) {
			s.Clocks.Start(c, at)
			return out
		}
		out = append(out, s.eliminateStuck(c, by)...)
	}
	return out
}

// eliminateStuck eliminates an army with no legal move: checkmate when its
// king is attacked, otherwise stalemate.
func (s *State) eliminateStuck(c, by board.Color) []Elimination {
	if s.Position.IsInCheck(c) {
		if by < board.NoColor {
			s.Scores[by] += CheckmateBonus
		}
		return s.eliminate(c, CauseCheckmate, by)
	}

	recs := s.eliminate(c, CauseStalemate, by)
	live := s.Position.LiveColors()
	if n := live.Len(); n > 0 {
		share := StalematePool / n
		for _, o := range board.Colors {
			if live.Has(o) {
				s.Scores[o] += share
			}
		}
	}
	return recs
}

// eliminate removes c from play and, in team mode, its partner with it,
// then settles the game if it is over.
func (s *State) eliminate(c board.Color, cause Cause, by board.Color) []Elimination {
	recs := []Elimination{s.record(c, cause, by)}
	if s.Position.TeamMode {
		if mate := board.Teammate(c); s.Position.IsLive(mate) {
			recs = append(recs, s.record(mate, CauseTeam, by))
		}
	}
	s.settle(cause)
	return recs
}

func (s *State) record(c board.Color, cause Cause, by board.Color) Elimination {
	s.Position.Eliminate(c)
	e := Elimination{Color: c, Cause: cause, By: by, Ply: s.Position.Ply}
	s.Eliminations = append(s.Eliminations, e)
	return e
}

// settle ends the game when one army (or one team) is left standing.
func (s *State) settle(cause Cause) {
	live := s.Position.LiveColors()
	result := Result{Winner: board.NoColor, WinningTeam: -1, Cause: cause}

	if s.Position.TeamMode {
		var alive [2]bool
		for _, c := range board.Colors {
			if live.Has(c) {
				alive[board.Team(c)] = true
			}
		}
		switch {
		case alive[0] && alive[1]:
			return
		case alive[0]:
			result.WinningTeam = 0
		case alive[1]:
			result.WinningTeam = 1
		}
	} else {
		if live.Len() > 1 {
			return
		}
		for _, c := range board.Colors {
			if live.Has(c) {
				result.Winner = c
			}
		}
	}

	result.Over = true
	s.Result = result
	s.Pending = nil
	s.Clocks.Stop()
	switch cause {
	case CauseCheckmate:
		s.Status = Checkmate
	case CauseStalemate:
		s.Status = Stalemate
	default:
		s.Status = Finished
	}
}
