package session

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/godwin-jg/QuadraChess-sub001/internal/board"
	"github.com/godwin-jg/QuadraChess-sub001/internal/game"
	"github.com/godwin-jg/QuadraChess-sub001/internal/history"
)

// reduce applies one event. It runs only on the reducer goroutine.
func (s *Session) reduce(ev Event) (Ack, error) {
	switch e := ev.(type) {
	case LocalMove:
		return s.localMove(e)
	case Promote:
		return s.promote(e)
	case Resign:
		return s.resign(e)
	case RemoteMove:
		return s.remoteMove(Envelope(e))
	case Reject:
		return s.reject(e)
	case Sync:
		return s.sync(e)
	case Tick:
		return s.tick(e)
	case Select:
		return s.selectSquare(e)
	case Navigate:
		return s.navigate(e)
	case Reset:
		return s.reset(e)
	case Load:
		return s.load(e)
	case Export:
		return Ack{Line: s.hist.Snapshots()}, nil
	}
	return Ack{}, fmt.Errorf("%w: %T", ErrBadEvent, ev)
}

func (s *Session) selectSquare(e Select) (Ack, error) {
	if s.hist.IsViewing() {
		return Ack{}, history.ErrViewingHistory
	}
	if s.state.Status == game.AwaitingPromotion {
		return Ack{}, game.ErrPromotionPending
	}
	s.selected = e.Square
	return Ack{}, nil
}

// commit records the live state after a local mutation.
func (s *Session) commit() {
	if err := s.hist.Record(s.state); err != nil {
		s.log.Error("record snapshot", zap.Error(err))
	}
}

func (s *Session) send(env Envelope) {
	if s.pub == nil {
		return
	}
	if err := s.pub.Publish(env); err != nil {
		s.log.Warn("publish failed",
			zap.String("id", env.ID),
			zap.String("kind", env.Kind),
			zap.Error(err))
	}
}

func (s *Session) requestSync(reason string) {
	s.log.Info("requesting sync", zap.String("reason", reason))
	if s.pub == nil {
		return
	}
	if err := s.pub.RequestSync(); err != nil {
		s.log.Warn("sync request failed", zap.Error(err))
	}
}

// flush sends any envelope still held back for a promotion choice.
func (s *Session) flush() {
	for i := range s.tokens {
		if !s.tokens[i].sent {
			s.tokens[i].sent = true
			s.send(s.tokens[i].env)
		}
	}
}

func moveEnvelope(m board.Move, base uint64, at time.Time) Envelope {
	env := Envelope{
		ID:          uuid.NewString(),
		Kind:        KindMove,
		BaseVersion: base,
		Color:       m.Piece.Color(),
		From:        m.From,
		To:          m.To,
		PieceCode:   m.Piece.String(),
		Promotion:   m.Promotion,
		Timestamp:   at,
	}
	if m.IsEnPassant() {
		env.EnPassant = true
		target := m.To
		env.EnPassantTarget = &target
	}
	return env
}

func (s *Session) localMove(e LocalMove) (Ack, error) {
	if s.hist.IsViewing() {
		return Ack{}, history.ErrViewingHistory
	}
	at := s.now()
	before := s.state.Clone()
	histLen := s.hist.Len()

	req := game.MoveRequest{From: e.From, To: e.To, Promotion: e.Promotion, At: at}
	var (
		out game.Outcome
		err error
	)
	if s.seat == board.NoColor {
		out, err = s.state.ApplyMove(req)
	} else {
		out, err = s.state.ApplyMoveAs(s.seat, req)
	}
	if err != nil {
		s.log.Debug("local move rejected",
			zap.Stringer("from", e.From),
			zap.Stringer("to", e.To),
			zap.Error(err))
		return Ack{}, err
	}
	s.commit()
	s.selected = board.NoSquare

	ack := Ack{Outcome: out, Changed: true}
	if !out.Applied {
		// The mover flagged. Every peer observes that through its own ticks.
		s.log.Info("local move lost on time", zap.Stringer("color", before.Position.Turn))
		return ack, nil
	}

	env := moveEnvelope(out.Move, before.Version, at)
	ack.MoveID = env.ID
	if s.pub != nil {
		tok := token{env: env, before: before, histLen: histLen}
		if !out.Promotion {
			tok.sent = true
			s.send(env)
		}
		s.tokens = append(s.tokens, tok)
	}
	s.log.Debug("local move applied",
		zap.String("id", env.ID),
		zap.String("move", out.Move.String()),
		zap.Uint64("version", s.state.Version))
	return ack, nil
}

func (s *Session) promote(e Promote) (Ack, error) {
	if s.hist.IsViewing() {
		return Ack{}, history.ErrViewingHistory
	}
	if p := s.state.Pending; p != nil && s.seat != board.NoColor && p.Color != s.seat {
		return Ack{}, fmt.Errorf("%w: promotion belongs to %s", game.ErrNotYourTurn, p.Color)
	}
	at := s.now()
	out, err := s.state.ResolvePromotion(e.Piece, at)
	if err != nil {
		return Ack{}, err
	}
	s.commit()

	ack := Ack{Outcome: out, Changed: true}
	if n := len(s.tokens); n > 0 && !s.tokens[n-1].sent {
		t := &s.tokens[n-1]
		if out.Applied {
			t.env.Promotion = e.Piece
			t.env.PromotedAt = at
		}
		t.sent = true
		s.send(t.env)
		ack.MoveID = t.env.ID
	}
	return ack, nil
}

func (s *Session) resign(e Resign) (Ack, error) {
	if s.hist.IsViewing() {
		return Ack{}, history.ErrViewingHistory
	}
	if s.seat != board.NoColor && e.Color != s.seat {
		return Ack{}, fmt.Errorf("%w: cannot resign for %s", game.ErrNotYourTurn, e.Color)
	}
	at := s.now()
	before := s.state.Clone()
	histLen := s.hist.Len()
	out, err := s.state.Resign(e.Color, at)
	if err != nil {
		return Ack{}, err
	}
	s.commit()
	s.flush()

	env := Envelope{
		ID:          uuid.NewString(),
		Kind:        KindResign,
		BaseVersion: before.Version,
		Color:       e.Color,
		From:        board.NoSquare,
		To:          board.NoSquare,
		Promotion:   board.NoPieceType,
		Timestamp:   at,
	}
	if s.pub != nil {
		s.tokens = append(s.tokens, token{env: env, before: before, histLen: histLen, sent: true})
		s.send(env)
	}
	s.log.Info("resigned", zap.Stringer("color", e.Color), zap.String("id", env.ID))
	return Ack{Outcome: out, MoveID: env.ID, Changed: true}, nil
}

func (s *Session) remoteMove(env Envelope) (Ack, error) {
	if len(s.tokens) > 0 {
		if s.tokens[0].env.ID == env.ID {
			s.tokens = s.tokens[1:]
			s.log.Debug("local move confirmed", zap.String("id", env.ID))
			return Ack{MoveID: env.ID}, nil
		}
		// Someone else's action was accepted ahead of ours, so everything
		// we applied since is built on a position that no longer exists.
		s.log.Info("speculation overtaken",
			zap.String("remote", env.ID),
			zap.Int("dropped", len(s.tokens)))
		s.rollback(0)
	}

	if env.BaseVersion != s.state.Version {
		s.requestSync("stale remote move")
		return Ack{}, fmt.Errorf("%w: %s made against version %d, at %d",
			ErrStaleRemoteMove, env.ID, env.BaseVersion, s.state.Version)
	}

	next := s.state.Clone()
	out, err := applyEnvelope(next, env)
	if err != nil {
		s.requestSync("remote move rejected")
		return Ack{}, fmt.Errorf("remote %s: %w", env.ID, err)
	}
	s.state = next
	s.hist.Append(s.state)
	return Ack{Outcome: out, MoveID: env.ID, Changed: true}, nil
}

// applyEnvelope replays a remote action through the same routines local
// actions use. On error st is left in an unspecified state.
func applyEnvelope(st *game.State, env Envelope) (game.Outcome, error) {
	switch env.Kind {
	case KindResign:
		return st.Resign(env.Color, env.Timestamp)
	case KindMove, "":
	default:
		return game.Outcome{}, fmt.Errorf("%w: kind %q", ErrBadEvent, env.Kind)
	}

	if env.PieceCode != "" {
		p, err := board.ParsePiece(env.PieceCode)
		if err != nil {
			return game.Outcome{}, err
		}
		if st.Position.PieceAt(env.From) != p {
			return game.Outcome{}, fmt.Errorf("%w: %s is not on %s", game.ErrIllegalMove, env.PieceCode, env.From)
		}
	}

	out, err := st.ApplyMoveAs(env.Color, game.MoveRequest{
		From:      env.From,
		To:        env.To,
		Promotion: board.NoPieceType,
		At:        env.Timestamp,
	})
	if err != nil || !out.Applied {
		return out, err
	}
	if out.Move.IsEnPassant() != env.EnPassant {
		return game.Outcome{}, fmt.Errorf("%w: en passant flag disagrees", game.ErrIllegalMove)
	}
	if env.EnPassantTarget != nil && *env.EnPassantTarget != out.Move.To {
		return game.Outcome{}, fmt.Errorf("%w: en passant target %s", game.ErrIllegalMove, *env.EnPassantTarget)
	}
	if out.Promotion && env.Promotion.CanPromoteTo() {
		at := env.PromotedAt
		if at.IsZero() {
			at = env.Timestamp
		}
		return st.ResolvePromotion(env.Promotion, at)
	}
	return out, nil
}

func (s *Session) reject(e Reject) (Ack, error) {
	for i, t := range s.tokens {
		if t.env.ID == e.ID {
			s.log.Info("local move rejected by authority",
				zap.String("id", e.ID),
				zap.String("reason", e.Reason),
				zap.Int("dropped", len(s.tokens)-i))
			s.rollback(i)
			return Ack{MoveID: e.ID, Changed: true}, nil
		}
	}
	return Ack{}, fmt.Errorf("%w: %s", ErrUnknownMove, e.ID)
}

// rollback restores the state from before token i and forgets it and every
// later token. The selection is left alone.
func (s *Session) rollback(i int) {
	t := s.tokens[i]
	s.state = t.before
	if err := s.hist.Truncate(t.histLen); err != nil {
		s.log.Error("truncate history", zap.Error(err))
		s.hist = history.New(s.state)
	}
	s.tokens = s.tokens[:i]
}

func (s *Session) sync(e Sync) (Ack, error) {
	if e.State == nil {
		return Ack{}, fmt.Errorf("%w: empty sync", ErrBadEvent)
	}
	incoming := e.State.Clone()
	incoming.Position.Rebuild()
	if err := incoming.Position.Validate(); err != nil {
		return Ack{}, fmt.Errorf("sync: %w", err)
	}
	s.tokens = nil
	if incoming.Fingerprint() == s.state.Fingerprint() {
		return Ack{}, nil
	}
	s.state = incoming
	s.hist.Append(s.state)
	s.log.Debug("synced", zap.Uint64("version", s.state.Version))
	return Ack{Changed: true}, nil
}

func (s *Session) tick(e Tick) (Ack, error) {
	if s.state.Result.Over || !s.state.Position.IsLive(e.Color) || !s.state.Clocks.Expired(e.Color, e.Timestamp) {
		return Ack{}, nil
	}
	out, err := s.state.ApplyTimeout(e.Color, e.Timestamp)
	if err != nil {
		return Ack{}, err
	}
	s.hist.Append(s.state)
	s.log.Info("flagged", zap.Stringer("color", e.Color))
	return Ack{Outcome: out, Changed: true}, nil
}

func (s *Session) navigate(e Navigate) (Ack, error) {
	switch e.Step {
	case Back:
		return Ack{Changed: s.hist.StepBack()}, nil
	case Forward:
		return Ack{Changed: s.hist.StepForward()}, nil
	case Live:
		viewing := s.hist.IsViewing()
		s.hist.ReturnToLive()
		return Ack{Changed: viewing}, nil
	case Undo:
		if len(s.tokens) > 0 {
			return Ack{}, ErrUnconfirmed
		}
		var (
			st  *game.State
			err error
		)
		if s.hist.IsViewing() {
			st, err = s.hist.Branch()
		} else {
			st, err = s.hist.Undo()
		}
		if err != nil {
			return Ack{}, err
		}
		s.state = st
		return Ack{Changed: true}, nil
	}
	return Ack{}, fmt.Errorf("%w: navigation %d", ErrBadEvent, e.Step)
}

func (s *Session) reset(e Reset) (Ack, error) {
	pos := e.Position
	if pos == nil {
		pos = board.NewPosition()
	}
	if err := pos.Validate(); err != nil {
		return Ack{}, fmt.Errorf("reset: %w", err)
	}
	s.state = game.FromPosition(pos, e.Config, s.now())
	s.hist = history.New(s.state)
	s.tokens = nil
	s.selected = board.NoSquare
	s.log.Info("new game", zap.Bool("teams", e.Config.TeamMode))
	return Ack{Changed: true}, nil
}

func (s *Session) load(e Load) (Ack, error) {
	h, err := history.FromSnapshots(e.Line)
	if err != nil {
		return Ack{}, err
	}
	s.hist = h
	s.state = h.Live()
	s.tokens = nil
	s.selected = board.NoSquare
	return Ack{Changed: true}, nil
}
