// Package session serializes every event that can change a game through a
// single reducer goroutine. Local moves are applied optimistically and
// published; the authority's echo confirms them, a rejection rolls them
// back, and a full-state sync always wins.
package session

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/godwin-jg/QuadraChess-sub001/internal/board"
	"github.com/godwin-jg/QuadraChess-sub001/internal/game"
	"github.com/godwin-jg/QuadraChess-sub001/internal/history"
	"github.com/godwin-jg/QuadraChess-sub001/internal/movecache"
)

var (
	ErrStaleRemoteMove = errors.New("stale remote move")
	ErrUnknownMove     = errors.New("unknown move")
	ErrUnconfirmed     = errors.New("moves awaiting confirmation")
	ErrBadEvent        = errors.New("unsupported event")
)

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger. A nil logger discards output.
func WithLogger(l *zap.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.log = l
		}
	}
}

// WithPublisher sets where local actions are sent. Without one the session
// is offline: local actions are final and nothing awaits confirmation.
func WithPublisher(p Publisher) Option {
	return func(s *Session) {
		s.pub = p
	}
}

// WithCache answers legal-move queries from a shared cache.
func WithCache(c *movecache.Cache) Option {
	return func(s *Session) {
		s.cache = c
	}
}

// WithSeat restricts local moves to one army. The default, NoColor, lets
// the local player move whichever army is on turn.
func WithSeat(c board.Color) Option {
	return func(s *Session) {
		s.seat = c
	}
}

// WithClock sets the time source stamped on local actions.
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		if now != nil {
			s.now = now
		}
	}
}

// WithBuffer sets how many events may queue before Submit blocks.
func WithBuffer(n int) Option {
	return func(s *Session) {
		if n >= 0 {
			s.buffer = n
		}
	}
}

// Snapshot is the read-only picture published after every event.
type Snapshot struct {
	Live     *game.State
	Shown    *game.State // the viewed snapshot, or Live
	Index    int
	Viewing  bool
	Pending  int // local actions awaiting confirmation
	Selected board.Square
}

// token is the rollback record of one optimistic local action.
type token struct {
	env     Envelope
	before  *game.State
	histLen int
	sent    bool
}

type request struct {
	ev   Event
	done chan reply
}

type reply struct {
	ack Ack
	err error
}

// Session owns one game. Only Run mutates it; every other method reads the
// published Snapshot.
type Session struct {
	log    *zap.Logger
	pub    Publisher // nil when offline
	cache  *movecache.Cache
	seat   board.Color
	now    func() time.Time
	buffer int
	events chan request

	// Owned by the reducer.
	state    *game.State
	hist     *history.History
	tokens   []token
	selected board.Square

	snap atomic.Pointer[Snapshot]
}

// New creates a session over a copy of initial.
func New(initial *game.State, opts ...Option) *Session {
	s := &Session{
		log:      zap.NewNop(),
		seat:     board.NoColor,
		now:      time.Now,
		buffer:   16,
		state:    initial.Clone(),
		selected: board.NoSquare,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.events = make(chan request, s.buffer)
	s.hist = history.New(s.state)
	s.publish()
	return s
}

// Run reduces events until ctx ends.
func (s *Session) Run(ctx context.Context) error {
	s.log.Debug("session started", zap.Uint64("version", s.state.Version))
	defer s.log.Debug("session stopped")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case req := <-s.events:
			ack, err := s.reduce(req.ev)
			s.publish()
			req.done <- reply{ack: ack, err: err}
		}
	}
}

// Submit queues an event and waits until it has been reduced or ctx ends.
func (s *Session) Submit(ctx context.Context, ev Event) (Ack, error) {
	req := request{ev: ev, done: make(chan reply, 1)}
	select {
	case s.events <- req:
	case <-ctx.Done():
		return Ack{}, ctx.Err()
	}
	select {
	case r := <-req.done:
		return r.ack, r.err
	case <-ctx.Done():
		return Ack{}, ctx.Err()
	}
}

func (s *Session) publish() {
	live := s.state.Clone()
	idx, viewing := s.hist.Index()
	shown := live
	if viewing {
		shown = s.hist.View()
	}
	s.snap.Store(&Snapshot{
		Live:     live,
		Shown:    shown,
		Index:    idx,
		Viewing:  viewing,
		Pending:  len(s.tokens),
		Selected: s.selected,
	})
}

// Snapshot returns the latest published picture. Callers must not modify
// it.
func (s *Session) Snapshot() *Snapshot {
	return s.snap.Load()
}

// View projects the displayed snapshot at the given time.
func (s *Session) View(at time.Time) game.View {
	return s.snap.Load().Shown.View(at)
}

// LegalMoves returns the legal moves of the piece on sq in the live game.
func (s *Session) LegalMoves(sq board.Square) []board.Move {
	live := s.snap.Load().Live
	if s.cache == nil || live.Result.Over || !sq.IsValid() {
		return live.LegalMoves(sq)
	}
	return s.cache.LegalMovesFrom(&live.Position, sq)
}

// IsInCheck reports whether color's king is attacked in the live game.
func (s *Session) IsInCheck(c board.Color) bool {
	return s.snap.Load().Live.IsInCheck(c)
}

// HasAnyLegalMoves reports whether color can move in the live game.
func (s *Session) HasAnyLegalMoves(c board.Color) bool {
	live := s.snap.Load().Live
	if s.cache == nil {
		return live.HasAnyLegalMoves(c)
	}
	return len(s.cache.LegalMoves(&live.Position, c)) > 0
}
