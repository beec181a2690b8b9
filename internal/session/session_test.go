package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/godwin-jg/QuadraChess-sub001/internal/board"
	"github.com/godwin-jg/QuadraChess-sub001/internal/clock"
	"github.com/godwin-jg/QuadraChess-sub001/internal/game"
	"github.com/godwin-jg/QuadraChess-sub001/internal/history"
	"github.com/godwin-jg/QuadraChess-sub001/internal/movecache"
)

type recorder struct {
	mu    sync.Mutex
	sent  []Envelope
	syncs int
}

func (r *recorder) Publish(env Envelope) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, env)
	return nil
}

func (r *recorder) RequestSync() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.syncs++
	return nil
}

func (r *recorder) last(t *testing.T) Envelope {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	require.NotEmpty(t, r.sent)
	return r.sent[len(r.sent)-1]
}

func zeroTime() time.Time { return time.Time{} }

// start runs a session until the test ends.
func start(t *testing.T, initial *game.State, opts ...Option) *Session {
	t.Helper()
	opts = append([]Option{WithClock(zeroTime)}, opts...)
	s := New(initial, opts...)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = s.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return s
}

func submit(t *testing.T, s *Session, ev Event) (Ack, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.Submit(ctx, ev)
}

func sq(t *testing.T, name string) board.Square {
	t.Helper()
	s, err := board.ParseSquare(name)
	require.NoError(t, err)
	return s
}

func local(t *testing.T, from, to string) LocalMove {
	t.Helper()
	return LocalMove{From: sq(t, from), To: sq(t, to), Promotion: board.NoPieceType}
}

func position(t *testing.T, pieces map[string]string) *board.Position {
	t.Helper()
	pos := &board.Position{}
	pos.Clear()
	all := map[string]string{"h1": "rK", "a7": "bK", "g14": "yK", "n8": "gK"}
	for name, code := range pieces {
		all[name] = code
	}
	for name, code := range all {
		piece, err := board.ParsePiece(code)
		require.NoError(t, err)
		require.NoError(t, pos.Put(piece, sq(t, name)))
	}
	return pos
}

func TestLocalMoveConfirmedByEcho(t *testing.T) {
	pub := &recorder{}
	s := start(t, game.New(game.Config{}, time.Time{}), WithPublisher(pub))

	ack, err := submit(t, s, local(t, "h2", "h4"))
	require.NoError(t, err)
	require.True(t, ack.Changed)
	require.NotEmpty(t, ack.MoveID)

	env := pub.last(t)
	assert.Equal(t, ack.MoveID, env.ID)
	assert.Equal(t, KindMove, env.Kind)
	assert.Equal(t, uint64(0), env.BaseVersion)
	assert.Equal(t, "rP", env.PieceCode)
	assert.Equal(t, board.Red, env.Color)
	assert.Equal(t, 1, s.Snapshot().Pending)

	before := s.Snapshot().Live.Fingerprint()
	ack, err = submit(t, s, RemoteMove(env))
	require.NoError(t, err)
	assert.False(t, ack.Changed)
	assert.Equal(t, 0, s.Snapshot().Pending)
	assert.Equal(t, before, s.Snapshot().Live.Fingerprint())
}

func TestRejectionRestoresAndKeepsSelection(t *testing.T) {
	pub := &recorder{}
	s := start(t, game.New(game.Config{}, time.Time{}), WithPublisher(pub))

	first, err := submit(t, s, local(t, "h2", "h4"))
	require.NoError(t, err)
	_, err = submit(t, s, local(t, "b5", "c5"))
	require.NoError(t, err)
	_, err = submit(t, s, Select{Square: sq(t, "e13")})
	require.NoError(t, err)
	require.Equal(t, 2, s.Snapshot().Pending)

	_, err = submit(t, s, Reject{ID: first.MoveID, Reason: "out of sync"})
	require.NoError(t, err)

	snap := s.Snapshot()
	assert.Equal(t, board.StartFEN, snap.Live.Position.FEN())
	assert.Equal(t, 0, snap.Pending)
	assert.Equal(t, sq(t, "e13"), snap.Selected)
	assert.Equal(t, 0, snap.Index)

	_, err = submit(t, s, Reject{ID: first.MoveID})
	assert.ErrorIs(t, err, ErrUnknownMove)
}

func TestRemoteMoveReplaysIdentically(t *testing.T) {
	pubA := &recorder{}
	a := start(t, game.New(game.Config{}, time.Time{}), WithPublisher(pubA))
	b := start(t, game.New(game.Config{}, time.Time{}), WithPublisher(&recorder{}))

	_, err := submit(t, a, local(t, "h2", "h4"))
	require.NoError(t, err)

	ack, err := submit(t, b, RemoteMove(pubA.last(t)))
	require.NoError(t, err)
	require.True(t, ack.Outcome.Applied)

	assert.Equal(t, a.Snapshot().Live.Fingerprint(), b.Snapshot().Live.Fingerprint())
	assert.Equal(t, board.Blue, b.Snapshot().Live.Active())
}

func TestStaleRemoteMoveRequestsSync(t *testing.T) {
	pub := &recorder{}
	s := start(t, game.New(game.Config{}, time.Time{}), WithPublisher(pub))

	env := Envelope{
		ID:          "remote-1",
		Kind:        KindMove,
		BaseVersion: 7,
		Color:       board.Red,
		From:        sq(t, "h2"),
		To:          sq(t, "h4"),
		Promotion:   board.NoPieceType,
	}
	_, err := submit(t, s, RemoteMove(env))
	require.ErrorIs(t, err, ErrStaleRemoteMove)
	assert.Equal(t, 1, pub.syncs)
	assert.Equal(t, board.StartFEN, s.Snapshot().Live.Position.FEN())
}

func TestRemoteMoveValidation(t *testing.T) {
	pub := &recorder{}
	s := start(t, game.New(game.Config{}, time.Time{}), WithPublisher(pub))

	tests := []struct {
		name string
		env  Envelope
		want error
	}{
		{
			name: "wrong piece code",
			env:  Envelope{ID: "x1", Color: board.Red, From: sq(t, "h2"), To: sq(t, "h4"), PieceCode: "rN"},
			want: game.ErrIllegalMove,
		},
		{
			name: "not on turn",
			env:  Envelope{ID: "x2", Color: board.Blue, From: sq(t, "b5"), To: sq(t, "c5")},
			want: game.ErrNotYourTurn,
		},
		{
			name: "bogus en passant",
			env:  Envelope{ID: "x3", Color: board.Red, From: sq(t, "h2"), To: sq(t, "h4"), EnPassant: true},
			want: game.ErrIllegalMove,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := submit(t, s, RemoteMove(tt.env))
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, board.StartFEN, s.Snapshot().Live.Position.FEN())
		})
	}
	assert.Equal(t, len(tests), pub.syncs)
}

func TestForeignMoveOvertakesSpeculation(t *testing.T) {
	pub := &recorder{}
	s := start(t, game.New(game.Config{}, time.Time{}), WithPublisher(pub))

	_, err := submit(t, s, local(t, "h2", "h4"))
	require.NoError(t, err)

	// The authority accepted a different red move first.
	env := Envelope{
		ID:        "authority-1",
		Kind:      KindMove,
		Color:     board.Red,
		From:      sq(t, "e2"),
		To:        sq(t, "e3"),
		PieceCode: "rP",
		Promotion: board.NoPieceType,
	}
	_, err = submit(t, s, RemoteMove(env))
	require.NoError(t, err)

	live := s.Snapshot().Live
	assert.Equal(t, 0, s.Snapshot().Pending)
	assert.Equal(t, board.NewPiece(board.Pawn, board.Red), live.Position.PieceAt(sq(t, "e3")))
	assert.Equal(t, board.NewPiece(board.Pawn, board.Red), live.Position.PieceAt(sq(t, "h2")))
	assert.Equal(t, board.Blue, live.Active())
}

func TestPromotionEnvelopeWaitsForChoice(t *testing.T) {
	pos := position(t, map[string]string{"e7": "rP"})
	pubA := &recorder{}
	a := start(t, game.FromPosition(pos, game.Config{}, time.Time{}), WithPublisher(pubA))
	b := start(t, game.FromPosition(pos, game.Config{}, time.Time{}), WithPublisher(&recorder{}))

	ack, err := submit(t, a, local(t, "e7", "e8"))
	require.NoError(t, err)
	require.True(t, ack.Outcome.Promotion)
	assert.Empty(t, pubA.sent, "promoting move must wait for its piece")

	_, err = submit(t, a, local(t, "h1", "h2"))
	assert.ErrorIs(t, err, game.ErrPromotionPending)
	_, err = submit(t, a, Select{Square: sq(t, "h1")})
	assert.ErrorIs(t, err, game.ErrPromotionPending)
	assert.NotEqual(t, sq(t, "h1"), a.Snapshot().Selected)

	ack, err = submit(t, a, Promote{Piece: board.Queen})
	require.NoError(t, err)
	env := pubA.last(t)
	assert.Equal(t, ack.MoveID, env.ID)
	assert.Equal(t, board.Queen, env.Promotion)

	_, err = submit(t, b, RemoteMove(env))
	require.NoError(t, err)
	assert.Equal(t, a.Snapshot().Live.Fingerprint(), b.Snapshot().Live.Fingerprint())
	assert.Equal(t, board.NewPiece(board.Queen, board.Red), b.Snapshot().Live.Position.PieceAt(sq(t, "e8")))
}

func TestSyncIsIdempotent(t *testing.T) {
	pub := &recorder{}
	s := start(t, game.New(game.Config{}, time.Time{}), WithPublisher(pub))

	_, err := submit(t, s, Select{Square: sq(t, "h2")})
	require.NoError(t, err)

	ack, err := submit(t, s, Sync{State: game.New(game.Config{}, time.Time{})})
	require.NoError(t, err)
	assert.False(t, ack.Changed)

	authority := game.New(game.Config{}, time.Time{})
	_, err = authority.ApplyMove(game.MoveRequest{From: sq(t, "h2"), To: sq(t, "h3"), Promotion: board.NoPieceType})
	require.NoError(t, err)

	_, err = submit(t, s, local(t, "e2", "e4"))
	require.NoError(t, err)
	_, err = submit(t, s, Select{Square: sq(t, "b5")})
	require.NoError(t, err)

	ack, err = submit(t, s, Sync{State: authority})
	require.NoError(t, err)
	assert.True(t, ack.Changed)
	assert.Equal(t, authority.Fingerprint(), s.Snapshot().Live.Fingerprint())
	assert.Equal(t, 0, s.Snapshot().Pending)
	assert.Equal(t, sq(t, "b5"), s.Snapshot().Selected)

	length := s.Snapshot().Index
	ack, err = submit(t, s, Sync{State: authority})
	require.NoError(t, err)
	assert.False(t, ack.Changed)
	assert.Equal(t, length, s.Snapshot().Index)
}

func TestViewingBlocksLocalMutations(t *testing.T) {
	s := start(t, game.New(game.Config{}, time.Time{}))

	_, err := submit(t, s, local(t, "h2", "h4"))
	require.NoError(t, err)
	_, err = submit(t, s, Navigate{Step: Back})
	require.NoError(t, err)
	require.True(t, s.Snapshot().Viewing)
	assert.Equal(t, board.StartFEN, s.Snapshot().Shown.Position.FEN())

	_, err = submit(t, s, local(t, "b5", "c5"))
	assert.ErrorIs(t, err, history.ErrViewingHistory)
	_, err = submit(t, s, Resign{Color: board.Blue})
	assert.ErrorIs(t, err, history.ErrViewingHistory)
	_, err = submit(t, s, Select{Square: sq(t, "b5")})
	assert.ErrorIs(t, err, history.ErrViewingHistory)
	assert.NotEqual(t, sq(t, "b5"), s.Snapshot().Selected)

	// Authoritative moves still land; the cursor stays put.
	env := Envelope{ID: "b1", Kind: KindMove, BaseVersion: 1, Color: board.Blue,
		From: sq(t, "b5"), To: sq(t, "c5"), Promotion: board.NoPieceType}
	_, err = submit(t, s, RemoteMove(env))
	require.NoError(t, err)
	assert.True(t, s.Snapshot().Viewing)
	assert.Equal(t, board.Yellow, s.Snapshot().Live.Active())

	_, err = submit(t, s, Navigate{Step: Live})
	require.NoError(t, err)
	assert.False(t, s.Snapshot().Viewing)
	assert.Equal(t, 2, s.Snapshot().Index)
}

func TestUndoOffline(t *testing.T) {
	s := start(t, game.New(game.Config{}, time.Time{}))

	_, err := submit(t, s, local(t, "h2", "h4"))
	require.NoError(t, err)
	_, err = submit(t, s, local(t, "b5", "c5"))
	require.NoError(t, err)

	_, err = submit(t, s, Navigate{Step: Undo})
	require.NoError(t, err)
	assert.Equal(t, board.Blue, s.Snapshot().Live.Active())

	_, err = submit(t, s, Navigate{Step: Back})
	require.NoError(t, err)
	_, err = submit(t, s, Navigate{Step: Undo})
	require.NoError(t, err)
	assert.Equal(t, board.StartFEN, s.Snapshot().Live.Position.FEN())
	assert.False(t, s.Snapshot().Viewing)
}

func TestUndoRefusedWhileUnconfirmed(t *testing.T) {
	s := start(t, game.New(game.Config{}, time.Time{}), WithPublisher(&recorder{}))

	_, err := submit(t, s, local(t, "h2", "h4"))
	require.NoError(t, err)
	_, err = submit(t, s, Navigate{Step: Undo})
	assert.ErrorIs(t, err, ErrUnconfirmed)
}

func TestTickFlagsExpiredClock(t *testing.T) {
	t0 := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	cfg := game.Config{Clock: clock.Control{Initial: 5 * time.Second}}
	s := start(t, game.New(cfg, t0))

	ack, err := submit(t, s, Tick{Color: board.Red, Timestamp: t0.Add(4 * time.Second)})
	require.NoError(t, err)
	assert.False(t, ack.Changed)

	ack, err = submit(t, s, Tick{Color: board.Red, Timestamp: t0.Add(6 * time.Second)})
	require.NoError(t, err)
	require.True(t, ack.Changed)
	require.Len(t, ack.Outcome.Eliminations, 1)
	assert.Equal(t, game.CauseTimeout, ack.Outcome.Eliminations[0].Cause)
	assert.Equal(t, board.Blue, s.Snapshot().Live.Active())
}

func TestSeatRestrictsLocalActions(t *testing.T) {
	s := start(t, game.New(game.Config{}, time.Time{}), WithSeat(board.Blue))

	_, err := submit(t, s, local(t, "h2", "h4"))
	assert.ErrorIs(t, err, game.ErrNotYourTurn)
	_, err = submit(t, s, Resign{Color: board.Red})
	assert.ErrorIs(t, err, game.ErrNotYourTurn)

	ack, err := submit(t, s, Resign{Color: board.Blue})
	require.NoError(t, err)
	assert.Len(t, ack.Outcome.Eliminations, 1)
}

func TestResignPublishesEnvelope(t *testing.T) {
	pubA := &recorder{}
	a := start(t, game.New(game.Config{}, time.Time{}), WithPublisher(pubA))
	b := start(t, game.New(game.Config{}, time.Time{}), WithPublisher(&recorder{}))

	_, err := submit(t, a, Resign{Color: board.Red})
	require.NoError(t, err)
	env := pubA.last(t)
	assert.Equal(t, KindResign, env.Kind)

	_, err = submit(t, b, RemoteMove(env))
	require.NoError(t, err)
	assert.Equal(t, []board.Color{board.Red}, b.Snapshot().Live.EliminatedColors())
	assert.Equal(t, a.Snapshot().Live.Fingerprint(), b.Snapshot().Live.Fingerprint())
}

func TestQueriesUseCache(t *testing.T) {
	cache, err := movecache.New(256)
	require.NoError(t, err)
	t.Cleanup(cache.Close)
	s := start(t, game.New(game.Config{}, time.Time{}), WithCache(cache))

	assert.Len(t, s.LegalMoves(sq(t, "e1")), 2)
	assert.True(t, s.HasAnyLegalMoves(board.Yellow))
	assert.False(t, s.IsInCheck(board.Red))
	assert.Empty(t, s.LegalMoves(board.NoSquare))
}

func TestResetLoadExport(t *testing.T) {
	s := start(t, game.New(game.Config{}, time.Time{}))

	_, err := submit(t, s, local(t, "h2", "h4"))
	require.NoError(t, err)
	ack, err := submit(t, s, Export{})
	require.NoError(t, err)
	require.Len(t, ack.Line, 2)

	_, err = submit(t, s, Reset{Config: game.Config{TeamMode: true}})
	require.NoError(t, err)
	assert.True(t, s.Snapshot().Live.TeamMode())
	assert.Equal(t, 0, s.Snapshot().Index)

	_, err = submit(t, s, Load{Line: ack.Line})
	require.NoError(t, err)
	assert.Equal(t, board.Blue, s.Snapshot().Live.Active())
	assert.Equal(t, 1, s.Snapshot().Index)

	_, err = submit(t, s, Load{})
	assert.ErrorIs(t, err, history.ErrNoSnapshot)
}

func TestSubmitHonorsContext(t *testing.T) {
	s := New(game.New(game.Config{}, time.Time{}), WithBuffer(0))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Submit(ctx, Export{})
	assert.True(t, errors.Is(err, context.Canceled))
}
