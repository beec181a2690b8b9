package session

import (
	"time"

	"github.com/godwin-jg/QuadraChess-sub001/internal/board"
	"github.com/godwin-jg/QuadraChess-sub001/internal/game"
)

// Event is anything the reducer can apply. Events are reduced one at a time
// in arrival order.
type Event interface {
	event()
}

// Envelope kinds.
const (
	KindMove   = "move"
	KindResign = "resign"
)

// Envelope is the wire form of a local action published to peers, and of
// remote actions received from them. A move envelope is published once the
// move is complete, so a promoting move carries its piece type and the
// moment it was chosen.
type Envelope struct {
	ID              string          `json:"id"`
	Kind            string          `json:"kind"`
	BaseVersion     uint64          `json:"baseVersion"`
	Color           board.Color     `json:"color"`
	From            board.Square    `json:"from"`
	To              board.Square    `json:"to"`
	PieceCode       string          `json:"pieceCode,omitempty"`
	EnPassant       bool            `json:"enPassant,omitempty"`
	EnPassantTarget *board.Square   `json:"enPassantTarget,omitempty"`
	Promotion       board.PieceType `json:"promotion"`
	Timestamp       time.Time       `json:"timestamp"`
	PromotedAt      time.Time       `json:"promotedAt,omitempty"`
}

// Publisher carries envelopes to the authority or to peers.
type Publisher interface {
	Publish(Envelope) error
	// RequestSync asks the authority for a full state.
	RequestSync() error
}

// LocalMove is a move intent from the local player.
type LocalMove struct {
	From      board.Square
	To        board.Square
	Promotion board.PieceType
}

// RemoteMove is an action made elsewhere: another participant's move, or
// the authority's echo of one of ours.
type RemoteMove Envelope

// Reject is the authority refusing one of our published actions.
type Reject struct {
	ID     string
	Reason string
}

// Sync replaces the game with an authoritative state.
type Sync struct {
	State *game.State
}

// Tick asks whether color has run out of time.
type Tick struct {
	Color     board.Color
	Timestamp time.Time
}

// Promote chooses the piece for the pending local promotion.
type Promote struct {
	Piece board.PieceType
}

// Resign resigns an army.
type Resign struct {
	Color board.Color
}

// Select is the local player's square selection. It is UI state and
// survives rollbacks and syncs.
type Select struct {
	Square board.Square
}

// Navigation steps through history.
type Navigation int

const (
	Back Navigation = iota
	Forward
	Live
	// Undo drops the newest snapshot, or makes the viewed snapshot live.
	Undo
)

// Navigate moves the history cursor.
type Navigate struct {
	Step Navigation
}

// Reset starts a new game.
type Reset struct {
	Config game.Config
	// Position is optional; nil starts from the standard setup.
	Position *board.Position
}

// Load replaces the game with a stored line of snapshots.
type Load struct {
	Line []*game.State
}

// Export reads the full history line.
type Export struct{}

func (LocalMove) event()  {}
func (RemoteMove) event() {}
func (Reject) event()     {}
func (Sync) event()       {}
func (Tick) event()       {}
func (Promote) event()    {}
func (Resign) event()     {}
func (Select) event()     {}
func (Navigate) event()   {}
func (Reset) event()      {}
func (Load) event()       {}
func (Export) event()     {}

// Ack reports what an event did.
type Ack struct {
	Outcome game.Outcome
	// MoveID names the envelope published for a local action.
	MoveID string
	// Changed is false for events that left the game untouched.
	Changed bool
	Line    []*game.State
}
