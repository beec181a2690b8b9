// Package history keeps the line of game snapshots and a viewing cursor
// that browses it without touching the live game.
package history

import (
	"errors"
	"fmt"

	"github.com/godwin-jg/QuadraChess-sub001/internal/game"
)

var (
	ErrViewingHistory = errors.New("viewing history")
	ErrNotViewing     = errors.New("not viewing history")
	ErrNothingToUndo  = errors.New("nothing to undo")
	ErrNoSnapshot     = errors.New("no such snapshot")
)

// History is an append-only line of snapshots. Index 0 is the starting
// state and the last snapshot is the live one. Snapshots are stored and
// handed out as copies, so nothing outside can change them.
type History struct {
	snapshots []*game.State
	viewing   int // -1 while live
}

// New starts a line at the given state.
func New(initial *game.State) *History {
	return &History{
		snapshots: []*game.State{initial.Clone()},
		viewing:   -1,
	}
}

// FromSnapshots rebuilds a line from stored snapshots.
func FromSnapshots(snapshots []*game.State) (*History, error) {
	if len(snapshots) == 0 {
		return nil, fmt.Errorf("%w: empty line", ErrNoSnapshot)
	}
	h := &History{viewing: -1}
	for _, s := range snapshots {
		h.snapshots = append(h.snapshots, s.Clone())
	}
	return h, nil
}

// Record appends the state that follows a mutation of the live game. It is
// rejected while a past snapshot is being viewed.
func (h *History) Record(s *game.State) error {
	if h.IsViewing() {
		return ErrViewingHistory
	}
	h.Append(s)
	return nil
}

// Append adds a state that arrived from outside, such as an authoritative
// move. It is accepted while viewing and leaves the cursor where it is.
func (h *History) Append(s *game.State) {
	h.snapshots = append(h.snapshots, s.Clone())
}

// Len returns the number of snapshots.
func (h *History) Len() int {
	return len(h.snapshots)
}

// Live returns a copy of the newest snapshot.
func (h *History) Live() *game.State {
	return h.snapshots[len(h.snapshots)-1].Clone()
}

// At returns a copy of snapshot i.
func (h *History) At(i int) (*game.State, error) {
	if i < 0 || i >= len(h.snapshots) {
		return nil, fmt.Errorf("%w: %d of %d", ErrNoSnapshot, i, len(h.snapshots))
	}
	return h.snapshots[i].Clone(), nil
}

// Snapshots returns copies of the whole line.
func (h *History) Snapshots() []*game.State {
	out := make([]*game.State, len(h.snapshots))
	for i, s := range h.snapshots {
		out[i] = s.Clone()
	}
	return out
}

// IsViewing reports whether a past snapshot is on display.
func (h *History) IsViewing() bool {
	return h.viewing >= 0
}

// Index returns the displayed snapshot index and whether it is a past one.
func (h *History) Index() (int, bool) {
	if h.viewing < 0 {
		return len(h.snapshots) - 1, false
	}
	return h.viewing, true
}

// View returns a copy of the displayed snapshot: the viewed one, or the
// live one.
func (h *History) View() *game.State {
	i, _ := h.Index()
	return h.snapshots[i].Clone()
}

// StepBack moves the cursor one snapshot back. It returns false at the
// start of the line.
func (h *History) StepBack() bool {
	i, _ := h.Index()
	if i == 0 {
		return false
	}
	h.viewing = i - 1
	return true
}

// StepForward moves the cursor one snapshot forward. Reaching the newest
// snapshot returns to live. It returns false when already live.
func (h *History) StepForward() bool {
	if h.viewing < 0 {
		return false
	}
	h.viewing++
	if h.viewing >= len(h.snapshots)-1 {
		h.viewing = -1
	}
	return true
}

// ReturnToLive drops the cursor.
func (h *History) ReturnToLive() {
	h.viewing = -1
}

// Branch discards every snapshot after the viewed one and makes it live.
func (h *History) Branch() (*game.State, error) {
	if h.viewing < 0 {
		return nil, ErrNotViewing
	}
	h.snapshots = h.snapshots[:h.viewing+1]
	h.viewing = -1
	return h.Live(), nil
}

// Undo drops the newest snapshot and returns the one before it as live.
func (h *History) Undo() (*game.State, error) {
	if h.IsViewing() {
		return nil, ErrViewingHistory
	}
	if len(h.snapshots) < 2 {
		return nil, ErrNothingToUndo
	}
	h.snapshots[len(h.snapshots)-1] = nil
	h.snapshots = h.snapshots[:len(h.snapshots)-1]
	return h.Live(), nil
}

// Truncate keeps the first n snapshots and returns to live. It is used to
// drop speculative snapshots when a local move is rolled back.
func (h *History) Truncate(n int) error {
	if n < 1 || n > len(h.snapshots) {
		return fmt.Errorf("%w: truncate to %d of %d", ErrNoSnapshot, n, len(h.snapshots))
	}
	for i := n; i < len(h.snapshots); i++ {
		h.snapshots[i] = nil
	}
	h.snapshots = h.snapshots[:n]
	h.viewing = -1
	return nil
}
