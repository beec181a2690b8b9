// Package clock keeps per-army countdown clocks with increment. Clocks never
// tick on their own: every reading and every charge takes an explicit
// timestamp supplied by the caller.
package clock

import (
	"time"

	"github.com/godwin-jg/QuadraChess-sub001/internal/board"
)

// Control describes a time control. A zero Initial budget means untimed.
type Control struct {
	Initial   time.Duration `json:"initial"`
	Increment time.Duration `json:"increment"`
}

// Timed reports whether the control limits thinking time.
func (c Control) Timed() bool {
	return c.Initial > 0
}

// Clocks holds the remaining budget of every army and the moment the
// running army's turn started.
type Clocks struct {
	Timed     bool                            `json:"timed"`
	Remaining [board.NumColors]time.Duration `json:"remaining"`
	Increment time.Duration                   `json:"increment"`
	Running   board.Color                     `json:"running"`
	TurnStart time.Time                       `json:"turnStart"`
}

// New creates clocks for a control. Nothing runs until Start.
func New(ctrl Control) Clocks {
	c := Clocks{
		Timed:     ctrl.Timed(),
		Increment: ctrl.Increment,
		Running:   board.NoColor,
	}
	if c.Timed {
		for _, color := range board.Colors {
			c.Remaining[color] = ctrl.Initial
		}
	}
	return c
}

// Start begins the turn of color at the given time.
func (c *Clocks) Start(color board.Color, at time.Time) {
	c.Running = color
	c.TurnStart = at
}

// Stop halts all clocks.
func (c *Clocks) Stop() {
	c.Running = board.NoColor
}

// Elapsed returns the time the running army has used on its current turn.
// A zero timestamp on either side reads as no time used.
func (c *Clocks) Elapsed(at time.Time) time.Duration {
	if at.IsZero() || c.TurnStart.IsZero() || c.Running == board.NoColor {
		return 0
	}
	if d := at.Sub(c.TurnStart); d > 0 {
		return d
	}
	return 0
}

// Left returns the budget color has at the given time.
func (c *Clocks) Left(color board.Color, at time.Time) time.Duration {
	if color >= board.NoColor {
		return 0
	}
	left := c.Remaining[color]
	if color == c.Running {
		left -= c.Elapsed(at)
	}
	return left
}

// Expired reports whether color has run out of time at the given moment.
// Untimed clocks never expire.
func (c *Clocks) Expired(color board.Color, at time.Time) bool {
	return c.Timed && c.Left(color, at) <= 0
}

// Charge subtracts the running army's elapsed time from its budget and
// restarts the turn reference at at. It returns the budget left, floored at
// zero.
func (c *Clocks) Charge(at time.Time) time.Duration {
	if !c.Timed || c.Running == board.NoColor {
		if !at.IsZero() {
			c.TurnStart = at
		}
		return 0
	}
	color := c.Running
	c.Remaining[color] -= c.Elapsed(at)
	if c.Remaining[color] < 0 {
		c.Remaining[color] = 0
	}
	if !at.IsZero() {
		c.TurnStart = at
	}
	return c.Remaining[color]
}

// AddIncrement credits the increment to color after a completed move.
func (c *Clocks) AddIncrement(color board.Color) {
	if c.Timed && color < board.NoColor {
		c.Remaining[color] += c.Increment
	}
}

// Snapshot returns every army's budget at the given time.
func (c *Clocks) Snapshot(at time.Time) [board.NumColors]time.Duration {
	var out [board.NumColors]time.Duration
	for _, color := range board.Colors {
		out[color] = c.Left(color, at)
		if out[color] < 0 {
			out[color] = 0
		}
	}
	return out
}
