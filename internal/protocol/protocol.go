// Package protocol implements a line-oriented text protocol for driving a
// game session from a terminal or a pipe.
package protocol

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/godwin-jg/QuadraChess-sub001/internal/board"
	"github.com/godwin-jg/QuadraChess-sub001/internal/game"
	"github.com/godwin-jg/QuadraChess-sub001/internal/session"
	"github.com/godwin-jg/QuadraChess-sub001/internal/storage"
)

// ErrNoArchive is returned by save and load when no archive is attached.
var ErrNoArchive = errors.New("no archive")

const maxPerftDepth = 5

// Protocol reads commands and writes replies.
type Protocol struct {
	sess    *session.Session
	archive *storage.Archive
	cfg     game.Config
	log     *zap.Logger
	out     io.Writer
	now     func() time.Time

	// gameID is the archive id of the current game, once saved or loaded.
	gameID string
}

// Option configures a Protocol.
type Option func(*Protocol)

// WithArchive enables the save, load and list commands.
func WithArchive(a *storage.Archive) Option {
	return func(p *Protocol) { p.archive = a }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(p *Protocol) {
		if l != nil {
			p.log = l
		}
	}
}

// WithConfig sets the variant used by "new" when no options are given.
func WithConfig(cfg game.Config) Option {
	return func(p *Protocol) { p.cfg = cfg }
}

// WithClock sets the time source for clocks and timeouts.
func WithClock(now func() time.Time) Option {
	return func(p *Protocol) {
		if now != nil {
			p.now = now
		}
	}
}

// New creates a protocol handler writing to out.
func New(sess *session.Session, out io.Writer, opts ...Option) *Protocol {
	p := &Protocol{
		sess: sess,
		log:  zap.NewNop(),
		out:  out,
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run reads commands from in until "quit", end of input, or ctx ends. A
// read blocked on in does not hold up cancellation.
func (p *Protocol) Run(ctx context.Context, in io.Reader) error {
	lines := make(chan string)
	done := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				done <- ctx.Err()
				return
			}
		}
		done <- scanner.Err()
	}()

	for {
		var line string
		select {
		case <-ctx.Done():
			return ctx.Err()
		case l, ok := <-lines:
			if !ok {
				return <-done
			}
			line = strings.TrimSpace(l)
		}
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		quit, err := p.Handle(ctx, line)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p.log.Debug("command failed", zap.String("line", line), zap.Error(err))
			fmt.Fprintf(p.out, "error: %v\n", err)
		}
		if quit {
			return nil
		}
	}
}

// Handle executes one command line. It reports whether the session should
// end.
func (p *Protocol) Handle(ctx context.Context, line string) (bool, error) {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return false, nil
	}
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	var err error
	switch cmd {
	case "new":
		err = p.handleNew(ctx, args)
	case "move", "m":
		err = p.handleMove(ctx, args)
	case "promote":
		err = p.handlePromote(ctx, args)
	case "resign":
		err = p.handleResign(ctx, args)
	case "timeout":
		err = p.handleTimeout(ctx, args)
	case "legal":
		err = p.handleLegal(args)
	case "board", "d":
		p.handleBoard()
	case "fen":
		fmt.Fprintln(p.out, p.sess.Snapshot().Shown.Position.FEN())
	case "status":
		p.handleStatus()
	case "back":
		err = p.navigate(ctx, session.Back)
	case "forward":
		err = p.navigate(ctx, session.Forward)
	case "live":
		err = p.navigate(ctx, session.Live)
	case "undo":
		err = p.navigate(ctx, session.Undo)
	case "perft":
		err = p.handlePerft(args)
	case "save":
		err = p.handleSave(ctx, args)
	case "load":
		err = p.handleLoad(ctx, args)
	case "list":
		err = p.handleList()
	case "quit", "exit":
		return true, nil
	default:
		err = fmt.Errorf("unknown command %q", cmd)
	}
	return false, err
}

// handleNew starts a new game.
// Formats:
//   - new
//   - new teams
//   - new [teams] fen <fen>
func (p *Protocol) handleNew(ctx context.Context, args []string) error {
	cfg := p.cfg
	var pos *board.Position
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "teams":
			cfg.TeamMode = true
		case "ffa":
			cfg.TeamMode = false
		case "fen":
			fen := strings.Join(args[i+1:], " ")
			parsed, err := board.ParseFEN(fen)
			if err != nil {
				return err
			}
			pos = parsed
			i = len(args)
		default:
			return fmt.Errorf("unknown option %q", args[i])
		}
	}
	if _, err := p.sess.Submit(ctx, session.Reset{Config: cfg, Position: pos}); err != nil {
		return err
	}
	p.gameID = ""
	mode := "free-for-all"
	if cfg.TeamMode {
		mode = "teams"
	}
	fmt.Fprintf(p.out, "new game (%s), %s to move\n", mode, p.sess.Snapshot().Live.Active())
	return nil
}

func (p *Protocol) handleMove(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("usage: move <from>-<to>[=Q] | <san>")
	}
	text := strings.Join(args, " ")
	before := p.sess.Snapshot().Live.Position.Copy()
	from, to, promo, err := board.SplitMove(text)
	if err != nil {
		// Fall back to algebraic notation for the army to move.
		m, serr := board.ParseSAN(text, before)
		if serr != nil {
			return err
		}
		from, to, promo = m.From, m.To, m.Promotion
	}
	ack, err := p.sess.Submit(ctx, session.LocalMove{From: from, To: to, Promotion: promo})
	if err != nil {
		return err
	}
	p.reportOutcome(ack.Outcome, before)
	return nil
}

func (p *Protocol) handlePromote(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: promote <q|r|b|n>")
	}
	pt, err := board.ParsePieceType(args[0])
	if err != nil {
		return err
	}
	ack, err := p.sess.Submit(ctx, session.Promote{Piece: pt})
	if err != nil {
		return err
	}
	p.reportOutcome(ack.Outcome, nil)
	return nil
}

func (p *Protocol) colorArg(args []string) (board.Color, error) {
	if len(args) == 0 {
		if c := p.sess.Snapshot().Live.Active(); c != board.NoColor {
			return c, nil
		}
		return board.NoColor, game.ErrGameOver
	}
	return board.ParseColor(args[0])
}

func (p *Protocol) handleResign(ctx context.Context, args []string) error {
	c, err := p.colorArg(args)
	if err != nil {
		return err
	}
	ack, err := p.sess.Submit(ctx, session.Resign{Color: c})
	if err != nil {
		return err
	}
	p.reportOutcome(ack.Outcome, nil)
	return nil
}

func (p *Protocol) handleTimeout(ctx context.Context, args []string) error {
	c, err := p.colorArg(args)
	if err != nil {
		return err
	}
	ack, err := p.sess.Submit(ctx, session.Tick{Color: c, Timestamp: p.now()})
	if err != nil {
		return err
	}
	if !ack.Changed {
		fmt.Fprintf(p.out, "%s has %s left\n", c, p.clockText(c))
		return nil
	}
	p.reportOutcome(ack.Outcome, nil)
	return nil
}

func (p *Protocol) handleLegal(args []string) error {
	if len(args) != 1 {
		return errors.New("usage: legal <square>")
	}
	sq, err := board.ParseSquare(args[0])
	if err != nil {
		return err
	}
	moves := p.sess.LegalMoves(sq)
	names := make([]string, 0, len(moves))
	for _, m := range moves {
		names = append(names, m.String())
	}
	sort.Strings(names)
	fmt.Fprintf(p.out, "%s: %d legal", sq, len(names))
	if len(names) > 0 {
		fmt.Fprintf(p.out, " %s", strings.Join(names, " "))
	}
	fmt.Fprintln(p.out)
	return nil
}

func (p *Protocol) handleBoard() {
	snap := p.sess.Snapshot()
	if snap.Viewing {
		fmt.Fprintf(p.out, "viewing snapshot %d\n", snap.Index)
	}
	fmt.Fprint(p.out, snap.Shown.Position.String())
}

func (p *Protocol) clockText(c board.Color) string {
	live := p.sess.Snapshot().Live
	if !live.Clocks.Timed {
		return "unlimited time"
	}
	left := live.Clocks.Left(c, p.now())
	if left < 0 {
		left = 0
	}
	return left.Round(100 * time.Millisecond).String()
}

func (p *Protocol) handleStatus() {
	snap := p.sess.Snapshot()
	s := snap.Shown
	fmt.Fprintf(p.out, "status: %s\n", s.Status)
	if s.Result.Over {
		fmt.Fprintf(p.out, "result: %s\n", s.Result.Description())
	} else {
		fmt.Fprintf(p.out, "to move: %s\n", s.Active())
	}
	if s.Pending != nil {
		fmt.Fprintf(p.out, "promotion pending: %s on %s\n", s.Pending.Color, s.Pending.Square)
	}
	for _, c := range board.Colors {
		state := "live"
		if !s.Position.IsLive(c) {
			state = "out"
		} else if s.IsInCheck(c) {
			state = "check"
		}
		fmt.Fprintf(p.out, "%-6s %-5s %3d points  %s\n", c, state, s.Scores[c], p.clockText(c))
	}
	fmt.Fprintf(p.out, "version: %d  snapshot: %d  unconfirmed: %d\n", s.Version, snap.Index, snap.Pending)
}

func (p *Protocol) navigate(ctx context.Context, step session.Navigation) error {
	ack, err := p.sess.Submit(ctx, session.Navigate{Step: step})
	if err != nil {
		return err
	}
	snap := p.sess.Snapshot()
	switch {
	case !ack.Changed:
		fmt.Fprintln(p.out, "nothing to do")
	case snap.Viewing:
		fmt.Fprintf(p.out, "viewing snapshot %d\n", snap.Index)
	default:
		fmt.Fprintf(p.out, "live at snapshot %d, %s to move\n", snap.Index, snap.Live.Active())
	}
	return nil
}

func (p *Protocol) handlePerft(args []string) error {
	depth := 3
	if len(args) > 0 {
		d, err := strconv.Atoi(args[0])
		if err != nil {
			return err
		}
		depth = d
	}
	if depth < 1 || depth > maxPerftDepth {
		return fmt.Errorf("perft depth must be 1..%d", maxPerftDepth)
	}

	pos := p.sess.Snapshot().Live.Position.Copy()
	start := time.Now()
	nodes := board.Perft(pos, depth)
	elapsed := time.Since(start)

	fmt.Fprintf(p.out, "Nodes: %s\n", humanize.Comma(nodes))
	fmt.Fprintf(p.out, "Time: %v\n", elapsed.Round(time.Millisecond))
	if elapsed > 0 {
		nps := float64(nodes) / elapsed.Seconds()
		fmt.Fprintf(p.out, "NPS: %s\n", humanize.Comma(int64(nps)))
	}
	return nil
}

func (p *Protocol) handleSave(ctx context.Context, args []string) error {
	if p.archive == nil {
		return ErrNoArchive
	}
	id := p.gameID
	if len(args) > 0 {
		id = args[0]
	}
	ack, err := p.sess.Submit(ctx, session.Export{})
	if err != nil {
		return err
	}
	meta, err := p.archive.Save(id, ack.Line, nil)
	if err != nil {
		return err
	}
	p.gameID = meta.ID
	p.log.Info("game saved", zap.String("id", meta.ID), zap.Int("plies", meta.Plies))
	fmt.Fprintf(p.out, "saved %s (%d plies, %s)\n", meta.ID, meta.Plies, humanize.Bytes(uint64(meta.Size)))
	return nil
}

func (p *Protocol) handleLoad(ctx context.Context, args []string) error {
	if p.archive == nil {
		return ErrNoArchive
	}
	if len(args) != 1 {
		return errors.New("usage: load <id>")
	}
	rec, err := p.archive.Load(args[0])
	if err != nil {
		return err
	}
	if _, err := p.sess.Submit(ctx, session.Load{Line: rec.Line}); err != nil {
		return err
	}
	p.gameID = rec.Meta.ID
	fmt.Fprintf(p.out, "loaded %s (%d plies, updated %s)\n",
		rec.Meta.ID, rec.Meta.Plies, humanize.Time(rec.Meta.Updated))
	return nil
}

func (p *Protocol) handleList() error {
	if p.archive == nil {
		return ErrNoArchive
	}
	games, err := p.archive.List()
	if err != nil {
		return err
	}
	for _, m := range games {
		fmt.Fprintf(p.out, "%s  %3d plies  %-24s %s\n",
			m.ID, m.Plies, m.Result.Description(), humanize.Time(m.Updated))
	}
	fmt.Fprintf(p.out, "%d games, %s on disk\n", len(games), humanize.Bytes(uint64(p.archive.Size())))
	return nil
}

// reportOutcome prints what a command did. When before is the position the
// move was played from, the move is also shown in algebraic notation.
func (p *Protocol) reportOutcome(out game.Outcome, before *board.Position) {
	switch {
	case out.Promotion:
		fmt.Fprintf(p.out, "played %s, choose promotion: promote <q|r|b|n>\n", out.Move)
	case out.Applied && before != nil:
		fmt.Fprintf(p.out, "played %s (%s)\n", out.Move, out.Move.ToSAN(before))
	case out.Applied:
		fmt.Fprintf(p.out, "played %s\n", out.Move)
	}
	for _, e := range out.Eliminations {
		by := ""
		if e.By != board.NoColor {
			by = " by " + e.By.String()
		}
		fmt.Fprintf(p.out, "%s eliminated (%s%s)\n", e.Color, e.Cause, by)
	}
	if out.Result.Over {
		fmt.Fprintf(p.out, "game over: %s\n", out.Result.Description())
		return
	}
	if c := p.sess.Snapshot().Live.Active(); c != board.NoColor {
		fmt.Fprintf(p.out, "%s to move\n", c)
	}
}
