package board

// Perft counts the leaf nodes of the legal move tree to the given depth,
// passing the turn to the next live army after every move.
func Perft(pos *Position, depth int) int64 {
	if depth == 0 {
		return 1
	}

	moves := pos.GenerateLegalMoves(pos.Turn)
	if depth == 1 {
		return int64(moves.Len())
	}

	var nodes int64
	prev := pos.Turn
	next := pos.nextLive(prev)
	for _, m := range moves.Slice() {
		undo := pos.MakeMove(m)
		pos.SetTurn(next)
		nodes += Perft(pos, depth-1)
		pos.SetTurn(prev)
		pos.UnmakeMove(undo)
	}
	return nodes
}

// PerftDivide returns the node count below each legal move.
func PerftDivide(pos *Position, depth int) map[string]int64 {
	out := make(map[string]int64)
	if depth < 1 {
		return out
	}
	prev := pos.Turn
	next := pos.nextLive(prev)
	for _, m := range pos.GenerateLegalMoves(prev).Slice() {
		undo := pos.MakeMove(m)
		pos.SetTurn(next)
		out[m.String()] = Perft(pos, depth-1)
		pos.SetTurn(prev)
		pos.UnmakeMove(undo)
	}
	return out
}

func (p *Position) nextLive(c Color) Color {
	next := c.Next()
	for i := 0; i < NumColors && !p.IsLive(next); i++ {
		next = next.Next()
	}
	return next
}
