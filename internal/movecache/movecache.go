// Package movecache memoizes legal-move queries by position hash. Bots and
// renderers ask the same questions of the same position many times; the
// answers only change when the position does.
package movecache

import (
	"sync/atomic"

	"github.com/dgraph-io/ristretto/v2"

	"github.com/godwin-jg/QuadraChess-sub001/internal/board"
)

// DefaultEntries is the default number of cached answers.
const DefaultEntries = 1 << 16

// allMoves is the origin used for whole-army queries.
const allMoves = board.NoSquare

type entry struct {
	hash  uint64 // full position hash, checked on every hit
	from  board.Square
	color board.Color
	moves []board.Move
}

// Cache answers legal-move queries from a bounded cache.
type Cache struct {
	cache  *ristretto.Cache[uint64, entry]
	hits   atomic.Uint64
	misses atomic.Uint64
}

// New creates a cache holding up to maxEntries answers.
func New(maxEntries int64) (*Cache, error) {
	if maxEntries <= 0 {
		maxEntries = DefaultEntries
	}
	c, err := ristretto.NewCache(&ristretto.Config[uint64, entry]{
		NumCounters:        maxEntries * 10,
		MaxCost:            maxEntries,
		BufferItems:        64,
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, err
	}
	return &Cache{cache: c}, nil
}

func key(hash uint64, from board.Square, c board.Color) uint64 {
	k := hash ^ (uint64(from)+1)*0x9E3779B97F4A7C15
	return k ^ (uint64(c)+1)*0xC2B2AE3D27D4EB4F
}

func (c *Cache) lookup(pos *board.Position, from board.Square, color board.Color, gen func() *board.MoveList) []board.Move {
	k := key(pos.Hash, from, color)
	if e, ok := c.cache.Get(k); ok && e.hash == pos.Hash && e.from == from && e.color == color {
		c.hits.Add(1)
		return append([]board.Move(nil), e.moves...)
	}
	c.misses.Add(1)

	moves := append([]board.Move(nil), gen().Slice()...)
	c.cache.Set(k, entry{hash: pos.Hash, from: from, color: color, moves: moves}, 1)
	return append([]board.Move(nil), moves...)
}

// LegalMovesFrom returns the legal moves of the piece on from.
func (c *Cache) LegalMovesFrom(pos *board.Position, from board.Square) []board.Move {
	return c.lookup(pos, from, board.NoColor, func() *board.MoveList {
		return pos.LegalMovesFrom(from)
	})
}

// LegalMoves returns every legal move of an army.
func (c *Cache) LegalMoves(pos *board.Position, color board.Color) []board.Move {
	return c.lookup(pos, allMoves, color, func() *board.MoveList {
		return pos.GenerateLegalMoves(color)
	})
}

// Wait blocks until pending writes are visible to Get.
func (c *Cache) Wait() {
	c.cache.Wait()
}

// HitRate returns the cache hit rate as a percentage.
func (c *Cache) HitRate() float64 {
	hits, misses := c.hits.Load(), c.misses.Load()
	total := hits + misses
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total) * 100
}

// Clear empties the cache and resets its statistics.
func (c *Cache) Clear() {
	c.cache.Clear()
	c.hits.Store(0)
	c.misses.Store(0)
}

// Close releases the cache's goroutines.
func (c *Cache) Close() {
	c.cache.Close()
}
