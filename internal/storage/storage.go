// Package storage archives game lines in BadgerDB. Each game is kept as its
// full line of snapshots, JSON encoded and zstd compressed, next to a small
// uncompressed metadata record used for listing.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
	"go.uber.org/zap"
	"golang.org/x/exp/maps"

	"github.com/godwin-jg/QuadraChess-sub001/internal/board"
	"github.com/godwin-jg/QuadraChess-sub001/internal/game"
)

// Storage keys
const (
	prefixGame = "game/"
	prefixMeta = "meta/"
	keyStats   = "stats"
)

var (
	ErrNotFound  = errors.New("game not found")
	ErrEmptyLine = errors.New("empty game line")
)

// Meta describes a stored game.
type Meta struct {
	ID       string               `json:"id"`
	Created  time.Time            `json:"created"`
	Updated  time.Time            `json:"updated"`
	Plies    int                  `json:"plies"`
	TeamMode bool                 `json:"team_mode"`
	Result   game.Result          `json:"result"`
	Scores   [board.NumColors]int `json:"scores"`
	Tags     map[string]string    `json:"tags,omitempty"`
	Size     int                  `json:"size"` // compressed bytes
}

// Record is a stored game with its full line.
type Record struct {
	Meta Meta
	Line []*game.State
}

// Stats aggregates finished games.
type Stats struct {
	GamesPlayed int            `json:"games_played"`
	WinsByColor map[string]int `json:"wins_by_color"`
	WinsByTeam  map[string]int `json:"wins_by_team"`
	NoWinner    int            `json:"no_winner"`
	TotalPlies  int            `json:"total_plies"`
}

// NewStats returns empty statistics.
func NewStats() *Stats {
	return &Stats{
		WinsByColor: make(map[string]int),
		WinsByTeam:  make(map[string]int),
	}
}

// WinRate returns the share of finished games color won, as a percentage.
func (s *Stats) WinRate(c board.Color) float64 {
	if s.GamesPlayed == 0 {
		return 0
	}
	return float64(s.WinsByColor[c.String()]) / float64(s.GamesPlayed) * 100
}

func (s *Stats) add(r game.Result, plies int) {
	s.GamesPlayed++
	s.TotalPlies += plies
	switch {
	case r.WinningTeam >= 0:
		s.WinsByTeam[fmt.Sprint(r.WinningTeam)]++
	case r.Winner != board.NoColor:
		s.WinsByColor[r.Winner.String()]++
	default:
		s.NoWinner++
	}
}

// Archive wraps BadgerDB for persistent game storage.
type Archive struct {
	db  *badger.DB
	enc *zstd.Encoder
	dec *zstd.Decoder
	log *zap.Logger
	now func() time.Time
}

// badgerLogger routes badger's own logging through zap.
type badgerLogger struct {
	*zap.SugaredLogger
}

func (l badgerLogger) Warningf(format string, args ...any) {
	l.Warnf(format, args...)
}

// Open opens the archive in dir. An empty dir opens the platform data
// directory.
func Open(dir string, log *zap.Logger) (*Archive, error) {
	if dir == "" {
		d, err := GetDatabaseDir()
		if err != nil {
			return nil, err
		}
		dir = d
	}
	return open(badger.DefaultOptions(dir), log)
}

// OpenInMemory opens an archive that lives only as long as the process.
func OpenInMemory(log *zap.Logger) (*Archive, error) {
	return open(badger.DefaultOptions("").WithInMemory(true), log)
}

func open(opts badger.Options, log *zap.Logger) (*Archive, error) {
	if log == nil {
		log = zap.NewNop()
	}
	opts.Logger = badgerLogger{log.Named("badger").WithOptions(zap.IncreaseLevel(zap.WarnLevel)).Sugar()}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		db.Close()
		return nil, err
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		enc.Close()
		db.Close()
		return nil, err
	}
	log.Debug("archive opened", zap.String("dir", opts.Dir), zap.Bool("memory", opts.InMemory))
	return &Archive{db: db, enc: enc, dec: dec, log: log, now: time.Now}, nil
}

// Close closes the database
func (a *Archive) Close() error {
	a.dec.Close()
	a.enc.Close()
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}

// Size returns the on-disk size of the archive in bytes.
func (a *Archive) Size() int64 {
	lsm, vlog := a.db.Size()
	return lsm + vlog
}

func getJSON(txn *badger.Txn, key string, v any) error {
	item, err := txn.Get([]byte(key))
	if err != nil {
		return err
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, v)
	})
}

// Save stores a game line under id, creating a new id when it is empty.
// The tags are copied. Saving a finished game for the first time counts it
// in the statistics.
func (a *Archive) Save(id string, line []*game.State, tags map[string]string) (Meta, error) {
	if len(line) == 0 {
		return Meta{}, ErrEmptyLine
	}
	if id == "" {
		id = uuid.NewString()
	}
	raw, err := json.Marshal(line)
	if err != nil {
		return Meta{}, err
	}
	blob := a.enc.EncodeAll(raw, nil)

	live := line[len(line)-1]
	now := a.now()
	meta := Meta{
		ID:       id,
		Created:  now,
		Updated:  now,
		Plies:    len(line) - 1,
		TeamMode: live.TeamMode(),
		Result:   live.Result,
		Scores:   live.Scores,
		Size:     len(blob),
	}
	if len(tags) > 0 {
		meta.Tags = make(map[string]string, len(tags))
		maps.Copy(meta.Tags, tags)
	}

	err = a.db.Update(func(txn *badger.Txn) error {
		var prev Meta
		err := getJSON(txn, prefixMeta+id, &prev)
		switch {
		case errors.Is(err, badger.ErrKeyNotFound):
		case err != nil:
			return err
		default:
			meta.Created = prev.Created
		}

		if meta.Result.Over && !prev.Result.Over {
			stats := NewStats()
			if err := getJSON(txn, keyStats, stats); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
				return err
			}
			stats.add(meta.Result, meta.Plies)
			data, err := json.Marshal(stats)
			if err != nil {
				return err
			}
			if err := txn.Set([]byte(keyStats), data); err != nil {
				return err
			}
		}

		data, err := json.Marshal(meta)
		if err != nil {
			return err
		}
		if err := txn.Set([]byte(prefixMeta+id), data); err != nil {
			return err
		}
		return txn.Set([]byte(prefixGame+id), blob)
	})
	if err != nil {
		return Meta{}, fmt.Errorf("save %s: %w", id, err)
	}
	a.log.Debug("game saved",
		zap.String("id", id),
		zap.Int("plies", meta.Plies),
		zap.Int("bytes", len(blob)),
		zap.Int("raw", len(raw)))
	return meta, nil
}

// Load reads a stored game.
func (a *Archive) Load(id string) (*Record, error) {
	rec := &Record{}
	err := a.db.View(func(txn *badger.Txn) error {
		if err := getJSON(txn, prefixMeta+id, &rec.Meta); err != nil {
			return err
		}
		item, err := txn.Get([]byte(prefixGame + id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			raw, err := a.dec.DecodeAll(val, nil)
			if err != nil {
				return err
			}
			return json.Unmarshal(raw, &rec.Line)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", id, err)
	}
	return rec, nil
}

// List returns the metadata of every stored game, most recently updated
// first.
func (a *Archive) List() ([]Meta, error) {
	var out []Meta
	err := a.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(prefixMeta)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var m Meta
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &m)
			})
			if err != nil {
				return err
			}
			out = append(out, m)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Updated.After(out[j].Updated)
	})
	return out, nil
}

// Delete removes a stored game. Statistics are kept.
func (a *Archive) Delete(id string) error {
	return a.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get([]byte(prefixMeta + id)); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("%w: %s", ErrNotFound, id)
			}
			return err
		}
		if err := txn.Delete([]byte(prefixMeta + id)); err != nil {
			return err
		}
		return txn.Delete([]byte(prefixGame + id))
	})
}

// LoadStats loads statistics, returns empty stats if none were recorded
func (a *Archive) LoadStats() (*Stats, error) {
	stats := NewStats()
	err := a.db.View(func(txn *badger.Txn) error {
		err := getJSON(txn, keyStats, stats)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		return err
	})
	return stats, err
}
