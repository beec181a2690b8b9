// Command quadchess plays four-player chess on a 14x14 cross board through
// a line protocol on stdin and stdout.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/godwin-jg/QuadraChess-sub001/internal/clock"
	"github.com/godwin-jg/QuadraChess-sub001/internal/game"
	"github.com/godwin-jg/QuadraChess-sub001/internal/movecache"
	"github.com/godwin-jg/QuadraChess-sub001/internal/protocol"
	"github.com/godwin-jg/QuadraChess-sub001/internal/session"
	"github.com/godwin-jg/QuadraChess-sub001/internal/storage"
)

func main() {
	// Flags (env fallbacks).
	dbDir := flag.String("db", getenv("QUADCHESS_DB", ""), `archive directory ("" for the data dir, "memory", or "off")`)
	teams := flag.Bool("teams", getenb("QUADCHESS_TEAMS", false), "play Red/Yellow against Blue/Green")
	initial := flag.Duration("clock", getenvDuration("QUADCHESS_CLOCK", 0), "initial time per army (0 for untimed)")
	increment := flag.Duration("increment", getenvDuration("QUADCHESS_INCREMENT", 0), "time added after each move")
	level := flag.String("log-level", getenv("QUADCHESS_LOG_LEVEL", "warn"), "log level (debug, info, warn, error)")
	cacheSize := flag.Int64("cache", 1<<16, "legal move cache entries")
	flag.Parse()

	logger, err := newLogger(*level)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	if err := run(logger, *dbDir, *cacheSize, game.Config{
		TeamMode: *teams,
		Clock:    clock.Control{Initial: *initial, Increment: *increment},
	}); err != nil {
		logger.Error("exiting", zap.Error(err))
		fmt.Fprintf(os.Stderr, "quadchess: %v\n", err)
		os.Exit(1)
	}
}

func run(logger *zap.Logger, dbDir string, cacheSize int64, cfg game.Config) error {
	cache, err := movecache.New(cacheSize)
	if err != nil {
		return err
	}
	defer cache.Close()

	opts := []protocol.Option{
		protocol.WithLogger(logger.Named("protocol")),
		protocol.WithConfig(cfg),
	}
	archive, err := openArchive(dbDir, logger.Named("storage"))
	if err != nil {
		return err
	}
	if archive != nil {
		defer archive.Close()
		opts = append(opts, protocol.WithArchive(archive))
	}

	sess := session.New(game.New(cfg, time.Now()),
		session.WithLogger(logger.Named("session")),
		session.WithCache(cache))
	proto := protocol.New(sess, os.Stdout, opts...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return sess.Run(ctx)
	})
	g.Go(func() error {
		// End of input ends the session too.
		defer cancel()
		return proto.Run(ctx, os.Stdin)
	})

	logger.Info("started",
		zap.Bool("teams", cfg.TeamMode),
		zap.Duration("clock", cfg.Clock.Initial),
		zap.Duration("increment", cfg.Clock.Increment))
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Debug("cache", zap.Float64("hit_rate", cache.HitRate()))
	return nil
}

func openArchive(dir string, logger *zap.Logger) (*storage.Archive, error) {
	switch dir {
	case "off":
		return nil, nil
	case "memory":
		return storage.OpenInMemory(logger)
	}
	return storage.Open(dir, logger)
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, err
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = lvl
	return cfg.Build()
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenb(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getenvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
