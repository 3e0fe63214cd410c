// Package config holds the settings shared by the chesscore binaries.
// Every flag falls back to a CHESSCORE_* environment variable.
package config

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/hailam/chesscore/internal/book"
	"github.com/hailam/chesscore/internal/engine"
	"github.com/hailam/chesscore/internal/logx"
)

// Environment variables read by Defaults.
const (
	EnvThreads  = "CHESSCORE_THREADS"
	EnvHashMB   = "CHESSCORE_HASH_MB"
	EnvBookDir  = "CHESSCORE_BOOK_DIR"
	EnvLogLevel = "CHESSCORE_LOG_LEVEL"
)

// Config is the runtime configuration of a binary.
type Config struct {
	Threads  int
	HashMB   int
	BookDir  string // empty disables the book
	LogLevel string
}

// Defaults returns the engine defaults overridden by the environment.
// getenv is usually os.Getenv.
func Defaults(getenv func(string) string) (Config, error) {
	def := engine.DefaultOptions()
	cfg := Config{
		Threads:  def.Threads,
		HashMB:   def.HashMB,
		BookDir:  getenv(EnvBookDir),
		LogLevel: getenv(EnvLogLevel),
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	var err error
	if cfg.Threads, err = envInt(getenv, EnvThreads, cfg.Threads); err != nil {
		return cfg, err
	}
	if cfg.HashMB, err = envInt(getenv, EnvHashMB, cfg.HashMB); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func envInt(getenv func(string) string, key string, def int) (int, error) {
	v := getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return def, fmt.Errorf("config: %s=%q is not a positive integer", key, v)
	}
	return n, nil
}

// RegisterFlags binds the fields of c to flags in fs, using the current
// values as defaults.
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.IntVar(&c.Threads, "threads", c.Threads, "search threads ($"+EnvThreads+")")
	fs.IntVar(&c.HashMB, "hash", c.HashMB, "transposition table size in MB ($"+EnvHashMB+")")
	fs.StringVar(&c.BookDir, "book", c.BookDir, "opening book directory, empty for none ($"+EnvBookDir+")")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "log level: trace, debug, info, warn, error ($"+EnvLogLevel+")")
}

// Load parses args into a Config seeded from the environment.
func Load(fs *flag.FlagSet, args []string) (*Config, error) {
	cfg, err := Defaults(os.Getenv)
	if err != nil {
		return nil, err
	}
	cfg.RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if cfg.Threads < 1 || cfg.HashMB < 1 {
		return nil, fmt.Errorf("config: threads and hash must be positive, got %d and %d", cfg.Threads, cfg.HashMB)
	}
	return &cfg, nil
}

// Runtime is what a binary needs after startup.
type Runtime struct {
	Engine *engine.Engine
	Book   *book.Book // nil without a book
	Log    zerolog.Logger
}

// Close releases the book if one was opened.
func (r *Runtime) Close() error {
	if r.Book != nil {
		return r.Book.Close()
	}
	return nil
}

// Build creates the logger, engine and optional book described by c.
// Logs go to logOut.
func (c *Config) Build(logOut io.Writer) (*Runtime, error) {
	log, err := logx.New(logOut, c.LogLevel)
	if err != nil {
		return nil, err
	}

	opts := engine.DefaultOptions()
	opts.Threads = c.Threads
	opts.HashMB = c.HashMB
	opts.Logger = log
	rt := &Runtime{Log: log}

	if c.BookDir != "" {
		b, err := book.Open(c.BookDir, log)
		if err != nil {
			return nil, err
		}
		if n, err := b.Count(); err == nil {
			log.Info().Str("dir", c.BookDir).Int("positions", n).Msg("book opened")
		}
		opts.Book = b
		rt.Book = b
	}

	rt.Engine = engine.New(opts)
	return rt, nil
}
