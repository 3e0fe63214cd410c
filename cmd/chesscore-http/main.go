package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hailam/chesscore/internal/config"
	"github.com/hailam/chesscore/internal/server"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "chesscore-http:", err)
		os.Exit(1)
	}
}

func run() error {
	fs := flag.NewFlagSet("chesscore-http", flag.ExitOnError)
	addr := fs.String("addr", ":3000", "listen address")
	defaultTime := fs.Duration("default-time", 2*time.Second, "search time when a request sets no limit")
	cfg, err := config.Load(fs, os.Args[1:])
	if err != nil {
		return err
	}

	rt, err := cfg.Build(os.Stderr)
	if err != nil {
		return err
	}
	defer rt.Close()

	app := server.New(rt.Engine, server.Config{
		DefaultTime: *defaultTime,
		Logger:      rt.Log,
	}).App()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		rt.Log.Info().Msg("shutting down")
		_ = app.ShutdownWithTimeout(10 * time.Second)
	}()

	rt.Log.Info().Str("addr", *addr).Int("threads", cfg.Threads).Int("hash_mb", cfg.HashMB).Msg("listening")
	return app.Listen(*addr)
}
