// Command chesscore-book maintains the opening book used by the engine.
//
// Usage:
//
//	chesscore-book [flags] count
//	chesscore-book [flags] add <fen> <move> [weight]
//	chesscore-book [flags] pgn <file> [plies]
//	chesscore-book [flags] export <file.zst>
//	chesscore-book [flags] import <file.zst>
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"

	"github.com/hailam/chesscore/internal/book"
	"github.com/hailam/chesscore/internal/config"
	"github.com/hailam/chesscore/internal/logx"
)

const defaultPlies = 16

var errUsage = errors.New("usage: chesscore-book [flags] count|add|pgn|export|import ...")

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "chesscore-book:", err)
		os.Exit(1)
	}
}

func run() error {
	fs := flag.NewFlagSet("chesscore-book", flag.ExitOnError)
	cfg, err := config.Load(fs, os.Args[1:])
	if err != nil {
		return err
	}
	args := fs.Args()
	if len(args) == 0 {
		return errUsage
	}

	log, err := logx.New(os.Stderr, cfg.LogLevel)
	if err != nil {
		return err
	}
	dir := cfg.BookDir
	if dir == "" {
		if dir, err = book.DefaultDir(); err != nil {
			return err
		}
	}
	b, err := book.Open(dir, log)
	if err != nil {
		return err
	}
	defer b.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	switch cmd, rest := args[0], args[1:]; cmd {
	case "count":
		n, err := b.Count()
		if err != nil {
			return err
		}
		fmt.Println(n)
	case "add":
		if len(rest) < 2 {
			return errUsage
		}
		if len(rest) == 3 {
			w, err := strconv.Atoi(rest[2])
			if err != nil {
				return fmt.Errorf("weight: %w", err)
			}
			return b.PutWeighted(rest[0], rest[1], w)
		}
		return b.Put(rest[0], rest[1])
	case "pgn":
		if len(rest) < 1 {
			return errUsage
		}
		plies := defaultPlies
		if len(rest) > 1 {
			if plies, err = strconv.Atoi(rest[1]); err != nil {
				return fmt.Errorf("plies: %w", err)
			}
		}
		games, err := b.ImportPGN(ctx, rest[0], plies)
		if err != nil {
			return err
		}
		fmt.Printf("%d games\n", games)
	case "export":
		if len(rest) != 1 {
			return errUsage
		}
		f, err := os.Create(rest[0])
		if err != nil {
			return err
		}
		n, err := b.Export(f)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return err
		}
		fmt.Printf("%d entries\n", n)
	case "import":
		if len(rest) != 1 {
			return errUsage
		}
		f, err := os.Open(rest[0])
		if err != nil {
			return err
		}
		defer f.Close()
		n, err := b.Import(f)
		if err != nil {
			return err
		}
		fmt.Printf("%d entries\n", n)
	default:
		return errUsage
	}
	return nil
}
