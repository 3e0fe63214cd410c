package main

import (
	"flag"
	"fmt"
	"os"
	"runtime/pprof"

	"github.com/hailam/chesscore/internal/config"
	"github.com/hailam/chesscore/internal/uci"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "chesscore-uci:", err)
		os.Exit(1)
	}
}

func run() error {
	fs := flag.NewFlagSet("chesscore-uci", flag.ExitOnError)
	cpuprofile := fs.String("cpuprofile", "", "write cpu profile to file")
	cfg, err := config.Load(fs, os.Args[1:])
	if err != nil {
		return err
	}

	// Logs go to stderr so stdout carries only the protocol.
	rt, err := cfg.Build(os.Stderr)
	if err != nil {
		return err
	}
	defer rt.Close()

	// Start CPU profiling if requested (via flag or environment variable)
	profilePath := *cpuprofile
	if profilePath == "" {
		profilePath = os.Getenv("CPUPROFILE")
	}
	if profilePath != "" {
		f, err := os.Create(profilePath)
		if err != nil {
			return fmt.Errorf("could not create CPU profile: %w", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			return fmt.Errorf("could not start CPU profile: %w", err)
		}
		defer pprof.StopCPUProfile()
		rt.Log.Info().Str("path", profilePath).Msg("CPU profiling enabled")
	}

	protocol := uci.New(rt.Engine, uci.Options{Logger: rt.Log})
	return protocol.Run(os.Stdin, os.Stdout)
}
