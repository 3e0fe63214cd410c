package config

import (
	"bytes"
	"flag"
	"io"
	"strings"
	"testing"

	"github.com/hailam/chesscore/internal/board"
)

func fakeEnv(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestDefaultsFromEnv(t *testing.T) {
	cfg, err := Defaults(fakeEnv(map[string]string{
		EnvThreads:  "4",
		EnvHashMB:   "16",
		EnvBookDir:  "/tmp/book",
		EnvLogLevel: "debug",
	}))
	if err != nil {
		t.Fatal(err)
	}
	want := Config{Threads: 4, HashMB: 16, BookDir: "/tmp/book", LogLevel: "debug"}
	if cfg != want {
		t.Errorf("got %+v, want %+v", cfg, want)
	}
}

func TestDefaultsRejectBadNumbers(t *testing.T) {
	for _, env := range []map[string]string{
		{EnvThreads: "many"},
		{EnvHashMB: "0"},
	} {
		if _, err := Defaults(fakeEnv(env)); err == nil {
			t.Errorf("%v: expected error", env)
		}
	}
}

func TestFlagsOverrideEnv(t *testing.T) {
	cfg, err := Defaults(fakeEnv(map[string]string{EnvThreads: "4"}))
	if err != nil {
		t.Fatal(err)
	}
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	cfg.RegisterFlags(fs)
	if err := fs.Parse([]string{"-threads", "2", "-hash", "8"}); err != nil {
		t.Fatal(err)
	}
	if cfg.Threads != 2 || cfg.HashMB != 8 || cfg.LogLevel != "info" {
		t.Errorf("got %+v", cfg)
	}
}

func TestBuildWithBook(t *testing.T) {
	cfg := Config{Threads: 1, HashMB: 1, BookDir: t.TempDir(), LogLevel: "warn"}
	var logs bytes.Buffer
	rt, err := cfg.Build(&logs)
	if err != nil {
		t.Fatal(err)
	}
	defer rt.Close()

	if rt.Book == nil {
		t.Fatal("book not opened")
	}
	if err := rt.Book.Put(board.StartFEN, "g1f3"); err != nil {
		t.Fatal(err)
	}
	if got := rt.Engine.Options().Book; got == nil {
		t.Error("engine has no book")
	}
	if strings.Contains(logs.String(), "book opened") {
		t.Error("info line logged at warn level")
	}
}

func TestBuildRejectsLevel(t *testing.T) {
	cfg := Config{Threads: 1, HashMB: 1, LogLevel: "loud"}
	if _, err := cfg.Build(io.Discard); err == nil {
		t.Error("expected an error for an unknown log level")
	}
}
