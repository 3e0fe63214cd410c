package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"slices"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/hailam/chesscore/internal/engine"
)

func newTestApp(t *testing.T) *Server {
	t.Helper()
	opts := engine.DefaultOptions()
	opts.HashMB = 1
	return New(engine.New(opts), Config{Logger: zerolog.Nop()})
}

func do(t *testing.T, s *Server, req *http.Request, out any) int {
	t.Helper()
	resp, err := s.App().Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", req.Method, req.URL, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			t.Fatalf("decode %s: %v", body, err)
		}
	}
	return resp.StatusCode
}

func postAnalyze(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/analyze", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestHealthz(t *testing.T) {
	var got map[string]string
	code := do(t, newTestApp(t), httptest.NewRequest(http.MethodGet, "/healthz", nil), &got)
	if code != http.StatusOK || got["status"] != "ok" {
		t.Errorf("healthz = %d %v", code, got)
	}
}

func TestAnalyzeFindsMate(t *testing.T) {
	var got AnalyzeResponse
	code := do(t, newTestApp(t), postAnalyze(`{"fen":"6k1/5ppp/8/8/8/8/5PPP/3R2K1 w - - 0 1","depth":3}`), &got)
	if code != http.StatusOK {
		t.Fatalf("status %d", code)
	}
	if got.BestMove != "d1d8" {
		t.Errorf("best_move = %s, want d1d8", got.BestMove)
	}
	if engine.MateIn(got.Score) != 1 {
		t.Errorf("score = %d (%s), want mate in 1", got.Score, got.Display)
	}
	if got.FromBook || got.Terminal != "" {
		t.Errorf("unexpected flags: %+v", got)
	}
	if len(got.PV) == 0 || got.PV[0] != "d1d8" {
		t.Errorf("pv = %v", got.PV)
	}
	if len(got.PVSAN) == 0 || got.PVSAN[0] != "Rd8#" {
		t.Errorf("pv_san = %v", got.PVSAN)
	}
}

func TestAnalyzeTerminal(t *testing.T) {
	var got AnalyzeResponse
	code := do(t, newTestApp(t), postAnalyze(`{"fen":"k7/2K5/1Q6/8/8/8/8/8 b - - 0 1","depth":2}`), &got)
	if code != http.StatusOK {
		t.Fatalf("status %d", code)
	}
	if got.Terminal != "stalemate" || got.BestMove != "0000" {
		t.Errorf("got %+v, want stalemate with no move", got)
	}
}

func TestAnalyzeBadInput(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bad fen", `{"fen":"not a position"}`},
		{"negative depth", `{"depth":-1}`},
		{"malformed json", `{"fen":`},
	}
	s := newTestApp(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got map[string]string
			code := do(t, s, postAnalyze(tt.body), &got)
			if code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", code)
			}
			if got["error"] == "" {
				t.Error("missing error message")
			}
		})
	}
}

func TestLegal(t *testing.T) {
	s := newTestApp(t)

	var start LegalResponse
	if code := do(t, s, httptest.NewRequest(http.MethodGet, "/api/legal", nil), &start); code != http.StatusOK {
		t.Fatalf("status %d", code)
	}
	if len(start.Moves) != 20 || start.Check {
		t.Errorf("start position: %d moves, check=%v", len(start.Moves), start.Check)
	}

	fen := "4k3/8/8/8/8/8/8/4K2R w K - 0 1"
	var got LegalResponse
	target := "/api/legal?fen=" + url.QueryEscape(fen)
	if code := do(t, s, httptest.NewRequest(http.MethodGet, target, nil), &got); code != http.StatusOK {
		t.Fatalf("status %d", code)
	}
	if !slices.Contains(got.Moves, "e1g1") || !slices.Contains(got.SAN, "O-O") {
		t.Errorf("castling missing from %v %v", got.Moves, got.SAN)
	}
	if len(got.SAN) != len(got.Moves) {
		t.Errorf("%d SAN moves for %d moves", len(got.SAN), len(got.Moves))
	}

	var errBody map[string]string
	target = "/api/legal?fen=" + url.QueryEscape("8/8/8 w - - 0 1")
	if code := do(t, s, httptest.NewRequest(http.MethodGet, target, nil), &errBody); code != http.StatusBadRequest {
		t.Errorf("bad fen status = %d", code)
	}
}
