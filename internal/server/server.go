// Package server exposes the engine over a small JSON HTTP API.
package server

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hailam/chesscore/internal/board"
	"github.com/hailam/chesscore/internal/engine"
)

const (
	defaultDepth = 8
	maxDepth     = engine.MaxPly - 1
	maxMoveTime  = 60 * time.Second
)

// Config configures the HTTP server.
type Config struct {
	// DefaultTime caps a request that gives neither depth nor time_ms.
	DefaultTime time.Duration
	Logger      zerolog.Logger
}

// AnalyzeRequest is the body of POST /api/analyze.
type AnalyzeRequest struct {
	FEN     string `json:"fen"`
	Depth   int    `json:"depth"`
	TimeMS  int    `json:"time_ms"`
	Threads int    `json:"threads"`
}

// AnalyzeResponse is the result of an analysis.
type AnalyzeResponse struct {
	ID       uuid.UUID `json:"id"`
	BestMove string    `json:"best_move"`
	Score    int       `json:"score"`
	Display  string    `json:"display"`
	Depth    int       `json:"depth"`
	Nodes    uint64    `json:"nodes"`
	PV       []string  `json:"pv"`
	PVSAN    []string  `json:"pv_san"`
	TimeMS   int64     `json:"time_ms"`
	Terminal string    `json:"terminal,omitempty"`
	FromBook bool      `json:"from_book"`
}

// LegalResponse lists the legal moves of a position.
type LegalResponse struct {
	FEN   string   `json:"fen"`
	Moves []string `json:"moves"`
	SAN   []string `json:"san"`
	Check bool     `json:"check"`
}

// Server handles analysis requests with a shared engine.
type Server struct {
	engine *engine.Engine
	cfg    Config
	log    zerolog.Logger
}

// New creates a server around eng.
func New(eng *engine.Engine, cfg Config) *Server {
	if cfg.DefaultTime <= 0 {
		cfg.DefaultTime = 2 * time.Second
	}
	return &Server{
		engine: eng,
		cfg:    cfg,
		log:    cfg.Logger.With().Str("component", "http").Logger(),
	}
}

// App builds the fiber application with all routes registered.
func (s *Server) App() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "chesscore",
		DisableStartupMessage: true,
		ErrorHandler:          s.handleError,
	})
	app.Use(recover.New())
	app.Use(s.logRequests)

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api")
	api.Post("/analyze", s.Analyze)
	api.Get("/legal", s.Legal)
	return app
}

func (s *Server) logRequests(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()
	s.log.Debug().
		Str("method", c.Method()).
		Str("path", c.Path()).
		Int("status", c.Response().StatusCode()).
		Dur("elapsed", time.Since(start)).
		Msg("request")
	return err
}

func (s *Server) handleError(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	if code >= fiber.StatusInternalServerError {
		s.log.Error().Err(err).Str("path", c.Path()).Msg("request failed")
	}
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}

func badRequest(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
}

// Analyze searches the requested position and returns the best move.
func (s *Server) Analyze(c *fiber.Ctx) error {
	var req AnalyzeRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, err)
	}
	if req.FEN == "" {
		req.FEN = board.StartFEN
	}
	pos, err := board.ParseFEN(req.FEN)
	if err != nil {
		return badRequest(c, err)
	}
	if req.Depth < 0 || req.TimeMS < 0 || req.Threads < 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "depth, time_ms and threads must not be negative",
		})
	}

	limits := engine.Limits{
		MaxDepth: min(req.Depth, maxDepth),
		Threads:  min(req.Threads, engine.MaxThreads),
	}
	if req.TimeMS > 0 {
		limits.TimeLimit = min(time.Duration(req.TimeMS)*time.Millisecond, maxMoveTime)
	}
	if limits.MaxDepth == 0 && limits.TimeLimit == 0 {
		limits.MaxDepth = defaultDepth
		limits.TimeLimit = s.cfg.DefaultTime
	}

	ctx, cancel := context.WithCancel(c.UserContext())
	defer cancel()
	res, err := s.engine.FindBestMove(ctx, pos, limits)
	if err != nil {
		return err
	}

	resp := AnalyzeResponse{
		ID:       res.ID,
		BestMove: res.Move.String(),
		Score:    res.Score,
		Display:  engine.ScoreToString(res.Score),
		Depth:    res.Depth,
		Nodes:    res.Nodes,
		PV:       make([]string, 0, len(res.PV)),
		PVSAN:    pos.SANLine(res.PV),
		TimeMS:   res.Elapsed.Milliseconds(),
		Terminal: res.Terminal.String(),
		FromBook: res.FromBook,
	}
	for _, m := range res.PV {
		resp.PV = append(resp.PV, m.String())
	}
	return c.JSON(resp)
}

// Legal returns the legal moves of the position in the fen query
// parameter, or of the start position when it is absent.
func (s *Server) Legal(c *fiber.Ctx) error {
	fen := c.Query("fen", board.StartFEN)
	pos, err := board.ParseFEN(fen)
	if err != nil {
		return badRequest(c, err)
	}
	moves := pos.LegalMoves()
	resp := LegalResponse{
		FEN:   pos.FEN(),
		Moves: make([]string, 0, len(moves)),
		SAN:   make([]string, 0, len(moves)),
		Check: pos.InCheck(),
	}
	for _, m := range moves {
		resp.Moves = append(resp.Moves, m.String())
		resp.SAN = append(resp.SAN, pos.SAN(m))
	}
	return c.JSON(resp)
}
