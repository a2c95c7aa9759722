/*
Package service is the HTTP transport in front of the orchestration loop.
It exposes a blocking chat endpoint, its streaming twin, and a healthcheck,
and keeps the per-session transcript cache warm around each run.
*/
package service

import (
	"context"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gofiber/fiber/v3"
	fiberadaptor "github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/google/uuid"

	"github.com/cartograph/cartograph/pkg/canvas"
	"github.com/cartograph/cartograph/pkg/orchestrator"
	"github.com/cartograph/cartograph/pkg/prompts"
	"github.com/cartograph/cartograph/pkg/session"
)

/*
Server is safe for concurrent use: the engine is stateless across requests
and the session store synchronizes its own access.
*/
type Server struct {
	app    *fiber.App
	engine *orchestrator.Engine
	store  session.Store
	ttl    time.Duration
}

type ServerOption func(*Server)

func NewServer(engine *orchestrator.Engine, options ...ServerOption) *Server {
	srv := &Server{
		app: fiber.New(fiber.Config{
			AppName:           "cartograph",
			ServerHeader:      "Cartograph",
			StreamRequestBody: true,
		}),
		engine: engine,
		store:  session.NewMemoryStore(),
		ttl:    session.DefaultTTL,
	}

	for _, option := range options {
		option(srv)
	}

	srv.app.Use(logger.New(logger.Config{
		// Skip logging for the stream endpoint to reduce noise
		Next: func(c fiber.Ctx) bool {
			return c.Path() == "/chat/stream"
		},
	}), healthcheck.NewHealthChecker())

	srv.app.Get("/", srv.handleRoot)
	srv.app.Post("/chat", srv.handleChat)
	srv.app.Post("/chat/stream", srv.handleChatStream)

	return srv
}

func WithStore(store session.Store) ServerOption {
	return func(srv *Server) { srv.store = store }
}

func WithSessionTTL(ttl time.Duration) ServerOption {
	return func(srv *Server) { srv.ttl = ttl }
}

func (srv *Server) Start(addr string) error {
	return srv.app.Listen(addr, fiber.ListenConfig{DisableStartupMessage: true})
}

// App exposes the underlying fiber app for in-process testing.
func (srv *Server) App() *fiber.App {
	return srv.app
}

func (srv *Server) handleRoot(ctx fiber.Ctx) error {
	return ctx.SendString("OK")
}

func (srv *Server) handleChat(ctx fiber.Ctx) error {
	var wire ChatRequest
	if err := ctx.Bind().Body(&wire); err != nil {
		return badRequest(ctx, "invalid request body: "+err.Error())
	}

	req, ref, err := srv.buildRequest(ctx, &wire)
	if err != nil {
		return badRequest(ctx, err.Error())
	}

	outcome, err := srv.engine.Run(ctx.Context(), *req, nil)
	if err != nil {
		return badRequest(ctx, err.Error())
	}

	srv.saveSession(ctx.Context(), ref, outcome)
	return ctx.JSON(fromOutcome(outcome, ref.id))
}

/*
handleChatStream runs the same loop but mirrors every transition over SSE.
The response body is the event sequence alone; the terminal end event
carries the full final-or-suspension shape. Fiber hands streaming off to a
net/http handler so the flusher is available per write.
*/
func (srv *Server) handleChatStream(ctx fiber.Ctx) error {
	var wire ChatRequest
	if err := ctx.Bind().Body(&wire); err != nil {
		return badRequest(ctx, "invalid request body: "+err.Error())
	}
	wire.Stream = true

	req, ref, err := srv.buildRequest(ctx, &wire)
	if err != nil {
		return badRequest(ctx, err.Error())
	}

	handler := func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")

		flush := func() {}
		if flusher, ok := w.(http.Flusher); ok {
			flush = flusher.Flush
		}

		sink := newStreamSink(w, flush, ref.id)
		outcome, err := srv.engine.Run(r.Context(), *req, sink)
		if err != nil {
			sink.Error(err.Error())
			return
		}
		srv.saveSession(r.Context(), ref, outcome)
	}

	return fiberadaptor.HTTPHandler(http.HandlerFunc(handler))(ctx)
}

// sessionRef identifies the cache row a run will write back: the id plus
// the version observed before the run, for the optimistic write check.
type sessionRef struct {
	id      string
	version int64
}

/*
buildRequest turns the wire request into a loop request. History priority:
an explicit conversation_history wins, otherwise the cached session is
used when a session id is present. A missing session id gets one minted so
the response can hand it back.
*/
func (srv *Server) buildRequest(ctx fiber.Ctx, wire *ChatRequest) (*orchestrator.Request, sessionRef, error) {
	snap := &canvas.Snapshot{}
	if len(wire.DiagramState) > 0 {
		decoded, err := canvas.Decode(wire.DiagramState)
		if err != nil {
			return nil, sessionRef{}, err
		}
		snap = decoded
	}

	ref := sessionRef{id: wire.SessionID}
	if ref.id == "" {
		ref.id = uuid.New().String()
	}

	history := toMessages(wire.History)
	if wire.SessionID != "" {
		cached, ok, err := srv.store.Get(ctx.Context(), wire.SessionID)
		if err != nil {
			log.Error("session lookup failed", "session", wire.SessionID, "error", err)
		} else if ok {
			ref.version = cached.Version
			if history == nil {
				history = cached.History
			}
		}
	}

	return &orchestrator.Request{
		SessionID:   ref.id,
		System:      prompts.System(snap),
		Message:     wire.Message,
		History:     history,
		Snapshot:    snap,
		ToolResults: toToolResults(wire.ToolResult),
		Stream:      wire.Stream,
	}, ref, nil
}

// saveSession caches the post-run transcript. A version conflict means a
// concurrent request won the write; the loser's state is simply dropped.
func (srv *Server) saveSession(ctx context.Context, ref sessionRef, outcome *orchestrator.Outcome) {
	if srv.store == nil || len(outcome.Transcript) == 0 {
		return
	}

	err := srv.store.Put(ctx, &session.Session{
		ID:         ref.id,
		History:    outcome.Transcript,
		Version:    ref.version,
		LastActive: time.Now(),
	}, srv.ttl)

	switch {
	case err == session.ErrConflict:
		log.Warn("session write lost to a concurrent request", "session", ref.id)
	case err != nil:
		log.Error("failed to cache session", "session", ref.id, "error", err)
	}
}

func badRequest(ctx fiber.Ctx, message string) error {
	return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": message})
}
