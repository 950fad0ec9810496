// Package gateway exposes the companion over HTTP and WebSocket.
package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/vinavi-labs/vinavi/internal/companion"
	"github.com/vinavi-labs/vinavi/internal/config"
	"github.com/vinavi-labs/vinavi/internal/events"
	"github.com/vinavi-labs/vinavi/internal/gateway/ws"
	"github.com/vinavi-labs/vinavi/internal/sessions"
	"github.com/vinavi-labs/vinavi/internal/speech"
)

// Companion is the set of service operations the gateway serves.
type Companion interface {
	CreateSession(ctx context.Context, mode string) (*sessions.Session, error)
	Snapshot(ctx context.Context, id string) (*sessions.Session, error)
	List(ctx context.Context) []sessions.Summary
	CloseSession(ctx context.Context, id string) error
	SwitchMode(ctx context.Context, id, mode string) (*sessions.Session, error)
	Ask(ctx context.Context, id, option, text string) (*companion.Result, error)
	Converse(ctx context.Context, id, text string) (*companion.Result, error)
	Expand(ctx context.Context, id string) (*companion.Result, error)
	StartExercise(ctx context.Context, id string) (*companion.Result, error)
	SubmitAnswers(ctx context.Context, id string, answers []string) (*companion.Result, error)
	ResetExercise(ctx context.Context, id string) (*sessions.Session, error)
	ReadAloud(ctx context.Context, id string, source companion.Source) (*speech.Audio, error)
}

// Server is the Vinavi gateway HTTP server.
type Server struct {
	httpServer *http.Server
	hub        *ws.Hub
	bus        *events.Bus
	svc        Companion
}

// NewServer creates a new gateway server. ui serves every non-API path and
// may be nil.
func NewServer(cfg config.ServerConfig, bus *events.Bus, svc Companion, ui http.Handler) *Server {
	s := &Server{
		bus: bus,
		svc: svc,
	}
	s.hub = ws.NewHub(bus, dispatcher{svc: svc}, originPatterns(cfg.CORSOrigins))

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(cors(cfg.CORSOrigins))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/events", s.handleEvents)
		r.Get("/ws", s.hub.ServeWS)

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", s.handleCreateSession)
			r.Get("/", s.handleListSessions)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetSession)
				r.Delete("/", s.handleDeleteSession)
				r.Put("/mode", s.handleSwitchMode)
				r.Post("/ask", s.handleAsk)
				r.Post("/converse", s.handleConverse)
				r.Post("/expand", s.handleExpand)
				r.Post("/exercise", s.handleStartExercise)
				r.Post("/exercise/answers", s.handleSubmitAnswers)
				r.Delete("/exercise", s.handleResetExercise)
				r.Get("/speech", s.handleSpeech)
			})
		})
	})

	if ui != nil {
		r.Handle("/*", ui)
	}

	s.httpServer = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler: r,
	}

	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start begins listening. It blocks until the server is stopped.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	slog.Info("vinavi gateway listening", "addr", ln.Addr().String())
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.hub.Close()
	return s.httpServer.Shutdown(ctx)
}
