// Package server exposes the chat orchestrator over HTTP.
//
// Routes:
//
//   - POST /chat: {"message", "session_id"} in, {"reply", "session_id"} out.
//   - GET /: the embedded chat page and its script.
//   - GET /healthz, GET /readyz: liveness and readiness (see package health).
//   - GET /metrics: Prometheus scrape endpoint, when configured.
//
// Every route runs behind the observe middleware and the CORS middleware.
package server

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/ZuhaMK/Flight-AI/internal/health"
	"github.com/ZuhaMK/Flight-AI/internal/observe"
)

// EmptyMessageReply is returned with 200 OK when the request carries no text.
const EmptyMessageReply = "Please enter a message."

// maxBodyBytes bounds a /chat request body.
const maxBodyBytes = 64 << 10

//go:embed web
var webFS embed.FS

// Chatter runs one chat turn for a session. An empty sessionID starts a new
// session; the returned id names the session the turn was recorded under.
type Chatter interface {
	Chat(ctx context.Context, sessionID, text string) (reply, id string, err error)
}

// ChatRequest is the POST /chat request body.
type ChatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id,omitempty"`
}

// ChatResponse is the POST /chat response body.
type ChatResponse struct {
	Reply     string `json:"reply"`
	SessionID string `json:"session_id,omitempty"`
}

// Server serves the chat API.
type Server struct {
	chat            Chatter
	origins         []string
	health          *health.Handler
	metricsHandler  http.Handler
	metrics         *observe.Metrics
	shutdownTimeout time.Duration
}

// Option configures a [Server].
type Option func(*Server)

// WithCORSOrigins sets the allowed CORS origins. "*" allows any origin.
// Default: "*".
func WithCORSOrigins(origins ...string) Option {
	return func(s *Server) { s.origins = origins }
}

// WithHealth mounts /healthz and /readyz from h.
func WithHealth(h *health.Handler) Option {
	return func(s *Server) { s.health = h }
}

// WithMetricsHandler mounts h at GET /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) { s.metricsHandler = h }
}

// WithMetrics sets the instruments used by the request middleware.
// Default: [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithShutdownTimeout bounds graceful shutdown in [Server.ListenAndServe].
// Default: 10s.
func WithShutdownTimeout(d time.Duration) Option {
	return func(s *Server) { s.shutdownTimeout = d }
}

// New returns a [Server] that answers /chat with chat.
func New(chat Chatter, opts ...Option) *Server {
	s := &Server{
		chat:            chat,
		origins:         []string{"*"},
		shutdownTimeout: 10 * time.Second,
	}
	for _, o := range opts {
		o(s)
	}
	if s.metrics == nil {
		s.metrics = observe.DefaultMetrics()
	}
	return s
}

// Handler returns the fully wrapped route tree.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /chat", s.handleChat)

	static, err := fs.Sub(webFS, "web")
	if err != nil {
		panic(err) // embedded directory is fixed at build time
	}
	files := http.FileServerFS(static)
	mux.Handle("GET /{$}", files)
	mux.Handle("GET /app.js", files)

	if s.health != nil {
		s.health.Register(mux)
	}
	if s.metricsHandler != nil {
		mux.Handle("GET /metrics", s.metricsHandler)
	}

	return observe.Middleware(s.metrics)(cors(s.origins)(mux))
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully. It returns nil after a clean shutdown.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is [Server.ListenAndServe] on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      120 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("chat server listening", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down chat server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	slog.Info("chat server stopped")
	return nil
}

// ── Handlers ──────────────────────────────────────────────────────────────────

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	log := observe.Logger(r.Context())

	var req ChatRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ChatResponse{Reply: "Error: invalid request body"})
		return
	}

	text := strings.TrimSpace(req.Message)
	if text == "" {
		writeJSON(w, http.StatusOK, ChatResponse{Reply: EmptyMessageReply, SessionID: req.SessionID})
		return
	}

	log.Info("chat message", "session_id", req.SessionID, "chars", len(text))
	reply, id, err := s.chat.Chat(r.Context(), req.SessionID, text)
	if err != nil {
		log.Error("chat turn failed", "session_id", req.SessionID, "err", err)
		writeJSON(w, http.StatusInternalServerError, ChatResponse{Reply: "Error: " + err.Error(), SessionID: id})
		return
	}
	log.Debug("chat reply", "session_id", id, "reply", reply)
	writeJSON(w, http.StatusOK, ChatResponse{Reply: reply, SessionID: id})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
