// Package app wires all Flight-AI subsystems into a running application.
//
// The App struct owns the full lifecycle: New creates and connects all
// subsystems, Run serves the HTTP chat API, and Shutdown tears everything
// down in order.
//
// For testing, inject mock implementations via functional options
// (WithSessionStore, WithPriceLookup, etc.). When an option is not provided,
// New creates real implementations from the config.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ZuhaMK/Flight-AI/internal/config"
	"github.com/ZuhaMK/Flight-AI/internal/conversation"
	"github.com/ZuhaMK/Flight-AI/internal/health"
	"github.com/ZuhaMK/Flight-AI/internal/iata"
	"github.com/ZuhaMK/Flight-AI/internal/mcpserver"
	"github.com/ZuhaMK/Flight-AI/internal/observe"
	"github.com/ZuhaMK/Flight-AI/internal/resilience"
	"github.com/ZuhaMK/Flight-AI/internal/server"
	"github.com/ZuhaMK/Flight-AI/internal/session"
	"github.com/ZuhaMK/Flight-AI/internal/session/postgres"
	"github.com/ZuhaMK/Flight-AI/internal/tools"
	"github.com/ZuhaMK/Flight-AI/pkg/flightprices"
	"github.com/ZuhaMK/Flight-AI/pkg/provider/llm"
)

// NamedLLM is an LLM provider together with the name it was configured under.
type NamedLLM struct {
	Name     string
	Provider llm.Provider
}

// Providers holds the LLM providers built by main.go via the config registry.
// LLM is required; Fallbacks are tried in order when it fails.
type Providers struct {
	LLM       NamedLLM
	Fallbacks []NamedLLM
}

// App owns all subsystem lifetimes.
type App struct {
	cfg       *config.Config
	providers *Providers

	// Subsystems, initialised in New.
	llm      *resilience.LLMFallback
	prices   tools.PriceLookup
	tools    *tools.Registry
	orch     *conversation.Orchestrator
	store    session.Store
	sessions *session.Manager
	health   *health.Handler
	metrics  *observe.Metrics
	scrape   http.Handler

	// closers are called in order during Shutdown.
	closers []func() error

	stopOnce sync.Once
}

// Option is a functional option for New. Use these to inject test doubles.
type Option func(*App)

// WithSessionStore injects a session store instead of creating one from config.
func WithSessionStore(s session.Store) Option {
	return func(a *App) { a.store = s }
}

// WithPriceLookup injects the flight price source instead of a
// [flightprices.Client] built from config.
func WithPriceLookup(p tools.PriceLookup) Option {
	return func(a *App) { a.prices = p }
}

// WithMetrics records to m instead of [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(a *App) { a.metrics = m }
}

// WithMetricsHandler serves h at /metrics instead of the default Prometheus
// registry handler.
func WithMetricsHandler(h http.Handler) Option {
	return func(a *App) { a.scrape = h }
}

// ─── New ─────────────────────────────────────────────────────────────────────

// New creates an App by wiring all subsystems together. The providers struct
// comes from main.go (populated via the config registry).
func New(ctx context.Context, cfg *config.Config, providers *Providers, opts ...Option) (*App, error) {
	if providers == nil || providers.LLM.Provider == nil {
		return nil, fmt.Errorf("app: an LLM provider is required")
	}

	a := &App{
		cfg:       cfg,
		providers: providers,
	}
	for _, o := range opts {
		o(a)
	}
	if a.metrics == nil {
		a.metrics = observe.DefaultMetrics()
	}
	if a.scrape == nil {
		a.scrape = promhttp.Handler()
	}

	// ── 1. LLM failover chain ────────────────────────────────────────────
	a.initLLM()

	// ── 2. Tool registry ─────────────────────────────────────────────────
	a.initTools()

	// ── 3. Orchestrator ──────────────────────────────────────────────────
	a.orch = conversation.NewOrchestrator(a.llm, a.tools,
		conversation.WithMetrics(a.metrics),
		conversation.WithProviderName(providers.LLM.Name),
	)

	// ── 4. Session store + manager ───────────────────────────────────────
	if err := a.initSessions(ctx); err != nil {
		return nil, fmt.Errorf("app: init sessions: %w", err)
	}

	// ── 5. Health ────────────────────────────────────────────────────────
	a.health = health.New(
		health.PingCheck("sessions", a.sessions),
		health.Checker{Name: "llm", Check: a.llm.Check},
	)

	return a, nil
}

// ─── Init helpers ────────────────────────────────────────────────────────────

// initLLM wraps the configured providers in a circuit-breaking fallback chain.
func (a *App) initLLM() {
	a.llm = resilience.NewLLMFallback(a.providers.LLM.Provider, a.providers.LLM.Name, resilience.FallbackConfig{})
	for _, fb := range a.providers.Fallbacks {
		a.llm.AddFallback(fb.Name, fb.Provider)
	}
	caps := a.llm.Capabilities()
	slog.Info("llm chain ready", "providers", a.llm.Names(), "context_window", caps.ContextWindow)
	if !caps.SupportsToolCalling {
		slog.Warn("llm chain includes a model without tool calling; flight lookups may be ignored", "providers", a.llm.Names())
	}
}

// initTools builds the flight price client and the tool registry.
func (a *App) initTools() {
	fc := a.cfg.Flights
	if a.prices == nil {
		opts := []flightprices.Option{
			flightprices.WithRetry(resilience.RetryConfig{
				MaxAttempts:    fc.MaxAttempts,
				Backoff:        fc.Backoff,
				MaxBackoff:     fc.MaxBackoff,
				AttemptTimeout: fc.Timeout,
			}),
		}
		if fc.BaseURL != "" {
			opts = append(opts, flightprices.WithBaseURL(fc.BaseURL))
		}
		a.prices = flightprices.New(fc.APIToken, opts...)
	}

	var opts []tools.Option
	if fc.ResolveLocations == nil || *fc.ResolveLocations {
		opts = append(opts, tools.WithLocationResolver(iata.New()))
	}
	a.tools = tools.NewRegistry(a.prices, opts...)
}

// initSessions sets up the PostgreSQL store when a DSN is configured and the
// in-memory store otherwise, then the session manager on top of it.
func (a *App) initSessions(ctx context.Context) error {
	if a.store == nil {
		if dsn := a.cfg.Sessions.PostgresDSN; dsn != "" {
			store, err := postgres.NewStore(ctx, dsn)
			if err != nil {
				return err
			}
			a.store = store
			a.closers = append(a.closers, func() error {
				store.Close()
				return nil
			})
			slog.Info("session store ready", "backend", "postgres")
		} else {
			a.store = session.NewMemoryStore()
			slog.Info("session store ready", "backend", "memory")
		}
	}

	mode, err := session.ParseMode(string(a.cfg.Conversation.Mode))
	if err != nil {
		return err
	}

	opts := []session.ManagerOption{
		session.WithStore(a.store),
		session.WithMode(mode),
		session.WithManagerMetrics(a.metrics),
	}
	if p := a.cfg.Conversation.SystemPrompt; p != "" {
		opts = append(opts, session.WithSystemPrompt(p))
	}
	if n := a.cfg.Conversation.HistoryTokens; n > 0 {
		opts = append(opts, session.WithHistoryBudget(n, a.llm))
	}
	a.sessions = session.NewManager(a.orch, opts...)
	return nil
}

// ─── Accessors ───────────────────────────────────────────────────────────────

// Chat runs one turn in the given session. See [session.Manager.Chat].
func (a *App) Chat(ctx context.Context, sessionID, text string) (reply, id string, err error) {
	return a.sessions.Chat(ctx, sessionID, text)
}

// Sessions returns the session manager.
func (a *App) Sessions() *session.Manager { return a.sessions }

// Tools returns the tool registry.
func (a *App) Tools() *tools.Registry { return a.tools }

// Health returns the health handler.
func (a *App) Health() *health.Handler { return a.health }

// MCPServer returns an MCP server exposing the tool registry.
func (a *App) MCPServer() *mcpserver.Server {
	return mcpserver.New(a.tools, mcpserver.WithMetrics(a.metrics))
}

// HTTPServer returns the chat API server configured from cfg.Server.
func (a *App) HTTPServer() *server.Server {
	opts := []server.Option{
		server.WithCORSOrigins(a.cfg.Server.CORSOrigins...),
		server.WithHealth(a.health),
		server.WithMetricsHandler(a.scrape),
		server.WithMetrics(a.metrics),
	}
	if d := a.cfg.Server.ShutdownTimeout; d > 0 {
		opts = append(opts, server.WithShutdownTimeout(d))
	}
	return server.New(a, opts...)
}

// ─── Run ─────────────────────────────────────────────────────────────────────

// Run serves the HTTP chat API on cfg.Server.ListenAddr and blocks until ctx
// is cancelled and the server has drained.
func (a *App) Run(ctx context.Context) error {
	slog.Info("app running",
		"listen_addr", a.cfg.Server.ListenAddr,
		"mode", a.cfg.Conversation.Mode,
		"tools", len(a.tools.Definitions()),
	)
	if err := a.HTTPServer().ListenAndServe(ctx, a.cfg.Server.ListenAddr); err != nil {
		return fmt.Errorf("app: serve: %w", err)
	}
	return ctx.Err()
}

// ─── Shutdown ────────────────────────────────────────────────────────────────

// Shutdown tears down all subsystems in init order. It respects the context
// deadline: if ctx expires before all closers finish, remaining closers are
// skipped and the context error is returned.
func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error
	a.stopOnce.Do(func() {
		slog.Info("shutting down", "closers", len(a.closers))

		for i, closer := range a.closers {
			select {
			case <-ctx.Done():
				slog.Warn("shutdown deadline exceeded", "remaining", len(a.closers)-i)
				shutdownErr = ctx.Err()
				return
			default:
			}
			if err := closer(); err != nil {
				slog.Warn("closer error", "index", i, "err", err)
			}
		}

		slog.Info("shutdown complete")
	})
	return shutdownErr
}
