// ABOUTME: Gateway orchestrator that wires the HTTP and WebSocket surfaces
// ABOUTME: Owns the config snapshot, store, service, hub, and server lifecycle

package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/2389/interview-gateway/internal/config"
	"github.com/2389/interview-gateway/internal/conversation"
	"github.com/2389/interview-gateway/internal/provider"
	"github.com/2389/interview-gateway/internal/store"
)

// Gateway exposes the conversation service over HTTP and WebSocket.
// The config snapshot is swapped atomically on reload; the provider is
// reconstructed from each new snapshot rather than mutated in place.
type Gateway struct {
	cfg        atomic.Pointer[config.Config]
	store      *store.Store
	service    *conversation.Service
	hub        *conversation.Hub
	httpServer *http.Server
	upgrader   websocket.Upgrader
	logger     *slog.Logger

	// gemini is the concrete client, kept for the startup connection probe.
	// nil when no API key is configured.
	gemini atomic.Pointer[provider.Client]
}

// New creates a gateway from a config snapshot. A missing API key is not an
// error: the gateway starts without answer generation.
func New(cfg *config.Config, logger *slog.Logger) (*Gateway, error) {
	if logger == nil {
		logger = slog.Default()
	}

	st := store.New()
	hub := conversation.NewHub(logger)

	g := &Gateway{
		store:  st,
		hub:    hub,
		logger: logger.With("component", "gateway"),
	}
	g.cfg.Store(cfg)

	var answerer conversation.AnswerProvider
	if client := g.buildProvider(cfg); client != nil {
		g.gemini.Store(client)
		answerer = client
	}
	g.service = conversation.New(st, hub, answerer, logger)

	g.upgrader = websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return originAllowed(g.config().CORSOrigins, r.Header.Get("Origin"))
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", g.handleHealth)
	mux.HandleFunc("/api/question", g.handleQuestion)
	mux.HandleFunc("/api/conversations", g.handleConversations)
	mux.HandleFunc("/api/reload-config", g.handleReloadConfig)
	mux.HandleFunc("/ws", g.handleWebSocket)

	g.httpServer = &http.Server{
		Addr:              cfg.Addr(),
		Handler:           g.corsMiddleware(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return g, nil
}

// config returns the current config snapshot.
func (g *Gateway) config() *config.Config {
	return g.cfg.Load()
}

// Service exposes the conversation service, mainly for tests.
func (g *Gateway) Service() *conversation.Service {
	return g.service
}

// Handler returns the gateway's HTTP handler, mainly for tests.
func (g *Gateway) Handler() http.Handler {
	return g.httpServer.Handler
}

// buildProvider constructs a Gemini client from a config snapshot.
// Returns nil when no usable API key is configured.
func (g *Gateway) buildProvider(cfg *config.Config) *provider.Client {
	if !cfg.APIKeyConfigured() {
		g.logger.Warn("gemini client not initialized: no API key configured")
		return nil
	}
	client, err := provider.New(provider.Options{
		APIKey: cfg.GeminiAPIKey,
		Model:  cfg.GeminiModel,
	}, g.logger)
	if err != nil {
		g.logger.Error("gemini client initialization failed", "error", err)
		return nil
	}
	g.logger.Info("gemini client initialized", "model", cfg.GeminiModel)
	return client
}

// ProbeProvider runs a startup connection test against the provider.
func (g *Gateway) ProbeProvider(ctx context.Context) {
	client := g.gemini.Load()
	if client == nil {
		g.logger.Warn("gemini connection test skipped: client not initialized")
		return
	}
	probeCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if client.TestConnection(probeCtx) {
		g.logger.Info("gemini connection test succeeded")
	} else {
		g.logger.Warn("gemini connection test failed, check configuration")
	}
}

// Run starts the HTTP server and blocks until the context is canceled.
// Returns nil on graceful shutdown, or an error if the server fails.
func (g *Gateway) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", g.config().Addr())
	if err != nil {
		return fmt.Errorf("listening on %s: %w", g.config().Addr(), err)
	}

	errCh := make(chan error, 1)
	go func() {
		g.logger.Info("HTTP server listening", "addr", ln.Addr().String())
		if err := g.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server: %w", err)
		}
	}()

	var serverErr error
	select {
	case <-ctx.Done():
		g.logger.Info("context canceled, initiating shutdown")
	case serverErr = <-errCh:
		g.logger.Error("server error", "error", serverErr)
	}

	shutdownErr := g.gracefulShutdown()
	if serverErr != nil {
		return serverErr
	}
	return shutdownErr
}

// gracefulShutdown performs shutdown with a fresh context and timeout.
// Uses context.Background() intentionally since the run context is already
// canceled.
func (g *Gateway) gracefulShutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return g.Shutdown(ctx)
}

// Shutdown gracefully stops the HTTP server and closes the hub.
func (g *Gateway) Shutdown(ctx context.Context) error {
	g.logger.Info("shutting down gateway")

	err := g.httpServer.Shutdown(ctx)
	g.hub.Close()

	if err != nil {
		return fmt.Errorf("HTTP shutdown: %w", err)
	}
	return nil
}

// corsMiddleware applies the configured origin allow-list and answers
// preflight requests. The allow-list is read per-request so a config reload
// takes effect immediately.
func (g *Gateway) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origins := g.config().CORSOrigins
		origin := r.Header.Get("Origin")

		if allowed := resolveCORSOrigin(origins, origin); allowed != "" {
			w.Header().Set("Access-Control-Allow-Origin", allowed)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// resolveCORSOrigin returns the Access-Control-Allow-Origin value for a
// request origin, or "" when the origin is not allowed.
func resolveCORSOrigin(allowList []string, origin string) string {
	for _, allowed := range allowList {
		if allowed == "*" {
			return "*"
		}
		if origin != "" && allowed == origin {
			return origin
		}
	}
	return ""
}

// originAllowed reports whether a WebSocket origin passes the allow-list.
// Requests without an Origin header (non-browser clients) are allowed.
func originAllowed(allowList []string, origin string) bool {
	if origin == "" {
		return true
	}
	return resolveCORSOrigin(allowList, origin) != ""
}
