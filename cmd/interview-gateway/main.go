// ABOUTME: Entry point for the interview-gateway server
// ABOUTME: Forwards interview questions to Gemini and pushes updates to realtime clients

package main

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/fatih/color"

	"github.com/2389/interview-gateway/internal/config"
	"github.com/2389/interview-gateway/internal/gateway"
)

// Version is set by goreleaser at build time.
var version = "dev"

const banner = `
 _       _                  _                             _
(_)_ __ | |_ ___ _ ____   _(_) _____      __   __ ___  _| |_ _____      ____ _ _   _
| | '_ \| __/ _ \ '__\ \ / / |/ _ \ \ /\ / /__/ _' |/ _' | __/ _ \ \ /\ / / _' | | | |
| | | | | ||  __/ |   \ V /| |  __/\ V  V /__| (_| | (_| | ||  __/\ V  V / (_| | |_| |
|_|_| |_|\__\___|_|    \_/ |_|\___| \_/\_/    \__, |\__,_|\__\___| \_/\_/ \__,_|\__, |
                                              |___/                             |___/
`

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: interview-gateway <command>")
		fmt.Println()
		fmt.Println("Commands:")
		fmt.Println("  serve            Start the gateway server")
		fmt.Println("  health           Check gateway health")
		fmt.Println("  validate-config  Validate the current configuration")
		fmt.Println("  generate-key     Generate a secret key for SECRET_KEY")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(ctx)
	case "health":
		err = runHealth(ctx)
	case "validate-config":
		err = runValidateConfig()
	case "generate-key":
		err = runGenerateKey()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runServe(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := setupLogger(cfg)

	cyan := color.New(color.FgCyan)
	cyan.Print(banner)
	gray := color.New(color.FgHiBlack)
	gray.Printf("    version: %s\n\n", version)

	green := color.New(color.FgGreen)
	green.Print("    ▶ ")
	fmt.Printf("Listen:      %s\n", cfg.Addr())
	green.Print("    ▶ ")
	fmt.Printf("Environment: %s\n", cfg.Environment)
	green.Print("    ▶ ")
	fmt.Printf("Model:       %s\n", cfg.GeminiModel)
	fmt.Println()

	yellow := color.New(color.FgYellow)
	for _, warning := range cfg.Validate() {
		yellow.Print("    ⚠ ")
		fmt.Println(warning)
	}
	fmt.Println()

	logger.Info("starting interview-gateway",
		"addr", cfg.Addr(),
		"environment", cfg.Environment,
		"model", cfg.GeminiModel,
	)

	gw, err := gateway.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("creating gateway: %w", err)
	}

	gw.ProbeProvider(ctx)

	return gw.Run(ctx)
}

func runHealth(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	url := fmt.Sprintf("http://%s/health", cfg.Addr())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unhealthy: status %d", resp.StatusCode)
	}

	fmt.Println("healthy")
	return nil
}

func runValidateConfig() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	warnings := cfg.Validate()
	if len(warnings) == 0 {
		color.Green("configuration OK")
	}
	for _, warning := range warnings {
		color.Yellow("warning: %s", warning)
	}

	fmt.Println()
	fmt.Println("Configuration summary:")
	for key, value := range cfg.Sanitized() {
		fmt.Printf("  %s: %v\n", key, value)
	}
	return nil
}

func runGenerateKey() error {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Errorf("generating key: %w", err)
	}
	key := base64.RawURLEncoding.EncodeToString(buf)
	fmt.Println(key)
	fmt.Fprintln(os.Stderr, "Copy this value into the SECRET_KEY entry of your .env file")
	return nil
}

func setupLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	if cfg.Debug && level > slog.LevelDebug {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = &colorHandler{
			level: level,
		}
	}

	return slog.New(handler)
}

// colorHandler provides colorized log output with thread-safe writes.
type colorHandler struct {
	mu     sync.Mutex
	level  slog.Level
	attrs  []slog.Attr
	groups []string
}

func (h *colorHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *colorHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	var buf strings.Builder

	buf.WriteString(color.HiBlackString(r.Time.Format("15:04:05") + " "))

	switch r.Level {
	case slog.LevelDebug:
		buf.WriteString(color.MagentaString("DBG "))
	case slog.LevelInfo:
		buf.WriteString(color.CyanString("INF "))
	case slog.LevelWarn:
		buf.WriteString(color.YellowString("WRN "))
	case slog.LevelError:
		buf.WriteString(color.New(color.FgRed, color.Bold).Sprint("ERR "))
	default:
		buf.WriteString("??? ")
	}

	buf.WriteString(r.Message)

	for _, a := range h.attrs {
		buf.WriteString(color.HiBlackString(" " + a.Key + "="))
		buf.WriteString(a.Value.String())
	}

	r.Attrs(func(a slog.Attr) bool {
		buf.WriteString(color.HiBlackString(" " + a.Key + "="))
		buf.WriteString(a.Value.String())
		return true
	})

	buf.WriteString("\n")
	fmt.Print(buf.String())
	return nil
}

func (h *colorHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newAttrs := make([]slog.Attr, len(h.attrs), len(h.attrs)+len(attrs))
	copy(newAttrs, h.attrs)
	newAttrs = append(newAttrs, attrs...)
	return &colorHandler{
		level:  h.level,
		attrs:  newAttrs,
		groups: h.groups,
	}
}

func (h *colorHandler) WithGroup(name string) slog.Handler {
	newGroups := make([]string, len(h.groups), len(h.groups)+1)
	copy(newGroups, h.groups)
	newGroups = append(newGroups, name)
	return &colorHandler{
		level:  h.level,
		attrs:  h.attrs,
		groups: newGroups,
	}
}
