// ABOUTME: Configuration loading for interview-gateway from the environment
// ABOUTME: Produces immutable snapshots; reload builds a fresh snapshot and callers swap the pointer

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Placeholder values shipped in .env.example that count as "not configured".
const (
	apiKeyPlaceholder    = "your_gemini_api_key_here"
	secretKeyPlaceholder = "your-secret-key-here"
)

// DefaultModel is the Gemini model used when GEMINI_MODEL is unset.
const DefaultModel = "gemini-2.0-flash"

// SystemPrompt frames every answer-generation request sent to the provider.
const SystemPrompt = `You are a professional interview assistant. Your job is to help the user answer interview questions.

Follow these principles:
1. Give concise, professional answers
2. Highlight key skills and experience
3. Use concrete examples
4. Stay confident without overstating
5. Keep answers logical and well structured

Given the interviewer's question, suggest a suitable answer.`

// Config is an immutable snapshot of the gateway configuration.
// Reloading never mutates an existing snapshot: build a new one with Load
// and atomically swap the reference (dependents such as the answer provider
// are reconstructed from the new snapshot).
type Config struct {
	// Gemini API
	GeminiAPIKey string
	GeminiModel  string

	// Server
	Host string
	Port int

	// CORS allow-list; "*" allows any origin
	CORSOrigins []string

	Environment string
	Debug       bool
	SecretKey   string

	// Logging
	LogLevel  string
	LogFormat string

	// History flags (surface only; the store does not enforce trimming)
	SaveConversationHistory bool
	MaxConversationHistory  int

	// Rate limiting flags (surface only, not enforced)
	RateLimitEnabled     bool
	MaxRequestsPerMinute int
}

// Load reads a .env file (if present) for the current environment and builds
// a config snapshot from environment variables. Every call re-reads the
// environment, so Load doubles as the reload operation.
func Load() (*Config, error) {
	loadEnvFile()

	port, err := envInt("PORT", 5001)
	if err != nil {
		return nil, err
	}
	maxHistory, err := envInt("MAX_CONVERSATION_HISTORY", 100)
	if err != nil {
		return nil, err
	}
	maxRPM, err := envInt("MAX_REQUESTS_PER_MINUTE", 60)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		GeminiAPIKey:            os.Getenv("GEMINI_API_KEY"),
		GeminiModel:             envString("GEMINI_MODEL", DefaultModel),
		Host:                    envString("HOST", "0.0.0.0"),
		Port:                    port,
		CORSOrigins:             splitOrigins(envString("CORS_ORIGINS", "*")),
		Environment:             envString("APP_ENV", "development"),
		Debug:                   envBool("DEBUG", true),
		SecretKey:               envString("SECRET_KEY", secretKeyPlaceholder),
		LogLevel:                strings.ToLower(envString("LOG_LEVEL", "info")),
		LogFormat:               strings.ToLower(envString("LOG_FORMAT", "text")),
		SaveConversationHistory: envBool("SAVE_CONVERSATION_HISTORY", true),
		MaxConversationHistory:  maxHistory,
		RateLimitEnabled:        envBool("RATE_LIMIT_ENABLED", false),
		MaxRequestsPerMinute:    maxRPM,
	}

	return cfg, nil
}

// loadEnvFile loads the .env file matching APP_ENV into the process
// environment. Existing environment variables are not overridden, and a
// missing file is not an error.
func loadEnvFile() {
	env := os.Getenv("APP_ENV")
	candidates := []string{".env"}
	switch env {
	case "production":
		candidates = []string{".env.production", ".env"}
	case "development":
		candidates = []string{".env.development", ".env"}
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

// Addr returns the host:port listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// APIKeyConfigured reports whether a real Gemini API key is set.
func (c *Config) APIKeyConfigured() bool {
	return c.GeminiAPIKey != "" && c.GeminiAPIKey != apiKeyPlaceholder
}

// SecretKeyConfigured reports whether the secret key is set to a non-placeholder value.
func (c *Config) SecretKeyConfigured() bool {
	return c.SecretKey != "" && c.SecretKey != secretKeyPlaceholder
}

// IsProduction reports whether the gateway runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// IsDevelopment reports whether the gateway runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// Validate returns human-readable warnings about the configuration.
// None of them are fatal: the gateway degrades (no answer generation)
// rather than refusing to start.
func (c *Config) Validate() []string {
	var warnings []string

	if !c.APIKeyConfigured() {
		warnings = append(warnings, "Gemini API key not configured, answer generation will be unavailable")
	}
	if !c.SecretKeyConfigured() {
		warnings = append(warnings, "SECRET_KEY should be configured (run: interview-gateway generate-key)")
	}
	if c.IsProduction() {
		if c.Debug {
			warnings = append(warnings, "DEBUG should be disabled in production")
		}
		if c.allowsAnyOrigin() {
			warnings = append(warnings, "CORS_ORIGINS should list specific origins in production")
		}
	}

	return warnings
}

// Sanitized returns the config echo exposed over HTTP. Key material is never
// included, only whether it is configured.
func (c *Config) Sanitized() map[string]any {
	return map[string]any{
		"environment":           c.Environment,
		"debug":                 c.Debug,
		"host":                  c.Host,
		"port":                  c.Port,
		"api_key_configured":    c.APIKeyConfigured(),
		"secret_key_configured": c.SecretKeyConfigured(),
	}
}

func (c *Config) allowsAnyOrigin() bool {
	for _, o := range c.CORSOrigins {
		if o == "*" {
			return true
		}
	}
	return false
}

// splitOrigins parses the comma-separated CORS_ORIGINS value.
func splitOrigins(raw string) []string {
	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return origins
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parsing %s %q: %w", key, v, err)
	}
	return n, nil
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return strings.EqualFold(v, "true")
}
