// Package config provides configuration management for the trading
// pipeline. It loads settings from environment variables and .env files.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// TradingMode represents the operating mode of the trading engine.
type TradingMode string

const (
	// ModeDryRun routes orders to the in-memory paper broker.
	ModeDryRun TradingMode = "dry_run"
	// ModeLive routes orders to the real Alpaca account.
	ModeLive TradingMode = "live"
)

// validLogLevels is the set of accepted zerolog log levels.
var validLogLevels = map[string]bool{
	"trace": true, "debug": true, "info": true,
	"warn": true, "error": true, "fatal": true,
	"panic": true, "disabled": true,
}

// validStrategies is the set of recognized strategy names that may
// appear in ENABLED_STRATEGIES.
var validStrategies = map[string]bool{
	"ma_crossover": true,
}

// ValidationError holds multiple configuration validation errors. It
// aggregates all issues so operators can fix everything in one pass.
type ValidationError struct {
	Errors []string
}

// Error returns a formatted multi-line error message listing all issues.
func (ve *ValidationError) Error() string {
	return fmt.Sprintf("%d configuration error(s):\n  - %s",
		len(ve.Errors), strings.Join(ve.Errors, "\n  - "))
}

// ReloadChange describes a single configuration change detected during hot-reload.
type ReloadChange struct {
	Field    string      `json:"field"`
	OldValue interface{} `json:"old_value"`
	NewValue interface{} `json:"new_value"`
	Applied  bool        `json:"applied"`
}

// ReloadResult summarizes what happened during a configuration hot-reload.
type ReloadResult struct {
	Changes         []ReloadChange `json:"changes"`
	RequiresRestart bool           `json:"requires_restart"`
	RestartReasons  []string       `json:"restart_reasons,omitempty"`
}

// Config holds all configuration for the trading pipeline.
type Config struct {
	mu sync.RWMutex // protects hot-reloadable fields during concurrent access

	// Server settings
	ServerPort int
	ServerHost string

	// TradingAPIKey authenticates the /api/v1 routes (Authorization:
	// Bearer). The /, /health and /events routes are served without it.
	TradingAPIKey string

	// CORS settings
	AllowedOrigins []string

	// Trading settings
	TradingMode TradingMode

	// Alpaca broker credentials
	AlpacaAPIKey    string
	AlpacaSecretKey string
	AlpacaBaseURL   string

	// Advisory service: absent OpenAIAPIKey runs the advisory service in
	// disabled-stub mode.
	OpenAIAPIKey string

	// Audit sink persistence path (SQLite file).
	DatabaseURL string

	// Logging
	LogLevel string

	// Dynamic Configuration
	EnabledStrategies []string

	// Shutdown settings
	CloseOnShutdown bool
	ShutdownTimeout time.Duration

	// Internal settings
	EnvFile string
}

// Load reads configuration from environment variables and .env files and
// validates it, exiting the caller's responsibility to act on a non-nil
// error (the launcher exits non-zero on required vars missing).
func Load() (*Config, error) {
	_ = godotenv.Load()

	config := &Config{
		ServerPort:    getEnvInt("PORT", 8099),
		ServerHost:    getEnv("HOST", "0.0.0.0"),
		TradingAPIKey: os.Getenv("TRADING_API_KEY"),
		TradingMode:   TradingMode(getEnv("TRADING_MODE", "dry_run")),

		AlpacaAPIKey:    os.Getenv("ALPACA_API_KEY"),
		AlpacaSecretKey: os.Getenv("ALPACA_SECRET_KEY"),
		AlpacaBaseURL:   getEnv("ALPACA_BASE_URL", "https://paper-api.alpaca.markets"),

		OpenAIAPIKey: os.Getenv("OPENAI_API_KEY"),
		DatabaseURL:  getEnv("DATABASE_URL", "./data/audit.db"),

		LogLevel: getEnv("LOG_LEVEL", "info"),

		AllowedOrigins: parseList(getEnv("ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:8080")),

		EnabledStrategies: parseList(getEnv("ENABLED_STRATEGIES", "ma_crossover")),

		EnvFile: ".env",

		CloseOnShutdown: getEnv("CLOSE_ON_SHUTDOWN", "true") == "true",
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// Validate performs comprehensive configuration validation with
// fail-fast behavior. All errors are aggregated and returned as a single
// ValidationError so operators can fix everything in one pass.
//
// Required: ALPACA_API_KEY, ALPACA_SECRET_KEY, TRADING_API_KEY. Optional:
// DATABASE_URL, OPENAI_API_KEY.
func (c *Config) Validate() error {
	var errs []string

	if c.TradingMode != ModeDryRun && c.TradingMode != ModeLive {
		errs = append(errs,
			fmt.Sprintf("invalid TRADING_MODE '%s': must be 'dry_run' or 'live'", c.TradingMode))
	}

	if c.ServerPort < 1 || c.ServerPort > 65535 {
		errs = append(errs,
			fmt.Sprintf("invalid PORT %d: must be between 1 and 65535", c.ServerPort))
	}

	if c.DatabaseURL == "" {
		errs = append(errs, "DATABASE_URL is empty: set DATABASE_URL in .env (e.g., DATABASE_URL=./data/audit.db)")
	}

	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs,
			fmt.Sprintf("invalid LOG_LEVEL '%s': must be one of trace, debug, info, warn, error, fatal, panic, disabled", c.LogLevel))
	}

	if c.TradingAPIKey == "" {
		errs = append(errs, "TRADING_API_KEY is required: set TRADING_API_KEY in .env to authenticate the HTTP surface")
	}

	if c.AlpacaAPIKey == "" {
		errs = append(errs, "ALPACA_API_KEY is required: set ALPACA_API_KEY in .env")
	}
	if c.AlpacaSecretKey == "" {
		errs = append(errs, "ALPACA_SECRET_KEY is required: set ALPACA_SECRET_KEY in .env")
	}

	errs = append(errs, c.validateStrategies()...)

	if len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}
	return nil
}

// validateStrategies checks that all enabled strategy names are recognized.
func (c *Config) validateStrategies() []string {
	var errs []string
	for _, name := range c.EnabledStrategies {
		if !validStrategies[name] {
			available := make([]string, 0, len(validStrategies))
			for k := range validStrategies {
				available = append(available, k)
			}
			errs = append(errs,
				fmt.Sprintf("unknown strategy '%s' in ENABLED_STRATEGIES: available strategies are %v", name, available))
		}
	}
	return errs
}

// IsDryRun returns true if the engine is routing to the paper broker.
func (c *Config) IsDryRun() bool {
	return c.TradingMode == ModeDryRun
}

// IsLive returns true if the engine is routing to the real Alpaca account.
func (c *Config) IsLive() bool {
	return c.TradingMode == ModeLive
}

// AdvisoryEnabled reports whether OPENAI_API_KEY is configured.
func (c *Config) AdvisoryEnabled() bool {
	return c.OpenAIAPIKey != ""
}

// Reload re-reads configuration from environment variables and .env
// files, applying only hot-reloadable fields to the live config.
// Structural fields (server port and host, trading mode, database path,
// enabled strategies) are detected but NOT applied — the returned
// ReloadResult has RequiresRestart set.
//
// Hot-reloadable fields: LogLevel (also sets zerolog's global level),
// CloseOnShutdown, ShutdownTimeout, AllowedOrigins, OpenAIAPIKey.
func (c *Config) Reload() (*ReloadResult, error) {
	envFile := c.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	_ = godotenv.Overload(envFile)

	newCfg := &Config{
		ServerPort:        getEnvInt("PORT", 8099),
		ServerHost:        getEnv("HOST", "0.0.0.0"),
		TradingAPIKey:     os.Getenv("TRADING_API_KEY"),
		TradingMode:       TradingMode(getEnv("TRADING_MODE", "dry_run")),
		AlpacaAPIKey:      os.Getenv("ALPACA_API_KEY"),
		AlpacaSecretKey:   os.Getenv("ALPACA_SECRET_KEY"),
		AlpacaBaseURL:     getEnv("ALPACA_BASE_URL", "https://paper-api.alpaca.markets"),
		OpenAIAPIKey:      os.Getenv("OPENAI_API_KEY"),
		DatabaseURL:       getEnv("DATABASE_URL", "./data/audit.db"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		AllowedOrigins:    parseList(getEnv("ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:8080")),
		EnabledStrategies: parseList(getEnv("ENABLED_STRATEGIES", "ma_crossover")),
		CloseOnShutdown:   getEnv("CLOSE_ON_SHUTDOWN", "true") == "true",
		ShutdownTimeout:   getEnvDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
		EnvFile:           envFile,
	}

	if err := newCfg.Validate(); err != nil {
		return nil, fmt.Errorf("reloaded config validation failed: %w", err)
	}

	result := &ReloadResult{Changes: make([]ReloadChange, 0)}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.detectRestartChange(result, "ServerPort", c.ServerPort, newCfg.ServerPort)
	c.detectRestartChange(result, "ServerHost", c.ServerHost, newCfg.ServerHost)
	c.detectRestartChange(result, "TradingMode", string(c.TradingMode), string(newCfg.TradingMode))
	c.detectRestartChange(result, "DatabaseURL", c.DatabaseURL, newCfg.DatabaseURL)
	if !stringSlicesEqual(c.EnabledStrategies, newCfg.EnabledStrategies) {
		result.Changes = append(result.Changes, ReloadChange{
			Field: "EnabledStrategies", OldValue: c.EnabledStrategies, NewValue: newCfg.EnabledStrategies, Applied: false,
		})
		result.RequiresRestart = true
		result.RestartReasons = append(result.RestartReasons, "EnabledStrategies changed")
	}

	if c.LogLevel != newCfg.LogLevel {
		result.Changes = append(result.Changes, ReloadChange{
			Field: "LogLevel", OldValue: c.LogLevel, NewValue: newCfg.LogLevel, Applied: true,
		})
		c.LogLevel = newCfg.LogLevel
		if lvl, err := zerolog.ParseLevel(newCfg.LogLevel); err == nil {
			zerolog.SetGlobalLevel(lvl)
		}
	}

	if c.CloseOnShutdown != newCfg.CloseOnShutdown {
		result.Changes = append(result.Changes, ReloadChange{
			Field: "CloseOnShutdown", OldValue: c.CloseOnShutdown, NewValue: newCfg.CloseOnShutdown, Applied: true,
		})
		c.CloseOnShutdown = newCfg.CloseOnShutdown
	}

	if c.ShutdownTimeout != newCfg.ShutdownTimeout {
		result.Changes = append(result.Changes, ReloadChange{
			Field: "ShutdownTimeout", OldValue: c.ShutdownTimeout.String(), NewValue: newCfg.ShutdownTimeout.String(), Applied: true,
		})
		c.ShutdownTimeout = newCfg.ShutdownTimeout
	}

	if !stringSlicesEqual(c.AllowedOrigins, newCfg.AllowedOrigins) {
		result.Changes = append(result.Changes, ReloadChange{
			Field: "AllowedOrigins", OldValue: c.AllowedOrigins, NewValue: newCfg.AllowedOrigins, Applied: true,
		})
		c.AllowedOrigins = newCfg.AllowedOrigins
	}

	if c.OpenAIAPIKey != newCfg.OpenAIAPIKey {
		result.Changes = append(result.Changes, ReloadChange{
			Field: "OpenAIAPIKey", OldValue: "[redacted]", NewValue: "[redacted]", Applied: true,
		})
		c.OpenAIAPIKey = newCfg.OpenAIAPIKey
	}

	log.Info().
		Int("total_changes", len(result.Changes)).
		Bool("requires_restart", result.RequiresRestart).
		Msg("configuration reloaded")

	return result, nil
}

func (c *Config) detectRestartChange(result *ReloadResult, field string, oldVal, newVal interface{}) {
	if fmt.Sprintf("%v", oldVal) != fmt.Sprintf("%v", newVal) {
		result.Changes = append(result.Changes, ReloadChange{
			Field: field, OldValue: oldVal, NewValue: newVal, Applied: false,
		})
		result.RequiresRestart = true
		result.RestartReasons = append(result.RestartReasons, field+" changed")
	}
}

func stringSlicesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// parseList parses a comma-separated list, trimming whitespace and
// dropping empty entries.
func parseList(s string) []string {
	if s == "" {
		return []string{}
	}
	var result []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// GenerateAPIKey generates a secure random API key of 32 bytes (64 hex characters).
func GenerateAPIKey() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

// RotateAPIKey generates a new TRADING_API_KEY, updates the config, and
// saves it to the .env file.
func (c *Config) RotateAPIKey() (string, error) {
	newKey, err := GenerateAPIKey()
	if err != nil {
		return "", err
	}

	c.TradingAPIKey = newKey

	envFile := c.EnvFile
	if envFile == "" {
		envFile = ".env"
	}

	content, err := os.ReadFile(envFile)
	if err != nil {
		if os.IsNotExist(err) {
			return newKey, os.WriteFile(envFile, []byte("TRADING_API_KEY="+newKey+"\n"), 0644)
		}
		return "", err
	}

	lines := strings.Split(string(content), "\n")
	found := false
	for i, line := range lines {
		if strings.HasPrefix(line, "TRADING_API_KEY=") {
			lines[i] = "TRADING_API_KEY=" + newKey
			found = true
			break
		}
	}
	if !found {
		lines = append(lines, "TRADING_API_KEY="+newKey)
	}

	if err := os.WriteFile(envFile, []byte(strings.Join(lines, "\n")), 0644); err != nil {
		return "", fmt.Errorf("failed to write .env file: %w", err)
	}
	return newKey, nil
}
