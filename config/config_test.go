package config

import (
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestParseList tests the parseList helper function.
func TestParseList(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "single strategy",
			input:    "ma_crossover",
			expected: []string{"ma_crossover"},
		},
		{
			name:     "multiple origins",
			input:    "http://a.com,http://b.com",
			expected: []string{"http://a.com", "http://b.com"},
		},
		{
			name:     "values with spaces",
			input:    "ma_crossover , http://b.com , http://c.com",
			expected: []string{"ma_crossover", "http://b.com", "http://c.com"},
		},
		{
			name:     "empty string",
			input:    "",
			expected: []string{},
		},
		{
			name:     "single value with spaces",
			input:    "  ma_crossover  ",
			expected: []string{"ma_crossover"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result := parseList(tc.input)
			assert.Equal(t, tc.expected, result)
		})
	}
}

func baseValidConfig() *Config {
	return &Config{
		TradingMode:       ModeDryRun,
		ServerPort:        8099,
		DatabaseURL:       "./data/audit.db",
		LogLevel:          "info",
		TradingAPIKey:     "trading-key",
		AlpacaAPIKey:      "alpaca-key",
		AlpacaSecretKey:   "alpaca-secret",
		EnabledStrategies: []string{"ma_crossover"},
	}
}

// TestConfigLoad_EnabledStrategies tests ENABLED_STRATEGIES environment variable parsing.
func TestConfigLoad_EnabledStrategies(t *testing.T) {
	testCases := []struct {
		name     string
		envValue string
		expected []string
	}{
		{
			name:     "default strategy",
			envValue: "",
			expected: []string{"ma_crossover"},
		},
		{
			name:     "single strategy",
			envValue: "ma_crossover",
			expected: []string{"ma_crossover"},
		},
		{
			name:     "strategy with spaces",
			envValue: "  ma_crossover  ",
			expected: []string{"ma_crossover"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("ALPACA_API_KEY", "k")
			t.Setenv("ALPACA_SECRET_KEY", "s")
			t.Setenv("TRADING_API_KEY", "t")
			if tc.envValue != "" {
				t.Setenv("ENABLED_STRATEGIES", tc.envValue)
			} else {
				t.Setenv("ENABLED_STRATEGIES", "")
			}

			cfg, err := Load()
			require.NoError(t, err)
			assert.Equal(t, tc.expected, cfg.EnabledStrategies)
		})
	}
}

// TestConfigLoad_Full tests loading with all standard env vars set.
func TestConfigLoad_Full(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("HOST", "0.0.0.0")
	t.Setenv("TRADING_API_KEY", "secret-key")
	t.Setenv("TRADING_MODE", "live")
	t.Setenv("DATABASE_URL", "/tmp/test.db")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("ALLOWED_ORIGINS", "http://example.com,http://foo.com")
	t.Setenv("ENABLED_STRATEGIES", "ma_crossover")
	t.Setenv("ALPACA_API_KEY", "alpaca-key")
	t.Setenv("ALPACA_SECRET_KEY", "alpaca-secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.ServerPort)
	assert.Equal(t, "0.0.0.0", cfg.ServerHost)
	assert.Equal(t, "secret-key", cfg.TradingAPIKey)
	assert.Equal(t, "alpaca-key", cfg.AlpacaAPIKey)
}

// TestConfigLoad_MissingRequiredVars fails validation when Alpaca/Trading
// credentials are absent.
func TestConfigLoad_MissingRequiredVars(t *testing.T) {
	t.Setenv("ALPACA_API_KEY", "")
	t.Setenv("ALPACA_SECRET_KEY", "")
	t.Setenv("TRADING_API_KEY", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ALPACA_API_KEY")
	assert.Contains(t, err.Error(), "ALPACA_SECRET_KEY")
	assert.Contains(t, err.Error(), "TRADING_API_KEY")
}

// TestRotateAPIKey tests rotating the API key in the .env file.
func TestRotateAPIKey(t *testing.T) {
	tmpfile, err := os.CreateTemp("", ".env")
	require.NoError(t, err)
	defer os.Remove(tmpfile.Name())

	initialContent := []byte("PORT=8080\nTRADING_API_KEY=old-key\nLOG_LEVEL=info")
	_, err = tmpfile.Write(initialContent)
	require.NoError(t, err)
	require.NoError(t, tmpfile.Close())

	cfg := &Config{
		EnvFile:       tmpfile.Name(),
		TradingAPIKey: "old-key",
	}

	newKey, err := cfg.RotateAPIKey()
	require.NoError(t, err)
	assert.NotEmpty(t, newKey)
	assert.NotEqual(t, "old-key", newKey)
	assert.Equal(t, newKey, cfg.TradingAPIKey)

	content, err := os.ReadFile(tmpfile.Name())
	require.NoError(t, err)
	contentStr := string(content)
	assert.Contains(t, contentStr, "TRADING_API_KEY="+newKey)
	assert.Contains(t, contentStr, "PORT=8080")
}

// --- Validation tests ---

func TestValidate_ValidDryRunConfig(t *testing.T) {
	require.NoError(t, baseValidConfig().Validate())
}

func TestValidate_ValidLiveConfig(t *testing.T) {
	cfg := baseValidConfig()
	cfg.TradingMode = ModeLive
	require.NoError(t, cfg.Validate())
}

func TestValidate_InvalidTradingMode(t *testing.T) {
	cfg := baseValidConfig()
	cfg.TradingMode = "invalid"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TRADING_MODE")
	assert.Contains(t, err.Error(), "invalid")
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := baseValidConfig()
	cfg.ServerPort = 0
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PORT")
}

func TestValidate_InvalidLogLevel(t *testing.T) {
	cfg := baseValidConfig()
	cfg.LogLevel = "verbose"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LOG_LEVEL")
	assert.Contains(t, err.Error(), "verbose")
}

func TestValidate_ValidLogLevels(t *testing.T) {
	levels := []string{"trace", "debug", "info", "warn", "error", "fatal", "panic", "disabled"}
	for _, level := range levels {
		t.Run(level, func(t *testing.T) {
			cfg := baseValidConfig()
			cfg.LogLevel = level
			require.NoError(t, cfg.Validate())
		})
	}
}

func TestValidate_InvalidStrategy(t *testing.T) {
	cfg := baseValidConfig()
	cfg.EnabledStrategies = []string{"ma_crossover", "fake_strategy"}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fake_strategy")
	assert.Contains(t, err.Error(), "ENABLED_STRATEGIES")
}

func TestValidate_MissingTradingAPIKey(t *testing.T) {
	cfg := baseValidConfig()
	cfg.TradingAPIKey = ""
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TRADING_API_KEY")
}

func TestValidate_MissingAlpacaCredentials(t *testing.T) {
	cfg := baseValidConfig()
	cfg.AlpacaAPIKey = ""
	cfg.AlpacaSecretKey = ""
	err := cfg.Validate()
	require.Error(t, err)

	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.GreaterOrEqual(t, len(ve.Errors), 2)
	assert.Contains(t, err.Error(), "ALPACA_API_KEY")
	assert.Contains(t, err.Error(), "ALPACA_SECRET_KEY")
}

func TestValidate_EmptyDatabaseURL(t *testing.T) {
	cfg := baseValidConfig()
	cfg.DatabaseURL = ""
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

func TestValidate_MultipleErrors(t *testing.T) {
	cfg := &Config{
		TradingMode:       "bogus",
		ServerPort:        0,
		DatabaseURL:       "",
		LogLevel:          "verbose",
		EnabledStrategies: []string{"nonexistent"},
	}
	err := cfg.Validate()
	require.Error(t, err)

	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.GreaterOrEqual(t, len(ve.Errors), 5, "expected at least 5 aggregated errors, got %d: %v", len(ve.Errors), ve.Errors)
}

func TestValidationError_ErrorFormat(t *testing.T) {
	ve := &ValidationError{
		Errors: []string{"error one", "error two", "error three"},
	}
	errStr := ve.Error()
	assert.Contains(t, errStr, "3 configuration error(s)")
	assert.Contains(t, errStr, "error one")
	assert.Contains(t, errStr, "error two")
	assert.Contains(t, errStr, "error three")
}

func TestValidate_EmptyStrategiesOK(t *testing.T) {
	cfg := baseValidConfig()
	cfg.EnabledStrategies = []string{}
	require.NoError(t, cfg.Validate())
}

func TestIsDryRunIsLive(t *testing.T) {
	cfg := baseValidConfig()
	assert.True(t, cfg.IsDryRun())
	assert.False(t, cfg.IsLive())

	cfg.TradingMode = ModeLive
	assert.False(t, cfg.IsDryRun())
	assert.True(t, cfg.IsLive())
}

func TestAdvisoryEnabled(t *testing.T) {
	cfg := baseValidConfig()
	assert.False(t, cfg.AdvisoryEnabled())
	cfg.OpenAIAPIKey = "sk-test"
	assert.True(t, cfg.AdvisoryEnabled())
}
