package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vectra-ai-research/vectra-ai-mcp-server-qux/pkg/logging"
)

// unsetenv clears key for the duration of the test.
func unsetenv(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	require.NoError(t, os.Unsetenv(key))
}

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("VECTRA_BASE_URL", "brain.example.com/")
	t.Setenv("VECTRA_API_KEY", "secret-key")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := LoadFile("")
	require.NoError(t, err)

	assert.Equal(t, "https://brain.example.com", cfg.BaseURL)
	assert.Equal(t, "v2.5", cfg.APIVersion)
	assert.Equal(t, 30, cfg.RequestTimeout)
	assert.Equal(t, 100, cfg.RateLimitRequests)
	assert.Equal(t, 60, cfg.RateLimitPeriod)
	assert.True(t, cfg.VerifySSL)
	assert.Equal(t, 300, cfg.CacheTTL)
	assert.Equal(t, 1000, cfg.MaxPages)
	assert.Equal(t, "INFO", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, TransportStdio, cfg.Transport)
	assert.Equal(t, "0.0.0.0", cfg.Host)
	assert.Equal(t, 8000, cfg.Port)
	assert.Equal(t, "https://brain.example.com/api/v2.5", cfg.APIBaseURL())
	assert.Equal(t, "0.0.0.0:8000", cfg.Addr())
}

func TestLoad_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("VECTRA_REQUEST_TIMEOUT", "5")
	t.Setenv("VECTRA_RATE_LIMIT_REQUESTS", "10")
	t.Setenv("VECTRA_VERIFY_SSL", "false")
	t.Setenv("LOG_LEVEL", "warning")
	t.Setenv("LOG_FORMAT", "TEXT")
	t.Setenv("VECTRA_MCP_TRANSPORT", "Streamable-HTTP")
	t.Setenv("VECTRA_MCP_PORT", "9000")

	cfg, err := LoadFile("")
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.RequestTimeout)
	assert.Equal(t, 10, cfg.RateLimitRequests)
	assert.False(t, cfg.VerifySSL)
	assert.Equal(t, "WARNING", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, TransportStreamableHTTP, cfg.Transport)
	assert.Equal(t, 9000, cfg.Port)
}

func TestLoad_DotEnv(t *testing.T) {
	unsetenv(t, "VECTRA_BASE_URL")
	unsetenv(t, "VECTRA_API_KEY")
	t.Setenv("VECTRA_MAX_PAGES", "7")

	path := filepath.Join(t.TempDir(), ".env")
	content := "VECTRA_BASE_URL=http://10.0.0.5\nVECTRA_API_KEY=from-file\nVECTRA_MAX_PAGES=99\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "http://10.0.0.5", cfg.BaseURL)
	assert.Equal(t, "from-file", cfg.APIKey)
	assert.Equal(t, 7, cfg.MaxPages, "existing environment wins over .env")
}

func TestLoad_MissingDotEnvIgnored(t *testing.T) {
	setRequired(t)

	_, err := LoadFile(filepath.Join(t.TempDir(), "absent.env"))
	assert.NoError(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{"missing_base_url", map[string]string{"VECTRA_BASE_URL": ""}, "VECTRA_BASE_URL is required"},
		{"missing_api_key", map[string]string{"VECTRA_API_KEY": ""}, "VECTRA_API_KEY is required"},
		{"api_version", map[string]string{"VECTRA_API_VERSION": "v3"}, "unsupported API version: v3"},
		{"log_level", map[string]string{"LOG_LEVEL": "TRACE"}, "invalid log level"},
		{"log_format", map[string]string{"LOG_FORMAT": "xml"}, "invalid log format"},
		{"transport", map[string]string{"VECTRA_MCP_TRANSPORT": "grpc"}, "invalid transport"},
		{"timeout", map[string]string{"VECTRA_REQUEST_TIMEOUT": "0"}, "VECTRA_REQUEST_TIMEOUT must be positive"},
		{"rate_requests", map[string]string{"VECTRA_RATE_LIMIT_REQUESTS": "-1"}, "VECTRA_RATE_LIMIT_REQUESTS must be positive"},
		{"rate_period", map[string]string{"VECTRA_RATE_LIMIT_PERIOD": "0"}, "VECTRA_RATE_LIMIT_PERIOD must be positive"},
		{"cache_ttl", map[string]string{"VECTRA_CACHE_TTL": "-5"}, "VECTRA_CACHE_TTL must not be negative"},
		{"port", map[string]string{"VECTRA_MCP_PORT": "70000"}, "VECTRA_MCP_PORT must be between"},
		{"not_a_number", map[string]string{"VECTRA_MCP_PORT": "http"}, "failed to process environment variables"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequired(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := LoadFile("")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNormalizeBaseURL(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"brain.example.com", "https://brain.example.com"},
		{"https://brain.example.com//", "https://brain.example.com"},
		{"http://10.1.1.1:8443/", "http://10.1.1.1:8443"},
		{"  ", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeBaseURL(tt.in), tt.in)
	}
}

func TestConfig_Logging(t *testing.T) {
	cfg := &Config{LogLevel: "ERROR", LogFormat: "json", LogFile: "/tmp/vectra.log"}

	lc := cfg.Logging()
	assert.Equal(t, logging.LogLevel("ERROR"), lc.Level)
	assert.Equal(t, logging.FormatJSON, lc.Format)
	assert.Equal(t, "/tmp/vectra.log", lc.File)

	cfg.Debug = true
	cfg.DevMode = true
	lc = cfg.Logging()
	assert.Equal(t, logging.LevelDebug, lc.Level)
	assert.Equal(t, logging.FormatText, lc.Format)
}

func TestConfig_Client(t *testing.T) {
	cfg := &Config{
		BaseURL:           "https://brain.example.com",
		APIKey:            "k",
		APIVersion:        "v2.5",
		RequestTimeout:    12,
		RateLimitRequests: 3,
		RateLimitPeriod:   9,
		VerifySSL:         false,
		CacheTTL:          60,
		MaxPages:          4,
	}

	cc := cfg.Client(nil)
	assert.Equal(t, "https://brain.example.com", cc.BaseURL)
	assert.Equal(t, 12*time.Second, cc.Timeout)
	assert.Equal(t, 3, cc.RateLimitRequests)
	assert.Equal(t, 9*time.Second, cc.RateLimitPeriod)
	assert.False(t, cc.VerifySSL)
	assert.Equal(t, time.Minute, cc.CacheTTL)
	assert.Equal(t, 4, cc.MaxPages)
	assert.Nil(t, cc.Redis)
}

func TestConfig_Redis(t *testing.T) {
	cfg := &Config{CacheTTL: 300}

	rdb, err := cfg.Redis()
	require.NoError(t, err)
	assert.Nil(t, rdb, "no URL means no cache")

	cfg.RedisURL = "redis://localhost:6379/3"
	rdb, err = cfg.Redis()
	require.NoError(t, err)
	require.NotNil(t, rdb)
	assert.Equal(t, 3, rdb.Options().DB)
	_ = rdb.Close()

	cfg.CacheTTL = 0
	rdb, err = cfg.Redis()
	require.NoError(t, err)
	assert.Nil(t, rdb, "zero TTL disables the cache")

	cfg.CacheTTL = 300
	cfg.RedisURL = "mysql://nope"
	_, err = cfg.Redis()
	assert.Error(t, err)
}
