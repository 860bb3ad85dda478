// Package config loads the server configuration from the environment.
//
// A .env file in the working directory is applied first (existing variables
// win), then the environment is decoded into Config with envconfig.
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/redis/go-redis/v9"

	"github.com/vectra-ai-research/vectra-ai-mcp-server-qux/pkg/client"
	"github.com/vectra-ai-research/vectra-ai-mcp-server-qux/pkg/logging"
)

// Transport names accepted by VECTRA_MCP_TRANSPORT and --transport.
const (
	TransportStdio          = "stdio"
	TransportSSE            = "sse"
	TransportStreamableHTTP = "streamable-http"
)

var (
	supportedAPIVersions = []string{"v2.5"}
	validLogLevels       = []string{"DEBUG", "INFO", "WARNING", "WARN", "ERROR", "CRITICAL"}
	validLogFormats      = []string{"json", "text"}
	validTransports      = []string{TransportStdio, TransportSSE, TransportStreamableHTTP}
)

// Config is the complete server configuration.
type Config struct {
	BaseURL    string `envconfig:"VECTRA_BASE_URL"`
	APIKey     string `envconfig:"VECTRA_API_KEY"`
	APIVersion string `envconfig:"VECTRA_API_VERSION" default:"v2.5"`

	// Seconds.
	RequestTimeout    int  `envconfig:"VECTRA_REQUEST_TIMEOUT" default:"30"`
	RateLimitRequests int  `envconfig:"VECTRA_RATE_LIMIT_REQUESTS" default:"100"`
	RateLimitPeriod   int  `envconfig:"VECTRA_RATE_LIMIT_PERIOD" default:"60"`
	VerifySSL         bool `envconfig:"VECTRA_VERIFY_SSL" default:"true"`

	CacheTTL int    `envconfig:"VECTRA_CACHE_TTL" default:"300"`
	RedisURL string `envconfig:"VECTRA_REDIS_URL"`
	MaxPages int    `envconfig:"VECTRA_MAX_PAGES" default:"1000"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"INFO"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"json"`
	LogFile   string `envconfig:"VECTRA_LOG_FILE"`
	DevMode   bool   `envconfig:"DEV_MODE" default:"false"`

	Transport string `envconfig:"VECTRA_MCP_TRANSPORT" default:"stdio"`
	Debug     bool   `envconfig:"VECTRA_MCP_DEBUG" default:"false"`
	Host      string `envconfig:"VECTRA_MCP_HOST" default:"0.0.0.0"`
	Port      int    `envconfig:"VECTRA_MCP_PORT" default:"8000"`
}

// Load reads .env (if present) and the environment, normalizes the result
// and validates it.
func Load() (*Config, error) {
	return LoadFile(".env")
}

// LoadFile is Load with an explicit dotenv path. A missing file is ignored.
func LoadFile(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}

	cfg.Normalize()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize canonicalizes values in place: the base URL loses trailing
// slashes and gains https:// when it has no scheme, log level is upper
// cased, log format and transport are lower cased.
func (c *Config) Normalize() {
	c.BaseURL = NormalizeBaseURL(c.BaseURL)
	c.LogLevel = strings.ToUpper(strings.TrimSpace(c.LogLevel))
	c.LogFormat = strings.ToLower(strings.TrimSpace(c.LogFormat))
	c.Transport = strings.ToLower(strings.TrimSpace(c.Transport))
}

// NormalizeBaseURL strips trailing slashes and prefixes https:// when no
// scheme is present.
func NormalizeBaseURL(raw string) string {
	v := strings.TrimRight(strings.TrimSpace(raw), "/")
	if v == "" {
		return ""
	}
	if !strings.HasPrefix(v, "http://") && !strings.HasPrefix(v, "https://") {
		v = "https://" + v
	}
	return v
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return errors.New("VECTRA_BASE_URL is required")
	}
	if c.APIKey == "" {
		return errors.New("VECTRA_API_KEY is required")
	}
	if !slices.Contains(supportedAPIVersions, c.APIVersion) {
		return fmt.Errorf("unsupported API version: %s. Supported versions: %v", c.APIVersion, supportedAPIVersions)
	}
	if !slices.Contains(validLogLevels, strings.ToUpper(c.LogLevel)) {
		return fmt.Errorf("invalid log level: %s. Valid levels: %v", c.LogLevel, validLogLevels)
	}
	if !slices.Contains(validLogFormats, strings.ToLower(c.LogFormat)) {
		return fmt.Errorf("invalid log format: %s. Valid formats: %v", c.LogFormat, validLogFormats)
	}
	if !slices.Contains(validTransports, c.Transport) {
		return fmt.Errorf("invalid transport: %s. Valid transports: %v", c.Transport, validTransports)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("VECTRA_REQUEST_TIMEOUT must be positive, got %d", c.RequestTimeout)
	}
	if c.RateLimitRequests <= 0 {
		return fmt.Errorf("VECTRA_RATE_LIMIT_REQUESTS must be positive, got %d", c.RateLimitRequests)
	}
	if c.RateLimitPeriod <= 0 {
		return fmt.Errorf("VECTRA_RATE_LIMIT_PERIOD must be positive, got %d", c.RateLimitPeriod)
	}
	if c.CacheTTL < 0 {
		return fmt.Errorf("VECTRA_CACHE_TTL must not be negative, got %d", c.CacheTTL)
	}
	if c.MaxPages <= 0 {
		return fmt.Errorf("VECTRA_MAX_PAGES must be positive, got %d", c.MaxPages)
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("VECTRA_MCP_PORT must be between 1 and 65535, got %d", c.Port)
	}
	return nil
}

// APIBaseURL returns <base>/api/<version>.
func (c *Config) APIBaseURL() string {
	return c.BaseURL + "/api/" + c.APIVersion
}

// Addr is the listen address of the HTTP transports.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Logging maps the settings onto a logging.Config. Debug forces DEBUG and
// dev mode forces the text format.
func (c *Config) Logging() logging.Config {
	lc := logging.DefaultConfig()
	lc.Level = logging.LogLevel(c.LogLevel)
	lc.Format = logging.Format(c.LogFormat)
	lc.File = c.LogFile
	if c.Debug {
		lc.Level = logging.LevelDebug
	}
	if c.DevMode {
		lc.Format = logging.FormatText
	}
	return lc
}

// Client maps the settings onto a client.Config. rdb may be nil.
func (c *Config) Client(rdb *redis.Client) client.Config {
	cc := client.DefaultConfig(c.BaseURL, c.APIKey)
	cc.APIVersion = c.APIVersion
	cc.Timeout = time.Duration(c.RequestTimeout) * time.Second
	cc.VerifySSL = c.VerifySSL
	cc.RateLimitRequests = c.RateLimitRequests
	cc.RateLimitPeriod = time.Duration(c.RateLimitPeriod) * time.Second
	cc.MaxPages = c.MaxPages
	cc.CacheTTL = time.Duration(c.CacheTTL) * time.Second
	cc.Redis = rdb
	return cc
}

// Redis opens a client for VECTRA_REDIS_URL. It returns nil when no URL is
// configured or the cache is disabled by a zero TTL.
func (c *Config) Redis() (*redis.Client, error) {
	if c.RedisURL == "" || c.CacheTTL == 0 {
		return nil, nil
	}
	opts, err := redis.ParseURL(c.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid VECTRA_REDIS_URL: %w", err)
	}
	return redis.NewClient(opts), nil
}
