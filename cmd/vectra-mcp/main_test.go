package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vectra-ai-research/vectra-ai-mcp-server-qux/internal/config"
)

func validConfig() *config.Config {
	return &config.Config{
		BaseURL:           "https://brain.example.com",
		APIKey:            "key",
		APIVersion:        "v2.5",
		RequestTimeout:    30,
		RateLimitRequests: 100,
		RateLimitPeriod:   60,
		CacheTTL:          300,
		MaxPages:          1000,
		LogLevel:          "INFO",
		LogFormat:         "json",
		Transport:         config.TransportStdio,
		Host:              "0.0.0.0",
		Port:              8000,
	}
}

func TestRootCommand_Flags(t *testing.T) {
	cmd := newRootCommand()

	tests := []struct {
		name      string
		shorthand string
		def       string
	}{
		{"transport", "t", "stdio"},
		{"debug", "d", "false"},
		{"host", "", "0.0.0.0"},
		{"port", "p", "8000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := cmd.Flags().Lookup(tt.name)
			require.NotNil(t, f)
			assert.Equal(t, tt.shorthand, f.Shorthand)
			assert.Equal(t, tt.def, f.DefValue)
		})
	}
}

func TestOptionsApply_OnlyChangedFlags(t *testing.T) {
	cmd := newRootCommand()
	require.NoError(t, cmd.ParseFlags([]string{"-t", "streamable-http", "--port", "9100"}))

	cfg := validConfig()
	cfg.Host = "10.0.0.5"
	cfg.Debug = true

	opts := &options{transport: "streamable-http", port: 9100, host: "0.0.0.0"}
	require.NoError(t, opts.apply(cmd, cfg))

	assert.Equal(t, config.TransportStreamableHTTP, cfg.Transport)
	assert.Equal(t, 9100, cfg.Port)
	assert.Equal(t, "10.0.0.5", cfg.Host, "unset flag must not override the environment")
	assert.True(t, cfg.Debug)
}

func TestOptionsApply_Invalid(t *testing.T) {
	cmd := newRootCommand()
	require.NoError(t, cmd.ParseFlags([]string{"--transport", "websocket"}))

	opts := &options{transport: "websocket"}
	err := opts.apply(cmd, validConfig())
	assert.ErrorContains(t, err, "invalid transport")
}

func TestExecute_MissingConfig(t *testing.T) {
	t.Setenv("VECTRA_BASE_URL", "")
	t.Setenv("VECTRA_API_KEY", "")

	cmd := newRootCommand()
	cmd.SetArgs(nil)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	err := cmd.Execute()
	assert.ErrorContains(t, err, "VECTRA_BASE_URL is required")
}

func TestExecute_Version(t *testing.T) {
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--version"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "1.0.0")
}
