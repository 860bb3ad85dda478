// Command vectra-mcp serves the Vectra AI On-Premise API over the Model
// Context Protocol.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/vectra-ai-research/vectra-ai-mcp-server-qux/internal/config"
	"github.com/vectra-ai-research/vectra-ai-mcp-server-qux/internal/mcpserver"
	"github.com/vectra-ai-research/vectra-ai-mcp-server-qux/pkg/client"
	"github.com/vectra-ai-research/vectra-ai-mcp-server-qux/pkg/logging"
)

const redisPingTimeout = 5 * time.Second

// options holds the command-line overrides of the environment settings.
type options struct {
	transport string
	debug     bool
	host      string
	port      int
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "vectra-mcp",
		Short: "MCP server for the Vectra AI On-Premise platform",
		Long: `vectra-mcp exposes Vectra AI On-Premise detections, entities, assignments
and search as MCP tools, resources and prompts.

Configuration is read from the environment and from a .env file in the
working directory. VECTRA_BASE_URL and VECTRA_API_KEY are required.`,
		Version:       mcpserver.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := opts.apply(cmd, cfg); err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVarP(&opts.transport, "transport", "t", config.TransportStdio,
		"Transport protocol: stdio, sse or streamable-http")
	cmd.Flags().BoolVarP(&opts.debug, "debug", "d", false, "Enable debug logging")
	cmd.Flags().StringVar(&opts.host, "host", "0.0.0.0", "Host to bind to for HTTP transports")
	cmd.Flags().IntVarP(&opts.port, "port", "p", 8000, "Port to listen on for HTTP transports")

	return cmd
}

// apply copies the flags the user set onto cfg and revalidates it.
func (o *options) apply(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("transport") {
		cfg.Transport = o.transport
	}
	if flags.Changed("debug") {
		cfg.Debug = o.debug
	}
	if flags.Changed("host") {
		cfg.Host = o.host
	}
	if flags.Changed("port") {
		cfg.Port = o.port
	}
	return cfg.Validate()
}

func run(ctx context.Context, cfg *config.Config) error {
	logger := logging.Setup(cfg.Logging())

	rdb, err := cfg.Redis()
	if err != nil {
		return err
	}
	if rdb != nil {
		defer rdb.Close()
		pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
		err := rdb.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			logger.Warn().Err(err).Msg("Redis unavailable - response cache disabled")
			rdb = nil
		}
	}

	c, err := client.New(cfg.Client(rdb))
	if err != nil {
		return fmt.Errorf("failed to create Vectra client: %w", err)
	}
	defer c.Close()

	logConfig(logger, cfg, c)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return mcpserver.New(cfg, c).Run(ctx, os.Stdin, os.Stdout)
}

func logConfig(logger zerolog.Logger, cfg *config.Config, c *client.Client) {
	logger.Info().
		Str("api_base", c.APIBaseURL()).
		Str("transport", cfg.Transport).
		Int("rate_limit_requests", cfg.RateLimitRequests).
		Int("rate_limit_period_s", cfg.RateLimitPeriod).
		Bool("verify_ssl", cfg.VerifySSL).
		Bool("cache", c.CacheEnabled()).
		Msg("Configuration loaded")
}
