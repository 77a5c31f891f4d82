package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/railcat/internal/config"
	"github.com/Aman-CERP/railcat/internal/logging"
	"github.com/Aman-CERP/railcat/internal/mcp"
	"github.com/Aman-CERP/railcat/internal/state"
	"github.com/Aman-CERP/railcat/internal/telemetry"
)

func newServeCmd() *cobra.Command {
	var (
		transport string
		listen    string
		watch     bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the catalogue to AI assistants over MCP",
		Long: `Build the catalogue and serve it over the Model Context Protocol.

The stdio transport is what MCP clients launch directly. The http
transport serves the streamable MCP endpoint together with /healthz and
Prometheus /metrics.

With --watch, corpus changes rebuild the catalogue in the background.
Queries keep answering from the previous catalogue until the new one is
ready, and a corpus that fails to build leaves it in place.

Logs go to ~/.railcat/logs/ since stdout carries the protocol.`,
		Example: `  railcat serve
  railcat serve --transport http --listen 127.0.0.1:8765 --watch`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("transport") {
				cfg.Server.Transport = transport
			}
			if cmd.Flags().Changed("listen") {
				cfg.Server.Listen = listen
			}
			if cmd.Flags().Changed("watch") {
				cfg.Watch.Enabled = watch
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runServe(ctx, cfg)
		},
	}

	cmd.Flags().StringVarP(&transport, "transport", "t", "stdio", "Transport: stdio, http")
	cmd.Flags().StringVar(&listen, "listen", "", "Listen address for the http transport")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Rebuild the catalogue when the corpus changes")
	return cmd
}

func runServe(ctx context.Context, cfg *config.Config) error {
	cleanup, err := logging.SetupServerMode(cfg.Server.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	defer cleanup()

	st, err := state.Load(ctx, state.OptionsFromConfig(cfg))
	if err != nil {
		return err
	}

	srv, err := mcp.NewServer(st, cfg, mcp.WithMetrics(telemetry.NewMetrics()))
	if err != nil {
		_ = st.Close()
		return err
	}
	defer func() { _ = srv.Close() }()

	if cfg.Watch.Enabled {
		// The server answers from the current snapshot while the watcher
		// starts, so it never delays the MCP handshake.
		go func() {
			if err := st.Watch(ctx); err != nil && ctx.Err() == nil {
				slog.Error("corpus_watch_failed", slog.String("error", err.Error()))
			}
		}()
	}

	return srv.Serve(ctx, strings.ToLower(cfg.Server.Transport), cfg.Server.Listen)
}
