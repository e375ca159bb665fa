package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/credtech/credintel/internal/config"
	"github.com/credtech/credintel/internal/httpapi"
)

func newMonitorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Serve the assessment HTTP API with health and metrics",
		Long: `Starts the local HTTP server exposing /health, Prometheus /metrics,
and the /v1/assessments endpoints for on-demand assessment runs.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			stk, err := buildStack(cfg)
			if err != nil {
				return err
			}
			defer stk.close()

			if stk.store != nil {
				if err := stk.store.EnsureSchema(context.Background()); err != nil {
					return err
				}
			}

			serverCfg := httpapi.DefaultServerConfig()
			serverCfg.Host = cfg.HTTP.Host
			serverCfg.Port = cfg.HTTP.Port
			server, err := httpapi.NewServer(serverCfg, stk.assessor, stk.store, stk.collector, logger)
			if err != nil {
				return err
			}

			errCh := make(chan error, 1)
			go func() { errCh <- server.Start() }()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

			select {
			case err := <-errCh:
				return err
			case sig := <-sigCh:
				logger.Info().Str("signal", sig.String()).Msg("shutting down")
				ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return server.Shutdown(ctx)
			}
		},
	}
	return cmd
}
