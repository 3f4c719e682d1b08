package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newServeCmd(c *cli) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP chat API and web UI",
		Example: `  flightai serve
  flightai serve --listen :8080 --config flightai.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if listen != "" {
				c.cfg.Server.ListenAddr = listen
			}
			return c.serve(cmd.Context(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&listen, "listen", "l", "", "listen address (overrides server.listen_addr)")
	return cmd
}

func (c *cli) serve(ctx context.Context, out io.Writer) error {
	application, err := c.newApp(ctx)
	if err != nil {
		return err
	}

	printStartupSummary(out, c.cfg)
	if rep := application.Health().Report(ctx); !rep.OK() {
		slog.Warn("starting while not ready", "checks", rep.Checks)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return application.Run(gctx)
	})
	if w := c.watchConfig(); w != nil {
		g.Go(func() error {
			return w.Run(gctx)
		})
	}

	slog.Info("server ready, press Ctrl+C to shut down")
	runErr := g.Wait()

	// ── Graceful shutdown ─────────────────────────────────────────────────────
	shutdownCtx, cancel := context.WithTimeout(context.Background(), c.cfg.Server.ShutdownTimeout+5*time.Second)
	defer cancel()
	if err := application.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	slog.Info("goodbye")
	return nil
}
