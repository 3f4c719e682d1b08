package main

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/ZuhaMK/Flight-AI/internal/mcpserver"
)

func newMCPCmd(c *cli) *cobra.Command {
	var httpAddr string

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Expose the flight price tool as an MCP server",
		Long: `Serves the flight price tool over the Model Context Protocol, on stdio by
default or as a streamable HTTP endpoint at /mcp when --http is set.`,
		Example: `  flightai mcp
  flightai mcp --http :8090`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			application, err := c.newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer application.Shutdown(context.Background()) //nolint:errcheck

			srv := application.MCPServer()
			if httpAddr == "" {
				slog.Info("mcp server running", "transport", "stdio")
				return srv.RunStdio(cmd.Context())
			}
			return serveMCPHTTP(cmd.Context(), srv, httpAddr)
		},
	}
	cmd.Flags().StringVar(&httpAddr, "http", "", "serve streamable HTTP on this address instead of stdio")
	return cmd
}

// serveMCPHTTP runs the MCP HTTP handler until ctx is done, then shuts the
// listener down.
func serveMCPHTTP(ctx context.Context, srv *mcpserver.Server, addr string) error {
	h := srv.Handler()
	mux := http.NewServeMux()
	mux.Handle("/mcp", h)
	mux.Handle("/mcp/", h)

	hs := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("mcp server listening", "transport", "http", "addr", addr)
		if err := hs.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	slog.Info("shutting down mcp server")
	return hs.Shutdown(shutdownCtx)
}
