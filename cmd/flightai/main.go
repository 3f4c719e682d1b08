// Command flightai is the main entry point for the Flight-AI chat service.
//
// Subcommands:
//
//	flightai serve   HTTP chat API and web UI
//	flightai chat    interactive terminal chat
//	flightai mcp     MCP tool server (stdio or streamable HTTP)
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

// version is set at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	root := newRootCmd()
	if err := root.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintf(os.Stderr, "flightai: %v\n", err)
		}
		return 1
	}
	return 0
}
