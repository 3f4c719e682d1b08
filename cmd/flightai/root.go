package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ZuhaMK/Flight-AI/internal/app"
	"github.com/ZuhaMK/Flight-AI/internal/config"
	"github.com/ZuhaMK/Flight-AI/internal/observe"
)

// cli carries state shared by the subcommands after the root pre-run.
type cli struct {
	configPath string
	dotenvPath string

	cfg      *config.Config
	logLevel *slog.LevelVar

	shutdownTelemetry func(context.Context) error
}

func newRootCmd() *cobra.Command {
	c := &cli{logLevel: new(slog.LevelVar)}

	root := &cobra.Command{
		Use:   "flightai",
		Short: "Chat assistant that looks up flight prices",
		Long: `Flight-AI forwards chat messages to an LLM that can call a flight price
lookup tool, then returns the answer as a bullet list.

Credentials are read from the environment (or a .env file):
  OPENAI_API_KEY             LLM provider key (or the vendor's equivalent)
  TRAVEL_PAYOUTS_API_TOKEN   flight price API token`,
		Version:           version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.setup,
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return c.teardown()
		},
	}

	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", config.DefaultPath, "path to the YAML configuration file")
	root.PersistentFlags().StringVar(&c.dotenvPath, "env-file", ".env", "dotenv file loaded before the environment is read")

	root.AddCommand(
		newServeCmd(c),
		newChatCmd(c),
		newMCPCmd(c),
	)
	return root
}

// setup loads the dotenv file and configuration, installs the logger, and
// initialises telemetry.
func (c *cli) setup(cmd *cobra.Command, _ []string) error {
	if err := config.LoadDotenv(c.dotenvPath); err != nil {
		return err
	}

	required := cmd.Flags().Changed("config")
	cfg, err := config.Load(c.configPath, required)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("config file %q not found", c.configPath)
		}
		return err
	}
	c.cfg = cfg

	// ── Logger ────────────────────────────────────────────────────────────────
	c.logLevel.Set(cfg.Server.LogLevel.Level())
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: c.logLevel})))

	// ── Telemetry ─────────────────────────────────────────────────────────────
	shutdown, err := observe.InitProvider(cmd.Context(), observe.ProviderConfig{
		ServiceName:    cfg.Telemetry.ServiceName,
		ServiceVersion: version,
	})
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	c.shutdownTelemetry = shutdown

	slog.Debug("flightai starting",
		"command", cmd.Name(),
		"config", c.configPath,
		"log_level", cfg.Server.LogLevel,
	)
	return nil
}

func (c *cli) teardown() error {
	if c.shutdownTelemetry == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return c.shutdownTelemetry(ctx)
}

// newApp validates credentials and builds the application from c.cfg.
func (c *cli) newApp(ctx context.Context) (*app.App, error) {
	if err := config.RequireCredentials(c.cfg); err != nil {
		return nil, err
	}

	reg := config.NewRegistry()
	registerBuiltinProviders(reg)

	providers, err := buildProviders(c.cfg, reg)
	if err != nil {
		return nil, err
	}
	return app.New(ctx, c.cfg, providers)
}

// watchConfig reloads the config file on change. Log level changes apply
// immediately; everything else is reported as needing a restart. Returns nil
// when there is no file to watch.
func (c *cli) watchConfig() *config.Watcher {
	if _, err := os.Stat(c.configPath); err != nil {
		return nil
	}
	w, err := config.NewWatcher(c.configPath, func(_ *config.Config, diff config.ConfigDiff) {
		if diff.LogLevelChanged {
			c.logLevel.Set(diff.NewLogLevel.Level())
			slog.Info("log level changed", "level", diff.NewLogLevel)
		}
		if len(diff.RestartRequired) > 0 {
			slog.Warn("config changed; restart to apply", "fields", strings.Join(diff.RestartRequired, ", "))
		}
	})
	if err != nil {
		slog.Warn("config watcher disabled", "err", err)
		return nil
	}
	return w
}
