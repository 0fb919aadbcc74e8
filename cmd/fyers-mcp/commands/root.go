package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/quantabox/fyers-mcp-server/internal/app"
	"github.com/quantabox/fyers-mcp-server/internal/observability"
)

// version is set at build time via -ldflags.
var version = "dev"

// Execute runs the root command with the given context and arguments.
func Execute(ctx context.Context, args []string) error {
	cmd := &cli.Command{
		Name:    "fyers-mcp",
		Usage:   "Fyers brokerage MCP tool server",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to config file",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "log level (debug|info|warn|error)",
				Value: slog.LevelInfo.String(),
			},
		},
		Commands: []*cli.Command{
			serveCommand(),
		},
	}

	return cmd.Run(ctx, args)
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "serve MCP tools over stdio",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "log format (text|json|otlp)",
				Value: string(defaultLogFormat()),
			},
			&cli.StringFlag{
				Name:  "listener--host",
				Usage: "OAuth callback listener host",
				Value: app.DefaultConfigListenerHost,
			},
			&cli.IntFlag{
				Name:  "listener--port",
				Usage: "OAuth callback listener port",
				Value: int(app.DefaultConfigListenerPort),
			},
			&cli.StringFlag{
				Name:  "auth--env-file",
				Usage: "path to the credentials file",
				Value: app.DefaultConfigAuthEnvFile,
			},
			&cli.StringFlag{
				Name:  "broker--base-url",
				Usage: "broker API base URL",
				Value: app.DefaultConfigBrokerBaseURL,
			},
		},
		Action: serveAction,
	}
}

func serveAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd.String("config"), cmd, os.Environ)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Set up observability before creating app
	err = observability.Instrument(cfg.LogLevel, string(cfg.LogFormat))
	if err != nil {
		return fmt.Errorf("failed to set up observability layer: %w", err)
	}
	defer func() {
		_ = observability.Shutdown(context.Background())
	}()

	application, err := app.New(cfg, version)
	if err != nil {
		return fmt.Errorf("failed to create app: %w", err)
	}

	slog.InfoContext(ctx, "starting")

	if err := application.Start(ctx); err != nil {
		return fmt.Errorf("app failed to start: %w", err)
	}

	slog.InfoContext(ctx, "stopped gracefully")
	return nil
}

// defaultLogFormat picks text for interactive terminals and JSON when the
// process runs under an MCP host capturing stderr.
func defaultLogFormat() app.LogFormat {
	if term.IsTerminal(int(os.Stderr.Fd())) {
		return app.LogFormatText
	}
	return app.LogFormatJSON
}
