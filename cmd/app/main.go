package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"garage-portal/internal/adapters/cli"
	"garage-portal/internal/app"
	"garage-portal/internal/config"
	"garage-portal/internal/logger"
	"garage-portal/internal/orderapi"
	"garage-portal/internal/session"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	_ = godotenv.Load()
	// Quiet until the configured logger replaces it.
	_ = logger.Setup(logger.LogConfig{Level: "warn", Format: "console", Output: "stderr"})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	root := cli.NewRootCommand(load)
	if err := root.ExecuteContext(ctx); err != nil {
		l := logger.WithComponent("cmd")
		l.Error().Err(err).Msg("command execution failed")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func load(cmd *cobra.Command) (*cli.Deps, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := logger.Setup(cfg.LoggerConfig()); err != nil {
		return nil, err
	}

	sess, err := session.NewParser(cfg.JWTSecret).Parse(cfg.APIToken)
	if err != nil {
		return nil, fmt.Errorf("API_TOKEN: %w", err)
	}

	client := orderapi.NewClient(cfg.APIBaseURL, cfg.Timeout())
	return &cli.Deps{
		Service: app.NewAppService(client, nil),
		Session: sess,
		In:      os.Stdin,
		Out:     os.Stdout,
	}, nil
}
