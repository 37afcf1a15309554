package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/desertthunder/snx/internal/shared"
	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)
	runner := NewRunner(RunnerOpts{Logger: logger})
	defer runner.Close()

	app := rootCommand(runner)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, os.Args); err != nil {
		switch {
		case errors.Is(err, shared.ErrAborted):
			logger.Warn("aborted")
		case errors.Is(err, context.Canceled):
			logger.Warn("interrupted")
			runner.Close()
			os.Exit(130)
		default:
			runner.Close()
			logger.Fatalf("application error: %v", err)
		}
	}
}

func rootCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "snx",
		Usage:   "Follow, search and tidy a Suno account from the terminal",
		Version: "0.3.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level (debug, info, warn, error)",
			},
			&cli.StringFlag{
				Name:  "token",
				Usage: "Session token, tried before the environment and cookie file",
			},
		},
		Before:   r.Configure,
		Commands: r.register(),
	}
}
