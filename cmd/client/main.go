package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/deepnote/internal/buildinfo"
	"github.com/dmitrijs2005/deepnote/internal/client/cli"
	"github.com/dmitrijs2005/deepnote/internal/client/config"
	"github.com/dmitrijs2005/deepnote/internal/logging"
)

func main() {
	buildinfo.PrintBuildData(os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := logging.NewTextLogger(os.Stderr, slog.LevelInfo)
	cfg := config.LoadConfig()

	app, err := cli.NewApp(ctx, cfg, logger)
	if err != nil {
		logger.Error(ctx, "failed to start client", "error", err)
		os.Exit(1)
	}

	app.Run(ctx)
}
