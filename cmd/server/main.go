package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/deepnote/internal/buildinfo"
	"github.com/dmitrijs2005/deepnote/internal/logging"
	"github.com/dmitrijs2005/deepnote/internal/server"
	"github.com/dmitrijs2005/deepnote/internal/server/config"
)

func main() {
	buildinfo.PrintBuildData(os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	logger := logging.NewJSONLogger(os.Stdout, slog.LevelInfo)
	cfg := config.LoadConfig()

	app, err := server.NewApp(ctx, cfg, logger)
	if err != nil {
		logger.Error(ctx, "failed to start server", "error", err)
		os.Exit(1)
	}

	app.Run(ctx)
}
