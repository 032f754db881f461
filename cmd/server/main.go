package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	_ "time/tzdata"

	"github.com/nfrund/together/internal/app"
	"github.com/nfrund/together/internal/config"
	"github.com/nfrund/together/internal/logging"
)

func main() {
	if err := run(); err != nil {
		slog.Error("Server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logging.New(cfg.LogFormat, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("Starting server", "addr", cfg.Addr, "members", cfg.MemberSource)
	return app.Run(ctx, cfg)
}
