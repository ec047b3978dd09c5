package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	coreconfig "github.com/m3rciful/tengebot/core/config"
	"github.com/m3rciful/tengebot/core/logger"
	"github.com/m3rciful/tengebot/core/metrics"
	"github.com/m3rciful/tengebot/internal/bot"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using process environment")
	}

	cfg, err := coreconfig.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	if err := logger.InitLogger(cfg); err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Shutdown() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var m *metrics.BotMetrics
	if cfg.Metrics.Listen != "" {
		m = metrics.New()
		go func() {
			if err := metrics.Serve(ctx, cfg.Metrics.Listen); err != nil {
				logger.L.Error("metrics listener failed",
					slog.String("component", "metrics"),
					slog.String("err", err.Error()),
				)
			}
		}()
	}

	app := bot.New(cfg, m)
	if err := app.Run(ctx); err != nil {
		logger.L.Error("bot stopped with error",
			slog.String("component", "app"),
			slog.String("err", err.Error()),
		)
		_ = logger.Shutdown()
		os.Exit(1)
	}
}
