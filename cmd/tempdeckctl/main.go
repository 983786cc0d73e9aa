package main

import (
	"log/slog"
	"os"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/lmittmann/tint"
	"go.uber.org/zap"

	"tempdeckctl/internal/cli"
	"tempdeckctl/internal/config"
)

func main() {
	// Human-readable handler for startup messages emitted before the zap
	// logger exists.
	slog.SetDefault(slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      slog.LevelInfo,
		TimeFormat: time.DateTime,
	})))

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config errors", "error", err)
		os.Exit(1)
	}

	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = zap.NewAtomicLevelAt(cfg.LogLevel)
	logger := zap.Must(zapCfg.Build())

	app := cli.New(cfg, logger, os.Stdin, os.Stdout, os.Stderr)
	code := app.Run(os.Args[1:])

	logger.Sync()
	os.Exit(code)
}
