// Package main implements the entry point for the LessonHub API server,
// which serves courses, lessons and enrollment progress and drafts course
// material with an LLM.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"

	"github.com/phrazzld/lessonhub-api/internal/config"
	"github.com/phrazzld/lessonhub-api/internal/platform/logger"
)

func main() {
	ctx := context.Background()

	cfg, appLogger, err := initializeApp()
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	app, err := newApplication(ctx, cfg, appLogger)
	if err != nil {
		appLogger.Error("failed to build application", slog.String("error", err.Error()))
		log.Fatalf("Failed to build application: %v", err)
	}

	if err := app.Run(ctx); err != nil {
		appLogger.Error("server stopped with error", slog.String("error", err.Error()))
		log.Fatalf("Server error: %v", err)
	}
}

// initializeApp loads configuration and sets up structured logging.
func initializeApp() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger, err := logger.Setup(cfg.Server)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set up logger: %w", err)
	}

	appLogger.Info("server configuration loaded",
		slog.Int("port", cfg.Server.Port),
		slog.String("log_level", cfg.Server.LogLevel))
	appLogger.Debug("dependency configuration",
		slog.Bool("database_url_present", cfg.Database.URL != ""),
		slog.Bool("redis_url_present", cfg.Redis.URL != ""),
		slog.String("llm_model", cfg.LLM.ModelName))

	return cfg, appLogger, nil
}
