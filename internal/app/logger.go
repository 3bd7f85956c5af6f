package app

import (
	"fmt"

	"github.com/Freeeeeet/training_scheduler/internal/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger собирает логгер сервиса. Каждая запись несёт имя сервиса и окружение.
func NewLogger(cfg *config.Config) (*zap.Logger, error) {
	zc, err := loggerConfig(cfg)
	if err != nil {
		return nil, err
	}

	logger, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}

	return logger, nil
}

// loggerConfig JSON в production, цветной консольный вывод в остальных окружениях.
// LOG_LEVEL переопределяет уровень окружения по умолчанию.
func loggerConfig(cfg *config.Config) (zap.Config, error) {
	var zc zap.Config

	if cfg.Environment == "production" {
		zc = zap.NewProductionConfig()
	} else {
		zc = zap.NewDevelopmentConfig()
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	if cfg.LogLevel != "" {
		level, err := zap.ParseAtomicLevel(cfg.LogLevel)
		if err != nil {
			return zap.Config{}, fmt.Errorf("parse log level %q: %w", cfg.LogLevel, err)
		}
		zc.Level = level
	}

	zc.OutputPaths = []string{"stdout"}
	zc.InitialFields = map[string]any{
		"service":     cfg.ServiceName,
		"environment": cfg.Environment,
	}

	return zc, nil
}
