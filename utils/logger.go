package utils

import (
	"log"

	"tutorroute/config"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Global logger instance
var Logger *zap.Logger

// InitializeLogger sets up the logging configuration
func InitializeLogger() {
	var cfg zap.Config

	if config.IsProduction() {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	cfg.Level = zap.NewAtomicLevelAt(parseLevel(config.AppConfig.LogLevel, config.IsProduction()))

	// Create logger
	var err error
	Logger, err = cfg.Build()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	zap.ReplaceGlobals(Logger)
}

// parseLevel maps LOG_LEVEL onto a zap level. Unset or unknown values use
// info in production and debug elsewhere.
func parseLevel(raw string, production bool) zapcore.Level {
	var lvl zapcore.Level
	if raw != "" && lvl.UnmarshalText([]byte(raw)) == nil {
		return lvl
	}
	if production {
		return zapcore.InfoLevel
	}
	return zapcore.DebugLevel
}

// GetLogger retrieves the global logger
func GetLogger() *zap.Logger {
	if Logger == nil {
		InitializeLogger()
	}
	return Logger
}
