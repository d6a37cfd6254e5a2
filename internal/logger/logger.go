package logger

import (
	"context"

	"go-bizsuite/internal/config"
	"go-bizsuite/internal/database"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds the console logger and tees warnings and errors into the
// "logs" collection
func NewLogger(lc fx.Lifecycle, cfg *config.Config, mongodb *database.MongodbDB) (*zap.Logger, error) {
	var zapConfig zap.Config
	if cfg.IsProduction() {
		zapConfig = zap.NewProductionConfig()
	} else {
		zapConfig = zap.NewDevelopmentConfig()
	}

	// Needed for the caller function name on DB entries
	zapConfig.EncoderConfig.FunctionKey = "func"

	baseLogger, err := zapConfig.Build()
	if err != nil {
		return nil, err
	}

	dbWriter := NewDBLogWriter(mongodb.DB.Collection("logs"), cfg.AppId)
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			_ = baseLogger.Sync()
			return dbWriter.Close(ctx)
		},
	})

	finalCore := NewDBCore(baseLogger.Core(), dbWriter, zapcore.WarnLevel)

	return zap.New(finalCore, zap.AddCaller()), nil
}
