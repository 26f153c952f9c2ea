package app

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"ecodeli-delivery/internal/logx"
)

// NewLogger builds the JSON process logger; an unknown level falls back to info.
func NewLogger(level string) logx.Logger {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.TimeKey = "ts"

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderCfg),
		zapcore.AddSync(os.Stdout),
		lvl,
	)
	return logx.NewZapAdapter(zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1)))
}
