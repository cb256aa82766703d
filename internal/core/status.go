package core

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewStatusLogger builds the logger used for the library's own diagnostics.
// It writes console-encoded WARN and above to w; nil writes to stderr.
// NewStatusLogger membangun logger untuk diagnostik internal library
func NewStatusLogger(w zapcore.WriteSyncer) *zap.Logger {
	if w == nil {
		w = zapcore.Lock(os.Stderr)
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoder := zapcore.NewConsoleEncoder(encoderConfig)

	core := zapcore.NewCore(encoder, w, zapcore.WarnLevel)
	return zap.New(core).Named("crystal")
}
