package outputs

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Lunar-Chipter/crystal/internal/interfaces"
)

// ZapName is the appender name of ZapAppender
const ZapName = "zap"

// ZapAppender forwards formatted events to a zap logger.
// FATAL maps to zap's error level so forwarding never exits the process.
type ZapAppender struct {
	*Base
	logger *zap.Logger
}

// NewZapAppender creates an appender writing through logger
func NewZapAppender(logger *zap.Logger) *ZapAppender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ZapAppender{Base: NewBase(), logger: logger}
}

// ZapFactory returns a factory whose appenders share logger
func ZapFactory(logger *zap.Logger) interfaces.AppenderFactory {
	return func() interfaces.Appender {
		return NewZapAppender(logger)
	}
}

func (z *ZapAppender) Name() string {
	return ZapName
}

func (z *ZapAppender) Append(event *interfaces.LogEvent) error {
	ce := z.logger.Check(ZapLevel(event.Level), z.Format(event))
	if ce == nil {
		return nil
	}
	fields := []zap.Field{
		zap.String("logger", event.Logger),
		zap.Uint64("sequence", event.Sequence),
	}
	if event.Error != nil {
		fields = append(fields, zap.Error(event.Error))
	}
	ce.Write(fields...)
	return nil
}

// ZapLevel maps a log level to the closest zap level
func ZapLevel(level interfaces.Level) zapcore.Level {
	switch {
	case level <= interfaces.ERROR:
		return zapcore.ErrorLevel
	case level <= interfaces.WARN:
		return zapcore.WarnLevel
	case level <= interfaces.INFO:
		return zapcore.InfoLevel
	default:
		return zapcore.DebugLevel
	}
}

// NewConsoleZapLogger builds a zap logger with a console encoder and
// ISO8601 timestamps writing to stdout at debug level
func NewConsoleZapLogger() *zap.Logger {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoder := zapcore.NewConsoleEncoder(encoderConfig)

	core := zapcore.NewCore(encoder, zapcore.AddSync(os.Stdout), zapcore.DebugLevel)
	return zap.New(core)
}
