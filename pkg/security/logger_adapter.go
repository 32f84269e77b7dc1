package security

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/kevin07696/payflow-reconciler/internal/domain/ports"
)

// redactedKeys never reach the log sink with their real value.
var redactedKeys = map[string]struct{}{
	"ACCT": {},
	"CVV2": {},
	"PWD":  {},
}

// ZapLoggerAdapter adapts zap.Logger to our Logger port interface
type ZapLoggerAdapter struct {
	logger *zap.Logger
	prefix string
}

// NewZapLogger creates a new ZapLoggerAdapter
func NewZapLogger(logger *zap.Logger) *ZapLoggerAdapter {
	return &ZapLoggerAdapter{logger: logger}
}

// NewZapLoggerDevelopment creates a development logger
func NewZapLoggerDevelopment() (*ZapLoggerAdapter, error) {
	logger, err := zap.NewDevelopment()
	if err != nil {
		return nil, err
	}
	return &ZapLoggerAdapter{logger: logger}, nil
}

// NewZapLoggerProduction creates a production logger
func NewZapLoggerProduction() (*ZapLoggerAdapter, error) {
	logger, err := zap.NewProduction()
	if err != nil {
		return nil, err
	}
	return &ZapLoggerAdapter{logger: logger}, nil
}

// BuildZapLogger builds the process logger from LOG_LEVEL/LOG_DEVELOPMENT style settings.
func BuildZapLogger(level string, development bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if development {
		cfg = zap.NewDevelopmentConfig()
	}
	if level != "" {
		lvl, err := zapcore.ParseLevel(level)
		if err != nil {
			return nil, err
		}
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}
	return cfg.Build()
}

// WithChannel returns a logger that prefixes every message with
// "<channel>(<id>): ", e.g. "payflowpro(3): ".
func (z *ZapLoggerAdapter) WithChannel(channel, id string) *ZapLoggerAdapter {
	return &ZapLoggerAdapter{
		logger: z.logger.With(zap.String("channel", channel)),
		prefix: channel + "(" + id + "): ",
	}
}

// ForProfile scopes the logger to one gateway profile ("payflowpro(<id>): ").
func (z *ZapLoggerAdapter) ForProfile(processorID string) ports.Logger {
	return z.WithChannel("payflowpro", processorID)
}

// Info logs an info message
func (z *ZapLoggerAdapter) Info(msg string, fields ...ports.Field) {
	z.logger.Info(z.prefix+msg, convertFields(fields)...)
}

// Error logs an error message
func (z *ZapLoggerAdapter) Error(msg string, fields ...ports.Field) {
	z.logger.Error(z.prefix+msg, convertFields(fields)...)
}

// Warn logs a warning message
func (z *ZapLoggerAdapter) Warn(msg string, fields ...ports.Field) {
	z.logger.Warn(z.prefix+msg, convertFields(fields)...)
}

// Debug logs a debug message
func (z *ZapLoggerAdapter) Debug(msg string, fields ...ports.Field) {
	z.logger.Debug(z.prefix+msg, convertFields(fields)...)
}

// Sync flushes buffered log entries
func (z *ZapLoggerAdapter) Sync() error {
	return z.logger.Sync()
}

// convertFields converts our Field type to zap.Field
func convertFields(fields []ports.Field) []zap.Field {
	zapFields := make([]zap.Field, len(fields))
	for i, f := range fields {
		if _, ok := redactedKeys[f.Key]; ok {
			zapFields[i] = zap.String(f.Key, "[REDACTED]")
			continue
		}
		if err, ok := f.Value.(error); ok {
			zapFields[i] = zap.NamedError(f.Key, err)
			continue
		}
		zapFields[i] = zap.Any(f.Key, f.Value)
	}
	return zapFields
}
