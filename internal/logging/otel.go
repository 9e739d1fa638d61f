package logging

import (
	"go.opentelemetry.io/contrib/bridges/otelzap"
	"go.opentelemetry.io/otel/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// WithOTEL tees the logger's output into an OpenTelemetry log provider so
// entries reach the OTLP collector alongside traces. A nil provider
// returns the logger unchanged.
func WithOTEL(logger *zap.Logger, provider log.LoggerProvider) *zap.Logger {
	if provider == nil {
		return logger
	}
	otelCore := otelzap.NewCore("shopd",
		otelzap.WithLoggerProvider(provider),
	)
	return logger.WithOptions(zap.WrapCore(func(core zapcore.Core) zapcore.Core {
		return zapcore.NewTee(core, otelCore)
	}))
}
