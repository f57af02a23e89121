// Package logger builds the zap loggers used across unisigner-go and the hooks that
// route HTTP client traffic to them.
package logger

import (
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LoggerConfig holds the configuration for logger creation.
type LoggerConfig struct {
	// Debug enables debug-level logging when true, otherwise uses info level
	Debug bool
}

// NewLogger creates a new structured logger with the specified configuration.
// The logger is configured for production use with JSON encoding and ISO8601 timestamps.
//
// Parameters:
//   - cfg: The logger configuration
//   - options: Additional zap options to apply to the logger
//
// Returns:
//   - *zap.Logger: A configured zap logger instance
//   - error: An error if the logger cannot be created
func NewLogger(cfg *LoggerConfig, options ...zap.Option) (*zap.Logger, error) {
	mergedOptions := append([]zap.Option{zap.WithCaller(true)}, options...)

	c := zap.NewProductionConfig()
	c.EncoderConfig = zap.NewProductionEncoderConfig()
	c.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	if cfg != nil && cfg.Debug {
		c.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	} else {
		c.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	return c.Build(mergedOptions...)
}

// RestyResponseLogger returns a resty response hook that logs method, url, status and
// duration of every node request. Bodies are never logged since they carry signed
// transactions.
//
// Parameters:
//   - l: The zap logger to log to
//
// Returns:
//   - resty.ResponseMiddleware: The hook to pass to resty.Client.OnAfterResponse
func RestyResponseLogger(l *zap.Logger) resty.ResponseMiddleware {
	return func(c *resty.Client, r *resty.Response) error {
		fields := []zap.Field{
			zap.String("system", "http"),
			zap.String("method", r.Request.Method),
			zap.String("url", r.Request.URL),
			zap.Int("status", r.StatusCode()),
			zap.Duration("duration", r.Time()),
		}
		if r.IsError() {
			l.Warn("http_response", fields...)
			return nil
		}
		l.Debug("http_response", fields...)
		return nil
	}
}
