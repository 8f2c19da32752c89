// Package logger provides context-aware structured logging on top of logrus.
// Build stages attach their target to the context so every line a transform
// emits can be traced back to it.
package logger

import (
	"context"
	"io"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var (
	// G is a convenience alias for GetLogger.
	G = GetLogger
	// L is the global logger entry used when the context carries none.
	L = logrus.NewEntry(newLogger())
)

type (
	loggerKey struct{}
)

// Formats lists the accepted log formats.
var Formats = []string{"fmt", "text", "json"}

// WithLogger attaches a logger entry to ctx, making it retrievable via GetLogger.
func WithLogger(ctx context.Context, logger *logrus.Entry) context.Context {
	e := logger.WithContext(ctx)
	return context.WithValue(ctx, loggerKey{}, e)
}

// WithField returns a context whose logger carries key=value on every line.
func WithField(ctx context.Context, key string, value any) context.Context {
	return WithLogger(ctx, GetLogger(ctx).WithField(key, value))
}

// WithTarget tags the context logger with the output target being built.
func WithTarget(ctx context.Context, target string) context.Context {
	return WithField(ctx, "target", target)
}

// GetLogger retrieves the logger entry from ctx, falling back to L.
func GetLogger(ctx context.Context) *logrus.Entry {
	logger := ctx.Value(loggerKey{})

	if logger == nil {
		return L.WithContext(ctx)
	}

	return logger.(*logrus.Entry)
}

func newLogger() *logrus.Logger {
	l := logrus.New()
	_ = setLoggerFormat(l, "fmt")
	return l
}

func setLoggerFormat(logger *logrus.Logger, format string) error {
	switch format {
	case "json":
		logger.Formatter = &logrus.JSONFormatter{
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "logLevel",
				logrus.FieldKeyMsg:   "message",
			},
			TimestampFormat: time.RFC3339Nano,
		}
	case "text", "fmt", "":
		logger.Formatter = &logrus.TextFormatter{
			TimestampFormat: time.RFC3339Nano,
			FullTimestamp:   true,
		}
	default:
		return errors.Errorf("unknown log format '%s', expected one of %v", format, Formats)
	}
	return nil
}

// SetLogLevel sets the level of the global logger.
func SetLogLevel(level string) error {
	return SetLogLevelForLogger(L.Logger, level)
}

// SetLogLevelForLogger sets the level of a specific logger.
func SetLogLevelForLogger(logger *logrus.Logger, level string) error {
	logLevel, err := logrus.ParseLevel(level)
	if err != nil {
		return errors.Wrapf(err, "invalid log level '%s'", level)
	}
	logger.SetLevel(logLevel)
	return nil
}

// SetLogFormat sets the format of the global logger.
func SetLogFormat(format string) error {
	return setLoggerFormat(L.Logger, format)
}

// SetLogOutput sets the output destination of the global logger.
func SetLogOutput(w io.Writer) {
	L.Logger.SetOutput(w)
}

// Configure applies level and format to the global logger.
func Configure(level, format string) error {
	if err := SetLogLevel(level); err != nil {
		return err
	}
	return SetLogFormat(format)
}
