package logging

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

type Logger struct {
	*logrus.Logger
}

func NewLogger(level, format string) *Logger {
	logger := logrus.New()

	// Set log level
	switch level {
	case "debug":
		logger.SetLevel(logrus.DebugLevel)
	case "info":
		logger.SetLevel(logrus.InfoLevel)
	case "warn":
		logger.SetLevel(logrus.WarnLevel)
	case "error":
		logger.SetLevel(logrus.ErrorLevel)
	default:
		logger.SetLevel(logrus.InfoLevel)
	}

	// Set formatter
	if format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339,
		})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	return &Logger{Logger: logger}
}

// WithContext adds context information to log entries
func (l *Logger) WithContext(ctx context.Context) *logrus.Entry {
	entry := l.WithFields(logrus.Fields{})

	if requestID := ctx.Value("request_id"); requestID != nil {
		entry = entry.WithField("request_id", requestID)
	}

	return entry
}

// LogOracleCall logs a completed oracle (LLM) round trip
func (l *Logger) LogOracleCall(purpose string, duration time.Duration, err error) {
	fields := logrus.Fields{
		"type":     "oracle_call",
		"purpose":  purpose,
		"duration": duration.Milliseconds(),
	}

	if err != nil {
		fields["error"] = err.Error()
		l.WithFields(fields).Error("Oracle call failed")
	} else {
		l.WithFields(fields).Info("Oracle call completed")
	}
}

// LogPromptRouting logs the outcome of a routing classification
func (l *Logger) LogPromptRouting(service, operationType string, isLifecycle bool, confidence float64) {
	l.WithFields(logrus.Fields{
		"service":      service,
		"operation":    operationType,
		"is_lifecycle": isLifecycle,
		"confidence":   confidence,
	}).Info("Prompt routing determined")
}
