// Package logger provides a wrapper around logrus for structured logging.
package logger

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// NewLogger creates a configured logger, reading the environment name from
// the ENVIRONMENT variable. One-shot tools that never load a config file use
// this form.
func NewLogger(logLevel string) *logrus.Logger {
	return NewLoggerForEnv(logLevel, os.Getenv("ENVIRONMENT"))
}

// NewLoggerForEnv creates a configured logger for an explicit environment
// name. The daemons pass the environment from their loaded config so the
// format never depends on how the process was launched. Production emits
// JSON lines; everything else gets colored text for terminal reading.
func NewLoggerForEnv(logLevel, environment string) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)

	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		logger.Warnf("Invalid log level '%s', defaulting to info", logLevel)
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if strings.EqualFold(environment, "production") {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
			ForceColors:   true,
		})
	}

	return logger
}
