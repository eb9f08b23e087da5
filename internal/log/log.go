package log

import (
	"io"
	"os"

	runtime "github.com/banzaicloud/logrus-runtime-formatter"
	"github.com/sirupsen/logrus"
)

type Level string

const (
	LevelTrace Level = "trace"
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// NewLogrusLogger returns a logger writing to stderr. stdout carries the
// status line and is never logged to.
func NewLogrusLogger(logLevel string) *logrus.Logger {
	return NewLogrusLoggerTo(os.Stderr, logLevel)
}

// NewLogrusLoggerTo returns a logger writing to w
func NewLogrusLoggerTo(w io.Writer, logLevel string) *logrus.Logger {
	logger := logrus.New()

	logger.SetOutput(w)

	switch Level(logLevel) {
	case LevelDebug:
		logger.Level = logrus.DebugLevel
	case LevelTrace:
		logger.Level = logrus.TraceLevel
	case LevelInfo, "":
		logger.Level = logrus.InfoLevel
	case LevelWarn:
		logger.Level = logrus.WarnLevel
	case LevelError:
		logger.Level = logrus.ErrorLevel
	default:
		logger.Level = logrus.InfoLevel
		logger.WithField("logLevel", logLevel).Warn("Unknown log level, defaulting to info")
	}

	runtimeFormatter := &runtime.Formatter{
		ChildFormatter: &logrus.TextFormatter{DisableColors: true, FullTimestamp: true},
		File:           true,
		Line:           true,
		BaseNameOnly:   true,
	}

	logger.SetFormatter(runtimeFormatter)

	return logger
}
