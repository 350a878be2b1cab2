package pkg

import (
	"fmt"
	"io"
	"strings"

	log "github.com/sirupsen/logrus"
)

// LogLevel is the verbosity of dpuctl and the platform packages, from
// errors only up to debug
type LogLevel int

const (
	LogLevelError LogLevel = iota
	LogLevelWarn
	LogLevelInfo
	LogLevelDebug
)

// logger is shared by every package of the module and writes to stderr
var logger = newLogger()

func newLogger() *log.Logger {
	l := log.New()
	l.SetLevel(log.InfoLevel)
	l.SetFormatter(&log.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	return l
}

func logrusLevelFromLogLevel(level LogLevel) log.Level {
	switch level {
	case LogLevelDebug:
		return log.DebugLevel
	case LogLevelInfo:
		return log.InfoLevel
	case LogLevelWarn:
		return log.WarnLevel
	case LogLevelError:
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

// ParseLogLevel converts a level name into a LogLevel
func ParseLogLevel(levelStr string) (LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(levelStr)) {
	case "debug":
		return LogLevelDebug, nil
	case "info", "":
		return LogLevelInfo, nil
	case "warn", "warning":
		return LogLevelWarn, nil
	case "error":
		return LogLevelError, nil
	default:
		return LogLevelInfo, fmt.Errorf("invalid log level: %s", levelStr)
	}
}

// SetLogLevel sets the log level of the shared logger
func SetLogLevel(level LogLevel) {
	logger.SetLevel(logrusLevelFromLogLevel(level))
}

// SetLogLevelFromString sets the log level from a string
func SetLogLevelFromString(levelStr string) error {
	level, err := ParseLogLevel(levelStr)
	if err != nil {
		return err
	}
	SetLogLevel(level)
	return nil
}

// Debug logs a debug message
func Debug(format string, args ...interface{}) {
	logger.Debugf(format, args...)
}

// Info logs an info message
func Info(format string, args ...interface{}) {
	logger.Infof(format, args...)
}

// Warn logs a warning message
func Warn(format string, args ...interface{}) {
	logger.Warnf(format, args...)
}

// Error logs an error message
func Error(format string, args ...interface{}) {
	logger.Errorf(format, args...)
}

// SetFormatter replaces the text formatter, e.g. with JSON output
func SetFormatter(formatter log.Formatter) {
	logger.SetFormatter(formatter)
}

// SetOutput redirects log output
func SetOutput(output io.Writer) {
	logger.SetOutput(output)
}

// WithField adds a field to the logger
func WithField(key string, value interface{}) *log.Entry {
	return logger.WithField(key, value)
}

// WithFields adds multiple fields to the logger
func WithFields(fields log.Fields) *log.Entry {
	return logger.WithFields(fields)
}

// WithError adds an error field to the logger
func WithError(err error) *log.Entry {
	return logger.WithError(err)
}

// ForModule returns an entry tagged with the module name
func ForModule(name string) *log.Entry {
	return logger.WithField("module", name)
}

// ForBus returns an entry tagged with the module name and its PCI bus address
func ForBus(name, bus string) *log.Entry {
	return logger.WithFields(log.Fields{
		"module": name,
		"bus":    bus,
	})
}
