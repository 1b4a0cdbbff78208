package rxkit

import (
	"io"

	"github.com/sirupsen/logrus"
)

const timestampFormat = "2006-01-02T15:04:05.000Z07:00"

type Logger interface {
	WithField(string, interface{}) Logger
	With(map[string]interface{}) Logger

	Debugf(string, ...interface{})
	Infof(string, ...interface{})
	Warnf(string, ...interface{})
	Errorf(string, ...interface{})

	Debug(...interface{})
	Info(...interface{})
	Warn(...interface{})
	Error(...interface{})
}

// NewLogger returns a Logger backed by the logrus standard logger.
func NewLogger() Logger {
	return &logrusLoggerWrapper{
		logrus.StandardLogger(),
	}
}

// NewLoggerTo returns a Logger with its own logrus instance writing to w.
func NewLoggerTo(w io.Writer) Logger {
	l := logrus.New()
	l.SetOutput(w)
	return &logrusLoggerWrapper{l}
}

// Discard returns a Logger that drops everything.
func Discard() Logger {
	return NewLoggerTo(io.Discard)
}

type logrusLoggerWrapper struct {
	*logrus.Logger
}

func (l *logrusLoggerWrapper) WithField(field string, value interface{}) Logger {
	return &logrusEntryWrapper{l.Logger.WithField(field, value)}
}

func (l *logrusLoggerWrapper) With(fields map[string]interface{}) Logger {
	return &logrusEntryWrapper{l.Logger.WithFields(fields)}
}

type logrusEntryWrapper struct {
	*logrus.Entry
}

func (e *logrusEntryWrapper) WithField(field string, value interface{}) Logger {
	return &logrusEntryWrapper{e.Entry.WithField(field, value)}
}

func (e *logrusEntryWrapper) With(fields map[string]interface{}) Logger {
	return &logrusEntryWrapper{e.Entry.WithFields(fields)}
}

// ConfigureLogging applies rxkit.log.level and rxkit.log.formatter to the
// logrus standard logger.
func ConfigureLogging(conf Config) {
	configureLogrus(logrus.StandardLogger(), conf)
}

func configureLogrus(l *logrus.Logger, conf Config) {
	l.SetLevel(parseLevel(conf.GetStringDefault(KeyLogLevel, "INFO")))

	switch conf.GetStringDefault(KeyLogFormatter, "text") {
	case "json":
		l.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: timestampFormat,
		})
	default:
		l.SetFormatter(&logrus.TextFormatter{
			TimestampFormat: timestampFormat,
			FullTimestamp:   true,
		})
	}
}

func parseLevel(level string) logrus.Level {
	switch level {
	case "DEBUG", "debug":
		return logrus.DebugLevel
	case "WARN", "warn":
		return logrus.WarnLevel
	case "ERROR", "error":
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}
