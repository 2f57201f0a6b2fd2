package logging

import (
	"io"
	"os"
	"slices"
	"sync"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap/zapcore"
)

// An Appender is an output for log entries. Any zap core works, including an observer.
type Appender = zapcore.Core

const timeFormat = "2006-01-02T15:04:05.000Z0700"

func consoleEncoder(inUTC bool) zapcore.Encoder {
	encodeTime := zapcore.TimeEncoderOfLayout(timeFormat)
	if inUTC {
		encodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
			enc.AppendString(t.UTC().Format(timeFormat))
		}
	}
	return zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
		TimeKey:          "ts",
		LevelKey:         "level",
		NameKey:          "logger",
		CallerKey:        "caller",
		FunctionKey:      zapcore.OmitKey,
		MessageKey:       "msg",
		StacktraceKey:    zapcore.OmitKey,
		LineEnding:       zapcore.DefaultLineEnding,
		EncodeLevel:      zapcore.CapitalLevelEncoder,
		EncodeTime:       encodeTime,
		EncodeDuration:   zapcore.StringDurationEncoder,
		EncodeCaller:     zapcore.ShortCallerEncoder,
		ConsoleSeparator: "\t",
	})
}

// NewWriterAppender returns an appender writing tab separated lines to w with times in UTC.
// Structured fields follow the message as one JSON object.
func NewWriterAppender(w io.Writer) Appender {
	return zapcore.NewCore(consoleEncoder(true), zapcore.Lock(zapcore.AddSync(w)), zapcore.DebugLevel)
}

// NewStdoutAppender returns a NewWriterAppender on stdout.
func NewStdoutAppender() Appender {
	return NewWriterAppender(os.Stdout)
}

// sinks fans entries out to a set of appenders that can grow after loggers are built on it.
// Level filtering happens in front of it, per logger.
type sinks struct {
	mu    sync.RWMutex
	cores []zapcore.Core
}

func (s *sinks) add(core zapcore.Core) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cores = append(s.cores, core)
}

func (s *sinks) snapshot() []zapcore.Core {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.cores)
}

func (s *sinks) Enabled(level zapcore.Level) bool {
	for _, core := range s.snapshot() {
		if core.Enabled(level) {
			return true
		}
	}
	return false
}

// With freezes the current appender set.
func (s *sinks) With(fields []zapcore.Field) zapcore.Core {
	return zapcore.NewTee(s.snapshot()...).With(fields)
}

func (s *sinks) Check(entry zapcore.Entry, checked *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	for _, core := range s.snapshot() {
		checked = core.Check(entry, checked)
	}
	return checked
}

func (s *sinks) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	var err error
	for _, core := range s.snapshot() {
		err = multierr.Append(err, core.Write(entry, fields))
	}
	return err
}

func (s *sinks) Sync() error {
	var err error
	for _, core := range s.snapshot() {
		err = multierr.Append(err, core.Sync())
	}
	return err
}

// leveledCore drops entries below a level that can change at runtime.
type leveledCore struct {
	zapcore.Core
	level zapcore.LevelEnabler
}

func (c leveledCore) Enabled(level zapcore.Level) bool {
	return c.level.Enabled(level) && c.Core.Enabled(level)
}

func (c leveledCore) With(fields []zapcore.Field) zapcore.Core {
	return leveledCore{Core: c.Core.With(fields), level: c.level}
}

func (c leveledCore) Check(entry zapcore.Entry, checked *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if !c.level.Enabled(entry.Level) {
		return checked
	}
	return c.Core.Check(entry, checked)
}
