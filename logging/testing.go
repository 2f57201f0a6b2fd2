package logging

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

// NewTestLogger returns a Debug+ logger writing to tb, so lines stay attached to the test that
// produced them.
func NewTestLogger(tb testing.TB) Logger {
	logger, _ := NewObservedTestLogger(tb)
	return logger
}

// NewObservedTestLogger is like NewTestLogger but also records entries for assertions.
func NewObservedTestLogger(tb testing.TB) (Logger, *observer.ObservedLogs) {
	logger := NewBlankLogger("")
	logger.AddAppender(zaptest.NewLogger(tb, zaptest.Level(zap.DebugLevel)).Core())
	core, observed := observer.New(zap.DebugLevel)
	logger.AddAppender(core)
	return logger, observed
}
