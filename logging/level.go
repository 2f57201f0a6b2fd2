package logging

import (
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap/zapcore"
)

// Level is a log level. Only DEBUG, INFO, WARN and ERROR can be set on a logger.
type Level int8

// The settable levels, in increasing severity.
const (
	DEBUG = Level(zapcore.DebugLevel)
	INFO  = Level(zapcore.InfoLevel)
	WARN  = Level(zapcore.WarnLevel)
	ERROR = Level(zapcore.ErrorLevel)
)

func (level Level) String() string {
	return level.AsZap().String()
}

// AsZap converts the Level to a zapcore.Level.
func (level Level) AsZap() zapcore.Level {
	return zapcore.Level(level)
}

// LevelFromString parses one of debug, info, warn (or warning) and error, ignoring case.
func LevelFromString(inp string) (Level, error) {
	lower := strings.ToLower(inp)
	if lower == "warning" {
		return WARN, nil
	}
	zl, err := zapcore.ParseLevel(lower)
	if err != nil || zl > zapcore.ErrorLevel {
		return INFO, errors.Errorf("unknown log level: %q", inp)
	}
	return Level(zl), nil
}
