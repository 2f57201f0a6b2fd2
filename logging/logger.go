package logging

// Logger is the structured logger handed to every component, the host and the command. The
// w-suffixed methods take alternating keys and values.
type Logger interface {
	Debug(args ...interface{})
	Debugf(template string, args ...interface{})
	Debugw(msg string, keysAndValues ...interface{})

	Info(args ...interface{})
	Infof(template string, args ...interface{})
	Infow(msg string, keysAndValues ...interface{})

	Warn(args ...interface{})
	Warnf(template string, args ...interface{})
	Warnw(msg string, keysAndValues ...interface{})

	Error(args ...interface{})
	Errorf(template string, args ...interface{})
	Errorw(msg string, keysAndValues ...interface{})

	// Fatal logs and then exits the process.
	Fatal(args ...interface{})
	Fatalf(template string, args ...interface{})
	Fatalw(msg string, keysAndValues ...interface{})

	// Sublogger returns a logger named "<name>.<subname>" writing to the same appenders. It starts
	// at this logger's level; changing either level afterwards does not affect the other.
	Sublogger(subname string) Logger
	SetLevel(level Level)
	GetLevel() Level
	// AddAppender adds an output to this logger and every logger sharing its appenders.
	AddAppender(appender Appender)
	Sync() error
}
