// Package logging contains the structured logger handed to every component, the host and the
// command. It is a zap SugaredLogger with a per-logger level and a shared, growable set of
// appenders.
package logging

// NewLogger returns a logger writing Info+ logs to stdout in UTC.
func NewLogger(name string) Logger {
	s := &sinks{}
	s.add(NewStdoutAppender())
	return newImpl(name, INFO, s)
}

// NewBlankLogger returns a Debug+ logger with no appenders.
func NewBlankLogger(name string) Logger {
	return newImpl(name, DEBUG, &sinks{})
}
