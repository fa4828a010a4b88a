package pngenc

import (
	"log"
	"os"
)

// Logger is the warning sink an Encoder reports non-fatal conditions
// through (an unsupported stereo3d mode). Skipped APNG inverse-blend
// candidates are not logged. Each Encoder holds its own Logger by
// reference rather than through a package global, so independent
// encoder instances never share mutable state.
type Logger interface {
	Printf(format string, args ...interface{})
}

// stdLogger adapts the standard library's *log.Logger to Logger. It is
// the default used when Options.Logger is nil.
type stdLogger struct {
	l *log.Logger
}

func (s *stdLogger) Printf(format string, args ...interface{}) {
	s.l.Printf(format, args...)
}

func defaultLogger() Logger {
	return &stdLogger{l: log.New(os.Stderr, "pngenc: ", log.Ldate|log.Ltime)}
}

// discardLogger drops every message. Used when a caller explicitly opts
// out of logging by setting Options.Logger to NoLogger.
type discardLogger struct{}

func (discardLogger) Printf(format string, args ...interface{}) {}

// NoLogger discards every message passed to it.
var NoLogger Logger = discardLogger{}
