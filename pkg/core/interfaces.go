package core

import (
	"log"
	"os"
)

// Logger interface for raytracer logging
type Logger interface {
	Printf(format string, args ...interface{})
}

// DefaultLogger implements Logger on top of the standard log package
type DefaultLogger struct {
	out *log.Logger
}

// NewDefaultLogger creates a logger that writes timestamped lines to stderr
func NewDefaultLogger() Logger {
	return &DefaultLogger{out: log.New(os.Stderr, "", log.LstdFlags)}
}

// Printf implements Logger
func (dl *DefaultLogger) Printf(format string, args ...interface{}) {
	dl.out.Printf(format, args...)
}

// NopLogger discards everything. Used by tests and library callers that
// don't want output.
type NopLogger struct{}

// Printf implements Logger
func (NopLogger) Printf(string, ...interface{}) {}
