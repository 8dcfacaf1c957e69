package server

import (
	"fmt"
	"strings"
	"time"

	"github.com/df07/go-pathtracer/pkg/core"
)

// ConsoleMessage represents a console message with timestamp
type ConsoleMessage struct {
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Level     string    `json:"level"` // "info", "warning", "error"
}

// WebLogger implements core.Logger by writing to a server logger and
// copying each line to a render's console channel
type WebLogger struct {
	base        core.Logger
	consoleChan chan<- ConsoleMessage
}

// NewWebLogger creates a logger for one render. base may be nil.
func NewWebLogger(base core.Logger, consoleChan chan<- ConsoleMessage) core.Logger {
	if base == nil {
		base = core.NopLogger{}
	}
	return &WebLogger{base: base, consoleChan: consoleChan}
}

// Printf implements core.Logger. Console delivery never blocks; messages
// are dropped while the channel is full.
func (wl *WebLogger) Printf(format string, args ...interface{}) {
	wl.base.Printf(format, args...)

	if wl.consoleChan == nil {
		return
	}
	message := fmt.Sprintf(format, args...)
	select {
	case wl.consoleChan <- ConsoleMessage{
		Message:   message,
		Timestamp: time.Now(),
		Level:     messageLevel(message),
	}:
	default:
	}
}

func messageLevel(message string) string {
	lower := strings.ToLower(message)
	switch {
	case strings.Contains(lower, "error"), strings.Contains(lower, "failed"):
		return "error"
	case strings.Contains(lower, "warning"):
		return "warning"
	default:
		return "info"
	}
}
