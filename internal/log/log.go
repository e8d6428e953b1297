// Package log provides the structured logger shared by every component.
// It is a thin wrapper over zerolog, matching the logging library already
// present in the teacher's go.mod.
package log

import (
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"
)

var (
	mu     sync.RWMutex
	logger = zerolog.New(defaultWriter()).With().Timestamp().Logger().Level(zerolog.InfoLevel)
)

func defaultWriter() io.Writer {
	return zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}
}

// Logger returns the process-wide logger. Components should call With()
// to attach their own fields (component name, arena id, frame index, ...)
// rather than mutate this logger directly.
func Logger() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// SetLevel adjusts the minimum level logged, e.g. zerolog.DebugLevel to
// trace VM steps during development.
func SetLevel(level zerolog.Level) {
	mu.Lock()
	defer mu.Unlock()
	logger = logger.Level(level)
}

// SetOutput redirects log output to w, replacing the default console
// writer on stderr.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	logger = logger.Output(w)
}

// Component returns a logger tagged with a component name, e.g.
// log.Component("gc") or log.Component("vm2").
func Component(name string) zerolog.Logger {
	return Logger().With().Str("component", name).Logger()
}
