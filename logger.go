package interop

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
)

// nopHandler is a slog.Handler that silently discards all log records.
// Enabled returns false so callers skip message formatting entirely.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

// newNopLogger creates a logger that silently discards all output.
func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// loggerPtr stores the active logger. Accessed atomically so that
// SetLogger can be called concurrently with logging from any goroutine.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(newNopLogger())
}

// SetLogger configures the logger for interop and all its sub-packages.
// By default nothing is logged.
//
// SetLogger is safe for concurrent use. Pass nil to restore the silent
// default. The logger is also handed to the runtime of every open
// [Context] whose runtime accepts one.
//
// Log levels used by interop:
//   - [slog.LevelDebug]: object lifecycle (imports, mappings, releases, footprints)
//   - [slog.LevelInfo]: context creation and shutdown
//   - [slog.LevelWarn]: rollbacks and failed releases
//
// Example:
//
//	interop.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)

	openContexts.Range(func(key, _ any) bool {
		propagateLogger(key.(*Context).rt, l)
		return true
	})
}

// Logger returns the current logger. Sub-packages (resource, backends) call
// this to share one configuration without import cycles.
//
// Logger is safe for concurrent use.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}

// openContexts holds every Context that has not been closed.
var openContexts sync.Map

// loggerSetter is implemented by runtimes that accept a logger.
type loggerSetter interface {
	SetLogger(*slog.Logger)
}

// propagateLogger passes the logger to a runtime if it implements
// loggerSetter. Called from SetLogger and NewContext.
func propagateLogger(rt any, l *slog.Logger) {
	if ls, ok := rt.(loggerSetter); ok {
		ls.SetLogger(l)
	}
}
