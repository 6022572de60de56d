package log

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync/atomic"
)

var (
	logger    atomic.Pointer[slog.Logger]
	level     *slog.LevelVar
	verbosity atomic.Int32
)

func init() {
	// Warnings only until the CLI has parsed -v.
	level = new(slog.LevelVar)
	level.Set(slog.LevelWarn)
	verbosity.Store(VerbosityWarn)
	logger.Store(slog.New(NewHandler(HandlerOptions{
		Level:  level,
		Format: "text",
		Output: os.Stderr,
	})))
}

// Init points the global logger at stderr with verbosity v.
func Init(v int, format string) {
	InitWriter(os.Stderr, v, format)
}

// InitWriter points the global logger at w. Commands pass their error
// stream here so scan results on stdout never interleave with log lines.
func InitWriter(w io.Writer, v int, format string) {
	verbosity.Store(int32(v))
	level.Set(VerbosityToLevel(v))

	newLogger := slog.New(NewHandler(HandlerOptions{
		Level:  level,
		Format: format,
		Output: w,
	}))
	logger.Store(newLogger)
	slog.SetDefault(newLogger)
}

// Verbosity returns the -v level last passed to Init.
func Verbosity() int {
	return int(verbosity.Load())
}

// Error logs at error level (v=0).
func Error(msg string, args ...any) {
	logger.Load().Error(msg, args...)
}

// Warn logs at warn level (v=1).
func Warn(msg string, args ...any) {
	logger.Load().Warn(msg, args...)
}

// Info logs at info level (v=2).
func Info(msg string, args ...any) {
	logger.Load().Info(msg, args...)
}

// Debug logs at debug level (v=3).
func Debug(msg string, args ...any) {
	logger.Load().Debug(msg, args...)
}

// Trace logs at trace level (v=4), used for per-comment detail.
func Trace(msg string, args ...any) {
	logger.Load().Log(context.Background(), LevelTrace, msg, args...)
}

// Enabled reports whether records at l would be emitted. Guard loops that
// only exist to Trace each comment with it.
func Enabled(l slog.Level) bool {
	return logger.Load().Enabled(context.Background(), l)
}

// V returns the global logger when verbosity is at least v, and a logger
// that drops everything otherwise.
//
//	log.V(log.VerbosityTrace).Debug("mismatch", "start", m.Start)
func V(v int) *slog.Logger {
	if int(verbosity.Load()) >= v {
		return logger.Load()
	}
	return slog.New(discardHandler{})
}

// Component returns the global logger tagged with component=name.
func Component(name string) *slog.Logger {
	return logger.Load().With("component", name)
}
