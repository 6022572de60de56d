package watch

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"golang.org/x/term"
)

// ChangeType represents the type of file change.
type ChangeType string

const (
	ChangeAdded    ChangeType = "+"
	ChangeModified ChangeType = "~"
	ChangeDeleted  ChangeType = "-"
)

// Logger formats watch mode output, either as colored lines for a terminal
// or as one JSON object per event.
type Logger struct {
	mu      sync.Mutex
	writer  io.Writer
	isTTY   bool
	verbose bool
	noColor bool
	jsonOut bool

	stats WatchStats
}

// WatchStats tracks statistics for the watch session.
type WatchStats struct {
	ScanCount         int
	UnterminatedCount int
	ErrorCount        int
	StartTime         time.Time
}

// LoggerConfig configures the logger.
type LoggerConfig struct {
	Writer  io.Writer
	Verbose bool
	NoColor bool
	JSON    bool
}

// NewLogger creates a new logger with the given configuration.
func NewLogger(cfg LoggerConfig) *Logger {
	writer := cfg.Writer
	if writer == nil {
		writer = os.Stdout
	}

	isTTY := false
	if f, ok := writer.(*os.File); ok {
		isTTY = term.IsTerminal(int(f.Fd()))
	}

	return &Logger{
		writer:  writer,
		isTTY:   isTTY,
		verbose: cfg.Verbose,
		noColor: cfg.NoColor,
		jsonOut: cfg.JSON,
		stats: WatchStats{
			StartTime: time.Now(),
		},
	}
}

// Ready logs the initial ready message.
func (l *Logger) Ready(fileCount int, extensions []string, path string) {
	if l.jsonOut {
		l.writeJSON(map[string]any{
			"event":      "ready",
			"files":      fileCount,
			"extensions": extensions,
			"path":       path,
		})
		return
	}

	l.printf("nestscan: watching %d files in %s\n", fileCount, path)
	if len(extensions) > 0 {
		l.printf("nestscan: extensions: ")
		for i, ext := range extensions {
			if i > 0 {
				l.printf(", ")
			}
			l.printf("%s", ext)
		}
		l.println()
	}
	l.println("nestscan: ready")
	l.println()
}

// FileChanged logs a file change event. Text output only shows it in
// verbose mode.
func (l *Logger) FileChanged(path string, change ChangeType) {
	if l.jsonOut {
		l.writeJSON(map[string]any{
			"event":  "file_changed",
			"path":   path,
			"change": string(change),
			"time":   now(),
		})
		return
	}

	if l.verbose {
		l.printf("[%s] %s %s\n", l.timestamp(), l.colorize(string(change), change), path)
	}
}

// Unchanged logs a file whose digest did not change since the last scan.
func (l *Logger) Unchanged(path string) {
	if l.jsonOut {
		l.writeJSON(map[string]any{
			"event": "unchanged",
			"path":  path,
			"time":  now(),
		})
		return
	}

	if l.verbose {
		l.printf("[%s] = %s unchanged\n", l.timestamp(), path)
	}
}

// Scanned logs a successful scan.
func (l *Logger) Scanned(path string, count, maxDepth int) {
	l.mu.Lock()
	l.stats.ScanCount++
	l.mu.Unlock()

	if l.jsonOut {
		l.writeJSON(map[string]any{
			"event":     "scanned",
			"path":      path,
			"comments":  count,
			"max_depth": maxDepth,
			"time":      now(),
		})
		return
	}

	checkmark := l.colorize("\u2713", ChangeAdded)
	l.printf("[%s] %s %s ok %d comments", l.timestamp(), checkmark, path, count)
	if maxDepth > 1 {
		l.printf(" (max depth %d)", maxDepth)
	}
	l.println()
}

// Unterminated logs a file with a block comment that is never closed.
// row and col are 1-based.
func (l *Logger) Unterminated(path string, row, col, depth int) {
	l.mu.Lock()
	l.stats.ScanCount++
	l.stats.UnterminatedCount++
	l.mu.Unlock()

	if l.jsonOut {
		l.writeJSON(map[string]any{
			"event":  "unterminated",
			"path":   path,
			"row":    row,
			"column": col,
			"depth":  depth,
			"time":   now(),
		})
		return
	}

	xmark := l.colorize("\u2717", ChangeDeleted)
	l.printf("[%s] %s %s unterminated at %d:%d (%d open)\n", l.timestamp(), xmark, path, row, col, depth)
}

// Error logs an error.
func (l *Logger) Error(err error) {
	l.mu.Lock()
	l.stats.ErrorCount++
	l.mu.Unlock()

	if l.jsonOut {
		l.writeJSON(map[string]any{
			"event": "error",
			"error": err.Error(),
			"time":  now(),
		})
		return
	}

	xmark := l.colorize("\u2717", ChangeDeleted)
	l.printf("[%s] %s error: %v\n", l.timestamp(), xmark, err)
}

// Shutdown logs the shutdown message with statistics.
func (l *Logger) Shutdown() {
	stats := l.Stats()

	if l.jsonOut {
		l.writeJSON(map[string]any{
			"event":        "shutdown",
			"scans":        stats.ScanCount,
			"unterminated": stats.UnterminatedCount,
			"errors":       stats.ErrorCount,
			"duration":     time.Since(stats.StartTime).String(),
		})
		return
	}

	l.println()
	l.printf("nestscan: shutting down (%d scans, %d unterminated, %d errors)\n",
		stats.ScanCount, stats.UnterminatedCount, stats.ErrorCount)
}

// Stats returns the current watch statistics.
func (l *Logger) Stats() WatchStats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stats
}

func now() string {
	return time.Now().Format(time.RFC3339)
}

// timestamp returns the current time formatted as HH:MM:SS.
func (l *Logger) timestamp() string {
	return time.Now().Format("15:04:05")
}

// colorize applies ANSI color codes based on change type.
func (l *Logger) colorize(s string, change ChangeType) string {
	if l.noColor || !l.isTTY {
		return s
	}

	var color string
	switch change {
	case ChangeAdded:
		color = "\033[32m" // green
	case ChangeModified:
		color = "\033[33m" // yellow
	case ChangeDeleted:
		color = "\033[31m" // red
	default:
		return s
	}
	return color + s + "\033[0m"
}

func (l *Logger) writeJSON(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		l.println(`{"event":"internal_error","error":"json marshal failed"}`)
		return
	}
	l.println(string(data))
}

// printf and println ignore write errors; the output is informational.
func (l *Logger) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(l.writer, format, args...)
}

func (l *Logger) println(args ...any) {
	_, _ = fmt.Fprintln(l.writer, args...)
}
