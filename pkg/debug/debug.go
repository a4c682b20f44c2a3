// Package debug provides category-based debug logging for chatwire.
//
// Two orthogonal controls:
//   - Categories (WHAT to debug): CHATWIRE_DEBUG env or config
//   - Levels (HOW MUCH detail): CHATWIRE_LOG_LEVEL env or config
//
// Usage:
//
//	debug.Log(debug.Streaming, "chunk merged", "choices", n)
//	if debug.Enabled(debug.Transport) { /* expensive formatting */ }
//
// Levels: ERROR, WARN, INFO, DEBUG, TRACE. At TRACE full request and
// response bodies are logged.
package debug

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync/atomic"
)

// Debug categories.
const (
	Transport = "transport"
	Streaming = "streaming"
	Decode    = "decode"
	Auth      = "auth"
	Config    = "config"
	Ledger    = "ledger"
	MCP       = "mcp"
	All       = "all"
)

// LevelTrace is below slog.LevelDebug for maximum verbosity.
const LevelTrace = slog.LevelDebug - 4

var categories atomic.Pointer[map[string]bool]

func init() {
	setCategories(parseCategories(os.Getenv("CHATWIRE_DEBUG")))
}

func setCategories(m map[string]bool) {
	categories.Store(&m)
}

// Init configures categories and installs a text slog handler on w at the
// configured level. Environment values take precedence over config values.
func Init(w io.Writer, configCategories, configLevel string) {
	cats := os.Getenv("CHATWIRE_DEBUG")
	if cats == "" {
		cats = configCategories
	}
	setCategories(parseCategories(cats))

	level := os.Getenv("CHATWIRE_LOG_LEVEL")
	if level == "" {
		level = configLevel
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: ParseLevel(level),
	})))
}

// Enabled reports whether debug output is active for the given category.
func Enabled(category string) bool {
	m := *categories.Load()
	return m[All] || m[category]
}

// Log emits a debug message for the given category. It is a no-op when the
// category is disabled.
func Log(category string, msg string, args ...any) {
	if !Enabled(category) {
		return
	}
	slog.Debug(msg, append([]any{"debug", category}, args...)...)
}

// Trace emits a trace-level message for the given category.
func Trace(category string, msg string, args ...any) {
	if !Enabled(category) {
		return
	}
	slog.Log(context.Background(), LevelTrace, msg, append([]any{"debug", category}, args...)...)
}

// TraceIsEnabled reports whether TRACE level is active for the given category.
func TraceIsEnabled(category string) bool {
	if !Enabled(category) {
		return false
	}
	return slog.Default().Enabled(context.Background(), LevelTrace)
}

// Raw writes plain text to stderr without slog formatting, for copy-paste
// ready bodies. Only emitted at TRACE for an enabled category.
func Raw(category string, text string) {
	if !TraceIsEnabled(category) {
		return
	}
	fmt.Fprintln(os.Stderr, text)
}

// ParseLevel converts a level string to a slog.Level.
func ParseLevel(s string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TRACE":
		return LevelTrace
	case "DEBUG":
		return slog.LevelDebug
	case "INFO", "":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Categories returns the enabled categories, sorted.
func Categories() []string {
	var result []string
	for k := range *categories.Load() {
		result = append(result, k)
	}
	sort.Strings(result)
	return result
}

// Truncate returns s truncated to maxLen bytes, with "..." appended if truncated.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

func parseCategories(s string) map[string]bool {
	m := make(map[string]bool)
	for _, cat := range strings.Split(s, ",") {
		cat = strings.TrimSpace(strings.ToLower(cat))
		if cat != "" {
			m[cat] = true
		}
	}
	return m
}
