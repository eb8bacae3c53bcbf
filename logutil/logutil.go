// Package logutil configures the process-wide structured logger used by
// the proc-core packages. Logging goes to stderr via log/slog; debug
// level and JSON output are controlled programmatically or through
// environment variables.
package logutil

import (
	"io"
	"log/slog"
	"os"
	"sync"
)

// Environment variables consulted by SetupFromEnv.
const (
	// EnvDebug enables debug-level logging when set to "true".
	EnvDebug = "PROC_DEBUG"
	// EnvFormat selects the output format; "json" enables structured
	// JSON lines, anything else means text.
	EnvFormat = "PROC_LOG_FORMAT"
)

var (
	mu         sync.Mutex
	debugOn    bool
	structured bool
	output     io.Writer = os.Stderr
)

// Setup configures the default slog logger. debug enables debug-level
// records; structured switches from text to JSON output. Safe for
// concurrent use.
func Setup(debug, json bool) {
	mu.Lock()
	defer mu.Unlock()
	debugOn = debug
	structured = json
	install()
}

// SetupFromEnv configures the logger from PROC_DEBUG and PROC_LOG_FORMAT.
func SetupFromEnv() {
	Setup(os.Getenv(EnvDebug) == "true", os.Getenv(EnvFormat) == "json")
}

// SetOutput redirects log output, keeping the current level and format.
// Intended for tests.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
	install()
}

// install rebuilds the default logger. Caller holds mu.
func install() {
	level := slog.LevelInfo
	if debugOn {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if structured {
		handler = slog.NewJSONHandler(output, opts)
	} else {
		handler = slog.NewTextHandler(output, opts)
	}
	slog.SetDefault(slog.New(handler))
}
