// Package log provides module-filtered structured logging for the simulator.
package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"
)

const (
	PipelineModule = "pipeline" // stalls, redirects, halts
	LatencyModule  = "latency"  // load misses and freezes
	CoreModule     = "core"     // run lifecycle
	LoaderModule   = "loader"   // image parsing
	AsmModule      = "asm"      // assembler
)

// Levels below slog.LevelDebug.
const (
	LevelTrace = slog.Level(-8)
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
)

var root atomic.Pointer[slog.Logger]

func init() {
	root.Store(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// ParseLevel converts a level name to a slog level.
func ParseLevel(lvl string) (slog.Level, error) {
	switch strings.ToUpper(lvl) {
	case "TRACE":
		return LevelTrace, nil
	case "DEBUG":
		return LevelDebug, nil
	case "INFO":
		return LevelInfo, nil
	case "WARN", "WARNING":
		return LevelWarn, nil
	case "ERROR":
		return LevelError, nil
	default:
		return 0, fmt.Errorf("invalid level: %s", lvl)
	}
}

// InitLogger installs a text logger on stderr at the given level.
func InitLogger(logLevel string) error {
	lvl, err := ParseLevel(logLevel)
	if err != nil {
		return err
	}
	SetOutput(os.Stderr, lvl)
	return nil
}

// SetOutput installs a text logger writing to w at the given level.
func SetOutput(w io.Writer, lvl slog.Level) {
	opts := &slog.HandlerOptions{
		Level: lvl,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.LevelKey && a.Value.Any() == LevelTrace {
				a.Value = slog.StringValue("TRACE")
			}
			return a
		},
	}
	root.Store(slog.New(slog.NewTextHandler(w, opts)))
}

// Root returns the root logger.
func Root() *slog.Logger {
	return root.Load()
}

// --- Module management ---

var (
	modulesMu     sync.RWMutex
	moduleEnabled = map[string]bool{}
)

// EnableModule enables trace and debug logging for the specified module.
func EnableModule(module string) {
	modulesMu.Lock()
	defer modulesMu.Unlock()
	moduleEnabled[module] = true
}

// DisableModule disables trace and debug logging for the specified module.
func DisableModule(module string) {
	modulesMu.Lock()
	defer modulesMu.Unlock()
	delete(moduleEnabled, module)
}

// EnableModules enables a comma-separated list of modules.
func EnableModules(list string) {
	for _, m := range strings.Split(list, ",") {
		if m = strings.TrimSpace(m); m != "" {
			EnableModule(m)
		}
	}
}

func isModuleEnabled(module string) bool {
	modulesMu.RLock()
	defer modulesMu.RUnlock()
	return moduleEnabled[module]
}

func write(lvl slog.Level, module, msg string, ctx ...any) {
	l := Root()
	if !l.Enabled(context.Background(), lvl) {
		return
	}
	l.Log(context.Background(), lvl, msg, append([]any{"module", module}, ctx...)...)
}

// Trace logs a message at the trace level for a specific module.
func Trace(module string, msg string, ctx ...any) {
	if !isModuleEnabled(module) {
		return
	}
	write(LevelTrace, module, msg, ctx...)
}

// Debug logs a message at the debug level for a specific module.
func Debug(module string, msg string, ctx ...any) {
	if !isModuleEnabled(module) {
		return
	}
	write(LevelDebug, module, msg, ctx...)
}

// Info, Warn and Error do not filter on module.

func Info(module string, msg string, ctx ...any) {
	write(LevelInfo, module, msg, ctx...)
}

func Warn(module string, msg string, ctx ...any) {
	write(LevelWarn, module, msg, ctx...)
}

func Error(module string, msg string, ctx ...any) {
	write(LevelError, module, msg, ctx...)
}
