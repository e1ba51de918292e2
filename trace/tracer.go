package trace

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// Level represents different levels of tracing
type Level int

const (
	LevelOff Level = iota
	LevelError
	LevelWarn
	LevelInfo
	LevelDebug
	LevelVerbose
)

// String returns the string representation of Level
func (l Level) String() string {
	switch l {
	case LevelOff:
		return "OFF"
	case LevelError:
		return "ERROR"
	case LevelWarn:
		return "WARN"
	case LevelInfo:
		return "INFO"
	case LevelDebug:
		return "DEBUG"
	case LevelVerbose:
		return "VERBOSE"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel parses a level name. Unknown names map to LevelOff.
func ParseLevel(s string) Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ERROR":
		return LevelError
	case "WARN":
		return LevelWarn
	case "INFO":
		return LevelInfo
	case "DEBUG":
		return LevelDebug
	case "VERBOSE":
		return LevelVerbose
	default:
		return LevelOff
	}
}

func (l Level) slogLevel() slog.Level {
	switch l {
	case LevelError:
		return slog.LevelError
	case LevelWarn:
		return slog.LevelWarn
	case LevelInfo:
		return slog.LevelInfo
	default:
		// DEBUG and VERBOSE both land on slog's debug level.
		return slog.LevelDebug
	}
}

// Component represents different components that can be traced
type Component string

const (
	ComponentPlanning  Component = "PLANNING"
	ComponentExecution Component = "EXECUTION"
	ComponentRegistry  Component = "REGISTRY"
	ComponentStore     Component = "STORE"
	ComponentPersist   Component = "PERSIST"
	ComponentCLI       Component = "CLI"
)

// AllComponents lists every component known to the tracer.
var AllComponents = []Component{
	ComponentPlanning,
	ComponentExecution,
	ComponentRegistry,
	ComponentStore,
	ComponentPersist,
	ComponentCLI,
}

// Tracer provides component-scoped tracing for coleval
type Tracer struct {
	level             Level
	enabledComponents map[Component]bool
	logger            *slog.Logger
	mutex             sync.RWMutex
}

// Global tracer instance
var globalTracer *Tracer
var tracerOnce sync.Once

// Get returns the global tracer instance
func Get() *Tracer {
	tracerOnce.Do(func() {
		globalTracer = New(os.Stderr, "text")
		globalTracer.configureFromEnv()
	})
	return globalTracer
}

// New creates a tracer writing to w. Format must be "text" or "json".
// The tracer starts with level OFF and no enabled components.
func New(w io.Writer, format string) *Tracer {
	t := &Tracer{
		level:             LevelOff,
		enabledComponents: make(map[Component]bool),
	}
	t.SetOutput(w, format)
	return t
}

// configureFromEnv configures the tracer from environment variables
func (t *Tracer) configureFromEnv() {
	if levelStr := os.Getenv("COLEVAL_TRACE_LEVEL"); levelStr != "" {
		t.SetLevel(ParseLevel(levelStr))
	}

	// COLEVAL_TRACE_COMPONENTS is comma-separated, or ALL
	if componentsStr := os.Getenv("COLEVAL_TRACE_COMPONENTS"); componentsStr != "" {
		t.EnableComponents(strings.Split(componentsStr, ",")...)
	}
}

// SetOutput replaces the slog handler used to emit entries.
func (t *Tracer) SetOutput(w io.Writer, format string) {
	if w == nil {
		w = os.Stderr
	}
	// Filtering happens in IsEnabled, so the handler accepts everything.
	opts := &slog.HandlerOptions{Level: slog.LevelDebug}

	var handler slog.Handler
	switch format {
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	default:
		handler = slog.NewTextHandler(w, opts)
	}

	t.mutex.Lock()
	defer t.mutex.Unlock()
	t.logger = slog.New(handler)
}

// SetLevel sets the trace level
func (t *Tracer) SetLevel(level Level) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	t.level = level
}

// EnableComponent enables tracing for a specific component
func (t *Tracer) EnableComponent(component Component) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	t.enabledComponents[component] = true
}

// EnableComponents enables components by name. The name ALL enables every component.
func (t *Tracer) EnableComponents(names ...string) {
	for _, name := range names {
		name = strings.TrimSpace(strings.ToUpper(name))
		if name == "" {
			continue
		}
		if name == "ALL" {
			for _, comp := range AllComponents {
				t.EnableComponent(comp)
			}
			continue
		}
		t.EnableComponent(Component(name))
	}
}

// DisableComponent disables tracing for a specific component
func (t *Tracer) DisableComponent(component Component) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	t.enabledComponents[component] = false
}

// IsEnabled checks if tracing is enabled for a given level and component
func (t *Tracer) IsEnabled(level Level, component Component) bool {
	t.mutex.RLock()
	defer t.mutex.RUnlock()

	return level != LevelOff && t.level >= level && t.enabledComponents[component]
}

func (t *Tracer) trace(level Level, component Component, message string, fields map[string]interface{}) {
	if !t.IsEnabled(level, component) {
		return
	}

	t.mutex.RLock()
	logger := t.logger
	t.mutex.RUnlock()

	attrs := make([]slog.Attr, 0, len(fields)+1)
	attrs = append(attrs, slog.String("component", string(component)))
	for k, v := range fields {
		attrs = append(attrs, slog.Any(k, v))
	}
	if level == LevelVerbose {
		attrs = append(attrs, slog.Bool("verbose", true))
	}
	logger.LogAttrs(context.Background(), level.slogLevel(), message, attrs...)
}

func first(fields []map[string]interface{}) map[string]interface{} {
	if len(fields) > 0 {
		return fields[0]
	}
	return nil
}

// Error logs an error-level trace
func (t *Tracer) Error(component Component, message string, fields ...map[string]interface{}) {
	t.trace(LevelError, component, message, first(fields))
}

// Warn logs a warning-level trace
func (t *Tracer) Warn(component Component, message string, fields ...map[string]interface{}) {
	t.trace(LevelWarn, component, message, first(fields))
}

// Info logs an info-level trace
func (t *Tracer) Info(component Component, message string, fields ...map[string]interface{}) {
	t.trace(LevelInfo, component, message, first(fields))
}

// Debug logs a debug-level trace
func (t *Tracer) Debug(component Component, message string, fields ...map[string]interface{}) {
	t.trace(LevelDebug, component, message, first(fields))
}

// Verbose logs a verbose-level trace
func (t *Tracer) Verbose(component Component, message string, fields ...map[string]interface{}) {
	t.trace(LevelVerbose, component, message, first(fields))
}

// Context creates a fields map for tracing from key/value pairs
func Context(pairs ...interface{}) map[string]interface{} {
	fields := make(map[string]interface{})
	for i := 0; i < len(pairs)-1; i += 2 {
		if key, ok := pairs[i].(string); ok {
			fields[key] = pairs[i+1]
		}
	}
	return fields
}
