// Package logging provides categorized structured logging for the intake
// engine. Every subsystem logs through a named category so a single run can
// be filtered down to the flow driver, playbook detection, triage, AI calls,
// or store traffic.
package logging

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category represents a log category/subsystem.
type Category string

const (
	CategoryBoot     Category = "boot"     // Startup and configuration load
	CategoryFlow     Category = "flow"     // State machine transitions
	CategoryPlaybook Category = "playbook" // Playbook detection and activation
	CategoryTriage   Category = "triage"   // Triage routing decisions
	CategoryAI       Category = "ai"       // Model API calls
	CategoryStore    Category = "store"    // Session and claim persistence
	CategoryConfig   Category = "config"   // Config reloads and overrides
)

var (
	root    *zap.Logger
	sugared = make(map[Category]*zap.SugaredLogger)
	mu      sync.RWMutex
)

// Initialize builds the process-wide logger. Call once at startup; debug
// lowers the level and switches to the development encoder.
func Initialize(debug bool) error {
	cfg := zap.NewProductionConfig()
	if debug {
		cfg = zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	logger, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	mu.Lock()
	root = logger
	sugared = make(map[Category]*zap.SugaredLogger)
	mu.Unlock()
	return nil
}

// SetLogger installs an externally built logger. Tests use this with
// zap.NewNop or an observer core.
func SetLogger(logger *zap.Logger) {
	mu.Lock()
	root = logger
	sugared = make(map[Category]*zap.SugaredLogger)
	mu.Unlock()
}

// Get returns the logger for a category. Safe to call before Initialize;
// messages are dropped until a logger exists.
func Get(category Category) *zap.SugaredLogger {
	mu.RLock()
	if l, ok := sugared[category]; ok {
		mu.RUnlock()
		return l
	}
	mu.RUnlock()

	mu.Lock()
	defer mu.Unlock()
	if l, ok := sugared[category]; ok {
		return l
	}
	base := root
	if base == nil {
		base = zap.NewNop()
	}
	l := base.With(zap.String("cat", string(category))).Sugar()
	sugared[category] = l
	return l
}

// Sync flushes buffered log entries. Call at shutdown.
func Sync() {
	mu.RLock()
	defer mu.RUnlock()
	if root != nil {
		_ = root.Sync()
	}
}

// =============================================================================
// CONVENIENCE FUNCTIONS - Quick logging without getting a logger first
// =============================================================================

// Boot logs to the boot category.
func Boot(format string, args ...interface{}) {
	Get(CategoryBoot).Infof(format, args...)
}

// Flow logs to the flow category.
func Flow(format string, args ...interface{}) {
	Get(CategoryFlow).Infof(format, args...)
}

// FlowDebug logs debug to the flow category.
func FlowDebug(format string, args ...interface{}) {
	Get(CategoryFlow).Debugf(format, args...)
}

// Playbook logs to the playbook category.
func Playbook(format string, args ...interface{}) {
	Get(CategoryPlaybook).Infof(format, args...)
}

// PlaybookDebug logs debug to the playbook category.
func PlaybookDebug(format string, args ...interface{}) {
	Get(CategoryPlaybook).Debugf(format, args...)
}

// Triage logs to the triage category.
func Triage(format string, args ...interface{}) {
	Get(CategoryTriage).Infof(format, args...)
}

// AI logs to the ai category.
func AI(format string, args ...interface{}) {
	Get(CategoryAI).Infof(format, args...)
}

// AIWarn logs warning to the ai category.
func AIWarn(format string, args ...interface{}) {
	Get(CategoryAI).Warnf(format, args...)
}

// Store logs to the store category.
func Store(format string, args ...interface{}) {
	Get(CategoryStore).Infof(format, args...)
}

// StoreError logs error to the store category.
func StoreError(format string, args ...interface{}) {
	Get(CategoryStore).Errorf(format, args...)
}

// Config logs to the config category.
func Config(format string, args ...interface{}) {
	Get(CategoryConfig).Infof(format, args...)
}
