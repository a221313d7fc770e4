// Package log is the process-wide leveled logger. It wraps
// charmbracelet/log so callers log with a message plus key/value pairs:
//
//	log.Info("cloned repository", "repo", ref.Repository, "ref", ref.Branch)
package log

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	charmlog "github.com/charmbracelet/log"
)

// Level names accepted by SetLevel.
const (
	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

var (
	mu     sync.RWMutex
	logger = newLogger(os.Stderr)
)

func newLogger(w io.Writer) *charmlog.Logger {
	return charmlog.NewWithOptions(w, charmlog.Options{
		Prefix: "npm-preview",
		Level:  charmlog.InfoLevel,
	})
}

// SetOutput redirects log output, keeping the current level.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	level := logger.GetLevel()
	logger = newLogger(w)
	logger.SetLevel(level)
}

// SetLevel sets the minimum level. An empty string leaves the level unchanged.
func SetLevel(level string) error {
	level = strings.ToLower(strings.TrimSpace(level))
	if level == "" {
		return nil
	}
	parsed, err := charmlog.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q (expected debug, info, warn or error)", level)
	}
	mu.Lock()
	defer mu.Unlock()
	logger.SetLevel(parsed)
	return nil
}

// Enabled reports whether messages at level would be written.
func Enabled(level string) bool {
	parsed, err := charmlog.ParseLevel(level)
	if err != nil {
		return false
	}
	mu.RLock()
	defer mu.RUnlock()
	return logger.GetLevel() <= parsed
}

func current() *charmlog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

func Debug(msg string, keyvals ...interface{}) { current().Debug(msg, keyvals...) }

func Info(msg string, keyvals ...interface{}) { current().Info(msg, keyvals...) }

func Warn(msg string, keyvals ...interface{}) { current().Warn(msg, keyvals...) }

func Error(msg string, keyvals ...interface{}) { current().Error(msg, keyvals...) }
