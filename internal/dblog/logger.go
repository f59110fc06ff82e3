// Package dblog provides the engine's structured logger: a package-level
// *slog.Logger, lazily initialized, configurable to stdout/file and
// text/json, shared by every subsystem.
package dblog

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

var (
	logger   *slog.Logger
	mu       sync.RWMutex
	logFile  *os.File
	inited   bool
	initOnce sync.Once
)

// Level mirrors slog's verbosity levels under engine-specific names so
// callers needn't import log/slog directly.
type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

// Config controls where and how the logger writes.
type Config struct {
	Level      Level
	OutputPath string // empty for stdout
	Format     string // "json" or "text"
}

// Init installs the global logger. Returns an error if already initialized;
// call Close first to reinitialize.
func Init(cfg Config) error {
	mu.Lock()
	defer mu.Unlock()

	if inited {
		return fmt.Errorf("dblog: already initialized; call Close() first")
	}

	var w io.Writer = os.Stdout
	if cfg.OutputPath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.OutputPath), 0o750); err != nil {
			return err
		}
		f, err := os.OpenFile(cfg.OutputPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return err
		}
		w = f
		logFile = f
	}

	var level slog.Level
	switch cfg.Level {
	case LevelDebug:
		level = slog.LevelDebug
	case LevelWarn:
		level = slog.LevelWarn
	case LevelError:
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler
	if cfg.Format == "json" {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}

	logger = slog.New(h)
	inited = true
	return nil
}

func initDefault() {
	mu.Lock()
	defer mu.Unlock()
	if inited {
		return
	}
	logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	inited = true
}

// Close releases any open log file and resets initialization state.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if !inited {
		return nil
	}
	var err error
	if logFile != nil {
		err = logFile.Close()
		logFile = nil
	}
	logger = nil
	inited = false
	initOnce = sync.Once{}
	return err
}

// Get returns the global logger, lazily defaulting to stdout/text/info.
func Get() *slog.Logger {
	mu.RLock()
	if inited {
		l := logger
		mu.RUnlock()
		return l
	}
	mu.RUnlock()

	initOnce.Do(initDefault)

	mu.RLock()
	defer mu.RUnlock()
	return logger
}

func Debug(msg string, args ...any) { Get().Debug(msg, args...) }
func Info(msg string, args ...any)  { Get().Info(msg, args...) }
func Warn(msg string, args ...any)  { Get().Warn(msg, args...) }
func Error(msg string, args ...any) { Get().Error(msg, args...) }
