package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Level is the minimum severity a Logger writes.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String returns the tag printed in each log line.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return fmt.Sprintf("LEVEL(%d)", int(l))
	}
}

// ParseLevel maps a case-insensitive name ("debug", "info", "warn", "warning", "error") to a Level.
func ParseLevel(name string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	}
	return LevelInfo, fmt.Errorf("unknown log level %q", name)
}

// Logger writes timestamped, levelled lines tagged with a component name.
// Output goes to stderr unless a writer or a log directory is configured.
type Logger struct {
	sessionID string
	component string
	level     Level
	file      *os.File
	logger    *log.Logger
	mu        sync.Mutex
	logPath   string
	closeOnce sync.Once
	now       func() time.Time
}

var (
	// Global session ID for the current process
	sessionID     string
	sessionIDOnce sync.Once
)

// getSessionID returns or creates the session ID for this process
func getSessionID() string {
	sessionIDOnce.Do(func() {
		sessionID = uuid.New().String()
	})
	return sessionID
}

// Option configures a Logger.
type Option func(*config)

type config struct {
	writer io.Writer
	level  Level
	dir    string
	now    func() time.Time
}

// WithWriter sends log lines to w instead of stderr.
func WithWriter(w io.Writer) Option {
	return func(c *config) {
		c.writer = w
	}
}

// WithLevel drops messages below level. Defaults to LevelInfo.
func WithLevel(level Level) Option {
	return func(c *config) {
		c.level = level
	}
}

// WithFile appends log lines to <dir>/<session-id>-stockroom.log.
// Takes precedence over WithWriter.
func WithFile(dir string) Option {
	return func(c *config) {
		c.dir = dir
	}
}

// WithClock overrides the timestamp source, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(c *config) {
		c.now = now
	}
}

// New creates a logger for a specific component.
//
// If a log directory was requested but cannot be created or opened, New
// returns a logger that writes to stderr along with the error, so callers
// can warn about fallback mode and keep going.
func New(component string, opts ...Option) (*Logger, error) {
	cfg := config{
		writer: os.Stderr,
		level:  LevelInfo,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	l := &Logger{
		sessionID: getSessionID(),
		component: component,
		level:     cfg.level,
		now:       cfg.now,
	}

	if cfg.dir == "" {
		l.logger = log.New(cfg.writer, "", 0) // timestamps are formatted by formatLogEntry
		return l, nil
	}

	if err := os.MkdirAll(cfg.dir, 0750); err != nil {
		return l.fallback(cfg.writer, fmt.Errorf("failed to create log directory: %w", err))
	}

	logPath := filepath.Join(cfg.dir, fmt.Sprintf("%s-stockroom.log", l.sessionID))

	// Append mode: every component of the process shares the session file
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return l.fallback(cfg.writer, fmt.Errorf("failed to open log file: %w", err))
	}

	l.file = file
	l.logPath = logPath
	l.logger = log.New(file, "", 0)
	return l, nil
}

// fallback routes output to w, the writer used when no directory is set.
func (l *Logger) fallback(w io.Writer, err error) (*Logger, error) {
	l.logger = log.New(w, "", 0)
	l.logger.Println(l.formatLogEntry(LevelWarn, fmt.Sprintf("Failed to initialize file logging: %v; falling back to stderr", err)))
	return l, err
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{
		component: "nop",
		level:     LevelError + 1,
		logger:    log.New(io.Discard, "", 0),
		now:       time.Now,
	}
}

// formatLogEntry creates a log line with timestamp, component, and level
func (l *Logger) formatLogEntry(level Level, message string) string {
	timestamp := l.now().Format("2006-01-02 15:04:05.000")
	return fmt.Sprintf("[%s] [%s] [%s] %s", timestamp, l.component, level, message)
}

func (l *Logger) logf(level Level, format string, v ...interface{}) {
	if level < l.level {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	message := fmt.Sprintf(format, v...)
	l.logger.Println(l.formatLogEntry(level, message))
}

// Printf logs a formatted message at info level
func (l *Logger) Printf(format string, v ...interface{}) {
	l.logf(LevelInfo, format, v...)
}

// Debugf logs a debug-level message
func (l *Logger) Debugf(format string, v ...interface{}) {
	l.logf(LevelDebug, format, v...)
}

// Infof logs an info-level message
func (l *Logger) Infof(format string, v ...interface{}) {
	l.logf(LevelInfo, format, v...)
}

// Warnf logs a warning-level message
func (l *Logger) Warnf(format string, v ...interface{}) {
	l.logf(LevelWarn, format, v...)
}

// Errorf logs an error-level message
func (l *Logger) Errorf(format string, v ...interface{}) {
	l.logf(LevelError, format, v...)
}

// Level returns the minimum level this logger writes.
func (l *Logger) Level() Level {
	return l.level
}

// SessionID returns the current session ID
func (l *Logger) SessionID() string {
	return l.sessionID
}

// LogPath returns the path to the log file, or "" when not logging to a file.
func (l *Logger) LogPath() string {
	return l.logPath
}

// Close closes the log file. Safe to call multiple times.
func (l *Logger) Close() error {
	var err error
	l.closeOnce.Do(func() {
		if l.file != nil {
			err = l.file.Close()
		}
	})
	return err
}

// GetSessionID returns the current global session ID
func GetSessionID() string {
	return getSessionID()
}
