// Package logging builds the process-wide slog logger. Output goes to a
// JSON lines file because the screen owns stdout.
package logging

import (
	"crypto/rand"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/odvcencio/tilewm/pkg/paths"
)

// LevelOff disables logging entirely.
const LevelOff = "off"

// Options configure Open.
type Options struct {
	// Level is debug, info, warn, error or off.
	Level string
	// File defaults to DefaultPath().
	File string
}

// Logger is the root logger plus the file it writes to.
type Logger struct {
	*slog.Logger
	session string
	path    string
	closer  io.Closer
}

// ParseLevel maps a config level name onto slog. ok is false for "off".
func ParseLevel(name string) (level slog.Level, ok bool, err error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug, true, nil
	case "", "info":
		return slog.LevelInfo, true, nil
	case "warn", "warning":
		return slog.LevelWarn, true, nil
	case "error":
		return slog.LevelError, true, nil
	case LevelOff:
		return 0, false, nil
	default:
		return 0, false, fmt.Errorf("unknown log level %q", name)
	}
}

// DefaultPath returns $XDG_STATE_HOME/tilewm/tilewm.log, falling back to
// ~/.local/state.
func DefaultPath() string {
	return paths.LogFile()
}

// NewSessionID returns a time-ordered identifier for one run.
func NewSessionID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()
}

// Open creates the root logger. Every record carries the session ID.
func Open(opts Options) (*Logger, error) {
	level, enabled, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}
	session := NewSessionID()
	if !enabled {
		return &Logger{
			Logger:  slog.New(slog.DiscardHandler).With("session", session),
			session: session,
		}, nil
	}

	path := paths.ExpandHome(opts.File)
	if path == "" {
		path = DefaultPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	l := New(f, level).With("session", session)
	return &Logger{Logger: l, session: session, path: path, closer: f}, nil
}

// New returns a JSON logger on w at level.
func New(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// Session returns the run's session ID.
func (l *Logger) Session() string {
	return l.session
}

// Path returns the log file, or "" when logging is off.
func (l *Logger) Path() string {
	return l.path
}

// Close flushes and closes the log file.
func (l *Logger) Close() error {
	if l.closer == nil {
		return nil
	}
	err := l.closer.Close()
	l.closer = nil
	return err
}
