package logger

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

var Log *slog.Logger

// Audit is an optional dedicated audit logger. The award engine uses it to
// record every XP mutation; if nil, audit events fall back to the main logger.
var Audit *slog.Logger

// Init initializes the global slog logger with a text handler. Sink and level
// can be overridden via THREADOFCLUES_LOG_SINK and THREADOFCLUES_LOG_LEVEL.
func Init() {
	InitWithLevel("")
}

// InitWithLevel initializes the global logger honoring the provided level
// string ("debug", "info", "warn", "error"). An empty level falls back to the
// THREADOFCLUES_LOG_LEVEL environment variable.
func InitWithLevel(level string) {
	sink := os.Getenv("THREADOFCLUES_LOG_SINK") // e.g. "file:/path/to/log"
	lvl := strings.ToLower(strings.TrimSpace(level))
	if lvl == "" {
		lvl = strings.ToLower(strings.TrimSpace(os.Getenv("THREADOFCLUES_LOG_LEVEL")))
	}
	var lv slog.Level
	switch lvl {
	case "debug":
		lv = slog.LevelDebug
	case "warn", "warning":
		lv = slog.LevelWarn
	case "error":
		lv = slog.LevelError
	default:
		lv = slog.LevelInfo
	}

	if strings.HasPrefix(sink, "file:") {
		path := strings.TrimPrefix(sink, "file:")
		f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o640)
		if err == nil {
			Log = slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: lv}))
			return
		}
		fmt.Fprintf(os.Stderr, "failed to open log file %s: %v\n", path, err)
	}
	Log = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lv}))
}

// AttachAuditFileSink configures a JSON-file audit logger writing to
// <auditDir>/audit.log. Award events (XP grants, first-solver claims) are
// mirrored there so the ledger has a replayable trail. maxSize bounds the
// file before rotation; zero selects the default.
func AttachAuditFileSink(auditDir string, maxSize int64) error {
	if auditDir == "" {
		return fmt.Errorf("empty audit dir")
	}
	// Refuse symlinked audit paths to avoid TOCTOU surprises.
	if fi, err := os.Lstat(auditDir); err == nil {
		if fi.Mode()&os.ModeSymlink != 0 {
			return fmt.Errorf("audit path is a symlink: %s", auditDir)
		}
		if !fi.IsDir() {
			return fmt.Errorf("audit path exists and is not a directory: %s", auditDir)
		}
	}
	if err := os.MkdirAll(auditDir, 0o700); err != nil {
		return fmt.Errorf("failed to create audit directory: %w", err)
	}
	if fi2, err := os.Lstat(auditDir); err == nil {
		if fi2.Mode()&os.ModeSymlink != 0 {
			return fmt.Errorf("audit path is a symlink after creation: %s", auditDir)
		}
	}

	fname := filepath.Join(auditDir, "audit.log")
	if maxSize <= 0 {
		maxSize = 10 * 1024 * 1024 // 10MB
	}
	// Rotate oversized files before appending.
	if fi, err := os.Stat(fname); err == nil {
		if fi.Size() > maxSize {
			bak := fname + "." + fi.ModTime().UTC().Format("20060102T150405Z")
			_ = os.Rename(fname, bak)
		}
	}
	f, err := os.OpenFile(fname, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("failed to open audit log file: %w", err)
	}
	Audit = slog.New(slog.NewJSONHandler(f, &slog.HandlerOptions{Level: slog.LevelInfo}))
	// Emit an initial marker so consumers (and tests) can observe that the
	// sink was attached and the file is writable.
	Audit.Info("audit_sink_attached", "path", fname)
	return nil
}

// Debug logs with slog-style key/value pairs.
func Debug(msg string, args ...any) {
	if Log == nil {
		return
	}
	Log.Debug(msg, args...)
}

// Info logs with slog-style key/value pairs.
func Info(msg string, args ...any) {
	if Log == nil {
		return
	}
	Log.Info(msg, args...)
}

// Warn logs with slog-style key/value pairs.
func Warn(msg string, args ...any) {
	if Log == nil {
		return
	}
	Log.Warn(msg, args...)
}

// Error logs with slog-style key/value pairs.
func Error(msg string, args ...any) {
	if Log == nil {
		return
	}
	Log.Error(msg, args...)
}

// AuditEvent writes an audit record, falling back to the main logger when no
// audit sink is attached.
func AuditEvent(msg string, args ...any) {
	if Audit != nil {
		Audit.Info(msg, args...)
		return
	}
	Info(msg, args...)
}
