// Package logger holds the process-wide structured logger. Output goes to a rotating file
// under <dir>/logs; debug mode mirrors it to stderr.
package logger

import (
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/julianstephens/streaklit/internal/constants"
)

// Logger is nil until Init runs. The package helpers are no-ops while it is nil.
var Logger *log.Logger

type Config struct {
	Debug bool
	// ConfigDir is the directory that receives the logs/ subdirectory.
	ConfigDir string
}

// FilePath is where Init writes the log for cfg.
func (cfg Config) FilePath() string {
	return filepath.Join(cfg.ConfigDir, "logs", constants.AppName+".log")
}

func (cfg Config) writer() (io.Writer, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.FilePath()), 0755); err != nil {
		return nil, err
	}
	file := &lumberjack.Logger{
		Filename:   cfg.FilePath(),
		MaxSize:    10, // MB
		MaxBackups: 3,
		MaxAge:     28, // days
		Compress:   true,
	}
	if cfg.Debug {
		return io.MultiWriter(os.Stderr, file), nil
	}
	return file, nil
}

// Init replaces the global logger. Only warnings and errors are written unless
// cfg.Debug is set.
func Init(cfg Config) error {
	w, err := cfg.writer()
	if err != nil {
		return err
	}

	level := log.WarnLevel
	if cfg.Debug {
		level = log.DebugLevel
	}
	Logger = log.NewWithOptions(w, log.Options{
		ReportCaller:    cfg.Debug,
		ReportTimestamp: true,
		Level:           level,
		Prefix:          constants.AppName,
	})
	return nil
}

// Discard returns a logger that drops everything.
func Discard() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.FatalLevel})
}

// Or picks l, then the global logger, then a discarding one. Components constructed
// without a logger use it so they never hold nil.
func Or(l *log.Logger) *log.Logger {
	switch {
	case l != nil:
		return l
	case Logger != nil:
		return Logger
	default:
		return Discard()
	}
}

func logAt(level log.Level, msg string, keyvals []interface{}) {
	if Logger != nil {
		Logger.Log(level, msg, keyvals...)
	}
}

func Debug(msg string, keyvals ...interface{}) { logAt(log.DebugLevel, msg, keyvals) }

func Info(msg string, keyvals ...interface{}) { logAt(log.InfoLevel, msg, keyvals) }

func Warn(msg string, keyvals ...interface{}) { logAt(log.WarnLevel, msg, keyvals) }

func Error(msg string, keyvals ...interface{}) { logAt(log.ErrorLevel, msg, keyvals) }

// Fatal logs msg and exits with status 1 even when no logger is set.
func Fatal(msg string, keyvals ...interface{}) {
	logAt(log.FatalLevel, msg, keyvals)
	os.Exit(1)
}
