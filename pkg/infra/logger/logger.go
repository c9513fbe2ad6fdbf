package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Config struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Console    bool   `mapstructure:"console"`
}

// Logger bundles the logrus logger with the writers that need closing on
// shutdown.
type Logger struct {
	*logrus.Logger
	closers []func()
}

func NewLogger(cfg Config) (*Logger, error) {
	l := logrus.New()

	l.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: time.RFC3339,
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime: "time",
			logrus.FieldKeyMsg:  "msg",
		},
	})
	l.SetLevel(parseLevel(cfg.Level))

	out := &Logger{Logger: l}

	if cfg.File == "" {
		l.SetOutput(os.Stdout)
		return out, nil
	}

	logFile := filepath.Clean(cfg.File)
	if strings.Contains(logFile, "..") {
		return nil, fmt.Errorf("invalid log file path %q", cfg.File)
	}
	if err := os.MkdirAll(filepath.Dir(logFile), 0750); err != nil {
		return nil, fmt.Errorf("failed to create logs directory: %w", err)
	}

	rotating := &lumberjack.Logger{
		Filename:   logFile,
		MaxSize:    orDefault(cfg.MaxSizeMB, 100),
		MaxBackups: orDefault(cfg.MaxBackups, 5),
		MaxAge:     orDefault(cfg.MaxAgeDays, 14),
		Compress:   true,
	}
	asyncWriter := NewAsyncFileWriter(rotating, 32*1024)
	l.SetOutput(asyncWriter)
	out.closers = append(out.closers, asyncWriter.Close)

	if cfg.Console {
		hook := NewAsyncConsoleHook(1000, os.Stdout, l.GetLevel())
		l.AddHook(hook)
		out.closers = append(out.closers, hook.Close)
	}

	return out, nil
}

// Close flushes buffered log lines.
func (l *Logger) Close() {
	for i := len(l.closers) - 1; i >= 0; i-- {
		l.closers[i]()
	}
}

// Discard returns a logger that drops everything. Used by tests.
func Discard() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func parseLevel(level string) logrus.Level {
	if level == "" {
		level = os.Getenv("LOG_LEVEL")
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return logrus.InfoLevel
	}
	return lvl
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
