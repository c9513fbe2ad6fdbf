package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	domain "github.com/NeuralTrust/IPGuard/pkg/domain/report"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Config struct {
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

type logSink struct {
	logger *logrus.Logger
}

// NewLogSink writes summaries as structured log entries.
func NewLogSink(logger *logrus.Logger) *logSink {
	return &logSink{logger: logger}
}

func (s *logSink) Write(_ context.Context, summary domain.Summary) error {
	s.logger.WithFields(logrus.Fields{
		"report_id":          summary.ID.String(),
		"window_start":       summary.WindowStart,
		"total_active":       summary.TotalActive,
		"automatic":          summary.Automatic,
		"manual":             summary.Manual,
		"permanent":          summary.Permanent,
		"top_categories":     summary.TopCategories,
		"top_countries":      summary.TopCountries,
		"review_queue":       summary.ReviewQueue,
		"blocks_in_window":   summary.BlocksInWindow,
		"unblocks_in_window": summary.UnblocksInWindow,
	}).Info("blocking summary report")
	return nil
}

type fileSink struct {
	mu sync.Mutex
	w  io.WriteCloser
}

// NewFileSink appends one JSON document per line to a rotating file.
func NewFileSink(cfg Config) (*fileSink, error) {
	if cfg.File == "" {
		return nil, errors.New("report file is required")
	}
	return newFileSink(&lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    orDefault(cfg.MaxSizeMB, 10),
		MaxBackups: orDefault(cfg.MaxBackups, 30),
		MaxAge:     orDefault(cfg.MaxAgeDays, 90),
		Compress:   true,
	}), nil
}

func newFileSink(w io.WriteCloser) *fileSink {
	return &fileSink{w: w}
}

func (s *fileSink) Write(_ context.Context, summary domain.Summary) error {
	b, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	b = append(b, '\n')
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.w.Write(b); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

func (s *fileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Close()
}

func orDefault(v, d int) int {
	if v <= 0 {
		return d
	}
	return v
}
