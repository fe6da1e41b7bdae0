// Package retention keeps the managed directory bounded and contiguously
// numbered.
package retention

import (
	"bytes"
	"context"
	"errors"
	"os"
	"time"

	"github.com/genricoloni/visuals/internal/config"
	"github.com/genricoloni/visuals/internal/domain"
	"github.com/genricoloni/visuals/internal/library"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const (
	// MaxAge is how long an acquired image is kept
	MaxAge = 30 * 24 * time.Hour
	// KeepLogLines is the number of trailing log lines kept
	KeepLogLines = 100
)

// Report summarizes a cleanup pass
type Report struct {
	Deleted  int
	Renamed  int
	Count    int
	Index    int
	LogLines int
	// Repointed is the new background path when the current one was renamed
	Repointed string
}

// Service runs cleanup passes
type Service struct {
	logger   *zap.Logger
	library  *library.Library
	executor domain.Executor
	logFile  string
	now      func() time.Time
}

// NewService creates a cleanup service; logFile may be empty
func NewService(logger *zap.Logger, lib *library.Library, exec domain.Executor, logFile string) *Service {
	return &Service{
		logger:   logger,
		library:  lib,
		executor: exec,
		logFile:  logFile,
		now:      time.Now,
	}
}

// Run deletes expired images, trims the log and renumbers the survivors
// to 1..N. cfg is updated in place; the caller holds the configuration
// lock. Individual failures are collected and the pass continues.
func (s *Service) Run(ctx context.Context, cfg *config.Config) (Report, error) {
	var report Report
	var errs error

	images, err := s.library.List()
	if err != nil {
		return report, err
	}

	current, err := s.executor.GetCurrentWallpaper(ctx)
	if err != nil {
		s.logger.Debug("Current wallpaper unknown", zap.Error(err))
		current = ""
	}

	cursor := ""
	if i := cfg.AutoChange.Index; i >= 0 && i < len(images) {
		cursor = images[i].Path
	}

	cutoff := s.now().Add(-MaxAge)
	survivors := make([]library.Image, 0, len(images))
	for _, img := range images {
		if img.ModTime.Before(cutoff) {
			if err := s.library.Remove(img); err != nil {
				errs = multierr.Append(errs, err)
				survivors = append(survivors, img)
				continue
			}
			report.Deleted++
			s.logger.Debug("Expired image deleted", zap.String("path", img.Path))
			continue
		}
		survivors = append(survivors, img)
	}

	n, err := s.trimLog()
	errs = multierr.Append(errs, err)
	report.LogLines = n

	newIndex := -1
	for i, img := range survivors {
		renamed, err := s.library.Renumber(img, i+1)
		if err != nil {
			errs = multierr.Append(errs, err)
			renamed = img
		} else if renamed.Path != img.Path {
			report.Renamed++
		}
		survivors[i] = renamed

		if cursor != "" && img.Path == cursor {
			newIndex = i
		}
		if current != "" && renamed.Path != img.Path && library.SamePath(img.Path, current) {
			if err := s.executor.SetWallpaper(ctx, renamed.Path); err != nil {
				errs = multierr.Append(errs, err)
			} else {
				report.Repointed = renamed.Path
			}
		}
	}

	report.Count = len(survivors)
	if newIndex < 0 {
		newIndex = min(cfg.AutoChange.Index, report.Count)
	}
	cfg.AutoChange.Index = newIndex
	cfg.NextSequence = library.NextSequence(report.Count+1, survivors)
	report.Index = newIndex

	s.logger.Info("Cleanup finished",
		zap.Int("deleted", report.Deleted),
		zap.Int("renamed", report.Renamed),
		zap.Int("count", report.Count),
		zap.Int("index", report.Index))
	return report, errs
}

// trimLog keeps the last KeepLogLines lines of the log file in place. The
// file is rewritten rather than replaced so an open append handle keeps
// writing to it.
func (s *Service) trimLog() (int, error) {
	if s.logFile == "" {
		return 0, nil
	}
	data, err := os.ReadFile(s.logFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, domain.FilesystemError("read log", err)
	}

	lines := bytes.SplitAfter(data, []byte("\n"))
	if len(lines) > 0 && len(lines[len(lines)-1]) == 0 {
		lines = lines[:len(lines)-1]
	}
	if len(lines) <= KeepLogLines {
		return len(lines), nil
	}

	kept := bytes.Join(lines[len(lines)-KeepLogLines:], nil)
	if err := os.WriteFile(s.logFile, kept, 0644); err != nil {
		return len(lines), domain.FilesystemError("truncate log", err)
	}
	return KeepLogLines, nil
}
