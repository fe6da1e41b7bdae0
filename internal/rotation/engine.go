// Package rotation advances the background through the managed directory
// one image per scheduled tick.
package rotation

import (
	"context"
	"time"

	"github.com/genricoloni/visuals/internal/acquire"
	"github.com/genricoloni/visuals/internal/config"
	"github.com/genricoloni/visuals/internal/domain"
	"github.com/genricoloni/visuals/internal/library"
	"go.uber.org/zap"
)

// Transition is the step a tick took
type Transition int

const (
	// NoOp leaves the background and the cursor alone
	NoOp Transition = iota
	// Advance paints the image at the cursor and moves past it
	Advance
	// Resync adopts a manually selected managed image as the cursor position
	Resync
	// FetchThenAdvance acquires a new image because the library is exhausted
	FetchThenAdvance
)

func (t Transition) String() string {
	switch t {
	case Advance:
		return "advance"
	case Resync:
		return "resync"
	case FetchThenAdvance:
		return "fetch_then_advance"
	default:
		return "noop"
	}
}

// Outcome reports what a tick did
type Outcome struct {
	Transition Transition
	// Path is the image painted, empty when nothing was painted
	Path  string
	Index int
}

// Acquirer fetches new images into the library
type Acquirer interface {
	Acquire(ctx context.Context, cfg *config.Config, req acquire.Request, progress func(acquire.Event)) (acquire.Result, error)
}

// Engine runs rotation ticks
type Engine struct {
	logger   *zap.Logger
	library  *library.Library
	acquirer Acquirer
	executor domain.Executor
	now      func() time.Time
}

// NewEngine creates a rotation engine
func NewEngine(
	logger *zap.Logger,
	lib *library.Library,
	acq Acquirer,
	exec domain.Executor,
) *Engine {
	return &Engine{
		logger:   logger,
		library:  lib,
		acquirer: acq,
		executor: exec,
		now:      time.Now,
	}
}

// Run performs one tick against cfg. The caller holds the configuration
// lock and persists cfg afterwards.
func (e *Engine) Run(ctx context.Context, cfg *config.Config) (Outcome, error) {
	images, err := e.library.List()
	if err != nil {
		return Outcome{Index: cfg.AutoChange.Index}, err
	}
	index := cfg.AutoChange.Index

	// An executor that cannot report the background is treated as unknown
	current, err := e.executor.GetCurrentWallpaper(ctx)
	if err != nil {
		e.logger.Debug("Current wallpaper unknown", zap.Error(err))
		current = ""
	}

	if len(images) == 0 || index >= len(images) {
		return e.fetchThenAdvance(ctx, cfg)
	}

	if current != "" && !e.library.Contains(current) {
		e.logger.Info("Wallpaper set outside the managed directory, leaving it alone",
			zap.String("current", current))
		return Outcome{Transition: NoOp, Index: index}, nil
	}

	p := -1
	if current != "" {
		p = library.IndexOf(images, current)
	}
	switch {
	case p == index, p == index-1, p < 0:
		return e.paint(ctx, cfg, Advance, images[index].Path, index+1)
	default:
		cfg.AutoChange.Index = p + 1
		cfg.LastAutoChange = e.now()
		e.logger.Info("Manual selection detected, resynchronized",
			zap.String("current", current),
			zap.Int("index", cfg.AutoChange.Index))
		return Outcome{Transition: Resync, Index: cfg.AutoChange.Index}, nil
	}
}

func (e *Engine) fetchThenAdvance(ctx context.Context, cfg *config.Config) (Outcome, error) {
	e.logger.Info("Library exhausted, fetching a new image",
		zap.String("source", cfg.Source.String()),
		zap.Int("index", cfg.AutoChange.Index))

	if _, err := e.acquirer.Acquire(ctx, cfg, acquire.Request{Count: 1, Silent: true}, nil); err != nil {
		e.logger.Warn("Acquisition failed", zap.Error(err))
	}

	images, err := e.library.List()
	if err != nil {
		return Outcome{Index: cfg.AutoChange.Index}, err
	}
	latest, ok := library.Latest(images)
	if !ok {
		e.logger.Warn("No images available")
		return Outcome{Transition: NoOp, Index: cfg.AutoChange.Index}, nil
	}
	return e.paint(ctx, cfg, FetchThenAdvance, latest.Path, len(images))
}

// paint sets the background and commits the cursor only on success
func (e *Engine) paint(ctx context.Context, cfg *config.Config, t Transition, path string, next int) (Outcome, error) {
	if err := e.executor.SetWallpaper(ctx, path); err != nil {
		e.logger.Error("Failed to set wallpaper", zap.String("path", path), zap.Error(err))
		return Outcome{Transition: t, Index: cfg.AutoChange.Index}, err
	}

	cfg.AutoChange.Index = next
	cfg.LastAutoChange = e.now()
	e.logger.Info("Wallpaper updated successfully",
		zap.String("transition", t.String()),
		zap.String("path", path),
		zap.Int("index", next))
	return Outcome{Transition: t, Path: path, Index: next}, nil
}
