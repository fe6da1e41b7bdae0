//go:build !linux && !windows && !darwin
// +build !linux,!windows,!darwin

package executor

import (
	"context"
	"fmt"

	"github.com/genricoloni/visuals/internal/domain"
	"go.uber.org/zap"
)

// StubExecutor is a placeholder for unsupported platforms (BSD, etc.)
type StubExecutor struct {
	logger *zap.Logger
}

// NewExecutor creates a stub executor for unsupported platforms
func NewExecutor(logger *zap.Logger, _ domain.CommandRunner) (domain.Executor, error) {
	logger.Warn("Wallpaper setting is not implemented for this platform")
	return &StubExecutor{logger: logger}, nil
}

// SetWallpaper returns an error indicating the platform is not supported
func (e *StubExecutor) SetWallpaper(ctx context.Context, imagePath string) error {
	return fmt.Errorf("%w: wallpaper setting on this platform", domain.ErrUnsupported)
}

// GetCurrentWallpaper returns an error indicating the platform is not supported
func (e *StubExecutor) GetCurrentWallpaper(ctx context.Context) (string, error) {
	return "", fmt.Errorf("%w: wallpaper query on this platform", domain.ErrUnsupported)
}
