//go:build darwin
// +build darwin

package executor

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/genricoloni/visuals/internal/domain"
	"go.uber.org/zap"
)

// DarwinExecutor drives System Events through osascript
type DarwinExecutor struct {
	logger *zap.Logger
	runner domain.CommandRunner
}

// NewExecutor creates the platform-specific wallpaper executor (macOS implementation)
func NewExecutor(logger *zap.Logger, runner domain.CommandRunner) (domain.Executor, error) {
	return &DarwinExecutor{logger: logger, runner: runner}, nil
}

// SetWallpaper sets the picture of every desktop
func (e *DarwinExecutor) SetWallpaper(ctx context.Context, imagePath string) error {
	script := fmt.Sprintf(`tell application "System Events" to tell every desktop to set picture to %s`,
		strconv.Quote(imagePath))
	if _, err := e.runner.Run(ctx, "osascript", "-e", script); err != nil {
		return fmt.Errorf("failed to set wallpaper with osascript: %w", err)
	}
	e.logger.Info("Wallpaper set successfully", zap.String("path", imagePath))
	return nil
}

// GetCurrentWallpaper returns the picture of the current desktop
func (e *DarwinExecutor) GetCurrentWallpaper(ctx context.Context) (string, error) {
	out, err := e.runner.Run(ctx, "osascript", "-e",
		`tell application "System Events" to get picture of current desktop`)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}
