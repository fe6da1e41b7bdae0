//go:build windows
// +build windows

package executor

import (
	"context"
	"fmt"
	"unsafe"

	"github.com/genricoloni/visuals/internal/domain"
	"github.com/lxn/win"
	"go.uber.org/zap"
	"golang.org/x/sys/windows"
)

const (
	spiSetDeskWallpaper = 0x0014
	spiGetDeskWallpaper = 0x0073
	spifUpdateIniFile   = 0x01
	spifSendChange      = 0x02
)

// WindowsExecutor handles wallpaper setting on Windows systems
type WindowsExecutor struct {
	logger *zap.Logger
}

// NewExecutor creates the platform-specific wallpaper executor (Windows implementation)
func NewExecutor(logger *zap.Logger, _ domain.CommandRunner) (domain.Executor, error) {
	logger.Debug("Windows wallpaper setter initialized")
	return &WindowsExecutor{logger: logger}, nil
}

// SetWallpaper sets the desktop wallpaper using SystemParametersInfoW
func (e *WindowsExecutor) SetWallpaper(ctx context.Context, imagePath string) error {
	p, err := windows.UTF16PtrFromString(imagePath)
	if err != nil {
		return fmt.Errorf("invalid wallpaper path: %w", err)
	}
	if !win.SystemParametersInfo(spiSetDeskWallpaper, 0, unsafe.Pointer(p), spifUpdateIniFile|spifSendChange) {
		return fmt.Errorf("SystemParametersInfo failed: %w", windows.GetLastError())
	}

	e.logger.Info("Wallpaper set successfully", zap.String("path", imagePath))
	return nil
}

// GetCurrentWallpaper reads the desktop wallpaper path
func (e *WindowsExecutor) GetCurrentWallpaper(ctx context.Context) (string, error) {
	buf := make([]uint16, windows.MAX_PATH)
	if !win.SystemParametersInfo(spiGetDeskWallpaper, uint32(len(buf)), unsafe.Pointer(&buf[0]), 0) {
		return "", fmt.Errorf("SystemParametersInfo failed: %w", windows.GetLastError())
	}
	return windows.UTF16ToString(buf), nil
}
