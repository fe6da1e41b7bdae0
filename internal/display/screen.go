// Package display probes the primary screen so downloads can be sized to it.
package display

import (
	"github.com/genricoloni/visuals/internal/domain"
	"github.com/kbinani/screenshot"
	"go.uber.org/zap"
)

// probe is replaced in tests
var probe = func() (n, width, height int) {
	n = screenshot.NumActiveDisplays()
	if n <= 0 {
		return n, 0, 0
	}
	bounds := screenshot.GetDisplayBounds(0)
	return n, bounds.Dx(), bounds.Dy()
}

// NewScreenResolution detects the primary screen resolution at startup.
// Headless sessions (scheduled runs on some systems) fall back to FHD.
func NewScreenResolution(logger *zap.Logger) domain.ScreenResolution {
	n, w, h := probe()
	if n <= 0 || w <= 0 || h <= 0 {
		logger.Debug("No active displays detected, falling back to 1920x1080")
		return domain.MinimumSize
	}

	res := domain.ScreenResolution{Width: w, Height: h}
	logger.Debug("Screen resolution detected",
		zap.Int("width", res.Width),
		zap.Int("height", res.Height))

	return res
}
