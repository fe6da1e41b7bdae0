//go:build !linux && !windows
// +build !linux,!windows

package schedule

import (
	"context"
	"fmt"

	"github.com/genricoloni/visuals/internal/config"
	"github.com/genricoloni/visuals/internal/domain"
	"go.uber.org/zap"
)

// unsupportedBackend rejects registration; `visuals run` remains available
type unsupportedBackend struct{}

// NewBackend returns a backend for hosts without a supported scheduler
func NewBackend(_ *zap.Logger, _ domain.CommandRunner, _ config.Paths) Backend {
	return unsupportedBackend{}
}

func (unsupportedBackend) Name() string { return "none" }

func (unsupportedBackend) Register(context.Context, domain.Frequency, string) error {
	return fmt.Errorf("%w: no system scheduler on this platform, use `visuals run`", domain.ErrUnsupported)
}

func (unsupportedBackend) Unregister(context.Context) error { return nil }

func (unsupportedBackend) Query(context.Context) (Registration, error) {
	return Registration{}, nil
}
