package schedule

import (
	"os"
	"path/filepath"

	"github.com/genricoloni/visuals/internal/config"
	"github.com/genricoloni/visuals/internal/domain"
	"go.uber.org/zap"
)

// NewBackend returns the systemd user-unit backend
func NewBackend(logger *zap.Logger, runner domain.CommandRunner, _ config.Paths) Backend {
	base, err := os.UserConfigDir()
	if err != nil {
		home, _ := os.UserHomeDir()
		base = filepath.Join(home, ".config")
	}
	return NewSystemdBackend(logger, runner, filepath.Join(base, "systemd", "user"))
}
