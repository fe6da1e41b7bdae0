package schedule

import (
	"github.com/genricoloni/visuals/internal/config"
	"github.com/genricoloni/visuals/internal/domain"
	"go.uber.org/zap"
)

// NewBackend returns the Task Scheduler backend
func NewBackend(logger *zap.Logger, runner domain.CommandRunner, paths config.Paths) Backend {
	return NewSchtasksBackend(logger, runner, paths.ConfigDir)
}
