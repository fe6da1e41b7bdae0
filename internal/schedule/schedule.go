// Package schedule registers the periodic auto-change trigger with the host
// scheduler and reports its state.
package schedule

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/genricoloni/visuals/internal/config"
	"github.com/genricoloni/visuals/internal/domain"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// AutoChangeCommand is the hidden subcommand every trigger invokes
const AutoChangeCommand = "auto-change"

// Registration is what a backend knows about the installed trigger
type Registration struct {
	Registered bool
	// NextRun is the backend's own next-run report, zero when unknown
	NextRun time.Time
}

// Backend installs and removes the trigger in a host scheduler
type Backend interface {
	// Name identifies the host scheduler
	Name() string
	// Register installs a trigger running exe with AutoChangeCommand
	Register(ctx context.Context, f domain.Frequency, exe string) error
	// Unregister removes the trigger; a missing trigger is not an error
	Unregister(ctx context.Context) error
	// Query reports whether the trigger is installed
	Query(ctx context.Context) (Registration, error)
}

// Status is the user-visible schedule state
type Status struct {
	Backend    string
	Registered bool
	Enabled    bool
	Frequency  domain.Frequency
	LastRun    time.Time
	NextRun    time.Time
	Index      int
}

// Manager applies schedule changes to the backend and the configuration
type Manager struct {
	logger  *zap.Logger
	backend Backend
	exe     func() (string, error)
	now     func() time.Time
}

// NewManager creates a schedule manager
func NewManager(logger *zap.Logger, backend Backend) *Manager {
	return &Manager{
		logger:  logger,
		backend: backend,
		exe:     executable,
		now:     time.Now,
	}
}

func executable() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("resolve executable: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return exe, nil
}

// Set replaces any existing trigger with one firing at f
func (m *Manager) Set(ctx context.Context, cfg *config.Config, f domain.Frequency) error {
	if err := f.Validate(); err != nil {
		return err
	}
	exe, err := m.exe()
	if err != nil {
		return err
	}

	if err := m.backend.Unregister(ctx); err != nil {
		m.logger.Debug("Previous trigger not removed", zap.Error(err))
	}
	if err := m.backend.Register(ctx, f, exe); err != nil {
		return fmt.Errorf("register %s trigger: %w", m.backend.Name(), err)
	}

	cfg.AutoChange.Enabled = true
	cfg.AutoChange.Frequency = &f
	m.logger.Info("Auto-change scheduled",
		zap.String("backend", m.backend.Name()),
		zap.String("frequency", f.String()))
	return nil
}

// Unset removes the trigger and disables auto-change
func (m *Manager) Unset(ctx context.Context, cfg *config.Config) error {
	err := m.backend.Unregister(ctx)

	cfg.AutoChange.Enabled = false
	cfg.AutoChange.Frequency = nil
	if err != nil {
		return fmt.Errorf("unregister %s trigger: %w", m.backend.Name(), err)
	}
	m.logger.Info("Auto-change unscheduled", zap.String("backend", m.backend.Name()))
	return nil
}

// Status reports the trigger and rotation state
func (m *Manager) Status(ctx context.Context, cfg *config.Config) (Status, error) {
	st := Status{
		Backend:   m.backend.Name(),
		Enabled:   cfg.AutoChange.Enabled,
		Frequency: cfg.Frequency(),
		LastRun:   cfg.LastAutoChange,
		Index:     cfg.AutoChange.Index,
	}

	reg, err := m.backend.Query(ctx)
	if err != nil {
		return st, err
	}
	st.Registered = reg.Registered
	if !st.Registered {
		return st, nil
	}

	st.NextRun = reg.NextRun
	if st.NextRun.IsZero() {
		st.NextRun, err = NextRun(st.Frequency, st.LastRun, m.now())
	}
	return st, err
}

// NextRun computes the next firing of f after now. Interval schedules are
// anchored on the last run when it is recent enough.
func NextRun(f domain.Frequency, last, now time.Time) (time.Time, error) {
	sched, err := cron.ParseStandard(f.CronSpec())
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s", domain.ErrInvalidFrequency, err)
	}
	if !f.Daily() && !last.IsZero() {
		if next := sched.Next(last); next.After(now) {
			return next, nil
		}
	}
	return sched.Next(now), nil
}
