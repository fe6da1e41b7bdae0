package schedule

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/genricoloni/visuals/internal/domain"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const unitName = "visuals-auto-change"

// SystemdBackend installs a systemd user service and timer
type SystemdBackend struct {
	logger  *zap.Logger
	runner  domain.CommandRunner
	unitDir string
}

// NewSystemdBackend writes units into unitDir, usually ~/.config/systemd/user
func NewSystemdBackend(logger *zap.Logger, runner domain.CommandRunner, unitDir string) *SystemdBackend {
	return &SystemdBackend{logger: logger, runner: runner, unitDir: unitDir}
}

func (b *SystemdBackend) Name() string { return "systemd" }

func (b *SystemdBackend) servicePath() string {
	return filepath.Join(b.unitDir, unitName+".service")
}

func (b *SystemdBackend) timerPath() string {
	return filepath.Join(b.unitDir, unitName+".timer")
}

func (b *SystemdBackend) systemctl(ctx context.Context, args ...string) ([]byte, error) {
	return b.runner.Run(ctx, "systemctl", append([]string{"--user"}, args...)...)
}

// Register writes the units and enables the timer; the units are removed
// again when enabling fails
func (b *SystemdBackend) Register(ctx context.Context, f domain.Frequency, exe string) error {
	if err := os.MkdirAll(b.unitDir, 0755); err != nil {
		return domain.FilesystemError("create unit directory", err)
	}
	if err := os.WriteFile(b.servicePath(), []byte(serviceUnit(exe)), 0644); err != nil {
		return domain.FilesystemError("write service unit", err)
	}
	if err := os.WriteFile(b.timerPath(), []byte(timerUnit(f)), 0644); err != nil {
		b.removeUnits()
		return domain.FilesystemError("write timer unit", err)
	}

	if _, err := b.systemctl(ctx, "daemon-reload"); err != nil {
		b.removeUnits()
		return err
	}
	if _, err := b.systemctl(ctx, "enable", "--now", unitName+".timer"); err != nil {
		b.removeUnits()
		return err
	}

	b.logger.Debug("Timer enabled", zap.String("unit", b.timerPath()))
	return nil
}

// Unregister disables the timer and deletes the units
func (b *SystemdBackend) Unregister(ctx context.Context) error {
	var errs error
	if _, err := b.systemctl(ctx, "disable", "--now", unitName+".timer"); err != nil && !notLoaded(err) {
		errs = multierr.Append(errs, err)
	}
	errs = multierr.Append(errs, b.removeUnits())
	if _, err := b.systemctl(ctx, "daemon-reload"); err != nil {
		b.logger.Debug("daemon-reload failed", zap.Error(err))
	}
	return errs
}

// Query reports whether the timer is enabled
func (b *SystemdBackend) Query(ctx context.Context) (Registration, error) {
	out, err := b.systemctl(ctx, "is-enabled", unitName+".timer")
	state := strings.TrimSpace(string(out))
	if err != nil && state == "" {
		return Registration{}, nil
	}
	return Registration{Registered: state == "enabled"}, nil
}

func (b *SystemdBackend) removeUnits() error {
	var errs error
	for _, p := range []string{b.timerPath(), b.servicePath()} {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = multierr.Append(errs, domain.FilesystemError("remove unit", err))
		}
	}
	return errs
}

func notLoaded(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "not loaded") || strings.Contains(msg, "does not exist") ||
		strings.Contains(msg, "not found")
}

func serviceUnit(exe string) string {
	return fmt.Sprintf(`[Unit]
Description=Visuals wallpaper auto-change

[Service]
Type=oneshot
ExecStart=%q %s
`, exe, AutoChangeCommand)
}

// timerUnit renders the trigger; daily schedules catch up after downtime
func timerUnit(f domain.Frequency) string {
	var trigger string
	if f.Daily() {
		t := f.TimeOfDay()
		trigger = fmt.Sprintf("OnCalendar=*-*-* %02d:%02d:00\nPersistent=true", t.Hour, t.Minute)
	} else {
		trigger = fmt.Sprintf("OnActiveSec=%dh\nOnUnitActiveSec=%dh", f.Hours, f.Hours)
	}
	return fmt.Sprintf(`[Unit]
Description=Visuals wallpaper auto-change (%s)

[Timer]
%s
Unit=%s.service

[Install]
WantedBy=timers.target
`, f.Describe(), trigger, unitName)
}
