package schedule

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/genricoloni/visuals/internal/config"
	"github.com/genricoloni/visuals/internal/domain"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeBackend struct {
	registered  bool
	frequency   domain.Frequency
	exe         string
	unregisters int
	registerErr error
	unregErr    error
	nextRun     time.Time
}

func (b *fakeBackend) Name() string { return "fake" }

func (b *fakeBackend) Register(_ context.Context, f domain.Frequency, exe string) error {
	if b.registerErr != nil {
		return b.registerErr
	}
	b.registered, b.frequency, b.exe = true, f, exe
	return nil
}

func (b *fakeBackend) Unregister(context.Context) error {
	b.unregisters++
	b.registered = false
	return b.unregErr
}

func (b *fakeBackend) Query(context.Context) (Registration, error) {
	return Registration{Registered: b.registered, NextRun: b.nextRun}, nil
}

func newManager(b Backend, now time.Time) *Manager {
	m := NewManager(zap.NewNop(), b)
	m.exe = func() (string, error) { return "/usr/local/bin/visuals", nil }
	m.now = func() time.Time { return now }
	return m
}

var now = time.Date(2026, 5, 4, 7, 30, 0, 0, time.Local)

func TestManager_Set(t *testing.T) {
	b := &fakeBackend{}
	m := newManager(b, now)
	cfg := config.Default()

	require.NoError(t, m.Set(context.Background(), cfg, domain.EveryHours(6)))
	require.True(t, b.registered)
	require.Equal(t, "/usr/local/bin/visuals", b.exe)
	require.Equal(t, 1, b.unregisters, "previous registration is removed first")
	require.True(t, cfg.AutoChange.Enabled)
	require.Equal(t, domain.EveryHours(6), cfg.Frequency())

	// Idempotent
	require.NoError(t, m.Set(context.Background(), cfg, domain.EveryHours(6)))
	require.True(t, b.registered)
}

func TestManager_SetRejectsInvalidFrequency(t *testing.T) {
	b := &fakeBackend{}
	m := newManager(b, now)
	cfg := config.Default()

	err := m.Set(context.Background(), cfg, domain.EveryHours(48))
	require.ErrorIs(t, err, domain.ErrInvalidFrequency)
	require.False(t, b.registered)
	require.False(t, cfg.AutoChange.Enabled)
}

func TestManager_SetKeepsConfigOnRegisterFailure(t *testing.T) {
	b := &fakeBackend{registerErr: errors.New("systemctl failed")}
	m := newManager(b, now)
	cfg := config.Default()

	require.Error(t, m.Set(context.Background(), cfg, domain.AutoDaily()))
	require.False(t, cfg.AutoChange.Enabled)
	require.Nil(t, cfg.AutoChange.Frequency)
}

func TestManager_Unset(t *testing.T) {
	b := &fakeBackend{registered: true, unregErr: errors.New("boom")}
	m := newManager(b, now)
	cfg := config.Default()
	f := domain.EveryHours(3)
	cfg.AutoChange.Enabled = true
	cfg.AutoChange.Frequency = &f

	require.Error(t, m.Unset(context.Background(), cfg))
	require.False(t, cfg.AutoChange.Enabled, "config is disabled even when the backend complains")
	require.Nil(t, cfg.AutoChange.Frequency)
}

func TestManager_Status(t *testing.T) {
	b := &fakeBackend{registered: true}
	m := newManager(b, now)
	cfg := config.Default()
	f := domain.DailyAt(domain.TimeOfDay{Hour: 9, Minute: 15})
	cfg.AutoChange.Enabled = true
	cfg.AutoChange.Frequency = &f
	cfg.AutoChange.Index = 4

	st, err := m.Status(context.Background(), cfg)
	require.NoError(t, err)
	require.True(t, st.Registered)
	require.Equal(t, 4, st.Index)
	require.True(t, st.NextRun.Equal(time.Date(2026, 5, 4, 9, 15, 0, 0, time.Local)), "next run %s", st.NextRun)

	b.registered = false
	st, err = m.Status(context.Background(), cfg)
	require.NoError(t, err)
	require.False(t, st.Registered)
	require.True(t, st.NextRun.IsZero())
}

func TestNextRun(t *testing.T) {
	tests := []struct {
		name string
		f    domain.Frequency
		last time.Time
		want time.Time
	}{
		{name: "Auto daily before eight", f: domain.AutoDaily(), want: time.Date(2026, 5, 4, 8, 0, 0, 0, time.Local)},
		{name: "Daily already passed", f: domain.DailyAt(domain.TimeOfDay{Hour: 6}), want: time.Date(2026, 5, 5, 6, 0, 0, 0, time.Local)},
		{name: "Interval without history", f: domain.EveryHours(3), want: now.Add(3 * time.Hour)},
		{name: "Interval anchored on last run", f: domain.EveryHours(3), last: now.Add(-time.Hour), want: now.Add(2 * time.Hour)},
		{name: "Interval with stale last run", f: domain.EveryHours(3), last: now.Add(-10 * time.Hour), want: now.Add(3 * time.Hour)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NextRun(tt.f, tt.last, now)
			require.NoError(t, err)
			require.True(t, tt.want.Equal(got), "got %s, want %s", got, tt.want)
		})
	}
}

func TestForeground_StopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := NewForeground(zap.NewNop(), func(context.Context) error { return nil })
	require.NoError(t, r.Run(ctx, domain.EveryHours(1)))
	require.ErrorIs(t, r.Run(context.Background(), domain.EveryHours(0)), domain.ErrInvalidFrequency)
}
