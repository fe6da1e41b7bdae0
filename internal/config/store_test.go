package config

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/genricoloni/visuals/internal/domain"
	"github.com/genricoloni/visuals/internal/filelock"
	"go.uber.org/zap"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	return NewStore(zap.NewNop(), Paths{
		ConfigDir:    filepath.Join(dir, "config"),
		WallpaperDir: filepath.Join(dir, "wallpapers"),
	})
}

func writeConfigFile(t *testing.T, s *Store, content string) {
	t.Helper()
	if err := os.MkdirAll(s.Paths().ConfigDir, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(s.Paths().ConfigFile(), []byte(content), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func TestLoad_MissingFileYieldsDefaults(t *testing.T) {
	s := newTestStore(t)

	cfg, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Source != domain.SourceSpotlight {
		t.Errorf("expected default source spotlight, got %s", cfg.Source)
	}
	if cfg.NextSequence != 1 || cfg.AutoChange.Index != 0 || cfg.AutoChange.Enabled {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.Frequency() != domain.AutoDaily() {
		t.Errorf("expected AutoDaily default, got %s", cfg.Frequency())
	}
}

func TestLoad_UnknownFieldsIgnoredAndRetiredSourceRemapped(t *testing.T) {
	s := newTestStore(t)
	writeConfigFile(t, s, `{
		"version": 1,
		"config": {
			"source": "bing",
			"credentials": {"pexels": "px-key"},
			"future_field": {"nested": true},
			"auto_change": {"enabled": true, "frequency": "every:3h", "index": 4}
		}
	}`)

	cfg, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Source != domain.SourceSpotlight {
		t.Errorf("expected bing to be remapped to spotlight, got %s", cfg.Source)
	}
	if cfg.Credential(domain.SourcePexels) != "px-key" {
		t.Errorf("credential lost: %v", cfg.Credentials)
	}
	if cfg.NextSequence != 1 {
		t.Errorf("absent next_sequence_number should default to 1, got %d", cfg.NextSequence)
	}
	if cfg.Frequency() != domain.EveryHours(3) || cfg.AutoChange.Index != 4 {
		t.Errorf("auto change not loaded: %+v", cfg.AutoChange)
	}
}

func TestLoad_MigratesLegacyLayout(t *testing.T) {
	s := newTestStore(t)
	legacy := `{
		"source": "bing",
		"spotlight": {"last_check": "2025-01-01", "downloaded_ids": []},
		"unsplash": {"api_key": "us-key", "last_fetch_time": null, "requests_used": 12,
			"rate_limit_reset_time": "2025-06-01T10:00:00.123456+00:00", "theme": "nature"},
		"wallhaven": {"requests_this_minute": 3, "minute_window_start": null},
		"pexels": {"api_key": "", "requests_this_hour": 0, "hour_window_start": null},
		"wallpaper_mode": "desktop",
		"auto_change_enabled": true,
		"auto_change_frequency": "daily:09:30",
		"auto_change_index": 7,
		"last_auto_change": "2025-06-01T09:30:00+00:00",
		"next_seq_number": 12
	}`
	writeConfigFile(t, s, legacy)

	cfg, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Source != domain.SourceSpotlight {
		t.Errorf("expected spotlight, got %s", cfg.Source)
	}
	if cfg.Credential(domain.SourceUnsplash) != "us-key" {
		t.Errorf("unsplash key not migrated")
	}
	if _, ok := cfg.Credentials[domain.SourcePexels]; ok {
		t.Errorf("empty pexels key should not be stored")
	}
	if w := cfg.Window(domain.SourceUnsplash); w.Used != 12 || w.WindowStart.IsZero() {
		t.Errorf("unsplash window not migrated: %+v", w)
	}
	if cfg.Themes[domain.SourceUnsplash] != "nature" {
		t.Errorf("theme not migrated: %v", cfg.Themes)
	}
	want := domain.DailyAt(domain.TimeOfDay{Hour: 9, Minute: 30})
	if !cfg.AutoChange.Enabled || cfg.Frequency() != want || cfg.AutoChange.Index != 7 {
		t.Errorf("auto change not migrated: %+v", cfg.AutoChange)
	}
	if cfg.NextSequence != 12 {
		t.Errorf("expected next sequence 12, got %d", cfg.NextSequence)
	}

	if _, err := os.Stat(s.Paths().ConfigFile() + ".v0.bak"); err != nil {
		t.Errorf("expected a backup of the legacy file: %v", err)
	}
	data, err := os.ReadFile(s.Paths().ConfigFile())
	if err != nil {
		t.Fatalf("read migrated file: %v", err)
	}
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil || env.Version != currentVersion {
		t.Errorf("file was not rewritten as a versioned envelope: %s", data)
	}
}

func TestLoad_LegacyUnknownFrequencyFallsBack(t *testing.T) {
	s := newTestStore(t)
	writeConfigFile(t, s, `{"source": "unsplash", "auto_change_frequency": "test_1m"}`)

	cfg, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Source != domain.SourceUnsplash {
		t.Errorf("expected unsplash, got %s", cfg.Source)
	}
	if cfg.Frequency() != domain.AutoDaily() {
		t.Errorf("expected fallback to AutoDaily, got %s", cfg.Frequency())
	}
}

func TestLoad_NewerVersionRejected(t *testing.T) {
	s := newTestStore(t)
	writeConfigFile(t, s, `{"version": 99, "config": {}}`)

	if _, err := s.Load(context.Background()); err == nil {
		t.Fatal("expected an error for a newer config version")
	}
}

func TestUpdate_PersistsEvenWhenCallbackFails(t *testing.T) {
	s := newTestStore(t)
	boom := errors.New("batch failed")

	err := s.Update(context.Background(), func(cfg *Config) error {
		cfg.NextSequence = 42
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected callback error, got %v", err)
	}

	cfg, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if cfg.NextSequence != 42 {
		t.Errorf("expected partial progress to be saved, got next sequence %d", cfg.NextSequence)
	}
}

func TestUpdate_ContendedLockIsConfigBusy(t *testing.T) {
	s := newTestStore(t).WithLockTimeout(200 * time.Millisecond)

	held, err := filelock.Acquire(context.Background(), s.Paths().LockFile(), time.Second)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	defer held.Release()

	called := false
	err = s.Update(context.Background(), func(*Config) error {
		called = true
		return nil
	})
	if !errors.Is(err, domain.ErrConfigBusy) {
		t.Fatalf("expected ErrConfigBusy, got %v", err)
	}
	if called {
		t.Error("callback must not run without the lock")
	}
}
