// Package config resolves the per-user paths and persists the configuration
// record.
//
// The record is stored as a versioned JSON envelope:
//
//	{"version": 1, "config": { ... }}
//
// Every mutation goes through Store.Update, which holds the advisory lock
// for the whole read-modify-write and flushes the file atomically.
package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/genricoloni/visuals/internal/domain"
	"github.com/genricoloni/visuals/internal/filelock"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const currentVersion = 1

// envelope is the versioned on-disk format
type envelope struct {
	Version int     `json:"version"`
	Config  *Config `json:"config"`
}

// Store loads and saves the configuration record
type Store struct {
	logger      *zap.Logger
	paths       Paths
	lockTimeout time.Duration
}

// NewStore creates a store rooted at paths.ConfigDir
func NewStore(logger *zap.Logger, paths Paths) *Store {
	return &Store{
		logger:      logger,
		paths:       paths,
		lockTimeout: filelock.DefaultTimeout,
	}
}

// WithLockTimeout overrides the bounded wait for the advisory lock
func (s *Store) WithLockTimeout(d time.Duration) *Store {
	s.lockTimeout = d
	return s
}

// Paths returns the locations the store was built with
func (s *Store) Paths() Paths {
	return s.paths
}

// Load reads the record without taking the lock.
// A missing file yields the defaults.
func (s *Store) Load(ctx context.Context) (*Config, error) {
	return s.load()
}

// Update runs fn on the loaded record while holding the advisory lock and
// saves the result. The record is saved even when fn fails so that partial
// progress (sequence numbers, rate-limit counters) is never lost.
func (s *Store) Update(ctx context.Context, fn func(*Config) error) (err error) {
	lock, err := filelock.Acquire(ctx, s.paths.LockFile(), s.lockTimeout)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, lock.Release())
	}()

	cfg, err := s.load()
	if err != nil {
		return err
	}

	fnErr := fn(cfg)
	cfg.normalize()
	if saveErr := s.flush(cfg); saveErr != nil {
		return multierr.Append(fnErr, saveErr)
	}
	return fnErr
}

// load reads and parses the config file, migrating older layouts
func (s *Store) load() (*Config, error) {
	path := s.paths.ConfigFile()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.logger.Debug("No configuration file, using defaults", zap.String("path", path))
			return Default(), nil
		}
		return nil, domain.FilesystemError("read config file", err)
	}

	var header struct {
		Version int `json:"version"`
	}
	if err := json.Unmarshal(data, &header); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}

	if header.Version > currentVersion {
		return nil, fmt.Errorf("config file version %d is newer than supported version %d", header.Version, currentVersion)
	}

	if header.Version < currentVersion {
		s.logger.Info("Migrating configuration",
			zap.Int("from", header.Version),
			zap.Int("to", currentVersion))
		data, err = migrateFile(path, data, header.Version)
		if err != nil {
			return nil, fmt.Errorf("migrate config: %w", err)
		}
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}
	if env.Config == nil {
		return Default(), nil
	}
	env.Config.normalize()
	return env.Config, nil
}

// flush atomically writes the config to disk with round-trip validation
func (s *Store) flush(cfg *Config) error {
	path := s.paths.ConfigFile()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return domain.FilesystemError("create config directory", err)
	}

	data, err := json.MarshalIndent(envelope{Version: currentVersion, Config: cfg}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := writeAtomic(path, data); err != nil {
		return err
	}

	s.logger.Debug("Configuration saved", zap.String("path", path))
	return nil
}

// writeAtomic writes data next to path, validates it and renames it in place
func writeAtomic(path string, data []byte) error {
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return domain.FilesystemError("write temp file", err)
	}

	check, err := os.ReadFile(tmpPath)
	if err != nil {
		os.Remove(tmpPath)
		return domain.FilesystemError("read-back temp file", err)
	}
	if !json.Valid(check) {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: round-trip validation failed for %s", domain.ErrFilesystem, path)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return domain.FilesystemError("rename config file", err)
	}
	return nil
}
