package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	appDirName          = "visuals"
	configFileName      = "config.json"
	lockFileName        = "config.json.lock"
	logFileName         = "auto_change.log"
	defaultWallpaperDir = "~/Pictures/Visuals"
)

// Paths holds the fixed per-user locations
type Paths struct {
	ConfigDir    string
	WallpaperDir string
}

// NewPaths resolves the per-user directories.
// VISUALS_CONFIG_DIR and VISUALS_WALLPAPER_DIR override the defaults.
func NewPaths() (Paths, error) {
	configDir := os.Getenv("VISUALS_CONFIG_DIR")
	if configDir == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return Paths{}, fmt.Errorf("resolve config directory: %w", err)
		}
		configDir = filepath.Join(base, appDirName)
	}

	wallpaperDir := os.Getenv("VISUALS_WALLPAPER_DIR")
	if wallpaperDir == "" {
		wallpaperDir = defaultWallpaperDir
	}

	return Paths{
		ConfigDir:    expandPath(configDir),
		WallpaperDir: expandPath(wallpaperDir),
	}, nil
}

// expandPath expands environment variables and a leading ~
func expandPath(p string) string {
	p = os.ExpandEnv(p)
	if p == "~" || strings.HasPrefix(p, "~/") || strings.HasPrefix(p, `~\`) {
		home, err := os.UserHomeDir()
		if err == nil {
			p = filepath.Join(home, p[1:])
		}
	}
	if abs, err := filepath.Abs(p); err == nil {
		p = abs
	}
	return p
}

// ConfigFile returns the path of the persisted configuration record
func (p Paths) ConfigFile() string {
	return filepath.Join(p.ConfigDir, configFileName)
}

// LockFile returns the path of the advisory lock
func (p Paths) LockFile() string {
	return filepath.Join(p.ConfigDir, lockFileName)
}

// LogFile returns the path of the append-only run log
func (p Paths) LogFile() string {
	return filepath.Join(p.ConfigDir, logFileName)
}

// EnsureExists creates both directories
func (p Paths) EnsureExists() error {
	for _, dir := range []string{p.ConfigDir, p.WallpaperDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return nil
}
