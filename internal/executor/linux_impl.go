//go:build linux
// +build linux

package executor

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/genricoloni/visuals/internal/domain"
	"go.uber.org/zap"
)

// WallpaperCommand represents a detected wallpaper setter
type WallpaperCommand struct {
	Name   string
	Binary string
	// Args are the setter arguments; %s is replaced with the image path
	Args    []string
	UsesURI bool
	// DBus marks setters driven over the session bus instead of a binary
	DBus bool
}

var (
	// Ordered list of wallpaper commands to try (highest priority first)
	wallpaperCommands = []WallpaperCommand{
		// Hyprland - swww (recommended)
		{Name: "swww", Binary: "swww", Args: []string{"img", "%s"}},
		// Hyprland - hyprpaper
		{Name: "hyprpaper", Binary: "hyprctl", Args: []string{"hyprpaper", "wallpaper", ",%s"}},
		// swaybg (Sway/Wayland)
		{Name: "swaybg", Binary: "swaybg", Args: []string{"-i", "%s", "-m", "fill"}},
		// GNOME; both light and dark keys are written
		{Name: "gnome", Binary: "gsettings", Args: []string{"set", "org.gnome.desktop.background", "picture-uri", "%s"}, UsesURI: true},
		// KDE Plasma
		{Name: "kde", DBus: true},
		// Generic X11 - feh
		{Name: "feh", Binary: "feh", Args: []string{"--bg-fill", "%s"}},
		// Generic X11 - nitrogen
		{Name: "nitrogen", Binary: "nitrogen", Args: []string{"--set-zoom-fill", "%s"}},
	}
)

// environment is the slice of the process environment used for detection
type environment struct {
	getenv func(string) string
	exists func(string) bool
}

// LinuxExecutor handles wallpaper setting on Linux systems
type LinuxExecutor struct {
	logger  *zap.Logger
	runner  domain.CommandRunner
	command WallpaperCommand
	dbus    func() (DBusClient, error)
	home    string
}

// NewExecutor creates the platform-specific wallpaper executor (Linux implementation)
func NewExecutor(logger *zap.Logger, runner domain.CommandRunner) (domain.Executor, error) {
	env := environment{getenv: os.Getenv, exists: commandExists}
	cmd := detectCommand(logger, env)
	if cmd.Name == "" {
		logger.Warn("No supported wallpaper command found on this system")
	} else {
		logger.Debug("Wallpaper setter detected",
			zap.String("name", cmd.Name),
			zap.String("binary", cmd.Binary))
	}

	home, _ := os.UserHomeDir()
	return &LinuxExecutor{
		logger:  logger,
		runner:  runner,
		command: cmd,
		dbus:    func() (DBusClient, error) { return NewStdDBusClient() },
		home:    home,
	}, nil
}

// detectCommand analyzes the environment to choose the best wallpaper command
func detectCommand(logger *zap.Logger, env environment) WallpaperCommand {
	desktop := strings.ToLower(env.getenv("XDG_CURRENT_DESKTOP"))
	session := env.getenv("XDG_SESSION_TYPE")
	wayland := env.getenv("WAYLAND_DISPLAY")
	hyprland := env.getenv("HYPRLAND_INSTANCE_SIGNATURE")

	logger.Debug("Detecting wallpaper command",
		zap.String("desktop", desktop),
		zap.String("session", session),
		zap.String("wayland", wayland),
		zap.String("hyprland", hyprland))

	pick := func(names ...string) (WallpaperCommand, bool) {
		for _, cmd := range wallpaperCommands {
			for _, n := range names {
				if cmd.Name == n && (cmd.DBus || env.exists(cmd.Binary)) {
					return cmd, true
				}
			}
		}
		return WallpaperCommand{}, false
	}

	if hyprland != "" {
		if cmd, ok := pick("swww", "hyprpaper"); ok {
			return cmd
		}
	}
	if strings.Contains(desktop, "gnome") {
		if cmd, ok := pick("gnome"); ok {
			return cmd
		}
	}
	if strings.Contains(desktop, "kde") || env.getenv("KDE_FULL_SESSION") != "" {
		if cmd, ok := pick("kde"); ok {
			return cmd
		}
	}
	if wayland != "" || session == "wayland" {
		if cmd, ok := pick("swww", "swaybg"); ok {
			return cmd
		}
	}

	// Fallback: try every binary-backed command in order
	for _, cmd := range wallpaperCommands {
		if !cmd.DBus && env.exists(cmd.Binary) {
			logger.Info("Using fallback wallpaper command", zap.String("name", cmd.Name))
			return cmd
		}
	}
	return WallpaperCommand{}
}

// SetWallpaper sets the desktop wallpaper to the specified image
func (e *LinuxExecutor) SetWallpaper(ctx context.Context, imagePath string) error {
	switch {
	case e.command.Name == "":
		return fmt.Errorf("%w: no supported wallpaper command found", domain.ErrUnsupported)
	case e.command.DBus:
		return e.setPlasma(imagePath)
	}

	path := imagePath
	if e.command.UsesURI {
		path = fileURI(imagePath)
	}
	args := make([]string, len(e.command.Args))
	for i, arg := range e.command.Args {
		args[i] = strings.ReplaceAll(arg, "%s", path)
	}

	e.logger.Debug("Setting wallpaper",
		zap.String("command", e.command.Binary),
		zap.Strings("args", args),
		zap.String("path", imagePath))

	if _, err := e.runner.Run(ctx, e.command.Binary, args...); err != nil {
		return fmt.Errorf("failed to set wallpaper with %s: %w", e.command.Name, err)
	}
	if e.command.Name == "gnome" {
		dark := []string{"set", "org.gnome.desktop.background", "picture-uri-dark", path}
		if _, err := e.runner.Run(ctx, e.command.Binary, dark...); err != nil {
			e.logger.Debug("Dark wallpaper key not set", zap.Error(err))
		}
	}

	e.logger.Info("Wallpaper set successfully",
		zap.String("command", e.command.Name),
		zap.String("path", imagePath))
	return nil
}

// GetCurrentWallpaper reports the background for setters that expose it
func (e *LinuxExecutor) GetCurrentWallpaper(ctx context.Context) (string, error) {
	switch e.command.Name {
	case "gnome":
		return e.currentGnome(ctx)
	case "kde":
		return e.currentPlasma()
	case "swww":
		return e.currentSwww(ctx)
	case "feh":
		return e.currentFeh()
	default:
		return "", fmt.Errorf("%w: wallpaper query for %q", domain.ErrUnsupported, e.command.Name)
	}
}

func (e *LinuxExecutor) currentGnome(ctx context.Context) (string, error) {
	for _, key := range []string{"picture-uri-dark", "picture-uri"} {
		out, err := e.runner.Run(ctx, "gsettings", "get", "org.gnome.desktop.background", key)
		if err != nil {
			continue
		}
		if p := pathFromURI(string(out)); p != "" {
			return p, nil
		}
	}
	return "", fmt.Errorf("gsettings reported no wallpaper")
}

// currentSwww parses "output: ..., currently displaying: image: /path" lines
func (e *LinuxExecutor) currentSwww(ctx context.Context) (string, error) {
	out, err := e.runner.Run(ctx, "swww", "query")
	if err != nil {
		return "", err
	}
	const marker = "image: "
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		line := scanner.Text()
		if i := strings.LastIndex(line, marker); i >= 0 {
			return strings.TrimSpace(line[i+len(marker):]), nil
		}
	}
	return "", fmt.Errorf("swww query reported no image")
}

// currentFeh reads the last quoted argument of ~/.fehbg
func (e *LinuxExecutor) currentFeh() (string, error) {
	data, err := os.ReadFile(filepath.Join(e.home, ".fehbg"))
	if err != nil {
		return "", err
	}
	s := strings.TrimSpace(string(data))
	end := strings.LastIndex(s, "'")
	if end <= 0 {
		return "", fmt.Errorf("unrecognized .fehbg")
	}
	start := strings.LastIndex(s[:end], "'")
	if start < 0 {
		return "", fmt.Errorf("unrecognized .fehbg")
	}
	return s[start+1 : end], nil
}
