package executor

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/genricoloni/visuals/internal/domain"
	"go.uber.org/zap"
)

const (
	plasmaService = "org.kde.plasmashell"
	plasmaPath    = "/PlasmaShell"
	plasmaMethod  = "org.kde.PlasmaShell.evaluateScript"
)

const plasmaSetScript = `var all = desktops();
for (var i = 0; i < all.length; i++) {
	var d = all[i];
	d.wallpaperPlugin = "org.kde.image";
	d.currentConfigGroup = ["Wallpaper", "org.kde.image", "General"];
	d.writeConfig("Image", %s);
}`

const plasmaGetScript = `var d = desktops()[0];
d.currentConfigGroup = ["Wallpaper", "org.kde.image", "General"];
print(d.readConfig("Image"));`

// plasma opens a bus connection and checks plasmashell is running
func (e *LinuxExecutor) plasma() (DBusClient, error) {
	conn, err := e.dbus()
	if err != nil {
		return nil, fmt.Errorf("session bus connection failed: %w", err)
	}
	names, err := conn.ListNames()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("list bus names: %w", err)
	}
	if !slices.Contains(names, plasmaService) {
		conn.Close()
		return nil, fmt.Errorf("%w: %s is not running", domain.ErrUnsupported, plasmaService)
	}
	return conn, nil
}

func (e *LinuxExecutor) setPlasma(imagePath string) error {
	conn, err := e.plasma()
	if err != nil {
		return err
	}
	defer conn.Close()

	script := fmt.Sprintf(plasmaSetScript, strconv.Quote(fileURI(imagePath)))
	if _, err := conn.CallString(plasmaService, plasmaPath, plasmaMethod, script); err != nil {
		return fmt.Errorf("failed to set wallpaper with kde: %w", err)
	}

	e.logger.Info("Wallpaper set successfully",
		zap.String("command", "kde"),
		zap.String("path", imagePath))
	return nil
}

func (e *LinuxExecutor) currentPlasma() (string, error) {
	conn, err := e.plasma()
	if err != nil {
		return "", err
	}
	defer conn.Close()

	out, err := conn.CallString(plasmaService, plasmaPath, plasmaMethod, plasmaGetScript)
	if err != nil {
		return "", fmt.Errorf("query kde wallpaper: %w", err)
	}
	p := pathFromURI(strings.TrimSpace(out))
	if p == "" {
		return "", fmt.Errorf("kde reported no wallpaper")
	}
	return p, nil
}
