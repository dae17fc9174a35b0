// Package autostart provides auto-start functionality.
package autostart

import (
	"fmt"
	"os"
	"path/filepath"
	"text/template"
)

const desktopEntry = `[Desktop Entry]
Type=Application
Name=kbmouse
Comment=Keyboard-driven pointer control
Exec={{.ExecutablePath}}{{range .Args}} {{.}}{{end}}
Terminal=false
X-GNOME-Autostart-enabled=true
`

const entryName = "kbmouse.desktop"

// EntryPath returns the autostart entry location under XDG_CONFIG_HOME
func EntryPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "autostart", entryName), nil
}

// Enable enables auto-start on login. args are appended to the command line.
func Enable(args ...string) error {
	execPath, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to get executable path: %w", err)
	}
	return enable(execPath, args)
}

func enable(execPath string, args []string) error {
	entryPath, err := EntryPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(entryPath), 0755); err != nil {
		return err
	}

	tmpl, err := template.New("desktop").Parse(desktopEntry)
	if err != nil {
		return err
	}

	f, err := os.Create(entryPath)
	if err != nil {
		return err
	}
	defer f.Close()

	return tmpl.Execute(f, struct {
		ExecutablePath string
		Args           []string
	}{execPath, args})
}

// Disable disables auto-start on login
func Disable() error {
	entryPath, err := EntryPath()
	if err != nil {
		return err
	}
	if err := os.Remove(entryPath); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// IsEnabled checks if auto-start is enabled
func IsEnabled() bool {
	entryPath, err := EntryPath()
	if err != nil {
		return false
	}
	_, err = os.Stat(entryPath)
	return err == nil
}
