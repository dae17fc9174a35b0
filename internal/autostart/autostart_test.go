package autostart

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func TestEnableDisable(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG autostart is Linux only")
	}
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	if IsEnabled() {
		t.Fatal("Expected autostart to start disabled")
	}
	if err := enable("/usr/local/bin/kbmouse", []string{"-backend", "evdev"}); err != nil {
		t.Fatalf("enable failed: %v", err)
	}
	if !IsEnabled() {
		t.Error("Expected autostart to be enabled")
	}

	data, err := os.ReadFile(filepath.Join(dir, "autostart", "kbmouse.desktop"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "Exec=/usr/local/bin/kbmouse -backend evdev\n") {
		t.Errorf("Unexpected desktop entry:\n%s", data)
	}

	if err := Disable(); err != nil {
		t.Fatalf("Disable failed: %v", err)
	}
	if IsEnabled() {
		t.Error("Expected autostart to be disabled")
	}
	if err := Disable(); err != nil {
		t.Errorf("Expected second Disable to succeed, got %v", err)
	}
}
