// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config file: %v", err)
	}
	return path
}

func TestLoadConfigFile_Defaults(t *testing.T) {
	cfg, err := loadConfigFile("")
	if err != nil {
		t.Fatalf("loadConfigFile error: %v", err)
	}
	if cfg.Baud != 115200 {
		t.Errorf("Baud = %d, want 115200", cfg.Baud)
	}
	if cfg.Timeout != 2*time.Second {
		t.Errorf("Timeout = %s, want 2s", cfg.Timeout)
	}
	if cfg.DebugWindow != 300*time.Second {
		t.Errorf("DebugWindow = %s, want 300s", cfg.DebugWindow)
	}
}

func TestLoadConfigFile_OverridesOnlyDefinedKeys(t *testing.T) {
	path := writeConfigFile(t, `
port = "/dev/ttyO5"
timeout_ms = 500
`)

	cfg, err := loadConfigFile(path)
	if err != nil {
		t.Fatalf("loadConfigFile error: %v", err)
	}
	if cfg.Port != "/dev/ttyO5" {
		t.Errorf("Port = %q, want /dev/ttyO5", cfg.Port)
	}
	if cfg.Timeout != 500*time.Millisecond {
		t.Errorf("Timeout = %s, want 500ms", cfg.Timeout)
	}

	// Keys absent from the file keep their defaults.
	if cfg.Baud != 115200 {
		t.Errorf("Baud = %d, want default 115200", cfg.Baud)
	}
	if cfg.DebugWindow != 300*time.Second {
		t.Errorf("DebugWindow = %s, want default 300s", cfg.DebugWindow)
	}
}

func TestLoadConfigFile_FullFile(t *testing.T) {
	path := writeConfigFile(t, `
port = "  /dev/ttyUSB0  "
baud = 57600
url = "wss://gateway.example.com/master"
username = "gateway"
no_ssl_verify = true
timeout_ms = 2500
debug_window_sec = 60
`)

	cfg, err := loadConfigFile(path)
	if err != nil {
		t.Fatalf("loadConfigFile error: %v", err)
	}
	if cfg.Port != "/dev/ttyUSB0" {
		t.Errorf("Port = %q, whitespace should be trimmed", cfg.Port)
	}
	if cfg.Baud != 57600 {
		t.Errorf("Baud = %d, want 57600", cfg.Baud)
	}
	if cfg.URL != "wss://gateway.example.com/master" {
		t.Errorf("URL = %q", cfg.URL)
	}
	if cfg.Username != "gateway" {
		t.Errorf("Username = %q, want gateway", cfg.Username)
	}
	if !cfg.NoSSLVerify {
		t.Error("NoSSLVerify = false, want true")
	}
	if cfg.Timeout != 2500*time.Millisecond {
		t.Errorf("Timeout = %s, want 2.5s", cfg.Timeout)
	}
	if cfg.DebugWindow != time.Minute {
		t.Errorf("DebugWindow = %s, want 1m", cfg.DebugWindow)
	}
}

func TestLoadConfigFile_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"zero timeout", "timeout_ms = 0"},
		{"negative timeout", "timeout_ms = -5"},
		{"zero debug window", "debug_window_sec = 0"},
		{"malformed toml", "port = "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfigFile(t, tt.content)
			if _, err := loadConfigFile(path); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoadConfigFile_MissingFile(t *testing.T) {
	if _, err := loadConfigFile(filepath.Join(t.TempDir(), "absent.toml")); err == nil {
		t.Error("expected error for a missing config file")
	}
}

func TestResolveConfig_FlagsWinOverFile(t *testing.T) {
	path := writeConfigFile(t, `
port = "/dev/ttyO5"
baud = 57600
`)

	// Save and restore the globals bound to cobra flags.
	oldConfig, oldPort, oldBaud := configPath, portName, baudRate
	defer func() { configPath, portName, baudRate = oldConfig, oldPort, oldBaud }()

	configPath = path
	portName = "/dev/ttyACM1"
	baudRate = 0

	cfg, err := resolveConfig()
	if err != nil {
		t.Fatalf("resolveConfig error: %v", err)
	}
	if cfg.Port != "/dev/ttyACM1" {
		t.Errorf("Port = %q, the flag should win over the file", cfg.Port)
	}
	if cfg.Baud != 57600 {
		t.Errorf("Baud = %d, an unset flag should fall back to the file", cfg.Baud)
	}
}
