// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds resolved gateway settings. Precedence: command-line flag over
// config file over built-in default.
type Config struct {
	Port        string
	Baud        int
	URL         string
	Username    string
	NoSSLVerify bool

	Timeout     time.Duration
	DebugWindow time.Duration
}

// config.toml key mapping to gateway settings.
type fileConfig struct {
	Port        string `toml:"port"`
	Baud        int    `toml:"baud"`
	URL         string `toml:"url"`
	Username    string `toml:"username"`
	NoSSLVerify bool   `toml:"no_ssl_verify"`

	TimeoutMs      int `toml:"timeout_ms"`
	DebugWindowSec int `toml:"debug_window_sec"`
}

func defaultConfig() Config {
	return Config{
		Baud:        115200,
		Timeout:     2 * time.Second,
		DebugWindow: 300 * time.Second,
	}
}

// loadConfigFile loads a TOML config with default overlay.
func loadConfigFile(path string) (Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("load gateway config: %w", err)
	}

	if meta.IsDefined("port") {
		cfg.Port = strings.TrimSpace(raw.Port)
	}
	if meta.IsDefined("baud") {
		cfg.Baud = raw.Baud
	}
	if meta.IsDefined("url") {
		cfg.URL = strings.TrimSpace(raw.URL)
	}
	if meta.IsDefined("username") {
		cfg.Username = strings.TrimSpace(raw.Username)
	}
	if meta.IsDefined("no_ssl_verify") {
		cfg.NoSSLVerify = raw.NoSSLVerify
	}
	if meta.IsDefined("timeout_ms") {
		if raw.TimeoutMs <= 0 {
			return Config{}, fmt.Errorf("load gateway config: timeout_ms must be positive, got %d", raw.TimeoutMs)
		}
		cfg.Timeout = time.Duration(raw.TimeoutMs) * time.Millisecond
	}
	if meta.IsDefined("debug_window_sec") {
		if raw.DebugWindowSec <= 0 {
			return Config{}, fmt.Errorf("load gateway config: debug_window_sec must be positive, got %d", raw.DebugWindowSec)
		}
		cfg.DebugWindow = time.Duration(raw.DebugWindowSec) * time.Second
	}

	return cfg, nil
}

// resolveConfig merges the global flags over the config file values.
func resolveConfig() (Config, error) {
	cfg, err := loadConfigFile(configPath)
	if err != nil {
		return Config{}, err
	}
	if portName != "" {
		cfg.Port = portName
	}
	if baudRate != 0 {
		cfg.Baud = baudRate
	}
	if wsURL != "" {
		cfg.URL = wsURL
	}
	if wsUsername != "" {
		cfg.Username = wsUsername
	}
	if wsNoSSLVerify {
		cfg.NoSSLVerify = true
	}
	return cfg, nil
}
