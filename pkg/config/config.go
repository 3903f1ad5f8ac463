// Prefix Launch
// Copyright (c) 2026 The Prefix Launch Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of Prefix Launch.
//
// Prefix Launch is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Prefix Launch is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Prefix Launch.  If not, see <http://www.gnu.org/licenses/>.

// Package config loads and persists the launcher's TOML configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/adrg/xdg"
	toml "github.com/pelletier/go-toml/v2"
)

const (
	// SchemaVersion is the current config file schema.
	SchemaVersion = 1
	// AppName is used for all per-user directories.
	AppName = "prefixlaunch"
	// CfgFile is the config file name inside the config directory.
	CfgFile = "config.toml"
	// LogFile is the rotating log file name inside the state directory.
	LogFile = "prefixlaunch.log"
)

// UtilityDefaults are per-utility settings.
type UtilityDefaults struct {
	// Tag pins the release tag used when a utility is first materialized.
	// Empty means latest. A cached install is never re-fetched.
	Tag string `toml:"tag,omitempty"`
}

// Values is the persisted configuration.
type Values struct {
	Utilities    map[string]UtilityDefaults `toml:"utilities,omitempty"`
	SteamDir     string                     `toml:"steam_dir,omitempty"`
	CacheDir     string                     `toml:"cache_dir,omitempty"`
	ConfigSchema int                        `toml:"config_schema"`
	DebugLogging bool                       `toml:"debug_logging"`
}

// BaseDefaults are the defaults applied before any file is read.
var BaseDefaults = Values{
	ConfigSchema: SchemaVersion,
}

// Instance is a loaded configuration bound to its file path.
type Instance struct {
	path string
	vals Values
	mu   sync.RWMutex
}

// NewInstance loads configuration from path, falling back to defaults when
// the file does not exist. A file that exists but cannot be parsed is an
// error rather than silently ignored.
func NewInstance(path string, defaults Values) (*Instance, error) {
	inst := &Instance{
		path: path,
		vals: defaults,
	}

	data, err := os.ReadFile(path) //nolint:gosec // Path comes from the operator
	if errors.Is(err, os.ErrNotExist) {
		return inst, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := toml.Unmarshal(data, &inst.vals); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return inst, nil
}

// Save writes the current values back to the config file.
func (i *Instance) Save() error {
	i.mu.RLock()
	defer i.mu.RUnlock()

	data, err := toml.Marshal(i.vals)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(i.path), 0o750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(i.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// SteamDir returns the configured Steam root override, or "".
func (i *Instance) SteamDir() string {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.vals.SteamDir
}

// CacheDir returns the utility cache directory.
func (i *Instance) CacheDir() string {
	i.mu.RLock()
	defer i.mu.RUnlock()
	if i.vals.CacheDir != "" {
		return i.vals.CacheDir
	}
	return DefaultCacheDir()
}

// DebugLogging reports whether debug logging is enabled.
func (i *Instance) DebugLogging() bool {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.vals.DebugLogging
}

// SetDebugLogging toggles debug logging for this run.
func (i *Instance) SetDebugLogging(enabled bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.vals.DebugLogging = enabled
}

// LookupUtilityDefaults returns per-utility settings when configured.
func (i *Instance) LookupUtilityDefaults(name string) (UtilityDefaults, bool) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	def, ok := i.vals.Utilities[name]
	return def, ok
}

// DefaultConfigPath returns the per-user config file path.
func DefaultConfigPath() string {
	return filepath.Join(xdg.ConfigHome, AppName, CfgFile)
}

// DefaultCacheDir returns the per-user utility cache directory.
func DefaultCacheDir() string {
	return filepath.Join(xdg.CacheHome, AppName)
}

// DefaultStateDir returns the per-user state directory used for logs.
func DefaultStateDir() string {
	return filepath.Join(xdg.StateHome, AppName)
}
