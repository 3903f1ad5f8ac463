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

package steam

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
)

// FlatpakSteamID is the Flatpak app ID for Steam.
const FlatpakSteamID = "com.valvesoftware.Steam"

// FindSteamDir locates the Steam installation directory on Linux. An
// explicit override from configuration wins when it exists on disk.
func FindSteamDir(override string) string {
	const fallbackPath = "/usr/games/steam"

	if override != "" {
		if _, err := os.Stat(override); err == nil {
			log.Debug().Msgf("using user-configured Steam directory: %s", override)
			return override
		}
		log.Warn().Msgf("user-configured Steam directory not found: %s", override)
	}

	// Try common Steam installation paths
	home, err := os.UserHomeDir()
	if err != nil {
		log.Warn().Err(err).Msg("failed to get user home directory")
		return fallbackPath
	}

	paths := []string{
		filepath.Join(home, ".steam", "steam"),
		filepath.Join(home, ".local", "share", "Steam"),
		filepath.Join(home, ".var", "app", FlatpakSteamID, ".steam", "steam"), // Flatpak
		filepath.Join(home, "snap", "steam", "common", ".steam", "steam"),     // Snap
		"/home/deck/.steam/steam",                                             // Steam Deck default
		"/usr/games/steam",
		"/opt/steam",
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			log.Debug().Msgf("found Steam installation: %s", path)
			return path
		}
	}

	log.Debug().Msgf("Steam detection failed, using fallback: %s", fallbackPath)
	return fallbackPath
}

// SystemConfigDirs returns the system data directories Steam reads tool
// registries from, derived from XDG_DATA_DIRS.
func SystemConfigDirs() []string {
	dataDirs := os.Getenv("XDG_DATA_DIRS")
	if dataDirs == "" {
		dataDirs = "/usr/local/share:/usr/share"
	}
	var dirs []string
	for _, dir := range strings.Split(dataDirs, ":") {
		if dir == "" {
			continue
		}
		dirs = append(dirs, filepath.Join(dir, "steam"))
	}
	return dirs
}

// SteamAppsDir returns the main steamapps directory under a Steam root.
func SteamAppsDir(steamRoot string) string {
	return filepath.Join(steamRoot, "steamapps")
}
