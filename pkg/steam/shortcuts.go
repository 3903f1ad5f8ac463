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
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/prefixtools/prefixlaunch/internal/vdfbinary"
)

// ShortcutLocation is a resolved non-Steam shortcut. Shortcut prefixes
// always live under the Steam root's own compatdata, never in a secondary
// library folder.
type ShortcutLocation struct {
	Shortcut  vdfbinary.Shortcut
	SteamRoot string
}

// CompatDataPath returns the compatibility-layer working directory for the
// shortcut.
func (l ShortcutLocation) CompatDataPath() string {
	return filepath.Join(SteamAppsDir(l.SteamRoot), "compatdata",
		strconv.FormatUint(uint64(l.Shortcut.AppID), 10))
}

// WinePrefix returns the Wine prefix directory inside the shortcut's
// compatdata.
func (l ShortcutLocation) WinePrefix() string {
	return filepath.Join(l.CompatDataPath(), "pfx")
}

// FindShortcut searches every Steam user's shortcuts.vdf under the Steam
// root for a non-Steam entry with the given AppID. Returns ErrAppNotFound
// when no user has such a shortcut.
func FindShortcut(steamRoot string, appID int) (ShortcutLocation, error) {
	pattern := filepath.Join(steamRoot, "userdata", "*", "config", "shortcuts.vdf")
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return ShortcutLocation{}, fmt.Errorf("glob shortcuts.vdf: %w", err)
	}

	for _, path := range matches {
		shortcuts, err := readShortcuts(path)
		if err != nil {
			log.Warn().Err(err).Str("path", path).Msg("failed to parse shortcuts.vdf")
			continue
		}
		for _, s := range shortcuts {
			if int(s.AppID) == appID {
				return ShortcutLocation{Shortcut: s, SteamRoot: steamRoot}, nil
			}
		}
	}

	return ShortcutLocation{}, fmt.Errorf("shortcut appid %d: %w", appID, ErrAppNotFound)
}

func readShortcuts(path string) ([]vdfbinary.Shortcut, error) {
	//nolint:gosec // Safe: reads Steam config files
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open shortcuts.vdf: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("error closing shortcuts.vdf")
		}
	}()
	return vdfbinary.ParseShortcuts(f)
}
