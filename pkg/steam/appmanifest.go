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
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/andygrunwald/vdf"
	"github.com/rs/zerolog/log"
)

// ErrAppNotFound is returned when an AppID has no manifest in any
// configured Steam library folder.
var ErrAppNotFound = errors.New("app not found in any steam library")

// AppInfo contains metadata for a Steam app from its appmanifest.
type AppInfo struct {
	Name       string
	InstallDir string
	AppID      int
}

// AppLocation is a resolved installation of a Steam app: the steamapps
// directory of the library folder that owns it, plus the manifest metadata.
type AppLocation struct {
	Info       AppInfo
	LibraryDir string
}

// InstallPath returns the full path to the app's install directory.
func (l AppLocation) InstallPath() string {
	return filepath.Join(l.LibraryDir, "common", l.Info.InstallDir)
}

// CompatDataPath returns the compatibility-layer working directory for the
// app. The compatdata directory lives in the same library folder as the
// app's installation.
func (l AppLocation) CompatDataPath() string {
	return filepath.Join(l.LibraryDir, "compatdata", strconv.Itoa(l.Info.AppID))
}

// WinePrefix returns the Wine prefix directory inside the app's compatdata.
func (l AppLocation) WinePrefix() string {
	return filepath.Join(l.CompatDataPath(), "pfx")
}

// ReadAppManifest reads a Steam app manifest and returns its info.
// steamAppsDir should point to a steamapps directory.
func ReadAppManifest(steamAppsDir string, appID int) (AppInfo, bool) {
	manifestPath := filepath.Join(steamAppsDir, fmt.Sprintf("appmanifest_%d.acf", appID))

	//nolint:gosec // Safe: reads Steam manifest files
	f, err := os.Open(manifestPath)
	if err != nil {
		log.Debug().Err(err).Int("appID", appID).Msg("failed to open app manifest")
		return AppInfo{}, false
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("error closing app manifest")
		}
	}()

	p := vdf.NewParser(f)
	m, err := p.Parse()
	if err != nil {
		log.Warn().Err(err).Int("appID", appID).Msg("failed to parse app manifest")
		return AppInfo{}, false
	}

	appState, ok := normalizeVDFKeys(m)["appstate"].(map[string]any)
	if !ok {
		log.Warn().Int("appID", appID).Msg("AppState not found in manifest")
		return AppInfo{}, false
	}

	name, _ := appState["name"].(string)
	installDir, ok := appState["installdir"].(string)
	if !ok || installDir == "" {
		log.Warn().Int("appID", appID).Msg("installdir not found in manifest")
		return AppInfo{}, false
	}

	return AppInfo{
		AppID:      appID,
		Name:       name,
		InstallDir: installDir,
	}, true
}

// forEachLibrary iterates through all Steam library folders that may contain
// an app. It calls the callback with each library's steamapps directory,
// starting with the main steamapps directory. Iteration stops when the
// callback returns true.
func forEachLibrary(mainSteamAppsDir string, appID int, callback func(steamAppsDir string) bool) {
	// Try main library first
	if callback(mainSteamAppsDir) {
		return
	}

	// Parse libraryfolders.vdf for additional libraries
	libraryFoldersPath := filepath.Join(mainSteamAppsDir, "libraryfolders.vdf")

	//nolint:gosec // Safe: reads Steam config files
	f, err := os.Open(libraryFoldersPath)
	if err != nil {
		log.Debug().Err(err).Msg("failed to open libraryfolders.vdf")
		return
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("error closing libraryfolders.vdf")
		}
	}()

	p := vdf.NewParser(f)
	m, err := p.Parse()
	if err != nil {
		log.Warn().Err(err).Msg("failed to parse libraryfolders.vdf")
		return
	}

	lfs, ok := normalizeVDFKeys(m)["libraryfolders"].(map[string]any)
	if !ok {
		return
	}

	appIDStr := strconv.Itoa(appID)
	for _, v := range lfs {
		ls, ok := v.(map[string]any)
		if !ok {
			continue
		}

		// Check if this library has our app
		apps, ok := ls["apps"].(map[string]any)
		if ok {
			if _, hasApp := apps[appIDStr]; !hasApp {
				continue
			}
		}

		libraryPath, ok := ls["path"].(string)
		if !ok {
			continue
		}

		librarySteamApps := filepath.Join(libraryPath, "steamapps")
		if callback(librarySteamApps) {
			return
		}
	}
}

// FindApp searches the main library and every folder listed in
// libraryfolders.vdf for an app's manifest. steamAppsDir should point to the
// main steamapps directory. Returns ErrAppNotFound when no library has a
// manifest for the AppID.
func FindApp(steamAppsDir string, appID int) (AppLocation, error) {
	var loc AppLocation
	found := false
	forEachLibrary(steamAppsDir, appID, func(dir string) bool {
		if info, ok := ReadAppManifest(dir, appID); ok {
			loc = AppLocation{Info: info, LibraryDir: dir}
			found = true
			return true
		}
		return false
	})
	if !found {
		return AppLocation{}, fmt.Errorf("appid %d: %w", appID, ErrAppNotFound)
	}
	return loc, nil
}
