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
	"path/filepath"
	"runtime"
	"sync"

	"github.com/rs/zerolog/log"
)

// Environment builds the process wrapping needed to run a command inside a
// game's compatibility prefix. Exactly one implementation is active per
// platform: SandboxedEnvironment on Linux, PassthroughEnvironment
// everywhere else.
type Environment interface {
	// Wrap returns the final command line and the environment variable
	// overrides that make args execute inside appID's prefix. The
	// overrides are merged over the inherited environment at launch.
	Wrap(appID int, args []string) ([]string, map[string]string, error)
}

// NewEnvironment selects the platform's Environment implementation once at
// startup. steamDirOverride is a configured Steam root, or empty for
// autodetection; it is ignored on platforms without a compatibility layer.
func NewEnvironment(steamDirOverride string) Environment {
	if runtime.GOOS == "linux" {
		return NewSandboxedEnvironment(FindSteamDir(steamDirOverride))
	}
	return PassthroughEnvironment{}
}

// PassthroughEnvironment runs commands with the inherited environment
// unchanged. Used on platforms where games run natively and no prefix
// exists.
type PassthroughEnvironment struct{}

// Wrap returns the command line untouched and no overrides, regardless of
// AppID validity.
func (PassthroughEnvironment) Wrap(_ int, args []string) ([]string, map[string]string, error) {
	return args, nil, nil
}

// SandboxedEnvironment wraps commands so they execute inside the Proton
// prefix of a Steam game, the same way Steam itself would run the game.
type SandboxedEnvironment struct {
	SteamRoot  string
	ConfigDirs []string

	toolsOnce sync.Once
	tools     []CompatTool
}

// NewSandboxedEnvironment creates a sandboxed environment rooted at a Steam
// installation. Tool registries under XDG_DATA_DIRS are consulted in
// addition to the Steam root.
func NewSandboxedEnvironment(steamRoot string) *SandboxedEnvironment {
	return &SandboxedEnvironment{
		SteamRoot:  steamRoot,
		ConfigDirs: SystemConfigDirs(),
	}
}

// compatTools discovers installed compatibility tools on first use.
func (e *SandboxedEnvironment) compatTools() []CompatTool {
	e.toolsOnce.Do(func() {
		e.tools = DiscoverCompatTools(e.SteamRoot, e.ConfigDirs)
	})
	return e.tools
}

// compatDataPath locates the prefix directory for an AppID. Installed apps
// are checked first; non-Steam shortcuts second, since Steam keys their
// prefixes by the same kind of ID.
func (e *SandboxedEnvironment) compatDataPath(appID int) (string, error) {
	loc, err := FindApp(SteamAppsDir(e.SteamRoot), appID)
	if err == nil {
		return loc.CompatDataPath(), nil
	}
	if !errors.Is(err, ErrAppNotFound) {
		return "", err
	}

	sloc, shortcutErr := FindShortcut(e.SteamRoot, appID)
	if shortcutErr != nil {
		return "", err
	}
	log.Debug().Int("appID", appID).Str("name", sloc.Shortcut.Name).
		Msg("appid resolves to a non-steam shortcut")
	return sloc.CompatDataPath(), nil
}

// Wrap locates the app, sets the Steam compatibility variables pointing at
// its compatdata directory, and prepends the app's mapped Proton tool to
// the command line. When the mapped tool is not a Proton build (or no
// mapping exists) the command runs unwrapped but still inside the prefix
// environment.
func (e *SandboxedEnvironment) Wrap(appID int, args []string) ([]string, map[string]string, error) {
	compatData, err := e.compatDataPath(appID)
	if err != nil {
		return nil, nil, err
	}

	env := map[string]string{
		"STEAM_COMPAT_CLIENT_INSTALL_PATH": e.SteamRoot,
		"STEAM_COMPAT_DATA_PATH":           compatData,
		"WINEPREFIX":                       filepath.Join(compatData, "pfx"),
	}

	toolName := CompatToolName(e.SteamRoot, appID)
	if toolName == "" {
		log.Warn().Int("appID", appID).Msg("no compatibility tool mapped, running unwrapped in prefix")
		return args, env, nil
	}

	tool, err := FindCompatTool(e.compatTools(), toolName)
	if err != nil {
		return nil, nil, err
	}
	if !tool.IsProton() {
		log.Warn().Str("tool", tool.InternalName).Msg("mapped tool is not Proton, running unwrapped in prefix")
		return args, env, nil
	}

	env["PROTON_DIR"] = filepath.Dir(tool.BinaryPath)
	wrapped := append(tool.CommandLine(VerbRun), args...)
	log.Info().Int("appID", appID).Str("tool", tool.InternalName).Msg("process will run in prefix")
	return wrapped, env, nil
}
