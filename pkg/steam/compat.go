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
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/shlex"
	"github.com/rs/zerolog/log"
)

// VerbRun is the compatibility-tool launch verb for running a process
// inside an existing prefix without waiting for Steam bookkeeping.
const VerbRun = "run"

var protonNameRe = regexp.MustCompile(`(?i)^Proton($|[-_ ])`)

// CompatTool is an installed Steam compatibility tool, parsed from its
// toolmanifest.vdf.
type CompatTool struct {
	InternalName string
	DisplayName  string
	InstallPath  string
	BinaryPath   string
	argTemplate  []string
}

// IsProton reports whether the tool is a Proton build, by Valve's
// internal-name convention.
func (t *CompatTool) IsProton() bool {
	return protonNameRe.MatchString(t.InternalName)
}

// CommandLine returns the tool's invocation with the %verb% placeholder
// substituted. The child command line is appended after it.
func (t *CompatTool) CommandLine(verb string) []string {
	args := make([]string, 0, len(t.argTemplate)+1)
	args = append(args, t.BinaryPath)
	for _, arg := range t.argTemplate {
		if arg == "%verb%" {
			arg = verb
		}
		args = append(args, arg)
	}
	return args
}

// ParseToolManifest reads a toolmanifest.vdf and resolves the tool's binary
// and argument template. Only manifest version 2 is supported. A command
// starting with "/" is relative to the tool's install directory; anything
// else is resolved through PATH.
func ParseToolManifest(manifestPath, internalName, displayName string) (CompatTool, error) {
	installPath := filepath.Dir(manifestPath)
	if internalName == "" {
		internalName = strings.ToLower(strings.ReplaceAll(filepath.Base(installPath), " ", "_"))
	}
	if displayName == "" {
		displayName = filepath.Base(installPath)
	}

	m, err := parseVDFFile(manifestPath)
	if err != nil {
		return CompatTool{}, err
	}
	manifest, ok := vdfSection(m, "manifest")
	if !ok {
		return CompatTool{}, fmt.Errorf("manifest section not found in %s", manifestPath)
	}

	version, _ := vdfString(manifest, "version")
	if version != "2" {
		return CompatTool{}, fmt.Errorf("unsupported tool manifest version %q in %s", version, manifestPath)
	}

	commandline, ok := vdfString(manifest, "commandline")
	if !ok {
		return CompatTool{}, fmt.Errorf("commandline not found in %s", manifestPath)
	}
	template, err := shlex.Split(commandline)
	if err != nil {
		return CompatTool{}, fmt.Errorf("failed to split commandline in %s: %w", manifestPath, err)
	}
	if len(template) == 0 {
		return CompatTool{}, fmt.Errorf("empty commandline in %s", manifestPath)
	}

	binary := template[0]
	if strings.HasPrefix(binary, "/") {
		binary = filepath.Join(installPath, binary[1:])
	} else {
		resolved, err := exec.LookPath(binary)
		if err != nil {
			return CompatTool{}, fmt.Errorf("tool binary %q not found in PATH: %w", binary, err)
		}
		binary = resolved
	}

	return CompatTool{
		InternalName: internalName,
		DisplayName:  displayName,
		InstallPath:  installPath,
		BinaryPath:   binary,
		argTemplate:  template[1:],
	}, nil
}

// parseCompatibilityToolVDF reads a compatibilitytool.vdf registry file and
// returns the tools it declares. Each entry points at an install_path
// relative to the registry file, which must hold a toolmanifest.vdf.
func parseCompatibilityToolVDF(toolVDFPath string) ([]CompatTool, error) {
	m, err := parseVDFFile(toolVDFPath)
	if err != nil {
		return nil, err
	}
	compatTools, ok := vdfSection(m, "compatibilitytools", "compat_tools")
	if !ok {
		return nil, fmt.Errorf("compat_tools section not found in %s", toolVDFPath)
	}

	vdfDir := filepath.Dir(toolVDFPath)
	tools := make([]CompatTool, 0, len(compatTools))
	for internalName := range compatTools {
		section, ok := vdfSection(compatTools, internalName)
		if !ok {
			continue
		}
		installPath, ok := vdfString(section, "install_path")
		if !ok {
			continue
		}
		displayName, _ := vdfString(section, "display_name")
		manifestPath := filepath.Join(vdfDir, installPath, "toolmanifest.vdf")
		tool, err := ParseToolManifest(manifestPath, internalName, displayName)
		if err != nil {
			return nil, err
		}
		tools = append(tools, tool)
	}
	return tools, nil
}

// DiscoverCompatTools finds all installed compatibility tools: official
// ones shipped as Steam apps (steamapps/common/*/toolmanifest.vdf) and
// user-installed ones registered under compatibilitytools.d in the Steam
// root or any system config dir.
func DiscoverCompatTools(steamRoot string, configDirs []string) []CompatTool {
	var tools []CompatTool

	manifests, _ := filepath.Glob(filepath.Join(steamRoot, "steamapps", "common", "*", "toolmanifest.vdf"))
	for _, manifestPath := range manifests {
		tool, err := ParseToolManifest(manifestPath, "", "")
		if err != nil {
			log.Warn().Err(err).Str("path", manifestPath).Msg("skipping unreadable tool manifest")
			continue
		}
		tools = append(tools, tool)
	}

	for _, dir := range append([]string{steamRoot}, configDirs...) {
		registries, _ := filepath.Glob(filepath.Join(dir, "compatibilitytools.d", "*", "compatibilitytool.vdf"))
		for _, registry := range registries {
			parsed, err := parseCompatibilityToolVDF(registry)
			if err != nil {
				log.Warn().Err(err).Str("path", registry).Msg("skipping unreadable tool registry")
				continue
			}
			tools = append(tools, parsed...)
		}
	}
	return tools
}

// CompatToolName reads config.vdf and returns the compatibility tool Steam
// has mapped for the app. The "0" entry is Steam's global default and is
// used when the app has no specific mapping. Returns "" when no mapping
// exists at all.
func CompatToolName(steamRoot string, appID int) string {
	configPath := filepath.Join(steamRoot, "config", "config.vdf")
	m, err := parseVDFFile(configPath)
	if err != nil {
		log.Debug().Err(err).Msg("failed to read steam config.vdf")
		return ""
	}
	mapping, ok := vdfSection(m, "installconfigstore", "software", "valve", "steam", "compattoolmapping")
	if !ok {
		return ""
	}
	if name, ok := vdfString(mapping, strconv.Itoa(appID), "name"); ok && name != "" {
		return name
	}
	name, _ := vdfString(mapping, "0", "name")
	return name
}

// FindCompatTool returns the single tool matching an internal name.
// Matching is case-insensitive: VDF registry keys lose their case during
// normalization, while config.vdf mapping values keep theirs.
func FindCompatTool(tools []CompatTool, internalName string) (CompatTool, error) {
	var matched []CompatTool
	for _, tool := range tools {
		if strings.EqualFold(tool.InternalName, internalName) {
			matched = append(matched, tool)
		}
	}
	switch len(matched) {
	case 0:
		return CompatTool{}, fmt.Errorf("no compatibility tool matched %q", internalName)
	case 1:
		return matched[0], nil
	default:
		return CompatTool{}, errors.New("multiple compatibility tools matched " + strconv.Quote(internalName))
	}
}
