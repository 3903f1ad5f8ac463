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

// Package utilities maintains the builtin utility table and the on-disk
// cache of downloaded utility installs.
package utilities

import "regexp"

// Utility describes a named third-party tool the launcher knows how to
// fetch from GitHub releases and run.
type Utility struct {
	Name            string
	Description     string
	Owner           string
	Repo            string
	AssetPattern    *regexp.Regexp
	Archive         bool
	StripComponents int
	Entrypoint      string
	PreservedPaths  []string
}

// Builtins is the static utility table. It is defined at build time and
// never mutated at runtime.
var Builtins = []Utility{
	{
		Name:            "dsr-gadget",
		Description:     "Dark Souls Remastered practice tool",
		Owner:           "JKAnderson",
		Repo:            "DSR-Gadget",
		AssetPattern:    regexp.MustCompile(`DSR\.Gadget(\.[0-9]+)+\.zip`),
		Archive:         true,
		StripComponents: 1,
		Entrypoint:      "DSR-Gadget.exe",
	},
	{
		Name:            "peacock",
		Description:     "HITMAN World of Assassination local server patcher",
		Owner:           "thepeacockproject",
		Repo:            "Peacock",
		AssetPattern:    regexp.MustCompile(`Peacock-v[^-]+\.zip`),
		Archive:         true,
		StripComponents: 1,
		Entrypoint:      "PeacockPatcher.exe",
		PreservedPaths:  []string{"userdata", "contracts", "contractSessions"},
	},
}

// Lookup finds a builtin utility by name.
func Lookup(name string) (Utility, bool) {
	for _, u := range Builtins {
		if u.Name == name {
			return u, true
		}
	}
	return Utility{}, false
}
