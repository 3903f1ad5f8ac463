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

// Package launcher assembles and runs utility processes.
package launcher

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/prefixtools/prefixlaunch/pkg/steam"
	"github.com/prefixtools/prefixlaunch/pkg/utilities"
)

// Process is a fully resolved child process: final argument list and the
// environment overrides to merge over the inherited environment.
type Process struct {
	Args []string
	Env  map[string]string
	Dir  string
}

// Launcher resolves a utility name or executable path into a Process ready
// to run, wrapping it in the platform's prefix environment when an AppID is
// given.
type Launcher struct {
	Env   steam.Environment
	Store *utilities.Store
	Tags  func(utility string) string
}

// Prepare resolves target (a builtin utility name or an executable path)
// and appID into a runnable Process. appID zero means absolute mode: the
// target runs directly with the inherited environment. Any error here
// occurs before a child process is started.
func (l *Launcher) Prepare(ctx context.Context, target string, appID int, extra []string) (Process, error) {
	exePath := target
	if u, ok := utilities.Lookup(target); ok {
		tag := ""
		if l.Tags != nil {
			tag = l.Tags(u.Name)
		}
		resolved, err := l.Store.Resolve(ctx, u, tag)
		if err != nil {
			return Process{}, err
		}
		exePath = resolved
	} else if _, err := os.Stat(target); err != nil {
		return Process{}, fmt.Errorf("%q is neither a builtin utility nor an executable path: %w", target, err)
	}

	args := append([]string{exePath}, extra...)
	if appID == 0 {
		return Process{Args: args}, nil
	}

	wrapped, env, err := l.Env.Wrap(appID, args)
	if err != nil {
		return Process{}, err
	}
	return Process{Args: wrapped, Env: env}, nil
}

// MergeEnv merges overrides over a base environment in KEY=VALUE form.
// Overridden keys replace the inherited entry in place; new keys append.
func MergeEnv(base []string, overrides map[string]string) []string {
	if len(overrides) == 0 {
		return base
	}
	remaining := make(map[string]string, len(overrides))
	for k, v := range overrides {
		remaining[k] = v
	}
	merged := make([]string, 0, len(base)+len(overrides))
	for _, entry := range base {
		key, _, ok := strings.Cut(entry, "=")
		if ok {
			if v, hit := remaining[key]; hit {
				merged = append(merged, key+"="+v)
				delete(remaining, key)
				continue
			}
		}
		merged = append(merged, entry)
	}
	for k, v := range remaining {
		merged = append(merged, k+"="+v)
	}
	return merged
}

// logProcess records the final command line before launch.
func logProcess(p Process) {
	log.Info().Strs("args", p.Args).Msg("starting subprocess")
}
