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

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"

	"github.com/prefixtools/prefixlaunch/pkg/config"
	"github.com/prefixtools/prefixlaunch/pkg/helpers"
	"github.com/prefixtools/prefixlaunch/pkg/launcher"
	"github.com/prefixtools/prefixlaunch/pkg/release"
	"github.com/prefixtools/prefixlaunch/pkg/steam"
	"github.com/prefixtools/prefixlaunch/pkg/utilities"
)

// Exit codes. A completed launch propagates the child's exit code instead.
const (
	exitLaunchFailure     = 1
	exitResolutionFailure = 2
)

func main() {
	os.Exit(run())
}

func usage() {
	_, _ = fmt.Fprintf(flag.CommandLine.Output(),
		"Usage: %s [flags] <utility-or-path> [args...]\n\n"+
			"Runs a utility inside the Proton prefix of a Steam game.\n"+
			"Without -app the target runs directly with the inherited environment.\n\n"+
			"Flags:\n", os.Args[0])
	flag.PrintDefaults()
}

func run() int {
	flag.Usage = usage
	appID := flag.Int("app", 0, "Steam AppID whose prefix the utility runs in")
	configPath := flag.String("config", config.DefaultConfigPath(), "path to the config file")
	cacheDir := flag.String("cache", "", "utility cache directory (overrides config)")
	debug := flag.Bool("debug", false, "log debug output to the console")
	list := flag.Bool("list", false, "list builtin utilities and exit")
	flag.Parse()

	cfg, err := config.NewInstance(*configPath, config.BaseDefaults)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		return exitResolutionFailure
	}
	if *debug {
		cfg.SetDebugLogging(true)
	}

	var logWriters []io.Writer
	if cfg.DebugLogging() {
		logWriters = append(logWriters, zerolog.ConsoleWriter{Out: os.Stderr})
	}
	if err := helpers.InitLogging(config.DefaultStateDir(), logWriters); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: failed to set up logging: %s\n", err)
		return exitResolutionFailure
	}
	if cfg.DebugLogging() {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	if *list {
		for _, u := range utilities.Builtins {
			fmt.Printf("%-12s %s (github.com/%s/%s)\n", u.Name, u.Description, u.Owner, u.Repo)
		}
		return 0
	}

	if flag.NArg() < 1 {
		usage()
		return exitResolutionFailure
	}
	target := flag.Arg(0)
	extra := flag.Args()[1:]

	cache := *cacheDir
	if cache == "" {
		cache = cfg.CacheDir()
	}

	fs := afero.NewOsFs()
	httpClient := &http.Client{Timeout: release.DefaultTimeout}
	client := release.NewClient(httpClient, fs, release.DefaultBaseURL, os.Stderr)

	l := &launcher.Launcher{
		Env:   steam.NewEnvironment(cfg.SteamDir()),
		Store: utilities.NewStore(fs, client, cache),
		Tags: func(name string) string {
			if def, ok := cfg.LookupUtilityDefaults(name); ok {
				return def.Tag
			}
			return ""
		},
	}

	proc, err := l.Prepare(context.Background(), target, *appID, extra)
	if err != nil {
		log.Error().Err(err).Str("target", target).Msg("resolution failed")
		_, _ = fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		return exitResolutionFailure
	}

	code, err := (&launcher.RealExecutor{}).Run(proc)
	if err != nil {
		log.Error().Err(err).Msg("launch failed")
		_, _ = fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		return exitLaunchFailure
	}
	return code
}
