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

// Package helpers holds small shared utilities.
package helpers

import (
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/rs/zerolog/pkgerrors"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"

	"github.com/prefixtools/prefixlaunch/pkg/config"
)

// InitLogging sets up the global logger: a rotating file in the state
// directory, plus any extra writers (a console writer in debug mode).
func InitLogging(stateDir string, writers []io.Writer) error {
	if err := os.MkdirAll(stateDir, 0o750); err != nil {
		return err //nolint:wrapcheck // caller reports the path
	}

	logWriters := []io.Writer{&lumberjack.Logger{
		Filename:   filepath.Join(stateDir, config.LogFile),
		MaxSize:    1,
		MaxBackups: 2,
	}}
	logWriters = append(logWriters, writers...)

	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack

	log.Logger = log.Output(io.MultiWriter(logWriters...)).
		With().Timestamp().Caller().Logger()

	return nil
}
