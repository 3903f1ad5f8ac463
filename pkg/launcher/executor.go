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

package launcher

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
)

// Executor runs a resolved Process and reports its exit code. The
// abstraction exists so orchestration can be tested without real child
// processes.
type Executor interface {
	// Run starts the process, waits for it to exit, and returns its exit
	// code. A non-zero child exit is not an error; failure to start is.
	Run(p Process) (int, error)
}

// RealExecutor runs processes with os/exec, inheriting stdio. There is
// deliberately no timeout: launched utilities are interactive and run
// until the operator closes them.
type RealExecutor struct{}

// Run implements Executor.
func (*RealExecutor) Run(p Process) (int, error) {
	if len(p.Args) == 0 {
		return 0, errors.New("empty command line")
	}
	logProcess(p)

	//nolint:gosec // Command line is operator-supplied by design
	cmd := exec.Command(p.Args[0], p.Args[1:]...)
	cmd.Env = MergeEnv(os.Environ(), p.Env)
	cmd.Dir = p.Dir
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	err := cmd.Run()
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	return 0, fmt.Errorf("failed to start %s: %w", p.Args[0], err)
}
