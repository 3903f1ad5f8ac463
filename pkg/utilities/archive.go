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

package utilities

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

const zipWriteFlags = os.O_WRONLY | os.O_CREATE | os.O_TRUNC

// extractZip unpacks an archive into dest, dropping the first strip leading
// path components of every entry. Entries entirely consumed by stripping
// are skipped.
func extractZip(fsys afero.Fs, zipPath, dest string, strip int) error {
	f, err := fsys.Open(zipPath)
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer f.Close() //nolint:errcheck // read-only file

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat archive: %w", err)
	}
	readerAt, ok := f.(io.ReaderAt)
	if !ok {
		return fmt.Errorf("filesystem does not support random access for %s", zipPath)
	}
	zr, err := zip.NewReader(readerAt, info.Size())
	if err != nil {
		return fmt.Errorf("failed to read archive %s: %w", zipPath, err)
	}

	for _, entry := range zr.File {
		name, ok := stripComponents(entry.Name, strip)
		if !ok {
			continue
		}
		target := filepath.Join(dest, filepath.FromSlash(name))
		if !strings.HasPrefix(target, filepath.Clean(dest)+string(filepath.Separator)) {
			return fmt.Errorf("archive entry escapes destination: %s", entry.Name)
		}

		if entry.FileInfo().IsDir() {
			if err := fsys.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("failed to create directory %s: %w", target, err)
			}
			continue
		}

		if err := fsys.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return fmt.Errorf("failed to create directory for %s: %w", target, err)
		}
		if err := extractZipEntry(fsys, entry, target); err != nil {
			return err
		}
	}
	return nil
}

func extractZipEntry(fsys afero.Fs, entry *zip.File, target string) error {
	src, err := entry.Open()
	if err != nil {
		return fmt.Errorf("failed to open archive entry %s: %w", entry.Name, err)
	}
	defer src.Close() //nolint:errcheck // read-only stream

	dst, err := fsys.OpenFile(target, zipWriteFlags, entry.Mode())
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", target, err)
	}
	//nolint:gosec // G110: archives come from pinned release assets
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		return fmt.Errorf("failed to extract %s: %w", entry.Name, err)
	}
	if err := dst.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", target, err)
	}
	return nil
}

// stripComponents removes the first strip leading components of a
// slash-separated archive path.
func stripComponents(name string, strip int) (string, bool) {
	name = path.Clean(strings.TrimPrefix(name, "/"))
	if name == "." {
		return "", false
	}
	parts := strings.Split(name, "/")
	if len(parts) <= strip {
		return "", false
	}
	return path.Join(parts[strip:]...), true
}
