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
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"

	"github.com/prefixtools/prefixlaunch/pkg/release"
)

// tagFile records the release tag a utility install came from.
const tagFile = ".release-tag"

// Store materializes builtin utilities into a local cache directory. An
// install that already exists is reused as-is: no checksum, no version
// check, no re-download.
type Store struct {
	fs     afero.Fs
	client *release.Client
	root   string
}

// NewStore creates a utility store rooted at a cache directory.
func NewStore(fs afero.Fs, client *release.Client, root string) *Store {
	return &Store{
		fs:     fs,
		client: client,
		root:   root,
	}
}

// InstallDir returns the cache directory a utility installs into.
func (s *Store) InstallDir(u Utility) string {
	return filepath.Join(s.root, u.Name)
}

// InstalledTag returns the release tag of a cached install, or "" when the
// utility has never been materialized.
func (s *Store) InstalledTag(u Utility) string {
	data, err := afero.ReadFile(s.fs, filepath.Join(s.InstallDir(u), tagFile))
	if err != nil {
		return ""
	}
	return string(data)
}

// Resolve returns the path to a utility's entry-point executable,
// downloading and unpacking the release asset on first use. tag pins a
// specific release; empty means latest. A cached entry point short-circuits
// everything, including the network.
func (s *Store) Resolve(ctx context.Context, u Utility, tag string) (string, error) {
	installDir := s.InstallDir(u)
	exePath := filepath.Join(installDir, u.Entrypoint)

	if ok, _ := afero.Exists(s.fs, exePath); ok {
		log.Debug().Str("utility", u.Name).Str("path", exePath).Msg("using cached utility")
		return exePath, nil
	}

	rel, err := s.client.Get(ctx, u.Owner, u.Repo, tag)
	if err != nil {
		return "", fmt.Errorf("utility %s: %w", u.Name, err)
	}
	asset, err := rel.MatchAsset(u.AssetPattern)
	if err != nil {
		return "", fmt.Errorf("utility %s release %s: %w", u.Name, rel.TagName, err)
	}

	staging := installDir + ".staging"
	if err := s.fs.RemoveAll(staging); err != nil {
		return "", fmt.Errorf("failed to clear staging dir: %w", err)
	}
	if err := s.fs.MkdirAll(staging, 0o755); err != nil {
		return "", fmt.Errorf("failed to create staging dir: %w", err)
	}

	if err := s.materialize(ctx, u, asset, staging); err != nil {
		return "", fmt.Errorf("utility %s: %w", u.Name, err)
	}

	// Carry user data over from any previous install before replacing it.
	for _, preserved := range u.PreservedPaths {
		src := filepath.Join(installDir, preserved)
		if ok, _ := afero.Exists(s.fs, src); !ok {
			continue
		}
		if err := copyTree(s.fs, src, filepath.Join(staging, preserved)); err != nil {
			return "", fmt.Errorf("failed to preserve %s: %w", preserved, err)
		}
	}

	if err := afero.WriteFile(s.fs, filepath.Join(staging, tagFile), []byte(rel.TagName), 0o644); err != nil {
		return "", fmt.Errorf("failed to record release tag: %w", err)
	}

	if err := s.fs.RemoveAll(installDir); err != nil {
		return "", fmt.Errorf("failed to remove old install: %w", err)
	}
	if err := s.fs.Rename(staging, installDir); err != nil {
		return "", fmt.Errorf("failed to move install into place: %w", err)
	}

	if ok, _ := afero.Exists(s.fs, exePath); !ok {
		return "", fmt.Errorf("utility %s: entry point %s missing from release %s",
			u.Name, u.Entrypoint, rel.TagName)
	}
	if err := s.fs.Chmod(exePath, 0o755); err != nil {
		return "", fmt.Errorf("failed to mark %s executable: %w", exePath, err)
	}

	log.Info().Str("utility", u.Name).Str("tag", rel.TagName).Msg("installed utility")
	return exePath, nil
}

// materialize downloads the asset into staging, unpacking archives.
func (s *Store) materialize(ctx context.Context, u Utility, asset release.Asset, staging string) error {
	if !u.Archive {
		return s.client.Download(ctx, asset, filepath.Join(staging, u.Entrypoint))
	}

	tmp := filepath.Join(s.root, ".downloads", asset.Name)
	if err := s.fs.MkdirAll(filepath.Dir(tmp), 0o755); err != nil {
		return fmt.Errorf("failed to create download dir: %w", err)
	}
	if err := s.client.Download(ctx, asset, tmp); err != nil {
		return err
	}
	defer func() {
		if removeErr := s.fs.Remove(tmp); removeErr != nil {
			log.Warn().Err(removeErr).Msg("failed to remove downloaded archive")
		}
	}()

	return extractZip(s.fs, tmp, staging, u.StripComponents)
}

// copyTree copies a file or directory tree inside the store filesystem.
func copyTree(fsys afero.Fs, src, dst string) error {
	return afero.Walk(fsys, src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return fmt.Errorf("failed to relativize %s: %w", path, err)
		}
		target := filepath.Join(dst, rel)
		if info.IsDir() {
			if err := fsys.MkdirAll(target, info.Mode().Perm()); err != nil {
				return fmt.Errorf("failed to create %s: %w", target, err)
			}
			return nil
		}
		data, err := afero.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		if err := fsys.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", filepath.Dir(target), err)
		}
		if err := afero.WriteFile(fsys, target, data, info.Mode().Perm()); err != nil {
			return fmt.Errorf("failed to write %s: %w", target, err)
		}
		return nil
	})
}
