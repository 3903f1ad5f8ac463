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
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"regexp"
	"sync/atomic"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prefixtools/prefixlaunch/pkg/release"
)

// releaseServer serves a single release with one zip asset and counts
// requests.
func releaseServer(t *testing.T, tag string, assetName string, archive []byte) (*httptest.Server, *atomic.Int64) {
	t.Helper()
	var requests atomic.Int64
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/", func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		_, _ = fmt.Fprintf(w, `{
			"tag_name": %q,
			"assets": [
				{"name": %q, "browser_download_url": %q, "size": %d}
			]
		}`, tag, assetName, "http://"+r.Host+"/download/"+assetName, len(archive))
	})
	mux.HandleFunc("/download/", func(w http.ResponseWriter, _ *http.Request) {
		requests.Add(1)
		_, _ = w.Write(archive)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, &requests
}

// buildZip creates an in-memory zip archive from name to content.
func buildZip(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = io.WriteString(w, content)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func testUtility() Utility {
	return Utility{
		Name:            "dsr-gadget",
		Owner:           "JKAnderson",
		Repo:            "DSR-Gadget",
		AssetPattern:    regexp.MustCompile(`DSR\.Gadget(\.[0-9]+)+\.zip`),
		Archive:         true,
		StripComponents: 1,
		Entrypoint:      "DSR-Gadget.exe",
	}
}

func TestStoreResolve(t *testing.T) {
	t.Parallel()

	t.Run("downloads_and_installs_on_first_use", func(t *testing.T) {
		t.Parallel()

		archive := buildZip(t, map[string]string{
			"DSR.Gadget/DSR-Gadget.exe": "exe bytes",
			"DSR.Gadget/readme.txt":     "hello",
		})
		server, requests := releaseServer(t, "1.6.1", "DSR.Gadget.1.6.1.zip", archive)

		fs := afero.NewMemMapFs()
		client := release.NewClient(server.Client(), fs, server.URL, io.Discard)
		store := NewStore(fs, client, "/cache")

		path, err := store.Resolve(context.Background(), testUtility(), "")

		require.NoError(t, err)
		assert.Equal(t, "/cache/dsr-gadget/DSR-Gadget.exe", path)
		// One metadata fetch plus one asset download
		assert.Equal(t, int64(2), requests.Load())

		data, err := afero.ReadFile(fs, path)
		require.NoError(t, err)
		assert.Equal(t, "exe bytes", string(data))
		assert.Equal(t, "1.6.1", store.InstalledTag(testUtility()))
	})

	t.Run("cached_install_skips_network_entirely", func(t *testing.T) {
		t.Parallel()

		archive := buildZip(t, map[string]string{"DSR.Gadget/DSR-Gadget.exe": "exe bytes"})
		server, requests := releaseServer(t, "1.6.1", "DSR.Gadget.1.6.1.zip", archive)

		fs := afero.NewMemMapFs()
		client := release.NewClient(server.Client(), fs, server.URL, io.Discard)
		store := NewStore(fs, client, "/cache")

		_, err := store.Resolve(context.Background(), testUtility(), "")
		require.NoError(t, err)
		fetched := requests.Load()

		path, err := store.Resolve(context.Background(), testUtility(), "")

		require.NoError(t, err)
		assert.Equal(t, "/cache/dsr-gadget/DSR-Gadget.exe", path)
		assert.Equal(t, fetched, requests.Load(), "cached install must not refetch")
	})

	t.Run("pinned_tag_requests_that_release", func(t *testing.T) {
		t.Parallel()

		archive := buildZip(t, map[string]string{"DSR.Gadget/DSR-Gadget.exe": "old exe"})
		var gotPath string
		mux := http.NewServeMux()
		mux.HandleFunc("/repos/", func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			_, _ = fmt.Fprintf(w, `{
				"tag_name": "1.5.0",
				"assets": [{"name": "DSR.Gadget.1.5.0.zip", "browser_download_url": %q, "size": %d}]
			}`, "http://"+r.Host+"/download/a.zip", len(archive))
		})
		mux.HandleFunc("/download/", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write(archive)
		})
		server := httptest.NewServer(mux)
		t.Cleanup(server.Close)

		fs := afero.NewMemMapFs()
		client := release.NewClient(server.Client(), fs, server.URL, io.Discard)
		store := NewStore(fs, client, "/cache")

		_, err := store.Resolve(context.Background(), testUtility(), "1.5.0")

		require.NoError(t, err)
		assert.Equal(t, "/repos/JKAnderson/DSR-Gadget/releases/tags/1.5.0", gotPath)
		assert.Equal(t, "1.5.0", store.InstalledTag(testUtility()))
	})

	t.Run("errors_when_entrypoint_missing_from_asset", func(t *testing.T) {
		t.Parallel()

		archive := buildZip(t, map[string]string{"DSR.Gadget/other.exe": "not it"})
		server, _ := releaseServer(t, "1.6.1", "DSR.Gadget.1.6.1.zip", archive)

		fs := afero.NewMemMapFs()
		client := release.NewClient(server.Client(), fs, server.URL, io.Discard)
		store := NewStore(fs, client, "/cache")

		_, err := store.Resolve(context.Background(), testUtility(), "")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "entry point")
	})

	t.Run("errors_when_no_asset_matches", func(t *testing.T) {
		t.Parallel()

		server, _ := releaseServer(t, "1.6.1", "Source.code.zip", []byte("zip"))

		fs := afero.NewMemMapFs()
		client := release.NewClient(server.Client(), fs, server.URL, io.Discard)
		store := NewStore(fs, client, "/cache")

		_, err := store.Resolve(context.Background(), testUtility(), "")

		require.Error(t, err)
		assert.ErrorIs(t, err, release.ErrAssetNotFound)
	})

	t.Run("preserves_user_data_across_reinstall", func(t *testing.T) {
		t.Parallel()

		u := Utility{
			Name:            "peacock",
			Owner:           "thepeacockproject",
			Repo:            "Peacock",
			AssetPattern:    regexp.MustCompile(`Peacock-v[^-]+\.zip`),
			Archive:         true,
			StripComponents: 1,
			Entrypoint:      "PeacockPatcher.exe",
			PreservedPaths:  []string{"userdata"},
		}
		archive := buildZip(t, map[string]string{"Peacock/PeacockPatcher.exe": "patcher"})
		server, _ := releaseServer(t, "v8.3.0", "Peacock-v8.3.0.zip", archive)

		fs := afero.NewMemMapFs()
		// Simulate a prior install that lost its entry point but kept user data.
		require.NoError(t, afero.WriteFile(fs,
			"/cache/peacock/userdata/users.json", []byte(`{"saved": true}`), 0o644))

		client := release.NewClient(server.Client(), fs, server.URL, io.Discard)
		store := NewStore(fs, client, "/cache")

		path, err := store.Resolve(context.Background(), u, "")

		require.NoError(t, err)
		assert.Equal(t, "/cache/peacock/PeacockPatcher.exe", path)
		data, err := afero.ReadFile(fs, "/cache/peacock/userdata/users.json")
		require.NoError(t, err)
		assert.JSONEq(t, `{"saved": true}`, string(data))
	})

	t.Run("bare_binary_asset_skips_extraction", func(t *testing.T) {
		t.Parallel()

		u := Utility{
			Name:         "flat-tool",
			Owner:        "owner",
			Repo:         "repo",
			AssetPattern: regexp.MustCompile(`tool-linux-amd64`),
			Entrypoint:   "tool-linux-amd64",
		}
		server, requests := releaseServer(t, "v1.0.0", "tool-linux-amd64", []byte("ELF bytes"))

		fs := afero.NewMemMapFs()
		client := release.NewClient(server.Client(), fs, server.URL, io.Discard)
		store := NewStore(fs, client, "/cache")

		path, err := store.Resolve(context.Background(), u, "")

		require.NoError(t, err)
		assert.Equal(t, "/cache/flat-tool/tool-linux-amd64", path)
		assert.Equal(t, int64(2), requests.Load())
		data, err := afero.ReadFile(fs, path)
		require.NoError(t, err)
		assert.Equal(t, "ELF bytes", string(data))
	})
}

func TestLookup(t *testing.T) {
	t.Parallel()

	t.Run("finds_builtin", func(t *testing.T) {
		t.Parallel()

		u, ok := Lookup("dsr-gadget")

		assert.True(t, ok)
		assert.Equal(t, "JKAnderson", u.Owner)
		assert.Equal(t, "DSR-Gadget.exe", u.Entrypoint)
	})

	t.Run("misses_unknown_name", func(t *testing.T) {
		t.Parallel()

		_, ok := Lookup("definitely-not-a-builtin")

		assert.False(t, ok)
	})
}
