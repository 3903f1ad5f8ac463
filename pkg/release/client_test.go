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

package release

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientGet(t *testing.T) {
	t.Parallel()

	t.Run("fetches_latest_release", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/repos/JKAnderson/DSR-Gadget/releases/latest", r.URL.Path)
			_, _ = w.Write([]byte(`{
				"tag_name": "1.6.1",
				"assets": [
					{"name": "DSR.Gadget.1.6.1.zip", "browser_download_url": "https://example.com/a.zip", "size": 1024}
				]
			}`))
		}))
		defer server.Close()

		client := NewClient(server.Client(), afero.NewMemMapFs(), server.URL, io.Discard)
		rel, err := client.Get(context.Background(), "JKAnderson", "DSR-Gadget", "")

		require.NoError(t, err)
		assert.Equal(t, "1.6.1", rel.TagName)
		require.Len(t, rel.Assets, 1)
		assert.Equal(t, "DSR.Gadget.1.6.1.zip", rel.Assets[0].Name)
		assert.Equal(t, int64(1024), rel.Assets[0].Size)
	})

	t.Run("fetches_release_by_tag", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/repos/owner/repo/releases/tags/v1.0.0", r.URL.Path)
			_, _ = w.Write([]byte(`{"tag_name": "v1.0.0", "assets": []}`))
		}))
		defer server.Close()

		client := NewClient(server.Client(), afero.NewMemMapFs(), server.URL, io.Discard)
		rel, err := client.Get(context.Background(), "owner", "repo", "v1.0.0")

		require.NoError(t, err)
		assert.Equal(t, "v1.0.0", rel.TagName)
	})

	t.Run("reports_rate_limiting_distinctly", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"message": "API rate limit exceeded"}`))
		}))
		defer server.Close()

		client := NewClient(server.Client(), afero.NewMemMapFs(), server.URL, io.Discard)
		_, err := client.Get(context.Background(), "owner", "repo", "")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "rate limited")
	})

	t.Run("errors_on_not_found", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		client := NewClient(server.Client(), afero.NewMemMapFs(), server.URL, io.Discard)
		_, err := client.Get(context.Background(), "owner", "repo", "")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "404")
	})

	t.Run("errors_on_invalid_json", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("not json"))
		}))
		defer server.Close()

		client := NewClient(server.Client(), afero.NewMemMapFs(), server.URL, io.Discard)
		_, err := client.Get(context.Background(), "owner", "repo", "")

		require.Error(t, err)
	})
}

func TestMatchAsset(t *testing.T) {
	t.Parallel()

	rel := &Release{
		TagName: "1.6.1",
		Assets: []Asset{
			{Name: "DSR.Gadget.1.6.1.zip"},
			{Name: "Source.code.zip"},
			{Name: "README.md"},
		},
	}

	t.Run("matches_single_asset", func(t *testing.T) {
		t.Parallel()

		asset, err := rel.MatchAsset(regexp.MustCompile(`DSR\.Gadget(\.[0-9]+)+\.zip`))

		require.NoError(t, err)
		assert.Equal(t, "DSR.Gadget.1.6.1.zip", asset.Name)
	})

	t.Run("requires_full_name_match", func(t *testing.T) {
		t.Parallel()

		_, err := rel.MatchAsset(regexp.MustCompile(`DSR`))

		require.Error(t, err)
		assert.ErrorIs(t, err, ErrAssetNotFound)
	})

	t.Run("returns_ErrAssetNotFound_for_no_match", func(t *testing.T) {
		t.Parallel()

		_, err := rel.MatchAsset(regexp.MustCompile(`Peacock-v[^-]+\.zip`))

		require.Error(t, err)
		assert.ErrorIs(t, err, ErrAssetNotFound)
	})

	t.Run("rejects_ambiguous_pattern", func(t *testing.T) {
		t.Parallel()

		_, err := rel.MatchAsset(regexp.MustCompile(`.*\.zip`))

		require.Error(t, err)
		assert.Contains(t, err.Error(), "multiple assets")
	})
}

func TestClientDownload(t *testing.T) {
	t.Parallel()

	t.Run("writes_asset_to_filesystem", func(t *testing.T) {
		t.Parallel()

		payload := []byte("binary payload")
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write(payload)
		}))
		defer server.Close()

		fs := afero.NewMemMapFs()
		client := NewClient(server.Client(), fs, DefaultBaseURL, io.Discard)
		asset := Asset{
			Name:               "tool.exe",
			BrowserDownloadURL: server.URL + "/tool.exe",
			Size:               int64(len(payload)),
		}

		err := client.Download(context.Background(), asset, "/cache/tool.exe")

		require.NoError(t, err)
		data, err := afero.ReadFile(fs, "/cache/tool.exe")
		require.NoError(t, err)
		assert.Equal(t, payload, data)
	})

	t.Run("errors_on_http_failure", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		client := NewClient(server.Client(), afero.NewMemMapFs(), DefaultBaseURL, io.Discard)
		asset := Asset{Name: "tool.exe", BrowserDownloadURL: server.URL + "/tool.exe"}

		err := client.Download(context.Background(), asset, "/cache/tool.exe")

		require.Error(t, err)
	})
}
