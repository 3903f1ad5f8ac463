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

// Package release fetches release metadata and assets from the GitHub API.
package release

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"regexp"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/afero"
)

// DefaultBaseURL is the public GitHub API endpoint.
const DefaultBaseURL = "https://api.github.com"

// DefaultTimeout bounds a single metadata or asset request.
const DefaultTimeout = 5 * time.Minute

// ErrAssetNotFound is returned when no asset in a release matches the
// requested pattern.
var ErrAssetNotFound = errors.New("asset not found in release")

// Asset is a downloadable file attached to a release.
type Asset struct {
	Name               string `json:"name"`
	BrowserDownloadURL string `json:"browser_download_url"` //nolint:tagliatelle // GitHub API format
	Size               int64  `json:"size"`
}

// Release is the subset of the GitHub release object the launcher needs.
type Release struct {
	TagName string  `json:"tag_name"` //nolint:tagliatelle // GitHub API format
	Assets  []Asset `json:"assets"`
}

// MatchAsset returns the single asset whose name fully matches pattern.
// Zero matches is ErrAssetNotFound; multiple matches mean the pattern is
// ambiguous and is reported as an error rather than picking one.
func (r *Release) MatchAsset(pattern *regexp.Regexp) (Asset, error) {
	var matched []Asset
	for _, asset := range r.Assets {
		if fullMatch(pattern, asset.Name) {
			matched = append(matched, asset)
		}
	}
	switch len(matched) {
	case 0:
		return Asset{}, fmt.Errorf("pattern %q: %w", pattern, ErrAssetNotFound)
	case 1:
		return matched[0], nil
	default:
		return Asset{}, fmt.Errorf("pattern %q matches multiple assets in release %s", pattern, r.TagName)
	}
}

// fullMatch reports whether the pattern matches the entire string, not
// just a substring.
func fullMatch(re *regexp.Regexp, s string) bool {
	loc := re.FindStringIndex(s)
	return loc != nil && loc[0] == 0 && loc[1] == len(s)
}

// Client fetches release metadata and assets. The HTTP client and
// filesystem are injected so tests can run against httptest servers and an
// in-memory filesystem.
type Client struct {
	httpClient *http.Client
	fs         afero.Fs
	baseURL    string
	progress   io.Writer
}

// NewClient creates a release client. progress receives the download
// progress bar; pass io.Discard to silence it.
func NewClient(httpClient *http.Client, fs afero.Fs, baseURL string, progress io.Writer) *Client {
	return &Client{
		httpClient: httpClient,
		fs:         fs,
		baseURL:    baseURL,
		progress:   progress,
	}
}

// Get fetches a release by tag, or the latest release when tag is empty.
func (c *Client) Get(ctx context.Context, owner, repo, tag string) (*Release, error) {
	endpoint := "latest"
	if tag != "" {
		endpoint = "tags/" + tag
	}
	url := fmt.Sprintf("%s/repos/%s/%s/releases/%s", c.baseURL, owner, repo, endpoint)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch release metadata: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("error closing response body")
		}
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read release metadata: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		preview := string(body)
		if len(preview) > 200 {
			preview = preview[:200] + "..."
		}
		if resp.StatusCode == http.StatusForbidden {
			return nil, fmt.Errorf("GitHub API returned %d (forbidden, probably rate limited): %s",
				resp.StatusCode, preview)
		}
		return nil, fmt.Errorf("GitHub API returned %d: %s", resp.StatusCode, preview)
	}

	var rel Release
	if err := json.Unmarshal(body, &rel); err != nil {
		return nil, fmt.Errorf("failed to unmarshal release metadata: %w", err)
	}
	return &rel, nil
}

// Download streams an asset to dest, creating parent directories as needed.
func (c *Client) Download(ctx context.Context, asset Asset, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, asset.BrowserDownloadURL, http.NoBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to download %s: %w", asset.Name, err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("error closing response body")
		}
	}()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download of %s returned %d", asset.Name, resp.StatusCode)
	}

	if err := c.fs.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", dest, err)
	}
	f, err := c.fs.Create(dest)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dest, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("error closing downloaded file")
		}
	}()

	bar := progressbar.NewOptions64(asset.Size,
		progressbar.OptionSetDescription(asset.Name),
		progressbar.OptionSetWriter(c.progress),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionShowBytes(true),
		progressbar.OptionClearOnFinish(),
	)
	if _, err := io.Copy(io.MultiWriter(f, bar), resp.Body); err != nil {
		return fmt.Errorf("failed to write %s: %w", dest, err)
	}

	log.Debug().Str("asset", asset.Name).Str("dest", dest).Msg("downloaded release asset")
	return nil
}
