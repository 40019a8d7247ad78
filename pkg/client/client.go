/*
Copyright The Plugrepo Authors.
Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package client is the high level entry point for talking to a plugin
// repository: listing available plugin versions, downloading archives and
// uploading new ones.
package client

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/plugrepo/plugrepo/internal/version"
	"github.com/plugrepo/plugrepo/pkg/downloader"
	"github.com/plugrepo/plugrepo/pkg/repo"
	"github.com/plugrepo/plugrepo/pkg/transfer"
	"github.com/plugrepo/plugrepo/pkg/uploader"
)

const (
	listPath     = "plugins/list/"
	downloadPath = "plugin/download"
	uploadPath   = "plugin/uploadPlugin"
)

// Client talks to one plugin repository service.
type Client struct {
	// BaseURL is the root of the repository service.
	BaseURL string
	// UserAgent overrides the default plugrepo user agent.
	UserAgent string
	// Executor runs every network call.
	Executor *transfer.Executor
	// Downloader saves download bodies to disk.
	Downloader *downloader.Downloader
	// Uploader pushes plugin archives.
	Uploader *uploader.Uploader
}

// New returns a client for the repository at baseURL with default
// executor, downloader and uploader.
func New(baseURL string) *Client {
	executor := &transfer.Executor{}
	return &Client{
		BaseURL:    baseURL,
		Executor:   executor,
		Downloader: &downloader.Downloader{},
		Uploader:   &uploader.Uploader{Executor: executor},
	}
}

// ListPlugins fetches the listing for an IDE build, optionally narrowed to
// a channel and a plugin id, and returns it flattened in server order.
func (c *Client) ListPlugins(ctx context.Context, build, channel, pluginID string) ([]repo.PluginDescriptor, error) {
	query := url.Values{}
	query.Set("build", build)
	if channel != "" {
		query.Set("channel", channel)
	}
	if pluginID != "" {
		query.Set("pluginId", pluginID)
	}

	outcome, err := c.get(ctx, listPath, query)
	if err != nil {
		return nil, err
	}
	defer outcome.Close()

	list, err := repo.ParsePluginList(outcome.Body)
	if err != nil {
		return nil, err
	}
	return list.Flatten(), nil
}

// Download fetches one plugin version and saves it at dest, which may be a
// file path or a directory. It returns the saved file path.
func (c *Client) Download(ctx context.Context, id, pluginVersion, channel, dest string) (string, error) {
	query := url.Values{}
	query.Set("pluginId", id)
	query.Set("version", pluginVersion)
	if channel != "" {
		query.Set("channel", channel)
	}
	return c.download(ctx, query, dest)
}

// DownloadCompatible fetches the newest version of a plugin compatible
// with the given IDE build and saves it at dest.
func (c *Client) DownloadCompatible(ctx context.Context, id, build, channel, dest string) (string, error) {
	query := url.Values{}
	query.Set("pluginId", id)
	query.Set("build", build)
	if channel != "" {
		query.Set("channel", channel)
	}
	return c.download(ctx, query, dest)
}

// Upload pushes a plugin archive with the credentials carried by req.
func (c *Client) Upload(ctx context.Context, req uploader.Request) error {
	return c.Uploader.UploadTo(ctx, c.endpoint(uploadPath, nil), req)
}

func (c *Client) download(ctx context.Context, query url.Values, dest string) (string, error) {
	outcome, err := c.get(ctx, downloadPath, query)
	if err != nil {
		return "", err
	}
	return c.Downloader.DownloadTo(ctx, outcome, dest)
}

func (c *Client) get(ctx context.Context, p string, query url.Values) (*transfer.Outcome, error) {
	req, err := http.NewRequest(http.MethodGet, c.endpoint(p, query), nil)
	if err != nil {
		return nil, err
	}
	ua := c.UserAgent
	if ua == "" {
		ua = version.GetUserAgent()
	}
	req.Header.Set("User-Agent", ua)
	return c.Executor.Execute(ctx, req)
}

func (c *Client) endpoint(p string, query url.Values) string {
	u := strings.TrimSuffix(c.BaseURL, "/") + "/" + p
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}
