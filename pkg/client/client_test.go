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

package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plugrepo/plugrepo/pkg/transfer"
)

const listingXML = `<plugin-repository>
  <category name="Misc">
    <plugin>
      <id>org.example.demo</id>
      <name>Demo</name>
      <version>1.4.0</version>
    </plugin>
  </category>
</plugin-repository>`

func repoServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/plugins/list/", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "IC-233.11799", r.URL.Query().Get("build"))
		w.Header().Set("Content-Type", "text/xml")
		w.Write([]byte(listingXML))
	})
	mux.HandleFunc("/plugin/download", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("pluginId") == "" {
			http.Error(w, "missing pluginId", http.StatusBadRequest)
			return
		}
		if q.Get("version") == "" && q.Get("build") == "" {
			http.Error(w, "missing version or build", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Disposition", `attachment; filename="demo-1.4.0.zip"`)
		w.Header().Set("Content-Type", "application/zip")
		w.Write([]byte("zip-bytes"))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestListPlugins(t *testing.T) {
	srv := repoServer(t)
	c := New(srv.URL)

	descriptors, err := c.ListPlugins(context.Background(), "IC-233.11799", "", "")
	require.NoError(t, err)
	require.Len(t, descriptors, 1)
	assert.Equal(t, "org.example.demo", descriptors[0].ID)
	assert.Equal(t, "Misc", descriptors[0].Category)
}

func TestDownloadToDirectory(t *testing.T) {
	srv := repoServer(t)
	c := New(srv.URL)
	dir := t.TempDir()

	saved, err := c.Download(context.Background(), "org.example.demo", "1.4.0", "", dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "demo-1.4.0.zip"), saved)

	content, err := os.ReadFile(saved)
	require.NoError(t, err)
	assert.Equal(t, "zip-bytes", string(content))
}

func TestDownloadCompatible(t *testing.T) {
	srv := repoServer(t)
	c := New(srv.URL)
	dest := filepath.Join(t.TempDir(), "demo.zip")

	saved, err := c.DownloadCompatible(context.Background(), "org.example.demo", "IC-233.11799", "eap", dest)
	require.NoError(t, err)
	assert.Equal(t, dest, saved)
}

func TestDownloadNotFound(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()
	c := New(srv.URL)

	_, err := c.Download(context.Background(), "org.example.demo", "1.4.0", "", t.TempDir())
	var notFound *transfer.NotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestDownloadInterrupted(t *testing.T) {
	srv := repoServer(t)
	c := New(srv.URL)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Download(ctx, "org.example.demo", "1.4.0", "", t.TempDir())
	assert.True(t, errors.Is(err, transfer.ErrInterrupted))
}
