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

package main

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/plugrepo/plugrepo/pkg/client"
	"github.com/plugrepo/plugrepo/pkg/repo"
)

const rootDesc = `
The plugin repository client.

Common actions:

- plugrepo list:     list plugin versions available for an IDE build
- plugrepo download: download a plugin archive
- plugrepo upload:   upload a new plugin archive

Repositories can be addressed directly with --repo-url, or by name with
--repo after being configured in the repositories file.
`

// envSettings describes all of the CLI environment settings.
type envSettings struct {
	repoURL    string
	repoName   string
	configFile string
	debug      bool
}

var settings envSettings

func newRootCmd(out io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "plugrepo",
		Short:        "a client for remote plugin repositories",
		Long:         rootDesc,
		SilenceUsage: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			if settings.debug {
				logrus.SetLevel(logrus.DebugLevel)
			}
		},
	}

	p := cmd.PersistentFlags()
	p.StringVar(&settings.repoURL, "repo-url", "", "repository base URL")
	p.StringVar(&settings.repoName, "repo", "", "name of a repository from the repositories file")
	p.StringVar(&settings.configFile, "config", defaultConfigFile(), "path to the repositories file")
	p.BoolVar(&settings.debug, "debug", false, "enable verbose output")

	cmd.AddCommand(
		newListCmd(out),
		newDownloadCmd(out),
		newUploadCmd(out),
		newVersionCmd(out),
	)
	return cmd
}

func defaultConfigFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "repositories.yaml"
	}
	return filepath.Join(home, ".plugrepo", "repositories.yaml")
}

// resolveRepository picks the repository addressed by the global flags.
func resolveRepository() (*repo.Reference, error) {
	if settings.repoURL != "" {
		return &repo.Reference{URL: settings.repoURL}, nil
	}
	if settings.repoName == "" {
		return nil, errors.New("no repository selected: use --repo-url or --repo")
	}
	f, err := repo.LoadFile(settings.configFile)
	if err != nil {
		return nil, err
	}
	ref := f.Get(settings.repoName)
	if ref == nil {
		return nil, errors.Errorf("repository %q not found in %s", settings.repoName, settings.configFile)
	}
	return ref, nil
}

// newClient builds a repository client for ref, wiring debug logging into
// the transfer layer when requested.
func newClient(ref *repo.Reference) *client.Client {
	c := client.New(ref.URL)
	if settings.debug {
		handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})
		c.Executor.SetLogger(handler)
		c.Downloader.SetLogger(handler)
	}
	return c
}
