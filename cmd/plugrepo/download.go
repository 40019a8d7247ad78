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
	"fmt"
	"io"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"
)

const downloadDesc = `
Download a plugin archive from the repository.

Exactly one of --version or --build must be given: --version fetches that
plugin version, --build fetches the newest version compatible with the
IDE build. The output may be a file path or a directory; for a directory
the file name comes from the server response.

    $ plugrepo download org.example.demo --version 1.4.0 -o /tmp/plugins
    $ plugrepo download org.example.demo --build IC-233.11799 -o demo.zip
`

type downloadOptions struct {
	version   string
	build     string
	channel   string
	output    string
	rateLimit int
}

func newDownloadCmd(out io.Writer) *cobra.Command {
	o := &downloadOptions{}

	cmd := &cobra.Command{
		Use:   "download [plugin-id]",
		Short: "download a plugin archive",
		Long:  downloadDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if (o.version == "") == (o.build == "") {
				return errors.New("exactly one of --version or --build is required")
			}

			ref, err := resolveRepository()
			if err != nil {
				return err
			}

			c := newClient(ref)
			c.Downloader.Progress = func(fraction float64) {
				fmt.Fprintf(out, "\rDownloading %s... %3.0f%%", args[0], fraction*100)
			}
			if o.rateLimit > 0 {
				c.Downloader.Limiter = rate.NewLimiter(rate.Limit(o.rateLimit), o.rateLimit)
			}

			var saved string
			if o.version != "" {
				saved, err = c.Download(cmd.Context(), args[0], o.version, o.channel, o.output)
			} else {
				saved, err = c.DownloadCompatible(cmd.Context(), args[0], o.build, o.channel, o.output)
			}
			if err != nil {
				fmt.Fprintln(out)
				return err
			}
			fmt.Fprintf(out, "\nSaved %s\n", saved)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&o.version, "version", "", "plugin version to download")
	f.StringVar(&o.build, "build", "", "IDE build to download a compatible version for")
	f.StringVar(&o.channel, "channel", "", "release channel")
	f.StringVarP(&o.output, "output", "o", ".", "destination file or directory")
	f.IntVar(&o.rateLimit, "rate-limit", 0, "download rate limit in bytes per second")

	return cmd
}
