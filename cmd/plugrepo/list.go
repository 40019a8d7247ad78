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

	"github.com/gobwas/glob"
	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/plugrepo/plugrepo/pkg/repo"
)

const listDesc = `
List the plugin versions a repository offers for an IDE build.

An optional argument is a glob pattern matched against plugin ids:

    $ plugrepo list --build IC-233.11799 'org.example.*'
`

type listOptions struct {
	build   string
	channel string
	plugin  string
}

func newListCmd(out io.Writer) *cobra.Command {
	o := &listOptions{}

	cmd := &cobra.Command{
		Use:   "list [filter]",
		Short: "list plugins available for an IDE build",
		Long:  listDesc,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := resolveRepository()
			if err != nil {
				return err
			}

			descriptors, err := newClient(ref).ListPlugins(cmd.Context(), o.build, o.channel, o.plugin)
			if err != nil {
				return err
			}

			if len(args) == 1 {
				g, err := glob.Compile(args[0])
				if err != nil {
					return err
				}
				filtered := descriptors[:0]
				for _, d := range descriptors {
					if g.Match(d.ID) {
						filtered = append(filtered, d)
					}
				}
				descriptors = filtered
			}

			fmt.Fprintln(out, formatPluginList(descriptors))
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&o.build, "build", "", "IDE build to list plugins for")
	f.StringVar(&o.channel, "channel", "", "release channel")
	f.StringVar(&o.plugin, "plugin", "", "restrict the listing to one plugin id")
	cmd.MarkFlagRequired("build")

	return cmd
}

func formatPluginList(descriptors []repo.PluginDescriptor) string {
	table := uitable.New()
	table.AddRow("ID", "NAME", "VERSION", "CATEGORY", "SINCE", "UNTIL")
	for _, d := range descriptors {
		table.AddRow(d.ID, d.Name, d.Version, d.Category, d.SinceBuild, d.UntilBuild)
	}
	return table.String()
}
