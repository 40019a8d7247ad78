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
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/plugrepo/plugrepo/pkg/uploader"
)

const uploadDesc = `
Upload a plugin archive to the repository.

Credentials come from the selected repository entry or from the flags.
A bearer token and a username/password pair are mutually exclusive. When
--username is given without --password, the password is prompted for.

    $ plugrepo upload demo-1.4.0.zip --xml-id org.example.demo --token $TOKEN
`

type uploadOptions struct {
	pluginID string
	xmlID    string
	channel  string
	token    string
	username string
	password string
}

func newUploadCmd(out io.Writer) *cobra.Command {
	o := &uploadOptions{}

	cmd := &cobra.Command{
		Use:   "upload [archive]",
		Short: "upload a plugin archive",
		Long:  uploadDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := resolveRepository()
			if err != nil {
				return err
			}

			req := uploader.Request{
				PluginID:    o.pluginID,
				XMLID:       o.xmlID,
				Channel:     o.channel,
				ArchivePath: args[0],
				Token:       o.token,
				Username:    o.username,
				Password:    o.password,
			}
			if req.Token == "" && req.Username == "" {
				req.Token = ref.Token
				req.Username = ref.Username
				req.Password = ref.Password
			}
			if req.Username != "" && req.Password == "" {
				req.Password, err = promptPassword(out)
				if err != nil {
					return err
				}
			}

			c := newClient(ref)
			c.Uploader.Out = out
			return c.Upload(cmd.Context(), req)
		},
	}

	f := cmd.Flags()
	f.StringVar(&o.pluginID, "plugin-id", "", "repository-assigned plugin id")
	f.StringVar(&o.xmlID, "xml-id", "", "plugin id from the plugin descriptor")
	f.StringVar(&o.channel, "channel", "", "release channel to publish to")
	f.StringVar(&o.token, "token", "", "bearer token")
	f.StringVar(&o.username, "username", "", "repository username")
	f.StringVar(&o.password, "password", "", "repository password")

	return cmd
}

func promptPassword(out io.Writer) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("no password given and stdin is not a terminal")
	}
	fmt.Fprint(out, "Password: ")
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(out)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
