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

package uploader

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/plugrepo/plugrepo/pkg/transfer"
)

// UploadError wraps any failure during an upload with the plugin identity
// for context.
type UploadError struct {
	Plugin string
	Err    error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("failed to upload plugin %s: %v", e.Plugin, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }

// Request describes one plugin archive upload.
type Request struct {
	// PluginID is the repository-assigned identifier. Either PluginID or
	// XMLID must be set.
	PluginID string
	// XMLID is the identifier from the plugin's own descriptor.
	XMLID string
	// Channel is the optional release channel to publish to.
	Channel string
	// ArchivePath is the plugin archive to read. Exactly one regular file.
	ArchivePath string

	// Token is a bearer token. Mutually exclusive with Username/Password;
	// one of the two modes is required.
	Token    string
	Username string
	Password string
}

// Validate reports every problem with the request at once.
func (r *Request) Validate() error {
	var result *multierror.Error
	if r.PluginID == "" && r.XMLID == "" {
		result = multierror.Append(result, errors.New("either a plugin id or an xml id is required"))
	}
	if r.ArchivePath == "" {
		result = multierror.Append(result, errors.New("an archive file is required"))
	}
	hasToken := r.Token != ""
	hasBasic := r.Username != "" || r.Password != ""
	if hasToken && hasBasic {
		result = multierror.Append(result, errors.New("token and username/password are mutually exclusive"))
	}
	if !hasToken && !hasBasic {
		result = multierror.Append(result, errors.New("credentials are required: a token or a username/password pair"))
	}
	return result.ErrorOrNil()
}

func (r *Request) plugin() string {
	if r.PluginID != "" {
		return r.PluginID
	}
	return r.XMLID
}

// Uploader handles uploading a plugin archive.
type Uploader struct {
	// Out is the location to write warning and info messages.
	Out io.Writer
	// Executor runs the upload request. When nil a zero-value executor is
	// used.
	Executor *transfer.Executor
}

// UploadTo streams the archive to the given endpoint as one multipart
// request carrying the credentials and plugin identity. Every failure is
// wrapped in an *UploadError.
func (u *Uploader) UploadTo(ctx context.Context, endpoint string, req Request) error {
	if err := u.upload(ctx, endpoint, req); err != nil {
		return &UploadError{Plugin: req.plugin(), Err: err}
	}
	if u.Out != nil {
		fmt.Fprintf(u.Out, "Uploaded %s\n", req.plugin())
	}
	return nil
}

func (u *Uploader) upload(ctx context.Context, endpoint string, req Request) error {
	if err := req.Validate(); err != nil {
		return err
	}

	archive, err := os.Open(req.ArchivePath)
	if err != nil {
		return errors.Wrap(err, "could not open archive")
	}

	pr, pw := io.Pipe()
	form := multipart.NewWriter(pw)
	go func() {
		defer archive.Close()
		pw.CloseWithError(writeForm(form, req, archive))
	}()

	httpReq, err := http.NewRequest(http.MethodPost, endpoint, pr)
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", form.FormDataContentType())
	if req.Token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.Token)
	} else {
		httpReq.SetBasicAuth(req.Username, req.Password)
	}

	executor := u.Executor
	if executor == nil {
		executor = &transfer.Executor{}
	}
	outcome, err := executor.Execute(ctx, httpReq)
	if err != nil {
		return err
	}
	return outcome.Close()
}

// writeForm emits the multipart fields: the plugin identity, the optional
// channel, and the archive bytes.
func writeForm(form *multipart.Writer, req Request, archive io.Reader) error {
	if req.PluginID != "" {
		if err := form.WriteField("pluginId", req.PluginID); err != nil {
			return err
		}
	} else if err := form.WriteField("xmlId", req.XMLID); err != nil {
		return err
	}
	if req.Channel != "" {
		if err := form.WriteField("channel", req.Channel); err != nil {
			return err
		}
	}
	part, err := form.CreateFormFile("file", filepath.Base(req.ArchivePath))
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, archive); err != nil {
		return err
	}
	return form.Close()
}
