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

package downloader

import (
	"fmt"
	"mime"
	"path"
	"strings"

	"github.com/plugrepo/plugrepo/pkg/transfer"
)

const filenameMarker = "filename="

// extByContentType maps archive content types served by plugin
// repositories to a fallback file name.
var extByContentType = map[string]string{
	"application/java-archive":   "jar",
	"application/x-java-archive": "jar",
	"application/zip":            "zip",
}

// InvalidFilenameError indicates the server supplied a file name that
// cannot be trusted: it contains a path separator, or joining it to the
// target directory would escape that directory.
type InvalidFilenameError struct {
	Name string
}

func (e *InvalidFilenameError) Error() string {
	return fmt.Sprintf("invalid file name from server: %q", e.Name)
}

// ErrNoFilename is returned when neither the response headers nor the
// request URL provide a usable destination file name.
var ErrNoFilename = fmt.Errorf("server response provides no file name")

// ResolveFileName derives a destination file name for a download whose
// target is a directory. Resolution order, first match wins:
//
//  1. the Content-Disposition filename parameter,
//  2. a known archive content type ("jar" or "zip"),
//  3. the last path segment of the request URL.
//
// A name containing a path separator is rejected as malicious server
// input. When nothing matches, ErrNoFilename is returned; a download into
// a directory cannot proceed without a name.
func ResolveFileName(o *transfer.Outcome) (string, error) {
	if name := dispositionFilename(o.Header.Get("Content-Disposition")); name != "" {
		if strings.ContainsAny(name, `/\`) {
			return "", &InvalidFilenameError{Name: name}
		}
		return name, nil
	}

	ct := o.Header.Get("Content-Type")
	if mt, _, err := mime.ParseMediaType(ct); err == nil {
		if ext, ok := extByContentType[mt]; ok {
			return ext, nil
		}
	}

	if o.URL != nil {
		if name := path.Base(o.URL.Path); name != "" && name != "." && name != "/" {
			return name, nil
		}
	}

	return "", ErrNoFilename
}

// dispositionFilename extracts the filename parameter of a
// Content-Disposition style header: the substring after "filename=" up to
// the next ';', with surrounding quotes stripped.
func dispositionFilename(disposition string) string {
	idx := strings.Index(disposition, filenameMarker)
	if idx < 0 {
		return ""
	}
	name := disposition[idx+len(filenameMarker):]
	if semi := strings.Index(name, ";"); semi >= 0 {
		name = name[:semi]
	}
	name = strings.TrimSpace(name)
	return strings.Trim(name, `"`)
}
