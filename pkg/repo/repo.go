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

package repo // import "github.com/plugrepo/plugrepo/pkg/repo"

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"sigs.k8s.io/yaml"
)

// APIVersionV1 is the v1 API version for the repositories file.
const APIVersionV1 = "v1"

// File represents the repositories.yaml file
type File struct {
	APIVersion   string       `json:"apiVersion"`
	Generated    time.Time    `json:"generated"`
	Repositories []*Reference `json:"repositories"`
}

// Reference is one configured plugin repository: where it lives and how to
// authenticate against it. Token and Username/Password are mutually
// exclusive; which one is required depends on the operation.
type Reference struct {
	Name     string `json:"name"`
	URL      string `json:"url"`
	Token    string `json:"token,omitempty"`
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
}

// NewFile generates an empty repositories file.
//
// Generated and APIVersion are automatically set.
func NewFile() *File {
	return &File{
		APIVersion:   APIVersionV1,
		Generated:    time.Now(),
		Repositories: []*Reference{},
	}
}

// LoadFile takes a file at the given path and returns a File object
func LoadFile(path string) (*File, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Errorf("couldn't load repositories file (%s)", path)
		}
		return nil, err
	}

	r := &File{}
	if err := yaml.Unmarshal(b, r); err != nil {
		return nil, err
	}
	return r, nil
}

// Add adds one or more repository references to the file.
func (f *File) Add(re ...*Reference) {
	f.Repositories = append(f.Repositories, re...)
}

// Update replaces a reference with the same name, or adds it.
func (f *File) Update(re ...*Reference) {
	for _, target := range re {
		found := false
		for j, r := range f.Repositories {
			if r.Name == target.Name {
				f.Repositories[j] = target
				found = true
				break
			}
		}
		if !found {
			f.Add(target)
		}
	}
}

// Has returns true if the given name is already a repository name.
func (f *File) Has(name string) bool {
	return f.Get(name) != nil
}

// Get returns the reference with the given name, or nil.
func (f *File) Get(name string) *Reference {
	for _, r := range f.Repositories {
		if r.Name == name {
			return r
		}
	}
	return nil
}

// Remove removes the reference with the given name, reporting whether it
// was present.
func (f *File) Remove(name string) bool {
	for i, r := range f.Repositories {
		if r.Name == name {
			f.Repositories = append(f.Repositories[:i], f.Repositories[i+1:]...)
			return true
		}
	}
	return false
}

// WriteFile writes a repositories file to the given path.
func (f *File) WriteFile(path string, perm os.FileMode) error {
	data, err := yaml.Marshal(f)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, perm)
}
