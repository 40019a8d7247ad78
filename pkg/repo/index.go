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

package repo

import (
	"encoding/xml"
	"io"

	"github.com/Masterminds/semver/v3"
	"github.com/pkg/errors"
)

// PluginList is the payload of a repository listing: plugins grouped by
// category, in server order.
type PluginList struct {
	XMLName    xml.Name   `xml:"plugin-repository"`
	Categories []Category `xml:"category"`
}

// Category is one named group of plugins in a listing.
type Category struct {
	Name    string         `xml:"name,attr"`
	Plugins []ListedPlugin `xml:"plugin"`
}

// ListedPlugin is one plugin version inside a listing category.
type ListedPlugin struct {
	ID         string   `xml:"id"`
	Name       string   `xml:"name"`
	Version    string   `xml:"version"`
	SinceBuild string   `xml:"since-build,attr"`
	UntilBuild string   `xml:"until-build,attr"`
	Depends    []string `xml:"depends"`
}

// PluginDescriptor is a flat, immutable view of one listed plugin version
// together with the category it was listed under.
type PluginDescriptor struct {
	Name       string
	ID         string
	Version    string
	Category   string
	SinceBuild string
	UntilBuild string
	Depends    []string
}

// ParsePluginList decodes a listing body.
func ParsePluginList(r io.Reader) (*PluginList, error) {
	list := &PluginList{}
	if err := xml.NewDecoder(r).Decode(list); err != nil {
		return nil, errors.Wrap(err, "could not parse plugin listing")
	}
	return list, nil
}

// Flatten turns the nested category structure into a flat descriptor
// slice, preserving category order and then plugin order within each
// category. Empty categories contribute nothing.
func (l *PluginList) Flatten() []PluginDescriptor {
	var out []PluginDescriptor
	for _, c := range l.Categories {
		for _, p := range c.Plugins {
			out = append(out, PluginDescriptor{
				Name:       p.Name,
				ID:         p.ID,
				Version:    p.Version,
				Category:   c.Name,
				SinceBuild: p.SinceBuild,
				UntilBuild: p.UntilBuild,
				Depends:    p.Depends,
			})
		}
	}
	return out
}

// Latest returns the descriptor with the highest semantic version among
// those matching id. Descriptors whose version does not parse as semver
// are skipped.
func Latest(descriptors []PluginDescriptor, id string) (*PluginDescriptor, error) {
	var best *PluginDescriptor
	var bestVersion *semver.Version
	for i := range descriptors {
		d := &descriptors[i]
		if d.ID != id {
			continue
		}
		v, err := semver.NewVersion(d.Version)
		if err != nil {
			continue
		}
		if bestVersion == nil || v.GreaterThan(bestVersion) {
			best, bestVersion = d, v
		}
	}
	if best == nil {
		return nil, errors.Errorf("no version found for plugin %q", id)
	}
	return best, nil
}
