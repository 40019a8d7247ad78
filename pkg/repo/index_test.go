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
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const listingXML = `<?xml version="1.0" encoding="UTF-8"?>
<plugin-repository>
  <category name="Misc">
    <plugin since-build="233.0" until-build="241.*">
      <id>org.example.demo</id>
      <name>Demo</name>
      <version>1.4.0</version>
      <depends>com.example.platform</depends>
      <depends>com.example.lang</depends>
    </plugin>
    <plugin>
      <id>org.example.other</id>
      <name>Other</name>
      <version>0.2.1</version>
    </plugin>
  </category>
  <category name="Languages">
    <plugin>
      <id>org.example.lang</id>
      <name>Lang</name>
      <version>2.0.0</version>
    </plugin>
  </category>
</plugin-repository>`

func TestParsePluginList(t *testing.T) {
	list, err := ParsePluginList(strings.NewReader(listingXML))
	require.NoError(t, err)

	require.Len(t, list.Categories, 2)
	assert.Equal(t, "Misc", list.Categories[0].Name)
	require.Len(t, list.Categories[0].Plugins, 2)

	p := list.Categories[0].Plugins[0]
	assert.Equal(t, "org.example.demo", p.ID)
	assert.Equal(t, "Demo", p.Name)
	assert.Equal(t, "1.4.0", p.Version)
	assert.Equal(t, "233.0", p.SinceBuild)
	assert.Equal(t, "241.*", p.UntilBuild)
	assert.Equal(t, []string{"com.example.platform", "com.example.lang"}, p.Depends)
}

func TestParsePluginListRejectsGarbage(t *testing.T) {
	_, err := ParsePluginList(strings.NewReader("not xml at all"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "could not parse plugin listing")
}

func TestFlattenPreservesOrder(t *testing.T) {
	list, err := ParsePluginList(strings.NewReader(listingXML))
	require.NoError(t, err)

	flat := list.Flatten()
	require.Len(t, flat, 3)
	assert.Equal(t, "org.example.demo", flat[0].ID)
	assert.Equal(t, "org.example.other", flat[1].ID)
	assert.Equal(t, "org.example.lang", flat[2].ID)
	assert.Equal(t, "Misc", flat[0].Category)
	assert.Equal(t, "Misc", flat[1].Category)
	assert.Equal(t, "Languages", flat[2].Category)
}

func TestFlattenEmptyCategory(t *testing.T) {
	list := &PluginList{Categories: []Category{
		{Name: "misc", Plugins: []ListedPlugin{{ID: "p1", Name: "P1", Version: "1.0.0"}}},
		{Name: "lang"},
	}}

	flat := list.Flatten()
	require.Len(t, flat, 1)
	assert.Equal(t, "p1", flat[0].ID)
	assert.Equal(t, "misc", flat[0].Category)
}

func TestFlattenNoCategories(t *testing.T) {
	assert.Empty(t, (&PluginList{}).Flatten())
}

func TestLatest(t *testing.T) {
	descriptors := []PluginDescriptor{
		{ID: "org.example.demo", Version: "1.9.0"},
		{ID: "org.example.demo", Version: "1.10.0"},
		{ID: "org.example.demo", Version: "not-a-version"},
		{ID: "org.example.other", Version: "9.0.0"},
	}

	best, err := Latest(descriptors, "org.example.demo")
	require.NoError(t, err)
	assert.Equal(t, "1.10.0", best.Version)

	_, err = Latest(descriptors, "org.example.absent")
	assert.Error(t, err)
}
