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

package transfer

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestReasonPhrase(t *testing.T) {
	tests := []struct {
		status string
		code   int
		want   string
	}{
		{"404 Not Found", 404, "Not Found"},
		{"418 I'm a teapot", 418, "I'm a teapot"},
		{"400", 400, ""},
		{"400 ", 400, ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, reasonPhrase(tt.status, tt.code), "status line %q", tt.status)
	}
}

func TestBodyMessage(t *testing.T) {
	assert.Equal(t, "short body", bodyMessage(strings.NewReader("short body")))
	assert.Equal(t, strings.Repeat("y", 100), bodyMessage(strings.NewReader(strings.Repeat("y", 250))))
	assert.Equal(t, "", bodyMessage(nil))
	assert.Equal(t, "", bodyMessage(strings.NewReader("")))
}

func TestBodyMessageRuneBoundary(t *testing.T) {
	// The 100-byte cut lands in the middle of the two-byte "é"; the
	// partial rune must be dropped, not kept as invalid UTF-8.
	cut := strings.Repeat("y", 99) + "était"
	got := bodyMessage(strings.NewReader(cut))
	assert.Equal(t, strings.Repeat("y", 99), got)
	assert.True(t, utf8.ValidString(got))

	// A multi-byte rune ending exactly at the cut is kept whole.
	exact := strings.Repeat("y", 98) + "était"
	assert.Equal(t, strings.Repeat("y", 98)+"é", bodyMessage(strings.NewReader(exact)))
}

func TestErrorMessages(t *testing.T) {
	assert.Contains(t, (&NotFoundError{Host: "repo.example:443"}).Error(), "repo.example:443")
	assert.Contains(t, (&ServerError{Status: 500}).Error(), "500")
	assert.Contains(t, (&ServerError{Status: 503}).Error(), "503")
	assert.Contains(t, (&ResponseError{Status: 402, Message: "Payment Required"}).Error(), "Payment Required")
	assert.Contains(t, (&ResponseError{Status: 402}).Error(), "402")
}
