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
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"
)

// maxBodyMessage is the number of error-body bytes preserved in a
// ResponseError when the server sends no reason phrase.
const maxBodyMessage = 100

// ErrInterrupted is returned when a transfer is canceled before the server
// response arrives, or while the body is being copied.
var ErrInterrupted = errors.New("transfer interrupted")

// Sentinels distinguishing the two server-side failure kinds. A
// *ServerError unwraps to one of these, so callers can branch with
// errors.Is without inspecting the status code.
var (
	ErrServerInternal    = errors.New("internal server error (500)")
	ErrServerUnavailable = errors.New("server unavailable (503)")
)

// NotFoundError indicates the repository answered 404 for the requested
// plugin or endpoint.
type NotFoundError struct {
	// Host is the host:port the request was sent to.
	Host string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("not found (404) at %s", e.Host)
}

// ServerError indicates the repository reported a server-side failure:
// 500 (internal error) or 503 (unavailable).
type ServerError struct {
	Status int
}

func (e *ServerError) Error() string {
	return e.Unwrap().Error()
}

func (e *ServerError) Unwrap() error {
	if e.Status == 503 {
		return ErrServerUnavailable
	}
	return ErrServerInternal
}

// ResponseError carries any other non-2xx response. Message is the HTTP
// reason phrase when the server sent one, otherwise a truncated prefix of
// the error body.
type ResponseError struct {
	Status  int
	Message string
}

func (e *ResponseError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("unsuccessful response (%d)", e.Status)
	}
	return fmt.Sprintf("unsuccessful response (%d): %s", e.Status, e.Message)
}

// RequestError wraps a transport-level failure where no response was
// obtained at all (connection refused, DNS failure, timeout).
type RequestError struct {
	URL string
	Err error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("request to %s failed: %v", e.URL, e.Err)
}

func (e *RequestError) Unwrap() error { return e.Err }

// reasonPhrase extracts the reason phrase from an HTTP status line such as
// "404 Not Found". It returns "" when the server sent only the code.
func reasonPhrase(status string, code int) string {
	phrase := strings.TrimPrefix(status, strconv.Itoa(code))
	return strings.TrimSpace(phrase)
}

// bodyMessage reads at most maxBodyMessage bytes of an error body for use
// as a diagnostic message. Read failures yield an empty message rather
// than masking the HTTP error itself.
func bodyMessage(r io.Reader) string {
	if r == nil {
		return ""
	}
	buf := make([]byte, maxBodyMessage)
	n, _ := io.ReadFull(r, buf)
	msg := buf[:n]
	if n == maxBodyMessage {
		// The cut can land inside a multi-byte rune; drop the partial
		// tail so the message stays valid UTF-8.
		for i := 0; i < utf8.UTFMax-1 && len(msg) > 0; i++ {
			if r, _ := utf8.DecodeLastRune(msg); r != utf8.RuneError {
				break
			}
			msg = msg[:len(msg)-1]
		}
	}
	return string(msg)
}
