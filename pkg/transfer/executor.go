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
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

// DefaultPollInterval bounds how long a canceled Execute call may take to
// observe the cancellation signal.
const DefaultPollInterval = 100 * time.Millisecond

// Outcome is the classified result of one successful network call. The
// consumer owns Body and must exhaust or close it.
type Outcome struct {
	Status        int
	Header        http.Header
	Body          io.ReadCloser
	ContentLength int64
	// URL is the request URL the outcome was obtained from. It is kept for
	// file name resolution when the destination is a directory.
	URL *url.URL
}

// Close releases the response body without reading it.
func (o *Outcome) Close() error {
	if o.Body == nil {
		return nil
	}
	return o.Body.Close()
}

// Executor runs one HTTP call per Execute invocation. The network I/O runs
// on its own goroutine while the calling goroutine waits for completion,
// the caller's context, or the optional Interrupt hook.
type Executor struct {
	// Client is the HTTP client used for requests. When nil,
	// http.DefaultClient is used. Retry, pooling and TLS behavior belong to
	// the client, not to the executor.
	Client *http.Client

	// PollInterval is how often the Interrupt hook is consulted while a
	// call is in flight. Zero means DefaultPollInterval.
	PollInterval time.Duration

	// Interrupt, when non-nil, is polled while waiting for completion.
	// Returning true cancels the in-flight call. This serves callers whose
	// cancellation signal is not a context.
	Interrupt func() bool

	logger *slog.Logger
}

// SetLogger sets a new slog.Handler on the executor.
func (e *Executor) SetLogger(handler slog.Handler) {
	e.logger = slog.New(handler)
}

// Logger returns the configured logger, or the default one.
func (e *Executor) Logger() *slog.Logger {
	if e.logger == nil {
		return slog.Default()
	}
	return e.logger
}

type callResult struct {
	resp *http.Response
	err  error
}

// Execute performs req and blocks until the call completes or is canceled.
//
// Completion is delivered exactly once over a buffered channel, so the I/O
// goroutine never blocks and never outlives process interest in it. When
// cancellation wins the race the in-flight request is canceled and
// ErrInterrupted is returned; a response arriving later is drained and
// discarded, never reported.
//
// Outcomes are classified per the repository protocol: 404 yields
// *NotFoundError, 500 and 503 yield *ServerError, any other non-2xx status
// yields *ResponseError, and a transport failure yields *RequestError. A
// 2xx response is returned as an Outcome with its body unread.
func (e *Executor) Execute(ctx context.Context, req *http.Request) (*Outcome, error) {
	if ctx.Err() != nil {
		return nil, ErrInterrupted
	}

	client := e.Client
	if client == nil {
		client = http.DefaultClient
	}

	// The call context is detached from the caller's on purpose: the
	// executor owns cancellation of the wire call, so that an interrupted
	// Execute reports ErrInterrupted rather than a wrapped context error.
	callCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan callResult, 1)
	go func() {
		resp, err := client.Do(req.WithContext(callCtx))
		done <- callResult{resp: resp, err: err}
	}()

	poll := e.PollInterval
	if poll <= 0 {
		poll = DefaultPollInterval
	}
	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	for {
		select {
		case r := <-done:
			if r.err != nil {
				return nil, &RequestError{URL: req.URL.String(), Err: r.err}
			}
			return e.classify(r.resp, req.URL)
		case <-ctx.Done():
			e.abort(cancel, done, req.URL)
			return nil, ErrInterrupted
		case <-ticker.C:
			if e.Interrupt != nil && e.Interrupt() {
				e.abort(cancel, done, req.URL)
				return nil, ErrInterrupted
			}
		}
	}
}

// abort cancels the in-flight call and leaves a goroutine behind to drain
// the completion channel, closing the response body if the network call
// finished after cancellation was requested.
func (e *Executor) abort(cancel context.CancelFunc, done chan callResult, u *url.URL) {
	e.Logger().Debug("canceling in-flight request", slog.String("url", u.Redacted()))
	cancel()
	go func() {
		if r := <-done; r.resp != nil {
			r.resp.Body.Close()
		}
	}()
}

// classify maps a completed HTTP response onto the transfer error taxonomy.
// It depends only on the status code and the availability of an error body.
func (e *Executor) classify(resp *http.Response, u *url.URL) (*Outcome, error) {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return &Outcome{
			Status:        resp.StatusCode,
			Header:        resp.Header,
			Body:          resp.Body,
			ContentLength: resp.ContentLength,
			URL:           u,
		}, nil
	}

	defer resp.Body.Close()
	e.Logger().Debug("request rejected",
		slog.String("url", u.Redacted()),
		slog.Int("status", resp.StatusCode))

	switch resp.StatusCode {
	case http.StatusNotFound:
		return nil, &NotFoundError{Host: u.Host}
	case http.StatusInternalServerError, http.StatusServiceUnavailable:
		return nil, &ServerError{Status: resp.StatusCode}
	}

	msg := reasonPhrase(resp.Status, resp.StatusCode)
	if msg == "" {
		msg = bodyMessage(resp.Body)
	}
	return nil, &ResponseError{Status: resp.StatusCode, Message: msg}
}
