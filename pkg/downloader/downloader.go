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
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	securejoin "github.com/cyphar/filepath-securejoin"
	"github.com/pkg/errors"
	"golang.org/x/time/rate"

	"github.com/plugrepo/plugrepo/pkg/transfer"
)

// defaultChunkSize is the copy buffer size used when the caller does not
// set one.
const defaultChunkSize = 32 * 1024

// Downloader streams a transfer outcome's body into a file.
//
// The destination may be a concrete file path or a directory; for a
// directory the file name is resolved from the server response. The
// downloader owns the destination path for the duration of one DownloadTo
// call; concurrent downloads to the same path must be serialized by the
// caller.
type Downloader struct {
	// ChunkSize is the copy buffer size in bytes. Zero means a 32 KiB
	// default.
	ChunkSize int

	// Progress, when non-nil, receives a monotone fraction in [0,1]:
	// 0.0 before any bytes move, per-chunk fractions while the expected
	// size is known and positive, and 1.0 once the copy completes.
	Progress func(fraction float64)

	// Limiter, when non-nil, throttles the copy.
	Limiter *rate.Limiter

	logger *slog.Logger
}

// SetLogger sets a new slog.Handler on the downloader.
func (d *Downloader) SetLogger(handler slog.Handler) {
	d.logger = slog.New(handler)
}

// Logger returns the configured logger, or the default one.
func (d *Downloader) Logger() *slog.Logger {
	if d.logger == nil {
		return slog.Default()
	}
	return d.logger
}

// DownloadTo writes the outcome's body to dest and returns the path of the
// saved file.
//
// When dest is a directory the file name is resolved from the response,
// and the resolved path must stay inside dest. An existing file at the
// final path is removed before writing. The body is always closed, on
// every exit path. Cancellation of ctx during the copy surfaces
// transfer.ErrInterrupted; the partial file is left in place for the
// caller to inspect or delete.
func (d *Downloader) DownloadTo(ctx context.Context, o *transfer.Outcome, dest string) (string, error) {
	defer o.Close()

	destfile, err := d.resolveDest(o, dest)
	if err != nil {
		return "", err
	}

	// Remove whatever occupies the destination. A directory here is
	// unexpected but not fatal as long as it can be removed.
	if _, err := os.Lstat(destfile); err == nil {
		if err := os.RemoveAll(destfile); err != nil {
			return "", errors.Wrapf(err, "could not remove existing file at %s", destfile)
		}
	}

	out, err := os.Create(destfile)
	if err != nil {
		return "", errors.Wrapf(err, "could not create %s", destfile)
	}

	err = d.copyBody(ctx, o, out)
	if cerr := out.Close(); cerr != nil && err == nil {
		err = errors.Wrapf(cerr, "could not finish writing %s", destfile)
	}
	if err != nil {
		return "", err
	}

	d.Logger().Debug("saved file", slog.String("path", destfile))
	return destfile, nil
}

// resolveDest turns dest into a concrete file path. For a directory target
// the name comes from the server response and the joined path must remain
// a direct child of the original directory.
func (d *Downloader) resolveDest(o *transfer.Outcome, dest string) (string, error) {
	fi, err := os.Stat(dest)
	if err != nil || !fi.IsDir() {
		return dest, nil
	}

	name, err := ResolveFileName(o)
	if err != nil {
		return "", err
	}

	destfile, err := securejoin.SecureJoin(dest, name)
	if err != nil {
		return "", &InvalidFilenameError{Name: name}
	}
	if filepath.Dir(destfile) != filepath.Clean(dest) {
		return "", &InvalidFilenameError{Name: name}
	}
	if fi, err := os.Stat(destfile); err == nil && fi.IsDir() {
		return "", errors.Errorf("destination %s is a directory", destfile)
	}
	return destfile, nil
}

// copyBody streams the body to out in fixed-size chunks, reporting
// progress and honoring cancellation between chunks.
func (d *Downloader) copyBody(ctx context.Context, o *transfer.Outcome, out io.Writer) error {
	chunk := d.ChunkSize
	if chunk <= 0 {
		chunk = defaultChunkSize
	}

	expected := o.ContentLength
	d.report(0.0)

	buf := make([]byte, chunk)
	var copied int64
	for {
		if err := ctx.Err(); err != nil {
			return transfer.ErrInterrupted
		}

		n, rerr := o.Body.Read(buf)
		if n > 0 {
			if d.Limiter != nil {
				if err := d.throttle(ctx, n); err != nil {
					return err
				}
			}
			if _, werr := out.Write(buf[:n]); werr != nil {
				return errors.Wrap(werr, "write failed")
			}
			copied += int64(n)
			if expected > 0 {
				d.report(min(float64(copied)/float64(expected), 1.0))
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return errors.Wrap(rerr, "read failed")
		}
	}

	d.report(1.0)
	return nil
}

// throttle charges n bytes against the limiter in burst-sized slices, so
// a read larger than the configured burst waits instead of failing. Only
// a canceled context maps to ErrInterrupted; any other limiter failure is
// a configuration error and is reported as such.
func (d *Downloader) throttle(ctx context.Context, n int) error {
	burst := d.Limiter.Burst()
	if burst <= 0 {
		burst = n
	}
	for n > 0 {
		take := min(n, burst)
		if err := d.Limiter.WaitN(ctx, take); err != nil {
			if ctx.Err() != nil {
				return transfer.ErrInterrupted
			}
			return errors.Wrap(err, "rate limit wait failed")
		}
		n -= take
	}
	return nil
}

func (d *Downloader) report(fraction float64) {
	if d.Progress != nil {
		d.Progress(fraction)
	}
}
