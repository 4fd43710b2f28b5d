package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/oshokin/asset-sync/internal/domain/asset"
	"github.com/oshokin/asset-sync/internal/logger"
	"github.com/oshokin/asset-sync/internal/report"
	"github.com/oshokin/asset-sync/internal/version"
)

const (
	// ChunkSize is the transfer unit between progress updates.
	ChunkSize = 32 << 10
	// DefaultSizeEstimate is the progress total used when the server sends no Content-Length.
	DefaultSizeEstimate int64 = 20_000_000
)

// Downloader fetches a URL into a local file.
type Downloader struct {
	client *http.Client
	sink   report.Sink
}

// NewDownloader returns a Downloader reporting progress to sink.
func NewDownloader(client *http.Client, sink report.Sink) *Downloader {
	if sink == nil {
		sink = report.Discard
	}

	return &Downloader{client: client, sink: sink}
}

// Download streams url into dest and returns the number of bytes written.
// On failure the partial file is removed and the error is a *asset.DownloadError.
func (d *Downloader) Download(ctx context.Context, url, dest, title string) (int64, error) {
	logger.InfoKV(ctx, "Downloading", "url", url, "path", dest)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return 0, &asset.DownloadError{URL: url, Err: err}
	}

	req.Header.Set("User-Agent", version.UserAgent())

	response, err := d.client.Do(req)
	if err != nil {
		return 0, &asset.DownloadError{URL: url, Err: err}
	}

	defer func() {
		_ = response.Body.Close()
	}()

	if response.StatusCode != http.StatusOK {
		return 0, &asset.DownloadError{URL: url, Status: response.StatusCode}
	}

	if err = os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return 0, &asset.DownloadError{URL: url, Err: err}
	}

	outputFile, err := os.Create(filepath.Clean(dest))
	if err != nil {
		return 0, &asset.DownloadError{URL: url, Err: err}
	}

	total := response.ContentLength
	if total <= 0 {
		total = DefaultSizeEstimate
	}

	tracker := d.sink.Progress(ctx, title, total)
	written, err := copyChunks(outputFile, response.Body, tracker)

	tracker.Done()

	if closeErr := outputFile.Close(); err == nil {
		err = closeErr
	}

	if err == nil && response.ContentLength >= 0 && written != response.ContentLength {
		err = fmt.Errorf("received %d of %d bytes: %w", written, response.ContentLength, io.ErrUnexpectedEOF)
	}

	if err != nil {
		_ = os.Remove(dest)

		return written, &asset.DownloadError{URL: url, Err: err}
	}

	logger.InfoKV(ctx, "Downloaded file", "path", dest, "bytes", written)

	return written, nil
}

// copyChunks copies src to dst one chunk at a time, advancing tracker after each write.
func copyChunks(dst io.Writer, src io.Reader, tracker report.Tracker) (int64, error) {
	var (
		buf     = make([]byte, ChunkSize)
		written int64
	)

	for {
		n, readErr := src.Read(buf)
		if n > 0 {
			if _, err := dst.Write(buf[:n]); err != nil {
				return written, err
			}

			written += int64(n)
			tracker.Add(int64(n))
		}

		if errors.Is(readErr, io.EOF) {
			return written, nil
		}

		if readErr != nil {
			return written, readErr
		}
	}
}
