package archive

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"

	"github.com/oshokin/asset-sync/internal/config"
	"github.com/oshokin/asset-sync/internal/report"
)

// decompress writes the plain tar stream of a compressed archive to dst.
// Progress is measured against the compressed input.
func decompress(src, dst, format string, tracker report.Tracker) error {
	in, err := os.Open(src) //nolint:gosec // The path is the run's own download.
	if err != nil {
		return err
	}

	defer func() {
		_ = in.Close()
	}()

	counted := &countingReader{reader: in, tracker: tracker}

	var plain io.Reader

	switch format {
	case config.FormatTarZst:
		decoder, zstdErr := zstd.NewReader(counted)
		if zstdErr != nil {
			return fmt.Errorf("zstd reader: %w", zstdErr)
		}

		defer decoder.Close()

		plain = decoder
	case config.FormatTarGz:
		gzipReader, gzipErr := gzip.NewReader(counted)
		if gzipErr != nil {
			return fmt.Errorf("gzip reader: %w", gzipErr)
		}

		defer func() {
			_ = gzipReader.Close()
		}()

		plain = gzipReader
	default:
		return fmt.Errorf("format %q: %w", format, errUnsupportedFormat)
	}

	out, err := os.Create(dst) //nolint:gosec // The path is inside the staging directory.
	if err != nil {
		return err
	}

	if _, err = io.Copy(out, plain); err != nil {
		_ = out.Close()

		return fmt.Errorf("decompress %s: %w", src, err)
	}

	return out.Close()
}

// countingReader reports every read to a progress tracker.
type countingReader struct {
	reader  io.Reader
	tracker report.Tracker
}

func (r *countingReader) Read(p []byte) (int, error) {
	n, err := r.reader.Read(p)
	if n > 0 {
		r.tracker.Add(int64(n))
	}

	return n, err
}
