package archive

import (
	"net/url"
	"strings"

	"github.com/oshokin/asset-sync/internal/config"
)

// suffixes maps file name endings to formats. Longer endings come first.
var suffixes = []struct { //nolint:gochecknoglobals // Read-only lookup table.
	suffix string
	format string
}{
	{".tar.zst", config.FormatTarZst},
	{".tzst", config.FormatTarZst},
	{".tar.gz", config.FormatTarGz},
	{".tgz", config.FormatTarGz},
	{".tar", config.FormatTar},
	{".zip", config.FormatZip},
}

// DetectFormat guesses the archive format from the path of rawURL. It returns "" when unknown.
func DetectFormat(rawURL string) string {
	name := rawURL
	if u, err := url.Parse(rawURL); err == nil && u.Path != "" {
		name = u.Path
	}

	name = strings.ToLower(name)

	for _, s := range suffixes {
		if strings.HasSuffix(name, s.suffix) {
			return s.format
		}
	}

	return ""
}

// Extension returns the canonical file name ending for format.
func Extension(format string) string {
	switch format {
	case config.FormatZip:
		return ".zip"
	case config.FormatTar:
		return ".tar"
	case config.FormatTarZst:
		return ".tar.zst"
	case config.FormatTarGz:
		return ".tar.gz"
	default:
		return ".bin"
	}
}
