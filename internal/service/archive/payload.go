package archive

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"github.com/oshokin/asset-sync/internal/domain/asset"
)

// locatePayload resolves pattern against the extraction root and returns the absolute
// path of the first matching directory in sorted order. An empty pattern selects root.
func locatePayload(root, pattern string) (string, error) {
	if pattern == "" || pattern == "." {
		return root, nil
	}

	matches, err := fs.Glob(os.DirFS(root), filepath.ToSlash(pattern))
	if err != nil {
		return "", fmt.Errorf("payload pattern %q: %w: %w", pattern, asset.ErrPayloadNotFound, err)
	}

	slices.Sort(matches)

	for _, match := range matches {
		path := filepath.Join(root, filepath.FromSlash(match))

		info, statErr := os.Stat(path)
		if statErr == nil && info.IsDir() {
			return path, nil
		}
	}

	return "", fmt.Errorf("payload %q: %w", pattern, asset.ErrPayloadNotFound)
}
