package syncer

import (
	"errors"
	"os"
)

// Installed tree states.
const (
	TreePresent    = "present"
	TreeEmpty      = "empty"
	TreeMissing    = "missing"
	TreeUnreadable = "unreadable"
)

// TreeState classifies the installed tree at dir.
func TreeState(dir string) string {
	entries, err := os.ReadDir(dir)

	switch {
	case errors.Is(err, os.ErrNotExist):
		return TreeMissing
	case err != nil:
		return TreeUnreadable
	case len(entries) == 0:
		return TreeEmpty
	default:
		return TreePresent
	}
}
