package archive

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// swap replaces target with payload using directory renames. The previous tree is
// parked at target+".old" and restored if the payload cannot be moved into place.
func swap(payload, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), defaultDirMode); err != nil {
		return err
	}

	oldTree := target + ".old"
	if err := os.RemoveAll(oldTree); err != nil {
		return fmt.Errorf("remove stale %s: %w", oldTree, err)
	}

	hadPrevious := true

	if err := os.Rename(target, oldTree); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("park previous tree: %w", err)
		}

		hadPrevious = false
	}

	if err := os.Rename(payload, target); err != nil {
		if hadPrevious {
			if restoreErr := os.Rename(oldTree, target); restoreErr != nil {
				return fmt.Errorf("move payload: %w (restore previous tree: %w)", err, restoreErr)
			}
		}

		return fmt.Errorf("move payload: %w", err)
	}

	if hadPrevious {
		// The new tree is live; a leftover .old is removed by the next install.
		_ = os.RemoveAll(oldTree)
	}

	return nil
}
