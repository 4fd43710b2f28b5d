package versions

import (
	"bytes"
	"context"
	"crypto"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	goupdate "github.com/doitdistributed/go-update"

	"github.com/oshokin/asset-sync/internal/domain/asset"
)

// Repository defines persistence operations for the version record.
type Repository interface {
	Load(ctx context.Context) (asset.Record, error)
	Save(ctx context.Context, record asset.Record) error
}

// FileRepository persists the version record to a JSON file on disk.
type FileRepository struct {
	// path is the filesystem location of the JSON record.
	path string
	// known are the asset names reported as never installed when the file is absent.
	known []string
	// mu serializes access to the record file within the process.
	mu sync.Mutex
}

// recordFileMode keeps the record readable by the rest of the project tooling.
const recordFileMode os.FileMode = 0o644

// NewFileRepository creates a repository that reads/writes JSON at the provided path.
func NewFileRepository(path string, known ...string) *FileRepository {
	return &FileRepository{
		path:  filepath.Clean(path),
		known: append([]string(nil), known...),
	}
}

// Load reads the record from disk. A missing or empty file is the normal
// first-run state and yields every known asset mapped to asset.NeverInstalled.
func (r *FileRepository) Load(_ context.Context) (asset.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	contents, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return asset.NewRecord(r.known...), nil
		}

		return nil, fmt.Errorf("read version file: %w", err)
	}

	if len(bytes.TrimSpace(contents)) == 0 {
		return asset.NewRecord(r.known...), nil
	}

	record := make(asset.Record)
	if err = json.Unmarshal(contents, &record); err != nil {
		return nil, fmt.Errorf("decode version file: %w", err)
	}

	return record, nil
}

// Save replaces the record on disk. The new content is written next to the
// target and renamed over it, so readers observe either the old or the new record.
func (r *FileRepository) Save(_ context.Context, record asset.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("encode version record: %w: %w", asset.ErrPersistFailed, err)
	}

	data = append(data, '\n')

	if err = os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return fmt.Errorf("create version directory: %w: %w", asset.ErrPersistFailed, err)
	}

	// The swap renames the current file aside first, so it has to exist.
	if _, err = os.Stat(r.path); errors.Is(err, os.ErrNotExist) {
		if err = os.WriteFile(r.path, nil, recordFileMode); err != nil {
			return fmt.Errorf("create version file: %w: %w", asset.ErrPersistFailed, err)
		}
	}

	checksum := sha256.Sum256(data)

	options := goupdate.Options{
		TargetPath: r.path,
		TargetMode: recordFileMode,
		Checksum:   checksum[:],
		Hash:       crypto.SHA256,
	}

	if err = goupdate.Apply(bytes.NewReader(data), options); err != nil {
		return fmt.Errorf("write version file: %w: %w", asset.ErrPersistFailed, err)
	}

	return nil
}
