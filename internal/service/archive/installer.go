package archive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/oshokin/asset-sync/internal/config"
	"github.com/oshokin/asset-sync/internal/domain/asset"
	"github.com/oshokin/asset-sync/internal/logger"
	"github.com/oshokin/asset-sync/internal/report"
)

// Job describes one platform install.
type Job struct {
	// Archive is the downloaded file.
	Archive string
	// Format is one of the config.Format* values; empty means detect from Archive.
	Format string
	// Payload is the glob, relative to the extraction root, of the subtree to install.
	Payload string
	// Platform owns the installed tree being replaced.
	Platform asset.Platform
}

// Installer turns downloaded archives into installed trees.
type Installer struct {
	sink report.Sink
}

// NewInstaller returns an Installer reporting decompression progress to sink.
func NewInstaller(sink report.Sink) *Installer {
	if sink == nil {
		sink = report.Discard
	}

	return &Installer{sink: sink}
}

// Install extracts job.Archive, locates the payload and makes it the platform's installed tree.
// Errors wrap asset.ErrExtractionFailed, asset.ErrPayloadNotFound or asset.ErrInstallFailed.
func (i *Installer) Install(ctx context.Context, job *Job) error {
	target := job.Platform.InstallDir

	format := job.Format
	if format == "" {
		format = DetectFormat(job.Archive)
	}

	// Staging lives next to the target so the final move is a same-filesystem rename.
	if err := os.MkdirAll(filepath.Dir(target), defaultDirMode); err != nil {
		return fmt.Errorf("prepare %s: %w: %w", target, asset.ErrInstallFailed, err)
	}

	staging, err := os.MkdirTemp(filepath.Dir(target), "."+filepath.Base(target)+".staging-")
	if err != nil {
		return fmt.Errorf("create staging directory: %w: %w", asset.ErrInstallFailed, err)
	}

	defer func() {
		if removeErr := os.RemoveAll(staging); removeErr != nil {
			logger.WarnKV(ctx, "Unable to remove staging directory", "path", staging, "error", removeErr)
		}
	}()

	root := filepath.Join(staging, "root")

	logger.InfoKV(ctx, "Extracting archive", "archive", job.Archive, "format", format, "staging", root)

	if err = i.extract(ctx, job, format, staging, root); err != nil {
		return fmt.Errorf("extract %s: %w: %w", job.Archive, asset.ErrExtractionFailed, err)
	}

	payload, err := locatePayload(root, job.Payload)
	if err != nil {
		return err
	}

	logger.InfoKV(ctx, "Installing payload", "payload", payload, "target", target)

	if err = swap(payload, target); err != nil {
		return fmt.Errorf("install %s: %w: %w", target, asset.ErrInstallFailed, err)
	}

	return nil
}

func (i *Installer) extract(ctx context.Context, job *Job, format, staging, root string) error {
	if err := os.MkdirAll(root, defaultDirMode); err != nil {
		return err
	}

	switch format {
	case config.FormatZip:
		return extractZip(job.Archive, root)
	case config.FormatTar:
		return extractTar(job.Archive, root)
	case config.FormatTarZst, config.FormatTarGz:
		info, err := os.Stat(job.Archive)
		if err != nil {
			return err
		}

		tarPath := filepath.Join(staging, "archive.tar")
		tracker := i.sink.Progress(ctx, "Decompressing "+job.Platform.Name, info.Size())

		err = decompress(job.Archive, tarPath, format, tracker)

		tracker.Done()

		if err != nil {
			return err
		}

		return extractTar(tarPath, root)
	default:
		return fmt.Errorf("format %q: %w", format, errUnsupportedFormat)
	}
}
