package asset

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrRemoteUnavailable signals a network or API failure reaching the release source.
	ErrRemoteUnavailable = errors.New("release source unavailable")
	// ErrAssetMissing signals that a required platform has no asset in the release.
	ErrAssetMissing = errors.New("release asset missing")
	// ErrDownloadFailed signals a non-success HTTP status or a truncated transfer.
	ErrDownloadFailed = errors.New("download failed")
	// ErrExtractionFailed signals a corrupt or unsupported archive.
	ErrExtractionFailed = errors.New("extraction failed")
	// ErrPayloadNotFound signals that the expected subtree is absent from the archive.
	ErrPayloadNotFound = errors.New("payload not found")
	// ErrInstallFailed signals a filesystem error while swapping the installed tree.
	ErrInstallFailed = errors.New("install failed")
	// ErrPersistFailed signals that the version record could not be written.
	ErrPersistFailed = errors.New("persist failed")
	// ErrAlreadyRunning signals that another sync holds the run marker.
	ErrAlreadyRunning = errors.New("another sync is already running")

	errUnknownComparator = errors.New("unknown tag comparison")
)

// kinds lists the taxonomy in the order Kind checks it.
//
//nolint:gochecknoglobals // Read-only lookup table.
var kinds = []struct {
	err  error
	name string
}{
	{ErrRemoteUnavailable, "RemoteUnavailable"},
	{ErrAssetMissing, "AssetMissing"},
	{ErrDownloadFailed, "DownloadFailed"},
	{ErrExtractionFailed, "ExtractionFailed"},
	{ErrPayloadNotFound, "PayloadNotFound"},
	{ErrInstallFailed, "InstallFailed"},
	{ErrPersistFailed, "PersistFailed"},
	{ErrAlreadyRunning, "AlreadyRunning"},
}

// DownloadError describes a failed transfer of a single URL.
type DownloadError struct {
	// URL is the requested location.
	URL string
	// Status is the HTTP status code, or zero when no response was received.
	Status int
	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *DownloadError) Error() string {
	switch {
	case e.Status != 0 && e.Err != nil:
		return fmt.Sprintf("download %s: %d %s: %v", e.URL, e.Status, http.StatusText(e.Status), e.Err)
	case e.Status != 0:
		return fmt.Sprintf("download %s: %d %s", e.URL, e.Status, http.StatusText(e.Status))
	case e.Err != nil:
		return fmt.Sprintf("download %s: %v", e.URL, e.Err)
	default:
		return "download " + e.URL + ": failed"
	}
}

// Unwrap exposes both ErrDownloadFailed and the underlying cause.
func (e *DownloadError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrDownloadFailed}
	}

	return []error{ErrDownloadFailed, e.Err}
}

// Kind names the taxonomy class of err, or "Unknown".
func Kind(err error) string {
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.name
		}
	}

	return "Unknown"
}

// IsRetryable reports whether err is a network-class failure that a caller may retry.
// Client-side HTTP statuses (4xx) are not retryable.
func IsRetryable(err error) bool {
	var downloadErr *DownloadError
	if errors.As(err, &downloadErr) {
		return downloadErr.Status == 0 || downloadErr.Status >= http.StatusInternalServerError
	}

	return errors.Is(err, ErrRemoteUnavailable)
}
