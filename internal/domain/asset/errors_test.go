package asset

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestDownloadError_Unwrap verifies errors.Is/As work through the download error.
func TestDownloadError_Unwrap(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection reset")
	err := fmt.Errorf("fetch linux64: %w", &DownloadError{URL: "https://x/a.zip", Err: cause})

	require.ErrorIs(t, err, ErrDownloadFailed)
	require.ErrorIs(t, err, cause)

	var downloadErr *DownloadError
	require.ErrorAs(t, err, &downloadErr)
	require.Equal(t, "https://x/a.zip", downloadErr.URL)

	statusErr := &DownloadError{URL: "https://x/a.zip", Status: http.StatusNotFound}
	require.ErrorIs(t, statusErr, ErrDownloadFailed)
	require.Contains(t, statusErr.Error(), "404 Not Found")
}

// TestKind names every taxonomy class and falls back to Unknown.
func TestKind(t *testing.T) {
	t.Parallel()

	cases := map[error]string{
		fmt.Errorf("tags: %w", ErrRemoteUnavailable):           "RemoteUnavailable",
		fmt.Errorf("linux64: %w", ErrAssetMissing):             "AssetMissing",
		&DownloadError{URL: "u", Status: http.StatusForbidden}: "DownloadFailed",
		fmt.Errorf("zip: %w", ErrExtractionFailed):             "ExtractionFailed",
		fmt.Errorf("python/install: %w", ErrPayloadNotFound):   "PayloadNotFound",
		fmt.Errorf("rename: %w", ErrInstallFailed):             "InstallFailed",
		fmt.Errorf("versions.json: %w", ErrPersistFailed):      "PersistFailed",
		ErrAlreadyRunning:                                      "AlreadyRunning",
		errors.New("other"):                                    "Unknown",
	}

	for err, want := range cases {
		require.Equal(t, want, Kind(err), err.Error())
	}
}

// TestIsRetryable distinguishes network failures from local ones.
func TestIsRetryable(t *testing.T) {
	t.Parallel()

	require.True(t, IsRetryable(fmt.Errorf("latest: %w", ErrRemoteUnavailable)))
	require.True(t, IsRetryable(&DownloadError{URL: "u", Status: http.StatusBadGateway}))
	require.True(t, IsRetryable(&DownloadError{URL: "u", Err: errors.New("eof")}))
	require.False(t, IsRetryable(&DownloadError{URL: "u", Status: http.StatusNotFound}))
	require.False(t, IsRetryable(fmt.Errorf("swap: %w", ErrInstallFailed)))
}
