package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/asset-sync/internal/domain/asset"
	"github.com/oshokin/asset-sync/internal/service/syncer"
)

// TestSync_UpdatesAceFromStoredTag runs the whole pipeline from a stored "3.0" record to the "3.1" release.
//
//nolint:funlen // Integration test requires comprehensive setup and verification.
func TestSync_UpdatesAceFromStoredTag(t *testing.T) {
	t.Parallel()

	// Prepare a project at 3.0 with its installed tree.
	dir := t.TempDir()
	u := newUpstream(t, "3.1")
	cfgPath := writeConfig(t, dir, u)

	versionsPath := filepath.Join(dir, "versions.json")
	require.NoError(t, os.WriteFile(versionsPath, []byte(`{"ace": "3.0"}`), 0o600))

	aceDir := filepath.Join(dir, "mu", "js", "ace")
	require.NoError(t, os.MkdirAll(aceDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(aceDir, "ace.js"), []byte("ace 3.0"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(aceDir, "mode-removed.js"), []byte("old"), 0o600))

	// Sync.
	var out bytes.Buffer

	err := syncer.Run(context.Background(), &syncer.Options{ConfigPath: cfgPath, Out: &out})
	require.NoError(t, err)

	// The record holds exactly the new tag.
	var record map[string]string
	require.NoError(t, json.Unmarshal([]byte(readFile(t, versionsPath)), &record))
	require.Equal(t, map[string]string{"ace": "3.1"}, record)

	// The installed tree is the new payload without the wrapper directory.
	require.Equal(t, "ace 3.1", readFile(t, filepath.Join(aceDir, "ace.js")))
	require.Equal(t, "mode 3.1", readFile(t, filepath.Join(aceDir, "mode-py.js")))

	_, err = os.Stat(filepath.Join(aceDir, "mode-removed.js"))
	require.ErrorIs(t, err, os.ErrNotExist)

	_, err = os.Stat(filepath.Join(aceDir, "package.json"))
	require.ErrorIs(t, err, os.ErrNotExist)

	// The reporting sink and the durable log both carry the terminal message.
	require.Contains(t, out.String(), "Starting...")
	require.Contains(t, out.String(), "Updating to 3.1.")
	require.Contains(t, out.String(), "Finished. Updated to release 3.1.")
	require.Contains(t, readFile(t, filepath.Join(dir, "asset-sync.log")), "Finished. Updated to release 3.1.")
	require.Equal(t, int32(1), u.downloads.Load())

	// A second run is a no-op.
	versionsBefore := readFile(t, versionsPath)
	out.Reset()

	err = syncer.Run(context.Background(), &syncer.Options{ConfigPath: cfgPath, Out: &out})
	require.NoError(t, err)
	require.Contains(t, out.String(), "Already at the latest version.")
	require.Equal(t, int32(1), u.downloads.Load())
	require.Equal(t, versionsBefore, readFile(t, versionsPath))
	require.Equal(t, "ace 3.1", readFile(t, filepath.Join(aceDir, "ace.js")))
}

// TestSync_RemoteFailureIsReported prints a terse summary pointing at the log and keeps the record.
func TestSync_RemoteFailureIsReported(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	u := newUpstream(t, "3.1")
	u.failTags.Store(true)
	cfgPath := writeConfig(t, dir, u)

	var out bytes.Buffer

	err := syncer.Run(context.Background(), &syncer.Options{ConfigPath: cfgPath, Out: &out})
	require.ErrorIs(t, err, asset.ErrRemoteUnavailable)

	logPath := filepath.Join(dir, "asset-sync.log")
	require.Contains(t, out.String(), "Something went wrong:")
	require.Contains(t, out.String(), "Check the logs: "+logPath)
	require.Contains(t, readFile(t, logPath), "Sync failed")
	require.Zero(t, u.downloads.Load())

	_, err = os.Stat(filepath.Join(dir, "versions.json"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

// TestCheckAndStatus_AreReadOnly reports pending updates and tree state without touching the project.
func TestCheckAndStatus_AreReadOnly(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	u := newUpstream(t, "3.1")
	cfgPath := writeConfig(t, dir, u)

	var out bytes.Buffer

	require.NoError(t, syncer.Check(context.Background(), &syncer.Options{ConfigPath: cfgPath, Out: &out}))
	require.Contains(t, out.String(), "ace is not installed, 3.1 is available.")

	rows, err := syncer.Status(context.Background(), &syncer.Options{ConfigPath: cfgPath})
	require.NoError(t, err)
	require.Equal(t, []syncer.TreeStatus{{
		Asset:      "ace",
		Tag:        asset.NeverInstalled,
		Platform:   asset.DefaultPlatform,
		InstallDir: filepath.Join(dir, "mu", "js", "ace"),
		State:      syncer.TreeMissing,
	}}, rows)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "only the configuration file exists")
	require.Zero(t, u.downloads.Load())
}
