package integration

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/asset-sync/internal/config"
)

// upstream fakes the tag API and the archive downloads of ajaxorg/ace-builds.
type upstream struct {
	server    *httptest.Server
	tag       atomic.Value
	failTags  atomic.Bool
	downloads atomic.Int32
}

func newUpstream(t *testing.T, tag string) *upstream {
	t.Helper()

	u := new(upstream)
	u.tag.Store(tag)

	mux := http.NewServeMux()
	mux.HandleFunc("/repos/ajaxorg/ace-builds/tags", func(w http.ResponseWriter, _ *http.Request) {
		if u.failTags.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode([]map[string]string{{"name": u.tag.Load().(string)}})
	})
	mux.HandleFunc("/archive/", func(w http.ResponseWriter, r *http.Request) {
		u.downloads.Add(1)

		tag := filepath.Base(r.URL.Path)
		tag = tag[:len(tag)-len(".zip")]

		_, _ = w.Write(aceZip(t, tag))
	})

	u.server = httptest.NewServer(mux)
	t.Cleanup(u.server.Close)

	return u
}

// aceZip lays out a release archive the way GitHub archives ace-builds.
func aceZip(t *testing.T, tag string) []byte {
	t.Helper()

	var buf bytes.Buffer

	w := zip.NewWriter(&buf)

	for name, body := range map[string]string{
		"ace-builds-" + tag + "/package.json":                  "{}",
		"ace-builds-" + tag + "/src-min-noconflict/ace.js":     "ace " + tag,
		"ace-builds-" + tag + "/src-min-noconflict/mode-py.js": "mode " + tag,
	} {
		f, err := w.Create(name)
		require.NoError(t, err)

		_, err = f.Write([]byte(body))
		require.NoError(t, err)
	}

	require.NoError(t, w.Close())

	return buf.Bytes()
}

// writeConfig stores an ace-only configuration rooted at dir and pointing at u.
func writeConfig(t *testing.T, dir string, u *upstream) string {
	t.Helper()

	cfgPath := filepath.Join(dir, config.DefaultConfigFilename)

	require.NoError(t, config.Save(cfgPath, &config.Config{
		BaseDir: dir,
		APIURL:  u.server.URL,
		WebURL:  u.server.URL,
		Assets: []config.Asset{{
			Name:        "ace",
			Repository:  "ajaxorg/ace-builds",
			TagStrategy: config.TagList,
			AssetSource: config.SourceTemplate,
			URLTemplate: u.server.URL + "/archive/{tag}.zip",
			Format:      config.FormatZip,
			Payload:     "*/src-min-noconflict",
			InstallDir:  "mu/js/ace",
		}},
	}))

	return cfgPath
}

func readFile(t *testing.T, path string) string {
	t.Helper()

	body, err := os.ReadFile(path)
	require.NoError(t, err)

	return string(body)
}
