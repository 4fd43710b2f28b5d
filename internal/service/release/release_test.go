package release

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/asset-sync/internal/config"
	"github.com/oshokin/asset-sync/internal/domain/asset"
)

// TestSelectAssets_MatchAndExclude picks the first non-excluded file per platform and omits unmatched platforms.
func TestSelectAssets_MatchAndExclude(t *testing.T) {
	t.Parallel()

	files := []File{
		{Name: "foo-linux64-musl.tar.zst", URL: "u-musl"},
		{Name: "foo-linux64.tar.zst", URL: "u1"},
		{Name: "foo-macos.tar.zst", URL: "u2"},
		{Name: "foo-linux64-debug.tar.zst", URL: "u3"},
	}

	platforms := []asset.Platform{
		{Name: "linux64"},
		{Name: "macos"},
		{Name: "windows-amd64"},
	}

	got := SelectAssets(files, platforms, []string{"musl"})
	require.Equal(t, map[string]string{"linux64": "u1", "macos": "u2"}, got)
}

// TestSelectAssets_MatchOverride uses the platform's match term instead of its name.
func TestSelectAssets_MatchOverride(t *testing.T) {
	t.Parallel()

	files := []File{
		{Name: "cpython-x86_64-pc-windows-msvc.tar.zst", URL: "win64"},
		{Name: "cpython-i686-pc-windows-msvc.tar.zst", URL: "win32"},
	}

	platforms := []asset.Platform{
		{Name: "windows-amd64", Match: "x86_64-pc-windows"},
		{Name: "windows-x86", Match: "i686-pc-windows"},
	}

	got := SelectAssets(files, platforms, nil)
	require.Equal(t, "win64", got["windows-amd64"])
	require.Equal(t, "win32", got["windows-x86"])
}

// TestTemplateAssets_Expands replaces the tag and platform placeholders.
func TestTemplateAssets_Expands(t *testing.T) {
	t.Parallel()

	source := NewTemplateAssets(
		"https://example.test/{tag}/build-{platform}.zip",
		[]asset.Platform{{Name: asset.DefaultPlatform}, {Name: "arm", Match: "aarch64"}},
	)

	got, err := source.AssetsForTag(context.Background(), "v3.1")
	require.NoError(t, err)
	require.Equal(t, "https://example.test/v3.1/build-default.zip", got[asset.DefaultPlatform])
	require.Equal(t, "https://example.test/v3.1/build-aarch64.zip", got["arm"])
}

// TestRedirectResolver_ReadsTagFromFinalURL follows the latest page redirect to the tagged release.
func TestRedirectResolver_ReadsTagFromFinalURL(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/o/r/releases/latest", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/o/r/releases/tag/20240107", http.StatusFound)
	})
	mux.HandleFunc("/o/r/releases/tag/20240107", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("release page"))
	})

	ts := httptest.NewServer(mux)
	defer ts.Close()

	tag, err := NewRedirectResolver(ts.Client(), ts.URL+"/o/r/releases/latest").LatestTag(context.Background())
	require.NoError(t, err)
	require.Equal(t, "20240107", tag)
}

// TestRedirectResolver_NoRedirect fails when the latest page does not redirect to a tag.
func TestRedirectResolver_NoRedirect(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("no releases"))
	}))
	defer ts.Close()

	_, err := NewRedirectResolver(ts.Client(), ts.URL+"/o/r/releases/latest").LatestTag(context.Background())
	require.ErrorIs(t, err, asset.ErrRemoteUnavailable)
}

// TestRedirectResolver_ServerError maps a non-success status to an unavailable source.
func TestRedirectResolver_ServerError(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer ts.Close()

	_, err := NewRedirectResolver(ts.Client(), ts.URL+"/latest").LatestTag(context.Background())
	require.ErrorIs(t, err, asset.ErrRemoteUnavailable)
	require.True(t, asset.IsRetryable(err))
}

// newAPI starts a fake REST API serving the given JSON documents by path.
func newAPI(t *testing.T, routes map[string]any) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()

	for route, body := range routes {
		mux.HandleFunc(route, func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(body)
		})
	}

	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)

	return ts
}

// TestTagListResolver_FirstTag takes the first entry of the tag list.
func TestTagListResolver_FirstTag(t *testing.T) {
	t.Parallel()

	ts := newAPI(t, map[string]any{
		"/repos/ajaxorg/ace-builds/tags": []map[string]string{{"name": "v1.32.3"}, {"name": "v1.32.2"}},
	})

	client, err := newGitHubClient(ts.Client(), ts.URL)
	require.NoError(t, err)

	tag, err := NewTagListResolver(client, "ajaxorg/ace-builds").LatestTag(context.Background())
	require.NoError(t, err)
	require.Equal(t, "v1.32.3", tag)
}

// TestTagListResolver_Empty reports an unavailable source when there are no tags.
func TestTagListResolver_Empty(t *testing.T) {
	t.Parallel()

	ts := newAPI(t, map[string]any{"/repos/o/r/tags": []any{}})

	client, err := newGitHubClient(ts.Client(), ts.URL)
	require.NoError(t, err)

	_, err = NewTagListResolver(client, "o/r").LatestTag(context.Background())
	require.ErrorIs(t, err, asset.ErrRemoteUnavailable)
}

// TestTagListResolver_NotFound wraps API errors as an unavailable source.
func TestTagListResolver_NotFound(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.NotFoundHandler())
	defer ts.Close()

	client, err := newGitHubClient(ts.Client(), ts.URL+"/")
	require.NoError(t, err)

	_, err = NewTagListResolver(client, "o/r").LatestTag(context.Background())
	require.ErrorIs(t, err, asset.ErrRemoteUnavailable)
}

// TestLocator_LatestReleaseWithReleaseAssets resolves the tag and platform URLs through the API.
func TestLocator_LatestReleaseWithReleaseAssets(t *testing.T) {
	t.Parallel()

	release := map[string]any{
		"tag_name": "20240107",
		"assets": []map[string]string{
			{"name": "cpython-3.12-x86_64-unknown-linux-musl.tar.zst", "browser_download_url": "https://dl/musl"},
			{"name": "cpython-3.12-x86_64-unknown-linux-gnu.tar.zst", "browser_download_url": "https://dl/gnu"},
			{"name": "cpython-3.12-aarch64-apple-darwin.tar.zst", "browser_download_url": "https://dl/mac"},
		},
	}

	ts := newAPI(t, map[string]any{
		"/repos/indygreg/python-build-standalone/releases/latest":        release,
		"/repos/indygreg/python-build-standalone/releases/tags/20240107": release,
	})

	cfg := &config.Config{
		BaseDir: t.TempDir(),
		APIURL:  ts.URL,
		WebURL:  ts.URL,
		Assets: []config.Asset{{
			Name:        "python",
			Repository:  "indygreg/python-build-standalone",
			TagStrategy: config.TagLatestRelease,
			AssetSource: config.SourceRelease,
			Exclude:     []string{"musl"},
			Payload:     "python/install",
			InstallDir:  "python",
			Platforms: []config.Platform{
				{Name: "linux64", Match: "x86_64-unknown-linux"},
				{Name: "macos", Match: "apple-darwin"},
				{Name: "windows-x86", Match: "i686-pc-windows", Optional: true},
			},
		}},
	}

	locator, err := New(cfg, &cfg.Assets[0], ts.Client())
	require.NoError(t, err)

	tag, err := locator.LatestTag(context.Background())
	require.NoError(t, err)
	require.Equal(t, "20240107", tag)

	urls, err := locator.AssetsForTag(context.Background(), tag)
	require.NoError(t, err)
	require.Equal(t, map[string]string{"linux64": "https://dl/gnu", "macos": "https://dl/mac"}, urls)
}

// TestNew_UnknownStrategy rejects configurations the locator cannot serve.
func TestNew_UnknownStrategy(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{APIURL: config.DefaultAPIURL, WebURL: config.DefaultWebURL}
	a := &config.Asset{Name: "x", Repository: "o/r", TagStrategy: "guess", AssetSource: config.SourceTemplate}

	_, err := New(cfg, a, http.DefaultClient)
	require.ErrorIs(t, err, errUnknownStrategy)
}
