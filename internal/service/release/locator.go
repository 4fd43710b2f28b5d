package release

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/oshokin/asset-sync/internal/config"
)

// maxDrainBytes caps how much of an ignored response body is read before closing.
const maxDrainBytes = 64 << 10

var errUnknownStrategy = errors.New("unknown strategy")

// Locator combines a tag strategy with an asset source for one configured asset.
type Locator struct {
	TagResolver
	AssetResolver
}

// New builds the Locator configured for a.
func New(cfg *config.Config, a *config.Asset, httpClient *http.Client) (*Locator, error) {
	gh, err := newGitHubClient(httpClient, cfg.APIURL)
	if err != nil {
		return nil, err
	}

	var tags TagResolver

	switch a.TagStrategy {
	case config.TagLatestRedirect:
		latestURL := a.LatestURL
		if latestURL == "" {
			latestURL = strings.TrimSuffix(cfg.WebURL, "/") + "/" + a.Repository + "/releases/latest"
		}

		tags = NewRedirectResolver(httpClient, latestURL)
	case config.TagList:
		tags = NewTagListResolver(gh, a.Repository)
	case config.TagLatestRelease:
		tags = NewLatestReleaseResolver(gh, a.Repository)
	default:
		return nil, fmt.Errorf("tag strategy %q: %w", a.TagStrategy, errUnknownStrategy)
	}

	var assets AssetResolver

	platforms := cfg.Platforms(a)

	switch a.AssetSource {
	case config.SourceTemplate:
		assets = NewTemplateAssets(a.URLTemplate, platforms)
	case config.SourceRelease:
		assets = NewReleaseAssets(gh, a.Repository, platforms, a.Exclude)
	default:
		return nil, fmt.Errorf("asset source %q: %w", a.AssetSource, errUnknownStrategy)
	}

	return &Locator{TagResolver: tags, AssetResolver: assets}, nil
}
