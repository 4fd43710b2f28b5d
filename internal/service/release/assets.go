package release

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/go-github/v50/github"

	"github.com/oshokin/asset-sync/internal/domain/asset"
	"github.com/oshokin/asset-sync/internal/logger"
)

// AssetResolver maps a tag to download URLs keyed by platform name.
// Platforms without a matching asset are omitted.
type AssetResolver interface {
	AssetsForTag(ctx context.Context, tag string) (map[string]string, error)
}

// File is a downloadable file attached to a release.
type File struct {
	// Name is the file name shown by the release.
	Name string
	// URL is the direct download location.
	URL string
}

// SelectAssets picks, for every platform, the first file whose name contains the
// platform's match term and none of the excluded substrings.
func SelectAssets(files []File, platforms []asset.Platform, exclude []string) map[string]string {
	result := make(map[string]string, len(platforms))

	for _, platform := range platforms {
		term := platform.MatchTerm()

		for _, f := range files {
			if !strings.Contains(f.Name, term) || containsAny(f.Name, exclude) {
				continue
			}

			result[platform.Name] = f.URL

			break
		}
	}

	return result
}

// TemplateAssets builds one URL per platform from a fixed template.
type TemplateAssets struct {
	template  string
	platforms []asset.Platform
}

// NewTemplateAssets returns TemplateAssets expanding {tag} and {platform} in template.
func NewTemplateAssets(template string, platforms []asset.Platform) *TemplateAssets {
	return &TemplateAssets{template: template, platforms: platforms}
}

// AssetsForTag implements AssetResolver.
func (t *TemplateAssets) AssetsForTag(_ context.Context, tag string) (map[string]string, error) {
	result := make(map[string]string, len(t.platforms))

	for _, platform := range t.platforms {
		result[platform.Name] = strings.NewReplacer(
			"{tag}", tag,
			"{platform}", platform.MatchTerm(),
		).Replace(t.template)
	}

	return result, nil
}

// ReleaseAssets selects platform files from the asset list of a tagged release.
type ReleaseAssets struct {
	client      *github.Client
	owner, repo string
	platforms   []asset.Platform
	exclude     []string
}

// NewReleaseAssets returns ReleaseAssets for owner/repo.
func NewReleaseAssets(client *github.Client, repository string, platforms []asset.Platform, exclude []string) *ReleaseAssets {
	owner, repo := splitRepository(repository)

	return &ReleaseAssets{
		client:    client,
		owner:     owner,
		repo:      repo,
		platforms: platforms,
		exclude:   exclude,
	}
}

// AssetsForTag implements AssetResolver.
func (r *ReleaseAssets) AssetsForTag(ctx context.Context, tag string) (map[string]string, error) {
	rel, _, err := r.client.Repositories.GetReleaseByTag(ctx, r.owner, r.repo, tag)
	if err != nil {
		return nil, fmt.Errorf("release %s of %s/%s: %w: %w", tag, r.owner, r.repo, asset.ErrRemoteUnavailable, err)
	}

	files := make([]File, 0, len(rel.Assets))
	for _, a := range rel.Assets {
		files = append(files, File{Name: a.GetName(), URL: a.GetBrowserDownloadURL()})
	}

	logger.DebugKV(ctx, "Release assets listed", "tag", tag, "count", len(files))

	return SelectAssets(files, r.platforms, r.exclude), nil
}

func containsAny(s string, terms []string) bool {
	for _, term := range terms {
		if term != "" && strings.Contains(s, term) {
			return true
		}
	}

	return false
}
