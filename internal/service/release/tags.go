package release

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/google/go-github/v50/github"

	"github.com/oshokin/asset-sync/internal/domain/asset"
	"github.com/oshokin/asset-sync/internal/logger"
	"github.com/oshokin/asset-sync/internal/version"
)

// TagResolver resolves the most recent upstream tag.
type TagResolver interface {
	LatestTag(ctx context.Context) (string, error)
}

// RedirectResolver follows the "latest release" page redirect and reads the
// tag from the final URL's trailing path segment.
type RedirectResolver struct {
	client    *http.Client
	latestURL string
}

// NewRedirectResolver returns a RedirectResolver for latestURL.
func NewRedirectResolver(client *http.Client, latestURL string) *RedirectResolver {
	return &RedirectResolver{client: client, latestURL: latestURL}
}

// LatestTag implements TagResolver.
func (r *RedirectResolver) LatestTag(ctx context.Context) (string, error) {
	logger.InfoKV(ctx, "Requesting tag information", "url", r.latestURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.latestURL, http.NoBody)
	if err != nil {
		return "", fmt.Errorf("latest release request: %w: %w", asset.ErrRemoteUnavailable, err)
	}

	req.Header.Set("User-Agent", version.UserAgent())

	response, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("latest release %s: %w: %w", r.latestURL, asset.ErrRemoteUnavailable, err)
	}

	defer func() {
		_, _ = io.Copy(io.Discard, io.LimitReader(response.Body, maxDrainBytes))
		_ = response.Body.Close()
	}()

	if response.StatusCode != http.StatusOK {
		return "", fmt.Errorf("latest release %s, %s: %w", r.latestURL, response.Status, asset.ErrRemoteUnavailable)
	}

	finalURL := response.Request.URL
	logger.InfoKV(ctx, "Response url", "url", finalURL.String())

	tag := path.Base(strings.TrimSuffix(finalURL.Path, "/"))
	if tag == "" || tag == "." || tag == "/" || tag == "latest" || tag == "releases" {
		return "", fmt.Errorf("latest release %s was not redirected to a tag: %w", r.latestURL, asset.ErrRemoteUnavailable)
	}

	return tag, nil
}

// TagListResolver takes the first (most recent) entry of the repository tag list.
type TagListResolver struct {
	client      *github.Client
	owner, repo string
}

// NewTagListResolver returns a TagListResolver for owner/repo.
func NewTagListResolver(client *github.Client, repository string) *TagListResolver {
	owner, repo := splitRepository(repository)

	return &TagListResolver{client: client, owner: owner, repo: repo}
}

// LatestTag implements TagResolver.
func (r *TagListResolver) LatestTag(ctx context.Context) (string, error) {
	logger.InfoKV(ctx, "Requesting tag list", "repository", r.owner+"/"+r.repo)

	tags, _, err := r.client.Repositories.ListTags(ctx, r.owner, r.repo, &github.ListOptions{PerPage: 1})
	if err != nil {
		return "", fmt.Errorf("list tags of %s/%s: %w: %w", r.owner, r.repo, asset.ErrRemoteUnavailable, err)
	}

	if len(tags) == 0 || tags[0].GetName() == "" {
		return "", fmt.Errorf("%s/%s has no tags: %w", r.owner, r.repo, asset.ErrRemoteUnavailable)
	}

	return tags[0].GetName(), nil
}

// LatestReleaseResolver reads the tag of the release marked latest by the API.
type LatestReleaseResolver struct {
	client      *github.Client
	owner, repo string
}

// NewLatestReleaseResolver returns a LatestReleaseResolver for owner/repo.
func NewLatestReleaseResolver(client *github.Client, repository string) *LatestReleaseResolver {
	owner, repo := splitRepository(repository)

	return &LatestReleaseResolver{client: client, owner: owner, repo: repo}
}

// LatestTag implements TagResolver.
func (r *LatestReleaseResolver) LatestTag(ctx context.Context) (string, error) {
	logger.InfoKV(ctx, "Requesting latest release", "repository", r.owner+"/"+r.repo)

	rel, _, err := r.client.Repositories.GetLatestRelease(ctx, r.owner, r.repo)
	if err != nil {
		return "", fmt.Errorf("latest release of %s/%s: %w: %w", r.owner, r.repo, asset.ErrRemoteUnavailable, err)
	}

	if rel.GetTagName() == "" {
		return "", fmt.Errorf("latest release of %s/%s has no tag: %w", r.owner, r.repo, asset.ErrRemoteUnavailable)
	}

	return rel.GetTagName(), nil
}
