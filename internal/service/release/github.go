package release

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/go-github/v50/github"

	"github.com/oshokin/asset-sync/internal/version"
)

// newGitHubClient returns a REST client rooted at apiURL.
func newGitHubClient(httpClient *http.Client, apiURL string) (*github.Client, error) {
	if !strings.HasSuffix(apiURL, "/") {
		apiURL += "/"
	}

	base, err := url.Parse(apiURL)
	if err != nil {
		return nil, fmt.Errorf("parse api url: %w", err)
	}

	client := github.NewClient(httpClient)
	client.BaseURL = base
	client.UserAgent = version.UserAgent()

	return client, nil
}

// splitRepository splits "owner/repo".
func splitRepository(repository string) (string, string) {
	owner, repo, _ := strings.Cut(repository, "/")

	return owner, repo
}
