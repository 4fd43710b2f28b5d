// Package release resolves the latest upstream tag of an asset and the
// download URLs of that tag for every platform the asset is vendored for.
//
// Tags come from the "latest release" redirect of the web UI, from the tag
// listing API or from the latest-release API. URLs come from a fixed template
// or from the asset list of the tagged release, filtered per platform.
package release
