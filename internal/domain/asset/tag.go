package asset

import (
	"fmt"
	"strings"

	"golang.org/x/mod/semver"
)

const (
	// CompareLexical orders tags as plain strings.
	CompareLexical = "lexical"
	// CompareSemver orders tags as semantic versions, falling back to lexical order.
	CompareSemver = "semver"
)

// TagComparator returns a negative number when a < b, zero when equal and positive when a > b.
type TagComparator func(a, b string) int

// LexicalCompare is the default policy: tags are opaque and increase monotonically,
// which ordinary string ordering approximates. "v1.10" sorts before "v1.9" under it.
func LexicalCompare(a, b string) int {
	return strings.Compare(a, b)
}

// SemverCompare orders tags that parse as semantic versions (with or without a
// leading "v"); anything else is compared lexically.
func SemverCompare(a, b string) int {
	ca, cb := canonicalSemver(a), canonicalSemver(b)
	if ca == "" || cb == "" {
		return LexicalCompare(a, b)
	}

	return semver.Compare(ca, cb)
}

// ComparatorFor resolves a configured comparison policy name.
func ComparatorFor(name string) (TagComparator, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", CompareLexical:
		return LexicalCompare, nil
	case CompareSemver:
		return SemverCompare, nil
	default:
		return nil, fmt.Errorf("tag comparison %q: %w", name, errUnknownComparator)
	}
}

// IsNewer reports whether remote is newer than local under compare.
// The NeverInstalled sentinel is older than any non-empty remote tag.
func IsNewer(local, remote string, compare TagComparator) bool {
	if remote == "" {
		return false
	}

	if local == "" || local == NeverInstalled {
		return remote != NeverInstalled
	}

	return compare(remote, local) > 0
}

func canonicalSemver(tag string) string {
	if !strings.HasPrefix(tag, "v") {
		tag = "v" + tag
	}

	if !semver.IsValid(tag) {
		return ""
	}

	return semver.Canonical(tag)
}
