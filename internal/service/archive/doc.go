// Package archive installs a downloaded release archive as the active tree of a platform.
//
// An install extracts into a hidden staging directory next to the target, locates the
// payload subtree by glob, and swaps it into place with directory renames so readers
// only ever observe the previous tree or the new one.
package archive
