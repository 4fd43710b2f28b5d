package asset

import (
	"maps"
	"slices"
)

// NeverInstalled is the sentinel tag for an asset that has no installed release.
const NeverInstalled = "0"

// Record maps an asset name to the last installed tag.
type Record map[string]string

// NewRecord returns a record with every known asset mapped to NeverInstalled.
func NewRecord(names ...string) Record {
	record := make(Record, len(names))
	for _, name := range names {
		record[name] = NeverInstalled
	}

	return record
}

// Tag returns the stored tag for name, or NeverInstalled when absent or blank.
func (r Record) Tag(name string) string {
	if tag, ok := r[name]; ok && tag != "" {
		return tag
	}

	return NeverInstalled
}

// Clone returns a copy of the record so callers can mutate it independently.
func (r Record) Clone() Record {
	if r == nil {
		return Record{}
	}

	return maps.Clone(r)
}

// Names returns the asset names in the record, sorted.
func (r Record) Names() []string {
	return slices.Sorted(maps.Keys(r))
}

// NeedsUpdate reports whether remoteTag is newer than the stored tag for name.
// A nil comparator falls back to LexicalCompare.
func (r Record) NeedsUpdate(name, remoteTag string, compare TagComparator) bool {
	if compare == nil {
		compare = LexicalCompare
	}

	return IsNewer(r.Tag(name), remoteTag, compare)
}
