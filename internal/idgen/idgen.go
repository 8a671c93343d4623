// Package idgen allocates entity IDs that are safe to use without waiting for
// the server. Each time a budget is opened the server hands out a numeric
// prefix (a multiple of SafeIDSuffix) that no other open session shares, so
// concurrently editing clients never mint the same ID.
package idgen

import "github.com/bradenmacdonald/ratio/internal/domain"

// SafeIDSuffix is the size of the ID block reserved for each budget open.
// A session's prefix is openCount * SafeIDSuffix.
const SafeIDSuffix int64 = 1_000_000

// PrefixForOpen returns the ID prefix for the n-th open of a budget.
func PrefixForOpen(openCount int64) int64 {
	return openCount * SafeIDSuffix
}

// NextID returns the smallest unused ID at or above prefix for the given
// collection; a fresh block starts at the prefix itself. Scanning past
// existing IDs keeps allocation correct even when the document already
// contains IDs inside this session's block, e.g. after the document was
// imported or the prefix wrapped through old data.
func NextID(b domain.Budget, collection string, prefix int64) int64 {
	id := prefix
	for b.HasID(collection, id) {
		id++
	}
	return id
}
