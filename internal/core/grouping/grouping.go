// Package grouping arranges a flat entry list into ordered groups and keeps
// the observable entry collection in sync with the active sort policy.
package grouping

import (
	"slices"

	"github.com/Ning0612/Cloudbrowse/internal/core/sortpolicy"
	"github.com/Ning0612/Cloudbrowse/internal/domain"
)

// KeyFunc derives the group key of an entry
type KeyFunc func(e *domain.Entry) string

// Arrange sorts entries by policy and partitions the sorted sequence into
// groups by key. Groups appear in the order their key is first met in the
// sorted sequence; a key met again later merges into its existing group.
// When key is nil the policy's own key is used. The input slice is not
// modified.
func Arrange(entries []*domain.Entry, policy sortpolicy.Policy, key KeyFunc) []domain.Grouping {
	groups := []domain.Grouping{}
	if len(entries) == 0 {
		return groups
	}
	if key == nil {
		key = policy.Key
	}

	sorted := Sort(entries, policy)

	index := make(map[string]int)
	for _, e := range sorted {
		k := key(e)
		i, ok := index[k]
		if !ok {
			i = len(groups)
			index[k] = i
			groups = append(groups, domain.Grouping{Key: k})
		}
		groups[i].Entries = append(groups[i].Entries, e)
	}

	return groups
}

// Sort returns a stably sorted copy of entries
func Sort(entries []*domain.Entry, policy sortpolicy.Policy) []*domain.Entry {
	sorted := slices.Clone(entries)
	sortpolicy.SortStable(sorted, policy)
	return sorted
}

// Flatten concatenates the entries of all groups in order
func Flatten(groups []domain.Grouping) []*domain.Entry {
	var n int
	for _, g := range groups {
		n += len(g.Entries)
	}
	out := make([]*domain.Entry, 0, n)
	for _, g := range groups {
		out = append(out, g.Entries...)
	}
	return out
}

// Keys returns the group keys in order
func Keys(groups []domain.Grouping) []string {
	keys := make([]string, len(groups))
	for i, g := range groups {
		keys[i] = g.Key
	}
	return keys
}
