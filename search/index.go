package search

import "strings"

const (
	minPrefixLen = 2
	maxPrefixLen = 5
)

// Index is a prefix inverted index: lowercase prefixes of length 2 to 5
// mapped to the canonical names sharing that prefix. An index is built once
// and never mutated afterwards, so it is safe to share across goroutines.
type Index struct {
	buckets map[string][]string
}

// BuildIndex constructs a fresh index over the given canonical names.
// Every name of length >= 2 is registered under each of its prefixes of
// length 2..min(5, len(name)). Rebuilds always start from scratch; there is
// no incremental diffing.
func BuildIndex(names []string) *Index {
	idx := &Index{buckets: make(map[string][]string)}

	for _, name := range names {
		lower := strings.ToLower(name)
		runes := []rune(lower)
		if len(runes) < minPrefixLen {
			continue
		}

		limit := maxPrefixLen
		if len(runes) < limit {
			limit = len(runes)
		}

		for length := minPrefixLen; length <= limit; length++ {
			prefix := string(runes[:length])
			idx.buckets[prefix] = append(idx.buckets[prefix], name)
		}
	}

	return idx
}

// Lookup returns the canonical names registered under the exact prefix.
// The returned slice is shared; callers must not mutate it.
func (idx *Index) Lookup(prefix string) []string {
	return idx.buckets[strings.ToLower(prefix)]
}

// Widen unions in every bucket whose key is a substring of the query prefix
// or vice versa. Used when the exact bucket is too sparse to rank from.
func (idx *Index) Widen(prefix string) []string {
	prefix = strings.ToLower(prefix)
	seen := make(map[string]struct{})
	var names []string

	for key, bucket := range idx.buckets {
		if !strings.Contains(key, prefix) && !strings.Contains(prefix, key) {
			continue
		}
		for _, name := range bucket {
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			names = append(names, name)
		}
	}

	return names
}

// Size returns the number of prefix buckets.
func (idx *Index) Size() int {
	return len(idx.buckets)
}
