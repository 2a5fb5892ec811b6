package search

import "sort"

// Snapshot is an immutable view of the canonical name set and its derived
// prefix index. Snapshots are built off the serving path and published whole
// via an atomic swap, so readers always see a fully consistent (set, index)
// pair. Version increases with every publish and drives cache invalidation.
type Snapshot struct {
	Version uint64
	Names   []string
	NameSet map[string]struct{}
	Index   *Index
}

// NewSnapshot builds a snapshot from a canonical name set. Names are sorted
// so candidate iteration order, and therefore tie-breaking between equal
// scores, is deterministic.
func NewSnapshot(version uint64, nameSet map[string]struct{}) *Snapshot {
	names := make([]string, 0, len(nameSet))
	for name := range nameSet {
		names = append(names, name)
	}
	sort.Strings(names)

	set := make(map[string]struct{}, len(names))
	for _, name := range names {
		set[name] = struct{}{}
	}

	return &Snapshot{
		Version: version,
		Names:   names,
		NameSet: set,
		Index:   BuildIndex(names),
	}
}
