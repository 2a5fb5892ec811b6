package search

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aroovee/rxmindr-sub000/entities"
	"github.com/aroovee/rxmindr-sub000/metrics"
)

const (
	queryPrefixLen    = 3
	minCandidateCount = 20

	// The seed fast path serves while the catalog is still streaming in, so
	// it uses a stricter cutoff than the fully indexed path.
	scoreThreshold     = 0.25
	seedScoreThreshold = 0.3
)

// Store provides the current catalog snapshots to the search service.
// Implemented by data.CatalogContainer.
type Store interface {
	GetSnapshot() *Snapshot
	GetSeedSnapshot() *Snapshot
	IsLoaded() bool
}

// Service is the public fuzzy-search API over the catalog. It is safe for
// concurrent use: snapshots are immutable and the query cache synchronizes
// its own access.
type Service struct {
	store      Store
	cache      *queryCache
	maxResults int
}

// NewService creates a search service. Capacity and result limits must be
// positive; a misconfigured limit is a programming error surfaced at
// construction time, not at query time.
func NewService(store Store, cacheSize, maxResults int) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("search: nil store")
	}
	if cacheSize < 1 {
		return nil, fmt.Errorf("search: cache size must be positive, got %d", cacheSize)
	}
	if maxResults < 1 {
		return nil, fmt.Errorf("search: max results must be positive, got %d", maxResults)
	}

	return &Service{
		store:      store,
		cache:      newQueryCache(cacheSize),
		maxResults: maxResults,
	}, nil
}

// Search resolves a free-text query against the canonical name set and
// returns results sorted by descending score. An empty or whitespace query
// yields an empty list; "no results" is never an error.
func (s *Service) Search(query string) []entities.SearchResult {
	normalized := strings.ToLower(strings.TrimSpace(query))
	if normalized == "" {
		return []entities.SearchResult{}
	}

	// While the full catalog is still streaming in, rank only the seed
	// subset. Search never blocks on the load.
	if !s.store.IsLoaded() {
		metrics.SearchRequestsTotal.WithLabelValues("seed").Inc()
		seed := s.store.GetSeedSnapshot()
		if seed == nil {
			return []entities.SearchResult{}
		}
		return s.rank(normalized, seed.Names, seedScoreThreshold)
	}

	snap := s.store.GetSnapshot()
	if snap == nil {
		return []entities.SearchResult{}
	}

	if cached, ok := s.cache.Get(normalized, snap.Version); ok {
		metrics.SearchRequestsTotal.WithLabelValues("cached").Inc()
		return cached
	}

	prefix := queryPrefix(normalized)
	candidates := snap.Index.Lookup(prefix)
	servedBy := "indexed"

	if len(candidates) < minCandidateCount {
		candidates = snap.Index.Widen(prefix)
	}
	if len(candidates) == 0 {
		candidates = snap.Names
		servedBy = "full_scan"
	}
	metrics.SearchRequestsTotal.WithLabelValues(servedBy).Inc()

	results := s.rank(normalized, candidates, scoreThreshold)

	s.cache.Put(normalized, snap.Version, results)
	metrics.SearchCacheEntries.Set(float64(s.cache.Len()))

	return results
}

// rank scores every candidate against the query, drops everything at or
// below the threshold, and returns a sorted, truncated result list.
func (s *Service) rank(query string, candidates []string, threshold float64) []entities.SearchResult {
	results := make([]entities.SearchResult, 0, minCandidateCount)

	for _, name := range candidates {
		score := Score(query, strings.ToLower(name))
		if score > threshold {
			results = append(results, entities.SearchResult{Name: name, Score: score})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if len(results) > s.maxResults {
		results = results[:s.maxResults]
	}
	return results
}

// queryPrefix returns the first three runes of the normalized query, or the
// whole query when shorter.
func queryPrefix(query string) string {
	runes := []rune(query)
	if len(runes) > queryPrefixLen {
		runes = runes[:queryPrefixLen]
	}
	return string(runes)
}
