package entities

// SearchResult pairs a canonical drug name with its similarity score for a query.
// Results are transient and never persisted.
type SearchResult struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}
