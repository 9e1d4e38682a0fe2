package models

import (
	"sync"
)

// SearchHistory keeps the most recent distinct queries, oldest first.
// It is owned by the request-handling layer and injected where needed;
// the retrieval pipeline itself never touches it.
type SearchHistory struct {
	mu      sync.Mutex
	max     int
	queries []string
}

// NewSearchHistory creates a history bounded to max entries. A max of
// zero or less falls back to 5.
func NewSearchHistory(max int) *SearchHistory {
	if max <= 0 {
		max = 5
	}
	return &SearchHistory{max: max}
}

// Add records a query. Repeated queries are kept once; when the cap is
// reached the oldest entry is evicted.
func (h *SearchHistory) Add(query string) {
	if query == "" {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for _, q := range h.queries {
		if q == query {
			return
		}
	}

	h.queries = append(h.queries, query)
	if len(h.queries) > h.max {
		h.queries = h.queries[1:]
	}
}

// Recent returns the stored queries, most recent first.
func (h *SearchHistory) Recent() []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]string, 0, len(h.queries))
	for i := len(h.queries) - 1; i >= 0; i-- {
		out = append(out, h.queries[i])
	}
	return out
}
