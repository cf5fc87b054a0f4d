package cache

import (
	"sort"
)

// bytesPerMB converts bytes to megabytes.
const bytesPerMB = 1024 * 1024

// CategoryStats describes the entries of one category at scan time.
type CategoryStats struct {
	TotalEntries   int   `json:"total_entries"`
	ValidEntries   int   `json:"valid_entries"`
	ExpiredEntries int   `json:"expired_entries"`
	SizeBytes      int64 `json:"size_bytes"`
}

// Stats is a point-in-time report over the whole store.
// It is observational: building it never modifies entries.
type Stats struct {
	Enabled        bool                       `json:"enabled"`
	Backend        string                     `json:"backend"`
	Location       string                     `json:"location"`
	Categories     map[Category]CategoryStats `json:"categories"`
	TotalEntries   int                        `json:"total_entries"`
	TotalSizeBytes int64                      `json:"total_size_bytes"`

	// TTLSeconds is the lifetime new entries of each category receive.
	TTLSeconds map[Category]int `json:"ttl_seconds,omitempty"`
}

// TotalSizeMB returns the total size in megabytes.
func (s Stats) TotalSizeMB() float64 {
	return float64(s.TotalSizeBytes) / bytesPerMB
}

// ExpiredEntries sums the expired entries of every category.
func (s Stats) ExpiredEntries() int {
	total := 0
	for _, cs := range s.Categories {
		total += cs.ExpiredEntries
	}
	return total
}

// SortedCategories returns the category names in lexical order.
func (s Stats) SortedCategories() []Category {
	names := make([]Category, 0, len(s.Categories))
	for name := range s.Categories {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

// newStats seeds the report with the default categories so they are always
// listed, even when empty.
func newStats(backendName, location string, perCategory map[Category]CategoryStats) Stats {
	st := Stats{
		Enabled:    true,
		Backend:    backendName,
		Location:   location,
		Categories: make(map[Category]CategoryStats, len(DefaultCategories)+len(perCategory)),
	}
	for _, c := range DefaultCategories {
		st.Categories[c] = CategoryStats{}
	}
	for c, cs := range perCategory {
		st.Categories[c] = cs
		st.TotalEntries += cs.TotalEntries
		st.TotalSizeBytes += cs.SizeBytes
	}
	return st
}
