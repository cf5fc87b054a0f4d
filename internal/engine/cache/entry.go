package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"time"
)

// Category names a partition of the cache holding one kind of remote data.
type Category string

// Built-in categories. The set is open: any name matching [a-z0-9_-]+ is accepted.
const (
	CategoryMetadata Category = "metadata"
	CategoryComments Category = "comments"
	CategorySearch   Category = "search"

	// CategoryAll selects every category in Clear.
	CategoryAll Category = ""
)

// DefaultCategories lists the categories always reported by Stats.
//
//nolint:gochecknoglobals // Read-only list of built-in categories.
var DefaultCategories = []Category{CategoryMetadata, CategoryComments, CategorySearch}

var categoryPattern = regexp.MustCompile(`^[a-z0-9_-]+$`)

// ErrInvalidCategory is returned for category names outside [a-z0-9_-]+.
var ErrInvalidCategory = errors.New("invalid cache category")

// Validate reports whether c is usable as a storage partition name.
func (c Category) Validate() error {
	if !categoryPattern.MatchString(string(c)) {
		return fmt.Errorf("%w: %q", ErrInvalidCategory, string(c))
	}
	return nil
}

// String implements fmt.Stringer.
func (c Category) String() string {
	if c == CategoryAll {
		return "all"
	}
	return string(c)
}

// Entry is a single cached payload with its TTL metadata.
// Entries are immutable once written; a Put for the same key replaces the
// whole entry.
type Entry struct {
	// Key is the SHA-256 digest of category and identifier.
	Key string `json:"key"`

	// Category is the partition the entry belongs to.
	Category Category `json:"category"`

	// Identifier is the natural identifier the key was derived from.
	Identifier string `json:"identifier"`

	// Payload is the cached value, opaque to the store.
	Payload json.RawMessage `json:"payload"`

	// CreatedAt is when the entry was written.
	CreatedAt time.Time `json:"created_at"`

	// TTLSeconds is the lifetime assigned at write time.
	TTLSeconds int `json:"ttl_seconds"`
}

// NewEntry creates an entry stamped with now.
func NewEntry(category Category, identifier string, payload json.RawMessage, ttlSeconds int, now time.Time) *Entry {
	return &Entry{
		Key:        GenerateKey(category, identifier),
		Category:   category,
		Identifier: identifier,
		Payload:    payload,
		CreatedAt:  now,
		TTLSeconds: ttlSeconds,
	}
}

// TTL returns the entry lifetime as a duration.
func (e *Entry) TTL() time.Duration {
	return time.Duration(e.TTLSeconds) * time.Second
}

// ExpiresAt returns the first instant at which the entry is no longer valid.
func (e *Entry) ExpiresAt() time.Time {
	return e.CreatedAt.Add(e.TTL())
}

// IsValidAt reports whether the entry is still live at now.
// An entry is valid iff now - CreatedAt < TTL.
func (e *Entry) IsValidAt(now time.Time) bool {
	return now.Sub(e.CreatedAt) < e.TTL()
}

// MarshalJSON writes CreatedAt with nanosecond precision so TTL boundaries
// survive a round trip through disk.
func (e *Entry) MarshalJSON() ([]byte, error) {
	type Alias Entry
	return json.Marshal(&struct {
		*Alias

		CreatedAt string `json:"created_at"`
	}{
		Alias:     (*Alias)(e),
		CreatedAt: e.CreatedAt.UTC().Format(time.RFC3339Nano),
	})
}

// UnmarshalJSON parses entries written by MarshalJSON.
func (e *Entry) UnmarshalJSON(data []byte) error {
	if e == nil {
		return errors.New("cannot unmarshal into nil Entry")
	}
	type Alias Entry
	aux := &struct {
		*Alias

		CreatedAt string `json:"created_at"`
	}{
		Alias: (*Alias)(e),
	}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	created, err := time.Parse(time.RFC3339Nano, aux.CreatedAt)
	if err != nil {
		return fmt.Errorf("parsing created_at: %w", err)
	}
	e.CreatedAt = created
	return nil
}
