// Package cache provides the persistent TTL cache that sits in front of every
// YouTube Data API call.
//
// The cache exists to cut quota consumption: each category of remote data
// (video metadata, comment pages, search results) is stored under a SHA-256
// key with its own time-to-live. Key features:
//   - Store: category-partitioned entries on disk (JSON files) or in SQLite
//   - Lazy expiry: expired entries read as misses and stay on disk until swept
//   - Atomic per-key writes (temp file + rename, or a single SQL upsert)
//   - FetchCache: a cache-first decorator around one remote operation that
//     coalesces concurrent misses for the same key into a single call
//
// Cache failures never fail the caller: read errors degrade to misses and
// write errors are logged and dropped. Only explicit maintenance operations
// (Invalidate, Clear, SweepExpired) report I/O errors.
package cache
