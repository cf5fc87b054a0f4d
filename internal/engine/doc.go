// Package engine holds the youseo domain model and the cache-aware fetch
// pipeline shared by the analyze and batch commands.
//
// Engine wraps an EntityFetcher with one cache.FetchCache per remote
// operation, so every call to the YouTube API goes through the local cache.
// DefaultAnalyzer and BaselineRecommender are the collaborators used when the
// caller does not supply its own.
package engine
