// Package youtube adapts the YouTube Data API v3 to engine.EntityFetcher.
//
// Client maps googleapi errors onto the engine error classes. QuotaGuard
// wraps any fetcher in a circuit breaker that opens on the first quota
// error, so a batch stops spending requests once the daily quota is gone
// while cached items keep succeeding.
package youtube
