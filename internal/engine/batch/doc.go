// Package batch runs the fetch, analyze and recommend pipeline over many
// videos.
//
// Each input becomes one Item that moves from pending to succeeded or failed
// exactly once. Items run on a bounded worker pool, results keep input order,
// and a failing item never aborts the run. Summarize and ToTable turn the
// finished items into comparative statistics and flat export rows.
package batch
