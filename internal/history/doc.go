// Package history derives filtered and sorted views, aggregate statistics and
// CSV exports from a bounded set of trade records.
//
// The pipeline always runs in the same order:
//
//  1. side filter ("all" keeps everything)
//  2. date range (timestamp >= now - N days, inclusive)
//  3. free-text search over market name and market id
//  4. stable sort by a single key
//
// Statistics are recomputed from the pipeline output on every call and are
// never stored.
package history
