// Package crawler implements the word-counting crawl engine: the shared
// admission set and word accumulator, the recursive fork-join traversal, and
// the Engine that runs one traversal per seed URL and returns the aggregate.
package crawler
