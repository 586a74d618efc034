// Package frontier holds the crawl queue and the per-seed visited set.
//
// The queue is a plain FIFO owned by a single crawl loop. Visited sets are
// created through a Store, once per seed, so that a URL reached from two
// different seeds is crawled under each of them. The default store is in
// memory; the redis backend keeps each set under
// <prefix>:<run-id>:visited:<seed-hash> with a TTL.
package frontier
