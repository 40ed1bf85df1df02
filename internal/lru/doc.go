// Package lru implements a fixed-capacity least-recently-used cache.
// A map indexes keys to elements of a recency list ordered from the least
// recently used entry at the front to the most recently used at the back.
package lru
