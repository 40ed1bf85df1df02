// Package server implements a single document server: a bounded LRU cache
// in front of a local document store, and a lazy queue of edits that is
// drained before any read is served or any migration inspects the store.
package server
