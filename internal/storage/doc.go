// Package storage provides the per-server document store. Documents keep
// their insertion order and are indexed by name; each carries the cached hash
// of its name and the local replica slot that currently claims it.
package storage
