// Package taskqueue provides the bounded FIFO of deferred document edits
// that each server applies lazily before reads and ring changes.
package taskqueue
