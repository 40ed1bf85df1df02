// Package hashing provides the 32-bit hash functions used to place documents
// and server replicas on the ring. Hashes are stable within a process; the
// exact algorithm is selectable and is not part of any wire contract.
package hashing
