package hashing

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Hasher hashes document names and replica labels onto the ring.
type Hasher interface {
	// Document returns the ring position of a document name.
	Document(name string) uint32
	// Replica returns the ring position of a replica label.
	Replica(label uint32) uint32
}

// XXHash folds 64-bit xxhash digests into 32 bits.
type XXHash struct{}

func (XXHash) Document(name string) uint32 {
	return fold(xxhash.Sum64String(name))
}

func (XXHash) Replica(label uint32) uint32 {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], label)
	return fold(xxhash.Sum64(buf[:]))
}

// FNV uses 32-bit FNV-1a.
type FNV struct{}

func (FNV) Document(name string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(name))
	return h.Sum32()
}

func (FNV) Replica(label uint32) uint32 {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], label)
	h := fnv.New32a()
	h.Write(buf[:])
	return h.Sum32()
}

// Default is the hasher used when none is configured.
var Default Hasher = XXHash{}

// ByName returns the hasher registered under name ("xxhash" or "fnv").
// An empty name selects Default.
func ByName(name string) (Hasher, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "xxhash":
		return XXHash{}, nil
	case "fnv", "fnv1a":
		return FNV{}, nil
	default:
		return nil, fmt.Errorf("unknown hash function %q", name)
	}
}

func fold(h uint64) uint32 {
	return uint32(h) ^ uint32(h>>32)
}
