// Package types defines the core data model shared by every engine package:
// embeddings (StoreKey), their content-addressed id (StoreKeyId), metadata
// values (MetadataValue) and the predicate condition grammar used to filter
// by them.
package types

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/zeebo/blake3"
)

// StoreKey is a fixed-length embedding: a sequence of 32-bit floats. Every
// key inserted into a given store must have exactly that store's declared
// dimension.
type StoreKey []float32

// StoreKeyId is the content hash of a StoreKey: a BLAKE3 digest over the
// raw little-endian float32 bytes. Two keys with identical components
// always hash to the same id, which is what makes a second insert of an
// equal key an update rather than a new row.
type StoreKeyId [32]byte

// NewStoreKeyId computes the deterministic id of a StoreKey.
func NewStoreKeyId(key StoreKey) StoreKeyId {
	buf := make([]byte, 4*len(key))
	for i, f := range key {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return StoreKeyId(blake3.Sum256(buf))
}

// String renders the first 8 bytes of the id as hex, matching how the
// teacher renders node/shard ids in logs.
func (id StoreKeyId) String() string {
	return fmt.Sprintf("%x", [32]byte(id)[:8])
}

// MetadataValueKind tags a MetadataValue's payload.
type MetadataValueKind int

const (
	MetadataRawString MetadataValueKind = iota
	MetadataBinary
)

// MetadataValue is a tagged union: either a raw string or a binary blob.
type MetadataValue struct {
	Kind MetadataValueKind
	Str  string
	Blob []byte
}

func RawString(s string) MetadataValue { return MetadataValue{Kind: MetadataRawString, Str: s} }
func Binary(b []byte) MetadataValue    { return MetadataValue{Kind: MetadataBinary, Blob: b} }

// Equal reports whether two metadata values carry the same tag and payload.
func (v MetadataValue) Equal(other MetadataValue) bool {
	if v.Kind != other.Kind {
		return false
	}
	if v.Kind == MetadataRawString {
		return v.Str == other.Str
	}
	return bytes.Equal(v.Blob, other.Blob)
}

// Key returns a comparable representation usable as a Go map key (metadata
// values are small enough in practice that this copy is cheap).
func (v MetadataValue) Key() string {
	if v.Kind == MetadataRawString {
		return "s:" + v.Str
	}
	return "b:" + string(v.Blob)
}

// StoreValue maps metadata keys to metadata values. Insertion order is not
// observable, matching spec §3.
type StoreValue map[string]MetadataValue

// Clone returns a shallow copy safe to hand to a caller without aliasing the
// stored map.
func (v StoreValue) Clone() StoreValue {
	out := make(StoreValue, len(v))
	for k, val := range v {
		out[k] = val
	}
	return out
}
