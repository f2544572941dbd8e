// Package digest provides the concrete hash functions behind the pluggable
// hash boundary.
//
// Every function here is a pure append-style digest: it appends a fixed-size
// output for msg to dst and returns the extended slice. None keep state, so
// they are safe for concurrent use from any number of generation workers.
// Multi-word outputs are serialized big-endian so that the leading bytes are
// the most significant bits of the hash, matching how prefixes are read.
package digest

import (
	"crypto/sha256"
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
	metro "github.com/dgryski/go-metro"
	"github.com/spaolacci/murmur3"
	"github.com/zeebo/xxh3"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/sha3"
)

// Output sizes in bytes.
const (
	SHA256Size     = sha256.Size
	SHA3_256Size   = 32
	BLAKE2b256Size = blake2b.Size256
	XXH3Size       = 16
	XXHash64Size   = 8
	Murmur3Size    = 16
	Metro128Size   = 16
)

// SHA256 appends the SHA-256 digest of msg to dst.
func SHA256(dst, msg []byte) []byte {
	h := sha256.Sum256(msg)
	return append(dst, h[:]...)
}

// SHA3_256 appends the SHA3-256 digest of msg to dst.
func SHA3_256(dst, msg []byte) []byte {
	h := sha3.Sum256(msg)
	return append(dst, h[:]...)
}

// BLAKE2b256 appends the unkeyed BLAKE2b-256 digest of msg to dst.
func BLAKE2b256(dst, msg []byte) []byte {
	h := blake2b.Sum256(msg)
	return append(dst, h[:]...)
}

// XXH3 appends the 128-bit xxHash3 of msg to dst.
func XXH3(dst, msg []byte) []byte {
	h := xxh3.Hash128(msg).Bytes()
	return append(dst, h[:]...)
}

// XXHash64 appends the 64-bit xxHash of msg to dst.
func XXHash64(dst, msg []byte) []byte {
	return binary.BigEndian.AppendUint64(dst, xxhash.Sum64(msg))
}

// Murmur3 appends the 128-bit MurmurHash3 (x64 variant, seed 0) of msg to dst.
func Murmur3(dst, msg []byte) []byte {
	h1, h2 := murmur3.Sum128(msg)
	dst = binary.BigEndian.AppendUint64(dst, h1)
	return binary.BigEndian.AppendUint64(dst, h2)
}

// Metro128 appends the 128-bit MetroHash (seed 0) of msg to dst.
func Metro128(dst, msg []byte) []byte {
	h1, h2 := metro.Hash128(msg, 0)
	dst = binary.BigEndian.AppendUint64(dst, h1)
	return binary.BigEndian.AppendUint64(dst, h2)
}
