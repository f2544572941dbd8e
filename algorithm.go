package birthday

import (
	"fmt"
	"strings"

	birthdayerrors "github.com/tamirms/birthday/errors"
	"github.com/tamirms/birthday/internal/digest"
)

// HashAlgorithm identifies a built-in hash function.
type HashAlgorithm uint16

const (
	// AlgoSHA256 is SHA-256 (32-byte digest). The default.
	AlgoSHA256 HashAlgorithm = iota

	// AlgoSHA3_256 is SHA3-256 (32-byte digest).
	AlgoSHA3_256

	// AlgoBLAKE2b256 is unkeyed BLAKE2b-256 (32-byte digest).
	AlgoBLAKE2b256

	// AlgoXXH3 is 128-bit xxHash3 (16-byte digest). Not cryptographic.
	AlgoXXH3

	// AlgoXXHash64 is 64-bit xxHash (8-byte digest). Not cryptographic.
	AlgoXXHash64

	// AlgoMurmur3 is 128-bit MurmurHash3 (16-byte digest). Not cryptographic.
	AlgoMurmur3

	// AlgoMetro128 is 128-bit MetroHash (16-byte digest). Not cryptographic.
	AlgoMetro128
)

var algorithmNames = [...]string{
	AlgoSHA256:     "sha256",
	AlgoSHA3_256:   "sha3_256",
	AlgoBLAKE2b256: "blake2b_256",
	AlgoXXH3:       "xxh3_128",
	AlgoXXHash64:   "xxhash64",
	AlgoMurmur3:    "murmur3_128",
	AlgoMetro128:   "metro128",
}

// String returns the algorithm name accepted by ParseAlgorithm.
func (a HashAlgorithm) String() string {
	if int(a) < len(algorithmNames) {
		return algorithmNames[a]
	}
	return "unknown"
}

// Algorithms returns the names of all built-in algorithms.
func Algorithms() []string {
	return append([]string(nil), algorithmNames[:]...)
}

// ParseAlgorithm maps a name to a built-in algorithm.
// Matching is case-insensitive and treats '-' like '_'.
func ParseAlgorithm(name string) (HashAlgorithm, error) {
	norm := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "-", "_")
	for id, n := range algorithmNames {
		if n == norm {
			return HashAlgorithm(id), nil
		}
	}
	return 0, fmt.Errorf("%w: %q (supported: %s)",
		birthdayerrors.ErrUnknownAlgorithm, name, strings.Join(algorithmNames[:], ", "))
}

// Hasher is the hash-function boundary: a deterministic function from a
// message to a fixed-size digest.
//
// # Thread Safety
//
// Implementations must be safe for concurrent use. Generation workers share
// one Hasher and call AppendDigest from many goroutines at once.
type Hasher interface {
	// Name identifies the function in reports and file names.
	Name() string

	// Size returns the digest length in bytes. Constant for a Hasher.
	Size() int

	// AppendDigest appends the digest of msg to dst and returns the
	// extended slice. Must append exactly Size() bytes.
	AppendDigest(dst, msg []byte) []byte
}

// funcHasher adapts a stateless append-style digest function to Hasher.
type funcHasher struct {
	name string
	size int
	fn   func(dst, msg []byte) []byte
}

func (h funcHasher) Name() string                        { return h.name }
func (h funcHasher) Size() int                           { return h.size }
func (h funcHasher) AppendDigest(dst, msg []byte) []byte { return h.fn(dst, msg) }

// HasherFunc wraps fn as a Hasher with the given name and digest size.
// fn must be safe for concurrent use and append exactly size bytes.
func HasherFunc(name string, size int, fn func(dst, msg []byte) []byte) Hasher {
	return funcHasher{name: name, size: size, fn: fn}
}

// NewHasher returns the Hasher for a built-in algorithm.
func NewHasher(a HashAlgorithm) (Hasher, error) {
	switch a {
	case AlgoSHA256:
		return funcHasher{a.String(), digest.SHA256Size, digest.SHA256}, nil
	case AlgoSHA3_256:
		return funcHasher{a.String(), digest.SHA3_256Size, digest.SHA3_256}, nil
	case AlgoBLAKE2b256:
		return funcHasher{a.String(), digest.BLAKE2b256Size, digest.BLAKE2b256}, nil
	case AlgoXXH3:
		return funcHasher{a.String(), digest.XXH3Size, digest.XXH3}, nil
	case AlgoXXHash64:
		return funcHasher{a.String(), digest.XXHash64Size, digest.XXHash64}, nil
	case AlgoMurmur3:
		return funcHasher{a.String(), digest.Murmur3Size, digest.Murmur3}, nil
	case AlgoMetro128:
		return funcHasher{a.String(), digest.Metro128Size, digest.Metro128}, nil
	}
	return nil, fmt.Errorf("%w: algorithm ID %d", birthdayerrors.ErrUnknownAlgorithm, a)
}
