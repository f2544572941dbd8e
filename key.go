package birthday

import (
	"encoding/binary"
	"fmt"

	birthdayerrors "github.com/tamirms/birthday/errors"
)

const (
	// maxPrefixBits is the widest prefix a Key can carry in its high word.
	maxPrefixBits = 64

	// messageSize is the byte length of a sample as fed to the hash function.
	messageSize = 8

	// keySize is the serialized size of a Key in a run file.
	keySize = 16
)

// Key is a packed (prefix, sample) record: the 128-bit integer
// (prefix << 64) | sample, held as two machine words.
//
// Ordering Keys by (Hi, Lo) is the numeric ordering of that integer, which
// is the lexicographic ordering by (prefix, sample). Sorting Keys therefore
// groups equal prefixes together, and within a prefix orders by sample.
type Key struct {
	Hi uint64 // prefix
	Lo uint64 // sample
}

// Compare returns -1, 0 or +1 as k is less than, equal to or greater than o.
func (k Key) Compare(o Key) int {
	switch {
	case k.Hi < o.Hi:
		return -1
	case k.Hi > o.Hi:
		return 1
	case k.Lo < o.Lo:
		return -1
	case k.Lo > o.Lo:
		return 1
	}
	return 0
}

// Prefix returns the truncated digest prefix stored in k.
func (k Key) Prefix() uint64 { return k.Hi }

// Sample returns the message stored in k.
func (k Key) Sample() uint64 { return k.Lo }

// String formats k as a 128-bit hex integer.
func (k Key) String() string {
	return fmt.Sprintf("%016x%016x", k.Hi, k.Lo)
}

// Codec packs (prefix, sample) pairs for a fixed prefix width.
// A Codec is a small value and safe for concurrent use.
type Codec struct {
	bits      int
	byteLen   int    // ceil(bits/8): digest bytes read for the prefix
	surplus   uint   // bits dropped from the last digest byte read
	prefixMax uint64 // largest prefix value that fits in bits
}

// NewCodec returns a Codec for prefixes of prefixBits bits.
// prefixBits must be in [1, 64].
func NewCodec(prefixBits int) (Codec, error) {
	if prefixBits <= 0 || prefixBits > maxPrefixBits {
		return Codec{}, fmt.Errorf("%w: %d bits (want 1..%d)",
			birthdayerrors.ErrInvalidPrefixWidth, prefixBits, maxPrefixBits)
	}
	byteLen := (prefixBits + 7) / 8
	return Codec{
		bits:      prefixBits,
		byteLen:   byteLen,
		surplus:   uint(byteLen*8 - prefixBits),
		prefixMax: ^uint64(0) >> (maxPrefixBits - prefixBits),
	}, nil
}

// Bits returns the prefix width in bits.
func (c Codec) Bits() int { return c.bits }

// Encode packs prefix and sample into a Key.
// Returns ErrValueTooWide if prefix does not fit in the codec's width.
func (c Codec) Encode(prefix, sample uint64) (Key, error) {
	if prefix > c.prefixMax {
		return Key{}, fmt.Errorf("%w: 0x%x does not fit in %d bits",
			birthdayerrors.ErrValueTooWide, prefix, c.bits)
	}
	return Key{Hi: prefix, Lo: sample}, nil
}

// Decode unpacks a Key into its prefix and sample.
func (c Codec) Decode(k Key) (prefix, sample uint64) {
	return k.Hi, k.Lo
}

// Prefix truncates a digest to the codec's width: the first ceil(bits/8)
// bytes read big-endian, shifted right by the surplus bits.
// Precondition: len(digest) >= ceil(bits/8).
func (c Codec) Prefix(digest []byte) uint64 {
	var v uint64
	if c.byteLen == 8 {
		v = binary.BigEndian.Uint64(digest)
	} else {
		for _, b := range digest[:c.byteLen] {
			v = v<<8 | uint64(b)
		}
	}
	return v >> c.surplus
}

// Width returns the number of hex characters covered by the prefix,
// rounded up.
func (c Codec) Width() int { return (c.bits + 3) / 4 }

// putMessage writes sample as the big-endian message fed to the hash function.
func putMessage(dst []byte, sample uint64) {
	binary.BigEndian.PutUint64(dst, sample)
}

// putKey serializes a Key into dst as [Lo 8B][Hi 8B] little-endian.
// Precondition: len(dst) >= keySize.
func putKey(dst []byte, k Key) {
	binary.LittleEndian.PutUint64(dst[0:8], k.Lo)
	binary.LittleEndian.PutUint64(dst[8:16], k.Hi)
}

// getKey deserializes a Key written by putKey.
// Precondition: len(src) >= keySize.
func getKey(src []byte) Key {
	_ = src[15]
	return Key{
		Lo: binary.LittleEndian.Uint64(src[0:8]),
		Hi: binary.LittleEndian.Uint64(src[8:16]),
	}
}
