package birthday

import (
	"errors"
	"slices"
	"testing"

	birthdayerrors "github.com/tamirms/birthday/errors"
)

func TestCodecPrefix(t *testing.T) {
	digest := []byte{0xAB, 0xCD, 0xEF, 0x01, 0x23, 0x45, 0x67, 0x89, 0xFF}
	tests := []struct {
		bits int
		want uint64
	}{
		{1, 0x1},
		{4, 0xA},
		{8, 0xAB},
		{12, 0xABC},
		{13, 0xABCD >> 3},
		{40, 0xABCDEF0123},
		{63, 0xABCDEF0123456789 >> 1},
		{64, 0xABCDEF0123456789},
	}
	for _, tc := range tests {
		c, err := NewCodec(tc.bits)
		if err != nil {
			t.Fatalf("NewCodec(%d): %v", tc.bits, err)
		}
		if got := c.Prefix(digest); got != tc.want {
			t.Errorf("Prefix at %d bits = %#x, want %#x", tc.bits, got, tc.want)
		}
	}
}

func TestNewCodecInvalid(t *testing.T) {
	for _, bits := range []int{-1, 0, 65, 256} {
		if _, err := NewCodec(bits); !errors.Is(err, birthdayerrors.ErrInvalidPrefixWidth) {
			t.Errorf("NewCodec(%d) = %v, want ErrInvalidPrefixWidth", bits, err)
		}
	}
}

func TestCodecEncodeDecode(t *testing.T) {
	rng := newTestRNG(t)
	for _, bits := range []int{1, 7, 16, 40, 64} {
		c, err := NewCodec(bits)
		if err != nil {
			t.Fatal(err)
		}
		for range 100 {
			prefix := rng.Uint64() >> (64 - bits)
			sample := rng.Uint64()
			k, err := c.Encode(prefix, sample)
			if err != nil {
				t.Fatalf("Encode(%#x, %#x) at %d bits: %v", prefix, sample, bits, err)
			}
			p, s := c.Decode(k)
			if p != prefix || s != sample {
				t.Fatalf("Decode = (%#x, %#x), want (%#x, %#x)", p, s, prefix, sample)
			}
		}
	}
}

func TestCodecValueTooWide(t *testing.T) {
	c, err := NewCodec(12)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.Encode(0xFFF, 1); err != nil {
		t.Fatalf("Encode(0xFFF) at 12 bits: %v", err)
	}
	if _, err := c.Encode(0x1000, 1); !errors.Is(err, birthdayerrors.ErrValueTooWide) {
		t.Fatalf("Encode(0x1000) at 12 bits = %v, want ErrValueTooWide", err)
	}
}

func TestCodecWidth(t *testing.T) {
	for bits, want := range map[int]int{1: 1, 4: 1, 5: 2, 40: 10, 64: 16} {
		c, _ := NewCodec(bits)
		if got := c.Width(); got != want {
			t.Errorf("Width at %d bits = %d, want %d", bits, got, want)
		}
	}
}

// Sorting keys groups equal prefixes together, ordered by sample within a group.
func TestKeyOrderGroupsPrefixes(t *testing.T) {
	rng := newTestRNG(t)
	keys := randomKeys(rng, 5000, 64)
	slices.SortFunc(keys, Key.Compare)

	seen := make(map[uint64]bool)
	for i, k := range keys {
		if i > 0 && k.Hi != keys[i-1].Hi {
			if seen[k.Hi] {
				t.Fatalf("prefix %#x appears in two separate groups", k.Hi)
			}
		}
		if i > 0 && k.Hi == keys[i-1].Hi && k.Lo < keys[i-1].Lo {
			t.Fatalf("samples out of order within prefix %#x at %d", k.Hi, i)
		}
		seen[k.Hi] = true
	}
}

func TestKeyCompare(t *testing.T) {
	tests := []struct {
		a, b Key
		want int
	}{
		{Key{1, 2}, Key{1, 2}, 0},
		{Key{1, 2}, Key{1, 3}, -1},
		{Key{1, ^uint64(0)}, Key{2, 0}, -1},
		{Key{2, 0}, Key{1, ^uint64(0)}, 1},
	}
	for _, tc := range tests {
		if got := tc.a.Compare(tc.b); got != tc.want {
			t.Errorf("%v.Compare(%v) = %d, want %d", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestPutGetKey(t *testing.T) {
	k := Key{Hi: 0x0102030405060708, Lo: 0x1112131415161718}
	var buf [keySize]byte
	putKey(buf[:], k)
	if buf[0] != 0x18 || buf[8] != 0x08 {
		t.Fatalf("unexpected layout % x", buf)
	}
	if got := getKey(buf[:]); got != k {
		t.Fatalf("getKey = %v, want %v", got, k)
	}
}
