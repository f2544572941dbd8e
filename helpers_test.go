package birthday

import (
	"encoding/binary"
	"hash/fnv"
	randv2 "math/rand/v2"
	"slices"
	"testing"
)

// Named seeds for deterministic reproduction.
const (
	testSeed1 = 0x1234567890ABCDEF
	testSeed2 = 0xFEDCBA9876543210
)

func newTestRNG(t testing.TB) *randv2.Rand {
	t.Helper()
	h := fnv.New128a()
	h.Write([]byte(t.Name()))
	sum := h.Sum(nil)
	s1 := binary.LittleEndian.Uint64(sum[:8])
	s2 := binary.LittleEndian.Uint64(sum[8:])
	return randv2.New(randv2.NewPCG(testSeed1^s1, testSeed2^s2))
}

// randomKeys returns n keys with prefixes below prefixSpace, so that small
// spaces produce plenty of shared prefixes.
func randomKeys(rng *randv2.Rand, n int, prefixSpace uint64) []Key {
	keys := make([]Key, n)
	for i := range keys {
		keys[i] = Key{Hi: rng.Uint64N(prefixSpace), Lo: rng.Uint64()}
	}
	return keys
}

// sortedRuns splits keys into parts chunks and sorts each one.
func sortedRuns(keys []Key, parts int) []Run {
	var runs []Run
	for _, p := range partition(slices.Clone(keys), parts) {
		slices.SortFunc(p, Key.Compare)
		runs = append(runs, MemRun(p))
	}
	return runs
}

// firstCollision scans fully sorted keys the slow way.
func firstCollision(keys []Key) (Key, Key, bool) {
	s := slices.SortedFunc(slices.Values(keys), Key.Compare)
	for i := 1; i < len(s); i++ {
		if s[i].Hi == s[i-1].Hi && s[i].Lo != s[i-1].Lo {
			return s[i-1], s[i], true
		}
	}
	return Key{}, Key{}, false
}

// mod16Hasher maps message x to a digest whose first byte is x mod 16.
func mod16Hasher() Hasher {
	return HasherFunc("mod16", 32, func(dst, msg []byte) []byte {
		var d [32]byte
		d[0] = byte(binary.BigEndian.Uint64(msg) % 16)
		return append(dst, d[:]...)
	})
}
