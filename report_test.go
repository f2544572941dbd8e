package birthday

import (
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
)

func TestFileReporter(t *testing.T) {
	root := t.TempDir()
	c := &Collision{Algorithm: "sha256", PrefixBits: 40, Prefix: 0xABCDEF0123, X1: 1, X2: 0xFEDCBA9876543210}

	r := FileReporter{Root: root}
	if err := r.Report(context.Background(), c); err != nil {
		t.Fatal(err)
	}

	for _, tc := range []struct {
		name string
		x    uint64
	}{
		{"sha256_p10_x1_0000000000000001.bin", c.X1},
		{"sha256_p10_x2_fedcba9876543210.bin", c.X2},
	} {
		data, err := os.ReadFile(filepath.Join(root, "pref_10", tc.name))
		if err != nil {
			t.Fatal(err)
		}
		if len(data) != 8 || binary.BigEndian.Uint64(data) != tc.x {
			t.Errorf("%s holds % x, want %016x", tc.name, data, tc.x)
		}
	}
}

func TestFileReporterDefaultRoot(t *testing.T) {
	c := &Collision{Algorithm: "xxh3_128", PrefixBits: 9, X1: 2, X2: 3}
	p1, p2 := FileReporter{}.Paths(c)
	if want := filepath.Join(DefaultReportRoot, "pref_03", "xxh3_128_p03_x1_0000000000000002.bin"); p1 != want {
		t.Errorf("x1 path = %s, want %s", p1, want)
	}
	if want := filepath.Join(DefaultReportRoot, "pref_03", "xxh3_128_p03_x2_0000000000000003.bin"); p2 != want {
		t.Errorf("x2 path = %s, want %s", p2, want)
	}
}

func TestFileReporterCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	root := t.TempDir()
	if err := (FileReporter{Root: root}).Report(ctx, &Collision{Algorithm: "a", PrefixBits: 4}); err == nil {
		t.Fatal("expected error for canceled context")
	}
	entries, _ := os.ReadDir(root)
	if len(entries) != 0 {
		t.Fatal("files written after cancellation")
	}
}
