package birthday

import (
	"context"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultReportRoot is the directory FileReporter writes under when Root is empty.
const DefaultReportRoot = "Collision_Birthday"

// Reporter persists or publishes a found collision.
type Reporter interface {
	Report(ctx context.Context, c *Collision) error
}

// FileReporter writes both colliding messages as 8-byte big-endian files:
//
//	<Root>/pref_<NN>/<algo>_p<NN>_x1_<x1>.bin
//	<Root>/pref_<NN>/<algo>_p<NN>_x2_<x2>.bin
//
// where NN is the prefix width in hex characters and x1, x2 are 16 hex
// digits. Hashing either file reproduces the shared prefix.
type FileReporter struct {
	Root string
}

// Paths returns the two files Report writes for c.
func (r FileReporter) Paths(c *Collision) (x1, x2 string) {
	root := r.Root
	if root == "" {
		root = DefaultReportRoot
	}
	width := (c.PrefixBits + 3) / 4
	dir := filepath.Join(root, fmt.Sprintf("pref_%02d", width))
	base := fmt.Sprintf("%s_p%02d", c.Algorithm, width)
	x1 = filepath.Join(dir, fmt.Sprintf("%s_x1_%016x.bin", base, c.X1))
	x2 = filepath.Join(dir, fmt.Sprintf("%s_x2_%016x.bin", base, c.X2))
	return x1, x2
}

// Report writes the two message files, creating directories as needed.
func (r FileReporter) Report(ctx context.Context, c *Collision) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p1, p2 := r.Paths(c)
	if err := os.MkdirAll(filepath.Dir(p1), 0o755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}
	for _, f := range []struct {
		path string
		x    uint64
	}{{p1, c.X1}, {p2, c.X2}} {
		var msg [messageSize]byte
		binary.BigEndian.PutUint64(msg[:], f.x)
		if err := os.WriteFile(f.path, msg[:], 0o644); err != nil {
			return fmt.Errorf("write collision message: %w", err)
		}
	}
	return nil
}
