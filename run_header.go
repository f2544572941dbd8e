package birthday

import (
	"encoding/binary"

	birthdayerrors "github.com/tamirms/birthday/errors"
)

const (
	// runMagic identifies run files: "BDRN" in little-endian.
	runMagic = uint32(0x4E524442)

	// runVersion is the current run file format version.
	runVersion = uint16(0x0001)

	// runHeaderSize is the exact size of the serialized run header.
	runHeaderSize = 32
)

// runHeader is the 32-byte run file header.
//
// Layout:
//
//	Offset  Size  Field       Type
//	0       4     Magic       0x4E524442 ("BDRN")
//	4       2     Version     0x0001
//	6       1     PrefixBits  uint8
//	7       1     Reserved    (zero)
//	8       8     Count       uint64_le (number of keys)
//	16      8     Checksum    uint64_le (xxHash64 of the key region)
//	24      8     Reserved    (zero)
//
// The key region follows the header: Count records of 16 bytes each,
// [sample uint64_le][prefix uint64_le], in ascending key order.
type runHeader struct {
	Magic      uint32
	Version    uint16
	PrefixBits uint8
	Count      uint64
	Checksum   uint64
}

// encodeTo serializes the header to an existing buffer.
func (h *runHeader) encodeTo(buf []byte) {
	_ = buf[runHeaderSize-1]
	binary.LittleEndian.PutUint32(buf[0:4], h.Magic)
	binary.LittleEndian.PutUint16(buf[4:6], h.Version)
	buf[6] = h.PrefixBits
	buf[7] = 0
	binary.LittleEndian.PutUint64(buf[8:16], h.Count)
	binary.LittleEndian.PutUint64(buf[16:24], h.Checksum)
	clear(buf[24:32])
}

// decodeRunHeader parses a 32-byte run header.
func decodeRunHeader(buf []byte) (*runHeader, error) {
	if len(buf) < runHeaderSize {
		return nil, birthdayerrors.ErrTruncatedRun
	}

	h := &runHeader{
		Magic:      binary.LittleEndian.Uint32(buf[0:4]),
		Version:    binary.LittleEndian.Uint16(buf[4:6]),
		PrefixBits: buf[6],
		Count:      binary.LittleEndian.Uint64(buf[8:16]),
		Checksum:   binary.LittleEndian.Uint64(buf[16:24]),
	}

	if h.Magic != runMagic {
		return nil, birthdayerrors.ErrInvalidMagic
	}
	if h.Version != runVersion {
		return nil, birthdayerrors.ErrInvalidVersion
	}
	if h.PrefixBits == 0 || h.PrefixBits > maxPrefixBits {
		return nil, birthdayerrors.ErrCorruptedRun
	}
	return h, nil
}

// regionSize returns the byte length of the key region.
func (h *runHeader) regionSize() uint64 {
	return h.Count * keySize
}
