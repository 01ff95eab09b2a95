package utils

import (
	"encoding/binary"
	"fmt"
)

// ReaderAt is a simplified interface for io.ReaderAt, kept distinct so
// callers can pass in-memory byte slices or files interchangeably.
type ReaderAt interface {
	ReadAt(p []byte, off int64) (n int, err error)
}

// ErrUnexpectedEnd is the sentinel underlying every bounds failure raised
// by the Read* helpers in this file; callers match on it with errors.As.
type ErrUnexpectedEnd struct {
	Needed    int
	Available int
}

func (e *ErrUnexpectedEnd) Error() string {
	return fmt.Sprintf("unexpected end of data: needed %d bytes, %d available", e.Needed, e.Available)
}

// Slice returns data[off:off+n], failing with ErrUnexpectedEnd instead of
// panicking when the span runs past the end of data.
func Slice(data []byte, off, n int) ([]byte, error) {
	if off < 0 || n < 0 || off+n > len(data) {
		return nil, &ErrUnexpectedEnd{Needed: off + n, Available: len(data)}
	}
	return data[off : off+n], nil
}

// ReadUint16LE reads a little-endian uint16 at offset.
func ReadUint16LE(data []byte, off int) (uint16, error) {
	b, err := Slice(data, off, 2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

// ReadUint32LE reads a little-endian uint32 at offset.
func ReadUint32LE(data []byte, off int) (uint32, error) {
	b, err := Slice(data, off, 4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// ReadUint64LE reads a little-endian uint64 at offset.
func ReadUint64LE(data []byte, off int) (uint64, error) {
	b, err := Slice(data, off, 8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// PutUint32LE writes v into data at off, little-endian, growing/truncating
// is the caller's responsibility.
func PutUint32LE(data []byte, off int, v uint32) error {
	b, err := Slice(data, off, 4)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(b, v)
	return nil
}

// PutUint64LE writes v into data at off, little-endian.
func PutUint64LE(data []byte, off int, v uint64) error {
	b, err := Slice(data, off, 8)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint64(b, v)
	return nil
}

// NullOffset is the sentinel value ReadOffset/WriteOffset use for "no
// target" relative offsets (the high bit set, no other bits).
const NullOffset uint32 = 0x80000000

// ReadOffset reads a 32-bit relative offset stored at byte position p
// within data and converts it to an absolute position p+rel. A stored
// value equal to NullOffset means "null" and is reported via ok=false.
func ReadOffset(data []byte, p int) (absolute int64, ok bool, err error) {
	rel, err := ReadUint32LE(data, p)
	if err != nil {
		return 0, false, err
	}
	if rel == NullOffset {
		return 0, false, nil
	}
	return int64(p) + int64(int32(rel)), true, nil
}

// WriteOffset computes the relative offset that, when stored at
// positionOfSlot, resolves to positionOfTarget: target - slot.
func WriteOffset(positionOfTarget, positionOfSlot int64) uint32 {
	//nolint:gosec // G115: offsets are bounded by package/resource size limits well under 2^31
	return uint32(positionOfTarget - positionOfSlot)
}
