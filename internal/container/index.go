package container

import (
	"encoding/binary"
	"math/bits"

	"github.com/scigolib/dbpf/internal/dbpferr"
)

// Index type flag bits: set when the corresponding field is identical
// across every entry and hoisted into the index header instead of being
// repeated per entry.
const (
	FlagTypeShared        uint32 = 1 << 0
	FlagGroupShared       uint32 = 1 << 1
	FlagInstanceHiShared  uint32 = 1 << 2
	sharedFieldMask       uint32 = FlagTypeShared | FlagGroupShared | FlagInstanceHiShared
)

// MinEntrySize is the smallest possible on-disk entry width (all three
// shareable fields hoisted into the index header), used by callers to
// sanity-check a header-declared entry count against the bytes actually
// available before allocating anything sized by that count.
const MinEntrySize uint64 = 32 - 4*3

// Entry is the on-disk representation of one ResourceIndexEntry, prior
// to being wrapped with caching/dirty-state (see the root package's
// ResourceIndexEntry).
type Entry struct {
	Type, Group         uint32
	InstanceHi, InstanceLo uint32
	ChunkOffset         uint32
	FileSize            uint32
	MemorySize          uint32
	CompressionType     uint16
	Unknown2            uint16
}

// entrySize returns the on-disk byte width of one entry given the
// index-type flags: every full entry is 32 bytes (type, group,
// instance-high, instance-low, chunk_offset, file_size, memory_size,
// compression_type, unknown2); each shared field in flags removes 4
// bytes since it is stored once in the index header instead.
//
// The spec's prose formula ("20 + 4*popcount(flags&7)") does not match
// its own worked example (bits 0 and 1 set -> 24-byte entries); the
// classic format semantics and the worked example both agree with
// 32 - 4*popcount(flags&7), which is what this implements.
func entrySize(flags uint32) int {
	return 32 - 4*bits.OnesCount32(flags&sharedFieldMask)
}

// ParseIndex decodes the index blob starting at buf[0], given the
// entry count from the header. Returns the decoded entries and the total
// blob length consumed.
func ParseIndex(buf []byte, count uint32, maxCount int) ([]Entry, uint32, error) {
	if count > uint32(maxCount) {
		return nil, 0, dbpferr.New(dbpferr.KindSizeLimitExceeded, nil).
			WithField("index_count").WithValue(count).WithLimit(maxCount)
	}
	if len(buf) < 4 {
		return nil, 0, dbpferr.New(dbpferr.KindUnexpectedEnd, nil).
			WithField("index_type").WithValue(len(buf)).WithLimit(4)
	}
	flags := binary.LittleEndian.Uint32(buf[0:4])
	pos := 4

	var sharedType, sharedGroup, sharedInstHi uint32
	if flags&FlagTypeShared != 0 {
		v, err := readU32(buf, pos)
		if err != nil {
			return nil, 0, err
		}
		sharedType = v
		pos += 4
	}
	if flags&FlagGroupShared != 0 {
		v, err := readU32(buf, pos)
		if err != nil {
			return nil, 0, err
		}
		sharedGroup = v
		pos += 4
	}
	if flags&FlagInstanceHiShared != 0 {
		v, err := readU32(buf, pos)
		if err != nil {
			return nil, 0, err
		}
		sharedInstHi = v
		pos += 4
	}

	width := entrySize(flags)
	entries := make([]Entry, 0, count)
	for i := uint32(0); i < count; i++ {
		if pos+width > len(buf) {
			return nil, 0, dbpferr.New(dbpferr.KindUnexpectedEnd, nil).
				WithField("index_entry").WithValue(pos + width).WithLimit(len(buf))
		}
		e := Entry{Type: sharedType, Group: sharedGroup, InstanceHi: sharedInstHi}
		p := pos
		if flags&FlagTypeShared == 0 {
			e.Type = binary.LittleEndian.Uint32(buf[p : p+4])
			p += 4
		}
		if flags&FlagGroupShared == 0 {
			e.Group = binary.LittleEndian.Uint32(buf[p : p+4])
			p += 4
		}
		if flags&FlagInstanceHiShared == 0 {
			e.InstanceHi = binary.LittleEndian.Uint32(buf[p : p+4])
			p += 4
		}
		e.InstanceLo = binary.LittleEndian.Uint32(buf[p : p+4])
		p += 4
		e.ChunkOffset = binary.LittleEndian.Uint32(buf[p : p+4])
		p += 4
		e.FileSize = binary.LittleEndian.Uint32(buf[p:p+4]) & 0x7FFFFFFF
		p += 4
		e.MemorySize = binary.LittleEndian.Uint32(buf[p : p+4])
		p += 4
		e.CompressionType = binary.LittleEndian.Uint16(buf[p : p+2])
		p += 2
		e.Unknown2 = binary.LittleEndian.Uint16(buf[p : p+2])
		p += 2

		entries = append(entries, e)
		pos += width
	}

	return entries, uint32(pos), nil
}

func readU32(buf []byte, pos int) (uint32, error) {
	if pos+4 > len(buf) {
		return 0, dbpferr.New(dbpferr.KindUnexpectedEnd, nil).
			WithField("shared_field").WithValue(pos + 4).WithLimit(len(buf))
	}
	return binary.LittleEndian.Uint32(buf[pos : pos+4]), nil
}

// ComputeSharedFlags returns the IndexTypeFlags that apply given that
// every entry in entries shares the listed field values. Bit k is set
// iff every entry (there must be at least one) agrees on that field.
func ComputeSharedFlags(entries []Entry) uint32 {
	if len(entries) == 0 {
		return 0
	}
	flags := sharedFieldMask
	first := entries[0]
	for _, e := range entries[1:] {
		if e.Type != first.Type {
			flags &^= FlagTypeShared
		}
		if e.Group != first.Group {
			flags &^= FlagGroupShared
		}
		if e.InstanceHi != first.InstanceHi {
			flags &^= FlagInstanceHiShared
		}
	}
	return flags
}

// WriteIndex serializes flags, the shared-field header, and every
// entry, using the shared values taken from entries[0] (callers must
// ensure ComputeSharedFlags(entries) == flags before calling this).
func WriteIndex(flags uint32, entries []Entry) []byte {
	width := entrySize(flags)
	shared := bits.OnesCount32(flags & sharedFieldMask)
	out := make([]byte, 0, 4+4*shared+width*len(entries))

	var hdr [4]byte
	binary.LittleEndian.PutUint32(hdr[:], flags)
	out = append(out, hdr[:]...)

	if len(entries) > 0 {
		first := entries[0]
		if flags&FlagTypeShared != 0 {
			out = append(out, le32(first.Type)...)
		}
		if flags&FlagGroupShared != 0 {
			out = append(out, le32(first.Group)...)
		}
		if flags&FlagInstanceHiShared != 0 {
			out = append(out, le32(first.InstanceHi)...)
		}
	}

	for _, e := range entries {
		if flags&FlagTypeShared == 0 {
			out = append(out, le32(e.Type)...)
		}
		if flags&FlagGroupShared == 0 {
			out = append(out, le32(e.Group)...)
		}
		if flags&FlagInstanceHiShared == 0 {
			out = append(out, le32(e.InstanceHi)...)
		}
		out = append(out, le32(e.InstanceLo)...)
		out = append(out, le32(e.ChunkOffset)...)
		out = append(out, le32(e.FileSize|0x80000000)...)
		out = append(out, le32(e.MemorySize)...)
		var ct, u2 [2]byte
		binary.LittleEndian.PutUint16(ct[:], e.CompressionType)
		binary.LittleEndian.PutUint16(u2[:], e.Unknown2)
		out = append(out, ct[:]...)
		out = append(out, u2[:]...)
	}

	return out
}

func le32(v uint32) []byte {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	return b[:]
}
