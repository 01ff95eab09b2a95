// Package container implements Component D's binary machinery: the
// 96-byte DBPF header and the variable-width index encoding, following
// the teacher's superblock/object-header parsing idiom (fixed-size
// struct, explicit field-by-field decode, an io.ReaderAt entry point)
// from internal/core/superblock.go.
package container

import (
	"encoding/binary"

	"github.com/scigolib/dbpf/internal/dbpferr"
)

// HeaderSize is the fixed size of a DBPF v2.1 header.
const HeaderSize = 96

// Magic is the 4-byte DBPF signature.
var Magic = [4]byte{'D', 'B', 'P', 'F'}

const (
	SupportedMajor = 2
	SupportedMinor = 1

	constantThreeValue = 3
)

// Header field byte offsets, per spec §6.
const (
	offMagic            = 0
	offMajor            = 4
	offMinor            = 8
	offUserVersionMajor  = 12
	offUserVersionMinor  = 16
	offCreationTime      = 24
	offUpdateTime        = 28
	offIndexCount        = 36
	offIndexPositionLow  = 40
	offIndexSize         = 44
	offConstantThree     = 60
	offIndexPositionHigh = 64
)

// Header represents the 96-byte DBPF header.
type Header struct {
	Major, Minor                 uint32
	UserVersionMajor, UserVersionMinor uint32
	CreationTime, UpdateTime     uint32
	IndexCount                   uint32
	IndexPositionLow             uint32
	IndexSize                    uint32
	IndexPositionHigh            uint32
}

// IndexPosition returns header[64] if non-zero, else header[40], per
// spec §4.5 step 2's versioned fallback.
func (h *Header) IndexPosition() uint32 {
	if h.IndexPositionHigh != 0 {
		return h.IndexPositionHigh
	}
	return h.IndexPositionLow
}

// ParseHeader validates and decodes a 96-byte DBPF header.
func ParseHeader(buf []byte) (*Header, error) {
	if len(buf) < HeaderSize {
		return nil, dbpferr.New(dbpferr.KindUnexpectedEnd, nil).
			WithField("header").WithValue(len(buf)).WithLimit(HeaderSize)
	}

	var magic [4]byte
	copy(magic[:], buf[offMagic:offMagic+4])
	if magic != Magic {
		return nil, dbpferr.New(dbpferr.KindInvalidFormat, nil).
			WithField("magic").WithValue(string(magic[:])).WithPosition(offMagic)
	}

	major := binary.LittleEndian.Uint32(buf[offMajor : offMajor+4])
	minor := binary.LittleEndian.Uint32(buf[offMinor : offMinor+4])
	if major != SupportedMajor || minor != SupportedMinor {
		return nil, dbpferr.New(dbpferr.KindInvalidFormat, nil).
			WithField("version").WithValue([2]uint32{major, minor}).WithPosition(offMajor)
	}

	h := &Header{
		Major:             major,
		Minor:             minor,
		UserVersionMajor:  binary.LittleEndian.Uint32(buf[offUserVersionMajor : offUserVersionMajor+4]),
		UserVersionMinor:  binary.LittleEndian.Uint32(buf[offUserVersionMinor : offUserVersionMinor+4]),
		CreationTime:      binary.LittleEndian.Uint32(buf[offCreationTime : offCreationTime+4]),
		UpdateTime:        binary.LittleEndian.Uint32(buf[offUpdateTime : offUpdateTime+4]),
		IndexCount:        binary.LittleEndian.Uint32(buf[offIndexCount : offIndexCount+4]),
		IndexPositionLow:  binary.LittleEndian.Uint32(buf[offIndexPositionLow : offIndexPositionLow+4]),
		IndexSize:         binary.LittleEndian.Uint32(buf[offIndexSize : offIndexSize+4]),
		IndexPositionHigh: binary.LittleEndian.Uint32(buf[offIndexPositionHigh : offIndexPositionHigh+4]),
	}
	return h, nil
}

// Write serializes h into a fresh 96-byte buffer.
func (h *Header) Write() []byte {
	buf := make([]byte, HeaderSize)
	copy(buf[offMagic:offMagic+4], Magic[:])
	binary.LittleEndian.PutUint32(buf[offMajor:offMajor+4], SupportedMajor)
	binary.LittleEndian.PutUint32(buf[offMinor:offMinor+4], SupportedMinor)
	binary.LittleEndian.PutUint32(buf[offUserVersionMajor:offUserVersionMajor+4], h.UserVersionMajor)
	binary.LittleEndian.PutUint32(buf[offUserVersionMinor:offUserVersionMinor+4], h.UserVersionMinor)
	binary.LittleEndian.PutUint32(buf[offCreationTime:offCreationTime+4], h.CreationTime)
	binary.LittleEndian.PutUint32(buf[offUpdateTime:offUpdateTime+4], h.UpdateTime)
	binary.LittleEndian.PutUint32(buf[offIndexCount:offIndexCount+4], h.IndexCount)
	binary.LittleEndian.PutUint32(buf[offIndexPositionLow:offIndexPositionLow+4], h.IndexPositionLow)
	binary.LittleEndian.PutUint32(buf[offIndexSize:offIndexSize+4], h.IndexSize)
	binary.LittleEndian.PutUint32(buf[offConstantThree:offConstantThree+4], constantThreeValue)
	binary.LittleEndian.PutUint32(buf[offIndexPositionHigh:offIndexPositionHigh+4], h.IndexPositionHigh)
	return buf
}
