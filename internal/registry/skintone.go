package registry

import (
	"encoding/binary"

	"github.com/scigolib/dbpf/internal/dbpferr"
)

// SkinToneTypeID is the resource type ID for Skin Tone resources.
const SkinToneTypeID uint32 = 0x0354796A

const skinToneFlagWidthVersionCutoff = 6

// SkinTone wraps a fixed-layout skin-tone catalog record. The flag list
// is 16-bit-per-entry for version <= 6 and 32-bit-per-entry otherwise,
// per the grammar; this wrapper mirrors that exactly on both read and
// write so the chosen width round-trips regardless of which era a given
// resource was authored in.
type SkinTone struct {
	Version    uint32
	ColorIndex uint32
	Flags      []uint32 // always stored widened; narrowed to 16 bits on write for old versions

	dirty bool
}

func newSkinTone(data []byte) (Resource, error) {
	s := &SkinTone{}
	if err := s.Parse(data); err != nil {
		return nil, err
	}
	return s, nil
}

func newEmptySkinTone() (Resource, error) {
	return &SkinTone{Version: 7}, nil
}

func (s *SkinTone) TypeID() uint32 { return SkinToneTypeID }
func (s *SkinTone) Dirty() bool    { return s.dirty }
func (s *SkinTone) MarkClean()     { s.dirty = false }
func (s *SkinTone) MarkDirty()     { s.dirty = true }

func (s *SkinTone) usesNarrowFlags() bool { return s.Version <= skinToneFlagWidthVersionCutoff }

func (s *SkinTone) Parse(data []byte) error {
	if len(data) == 0 {
		*s = SkinTone{Version: 7}
		return nil
	}
	if len(data) < 12 {
		return dbpferr.New(dbpferr.KindUnexpectedEnd, nil).
			WithField("skintone_header").WithValue(len(data)).WithLimit(12)
	}
	version := binary.LittleEndian.Uint32(data[0:4])
	colorIndex := binary.LittleEndian.Uint32(data[4:8])
	flagCount := binary.LittleEndian.Uint32(data[8:12])

	pos := 12
	narrow := version <= skinToneFlagWidthVersionCutoff
	width := 4
	if narrow {
		width = 2
	}
	flags := make([]uint32, 0, flagCount)
	for i := uint32(0); i < flagCount; i++ {
		if pos+width > len(data) {
			return errUnexpectedEnd("skintone_flags", pos+width, len(data))
		}
		if narrow {
			flags = append(flags, uint32(binary.LittleEndian.Uint16(data[pos:pos+2])))
		} else {
			flags = append(flags, binary.LittleEndian.Uint32(data[pos:pos+4]))
		}
		pos += width
	}

	s.Version = version
	s.ColorIndex = colorIndex
	s.Flags = flags
	s.dirty = false
	return nil
}

func (s *SkinTone) Serialize() ([]byte, error) {
	var buf []byte
	buf = append(buf, le32b(s.Version)...)
	buf = append(buf, le32b(s.ColorIndex)...)
	buf = append(buf, le32b(uint32(len(s.Flags)))...)

	narrow := s.usesNarrowFlags()
	for _, f := range s.Flags {
		if narrow {
			var b [2]byte
			binary.LittleEndian.PutUint16(b[:], uint16(f))
			buf = append(buf, b[:]...)
		} else {
			buf = append(buf, le32b(f)...)
		}
	}

	s.dirty = false
	return buf, nil
}
