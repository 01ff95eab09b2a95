package registry

import (
	"encoding/binary"

	"github.com/scigolib/dbpf/internal/dbpferr"
	"github.com/scigolib/dbpf/internal/utils"
)

// CASPartTypeID is the resource type ID for CAS Part resources.
const CASPartTypeID uint32 = 0x034AEECB

const (
	casPartVersion27 uint32 = 27
	casPartVersion28 uint32 = 28
)

// LODBlock is one level-of-detail entry in a CASPart's model list.
type LODBlock struct {
	Level         uint32
	ModelKeyIndex uint32
}

// CASPart wraps a clothing/body-part catalog resource. The handful of
// scalar fields the grammar names explicitly (version, the conditional
// unused2/unused3 pair, version-gated voice_effect_hash and
// shared_uv_map_space, the BigEndian-UTF16 name, and the trailing TGI
// list) are modeled field-by-field; the remainder of the "~40 scalar
// fields" the source carries are preserved verbatim as an opaque
// padding blob so serialize(parse(x)) stays byte-exact without
// inventing semantics the grammar never specified.
type CASPart struct {
	Version   uint32
	Unused1   uint32
	Unused2   uint32
	unused3   uint16
	hasUnused3 bool

	Name string

	LODBlocks    []LODBlock
	SwatchColors []uint32 // packed ARGB
	Flags        []byte

	VoiceEffectHash  uint32 // present when Version >= 28
	SharedUVMapSpace uint8  // present when Version >= 27

	Padding []byte // opaque scalar fields not itemized by the grammar

	TGIList []TGIKey

	dirty bool
}

func newCASPart(data []byte) (Resource, error) {
	p := &CASPart{}
	if err := p.Parse(data); err != nil {
		return nil, err
	}
	return p, nil
}

func newEmptyCASPart() (Resource, error) {
	return &CASPart{Version: casPartVersion28}, nil
}

func (p *CASPart) TypeID() uint32 { return CASPartTypeID }
func (p *CASPart) Dirty() bool    { return p.dirty }
func (p *CASPart) MarkClean()     { p.dirty = false }
func (p *CASPart) MarkDirty()     { p.dirty = true }

func (p *CASPart) Parse(data []byte) error {
	if len(data) == 0 {
		*p = CASPart{Version: casPartVersion28}
		return nil
	}
	if len(data) < 12 {
		return dbpferr.New(dbpferr.KindUnexpectedEnd, nil).
			WithField("caspart_header").WithValue(len(data)).WithLimit(12)
	}
	version := binary.LittleEndian.Uint32(data[0:4])
	if version != casPartVersion27 && version != casPartVersion28 {
		return dbpferr.New(dbpferr.KindInvalidFormat, nil).
			WithField("caspart_version").WithValue(version)
	}
	tgiOffsetField := binary.LittleEndian.Uint32(data[4:8])
	unused1 := binary.LittleEndian.Uint32(data[8:12])

	pos := 12
	unused2, err := readU32LE(data, pos)
	if err != nil {
		return err
	}
	pos += 4

	var unused3 uint16
	var hasUnused3 bool
	if unused2 > 0 {
		if pos+2 > len(data) {
			return errUnexpectedEnd("caspart_unused3", pos+2, len(data))
		}
		unused3 = binary.LittleEndian.Uint16(data[pos : pos+2])
		hasUnused3 = true
		pos += 2
	}

	nameLen, err := readU32LE(data, pos)
	if err != nil {
		return err
	}
	pos += 4
	name, err := utils.ReadBigEndianUTF16(data, pos, int(nameLen))
	if err != nil {
		return err
	}
	pos += int(nameLen) * 2

	lodCount, err := readU32LE(data, pos)
	if err != nil {
		return err
	}
	pos += 4
	lods := make([]LODBlock, 0, lodCount)
	for i := uint32(0); i < lodCount; i++ {
		lvl, err := readU32LE(data, pos)
		if err != nil {
			return err
		}
		idx, err := readU32LE(data, pos+4)
		if err != nil {
			return err
		}
		lods = append(lods, LODBlock{Level: lvl, ModelKeyIndex: idx})
		pos += 8
	}

	swatchCount, err := readU32LE(data, pos)
	if err != nil {
		return err
	}
	pos += 4
	swatches := make([]uint32, 0, swatchCount)
	for i := uint32(0); i < swatchCount; i++ {
		v, err := readU32LE(data, pos)
		if err != nil {
			return err
		}
		swatches = append(swatches, v)
		pos += 4
	}

	flagCount, err := readU32LE(data, pos)
	if err != nil {
		return err
	}
	pos += 4
	flags, err := sliceAt(data, pos, int(flagCount))
	if err != nil {
		return err
	}
	flags = append([]byte(nil), flags...)
	pos += int(flagCount)

	var voiceEffectHash uint32
	if version >= casPartVersion28 {
		voiceEffectHash, err = readU32LE(data, pos)
		if err != nil {
			return err
		}
		pos += 4
	}
	var sharedUVMapSpace uint8
	if version >= casPartVersion27 {
		b, err := sliceAt(data, pos, 1)
		if err != nil {
			return err
		}
		sharedUVMapSpace = b[0]
		pos++
	}

	paddingLen, err := readU32LE(data, pos)
	if err != nil {
		return err
	}
	pos += 4
	padding, err := sliceAt(data, pos, int(paddingLen))
	if err != nil {
		return err
	}
	padding = append([]byte(nil), padding...)
	pos += int(paddingLen)

	tgiPos := int(tgiOffsetField) + 8
	if tgiPos != pos {
		return dbpferr.New(dbpferr.KindCorruptedData, nil).
			WithField("caspart_tgi_offset").WithValue(tgiOffsetField)
	}
	tgiList, _, err := readTGIList(data, tgiPos)
	if err != nil {
		return err
	}

	p.Version = version
	p.Unused1 = unused1
	p.Unused2 = unused2
	p.unused3 = unused3
	p.hasUnused3 = hasUnused3
	p.Name = name
	p.LODBlocks = lods
	p.SwatchColors = swatches
	p.Flags = flags
	p.VoiceEffectHash = voiceEffectHash
	p.SharedUVMapSpace = sharedUVMapSpace
	p.Padding = padding
	p.TGIList = tgiList
	p.dirty = false
	return nil
}

func (p *CASPart) Serialize() ([]byte, error) {
	var buf []byte
	buf = append(buf, le32b(p.Version)...)
	tgiOffsetPos := len(buf)
	buf = append(buf, le32b(0)...) // patched below
	buf = append(buf, le32b(p.Unused1)...)
	buf = append(buf, le32b(p.Unused2)...)
	if p.Unused2 > 0 {
		var u3 [2]byte
		binary.LittleEndian.PutUint16(u3[:], p.unused3)
		buf = append(buf, u3[:]...)
	}

	nameBytes := utils.WriteBigEndianUTF16(p.Name)
	buf = append(buf, le32b(uint32(len(nameBytes)/2))...)
	buf = append(buf, nameBytes...)

	buf = append(buf, le32b(uint32(len(p.LODBlocks)))...)
	for _, l := range p.LODBlocks {
		buf = append(buf, le32b(l.Level)...)
		buf = append(buf, le32b(l.ModelKeyIndex)...)
	}

	buf = append(buf, le32b(uint32(len(p.SwatchColors)))...)
	for _, s := range p.SwatchColors {
		buf = append(buf, le32b(s)...)
	}

	buf = append(buf, le32b(uint32(len(p.Flags)))...)
	buf = append(buf, p.Flags...)

	if p.Version >= casPartVersion28 {
		buf = append(buf, le32b(p.VoiceEffectHash)...)
	}
	if p.Version >= casPartVersion27 {
		buf = append(buf, p.SharedUVMapSpace)
	}

	buf = append(buf, le32b(uint32(len(p.Padding)))...)
	buf = append(buf, p.Padding...)

	tgiPos := len(buf)
	buf = appendTGIList(buf, p.TGIList)

	binary.LittleEndian.PutUint32(buf[tgiOffsetPos:tgiOffsetPos+4], uint32(tgiPos-8))

	p.dirty = false
	return buf, nil
}

func sliceAt(data []byte, off, n int) ([]byte, error) {
	if off < 0 || n < 0 || off+n > len(data) {
		return nil, errUnexpectedEnd("slice", off+n, len(data))
	}
	return data[off : off+n], nil
}

func le32b(v uint32) []byte {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	return b[:]
}
