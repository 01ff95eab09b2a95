package registry

import (
	"encoding/binary"

	"github.com/scigolib/dbpf/internal/dbpferr"
)

// SimOutfitTypeID is the resource type ID for Sim Outfit resources.
const SimOutfitTypeID uint32 = 0x025ED6F4

// IGTKey is a TGI reference stored in Instance-Group-Type order, the
// ordering Sim Outfit uses for its trailing list (deliberately not the
// conventional Type-Group-Instance order CASPart uses).
type IGTKey struct {
	InstanceHi, InstanceLo uint32
	Group                  uint32
	Type                   uint32
}

func readIGTKey(data []byte, off int) IGTKey {
	return IGTKey{
		InstanceHi: binary.LittleEndian.Uint32(data[off : off+4]),
		InstanceLo: binary.LittleEndian.Uint32(data[off+4 : off+8]),
		Group:      binary.LittleEndian.Uint32(data[off+8 : off+12]),
		Type:       binary.LittleEndian.Uint32(data[off+12 : off+16]),
	}
}

func appendIGTKey(buf []byte, k IGTKey) []byte {
	var b [16]byte
	binary.LittleEndian.PutUint32(b[0:4], k.InstanceHi)
	binary.LittleEndian.PutUint32(b[4:8], k.InstanceLo)
	binary.LittleEndian.PutUint32(b[8:12], k.Group)
	binary.LittleEndian.PutUint32(b[12:16], k.Type)
	return append(buf, b[:]...)
}

// SliderReference is one entry of a Sim Outfit's slider reference list.
type SliderReference struct {
	SliderKeyIndex uint32
	Amount         float32
}

// SimOutfit wraps a fully-assembled outfit catalog resource: a version,
// embedded variable-length sub-records, and a trailing TGI list kept in
// Instance-Group-Type order exactly as the grammar specifies (not the
// conventional Type-Group-Instance order), including the header's
// tgi_offset+8 convention, which is deliberately the opposite sign from
// CASPart's position_of_TGI-8.
type SimOutfit struct {
	Version uint32

	Sliders      []SliderReference
	UnknownBlock []byte
	ByteList     []byte

	IGTList []IGTKey

	dirty bool
}

func newSimOutfit(data []byte) (Resource, error) {
	o := &SimOutfit{}
	if err := o.Parse(data); err != nil {
		return nil, err
	}
	return o, nil
}

func newEmptySimOutfit() (Resource, error) {
	return &SimOutfit{Version: 1}, nil
}

func (o *SimOutfit) TypeID() uint32 { return SimOutfitTypeID }
func (o *SimOutfit) Dirty() bool    { return o.dirty }
func (o *SimOutfit) MarkClean()     { o.dirty = false }
func (o *SimOutfit) MarkDirty()     { o.dirty = true }

func (o *SimOutfit) Parse(data []byte) error {
	if len(data) == 0 {
		*o = SimOutfit{Version: 1}
		return nil
	}
	if len(data) < 8 {
		return dbpferr.New(dbpferr.KindUnexpectedEnd, nil).
			WithField("simoutfit_header").WithValue(len(data)).WithLimit(8)
	}
	version := binary.LittleEndian.Uint32(data[0:4])
	tgiOffsetField := binary.LittleEndian.Uint32(data[4:8])
	pos := 8

	sliderCount, err := readU32LE(data, pos)
	if err != nil {
		return err
	}
	pos += 4
	sliders := make([]SliderReference, 0, sliderCount)
	for i := uint32(0); i < sliderCount; i++ {
		idx, err := readU32LE(data, pos)
		if err != nil {
			return err
		}
		amtBits, err := readU32LE(data, pos+4)
		if err != nil {
			return err
		}
		sliders = append(sliders, SliderReference{SliderKeyIndex: idx, Amount: bitsToFloat32(amtBits)})
		pos += 8
	}

	unknownLen, err := readU32LE(data, pos)
	if err != nil {
		return err
	}
	pos += 4
	unknownBlock, err := sliceAt(data, pos, int(unknownLen))
	if err != nil {
		return err
	}
	unknownBlock = append([]byte(nil), unknownBlock...)
	pos += int(unknownLen)

	byteListLen, err := readU32LE(data, pos)
	if err != nil {
		return err
	}
	pos += 4
	byteList, err := sliceAt(data, pos, int(byteListLen))
	if err != nil {
		return err
	}
	byteList = append([]byte(nil), byteList...)
	pos += int(byteListLen)

	tgiPos := int(tgiOffsetField) - 8
	if tgiPos != pos {
		return dbpferr.New(dbpferr.KindCorruptedData, nil).
			WithField("simoutfit_tgi_offset").WithValue(tgiOffsetField)
	}
	count, err := readU32LE(data, tgiPos)
	if err != nil {
		return err
	}
	listPos := tgiPos + 4
	igtList := make([]IGTKey, 0, count)
	for i := uint32(0); i < count; i++ {
		if listPos+16 > len(data) {
			return errUnexpectedEnd("simoutfit_igt_list", listPos+16, len(data))
		}
		igtList = append(igtList, readIGTKey(data, listPos))
		listPos += 16
	}

	o.Version = version
	o.Sliders = sliders
	o.UnknownBlock = unknownBlock
	o.ByteList = byteList
	o.IGTList = igtList
	o.dirty = false
	return nil
}

func (o *SimOutfit) Serialize() ([]byte, error) {
	var buf []byte
	buf = append(buf, le32b(o.Version)...)
	tgiOffsetPos := len(buf)
	buf = append(buf, le32b(0)...)

	buf = append(buf, le32b(uint32(len(o.Sliders)))...)
	for _, s := range o.Sliders {
		buf = append(buf, le32b(s.SliderKeyIndex)...)
		buf = append(buf, le32b(float32ToBits(s.Amount))...)
	}

	buf = append(buf, le32b(uint32(len(o.UnknownBlock)))...)
	buf = append(buf, o.UnknownBlock...)

	buf = append(buf, le32b(uint32(len(o.ByteList)))...)
	buf = append(buf, o.ByteList...)

	tgiPos := len(buf)
	buf = append(buf, le32b(uint32(len(o.IGTList)))...)
	for _, k := range o.IGTList {
		buf = appendIGTKey(buf, k)
	}

	binary.LittleEndian.PutUint32(buf[tgiOffsetPos:tgiOffsetPos+4], uint32(tgiPos+8))

	o.dirty = false
	return buf, nil
}
