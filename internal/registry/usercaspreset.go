package registry

import (
	"github.com/scigolib/dbpf/internal/dbpferr"
)

// UserCASPresetTypeID is this wrapper's resource type ID. As with
// Template, the grammar describes this format only at the level of
// "structured records with their own nested lists" and gives no numeric
// type ID; this value and layout are this package's own documented
// choice (see DESIGN.md).
const UserCASPresetTypeID uint32 = 0x0C772E27

// PresetPart references one CAS Part index used by a saved preset.
type PresetPart struct {
	PartKeyIndex uint32
	SwatchIndex  uint32
}

// UserCASPreset wraps a user-saved outfit/preset record: a name and a
// nested list of part references.
type UserCASPreset struct {
	Name  string
	Parts []PresetPart
	dirty bool
}

func newUserCASPreset(data []byte) (Resource, error) {
	p := &UserCASPreset{}
	if err := p.Parse(data); err != nil {
		return nil, err
	}
	return p, nil
}

func newEmptyUserCASPreset() (Resource, error) { return &UserCASPreset{}, nil }

func (p *UserCASPreset) TypeID() uint32 { return UserCASPresetTypeID }
func (p *UserCASPreset) Dirty() bool    { return p.dirty }
func (p *UserCASPreset) MarkClean()     { p.dirty = false }
func (p *UserCASPreset) MarkDirty()     { p.dirty = true }

func (p *UserCASPreset) Parse(data []byte) error {
	if len(data) == 0 {
		*p = UserCASPreset{}
		return nil
	}
	if len(data) < 4 {
		return dbpferr.New(dbpferr.KindUnexpectedEnd, nil).
			WithField("usercaspreset_header").WithValue(len(data)).WithLimit(4)
	}
	pos := 0
	nameLen, err := readU32LE(data, pos)
	if err != nil {
		return err
	}
	pos += 4
	name, err := sliceAt(data, pos, int(nameLen))
	if err != nil {
		return err
	}
	pos += int(nameLen)

	count, err := readU32LE(data, pos)
	if err != nil {
		return err
	}
	pos += 4
	parts := make([]PresetPart, 0, count)
	for i := uint32(0); i < count; i++ {
		partIdx, err := readU32LE(data, pos)
		if err != nil {
			return err
		}
		swatchIdx, err := readU32LE(data, pos+4)
		if err != nil {
			return err
		}
		parts = append(parts, PresetPart{PartKeyIndex: partIdx, SwatchIndex: swatchIdx})
		pos += 8
	}

	p.Name = string(name)
	p.Parts = parts
	p.dirty = false
	return nil
}

func (p *UserCASPreset) Serialize() ([]byte, error) {
	var buf []byte
	buf = append(buf, le32b(uint32(len(p.Name)))...)
	buf = append(buf, []byte(p.Name)...)
	buf = append(buf, le32b(uint32(len(p.Parts)))...)
	for _, part := range p.Parts {
		buf = append(buf, le32b(part.PartKeyIndex)...)
		buf = append(buf, le32b(part.SwatchIndex)...)
	}
	p.dirty = false
	return buf, nil
}
