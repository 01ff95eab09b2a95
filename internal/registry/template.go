package registry

import (
	"github.com/scigolib/dbpf/internal/dbpferr"
)

// TemplateTypeID is this wrapper's resource type ID. The grammar names
// this wrapper ("Template/Complate") without giving its numeric type ID
// or exact field layout ("see the source for exact fields"), and no
// original-language source was retrieved for this spec (see DESIGN.md);
// this ID and layout are this package's own documented choice.
const TemplateTypeID uint32 = 0x01D0E723

// TemplateEntry is one nested key/value pair a Template record carries.
type TemplateEntry struct {
	Key   string
	Value string
}

// Template wraps a named record with a nested list of key/value
// entries, satisfying the dirty/round-trip contract §4.4 requires of
// every wrapper without overclaiming a byte layout this spec never
// specified.
type Template struct {
	Name    string
	Entries []TemplateEntry
	dirty   bool
}

func newTemplate(data []byte) (Resource, error) {
	t := &Template{}
	if err := t.Parse(data); err != nil {
		return nil, err
	}
	return t, nil
}

func newEmptyTemplate() (Resource, error) { return &Template{}, nil }

func (t *Template) TypeID() uint32 { return TemplateTypeID }
func (t *Template) Dirty() bool    { return t.dirty }
func (t *Template) MarkClean()     { t.dirty = false }
func (t *Template) MarkDirty()     { t.dirty = true }

func (t *Template) Parse(data []byte) error {
	if len(data) == 0 {
		*t = Template{}
		return nil
	}
	if len(data) < 4 {
		return dbpferr.New(dbpferr.KindUnexpectedEnd, nil).
			WithField("template_header").WithValue(len(data)).WithLimit(4)
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
	entries := make([]TemplateEntry, 0, count)
	for i := uint32(0); i < count; i++ {
		keyLen, err := readU32LE(data, pos)
		if err != nil {
			return err
		}
		pos += 4
		key, err := sliceAt(data, pos, int(keyLen))
		if err != nil {
			return err
		}
		pos += int(keyLen)

		valLen, err := readU32LE(data, pos)
		if err != nil {
			return err
		}
		pos += 4
		val, err := sliceAt(data, pos, int(valLen))
		if err != nil {
			return err
		}
		pos += int(valLen)

		entries = append(entries, TemplateEntry{Key: string(key), Value: string(val)})
	}

	t.Name = string(name)
	t.Entries = entries
	t.dirty = false
	return nil
}

func (t *Template) Serialize() ([]byte, error) {
	var buf []byte
	buf = append(buf, le32b(uint32(len(t.Name)))...)
	buf = append(buf, []byte(t.Name)...)
	buf = append(buf, le32b(uint32(len(t.Entries)))...)
	for _, e := range t.Entries {
		buf = append(buf, le32b(uint32(len(e.Key)))...)
		buf = append(buf, []byte(e.Key)...)
		buf = append(buf, le32b(uint32(len(e.Value)))...)
		buf = append(buf, []byte(e.Value)...)
	}
	t.dirty = false
	return buf, nil
}
