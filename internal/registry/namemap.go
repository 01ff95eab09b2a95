package registry

import (
	"encoding/binary"

	"github.com/scigolib/dbpf/internal/dbpferr"
	"github.com/scigolib/dbpf/internal/utils"
)

// NameMapTypeID is the resource type ID for NameMap resources.
const NameMapTypeID uint32 = 0x0166038C

const nameMapVersion = 1

// NameMapEntry is one hash-to-name mapping.
type NameMapEntry struct {
	Hash uint64
	Name string
}

// NameMap wraps a `{version, count, entries}` hash-to-name table.
// Layout per entry: hash (u64), byte length of the UTF-16LE name (i32),
// then the name itself with no NUL terminator.
type NameMap struct {
	Entries []NameMapEntry
	dirty   bool
}

func newNameMap(data []byte) (Resource, error) {
	m := &NameMap{}
	if err := m.Parse(data); err != nil {
		return nil, err
	}
	return m, nil
}

func newEmptyNameMap() (Resource, error) {
	return &NameMap{}, nil
}

func (m *NameMap) TypeID() uint32 { return NameMapTypeID }

func (m *NameMap) Parse(data []byte) error {
	if len(data) == 0 {
		m.Entries = nil
		m.dirty = false
		return nil
	}
	if len(data) < 8 {
		return dbpferr.New(dbpferr.KindUnexpectedEnd, nil).
			WithField("namemap_header").WithValue(len(data)).WithLimit(8)
	}
	version := binary.LittleEndian.Uint32(data[0:4])
	if version != nameMapVersion {
		return dbpferr.New(dbpferr.KindInvalidFormat, nil).
			WithField("namemap_version").WithValue(version)
	}
	count := int32(binary.LittleEndian.Uint32(data[4:8]))
	if count < 0 {
		return dbpferr.New(dbpferr.KindInvalidFormat, nil).
			WithField("namemap_count").WithValue(count)
	}

	pos := 8
	entries := make([]NameMapEntry, 0, count)
	for i := int32(0); i < count; i++ {
		if pos+12 > len(data) {
			return dbpferr.New(dbpferr.KindUnexpectedEnd, nil).
				WithField("namemap_entry").WithValue(pos).WithLimit(len(data))
		}
		hash := binary.LittleEndian.Uint64(data[pos : pos+8])
		length := int32(binary.LittleEndian.Uint32(data[pos+8 : pos+12]))
		pos += 12
		if length < 0 || pos+int(length) > len(data) {
			return dbpferr.New(dbpferr.KindUnexpectedEnd, nil).
				WithField("namemap_name").WithValue(pos + int(length)).WithLimit(len(data))
		}
		name, err := utils.ReadLittleEndianUTF16(data, pos, int(length)/2)
		if err != nil {
			return err
		}
		pos += int(length)
		entries = append(entries, NameMapEntry{Hash: hash, Name: name})
	}

	m.Entries = entries
	m.dirty = false
	return nil
}

func (m *NameMap) Serialize() ([]byte, error) {
	out := make([]byte, 8)
	binary.LittleEndian.PutUint32(out[0:4], nameMapVersion)
	binary.LittleEndian.PutUint32(out[4:8], uint32(len(m.Entries)))

	for _, e := range m.Entries {
		nameBytes := utils.WriteLittleEndianUTF16(e.Name)
		var head [12]byte
		binary.LittleEndian.PutUint64(head[0:8], e.Hash)
		binary.LittleEndian.PutUint32(head[8:12], uint32(len(nameBytes)))
		out = append(out, head[:]...)
		out = append(out, nameBytes...)
	}
	return out, nil
}

func (m *NameMap) Dirty() bool { return m.dirty }
func (m *NameMap) MarkClean()  { m.dirty = false }

// Set installs or replaces the name for hash, toggling dirty.
func (m *NameMap) Set(hash uint64, name string) {
	for i := range m.Entries {
		if m.Entries[i].Hash == hash {
			m.Entries[i].Name = name
			m.dirty = true
			return
		}
	}
	m.Entries = append(m.Entries, NameMapEntry{Hash: hash, Name: name})
	m.dirty = true
}

// Lookup returns the name registered for hash, if any.
func (m *NameMap) Lookup(hash uint64) (string, bool) {
	for _, e := range m.Entries {
		if e.Hash == hash {
			return e.Name, true
		}
	}
	return "", false
}
