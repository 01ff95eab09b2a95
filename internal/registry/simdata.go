package registry

import (
	"bytes"
	"encoding/binary"

	"github.com/scigolib/dbpf/internal/dbpferr"
	"github.com/scigolib/dbpf/internal/utils"
)

// SimDataTypeID is the resource type ID for SimData resources.
const SimDataTypeID uint32 = 0x545AC67A

const (
	simDataMagic         = "DATA"
	simDataHeaderSize    = 24
	simDataPaddingSize   = 8
	dataTableEntrySize   = 28
	schemaTableEntrySize = 24
	fieldTableEntrySize  = 20
	rowDataAlignment     = 16
)

// FieldType enumerates SimData's fixed-width scalar/composite field
// types. Exact numeric values are this package's own assignment: the
// grammar only describes "an enum of ~12 scalar/composite types with
// fixed widths" without naming the wire values, so these are chosen to
// be internally consistent and are never interpreted against an
// external table.
type FieldType uint32

const (
	FieldTypeBool FieldType = iota
	FieldTypeChar8
	FieldTypeInt8
	FieldTypeUInt8
	FieldTypeInt16
	FieldTypeUInt16
	FieldTypeInt32
	FieldTypeUInt32
	FieldTypeInt64
	FieldTypeUInt64
	FieldTypeFloat32
	FieldTypeTGIRef // type+group+instance triple, 16 bytes
)

// Width returns the fixed byte width of t, or 0 for an unrecognized tag.
func (t FieldType) Width() int {
	switch t {
	case FieldTypeBool, FieldTypeChar8, FieldTypeInt8, FieldTypeUInt8:
		return 1
	case FieldTypeInt16, FieldTypeUInt16:
		return 2
	case FieldTypeInt32, FieldTypeUInt32, FieldTypeFloat32:
		return 4
	case FieldTypeInt64, FieldTypeUInt64:
		return 8
	case FieldTypeTGIRef:
		return 16
	default:
		return 0
	}
}

// Field describes one column of a Schema.
type Field struct {
	Name          string
	NameHash      uint32
	Type          FieldType
	OffsetInRow   uint32
	unknownOffset uint32 // preserved verbatim; purpose unspecified
}

// Schema is a named row layout shared by zero or more Tables.
type Schema struct {
	Name     string
	NameHash uint32
	RowSize  uint32
	Fields   []*Field
	unknown  uint32
}

// Table is a named, schema-typed collection of contiguous row bytes.
type Table struct {
	Name      string
	NameHash  uint32
	Schema    *Schema
	RowCount  uint32
	Rows      []byte
	unknown1  uint32
	unknown2  uint32
}

// SimData is the top-level resource: a set of schemas and the tables
// that reference them by identity (never by name, so renaming a schema
// never silently rebinds a table to a different one).
type SimData struct {
	Version uint32
	Schemas []*Schema
	Tables  []*Table
	dirty   bool
}

func newSimData(data []byte) (Resource, error) {
	s := &SimData{}
	if err := s.Parse(data); err != nil {
		return nil, err
	}
	return s, nil
}

func newEmptySimData() (Resource, error) {
	return &SimData{Version: 0x100}, nil
}

func (s *SimData) TypeID() uint32 { return SimDataTypeID }

func (s *SimData) Dirty() bool { return s.dirty }
func (s *SimData) MarkClean()  { s.dirty = false }

// MarkDirty flags the resource as modified; callers mutating Schemas or
// Tables in place must call this explicitly since the fields are plain
// exported slices.
func (s *SimData) MarkDirty() { s.dirty = true }

func (s *SimData) Parse(data []byte) error {
	if len(data) == 0 {
		s.Version = 0x100
		s.Schemas, s.Tables = nil, nil
		s.dirty = false
		return nil
	}
	if len(data) < simDataHeaderSize {
		return dbpferr.New(dbpferr.KindUnexpectedEnd, nil).
			WithField("simdata_header").WithValue(len(data)).WithLimit(simDataHeaderSize)
	}
	if string(data[0:4]) != simDataMagic {
		return dbpferr.New(dbpferr.KindInvalidFormat, nil).
			WithField("simdata_magic").WithValue(string(data[0:4]))
	}
	version, err := utils.ReadUint32LE(data, 4)
	if err != nil {
		return err
	}

	dataTableAbs, hasDataTable, err := utils.ReadOffset(data, 8)
	if err != nil {
		return err
	}
	dataCount, err := utils.ReadUint32LE(data, 12)
	if err != nil {
		return err
	}
	structTableAbs, hasStructTable, err := utils.ReadOffset(data, 16)
	if err != nil {
		return err
	}
	structCount, err := utils.ReadUint32LE(data, 20)
	if err != nil {
		return err
	}

	schemas := make([]*Schema, 0, structCount)
	if hasStructTable {
		for i := uint32(0); i < structCount; i++ {
			pos := int(structTableAbs) + int(i)*schemaTableEntrySize
			sch, err := parseSchema(data, pos)
			if err != nil {
				return err
			}
			schemas = append(schemas, sch)
		}
	}

	tables := make([]*Table, 0, dataCount)
	if hasDataTable {
		for i := uint32(0); i < dataCount; i++ {
			pos := int(dataTableAbs) + int(i)*dataTableEntrySize
			tbl, err := parseTable(data, pos, schemas)
			if err != nil {
				return err
			}
			tables = append(tables, tbl)
		}
	}

	s.Version = version
	s.Schemas = schemas
	s.Tables = tables
	s.dirty = false
	return nil
}

func parseSchema(data []byte, pos int) (*Schema, error) {
	nameAbs, hasName, err := utils.ReadOffset(data, pos)
	if err != nil {
		return nil, err
	}
	nameHash, err := utils.ReadUint32LE(data, pos+4)
	if err != nil {
		return nil, err
	}
	unknown, err := utils.ReadUint32LE(data, pos+8)
	if err != nil {
		return nil, err
	}
	rowSize, err := utils.ReadUint32LE(data, pos+12)
	if err != nil {
		return nil, err
	}
	fieldTableAbs, hasFieldTable, err := utils.ReadOffset(data, pos+16)
	if err != nil {
		return nil, err
	}
	fieldCount, err := utils.ReadUint32LE(data, pos+20)
	if err != nil {
		return nil, err
	}

	var name string
	if hasName {
		name, err = readNullTerminated(data, int(nameAbs))
		if err != nil {
			return nil, err
		}
	}

	fields := make([]*Field, 0, fieldCount)
	if hasFieldTable {
		for i := uint32(0); i < fieldCount; i++ {
			fpos := int(fieldTableAbs) + int(i)*fieldTableEntrySize
			f, err := parseField(data, fpos)
			if err != nil {
				return nil, err
			}
			fields = append(fields, f)
		}
	}

	return &Schema{Name: name, NameHash: nameHash, RowSize: rowSize, Fields: fields, unknown: unknown}, nil
}

func parseField(data []byte, pos int) (*Field, error) {
	nameAbs, hasName, err := utils.ReadOffset(data, pos)
	if err != nil {
		return nil, err
	}
	nameHash, err := utils.ReadUint32LE(data, pos+4)
	if err != nil {
		return nil, err
	}
	typeID, err := utils.ReadUint32LE(data, pos+8)
	if err != nil {
		return nil, err
	}
	offsetInRow, err := utils.ReadUint32LE(data, pos+12)
	if err != nil {
		return nil, err
	}
	unknownOffset, err := utils.ReadUint32LE(data, pos+16)
	if err != nil {
		return nil, err
	}

	var name string
	if hasName {
		name, err = readNullTerminated(data, int(nameAbs))
		if err != nil {
			return nil, err
		}
	}

	return &Field{
		Name:          name,
		NameHash:      nameHash,
		Type:          FieldType(typeID),
		OffsetInRow:   offsetInRow,
		unknownOffset: unknownOffset,
	}, nil
}

func parseTable(data []byte, pos int, schemas []*Schema) (*Table, error) {
	nameAbs, hasName, err := utils.ReadOffset(data, pos)
	if err != nil {
		return nil, err
	}
	nameHash, err := utils.ReadUint32LE(data, pos+4)
	if err != nil {
		return nil, err
	}
	schemaAbs, hasSchema, err := utils.ReadOffset(data, pos+8)
	if err != nil {
		return nil, err
	}
	unknown1, err := utils.ReadUint32LE(data, pos+12)
	if err != nil {
		return nil, err
	}
	unknown2, err := utils.ReadUint32LE(data, pos+16)
	if err != nil {
		return nil, err
	}
	fieldDataAbs, hasFieldData, err := utils.ReadOffset(data, pos+20)
	if err != nil {
		return nil, err
	}
	rowCount, err := utils.ReadUint32LE(data, pos+24)
	if err != nil {
		return nil, err
	}

	var name string
	if hasName {
		name, err = readNullTerminated(data, int(nameAbs))
		if err != nil {
			return nil, err
		}
	}

	var schema *Schema
	if hasSchema {
		schema = findSchemaAtOffset(data, schemas, int(schemaAbs))
	}

	var rows []byte
	if hasFieldData && schema != nil {
		n := int(rowCount) * int(schema.RowSize)
		rows, err = utils.Slice(data, int(fieldDataAbs), n)
		if err != nil {
			return nil, err
		}
		rows = append([]byte(nil), rows...)
	}

	return &Table{
		Name: name, NameHash: nameHash, Schema: schema, RowCount: rowCount,
		Rows: rows, unknown1: unknown1, unknown2: unknown2,
	}, nil
}

// findSchemaAtOffset resolves a schema-offset field to one of the
// already-parsed schemas. Schema positions are not tracked during
// parseSchema; instead the name hash stored in the schema-table entry
// at targetAbs is read and matched against the parsed schemas.
func findSchemaAtOffset(data []byte, schemas []*Schema, targetAbs int) *Schema {
	// A table's schema-offset points at the schema-table entry itself,
	// so the entry's name hash (at targetAbs+4) selects the schema. The
	// first parsed schema with that hash is returned; nil if none has it
	// or the offset is out of range.
	for _, sch := range schemas {
		nameHash, err := utils.ReadUint32LE(data, targetAbs+4)
		if err != nil {
			continue
		}
		if sch.NameHash == nameHash {
			return sch
		}
	}
	return nil
}

func readNullTerminated(data []byte, off int) (string, error) {
	if off < 0 || off > len(data) {
		return "", dbpferr.New(dbpferr.KindUnexpectedEnd, nil).
			WithField("simdata_name").WithValue(off).WithLimit(len(data))
	}
	end := bytes.IndexByte(data[off:], 0)
	if end < 0 {
		return "", dbpferr.New(dbpferr.KindUnexpectedEnd, nil).
			WithField("simdata_name_terminator").WithValue(off)
	}
	return string(data[off : off+end]), nil
}

// simDataWriter accumulates the growing output buffer and the set of
// offset-slot positions that must be patched once every section's
// final absolute position is known: the two-phase protocol spec §4.4
// describes for SimData serialization.
type simDataWriter struct {
	buf   []byte
	slots []offsetSlot
}

type offsetSlot struct {
	slotPos  int
	targetFn func() (int, bool) // returns absolute target position, or ok=false for null
}

func (w *simDataWriter) pos() int { return len(w.buf) }

func (w *simDataWriter) writeBytes(b []byte) { w.buf = append(w.buf, b...) }

func (w *simDataWriter) writeU32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.writeBytes(b[:])
}

// placeholderOffset reserves 4 zero bytes at the current position and
// records how to resolve them once every section has a final position.
func (w *simDataWriter) placeholderOffset(targetFn func() (int, bool)) {
	slot := w.pos()
	w.writeU32(0)
	w.slots = append(w.slots, offsetSlot{slotPos: slot, targetFn: targetFn})
}

func (w *simDataWriter) patch() {
	for _, slot := range w.slots {
		target, ok := slot.targetFn()
		var rel uint32
		if !ok {
			rel = utils.NullOffset
		} else {
			rel = utils.WriteOffset(int64(target), int64(slot.slotPos))
		}
		binary.LittleEndian.PutUint32(w.buf[slot.slotPos:slot.slotPos+4], rel)
	}
}

func (s *SimData) Serialize() ([]byte, error) {
	w := &simDataWriter{}

	// Phase 1: header with zero placeholders, padding, data table,
	// aligned row data, schema table, field tables, name pool.
	w.writeBytes([]byte(simDataMagic))
	w.writeU32(s.Version)

	var dataTablePos, schemaTablePos int
	dataTableKnown, schemaTableKnown := false, false
	w.placeholderOffset(func() (int, bool) { return dataTablePos, dataTableKnown && len(s.Tables) > 0 })
	w.writeU32(uint32(len(s.Tables)))
	w.placeholderOffset(func() (int, bool) { return schemaTablePos, schemaTableKnown && len(s.Schemas) > 0 })
	w.writeU32(uint32(len(s.Schemas)))

	w.writeBytes(make([]byte, simDataPaddingSize))

	dataTablePos = w.pos()
	dataTableKnown = true

	type tableSlots struct {
		namePos, schemaPos, fieldDataPos         int
		hasName, hasSchema, hasFieldData bool
	}
	tSlots := make([]tableSlots, len(s.Tables))

	for i, t := range s.Tables {
		idx := i
		w.placeholderOffset(func() (int, bool) { return tSlots[idx].namePos, tSlots[idx].hasName })
		w.writeU32(t.NameHash)
		w.placeholderOffset(func() (int, bool) { return tSlots[idx].schemaPos, tSlots[idx].hasSchema })
		w.writeU32(t.unknown1)
		w.writeU32(t.unknown2)
		w.placeholderOffset(func() (int, bool) { return tSlots[idx].fieldDataPos, tSlots[idx].hasFieldData })
		w.writeU32(t.RowCount)
	}

	// Row data, 16-byte aligned, one contiguous block per table in order.
	for i, t := range s.Tables {
		if len(t.Rows) == 0 {
			continue
		}
		for w.pos()%rowDataAlignment != 0 {
			w.writeBytes([]byte{0})
		}
		tSlots[i].fieldDataPos = w.pos()
		tSlots[i].hasFieldData = true
		w.writeBytes(t.Rows)
	}

	schemaTablePos = w.pos()
	schemaTableKnown = true

	type schemaSlots struct {
		namePos, fieldTablePos       int
		hasName, hasFieldTable bool
	}
	sSlots := make([]schemaSlots, len(s.Schemas))

	for i, sch := range s.Schemas {
		idx := i
		w.placeholderOffset(func() (int, bool) { return sSlots[idx].namePos, sSlots[idx].hasName })
		w.writeU32(sch.NameHash)
		w.writeU32(sch.unknown)
		w.writeU32(sch.RowSize)
		w.placeholderOffset(func() (int, bool) { return sSlots[idx].fieldTablePos, sSlots[idx].hasFieldTable })
		w.writeU32(uint32(len(sch.Fields)))
	}

	type fieldSlots struct {
		namePos int
		hasName bool
	}
	allFieldSlots := make([][]fieldSlots, len(s.Schemas))

	for i, sch := range s.Schemas {
		if len(sch.Fields) == 0 {
			continue
		}
		sSlots[i].fieldTablePos = w.pos()
		sSlots[i].hasFieldTable = true
		allFieldSlots[i] = make([]fieldSlots, len(sch.Fields))
		for j, f := range sch.Fields {
			si, fi := i, j
			w.placeholderOffset(func() (int, bool) { return allFieldSlots[si][fi].namePos, allFieldSlots[si][fi].hasName })
			w.writeU32(f.NameHash)
			w.writeU32(uint32(f.Type))
			w.writeU32(f.OffsetInRow)
			w.writeU32(f.unknownOffset)
		}
	}

	// Name pool: fields of all schemas, then schema names, then table names.
	for i, sch := range s.Schemas {
		for j, f := range sch.Fields {
			allFieldSlots[i][j].namePos = w.pos()
			allFieldSlots[i][j].hasName = true
			w.writeBytes(appendNullTerminated(f.Name))
		}
	}
	for i, sch := range s.Schemas {
		sSlots[i].namePos = w.pos()
		sSlots[i].hasName = true
		w.writeBytes(appendNullTerminated(sch.Name))
	}
	for i, t := range s.Tables {
		tSlots[i].namePos = w.pos()
		tSlots[i].hasName = true
		w.writeBytes(appendNullTerminated(t.Name))
	}

	// Table schema-offset slots resolve to the schema-table entry
	// position of the referenced schema (matched by identity, found via
	// its index in s.Schemas).
	schemaEntryPos := make(map[*Schema]int, len(s.Schemas))
	for i, sch := range s.Schemas {
		schemaEntryPos[sch] = schemaTablePos + i*schemaTableEntrySize
	}
	for i, t := range s.Tables {
		if t.Schema != nil {
			if pos, ok := schemaEntryPos[t.Schema]; ok {
				tSlots[i].schemaPos = pos
				tSlots[i].hasSchema = true
			}
		}
	}

	w.patch()
	s.dirty = false
	return w.buf, nil
}

func appendNullTerminated(s string) []byte {
	return append([]byte(s), 0)
}
