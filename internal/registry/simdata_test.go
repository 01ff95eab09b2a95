package registry

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func buildSampleSimData() *SimData {
	schema := &Schema{
		Name:     "ExampleSchema",
		NameHash: FNV32("ExampleSchema"),
		RowSize:  8,
		Fields: []*Field{
			{Name: "id", NameHash: FNV32("id"), Type: FieldTypeUInt32, OffsetInRow: 0},
			{Name: "weight", NameHash: FNV32("weight"), Type: FieldTypeFloat32, OffsetInRow: 4},
		},
	}
	table := &Table{
		Name:     "ExampleTable",
		NameHash: FNV32("ExampleTable"),
		Schema:   schema,
		RowCount: 2,
		Rows:     make([]byte, 16),
	}
	return &SimData{Version: 0x100, Schemas: []*Schema{schema}, Tables: []*Table{table}}
}

func TestSimData_SerializeParseRoundTrip(t *testing.T) {
	sd := buildSampleSimData()
	data, err := sd.Serialize()
	require.NoError(t, err)
	require.Equal(t, "DATA", string(data[0:4]))

	parsed := &SimData{}
	require.NoError(t, parsed.Parse(data))

	require.Len(t, parsed.Schemas, 1)
	require.Equal(t, "ExampleSchema", parsed.Schemas[0].Name)
	require.Len(t, parsed.Schemas[0].Fields, 2)
	require.Equal(t, "id", parsed.Schemas[0].Fields[0].Name)
	require.Equal(t, FieldTypeUInt32, parsed.Schemas[0].Fields[0].Type)
	require.Equal(t, "weight", parsed.Schemas[0].Fields[1].Name)
	require.Equal(t, uint32(4), parsed.Schemas[0].Fields[1].OffsetInRow)

	require.Len(t, parsed.Tables, 1)
	require.Equal(t, "ExampleTable", parsed.Tables[0].Name)
	require.NotNil(t, parsed.Tables[0].Schema)
	require.Equal(t, "ExampleSchema", parsed.Tables[0].Schema.Name)
	require.Equal(t, uint32(2), parsed.Tables[0].RowCount)
	require.Len(t, parsed.Tables[0].Rows, 16)
}

func TestSimData_RenameFieldPreservesHashesAndOffsets(t *testing.T) {
	sd := buildSampleSimData()
	originalHash := sd.Schemas[0].Fields[0].NameHash
	sd.Schemas[0].Fields[0].Name = "identifier_with_a_much_longer_name"
	sd.MarkDirty()

	data, err := sd.Serialize()
	require.NoError(t, err)

	parsed := &SimData{}
	require.NoError(t, parsed.Parse(data))
	require.Equal(t, "identifier_with_a_much_longer_name", parsed.Schemas[0].Fields[0].Name)
	require.Equal(t, originalHash, parsed.Schemas[0].Fields[0].NameHash)
	require.Equal(t, uint32(0), parsed.Schemas[0].Fields[0].OffsetInRow)
}

func TestSimData_Parse_EmptyInstallsDefaults(t *testing.T) {
	sd := &SimData{}
	require.NoError(t, sd.Parse(nil))
	require.Equal(t, uint32(0x100), sd.Version)
	require.Empty(t, sd.Schemas)
}

func TestSimData_Parse_RejectsBadMagic(t *testing.T) {
	sd := &SimData{}
	err := sd.Parse([]byte("NOPE0000000000000000000000"))
	require.Error(t, err)
}

func TestFieldType_Width(t *testing.T) {
	require.Equal(t, 1, FieldTypeBool.Width())
	require.Equal(t, 4, FieldTypeFloat32.Width())
	require.Equal(t, 16, FieldTypeTGIRef.Width())
}
