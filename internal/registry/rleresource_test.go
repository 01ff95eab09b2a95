package registry

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

func buildMinimalRLE2(t *testing.T) []byte {
	t.Helper()
	data := make([]byte, 0, 32)
	data = append(data, "DXT5"...)
	data = append(data, "RLE2"...)
	dims := make([]byte, 8)
	binary.LittleEndian.PutUint16(dims[0:2], 4)
	binary.LittleEndian.PutUint16(dims[2:4], 4)
	binary.LittleEndian.PutUint16(dims[4:6], 1)
	data = append(data, dims...)
	mipHdr := make([]byte, 20)
	binary.LittleEndian.PutUint32(mipHdr[0:4], uint32(len(data)+20+2))
	data = append(data, mipHdr...)
	cmd := uint16(1<<2) | 0
	cmdBytes := make([]byte, 2)
	binary.LittleEndian.PutUint16(cmdBytes, cmd)
	data = append(data, cmdBytes...)
	return data
}

func TestRLEResource_ParseAndReconstruct(t *testing.T) {
	r := &RLEResource{typeID: RLEResourceTypeIDA}
	raw := buildMinimalRLE2(t)
	require.NoError(t, r.Parse(raw))

	dds, err := r.ReconstructDDS()
	require.NoError(t, err)
	require.Equal(t, "DDS ", string(dds[0:4]))
}

func TestRLEResource_Parse_RejectsBadFourCC(t *testing.T) {
	r := &RLEResource{typeID: RLEResourceTypeIDA}
	err := r.Parse([]byte{'X', 'X', 'X', 'X'})
	require.Error(t, err)
}

func TestRLEResource_Parse_EmptyInstallsDefaults(t *testing.T) {
	r := &RLEResource{typeID: RLEResourceTypeIDA}
	require.NoError(t, r.Parse(nil))
	require.Nil(t, r.raw)
}
