package texture

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

// buildRLE2Transparent assembles a minimal single-mip RLE2 resource:
// header, one mip header, and a command stream with one op=0 run of
// blockCount transparent blocks.
func buildRLE2Transparent(t *testing.T, width, height uint16, blockCount int) []byte {
	t.Helper()

	cmdOffset := uint32(rleHeaderSize + 20)
	data := make([]byte, 0, 64)
	data = append(data, "DXT5"...)
	data = append(data, subFourCCRLE2...)

	dims := make([]byte, 8)
	binary.LittleEndian.PutUint16(dims[0:2], width)
	binary.LittleEndian.PutUint16(dims[2:4], height)
	binary.LittleEndian.PutUint16(dims[4:6], 1) // mip count
	data = append(data, dims...)

	mipHdr := make([]byte, 20)
	binary.LittleEndian.PutUint32(mipHdr[0:4], cmdOffset)
	data = append(data, mipHdr...)

	cmd := uint16(blockCount<<2) | 0 // op=0
	cmdBytes := make([]byte, 2)
	binary.LittleEndian.PutUint16(cmdBytes, cmd)
	data = append(data, cmdBytes...)

	return data
}

func TestExpandRLE_TransparentRun(t *testing.T) {
	data := buildRLE2Transparent(t, 8, 8, 4)
	out, err := ExpandRLE(data)
	require.NoError(t, err)

	require.Equal(t, "DDS ", string(out[0:4]))
	require.Equal(t, fourCCDXT5[:], out[fourCCOffset:fourCCOffset+4])

	body := out[ddsHeaderSize:]
	require.Len(t, body, 4*16)
	for i := 0; i < 4; i++ {
		block := body[i*16 : i*16+16]
		require.Equal(t, transparentAlphaPrefix[:], block[0:8])
	}
}

func TestExpandRLE_BlockDataSizeMatchesDimensions(t *testing.T) {
	// ceil(8/4)*ceil(8/4) = 2*2 = 4 blocks, 64 bytes of block data.
	data := buildRLE2Transparent(t, 8, 8, blockCount(8, 8))
	out, err := ExpandRLE(data)
	require.NoError(t, err)

	body := out[ddsHeaderSize:]
	require.Len(t, body, blockCount(8, 8)*16)
}

func TestExpandRLE_UnknownOpcode(t *testing.T) {
	data := buildRLE2Transparent(t, 4, 4, 1)
	// corrupt the command's low 2 bits to opcode 3.
	cmdPos := len(data) - 2
	data[cmdPos] |= 0x3
	_, err := ExpandRLE(data)
	require.Error(t, err)
}

func TestExpandRLE_WrongFourCC(t *testing.T) {
	data := buildRLE2Transparent(t, 4, 4, 1)
	data[0] = 'X'
	_, err := ExpandRLE(data)
	require.Error(t, err)
}

func TestExpandRLE_OpaqueBlocksRLE2(t *testing.T) {
	// one mip, one op=2 block, color endpoints/indices taken from off2/off3
	// placed between the mip header and the command stream; the final
	// mip's command stream runs to the end of the data.
	colorStreamOff := uint32(rleHeaderSize + 20)
	cmdOffset := colorStreamOff + 8 // after the 4+4 color bytes
	data := make([]byte, 0, 64)
	data = append(data, "DXT5"...)
	data = append(data, subFourCCRLE2...)
	dims := make([]byte, 8)
	binary.LittleEndian.PutUint16(dims[0:2], 4)
	binary.LittleEndian.PutUint16(dims[2:4], 4)
	binary.LittleEndian.PutUint16(dims[4:6], 1)
	data = append(data, dims...)

	mipHdr := make([]byte, 20)
	binary.LittleEndian.PutUint32(mipHdr[0:4], cmdOffset)
	binary.LittleEndian.PutUint32(mipHdr[4:8], colorStreamOff)   // off2: color endpoints
	binary.LittleEndian.PutUint32(mipHdr[8:12], colorStreamOff+4) // off3: color indices
	data = append(data, mipHdr...)

	data = append(data, 0xAA, 0xBB, 0xCC, 0xDD) // color endpoints
	data = append(data, 0x11, 0x22, 0x33, 0x44) // color indices

	cmd := uint16(1<<2) | 2 // op=2, count=1
	cmdBytes := make([]byte, 2)
	binary.LittleEndian.PutUint16(cmdBytes, cmd)
	data = append(data, cmdBytes...)

	out, err := ExpandRLE(data)
	require.NoError(t, err)

	block := out[ddsHeaderSize : ddsHeaderSize+16]
	require.Equal(t, opaqueAlphaPrefix[:], block[0:8])
	require.Equal(t, []byte{0xAA, 0xBB, 0xCC, 0xDD}, block[8:12])
	require.Equal(t, []byte{0x11, 0x22, 0x33, 0x44}, block[12:16])
}
