package texture

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeDDSBlocks_DXT1_SingleBlock(t *testing.T) {
	header := buildDDSHeader(4, 4, 1)
	copy(header[fourCCOffset:fourCCOffset+4], fourCCDXT1[:])

	// Fully transparent-black DXT1 block: c0 <= c1 case (colors[3] is
	// transparent black), all indices select color 3.
	block := []byte{0x00, 0x00, 0x00, 0x00, 0xFF, 0xFF, 0xFF, 0xFF}
	data := append(header, block...)

	out, err := DecodeDDSBlocks(data)
	require.NoError(t, err)
	require.Len(t, out, 16)
	for _, px := range out {
		require.Equal(t, RGBA{0, 0, 0, 0}, px)
	}
}

func TestDecodeDDSBlocks_RejectsBadMagic(t *testing.T) {
	header := buildDDSHeader(4, 4, 1)
	header[0] = 'X'
	_, err := DecodeDDSBlocks(header)
	require.Error(t, err)
}

func TestDecodeDDSBlocks_RejectsTruncatedBody(t *testing.T) {
	header := buildDDSHeader(8, 8, 1)
	copy(header[fourCCOffset:fourCCOffset+4], fourCCDXT5[:])
	_, err := DecodeDDSBlocks(header) // no block data at all
	require.Error(t, err)
}
