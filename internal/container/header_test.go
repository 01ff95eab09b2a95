package container

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func validHeaderBytes() []byte {
	h := &Header{IndexCount: 3, IndexPositionLow: 200, IndexSize: 60}
	return h.Write()
}

func TestParseHeader_RoundTrip(t *testing.T) {
	buf := validHeaderBytes()
	h, err := ParseHeader(buf)
	require.NoError(t, err)
	require.Equal(t, uint32(SupportedMajor), h.Major)
	require.Equal(t, uint32(SupportedMinor), h.Minor)
	require.Equal(t, uint32(3), h.IndexCount)
	require.Equal(t, uint32(200), h.IndexPosition())
}

func TestParseHeader_PreferredPositionWinsWhenNonZero(t *testing.T) {
	h := &Header{IndexCount: 1, IndexPositionLow: 96, IndexPositionHigh: 4096}
	parsed, err := ParseHeader(h.Write())
	require.NoError(t, err)
	require.Equal(t, uint32(4096), parsed.IndexPosition())
}

func TestParseHeader_RejectsShortBuffer(t *testing.T) {
	_, err := ParseHeader(make([]byte, HeaderSize-1))
	require.Error(t, err)
}

func TestParseHeader_RejectsBadMagic(t *testing.T) {
	buf := validHeaderBytes()
	buf[0] = 'X'
	_, err := ParseHeader(buf)
	require.Error(t, err)
}

func TestParseHeader_RejectsUnsupportedVersion(t *testing.T) {
	buf := validHeaderBytes()
	buf[offMajor] = 3
	_, err := ParseHeader(buf)
	require.Error(t, err)
}
