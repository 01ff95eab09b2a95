package utils

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBigEndianUTF16_RoundTrip(t *testing.T) {
	encoded := WriteBigEndianUTF16("Sully")
	decoded, err := ReadBigEndianUTF16(encoded, 0, len(encoded)/2)
	require.NoError(t, err)
	require.Equal(t, "Sully", decoded)
}

func TestLittleEndianUTF16_RoundTrip(t *testing.T) {
	encoded := WriteLittleEndianUTF16("name")
	decoded, err := ReadLittleEndianUTF16(encoded, 0, len(encoded)/2)
	require.NoError(t, err)
	require.Equal(t, "name", decoded)
}

func TestReadNullTerminatedASCII(t *testing.T) {
	data := append(AppendNullTerminatedASCII(nil, "hello"), AppendNullTerminatedASCII(nil, "world")...)

	s1, next, err := ReadNullTerminatedASCII(data, 0)
	require.NoError(t, err)
	require.Equal(t, "hello", s1)

	s2, next2, err := ReadNullTerminatedASCII(data, next)
	require.NoError(t, err)
	require.Equal(t, "world", s2)
	require.Equal(t, len(data), next2)
}

func TestReadNullTerminatedASCII_Unterminated(t *testing.T) {
	data := []byte("noterm")
	s, next, err := ReadNullTerminatedASCII(data, 0)
	require.NoError(t, err)
	require.Equal(t, "noterm", s)
	require.Equal(t, len(data), next)
}

func TestReadNullTerminatedASCII_OutOfRange(t *testing.T) {
	_, _, err := ReadNullTerminatedASCII([]byte("abc"), 10)
	require.Error(t, err)
}
