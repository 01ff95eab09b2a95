package utils

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReadUint32LE(t *testing.T) {
	data := []byte{0xEF, 0xBE, 0xAD, 0xDE, 0x00}
	v, err := ReadUint32LE(data, 0)
	require.NoError(t, err)
	require.Equal(t, uint32(0xDEADBEEF), v)

	_, err = ReadUint32LE(data, 2)
	require.Error(t, err)
	var uerr *ErrUnexpectedEnd
	require.ErrorAs(t, err, &uerr)
}

func TestReadUint64LE(t *testing.T) {
	data := []byte{0xBE, 0xBA, 0xFE, 0xCA, 0xEF, 0xBE, 0xAD, 0xDE}
	v, err := ReadUint64LE(data, 0)
	require.NoError(t, err)
	require.Equal(t, uint64(0xDEADBEEFCAFEBABE), v)
}

func TestPutUint32LE_RoundTrip(t *testing.T) {
	data := make([]byte, 8)
	require.NoError(t, PutUint32LE(data, 2, 0x12345678))
	v, err := ReadUint32LE(data, 2)
	require.NoError(t, err)
	require.Equal(t, uint32(0x12345678), v)
}

func TestPutUint64LE_RoundTrip(t *testing.T) {
	data := make([]byte, 12)
	require.NoError(t, PutUint64LE(data, 4, 0xDEADBEEFCAFEBABE))
	v, err := ReadUint64LE(data, 4)
	require.NoError(t, err)
	require.Equal(t, uint64(0xDEADBEEFCAFEBABE), v)
}

func TestSlice_UnexpectedEnd(t *testing.T) {
	data := make([]byte, 4)
	_, err := Slice(data, 2, 4)
	require.Error(t, err)
	var uerr *ErrUnexpectedEnd
	require.ErrorAs(t, err, &uerr)
	require.Equal(t, 6, uerr.Needed)
	require.Equal(t, 4, uerr.Available)
}

func TestReadOffset_Null(t *testing.T) {
	data := make([]byte, 8)
	require.NoError(t, PutUint32LE(data, 0, NullOffset))

	_, ok, err := ReadOffset(data, 0)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestReadOffset_Resolves(t *testing.T) {
	data := make([]byte, 16)
	// slot at position 4 points 20 bytes forward, i.e. absolute 24.
	require.NoError(t, PutUint32LE(data, 4, 20))

	abs, ok, err := ReadOffset(data, 4)
	require.NoError(t, err)
	require.True(t, ok)
	require.EqualValues(t, 24, abs)
}

func TestWriteOffset_ReadOffset_RoundTrip(t *testing.T) {
	data := make([]byte, 32)
	const slot = 8
	const target = 100

	rel := WriteOffset(target, slot)
	require.NoError(t, PutUint32LE(data, slot, rel))

	abs, ok, err := ReadOffset(data, slot)
	require.NoError(t, err)
	require.True(t, ok)
	require.EqualValues(t, target, abs)
}
