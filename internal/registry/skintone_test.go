package registry

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSkinTone_RoundTrip_NarrowFlags(t *testing.T) {
	s := &SkinTone{Version: 5, ColorIndex: 2, Flags: []uint32{1, 2, 0xFFFF}}
	data, err := s.Serialize()
	require.NoError(t, err)

	parsed := &SkinTone{}
	require.NoError(t, parsed.Parse(data))
	require.Equal(t, s.Flags, parsed.Flags)
	require.True(t, parsed.usesNarrowFlags())
}

func TestSkinTone_RoundTrip_WideFlags(t *testing.T) {
	s := &SkinTone{Version: 9, ColorIndex: 1, Flags: []uint32{0x10000, 2}}
	data, err := s.Serialize()
	require.NoError(t, err)

	parsed := &SkinTone{}
	require.NoError(t, parsed.Parse(data))
	require.Equal(t, s.Flags, parsed.Flags)
	require.False(t, parsed.usesNarrowFlags())
}

func TestSkinTone_Parse_EmptyInstallsDefaults(t *testing.T) {
	s := &SkinTone{}
	require.NoError(t, s.Parse(nil))
	require.Equal(t, uint32(7), s.Version)
}
