package registry

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func buildSampleCASPart(version uint32) *CASPart {
	return &CASPart{
		Version:      version,
		Unused1:      7,
		Unused2:      0,
		Name:         "EP01_HatBeanie",
		LODBlocks:    []LODBlock{{Level: 0, ModelKeyIndex: 1}, {Level: 1, ModelKeyIndex: 2}},
		SwatchColors: []uint32{0xFFAA2211, 0xFF112233},
		Flags:        []byte{1, 0, 1},
		VoiceEffectHash:  0xCAFEBABE,
		SharedUVMapSpace: 1,
		Padding:          []byte{0xDE, 0xAD, 0xBE, 0xEF},
		TGIList: []TGIKey{
			{Type: 0x034AEECB, Group: 0, InstanceHi: 0, InstanceLo: 1},
		},
	}
}

func TestCASPart_SerializeParseRoundTrip_V28(t *testing.T) {
	p := buildSampleCASPart(casPartVersion28)
	data, err := p.Serialize()
	require.NoError(t, err)

	parsed := &CASPart{}
	require.NoError(t, parsed.Parse(data))
	require.Equal(t, p.Name, parsed.Name)
	require.Equal(t, p.LODBlocks, parsed.LODBlocks)
	require.Equal(t, p.SwatchColors, parsed.SwatchColors)
	require.Equal(t, p.VoiceEffectHash, parsed.VoiceEffectHash)
	require.Equal(t, p.SharedUVMapSpace, parsed.SharedUVMapSpace)
	require.Equal(t, p.TGIList, parsed.TGIList)
}

func TestCASPart_Unused3PresentOnlyWhenUnused2Positive(t *testing.T) {
	p := buildSampleCASPart(casPartVersion27)
	p.Unused2 = 5
	p.unused3 = 0x1234
	p.hasUnused3 = true

	data, err := p.Serialize()
	require.NoError(t, err)

	parsed := &CASPart{}
	require.NoError(t, parsed.Parse(data))
	require.True(t, parsed.hasUnused3)
	require.Equal(t, uint16(0x1234), parsed.unused3)
}

func TestCASPart_V27_OmitsVoiceEffectHash(t *testing.T) {
	p := buildSampleCASPart(casPartVersion27)
	data, err := p.Serialize()
	require.NoError(t, err)

	parsed := &CASPart{}
	require.NoError(t, parsed.Parse(data))
	require.Equal(t, uint32(0), parsed.VoiceEffectHash)
	require.Equal(t, uint8(1), parsed.SharedUVMapSpace)
}

func TestCASPart_Parse_RejectsUnknownVersion(t *testing.T) {
	p := buildSampleCASPart(99)
	data, err := p.Serialize()
	require.NoError(t, err)

	parsed := &CASPart{}
	err = parsed.Parse(data)
	require.Error(t, err)
}

func TestCASPart_Parse_EmptyInstallsDefaults(t *testing.T) {
	p := &CASPart{}
	require.NoError(t, p.Parse(nil))
	require.Equal(t, casPartVersion28, p.Version)
}
