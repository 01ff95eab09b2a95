package registry

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSimOutfit_SerializeParseRoundTrip(t *testing.T) {
	o := &SimOutfit{
		Version:      1,
		Sliders:      []SliderReference{{SliderKeyIndex: 3, Amount: 0.5}},
		UnknownBlock: []byte{1, 2, 3},
		ByteList:     []byte{9, 8, 7, 6},
		IGTList: []IGTKey{
			{InstanceHi: 0, InstanceLo: 42, Group: 0, Type: 0x025ED6F4},
		},
	}

	data, err := o.Serialize()
	require.NoError(t, err)

	parsed := &SimOutfit{}
	require.NoError(t, parsed.Parse(data))
	require.Equal(t, o.Sliders, parsed.Sliders)
	require.Equal(t, o.UnknownBlock, parsed.UnknownBlock)
	require.Equal(t, o.ByteList, parsed.ByteList)
	require.Equal(t, o.IGTList, parsed.IGTList)
}

func TestSimOutfit_Parse_EmptyInstallsDefaults(t *testing.T) {
	o := &SimOutfit{}
	require.NoError(t, o.Parse(nil))
	require.Equal(t, uint32(1), o.Version)
}

func TestSimOutfit_Parse_RejectsTGIOffsetMismatch(t *testing.T) {
	o := &SimOutfit{Version: 1}
	data, err := o.Serialize()
	require.NoError(t, err)
	data[4]++ // corrupt the low byte of the tgi_offset field
	err = (&SimOutfit{}).Parse(data)
	require.Error(t, err)
}
