package texture

import (
	"encoding/binary"

	"github.com/scigolib/dbpf/internal/dbpferr"
)

// ddsHeaderSize is the fixed size of a standard DDS header, preserved
// byte-for-byte by UnshuffleDST1/UnshuffleDST5.
const ddsHeaderSize = 128

// fourCCOffset is the byte offset of the FourCC field within the 128-byte
// DDS header: 8 bytes into the pixel-format block, which starts at 76.
const fourCCOffset = 84

var (
	fourCCDST1 = [4]byte{'D', 'S', 'T', '1'}
	fourCCDST5 = [4]byte{'D', 'S', 'T', '5'}
	fourCCDXT1 = [4]byte{'D', 'X', 'T', '1'}
	fourCCDXT5 = [4]byte{'D', 'X', 'T', '5'}
)

func rewriteFourCC(header []byte, want, replacement [4]byte) error {
	if len(header) < ddsHeaderSize {
		return dbpferr.New(dbpferr.KindUnexpectedEnd, nil).
			WithField("dds_header").WithValue(len(header)).WithLimit(ddsHeaderSize)
	}
	got := [4]byte{header[fourCCOffset], header[fourCCOffset+1], header[fourCCOffset+2], header[fourCCOffset+3]}
	if got != want {
		return dbpferr.New(dbpferr.KindInvalidFormat, nil).
			WithField("fourcc").WithValue(string(got[:]))
	}
	copy(header[fourCCOffset:fourCCOffset+4], replacement[:])
	return nil
}

// UnshuffleDST1 converts a DST1 (block-interleaved DXT1) DDS image into a
// standard DXT1 DDS image. The 128-byte header is preserved and its
// FourCC rewritten from DST1 to DXT1.
func UnshuffleDST1(dds []byte) ([]byte, error) {
	if len(dds) < ddsHeaderSize {
		return nil, dbpferr.New(dbpferr.KindUnexpectedEnd, nil).
			WithField("dds").WithValue(len(dds)).WithLimit(ddsHeaderSize)
	}

	out := make([]byte, len(dds))
	copy(out, dds)
	if err := rewriteFourCC(out, fourCCDST1, fourCCDXT1); err != nil {
		return nil, err
	}

	payload := dds[ddsHeaderSize:]
	if len(payload)%8 != 0 {
		return nil, dbpferr.New(dbpferr.KindCorruptedData, nil).
			WithField("dst1_payload").WithValue(len(payload))
	}
	numBlocks := len(payload) / 8
	half := numBlocks * 4
	if len(payload) != half*2 {
		return nil, dbpferr.New(dbpferr.KindCorruptedData, nil).WithField("dst1_payload")
	}
	halfA := payload[:half]
	halfB := payload[half:]

	dst := out[ddsHeaderSize:]
	for i := 0; i < numBlocks; i++ {
		copy(dst[i*8:i*8+4], halfA[i*4:i*4+4])
		copy(dst[i*8+4:i*8+8], halfB[i*4:i*4+4])
	}
	return out, nil
}

// UnshuffleDST5 converts a DST5 (block-interleaved DXT5) DDS image into a
// standard DXT5 DDS image, per spec §4.3's four-section layout.
func UnshuffleDST5(dds []byte) ([]byte, error) {
	if len(dds) < ddsHeaderSize {
		return nil, dbpferr.New(dbpferr.KindUnexpectedEnd, nil).
			WithField("dds").WithValue(len(dds)).WithLimit(ddsHeaderSize)
	}

	out := make([]byte, len(dds))
	copy(out, dds)
	if err := rewriteFourCC(out, fourCCDST5, fourCCDXT5); err != nil {
		return nil, err
	}

	payload := dds[ddsHeaderSize:]
	s := len(payload)
	if s%16 != 0 {
		return nil, dbpferr.New(dbpferr.KindCorruptedData, nil).
			WithField("dst5_payload").WithValue(s)
	}
	numBlocks := s / 16

	off1 := 0
	off2 := s / 8
	off3 := 3 * s / 8
	off4 := 3*s/8 + 6*s/16
	if off4+numBlocks*4 != s {
		return nil, dbpferr.New(dbpferr.KindCorruptedData, nil).WithField("dst5_section_layout")
	}

	alphaEndpoints := payload[off1:off2]
	colorEndpoints := payload[off2:off3]
	alphaIndices := payload[off3:off4]
	colorIndices := payload[off4:s]

	dst := out[ddsHeaderSize:]
	for i := 0; i < numBlocks; i++ {
		block := dst[i*16 : i*16+16]
		copy(block[0:2], alphaEndpoints[i*2:i*2+2])
		copy(block[2:8], alphaIndices[i*6:i*6+6])
		copy(block[8:12], colorEndpoints[i*4:i*4+4])
		copy(block[12:16], colorIndices[i*4:i*4+4])
	}
	return out, nil
}

// readUint32LEAt is a tiny local helper kept distinct from internal/utils
// to avoid a dependency from this leaf package into the index/header code.
func readUint32LEAt(b []byte, off int) uint32 {
	return binary.LittleEndian.Uint32(b[off : off+4])
}
