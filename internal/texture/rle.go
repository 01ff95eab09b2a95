package texture

import (
	"github.com/scigolib/dbpf/internal/dbpferr"
)

// RLE sub-format identifiers, the second FourCC in the 16-byte header.
const (
	subFourCCRLE2 = "RLE2"
	subFourCCRLES = "RLES"
)

const rleHeaderSize = 16

// mipHeader is one per-mip header entry: 20 bytes for RLE2 (5 uint32
// fields), 24 bytes for RLES (6 uint32 fields, the extra being the
// specular-data cursor off4).
type mipHeader struct {
	cmdOffset uint32
	off2      uint32
	off3      uint32
	off0      uint32
	off1      uint32
	off4      uint32 // RLES only
}

func mipHeaderSize(isRLES bool) int {
	if isRLES {
		return 24
	}
	return 20
}

func parseMipHeader(data []byte, off int, isRLES bool) (mipHeader, error) {
	size := mipHeaderSize(isRLES)
	if off+size > len(data) {
		return mipHeader{}, dbpferr.New(dbpferr.KindUnexpectedEnd, nil).
			WithField("mip_header").WithValue(off).WithLimit(len(data))
	}
	h := mipHeader{
		cmdOffset: readUint32LEAt(data, off),
		off2:      readUint32LEAt(data, off+4),
		off3:      readUint32LEAt(data, off+8),
		off0:      readUint32LEAt(data, off+12),
		off1:      readUint32LEAt(data, off+16),
	}
	if isRLES {
		h.off4 = readUint32LEAt(data, off+20)
	}
	return h, nil
}

// opaqueAlphaPrefix is RLE2's canonical fully-opaque 8-byte alpha block:
// a0=a1=255, all indices 0, so every texel takes a0=255.
var opaqueAlphaPrefix = [8]byte{0xFF, 0xFF, 0, 0, 0, 0, 0, 0}

// transparentAlphaPrefix is the fully-transparent 8-byte alpha block emitted
// for op=0 runs: a0=0x00, a1=0x05 (a0<a1, 4-interpolation mode), indices 0
// select alpha[0]=0 for every texel in the block.
var transparentAlphaPrefix = [8]byte{0x00, 0x05, 0, 0, 0, 0, 0, 0}

// blockCount returns ceil(w/4)*ceil(h/4), the number of DXT blocks at a
// given mip level.
func blockCount(w, h uint16) int {
	bw := (int(w) + 3) / 4
	bh := (int(h) + 3) / 4
	if bw < 1 {
		bw = 1
	}
	if bh < 1 {
		bh = 1
	}
	return bw * bh
}

// ExpandRLE reconstructs a standard DDS (128-byte header + DXT5 block
// data for every mip level) from an RLE2- or RLES-encoded resource.
func ExpandRLE(data []byte) ([]byte, error) {
	if len(data) < rleHeaderSize {
		return nil, dbpferr.New(dbpferr.KindUnexpectedEnd, nil).
			WithField("rle_header").WithValue(len(data)).WithLimit(rleHeaderSize)
	}
	if string(data[0:4]) != "DXT5" {
		return nil, dbpferr.New(dbpferr.KindInvalidFormat, nil).
			WithField("fourcc").WithValue(string(data[0:4]))
	}
	sub := string(data[4:8])
	var isRLES bool
	switch sub {
	case subFourCCRLE2:
		isRLES = false
	case subFourCCRLES:
		isRLES = true
	default:
		return nil, dbpferr.New(dbpferr.KindInvalidFormat, nil).
			WithField("sub_fourcc").WithValue(sub)
	}

	width := readUint16LEAt(data, 8)
	height := readUint16LEAt(data, 10)
	mipCount := readUint16LEAt(data, 12)
	// bytes 14-15 reserved, preserved implicitly (not round-tripped since
	// this is a one-way expansion into DDS, per spec §4.3/§8).

	entrySize := mipHeaderSize(isRLES)
	headers := make([]mipHeader, 0, mipCount+1)
	for i := 0; i < int(mipCount); i++ {
		off := rleHeaderSize + i*entrySize
		h, err := parseMipHeader(data, off, isRLES)
		if err != nil {
			return nil, err
		}
		headers = append(headers, h)
	}

	// Synthetic sentinel header: every offset caps at len(data), the
	// essential invariant that gives the final mip's command walk a
	// stopping condition.
	sentinel := mipHeader{
		cmdOffset: uint32(len(data)),
		off0:      uint32(len(data)),
		off1:      uint32(len(data)),
		off2:      uint32(len(data)),
		off3:      uint32(len(data)),
		off4:      uint32(len(data)),
	}
	headers = append(headers, sentinel)

	var body []byte
	w, h := width, height
	for mip := 0; mip < int(mipCount); mip++ {
		expanded, err := expandMip(data, headers[mip], headers[mip+1], isRLES)
		if err != nil {
			return nil, err
		}
		body = append(body, expanded...)

		if w > 1 {
			w /= 2
		}
		if h > 1 {
			h /= 2
		}
	}

	header := buildDDSHeader(width, height, mipCount)
	return append(header, body...), nil
}

func expandMip(data []byte, cur, next mipHeader, isRLES bool) ([]byte, error) {
	cmdEnd := int(next.cmdOffset)
	cmdPos := int(cur.cmdOffset)

	off0 := int(cur.off0)
	off1 := int(cur.off1)
	off2 := int(cur.off2)
	off3 := int(cur.off3)
	off4 := int(cur.off4)

	var out []byte
	for cmdPos < cmdEnd {
		if cmdPos+2 > len(data) {
			return nil, dbpferr.New(dbpferr.KindUnexpectedEnd, nil).WithField("rle_command")
		}
		cmd := uint16(data[cmdPos]) | uint16(data[cmdPos+1])<<8
		cmdPos += 2

		op := cmd & 0x3
		count := int(cmd >> 2)

		switch op {
		case 0:
			for i := 0; i < count; i++ {
				block := make([]byte, 16)
				copy(block[0:8], transparentAlphaPrefix[:])
				out = append(out, block...)
			}
		case 1:
			for i := 0; i < count; i++ {
				block := make([]byte, 16)
				if err := copyRange(block[0:2], data, off0, 2); err != nil {
					return nil, err
				}
				off0 += 2
				if err := copyRange(block[2:8], data, off1, 6); err != nil {
					return nil, err
				}
				off1 += 6
				if err := copyRange(block[8:12], data, off2, 4); err != nil {
					return nil, err
				}
				off2 += 4
				if err := copyRange(block[12:16], data, off3, 4); err != nil {
					return nil, err
				}
				off3 += 4
				if isRLES {
					off4 += 16 // specular cursor tracked, not emitted
				}
				out = append(out, block...)
			}
		case 2:
			for i := 0; i < count; i++ {
				block := make([]byte, 16)
				if isRLES {
					if err := copyRange(block[0:2], data, off0, 2); err != nil {
						return nil, err
					}
					off0 += 2
					if err := copyRange(block[2:8], data, off1, 6); err != nil {
						return nil, err
					}
					off1 += 6
					off4 += 16
				} else {
					copy(block[0:8], opaqueAlphaPrefix[:])
				}
				if err := copyRange(block[8:12], data, off2, 4); err != nil {
					return nil, err
				}
				off2 += 4
				if err := copyRange(block[12:16], data, off3, 4); err != nil {
					return nil, err
				}
				off3 += 4
				out = append(out, block...)
			}
		default:
			return nil, dbpferr.New(dbpferr.KindCorruptedData, nil).
				WithField("rle_opcode").WithValue(op)
		}
	}

	return out, nil
}

func copyRange(dst []byte, src []byte, off, n int) error {
	s, err := sliceOrErr(src, off, n)
	if err != nil {
		return err
	}
	copy(dst, s)
	return nil
}

func sliceOrErr(data []byte, off, n int) ([]byte, error) {
	if off < 0 || n < 0 || off+n > len(data) {
		return nil, dbpferr.New(dbpferr.KindUnexpectedEnd, nil).
			WithField("rle_stream").WithValue(off + n).WithLimit(len(data))
	}
	return data[off : off+n], nil
}

func readUint16LEAt(b []byte, off int) uint16 {
	return uint16(b[off]) | uint16(b[off+1])<<8
}
