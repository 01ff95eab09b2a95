package texture

import (
	"encoding/binary"

	"github.com/scigolib/dbpf/internal/dbpferr"
)

// DecodeDDSBlocks decodes the first mip level of a 128-byte-header DDS
// buffer (DXT1 or DXT5 FourCC) into row-major RGBA8888 pixels.
func DecodeDDSBlocks(data []byte) ([]RGBA, error) {
	if len(data) < ddsHeaderSize || string(data[0:4]) != "DDS " {
		return nil, dbpferr.New(dbpferr.KindInvalidFormat, nil).WithField("dds_magic")
	}

	height := binary.LittleEndian.Uint32(data[12:16])
	width := binary.LittleEndian.Uint32(data[16:20])
	fourCC := data[fourCCOffset : fourCCOffset+4]

	body := data[ddsHeaderSize:]
	bw := (int(width) + 3) / 4
	bh := (int(height) + 3) / 4

	var blockSize int
	var decodeBlock func([]byte) ([16]RGBA, error)
	switch string(fourCC) {
	case "DXT1":
		blockSize = 8
		decodeBlock = DecodeDXT1Block
	case "DXT5":
		blockSize = 16
		decodeBlock = DecodeDXT5Block
	default:
		return nil, dbpferr.New(dbpferr.KindInvalidFormat, nil).WithField("dds_fourcc").WithValue(string(fourCC))
	}

	needed := bw * bh * blockSize
	if len(body) < needed {
		return nil, dbpferr.New(dbpferr.KindUnexpectedEnd, nil).
			WithField("dds_block_data").WithValue(len(body)).WithLimit(needed)
	}

	out := make([]RGBA, int(width)*int(height))
	for by := 0; by < bh; by++ {
		for bx := 0; bx < bw; bx++ {
			idx := by*bw + bx
			block, err := decodeBlock(body[idx*blockSize : idx*blockSize+blockSize])
			if err != nil {
				return nil, err
			}
			for ty := 0; ty < 4; ty++ {
				py := by*4 + ty
				if py >= int(height) {
					continue
				}
				for tx := 0; tx < 4; tx++ {
					px := bx*4 + tx
					if px >= int(width) {
						continue
					}
					out[py*int(width)+px] = block[ty*4+tx]
				}
			}
		}
	}
	return out, nil
}
