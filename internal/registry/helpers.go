package registry

import (
	"encoding/binary"
	"math"

	"github.com/scigolib/dbpf/internal/dbpferr"
)

func bitsToFloat32(bits uint32) float32 { return math.Float32frombits(bits) }
func float32ToBits(v float32) uint32    { return math.Float32bits(v) }

func readU32LE(data []byte, off int) (uint32, error) {
	if off < 0 || off+4 > len(data) {
		return 0, errUnexpectedEnd("u32", off+4, len(data))
	}
	return binary.LittleEndian.Uint32(data[off : off+4]), nil
}

func errUnexpectedEnd(field string, needed, available int) error {
	return dbpferr.New(dbpferr.KindUnexpectedEnd, nil).
		WithField(field).WithValue(needed).WithLimit(available)
}
