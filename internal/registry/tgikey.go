package registry

import "encoding/binary"

// TGIKey is a local copy of the type/group/instance triple used by the
// complex wrappers below for their trailing reference lists. It carries
// the same triple as the root package's ResourceKey (with the instance
// split into high and low 32-bit halves) but lives here to avoid
// an import cycle (root imports this package to wire the registry).
type TGIKey struct {
	Type, Group         uint32
	InstanceHi, InstanceLo uint32
}

func readTGIKey(data []byte, off int) TGIKey {
	return TGIKey{
		Type:       binary.LittleEndian.Uint32(data[off : off+4]),
		Group:      binary.LittleEndian.Uint32(data[off+4 : off+8]),
		InstanceHi: binary.LittleEndian.Uint32(data[off+8 : off+12]),
		InstanceLo: binary.LittleEndian.Uint32(data[off+12 : off+16]),
	}
}

func appendTGIKey(buf []byte, k TGIKey) []byte {
	var b [16]byte
	binary.LittleEndian.PutUint32(b[0:4], k.Type)
	binary.LittleEndian.PutUint32(b[4:8], k.Group)
	binary.LittleEndian.PutUint32(b[8:12], k.InstanceHi)
	binary.LittleEndian.PutUint32(b[12:16], k.InstanceLo)
	return append(buf, b[:]...)
}

// appendTGIList writes a u32 count followed by 16-byte TGIKey entries,
// the trailing-reference-list shape shared by CAS Part and Sim Outfit.
func appendTGIList(buf []byte, keys []TGIKey) []byte {
	var n [4]byte
	binary.LittleEndian.PutUint32(n[:], uint32(len(keys)))
	buf = append(buf, n[:]...)
	for _, k := range keys {
		buf = appendTGIKey(buf, k)
	}
	return buf
}

func readTGIList(data []byte, off int) ([]TGIKey, int, error) {
	count, err := readU32LE(data, off)
	if err != nil {
		return nil, 0, err
	}
	pos := off + 4
	keys := make([]TGIKey, 0, count)
	for i := uint32(0); i < count; i++ {
		if pos+16 > len(data) {
			return nil, 0, errUnexpectedEnd("tgi_list", pos+16, len(data))
		}
		keys = append(keys, readTGIKey(data, pos))
		pos += 16
	}
	return keys, pos, nil
}
