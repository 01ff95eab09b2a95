package texture

import "encoding/binary"

// buildDDSHeader constructs a standard 128-byte DDS header for a DXT5
// image with the given dimensions and mip count. Field offsets follow the
// conventional DDS_HEADER/DDS_PIXELFORMAT layout; fourCCOffset (84) is the
// dwFourCC field used throughout this package.
func buildDDSHeader(width, height, mipCount uint16) []byte {
	h := make([]byte, ddsHeaderSize)
	copy(h[0:4], []byte("DDS "))
	binary.LittleEndian.PutUint32(h[4:8], 124) // dwSize

	const ddsdCaps = 0x1
	const ddsdHeight = 0x2
	const ddsdWidth = 0x4
	const ddsdPixelFormat = 0x1000
	const ddsdMipMapCount = 0x20000
	flags := uint32(ddsdCaps | ddsdHeight | ddsdWidth | ddsdPixelFormat)
	if mipCount > 1 {
		flags |= ddsdMipMapCount
	}
	binary.LittleEndian.PutUint32(h[8:12], flags)
	binary.LittleEndian.PutUint32(h[12:16], uint32(height))
	binary.LittleEndian.PutUint32(h[16:20], uint32(width))
	binary.LittleEndian.PutUint32(h[28:32], uint32(mipCount)) // dwMipMapCount

	binary.LittleEndian.PutUint32(h[76:80], 32)   // ddspf.dwSize
	binary.LittleEndian.PutUint32(h[80:84], 0x4)  // DDPF_FOURCC
	copy(h[84:88], fourCCDXT5[:])

	const ddsCapsTexture = 0x1000
	const ddsCapsComplex = 0x8
	const ddsCapsMipMap = 0x400000
	caps := uint32(ddsCapsTexture)
	if mipCount > 1 {
		caps |= ddsCapsComplex | ddsCapsMipMap
	}
	binary.LittleEndian.PutUint32(h[108:112], caps)

	return h
}
