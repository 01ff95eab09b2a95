package registry

import (
	"encoding/binary"

	"github.com/scigolib/dbpf/internal/dbpferr"
	"github.com/scigolib/dbpf/internal/texture"
)

// Image type IDs: PNG and DDS/DST share the same wrapper.
const (
	ImagePNGTypeID uint32 = 0x00B00000
	ImageDDSTypeID uint32 = 0x00B2D882
)

var pngMagic = [8]byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}

// ImageFormat distinguishes the two magics an Image resource can carry.
type ImageFormat int

const (
	ImageFormatUnknown ImageFormat = iota
	ImageFormatPNG
	ImageFormatDDS
)

// Image wraps a raw PNG or DDS/DST payload, exposing just enough
// structure (format, width, height) to satisfy callers without fully
// decoding pixels; full RGBA8888 decode is delegated to the texture
// package's DXT/DST/RLE routines on demand.
type Image struct {
	typeID uint32
	Format ImageFormat
	Width  uint32
	Height uint32
	raw    []byte
	dirty  bool
}

func newImage(typeID uint32) func([]byte) (Resource, error) {
	return func(data []byte) (Resource, error) {
		img := &Image{typeID: typeID}
		if err := img.Parse(data); err != nil {
			return nil, err
		}
		return img, nil
	}
}

func newEmptyImage(typeID uint32) func() (Resource, error) {
	return func() (Resource, error) {
		return &Image{typeID: typeID}, nil
	}
}

func (img *Image) TypeID() uint32 { return img.typeID }

func (img *Image) Parse(data []byte) error {
	img.raw = append([]byte(nil), data...)
	img.dirty = false
	if len(data) == 0 {
		img.Format = ImageFormatUnknown
		img.Width, img.Height = 0, 0
		return nil
	}

	switch {
	case len(data) >= 8 && [8]byte(data[0:8]) == pngMagic:
		return img.parsePNG(data)
	case len(data) >= 4 && string(data[0:4]) == "DDS ":
		return img.parseDDS(data)
	default:
		return dbpferr.New(dbpferr.KindInvalidFormat, nil).
			WithField("image_magic").WithValue(data[:min(4, len(data))])
	}
}

func (img *Image) parsePNG(data []byte) error {
	// IHDR is the mandatory first chunk: 8-byte signature, 4-byte
	// length, "IHDR", then width/height as big-endian u32s.
	const ihdrOffset = 8 + 4 + 4
	if len(data) < ihdrOffset+8 {
		return dbpferr.New(dbpferr.KindUnexpectedEnd, nil).
			WithField("png_ihdr").WithValue(len(data)).WithLimit(ihdrOffset + 8)
	}
	if string(data[12:16]) != "IHDR" {
		return dbpferr.New(dbpferr.KindInvalidFormat, nil).WithField("png_ihdr_tag")
	}
	img.Format = ImageFormatPNG
	img.Width = binary.BigEndian.Uint32(data[16:20])
	img.Height = binary.BigEndian.Uint32(data[20:24])
	return nil
}

func (img *Image) parseDDS(data []byte) error {
	if len(data) < 20 {
		return dbpferr.New(dbpferr.KindUnexpectedEnd, nil).
			WithField("dds_header").WithValue(len(data)).WithLimit(20)
	}
	img.Format = ImageFormatDDS
	img.Height = binary.LittleEndian.Uint32(data[12:16])
	img.Width = binary.LittleEndian.Uint32(data[16:20])
	return nil
}

func (img *Image) Serialize() ([]byte, error) {
	return append([]byte(nil), img.raw...), nil
}

func (img *Image) Dirty() bool { return img.dirty }
func (img *Image) MarkClean()  { img.dirty = false }

// SetRaw replaces the payload and reparses it, toggling dirty.
func (img *Image) SetRaw(data []byte) error {
	if err := img.Parse(data); err != nil {
		return err
	}
	img.dirty = true
	return nil
}

// DecodeRGBA8888 decompresses the image payload to raw RGBA8888 pixels,
// delegating to the texture package's block decoders. PNG decoding is
// out of scope for this path (PNG already stores RGBA losslessly
// through the standard image/png codec at the application layer); only
// DXT1/DXT5 block payloads embedded in a DDS container are handled here.
func (img *Image) DecodeRGBA8888() ([]texture.RGBA, error) {
	if img.Format != ImageFormatDDS {
		return nil, dbpferr.New(dbpferr.KindInvalidFormat, nil).
			WithField("image_format").WithValue(img.Format)
	}
	return texture.DecodeDDSBlocks(img.raw)
}
