package utils

import (
	"encoding/binary"
	"unicode/utf16"
)

// ReadBigEndianUTF16 decodes count UTF-16 code units, big-endian, starting
// at off. This is the encoding CAS Part uses for its Name field; every
// other string field in the formats covered here is little-endian.
func ReadBigEndianUTF16(data []byte, off, count int) (string, error) {
	b, err := Slice(data, off, count*2)
	if err != nil {
		return "", err
	}
	units := make([]uint16, count)
	for i := 0; i < count; i++ {
		units[i] = binary.BigEndian.Uint16(b[i*2 : i*2+2])
	}
	return string(utf16.Decode(units)), nil
}

// WriteBigEndianUTF16 encodes s as big-endian UTF-16 code units.
func WriteBigEndianUTF16(s string) []byte {
	units := utf16.Encode([]rune(s))
	out := make([]byte, len(units)*2)
	for i, u := range units {
		binary.BigEndian.PutUint16(out[i*2:i*2+2], u)
	}
	return out
}

// ReadLittleEndianUTF16 decodes count UTF-16 code units, little-endian,
// starting at off. Used by NameMap entries and most other string fields.
func ReadLittleEndianUTF16(data []byte, off, count int) (string, error) {
	b, err := Slice(data, off, count*2)
	if err != nil {
		return "", err
	}
	units := make([]uint16, count)
	for i := 0; i < count; i++ {
		units[i] = binary.LittleEndian.Uint16(b[i*2 : i*2+2])
	}
	return string(utf16.Decode(units)), nil
}

// WriteLittleEndianUTF16 encodes s as little-endian UTF-16 code units.
func WriteLittleEndianUTF16(s string) []byte {
	units := utf16.Encode([]rune(s))
	out := make([]byte, len(units)*2)
	for i, u := range units {
		binary.LittleEndian.PutUint16(out[i*2:i*2+2], u)
	}
	return out
}

// ReadNullTerminatedASCII reads bytes from off until a NUL byte or the end
// of data, returning the string without the terminator and the offset of
// the byte immediately after the terminator (or len(data) if unterminated).
func ReadNullTerminatedASCII(data []byte, off int) (s string, next int, err error) {
	if off < 0 || off > len(data) {
		return "", off, &ErrUnexpectedEnd{Needed: off, Available: len(data)}
	}
	end := off
	for end < len(data) && data[end] != 0 {
		end++
	}
	next = end
	if next < len(data) {
		next++ // skip the terminator
	}
	return string(data[off:end]), next, nil
}

// AppendNullTerminatedASCII appends s followed by a NUL byte to buf.
func AppendNullTerminatedASCII(buf []byte, s string) []byte {
	buf = append(buf, s...)
	return append(buf, 0)
}
