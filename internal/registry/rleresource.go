package registry

import (
	"github.com/scigolib/dbpf/internal/dbpferr"
	"github.com/scigolib/dbpf/internal/texture"
)

// RLE resource type IDs: both share the RLE2/RLES on-disk layout
// described in spec §4.3.
const (
	RLEResourceTypeIDA uint32 = 0x3453CF95
	RLEResourceTypeIDB uint32 = 0xBA856C78
)

// RLEResource carries the raw RLE2/RLES bytes and can reconstruct a
// standard DDS by delegating to the texture package.
type RLEResource struct {
	typeID uint32
	raw    []byte
	dirty  bool
}

func newRLEResource(typeID uint32) func([]byte) (Resource, error) {
	return func(data []byte) (Resource, error) {
		r := &RLEResource{typeID: typeID}
		if err := r.Parse(data); err != nil {
			return nil, err
		}
		return r, nil
	}
}

func newEmptyRLEResource(typeID uint32) func() (Resource, error) {
	return func() (Resource, error) {
		return &RLEResource{typeID: typeID}, nil
	}
}

func (r *RLEResource) TypeID() uint32 { return r.typeID }

func (r *RLEResource) Parse(data []byte) error {
	if len(data) == 0 {
		r.raw = nil
		r.dirty = false
		return nil
	}
	if len(data) < 4 || string(data[0:4]) != "DXT5" {
		return dbpferr.New(dbpferr.KindInvalidFormat, nil).
			WithField("rle_fourcc").WithValue(len(data))
	}
	r.raw = append([]byte(nil), data...)
	r.dirty = false
	return nil
}

func (r *RLEResource) Serialize() ([]byte, error) {
	return append([]byte(nil), r.raw...), nil
}

func (r *RLEResource) Dirty() bool { return r.dirty }
func (r *RLEResource) MarkClean()  { r.dirty = false }

// ReconstructDDS expands the RLE2/RLES payload into a standard DDS
// image (128-byte header plus block data for every mip level).
func (r *RLEResource) ReconstructDDS() ([]byte, error) {
	return texture.ExpandRLE(r.raw)
}
