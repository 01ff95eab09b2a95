package registry

// DefaultResource is the fallback wrapper for any type ID with no
// registered factory: it stores the raw bytes unchanged and serializes
// them back unmodified.
type DefaultResource struct {
	typeID uint32
	raw    []byte
	dirty  bool
}

func defaultFactory(typeID uint32) Factory {
	return Factory{
		Create: func(data []byte) (Resource, error) {
			return &DefaultResource{typeID: typeID, raw: append([]byte(nil), data...)}, nil
		},
		CreateEmpty: func() (Resource, error) {
			return &DefaultResource{typeID: typeID}, nil
		},
	}
}

func (r *DefaultResource) TypeID() uint32 { return r.typeID }

func (r *DefaultResource) Parse(data []byte) error {
	r.raw = append([]byte(nil), data...)
	return nil
}

func (r *DefaultResource) Serialize() ([]byte, error) {
	return append([]byte(nil), r.raw...), nil
}

func (r *DefaultResource) Dirty() bool { return r.dirty }
func (r *DefaultResource) MarkClean()  { r.dirty = false }

// SetRaw replaces the stored bytes and marks the resource dirty.
func (r *DefaultResource) SetRaw(data []byte) {
	r.raw = append([]byte(nil), data...)
	r.dirty = true
}

// Raw returns the currently stored bytes.
func (r *DefaultResource) Raw() []byte { return r.raw }
