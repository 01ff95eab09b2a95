package dbpf

import "fmt"

// ResourceKey is the (type, group, instance) triple that addresses a
// single resource inside a package. It is immutable and comparable, so
// it can be used directly as a map key.
type ResourceKey struct {
	Type     uint32
	Group    uint32
	Instance uint64
}

// NewResourceKey builds a ResourceKey from its three components.
func NewResourceKey(typ, group uint32, instance uint64) ResourceKey {
	return ResourceKey{Type: typ, Group: group, Instance: instance}
}

// String formats the key as "T!G!I" hex, the conventional Sims 4 TGI
// notation.
func (k ResourceKey) String() string {
	return fmt.Sprintf("%08X!%08X!%016X", k.Type, k.Group, k.Instance)
}
