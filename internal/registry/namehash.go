package registry

import "hash/fnv"

// FNV32 computes the 32-bit Fowler-Noll-Vo hash of name, used throughout
// SimData (and other DBPF formats) to associate names with a fast
// integer key without storing the string inline everywhere.
func FNV32(name string) uint32 {
	h := fnv.New32()
	_, _ = h.Write([]byte(name))
	return h.Sum32()
}
