//go:build !unix

package atomicsave

import "os"

// lockHeaderRange is a no-op on platforms without fcntl byte-range
// locks; per spec, "unsupported" must never surface as an error.
func lockHeaderRange(f *os.File) (bool, error) {
	return false, nil
}

func unlockHeaderRange(f *os.File) {}
