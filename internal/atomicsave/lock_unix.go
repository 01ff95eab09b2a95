//go:build unix

package atomicsave

import (
	"os"

	"golang.org/x/sys/unix"
)

// lockHeaderRange takes an exclusive byte-range lock on the first
// LockRangeSize bytes of f via fcntl(F_SETLK), per spec step 2 of the
// atomic-overwrite protocol. Returns locked=false, err=nil if the
// platform rejects byte-range locks outright (treated as unsupported,
// not a failure).
func lockHeaderRange(f *os.File) (bool, error) {
	lock := unix.Flock_t{
		Type:   unix.F_WRLCK,
		Whence: 0,
		Start:  0,
		Len:    LockRangeSize,
	}
	if err := unix.FcntlFlock(f.Fd(), unix.F_SETLK, &lock); err != nil {
		if err == unix.ENOSYS || err == unix.EINVAL {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func unlockHeaderRange(f *os.File) {
	lock := unix.Flock_t{
		Type:   unix.F_UNLCK,
		Whence: 0,
		Start:  0,
		Len:    LockRangeSize,
	}
	_ = unix.FcntlFlock(f.Fd(), unix.F_SETLK, &lock)
}
