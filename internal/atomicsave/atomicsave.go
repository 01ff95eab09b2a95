// Package atomicsave implements the in-place overwrite protocol used to
// save a package back to the file it was opened from, plus the simpler
// direct-write path used for save-to-new-path. Grounded on distri's
// temp-file-then-publish idiom (cmd/distri/build.go, internal/install) but
// generalized: distri always atomically replaces via rename, while the
// protocol here must preserve the original file's identity (inode, open
// read-only handles) by copying bytes back into it rather than renaming
// over it.
package atomicsave

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"
	"github.com/scigolib/dbpf/internal/dbpferr"
)

// LockRangeSize is the number of leading bytes locked during step 2 of
// the in-place overwrite protocol (the header).
const LockRangeSize = 96

// InPlace executes the atomic-overwrite protocol against an already-open
// file with the header byte-range lock enabled. See InPlaceWithLock.
func InPlace(f *os.File, newContent io.Reader, contentLen int64) error {
	return InPlaceWithLock(f, newContent, contentLen, true)
}

// InPlaceWithLock executes the atomic-overwrite protocol against an
// already-open file: write newContent to a sibling temp file,
// optionally lock the header range of f (best-effort, skipped entirely
// when enforceLock is false — this is how Config.EnforceFileLockOnSave
// is honored), copy the temp file's bytes into f at offset 0, truncate f
// to the new length, flush and unlock, then remove the temp file. On any
// failure at or before the copy-back begins, f is untouched; failures
// after that point leave f in a consistent but possibly partially
// written state (not crash-safe, per the documented semantics).
func InPlaceWithLock(f *os.File, newContent io.Reader, contentLen int64, enforceLock bool) error {
	dir := filepath.Dir(f.Name())
	tmp, err := os.CreateTemp(dir, ".dbpf-save-*")
	if err != nil {
		return dbpferr.New(dbpferr.KindIO, err).WithField("temp_file")
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := io.Copy(tmp, newContent); err != nil {
		tmp.Close()
		return dbpferr.New(dbpferr.KindIO, err).WithField("temp_write")
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return dbpferr.New(dbpferr.KindIO, err).WithField("temp_sync")
	}

	var locked bool
	if enforceLock {
		var lockErr error
		locked, lockErr = lockHeaderRange(f)
		if lockErr != nil {
			tmp.Close()
			return dbpferr.New(dbpferr.KindBusy, lockErr).WithField("header_lock")
		}
	}
	if locked {
		defer unlockHeaderRange(f)
	} else {
		slog.Debug("atomic save: header byte-range lock unsupported or disabled, continuing unlocked", "file", f.Name())
	}

	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		tmp.Close()
		return dbpferr.New(dbpferr.KindIO, err).WithField("temp_rewind")
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		tmp.Close()
		return dbpferr.New(dbpferr.KindIO, err).WithField("dest_rewind")
	}
	if _, err := io.Copy(f, tmp); err != nil {
		tmp.Close()
		return dbpferr.New(dbpferr.KindIO, err).WithField("copy_back")
	}
	tmp.Close()

	if err := f.Truncate(contentLen); err != nil {
		return dbpferr.New(dbpferr.KindIO, err).WithField("truncate")
	}
	if err := f.Sync(); err != nil {
		return dbpferr.New(dbpferr.KindIO, err).WithField("final_sync")
	}
	return nil
}

// ToNewPath writes newContent directly to path using renameio's
// temp-then-publish semantics: no locking, no truncation, since no prior
// file identity needs preserving.
func ToNewPath(path string, newContent io.Reader) error {
	pf, err := renameio.NewPendingFile(path)
	if err != nil {
		return dbpferr.New(dbpferr.KindIO, err).WithField("pending_file")
	}
	defer pf.Cleanup()

	if _, err := io.Copy(pf, newContent); err != nil {
		return dbpferr.New(dbpferr.KindIO, err).WithField("write")
	}
	if err := pf.CloseAtomicallyReplace(); err != nil {
		return dbpferr.New(dbpferr.KindIO, err).WithField("publish")
	}
	return nil
}
