package dbpf

import (
	"bytes"
	"context"
	"io"
	"os"

	"github.com/scigolib/dbpf/internal/atomicsave"
	"github.com/scigolib/dbpf/internal/compression"
	"github.com/scigolib/dbpf/internal/container"
	"github.com/scigolib/dbpf/internal/dbpferr"
)

func inflatePayload(raw []byte, expectedSize int) ([]byte, error) {
	return compression.Inflate(raw, expectedSize)
}

// buildArchive writes the full archive (header, payloads, index) to an
// in-memory buffer per spec §4.5 "Writing the output stream", and
// returns the entries as they will read back (fresh pointers, state
// Written). It never touches p.entries or p.backing; callers install the
// result only after every I/O step of the surrounding save has
// succeeded.
func (p *Package) buildArchive(ctx context.Context) ([]byte, []*ResourceIndexEntry, error) {
	var buf bytes.Buffer
	buf.Write(make([]byte, container.HeaderSize))

	finalized := make([]*ResourceIndexEntry, 0, len(p.entries))

	for _, e := range p.entries {
		if err := checkCancel(ctx); err != nil {
			return nil, nil, err
		}
		if e.IsDeleted {
			continue
		}

		// An entry that was never mutated (state Pristine, Read, or Written
		// by an earlier save — Modified is reserved for Add/Replace) is copied
		// byte-for-byte from its original on-disk bytes rather than
		// recompressed from the cached decompressed payload. Recompressing
		// an unmodified entry would produce a different (though
		// equally valid) deflate stream and break the round-trip-bytes
		// invariant.
		if e.state != stateModified && e.ChunkOffset != ChunkOffsetUnwritten {
			raw := make([]byte, e.FileSize)
			if e.FileSize > 0 {
				if p.backing == nil {
					return nil, nil, dbpferr.New(KindIO, nil).WithField("backing")
				}
				if _, err := p.backing.ReadAt(raw, int64(e.ChunkOffset)); err != nil {
					return nil, nil, dbpferr.New(KindIO, err).WithField("direct_copy").WithPosition(int64(e.ChunkOffset))
				}
			}
			newOffset := buf.Len()
			buf.Write(raw)
			finalized = append(finalized, &ResourceIndexEntry{
				Key:                     e.Key,
				ChunkOffset:             uint32(newOffset),
				FileSize:                e.FileSize,
				MemorySize:              e.MemorySize,
				CompressionType:         e.CompressionType,
				Unknown2:                e.Unknown2,
				cachedPayload:           e.cachedPayload,
				state:                   stateWritten,
				originalCompressionType: e.originalCompressionType,
			})
			continue
		}

		payload, err := p.payloadLocked(e)
		if err != nil {
			return nil, nil, err
		}

		fileBytes := payload
		compType := uint16(0)
		if p.cfg.PreserveCompressionOnSave && e.originalCompressionType != 0 {
			compressed, cerr := compression.Deflate(payload)
			if cerr != nil {
				return nil, nil, cerr
			}
			fileBytes = compressed
			compType = e.originalCompressionType
		}

		newOffset := buf.Len()
		buf.Write(fileBytes)
		finalized = append(finalized, &ResourceIndexEntry{
			Key:                     e.Key,
			ChunkOffset:             uint32(newOffset),
			FileSize:                uint32(len(fileBytes)),
			MemorySize:              uint32(len(payload)),
			CompressionType:         compType,
			Unknown2:                1,
			cachedPayload:           payload,
			state:                   stateWritten,
			originalCompressionType: compType,
		})
	}

	indexPos := uint32(buf.Len())

	rawEntries := make([]container.Entry, len(finalized))
	for i, e := range finalized {
		rawEntries[i] = container.Entry{
			Type:            e.Key.Type,
			Group:           e.Key.Group,
			InstanceHi:      uint32(e.Key.Instance >> 32),
			InstanceLo:      uint32(e.Key.Instance),
			ChunkOffset:     e.ChunkOffset,
			FileSize:        e.FileSize,
			MemorySize:      e.MemorySize,
			CompressionType: e.CompressionType,
			Unknown2:        e.Unknown2,
		}
	}
	flags := container.ComputeSharedFlags(rawEntries)
	indexBlob := container.WriteIndex(flags, rawEntries)
	buf.Write(indexBlob)

	if int64(len(indexBlob)) > p.cfg.MaxResourceSize {
		return nil, nil, dbpferr.New(KindSizeLimitExceeded, nil).
			WithField("index_size").WithValue(len(indexBlob)).WithLimit(p.cfg.MaxResourceSize)
	}

	hdr := p.header
	hdr.IndexCount = uint32(len(finalized))
	hdr.IndexSize = uint32(len(indexBlob))
	hdr.IndexPositionLow = indexPos
	hdr.IndexPositionHigh = indexPos

	out := buf.Bytes()
	copy(out[0:container.HeaderSize], hdr.Write())

	return out, finalized, nil
}

// Save writes the package back to the file it was opened from, using
// the atomic-overwrite protocol of spec §4.5: temp file, best-effort
// header lock, copy-back, truncate, unlock. It fails with KindIO if the
// package has no backing os.File (a stream- or memory-opened package, or
// one built by CreateNew) — use SaveAs or SaveToStream instead.
func (p *Package) Save(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.readOnly {
		return dbpferr.New(KindReadOnly, nil).WithField("save")
	}
	if p.file == nil {
		return dbpferr.New(KindIO, nil).WithField("file").WithValue("package has no backing file; use SaveAs")
	}
	if err := checkCancel(ctx); err != nil {
		return err
	}

	data, finalized, err := p.buildArchive(ctx)
	if err != nil {
		return err
	}
	if err := checkCancel(ctx); err != nil {
		return err
	}
	if err := atomicsave.InPlaceWithLock(p.file, bytes.NewReader(data), int64(len(data)), p.cfg.EnforceFileLockOnSave); err != nil {
		return err
	}

	p.entries = finalized
	p.backing = p.file
	p.dirty = false
	p.fireIndexInvalidated()
	return nil
}

// SaveAs writes the package to a new path using renameio's
// temp-then-publish semantics (no locking, no truncation, per spec
// §4.5), then adopts path as the package's new backing file.
func (p *Package) SaveAs(ctx context.Context, path string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := checkCancel(ctx); err != nil {
		return err
	}

	data, finalized, err := p.buildArchive(ctx)
	if err != nil {
		return err
	}
	if err := checkCancel(ctx); err != nil {
		return err
	}
	if err := atomicsave.ToNewPath(path, bytes.NewReader(data)); err != nil {
		return err
	}

	flag := os.O_RDONLY
	if !p.readOnly {
		flag = os.O_RDWR
	}
	//nolint:gosec // G304: caller-provided destination path is the whole point of this API
	if f, ferr := os.OpenFile(path, flag, 0o644); ferr == nil {
		if p.file != nil {
			_ = p.file.Close()
		}
		p.file = f
		p.backing = f
	}

	p.path = path
	p.entries = finalized
	p.dirty = false
	p.fireIndexInvalidated()
	return nil
}

// SaveToStream writes the archive to w directly, with no file-identity
// protocol (no temp file, no locking) — appropriate for an in-memory
// buffer or a pipe, per spec §6's abstract save_to_stream.
func (p *Package) SaveToStream(ctx context.Context, w io.Writer) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := checkCancel(ctx); err != nil {
		return err
	}

	data, finalized, err := p.buildArchive(ctx)
	if err != nil {
		return err
	}
	if err := checkCancel(ctx); err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return dbpferr.New(KindIO, err).WithField("stream_write")
	}

	// The finalized entries' offsets refer to data, not to the old source.
	p.backing = bytes.NewReader(data)
	p.entries = finalized
	p.dirty = false
	p.fireIndexInvalidated()
	return nil
}
