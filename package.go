package dbpf

import (
	"context"
	"io"
	"os"
	"sync"

	"github.com/scigolib/dbpf/internal/container"
	"github.com/scigolib/dbpf/internal/dbpferr"
	"github.com/scigolib/dbpf/internal/utils"
)

// Package is an open DBPF archive: an ordered sequence of
// ResourceIndexEntry plus the registry used to dispatch payload bytes to
// a concrete Resource. It is single-writer, multi-reader per instance
// (spec §5); callers needing concurrent mutation from multiple
// goroutines must serialize their own calls.
type Package struct {
	mu sync.Mutex

	cfg      Config
	registry *Registry

	entries []*ResourceIndexEntry

	readOnly bool
	dirty    bool

	path string
	file *os.File

	// backing serves lazy payload reads for entries that still point at
	// on-disk bytes (ChunkOffset != ChunkOffsetUnwritten). nil for a
	// package with no such entries, e.g. one built entirely by CreateNew.
	backing io.ReaderAt

	// header carries the fields Open/OpenStream read that this package
	// otherwise has no opinion on (user version, timestamps), so that
	// Save preserves them instead of zeroing them out.
	header container.Header

	onIndexInvalidated func()
}

// checkCancel reports KindCancelled if ctx has already been cancelled.
// Called at every I/O boundary per spec §5.
func checkCancel(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return dbpferr.New(KindCancelled, ctx.Err())
	default:
		return nil
	}
}

// CreateNew returns an empty, writable Package with no backing file.
// Entries added to it carry ChunkOffsetUnwritten until the first Save.
func CreateNew(cfg Config) (*Package, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Package{
		cfg:      cfg,
		registry: NewRegistry(),
		dirty:    true,
	}, nil
}

// Open opens the DBPF archive at path. writable controls whether Add,
// Replace, Delete, and Save are permitted; a read-only Package rejects
// them with KindReadOnly.
func Open(ctx context.Context, path string, writable bool, cfg Config) (*Package, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := checkCancel(ctx); err != nil {
		return nil, err
	}

	flag := os.O_RDONLY
	if writable {
		flag = os.O_RDWR
	}
	//nolint:gosec // G304: caller-provided archive path is the whole point of this API
	f, err := os.OpenFile(path, flag, 0o644)
	if err != nil {
		return nil, dbpferr.New(KindIO, err).WithField("path").WithValue(path)
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, dbpferr.New(KindIO, err).WithField("stat")
	}

	pkg, err := openFromReaderAt(f, info.Size(), cfg, writable)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	pkg.path = path
	pkg.file = f
	return pkg, nil
}

// OpenStream opens a DBPF archive already held in memory or behind an
// arbitrary io.ReaderAt (size must be the exact byte length of r). A
// Package opened this way has no backing os.File, so Save fails with
// KindIO; use SaveAs or SaveToStream instead.
func OpenStream(ctx context.Context, r io.ReaderAt, size int64, writable bool, cfg Config) (*Package, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := checkCancel(ctx); err != nil {
		return nil, err
	}
	return openFromReaderAt(r, size, cfg, writable)
}

func openFromReaderAt(r io.ReaderAt, size int64, cfg Config, writable bool) (*Package, error) {
	hdrBuf := make([]byte, container.HeaderSize)
	if _, err := r.ReadAt(hdrBuf, 0); err != nil {
		return nil, dbpferr.New(KindIO, err).WithField("header")
	}
	hdr, err := container.ParseHeader(hdrBuf)
	if err != nil {
		return nil, err
	}
	if hdr.IndexCount > uint32(cfg.MaxResourceCount) {
		return nil, dbpferr.New(KindSizeLimitExceeded, nil).
			WithField("index_count").WithValue(hdr.IndexCount).WithLimit(cfg.MaxResourceCount)
	}

	indexPos := int64(hdr.IndexPosition())
	indexSize := int64(hdr.IndexSize)
	if indexSize > cfg.MaxResourceSize {
		return nil, dbpferr.New(KindSizeLimitExceeded, nil).
			WithField("index_size").WithValue(indexSize).WithLimit(cfg.MaxResourceSize)
	}
	if indexPos < 0 || indexPos+indexSize > size {
		return nil, dbpferr.New(KindInvalidFormat, nil).
			WithField("index_position").WithValue(indexPos).WithPosition(indexPos)
	}

	blob := make([]byte, indexSize)
	if indexSize > 0 {
		if _, err := r.ReadAt(blob, indexPos); err != nil {
			return nil, dbpferr.New(KindIO, err).WithField("index").WithPosition(indexPos)
		}
	}

	// A maliciously or corruptly large index_count, multiplied by the
	// smallest possible on-disk entry width, must not overflow before it
	// is compared against the actual index bytes available.
	minIndexBytes, err := utils.SafeMultiply(uint64(hdr.IndexCount), container.MinEntrySize)
	if err != nil {
		return nil, dbpferr.New(KindInvalidFormat, err).WithField("index_count").WithValue(hdr.IndexCount)
	}
	if verr := utils.ValidateBufferSize(minIndexBytes, uint64(indexSize), "index"); verr != nil {
		return nil, dbpferr.New(KindInvalidFormat, verr).WithField("index_count").WithValue(hdr.IndexCount)
	}

	rawEntries, _, err := container.ParseIndex(blob, hdr.IndexCount, cfg.MaxResourceCount)
	if err != nil {
		return nil, err
	}

	entries := make([]*ResourceIndexEntry, 0, len(rawEntries))
	for _, re := range rawEntries {
		entries = append(entries, &ResourceIndexEntry{
			Key: ResourceKey{
				Type:     re.Type,
				Group:    re.Group,
				Instance: uint64(re.InstanceHi)<<32 | uint64(re.InstanceLo),
			},
			ChunkOffset:             re.ChunkOffset,
			FileSize:                re.FileSize,
			MemorySize:              re.MemorySize,
			CompressionType:         re.CompressionType,
			Unknown2:                re.Unknown2,
			state:                   statePristine,
			originalCompressionType: re.CompressionType,
		})
	}

	return &Package{
		cfg:      cfg,
		registry: NewRegistry(),
		entries:  entries,
		readOnly: !writable,
		backing:  r,
		header:   *hdr,
	}, nil
}

// Close releases the backing file handle, if any. Safe to call on a
// Package with no backing file or more than once.
func (p *Package) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.file == nil {
		return nil
	}
	err := p.file.Close()
	p.file = nil
	if p.backing == p.file {
		p.backing = nil
	}
	return err
}

// Registry returns the resource-factory registry this Package dispatches
// through. Callers register custom wrappers via Registry().Register.
func (p *Package) Registry() *Registry {
	return p.registry
}

// Dirty reports whether the package has unsaved mutations.
func (p *Package) Dirty() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dirty
}

// OnIndexInvalidated registers fn to be called whenever the entry list is
// rebuilt (after a successful Save/SaveAs/SaveToStream). Spec §3:
// "Emits an IndexInvalidated event whenever the underlying entry list is
// rebuilt after load or save." Only one callback is kept; registering
// again replaces the previous one.
func (p *Package) OnIndexInvalidated(fn func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onIndexInvalidated = fn
}

func (p *Package) fireIndexInvalidated() {
	if p.onIndexInvalidated != nil {
		p.onIndexInvalidated()
	}
}

// Entries returns every non-deleted entry, in iteration order. The
// returned pointers are live handles into the package's own bookkeeping;
// they are invalidated by the next Save/SaveAs/SaveToStream (spec §9),
// after which callers must call Entries/Find/FindAll again.
func (p *Package) Entries() []*ResourceIndexEntry {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*ResourceIndexEntry, 0, len(p.entries))
	for _, e := range p.entries {
		if !e.IsDeleted {
			out = append(out, e)
		}
	}
	return out
}

// Find returns the live entry matching key, skipping deleted entries, by
// linear scan (spec §4.5: "the core does not cache [a hash table]
// because iteration order is exposed").
func (p *Package) Find(key ResourceKey) (*ResourceIndexEntry, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, e := range p.entries {
		if !e.IsDeleted && e.Key == key {
			return e, true
		}
	}
	return nil, false
}

// FindAll returns every live, non-deleted entry for which pred returns
// true, in iteration order.
func (p *Package) FindAll(pred func(*ResourceIndexEntry) bool) []*ResourceIndexEntry {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []*ResourceIndexEntry
	for _, e := range p.entries {
		if e.IsDeleted {
			continue
		}
		if pred(e) {
			out = append(out, e)
		}
	}
	return out
}

// Payload materializes e's decompressed bytes, per spec §4.5: an already
// cached buffer is returned as-is; an unwritten or on-disk deleted-marker
// entry returns an empty slice; otherwise the backing stream is seeked to
// ChunkOffset, FileSize bytes are read, and inflated through Component A
// if compressed.
func (p *Package) Payload(ctx context.Context, e *ResourceIndexEntry) ([]byte, error) {
	if err := checkCancel(ctx); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.payloadLocked(e)
}

func (p *Package) payloadLocked(e *ResourceIndexEntry) ([]byte, error) {
	if e.cachedPayload != nil {
		return e.cachedPayload, nil
	}
	if e.ChunkOffset == ChunkOffsetUnwritten || e.IsOnDiskDeletedMarker() {
		return []byte{}, nil
	}
	if int64(e.FileSize) > p.cfg.MaxResourceSize || int64(e.MemorySize) > p.cfg.MaxResourceSize {
		return nil, dbpferr.New(KindSizeLimitExceeded, nil).
			WithField("resource_size").WithValue(e.FileSize).WithLimit(p.cfg.MaxResourceSize)
	}
	if p.backing == nil {
		return nil, dbpferr.New(KindIO, nil).WithField("backing").WithValue("package has no backing stream")
	}

	raw := utils.GetBuffer(int(e.FileSize))
	if e.FileSize > 0 {
		if _, err := p.backing.ReadAt(raw, int64(e.ChunkOffset)); err != nil {
			utils.ReleaseBuffer(raw)
			return nil, dbpferr.New(KindIO, err).WithField("payload").WithPosition(int64(e.ChunkOffset))
		}
	}

	var out []byte
	if e.IsCompressed() {
		inflated, err := inflatePayload(raw, int(e.MemorySize))
		utils.ReleaseBuffer(raw)
		if err != nil {
			return nil, err
		}
		out = inflated
	} else {
		// raw is a pooled buffer that will be recycled by another caller;
		// the cache must own its own copy rather than alias pool memory.
		out = append([]byte(nil), raw...)
		utils.ReleaseBuffer(raw)
	}

	e.cachedPayload = out
	if e.state == statePristine {
		e.state = stateRead
	}
	return out, nil
}

// Resource materializes e's payload and dispatches it through the
// registry to produce a concrete Resource.
func (p *Package) Resource(ctx context.Context, e *ResourceIndexEntry) (Resource, error) {
	data, err := p.Payload(ctx, e)
	if err != nil {
		return nil, err
	}
	p.mu.Lock()
	reg := p.registry
	p.mu.Unlock()
	return reg.Create(e.Key.Type, data)
}

// Add appends a new entry with the given key and payload. If
// rejectDuplicates is true and a live entry with the same key already
// exists, Add fails with KindDuplicateKey and makes no change.
func (p *Package) Add(key ResourceKey, data []byte, rejectDuplicates bool) (*ResourceIndexEntry, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.readOnly {
		return nil, dbpferr.New(KindReadOnly, nil).WithField("add")
	}
	if rejectDuplicates {
		for _, e := range p.entries {
			if !e.IsDeleted && e.Key == key {
				return nil, dbpferr.New(KindDuplicateKey, nil).WithField("key").WithValue(key.String())
			}
		}
	}
	if int64(len(data)) > p.cfg.MaxResourceSize {
		return nil, dbpferr.New(KindSizeLimitExceeded, nil).
			WithField("payload").WithValue(len(data)).WithLimit(p.cfg.MaxResourceSize)
	}

	e := &ResourceIndexEntry{
		Key:           key,
		ChunkOffset:   ChunkOffsetUnwritten,
		FileSize:      uint32(len(data)),
		MemorySize:    uint32(len(data)),
		Unknown2:      1,
		cachedPayload: data,
		dirty:         true,
		state:         stateModified,
	}
	p.entries = append(p.entries, e)
	p.dirty = true
	return e, nil
}

// Replace overwrites e's payload in place and marks it dirty. If the
// entry was originally compressed and Config.PreserveCompressionOnSave
// is set, Save recompresses the new payload; Replace itself always
// stores the uncompressed bytes so Payload/Resource observe them
// immediately.
func (p *Package) Replace(e *ResourceIndexEntry, data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.readOnly {
		return dbpferr.New(KindReadOnly, nil).WithField("replace")
	}
	if int64(len(data)) > p.cfg.MaxResourceSize {
		return dbpferr.New(KindSizeLimitExceeded, nil).
			WithField("payload").WithValue(len(data)).WithLimit(p.cfg.MaxResourceSize)
	}
	e.cachedPayload = data
	e.FileSize = uint32(len(data))
	e.MemorySize = uint32(len(data))
	e.CompressionType = 0
	e.markDirty()
	p.dirty = true
	return nil
}

// Delete tombstones e: is_deleted is set, but the entry is kept in the
// backing sequence (invisible to Find/FindAll/Entries) until the next
// Save physically drops it, per spec §4.5.
func (p *Package) Delete(e *ResourceIndexEntry) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.readOnly {
		return dbpferr.New(KindReadOnly, nil).WithField("delete")
	}
	e.IsDeleted = true
	e.dirty = true
	p.dirty = true
	return nil
}
