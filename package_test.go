package dbpf

import (
	"bytes"
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/scigolib/dbpf/internal/container"
)

// buildNameMapBytes constructs a single-entry NameMap payload by hand
// (version=1, count=1, then {hash, utf16le-length, utf16le name}), per
// the grammar in spec §4.4. This totals 8 + 8 + 4 + len(utf16le(name))
// bytes; for a 4-character ASCII name that is 8 + 20 = 28 bytes, not the
// 18 the worked example in spec §8 scenario 1 claims (see DESIGN.md for
// the discrepancy and why the grammar, not the inconsistent arithmetic,
// was implemented).
func buildNameMapBytes(hash uint64, name string) []byte {
	nameUTF16 := make([]byte, len(name)*2)
	for i, r := range name {
		binary.LittleEndian.PutUint16(nameUTF16[i*2:i*2+2], uint16(r))
	}
	buf := make([]byte, 8, 8+12+len(nameUTF16))
	binary.LittleEndian.PutUint32(buf[0:4], 1)
	binary.LittleEndian.PutUint32(buf[4:8], 1)
	var head [12]byte
	binary.LittleEndian.PutUint64(head[0:8], hash)
	binary.LittleEndian.PutUint32(head[8:12], uint32(len(nameUTF16)))
	buf = append(buf, head[:]...)
	buf = append(buf, nameUTF16...)
	return buf
}

func TestPackage_NewPackageRoundTrip_NameMapAtOffset96(t *testing.T) {
	ctx := context.Background()
	pkg, err := CreateNew(DefaultConfig())
	require.NoError(t, err)

	key := NewResourceKey(0x0166038C, 0, 1)
	payload := buildNameMapBytes(0xDEADBEEFCAFEBABE, "name")
	_, err = pkg.Add(key, payload, true)
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, pkg.SaveToStream(ctx, &out))

	reopened, err := OpenStream(ctx, bytes.NewReader(out.Bytes()), int64(out.Len()), false, DefaultConfig())
	require.NoError(t, err)

	entries := reopened.Entries()
	require.Len(t, entries, 1)

	entry, ok := reopened.Find(key)
	require.True(t, ok)
	require.EqualValues(t, container.HeaderSize, entry.ChunkOffset)
	require.EqualValues(t, len(payload), entry.FileSize)
	require.EqualValues(t, len(payload), entry.MemorySize)

	got, err := reopened.Payload(ctx, entry)
	require.NoError(t, err)
	require.Equal(t, payload, got)
}

func TestPackage_SharedFieldIndex(t *testing.T) {
	ctx := context.Background()
	pkg, err := CreateNew(DefaultConfig())
	require.NoError(t, err)

	const sharedType = 0x034AEECB
	for i := uint64(0); i < 10; i++ {
		key := NewResourceKey(sharedType, 0, (i<<32)|1)
		_, err := pkg.Add(key, []byte{byte(i), 0xAA, 0xBB, 0xCC}, true)
		require.NoError(t, err)
	}

	var out bytes.Buffer
	require.NoError(t, pkg.SaveToStream(ctx, &out))

	hdr, err := container.ParseHeader(out.Bytes()[:container.HeaderSize])
	require.NoError(t, err)
	require.EqualValues(t, 10, hdr.IndexCount)
	require.EqualValues(t, 4+4+4+240, hdr.IndexSize)

	indexBlob := out.Bytes()[hdr.IndexPosition() : hdr.IndexPosition()+hdr.IndexSize]
	rawEntries, _, err := container.ParseIndex(indexBlob, hdr.IndexCount, DefaultMaxResourceCount)
	require.NoError(t, err)
	require.Len(t, rawEntries, 10)

	flags := container.ComputeSharedFlags(rawEntries)
	require.EqualValues(t, container.FlagTypeShared|container.FlagGroupShared, flags)
}

func TestPackage_AtomicSaveLeavesFileUntouchedWhenCancelledUpfront(t *testing.T) {
	// This exercises the outer guarantee: Save checks cancellation before
	// any I/O, so a pre-cancelled context never touches the backing file.
	// The deeper mid-protocol guarantee — that a failure anywhere at or
	// before the copy-back step leaves the original file untouched — is
	// structural in atomicsave.InPlace (the original is never written to
	// until after the temp file is fully flushed); no test here or in
	// internal/atomicsave injects a failure at that point.
	dir := t.TempDir()
	path := filepath.Join(dir, "archive.package")

	ctx := context.Background()
	pkg, err := CreateNew(DefaultConfig())
	require.NoError(t, err)
	_, err = pkg.Add(NewResourceKey(1, 0, 1), []byte("payload"), true)
	require.NoError(t, err)
	require.NoError(t, pkg.SaveAs(ctx, path))

	before, err := os.ReadFile(path)
	require.NoError(t, err)

	_, err = pkg.Add(NewResourceKey(2, 0, 2), []byte("more"), true)
	require.NoError(t, err)

	cancelledCtx, cancel := context.WithCancel(context.Background())
	cancel()
	err = pkg.Save(cancelledCtx)
	require.Error(t, err)
	var derr *Error
	require.ErrorAs(t, err, &derr)
	require.Equal(t, KindCancelled, derr.Kind)

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, before, after)
}

func TestPackage_DuplicateKeyRejection(t *testing.T) {
	pkg, err := CreateNew(DefaultConfig())
	require.NoError(t, err)

	key := NewResourceKey(1, 0, 1)
	_, err = pkg.Add(key, []byte("a"), true)
	require.NoError(t, err)

	_, err = pkg.Add(key, []byte("b"), true)
	require.Error(t, err)
	var derr *Error
	require.ErrorAs(t, err, &derr)
	require.Equal(t, KindDuplicateKey, derr.Kind)

	require.Len(t, pkg.Entries(), 1)
}

func TestPackage_DeleteInvisibleAndDroppedOnSave(t *testing.T) {
	ctx := context.Background()
	pkg, err := CreateNew(DefaultConfig())
	require.NoError(t, err)

	key := NewResourceKey(1, 0, 1)
	entry, err := pkg.Add(key, []byte("gone"), true)
	require.NoError(t, err)

	require.NoError(t, pkg.Delete(entry))

	_, ok := pkg.Find(key)
	require.False(t, ok)
	require.Empty(t, pkg.Entries())

	var out bytes.Buffer
	require.NoError(t, pkg.SaveToStream(ctx, &out))

	reopened, err := OpenStream(ctx, bytes.NewReader(out.Bytes()), int64(out.Len()), false, DefaultConfig())
	require.NoError(t, err)
	_, ok = reopened.Find(key)
	require.False(t, ok)
	require.Empty(t, reopened.Entries())
}

func TestPackage_ReadOnlyRejectsMutation(t *testing.T) {
	ctx := context.Background()
	pkg, err := CreateNew(DefaultConfig())
	require.NoError(t, err)
	key := NewResourceKey(1, 0, 1)
	_, err = pkg.Add(key, []byte("x"), true)
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, pkg.SaveToStream(ctx, &out))

	ro, err := OpenStream(ctx, bytes.NewReader(out.Bytes()), int64(out.Len()), false, DefaultConfig())
	require.NoError(t, err)

	_, err = ro.Add(NewResourceKey(2, 0, 2), []byte("y"), true)
	require.Error(t, err)
	var derr *Error
	require.ErrorAs(t, err, &derr)
	require.Equal(t, KindReadOnly, derr.Kind)
}

func TestPackage_UnmodifiedRoundTripIsByteIdentical(t *testing.T) {
	ctx := context.Background()
	pkg, err := CreateNew(DefaultConfig())
	require.NoError(t, err)
	_, err = pkg.Add(NewResourceKey(0x12345678, 1, 99), []byte("hello world"), true)
	require.NoError(t, err)

	var first bytes.Buffer
	require.NoError(t, pkg.SaveToStream(ctx, &first))

	reopened, err := OpenStream(ctx, bytes.NewReader(first.Bytes()), int64(first.Len()), false, DefaultConfig())
	require.NoError(t, err)

	var second bytes.Buffer
	require.NoError(t, reopened.SaveToStream(ctx, &second))

	require.Equal(t, first.Bytes(), second.Bytes())
}
