package dbpf

import "github.com/scigolib/dbpf/internal/dbpferr"

// Kind and Error are re-exported from internal/dbpferr so that the
// container, registry, and texture packages can construct exactly the
// errors the public API returns, without an import cycle back into the
// root package.
type (
	Kind  = dbpferr.Kind
	Error = dbpferr.Error
)

// The closed error taxonomy from spec §7.
const (
	KindIO                = dbpferr.KindIO
	KindInvalidFormat     = dbpferr.KindInvalidFormat
	KindUnexpectedEnd     = dbpferr.KindUnexpectedEnd
	KindSizeLimitExceeded = dbpferr.KindSizeLimitExceeded
	KindDuplicateKey      = dbpferr.KindDuplicateKey
	KindDuplicateTypeID   = dbpferr.KindDuplicateTypeID
	KindReadOnly          = dbpferr.KindReadOnly
	KindNotFound          = dbpferr.KindNotFound
	KindCorruptedData     = dbpferr.KindCorruptedData
	KindBusy              = dbpferr.KindBusy
	KindCancelled         = dbpferr.KindCancelled
)
