// Package dbpferr defines the closed error taxonomy shared by the
// container, registry, and texture packages so that a failure raised deep
// inside a wrapper or the index parser surfaces to the caller with the
// same shape documented in spec §7, instead of being re-wrapped at each
// layer boundary.
package dbpferr

import "fmt"

// Kind identifies one of the closed set of error categories a Package or
// resource wrapper can report. The taxonomy is flat and closed.
type Kind int

const (
	// KindIO wraps an underlying read/write failure.
	KindIO Kind = iota
	// KindInvalidFormat reports a magic, version, or enum field with an
	// illegal value.
	KindInvalidFormat
	// KindUnexpectedEnd reports a parser or reader running out of input.
	KindUnexpectedEnd
	// KindSizeLimitExceeded reports an index, resource, or decompressed
	// payload exceeding a configured limit.
	KindSizeLimitExceeded
	// KindDuplicateKey reports a (type, group, instance) collision.
	KindDuplicateKey
	// KindDuplicateTypeID reports a registry collision.
	KindDuplicateTypeID
	// KindReadOnly reports a mutation attempted on a read-only package.
	KindReadOnly
	// KindNotFound reports a requested entry/key absent.
	KindNotFound
	// KindCorruptedData reports a decompression or codec inconsistency.
	KindCorruptedData
	// KindBusy reports a file-level lock that could not be acquired.
	KindBusy
	// KindCancelled reports an operation aborted by its cancellation
	// signal.
	KindCancelled
)

func (k Kind) String() string {
	switch k {
	case KindIO:
		return "IoError"
	case KindInvalidFormat:
		return "InvalidFormat"
	case KindUnexpectedEnd:
		return "UnexpectedEnd"
	case KindSizeLimitExceeded:
		return "SizeLimitExceeded"
	case KindDuplicateKey:
		return "DuplicateKey"
	case KindDuplicateTypeID:
		return "DuplicateTypeId"
	case KindReadOnly:
		return "ReadOnly"
	case KindNotFound:
		return "NotFound"
	case KindCorruptedData:
		return "CorruptedData"
	case KindBusy:
		return "Busy"
	case KindCancelled:
		return "Cancelled"
	default:
		return "Unknown"
	}
}

// Error is the single error type returned by every public dbpf operation.
// It carries enough context (field name, byte position, limit value) for
// callers to report the failure verbatim, per spec §7.
type Error struct {
	Kind     Kind
	Field    string      // offending field name, when applicable
	Value    interface{} // offending value, when applicable
	Position int64       // byte position, when applicable; -1 if not
	Limit    interface{} // configured limit, when applicable
	Cause    error
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Field != "" {
		msg += fmt.Sprintf(" field=%s", e.Field)
	}
	if e.Value != nil {
		msg += fmt.Sprintf(" value=%v", e.Value)
	}
	if e.Position >= 0 {
		msg += fmt.Sprintf(" position=%d", e.Position)
	}
	if e.Limit != nil {
		msg += fmt.Sprintf(" limit=%v", e.Limit)
	}
	if e.Cause != nil {
		msg += fmt.Sprintf(": %v", e.Cause)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is supports errors.Is(err, &Error{Kind: k}) style comparisons by
// matching on Kind rather than identity.
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == other.Kind
}

// New builds a bare Error of the given kind with no position set.
func New(kind Kind, cause error) *Error {
	return &Error{Kind: kind, Position: -1, Cause: cause}
}

// WithField sets Field and returns e for chaining.
func (e *Error) WithField(field string) *Error {
	e.Field = field
	return e
}

// WithValue sets Value and returns e for chaining.
func (e *Error) WithValue(v interface{}) *Error {
	e.Value = v
	return e
}

// WithPosition sets Position and returns e for chaining.
func (e *Error) WithPosition(p int64) *Error {
	e.Position = p
	return e
}

// WithLimit sets Limit and returns e for chaining.
func (e *Error) WithLimit(l interface{}) *Error {
	e.Limit = l
	return e
}
