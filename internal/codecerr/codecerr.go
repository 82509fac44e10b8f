// Package codecerr defines the typed error kinds raised by every layer of
// the codec. It is a leaf package with no dependency on the rest of the
// module, so the root package and every internal package can depend on it
// without forming an import cycle.
package codecerr

import "fmt"

// Kind identifies the category of a CodecError.
type Kind int

const (
	// MalformedHeader: a raw save state is shorter than the 16-byte header,
	// or the header's embedded info length runs past EOF.
	MalformedHeader Kind = iota
	// MalformedInfo: the info block is not valid UTF-8 JSON, lacks
	// buffer_infos, or a region descriptor is out of bounds.
	MalformedInfo
	// MalformedContainer: savestream bytes fail structural deserialization,
	// or a frame is missing a required field.
	MalformedContainer
	// UnknownId: a frame's super_sequence or new_super_blocks references an
	// ID not yet defined.
	UnknownId
	// DuplicateId: a frame's new_blocks/new_super_blocks redefines an
	// existing, non-equal entry.
	DuplicateId
	// OutOfRange: decode_one's index falls outside [0, length).
	OutOfRange
	// ResourceExhausted: a table or a single frame's serialized size
	// exceeds an implementation ceiling.
	ResourceExhausted
)

var kindMessages = map[Kind]string{
	MalformedHeader:    "malformed header",
	MalformedInfo:      "malformed info block",
	MalformedContainer: "malformed container",
	UnknownId:          "unknown id",
	DuplicateId:        "duplicate id",
	OutOfRange:         "out of range",
	ResourceExhausted:  "resource exhausted",
}

// String returns the default human-readable message for the kind.
func (k Kind) String() string {
	if msg, ok := kindMessages[k]; ok {
		return msg
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// CodecError is the error type raised by every layer of the codec: the
// framer, aligner, dedup engine, metadata differ, and container all return
// *CodecError rather than a bare error, so callers can branch on Kind.
type CodecError struct {
	kind    Kind
	message string
	cause   error
}

// Error implements the error interface.
func (e *CodecError) Error() string {
	return e.message
}

// Kind reports the error's category.
func (e *CodecError) Kind() Kind {
	return e.kind
}

// Unwrap exposes the wrapped cause, if any, to errors.Is/errors.As.
func (e *CodecError) Unwrap() error {
	return e.cause
}

// Is reports whether target is a *CodecError of the same Kind. This lets
// callers write errors.Is(err, codecerr.ErrOutOfRange) instead of a type
// switch on Kind().
func (e *CodecError) Is(target error) bool {
	other, ok := target.(*CodecError)
	if !ok {
		return false
	}
	return other.kind == e.kind
}

// New creates a CodecError carrying the default message for kind.
func New(kind Kind) *CodecError {
	return &CodecError{kind: kind, message: kind.String()}
}

// Newf creates a CodecError with a custom, formatted message appended to the
// kind's default message.
func Newf(kind Kind, format string, args ...interface{}) *CodecError {
	return &CodecError{
		kind:    kind,
		message: fmt.Sprintf("%s: %s", kind, fmt.Sprintf(format, args...)),
	}
}

// Wrap creates a CodecError of the given kind around an underlying cause.
func Wrap(kind Kind, cause error) *CodecError {
	return &CodecError{
		kind:    kind,
		message: fmt.Sprintf("%s: %s", kind, cause.Error()),
		cause:   cause,
	}
}

// WithContext returns a copy of err, if it is a *CodecError, whose message
// is prefixed with context. Kind and the wrapped cause are preserved, so
// errors.Is still matches the original sentinel after prefixing.
func WithContext(err error, context string) error {
	ce, ok := err.(*CodecError)
	if !ok {
		return err
	}
	return &CodecError{kind: ce.kind, message: context + ": " + ce.message, cause: ce.cause}
}

// Sentinel errors, one per Kind, for errors.Is comparisons against a known
// category without caring about the specific message.
var (
	ErrMalformedHeader    = New(MalformedHeader)
	ErrMalformedInfo      = New(MalformedInfo)
	ErrMalformedContainer = New(MalformedContainer)
	ErrUnknownId          = New(UnknownId)
	ErrDuplicateId        = New(DuplicateId)
	ErrOutOfRange         = New(OutOfRange)
	ErrResourceExhausted  = New(ResourceExhausted)
)
