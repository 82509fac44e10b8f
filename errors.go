package savestream

import (
	multierror "github.com/hashicorp/go-multierror"

	"github.com/sumitshetye2/v86-savestreams/internal/codecerr"
)

// Kind identifies the category of a CodecError. The canonical definitions
// live in internal/codecerr, a leaf package every codec layer (and this
// root package) can depend on without an import cycle.
type Kind = codecerr.Kind

const (
	MalformedHeader    = codecerr.MalformedHeader
	MalformedInfo      = codecerr.MalformedInfo
	MalformedContainer = codecerr.MalformedContainer
	UnknownId          = codecerr.UnknownId
	DuplicateId        = codecerr.DuplicateId
	OutOfRange         = codecerr.OutOfRange
	ResourceExhausted  = codecerr.ResourceExhausted
)

// CodecError is the error type raised by every layer of the codec: the
// framer, aligner, dedup engine, metadata differ, and container all return
// *CodecError rather than a bare error, so callers can branch on Kind.
type CodecError = codecerr.CodecError

var (
	New  = codecerr.New
	Newf = codecerr.Newf
	Wrap = codecerr.Wrap
)

// Sentinel errors, one per Kind, for errors.Is comparisons against a known
// category without caring about the specific message.
var (
	ErrMalformedHeader    = codecerr.ErrMalformedHeader
	ErrMalformedInfo      = codecerr.ErrMalformedInfo
	ErrMalformedContainer = codecerr.ErrMalformedContainer
	ErrUnknownId          = codecerr.ErrUnknownId
	ErrDuplicateId        = codecerr.ErrDuplicateId
	ErrOutOfRange         = codecerr.ErrOutOfRange
	ErrResourceExhausted  = codecerr.ErrResourceExhausted
)

// AppendError folds err onto a running *multierror.Error, allocating one if
// acc is nil and err is non-nil. Collaborators that must surface every
// failure in a batch instead of aborting on the first one (the CLI
// front-end reading several input files for `encode`) use this instead of
// returning early.
func AppendError(acc *multierror.Error, err error) *multierror.Error {
	if err == nil {
		return acc
	}
	return multierror.Append(acc, err)
}
