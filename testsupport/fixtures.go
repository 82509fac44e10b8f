// Package testsupport holds helpers shared by the codec's test files. It
// mirrors the teacher's testing package: thin wrappers around test fixtures,
// not a testing framework of its own.
package testsupport

import (
	"io"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/bytesextra"
)

// RawState wraps a raw save state's bytes in a seekable stream, for tests
// that want to exercise a reader/writer contract rather than a plain slice.
// Writes to the returned stream do not affect rawState, and its size is
// fixed to len(rawState).
func RawState(t *testing.T, rawState []byte) io.ReadWriteSeeker {
	require.NotNil(t, rawState, "raw state must not be nil")
	buf := append([]byte{}, rawState...)
	return bytesextra.NewReadWriteSeeker(buf)
}

// ReadAll seeks s back to the start and reads it to completion.
func ReadAll(t *testing.T, s io.ReadWriteSeeker) []byte {
	_, err := s.Seek(0, io.SeekStart)
	require.NoError(t, err)
	data, err := io.ReadAll(s)
	require.NoError(t, err)
	return data
}
