package savestream_test

import (
	"errors"
	"testing"

	savestream "github.com/sumitshetye2/v86-savestreams"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodecErrorNewf(t *testing.T) {
	err := savestream.Newf(savestream.OutOfRange, "index %d not in [0, %d)", 5, 2)
	assert.Equal(t, "out of range: index 5 not in [0, 2)", err.Error())
	assert.ErrorIs(t, err, savestream.ErrOutOfRange)
}

func TestCodecErrorWrap(t *testing.T) {
	cause := errors.New("unexpected EOF")
	err := savestream.Wrap(savestream.MalformedContainer, cause)

	assert.Equal(t, "malformed container: unexpected EOF", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, savestream.ErrMalformedContainer)
	assert.NotErrorIs(t, err, savestream.ErrUnknownId)
}

func TestCodecErrorKind(t *testing.T) {
	err := savestream.New(savestream.DuplicateId)
	assert.Equal(t, savestream.DuplicateId, err.Kind())
}

func TestAppendErrorAccumulates(t *testing.T) {
	acc := savestream.AppendError(nil, nil)
	assert.Nil(t, acc)

	acc = savestream.AppendError(acc, errors.New("first"))
	acc = savestream.AppendError(acc, errors.New("second"))
	require.NotNil(t, acc)
	assert.Contains(t, acc.Error(), "first")
	assert.Contains(t, acc.Error(), "second")
}
