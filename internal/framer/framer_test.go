package framer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	savestream "github.com/sumitshetye2/v86-savestreams"
	"github.com/sumitshetye2/v86-savestreams/internal/framer"
	"github.com/sumitshetye2/v86-savestreams/testsupport"
)

func TestSplitJoinRoundTrip(t *testing.T) {
	header := []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 2, 0, 0, 0}
	info := []byte(`{}`)
	buffer := []byte{0xAB, 0xAB, 0xAB}
	raw, err := framer.Join(framer.Components{Header: header, Info: info, Buffer: buffer})
	require.NoError(t, err)

	components, err := framer.Split(raw)
	require.NoError(t, err)
	assert.Equal(t, header, components.Header)
	assert.Equal(t, info, components.Info)
	assert.Equal(t, buffer, components.Buffer)
}

func TestSplitAllZeroMinimalState(t *testing.T) {
	header := make([]byte, 16)
	header[12] = 2 // info length = 2, little-endian
	raw := append(header, []byte("{}")...)
	raw = append(raw, 0, 0) // pad 16+2 up to the 4-byte boundary at 20

	components, err := framer.Split(raw)
	require.NoError(t, err)
	assert.Equal(t, []byte("{}"), components.Info)
	assert.Empty(t, components.Buffer)
}

func TestSplitJoinRoundTripThroughSeekableStream(t *testing.T) {
	header := make([]byte, 16)
	header[12] = 2
	buffer := []byte{1, 2, 3, 4}
	raw, err := framer.Join(framer.Components{Header: header, Info: []byte("{}"), Buffer: buffer})
	require.NoError(t, err)

	stream := testsupport.RawState(t, raw)
	roundTripped := testsupport.ReadAll(t, stream)

	components, err := framer.Split(roundTripped)
	require.NoError(t, err)
	assert.Equal(t, []byte("{}"), components.Info)
	assert.Equal(t, buffer, components.Buffer)
}

func TestSplitFailsOnShortHeader(t *testing.T) {
	_, err := framer.Split(make([]byte, 10))
	require.Error(t, err)
	assert.ErrorIs(t, err, savestream.ErrMalformedHeader)
}

func TestSplitFailsWhenInfoLengthRunsPastEOF(t *testing.T) {
	header := make([]byte, 16)
	header[12] = 100 // claims 100 bytes of info but none follow
	_, err := framer.Split(header)
	require.Error(t, err)
	assert.ErrorIs(t, err, savestream.ErrMalformedHeader)
}

func TestJoinFailsOnWrongHeaderLength(t *testing.T) {
	_, err := framer.Join(framer.Components{Header: []byte{1, 2, 3}})
	require.Error(t, err)
	assert.ErrorIs(t, err, savestream.ErrMalformedHeader)
}

func TestJoinPadsInfoTo4ByteBoundary(t *testing.T) {
	header := make([]byte, 16)
	header[12] = 3
	raw, err := framer.Join(framer.Components{
		Header: header,
		Info:   []byte("xyz"), // 3 bytes, needs 1 byte of padding
		Buffer: []byte{0xFF},
	})
	require.NoError(t, err)
	require.Len(t, raw, 16+4+1)
	assert.Equal(t, byte(0), raw[16+3])
	assert.Equal(t, byte(0xFF), raw[16+4])
}
