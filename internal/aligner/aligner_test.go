package aligner_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	savestream "github.com/sumitshetye2/v86-savestreams"
	"github.com/sumitshetye2/v86-savestreams/internal/aligner"
	"github.com/sumitshetye2/v86-savestreams/internal/orderedjson"
)

func mustParseInfo(t *testing.T, s string) *orderedjson.Object {
	t.Helper()
	val, err := orderedjson.Unmarshal([]byte(s))
	require.NoError(t, err)
	obj, ok := val.(*orderedjson.Object)
	require.True(t, ok)
	return obj
}

func TestParseRegions(t *testing.T) {
	info := mustParseInfo(t, `{"buffer_infos":[{"offset":0,"length":300}]}`)
	regions, err := aligner.ParseRegions(info)
	require.NoError(t, err)
	assert.Equal(t, []aligner.Region{{Offset: 0, Length: 300}}, regions)
}

func TestParseRegionsMissingKey(t *testing.T) {
	_, err := aligner.ParseRegions(orderedjson.NewObject())
	require.Error(t, err)
	assert.ErrorIs(t, err, savestream.ErrMalformedInfo)
}

func TestAlignSingleRegion(t *testing.T) {
	// Mirrors the spec's concrete scenario 3: 300 bytes of 0xAB.
	regions := []aligner.Region{{Offset: 0, Length: 300}}
	buffer := bytes.Repeat([]byte{0xAB}, 300)

	aligned, err := aligner.Align(regions, buffer, 256, 65536)
	require.NoError(t, err)
	assert.Len(t, aligned, 65536)
	assert.Equal(t, bytes.Repeat([]byte{0xAB}, 300), aligned[:300])
	assert.True(t, bytes.Equal(aligned[300:], make([]byte, 65536-300)))
}

func TestAlignUnalignRoundTrip(t *testing.T) {
	regions := []aligner.Region{
		{Offset: 0, Length: 100},
		{Offset: 100, Length: 500},
		{Offset: 600, Length: 1},
	}
	buffer := make([]byte, 601)
	for i := range buffer {
		buffer[i] = byte(i)
	}

	aligned, err := aligner.Align(regions, buffer, 256, 65536)
	require.NoError(t, err)

	back, err := aligner.Unalign(regions, aligned, 256)
	require.NoError(t, err)
	assert.Equal(t, buffer, back)
}

func TestAlignOutOfBoundsRegion(t *testing.T) {
	regions := []aligner.Region{{Offset: 0, Length: 10}}
	_, err := aligner.Align(regions, make([]byte, 5), 256, 65536)
	require.Error(t, err)
	assert.ErrorIs(t, err, savestream.ErrMalformedInfo)
}

func TestAlignAllZeroBuffer(t *testing.T) {
	regions := []aligner.Region{{Offset: 0, Length: 0}}
	aligned, err := aligner.Align(regions, nil, 256, 65536)
	require.NoError(t, err)
	assert.Len(t, aligned, 0)
	assert.True(t, bytes.Equal(aligned, make([]byte, 0)))
}
