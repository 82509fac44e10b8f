package dedup_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	savestream "github.com/sumitshetye2/v86-savestreams"
	"github.com/sumitshetye2/v86-savestreams/internal/dedup"
)

func TestIngestAllZeroUsesReservedIDs(t *testing.T) {
	tables := dedup.New(256, 256)
	aligned := make([]byte, tables.SuperBlockSize())

	superSeq, newBlocks, newSuper, err := tables.Ingest(aligned)
	require.NoError(t, err)
	assert.Equal(t, []uint64{0}, superSeq)
	assert.Empty(t, newBlocks)
	assert.Empty(t, newSuper)
}

func TestIngestSingleRegionScenario(t *testing.T) {
	tables := dedup.New(256, 256)
	aligned := make([]byte, tables.SuperBlockSize())
	copy(aligned, bytes.Repeat([]byte{0xAB}, 300))

	superSeq, newBlocks, newSuper, err := tables.Ingest(aligned)
	require.NoError(t, err)
	assert.Equal(t, []uint64{1}, superSeq)
	assert.Len(t, newBlocks, 2)
	require.Contains(t, newSuper, uint64(1))
	seq := newSuper[1]
	require.Len(t, seq, 256)
	assert.Equal(t, seq[2:], make([]uint64, 254))
}

func TestIngestDeduplicatesRepeatedBlocks(t *testing.T) {
	tables := dedup.New(256, 256)
	aligned := make([]byte, tables.SuperBlockSize())
	copy(aligned[0:256], bytes.Repeat([]byte{0x11}, 256))
	copy(aligned[256:512], bytes.Repeat([]byte{0x11}, 256))

	_, newBlocks, _, err := tables.Ingest(aligned)
	require.NoError(t, err)
	assert.Len(t, newBlocks, 1, "identical blocks should share one id")
}

func TestExpandRoundTrip(t *testing.T) {
	tables := dedup.New(256, 256)
	aligned := make([]byte, 2*tables.SuperBlockSize())
	copy(aligned[0:300], bytes.Repeat([]byte{0xCD}, 300))

	superSeq, _, _, err := tables.Ingest(aligned)
	require.NoError(t, err)

	expanded, err := tables.Expand(superSeq)
	require.NoError(t, err)
	assert.Equal(t, aligned, expanded)
}

func TestMergeDeltasThenExpandAcrossSessions(t *testing.T) {
	encodeTables := dedup.New(256, 256)
	aligned := make([]byte, encodeTables.SuperBlockSize())
	copy(aligned[0:10], []byte("0123456789"))
	superSeq, newBlocks, newSuper, err := encodeTables.Ingest(aligned)
	require.NoError(t, err)

	decodeTables := dedup.New(256, 256)
	require.NoError(t, decodeTables.MergeDeltas(newBlocks, newSuper))
	expanded, err := decodeTables.Expand(superSeq)
	require.NoError(t, err)
	assert.Equal(t, aligned, expanded)
}

func TestExpandUnknownSuperID(t *testing.T) {
	tables := dedup.New(256, 256)
	_, err := tables.Expand([]uint64{5})
	require.Error(t, err)
	assert.ErrorIs(t, err, savestream.ErrUnknownId)
}

func TestMergeDeltasDuplicateID(t *testing.T) {
	tables := dedup.New(256, 256)
	require.NoError(t, tables.MergeDeltas(map[uint64][]byte{1: bytes.Repeat([]byte{1}, 256)}, nil))

	err := tables.MergeDeltas(map[uint64][]byte{1: bytes.Repeat([]byte{2}, 256)}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, savestream.ErrDuplicateId)
}

func TestIngestRejectsMisalignedBuffer(t *testing.T) {
	tables := dedup.New(256, 256)
	_, _, _, err := tables.Ingest(make([]byte, 10))
	require.Error(t, err)
}
