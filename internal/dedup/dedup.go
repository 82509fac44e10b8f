// Package dedup implements the codec's two-level content-addressed store:
// fixed-size blocks, and fixed-length sequences of block IDs (superblocks).
// IDs are assigned by first-seen order within a single encode or decode
// session; id 0 is reserved for an all-zero block/superblock in both
// tables.
package dedup

import (
	"bytes"
	"encoding/binary"

	"github.com/sumitshetye2/v86-savestreams/internal/codecerr"
)

// maxTableEntries is the advisory per-table ceiling (2^31 entries).
const maxTableEntries = 1 << 31

// Tables is the pair of growing block/superblock dictionaries that a single
// encode or decode session owns exclusively. The zero value is not usable;
// construct one with New.
type Tables struct {
	blockSize      int
	blocksPerSuper int

	blockIDByContent map[string]uint64
	blockContentByID map[uint64][]byte

	superIDBySeq map[string]uint64
	superSeqByID map[uint64][]uint64

	nextBlockID uint64
	nextSuperID uint64
}

// New creates a Tables pre-seeded with the reserved zero block (bid 0, all
// zero bytes) and the reserved zero superblock (sid 0, a sequence of
// blocksPerSuper zero block IDs).
func New(blockSize, blocksPerSuper int) *Tables {
	t := &Tables{
		blockSize:        blockSize,
		blocksPerSuper:   blocksPerSuper,
		blockIDByContent: make(map[string]uint64),
		blockContentByID: make(map[uint64][]byte),
		superIDBySeq:     make(map[string]uint64),
		superSeqByID:     make(map[uint64][]uint64),
		nextBlockID:      1,
		nextSuperID:      1,
	}

	zeroBlock := make([]byte, blockSize)
	t.blockIDByContent[string(zeroBlock)] = 0
	t.blockContentByID[0] = zeroBlock

	zeroSeq := make([]uint64, blocksPerSuper)
	t.superIDBySeq[seqKey(zeroSeq)] = 0
	t.superSeqByID[0] = zeroSeq

	return t
}

// seqKey encodes a block-ID sequence into a comparable map key.
func seqKey(seq []uint64) string {
	buf := make([]byte, 8*len(seq))
	for i, id := range seq {
		binary.LittleEndian.PutUint64(buf[i*8:], id)
	}
	return string(buf)
}

// SuperBlockSize returns blockSize * blocksPerSuper.
func (t *Tables) SuperBlockSize() int {
	return t.blockSize * t.blocksPerSuper
}

// Ingest deduplicates an aligned buffer, whose length must be a multiple of
// SuperBlockSize(), against the live tables. It returns the sequence of
// superblock IDs that reproduce aligned when expanded, plus the (bid,
// content) and (sid, sequence) entries newly introduced by this call — the
// frame's delta tables.
func (t *Tables) Ingest(aligned []byte) (
	superSequence []uint64,
	newBlocks map[uint64][]byte,
	newSuperBlocks map[uint64][]uint64,
	err error,
) {
	superSize := t.SuperBlockSize()
	if superSize == 0 || len(aligned)%superSize != 0 {
		return nil, nil, nil, codecerr.Newf(
			codecerr.MalformedInfo,
			"aligned buffer length %d is not a multiple of the superblock size %d",
			len(aligned), superSize,
		)
	}

	newBlocks = make(map[uint64][]byte)
	newSuperBlocks = make(map[uint64][]uint64)

	for off := 0; off < len(aligned); off += superSize {
		super := aligned[off : off+superSize]

		blockIDs := make([]uint64, t.blocksPerSuper)
		for i := 0; i < t.blocksPerSuper; i++ {
			block := super[i*t.blockSize : (i+1)*t.blockSize]
			bid, isNew, err := t.internBlock(block)
			if err != nil {
				return nil, nil, nil, err
			}
			if isNew {
				newBlocks[bid] = bid2content(block)
			}
			blockIDs[i] = bid
		}

		sid, isNew, err := t.internSuper(blockIDs)
		if err != nil {
			return nil, nil, nil, err
		}
		if isNew {
			newSuperBlocks[sid] = blockIDs
		}
		superSequence = append(superSequence, sid)
	}

	return superSequence, newBlocks, newSuperBlocks, nil
}

func bid2content(block []byte) []byte {
	out := make([]byte, len(block))
	copy(out, block)
	return out
}

func (t *Tables) internBlock(content []byte) (bid uint64, isNew bool, err error) {
	key := string(content)
	if id, ok := t.blockIDByContent[key]; ok {
		return id, false, nil
	}
	if t.nextBlockID >= maxTableEntries {
		return 0, false, codecerr.Newf(codecerr.ResourceExhausted, "block table exceeds %d entries", maxTableEntries)
	}
	id := t.nextBlockID
	t.nextBlockID++
	content = bid2content(content)
	t.blockIDByContent[string(content)] = id
	t.blockContentByID[id] = content
	return id, true, nil
}

func (t *Tables) internSuper(blockIDs []uint64) (sid uint64, isNew bool, err error) {
	key := seqKey(blockIDs)
	if id, ok := t.superIDBySeq[key]; ok {
		return id, false, nil
	}
	if t.nextSuperID >= maxTableEntries {
		return 0, false, codecerr.Newf(codecerr.ResourceExhausted, "superblock table exceeds %d entries", maxTableEntries)
	}
	id := t.nextSuperID
	t.nextSuperID++
	t.superIDBySeq[key] = id
	seqCopy := make([]uint64, len(blockIDs))
	copy(seqCopy, blockIDs)
	t.superSeqByID[id] = seqCopy
	return id, true, nil
}

// MergeDeltas merges a frame's new_blocks and new_super_blocks into the live
// tables, ahead of Expand. It is the decode-side counterpart to the new*
// maps that Ingest returns on encode.
//
// Fails with DuplicateId if a non-zero ID in either map already exists in
// the tables bound to unequal content.
func (t *Tables) MergeDeltas(newBlocks map[uint64][]byte, newSuperBlocks map[uint64][]uint64) error {
	for bid, content := range newBlocks {
		if existing, ok := t.blockContentByID[bid]; ok {
			if !bytes.Equal(existing, content) {
				return codecerr.Newf(codecerr.DuplicateId, "block id %d redefined with different content", bid)
			}
			continue
		}
		content = bid2content(content)
		t.blockContentByID[bid] = content
		t.blockIDByContent[string(content)] = bid
		if bid >= t.nextBlockID {
			t.nextBlockID = bid + 1
		}
	}

	for sid, seq := range newSuperBlocks {
		if existing, ok := t.superSeqByID[sid]; ok {
			if !uint64SliceEqual(existing, seq) {
				return codecerr.Newf(codecerr.DuplicateId, "superblock id %d redefined with different content", sid)
			}
			continue
		}
		seqCopy := make([]uint64, len(seq))
		copy(seqCopy, seq)
		t.superSeqByID[sid] = seqCopy
		t.superIDBySeq[seqKey(seqCopy)] = sid
		if sid >= t.nextSuperID {
			t.nextSuperID = sid + 1
		}
	}

	return nil
}

// Expand reconstructs the aligned buffer that superSequence describes by
// looking up each superblock's block-ID list and concatenating the
// corresponding block contents.
//
// Fails with UnknownId if any referenced superblock or block ID hasn't been
// introduced by MergeDeltas/Ingest yet.
func (t *Tables) Expand(superSequence []uint64) ([]byte, error) {
	out := make([]byte, 0, len(superSequence)*t.SuperBlockSize())

	for _, sid := range superSequence {
		blockIDs, ok := t.superSeqByID[sid]
		if !ok {
			return nil, codecerr.Newf(codecerr.UnknownId, "superblock id %d not defined", sid)
		}
		for _, bid := range blockIDs {
			content, ok := t.blockContentByID[bid]
			if !ok {
				return nil, codecerr.Newf(codecerr.UnknownId, "block id %d not defined", bid)
			}
			out = append(out, content...)
		}
	}
	return out, nil
}

func uint64SliceEqual(a, b []uint64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
