// Package savestream compresses a sequence of v86 virtual machine save
// states into a single compact container, a savestream, and decodes any
// contiguous subrange or single index back to byte-identical save states.
//
// A save state is a 16-byte header, a JSON info block describing a set of
// named memory regions, and a raw buffer holding the concatenated bytes of
// those regions. Two observations drive the compression: successive save
// states of a running VM usually differ in only a small fraction of their
// memory, and the info block evolves structurally between frames rather
// than being rewritten wholesale.
//
// The codec works in five layers, leaves first: internal/framer splits a
// raw save state into header/info/buffer; internal/aligner pads each
// memory region up to a block boundary so it can be content-addressed;
// internal/dedup assigns IDs to distinct 256-byte blocks and 256-block
// superblocks as they're first seen, across the whole savestream;
// internal/metadiff computes and replays a structural edit script between
// successive info blocks. This package composes all four into the
// container format: Encode, Decode, DecodeOne, Length, and Trim.
//
// Block and superblock IDs, and info patches, are cumulative: a frame's
// delta tables only ever reference IDs introduced by that frame or an
// earlier one. Decoding index N therefore means replaying frames [0, N] in
// order; there is no snapshotting. Trim exploits this by decoding the kept
// range with the full codec and re-encoding it as a fresh savestream,
// rather than trying to slice frames directly.
package savestream
