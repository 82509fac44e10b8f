// Package aligner expands a save state's packed buffer block into a padded,
// region-aligned buffer using the region descriptors carried in the info
// block, and contracts it back. It knows nothing about JSON structure
// beyond the buffer_infos array; the caller is responsible for parsing the
// info block and handing over just the region list.
package aligner

import (
	"encoding/json"

	"github.com/noxer/bytewriter"

	"github.com/sumitshetye2/v86-savestreams/internal/codecerr"
	"github.com/sumitshetye2/v86-savestreams/internal/orderedjson"
)

// Region is a single buffer_infos descriptor: a contiguous subrange of the
// raw buffer block, addressed by Offset and Length.
type Region struct {
	Offset int
	Length int
}

// ParseRegions reads the buffer_infos array out of a parsed info object.
// info must be the result of decoding the info block's JSON with
// orderedjson.Unmarshal, so key order and numeric literal text survive a
// later round trip.
//
// Fails with MalformedInfo if buffer_infos is missing, not an array, or any
// entry lacks a usable offset/length pair.
func ParseRegions(info *orderedjson.Object) ([]Region, error) {
	raw, ok := info.Get("buffer_infos")
	if !ok {
		return nil, codecerr.Newf(codecerr.MalformedInfo, "info block has no buffer_infos key")
	}

	list, ok := raw.([]interface{})
	if !ok {
		return nil, codecerr.Newf(codecerr.MalformedInfo, "buffer_infos is not an array")
	}

	regions := make([]Region, len(list))
	for i, entry := range list {
		obj, ok := entry.(*orderedjson.Object)
		if !ok {
			return nil, codecerr.Newf(codecerr.MalformedInfo, "buffer_infos[%d] is not an object", i)
		}

		offsetVal, _ := obj.Get("offset")
		offset, err := asInt(offsetVal)
		if err != nil {
			return nil, codecerr.Newf(codecerr.MalformedInfo, "buffer_infos[%d].offset: %s", i, err)
		}
		lengthVal, _ := obj.Get("length")
		length, err := asInt(lengthVal)
		if err != nil {
			return nil, codecerr.Newf(codecerr.MalformedInfo, "buffer_infos[%d].length: %s", i, err)
		}
		if offset < 0 || length < 0 {
			return nil, codecerr.Newf(codecerr.MalformedInfo, "buffer_infos[%d] has negative offset/length", i)
		}
		regions[i] = Region{Offset: offset, Length: length}
	}
	return regions, nil
}

func asInt(v interface{}) (int, error) {
	switch n := v.(type) {
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, codecerr.Wrap(codecerr.MalformedInfo, err)
		}
		return int(i), nil
	case float64:
		return int(n), nil
	case int:
		return n, nil
	default:
		return 0, codecerr.Newf(codecerr.MalformedInfo, "expected a number, got %T", v)
	}
}

func padUp(n, multiple int) int {
	if n%multiple == 0 {
		return n
	}
	return n + (multiple - n%multiple)
}

// Align expands buffer into the aligned form: each region's bytes,
// right-padded to a multiple of blockSize, concatenated in region order,
// with the whole result right-padded to a multiple of superBlockSize.
//
// Fails with MalformedInfo if any region addresses bytes outside buffer.
func Align(regions []Region, buffer []byte, blockSize, superBlockSize int) ([]byte, error) {
	total := 0
	for _, r := range regions {
		total += padUp(r.Length, blockSize)
	}
	total = padUp(total, superBlockSize)

	out := make([]byte, total)
	w := bytewriter.New(out)

	for i, r := range regions {
		if r.Offset < 0 || r.Length < 0 || r.Offset+r.Length > len(buffer) {
			return nil, codecerr.Newf(
				codecerr.MalformedInfo,
				"region %d [%d, %d) out of bounds for a %d-byte buffer",
				i, r.Offset, r.Offset+r.Length, len(buffer),
			)
		}

		if r.Length > 0 {
			if _, err := w.Write(buffer[r.Offset : r.Offset+r.Length]); err != nil {
				return nil, codecerr.Wrap(codecerr.MalformedInfo, err)
			}
		}
		if padding := padUp(r.Length, blockSize) - r.Length; padding > 0 {
			if _, err := w.Write(make([]byte, padding)); err != nil {
				return nil, codecerr.Wrap(codecerr.MalformedInfo, err)
			}
		}
	}
	return out, nil
}

// Unalign is the inverse of Align: it reads aligned in region order and
// scatters each region's bytes back to its original offset in a freshly
// allocated buffer, discarding block-level and superblock-level padding.
func Unalign(regions []Region, aligned []byte, blockSize int) ([]byte, error) {
	outLen := 0
	for _, r := range regions {
		if end := r.Offset + r.Length; end > outLen {
			outLen = end
		}
	}

	out := make([]byte, outLen)
	cursor := 0

	for i, r := range regions {
		if cursor+r.Length > len(aligned) {
			return nil, codecerr.Newf(
				codecerr.MalformedInfo,
				"region %d needs %d bytes at cursor %d, aligned buffer is %d bytes",
				i, r.Length, cursor, len(aligned),
			)
		}

		copy(out[r.Offset:r.Offset+r.Length], aligned[cursor:cursor+r.Length])
		cursor += padUp(r.Length, blockSize)
	}
	return out, nil
}
