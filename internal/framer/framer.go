// Package framer splits a raw v86 save state into its header, info, and
// buffer components, and rejoins them. It knows nothing about the contents
// of the info block or the buffer; it only implements the byte layout
// described in the container's save-state file format.
package framer

import (
	"encoding/binary"

	"github.com/sumitshetye2/v86-savestreams/internal/codecerr"
)

// HeaderSize is the fixed length, in bytes, of a raw save state's header.
const HeaderSize = 16

// infoLengthOffset is where the little-endian u32 info length lives within
// the header.
const infoLengthOffset = 12

// Components holds the three pieces of a raw save state.
type Components struct {
	Header []byte
	Info   []byte
	Buffer []byte
}

// alignUp4 rounds n up to the next multiple of 4.
func alignUp4(n int) int {
	return (n + 3) &^ 3
}

// Split breaks raw into its header, info, and buffer components.
//
// Fails with MalformedHeader if raw is shorter than HeaderSize bytes, if the
// header's embedded info length runs past the end of raw, or if the end of
// the info block rounded up to the next multiple of 4 (the buffer start)
// runs past the end of raw.
func Split(raw []byte) (Components, error) {
	if len(raw) < HeaderSize {
		return Components{}, codecerr.Newf(
			codecerr.MalformedHeader,
			"save state is %d bytes, shorter than the %d-byte header",
			len(raw), HeaderSize,
		)
	}

	infoLen := binary.LittleEndian.Uint32(raw[infoLengthOffset : infoLengthOffset+4])
	infoEnd := HeaderSize + int(infoLen)
	if infoEnd > len(raw) {
		return Components{}, codecerr.Newf(
			codecerr.MalformedHeader,
			"info length %d runs past end of save state (%d bytes)",
			infoLen, len(raw),
		)
	}

	bufferStart := alignUp4(infoEnd)
	if bufferStart > len(raw) {
		return Components{}, codecerr.Newf(
			codecerr.MalformedHeader,
			"padded buffer start %d runs past end of save state (%d bytes)",
			bufferStart, len(raw),
		)
	}

	return Components{
		Header: raw[:HeaderSize],
		Info:   raw[HeaderSize:infoEnd],
		Buffer: raw[bufferStart:],
	}, nil
}

// Join reassembles a raw save state from its components, inserting the
// zero-padding between info and buffer that Split strips out.
//
// Fails with MalformedHeader if header is not exactly HeaderSize bytes. The
// header's embedded length field is not rewritten; the caller guarantees it
// already matches len(info).
func Join(c Components) ([]byte, error) {
	if len(c.Header) != HeaderSize {
		return nil, codecerr.Newf(
			codecerr.MalformedHeader,
			"header is %d bytes, want exactly %d",
			len(c.Header), HeaderSize,
		)
	}

	padded := alignUp4(len(c.Info))
	out := make([]byte, 0, HeaderSize+padded+len(c.Buffer))
	out = append(out, c.Header...)
	out = append(out, c.Info...)
	out = append(out, make([]byte, padded-len(c.Info))...)
	out = append(out, c.Buffer...)
	return out, nil
}
