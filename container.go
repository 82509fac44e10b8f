package savestream

import (
	"fmt"

	msgpack "github.com/vmihailenco/msgpack/v5"

	"github.com/sumitshetye2/v86-savestreams/internal/aligner"
	"github.com/sumitshetye2/v86-savestreams/internal/codecerr"
	"github.com/sumitshetye2/v86-savestreams/internal/dedup"
	"github.com/sumitshetye2/v86-savestreams/internal/framer"
	"github.com/sumitshetye2/v86-savestreams/internal/metadiff"
	"github.com/sumitshetye2/v86-savestreams/internal/orderedjson"
)

// Format constants. These are fixed by the container format and must never
// vary between implementations sharing a savestream.
const (
	BlockSize      = 256
	BlocksPerSuper = 256
	SuperBlockSize = BlockSize * BlocksPerSuper
)

// indexed adds "state N: " context to an encode-time CodecError while
// preserving its Kind and cause for errors.Is.
func indexed(err error, i int) error {
	return codecerr.WithContext(err, fmt.Sprintf("state %d", i))
}

// Encode compresses an ordered sequence of raw v86 save states into a
// single savestream.
func Encode(states [][]byte) ([]byte, error) {
	tables := dedup.New(BlockSize, BlocksPerSuper)
	prevInfo := interface{}(orderedjson.NewObject())

	frames := make([]Frame, 0, len(states))
	for i, raw := range states {
		frame, nextInfo, err := encodeOne(tables, prevInfo, raw)
		if err != nil {
			return nil, indexed(err, i)
		}
		frames = append(frames, frame)
		prevInfo = nextInfo
	}

	encoded, err := msgpack.Marshal(frames)
	if err != nil {
		return nil, Wrap(ResourceExhausted, err)
	}
	return encoded, nil
}

func encodeOne(tables *dedup.Tables, prevInfo interface{}, raw []byte) (Frame, interface{}, error) {
	comps, err := framer.Split(raw)
	if err != nil {
		return Frame{}, nil, err
	}

	infoVal, err := orderedjson.Unmarshal(comps.Info)
	if err != nil {
		return Frame{}, nil, Wrap(MalformedInfo, err)
	}
	infoObj, ok := infoVal.(*orderedjson.Object)
	if !ok {
		return Frame{}, nil, Newf(MalformedInfo, "info block is a %T, not an object", infoVal)
	}

	regions, err := aligner.ParseRegions(infoObj)
	if err != nil {
		return Frame{}, nil, err
	}

	aligned, err := aligner.Align(regions, comps.Buffer, BlockSize, SuperBlockSize)
	if err != nil {
		return Frame{}, nil, err
	}

	superSeq, newBlocks, newSuper, err := tables.Ingest(aligned)
	if err != nil {
		return Frame{}, nil, err
	}

	patch, err := metadiff.Diff(prevInfo, infoObj)
	if err != nil {
		return Frame{}, nil, err
	}

	frame := Frame{
		HeaderBlock:    append([]byte{}, comps.Header...),
		InfoPatch:      patch,
		SuperSequence:  superSeq,
		NewBlocks:      newBlocks,
		NewSuperBlocks: newSuper,
	}
	return frame, interface{}(infoObj), nil
}

// Decoder replays a savestream's frames in order, rebuilding the shared
// dedup tables and metadata state as it goes. It is the codec's only
// stateful object, and it is not safe for concurrent use.
type Decoder struct {
	frames   []Frame
	tables   *dedup.Tables
	prevInfo interface{}
	pos      int
}

// NewDecoder deserializes savestreamBytes and prepares to replay its frames
// from index 0.
func NewDecoder(savestreamBytes []byte) (*Decoder, error) {
	var frames []Frame
	if err := msgpack.Unmarshal(savestreamBytes, &frames); err != nil {
		return nil, Wrap(MalformedContainer, err)
	}
	return &Decoder{
		frames:   frames,
		tables:   dedup.New(BlockSize, BlocksPerSuper),
		prevInfo: interface{}(orderedjson.NewObject()),
	}, nil
}

// Len returns the number of frames in the savestream.
func (d *Decoder) Len() int {
	return len(d.frames)
}

// Next decodes and returns the next raw save state in sequence. ok is false
// once every frame has been consumed; the sequence cannot be restarted or
// consumed twice.
func (d *Decoder) Next() (raw []byte, ok bool, err error) {
	if d.pos >= len(d.frames) {
		return nil, false, nil
	}
	frame := d.frames[d.pos]
	d.pos++

	raw, err = d.decodeFrame(frame)
	if err != nil {
		return nil, false, err
	}
	return raw, true, nil
}

func (d *Decoder) decodeFrame(frame Frame) ([]byte, error) {
	if err := d.tables.MergeDeltas(frame.NewBlocks, frame.NewSuperBlocks); err != nil {
		return nil, err
	}

	patchedInfo, err := metadiff.Patch(d.prevInfo, frame.InfoPatch)
	if err != nil {
		return nil, err
	}
	d.prevInfo = patchedInfo

	infoBytes, err := orderedjson.Marshal(patchedInfo)
	if err != nil {
		return nil, Wrap(MalformedInfo, err)
	}

	infoObj, ok := patchedInfo.(*orderedjson.Object)
	if !ok {
		return nil, Newf(MalformedInfo, "patched info is a %T, not an object", patchedInfo)
	}
	regions, err := aligner.ParseRegions(infoObj)
	if err != nil {
		return nil, err
	}

	aligned, err := d.tables.Expand(frame.SuperSequence)
	if err != nil {
		return nil, err
	}

	buffer, err := aligner.Unalign(regions, aligned, BlockSize)
	if err != nil {
		return nil, err
	}

	return framer.Join(framer.Components{
		Header: frame.HeaderBlock,
		Info:   infoBytes,
		Buffer: buffer,
	})
}

// Decode deserializes savestreamBytes and fully decodes every frame,
// returning the original sequence of raw save states.
func Decode(savestreamBytes []byte) ([][]byte, error) {
	dec, err := NewDecoder(savestreamBytes)
	if err != nil {
		return nil, err
	}

	states := make([][]byte, 0, dec.Len())
	for {
		raw, ok, err := dec.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		states = append(states, raw)
	}
	return states, nil
}

// DecodeOne returns the save state at index. It replays frames [0, index]
// in order, decoding each one in full, and returns only the last; frames
// after index are not decoded.
//
// Fails with OutOfRange if index is negative or >= the savestream's frame
// count. Negative indexing is not supported.
func DecodeOne(savestreamBytes []byte, index int) ([]byte, error) {
	if index < 0 {
		return nil, New(OutOfRange)
	}

	dec, err := NewDecoder(savestreamBytes)
	if err != nil {
		return nil, err
	}
	if index >= dec.Len() {
		return nil, Newf(OutOfRange, "index %d not in [0, %d)", index, dec.Len())
	}

	var raw []byte
	for i := 0; i <= index; i++ {
		var ok bool
		raw, ok, err = dec.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, Newf(OutOfRange, "index %d not in [0, %d)", index, dec.Len())
		}
	}
	return raw, nil
}

// Length deserializes savestreamBytes structurally and returns its frame
// count, without replaying any dedup or metadata state.
func Length(savestreamBytes []byte) (int, error) {
	var frames []Frame
	if err := msgpack.Unmarshal(savestreamBytes, &frames); err != nil {
		return 0, Wrap(MalformedContainer, err)
	}
	return len(frames), nil
}

// Trim returns a new savestream containing only the half-open range of
// states [start, end). end defaults to the savestream's length when nil.
// Both bounds saturate to [0, length]; if start >= end the result is an
// empty savestream.
//
// Because dedup IDs and info patches are cumulative across frames, the only
// correctness-preserving way to trim is to decode the kept range with the
// full codec and re-encode it from scratch.
func Trim(savestreamBytes []byte, start int, end *int) ([]byte, error) {
	length, err := Length(savestreamBytes)
	if err != nil {
		return nil, err
	}

	startIdx := saturate(start, length)
	endIdx := length
	if end != nil {
		endIdx = saturate(*end, length)
	}

	if startIdx >= endIdx {
		return Encode(nil)
	}

	dec, err := NewDecoder(savestreamBytes)
	if err != nil {
		return nil, err
	}

	kept := make([][]byte, 0, endIdx-startIdx)
	for i := 0; i < endIdx; i++ {
		raw, ok, err := dec.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		if i >= startIdx {
			kept = append(kept, raw)
		}
	}

	return Encode(kept)
}

func saturate(n, length int) int {
	if n < 0 {
		return 0
	}
	if n > length {
		return length
	}
	return n
}
