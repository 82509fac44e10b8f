// Package orderedjson provides a JSON object representation that preserves
// key order and exact numeral text across a parse/serialize round trip.
// encoding/json's map[string]interface{} does neither: Unmarshal discards
// the source order and Marshal re-emits map keys sorted, so any object
// whose keys aren't already alphabetical comes back different on the wire.
// The codec needs byte-identical info blocks, so this package parses into
// an explicit Object type with its own Marshal/Unmarshal instead.
package orderedjson

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// Object is a JSON object that remembers the order its keys were set or
// parsed in.
type Object struct {
	keys   []string
	values map[string]interface{}
}

// NewObject returns an empty Object.
func NewObject() *Object {
	return &Object{values: map[string]interface{}{}}
}

// Get returns the value for key and whether it was present.
func (o *Object) Get(key string) (interface{}, bool) {
	v, ok := o.values[key]
	return v, ok
}

// Set assigns value to key, appending key to the end of the iteration order
// if it is new and leaving its position unchanged otherwise.
func (o *Object) Set(key string, value interface{}) {
	if _, ok := o.values[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.values[key] = value
}

// Delete removes key, if present.
func (o *Object) Delete(key string) {
	if _, ok := o.values[key]; !ok {
		return
	}
	delete(o.values, key)
	for i, k := range o.keys {
		if k == key {
			o.keys = append(o.keys[:i], o.keys[i+1:]...)
			break
		}
	}
}

// Keys returns the object's keys in iteration order. The caller must not
// mutate the returned slice.
func (o *Object) Keys() []string {
	return o.keys
}

// Len returns the number of keys in the object.
func (o *Object) Len() int {
	return len(o.keys)
}

// Clone returns a shallow copy of o: keys and the top-level value map are
// copied, but nested Objects/slices are shared with the original until
// mutated through Set/Delete on the clone.
func (o *Object) Clone() *Object {
	clone := &Object{
		keys:   append([]string{}, o.keys...),
		values: make(map[string]interface{}, len(o.values)),
	}
	for k, v := range o.values {
		clone.values[k] = v
	}
	return clone
}

// Unmarshal parses data into a tree of *Object (for JSON objects),
// []interface{} (for arrays), json.Number (for numbers, preserving their
// original literal text), and the usual bool/string/nil for scalars.
func Unmarshal(data []byte) (interface{}, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	val, err := decodeValue(dec)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("orderedjson: trailing data after top-level value")
	}
	return val, nil
}

func decodeValue(dec *json.Decoder) (interface{}, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}

	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			return decodeObject(dec)
		case '[':
			return decodeArray(dec)
		default:
			return nil, fmt.Errorf("orderedjson: unexpected delimiter %q", t)
		}
	default:
		return tok, nil
	}
}

func decodeObject(dec *json.Decoder) (*Object, error) {
	obj := NewObject()
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("orderedjson: object key is not a string")
		}

		val, err := decodeValue(dec)
		if err != nil {
			return nil, err
		}
		obj.Set(key, val)
	}
	// Consume the closing '}'.
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return obj, nil
}

func decodeArray(dec *json.Decoder) ([]interface{}, error) {
	arr := []interface{}{}
	for dec.More() {
		val, err := decodeValue(dec)
		if err != nil {
			return nil, err
		}
		arr = append(arr, val)
	}
	// Consume the closing ']'.
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return arr, nil
}

// Marshal serializes val, which must be built from *Object, []interface{},
// json.Number, and the usual JSON scalar types (as produced by Unmarshal),
// back into its byte representation. Objects are emitted in their recorded
// key order and json.Number values are emitted as their original literal
// text, so Marshal(Unmarshal(data)) reproduces data's structure exactly.
func Marshal(val interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeValue(&buf, val); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeValue(buf *bytes.Buffer, val interface{}) error {
	switch v := val.(type) {
	case *Object:
		return writeObject(buf, v)
	case []interface{}:
		return writeArray(buf, v)
	default:
		// json.Number, string, bool, float64, int, nil, and any other
		// scalar encoding/json understands (including json.Number, which
		// it special-cases to emit unquoted) fall through to the stdlib.
		enc, err := json.Marshal(v)
		if err != nil {
			return err
		}
		buf.Write(enc)
		return nil
	}
}

func writeObject(buf *bytes.Buffer, obj *Object) error {
	buf.WriteByte('{')
	for i, key := range obj.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		keyBytes, err := json.Marshal(key)
		if err != nil {
			return err
		}
		buf.Write(keyBytes)
		buf.WriteByte(':')
		v, _ := obj.Get(key)
		if err := writeValue(buf, v); err != nil {
			return err
		}
	}
	buf.WriteByte('}')
	return nil
}

func writeArray(buf *bytes.Buffer, arr []interface{}) error {
	buf.WriteByte('[')
	for i, v := range arr {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeValue(buf, v); err != nil {
			return err
		}
	}
	buf.WriteByte(']')
	return nil
}
