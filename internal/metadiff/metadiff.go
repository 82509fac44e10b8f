// Package metadiff computes and applies a structural diff between two
// parsed JSON object trees (decoded via orderedjson.Unmarshal into
// *orderedjson.Object, []interface{}, and JSON scalar types).
//
// The diff is a sequence of operations, each tagged add/remove/change and
// carrying a path (object keys and array indices) into the tree. It is
// computed over parsed values, never over raw bytes, so whitespace drift in
// whatever produced the original JSON never pollutes a patch. Key order and
// numeral literal text are preserved throughout, including in the patch's
// own wire bytes, so that applying a patch to a tree and re-serializing it
// gives the same bytes as serializing the target tree directly.
//
// Array edits are recorded only at the tail: elements appended to a curr
// array beyond prev's length become an add at the array's own path;
// elements prev has beyond curr's length become a remove at the array's own
// path. This is a deliberately simple discipline — position-stable under
// any prior op applied to the same path — chosen because the spec commits
// implementers to "one discipline, verified on the corpus" rather than
// mimicking a textual-diff library's index semantics.
package metadiff

import (
	"encoding/json"

	"github.com/sumitshetye2/v86-savestreams/internal/codecerr"
	"github.com/sumitshetye2/v86-savestreams/internal/orderedjson"
)

// Entry is one (key, value) pair added to or removed from an object or
// array at an operation's path.
type Entry struct {
	Key   interface{}
	Value interface{}
}

// Op is a single structural edit: add or remove one or more entries at
// Path, or change the leaf value at Path from Old to New.
type Op struct {
	Kind    string
	Path    []interface{}
	Entries []Entry
	Old     interface{}
	New     interface{}
}

const (
	opAdd    = "add"
	opRemove = "remove"
	opChange = "change"
)

// Diff computes the edit script that transforms prev into curr, and
// returns it as UTF-8 JSON bytes suitable for storing as a frame's
// info_patch. prev and curr must be *orderedjson.Object/[]interface{}/
// scalar trees, as produced by orderedjson.Unmarshal.
func Diff(prev, curr interface{}) ([]byte, error) {
	var ops []Op
	diffValue(nil, prev, curr, &ops)
	return orderedjson.Marshal(opsToValue(ops))
}

// Patch applies the edit script in patchBytes to prev and returns the
// resulting tree.
func Patch(prev interface{}, patchBytes []byte) (interface{}, error) {
	parsed, err := orderedjson.Unmarshal(patchBytes)
	if err != nil {
		return nil, codecerr.Wrap(codecerr.MalformedInfo, err)
	}
	ops, err := valueToOps(parsed)
	if err != nil {
		return nil, err
	}

	result := prev
	for _, op := range ops {
		var applyErr error
		switch op.Kind {
		case opAdd:
			result, applyErr = mutateContainer(result, op.Path, func(c interface{}) (interface{}, error) {
				return applyAdd(c, op.Entries)
			})
		case opRemove:
			result, applyErr = mutateContainer(result, op.Path, func(c interface{}) (interface{}, error) {
				return applyRemove(c, op.Entries)
			})
		case opChange:
			result, applyErr = mutateContainer(result, op.Path, func(interface{}) (interface{}, error) {
				return op.New, nil
			})
		default:
			applyErr = codecerr.Newf(codecerr.MalformedInfo, "unknown diff op %q", op.Kind)
		}
		if applyErr != nil {
			return nil, applyErr
		}
	}
	return result, nil
}

// diffValue appends ops transforming prev into curr at path onto *ops.
func diffValue(path []interface{}, prev, curr interface{}, ops *[]Op) {
	prevObj, prevIsObj := prev.(*orderedjson.Object)
	currObj, currIsObj := curr.(*orderedjson.Object)
	if prevIsObj && currIsObj {
		diffObjects(path, prevObj, currObj, ops)
		return
	}

	prevArr, prevIsArr := prev.([]interface{})
	currArr, currIsArr := curr.([]interface{})
	if prevIsArr && currIsArr {
		diffArrays(path, prevArr, currArr, ops)
		return
	}

	if !deepEqual(prev, curr) {
		*ops = append(*ops, Op{Kind: opChange, Path: clonePath(path), Old: prev, New: curr})
	}
}

// diffObjects walks prev's keys (to find removals and commons) followed by
// curr's keys not seen in prev (to find additions), each in the object's own
// parse order. This, not an alphabetical sort, is what keeps a same-shape
// frame's diff free of any key-order artifact.
func diffObjects(path []interface{}, prev, curr *orderedjson.Object, ops *[]Op) {
	var removeEntries, addEntries []Entry

	seen := make(map[string]bool, prev.Len())
	for _, k := range prev.Keys() {
		seen[k] = true
		prevVal, _ := prev.Get(k)
		if currVal, inCurr := curr.Get(k); inCurr {
			diffValue(append(path, k), prevVal, currVal, ops)
		} else {
			removeEntries = append(removeEntries, Entry{Key: k, Value: prevVal})
		}
	}
	for _, k := range curr.Keys() {
		if seen[k] {
			continue
		}
		currVal, _ := curr.Get(k)
		addEntries = append(addEntries, Entry{Key: k, Value: currVal})
	}

	if len(removeEntries) > 0 {
		*ops = append(*ops, Op{Kind: opRemove, Path: clonePath(path), Entries: removeEntries})
	}
	if len(addEntries) > 0 {
		*ops = append(*ops, Op{Kind: opAdd, Path: clonePath(path), Entries: addEntries})
	}
}

func diffArrays(path []interface{}, prev, curr []interface{}, ops *[]Op) {
	common := len(prev)
	if len(curr) < common {
		common = len(curr)
	}
	for i := 0; i < common; i++ {
		diffValue(append(path, i), prev[i], curr[i], ops)
	}

	switch {
	case len(curr) > len(prev):
		entries := make([]Entry, 0, len(curr)-len(prev))
		for i := len(prev); i < len(curr); i++ {
			entries = append(entries, Entry{Key: i, Value: curr[i]})
		}
		*ops = append(*ops, Op{Kind: opAdd, Path: clonePath(path), Entries: entries})
	case len(prev) > len(curr):
		entries := make([]Entry, 0, len(prev)-len(curr))
		for i := len(curr); i < len(prev); i++ {
			entries = append(entries, Entry{Key: i, Value: prev[i]})
		}
		*ops = append(*ops, Op{Kind: opRemove, Path: clonePath(path), Entries: entries})
	}
}

func applyAdd(container interface{}, entries []Entry) (interface{}, error) {
	switch c := container.(type) {
	case *orderedjson.Object:
		newObj := c.Clone()
		for _, e := range entries {
			key, ok := e.Key.(string)
			if !ok {
				return nil, codecerr.Newf(codecerr.MalformedInfo, "add entry key %v is not a string for an object", e.Key)
			}
			newObj.Set(key, e.Value)
		}
		return newObj, nil
	case nil:
		newObj := orderedjson.NewObject()
		for _, e := range entries {
			key, ok := e.Key.(string)
			if !ok {
				return nil, codecerr.Newf(codecerr.MalformedInfo, "add entry key %v is not a string for an object", e.Key)
			}
			newObj.Set(key, e.Value)
		}
		return newObj, nil
	case []interface{}:
		newArr := append([]interface{}{}, c...)
		for _, e := range entries {
			newArr = append(newArr, e.Value)
		}
		return newArr, nil
	default:
		return nil, codecerr.Newf(codecerr.MalformedInfo, "cannot add entries to a %T", container)
	}
}

func applyRemove(container interface{}, entries []Entry) (interface{}, error) {
	switch c := container.(type) {
	case *orderedjson.Object:
		newObj := c.Clone()
		for _, e := range entries {
			key, ok := e.Key.(string)
			if !ok {
				return nil, codecerr.Newf(codecerr.MalformedInfo, "remove entry key %v is not a string for an object", e.Key)
			}
			newObj.Delete(key)
		}
		return newObj, nil
	case []interface{}:
		if len(entries) > len(c) {
			return nil, codecerr.Newf(codecerr.MalformedInfo, "cannot remove %d entries from a %d-element array", len(entries), len(c))
		}
		newArr := make([]interface{}, len(c)-len(entries))
		copy(newArr, c[:len(c)-len(entries)])
		return newArr, nil
	default:
		return nil, codecerr.Newf(codecerr.MalformedInfo, "cannot remove entries from a %T", container)
	}
}

// mutateContainer walks root down to path, hands the value found there to
// mutate, and rebuilds the tree on the way back up with the mutated value
// spliced in. An empty path mutates root itself.
func mutateContainer(root interface{}, path []interface{}, mutate func(interface{}) (interface{}, error)) (interface{}, error) {
	if len(path) == 0 {
		return mutate(root)
	}

	switch key := path[0].(type) {
	case string:
		obj, ok := root.(*orderedjson.Object)
		if !ok {
			return nil, codecerr.Newf(codecerr.MalformedInfo, "path expects an object, found %T", root)
		}
		child, _ := obj.Get(key)
		newChild, err := mutateContainer(child, path[1:], mutate)
		if err != nil {
			return nil, err
		}
		newObj := obj.Clone()
		newObj.Set(key, newChild)
		return newObj, nil
	case int:
		arr, ok := root.([]interface{})
		if !ok || key < 0 || key >= len(arr) {
			return nil, codecerr.Newf(codecerr.MalformedInfo, "path expects an array index %d, found %T", key, root)
		}
		newChild, err := mutateContainer(arr[key], path[1:], mutate)
		if err != nil {
			return nil, err
		}
		newArr := make([]interface{}, len(arr))
		copy(newArr, arr)
		newArr[key] = newChild
		return newArr, nil
	default:
		return nil, codecerr.Newf(codecerr.MalformedInfo, "unsupported path element type %T", key)
	}
}

func clonePath(path []interface{}) []interface{} {
	out := make([]interface{}, len(path))
	copy(out, path)
	return out
}

func deepEqual(a, b interface{}) bool {
	aj, aerr := orderedjson.Marshal(a)
	bj, berr := orderedjson.Marshal(b)
	if aerr != nil || berr != nil {
		return false
	}
	return string(aj) == string(bj)
}

// opsToValue converts ops into the ordered tree orderedjson.Marshal expects,
// built by hand rather than via encoding/json struct tags so that nested
// object values inside entries keep their key order on the wire.
func opsToValue(ops []Op) []interface{} {
	out := make([]interface{}, len(ops))
	for i, op := range ops {
		out[i] = opToValue(op)
	}
	return out
}

func opToValue(op Op) *orderedjson.Object {
	obj := orderedjson.NewObject()
	obj.Set("op", op.Kind)
	obj.Set("path", pathToValue(op.Path))
	switch op.Kind {
	case opChange:
		obj.Set("old", op.Old)
		obj.Set("new", op.New)
	default:
		obj.Set("entries", entriesToValue(op.Entries))
	}
	return obj
}

func pathToValue(path []interface{}) []interface{} {
	out := make([]interface{}, len(path))
	copy(out, path)
	return out
}

func entriesToValue(entries []Entry) []interface{} {
	out := make([]interface{}, len(entries))
	for i, e := range entries {
		obj := orderedjson.NewObject()
		obj.Set("key", e.Key)
		obj.Set("value", e.Value)
		out[i] = obj
	}
	return out
}

func valueToOps(value interface{}) ([]Op, error) {
	arr, ok := value.([]interface{})
	if !ok {
		return nil, codecerr.Newf(codecerr.MalformedInfo, "patch is a %T, not an array of ops", value)
	}
	ops := make([]Op, len(arr))
	for i, v := range arr {
		op, err := valueToOp(v)
		if err != nil {
			return nil, err
		}
		ops[i] = op
	}
	return ops, nil
}

func valueToOp(value interface{}) (Op, error) {
	obj, ok := value.(*orderedjson.Object)
	if !ok {
		return Op{}, codecerr.Newf(codecerr.MalformedInfo, "op is a %T, not an object", value)
	}

	kindVal, ok := obj.Get("op")
	if !ok {
		return Op{}, codecerr.Newf(codecerr.MalformedInfo, "op is missing \"op\"")
	}
	kind, ok := kindVal.(string)
	if !ok {
		return Op{}, codecerr.Newf(codecerr.MalformedInfo, "op's \"op\" field is a %T, not a string", kindVal)
	}

	pathVal, _ := obj.Get("path")
	pathArr, ok := pathVal.([]interface{})
	if !ok {
		return Op{}, codecerr.Newf(codecerr.MalformedInfo, "op's \"path\" field is a %T, not an array", pathVal)
	}
	path := normalizePath(pathArr)

	op := Op{Kind: kind, Path: path}
	switch kind {
	case opChange:
		op.Old, _ = obj.Get("old")
		op.New, _ = obj.Get("new")
	default:
		entriesVal, _ := obj.Get("entries")
		entriesArr, ok := entriesVal.([]interface{})
		if !ok {
			return Op{}, codecerr.Newf(codecerr.MalformedInfo, "op's \"entries\" field is a %T, not an array", entriesVal)
		}
		entries := make([]Entry, len(entriesArr))
		for i, ev := range entriesArr {
			entry, err := valueToEntry(ev)
			if err != nil {
				return Op{}, err
			}
			entries[i] = entry
		}
		op.Entries = entries
	}
	return op, nil
}

func valueToEntry(value interface{}) (Entry, error) {
	obj, ok := value.(*orderedjson.Object)
	if !ok {
		return Entry{}, codecerr.Newf(codecerr.MalformedInfo, "entry is a %T, not an object", value)
	}
	key, _ := obj.Get("key")
	val, _ := obj.Get("value")
	return Entry{Key: normalizeKey(key), Value: val}, nil
}

// normalizePath converts path elements decoded from JSON (where every
// number comes back as a json.Number) back into ints for array indices.
func normalizePath(path []interface{}) []interface{} {
	out := make([]interface{}, len(path))
	for i, p := range path {
		out[i] = normalizeKey(p)
	}
	return out
}

func normalizeKey(v interface{}) interface{} {
	if n, ok := v.(json.Number); ok {
		i, err := n.Int64()
		if err == nil {
			return int(i)
		}
	}
	return v
}
