package metadiff_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sumitshetye2/v86-savestreams/internal/metadiff"
	"github.com/sumitshetye2/v86-savestreams/internal/orderedjson"
)

func decodeJSON(t *testing.T, s string) interface{} {
	t.Helper()
	v, err := orderedjson.Unmarshal([]byte(s))
	require.NoError(t, err)
	return v
}

// reserialize marshals v through orderedjson so two trees built by separate
// parses (or by a diff/patch round trip) can be compared by their bytes
// rather than by Go struct/pointer identity.
func reserialize(t *testing.T, v interface{}) string {
	t.Helper()
	b, err := orderedjson.Marshal(v)
	require.NoError(t, err)
	return string(b)
}

func TestDiffFromEmptyObject(t *testing.T) {
	prev := orderedjson.NewObject()
	curr := decodeJSON(t, `{"buffer_infos":[{"offset":0,"length":300}]}`)

	patchBytes, err := metadiff.Diff(prev, curr)
	require.NoError(t, err)

	patched, err := metadiff.Patch(prev, patchBytes)
	require.NoError(t, err)

	assert.JSONEq(t, reserialize(t, curr), reserialize(t, patched))
}

func TestDiffNoOpOnIdenticalStates(t *testing.T) {
	obj := decodeJSON(t, `{"state":1,"buffer_infos":[]}`)
	patchBytes, err := metadiff.Diff(obj, obj)
	require.NoError(t, err)

	ops, err := orderedjson.Unmarshal(patchBytes)
	require.NoError(t, err)
	assert.Empty(t, ops.([]interface{}))
}

func TestDiffChangeLeaf(t *testing.T) {
	prev := decodeJSON(t, `{"state":1}`)
	curr := decodeJSON(t, `{"state":2}`)

	patchBytes, err := metadiff.Diff(prev, curr)
	require.NoError(t, err)

	patched, err := metadiff.Patch(prev, patchBytes)
	require.NoError(t, err)
	assert.Equal(t, reserialize(t, curr), reserialize(t, patched))
}

func TestDiffAddAndRemoveKeys(t *testing.T) {
	prev := decodeJSON(t, `{"a":1,"b":2}`)
	curr := decodeJSON(t, `{"b":2,"c":3}`)

	patchBytes, err := metadiff.Diff(prev, curr)
	require.NoError(t, err)

	patched, err := metadiff.Patch(prev, patchBytes)
	require.NoError(t, err)
	assert.Equal(t, reserialize(t, curr), reserialize(t, patched))
}

func TestDiffArrayAppendAndShrink(t *testing.T) {
	prev := decodeJSON(t, `{"items":[1,2]}`)
	grown := decodeJSON(t, `{"items":[1,2,3,4]}`)

	patchBytes, err := metadiff.Diff(prev, grown)
	require.NoError(t, err)
	patched, err := metadiff.Patch(prev, patchBytes)
	require.NoError(t, err)
	assert.Equal(t, reserialize(t, grown), reserialize(t, patched))

	shrunk := decodeJSON(t, `{"items":[1]}`)
	patchBytes, err = metadiff.Diff(grown, shrunk)
	require.NoError(t, err)
	patched, err = metadiff.Patch(grown, patchBytes)
	require.NoError(t, err)
	assert.Equal(t, reserialize(t, shrunk), reserialize(t, patched))
}

func TestDiffNestedObjects(t *testing.T) {
	prev := decodeJSON(t, `{"outer":{"inner":{"value":1}}}`)
	curr := decodeJSON(t, `{"outer":{"inner":{"value":2,"extra":true}}}`)

	patchBytes, err := metadiff.Diff(prev, curr)
	require.NoError(t, err)
	patched, err := metadiff.Patch(prev, patchBytes)
	require.NoError(t, err)
	assert.Equal(t, reserialize(t, curr), reserialize(t, patched))
}

func TestDiffPreservesKeyOrderThroughPatch(t *testing.T) {
	prev := orderedjson.NewObject()
	curr := decodeJSON(t, `{"offset":0,"length":300}`)

	patchBytes, err := metadiff.Diff(prev, curr)
	require.NoError(t, err)

	patched, err := metadiff.Patch(prev, patchBytes)
	require.NoError(t, err)

	patchedBytes, err := orderedjson.Marshal(patched)
	require.NoError(t, err)
	assert.Equal(t, `{"offset":0,"length":300}`, string(patchedBytes))
}
