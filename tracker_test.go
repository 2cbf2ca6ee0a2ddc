package carfile

import (
	"testing"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
	"github.com/stretchr/testify/require"
)

func testCid(t *testing.T, seed string) cid.Cid {
	t.Helper()
	h, err := multihash.Sum([]byte(seed), multihash.SHA2_256, -1)
	require.NoError(t, err)
	return cid.NewCidV1(cid.Raw, h)
}

func TestTrackerSingleLeafRoot(t *testing.T) {
	root := testCid(t, "root")
	tr := newTracker(root)

	require.Equal(t, isNext, tr.find(root))
	first, ok := tr.first()
	require.True(t, ok)
	require.True(t, first.Equals(root))

	require.NoError(t, tr.advance())
	_, ok = tr.first()
	require.False(t, ok)
	require.Nil(t, tr.remaining())
}

func TestTrackerInsertReplaceExpandsFrontier(t *testing.T) {
	root := testCid(t, "root")
	childA := testCid(t, "a")
	childB := testCid(t, "b")
	tr := newTracker(root)

	tr.insertReplace(root, []cid.Cid{childA, childB})

	first, ok := tr.first()
	require.True(t, ok)
	require.True(t, first.Equals(childA))
	require.Equal(t, isNext, tr.find(childA))
	require.Equal(t, notNext, tr.find(childB))

	require.NoError(t, tr.advance())
	first, ok = tr.first()
	require.True(t, ok)
	require.True(t, first.Equals(childB))
}

func TestTrackerUnknownCid(t *testing.T) {
	root := testCid(t, "root")
	stray := testCid(t, "stray")
	tr := newTracker(root)

	require.Equal(t, unknownCid, tr.find(stray))
}

func TestTrackerRemainingAtEOF(t *testing.T) {
	root := testCid(t, "root")
	childA := testCid(t, "a")
	childB := testCid(t, "b")
	tr := newTracker(root)
	tr.insertReplace(root, []cid.Cid{childA, childB})

	require.NoError(t, tr.advance())
	remaining := tr.remaining()
	require.Len(t, remaining, 1)
	require.True(t, remaining[0].Equals(childB))
}

func TestTrackerNestedInsertReplace(t *testing.T) {
	root := testCid(t, "root")
	mid := testCid(t, "mid")
	leafA := testCid(t, "leafA")
	leafB := testCid(t, "leafB")
	leafC := testCid(t, "leafC")
	tr := newTracker(root)

	tr.insertReplace(root, []cid.Cid{leafA, mid})
	require.NoError(t, tr.advance())

	require.Equal(t, isNext, tr.find(mid))
	tr.insertReplace(mid, []cid.Cid{leafB, leafC})

	first, ok := tr.first()
	require.True(t, ok)
	require.True(t, first.Equals(leafB))
	require.Equal(t, notNext, tr.find(leafC))
}

func TestTrackerAdvanceBeyondEndIsInternalError(t *testing.T) {
	root := testCid(t, "root")
	tr := newTracker(root)
	require.NoError(t, tr.advance())

	err := tr.advance()
	require.Error(t, err)
	var cfErr *Error
	require.ErrorAs(t, err, &cfErr)
	require.Equal(t, KindInternalError, cfErr.Kind)
}
