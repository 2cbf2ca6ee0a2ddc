package carfile

import (
	"testing"

	"github.com/ipfs/go-cid"
	"github.com/stretchr/testify/require"
)

func TestResolveRootSingleHeaderRoot(t *testing.T) {
	root := testCid(t, "root")
	resolved, err := resolveRoot([]cid.Cid{root}, cid.Cid{})
	require.NoError(t, err)
	require.True(t, resolved.Equals(root))
}

func TestResolveRootAgreeingExpectation(t *testing.T) {
	root := testCid(t, "root")
	resolved, err := resolveRoot([]cid.Cid{root}, root)
	require.NoError(t, err)
	require.True(t, resolved.Equals(root))
}

func TestResolveRootConflictingExpectation(t *testing.T) {
	root := testCid(t, "root")
	other := testCid(t, "other")
	_, err := resolveRoot([]cid.Cid{root}, other)
	require.Error(t, err)
	var cfErr *Error
	require.ErrorAs(t, err, &cfErr)
	require.Equal(t, KindUnexpectedHeaderRoots, cfErr.Kind)
}

func TestResolveRootRequiresExactlyOne(t *testing.T) {
	root := testCid(t, "root")
	other := testCid(t, "other")

	_, err := resolveRoot(nil, cid.Cid{})
	require.Error(t, err)
	var cfErr *Error
	require.ErrorAs(t, err, &cfErr)
	require.Equal(t, KindNotSingleRoot, cfErr.Kind)

	_, err = resolveRoot([]cid.Cid{root, other}, cid.Cid{})
	require.Error(t, err)
	require.ErrorAs(t, err, &cfErr)
	require.Equal(t, KindNotSingleRoot, cfErr.Kind)
}

func TestResolveRootExpectedRootSurvivesMultiRootHeader(t *testing.T) {
	root := testCid(t, "root")
	other := testCid(t, "other")

	_, err := resolveRoot([]cid.Cid{root, other}, root)
	require.Error(t, err)
	var cfErr *Error
	require.ErrorAs(t, err, &cfErr)
	require.Equal(t, KindUnexpectedHeaderRoots, cfErr.Kind)
	require.Equal(t, []cid.Cid{root, other}, cfErr.Actual)
}
