package carfile

import (
	"bytes"
	"context"
	"testing"

	"github.com/ipld/go-carfile/testutil"
	"github.com/stretchr/testify/require"
)

func TestReconstructBufferedSmallFile(t *testing.T) {
	fixture := testutil.BuildUnixFSFile(t, 1024)

	source, err := NewCarSource(bytes.NewReader(fixture.CARBytes()))
	require.NoError(t, err)

	var out bytes.Buffer
	err = ReconstructBuffered(context.Background(), source, &out)
	require.NoError(t, err)
	require.Equal(t, fixture.FileData, out.Bytes())
}

func TestReconstructBufferedMultiBlockFile(t *testing.T) {
	fixture := testutil.BuildUnixFSFile(t, 5*1024*1024)

	source, err := NewCarSource(bytes.NewReader(fixture.CARBytes()))
	require.NoError(t, err)

	var out bytes.Buffer
	err = ReconstructBuffered(context.Background(), source, &out)
	require.NoError(t, err)
	require.Equal(t, fixture.FileData, out.Bytes())
}

func TestReconstructBufferedToleratesOutOfOrderLeaves(t *testing.T) {
	fixture := testutil.BuildUnixFSFile(t, 5*1024*1024)

	source, err := NewCarSource(bytes.NewReader(fixture.ShuffledCARBytes()))
	require.NoError(t, err)

	var out bytes.Buffer
	err = ReconstructBuffered(context.Background(), source, &out)
	require.NoError(t, err)
	require.Equal(t, fixture.FileData, out.Bytes())
}

func TestReconstructBufferedExpectedRootMismatch(t *testing.T) {
	fixture := testutil.BuildUnixFSFile(t, 1024)
	other := testCid(t, "not-the-root")

	source, err := NewCarSource(bytes.NewReader(fixture.CARBytes()))
	require.NoError(t, err)

	var out bytes.Buffer
	err = ReconstructBuffered(context.Background(), source, &out, WithExpectedRoot(other))
	require.Error(t, err)
	var cfErr *Error
	require.ErrorAs(t, err, &cfErr)
	require.Equal(t, KindUnexpectedHeaderRoots, cfErr.Kind)
}

func TestReconstructBufferedMaxBufferExceeded(t *testing.T) {
	fixture := testutil.BuildUnixFSFile(t, 5*1024*1024)

	source, err := NewCarSource(bytes.NewReader(fixture.CARBytes()))
	require.NoError(t, err)

	var out bytes.Buffer
	err = ReconstructBuffered(context.Background(), source, &out, WithMaxBuffer(1024))
	require.Error(t, err)
	var cfErr *Error
	require.ErrorAs(t, err, &cfErr)
	require.Equal(t, KindMaxBufferedData, cfErr.Kind)
}
