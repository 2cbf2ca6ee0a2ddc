package carfile

import (
	"io"

	"github.com/ipfs/go-cid"
	carv2 "github.com/ipld/go-car/v2"
)

// CarSource is the minimal, read-only view of a CAR v1 byte stream that the
// reconstruction engines need: the header's declared roots, plus a forward
// cursor over its blocks in on-wire order.
//
// ReconstructBuffered accepts blocks in any order. ReconstructSeek requires
// each link node to arrive before the children it references and the leaves
// of the file to arrive in left-to-right order; neither engine re-sorts
// blocks itself.
type CarSource interface {
	// Roots returns the CAR header's declared root CIDs.
	Roots() []cid.Cid
	// Next returns the next block's CID and raw (dag-pb encoded) bytes, or
	// io.EOF once the stream is exhausted.
	Next() (cid.Cid, []byte, error)
}

// blockReaderSource adapts go-car/v2's BlockReader, which already performs
// CAR v1/v2 framing and multihash verification, to CarSource.
type blockReaderSource struct {
	br *carv2.BlockReader
}

// NewCarSource wraps r, a CAR v1 or v2 byte stream, as a CarSource. The
// underlying BlockReader verifies each block's multihash against its CID as
// it is read.
func NewCarSource(r io.Reader) (CarSource, error) {
	br, err := carv2.NewBlockReader(r)
	if err != nil {
		return nil, carDecodeErr(err)
	}
	return &blockReaderSource{br: br}, nil
}

func (s *blockReaderSource) Roots() []cid.Cid {
	return s.br.Roots
}

func (s *blockReaderSource) Next() (cid.Cid, []byte, error) {
	blk, err := s.br.Next()
	if err != nil {
		if err == io.EOF {
			return cid.Cid{}, nil, io.EOF
		}
		return cid.Cid{}, nil, carDecodeErr(err)
	}
	return blk.Cid(), blk.RawData(), nil
}
