package carfile

import (
	"github.com/ipfs/go-cid"
)

// resolveRoot determines the single root CID a reconstruction call should
// walk, reconciling the CAR header's declared roots against an optional
// caller-supplied expectation.
//
// Both the buffered and the seek engines call this with identical
// semantics: the header must declare exactly one root, and if the caller
// supplied one too, the two must agree. This is a deliberate change from
// looser historical behavior that let the buffered path ignore the header
// whenever a caller root was given; requiring agreement catches a caller
// pointed at the wrong CAR file instead of silently reconstructing
// something unexpected.
func resolveRoot(headerRoots []cid.Cid, expected cid.Cid) (cid.Cid, error) {
	if expected.Defined() {
		if len(headerRoots) == 1 && headerRoots[0].Equals(expected) {
			return expected, nil
		}
		return cid.Cid{}, unexpectedHeaderRoots(expected, headerRoots)
	}
	if len(headerRoots) != 1 {
		return cid.Cid{}, notSingleRoot(headerRoots)
	}
	return headerRoots[0], nil
}
