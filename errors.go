package carfile

import (
	"fmt"

	"github.com/ipfs/go-cid"
)

// Kind discriminates the failure modes a reconstruction call can report.
type Kind int

const (
	// KindIoError is an underlying source/sink I/O fault. Non-retryable at
	// this layer.
	KindIoError Kind = iota
	// KindCarDecodeError is a CAR framing or hash-verification failure.
	KindCarDecodeError
	// KindInvalidUnixFs is a UnixFS schema violation.
	KindInvalidUnixFs
	// KindInvalidUnixFsHash is a link hash that does not decode to a CID.
	KindInvalidUnixFsHash
	// KindPBLinkHasNoHash is a dag-pb link missing its Hash field.
	KindPBLinkHasNoHash
	// KindNotSingleRoot is a header with zero or more than one root and no
	// caller-supplied root to disambiguate.
	KindNotSingleRoot
	// KindUnexpectedHeaderRoots is a caller-supplied root that conflicts
	// with the CAR header.
	KindUnexpectedHeaderRoots
	// KindRootCidIsNotFile is a root whose UnixFS type is not File.
	KindRootCidIsNotFile
	// KindMissingNode is a child CID referenced by a link node but never
	// delivered by the CAR source (buffered engine, walk time).
	KindMissingNode
	// KindDataNodesNotSorted is a leaf CID known to the frontier but not at
	// its head (seek engine).
	KindDataNodesNotSorted
	// KindPendingLinksAtEOF is a CAR source that ended before the frontier
	// was fully resolved.
	KindPendingLinksAtEOF
	// KindMaxBufferedData is a buffered-engine cap breach.
	KindMaxBufferedData
	// KindWriteLimitExceeded is a seek-engine cap breach.
	KindWriteLimitExceeded
	// KindInternalError is an assertion violation; reserved for bugs.
	KindInternalError
)

func (k Kind) String() string {
	switch k {
	case KindIoError:
		return "IoError"
	case KindCarDecodeError:
		return "CarDecodeError"
	case KindInvalidUnixFs:
		return "InvalidUnixFs"
	case KindInvalidUnixFsHash:
		return "InvalidUnixFsHash"
	case KindPBLinkHasNoHash:
		return "PBLinkHasNoHash"
	case KindNotSingleRoot:
		return "NotSingleRoot"
	case KindUnexpectedHeaderRoots:
		return "UnexpectedHeaderRoots"
	case KindRootCidIsNotFile:
		return "RootCidIsNotFile"
	case KindMissingNode:
		return "MissingNode"
	case KindDataNodesNotSorted:
		return "DataNodesNotSorted"
	case KindPendingLinksAtEOF:
		return "PendingLinksAtEOF"
	case KindMaxBufferedData:
		return "MaxBufferedData"
	case KindWriteLimitExceeded:
		return "WriteLimitExceeded"
	case KindInternalError:
		return "InternalError"
	default:
		return "Unknown"
	}
}

// Error is the single discriminated error type returned by this package's
// core operations. Callers that care about a specific failure mode should
// use errors.As to recover an *Error and switch on Kind.
type Error struct {
	Kind Kind
	Msg  string

	// Cid is populated for kinds that reference a single CID (MissingNode,
	// DataNodesNotSorted).
	Cid cid.Cid
	// Roots is populated for NotSingleRoot.
	Roots []cid.Cid
	// Expected/Actual are populated for UnexpectedHeaderRoots: Expected is
	// the caller-supplied root, Actual is whatever the header actually
	// declared (possibly zero or more than one root, not just a mismatched
	// single one).
	Expected cid.Cid
	Actual   []cid.Cid
	// Tail is populated for PendingLinksAtEOF.
	Tail []cid.Cid
	// Limit/Observed are populated for the cap-breach kinds.
	Limit    int
	Observed int

	cause error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindNotSingleRoot:
		return fmt.Sprintf("%s: expected exactly one root, got %v", e.Kind, e.Roots)
	case KindUnexpectedHeaderRoots:
		return fmt.Sprintf("%s: expected root %s, CAR header declared %v", e.Kind, e.Expected, e.Actual)
	case KindMissingNode:
		return fmt.Sprintf("%s: %s", e.Kind, e.Cid)
	case KindPendingLinksAtEOF:
		return fmt.Sprintf("%s: %d CIDs still pending: %v", e.Kind, len(e.Tail), e.Tail)
	case KindMaxBufferedData:
		return fmt.Sprintf("%s: exceeded limit of %d bytes", e.Kind, e.Limit)
	case KindWriteLimitExceeded:
		return fmt.Sprintf("%s: would have written %d bytes, limit is %d", e.Kind, e.Observed, e.Limit)
	case KindDataNodesNotSorted:
		return fmt.Sprintf("%s: %s arrived out of order", e.Kind, e.Cid)
	default:
		if e.Msg != "" {
			return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
		}
		return e.Kind.String()
	}
}

func (e *Error) Unwrap() error {
	return e.cause
}

func ioErr(cause error) error {
	return &Error{Kind: KindIoError, cause: cause, Msg: cause.Error()}
}

func carDecodeErr(cause error) error {
	return &Error{Kind: KindCarDecodeError, cause: cause, Msg: cause.Error()}
}

func invalidUnixFs(msg string) error {
	return &Error{Kind: KindInvalidUnixFs, Msg: msg}
}

func invalidUnixFsHash(msg string) error {
	return &Error{Kind: KindInvalidUnixFsHash, Msg: msg}
}

func pbLinkHasNoHash() error {
	return &Error{Kind: KindPBLinkHasNoHash}
}

func notSingleRoot(roots []cid.Cid) error {
	return &Error{Kind: KindNotSingleRoot, Roots: roots}
}

func unexpectedHeaderRoots(expected cid.Cid, actual []cid.Cid) error {
	return &Error{Kind: KindUnexpectedHeaderRoots, Expected: expected, Actual: actual}
}

func rootCidIsNotFile() error {
	return &Error{Kind: KindRootCidIsNotFile}
}

func missingNode(c cid.Cid) error {
	return &Error{Kind: KindMissingNode, Cid: c}
}

func dataNodesNotSorted(c cid.Cid) error {
	return &Error{Kind: KindDataNodesNotSorted, Cid: c}
}

func pendingLinksAtEOF(tail []cid.Cid) error {
	return &Error{Kind: KindPendingLinksAtEOF, Tail: tail}
}

func maxBufferedData(limit int) error {
	return &Error{Kind: KindMaxBufferedData, Limit: limit}
}

func writeLimitExceeded(observed, limit int) error {
	return &Error{Kind: KindWriteLimitExceeded, Observed: observed, Limit: limit}
}

func internalError(msg string) error {
	return &Error{Kind: KindInternalError, Msg: msg}
}
