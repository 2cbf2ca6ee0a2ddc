package carfile

import (
	"github.com/cespare/xxhash"
	"github.com/ipfs/go-cid"
)

// findResult classifies a candidate CID against the tracker's current
// frontier.
type findResult int

const (
	// isNext means the CID is exactly the head of the frontier.
	isNext findResult = iota
	// notNext means the CID is known but not at the head: the CAR stream
	// delivered it before an earlier sibling or cousin it depends on.
	notNext
	// unknownCid means the CID is not present anywhere in the frontier.
	unknownCid
)

// tracker is the Sorted-Link Tracker: a flat, left-to-right sequence of CIDs
// representing the file's byte layout as currently understood, with a
// cursor marking how much of it has been resolved (written). Link nodes
// start as a single opaque entry and are expanded in place, via
// insertReplace, into their children once decoded.
//
// find is called on every incoming leaf block and is the tracker's hot path, so
// lookups are backed by an xxhash-keyed index from CID to candidate
// positions rather than a linear scan; this mirrors the optimization the
// original design notes call out as permissible for exactly this structure.
type tracker struct {
	items  []cid.Cid
	cursor int

	// index maps a 64-bit xxhash digest of a CID's bytes to the positions
	// in items that might hold it. Collisions are resolved by confirming
	// full equality against items before trusting a candidate position.
	index map[uint64][]int
}

func newTracker(root cid.Cid) *tracker {
	t := &tracker{
		items: []cid.Cid{root},
		index: make(map[uint64][]int),
	}
	t.indexAppend(root, 0)
	return t
}

func cidDigest(c cid.Cid) uint64 {
	return xxhash.Sum64(c.Bytes())
}

func (t *tracker) indexAppend(c cid.Cid, pos int) {
	d := cidDigest(c)
	t.index[d] = append(t.index[d], pos)
}

// find reports how c relates to the current frontier head.
func (t *tracker) find(c cid.Cid) findResult {
	positions := t.index[cidDigest(c)]
	for _, pos := range positions {
		if pos < t.cursor {
			continue
		}
		if !t.items[pos].Equals(c) {
			continue
		}
		if pos == t.cursor {
			return isNext
		}
		return notNext
	}
	return unknownCid
}

// first returns the CID at the head of the frontier, or the zero value and
// false once every item has been resolved.
func (t *tracker) first() (cid.Cid, bool) {
	if t.cursor >= len(t.items) {
		return cid.Cid{}, false
	}
	return t.items[t.cursor], true
}

// advance resolves the current head of the frontier, moving the cursor
// forward by one.
func (t *tracker) advance() error {
	if t.cursor >= len(t.items) {
		return internalError("attempting to advance tracker cursor beyond frontier length")
	}
	t.cursor++
	return nil
}

// remaining returns the CIDs still unresolved, or nil if the frontier is
// fully resolved.
func (t *tracker) remaining() []cid.Cid {
	if t.cursor >= len(t.items) {
		return nil
	}
	return append([]cid.Cid(nil), t.items[t.cursor:]...)
}

// insertReplace splices children in place of root within the frontier,
// expanding a resolved link node into its constituent leaves and/or further
// link nodes. A no-op if root is no longer present (already resolved or
// never matched).
func (t *tracker) insertReplace(root cid.Cid, children []cid.Cid) {
	pos := -1
	for _, candidate := range t.index[cidDigest(root)] {
		if candidate >= t.cursor && t.items[candidate].Equals(root) {
			pos = candidate
			break
		}
	}
	if pos == -1 {
		return
	}

	tail := append([]cid.Cid(nil), t.items[pos+1:]...)
	t.items = append(t.items[:pos], children...)
	t.items = append(t.items, tail...)

	// Positions at and after pos shifted; rebuild the index rather than
	// patch it in place, since every suffix entry moved.
	t.index = make(map[uint64][]int, len(t.items))
	for i, c := range t.items {
		t.indexAppend(c, i)
	}
}
