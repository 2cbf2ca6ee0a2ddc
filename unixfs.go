package carfile

import (
	"bytes"
	"fmt"

	"github.com/ipfs/go-cid"
	"github.com/ipfs/go-unixfsnode/data"
	dagpb "github.com/ipld/go-codec-dagpb"
	cidlink "github.com/ipld/go-ipld-prime/linking/cid"
)

// nodeKind distinguishes the two shapes a UnixFS File block can take.
type nodeKind int

const (
	// leafNode carries raw file bytes and has no links.
	leafNode nodeKind = iota
	// linkNode carries no data of its own (or only padding) and has one
	// or more children, whose subtrees make up the file content in link
	// order.
	linkNode
)

// link is one child reference of a linkNode, in declared order.
type link struct {
	Cid   cid.Cid
	Size  uint64 // dag-pb Tsize of the link, 0 if the link omits it
	Name  string
}

// node is the decoded, domain-shaped view of a single CAR block: the
// dag-pb envelope and inner UnixFS message, reduced to what reconstruction
// needs.
type node struct {
	Cid   cid.Cid
	Kind  nodeKind
	Type  int64 // raw UnixFS data-type field (data.Data_File, data.Data_Raw)
	Data  []byte // leafNode only: raw file bytes for this block
	Links []link // linkNode only
}

// isFileType reports whether n's UnixFS data type is File, as required of
// the root block regardless of whether the root happens to be a leaf or a
// link node.
func (n *node) isFileType() bool {
	return n.Type == data.Data_File
}

// decodeUnixFSBlock parses a raw CAR block (its CID plus wire bytes) into a
// node. It rejects anything that is not a UnixFS File or Raw dag-pb node,
// since directories, symlinks and HAMT shards are out of scope.
func decodeUnixFSBlock(c cid.Cid, raw []byte) (*node, error) {
	builder := dagpb.Type.PBNode.NewBuilder()
	if err := dagpb.DecodeBytes(builder, raw); err != nil {
		return nil, invalidUnixFs(fmt.Sprintf("%s: not a dag-pb node: %s", c, err))
	}
	pbNode := builder.Build().(dagpb.PBNode)

	var inner []byte
	if pbNode.Data.Exists() {
		inner = pbNode.Data.Must().Bytes()
	}

	ufsData, err := data.DecodeUnixFSData(inner)
	if err != nil {
		return nil, invalidUnixFs(fmt.Sprintf("%s: not a UnixFS data message: %s", c, err))
	}

	dt := ufsData.FieldDataType().Int()
	if dt != data.Data_File && dt != data.Data_Raw {
		return nil, invalidUnixFs(fmt.Sprintf("%s: unsupported UnixFS type %s", c, data.DataTypeNames[dt]))
	}

	links := make([]link, 0, int(pbNode.Links.Length()))
	it := pbNode.Links.ListIterator()
	for !it.Done() {
		_, v, err := it.Next()
		if err != nil {
			return nil, carDecodeErr(err)
		}
		pbLink := v.(dagpb.PBLink)
		if !pbLink.Hash.Exists() {
			return nil, pbLinkHasNoHash()
		}
		lnk := pbLink.Hash.Must().Link()
		cl, ok := lnk.(cidlink.Link)
		if !ok {
			return nil, invalidUnixFsHash(fmt.Sprintf("%s: link is not a CID-link", c))
		}
		var tsize uint64
		if pbLink.Tsize.Exists() {
			tsize = uint64(pbLink.Tsize.Must().Int())
		}
		var name string
		if pbLink.Name.Exists() {
			name = pbLink.Name.Must().String()
		}
		links = append(links, link{Cid: cl.Cid, Size: tsize, Name: name})
	}

	if len(links) == 0 {
		raw := ufsData.FieldData()
		if !raw.Exists() {
			return nil, invalidUnixFs(fmt.Sprintf("%s: leaf node has no data field", c))
		}
		return &node{Cid: c, Kind: leafNode, Type: dt, Data: raw.Must().Bytes()}, nil
	}

	return &node{Cid: c, Kind: linkNode, Type: dt, Links: links}, nil
}

// leafLen reports the byte length a leaf node contributes to the
// reconstructed file, independent of how it is padded on the wire.
func leafLen(n *node) int {
	return len(n.Data)
}

// isAllZero reports whether b consists entirely of zero bytes. Used by the
// sparse-write rule to decide whether a leaf can be emitted as a hole.
func isAllZero(b []byte) bool {
	return bytes.Count(b, []byte{0}) == len(b)
}
